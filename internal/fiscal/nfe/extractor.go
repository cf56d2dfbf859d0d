package nfe

import (
	"fmt"
	"strings"
	"time"

	"github.com/lronetto/fortanks1-sub000/internal/fiscal/types"
	"github.com/lronetto/fortanks1-sub000/internal/logger"
	"github.com/shopspring/decimal"
)

const component = "NFeExtractor"

// Extract turns one decoded NF-e document into a FiscalDocument. The
// structural XML tier runs first; any field it misses falls through to the
// pattern tier. The access key is the only field whose absence fails the
// whole extraction — everything else has a defined default.
func Extract(doc string, appLogger *logger.Logger) (fd *types.FiscalDocument, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			appLogger.Error(component, "Extraction panicked, attempting partial recovery: %v", r)
			fd, ok = recoverPartial(doc, appLogger)
		}
	}()

	fd = &types.FiscalDocument{RawDocument: doc}

	inf, structural := parseStructural(doc)
	if structural {
		applyStructural(fd, inf)
	} else {
		appLogger.Warn(component, "Structural XML parse failed, relying on pattern fallback")
	}

	applyFallback(fd, doc)

	if fd.AccessKey == "" {
		appLogger.Error(component, "No access key recoverable, document cannot be imported")
		return nil, false
	}

	finalize(fd, appLogger)
	return fd, true
}

func applyStructural(fd *types.FiscalDocument, inf *xmlInfNFe) {
	if key, ok := structuralAccessKey(inf.ID); ok {
		fd.AccessKey = key
	}

	fd.Number = strings.TrimSpace(inf.Ide.NNF)

	emission := inf.Ide.DhEmi
	if emission == "" {
		emission = inf.Ide.DEmi
	}
	if t, ok := parseEmission(emission); ok {
		fd.EmissionDate = t
	}

	if total, ok := parseStructuralDecimal(inf.Total.ICMSTot.VNF); ok {
		fd.TotalValue = total
	}

	fd.SenderTaxID = strings.TrimSpace(inf.Emit.CNPJ)
	fd.SenderName = strings.TrimSpace(inf.Emit.XNome)

	if inf.Dest != nil {
		taxID := inf.Dest.CNPJ
		if strings.TrimSpace(taxID) == "" {
			taxID = inf.Dest.CPF
		}
		fd.ReceiverTaxID = strings.TrimSpace(taxID)
		fd.ReceiverName = strings.TrimSpace(inf.Dest.XNome)
	}

	for i, det := range inf.Det {
		fd.LineItems = append(fd.LineItems, buildStructuralItem(i, det.Prod))
	}
}

func buildStructuralItem(idx int, p xmlProd) types.LineItem {
	item := types.LineItem{
		Code:        strings.TrimSpace(p.CProd),
		Description: strings.TrimSpace(p.XProd),
		Quantity:    1,
	}

	if q, ok := parseStructuralDecimal(p.QCom); ok {
		item.Quantity, _ = q.Float64()
	}
	if u, ok := parseStructuralDecimal(p.VUnCom); ok {
		item.UnitValue = u
	}
	if t, ok := parseStructuralDecimal(p.VProd); ok {
		item.TotalValue = t
	} else {
		item.TotalValue = decimal.NewFromFloat(item.Quantity).Mul(item.UnitValue)
	}

	applyItemPlaceholders(&item, idx)
	return item
}

// applyFallback fills, via the pattern cascades, every field the structural
// tier left empty.
func applyFallback(fd *types.FiscalDocument, doc string) {
	if fd.AccessKey == "" {
		if v, ok := firstMatch(accessKeyPatterns, doc); ok {
			fd.AccessKey = v
		}
	}
	if fd.Number == "" {
		if v, ok := firstMatch(numberPatterns, doc); ok {
			fd.Number = v
		}
	}
	if fd.EmissionDate.IsZero() {
		if v, ok := firstMatch(emissionPatterns, doc); ok {
			if t, tok := parseEmission(v); tok {
				fd.EmissionDate = t
			}
		}
	}
	if fd.TotalValue.IsZero() {
		if v, ok := firstMatch(totalPatterns, doc); ok {
			if d, dok := parseFallbackDecimal(v); dok {
				fd.TotalValue = d
			}
		}
	}
	if fd.SenderTaxID == "" {
		if v, ok := firstMatch(senderTaxIDPatterns, doc); ok {
			fd.SenderTaxID = v
		}
	}
	if fd.SenderName == "" {
		if v, ok := firstMatch(senderNamePatterns, doc); ok {
			fd.SenderName = v
		}
	}
	if fd.ReceiverTaxID == "" {
		if v, ok := firstMatch(receiverTaxIDPatterns, doc); ok {
			fd.ReceiverTaxID = v
		}
	}
	if fd.ReceiverName == "" {
		if v, ok := firstMatch(receiverNamePatterns, doc); ok {
			fd.ReceiverName = v
		}
	}

	if len(fd.LineItems) == 0 {
		fd.LineItems = fallbackItems(doc)
	}
}

func fallbackItems(doc string) []types.LineItem {
	blocks := detBlockPattern.FindAllStringSubmatch(doc, -1)
	items := make([]types.LineItem, 0, len(blocks))

	for idx, block := range blocks {
		body := block[1]
		item := types.LineItem{Quantity: 1}

		if v, ok := firstMatch(itemCodePatterns, body); ok {
			item.Code = v
		}
		if v, ok := firstMatch(itemDescriptionPatterns, body); ok {
			item.Description = v
		}
		if v, ok := firstMatch(itemQuantityPatterns, body); ok {
			if q, qok := parseFallbackDecimal(v); qok {
				item.Quantity, _ = q.Float64()
			}
		}
		if v, ok := firstMatch(itemUnitValuePatterns, body); ok {
			if u, uok := parseFallbackDecimal(v); uok {
				item.UnitValue = u
			}
		}
		if v, ok := firstMatch(itemTotalPatterns, body); ok {
			if t, tok := parseFallbackDecimal(v); tok {
				item.TotalValue = t
			}
		}
		if item.TotalValue.IsZero() {
			item.TotalValue = decimal.NewFromFloat(item.Quantity).Mul(item.UnitValue)
		}

		applyItemPlaceholders(&item, idx)
		items = append(items, item)
	}

	return items
}

// applyItemPlaceholders guarantees an item is never dropped solely for
// missing identification: absent code/description get synthetic values
// keyed to the item's 1-based position.
func applyItemPlaceholders(item *types.LineItem, idx int) {
	if item.Code == "" {
		item.Code = fmt.Sprintf("ITEM%d", idx+1)
	}
	if item.Description == "" {
		item.Description = fmt.Sprintf("Item %d", idx+1)
	}
}

// finalize applies the document-level defaults: emission falls back to the
// import moment, and a document with a valid key but no extracted items gets
// one generic item carrying the invoice total.
func finalize(fd *types.FiscalDocument, appLogger *logger.Logger) {
	if fd.EmissionDate.IsZero() {
		appLogger.Warn(component, "Emission date not found for key=%s, defaulting to now", fd.AccessKey)
		fd.EmissionDate = time.Now()
	}

	if len(fd.LineItems) == 0 {
		appLogger.Warn(component, "No line items extracted for key=%s, synthesizing generic item", fd.AccessKey)
		fd.LineItems = []types.LineItem{{
			Code:        "ITEM1",
			Description: "Item genérico da nota",
			Quantity:    1,
			UnitValue:   fd.TotalValue,
			TotalValue:  fd.TotalValue,
		}}
	}
}

// recoverPartial is the last line of defense after a panic mid-extraction.
// If the chave cascade can still pull an access key out of the raw text the
// document is preserved with a single error-marker item; otherwise the
// extraction fails outright.
func recoverPartial(doc string, appLogger *logger.Logger) (*types.FiscalDocument, bool) {
	key, found := firstMatch(accessKeyPatterns, doc)
	if !found {
		return nil, false
	}

	appLogger.Warn(component, "Returning partial document for key=%s", key)
	return &types.FiscalDocument{
		AccessKey:    key,
		EmissionDate: time.Now(),
		RawDocument:  doc,
		LineItems: []types.LineItem{{
			Code:        "ERRO",
			Description: "Falha ao processar itens da nota",
			Quantity:    1,
		}},
	}, true
}
