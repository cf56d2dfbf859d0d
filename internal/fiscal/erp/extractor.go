package erp

import (
	"regexp"
	"strings"
	"time"

	"github.com/lronetto/fortanks1-sub000/internal/fiscal/types"
	"github.com/lronetto/fortanks1-sub000/internal/logger"
	"github.com/shopspring/decimal"
	"golang.org/x/net/html"
)

const component = "ERPTableExtractor"

// Fixed column positions of the ERP cost-center export. The report carries
// no usable headers; the layout is a positional contract with the ERP and
// must not be replaced by header matching.
const (
	colPaymentDate = 2
	colDocument    = 3
	colIssuer      = 4
	colHistory     = 6
	colAmount      = 10
)

const costCenterMarker = "C.Custo:"

var (
	costCenterPattern = regexp.MustCompile(`\d{4}-\d{2}`)
	leadingDigits     = regexp.MustCompile(`^\d+`)
	nonAmount         = regexp.MustCompile(`[^\d.,]`)
)

// rowContext carries the running cost-center / category state across rows.
// Header rows set it; data rows consume it.
type rowContext struct {
	costCenter string
	category   string
}

// Extract turns one ERP HTML report into cost-center transactions. The
// largest table in the document is assumed to be the data table. Rows that
// fail to produce a positive amount are skipped, never fatal; a report with
// no tables yields an empty result.
func Extract(doc string, appLogger *logger.Logger) []types.CostCenterTransaction {
	root, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		appLogger.Warn(component, "HTML parse failed: %v", err)
		return nil
	}

	table := largestTable(root)
	if table == nil {
		appLogger.Info(component, "No tables found in report")
		return nil
	}

	processedAt := time.Now()
	ctx := rowContext{}
	var out []types.CostCenterTransaction

	for _, row := range tableRows(table) {
		cells := cellTexts(row)
		if len(cells) == 0 {
			continue
		}

		if strings.Contains(cells[0], costCenterMarker) {
			if m := costCenterPattern.FindString(cells[0]); m != "" {
				ctx.costCenter = m
				appLogger.Debug(component, "Cost center context: %s", m)
			}
			continue
		}

		if len(cells) > 1 {
			if m := leadingDigits.FindString(strings.TrimSpace(cells[1])); m != "" {
				ctx.category = m
				continue
			}
		}

		if len(cells) <= colAmount {
			continue
		}

		amount, ok := parseAmount(cells[colAmount])
		if !ok {
			if strings.TrimSpace(cells[colAmount]) != "" {
				appLogger.Warn(component, "Skipping row with unparseable amount: %q", cells[colAmount])
			}
			continue
		}
		if !amount.IsPositive() {
			continue
		}

		out = append(out, types.CostCenterTransaction{
			CostCenterCode: ctx.costCenter,
			CategoryCode:   ctx.category,
			PaymentDate:    strings.TrimSpace(cells[colPaymentDate]),
			DocumentRef:    strings.TrimSpace(cells[colDocument]),
			IssuerName:     strings.TrimSpace(cells[colIssuer]),
			Description:    strings.TrimSpace(cells[colHistory]),
			Amount:         amount,
			ProcessedAt:    processedAt,
		})
	}

	appLogger.Info(component, "Report extraction completed: transactions=%d", len(out))
	return out
}

// parseAmount cleans a report amount cell to the Brazilian locale digits,
// strips the thousands separator and parses the result.
func parseAmount(s string) (decimal.Decimal, bool) {
	s = nonAmount.ReplaceAllString(s, "")
	if s == "" {
		return decimal.Zero, false
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

func largestTable(root *html.Node) *html.Node {
	var best *html.Node
	bestRows := -1

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "table" {
			if rows := len(tableRows(n)); rows > bestRows {
				best = n
				bestRows = rows
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return best
}

func tableRows(table *html.Node) []*html.Node {
	var rows []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			rows = append(rows, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := table.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return rows
}

func cellTexts(row *html.Node) []string {
	var cells []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "td" || n.Data == "th") {
			cells = append(cells, collapseSpace(textContent(n)))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for c := row.FirstChild; c != nil; c = c.NextSibling {
		walk(c)
	}
	return cells
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textContent(c))
	}
	return b.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
