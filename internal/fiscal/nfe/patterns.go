package nfe

import (
	"regexp"
	"strings"
)

// Tier-2 pattern cascades. Deliberately loose: case-insensitive, tolerant of
// namespace prefixes, stray attributes and missing closing tags, because the
// documents that reach this tier are the ones the structural parser already
// gave up on.
var (
	accessKeyPatterns = compile(
		`Id\s*=\s*["']NFe(\d{44})["']`,
		`<(?:\w+:)?chNFe[^>]*>\s*(\d{44})`,
		`chave[^>]*>\s*(\d{44})`,
		`\b(\d{44})\b`,
	)

	numberPatterns = compile(
		`<(?:\w+:)?nNF[^>]*>\s*([^<\s]+)`,
		`<(?:\w+:)?numero(?:NF)?[^>]*>\s*(\d+)`,
		`n[uú]mero[^\d]{0,20}(\d{1,9})`,
	)

	emissionPatterns = compile(
		`<(?:\w+:)?dhEmi[^>]*>\s*([^<\s]+)`,
		`<(?:\w+:)?dEmi[^>]*>\s*([^<\s]+)`,
		`<(?:\w+:)?dataEmissao[^>]*>\s*([^<\s]+)`,
		`emiss[aã]o[^\d]{0,20}(\d{2}/\d{2}/\d{4})`,
	)

	totalPatterns = compile(
		`<(?:\w+:)?vNF[^>]*>\s*([\d.,]+)`,
		`<(?:\w+:)?vlrNota[^>]*>\s*([\d.,]+)`,
		`valor\s*total[^\d]{0,20}([\d.,]+)`,
	)

	senderTaxIDPatterns = compile(
		`<(?:\w+:)?emit[^>]*>.*?<(?:\w+:)?CNPJ[^>]*>\s*(\d+)`,
		`<(?:\w+:)?CNPJ[^>]*>\s*(\d{14})`,
	)

	senderNamePatterns = compile(
		`<(?:\w+:)?emit[^>]*>.*?<(?:\w+:)?xNome[^>]*>\s*([^<]+)`,
		`raz[aã]o\s*social[^>]*>\s*([^<]+)`,
	)

	receiverTaxIDPatterns = compile(
		`<(?:\w+:)?dest[^>]*>.*?<(?:\w+:)?CNPJ[^>]*>\s*(\d+)`,
		`<(?:\w+:)?dest[^>]*>.*?<(?:\w+:)?CPF[^>]*>\s*(\d+)`,
	)

	receiverNamePatterns = compile(
		`<(?:\w+:)?dest[^>]*>.*?<(?:\w+:)?xNome[^>]*>\s*([^<]+)`,
	)

	detBlockPattern = regexp.MustCompile(`(?is)<(?:\w+:)?det\b[^>]*>(.*?)</(?:\w+:)?det>`)

	itemCodePatterns = compile(
		`<(?:\w+:)?cProd[^>]*>\s*([^<]+)`,
		`<(?:\w+:)?codigo[^>]*>\s*([^<]+)`,
	)
	itemDescriptionPatterns = compile(
		`<(?:\w+:)?xProd[^>]*>\s*([^<]+)`,
		`<(?:\w+:)?descricao[^>]*>\s*([^<]+)`,
	)
	itemQuantityPatterns = compile(
		`<(?:\w+:)?qCom[^>]*>\s*([\d.,]+)`,
		`<(?:\w+:)?qtde?[^>]*>\s*([\d.,]+)`,
	)
	itemUnitValuePatterns = compile(
		`<(?:\w+:)?vUnCom[^>]*>\s*([\d.,]+)`,
		`<(?:\w+:)?vlrUnit[^>]*>\s*([\d.,]+)`,
	)
	itemTotalPatterns = compile(
		`<(?:\w+:)?vProd[^>]*>\s*([\d.,]+)`,
	)
)

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(`(?is)`+p))
	}
	return out
}

// firstMatch evaluates a pattern cascade against the raw text and returns
// the first non-blank capture. Every Tier-2 field shares this combinator.
func firstMatch(patterns []*regexp.Regexp, text string) (string, bool) {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); len(m) > 1 {
			if v := strings.TrimSpace(m[1]); v != "" {
				return v, true
			}
		}
	}
	return "", false
}
