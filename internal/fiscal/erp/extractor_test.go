package erp

import (
	"testing"

	"github.com/lronetto/fortanks1-sub000/internal/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = logger.New(logger.LevelError)

func dataRow(paymentDate, document, issuer, history, amount string) string {
	return `<tr>
	  <td></td><td></td>
	  <td>` + paymentDate + `</td>
	  <td>` + document + `</td>
	  <td>` + issuer + `</td>
	  <td></td>
	  <td>` + history + `</td>
	  <td></td><td></td><td></td>
	  <td>` + amount + `</td>
	</tr>`
}

const reportHeader = `<html><body><table>
  <tr><td>C.Custo: 1234-56 MANUTENCAO INDUSTRIAL</td></tr>
  <tr><td></td><td>789 MATERIAL DE CONSUMO</td></tr>`

func TestExtractReport(t *testing.T) {
	doc := reportHeader +
		dataRow("10/01/2024", "NF 4521", "Fornecedora Alfa", "Compra de pecas", "1.500,00") +
		`</table></body></html>`

	rows := Extract(doc, testLogger)

	require.Len(t, rows, 1)
	tx := rows[0]
	assert.Equal(t, "1234-56", tx.CostCenterCode)
	assert.Equal(t, "789", tx.CategoryCode)
	assert.Equal(t, "10/01/2024", tx.PaymentDate)
	assert.Equal(t, "NF 4521", tx.DocumentRef)
	assert.Equal(t, "Fornecedora Alfa", tx.IssuerName)
	assert.Equal(t, "Compra de pecas", tx.Description)
	assert.True(t, tx.Amount.Equal(decimal.RequireFromString("1500.00")),
		"amount was %s", tx.Amount)
	assert.False(t, tx.ProcessedAt.IsZero())
}

func TestExtractContextCarriesAcrossRows(t *testing.T) {
	doc := reportHeader +
		dataRow("10/01/2024", "NF 1", "Alfa", "Primeira", "100,00") +
		dataRow("11/01/2024", "NF 2", "Beta", "Segunda", "200,00") +
		`<tr><td>C.Custo: 9876-54 ADMINISTRATIVO</td></tr>` +
		`<tr><td></td><td>321 SERVICOS</td></tr>` +
		dataRow("12/01/2024", "NF 3", "Gama", "Terceira", "300,00") +
		`</table></body></html>`

	rows := Extract(doc, testLogger)

	require.Len(t, rows, 3)
	assert.Equal(t, "1234-56", rows[0].CostCenterCode)
	assert.Equal(t, "1234-56", rows[1].CostCenterCode)
	assert.Equal(t, "9876-54", rows[2].CostCenterCode)
	assert.Equal(t, "789", rows[1].CategoryCode)
	assert.Equal(t, "321", rows[2].CategoryCode)

	// One shared timestamp per run.
	assert.Equal(t, rows[0].ProcessedAt, rows[2].ProcessedAt)
}

func TestExtractSkipsNonPositiveAmounts(t *testing.T) {
	doc := reportHeader +
		dataRow("10/01/2024", "NF 1", "Alfa", "Zerada", "0,00") +
		dataRow("11/01/2024", "NF 2", "Beta", "Total do periodo", "") +
		dataRow("12/01/2024", "NF 3", "Gama", "Valida", "50,00") +
		`</table></body></html>`

	rows := Extract(doc, testLogger)

	require.Len(t, rows, 1)
	assert.Equal(t, "NF 3", rows[0].DocumentRef)
}

func TestExtractSignedAmountLosesSign(t *testing.T) {
	// A minus in the amount cell never survives the cleaning step, so a
	// credit row is emitted with its absolute value instead of being
	// filtered by the positive-only rule.
	doc := reportHeader +
		dataRow("10/01/2024", "NF 1", "Alfa", "Estorno", "-50,00") +
		`</table></body></html>`

	rows := Extract(doc, testLogger)

	require.Len(t, rows, 1)
	assert.True(t, rows[0].Amount.Equal(decimal.RequireFromString("50")),
		"amount was %s", rows[0].Amount)
}

func TestExtractSkipsShortRows(t *testing.T) {
	doc := reportHeader +
		`<tr><td>Subtotal</td><td>1.000,00</td></tr>` +
		dataRow("10/01/2024", "NF 1", "Alfa", "Valida", "75,50") +
		`</table></body></html>`

	rows := Extract(doc, testLogger)

	require.Len(t, rows, 1)
	assert.True(t, rows[0].Amount.Equal(decimal.RequireFromString("75.5")))
}

func TestExtractPicksLargestTable(t *testing.T) {
	doc := `<html><body>
	<table><tr><td>Relatorio de Custos</td></tr></table>
	<table>
	  <tr><td>C.Custo: 1111-22 PRODUCAO</td></tr>
	  <tr><td></td><td>555 INSUMOS</td></tr>` +
		dataRow("05/02/2024", "NF 9", "Delta", "Insumo", "2.345,67") +
		`</table></body></html>`

	rows := Extract(doc, testLogger)

	require.Len(t, rows, 1)
	assert.Equal(t, "1111-22", rows[0].CostCenterCode)
	assert.True(t, rows[0].Amount.Equal(decimal.RequireFromString("2345.67")))
}

func TestExtractNoTables(t *testing.T) {
	rows := Extract("<html><body><p>sem dados</p></body></html>", testLogger)

	assert.Empty(t, rows)
}

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1.500,00", "1500.00", true},
		{"R$ 2.345,67", "2345.67", true},
		{"10,5", "10.5", true},
		// The cleaning step drops every non-[\d.,] rune, the sign included:
		// a credit entry comes out as its absolute value and is emitted.
		{"-50,00", "50.00", true},
		{"-", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := parseAmount(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)),
				"input %q: got %s", tc.in, got)
		}
	}
}
