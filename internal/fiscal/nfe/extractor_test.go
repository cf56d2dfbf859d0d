package nfe

import (
	"strings"
	"testing"
	"time"

	"github.com/lronetto/fortanks1-sub000/internal/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testLogger = logger.New(logger.LevelError)

const sampleKey = "35240112345678000190550010000001001000000017"

const sampleNFe = `<?xml version="1.0" encoding="UTF-8"?>
<nfeProc xmlns="http://www.portalfiscal.inf.br/nfe" versao="4.00">
  <NFe>
    <infNFe Id="NFe` + sampleKey + `" versao="4.00">
      <ide>
        <nNF>100</nNF>
        <dhEmi>2024-01-10T09:00:00-03:00</dhEmi>
      </ide>
      <emit>
        <CNPJ>12345678000190</CNPJ>
        <xNome>Fornecedora Alfa LTDA</xNome>
      </emit>
      <dest>
        <CNPJ>98765432000110</CNPJ>
        <xNome>Industria Beta SA</xNome>
      </dest>
      <det nItem="1">
        <prod>
          <cProd>P1</cProd>
          <xProd>Widget</xProd>
          <qCom>2.0000</qCom>
          <vUnCom>100.0000</vUnCom>
        </prod>
      </det>
      <total>
        <ICMSTot>
          <vNF>250.00</vNF>
        </ICMSTot>
      </total>
    </infNFe>
  </NFe>
</nfeProc>`

func TestExtractStructural(t *testing.T) {
	fd, ok := Extract(sampleNFe, testLogger)

	require.True(t, ok)
	assert.Equal(t, sampleKey, fd.AccessKey)
	assert.Equal(t, "100", fd.Number)
	assert.Equal(t, "12345678000190", fd.SenderTaxID)
	assert.Equal(t, "Fornecedora Alfa LTDA", fd.SenderName)
	assert.Equal(t, "98765432000110", fd.ReceiverTaxID)
	assert.Equal(t, "Industria Beta SA", fd.ReceiverName)
	assert.True(t, fd.TotalValue.Equal(decimal.RequireFromString("250.00")),
		"total was %s", fd.TotalValue)

	expectedEmission := time.Date(2024, 1, 10, 9, 0, 0, 0, time.FixedZone("", -3*3600))
	assert.True(t, fd.EmissionDate.Equal(expectedEmission))

	require.Len(t, fd.LineItems, 1)
	item := fd.LineItems[0]
	assert.Equal(t, "P1", item.Code)
	assert.Equal(t, "Widget", item.Description)
	assert.Equal(t, 2.0, item.Quantity)
	assert.True(t, item.UnitValue.Equal(decimal.RequireFromString("100")))
	// vProd is absent, so the item total is quantity times unit value.
	assert.True(t, item.TotalValue.Equal(decimal.RequireFromString("200")),
		"item total was %s", item.TotalValue)
}

func TestExtractLegacyEmissionDate(t *testing.T) {
	doc := strings.Replace(sampleNFe,
		"<dhEmi>2024-01-10T09:00:00-03:00</dhEmi>",
		"<dEmi>2023-05-20</dEmi>", 1)

	fd, ok := Extract(doc, testLogger)

	require.True(t, ok)
	assert.Equal(t, 2023, fd.EmissionDate.Year())
	assert.Equal(t, time.May, fd.EmissionDate.Month())
	assert.Equal(t, 20, fd.EmissionDate.Day())
}

func TestExtractReceiverCPFFallback(t *testing.T) {
	doc := strings.Replace(sampleNFe,
		"<CNPJ>98765432000110</CNPJ>",
		"<CPF>12345678901</CPF>", 1)

	fd, ok := Extract(doc, testLogger)

	require.True(t, ok)
	assert.Equal(t, "12345678901", fd.ReceiverTaxID)
}

func TestExtractPatternFallback(t *testing.T) {
	// Broken markup the structural tier rejects; every field has to come out
	// of the pattern cascades.
	doc := `<documento>
	  <chNFe>` + sampleKey + `</chNFe>
	  <numeroNF>777</numeroNF>
	  <dataEmissao>2024-03-15</dataEmissao>
	  <vlrNota>1.234,56</vlrNota>
	<documento>`

	fd, ok := Extract(doc, testLogger)

	require.True(t, ok)
	assert.Equal(t, sampleKey, fd.AccessKey)
	assert.Equal(t, "777", fd.Number)
	assert.True(t, fd.TotalValue.Equal(decimal.RequireFromString("1234.56")),
		"total was %s", fd.TotalValue)
	assert.Equal(t, 2024, fd.EmissionDate.Year())
}

func TestExtractBareKeyFallback(t *testing.T) {
	doc := "documento corrompido contendo a chave " + sampleKey + " no corpo do texto e mais nada"

	fd, ok := Extract(doc, testLogger)

	require.True(t, ok)
	assert.Equal(t, sampleKey, fd.AccessKey)
}

func TestExtractNoAccessKeyFails(t *testing.T) {
	fd, ok := Extract("<NFe><infNFe><ide><nNF>42</nNF></ide></infNFe></NFe>", testLogger)

	assert.False(t, ok)
	assert.Nil(t, fd)
}

func TestExtractSyntheticItem(t *testing.T) {
	doc := `<NFe><infNFe Id="NFe` + sampleKey + `">
	  <ide><nNF>5</nNF><dhEmi>2024-02-01T10:00:00-03:00</dhEmi></ide>
	  <emit><CNPJ>12345678000190</CNPJ><xNome>Alfa</xNome></emit>
	  <total><ICMSTot><vNF>90.00</vNF></ICMSTot></total>
	</infNFe></NFe>`

	fd, ok := Extract(doc, testLogger)

	require.True(t, ok)
	require.Len(t, fd.LineItems, 1)
	item := fd.LineItems[0]
	assert.Equal(t, "ITEM1", item.Code)
	assert.Equal(t, "Item genérico da nota", item.Description)
	assert.Equal(t, 1.0, item.Quantity)
	assert.True(t, item.TotalValue.Equal(decimal.RequireFromString("90")))
}

func TestExtractEmissionDefaultsToNow(t *testing.T) {
	doc := `<NFe><infNFe Id="NFe` + sampleKey + `">
	  <ide><nNF>5</nNF></ide>
	  <total><ICMSTot><vNF>10.00</vNF></ICMSTot></total>
	</infNFe></NFe>`

	before := time.Now()
	fd, ok := Extract(doc, testLogger)

	require.True(t, ok)
	assert.False(t, fd.EmissionDate.Before(before))
}

func TestExtractItemPlaceholders(t *testing.T) {
	doc := `<NFe><infNFe Id="NFe` + sampleKey + `">
	  <ide><nNF>9</nNF><dhEmi>2024-02-01T10:00:00-03:00</dhEmi></ide>
	  <det nItem="1"><prod><qCom>3.0</qCom><vUnCom>5.00</vUnCom></prod></det>
	  <det nItem="2"><prod><vProd>40.00</vProd></prod></det>
	</infNFe></NFe>`

	fd, ok := Extract(doc, testLogger)

	require.True(t, ok)
	require.Len(t, fd.LineItems, 2)

	assert.Equal(t, "ITEM1", fd.LineItems[0].Code)
	assert.Equal(t, "Item 1", fd.LineItems[0].Description)
	assert.True(t, fd.LineItems[0].TotalValue.Equal(decimal.RequireFromString("15")))

	assert.Equal(t, "ITEM2", fd.LineItems[1].Code)
	// Quantity defaults to 1 when qCom is absent.
	assert.Equal(t, 1.0, fd.LineItems[1].Quantity)
	assert.True(t, fd.LineItems[1].TotalValue.Equal(decimal.RequireFromString("40")))
}

func TestParseFallbackDecimal(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1.234,56", "1234.56", true},
		{"10,5", "10.5", true},
		{"R$ 2.500,00", "2500.00", true},
		{"250.00", "25000", true}, // fallback rule treats "." as thousands
		{"abc", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, ok := parseFallbackDecimal(tc.in)
		assert.Equal(t, tc.ok, ok, "input %q", tc.in)
		if tc.ok {
			assert.True(t, got.Equal(decimal.RequireFromString(tc.want)),
				"input %q: got %s want %s", tc.in, got, tc.want)
		}
	}
}

func TestParseStructuralDecimal(t *testing.T) {
	got, ok := parseStructuralDecimal("250.00")
	require.True(t, ok)
	assert.True(t, got.Equal(decimal.RequireFromString("250")))

	got, ok = parseStructuralDecimal("10,5")
	require.True(t, ok)
	assert.True(t, got.Equal(decimal.RequireFromString("10.5")))
}

func TestRecoverPartialDocument(t *testing.T) {
	t.Run("key still recoverable yields error-marker item", func(t *testing.T) {
		doc := "relatorio truncado " + sampleKey + " restante ilegivel"

		fd, ok := recoverPartial(doc, testLogger)

		require.True(t, ok)
		assert.Equal(t, sampleKey, fd.AccessKey)
		assert.False(t, fd.EmissionDate.IsZero())
		require.Len(t, fd.LineItems, 1)
		assert.Equal(t, "ERRO", fd.LineItems[0].Code)
		assert.Equal(t, "Falha ao processar itens da nota", fd.LineItems[0].Description)
		assert.Equal(t, 1.0, fd.LineItems[0].Quantity)
	})

	t.Run("no recoverable key fails outright", func(t *testing.T) {
		fd, ok := recoverPartial("sem chave nenhuma", testLogger)

		assert.False(t, ok)
		assert.Nil(t, fd)
	})
}
