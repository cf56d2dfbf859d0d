package nfe

import (
	"encoding/xml"
	"io"
	"regexp"
	"strings"
)

// Minimal NF-e layout for the structural tier. encoding/xml matches local
// tag names regardless of the document namespace, which covers both the
// standard portalfiscal namespace and the prefixed variants.

type xmlProc struct {
	NFe xmlNFe `xml:"NFe"`
}

type xmlNFe struct {
	InfNFe xmlInfNFe `xml:"infNFe"`
}

type xmlInfNFe struct {
	ID    string    `xml:"Id,attr"`
	Ide   xmlIde    `xml:"ide"`
	Emit  xmlParty  `xml:"emit"`
	Dest  *xmlParty `xml:"dest"`
	Det   []xmlDet  `xml:"det"`
	Total xmlTotal  `xml:"total"`
}

type xmlIde struct {
	NNF   string `xml:"nNF"`
	DhEmi string `xml:"dhEmi"` // layout 4.00
	DEmi  string `xml:"dEmi"`  // 3.10 and older
}

type xmlParty struct {
	CNPJ  string `xml:"CNPJ"`
	CPF   string `xml:"CPF"`
	XNome string `xml:"xNome"`
}

type xmlTotal struct {
	ICMSTot struct {
		VNF string `xml:"vNF"`
	} `xml:"ICMSTot"`
}

type xmlDet struct {
	Prod xmlProd `xml:"prod"`
}

type xmlProd struct {
	CProd  string `xml:"cProd"`
	XProd  string `xml:"xProd"`
	QCom   string `xml:"qCom"`
	VUnCom string `xml:"vUnCom"`
	VProd  string `xml:"vProd"`
}

var accessKeyID = regexp.MustCompile(`^NFe(\d{44})$`)

// parseStructural tries the document as nfeProc first, then as a bare NFe.
// A hit requires an infNFe element with a non-empty Id attribute.
func parseStructural(doc string) (*xmlInfNFe, bool) {
	var proc xmlProc
	if err := unmarshalAnyCharset(doc, &proc); err == nil && proc.NFe.InfNFe.ID != "" {
		return &proc.NFe.InfNFe, true
	}

	var n xmlNFe
	if err := unmarshalAnyCharset(doc, &n); err == nil && n.InfNFe.ID != "" {
		return &n.InfNFe, true
	}

	return nil, false
}

// The input was already transcoded to UTF-8 by the encoding resolver, but
// the XML declaration may still name the original charset; pass the bytes
// through untouched instead of letting the decoder reject the declaration.
func unmarshalAnyCharset(doc string, v any) error {
	dec := xml.NewDecoder(strings.NewReader(doc))
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	return dec.Decode(v)
}

// structuralAccessKey strips the "NFe" prefix from the infNFe Id attribute,
// accepting only the exact 44-digit form.
func structuralAccessKey(id string) (string, bool) {
	m := accessKeyID.FindStringSubmatch(strings.TrimSpace(id))
	if m == nil {
		return "", false
	}
	return m[1], true
}
