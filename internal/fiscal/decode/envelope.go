package decode

import (
	"encoding/base64"
	"regexp"
	"strings"
)

// Envelope is the JSON wrapper some upstream systems use to hand over an
// NF-e document. The XML may ride Base64-encoded in one of four fields;
// detection checks them in declaration order and the first hit wins.
type Envelope struct {
	XML        string `json:"xml,omitempty"`
	XMLContent string `json:"xml_content,omitempty"`
	Content    string `json:"content,omitempty"`
	Data       string `json:"data,omitempty"`
}

// Payloads shorter than this are never treated as embedded documents; they
// are far more likely to be ordinary field values that happen to be
// Base64-alphabet clean.
const minPayloadLen = 100

var base64Alphabet = regexp.MustCompile(`^[A-Za-z0-9+/=]+$`)

type fieldValue struct {
	name  string
	value string
}

func (e Envelope) candidateFields() []fieldValue {
	return []fieldValue{
		{"xml", e.XML},
		{"xml_content", e.XMLContent},
		{"content", e.Content},
		{"data", e.Data},
	}
}

// FindEmbeddedXML inspects the envelope's candidate fields for a Base64
// payload, decodes the first plausible one and resolves its text encoding.
// A miss is a normal negative result, not an error: most envelopes carry no
// embedded document.
func FindEmbeddedXML(env Envelope) (text string, field string, ok bool) {
	for _, fv := range env.candidateFields() {
		if decoded, hit := decodePayload(fv.value); hit {
			return decoded, fv.name, true
		}
	}
	return "", "", false
}

// FindEmbeddedXMLString applies the same detection to a bare string value.
func FindEmbeddedXMLString(s string) (string, bool) {
	return decodePayload(s)
}

func decodePayload(value string) (string, bool) {
	stripped := stripWhitespace(value)
	if len(stripped) < minPayloadLen {
		return "", false
	}
	if !base64Alphabet.MatchString(stripped) {
		return "", false
	}

	raw, err := base64.StdEncoding.DecodeString(stripped)
	if err != nil {
		return "", false
	}

	text, _, err := DecodeBytes(raw)
	if err != nil {
		return "", false
	}
	return text, true
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, s)
}
