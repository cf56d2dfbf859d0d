package decode

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ErrDecodeFailure is returned when no candidate encoding decodes the input.
var ErrDecodeFailure = errors.New("no candidate encoding decodes the input")

type candidate struct {
	name string
	cm   *charmap.Charmap
}

// Candidate order is fixed: UTF-8 first, then the single-byte encodings the
// legacy exports actually arrive in. A nil charmap means plain UTF-8
// validation.
var candidates = []candidate{
	{name: "utf-8"},
	{name: "latin-1", cm: charmap.ISO8859_1},
	{name: "iso-8859-1", cm: charmap.ISO8859_1},
	{name: "cp1252", cm: charmap.Windows1252},
}

// DecodeBytes returns the text produced by the first candidate encoding that
// decodes raw without error, plus the name of the winning encoding. It is a
// pure best-effort heuristic: no content validation beyond "does this byte
// sequence decode under this codec".
func DecodeBytes(raw []byte) (string, string, error) {
	for _, c := range candidates {
		if c.cm == nil {
			if utf8.Valid(raw) {
				return string(raw), c.name, nil
			}
			continue
		}

		decoded, err := c.cm.NewDecoder().Bytes(raw)
		if err != nil {
			continue
		}
		text := string(decoded)
		if strings.ContainsRune(text, utf8.RuneError) {
			continue
		}
		return text, c.name, nil
	}
	return "", "", ErrDecodeFailure
}
