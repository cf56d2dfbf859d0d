package decode

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeBytes(t *testing.T) {
	t.Run("valid UTF-8 wins first", func(t *testing.T) {
		text, charset, err := DecodeBytes([]byte("nota fiscal eletrônica"))

		require.NoError(t, err)
		assert.Equal(t, "utf-8", charset)
		assert.Equal(t, "nota fiscal eletrônica", text)
	})

	t.Run("Latin-1 bytes fall through to latin-1", func(t *testing.T) {
		// "São Paulo" with ã as the single Latin-1 byte 0xE3, which is not
		// valid UTF-8.
		raw := []byte{'S', 0xE3, 'o', ' ', 'P', 'a', 'u', 'l', 'o'}

		text, charset, err := DecodeBytes(raw)

		require.NoError(t, err)
		assert.Equal(t, "latin-1", charset)
		assert.Equal(t, "São Paulo", text)
	})

	t.Run("empty input decodes as UTF-8", func(t *testing.T) {
		_, charset, err := DecodeBytes(nil)

		require.NoError(t, err)
		assert.Equal(t, "utf-8", charset)
	})
}

func TestFindEmbeddedXML(t *testing.T) {
	xmlDoc := `<?xml version="1.0"?><NFe><infNFe Id="NFe12345678901234567890123456789012345678901234"></infNFe></NFe>`
	encoded := base64.StdEncoding.EncodeToString([]byte(xmlDoc))

	t.Run("first candidate field wins", func(t *testing.T) {
		env := Envelope{XML: encoded, Content: encoded}

		text, field, ok := FindEmbeddedXML(env)

		require.True(t, ok)
		assert.Equal(t, "xml", field)
		assert.Equal(t, xmlDoc, text)
	})

	t.Run("falls through to later fields", func(t *testing.T) {
		env := Envelope{XML: "curto", Data: encoded}

		text, field, ok := FindEmbeddedXML(env)

		require.True(t, ok)
		assert.Equal(t, "data", field)
		assert.Equal(t, xmlDoc, text)
	})

	t.Run("whitespace inside the payload is tolerated", func(t *testing.T) {
		wrapped := encoded[:40] + "\n  " + encoded[40:]

		text, ok := FindEmbeddedXMLString(wrapped)

		require.True(t, ok)
		assert.Equal(t, xmlDoc, text)
	})

	t.Run("short payloads are rejected", func(t *testing.T) {
		short := base64.StdEncoding.EncodeToString([]byte("<NFe/>"))

		_, ok := FindEmbeddedXMLString(short)

		assert.False(t, ok)
	})

	t.Run("non-alphabet payloads are rejected", func(t *testing.T) {
		long := strings.Repeat("a", 99) + "!" + strings.Repeat("a", 20)

		_, ok := FindEmbeddedXMLString(long)

		assert.False(t, ok)
	})

	t.Run("empty envelope is a negative detection", func(t *testing.T) {
		_, _, ok := FindEmbeddedXML(Envelope{})

		assert.False(t, ok)
	})
}
