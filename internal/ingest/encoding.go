package ingest

// encoding.go handles the text-encoding reality of user-exported files:
// UTF-8 BOMs from Windows tools, and legacy single-byte encodings from old
// spreadsheet exports. UTF-8 is attempted first; invalid input falls back
// to a permissive Windows-1252 decode, which maps every byte to some rune
// and therefore never fails. Fallback use is recorded as a warning, never
// an error, as long as the cells remain readable text.

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// utf8BOM is the byte-order mark Excel prepends to UTF-8 CSV exports.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// stripBOM removes a leading UTF-8 byte-order mark, if present.
func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, utf8BOM)
}

// decodeText returns data as valid UTF-8. When the input already is valid
// UTF-8 it is returned unchanged; otherwise the bytes are reinterpreted as
// Windows-1252 and the second return value reports that the fallback was
// used.
func decodeText(data []byte) ([]byte, bool, error) {
	data = stripBOM(data)
	if utf8.Valid(data) {
		return data, false, nil
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		// Windows-1252 decodes any byte sequence; an error here means
		// something other than encoding went wrong.
		return nil, true, err
	}
	return decoded, true, nil
}
