package source

import (
	"bytes"
	"fmt"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// Encoding names a detected text encoding.
type Encoding string

// Supported encodings.
const (
	UTF8   Encoding = "utf-8"
	Latin1 Encoding = "iso-8859-1"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode returns data as UTF-8 text. Input that is not valid UTF-8 is read as
// ISO-8859-1. Text containing NUL or other non-whitespace control characters
// is rejected as binary.
func Decode(data []byte) ([]byte, Encoding, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	text, enc := data, UTF8
	if !utf8.Valid(data) {
		decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, "", &Error{Op: "decode", Kind: KindEncoding, Err: err}
		}
		text, enc = decoded, Latin1
	}

	if i := controlIndex(text); i >= 0 {
		return nil, enc, &Error{
			Op:   "decode",
			Kind: KindEncoding,
			Err:  fmt.Errorf("control character 0x%02x at byte %d", text[i], i),
		}
	}
	return text, enc, nil
}

// controlIndex returns the offset of the first C0 control other than
// tab, line feed, vertical tab, form feed and carriage return, or -1.
func controlIndex(b []byte) int {
	for i, c := range b {
		if c < 0x20 && c != '\t' && c != '\n' && c != '\v' && c != '\f' && c != '\r' {
			return i
		}
	}
	return -1
}
