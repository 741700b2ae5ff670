package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	delimiters = "()<>[]{}/%"
	whitespace = "\x00\t\n\f\r "
)

var (
	utf16BOM = []byte{0xfe, 0xff}
	utf8BOM  = []byte{0xef, 0xbb, 0xbf}
)

// TextString returns a PDF text string for s. ASCII text is stored as is,
// anything else as UTF-16BE with a byte order mark.
func TextString(s string) Object {
	if isASCII(s) {
		return NewString(s)
	}

	enc := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder()
	res, _, err := transform.String(enc, s)
	if err != nil {
		// Invalid UTF-8 input, keep the raw bytes.
		return NewString(s)
	}
	return NewString(res)
}

// Text decodes a PDF text string: UTF-16BE or UTF-8 when a byte order mark
// is present, PDFDocEncoding (approximated by Latin-1) otherwise.
func (o Object) Text() string {
	if o.Kind != String {
		return ""
	}
	raw := []byte(o.Str)

	switch {
	case bytes.HasPrefix(raw, utf16BOM):
		dec := unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder()
		res, _, err := transform.Bytes(dec, raw)
		if err == nil {
			return string(res)
		}
	case bytes.HasPrefix(raw, utf8BOM):
		return string(raw[len(utf8BOM):])
	case utf8.Valid(raw):
		return o.Str
	}

	res, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), raw)
	if err != nil {
		return o.Str
	}
	return string(res)
}

func isASCII(s string) bool {
	for _, r := range s {
		if r > '\u007F' {
			return false
		}
	}
	return true
}

func isPrintable(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return false
		}
	}
	return true
}

// escapeName writes a name with #xx escapes for delimiters, whitespace,
// the number sign and bytes outside the printable ASCII range.
func escapeName(name string) string {
	var b strings.Builder
	b.WriteByte('/')
	for i := 0; i < len(name); i++ {
		ch := name[i]
		if ch == '#' || ch < 0x21 || ch > 0x7e || strings.IndexByte(delimiters+whitespace, ch) >= 0 {
			fmt.Fprintf(&b, "#%02X", ch)
			continue
		}
		b.WriteByte(ch)
	}
	return b.String()
}

// escapeString uses a literal string for printable text and a hex string
// for everything else, so line ending conversions can never apply.
func escapeString(s string) string {
	if !isPrintable(s) {
		return fmt.Sprintf("<%x>", s)
	}

	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ")", "\\)")
	s = strings.ReplaceAll(s, "(", "\\(")
	return "(" + s + ")"
}
