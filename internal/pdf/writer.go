package pdf

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const header = "%PDF-1.7\n%\xe2\xe3\xcf\xd3\n"

type countingWriter struct {
	w   io.Writer
	n   int64
	err error
}

func (c *countingWriter) Write(p []byte) (int, error) {
	if c.err != nil {
		return 0, c.err
	}
	n, err := c.w.Write(p)
	c.n += int64(n)
	c.err = err
	return n, err
}

func (c *countingWriter) WriteString(s string) {
	_, _ = c.Write([]byte(s))
}

// WriteTo serializes the document as a classic cross-reference table PDF.
// The output only depends on the object graph: dictionary keys are sorted,
// stream lengths are computed and the trailer carries Root, Info, Size and
// ID only.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	offsets := make([]int64, len(d.objects))

	cw.WriteString(header)

	var buf bytes.Buffer
	for i, obj := range d.objects {
		offsets[i] = cw.n

		buf.Reset()
		fmt.Fprintf(&buf, "%d 0 obj\n", i+1)
		writeObject(&buf, obj)
		buf.WriteString("\nendobj\n")
		_, _ = cw.Write(buf.Bytes())
	}

	xrefOffset := cw.n
	buf.Reset()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(d.objects)+1)
	buf.WriteString("0000000000 65535 f\r\n")
	for _, offset := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n\r\n", offset)
	}

	trailer := map[string]Object{
		"Size": NewInteger(int64(len(d.objects) + 1)),
		"Root": NewReference(RootObject),
		"Info": NewReference(InfoObject),
	}
	if d.id.Kind == Array {
		trailer["ID"] = d.id
	}
	buf.WriteString("trailer\n")
	writeObject(&buf, NewDict(trailer))
	fmt.Fprintf(&buf, "\nstartxref\n%d\n%%%%EOF\n", xrefOffset)
	_, _ = cw.Write(buf.Bytes())

	return cw.n, cw.err
}

func writeObject(buf *bytes.Buffer, obj Object) {
	switch obj.Kind {
	case Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(strconv.FormatBool(obj.Bool))
	case Integer:
		buf.WriteString(strconv.FormatInt(obj.Int, 10))
	case Real:
		buf.WriteString(formatReal(obj.Real))
	case String:
		buf.WriteString(escapeString(obj.Str))
	case Name:
		buf.WriteString(escapeName(obj.Str))
	case Reference:
		fmt.Fprintf(buf, "%d 0 R", obj.Ref)
	case Array:
		buf.WriteByte('[')
		for i, v := range obj.Array {
			if i > 0 {
				buf.WriteByte(' ')
			}
			writeObject(buf, v)
		}
		buf.WriteByte(']')
	case Dict:
		writeDict(buf, obj, nil)
	case Stream:
		length := NewInteger(int64(len(obj.Data)))
		writeDict(buf, obj, &length)
		buf.WriteString("\nstream\n")
		buf.Write(obj.Data)
		buf.WriteString("\nendstream")
	}
}

func writeDict(buf *bytes.Buffer, obj Object, length *Object) {
	entries := obj.Dict
	if length != nil {
		entries = make(map[string]Object, len(obj.Dict)+1)
		for k, v := range obj.Dict {
			entries[k] = v
		}
		entries["Length"] = *length
	}

	buf.WriteString("<<")
	for _, k := range NewDict(entries).Keys() {
		v := entries[k]
		if v.Kind == Null {
			continue
		}
		buf.WriteString(escapeName(k))
		buf.WriteByte(' ')
		writeObject(buf, v)
	}
	buf.WriteString(">>")
}

// formatReal writes f so that it parses back as the same real: negative
// zero becomes 0.0 and integral values keep a fractional part, which also
// keeps values beyond the int64 range from being read as integers.
func formatReal(f float64) string {
	if f == 0 {
		return "0.0"
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
