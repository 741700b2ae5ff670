// Package testpdf builds small PDF files for tests.
package testpdf

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Builder assembles a PDF from raw object bodies and writes a valid
// cross-reference table for them.
type Builder struct {
	objects [][]byte
	trailer []string
}

func New() *Builder {
	return &Builder{}
}

// Add appends an object and returns its number.
func (b *Builder) Add(body string) int {
	b.objects = append(b.objects, []byte(body))
	return len(b.objects)
}

// AddStream appends a stream object. dict holds the dictionary entries
// without the surrounding brackets and without /Length.
func (b *Builder) AddStream(dict string, data []byte) int {
	b.objects = append(b.objects, []byte(StreamBody(dict, data)))
	return len(b.objects)
}

// StreamBody returns the body of a stream object with an unfiltered or
// already encoded payload.
func StreamBody(dict string, data []byte) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "<< %s /Length %d >>\nstream\n", dict, len(data))
	buf.Write(data)
	buf.WriteString("\nendstream")
	return buf.String()
}

// AddFlateStream compresses data and appends it as a FlateDecode stream.
func (b *Builder) AddFlateStream(dict string, data []byte) int {
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	_, _ = zw.Write(data)
	_ = zw.Close()
	return b.AddStream(strings.TrimSpace(dict+" /Filter /FlateDecode"), buf.Bytes())
}

// Trailer adds a raw entry such as "/Encrypt 5 0 R" to the trailer.
func (b *Builder) Trailer(entry string) {
	b.trailer = append(b.trailer, entry)
}

// Bytes writes the document with the given catalog and Info objects. An
// info of zero leaves the Info entry out.
func (b *Builder) Bytes(root, info int) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n%\xe2\xe3\xcf\xd3\n")

	offsets := make([]int, len(b.objects))
	for i, obj := range b.objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n", i+1)
		buf.Write(obj)
		buf.WriteString("\nendobj\n")
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(b.objects)+1)
	for _, offset := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offset)
	}

	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R", len(b.objects)+1, root)
	if info > 0 {
		fmt.Fprintf(&buf, " /Info %d 0 R", info)
	}
	for _, entry := range b.trailer {
		buf.WriteString(" " + entry)
	}
	fmt.Fprintf(&buf, " >>\nstartxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes()
}

// Document returns a single page document whose content stream draws text
// and whose Info dictionary carries a title.
func Document(title, text string) []byte {
	b := New()
	content := fmt.Sprintf("BT /F1 24 Tf 72 720 Td (%s) Tj ET", text)

	catalog := b.Add("<< /Type /Catalog /Pages 2 0 R >>")
	b.Add("<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.Add("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>")
	b.Add("<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")
	b.AddFlateStream("", []byte(content))
	info := b.Add(fmt.Sprintf("<< /Title (%s) /Producer (testpdf) >>", title))

	return b.Bytes(catalog, info)
}

// Update appends an incremental update to base that defines objects by
// number, replacing earlier definitions. size is the /Size of the updated
// document.
func Update(base []byte, size, root, info int, objects map[int]string) []byte {
	prev := lastStartXref(base)

	var buf bytes.Buffer
	buf.Write(base)

	nums := make([]int, 0, len(objects))
	for n := range objects {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	offsets := make(map[int]int, len(nums))
	for _, n := range nums {
		offsets[n] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", n, objects[n])
	}

	xref := buf.Len()
	buf.WriteString("xref\n")
	for _, n := range nums {
		fmt.Fprintf(&buf, "%d 1\n%010d 00000 n \n", n, offsets[n])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %d 0 R /Info %d 0 R /Prev %d >>\nstartxref\n%d\n%%%%EOF\n",
		size, root, info, prev, xref)
	return buf.Bytes()
}

func lastStartXref(data []byte) int {
	i := bytes.LastIndex(data, []byte("startxref"))
	if i < 0 {
		return 0
	}
	fields := strings.Fields(string(data[i+len("startxref"):]))
	if len(fields) == 0 {
		return 0
	}
	n, _ := strconv.Atoi(fields[0])
	return n
}

// RealNumbers returns a document using reals that print like integers:
// negative zero, integral values and values beyond the int64 range.
func RealNumbers() []byte {
	b := New()
	catalog := b.Add("<< /Type /Catalog /Pages 2 0 R >>")
	b.Add("<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.Add("<< /Type /Page /Parent 2 0 R /MediaBox [-0.0 0 612.0 792.5] /Rotate -0.0 /UserUnit 100000000000000000000.0 /Contents 4 0 R >>")
	b.AddFlateStream("", []byte("1.0 0 0 1.0 -0.0 0 cm 0 0 m 10.0 10 l S"))
	info := b.Add("<< /Title (Reals) >>")
	return b.Bytes(catalog, info)
}

// RawImage returns a document with a DCTDecode image, which is kept
// undecoded, and a Flate soft mask whose payload contains text that looks
// like object definitions with stream payloads.
func RawImage() []byte {
	var decoy strings.Builder
	for n := 1; n <= 16; n++ {
		fmt.Fprintf(&decoy, "%d 0 obj\n<< /Length 3 >>\nstream\nXYZ\nendstream\nendobj\n", n)
	}
	jpeg := []byte("\xff\xd8\xff\xe0\x00\x10JFIF\x00 image data \xff\xd9")

	b := New()
	catalog := b.Add("<< /Type /Catalog /Pages 2 0 R >>")
	b.Add("<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.Add("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /XObject << /Im1 4 0 R >> >> /Contents 6 0 R >>")
	b.AddStream("/Type /XObject /Subtype /Image /Width 1 /Height 1 /ColorSpace /DeviceGray /BitsPerComponent 8 /Filter /DCTDecode /SMask 5 0 R", jpeg)
	b.AddFlateStream("/Type /XObject /Subtype /Image /Width 1 /Height 1 /ColorSpace /DeviceGray /BitsPerComponent 8", []byte(decoy.String()))
	b.AddFlateStream("", []byte("q 612 0 0 792 0 0 cm /Im1 Do Q"))
	info := b.Add("<< /Title (Image) >>")
	return b.Bytes(catalog, info)
}

// SelfReference returns a document whose page refers to itself, directly
// and from a nested dictionary.
func SelfReference() []byte {
	b := New()
	catalog := b.Add("<< /Type /Catalog /Pages 2 0 R >>")
	b.Add("<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	b.Add("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Self 3 0 R /PieceInfo << /Back 3 0 R >> >>")
	info := b.Add("<< /Title (Self) >>")
	return b.Bytes(catalog, info)
}

// Updated returns Document(title, text) with an incremental update that
// retitles it and attaches a hex encoded thumbnail to its page.
func Updated(title, text string) []byte {
	return Update(Document(title, text), 8, 1, 6, map[int]string{
		3: "<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R /Thumb 7 0 R >>",
		6: "<< /Title (" + title + " v2) /Producer (testpdf) >>",
		7: StreamBody("/Filter /ASCIIHexDecode", []byte("54687562>")),
	})
}
