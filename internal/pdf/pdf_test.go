package pdf

import (
	"bytes"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/pdfseal/pdfseal/internal/testpdf"
)

func loadFile(t *testing.T, path string) *Document {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("%s: %s", path, err.Error())
	}
	doc, err := Load(data)
	if err != nil {
		t.Fatalf("%s: %s", path, err.Error())
	}
	return doc
}

func rewrite(t *testing.T, data []byte) []byte {
	t.Helper()

	doc, err := Load(data)
	if err != nil {
		t.Fatalf("load: %s", err.Error())
	}
	out, err := doc.Bytes()
	if err != nil {
		t.Fatalf("write: %s", err.Error())
	}
	return out
}

func TestLoadSample(t *testing.T) {
	doc := loadFile(t, "../../testfiles/sample.pdf")

	if doc.NumPage() != 1 {
		t.Errorf("expected 1 page, got %d", doc.NumPage())
	}
	if doc.Root().Key("Type").Str != "Catalog" {
		t.Errorf("object 1 is not the catalog: %v", doc.Root().Key("Type"))
	}
	if len(doc.Info()) != 0 {
		t.Errorf("expected an empty Info dictionary, got %v", doc.Info())
	}
	// Catalog, Info, Metadata, Pages, Page, two content streams, Font,
	// Widths and FontDescriptor.
	if doc.Len() != 10 {
		t.Errorf("expected 10 objects, got %d", doc.Len())
	}
	if doc.id.Kind != Array || len(doc.id.Array) != 2 {
		t.Errorf("trailer ID was not kept: %v", doc.id)
	}
}

func TestRewriteIsIdempotent(t *testing.T) {
	sample, err := os.ReadFile("../../testfiles/sample.pdf")
	if err != nil {
		t.Fatalf("%s", err.Error())
	}

	tests := map[string][]byte{
		"sample":         sample,
		"generated":      testpdf.Document("Quarterly report", "Hello World"),
		"real numbers":   testpdf.RealNumbers(),
		"raw image":      testpdf.RawImage(),
		"self reference": testpdf.SelfReference(),
		"incremental":    testpdf.Updated("Quarterly report", "Hello World"),
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			once := rewrite(t, data)
			twice := rewrite(t, once)
			if !bytes.Equal(once, twice) {
				t.Errorf("rewriting canonical output changed it:\n%s\n---\n%s", once, twice)
			}
		})
	}
}

func TestRewriteIgnoresObjectNumbering(t *testing.T) {
	a := testpdf.New()
	a.Add("<< /Type /Catalog /Pages 2 0 R >>")
	a.Add("<< /Type /Pages /Kids [3 0 R] /Count 1 >>")
	a.Add("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Contents 4 0 R >>")
	a.AddStream("", []byte("0 0 m 10 10 l S"))
	a.Add("<< /Title (Numbering) >>")

	b := testpdf.New()
	b.Add("<< /Title (Numbering) >>")
	b.AddStream("", []byte("0 0 m 10 10 l S"))
	b.Add("(orphan)")
	b.Add("<< /Count 1 /Kids [6 0 R] /Type /Pages >>")
	b.Add("<< /Pages 4 0 R /Type /Catalog >>")
	b.Add("<< /Contents 2 0 R /MediaBox [0 0 612 792] /Parent 4 0 R /Type /Page /Unused null >>")

	first := rewrite(t, a.Bytes(1, 5))
	second := rewrite(t, b.Bytes(5, 1))
	if !bytes.Equal(first, second) {
		t.Errorf("equivalent documents rewrite differently:\n%s\n---\n%s", first, second)
	}
	if bytes.Contains(second, []byte("orphan")) {
		t.Errorf("unreachable object was kept")
	}
}

func TestFlateStreamIsStoredDecoded(t *testing.T) {
	doc, err := Load(testpdf.Document("Flate", "Hello World"))
	if err != nil {
		t.Fatalf("%s", err.Error())
	}

	pages, _ := doc.Object(doc.Root().Key("Pages").Ref)
	page, _ := doc.Object(pages.Key("Kids").Array[0].Ref)
	contents, ok := doc.Object(page.Key("Contents").Ref)
	if !ok || contents.Kind != Stream {
		t.Fatalf("page contents not found: %v", page.Key("Contents"))
	}

	if !bytes.Contains(contents.Data, []byte("(Hello World) Tj")) {
		t.Errorf("unexpected stream payload %q", contents.Data)
	}
	if !contents.Key("Filter").IsNull() {
		t.Errorf("decoded stream kept its filter: %v", contents.Key("Filter"))
	}
}

func TestUnsupportedFilterIsKeptRaw(t *testing.T) {
	b := testpdf.New()
	b.Add("<< /Type /Catalog /Pages 2 0 R /Thumb 3 0 R >>")
	b.Add("<< /Type /Pages /Kids [] /Count 0 >>")
	b.AddStream("/Filter /ASCIIHexDecode", []byte("48656C6C6F>"))

	doc, err := Load(b.Bytes(1, 0))
	if err != nil {
		t.Fatalf("%s", err.Error())
	}

	thumb, _ := doc.Object(doc.Root().Key("Thumb").Ref)
	if string(thumb.Data) != "48656C6C6F>" {
		t.Errorf("raw payload changed: %q", thumb.Data)
	}
	if thumb.Key("Filter").Str != "ASCIIHexDecode" {
		t.Errorf("filter dropped: %v", thumb.Key("Filter"))
	}
}

// firstPage returns the first page of a document built by testpdf.
func firstPage(t *testing.T, doc *Document) (uint32, Object) {
	t.Helper()

	pages, _ := doc.Object(doc.Root().Key("Pages").Ref)
	kids := pages.Key("Kids")
	if kids.Kind != Array || len(kids.Array) == 0 {
		t.Fatalf("document has no pages: %v", pages)
	}
	num := kids.Array[0].Ref
	page, ok := doc.Object(num)
	if !ok {
		t.Fatalf("page %d not found", num)
	}
	return num, page
}

func TestRealNumbersSurviveRewrite(t *testing.T) {
	doc, err := Load(rewrite(t, testpdf.RealNumbers()))
	if err != nil {
		t.Fatalf("%s", err.Error())
	}
	_, page := firstPage(t, doc)

	box := page.Key("MediaBox").Array
	if len(box) != 4 {
		t.Fatalf("unexpected MediaBox %v", page.Key("MediaBox"))
	}
	if box[0].Kind != Real || box[0].Real != 0 || math.Signbit(box[0].Real) {
		t.Errorf("negative zero read back as %v", box[0])
	}
	if box[2].Kind != Real || box[2].Real != 612 {
		t.Errorf("integral real read back as %v", box[2])
	}
	if unit := page.Key("UserUnit"); unit.Kind != Real || unit.Real != 1e20 {
		t.Errorf("large real read back as %v", unit)
	}
}

func TestRawStreamIsLocatedByCrossReference(t *testing.T) {
	for name, data := range map[string][]byte{
		"source":    testpdf.RawImage(),
		"canonical": rewrite(t, testpdf.RawImage()),
	} {
		t.Run(name, func(t *testing.T) {
			doc, err := Load(data)
			if err != nil {
				t.Fatalf("%s", err.Error())
			}
			_, page := firstPage(t, doc)

			ref := page.Key("Resources").Key("XObject").Key("Im1")
			image, ok := doc.Object(ref.Ref)
			if !ok || image.Kind != Stream {
				t.Fatalf("image not found: %v", ref)
			}
			if !bytes.HasPrefix(image.Data, []byte("\xff\xd8")) || !bytes.HasSuffix(image.Data, []byte("\xff\xd9")) {
				t.Errorf("image payload taken from the wrong place: %q", image.Data)
			}
			if image.Key("Filter").Str != "DCTDecode" {
				t.Errorf("image filter dropped: %v", image.Key("Filter"))
			}

			mask, _ := doc.Object(image.Key("SMask").Ref)
			if !bytes.Contains(mask.Data, []byte("stream\nXYZ")) {
				t.Errorf("soft mask was not decoded: %q", mask.Data)
			}
		})
	}
}

func TestSelfReference(t *testing.T) {
	doc, err := Load(testpdf.SelfReference())
	if err != nil {
		t.Fatalf("%s", err.Error())
	}
	num, page := firstPage(t, doc)

	if self := page.Key("Self"); self.Kind != Reference || self.Ref != num {
		t.Errorf("/Self = %v, expected a reference to %d", self, num)
	}
	if back := page.Key("PieceInfo").Key("Back"); back.Kind != Reference || back.Ref != num {
		t.Errorf("/Back = %v, expected a reference to %d", back, num)
	}
}

func TestIncrementalUpdate(t *testing.T) {
	doc, err := Load(testpdf.Updated("Minutes", "Hello"))
	if err != nil {
		t.Fatalf("%s", err.Error())
	}

	if got := doc.Info()["Title"].Text(); got != "Minutes v2" {
		t.Errorf("Title = %q, expected the updated value", got)
	}
	_, page := firstPage(t, doc)
	thumb, ok := doc.Object(page.Key("Thumb").Ref)
	if !ok || string(thumb.Data) != "54687562>" {
		t.Errorf("thumbnail from the update not found: %v", thumb)
	}
}

func TestMissingInfoIsCreated(t *testing.T) {
	b := testpdf.New()
	b.Add("<< /Type /Catalog /Pages 2 0 R >>")
	b.Add("<< /Type /Pages /Kids [] /Count 0 >>")

	doc, err := Load(b.Bytes(1, 0))
	if err != nil {
		t.Fatalf("%s", err.Error())
	}

	info, ok := doc.Object(InfoObject)
	if !ok || info.Kind != Dict || len(info.Dict) != 0 {
		t.Errorf("expected an empty Info dictionary, got %v", info)
	}

	out, err := doc.Bytes()
	if err != nil {
		t.Fatalf("%s", err.Error())
	}
	if !bytes.Contains(out, []byte("/Info 2 0 R")) {
		t.Errorf("trailer does not reference Info:\n%s", out)
	}
}

func TestLoadRejectsBrokenInput(t *testing.T) {
	encrypted := testpdf.New()
	encrypted.Add("<< /Type /Catalog /Pages 2 0 R >>")
	encrypted.Add("<< /Type /Pages /Kids [] /Count 0 >>")
	encrypted.Add("<< /Filter /Standard /V 1 /R 2 /O (x) /U (y) /P -4 >>")
	encrypted.Trailer("/Encrypt 3 0 R")

	tests := map[string][]byte{
		"empty":     nil,
		"garbage":   []byte("this is not a PDF document"),
		"truncated": testpdf.Document("Cut", "Hello")[:120],
		"encrypted": encrypted.Bytes(1, 0),
	}

	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(data); err == nil {
				t.Errorf("expected an error")
			}
		})
	}
}

func TestSignatureEntry(t *testing.T) {
	doc, err := Load(testpdf.Document("Signed", "Hello"))
	if err != nil {
		t.Fatalf("%s", err.Error())
	}

	if _, ok := doc.Signature(); ok {
		t.Fatalf("fresh document reports a signature")
	}

	doc.SetSignature("00ff")
	doc.SetSignature("abcd")
	sig, ok := doc.Signature()
	if !ok || sig.Str != "abcd" {
		t.Errorf("expected the last signature, got %v", sig)
	}
	if doc.Info()["Title"].Str != "Signed" {
		t.Errorf("other Info entries changed: %v", doc.Info())
	}

	if !doc.RemoveSignature() {
		t.Errorf("signature was not removed")
	}
	if doc.RemoveSignature() {
		t.Errorf("second removal reported a signature")
	}
}

func TestEscapeName(t *testing.T) {
	tests := map[string]string{
		"Type":       "/Type",
		"A B":        "/A#20B",
		"Lime#Green": "/Lime#23Green",
		"paired()":   "/paired#28#29",
		"caf\xe9":    "/caf#E9",
	}

	for name, expected := range tests {
		if got := escapeName(name); got != expected {
			t.Errorf("escapeName(%q) = %s, expected %s", name, got, expected)
		}
	}
}

func TestEscapeString(t *testing.T) {
	tests := map[string]string{
		"Test":          "(Test)",
		"((Test)":       "(\\(\\(Test\\))",
		"\\TEst":        "(\\\\TEst)",
		"\rnew":         "<0d6e6577>",
		"\xfe\xff\x00A": "<feff0041>",
	}

	for text, expected := range tests {
		if got := escapeString(text); got != expected {
			t.Errorf("Error while escaping %q. Expected %s, got %s.", text, expected, got)
		}
	}
}

func TestTextString(t *testing.T) {
	for _, text := range []string{"Report", "Grüße aus Köln", "署名"} {
		obj := TextString(text)
		if got := obj.Text(); got != text {
			t.Errorf("TextString(%q).Text() = %q", text, got)
		}
		if !isASCII(text) && !strings.HasPrefix(obj.Str, "\xfe\xff") {
			t.Errorf("TextString(%q) is not UTF-16BE", text)
		}
	}

	if got := NewString("caf\xe9").Text(); got != "café" {
		t.Errorf("latin-1 text decoded as %q", got)
	}
}

func TestWriteRealNumbers(t *testing.T) {
	var buf bytes.Buffer
	writeObject(&buf, NewArray(NewReal(0.5), NewReal(-12), NewReal(1e-7), NewInteger(3),
		NewReal(math.Copysign(0, -1)), NewReal(612), NewReal(1e20)))
	if got := buf.String(); got != "[0.5 -12.0 0.0000001 3 0.0 612.0 100000000000000000000.0]" {
		t.Errorf("unexpected serialization %s", got)
	}
}
