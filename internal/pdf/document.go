package pdf

import (
	"github.com/mattetti/filebuffer"
)

// Fixed object numbers of every loaded document.
const (
	RootObject uint32 = 1
	InfoObject uint32 = 2
)

// SignatureKey is the Info dictionary entry holding the document signature.
const SignatureKey = "Signature"

// Document is a fully resolved PDF: every object reachable from the trailer
// renumbered from 1, with the catalog at RootObject and the Info dictionary
// at InfoObject.
type Document struct {
	objects []Object
	id      Object
	pages   int
}

// NumPage returns the page count reported by the source page tree.
func (d *Document) NumPage() int {
	return d.pages
}

// Len returns the number of objects in the document.
func (d *Document) Len() int {
	return len(d.objects)
}

// Object returns object n.
func (d *Document) Object(n uint32) (Object, bool) {
	if n == 0 || int(n) > len(d.objects) {
		return Object{}, false
	}
	return d.objects[n-1], true
}

// Root returns the document catalog.
func (d *Document) Root() Object {
	return d.objects[RootObject-1]
}

// Info returns the live Info dictionary. Changes to the map are reflected in
// the next call to Bytes.
func (d *Document) Info() map[string]Object {
	return d.objects[InfoObject-1].Dict
}

// Signature returns the value stored under SignatureKey.
func (d *Document) Signature() (Object, bool) {
	v, ok := d.Info()[SignatureKey]
	return v, ok
}

// SetSignature stores signatureHex under SignatureKey, replacing any
// previous value.
func (d *Document) SetSignature(signatureHex string) {
	d.Info()[SignatureKey] = NewString(signatureHex)
}

// RemoveSignature deletes SignatureKey from the Info dictionary and reports
// whether it was present.
func (d *Document) RemoveSignature() bool {
	info := d.Info()
	if _, ok := info[SignatureKey]; !ok {
		return false
	}
	delete(info, SignatureKey)
	return true
}

// Bytes serializes the document.
func (d *Document) Bytes() ([]byte, error) {
	buf := filebuffer.New(nil)
	if _, err := d.WriteTo(buf); err != nil {
		return nil, err
	}
	return buf.Buff.Bytes(), nil
}
