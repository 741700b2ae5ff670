// Package extract reads the signature embedded in a document's Info
// dictionary and separates it from the signed content.
package extract

import (
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/pdfseal/pdfseal/internal/pdf"
)

var (
	// ErrNoSignature is returned for documents that were never signed.
	ErrNoSignature = errors.New("document has no signature")

	// ErrMalformedSignature is returned when the signature entry is not a
	// hex encoded string.
	ErrMalformedSignature = errors.New("malformed signature")
)

// Signature is a signature taken out of a document, together with the
// document it was removed from.
type Signature struct {
	raw []byte
	hex string
	doc *pdf.Document
}

// Bytes returns the decoded signature value.
func (s *Signature) Bytes() []byte {
	return s.raw
}

// Hex returns the signature as stored in the document.
func (s *Signature) Hex() string {
	return s.hex
}

// Document returns the document without its signature entry.
func (s *Signature) Document() *pdf.Document {
	return s.doc
}

// Stripped serializes the document without its signature entry.
func (s *Signature) Stripped() ([]byte, error) {
	return s.doc.Bytes()
}

// Extract loads data and removes the /Signature entry of its Info
// dictionary. Every other entry and object is left as it was.
func Extract(data []byte) (*Signature, error) {
	doc, err := pdf.Load(data)
	if err != nil {
		return nil, err
	}
	return FromDocument(doc)
}

// FromDocument removes the signature from an already loaded document.
func FromDocument(doc *pdf.Document) (*Signature, error) {
	value, ok := doc.Signature()
	if !ok {
		return nil, ErrNoSignature
	}
	doc.RemoveSignature()

	if value.Kind != pdf.String {
		return nil, fmt.Errorf("%w: expected a string, got %s", ErrMalformedSignature, value.Kind)
	}
	if value.Str == "" {
		return nil, fmt.Errorf("%w: empty value", ErrMalformedSignature)
	}

	raw, err := hex.DecodeString(value.Str)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSignature, err)
	}

	return &Signature{
		raw: raw,
		hex: value.Str,
		doc: doc,
	}, nil
}
