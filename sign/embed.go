package sign

import (
	"fmt"

	"github.com/pdfseal/pdfseal/internal/pdf"
)

// Embed stores signatureHex under /Signature in the document's Info
// dictionary, replacing any earlier value.
func Embed(doc *pdf.Document, signatureHex string) {
	doc.SetSignature(signatureHex)
}

// EmbedBytes loads canonical document bytes, embeds the signature and
// serializes the result.
func EmbedBytes(canonical []byte, signatureHex string) ([]byte, error) {
	doc, err := pdf.Load(canonical)
	if err != nil {
		return nil, fmt.Errorf("failed to load normalized document: %w", err)
	}
	Embed(doc, signatureHex)
	return doc.Bytes()
}
