package sign

import (
	"crypto/sha256"
	"fmt"

	"github.com/pdfseal/pdfseal/internal/pdf"
)

// Normalize rewrites a document into its canonical byte form. Documents
// that differ only in serialization (object numbering, cross-reference
// layout, incremental updates, stream compression) normalize to the same
// bytes, and normalizing canonical bytes returns them unchanged.
func Normalize(data []byte) ([]byte, error) {
	doc, err := pdf.Load(data)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize document: %w", err)
	}
	return doc.Bytes()
}

// normalizeUnsigned is Normalize after dropping a signature left over from
// an earlier signing run and applying the info overrides.
func normalizeUnsigned(data []byte, info map[string]string) ([]byte, bool, error) {
	doc, err := pdf.Load(data)
	if err != nil {
		return nil, false, fmt.Errorf("failed to normalize document: %w", err)
	}
	resigned := doc.RemoveSignature()

	for k, v := range info {
		if k == pdf.SignatureKey {
			return nil, false, fmt.Errorf("info key %q is reserved", k)
		}
		doc.Info()[k] = pdf.TextString(v)
	}

	out, err := doc.Bytes()
	if err != nil {
		return nil, false, err
	}
	return out, resigned, nil
}

// Digest returns the SHA-256 digest of canonical document bytes.
func Digest(canonical []byte) [sha256.Size]byte {
	return sha256.Sum256(canonical)
}
