package sign

import (
	"crypto"
	"crypto/rsa"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdfseal/pdfseal/extract"
	"github.com/pdfseal/pdfseal/internal/testpdf"
)

// writeDocument stores a generated document in dir.
func writeDocument(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, testpdf.Document("Contract", "Hello World"), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

// checkSigned verifies a signed file the long way round: strip, normalize,
// digest and check the RSA signature.
func checkSigned(t *testing.T, path string, pub *rsa.PublicKey) bool {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	sig, err := extract.Extract(data)
	if err != nil {
		t.Fatalf("failed to extract signature: %v", err)
	}
	stripped, err := sig.Stripped()
	if err != nil {
		t.Fatalf("%v", err)
	}
	canonical, err := Normalize(stripped)
	if err != nil {
		t.Fatalf("%v", err)
	}
	digest := Digest(canonical)
	return rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig.Bytes()) == nil
}

// leftovers lists files in dir whose name contains marker.
func leftovers(t *testing.T, dir, marker string) []string {
	t.Helper()

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("%v", err)
	}
	var found []string
	for _, e := range entries {
		if strings.Contains(e.Name(), marker) {
			found = append(found, e.Name())
		}
	}
	return found
}
