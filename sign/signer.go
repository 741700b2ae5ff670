package sign

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/pdfseal/pdfseal/keys"
)

// SignDigest unlocks the encrypted private key and signs a SHA-256 digest
// with RSA PKCS#1 v1.5. The signature is returned as lowercase hex.
//
// A wrong password yields keys.ErrWrongPassword and a damaged key file
// keys.ErrCorruptKey.
func SignDigest(privateKeyPEM, password []byte, digest []byte) (string, error) {
	if len(digest) != sha256.Size {
		return "", fmt.Errorf("digest must be %d bytes, got %d", sha256.Size, len(digest))
	}

	priv, err := keys.DecryptPrivateKey(privateKeyPEM, password)
	if err != nil {
		return "", err
	}

	sig, err := rsa.SignPKCS1v15(rand.Reader, priv, crypto.SHA256, digest)
	if err != nil {
		return "", fmt.Errorf("failed to sign digest: %w", err)
	}
	return hex.EncodeToString(sig), nil
}
