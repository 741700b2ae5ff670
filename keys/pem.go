package keys

import (
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"encoding/pem"
	"fmt"
	"os"

	"github.com/youmark/pkcs8"
)

// PEM block types.
const (
	BlockEncryptedPrivateKey = "ENCRYPTED PRIVATE KEY"
	BlockPublicKey           = "PUBLIC KEY"
	blockPKCS1PublicKey      = "RSA PUBLIC KEY"
	blockCertificate         = "CERTIFICATE"
)

var oidPBES2 = asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 5, 13}

// encryptedPrivateKeyInfo is the outer PKCS#8 structure (RFC 5958).
type encryptedPrivateKeyInfo struct {
	EncryptionAlgorithm pkix.AlgorithmIdentifier
	EncryptedData       []byte
}

// MarshalPublicKey encodes pub as a PKIX "PUBLIC KEY" PEM block.
func MarshalPublicKey(pub *rsa.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal public key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: BlockPublicKey, Bytes: der}), nil
}

// ParsePublicKey returns the first RSA public key found in data. PKIX and
// PKCS#1 public keys as well as certificates are accepted.
func ParsePublicKey(data []byte) (*rsa.PublicKey, error) {
	found := false
	for len(data) > 0 {
		block, rest := pem.Decode(data)
		if block == nil {
			break
		}
		found = true

		switch block.Type {
		case BlockPublicKey:
			k, err := x509.ParsePKIXPublicKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("failed to parse public key: %w", err)
			}
			pub, ok := k.(*rsa.PublicKey)
			if !ok {
				return nil, ErrNotRSA
			}
			return pub, nil
		case blockPKCS1PublicKey:
			pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("failed to parse public key: %w", err)
			}
			return pub, nil
		case blockCertificate:
			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("failed to parse certificate: %w", err)
			}
			pub, ok := cert.PublicKey.(*rsa.PublicKey)
			if !ok {
				return nil, ErrNotRSA
			}
			return pub, nil
		}
		data = rest
	}

	if !found {
		return nil, fmt.Errorf("no PEM data found")
	}
	return nil, fmt.Errorf("no public key block found")
}

// EncryptPrivateKey encodes priv as an "ENCRYPTED PRIVATE KEY" PEM block
// using PBES2 with scrypt and AES-256-CBC.
func EncryptPrivateKey(priv *rsa.PrivateKey, password []byte, params ScryptParams) ([]byte, error) {
	if len(password) == 0 {
		return nil, ErrEmptyPassword
	}
	params = params.withDefaults()

	der, err := pkcs8.MarshalPrivateKey(priv, password, &pkcs8.Opts{
		Cipher: pkcs8.AES256CBC,
		KDFOpts: pkcs8.ScryptOpts{
			SaltSize:                 params.SaltSize,
			CostParameter:            params.Cost,
			BlockSize:                params.BlockSize,
			ParallelizationParameter: params.Parallel,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt private key: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: BlockEncryptedPrivateKey, Bytes: der}), nil
}

// DecryptPrivateKey unlocks an encrypted private key. Structural problems
// are reported as ErrCorruptKey, everything after that as ErrWrongPassword.
func DecryptPrivateKey(data, password []byte) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return nil, fmt.Errorf("%w: no PEM data found", ErrCorruptKey)
	}
	if block.Type != BlockEncryptedPrivateKey {
		return nil, fmt.Errorf("%w: unexpected PEM block %q", ErrCorruptKey, block.Type)
	}

	var info encryptedPrivateKeyInfo
	rest, err := asn1.Unmarshal(block.Bytes, &info)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptKey, err)
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("%w: trailing data after key", ErrCorruptKey)
	}
	if !info.EncryptionAlgorithm.Algorithm.Equal(oidPBES2) {
		return nil, fmt.Errorf("%w: unsupported encryption scheme %s", ErrCorruptKey, info.EncryptionAlgorithm.Algorithm)
	}

	priv, err := pkcs8.ParsePKCS8PrivateKeyRSA(block.Bytes, password)
	if err != nil {
		return nil, ErrWrongPassword
	}
	return priv, nil
}

// LoadPublicKey reads and parses a public key file.
func LoadPublicKey(path string) (*rsa.PublicKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read public key: %w", err)
	}
	return ParsePublicKey(data)
}

// LoadPrivateKey reads and decrypts a private key file.
func LoadPrivateKey(path string, password []byte) (*rsa.PrivateKey, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key: %w", err)
	}
	return DecryptPrivateKey(data, password)
}
