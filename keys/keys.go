// Package keys generates RSA key pairs and stores the private half
// encrypted with a password.
package keys

import (
	"crypto/rand"
	"crypto/rsa"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pdfseal/pdfseal/internal/fileutil"
)

// File names of a stored key pair.
const (
	PublicKeyFile  = "public_key.pem"
	PrivateKeyFile = "private_key.pem"
)

const (
	DefaultBits = 4096
	MinBits     = 2048
)

// ScryptParams configure the key derivation of the private key password.
// Zero fields take the defaults N=16384, r=8, p=1 and a 16 byte salt.
type ScryptParams struct {
	Cost      int
	BlockSize int
	Parallel  int
	SaltSize  int
}

func (p ScryptParams) withDefaults() ScryptParams {
	if p.Cost == 0 {
		p.Cost = 16384
	}
	if p.BlockSize == 0 {
		p.BlockSize = 8
	}
	if p.Parallel == 0 {
		p.Parallel = 1
	}
	if p.SaltSize == 0 {
		p.SaltSize = 16
	}
	return p
}

type Options struct {
	Bits   int
	Scrypt ScryptParams
	Logger *slog.Logger
}

func (o *Options) bits() int {
	if o == nil || o.Bits == 0 {
		return DefaultBits
	}
	return o.Bits
}

func (o *Options) logger() *slog.Logger {
	if o == nil || o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o *Options) scrypt() ScryptParams {
	if o == nil {
		return ScryptParams{}
	}
	return o.Scrypt
}

// GenerateKeyPair creates a new RSA key pair, writes the public key to
// outputDir/public_key.pem and the encrypted private key to
// privateKeyDir/private_key.pem. Existing files are replaced.
//
// Both files are written atomically, but not as a pair: the public key is
// removed again when the private key cannot be written, yet a crash between
// the two writes leaves only the public key behind.
func GenerateKeyPair(outputDir, privateKeyDir string, password []byte, opts *Options) (publicKeyPath, privateKeyPath string, err error) {
	if len(password) == 0 {
		return "", "", ErrEmptyPassword
	}
	bits := opts.bits()
	if bits < MinBits {
		return "", "", fmt.Errorf("key size %d is below the minimum of %d bits", bits, MinBits)
	}
	log := opts.logger()

	start := time.Now()
	priv, err := rsa.GenerateKey(rand.Reader, bits)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate RSA key: %w", err)
	}
	log.Info("generated RSA key", slog.Int("bits", bits), slog.Duration("elapsed", time.Since(start)))

	pubPEM, err := MarshalPublicKey(&priv.PublicKey)
	if err != nil {
		return "", "", err
	}

	start = time.Now()
	privPEM, err := EncryptPrivateKey(priv, password, opts.scrypt())
	if err != nil {
		return "", "", err
	}
	log.Info("encrypted private key", slog.Duration("elapsed", time.Since(start)))

	publicKeyPath = filepath.Join(outputDir, PublicKeyFile)
	privateKeyPath = filepath.Join(privateKeyDir, PrivateKeyFile)

	if err := fileutil.WriteFile(publicKeyPath, pubPEM, 0o644); err != nil {
		return "", "", fmt.Errorf("failed to store public key: %w", err)
	}
	if err := fileutil.WriteFile(privateKeyPath, privPEM, 0o600); err != nil {
		if rmErr := os.Remove(publicKeyPath); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			log.Warn("failed to remove public key after error", slog.String("path", publicKeyPath), slog.Any("error", rmErr))
		}
		return "", "", fmt.Errorf("failed to store private key: %w", err)
	}

	log.Debug("stored key pair", slog.String("public", publicKeyPath), slog.String("private", privateKeyPath))
	return publicKeyPath, privateKeyPath, nil
}
