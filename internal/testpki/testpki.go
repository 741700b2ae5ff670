// Package testpki provides RSA key pairs and fixture lookup for tests.
package testpki

import (
	"crypto/rand"
	"crypto/rsa"
	"log"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pdfseal/pdfseal/keys"
)

// Scrypt is a cheap key derivation setting so tests stay fast.
var Scrypt = keys.ScryptParams{Cost: 1024}

var (
	mu    sync.Mutex
	cache = map[string]*rsa.PrivateKey{}
)

// KeyPair is a key pair stored on disk.
type KeyPair struct {
	Key            *rsa.PrivateKey
	Password       []byte
	PublicKeyPath  string
	PrivateKeyPath string
}

func Fail(t testing.TB, format string, args ...interface{}) {
	if t != nil {
		t.Fatalf(format, args...)
	} else {
		log.Fatalf(format, args...)
	}
}

// Key returns a 2048 bit RSA key. Calls with the same name share a key for
// the lifetime of the test binary.
func Key(t testing.TB, name string) *rsa.PrivateKey {
	mu.Lock()
	defer mu.Unlock()

	if k, ok := cache[name]; ok {
		return k
	}
	k, err := rsa.GenerateKey(rand.Reader, keys.MinBits)
	if err != nil {
		Fail(t, "failed to generate RSA key: %v", err)
	}
	cache[name] = k
	return k
}

// WriteKeyPair stores the named key in a fresh temporary directory, the
// private half encrypted with password.
func WriteKeyPair(t testing.TB, name, password string) *KeyPair {
	t.Helper()

	k := Key(t, name)
	dir := t.TempDir()

	pub, err := keys.MarshalPublicKey(&k.PublicKey)
	if err != nil {
		Fail(t, "%v", err)
	}
	priv, err := keys.EncryptPrivateKey(k, []byte(password), Scrypt)
	if err != nil {
		Fail(t, "%v", err)
	}

	kp := &KeyPair{
		Key:            k,
		Password:       []byte(password),
		PublicKeyPath:  filepath.Join(dir, keys.PublicKeyFile),
		PrivateKeyPath: filepath.Join(dir, keys.PrivateKeyFile),
	}
	if err := os.WriteFile(kp.PublicKeyPath, pub, 0o644); err != nil {
		Fail(t, "%v", err)
	}
	if err := os.WriteFile(kp.PrivateKeyPath, priv, 0o600); err != nil {
		Fail(t, "%v", err)
	}
	return kp
}

// CopyFile copies a fixture into dir, creating it when needed, and returns
// the new path.
func CopyFile(t testing.TB, src, dir string) string {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		Fail(t, "failed to create %s: %v", dir, err)
	}
	data, err := os.ReadFile(GetTestFile(src))
	if err != nil {
		Fail(t, "failed to read %s: %v", src, err)
	}
	dst := filepath.Join(dir, filepath.Base(src))
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		Fail(t, "failed to write %s: %v", dst, err)
	}
	return dst
}

// GetTestFile resolves a path relative to the repository root by walking
// up from the working directory until a testfiles directory is found.
func GetTestFile(path string) string {
	if filepath.IsAbs(path) {
		return path
	}

	if _, err := os.Stat(path); err == nil {
		return path
	}

	cwd, _ := os.Getwd()
	maxDepth := 5
	for i := 0; i < maxDepth; i++ {
		target := filepath.Join(cwd, "testfiles")
		if _, err := os.Stat(target); err == nil {
			return filepath.Join(cwd, path)
		}
		cwd = filepath.Dir(cwd)
		if cwd == "/" || cwd == "." {
			break
		}
	}

	return path
}
