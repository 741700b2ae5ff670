package keys

import "errors"

var (
	// ErrWrongPassword is returned when a well-formed private key cannot be
	// decrypted with the given password.
	ErrWrongPassword = errors.New("wrong password for private key")

	// ErrCorruptKey is returned when the private key file is not an
	// encrypted PKCS#8 key.
	ErrCorruptKey = errors.New("corrupt private key")

	// ErrEmptyPassword is returned when a private key would be stored
	// without encryption.
	ErrEmptyPassword = errors.New("empty password")

	ErrNotRSA = errors.New("not an RSA key")
)

// IsDecryptError reports whether err means the private key could not be
// unlocked, either because of the password or because the key is damaged.
func IsDecryptError(err error) bool {
	return errors.Is(err, ErrWrongPassword) || errors.Is(err, ErrCorruptKey)
}
