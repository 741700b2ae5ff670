package verify

import "fmt"

// ValidationError represents a document that could not be read or checked.
type ValidationError struct {
	Msg string
	Err error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// KeyError represents a public key that could not be loaded.
type KeyError struct {
	Msg string
	Err error
}

func (e *KeyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *KeyError) Unwrap() error {
	return e.Err
}

// InvalidSignatureError indicates that the cryptographic signature verification failed.
type InvalidSignatureError struct {
	Msg string
	Err error
}

func (e *InvalidSignatureError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *InvalidSignatureError) Unwrap() error {
	return e.Err
}

// PolicyError indicates a violation of validation policy (e.g. key size).
type PolicyError struct {
	Msg string
}

func (e *PolicyError) Error() string {
	return e.Msg
}
