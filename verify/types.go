package verify

import (
	"encoding/json"
	"log/slog"

	"github.com/pdfseal/pdfseal/common"
)

// Status is the outcome of a verification.
type Status int

const (
	// StatusAuthentic means the signature matches the document content.
	StatusAuthentic Status = iota
	// StatusUnsigned means the document carries no signature.
	StatusUnsigned
	// StatusTampered means a signature is present but does not match.
	StatusTampered
	// StatusKeyError means the public key could not be used.
	StatusKeyError
	// StatusUnreadable means the document could not be parsed.
	StatusUnreadable
)

func (s Status) String() string {
	switch s {
	case StatusAuthentic:
		return "authentic"
	case StatusUnsigned:
		return "unsigned"
	case StatusTampered:
		return "tampered"
	case StatusKeyError:
		return "key_error"
	case StatusUnreadable:
		return "unreadable"
	}
	return "unknown"
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Result describes a verified document.
type Result struct {
	Status Status `json:"status"`
	// Err explains every status other than StatusAuthentic.
	Err   error  `json:"-"`
	Error string `json:"error,omitempty"`

	DocumentInfo common.DocumentInfo `json:"document_info"`
	DocumentHash string              `json:"document_hash,omitempty"`
	Signature    string              `json:"signature,omitempty"`
}

// Valid reports whether the document is signed and unmodified.
func (r *Result) Valid() bool {
	return r != nil && r.Status == StatusAuthentic
}

func (r *Result) fail(status Status, err error) *Result {
	r.Status = status
	r.Err = err
	if err != nil {
		r.Error = err.Error()
	}
	return r
}

// Options configure VerifyFile. A nil *Options is valid.
type Options struct {
	// TempDir receives the stripped copy of the document. Empty means the
	// directory of the document.
	TempDir string

	Logger *slog.Logger
}

func (o *Options) logger() *slog.Logger {
	if o == nil || o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

func (o *Options) tempDir() string {
	if o == nil {
		return ""
	}
	return o.TempDir
}
