package sign

import "log/slog"

// Options configure SignFile. A nil *Options is valid.
type Options struct {
	// TempDir receives the normalized copy of the input while signing.
	// Empty means the directory of the input file.
	TempDir string

	// Info entries are set on the document before it is normalized, for
	// example Title or Author. Non-ASCII values are stored as UTF-16BE.
	Info map[string]string

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

func (o *Options) info() map[string]string {
	if o == nil {
		return nil
	}
	return o.Info
}
