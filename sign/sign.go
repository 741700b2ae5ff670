// Package sign normalizes documents, signs their digest and embeds the
// signature into the Info dictionary.
package sign

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/pdfseal/pdfseal/internal/fileutil"
	"github.com/pdfseal/pdfseal/keys"
)

// SignFile signs input with the encrypted private key at privateKeyPath and
// writes "<stem>_signed<ext>" next to it.
//
// The normalized document is staged in "<stem>_normalized-<id><ext>" and
// removed again on every return path. The context is only checked before
// any work starts.
func SignFile(ctx context.Context, input, privateKeyPath string, password []byte, opts *Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	log := opts.logger().With(slog.String("input", input))

	data, err := os.ReadFile(input)
	if err != nil {
		return "", fmt.Errorf("failed to read document: %w", err)
	}
	keyPEM, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return "", fmt.Errorf("failed to read private key: %w", err)
	}

	canonical, resigned, err := normalizeUnsigned(data, opts.info())
	if err != nil {
		return "", err
	}
	if resigned {
		log.Info("replacing existing signature")
	}

	normalized := fileutil.Unique(input, opts.tempDir(), "normalized")
	if err := os.WriteFile(normalized, canonical, 0o600); err != nil {
		return "", fmt.Errorf("failed to stage normalized document: %w", err)
	}
	defer func() {
		if err := os.Remove(normalized); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn("failed to remove normalized document", slog.String("path", normalized), slog.Any("error", err))
		}
	}()

	staged, err := os.ReadFile(normalized)
	if err != nil {
		return "", fmt.Errorf("failed to read normalized document: %w", err)
	}

	digest := Digest(staged)
	signature, err := SignDigest(keyPEM, password, digest[:])
	if err != nil {
		if keys.IsDecryptError(err) {
			log.Warn("private key could not be unlocked", slog.Any("error", err))
		}
		return "", err
	}

	signed, err := EmbedBytes(staged, signature)
	if err != nil {
		return "", err
	}

	output := fileutil.Derived(input, "", "signed")
	if err := fileutil.WriteFile(output, signed, 0o644); err != nil {
		return "", fmt.Errorf("failed to write signed document: %w", err)
	}

	log.Info("signed document",
		slog.String("output", output),
		slog.String("digest", hex.EncodeToString(digest[:])))
	return output, nil
}

// SignDocument signs input and reports whether it succeeded. A wrong
// password or an unusable private key yields false without an error; I/O
// and document errors are returned.
func SignDocument(input, privateKeyPath string, password []byte) (bool, error) {
	_, err := SignFile(context.Background(), input, privateKeyPath, password, nil)
	switch {
	case err == nil:
		return true, nil
	case keys.IsDecryptError(err):
		return false, nil
	default:
		return false, err
	}
}
