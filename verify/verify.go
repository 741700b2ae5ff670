// Package verify checks that a signed document has not been altered since
// it was signed.
package verify

import (
	"context"
	"crypto"
	"crypto/rsa"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/pdfseal/pdfseal/extract"
	"github.com/pdfseal/pdfseal/internal/fileutil"
	"github.com/pdfseal/pdfseal/internal/pdf"
	"github.com/pdfseal/pdfseal/keys"
	"github.com/pdfseal/pdfseal/sign"
)

// Verify checks the signature embedded in data against pub. The signature
// is removed, the remainder normalized and its digest compared with the
// signature. Parser and crypto failures are reported through the result.
func Verify(data []byte, pub *rsa.PublicKey) *Result {
	res, _ := verify(data, pub, nil)
	return res
}

// VerifyFile verifies the document at path with the public key stored at
// publicKeyPath. The stripped document is staged in "<stem>_temp-<id><ext>"
// and removed before returning.
//
// An error is only returned when the document itself cannot be read or
// staged; an unusable key file yields StatusKeyError.
func VerifyFile(ctx context.Context, path, publicKeyPath string, opts *Options) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log := opts.logger().With(slog.String("document", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	pub, err := keys.LoadPublicKey(publicKeyPath)
	if err != nil {
		res := &Result{}
		return res.fail(StatusKeyError, &KeyError{Msg: "failed to load public key", Err: err}), nil
	}

	stage := func(stripped []byte) ([]byte, error) {
		temp := fileutil.Unique(path, opts.tempDir(), "temp")
		if err := os.WriteFile(temp, stripped, 0o600); err != nil {
			return nil, fmt.Errorf("failed to stage document: %w", err)
		}
		defer func() {
			if err := os.Remove(temp); err != nil && !errors.Is(err, fs.ErrNotExist) {
				log.Warn("failed to remove staged document", slog.String("path", temp), slog.Any("error", err))
			}
		}()
		return os.ReadFile(temp)
	}

	res, err := verify(data, pub, stage)
	if err != nil {
		return nil, err
	}

	log.Info("verified document", slog.String("status", res.Status.String()))
	return res, nil
}

// VerifyDocument reports whether the document at path carries a valid
// signature for the public key at publicKeyPath. Unsigned, modified and
// unreadable documents all yield false.
func VerifyDocument(path, publicKeyPath string) bool {
	res, err := VerifyFile(context.Background(), path, publicKeyPath, nil)
	if err != nil {
		return false
	}
	return res.Valid()
}

func verify(data []byte, pub *rsa.PublicKey, stage func([]byte) ([]byte, error)) (res *Result, err error) {
	res = &Result{}
	defer func() {
		if r := recover(); r != nil {
			res = res.fail(StatusUnreadable, &ValidationError{Msg: fmt.Sprintf("failed to verify document (%v)", r)})
			err = nil
		}
	}()

	if pub == nil || pub.N == nil {
		return res.fail(StatusKeyError, &KeyError{Msg: "no public key"}), nil
	}
	if pub.N.BitLen() < keys.MinBits {
		return res.fail(StatusKeyError, &PolicyError{
			Msg: fmt.Sprintf("public key of %d bits is below the minimum of %d", pub.N.BitLen(), keys.MinBits),
		}), nil
	}

	doc, loadErr := pdf.Load(data)
	if loadErr != nil {
		return res.fail(StatusUnreadable, &ValidationError{Msg: "failed to read document", Err: loadErr}), nil
	}
	parseDocumentInfo(doc, &res.DocumentInfo)

	sig, extractErr := extract.FromDocument(doc)
	switch {
	case errors.Is(extractErr, extract.ErrNoSignature):
		return res.fail(StatusUnsigned, extractErr), nil
	case extractErr != nil:
		return res.fail(StatusTampered, &InvalidSignatureError{Msg: "signature entry is damaged", Err: extractErr}), nil
	}
	res.Signature = sig.Hex()

	stripped, err := sig.Stripped()
	if err != nil {
		return res.fail(StatusUnreadable, &ValidationError{Msg: "failed to serialize document", Err: err}), nil
	}
	if stage != nil {
		if stripped, err = stage(stripped); err != nil {
			return nil, err
		}
	}

	canonical, err := sign.Normalize(stripped)
	if err != nil {
		return res.fail(StatusUnreadable, &ValidationError{Msg: "failed to normalize document", Err: err}), nil
	}
	digest := sign.Digest(canonical)
	res.DocumentHash = hex.EncodeToString(digest[:])

	if len(sig.Bytes()) != pub.Size() {
		return res.fail(StatusTampered, &InvalidSignatureError{
			Msg: fmt.Sprintf("signature is %d bytes, expected %d", len(sig.Bytes()), pub.Size()),
		}), nil
	}
	if err := rsa.VerifyPKCS1v15(pub, crypto.SHA256, digest[:], sig.Bytes()); err != nil {
		return res.fail(StatusTampered, &InvalidSignatureError{Msg: "signature does not match document", Err: err}), nil
	}

	res.Status = StatusAuthentic
	return res, nil
}
