// Package media finds private key files on removable drives and reports
// drives as they are attached and detached.
package media

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultKeyFileName = "private_key.pem"
	publicKeyFileName  = "public_key.pem"
	keyExtension       = ".pem"

	// maxDepth limits how deep below a drive root key files are searched.
	maxDepth = 4
)

// Drive is a mounted drive and the private key found on it, if any.
type Drive struct {
	Path    string
	KeyFile string
}

// HasKey reports whether a key file was found on the drive.
func (d Drive) HasKey() bool {
	return d.KeyFile != ""
}

// Drives lists the mount points below roots. Missing roots are skipped.
func Drives(roots []string) ([]string, error) {
	var drives []string
	for _, root := range roots {
		entries, err := os.ReadDir(root)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to list %s: %w", root, err)
		}
		for _, e := range entries {
			if e.IsDir() {
				drives = append(drives, filepath.Join(root, e.Name()))
			}
		}
	}
	sort.Strings(drives)
	return drives, nil
}

// FindKeyFile searches drive for a private key. A file called name wins;
// otherwise the first .pem file that is not a public key is returned. An
// empty path means no key was found.
func FindKeyFile(ctx context.Context, drive, name string) (string, error) {
	if name == "" {
		name = DefaultKeyFileName
	}

	var exact, candidate string
	errFound := errors.New("found")

	err := filepath.WalkDir(drive, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			// Unreadable directories are skipped, not fatal.
			if d != nil && d.IsDir() && path != drive {
				return fs.SkipDir
			}
			return err
		}

		if d.IsDir() {
			if path != drive && depth(drive, path) >= maxDepth {
				return fs.SkipDir
			}
			return nil
		}

		base := d.Name()
		switch {
		case strings.EqualFold(base, name):
			exact = path
			return errFound
		case candidate == "" && strings.EqualFold(filepath.Ext(base), keyExtension) && !strings.EqualFold(base, publicKeyFileName):
			candidate = path
		}
		return nil
	})

	switch {
	case errors.Is(err, errFound):
		return exact, nil
	case err != nil:
		return "", err
	}
	return candidate, nil
}

func depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

// Scan searches all drives concurrently. Drives that cannot be read are
// reported without a key.
func Scan(ctx context.Context, drives []string, name string, log *slog.Logger) ([]Drive, error) {
	if log == nil {
		log = slog.Default()
	}

	results := make([]Drive, len(drives))
	g, ctx := errgroup.WithContext(ctx)
	for i, drive := range drives {
		g.Go(func() error {
			results[i] = Drive{Path: drive}

			key, err := FindKeyFile(ctx, drive, name)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Warn("failed to search drive", slog.String("drive", drive), slog.Any("error", err))
				return nil
			}
			results[i].KeyFile = key
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Detect returns the first drive below roots that holds a private key.
func Detect(ctx context.Context, roots []string, name string, log *slog.Logger) (Drive, error) {
	drives, err := Drives(roots)
	if err != nil {
		return Drive{}, err
	}

	found, err := Scan(ctx, drives, name, log)
	if err != nil {
		return Drive{}, err
	}
	for _, d := range found {
		if d.HasKey() {
			return d, nil
		}
	}
	return Drive{}, ErrNoKey
}

// ErrNoKey is returned by Detect when no attached drive holds a key.
var ErrNoKey = errors.New("no private key found on removable media")
