package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pdfseal/pdfseal/keys"
	"github.com/pdfseal/pdfseal/media"
	"github.com/pdfseal/pdfseal/sign"
)

const (
	FlagKey     = "key"
	FlagTempDir = "temp-dir"
	FlagTitle   = "title"
	FlagAuthor  = "author"
)

func newSignCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign <input.pdf>",
		Short: "Sign a PDF document",
		Long: `Sign a PDF document with an encrypted private key.

The document is normalized, its SHA-256 digest signed with RSA PKCS#1 v1.5
and the signature stored under /Signature in the document information
dictionary. The result is written to <name>_signed.pdf next to the input.
A wrong password is asked again up to password.max_attempts times.`,
		Example: `  pdfseal sign --media contract.pdf
  pdfseal sign --key /media/alice/KEY/private_key.pem --title "Contract" contract.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: a.runSign,
	}

	cmd.Flags().String(FlagKey, "", "encrypted private key file")
	cmd.Flags().Bool(FlagMedia, false, "use the private key found on an attached removable drive")
	cmd.Flags().String(FlagTempDir, "", "directory for temporary files (default signing.temp_dir or the input directory)")
	cmd.Flags().String(FlagTitle, "", "set the document title before signing")
	cmd.Flags().String(FlagAuthor, "", "set the document author before signing")
	cmd.MarkFlagsOneRequired(FlagKey, FlagMedia)
	cmd.MarkFlagsMutuallyExclusive(FlagKey, FlagMedia)

	return cmd
}

func (a *app) runSign(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	input := args[0]

	keyPath, _ := cmd.Flags().GetString(FlagKey)
	useMedia, _ := cmd.Flags().GetBool(FlagMedia)
	tempDir, _ := cmd.Flags().GetString(FlagTempDir)
	title, _ := cmd.Flags().GetString(FlagTitle)
	author, _ := cmd.Flags().GetString(FlagAuthor)

	if useMedia {
		drive, err := media.Detect(ctx, a.cfg.Media.Roots, a.cfg.Media.KeyFileName, a.log)
		if err != nil {
			return err
		}
		keyPath = drive.KeyFile
		fmt.Fprintf(cmd.ErrOrStderr(), "Using private key %s\n", keyPath)
	}
	if tempDir == "" {
		tempDir = a.cfg.Signing.TempDir
	}

	opts := &sign.Options{
		TempDir: tempDir,
		Logger:  a.log,
	}
	if title != "" || author != "" {
		opts.Info = map[string]string{}
		if title != "" {
			opts.Info["Title"] = title
		}
		if author != "" {
			opts.Info["Author"] = author
		}
	}

	for attempt := 1; attempt <= a.cfg.Password.MaxAttempts; attempt++ {
		password, err := a.passwords.read("Password: ")
		if err != nil {
			return err
		}
		if err := checkPassword(password, a.cfg.Password); err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), err)
			continue
		}

		var output string
		err = runWithProgress(cmd.ErrOrStderr(), "Signing", progressInterval, func() error {
			var err error
			output, err = sign.SignFile(ctx, input, keyPath, password, opts)
			return err
		})
		wipe(password)

		switch {
		case err == nil:
			fmt.Fprintf(cmd.OutOrStdout(), "Signed: %s\n", output)
			return nil
		case errors.Is(err, keys.ErrWrongPassword):
			a.log.Debug("wrong password", slog.Int("attempt", attempt))
			fmt.Fprintln(cmd.ErrOrStderr(), "Wrong password.")
		default:
			return err
		}
	}

	return fmt.Errorf("giving up after %d attempts: %w", a.cfg.Password.MaxAttempts, keys.ErrWrongPassword)
}
