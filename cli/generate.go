package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/pdfseal/pdfseal/keys"
	"github.com/pdfseal/pdfseal/media"
)

const (
	FlagOut        = "out"
	FlagPrivateDir = "private-dir"
	FlagMedia      = "media"
	FlagBits       = "bits"
)

func newGenerateCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate an RSA key pair",
		Long: `Generate an RSA key pair.

The public key is written to public_key.pem in the output directory. The
private key is encrypted with a password and written to private_key.pem,
either next to the public key, into --private-dir or onto the first
removable drive found with --media. Existing key files are replaced.`,
		Example: `  pdfseal generate --out keys --media
  pdfseal generate --out keys --private-dir /media/alice/KEY --bits 3072`,
		Args: cobra.NoArgs,
		RunE: a.runGenerate,
	}

	cmd.Flags().String(FlagOut, "", "directory for the public key (default keys.output_dir or the working directory)")
	cmd.Flags().String(FlagPrivateDir, "", "directory for the encrypted private key (default --out)")
	cmd.Flags().Bool(FlagMedia, false, "store the private key on the first removable drive")
	cmd.Flags().Int(FlagBits, 0, "RSA key size (default keys.bits)")
	cmd.MarkFlagsMutuallyExclusive(FlagPrivateDir, FlagMedia)

	return cmd
}

func (a *app) runGenerate(cmd *cobra.Command, _ []string) error {
	out, _ := cmd.Flags().GetString(FlagOut)
	privateDir, _ := cmd.Flags().GetString(FlagPrivateDir)
	useMedia, _ := cmd.Flags().GetBool(FlagMedia)
	bits, _ := cmd.Flags().GetInt(FlagBits)

	if out == "" {
		out = a.cfg.Keys.OutputDir
	}
	if out == "" {
		out = "."
	}
	if bits == 0 {
		bits = a.cfg.Keys.Bits
	}

	switch {
	case useMedia:
		drives, err := media.Drives(a.cfg.Media.Roots)
		if err != nil {
			return err
		}
		if len(drives) == 0 {
			return errors.New("no removable drive attached")
		}
		privateDir = drives[0]
		a.log.Info("storing private key on removable drive", slog.String("drive", privateDir))
	case privateDir == "":
		privateDir = out
	}

	password, err := a.passwords.newPassword(a.cfg.Password)
	if err != nil {
		return err
	}
	defer wipe(password)

	opts := &keys.Options{
		Bits: bits,
		Scrypt: keys.ScryptParams{
			Cost:      a.cfg.Keys.ScryptCost,
			BlockSize: a.cfg.Keys.ScryptBlockSize,
			Parallel:  a.cfg.Keys.ScryptParallel,
			SaltSize:  a.cfg.Keys.SaltSize,
		},
		Logger: a.log,
	}

	var publicKeyPath, privateKeyPath string
	err = runWithProgress(cmd.ErrOrStderr(), fmt.Sprintf("Generating %d bit key pair", bits), progressInterval, func() error {
		var err error
		publicKeyPath, privateKeyPath, err = keys.GenerateKeyPair(out, privateDir, password, opts)
		return err
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Public key:  %s\nPrivate key: %s\n", publicKeyPath, privateKeyPath)
	return nil
}
