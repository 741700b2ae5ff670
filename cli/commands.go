// Package cli implements the pdfseal command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdfseal/pdfseal/config"
	"github.com/pdfseal/pdfseal/internal/logging"
)

// osExit is replaced in tests.
var osExit = os.Exit

const FlagConfig = "config"

// app carries what every command needs once the configuration is loaded.
type app struct {
	cfg       config.Config
	log       *slog.Logger
	logCloser io.Closer
	passwords *passwordReader
}

// NewRootCommand builds the pdfseal command tree.
func NewRootCommand() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "pdfseal",
		Short: "Sign PDF documents with an RSA key and verify them later",
		Long: `pdfseal signs PDF documents with an RSA private key and verifies that a
signed document has not been changed since.

The signature covers a normalized form of the document and is stored as a
hex string under /Signature in the document information dictionary. The
private key is kept encrypted with a password, typically on a removable
drive.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: a.teardown,
	}
	cmd.PersistentFlags().String(FlagConfig, "", fmt.Sprintf("config file (default %s when present)", config.DefaultLocation))

	cmd.AddCommand(
		newGenerateCommand(a),
		newSignCommand(a),
		newVerifyCommand(a),
		newMediaCommand(a),
	)
	return cmd
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	path, err := cmd.Flags().GetString(FlagConfig)
	if err != nil {
		return err
	}
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}

	log, closer, err := logging.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.log = log
	a.logCloser = closer
	a.passwords = newPasswordReader(cmd.InOrStdin(), cmd.ErrOrStderr())
	return nil
}

func (a *app) teardown(*cobra.Command, []string) error {
	if a.logCloser == nil {
		return nil
	}
	return a.logCloser.Close()
}

// Execute runs the command line and exits with status 1 on error. Commands
// that report a negative outcome, such as a failed verification, exit with
// the status carried by their exitError.
func Execute(ctx context.Context, args []string) {
	cmd := NewRootCommand()
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		if code, ok := exitCode(err); ok {
			osExit(code)
			return
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
		osExit(1)
	}
}

// exitError ends a command with a non-zero status without printing an
// error, after the command already reported its outcome.
type exitError struct {
	code int
}

func (e *exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func exitCode(err error) (int, bool) {
	var e *exitError
	if errors.As(err, &e) {
		return e.code, true
	}
	return 0, false
}
