package cli

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdfseal/pdfseal/keys"
	"github.com/pdfseal/pdfseal/verify"
)

const FlagJSON = "json"

func newVerifyCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify <input.pdf>",
		Short: "Verify the signature of a PDF document",
		Long: `Verify that a signed PDF document has not been changed since it was signed.

The command exits with status 0 for an authentic document and status 2 for
any other outcome: unsigned, tampered, unusable key or unreadable document.`,
		Example: `  pdfseal verify --key keys/public_key.pem contract_signed.pdf
  pdfseal verify --json contract_signed.pdf`,
		Args: cobra.ExactArgs(1),
		RunE: a.runVerify,
	}

	cmd.Flags().String(FlagKey, "", "public key file (default public_key.pem in keys.output_dir)")
	cmd.Flags().String(FlagTempDir, "", "directory for temporary files (default signing.temp_dir or the input directory)")
	cmd.Flags().Bool(FlagJSON, false, "print the result as JSON")

	return cmd
}

func (a *app) runVerify(cmd *cobra.Command, args []string) error {
	keyPath, _ := cmd.Flags().GetString(FlagKey)
	tempDir, _ := cmd.Flags().GetString(FlagTempDir)
	asJSON, _ := cmd.Flags().GetBool(FlagJSON)

	if keyPath == "" {
		keyPath = filepath.Join(a.cfg.Keys.OutputDir, keys.PublicKeyFile)
	}
	if tempDir == "" {
		tempDir = a.cfg.Signing.TempDir
	}

	res, err := verify.VerifyFile(cmd.Context(), args[0], keyPath, &verify.Options{
		TempDir: tempDir,
		Logger:  a.log,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if asJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	} else {
		printResult(cmd, res)
	}

	if !res.Valid() {
		return &exitError{code: 2}
	}
	return nil
}

func printResult(cmd *cobra.Command, res *verify.Result) {
	out := cmd.OutOrStdout()

	switch res.Status {
	case verify.StatusAuthentic:
		fmt.Fprintln(out, "Signature is valid.")
	case verify.StatusUnsigned:
		fmt.Fprintln(out, "Document is not signed.")
	case verify.StatusTampered:
		fmt.Fprintln(out, "Signature is NOT valid: the document was modified or signed with another key.")
	case verify.StatusKeyError:
		fmt.Fprintf(out, "Public key cannot be used: %v\n", res.Err)
	case verify.StatusUnreadable:
		fmt.Fprintf(out, "Document cannot be read: %v\n", res.Err)
	}

	info := res.DocumentInfo
	if info.Title != "" {
		fmt.Fprintf(out, "Title:   %s\n", info.Title)
	}
	if info.Author != "" {
		fmt.Fprintf(out, "Author:  %s\n", info.Author)
	}
	if info.Pages > 0 {
		fmt.Fprintf(out, "Pages:   %d\n", info.Pages)
	}
	if res.DocumentHash != "" {
		fmt.Fprintf(out, "SHA-256: %s\n", res.DocumentHash)
	}
}
