package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdfseal/pdfseal/config"
	"github.com/pdfseal/pdfseal/internal/testpdf"
	"github.com/pdfseal/pdfseal/internal/testpki"
	"github.com/pdfseal/pdfseal/keys"
)

// writeConfig stores a config with fast key settings and mediaRoot as the
// only removable media root.
func writeConfig(t *testing.T, mediaRoot string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "pdfseal.conf")
	content := fmt.Sprintf(`[keys]
bits = 2048
scrypt_cost = 1024

[media]
roots = [%q]

[log]
level = "error"
`, mediaRoot)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func runCLI(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func writeDocument(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "contract.pdf")
	require.NoError(t, os.WriteFile(path, testpdf.Document("Contract", "Hello World"), 0o644))
	return path
}

func TestGenerateSignVerify(t *testing.T) {
	cfg := writeConfig(t, t.TempDir())
	keyDir := t.TempDir()
	privateDir := t.TempDir()
	docDir := t.TempDir()

	stdout, _, err := runCLI(t, "test123\ntest123\n",
		"generate", "--config", cfg, "--out", keyDir, "--private-dir", privateDir)
	require.NoError(t, err)
	assert.Contains(t, stdout, filepath.Join(keyDir, keys.PublicKeyFile))
	assert.Contains(t, stdout, filepath.Join(privateDir, keys.PrivateKeyFile))

	input := writeDocument(t, docDir)
	stdout, _, err = runCLI(t, "test123\n",
		"sign", "--config", cfg, "--key", filepath.Join(privateDir, keys.PrivateKeyFile), input)
	require.NoError(t, err)
	signed := filepath.Join(docDir, "contract_signed.pdf")
	assert.Contains(t, stdout, signed)

	pub := filepath.Join(keyDir, keys.PublicKeyFile)
	stdout, _, err = runCLI(t, "", "verify", "--config", cfg, "--key", pub, signed)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Signature is valid.")
	assert.Contains(t, stdout, "Title:   Contract")
	assert.Contains(t, stdout, "Pages:   1")

	stdout, _, err = runCLI(t, "", "verify", "--config", cfg, "--key", pub, "--json", signed)
	require.NoError(t, err)
	var res struct {
		Status       string `json:"status"`
		DocumentHash string `json:"document_hash"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.Equal(t, "authentic", res.Status)
	assert.Len(t, res.DocumentHash, 64)

	entries, err := os.ReadDir(docDir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "only the input and the signed document remain")
}

func TestGenerateRejectsPasswords(t *testing.T) {
	cfg := writeConfig(t, t.TempDir())

	tests := []struct {
		name  string
		stdin string
		want  string
	}{
		{"too short", "abc\nabc\n", "at least 4 characters"},
		{"mismatch", "test123\ntest124\n", errPasswordMismatch.Error()},
		{"no input", "", "failed to read password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			_, _, err := runCLI(t, tt.stdin, "generate", "--config", cfg, "--out", dir)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.NoFileExists(t, filepath.Join(dir, keys.PublicKeyFile))
		})
	}
}

func TestGenerateOnMedia(t *testing.T) {
	root := t.TempDir()
	drive := filepath.Join(root, "KEY")
	require.NoError(t, os.Mkdir(drive, 0o755))
	cfg := writeConfig(t, root)
	keyDir := t.TempDir()

	_, _, err := runCLI(t, "test123\ntest123\n", "generate", "--config", cfg, "--out", keyDir, "--media")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(keyDir, keys.PublicKeyFile))
	assert.FileExists(t, filepath.Join(drive, keys.PrivateKeyFile))
	assert.NoFileExists(t, filepath.Join(keyDir, keys.PrivateKeyFile))

	_, _, err = runCLI(t, "test123\ntest123\n", "generate", "--config", writeConfig(t, t.TempDir()), "--out", keyDir, "--media")
	assert.ErrorContains(t, err, "no removable drive")
}

func TestSignRetriesWrongPassword(t *testing.T) {
	cfg := writeConfig(t, t.TempDir())
	kp := testpki.WriteKeyPair(t, "cli", "test123")
	dir := t.TempDir()
	input := writeDocument(t, dir)

	_, stderr, err := runCLI(t, "wrong\nabc\ntest123\n", "sign", "--config", cfg, "--key", kp.PrivateKeyPath, input)
	require.NoError(t, err)
	assert.Contains(t, stderr, "Wrong password.")
	assert.Contains(t, stderr, "at least 4 characters")
	assert.FileExists(t, filepath.Join(dir, "contract_signed.pdf"))
}

func TestSignGivesUp(t *testing.T) {
	cfg := writeConfig(t, t.TempDir())
	kp := testpki.WriteKeyPair(t, "cli", "test123")
	dir := t.TempDir()
	input := writeDocument(t, dir)

	_, _, err := runCLI(t, "wrong\nwrong\nwrong\ntest123\n", "sign", "--config", cfg, "--key", kp.PrivateKeyPath, input)
	require.Error(t, err)
	assert.ErrorIs(t, err, keys.ErrWrongPassword)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "contract.pdf", entries[0].Name())
}

func TestSignWithMediaAndInfo(t *testing.T) {
	root := t.TempDir()
	kp := testpki.WriteKeyPair(t, "cli", "test123")
	testpki.CopyFile(t, kp.PrivateKeyPath, filepath.Join(root, "USB"))
	cfg := writeConfig(t, root)
	dir := t.TempDir()
	input := writeDocument(t, dir)

	_, stderr, err := runCLI(t, "test123\n", "sign", "--config", cfg, "--media", "--title", "Kaufvertrag für Müller", input)
	require.NoError(t, err)
	assert.Contains(t, stderr, filepath.Join(root, "USB", keys.PrivateKeyFile))

	stdout, _, err := runCLI(t, "", "verify", "--config", cfg, "--key", kp.PublicKeyPath, filepath.Join(dir, "contract_signed.pdf"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "Title:   Kaufvertrag für Müller")
}

func TestSignFlags(t *testing.T) {
	cfg := writeConfig(t, t.TempDir())

	_, _, err := runCLI(t, "", "sign", "--config", cfg, "contract.pdf")
	assert.Error(t, err, "either --key or --media is required")

	_, _, err = runCLI(t, "", "sign", "--config", cfg, "--key", "k.pem", "--media", "contract.pdf")
	assert.Error(t, err)

	_, _, err = runCLI(t, "", "sign", "--config", cfg, "--media", "contract.pdf")
	assert.Error(t, err)
}

func TestVerifyOutcomes(t *testing.T) {
	cfg := writeConfig(t, t.TempDir())
	kp := testpki.WriteKeyPair(t, "cli", "test123")
	dir := t.TempDir()
	input := writeDocument(t, dir)

	stdout, _, err := runCLI(t, "", "verify", "--config", cfg, "--key", kp.PublicKeyPath, input)
	code, ok := exitCode(err)
	require.True(t, ok)
	assert.Equal(t, 2, code)
	assert.Contains(t, stdout, "Document is not signed.")

	stdout, _, err = runCLI(t, "", "verify", "--config", cfg, "--key", filepath.Join(dir, "missing.pem"), input)
	code, ok = exitCode(err)
	require.True(t, ok)
	assert.Equal(t, 2, code)
	assert.Contains(t, stdout, "Public key cannot be used")

	_, _, err = runCLI(t, "", "verify", "--config", cfg, "--key", kp.PublicKeyPath, filepath.Join(dir, "missing.pdf"))
	require.Error(t, err)
	_, ok = exitCode(err)
	assert.False(t, ok)
}

func TestExecute(t *testing.T) {
	origExit := osExit
	defer func() { osExit = origExit }()

	var code int
	osExit = func(c int) { code = c }

	cfg := writeConfig(t, t.TempDir())
	kp := testpki.WriteKeyPair(t, "cli", "test123")
	input := writeDocument(t, t.TempDir())

	code = -1
	Execute(context.Background(), []string{"verify", "--config", cfg, "--key", kp.PublicKeyPath, input})
	assert.Equal(t, 2, code)

	code = -1
	Execute(context.Background(), []string{"verify", "--config", cfg, "--key", kp.PublicKeyPath, input + ".missing"})
	assert.Equal(t, 1, code)

	code = -1
	Execute(context.Background(), []string{"--help"})
	assert.Equal(t, -1, code)
}

func TestInvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pdfseal.conf")
	require.NoError(t, os.WriteFile(path, []byte("[password]\nmin_length = 0\n"), 0o600))

	_, _, err := runCLI(t, "", "verify", "--config", path, "contract.pdf")
	assert.ErrorContains(t, err, "config")
}

func TestMediaCommand(t *testing.T) {
	root := t.TempDir()
	testpki.CopyFile(t, testpki.WriteKeyPair(t, "cli", "test123").PrivateKeyPath, filepath.Join(root, "USB"))
	require.NoError(t, os.Mkdir(filepath.Join(root, "EMPTY"), 0o755))
	cfg := writeConfig(t, root)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	cmd := NewRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"media", "--config", cfg})
	require.NoError(t, cmd.ExecuteContext(ctx))

	out := stdout.String()
	assert.Contains(t, out, filepath.Join(root, "USB")+" inserted: private key "+filepath.Join(root, "USB", keys.PrivateKeyFile))
	assert.Contains(t, out, filepath.Join(root, "EMPTY")+" inserted: no private key")
}

func TestCheckPassword(t *testing.T) {
	policy := config.Default().Password

	assert.NoError(t, checkPassword([]byte("test"), policy))
	assert.NoError(t, checkPassword([]byte("äöüß"), policy))
	assert.Error(t, checkPassword([]byte("äöü"), policy))
	assert.Error(t, checkPassword(nil, policy))
}

func TestPasswordReader(t *testing.T) {
	var prompt bytes.Buffer
	r := newPasswordReader(strings.NewReader("first\r\nsecond"), &prompt)

	pw, err := r.read("Password: ")
	require.NoError(t, err)
	assert.Equal(t, "first", string(pw))

	pw, err = r.read("Password: ")
	require.NoError(t, err)
	assert.Equal(t, "second", string(pw))

	_, err = r.read("Password: ")
	assert.Error(t, err)
	assert.Equal(t, "Password: Password: Password: ", prompt.String())
}

func TestRunWithProgress(t *testing.T) {
	var out bytes.Buffer
	err := runWithProgress(&out, "Working", time.Millisecond, func() error {
		time.Sleep(20 * time.Millisecond)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out.String(), "Working."))
	assert.Contains(t, out.String(), " done (")

	out.Reset()
	boom := errors.New("boom")
	err = runWithProgress(&out, "Working", time.Hour, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, out.String(), "Working failed (")
}
