package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/pdfseal/pdfseal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	const configContent = `
[keys]
bits = 3072
output_dir = "/srv/keys"

[password]
min_length = 8

[media]
roots = ["/media/alice"]

[log]
type = "file"
file = "/var/log/pdfseal.log"
level = "debug"
`

	c, err := config.Decode(configContent)
	require.NoError(t, err)

	assert.Equal(t, 3072, c.Keys.Bits)
	assert.Equal(t, "/srv/keys", c.Keys.OutputDir)
	assert.Equal(t, 16384, c.Keys.ScryptCost, "defaults are kept for missing keys")
	assert.Equal(t, 8, c.Password.MinLength)
	assert.Equal(t, 3, c.Password.MaxAttempts)
	assert.Equal(t, []string{"/media/alice"}, c.Media.Roots)
	assert.Equal(t, "private_key.pem", c.Media.KeyFileName)
	assert.Equal(t, "file", c.Log.Type)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestDefault(t *testing.T) {
	c := config.Default()

	assert.NoError(t, c.ValidateFields())
	assert.Equal(t, 4096, c.Keys.Bits)
	assert.Equal(t, 4, c.Password.MinLength)
	assert.Equal(t, "console", c.Log.Type)
}

func TestValidation(t *testing.T) {
	tests := map[string]string{
		"small key":       "[keys]\nbits = 1024",
		"cost":            "[keys]\nscrypt_cost = 3000",
		"log type":        "[log]\ntype = \"syslog\"",
		"log file":        "[log]\ntype = \"file\"",
		"level":           "[log]\nlevel = \"trace\"",
		"attempts":        "[password]\nmax_attempts = 0",
		"key file name":   "[media]\nkey_file_name = \"\"",
		"empty root":      "[media]\nroots = [\"\"]",
		"unknown key":     "[keys]\nsize = 4096",
		"unknown section": "[server]\nport = 80",
		"syntax":          "[keys\nbits = 4096",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := config.Decode(content)
			assert.Error(t, err)
		})
	}
}

func TestValidateFieldsRequired(t *testing.T) {
	var c config.Config
	if _, err := toml.Decode(``, &c); err != nil {
		t.Error(err)
	}

	err := c.ValidateFields()
	assert.NotNil(t, err)
}

func TestRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pdfseal.conf")
	require.NoError(t, os.WriteFile(path, []byte("[signing]\ntemp_dir = \"/tmp/pdfseal\"\n"), 0o644))

	c, err := config.Read(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/pdfseal", c.Signing.TempDir)
	assert.Equal(t, config.Default().Keys, c.Keys)

	_, err = config.Read(filepath.Join(t.TempDir(), "missing.conf"))
	assert.Error(t, err)
}

func TestLoadFallsBackToDefault(t *testing.T) {
	old := config.DefaultLocation
	config.DefaultLocation = filepath.Join(t.TempDir(), "pdfseal.conf")
	defer func() { config.DefaultLocation = old }()

	c, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, config.Default(), c)
}
