// Package config reads the pdfseal TOML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/asaskevich/govalidator"
)

func init() {
	govalidator.SetFieldsRequiredByDefault(true)
}

// DefaultLocation is read by Load when no config file is given.
var DefaultLocation = "./pdfseal.conf"

// Config is the root of the config
type Config struct {
	Keys     Keys     `toml:"keys" valid:"required"`
	Password Password `toml:"password" valid:"required"`
	Media    Media    `toml:"media" valid:"required"`
	Signing  Signing  `toml:"signing" valid:"optional"`
	Log      Log      `toml:"log" valid:"required"`
}

// Keys configures key generation.
type Keys struct {
	Bits            int    `toml:"bits" valid:"range(2048|16384)"`
	ScryptCost      int    `toml:"scrypt_cost" valid:"range(1024|1048576)"`
	ScryptBlockSize int    `toml:"scrypt_block_size" valid:"range(1|64)"`
	ScryptParallel  int    `toml:"scrypt_parallel" valid:"range(1|16)"`
	SaltSize        int    `toml:"salt_size" valid:"range(8|64)"`
	OutputDir       string `toml:"output_dir" valid:"optional"`
}

// Password holds the password policy applied before any key operation.
type Password struct {
	MinLength   int `toml:"min_length" valid:"range(1|1024)"`
	MaxAttempts int `toml:"max_attempts" valid:"range(1|10)"`
}

// Media configures removable drive detection.
type Media struct {
	Roots       []string `toml:"roots" valid:"-"`
	KeyFileName string   `toml:"key_file_name" valid:"required"`
}

type Signing struct {
	TempDir string `toml:"temp_dir" valid:"optional"`
}

// Log configures logging.
type Log struct {
	Type       string `toml:"type" valid:"in(console|file)"`
	Level      string `toml:"level" valid:"in(debug|info|warn|error)"`
	File       string `toml:"file" valid:"optional"`
	MaxSize    int    `toml:"max_size" valid:"range(1|10240),optional"`
	MaxBackups int    `toml:"max_backups" valid:"range(0|1000),optional"`
	MaxAge     int    `toml:"max_age" valid:"range(0|3650),optional"`
	Compress   bool   `toml:"compress" valid:"optional"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Keys: Keys{
			Bits:            4096,
			ScryptCost:      16384,
			ScryptBlockSize: 8,
			ScryptParallel:  1,
			SaltSize:        16,
		},
		Password: Password{
			MinLength:   4,
			MaxAttempts: 3,
		},
		Media: Media{
			Roots:       DefaultMediaRoots(),
			KeyFileName: "private_key.pem",
		},
		Log: Log{
			Type:       "console",
			Level:      "info",
			MaxSize:    10,
			MaxBackups: 3,
			MaxAge:     28,
		},
	}
}

// DefaultMediaRoots returns the directories under which the operating system
// mounts removable drives.
func DefaultMediaRoots() []string {
	switch runtime.GOOS {
	case "darwin":
		return []string{"/Volumes"}
	case "linux":
		user := os.Getenv("USER")
		if user == "" {
			return []string{"/media", "/mnt"}
		}
		return []string{
			filepath.Join("/media", user),
			filepath.Join("/run/media", user),
			"/mnt",
		}
	}
	return nil
}

// ValidateFields validates all the fields of the config
func (c Config) ValidateFields() error {
	_, err := govalidator.ValidateStruct(c)
	if err != nil {
		return err
	}

	if c.Keys.ScryptCost&(c.Keys.ScryptCost-1) != 0 {
		return fmt.Errorf("keys.scrypt_cost: %d is not a power of two", c.Keys.ScryptCost)
	}
	if c.Log.Type == "file" && c.Log.File == "" {
		return errors.New("log.file: required when log.type is file")
	}
	for _, root := range c.Media.Roots {
		if strings.TrimSpace(root) == "" {
			return errors.New("media.roots: empty entry")
		}
	}
	return nil
}

// Decode parses TOML content on top of the defaults and validates the
// result. Unknown keys are rejected.
func Decode(content string) (Config, error) {
	c := Default()
	md, err := toml.Decode(content, &c)
	if err != nil {
		return Config{}, fmt.Errorf("config is not valid TOML: %w", err)
	}
	return c, check(md, c)
}

// Read loads and validates the config file.
func Read(configfile string) (Config, error) {
	if _, err := os.Stat(configfile); err != nil {
		return Config{}, fmt.Errorf("config file is missing: %w", err)
	}

	c := Default()
	md, err := toml.DecodeFile(configfile, &c)
	if err != nil {
		return Config{}, fmt.Errorf("config file %s is not valid TOML: %w", configfile, err)
	}
	if err := check(md, c); err != nil {
		return Config{}, fmt.Errorf("config file %s: %w", configfile, err)
	}

	return c, nil
}

// Load reads configfile when given, otherwise DefaultLocation when it
// exists, and falls back to Default.
func Load(configfile string) (Config, error) {
	if configfile != "" {
		return Read(configfile)
	}
	if _, err := os.Stat(DefaultLocation); err == nil {
		return Read(DefaultLocation)
	}

	return Default(), nil
}

func check(md toml.MetaData, c Config) error {
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	if err := c.ValidateFields(); err != nil {
		return fmt.Errorf("config is not valid: %w", err)
	}
	return nil
}
