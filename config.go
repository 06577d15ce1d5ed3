package clipclean

import (
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// Config is the application configuration, read from a YAML file.
type Config struct {
	Presets PresetsConfig `yaml:"presets"`
	// Defaults apply to ad-hoc Process calls that carry no options of their own.
	// Preset steps never use them.
	Defaults ProcessingOptions `yaml:"defaults"`
	Server   ServerConfig      `yaml:"server"`
	Log      LogConfig         `yaml:"log"`
	UI       UIConfig          `yaml:"ui"`
}

type PresetsConfig struct {
	// Builtin overrides the bundled built-in document when set.
	Builtin string `yaml:"builtin"`
	User    string `yaml:"user"`
}

type ServerConfig struct {
	Socket string `yaml:"socket"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type UIConfig struct {
	Language string `yaml:"language"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Presets: PresetsConfig{
			User: filepath.Join(configDir(), "presets.json"),
		},
		Defaults: DefaultOptions(),
		Server: ServerConfig{
			Socket: filepath.Join(os.TempDir(), "clipclean.sock"),
		},
		Log: LogConfig{Level: "info"},
		UI:  UIConfig{Language: "en"},
	}
}

// DefaultConfigPath is where LoadConfig looks when no path is given.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

func configDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".clipclean"
	}
	return filepath.Join(dir, "clipclean")
}

// LoadConfig reads the YAML file at path over the defaults. A missing file is
// not an error.
func LoadConfig(ctx context.Context, path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		zerolog.Ctx(ctx).Debug().Str("path", path).Msg("no config file, using defaults")
		return cfg, nil
	}
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields that have no usable fallback.
func (c *Config) Validate() error {
	if c.Presets.User == "" {
		return errors.New("presets.user must be set")
	}
	if c.Server.Socket == "" {
		return errors.New("server.socket must be set")
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return errors.Errorf("log.level: %w", err)
	}
	return nil
}

// LogLevel returns the configured level, defaulting to info.
func (c *Config) LogLevel() zerolog.Level {
	level, err := zerolog.ParseLevel(c.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return level
}
