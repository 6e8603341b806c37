package main

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// Config file names looked up in the working directory when --config is not set.
var defaultConfigFiles = []string{"contract-transcode.yaml", "contract-transcode.toml"}

// config is the CLI configuration. Values come from the config file, then
// CONTRACT_TRANSCODE_* environment variables, then command-line flags.
type config struct {
	Metadata      string    `yaml:"metadata" toml:"metadata"`
	Pretty        bool      `yaml:"pretty" toml:"pretty"`
	Color         string    `yaml:"color" toml:"color"` // "auto", "on" or "off"
	MaxDepth      int       `yaml:"max_depth" toml:"max_depth"`
	LenientFields bool      `yaml:"lenient_fields" toml:"lenient_fields"`
	Log           logConfig `yaml:"log" toml:"log"`
}

// logConfig configures logging.
type logConfig struct {
	Level  string `yaml:"level" toml:"level"`   // "debug", "info", "warn", "error"
	Format string `yaml:"format" toml:"format"` // "console" or "json"
}

// loadConfig reads path, or the first default config file present when path
// is empty. A missing default file is not an error.
func loadConfig(path string) (config, error) {
	var cfg config
	if path == "" {
		for _, name := range defaultConfigFiles {
			if _, err := os.Stat(name); err == nil {
				path = name
				break
			}
		}
	}
	if path != "" {
		if err := decodeConfigFile(path, &cfg); err != nil {
			return config{}, err
		}
	}

	cfg.applyEnv()
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return config{}, errors.Wrapf(err, "%s: invalid config", path)
	}
	return cfg, nil
}

func decodeConfigFile(path string, cfg *config) error {
	if filepath.Ext(path) == ".toml" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return errors.Wrapf(err, "%s: failed to parse TOML", path)
		}
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "read config")
	}
	data = []byte(os.ExpandEnv(string(data)))
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return errors.Wrapf(err, "%s: failed to parse YAML", path)
	}
	return nil
}

// applyEnv applies CONTRACT_TRANSCODE_* environment variables.
func (c *config) applyEnv() {
	if v := os.Getenv("CONTRACT_TRANSCODE_METADATA"); v != "" {
		c.Metadata = v
	}
	if v := os.Getenv("CONTRACT_TRANSCODE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CONTRACT_TRANSCODE_COLOR"); v != "" {
		c.Color = v
	}
	if v := os.Getenv("CONTRACT_TRANSCODE_PRETTY"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Pretty = b
		}
	}
}

func (c *config) setDefaults() {
	if c.Color == "" {
		c.Color = "auto"
	}
	if c.Log.Level == "" {
		c.Log.Level = "warn"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

func (c *config) validate() error {
	switch c.Color {
	case "auto", "on", "off":
	default:
		return errors.Newf("color must be auto, on or off, got %q", c.Color)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return errors.Newf("log format must be console or json, got %q", c.Log.Format)
	}
	if c.MaxDepth < 0 {
		return errors.Newf("max_depth must not be negative, got %d", c.MaxDepth)
	}
	return nil
}
