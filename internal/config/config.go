// Package config loads rollix settings.
//
// Values are layered: built-in defaults, then an optional YAML file, then
// ROLLIX_* environment variables. The merged result is checked against an
// embedded CUE schema before use.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/roach88/rollix/internal/rollup"
)

//go:embed schema.cue
var schemaCUE string

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ROLLIX_"

// Config is the full process configuration.
type Config struct {
	Database    string `yaml:"database" json:"database" env:"DATABASE"`
	Listen      string `yaml:"listen" json:"listen" env:"LISTEN"`
	Feed        string `yaml:"feed" json:"feed" env:"FEED"`
	GenesisRoot string `yaml:"genesis_root" json:"genesis_root" env:"GENESIS_ROOT"`

	Log   LogConfig   `yaml:"log" json:"log" envPrefix:"LOG_"`
	Query QueryConfig `yaml:"query" json:"query" envPrefix:"QUERY_"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" json:"level" env:"LEVEL"`
	Format string `yaml:"format" json:"format" env:"FORMAT"`
}

// QueryConfig bounds query surface pagination.
type QueryConfig struct {
	DefaultLimit int `yaml:"default_limit" json:"default_limit" env:"DEFAULT_LIMIT"`
	MaxLimit     int `yaml:"max_limit" json:"max_limit" env:"MAX_LIMIT"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database: "rollix.db",
		Listen:   "127.0.0.1:3000",
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Query: QueryConfig{
			DefaultLimit: 30,
			MaxLimit:     100,
		},
	}
}

// Load builds the configuration from defaults, the YAML file at path (skipped
// when path is empty) and the process environment.
func Load(path string) (Config, error) {
	return LoadWithEnv(path, nil)
}

// LoadWithEnv is Load with an explicit environment. A nil environ means the
// process environment.
func LoadWithEnv(path string, environ map[string]string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decodeYAML(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	opts := env.Options{Prefix: EnvPrefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// decodeYAML overlays data onto cfg, rejecting unknown keys.
func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks cfg against the embedded CUE schema.
func (c Config) Validate() error {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath("#Config"))

	value := def.Unify(ctx.Encode(c))
	if err := value.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Root returns the configured genesis root, or the zero root when unset.
func (c Config) Root() (rollup.Root, error) {
	if c.GenesisRoot == "" {
		return rollup.Root{}, nil
	}
	return rollup.ParseRoot(c.GenesisRoot)
}

// SlogLevel maps Log.Level to a slog level.
func (c Config) SlogLevel() slog.Level {
	switch c.Log.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
