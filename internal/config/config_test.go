package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/rollix/internal/rollup"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rollix.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_NoFileUsesDefaults(t *testing.T) {
	cfg, err := LoadWithEnv("", map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAMLOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
database: /var/lib/rollix/index.db
feed: deliveries.jsonl
log:
  level: debug
query:
  max_limit: 500
`)

	cfg, err := LoadWithEnv(path, map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/rollix/index.db", cfg.Database)
	assert.Equal(t, "deliveries.jsonl", cfg.Feed)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format, "unset nested key keeps default")
	assert.Equal(t, 30, cfg.Query.DefaultLimit)
	assert.Equal(t, 500, cfg.Query.MaxLimit)
}

func TestLoad_EmptyFile(t *testing.T) {
	cfg, err := LoadWithEnv(writeConfig(t, ""), map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, "listen: 0.0.0.0:8080\n")

	cfg, err := LoadWithEnv(path, map[string]string{
		"ROLLIX_LISTEN":              ":9090",
		"ROLLIX_LOG_FORMAT":          "json",
		"ROLLIX_QUERY_DEFAULT_LIMIT": "10",
		"ROLLIX_GENESIS_ROOT":        "0xabc",
		"LISTEN":                     "ignored-without-prefix:1",
	})
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 10, cfg.Query.DefaultLimit)

	root, err := cfg.Root()
	require.NoError(t, err)
	assert.Equal(t, rollup.Root{0xabc}, root)
}

func TestLoad_ProcessEnvironment(t *testing.T) {
	t.Setenv("ROLLIX_DATABASE", "from-env.db")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "from-env.db", cfg.Database)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		environ map[string]string
	}{
		{"unknown key", "databse: typo.db\n", nil},
		{"bad yaml", "log: [\n", nil},
		{"bad env int", "", map[string]string{"ROLLIX_QUERY_MAX_LIMIT": "lots"}},
		{"bad level", "log:\n  level: chatty\n", nil},
		{"bad format", "log:\n  format: xml\n", nil},
		{"empty database", "database: \"\"\n", nil},
		{"listen without port", "listen: localhost\n", nil},
		{"default above max", "query:\n  default_limit: 200\n  max_limit: 100\n", nil},
		{"max limit too large", "query:\n  max_limit: 5000\n", nil},
		{"zero default limit", "query:\n  default_limit: 0\n", nil},
		{"bad genesis root", "genesis_root: 0xnothex\n", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			environ := tt.environ
			if environ == nil {
				environ = map[string]string{}
			}
			_, err := LoadWithEnv(writeConfig(t, tt.yaml), environ)
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := LoadWithEnv(filepath.Join(t.TempDir(), "absent.yaml"), map[string]string{})
	assert.Error(t, err)
}

func TestRoot_Unset(t *testing.T) {
	root, err := Default().Root()
	require.NoError(t, err)
	assert.True(t, root.IsZero())
}

func TestSlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	for level, want := range tests {
		cfg := Default()
		cfg.Log.Level = level
		assert.Equal(t, want, cfg.SlogLevel(), level)
	}
}
