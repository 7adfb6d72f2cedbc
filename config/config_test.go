package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "treelift.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 0, cfg.Query.Root)
	assert.Equal(t, 1, cfg.Query.Workers)
	assert.False(t, cfg.Metrics.Enabled)
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	path := writeConfig(t, `
version = "1.2.0"

[log]
level = "debug"

[query]
root = 2
workers = 4
strict_edges = true
`)
	t.Setenv("TREELIFT_QUERY_WORKERS", "6")

	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("root", 0, "")
	fs.Int("workers", 1, "")
	fs.String("metrics-file", "", "")
	require.NoError(t, fs.Parse([]string{"--root", "3", "--metrics-file", "/tmp/m.prom"}))

	cfg, err := Load(path, fs)
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", cfg.Version)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 3, cfg.Query.Root)    // 命令行覆盖文件
	assert.Equal(t, 6, cfg.Query.Workers) // 环境变量覆盖文件
	assert.True(t, cfg.Query.StrictEdges)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, "/tmp/m.prom", cfg.Metrics.Textfile)
}

func TestLoad_Validation(t *testing.T) {
	_, err := Load(writeConfig(t, "[query]\nworkers = 0\n"), nil)
	assert.ErrorContains(t, err, "config validation failed")

	_, err = Load(writeConfig(t, "[log]\nlevel = \"loud\"\n"), nil)
	assert.ErrorContains(t, err, "config validation failed")

	_, err = Load(writeConfig(t, "[metrics]\nenabled = true\n"), nil)
	assert.ErrorContains(t, err, "config validation failed")

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"), nil)
	assert.ErrorContains(t, err, "read config error")
}

func TestLoggingConfig(t *testing.T) {
	cfg := &Config{Log: LogConfig{Level: "warn", File: "x.log", MaxSize: 5, Quiet: true}}
	lc := cfg.LoggingConfig("treelift", "batch")
	assert.Equal(t, "treelift", lc.Service)
	assert.Equal(t, "warn", lc.Level)
	assert.Equal(t, "x.log", lc.File)
	assert.True(t, lc.Quiet)
}

func TestMask(t *testing.T) {
	m := map[string]any{"token": "abc", "nested": map[string]any{"api_key": "k", "root": 1.0}}
	mask(m)
	assert.Equal(t, "******", m["token"])
	assert.Equal(t, "******", m["nested"].(map[string]any)["api_key"])
	assert.Equal(t, 1.0, m["nested"].(map[string]any)["root"])

	assert.NotPanics(t, func() { PrintWithMask(slog.Default(), &Config{}) })
}
