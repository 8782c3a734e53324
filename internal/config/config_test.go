package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsrevert/deobfuscator/internal/config"
)

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	assert.Equal(t, "auto", cfg.Target)
	assert.InDelta(t, 0.3, cfg.Threshold, 0.0001)
	assert.True(t, cfg.AbortOnError)
	assert.Equal(t, 64, cfg.Sandbox.MaxCallDepth)
	assert.Equal(t, 5000, cfg.Sandbox.DeadlineMS)
	assert.True(t, cfg.Output.Beautify)
	assert.Equal(t, 2, cfg.Output.IndentSize)
	assert.Contains(t, cfg.SkipPaths, "node_modules/*")
}

func TestLoadConfigMissingFileFallsBackToDefaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.Chdir(dir))
	defer func() { require.NoError(t, os.Chdir(wd)) }()

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "auto", cfg.Target)
}

func TestLoadConfigMissingExplicitPathErrors(t *testing.T) {
	dir := t.TempDir()
	_, err := config.LoadConfig(filepath.Join(dir, "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestLoadConfigReadsYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	content := `
target: abba
threshold: 0.75
silent: true
sandbox:
  max_call_depth: 32
  deadline_ms: 1000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "abba", cfg.Target)
	assert.InDelta(t, 0.75, cfg.Threshold, 0.0001)
	assert.True(t, cfg.Silent)
	assert.Equal(t, 32, cfg.Sandbox.MaxCallDepth)
	assert.Equal(t, 1000, cfg.Sandbox.DeadlineMS)
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("JSDEREST_TARGET", "obfuscator-io")
	t.Setenv("JSDEREST_THRESHOLD", "0.9")
	t.Setenv("JSDEREST_SILENT", "true")

	wd, err := os.Getwd()
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.Chdir(dir))
	defer func() { require.NoError(t, os.Chdir(wd)) }()

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "obfuscator-io", cfg.Target)
	assert.InDelta(t, 0.9, cfg.Threshold, 0.0001)
	assert.True(t, cfg.Silent)
}

func TestSaveConfigRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "jsderestructure.yaml")
	require.NoError(t, config.SaveConfig(path))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "auto", cfg.Target)
}

func TestPrintInfoRespectsTesting(t *testing.T) {
	original := config.Testing
	defer func() { config.Testing = original }()
	config.Testing = true

	r, w, err := os.Pipe()
	require.NoError(t, err)
	stdout := os.Stdout
	os.Stdout = w
	config.PrintInfo("should not panic: %d\n", 1)
	os.Stdout = stdout
	require.NoError(t, w.Close())

	buf := make([]byte, 64)
	n, _ := r.Read(buf)
	assert.Equal(t, "", string(buf[:n]))
}
