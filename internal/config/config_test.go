package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/geopipe", cfg.Cache.Dir)
	assert.Equal(t, "geopipe.db", cfg.Cache.DatabaseURL)
	assert.Equal(t, "https://www2.census.gov/geo/tiger", cfg.Boundary.BaseURL)
	assert.Equal(t, "ftp2.census.gov:21", cfg.Boundary.FTPHost)
	assert.Equal(t, 2023, cfg.Boundary.Year)
	assert.InDelta(t, 2.0, cfg.Boundary.RatePerSec, 0.001)
	assert.Equal(t, 3, cfg.Boundary.Concurrency)
	assert.Equal(t, 960, cfg.Render.Width)
	assert.Equal(t, 720, cfg.Render.Height)
	assert.InDelta(t, 0.5, cfg.Report.BufferMiles, 0.001)
	assert.Equal(t, 2248, cfg.Report.BufferEPSG)
	assert.Equal(t, "geoid", cfg.Report.Key)
	assert.Equal(t, "out", cfg.Report.OutDir)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
boundary:
  year: 2022
report:
  buffer_epsg: 2249
  key: fips
log:
  level: debug
  format: console
server:
  port: 9090
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 2022, cfg.Boundary.Year)
	assert.Equal(t, 2249, cfg.Report.BufferEPSG)
	assert.Equal(t, "fips", cfg.Report.Key)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 9090, cfg.Server.Port)
	// Defaults still apply for unset values
	assert.Equal(t, 960, cfg.Render.Width)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	yaml := `
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("GEOPIPE_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })

	t.Setenv("GEOPIPE_SERVER_PORT", "3000")
	t.Setenv("GEOPIPE_REPORT_KEY", "fips")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "fips", cfg.Report.Key)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
