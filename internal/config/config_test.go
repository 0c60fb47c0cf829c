package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 70, cfg.Matching.DefaultThreshold)
	assert.Equal(t, 60, cfg.Matching.CanonicalThreshold)
	assert.Equal(t, 10*time.Minute, cfg.Session.ParseCacheTTL)
}

func TestLoad_FileOverlayAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
matching:
  default_threshold: 80
`), 0644))

	t.Setenv("SHEETBRIDGE_CONFIG", path)
	t.Setenv("SHEETBRIDGE_MATCHING_DEFAULT_THRESHOLD", "65")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port, "file overrides default")
	assert.Equal(t, 65, cfg.Matching.DefaultThreshold, "env overrides file")
	assert.Equal(t, 60, cfg.Matching.CanonicalThreshold, "defaults survive")
}

func TestValidate_RejectsBadThreshold(t *testing.T) {
	cfg := Default()
	cfg.Matching.DefaultThreshold = 101
	assert.Error(t, cfg.Validate())
}

func TestLoad_BadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0644))

	t.Setenv("SHEETBRIDGE_CONFIG", path)
	_, err := Load()
	assert.Error(t, err)
}
