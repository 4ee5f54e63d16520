package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, &ProjectConfig{}, cfg)
}

func TestLoad_ReadsProjectConfig(t *testing.T) {
	dir := t.TempDir()
	content := `manifest: sub/project.yaml
skipSync: true
syncCommand: ["uv", "sync"]
roster:
  - id: config-specialist
    instructions: propose dependency edits
    allowedPaths:
      - dependencies
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "quorum.yml"), []byte(content), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "sub/project.yaml", cfg.Manifest)
	assert.True(t, cfg.SkipSync)
	assert.Equal(t, []string{"uv", "sync"}, cfg.SyncCommand)
	require.Len(t, cfg.Roster, 1)
	assert.Equal(t, "config-specialist", cfg.Roster[0].ID)
	assert.Equal(t, []string{"dependencies"}, cfg.Roster[0].AllowedPaths)
}

func TestLoad_PrefersYmlOverYaml(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "quorum.yml"), []byte("verbose: true\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "quorum.yaml"), []byte("verbose: false\n"), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.True(t, cfg.Verbose)
}

func TestLoad_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "quorum.yml"), []byte("manifest: [unclosed"), 0o644))

	_, err := Load(dir)
	assert.Error(t, err)
}

func TestLoadUserFrom(t *testing.T) {
	dir := t.TempDir()
	content := `provider: http
endpoint: http://localhost:8080/v1/complete
timeoutSeconds: 45
judgeRetries: 3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yml"), []byte(content), 0o644))

	cfg, err := loadUserFrom(dir)
	require.NoError(t, err)
	assert.Equal(t, "http", cfg.Provider)
	assert.Equal(t, "http://localhost:8080/v1/complete", cfg.Endpoint)
	assert.Equal(t, 45, cfg.TimeoutSeconds)
	assert.Equal(t, 3, cfg.JudgeRetries)
}

func TestLoadUserFrom_MissingDirectory(t *testing.T) {
	cfg, err := loadUserFrom(filepath.Join(t.TempDir(), "does-not-exist"))
	require.NoError(t, err)
	assert.Equal(t, &UserConfig{}, cfg)
}
