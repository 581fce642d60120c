package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_EmptyPathReturnsDefault(t *testing.T) {
	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "0-cfa", cfg.ContextPolicy)
	assert.True(t, cfg.BuildClassHierarchy)
}

func TestLoadConfig_OverridesOnlySetFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kcfa.yaml")
	yamlContent := "context_policy: 2-cfa\nverbose: true\nentry_points:\n  - main\n  - app.run\n"
	require.NoError(t, os.WriteFile(path, []byte(yamlContent), 0o644))

	cfg, err := loadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "2-cfa", cfg.ContextPolicy)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, []string{"main", "app.run"}, cfg.EntryPoints)
	// untouched fields keep their DefaultConfig value
	assert.True(t, cfg.BuildClassHierarchy)
	assert.Equal(t, 1_000_000, cfg.MaxIterations)
}

func TestLoadConfig_MissingFileErrors(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	assert.Error(t, err)
}

func TestLoadConfig_InvalidYAMLErrors(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not: [valid yaml"), 0o644))

	_, err := loadConfig(path)
	assert.Error(t, err)
}
