package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadProject_Defaults(t *testing.T) {
	cfg, err := LoadProject(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "dotnet", cfg.BuildCommand)
	assert.Equal(t, []string{"build"}, cfg.BuildArgs)
	assert.Equal(t, "Debug", cfg.Configuration)
	assert.Contains(t, cfg.ExcludeDirs, "bin")
	assert.Contains(t, cfg.ExcludeDirs, "obj")
	assert.True(t, cfg.BackupEnabled())

	timeout, err := cfg.Timeout()
	require.NoError(t, err)
	assert.Equal(t, 10*time.Minute, timeout)
}

func TestLoadProject_MergesFile(t *testing.T) {
	dir := t.TempDir()
	yml := `buildCommand: msbuild
buildArgs: ["MyPlugin.sln", "-restore"]
configuration: Release
buildTimeout: 90s
createBackup: false
excludeGlobs:
  - "**/Generated/**"
disabledCategories: [view]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "conflictfix.yml"), []byte(yml), 0644))

	cfg, err := LoadProject(dir)
	require.NoError(t, err)

	assert.Equal(t, "msbuild", cfg.BuildCommand)
	assert.Equal(t, []string{"MyPlugin.sln", "-restore"}, cfg.BuildArgs)
	assert.Equal(t, "Release", cfg.Configuration)
	assert.Equal(t, "normal", cfg.Verbosity, "unset fields keep defaults")
	assert.False(t, cfg.BackupEnabled())
	assert.Equal(t, []string{"**/Generated/**"}, cfg.ExcludeGlobs)
	assert.Equal(t, []string{"view"}, cfg.DisabledCategories)

	timeout, err := cfg.Timeout()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, timeout)
}

func TestLoadProject_YamlExtension(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "conflictfix.yaml"), []byte("configuration: Release\n"), 0644))

	cfg, err := LoadProject(dir)
	require.NoError(t, err)
	assert.Equal(t, "Release", cfg.Configuration)
}

func TestLoadProject_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed yaml", body: "buildArgs: [unclosed"},
		{name: "bad timeout", body: "buildTimeout: soon"},
		{name: "negative retention", body: "backupRetention: -1h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			require.NoError(t, os.WriteFile(filepath.Join(dir, "conflictfix.yml"), []byte(tt.body), 0644))
			_, err := LoadProject(dir)
			assert.Error(t, err)
		})
	}
}
