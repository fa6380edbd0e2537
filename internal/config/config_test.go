package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

// unsetEnv clears the overrides for the duration of the test.
func unsetEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvCacheDir, EnvAnnotationRoots, EnvVSVersion} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestFindWalksUp(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, FileName), "")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0o755))

	path, ok, err := Find(nested)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, filepath.Join(root, FileName), path)

	_, ok, err = Find(t.TempDir())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	unsetEnv(t)
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFileSections(t *testing.T) {
	unsetEnv(t)
	root := t.TempDir()
	write(t, filepath.Join(root, FileName), `
[cache]
dir = "cache"

[annotations]
roots = ["/opt/a", "/opt/b"]
vs_version = 15

[output]
format = "sarif"
max_diagnostics = 10
`)
	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "cache"), cfg.Cache.Dir)
	assert.Equal(t, []string{"/opt/a", "/opt/b"}, cfg.Annotations.Roots)
	assert.Equal(t, 15, cfg.Annotations.VSVersion)
	assert.Equal(t, DefaultSideBySideCacheSize, cfg.Annotations.SideBySideCacheSize)
	assert.Equal(t, FormatSARIF, cfg.Output.Format)
	assert.Equal(t, 10, cfg.Output.MaxDiagnostics)
	assert.Equal(t, filepath.Join(root, FileName), cfg.Path)
}

func TestLoadFileRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	write(t, path, "[cache]\ndirectory = \"x\"\n")
	_, err := LoadFile(path)
	require.ErrorIs(t, err, ErrUnknownKey)
	assert.Contains(t, err.Error(), "cache.directory")
}

func TestLoadFileParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	write(t, path, "[cache\n")
	_, err := LoadFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse TOML")
}

func TestEnvOverridesFile(t *testing.T) {
	unsetEnv(t)
	root := t.TempDir()
	write(t, filepath.Join(root, FileName), "[annotations]\nvs_version = 15\n")
	t.Setenv(EnvVSVersion, "16")
	t.Setenv(EnvCacheDir, "/tmp/nc")
	t.Setenv(EnvAnnotationRoots, "/r1"+string(os.PathListSeparator)+" /r2 ")

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, 16, cfg.Annotations.VSVersion)
	assert.Equal(t, "/tmp/nc", cfg.Cache.Dir)
	assert.Equal(t, []string{"/r1", "/r2"}, cfg.Annotations.Roots)
}

func TestDotEnvNextToConfig(t *testing.T) {
	unsetEnv(t)
	root := t.TempDir()
	write(t, filepath.Join(root, FileName), "")
	write(t, filepath.Join(root, ".env"), EnvVSVersion+"=17\n")

	cfg, err := Load(root)
	require.NoError(t, err)
	assert.Equal(t, 17, cfg.Annotations.VSVersion)
}

func TestValidate(t *testing.T) {
	unsetEnv(t)
	t.Setenv(EnvVSVersion, "abc")
	_, err := Load(t.TempDir())
	require.Error(t, err)

	cfg := Default()
	cfg.Output.Format = "xml"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Output.MaxDiagnostics = -1
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Annotations.SideBySideCacheSize = 0
	assert.Error(t, cfg.Validate())
}
