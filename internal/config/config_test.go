package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.NotEmpty(t, cfg.Models.Chat)
}

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
addr: ":9090"
models:
  chat: ep-chat
  table_query: ep-table
theme:
  footer_text: "ACME Corp"
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "ep-chat", cfg.Models.Chat)
	assert.Equal(t, "ep-table", cfg.Models.TableQuery)
	// yaml未覆盖的项保留默认值
	assert.NotEmpty(t, cfg.Models.DocSearch)
	assert.Equal(t, "ACME Corp", cfg.Theme.FooterText)
}

func TestEnvOverridesYAML(t *testing.T) {
	t.Setenv("DECK_ADDR", ":7070")
	t.Setenv("ARK_CHAT_MODEL", "ep-env")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":7070", cfg.Addr)
	assert.Equal(t, "ep-env", cfg.Models.Chat)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: [unclosed"), 0o644))
	_, err := Load(path)
	require.Error(t, err)
}
