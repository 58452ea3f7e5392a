package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(Options{HomeDir: t.TempDir(), WorkDir: t.TempDir()})
	require.NoError(t, err)

	assert.Equal(t, "https://api.openai.com/v1", cfg.Provider.BaseURL)
	assert.Equal(t, 1024, cfg.Provider.MaxTokens)
	assert.Equal(t, 0.7, cfg.Provider.Temperature)
	assert.Equal(t, 0.7, cfg.Provider.TopP)
	assert.Equal(t, 80, cfg.Preview.Width)
	assert.Equal(t, 16, cfg.Preview.TextSize)
	assert.Contains(t, cfg.Accounts, "Alipay")
	assert.Empty(t, cfg.Sources)
}

func TestLoad_Layering(t *testing.T) {
	home := t.TempDir()
	project := t.TempDir()
	work := filepath.Join(project, "a", "b")
	require.NoError(t, os.MkdirAll(work, 0o755))

	writeFile(t, filepath.Join(home, ".streamfill", "config.yaml"), `
provider:
  model: global-model
  api_key: sk-global-0000
preview:
  width: 100
accounts: [Cash]
`)
	writeFile(t, filepath.Join(project, ".streamfill", "config.yaml"), `
provider:
  model: project-model
preview:
  density: 2.5
`)
	t.Setenv("STREAMFILL_PREVIEW_WIDTH", "120")

	cfg, err := Load(Options{HomeDir: home, WorkDir: work})
	require.NoError(t, err)

	assert.Equal(t, "project-model", cfg.Provider.Model)
	assert.Equal(t, "sk-global-0000", cfg.Provider.APIKey)
	assert.Equal(t, 120, cfg.Preview.Width)
	assert.Equal(t, 2.5, cfg.Preview.Density)
	assert.Equal(t, 16, cfg.Preview.TextSize)
	assert.Equal(t, []string{"Cash"}, cfg.Accounts)
	assert.Equal(t, []string{
		filepath.Join(home, ".streamfill", "config.yaml"),
		filepath.Join(project, ".streamfill", "config.yaml"),
	}, cfg.Sources)
}

func TestLoad_EmptyFileIgnored(t *testing.T) {
	work := t.TempDir()
	writeFile(t, filepath.Join(work, ".streamfill", "config.yaml"), "  \n")

	cfg, err := Load(Options{HomeDir: t.TempDir(), WorkDir: work})
	require.NoError(t, err)
	assert.Empty(t, cfg.Sources)
}

func TestLoad_Invalid(t *testing.T) {
	work := t.TempDir()
	writeFile(t, filepath.Join(work, ".streamfill", "config.yaml"), "provider:\n  top_p: 1.5\n")
	_, err := Load(Options{HomeDir: t.TempDir(), WorkDir: work})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "top_p")

	writeFile(t, filepath.Join(work, ".streamfill", "config.yaml"), "provider: [not, a, map\n")
	_, err = Load(Options{HomeDir: t.TempDir(), WorkDir: work})
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg, err := Load(Options{HomeDir: t.TempDir(), WorkDir: t.TempDir()})
	require.NoError(t, err)

	bad := cfg
	bad.Provider.MaxTokens = 0
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Preview.TextSize = -1
	assert.Error(t, bad.Validate())

	bad = cfg
	bad.Provider.Temperature = 3
	assert.Error(t, bad.Validate())
}

func TestWriteJSON_RedactsKey(t *testing.T) {
	cfg := Config{Provider: Provider{APIKey: "sk-1234567890abcd"}}
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, cfg))
	assert.Contains(t, buf.String(), `"api_key": "****abcd"`)
	assert.NotContains(t, buf.String(), "sk-1234567890abcd")

	assert.Equal(t, "****", Config{Provider: Provider{APIKey: "short"}}.Redacted().Provider.APIKey)
	assert.Equal(t, "", Config{}.Redacted().Provider.APIKey)
}
