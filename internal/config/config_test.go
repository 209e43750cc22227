package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "dummy", cfg.Backend)
	assert.Equal(t, "http://127.0.0.1:11434", cfg.Ollama.Host)
	assert.Equal(t, 10*time.Second, cfg.ScriptTimeout())
	assert.Equal(t, 45*time.Second, cfg.RuntimeTimeout())
	assert.Equal(t, 2000, cfg.Verify.CaptureLimit)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "dummy", cfg.Backend)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devopsys.yaml")
	data := []byte("backend: ollama\nmodel: qwen2.5-coder\nverify:\n  script_timeout: 5s\n")
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "ollama", cfg.Backend)
	assert.Equal(t, "qwen2.5-coder", cfg.Model)
	assert.Equal(t, 5*time.Second, cfg.ScriptTimeout())
	// Untouched sections keep defaults.
	assert.Equal(t, "https://api.openai.com/v1", cfg.OpenAI.BaseURL)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "devopsys.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("backend and model", func(t *testing.T) {
		t.Setenv("DEVOPSYS_BACKEND", "openai")
		t.Setenv("DEVOPSYS_MODEL", "gpt-4o")

		cfg := Default()
		cfg.applyEnvOverrides()

		assert.Equal(t, "openai", cfg.Backend)
		assert.Equal(t, "gpt-4o", cfg.Model)
	})

	t.Run("DEVOPSYS_OPENAI_API_KEY beats OPENAI_API_KEY", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "ambient")
		t.Setenv("DEVOPSYS_OPENAI_API_KEY", "explicit")

		cfg := Default()
		cfg.applyEnvOverrides()

		assert.Equal(t, "explicit", cfg.OpenAI.APIKey)
	})

	t.Run("ambient key does not override configured key", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "ambient")
		t.Setenv("DEVOPSYS_OPENAI_API_KEY", "")

		cfg := Default()
		cfg.OpenAI.APIKey = "from-file"
		cfg.applyEnvOverrides()

		assert.Equal(t, "from-file", cfg.OpenAI.APIKey)
	})
}

func TestParseDurationFallback(t *testing.T) {
	cfg := Default()
	cfg.Verify.ScriptTimeout = "not a duration"
	assert.Equal(t, 10*time.Second, cfg.ScriptTimeout())

	cfg.Verify.RuntimeTimeout = "-3s"
	assert.Equal(t, 45*time.Second, cfg.RuntimeTimeout())
}
