// Package config loads devopsys configuration from an optional YAML file
// plus environment overrides. A missing config file is not an error; every
// field has a working default so `devopsys ask` runs out of the box with the
// dummy backend.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all devopsys configuration.
type Config struct {
	// Backend selects the default generation backend: dummy, ollama,
	// openai, deepseek or gemini.
	Backend string `yaml:"backend"`
	// Model is the default model name for the selected backend.
	Model string `yaml:"model"`

	Ollama   OllamaConfig   `yaml:"ollama"`
	OpenAI   OpenAIConfig   `yaml:"openai"`
	DeepSeek DeepSeekConfig `yaml:"deepseek"`
	Gemini   GeminiConfig   `yaml:"gemini"`

	Verify  VerifyConfig  `yaml:"verify"`
	Project ProjectConfig `yaml:"project"`
	Logging LoggingConfig `yaml:"logging"`

	// Temperature and MaxTokens apply to every backend that supports them.
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// OllamaConfig configures the local Ollama backend.
type OllamaConfig struct {
	Host    string `yaml:"host"`
	Timeout string `yaml:"timeout"`
}

// OpenAIConfig configures the OpenAI-compatible backend.
type OpenAIConfig struct {
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	Model        string `yaml:"model"`
	Timeout      string `yaml:"timeout"`
	SystemPrompt string `yaml:"system_prompt"`
}

// DeepSeekConfig configures the DeepSeek backend (OpenAI wire format).
type DeepSeekConfig struct {
	APIKey       string `yaml:"api_key"`
	BaseURL      string `yaml:"base_url"`
	Model        string `yaml:"model"`
	Timeout      string `yaml:"timeout"`
	SystemPrompt string `yaml:"system_prompt"`
}

// GeminiConfig configures the Google GenAI backend.
type GeminiConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	Timeout string `yaml:"timeout"`
}

// VerifyConfig bounds the verification sandbox.
type VerifyConfig struct {
	// ScriptTimeout bounds single-artifact execution.
	ScriptTimeout string `yaml:"script_timeout"`
	// RuntimeTimeout bounds the project entrypoint smoke test.
	RuntimeTimeout string `yaml:"runtime_timeout"`
	// CaptureLimit caps captured stdout/stderr in bytes.
	CaptureLimit int `yaml:"capture_limit"`
}

// ProjectConfig configures project materialization.
type ProjectConfig struct {
	// BaseDir is where project roots are allocated. Empty means the
	// current working directory.
	BaseDir string `yaml:"base_dir"`
	// HistoryDB is the SQLite run-history database path.
	HistoryDB string `yaml:"history_db"`
}

// LoggingConfig configures the zap logger built by the CLI.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug|info|warn|error
}

// Default returns a configuration with working defaults.
func Default() *Config {
	return &Config{
		Backend: "dummy",
		Model:   "codellama:7b-instruct",
		Ollama: OllamaConfig{
			Host:    "http://127.0.0.1:11434",
			Timeout: "300s",
		},
		OpenAI: OpenAIConfig{
			BaseURL: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
			Timeout: "120s",
		},
		DeepSeek: DeepSeekConfig{
			BaseURL: "https://api.deepseek.com/v1",
			Model:   "deepseek-coder",
			Timeout: "120s",
		},
		Gemini: GeminiConfig{
			Model:   "gemini-2.0-flash",
			Timeout: "300s",
		},
		Verify: VerifyConfig{
			ScriptTimeout:  "10s",
			RuntimeTimeout: "45s",
			CaptureLimit:   2000,
		},
		Project: ProjectConfig{
			HistoryDB: ".devopsys/runs.db",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Temperature: 0.2,
		MaxTokens:   1024,
	}
}

// Load reads the config file at path (if it exists), merges it over the
// defaults and applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parse config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides maps environment variables onto the config. Provider API
// keys never override an explicitly configured key.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("DEVOPSYS_BACKEND"); v != "" {
		c.Backend = v
	}
	if v := os.Getenv("DEVOPSYS_MODEL"); v != "" {
		c.Model = v
	}
	if v := os.Getenv("DEVOPSYS_OLLAMA_HOST"); v != "" {
		c.Ollama.Host = v
	}
	if v := os.Getenv("DEVOPSYS_PROJECT_DIR"); v != "" {
		c.Project.BaseDir = v
	}
	if v := os.Getenv("DEVOPSYS_HISTORY_DB"); v != "" {
		c.Project.HistoryDB = v
	}
	if v := os.Getenv("DEVOPSYS_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}

	if key := os.Getenv("DEVOPSYS_OPENAI_API_KEY"); key != "" {
		c.OpenAI.APIKey = key
	} else if key := os.Getenv("OPENAI_API_KEY"); key != "" && c.OpenAI.APIKey == "" {
		c.OpenAI.APIKey = key
	}
	if key := os.Getenv("DEVOPSYS_DEEPSEEK_API_KEY"); key != "" {
		c.DeepSeek.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" && c.Gemini.APIKey == "" {
		c.Gemini.APIKey = key
	}
}

// ScriptTimeout returns the parsed sandbox script timeout.
func (c *Config) ScriptTimeout() time.Duration {
	return parseDuration(c.Verify.ScriptTimeout, 10*time.Second)
}

// RuntimeTimeout returns the parsed project runtime timeout.
func (c *Config) RuntimeTimeout() time.Duration {
	return parseDuration(c.Verify.RuntimeTimeout, 45*time.Second)
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
