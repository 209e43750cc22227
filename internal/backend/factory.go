package backend

import (
	"context"
	"fmt"
	"time"

	"github.com/OnisOris/devopsys/internal/config"
)

// Backend names accepted by NewFactory.
const (
	NameDummy    = "dummy"
	NameOllama   = "ollama"
	NameOpenAI   = "openai"
	NameDeepSeek = "deepseek"
	NameGemini   = "gemini"
)

// Names lists the supported backend names in a stable order.
func Names() []string {
	return []string{NameDummy, NameOllama, NameOpenAI, NameDeepSeek, NameGemini}
}

// NewFactory builds a Factory for the named backend, resolving credentials
// and endpoints from cfg. The model argument overrides the config default
// when non-empty.
func NewFactory(cfg *config.Config, name, model string) (Factory, error) {
	switch name {
	case NameDummy:
		return func() (Model, error) { return NewDummy(), nil }, nil

	case NameOllama:
		chosen := pick(model, cfg.Model)
		host := cfg.Ollama.Host
		timeout := parseTimeout(cfg.Ollama.Timeout, 300*time.Second)
		return func() (Model, error) {
			return NewOllama(OllamaConfig{
				Host:        host,
				Model:       chosen,
				Temperature: cfg.Temperature,
				MaxTokens:   cfg.MaxTokens,
				Timeout:     timeout,
			}), nil
		}, nil

	case NameOpenAI:
		if cfg.OpenAI.APIKey == "" {
			return nil, fmt.Errorf("openai backend requires DEVOPSYS_OPENAI_API_KEY")
		}
		chosen := pick(model, cfg.OpenAI.Model)
		return func() (Model, error) {
			return NewOpenAI(OpenAIConfig{
				APIKey:       cfg.OpenAI.APIKey,
				BaseURL:      cfg.OpenAI.BaseURL,
				Model:        chosen,
				Temperature:  cfg.Temperature,
				MaxTokens:    cfg.MaxTokens,
				Timeout:      parseTimeout(cfg.OpenAI.Timeout, 120*time.Second),
				SystemPrompt: cfg.OpenAI.SystemPrompt,
			})
		}, nil

	case NameDeepSeek:
		if cfg.DeepSeek.APIKey == "" {
			return nil, fmt.Errorf("deepseek backend requires DEVOPSYS_DEEPSEEK_API_KEY")
		}
		chosen := pick(model, cfg.DeepSeek.Model)
		systemPrompt := cfg.DeepSeek.SystemPrompt
		if systemPrompt == "" {
			systemPrompt = cfg.OpenAI.SystemPrompt
		}
		return func() (Model, error) {
			return NewOpenAI(OpenAIConfig{
				APIKey:       cfg.DeepSeek.APIKey,
				BaseURL:      cfg.DeepSeek.BaseURL,
				Model:        chosen,
				Temperature:  cfg.Temperature,
				MaxTokens:    cfg.MaxTokens,
				Timeout:      parseTimeout(cfg.DeepSeek.Timeout, 120*time.Second),
				SystemPrompt: systemPrompt,
			})
		}, nil

	case NameGemini:
		if cfg.Gemini.APIKey == "" {
			return nil, fmt.Errorf("gemini backend requires GEMINI_API_KEY")
		}
		chosen := pick(model, cfg.Gemini.Model)
		return func() (Model, error) {
			return NewGemini(context.Background(), GeminiConfig{
				APIKey: cfg.Gemini.APIKey,
				Model:  chosen,
			})
		}, nil
	}

	return nil, fmt.Errorf("unknown backend: %s", name)
}

func pick(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}

func parseTimeout(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
