package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OnisOris/devopsys/internal/config"
)

func TestDummyCompleteIsDeterministic(t *testing.T) {
	d := NewDummy()

	first, err := d.Complete(context.Background(), "write a script")
	require.NoError(t, err)
	second, err := d.Complete(context.Background(), "write a script")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Contains(t, first, "Generated (dummy backend)")
	assert.Contains(t, first, "write a script")
}

func TestOllamaComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req ollamaRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		assert.False(t, req.Stream)

		_ = json.NewEncoder(w).Encode(ollamaResponse{Response: "print('hi')"})
	}))
	defer srv.Close()

	m := NewOllama(OllamaConfig{Host: srv.URL, Model: "test-model"})
	out, err := m.Complete(context.Background(), "say hi in python")
	require.NoError(t, err)
	assert.Equal(t, "print('hi')", out)
}

func TestOllamaServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	m := NewOllama(OllamaConfig{Host: srv.URL, Model: "missing"})
	_, err := m.Complete(context.Background(), "hello")
	assert.ErrorContains(t, err, "404")
}

func TestOpenAIComplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		resp := chatResponse{}
		resp.Choices = []struct {
			Message chatMessage `json:"message"`
		}{{Message: chatMessage{Role: "assistant", Content: "FROM python:3.12-slim"}}}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	m, err := NewOpenAI(OpenAIConfig{
		APIKey:       "sk-test",
		BaseURL:      srv.URL,
		Model:        "gpt-4o-mini",
		SystemPrompt: "You are a DevOps assistant.",
	})
	require.NoError(t, err)

	out, err := m.Complete(context.Background(), "dockerfile please")
	require.NoError(t, err)
	assert.Equal(t, "FROM python:3.12-slim", out)
}

func TestOpenAIRequiresKey(t *testing.T) {
	_, err := NewOpenAI(OpenAIConfig{})
	assert.Error(t, err)
}

func TestNewFactory(t *testing.T) {
	cfg := config.Default()

	t.Run("dummy", func(t *testing.T) {
		factory, err := NewFactory(cfg, NameDummy, "")
		require.NoError(t, err)
		m, err := factory()
		require.NoError(t, err)
		assert.IsType(t, &Dummy{}, m)
	})

	t.Run("ollama uses model override", func(t *testing.T) {
		factory, err := NewFactory(cfg, NameOllama, "override-model")
		require.NoError(t, err)
		m, err := factory()
		require.NoError(t, err)
		assert.Equal(t, "override-model", m.(*Ollama).model)
	})

	t.Run("openai without key fails fast", func(t *testing.T) {
		_, err := NewFactory(cfg, NameOpenAI, "")
		assert.ErrorContains(t, err, "API_KEY")
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := NewFactory(cfg, "quantum", "")
		assert.ErrorContains(t, err, "unknown backend")
	})
}
