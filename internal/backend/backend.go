// Package backend provides the generation backends the orchestrator calls
// into. A backend is anything that can turn a prompt into text: a local
// Ollama server, an OpenAI-compatible endpoint, Google GenAI, or the
// deterministic dummy used in tests and offline runs.
package backend

import "context"

// Model is the minimal interface every generation backend implements.
// Transport failures surface as errors; the orchestrator treats them as
// fatal and does not retry.
type Model interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Factory builds a fresh Model instance. The orchestrator calls a factory
// per plan step so each capability can carry its own model override.
type Factory func() (Model, error)
