package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/OnisOris/devopsys/internal/backend"
)

const universalPrompt = `You are a senior software engineer and technical writer. Generate the exact file contents requested.

File path: %s
Project context:
%s

Task:
%s

Rules:
- Return only the raw file contents with no Markdown fences or explanations.
- Match the requested format (e.g., Markdown, TOML, YAML) precisely.
- Keep placeholders minimal; prefer working, ready-to-use content.`

// Universal generates arbitrary text files (Markdown, TOML, YAML and the
// like). The materializer passes file path and project summary through the
// plan context as JSON.
type Universal struct{}

func (Universal) Name() string { return "universal" }
func (Universal) Description() string {
	return "Generate arbitrary text files (Markdown/TOML/YAML/etc.)"
}

func (Universal) Run(ctx context.Context, model backend.Model, req Request) (Result, error) {
	summary := ""
	path := ""
	if req.PlanContext != "" {
		var meta struct {
			Path           string `json:"path"`
			ProjectSummary string `json:"project_summary"`
		}
		if err := json.Unmarshal([]byte(req.PlanContext), &meta); err == nil {
			summary = meta.ProjectSummary
			path = meta.Path
		} else {
			summary = req.PlanContext
		}
	}

	prompt := fmt.Sprintf(universalPrompt, path, strings.TrimSpace(summary), strings.TrimSpace(req.Task))
	raw, err := model.Complete(ctx, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("universal capability: %w", err)
	}
	return Result{Text: stripOuterFences(raw), Filename: path}, nil
}

// stripOuterFences removes a single wrapping code fence when the model adds
// one despite the raw-content instruction.
func stripOuterFences(text string) string {
	cleaned := strings.TrimSpace(text)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}
	lines := strings.Split(cleaned, "\n")
	for i := len(lines) - 1; i > 0; i-- {
		if strings.HasPrefix(lines[i], "```") {
			return strings.TrimSpace(strings.Join(lines[1:i], "\n"))
		}
	}
	return strings.TrimSpace(strings.Join(lines[1:], "\n"))
}
