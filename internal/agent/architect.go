package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/OnisOris/devopsys/internal/backend"
	"github.com/OnisOris/devopsys/internal/project"
)

const architectPrompt = `You are a project architect responsible for drafting a build plan.
Analyse the user request and propose a complete project layout.

Return ONLY JSON with the structure:
{
  "project_name": "...",
  "language": "python|...",
  "summary": "One paragraph describing the goal",
  "tasks": ["key capabilities"],
  "files": [
    {
      "path": "relative/path.ext",
      "goal": "purpose of the file",
      "agent": "python|bash|docker|universal" (optional),
      "requirements": [
        "actionable bullet requirement",
        "..."
      ]
    }
  ]
}

Guidelines:
- Prefer src/ layout for Python projects and rely on uv for environment management.
- Include README.md with setup (uv venv, uv pip install -e .) and usage instructions.
- Include pyproject.toml with [project], [project.scripts], and uv-specific metadata where relevant.
- Ensure every required directory appears via files (use __init__.py to create packages).
- Only specify files that must exist; omit empty arrays.
- Choose the appropriate agent when you know the best specialist; otherwise omit it and the orchestrator will auto-select.
- Requirements must be explicit enough for a single agent to complete without further clarification.

User request:
%s

Additional context (may be empty):
%s`

// Architect drafts multi-file project blueprints. The raw model response is
// normalized into canonical plan JSON before it leaves the capability, so
// downstream consumers always see a parseable plan.
type Architect struct{}

func (Architect) Name() string        { return "project_architect" }
func (Architect) Description() string { return "Design multi-file project layouts" }

func (Architect) Run(ctx context.Context, model backend.Model, req Request) (Result, error) {
	prompt := fmt.Sprintf(architectPrompt, strings.TrimSpace(req.Task), strings.TrimSpace(req.PlanContext))
	raw, err := model.Complete(ctx, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("project_architect capability: %w", err)
	}
	return Result{Text: string(project.NormalizePlan(raw))}, nil
}
