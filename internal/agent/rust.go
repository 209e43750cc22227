package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/OnisOris/devopsys/internal/backend"
)

const rustPrompt = `You are a senior Rust engineer in a multi-agent pipeline. Generate a minimal Rust CLI app for the task.
Primary user task:
%s

Planner context (may be empty):
%s

Workspace snapshot (read-only, may be empty):
%s

Constraints:
- Use stable Rust edition 2021.
- Provide Cargo.toml and src/main.rs.
- Keep dependencies minimal.
- Add basic argument parsing (clap or std::env).
- Write comments for key parts.

Output format:
- First a Cargo.toml block.
- Then a src/main.rs block.
No extra explanatory text.`

// Rust produces Cargo project skeletons as a single text artifact.
type Rust struct{}

func (Rust) Name() string        { return "rust" }
func (Rust) Description() string { return "Generate Rust CLI skeletons" }

func (Rust) Run(ctx context.Context, model backend.Model, req Request) (Result, error) {
	prompt := fmt.Sprintf(rustPrompt,
		strings.TrimSpace(req.Task),
		strings.TrimSpace(req.PlanContext),
		strings.TrimSpace(req.Workspace),
	)
	raw, err := model.Complete(ctx, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("rust capability: %w", err)
	}
	return Result{Text: strings.TrimSpace(raw), Filename: "rust_project.txt"}, nil
}
