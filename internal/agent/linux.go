package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/OnisOris/devopsys/internal/backend"
)

const linuxPrompt = `You are a Linux DevOps engineer collaborating with other agents. Prepare commands/checklist for system setup.
Primary user task:
%s

Planner context (may be empty):
%s

Workspace snapshot (read-only, may be empty):
%s

Constraints:
- Detect user distro: Ubuntu or Arch (user may specify).
- Provide step-by-step commands with brief explanation per step.
- Prefer idempotent operations. Use sudo as needed.
- For Ubuntu: apt & systemd. For Arch: pacman & systemd. Mention differences when relevant.
- If Docker: include official repository setup and post-install steps.

Return plain text with shell blocks where relevant.`

// Linux produces setup checklists for Ubuntu and Arch hosts.
type Linux struct{}

func (Linux) Name() string        { return "linux" }
func (Linux) Description() string { return "Linux setup for Ubuntu/Arch" }

func (Linux) Run(ctx context.Context, model backend.Model, req Request) (Result, error) {
	prompt := fmt.Sprintf(linuxPrompt,
		strings.TrimSpace(req.Task),
		strings.TrimSpace(req.PlanContext),
		strings.TrimSpace(req.Workspace),
	)
	raw, err := model.Complete(ctx, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("linux capability: %w", err)
	}
	return Result{Text: strings.TrimSpace(raw), Filename: "linux_setup.txt"}, nil
}
