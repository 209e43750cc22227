package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/OnisOris/devopsys/internal/backend"
)

const bashPrompt = `You are a senior SRE collaborating with other agents. Generate a Bash script for the request.
Primary user task:
%s

Planner context (may be empty):
%s

Workspace snapshot (read-only, may be empty):
%s

Constraints:
- Target: bash (#!/usr/bin/env bash) with set -euo pipefail.
- Include usage() help and argument parsing (getopts or simple parsing).
- Add comments, safety checks, and meaningful exit codes.
- Avoid GNU-only features when portability matters.

Return only the final Bash script content.`

// Bash generates shell scripts. Output is fence-stripped and guaranteed a
// strict-mode prologue.
type Bash struct{}

func (Bash) Name() string        { return "bash" }
func (Bash) Description() string { return "Generate Bash scripts" }

func (Bash) Run(ctx context.Context, model backend.Model, req Request) (Result, error) {
	prompt := fmt.Sprintf(bashPrompt,
		strings.TrimSpace(req.Task),
		strings.TrimSpace(req.PlanContext),
		strings.TrimSpace(req.Workspace),
	)
	raw, err := model.Complete(ctx, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("bash capability: %w", err)
	}
	return Result{Text: normalizeBash(raw, req.Task), Filename: "script.sh"}, nil
}

func normalizeBash(raw, task string) string {
	code := strings.TrimSpace(raw)
	if strings.HasPrefix(code, "```") {
		code = strings.Trim(code, "`\n")
		var lines []string
		for _, line := range strings.Split(code, "\n") {
			if strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "bash") && len(lines) == 0 {
				continue
			}
			lines = append(lines, line)
		}
		code = strings.TrimSpace(strings.Join(lines, "\n"))
	}

	if code == "" {
		code = fmt.Sprintf("echo \"TODO: implement the following task -> %s\"", strings.TrimSpace(task))
	}

	if !strings.HasPrefix(code, "#!") {
		code = "#!/usr/bin/env bash\n" + code
	}
	if !strings.Contains(code, "set -euo pipefail") {
		shebang, rest, found := strings.Cut(code, "\n")
		if found {
			code = shebang + "\nset -euo pipefail\n" + rest
		} else {
			code = shebang + "\nset -euo pipefail"
		}
	}
	return ensureNewline(code)
}
