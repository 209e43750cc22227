package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/OnisOris/devopsys/internal/backend"
)

const dockerPrompt = `You are a senior DevOps engineer in a multi-agent team. Produce a production-grade Dockerfile.
Primary user requirements:
%s

Planner context (may be empty):
%s

Workspace snapshot (read-only, may be empty):
%s

Constraints:
- Use multi-stage builds when appropriate.
- Pin base images or use slim variants.
- Avoid root where possible; drop capabilities.
- Include a healthcheck if meaningful.
- Expose relevant ports but do not RUN services in foreground unless it's ENTRYPOINT/CMD.
- Keep layers small; combine RUN commands; clean caches.
- Add brief comments explaining key steps.
- If the task mentions Astral's uv package manager, install it according to the official instructions and use uv pip install / uv run instead of plain pip.
- Use pyproject.toml and the src/ layout when dealing with Python projects; never add requirements.txt or setup.py if not requested.

Return only the Dockerfile content.`

var dockerFenceRe = regexp.MustCompile("(?is)```(?:dockerfile)?\\s*(.*?)```")

// Docker generates container manifests. Output is trimmed to start at the
// first comment, FROM or ARG line.
type Docker struct{}

func (Docker) Name() string        { return "docker" }
func (Docker) Description() string { return "Generate Dockerfile" }

func (Docker) Run(ctx context.Context, model backend.Model, req Request) (Result, error) {
	prompt := fmt.Sprintf(dockerPrompt,
		strings.TrimSpace(req.Task),
		strings.TrimSpace(req.PlanContext),
		strings.TrimSpace(req.Workspace),
	)
	raw, err := model.Complete(ctx, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("docker capability: %w", err)
	}
	return Result{Text: normalizeDockerfile(raw), Filename: "Dockerfile"}, nil
}

func normalizeDockerfile(raw string) string {
	code := strings.TrimSpace(raw)
	if m := dockerFenceRe.FindStringSubmatch(code); m != nil {
		code = m[1]
	}

	var cleaned []string
	started := false
	for _, line := range strings.Split(code, "\n") {
		stripped := strings.TrimSpace(line)
		if !started {
			if stripped == "" {
				continue
			}
			upper := strings.ToUpper(stripped)
			if strings.HasPrefix(stripped, "#") || strings.HasPrefix(upper, "FROM ") || strings.HasPrefix(upper, "ARG ") {
				started = true
			} else {
				continue
			}
		}
		cleaned = append(cleaned, strings.TrimRight(line, " \t"))
	}

	final := strings.TrimSpace(strings.Join(cleaned, "\n"))
	if final == "" {
		final = strings.TrimSpace(code)
	}
	return final
}
