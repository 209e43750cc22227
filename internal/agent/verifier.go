package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/OnisOris/devopsys/internal/backend"
	"github.com/OnisOris/devopsys/internal/verify"
)

// Verifier wraps the verification engine as a review capability. The plan
// context carries verification metadata as JSON; the workspace field carries
// the code under review. The result text is the canonical verdict JSON.
type Verifier struct {
	engine *verify.Engine
}

// NewVerifier builds the review capability around engine.
func NewVerifier(engine *verify.Engine) *Verifier {
	return &Verifier{engine: engine}
}

func (Verifier) Name() string { return "verifier" }
func (Verifier) Description() string {
	return "Verify code compliance with the given task and suggest fixes"
}

type verifierMeta struct {
	Mode     string              `json:"mode"`
	Filename string              `json:"filename"`
	Project  *verify.ProjectMeta `json:"project"`
}

func (v *Verifier) Run(ctx context.Context, model backend.Model, req Request) (Result, error) {
	var meta verifierMeta
	if req.PlanContext != "" {
		// Malformed metadata degrades to auto mode, mirroring how plan
		// parsing tolerates sloppy model output.
		_ = json.Unmarshal([]byte(req.PlanContext), &meta)
	}
	if meta.Mode == "" {
		meta.Mode = verify.ModeAuto
	}

	res, err := v.engine.Verify(ctx, model, verify.Request{
		Task:     req.Task,
		Code:     req.Workspace,
		Mode:     meta.Mode,
		Filename: meta.Filename,
		Project:  meta.Project,
	})
	if err != nil {
		return Result{}, fmt.Errorf("verifier capability: %w", err)
	}

	out, err := json.Marshal(res.Verdict)
	if err != nil {
		return Result{}, fmt.Errorf("encode verdict: %w", err)
	}
	return Result{Text: string(out)}, nil
}
