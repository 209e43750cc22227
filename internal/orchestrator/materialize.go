package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/OnisOris/devopsys/internal/agent"
	"github.com/OnisOris/devopsys/internal/project"
	"github.com/OnisOris/devopsys/internal/trace"
	"github.com/OnisOris/devopsys/internal/verify"
)

// uvBootstrapTimeout bounds the environment creation step.
const uvBootstrapTimeout = 60 * time.Second

// ErrEmptyPlan is returned when an architect plan names no files to
// materialize.
var ErrEmptyPlan = errors.New("project plan has no files")

// materializeProject expands a project plan into a concrete directory tree:
// one generation plus one syntax-only verification per file, then the uv
// environment bootstrap and the entrypoint smoke test. A malformed plan,
// an empty file list or a containment violation is fatal; missing tooling
// and missing entrypoints are informational skips.
func (o *Orchestrator) materializeProject(ctx context.Context, task, planText, base string) ([]StepExecution, *agent.Result, error) {
	var executions []StepExecution

	spec, err := project.ParseSpec(planText)
	if err != nil {
		return executions, nil, err
	}
	if len(spec.Files) == 0 {
		return executions, nil, ErrEmptyPlan
	}

	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return executions, nil, fmt.Errorf("resolve project base: %w", err)
		}
		base = wd
	}
	root, err := project.AllocateRoot(base, spec.Slug())
	if err != nil {
		return executions, nil, err
	}

	var ready []project.ReadyFile
	for _, file := range spec.Files {
		capabilityName := project.SelectCapability(file, spec, o.registry.Has)
		capability, ok := o.registry.Get(capabilityName)
		if !ok {
			capabilityName = "universal"
			capability, _ = o.registry.Get(capabilityName)
		}
		model, err := o.modelFor(capabilityName)
		if err != nil {
			return executions, nil, err
		}

		instruction := project.BuildInstruction(file, spec)
		planContext := project.ContextPayload(capabilityName, file, spec, ready)

		step := PlannedStep{
			Capability:  capabilityName,
			Instruction: instruction,
			Reason:      "materialize " + file.NormalizedPath(),
		}
		o.observer.OnStepStart(traceStep(step), instruction)
		result, err := capability.Run(ctx, model, agent.Request{
			Task:        instruction,
			PlanContext: planContext,
		})
		if err != nil {
			o.observer.OnStepError(traceStep(step), err)
			return executions, nil, fmt.Errorf("step %s: %w", capabilityName, err)
		}
		o.observer.OnStepEnd(traceStep(step), trace.Artifact{Text: result.Text, Filename: file.NormalizedPath()})
		executions = append(executions, StepExecution{Step: step, Result: result})

		if _, err := project.WriteFile(root, file.NormalizedPath(), result.Text); err != nil {
			o.observer.OnStepError(traceStep(step), err)
			return executions, nil, err
		}
		ready = append(ready, project.ReadyFile{Path: file.NormalizedPath(), Content: result.Text})

		audit, err := o.syntaxAudit(ctx, file, result.Text)
		if err != nil {
			return executions, nil, err
		}
		executions = append(executions, audit)
	}

	envStatus, envExec := o.bootstrapEnvironment(ctx, spec, root)
	executions = append(executions, envExec)

	runtimeStatus, runtimeExec, err := o.runtimeCheck(ctx, task, root)
	if err != nil {
		return executions, nil, err
	}
	if runtimeExec != nil {
		executions = append(executions, *runtimeExec)
	}

	relRoot := root
	if rel, err := filepath.Rel(base, root); err == nil {
		relRoot = rel
	}
	summaryLines := []string{project.Summarize(relRoot, spec.Files)}
	if describe := spec.Describe(); describe != "" {
		summaryLines = append(summaryLines, "", describe)
	}
	summaryLines = append(summaryLines, "", "uv environment: "+envStatus, "Runtime check: "+runtimeStatus)
	summary := agent.Result{Text: strings.Join(summaryLines, "\n")}

	return executions, &summary, nil
}

// syntaxAudit records one syntax-only verification per written file.
func (o *Orchestrator) syntaxAudit(ctx context.Context, file project.FileSpec, content string) (StepExecution, error) {
	verifier, _ := o.registry.Get("verifier")
	model, err := o.verifierModel()
	if err != nil {
		return StepExecution{}, err
	}

	meta, _ := json.Marshal(map[string]string{
		"mode":     verify.ModeSyntax,
		"filename": file.NormalizedPath(),
	})
	task := "Validate the generated file " + file.NormalizedPath()
	step := PlannedStep{Capability: "verifier", Instruction: task, Reason: "syntax audit"}
	o.observer.OnStepStart(traceStep(step), task)
	result, err := verifier.Run(ctx, model, agent.Request{
		Task:        task,
		PlanContext: string(meta),
		Workspace:   content,
	})
	if err != nil {
		o.observer.OnStepError(traceStep(step), err)
		return StepExecution{}, fmt.Errorf("step verifier: %w", err)
	}
	o.observer.OnStepEnd(traceStep(step), trace.Artifact{Text: result.Text})
	return StepExecution{Step: step, Result: result}, nil
}

// bootstrapEnvironment creates the project virtualenv with uv when the
// toolchain fits. Failures are informational, never fatal.
func (o *Orchestrator) bootstrapEnvironment(ctx context.Context, spec project.Spec, root string) (string, StepExecution) {
	status := "skipped (language is not python)"

	switch {
	case spec.Language != "python":
	default:
		if _, err := o.lookPath("uv"); err != nil {
			status = "skipped (uv not found)"
			break
		}
		if _, err := os.Stat(filepath.Join(root, ".venv")); err == nil {
			status = "skipped (.venv already exists)"
			break
		}
		runCtx, cancel := context.WithTimeout(ctx, uvBootstrapTimeout)
		cmd := exec.CommandContext(runCtx, "uv", "venv", ".venv")
		cmd.Dir = root
		out, err := cmd.CombinedOutput()
		cancel()
		if err != nil {
			detail := strings.TrimSpace(string(out))
			if detail == "" {
				detail = err.Error()
			}
			status = "failed (" + detail + ")"
			o.logger.Warn("uv environment bootstrap failed", zap.String("detail", detail))
		} else {
			status = "created (.venv)"
		}
	}

	step := PlannedStep{Capability: "universal", Instruction: "bootstrap project environment", Reason: "uv environment bootstrap"}
	result := agent.Result{Text: "uv environment: " + status}
	o.observer.OnStepStart(traceStep(step), step.Instruction)
	o.observer.OnStepEnd(traceStep(step), trace.Artifact{Text: result.Text})
	return status, StepExecution{Step: step, Result: result}
}

// runtimeCheck smoke-tests the declared entrypoint through the verifier's
// project-runtime mode. No entrypoint means a recorded skip, not an error.
func (o *Orchestrator) runtimeCheck(ctx context.Context, task, root string) (string, *StepExecution, error) {
	entrypoint, err := project.DiscoverEntrypoint(root)
	if err != nil {
		return "skipped (" + err.Error() + ")", nil, nil
	}
	if entrypoint == "" {
		return "skipped (no entrypoint in project.scripts)", nil, nil
	}

	verifier, _ := o.registry.Get("verifier")
	model, err := o.verifierModel()
	if err != nil {
		return "", nil, err
	}

	meta, _ := json.Marshal(map[string]any{
		"mode": verify.ModeProjectRuntime,
		"project": verify.ProjectMeta{
			Root:       root,
			Entrypoint: entrypoint,
		},
	})
	step := PlannedStep{Capability: "verifier", Instruction: task, Reason: "runtime check"}
	o.observer.OnStepStart(traceStep(step), task)
	result, err := verifier.Run(ctx, model, agent.Request{Task: task, PlanContext: string(meta)})
	if err != nil {
		o.observer.OnStepError(traceStep(step), err)
		return "", nil, fmt.Errorf("step verifier: %w", err)
	}
	o.observer.OnStepEnd(traceStep(step), trace.Artifact{Text: result.Text})
	execution := StepExecution{Step: step, Result: result}

	verdict := verify.ParseVerdict(result.Text)
	status := "ok (uv run " + entrypoint + ")"
	if !verdict.OK {
		reason := verdict.Reason
		if reason == "" {
			reason = "runtime verification failed"
		}
		status = "failed (" + reason + ")"
	}
	return status, &execution, nil
}
