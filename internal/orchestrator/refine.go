package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/OnisOris/devopsys/internal/agent"
	"github.com/OnisOris/devopsys/internal/trace"
	"github.com/OnisOris/devopsys/internal/verify"
)

// Refinement budgets: the matplotlib toolchain needs extra attempts to
// converge.
const (
	defaultAttemptBudget    = 6
	matplotlibAttemptBudget = 8
)

func attemptBudget(task string) int {
	if strings.Contains(strings.ToLower(task), "matplotlib") {
		return matplotlibAttemptBudget
	}
	return defaultAttemptBudget
}

// refinePython runs the bounded verify-regenerate state machine for one
// python artifact. It returns the verification and regeneration executions
// in order; the loop stops the instant a passing verdict is observed and
// never regenerates more than the budget allows.
func (o *Orchestrator) refinePython(ctx context.Context, task, snapshot string, originalStep PlannedStep, last agent.Result) ([]StepExecution, error) {
	verifier, _ := o.registry.Get("verifier")
	pythonCap, _ := o.registry.Get("python")

	var attempts []StepExecution
	current := last

	budget := attemptBudget(task)
	for attempt := 1; attempt <= budget; attempt++ {
		var verdict verify.Verdict

		// Static pre-check: an artifact that does not even parse skips
		// the verification round trip and synthesizes the verdict
		// directly.
		if ok, detail := verify.CheckSyntax(verify.LangPython, current.Text); !ok {
			verdict = verify.Verdict{
				OK:              false,
				Reason:          "invalid python syntax: " + detail,
				Missing:         []string{"return valid Python code"},
				Forbidden:       []string{},
				SuggestedPrompt: "",
			}
			exec, err := o.recordSyntheticVerdict(task, "static syntax pre-check", verdict)
			if err != nil {
				return attempts, err
			}
			attempts = append(attempts, exec)
		} else {
			model, err := o.verifierModel()
			if err != nil {
				return attempts, err
			}
			step := PlannedStep{Capability: "verifier", Instruction: task, Reason: "code compliance check"}
			o.observer.OnStepStart(traceStep(step), task)
			result, err := verifier.Run(ctx, model, agent.Request{Task: task, Workspace: current.Text})
			if err != nil {
				o.observer.OnStepError(traceStep(step), err)
				return attempts, fmt.Errorf("step verifier: %w", err)
			}
			o.observer.OnStepEnd(traceStep(step), trace.Artifact{Text: result.Text})
			attempts = append(attempts, StepExecution{Step: step, Result: result})
			verdict = verify.ParseVerdict(result.Text)
		}

		if verdict.OK {
			break
		}

		instruction := refinedInstruction(task, originalStep.Instruction, verdict)
		model, err := o.modelFor("python")
		if err != nil {
			return attempts, err
		}
		step := PlannedStep{
			Capability:  "python",
			Instruction: instruction,
			Reason:      fmt.Sprintf("refinement attempt %d", attempt),
		}
		o.observer.OnStepStart(traceStep(step), instruction)
		result, err := pythonCap.Run(ctx, model, agent.Request{
			Task:        instruction,
			PlanContext: step.Reason,
			Workspace:   snapshot,
		})
		if err != nil {
			o.observer.OnStepError(traceStep(step), err)
			return attempts, fmt.Errorf("step python: %w", err)
		}
		o.observer.OnStepEnd(traceStep(step), trace.Artifact{Text: result.Text, Filename: result.Filename})
		attempts = append(attempts, StepExecution{Step: step, Result: result})
		current = result
	}

	// The trace must end with a verification reflecting the last artifact.
	needsFinal := true
	if len(attempts) > 0 {
		tail := attempts[len(attempts)-1]
		if tail.Step.Capability == "verifier" {
			needsFinal = false
		}
	}
	if needsFinal {
		model, err := o.verifierModel()
		if err != nil {
			return attempts, err
		}
		step := PlannedStep{Capability: "verifier", Instruction: task, Reason: "final verification"}
		o.observer.OnStepStart(traceStep(step), task)
		result, err := verifier.Run(ctx, model, agent.Request{Task: task, Workspace: current.Text})
		if err != nil {
			o.observer.OnStepError(traceStep(step), err)
			return attempts, fmt.Errorf("step verifier: %w", err)
		}
		o.observer.OnStepEnd(traceStep(step), trace.Artifact{Text: result.Text})
		attempts = append(attempts, StepExecution{Step: step, Result: result})
	}

	return attempts, nil
}

// recordSyntheticVerdict appends a review execution for a verdict produced
// without a model round trip, keeping the trace shape uniform.
func (o *Orchestrator) recordSyntheticVerdict(task, reason string, verdict verify.Verdict) (StepExecution, error) {
	out, err := json.Marshal(verdict)
	if err != nil {
		return StepExecution{}, fmt.Errorf("encode verdict: %w", err)
	}
	step := PlannedStep{Capability: "verifier", Instruction: task, Reason: reason}
	result := agent.Result{Text: string(out)}
	o.observer.OnStepStart(traceStep(step), task)
	o.observer.OnStepEnd(traceStep(step), trace.Artifact{Text: result.Text})
	return StepExecution{Step: step, Result: result}, nil
}

// refinedInstruction assembles the regeneration instruction from the
// verdict: its suggested instruction as the new base, the failure feedback
// as actionable bullets, and the standing output constraints.
func refinedInstruction(task, originalInstruction string, verdict verify.Verdict) string {
	base := strings.TrimSpace(verdict.SuggestedPrompt)
	if base == "" || base == "Regenerate the script to satisfy the task." {
		base = strings.TrimSpace(originalInstruction)
	}

	feedback := strings.TrimSpace(verdict.Reason)
	if feedback == "" {
		feedback = "does not fulfill the task"
	}
	fixes := ""
	if len(verdict.Missing) > 0 {
		var bullets []string
		for _, item := range verdict.Missing {
			bullets = append(bullets, "- "+item)
		}
		fixes = "\nRequired fixes:\n" + strings.Join(bullets, "\n")
	}

	parts := []string{
		base,
		fmt.Sprintf("Previous attempt did not fulfill the task: %s.%s", feedback, fixes),
		"Regenerate from scratch. Output ONLY Python code (no markdown/prose).",
		"Use only the standard library unless explicitly requested.",
	}

	combined := strings.ToLower(task + " " + feedback + " " + strings.Join(verdict.Missing, " "))
	if strings.Contains(combined, "gpu") || strings.Contains(combined, "nvidia-smi") {
		parts = append(parts, "If nvidia-smi is unavailable, print a friendly message and exit with code 0 instead of failing.")
	}

	var kept []string
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			kept = append(kept, trimmed)
		}
	}
	return strings.Join(kept, "\n") + "\n"
}
