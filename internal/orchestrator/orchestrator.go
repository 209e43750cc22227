package orchestrator

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/OnisOris/devopsys/internal/agent"
	"github.com/OnisOris/devopsys/internal/backend"
	"github.com/OnisOris/devopsys/internal/trace"
	"github.com/OnisOris/devopsys/internal/workspace"
)

// Config wires an orchestrator: the capability registry, model factories
// and the ambient collaborators.
type Config struct {
	Registry *agent.Registry
	// DefaultFactory builds the model used when no per-role override
	// applies.
	DefaultFactory backend.Factory
	// PlannerFactory, when set, builds the planner/reviewer model.
	PlannerFactory backend.Factory
	// CapabilityFactories overrides the model per capability name.
	CapabilityFactories map[string]backend.Factory
	Observer            trace.Observer
	Logger              *zap.Logger
	// LookPath reports tool availability; defaults to exec.LookPath.
	LookPath func(string) (string, error)
	// Snapshot provides the advisory workspace description.
	Snapshot func() string
}

// Orchestrator executes one task end to end: plan, dispatch, verify,
// refine, materialize, finalize. Runs are single-threaded and strictly
// sequential.
type Orchestrator struct {
	registry            *agent.Registry
	defaultFactory      backend.Factory
	plannerFactory      backend.Factory
	capabilityFactories map[string]backend.Factory
	observer            trace.Observer
	logger              *zap.Logger
	lookPath            func(string) (string, error)
	snapshot            func() string
}

// New builds an orchestrator from cfg, filling in defaults for optional
// collaborators.
func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		registry:            cfg.Registry,
		defaultFactory:      cfg.DefaultFactory,
		plannerFactory:      cfg.PlannerFactory,
		capabilityFactories: cfg.CapabilityFactories,
		observer:            cfg.Observer,
		logger:              cfg.Logger,
		lookPath:            cfg.LookPath,
		snapshot:            cfg.Snapshot,
	}
	if o.observer == nil {
		o.observer = trace.NullObserver{}
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.lookPath == nil {
		o.lookPath = exec.LookPath
	}
	if o.snapshot == nil {
		o.snapshot = func() string { return workspace.Snapshot("") }
	}
	return o
}

// Execute runs the full pipeline for one task. Backend transport failures
// are fatal and abort the run after being reported to the observer;
// verification failures are data and drive refinement instead.
func (o *Orchestrator) Execute(ctx context.Context, task string, opts Options) (*Result, error) {
	runID := uuid.NewString()
	snapshot := o.snapshot()
	o.observer.OnStart(runID, task, snapshot)

	plannerModel, err := o.plannerModel()
	if err != nil {
		return nil, err
	}
	plannerIsDummy := isDummy(plannerModel)

	var plan []PlannedStep
	switch {
	case opts.ForcedCapability != "":
		if !o.registry.Has(opts.ForcedCapability) {
			return nil, fmt.Errorf("unknown capability %q", opts.ForcedCapability)
		}
		plan = []PlannedStep{{Capability: opts.ForcedCapability, Instruction: task, Reason: "forced by user"}}
	case plannerIsDummy:
		plan = fallbackPlan(task)
	default:
		plan, err = buildPlan(ctx, plannerModel, o.registry, task, snapshot)
		if err != nil {
			return nil, err
		}
		plan = prunePlan(plan, task)
		plan = injectArchitect(plan, task)
	}
	if len(plan) == 0 {
		plan = fallbackPlan(task)
	}

	o.observer.OnPlan(traceSteps(plan))

	var executions []StepExecution
	var projectSummary *agent.Result

	for _, step := range plan {
		capability, ok := o.registry.Get(step.Capability)
		if !ok {
			o.logger.Warn("skipping unregistered capability", zap.String("capability", step.Capability))
			continue
		}
		model, err := o.modelFor(step.Capability)
		if err != nil {
			return nil, err
		}

		instruction := step.Instruction
		if instruction == "" {
			instruction = task
		}
		if step.Capability == "linux" && opts.OSName != "" {
			instruction = fmt.Sprintf("[target distro: %s]\n%s", opts.OSName, instruction)
		}

		o.observer.OnStepStart(traceStep(step), instruction)
		result, err := capability.Run(ctx, model, agent.Request{
			Task:        instruction,
			PlanContext: step.Reason,
			Workspace:   snapshot,
		})
		if err != nil {
			o.observer.OnStepError(traceStep(step), err)
			return nil, fmt.Errorf("step %s: %w", step.Capability, err)
		}
		o.observer.OnStepEnd(traceStep(step), trace.Artifact{Text: result.Text, Filename: result.Filename})
		executions = append(executions, StepExecution{Step: step, Result: result})

		switch {
		case step.Capability == "project_architect":
			extra, summary, err := o.materializeProject(ctx, task, result.Text, opts.ProjectBase)
			executions = append(executions, extra...)
			if err != nil {
				o.observer.OnStepError(traceStep(step), err)
				return nil, fmt.Errorf("step %s: %w", step.Capability, err)
			}
			projectSummary = summary

		case step.Capability == "python" && !isDummy(model):
			extra, err := o.refinePython(ctx, task, snapshot, step, result)
			executions = append(executions, extra...)
			if err != nil {
				return nil, err
			}

		case step.Capability == "bash" && !isDummy(model):
			audit, err := o.auditStep(ctx, task, result)
			if err != nil {
				return nil, err
			}
			executions = append(executions, audit)
		}
	}

	// A plan that produced nothing at all gets one last-resort python step.
	if len(executions) == 0 {
		step := PlannedStep{Capability: "python", Instruction: task, Reason: "fallback to python"}
		capability, _ := o.registry.Get("python")
		model, err := o.modelFor("python")
		if err != nil {
			return nil, err
		}
		o.observer.OnStepStart(traceStep(step), task)
		result, err := capability.Run(ctx, model, agent.Request{Task: task, PlanContext: "fallback"})
		if err != nil {
			o.observer.OnStepError(traceStep(step), err)
			return nil, fmt.Errorf("step python: %w", err)
		}
		o.observer.OnStepEnd(traceStep(step), trace.Artifact{Text: result.Text, Filename: result.Filename})
		executions = append(executions, StepExecution{Step: step, Result: result})
	}

	final := finalize(task, executions, projectSummary)
	o.observer.OnFinal(trace.Artifact{Text: final.Text, Filename: final.Filename})

	return &Result{RunID: runID, Final: final, Steps: executions}, nil
}

// auditStep issues the single non-blocking verification call recorded for
// execution-checked capabilities outside the refinement loop.
func (o *Orchestrator) auditStep(ctx context.Context, task string, result agent.Result) (StepExecution, error) {
	verifier, _ := o.registry.Get("verifier")
	model, err := o.verifierModel()
	if err != nil {
		return StepExecution{}, err
	}

	step := PlannedStep{Capability: "verifier", Instruction: task, Reason: "execution audit"}
	o.observer.OnStepStart(traceStep(step), task)
	verdict, err := verifier.Run(ctx, model, agent.Request{Task: task, Workspace: result.Text})
	if err != nil {
		o.observer.OnStepError(traceStep(step), err)
		return StepExecution{}, fmt.Errorf("step verifier: %w", err)
	}
	o.observer.OnStepEnd(traceStep(step), trace.Artifact{Text: verdict.Text})
	return StepExecution{Step: step, Result: verdict}, nil
}

func (o *Orchestrator) plannerModel() (backend.Model, error) {
	factory := o.plannerFactory
	if factory == nil {
		factory = o.defaultFactory
	}
	model, err := factory()
	if err != nil {
		return nil, fmt.Errorf("planner model: %w", err)
	}
	return model, nil
}

func (o *Orchestrator) modelFor(capability string) (backend.Model, error) {
	factory := o.defaultFactory
	if override, ok := o.capabilityFactories[capability]; ok {
		factory = override
	}
	model, err := factory()
	if err != nil {
		return nil, fmt.Errorf("model for %s: %w", capability, err)
	}
	return model, nil
}

// verifierModel prefers the capability override, then the planner model.
func (o *Orchestrator) verifierModel() (backend.Model, error) {
	if override, ok := o.capabilityFactories["verifier"]; ok {
		model, err := override()
		if err != nil {
			return nil, fmt.Errorf("model for verifier: %w", err)
		}
		return model, nil
	}
	return o.plannerModel()
}

func isDummy(model backend.Model) bool {
	_, ok := model.(*backend.Dummy)
	return ok
}

func traceStep(step PlannedStep) trace.Step {
	return trace.Step{Capability: step.Capability, Instruction: step.Instruction, Reason: step.Reason}
}

func traceSteps(plan []PlannedStep) []trace.Step {
	out := make([]trace.Step, 0, len(plan))
	for _, step := range plan {
		out = append(out, traceStep(step))
	}
	return out
}
