// Package orchestrator drives the planner-to-execution pipeline: plan
// building and pruning, capability dispatch, the verification/refinement
// loop, project materialization and result finalization.
package orchestrator

import (
	"github.com/OnisOris/devopsys/internal/agent"
)

// PlannedStep is one scheduled capability invocation. Immutable once
// created.
type PlannedStep struct {
	Capability  string `json:"agent"`
	Instruction string `json:"instruction"`
	Reason      string `json:"reason"`
}

// StepExecution pairs a planned step with the artifact it produced. The
// ordered sequence of executions is the run's execution trace, append-only
// within a run.
type StepExecution struct {
	Step   PlannedStep
	Result agent.Result
}

// Result is the terminal outcome of one orchestration run.
type Result struct {
	RunID string
	Final agent.Result
	Steps []StepExecution
}

// Options tune a single run.
type Options struct {
	// ForcedCapability bypasses planning with a single-step plan. Naming
	// an unregistered capability is an error, not a silent skip.
	ForcedCapability string
	// OSName targets the linux capability at a specific distro.
	OSName string
	// ProjectBase overrides the base directory for project
	// materialization; empty means the working directory.
	ProjectBase string
}
