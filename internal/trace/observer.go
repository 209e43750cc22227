// Package trace defines the run-lifecycle observer consumed by the
// orchestrator and ships a no-op observer plus a styled console observer.
package trace

// Step mirrors one planned capability invocation for observer purposes.
type Step struct {
	Capability  string
	Instruction string
	Reason      string
}

// Artifact mirrors a produced artifact for observer purposes.
type Artifact struct {
	Text     string
	Filename string
}

// Observer receives lifecycle events during an orchestration run. No return
// values: observers must never influence control flow.
type Observer interface {
	OnStart(runID, task, workspace string)
	OnPlan(steps []Step)
	OnStepStart(step Step, instruction string)
	OnStepEnd(step Step, result Artifact)
	OnStepError(step Step, err error)
	OnFinal(result Artifact)
}

// NullObserver ignores every event.
type NullObserver struct{}

func (NullObserver) OnStart(runID, task, workspace string) {}
func (NullObserver) OnPlan(steps []Step)                   {}
func (NullObserver) OnStepStart(step Step, instruction string) {
}
func (NullObserver) OnStepEnd(step Step, result Artifact) {}
func (NullObserver) OnStepError(step Step, err error)     {}
func (NullObserver) OnFinal(result Artifact)              {}
