package orchestrator

import (
	"strings"

	"github.com/OnisOris/devopsys/internal/agent"
	"github.com/OnisOris/devopsys/internal/verify"
)

// finalize selects the single end result from the execution trace.
// Precedence, highest first: the materializer's project summary, a
// single-step trace, the last review verdict (gating its preceding
// artifact), the last python artifact, and finally a labeled concatenation
// of everything.
func finalize(task string, executions []StepExecution, projectSummary *agent.Result) agent.Result {
	if projectSummary != nil {
		return *projectSummary
	}
	if len(executions) == 1 {
		return executions[0].Result
	}

	lastVerifier := -1
	for i := len(executions) - 1; i >= 0; i-- {
		if executions[i].Step.Capability == "verifier" {
			lastVerifier = i
			break
		}
	}

	if lastVerifier >= 0 {
		verdict := verify.ParseVerdict(executions[lastVerifier].Result.Text)

		preceding := -1
		for j := lastVerifier - 1; j >= 0; j-- {
			if executions[j].Step.Capability != "verifier" {
				preceding = j
				break
			}
		}
		if preceding < 0 {
			return agent.Result{Text: executions[lastVerifier].Result.Text}
		}

		artifact := executions[preceding].Result
		if verdict.OK {
			return artifact
		}
		reason := verdict.Reason
		if reason == "" {
			reason = "verification failed"
		}
		return agent.Result{
			Text:     strings.TrimRight(artifact.Text, "\n") + "\n\n# Verifier note: " + reason + "\n",
			Filename: artifact.Filename,
		}
	}

	for i := len(executions) - 1; i >= 0; i-- {
		if executions[i].Step.Capability == "python" {
			return agent.Result{Text: executions[i].Result.Text}
		}
	}

	var sections []string
	for _, exec := range executions {
		heading := "### " + exec.Step.Capability + "\nReason: " + exec.Step.Reason + "\n"
		sections = append(sections, heading+"\n"+strings.TrimSpace(exec.Result.Text)+"\n")
	}
	return agent.Result{Text: "Task: " + task + "\n\n" + strings.TrimSpace(strings.Join(sections, "\n"))}
}
