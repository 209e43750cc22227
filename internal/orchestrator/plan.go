package orchestrator

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/OnisOris/devopsys/internal/agent"
	"github.com/OnisOris/devopsys/internal/backend"
	"github.com/OnisOris/devopsys/internal/router"
)

const planPrompt = `You are the lead planner in a multi-agent DevOps system.
Available specialized agents: %s.
Analyse the user request and break it down into an ordered plan with the minimum number of steps.
Only include an agent if its contribution is essential for the final result. Prefer a single specialist when possible.
Each plan step must be a JSON object with fields: agent, instruction, reason.
Use only the allowed agent names.

Workspace snapshot (read-only context):
%s

Return a JSON object with the exact shape:
{"plan": [{"agent": "name", "instruction": "...", "reason": "..."}, ...]}

User request:
%s`

var planObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// buildPlan asks the planner model for an ordered plan. Any parse failure
// or a plan with zero valid entries falls back to the router.
func buildPlan(ctx context.Context, model backend.Model, registry *agent.Registry, task, workspace string) ([]PlannedStep, error) {
	names := registry.Names()
	sort.Strings(names)
	prompt := fmt.Sprintf(planPrompt, strings.Join(names, ", "), workspace, strings.TrimSpace(task))

	raw, err := model.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("planner: %w", err)
	}

	steps := parsePlan(raw, registry)
	if len(steps) == 0 {
		return fallbackPlan(task), nil
	}
	return steps, nil
}

// parsePlan locates the outermost object in the response and decodes its
// "plan" array. Entries naming unregistered capabilities are rejected here,
// at parse time, so the dispatch loop only ever sees valid steps.
func parsePlan(raw string, registry *agent.Registry) []PlannedStep {
	text := strings.TrimSpace(raw)
	candidate := text
	if match := planObjectRe.FindString(text); match != "" {
		candidate = match
	}

	var doc struct {
		Plan []PlannedStep `json:"plan"`
	}
	if err := json.Unmarshal([]byte(candidate), &doc); err != nil {
		return nil
	}

	var steps []PlannedStep
	for _, step := range doc.Plan {
		if !registry.Has(step.Capability) {
			continue
		}
		steps = append(steps, step)
	}
	return steps
}

func fallbackPlan(task string) []PlannedStep {
	route := router.Classify(task)
	return []PlannedStep{{Capability: route.Capability, Instruction: task, Reason: route.Reason}}
}

// prunePlan reorders the generated plan around the router's top choice.
// A docker route collapses the plan to docker steps only; otherwise the
// router's capability leads and duplicates by capability are dropped,
// first occurrence winning.
func prunePlan(plan []PlannedStep, task string) []PlannedStep {
	if len(plan) == 0 {
		return plan
	}

	route := router.Classify(task)

	if route.Capability == "docker" {
		var dockerSteps []PlannedStep
		for _, step := range plan {
			if step.Capability == "docker" {
				dockerSteps = append(dockerSteps, step)
			}
		}
		if len(dockerSteps) > 0 {
			return dockerSteps
		}
	}

	var ordered []PlannedStep
	seen := make(map[string]bool)
	for _, step := range plan {
		if step.Capability == route.Capability && !seen[step.Capability] {
			ordered = append(ordered, step)
			seen[step.Capability] = true
		}
	}
	for _, step := range plan {
		if !seen[step.Capability] {
			ordered = append(ordered, step)
			seen[step.Capability] = true
		}
	}
	return ordered
}

// injectArchitect appends a single project-planning step when the task
// shows scaffolding intent and the plan has none.
func injectArchitect(plan []PlannedStep, task string) []PlannedStep {
	if !router.ProjectIntent(task) {
		return plan
	}
	for _, step := range plan {
		if step.Capability == "project_architect" {
			return plan
		}
	}
	return append(plan, PlannedStep{
		Capability:  "project_architect",
		Instruction: task,
		Reason:      "project scaffolding intent detected",
	})
}
