package orchestrator

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OnisOris/devopsys/internal/agent"
	"github.com/OnisOris/devopsys/internal/verify"
)

func testRegistry() *agent.Registry {
	return agent.NewRegistry(verify.NewEngine(verify.NewSandbox(), nil))
}

func TestParsePlanDecodesOutermostObject(t *testing.T) {
	raw := `Sure, here is the plan:
{"plan": [{"agent": "python", "instruction": "write it", "reason": "code"}]}
Good luck!`

	steps := parsePlan(raw, testRegistry())

	require.Len(t, steps, 1)
	assert.Equal(t, "python", steps[0].Capability)
	assert.Equal(t, "write it", steps[0].Instruction)
}

func TestParsePlanRejectsUnregisteredCapabilities(t *testing.T) {
	raw := `{"plan": [
  {"agent": "ghost", "instruction": "x", "reason": "r"},
  {"agent": "bash", "instruction": "y", "reason": "r"}
]}`

	steps := parsePlan(raw, testRegistry())

	require.Len(t, steps, 1)
	assert.Equal(t, "bash", steps[0].Capability)
}

func TestParsePlanGarbageYieldsNil(t *testing.T) {
	assert.Nil(t, parsePlan("no json here", testRegistry()))
}

func TestFallbackPlanUsesRouter(t *testing.T) {
	plan := fallbackPlan("write a dockerfile for the service")

	require.Len(t, plan, 1)
	assert.Equal(t, "docker", plan[0].Capability)
	assert.Equal(t, "write a dockerfile for the service", plan[0].Instruction)
}

func TestPrunePlanCollapsesToDocker(t *testing.T) {
	plan := []PlannedStep{
		{Capability: "python", Instruction: "helper"},
		{Capability: "docker", Instruction: "image"},
		{Capability: "linux", Instruction: "setup"},
	}

	pruned := prunePlan(plan, "build a docker container image for the service")

	require.Len(t, pruned, 1)
	assert.Equal(t, "docker", pruned[0].Capability)
}

func TestPrunePlanLeadsWithRouterChoiceAndDedupes(t *testing.T) {
	plan := []PlannedStep{
		{Capability: "linux", Instruction: "first linux"},
		{Capability: "python", Instruction: "the code"},
		{Capability: "linux", Instruction: "second linux"},
	}

	pruned := prunePlan(plan, "write a python script")

	want := []PlannedStep{
		{Capability: "python", Instruction: "the code"},
		{Capability: "linux", Instruction: "first linux"},
	}
	if diff := cmp.Diff(want, pruned); diff != "" {
		t.Errorf("pruned plan mismatch (-want +got):\n%s", diff)
	}
}

func TestInjectArchitect(t *testing.T) {
	t.Run("appends on scaffolding intent", func(t *testing.T) {
		plan := injectArchitect([]PlannedStep{{Capability: "python"}}, "scaffold a new project structure")

		require.Len(t, plan, 2)
		assert.Equal(t, "project_architect", plan[1].Capability)
	})

	t.Run("keeps existing architect step", func(t *testing.T) {
		plan := injectArchitect([]PlannedStep{{Capability: "project_architect"}}, "scaffold a new project")

		require.Len(t, plan, 1)
	})

	t.Run("no intent no injection", func(t *testing.T) {
		plan := injectArchitect([]PlannedStep{{Capability: "python"}}, "print the time")

		require.Len(t, plan, 1)
	})
}
