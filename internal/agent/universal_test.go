package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniversalUsesPlanContextMetadata(t *testing.T) {
	model := &stubModel{reply: "# Demo\n\nSetup instructions.\n"}
	res, err := Universal{}.Run(context.Background(), model, Request{
		Task:        "write the readme",
		PlanContext: `{"path": "README.md", "project_summary": "A toy ETL."}`,
	})

	require.NoError(t, err)
	assert.Equal(t, "README.md", res.Filename)
	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "File path: README.md")
	assert.Contains(t, model.prompts[0], "A toy ETL.")
}

func TestUniversalTreatsOpaqueContextAsSummary(t *testing.T) {
	model := &stubModel{reply: "content"}
	res, err := Universal{}.Run(context.Background(), model, Request{
		Task:        "write notes",
		PlanContext: "free text context",
	})

	require.NoError(t, err)
	assert.Empty(t, res.Filename)
	assert.Contains(t, model.prompts[0], "free text context")
}

func TestUniversalStripsWrappingFences(t *testing.T) {
	model := &stubModel{reply: "```markdown\n# Title\n```"}
	res, err := Universal{}.Run(context.Background(), model, Request{Task: "write"})

	require.NoError(t, err)
	assert.Equal(t, "# Title", res.Text)
}
