package project

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeDoc(t *testing.T, raw []byte) planDoc {
	t.Helper()
	var doc planDoc
	require.NoError(t, json.Unmarshal(raw, &doc))
	return doc
}

func TestNormalizePlanCleanJSON(t *testing.T) {
	raw := `{"project_name": "demo", "language": "python", "summary": "s", "tasks": ["a"], "files": [{"path": "README.md", "goal": "docs"}]}`
	doc := decodeDoc(t, NormalizePlan(raw))

	assert.Equal(t, "demo", doc.ProjectName)
	require.Len(t, doc.Files, 1)
	assert.Equal(t, "README.md", doc.Files[0].Path)
}

func TestNormalizePlanStripsCodeFences(t *testing.T) {
	raw := "```json\n{\"project_name\": \"demo\", \"files\": [{\"path\": \"main.py\"}]}\n```"
	doc := decodeDoc(t, NormalizePlan(raw))

	assert.Equal(t, "demo", doc.ProjectName)
	require.Len(t, doc.Files, 1)
}

func TestNormalizePlanToleratesCommentsAndTrailingCommas(t *testing.T) {
	raw := `{
  // the project
  "project_name": "demo",
  "files": [
    {"path": "main.py", "goal": "entry", /* inline */ },
  ],
}`
	doc := decodeDoc(t, NormalizePlan(raw))

	assert.Equal(t, "demo", doc.ProjectName)
	require.Len(t, doc.Files, 1)
	assert.Equal(t, "entry", doc.Files[0].Goal)
}

func TestNormalizePlanReplacesCurlyQuotes(t *testing.T) {
	raw := `{“project_name”: “demo”, “files”: [{“path”: “main.py”}]}`
	doc := decodeDoc(t, NormalizePlan(raw))

	assert.Equal(t, "demo", doc.ProjectName)
	require.Len(t, doc.Files, 1)
}

func TestNormalizePlanRegexFallback(t *testing.T) {
	raw := `The plan is roughly:
"project_name": "demo tool"
"language": "python"
and the files: {"path": "src/demo/__init__.py", "goal": "package"} plus {"path": "pyproject.toml"}`
	doc := decodeDoc(t, NormalizePlan(raw))

	assert.Equal(t, "demo tool", doc.ProjectName)
	require.Len(t, doc.Files, 2)
	assert.Equal(t, "src/demo/__init__.py", doc.Files[0].Path)
}

func TestNormalizePlanEmptyInputYieldsDefaults(t *testing.T) {
	doc := decodeDoc(t, NormalizePlan("   "))

	assert.Equal(t, "project", doc.ProjectName)
	assert.Equal(t, "python", doc.Language)
	assert.Empty(t, doc.Files)
}
