package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpec(t *testing.T) {
	payload := `{
  "project_name": "Data Pipeline",
  "language": "Python",
  "summary": "ETL toy project",
  "tasks": ["load csv", "transform"],
  "files": [
    {"path": "README.md", "goal": "setup docs", "agent": "universal", "requirements": ["uv instructions"]},
    {"path": "src/pipeline/__init__.py", "goal": "package init"},
    {"path": "", "goal": "dropped"},
    "not an object"
  ]
}`

	spec, err := ParseSpec(payload)
	require.NoError(t, err)

	assert.Equal(t, "Data Pipeline", spec.Name)
	assert.Equal(t, "python", spec.Language)
	assert.Equal(t, []string{"load csv", "transform"}, spec.Tasks)
	require.Len(t, spec.Files, 2)
	assert.Equal(t, "universal", spec.Files[0].CapabilityHint)
	assert.Equal(t, []string{"uv instructions"}, spec.Files[0].Requirements)
}

func TestParseSpecRejectsInvalidJSON(t *testing.T) {
	_, err := ParseSpec("not json at all")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not valid JSON")
}

func TestParseSpecDefaults(t *testing.T) {
	spec, err := ParseSpec(`{}`)
	require.NoError(t, err)

	assert.Equal(t, "project", spec.Name)
	assert.Equal(t, "unknown", spec.Language)
	assert.Empty(t, spec.Files)
}

func TestSlug(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Data Pipeline", "data-pipeline"},
		{"  My__Cool Project!! ", "my-cool-project"},
		{"###", "project"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Spec{Name: tc.name}.Slug())
	}
}

func TestFileSpecExtension(t *testing.T) {
	assert.Equal(t, ".py", FileSpec{Path: "src/app/main.py"}.Extension())
	assert.Equal(t, "dockerfile", FileSpec{Path: "deploy/Dockerfile"}.Extension())
	assert.Equal(t, ".gitignore", FileSpec{Path: ".gitignore"}.Extension())
	assert.Equal(t, "", FileSpec{Path: "Makefile"}.Extension())
	assert.Equal(t, ".py", FileSpec{Path: `src\win\main.py`}.Extension())
}

func TestDescribe(t *testing.T) {
	spec := Spec{Summary: "A toy ETL.", Tasks: []string{"load", "transform"}}
	out := spec.Describe()

	assert.Contains(t, out, "A toy ETL.")
	assert.Contains(t, out, "- load")
}
