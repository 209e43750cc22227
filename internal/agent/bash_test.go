package agent

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBashStripsFences(t *testing.T) {
	raw := "```bash\n#!/usr/bin/env bash\nset -euo pipefail\necho hi\n```"
	code := normalizeBash(raw, "task")

	assert.NotContains(t, code, "```")
	assert.Contains(t, code, "echo hi")
}

func TestNormalizeBashAddsPrologue(t *testing.T) {
	code := normalizeBash("echo hi", "task")

	assert.True(t, strings.HasPrefix(code, "#!/usr/bin/env bash\n"))
	assert.Contains(t, code, "set -euo pipefail")
	assert.True(t, strings.HasSuffix(code, "\n"))
}

func TestNormalizeBashKeepsExistingPrologue(t *testing.T) {
	raw := "#!/bin/bash\nset -euo pipefail\necho hi\n"
	code := normalizeBash(raw, "task")

	assert.Equal(t, 1, strings.Count(code, "set -euo pipefail"))
	assert.True(t, strings.HasPrefix(code, "#!/bin/bash"))
}

func TestNormalizeBashEmptyInputYieldsPlaceholder(t *testing.T) {
	code := normalizeBash("", "backup the database")

	assert.Contains(t, code, "TODO: implement the following task -> backup the database")
	assert.Contains(t, code, "set -euo pipefail")
}
