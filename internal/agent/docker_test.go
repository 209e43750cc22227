package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDockerfileStripsFenceAndLeadingProse(t *testing.T) {
	raw := "Sure! Here is the Dockerfile:\n```dockerfile\n# build stage\nFROM golang:1.24-alpine AS build\nWORKDIR /src\n```\n"
	code := normalizeDockerfile(raw)

	assert.True(t, strings.HasPrefix(code, "# build stage"))
	assert.NotContains(t, code, "```")
	assert.NotContains(t, code, "Sure!")
}

func TestNormalizeDockerfileTrimsToFirstInstruction(t *testing.T) {
	raw := "This image is based on alpine.\nFROM alpine:3.20\nRUN apk add --no-cache curl\n"
	code := normalizeDockerfile(raw)

	assert.True(t, strings.HasPrefix(code, "FROM alpine:3.20"))
}

func TestNormalizeDockerfileArgFirstLine(t *testing.T) {
	raw := "ARG BASE=debian:bookworm-slim\nFROM ${BASE}\n"
	code := normalizeDockerfile(raw)

	assert.True(t, strings.HasPrefix(code, "ARG BASE"))
}

func TestDockerRunSetsConventionFilename(t *testing.T) {
	model := &stubModel{reply: "FROM alpine:3.20\n"}
	res, err := Docker{}.Run(context.Background(), model, Request{Task: "containerize"})

	require.NoError(t, err)
	assert.Equal(t, "Dockerfile", res.Filename)
}
