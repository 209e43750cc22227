package agent

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OnisOris/devopsys/internal/verify"
)

func TestVerifierEmitsVerdictJSON(t *testing.T) {
	model := &stubModel{reply: `{"ok": true, "reason": "clean", "suggested_prompt": "keep"}`}
	v := NewVerifier(verify.NewEngine(verify.NewSandbox(), nil))

	res, err := v.Run(context.Background(), model, Request{
		Task:        "python helper",
		PlanContext: `{"mode": "syntax", "filename": "script.py"}`,
		Workspace:   "print('ok')\n",
	})

	require.NoError(t, err)
	var verdict verify.Verdict
	require.NoError(t, json.Unmarshal([]byte(res.Text), &verdict))
	assert.True(t, verdict.OK)
}

func TestVerifierForcesFailureOnBrokenSyntax(t *testing.T) {
	model := &stubModel{reply: `{"ok": true, "reason": "model is too generous"}`}
	v := NewVerifier(verify.NewEngine(verify.NewSandbox(), nil))

	res, err := v.Run(context.Background(), model, Request{
		Task:        "python helper",
		PlanContext: `{"mode": "syntax"}`,
		Workspace:   "def f(:\n",
	})

	require.NoError(t, err)
	var verdict verify.Verdict
	require.NoError(t, json.Unmarshal([]byte(res.Text), &verdict))
	assert.False(t, verdict.OK)
	assert.Contains(t, verdict.Missing, "return syntactically valid Python code")
}

func TestVerifierToleratesMalformedMetadata(t *testing.T) {
	model := &stubModel{reply: `{"ok": true, "reason": "clean", "suggested_prompt": "keep"}`}
	v := NewVerifier(verify.NewEngine(verify.NewSandbox(), nil))

	_, err := v.Run(context.Background(), model, Request{
		Task:        "dockerfile for app",
		PlanContext: "not json",
		Workspace:   "FROM alpine\n",
	})

	require.NoError(t, err)
}
