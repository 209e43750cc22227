package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/OnisOris/devopsys/internal/verify"
)

type stubModel struct {
	reply   string
	err     error
	prompts []string
}

func (m *stubModel) Complete(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func TestRegistryContainsClosedCapabilitySet(t *testing.T) {
	r := NewRegistry(verify.NewEngine(nil, nil))

	want := []string{"bash", "docker", "linux", "project_architect", "python", "rust", "universal", "verifier"}
	assert.Equal(t, want, r.Names())

	for _, name := range want {
		a, ok := r.Get(name)
		assert.True(t, ok, name)
		assert.Equal(t, name, a.Name())
	}
	assert.False(t, r.Has("ghost"))
}
