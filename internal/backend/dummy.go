package backend

import (
	"context"
	"fmt"
)

const dummyTemplate = `# Generated (dummy backend):

Request:
%s

Response (template):
- This is a deterministic placeholder used in tests.
- Switch the backend to 'ollama' for real generation.
`

// Dummy is a deterministic backend used in tests and offline runs. Its
// output carries a recognizable marker so downstream normalizers pass it
// through untouched.
type Dummy struct{}

// NewDummy returns the dummy backend.
func NewDummy() *Dummy { return &Dummy{} }

// Complete echoes the prompt inside a fixed template.
func (d *Dummy) Complete(_ context.Context, prompt string) (string, error) {
	return fmt.Sprintf(dummyTemplate, prompt), nil
}
