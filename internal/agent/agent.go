// Package agent defines the capability registry: one generator per
// capability name, each turning an instruction into a single artifact.
package agent

import (
	"context"
	"sort"

	"github.com/OnisOris/devopsys/internal/backend"
	"github.com/OnisOris/devopsys/internal/verify"
)

// Request carries one capability invocation: the instruction, optional
// planner context and the read-only workspace snapshot.
type Request struct {
	Task        string
	PlanContext string
	Workspace   string
}

// Result is the artifact produced by a capability: text plus an optional
// suggested filename.
type Result struct {
	Text     string
	Filename string
}

// Agent is one registered capability.
type Agent interface {
	Name() string
	Description() string
	Run(ctx context.Context, model backend.Model, req Request) (Result, error)
}

// Registry is the closed capability set, fixed at startup and read-only
// afterwards.
type Registry struct {
	agents map[string]Agent
}

// NewRegistry builds the full capability table. The verification engine is
// shared by the verifier capability.
func NewRegistry(engine *verify.Engine) *Registry {
	r := &Registry{agents: make(map[string]Agent)}
	for _, a := range []Agent{
		&Python{},
		&Bash{},
		&Docker{},
		&Rust{},
		&Linux{},
		&Universal{},
		&Architect{},
		NewVerifier(engine),
	} {
		r.agents[a.Name()] = a
	}
	return r
}

// Get returns the named capability.
func (r *Registry) Get(name string) (Agent, bool) {
	a, ok := r.agents[name]
	return a, ok
}

// Has reports whether a capability name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.agents[name]
	return ok
}

// Names lists the registered capability names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
