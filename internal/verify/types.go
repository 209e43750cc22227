// Package verify implements the artifact compliance engine: language
// detection, static syntax checks, sandboxed execution and verdict merging.
package verify

// Verification modes.
const (
	ModeAuto           = "auto"
	ModeSyntax         = "syntax"
	ModeProjectRuntime = "project_runtime"
)

// Languages the engine can reason about.
const (
	LangPython     = "python"
	LangBash       = "bash"
	LangDockerfile = "dockerfile"
	LangText       = "text"
	LangProject    = "project"
	LangUnknown    = "unknown"
)

// ExecutionReport is the structured result of static-checking and optionally
// executing one artifact. Created fresh per verification call, never mutated.
type ExecutionReport struct {
	Language      string
	Mode          string
	CompilationOK bool
	CompileError  string
	Stdout        string
	Stderr        string
	ExitCode      *int
	Invocation    string
}

// Verdict is the structured compliance judgment for one artifact. It is
// derived by merging a model judgment with deterministic overrides from the
// ExecutionReport; a failing static check or non-zero exit always forces
// OK=false regardless of the judgment.
type Verdict struct {
	OK              bool     `json:"ok"`
	Reason          string   `json:"reason"`
	Missing         []string `json:"missing"`
	Forbidden       []string `json:"forbidden"`
	SuggestedPrompt string   `json:"suggested_prompt"`
}

// ProjectMeta carries the runtime-check target for an already materialized
// project: where it lives and which declared entrypoint to smoke-test.
type ProjectMeta struct {
	Root       string   `json:"root"`
	Entrypoint string   `json:"entrypoint"`
	Args       []string `json:"args"`
}
