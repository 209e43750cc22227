package verify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Default sandbox limits.
const (
	DefaultScriptTimeout  = 10 * time.Second
	DefaultRuntimeTimeout = 45 * time.Second
	DefaultCaptureLimit   = 2000
)

// Sandbox executes artifacts as child processes with hard wall-clock
// timeouts. Spawn failures and timeouts are folded into the report as
// stderr text, never raised to the caller.
type Sandbox struct {
	ScriptTimeout  time.Duration
	RuntimeTimeout time.Duration
	CaptureLimit   int
	LookPath       func(string) (string, error)
}

// NewSandbox returns a sandbox with default limits.
func NewSandbox() *Sandbox {
	return &Sandbox{
		ScriptTimeout:  DefaultScriptTimeout,
		RuntimeTimeout: DefaultRuntimeTimeout,
		CaptureLimit:   DefaultCaptureLimit,
		LookPath:       exec.LookPath,
	}
}

// Execute static-checks and, unless mode is syntax-only, runs the artifact.
// Dockerfiles, plain text and unknown languages are never executed.
func (s *Sandbox) Execute(ctx context.Context, task, code, mode, filename string, project *ProjectMeta) ExecutionReport {
	if mode == "" {
		mode = ModeAuto
	}
	if mode == ModeProjectRuntime {
		return s.runProject(ctx, project)
	}

	language := DetectLanguage(task, code, filename)
	switch language {
	case LangPython:
		return s.runPython(ctx, code, mode, filename)
	case LangBash:
		return s.runBash(ctx, code, mode)
	default:
		return ExecutionReport{Language: language, Mode: mode, CompilationOK: true}
	}
}

func (s *Sandbox) runPython(ctx context.Context, code, mode, filename string) ExecutionReport {
	report := ExecutionReport{Language: LangPython, Mode: mode}
	report.CompilationOK, report.CompileError = CheckSyntax(LangPython, code)

	if !report.CompilationOK || mode == ModeSyntax {
		return report
	}

	dir, err := os.MkdirTemp("", "devopsys-py-*")
	if err != nil {
		report.Stderr = fmt.Sprintf("execution failed: %v", err)
		return report
	}
	defer os.RemoveAll(dir)

	script := filepath.Join(dir, "script.py")
	if err := os.WriteFile(script, []byte(code), 0o644); err != nil {
		report.Stderr = fmt.Sprintf("execution failed: %v", err)
		return report
	}

	interpreter := "python3"
	if _, err := s.lookPath(interpreter); err != nil {
		interpreter = "python"
	}
	s.runCommand(ctx, &report, s.ScriptTimeout, dir, nil, interpreter, script)
	return report
}

func (s *Sandbox) runBash(ctx context.Context, code, mode string) ExecutionReport {
	report := ExecutionReport{Language: LangBash, Mode: mode}
	report.CompilationOK, report.CompileError = CheckSyntax(LangBash, code)

	if !report.CompilationOK || mode == ModeSyntax {
		return report
	}

	dir, err := os.MkdirTemp("", "devopsys-sh-*")
	if err != nil {
		report.Stderr = fmt.Sprintf("execution failed: %v", err)
		return report
	}
	defer os.RemoveAll(dir)

	script := filepath.Join(dir, "script.sh")
	if err := os.WriteFile(script, []byte(code), 0o644); err != nil {
		report.Stderr = fmt.Sprintf("execution failed: %v", err)
		return report
	}

	// Scripts that consume a positional argument get a throwaway sample
	// directory so directory-processing tasks have something to chew on.
	args := []string{script}
	if bashDollarRe.MatchString(code) {
		sample := filepath.Join(dir, "sample")
		if err := os.MkdirAll(sample, 0o755); err == nil {
			os.WriteFile(filepath.Join(sample, "file1.txt"), []byte("sample"), 0o644)
			os.WriteFile(filepath.Join(sample, ".hidden"), []byte("hidden"), 0o644)
			args = append(args, sample)
		}
	}

	env := append(os.Environ(), "LC_ALL=C")
	s.runCommand(ctx, &report, s.ScriptTimeout, dir, env, "bash", args...)
	return report
}

func (s *Sandbox) runProject(ctx context.Context, meta *ProjectMeta) ExecutionReport {
	report := ExecutionReport{Language: LangProject, Mode: ModeProjectRuntime}
	if meta == nil {
		report.CompileError = "missing project metadata"
		return report
	}
	if meta.Entrypoint == "" {
		report.CompileError = "no entrypoint defined in project.scripts"
		return report
	}
	if _, err := s.lookPath("uv"); err != nil {
		report.CompileError = "uv binary not found"
		return report
	}

	report.CompilationOK = true
	args := []string{"run", meta.Entrypoint}
	if len(meta.Args) > 0 {
		args = append(args, meta.Args...)
	} else {
		args = append(args, "--help")
	}
	env := append(os.Environ(), "CI=1", "UV_NO_COMPILE_BYTECODE=1")
	s.runCommand(ctx, &report, s.RuntimeTimeout, meta.Root, env, "uv", args...)

	if report.ExitCode == nil && report.Stderr != "" {
		report.CompilationOK = false
		report.CompileError = report.Stderr
	}
	return report
}

// runCommand executes name with args under a deadline, filling the report's
// capture fields in place.
func (s *Sandbox) runCommand(ctx context.Context, report *ExecutionReport, timeout time.Duration, dir string, env []string, name string, args ...string) {
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, name, args...)
	cmd.Dir = dir
	if env != nil {
		cmd.Env = env
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	report.Invocation = strings.Join(append([]string{name}, args...), " ")
	err := cmd.Run()

	report.Stdout = s.capture(stdout.String())
	report.Stderr = s.capture(stderr.String())

	switch {
	case runCtx.Err() == context.DeadlineExceeded:
		report.Stderr = fmt.Sprintf("execution timed out after %s", timeout)
		report.ExitCode = nil
	case err == nil:
		code := 0
		report.ExitCode = &code
	default:
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code := exitErr.ExitCode()
			report.ExitCode = &code
		} else {
			report.Stderr = s.capture(fmt.Sprintf("execution failed: %v", err))
			report.ExitCode = nil
		}
	}
}

func (s *Sandbox) capture(text string) string {
	text = strings.TrimSpace(text)
	if s.CaptureLimit > 0 && len(text) > s.CaptureLimit {
		return text[:s.CaptureLimit]
	}
	return text
}

func (s *Sandbox) lookPath(name string) (string, error) {
	if s.LookPath != nil {
		return s.LookPath(name)
	}
	return exec.LookPath(name)
}
