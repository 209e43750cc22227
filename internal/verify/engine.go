package verify

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/OnisOris/devopsys/internal/backend"
)

const judgmentPrompt = `You are a strict code compliance verifier.
Detected language: %s.
Analyse the provided code with respect to the user task.

Task:
%s

Code:
` + "```%s\n%s\n```" + `

Static analysis:
%s

Execution (stdout):
%s

Execution (stderr):
%s

Return ONLY a JSON object with fields:
{
  "ok": true|false,
  "reason": "...",
  "missing": ["..."],
  "forbidden": ["..."],
  "suggested_prompt": "A single paragraph instruction to regenerate compliant code"
}

Rules:
- ok=true only if the code directly and sufficiently satisfies the task.
- Highlight missing functionality or gaps in "missing" (empty array if none).
- Note any disallowed or useless libraries in "forbidden".
- suggested_prompt must be actionable and self-contained; if ok=true, echo the task requirement.
- Do not include extra commentary outside the JSON.`

// Request describes one verification call.
type Request struct {
	Task     string
	Code     string
	Mode     string
	Filename string
	Project  *ProjectMeta
}

// Result bundles the merged verdict with the raw execution report.
type Result struct {
	Verdict Verdict
	Report  ExecutionReport
}

// Engine ties the sandbox to a judgment model. The model sees the task, the
// code and the execution evidence; its judgment is then corrected by the
// deterministic overrides.
type Engine struct {
	sandbox *Sandbox
	logger  *zap.Logger
}

// NewEngine creates an engine around sandbox. A nil sandbox gets defaults;
// a nil logger disables logging.
func NewEngine(sandbox *Sandbox, logger *zap.Logger) *Engine {
	if sandbox == nil {
		sandbox = NewSandbox()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{sandbox: sandbox, logger: logger}
}

// Verify runs the full pipeline for one artifact: sandbox execution, model
// judgment and deterministic merge. Model transport failures propagate as
// errors; everything the sandbox observes becomes data in the result.
func (e *Engine) Verify(ctx context.Context, model backend.Model, req Request) (Result, error) {
	report := e.sandbox.Execute(ctx, req.Task, req.Code, req.Mode, req.Filename, req.Project)

	e.logger.Debug("sandbox report",
		zap.String("language", report.Language),
		zap.String("mode", report.Mode),
		zap.Bool("compilation_ok", report.CompilationOK),
		zap.String("invocation", report.Invocation),
	)

	prompt := fmt.Sprintf(judgmentPrompt,
		orUnknown(report.Language),
		strings.TrimSpace(req.Task),
		languageFence(report.Language),
		strings.TrimSpace(req.Code),
		formatAnalysis(report, req.Filename),
		report.Stdout,
		report.Stderr,
	)

	raw, err := model.Complete(ctx, prompt)
	if err != nil {
		return Result{Report: report}, fmt.Errorf("verifier judgment: %w", err)
	}

	verdict := ApplyOverrides(ParseVerdict(raw), report, req.Task)
	return Result{Verdict: verdict, Report: report}, nil
}

func orUnknown(language string) string {
	if language == "" {
		return LangUnknown
	}
	return language
}

func languageFence(language string) string {
	switch strings.ToLower(language) {
	case LangPython, LangBash, LangDockerfile:
		return strings.ToLower(language)
	default:
		return "text"
	}
}

// formatAnalysis renders the report as the compact key=value line shown to
// the judgment model.
func formatAnalysis(report ExecutionReport, filename string) string {
	details := []string{
		"language=" + orUnknown(report.Language),
		"mode=" + report.Mode,
	}
	if filename != "" {
		details = append(details, "file="+filename)
	}
	if report.CompilationOK {
		details = append(details, "syntax=ok")
	} else {
		details = append(details, "syntax=fail:"+report.CompileError)
	}
	if report.Invocation != "" {
		details = append(details, "command="+report.Invocation)
	}
	if report.ExitCode != nil {
		details = append(details, fmt.Sprintf("exit_code=%d", *report.ExitCode))
	}
	return strings.Join(details, "; ")
}
