package verify

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

const fallbackSuggestion = "Regenerate the script to satisfy the task."

var jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)

// ParseVerdict decodes a model judgment into a canonical Verdict. The model
// may wrap the object in prose or mistype individual fields; every field is
// normalized before any business logic looks at it. A response with no
// decodable object yields a conservative failing verdict.
func ParseVerdict(raw string) Verdict {
	fallback := Verdict{
		OK:              false,
		Reason:          "verifier response not understood",
		Missing:         []string{},
		Forbidden:       []string{},
		SuggestedPrompt: fallbackSuggestion,
	}

	text := strings.TrimSpace(raw)
	if text == "" {
		return fallback
	}
	if match := jsonObjectRe.FindString(text); match != "" {
		text = match
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return fallback
	}

	return Verdict{
		OK:              truthy(data["ok"]),
		Reason:          asString(data["reason"]),
		Missing:         asStringList(data["missing"]),
		Forbidden:       asStringList(data["forbidden"]),
		SuggestedPrompt: asString(data["suggested_prompt"]),
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "yes":
			return true
		}
		return false
	case float64:
		return t != 0
	default:
		return false
	}
}

func asString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

func asStringList(v any) []string {
	switch t := v.(type) {
	case nil:
		return []string{}
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := asString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		if s := asString(t); s != "" {
			return []string{s}
		}
		return []string{}
	}
}

// ApplyOverrides merges deterministic facts from the execution report into
// the model's judgment. A failing static check or a bad exit code always
// forces OK=false; the GPU heuristic demands graceful degradation when
// nvidia-smi is missing.
func ApplyOverrides(v Verdict, report ExecutionReport, task string) Verdict {
	appendReason := func(msg string) {
		if msg == "" {
			return
		}
		if v.Reason == "" {
			v.Reason = msg
			return
		}
		v.Reason = v.Reason + "; " + msg
	}
	addMissing := func(msg string) {
		if msg == "" {
			return
		}
		for _, existing := range v.Missing {
			if existing == msg {
				return
			}
		}
		v.Missing = append(v.Missing, msg)
	}

	language := strings.ToLower(report.Language)
	label := "code"
	switch language {
	case LangPython:
		label = "Python code"
	case LangBash:
		label = "Bash script"
	case LangProject:
		label = "project runtime"
	}

	if !report.CompilationOK {
		v.OK = false
		if report.CompileError != "" {
			appendReason(report.CompileError)
		} else {
			appendReason("failed static analysis")
		}
		addMissing("return syntactically valid " + label)
	}

	executed := language == LangPython || language == LangBash
	if report.CompilationOK && executed && report.Mode != ModeSyntax {
		switch {
		case report.ExitCode == nil:
			v.OK = false
			appendReason("script did not complete execution")
			addMissing("ensure the script runs to completion and exits with code 0")
		case *report.ExitCode != 0:
			v.OK = false
			appendReason(fmt.Sprintf("script exited with code %d", *report.ExitCode))
			addMissing("ensure the script completes successfully")
		}
	}

	if language == LangProject {
		switch {
		case report.ExitCode == nil:
			v.OK = false
			appendReason("project execution did not finish")
		case *report.ExitCode != 0:
			v.OK = false
			appendReason(fmt.Sprintf("project command exited with code %d", *report.ExitCode))
		}
	}

	taskLC := strings.ToLower(task)
	stderrLC := strings.ToLower(report.Stderr)
	if strings.Contains(taskLC, "gpu") {
		if report.ExitCode != nil && *report.ExitCode != 0 {
			addMissing("handle unavailable GPU or missing nvidia-smi gracefully")
		}
		if v.OK && strings.TrimSpace(report.Stdout) == "" {
			v.OK = false
			appendReason("GPU output was empty")
			addMissing("print the current GPU usage when available")
		}
		if strings.Contains(stderrLC, "nvidia-smi") &&
			(strings.Contains(stderrLC, "not found") || strings.Contains(stderrLC, "no such file")) {
			v.OK = false
			appendReason("nvidia-smi command is unavailable")
			addMissing("detect missing nvidia-smi and emit a friendly message without failing")
		}
	}

	v.Reason = strings.TrimSpace(v.Reason)
	v.SuggestedPrompt = strings.TrimSpace(v.SuggestedPrompt)
	if v.SuggestedPrompt == "" {
		v.SuggestedPrompt = fallbackSuggestion
	}
	if v.Missing == nil {
		v.Missing = []string{}
	}
	if v.Forbidden == nil {
		v.Forbidden = []string{}
	}
	return v
}
