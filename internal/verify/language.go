package verify

import (
	"path/filepath"
	"regexp"
	"strings"
)

var (
	pythonDefRe  = regexp.MustCompile(`\bdef\s+\w+\(`)
	bashDollarRe = regexp.MustCompile(`\$\{?1\b`)
	bashLoopRe   = regexp.MustCompile(`\bfor\s+\w+\s+in\s+"?\$\{?@\b`)
)

// DetectLanguage picks the artifact language from, in priority order, the
// filename extension, a shebang line, task keywords and finally code
// heuristics. Returns LangUnknown when nothing matches.
func DetectLanguage(task, code, filename string) string {
	taskLC := strings.ToLower(task)
	stripped := strings.TrimLeft(code, " \t\r\n")
	firstLine := ""
	if stripped != "" {
		firstLine, _, _ = strings.Cut(stripped, "\n")
	}

	if filename != "" {
		switch strings.ToLower(filepath.Ext(filename)) {
		case ".py":
			return LangPython
		case ".sh", ".bash":
			return LangBash
		case ".toml", ".md", ".txt":
			return LangText
		}
	}

	if strings.HasPrefix(firstLine, "#!") {
		if strings.Contains(firstLine, "bash") || strings.Contains(firstLine, "sh") {
			return LangBash
		}
		if strings.Contains(firstLine, "python") {
			return LangPython
		}
	}

	if strings.Contains(taskLC, "dockerfile") {
		return LangDockerfile
	}
	if strings.HasPrefix(strings.ToUpper(stripped), "FROM ") {
		return LangDockerfile
	}
	if strings.Contains(taskLC, "bash") || strings.Contains(taskLC, "shell") {
		return LangBash
	}
	if strings.Contains(taskLC, "python") {
		return LangPython
	}

	if pythonDefRe.MatchString(code) || strings.Contains(code, "import ") {
		return LangPython
	}
	if bashDollarRe.MatchString(code) || bashLoopRe.MatchString(code) {
		return LangBash
	}
	return LangUnknown
}
