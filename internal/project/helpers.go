package project

import (
	"encoding/json"
	"fmt"
	"path"
	"strings"
)

// ReadyFile is a previously materialized file offered as context to later
// capability invocations.
type ReadyFile struct {
	Path    string
	Content string
}

// Context bounds: later files see at most this many earlier files, each
// truncated to the byte cap.
const (
	maxContextFiles   = 5
	maxContextExcerpt = 2000
)

// SelectCapability picks the capability for one file: a registered explicit
// hint wins, then the extension convention, then the generic text capability.
// has reports whether a capability name is registered.
func SelectCapability(file FileSpec, spec Spec, has func(string) bool) string {
	if hint := file.CapabilityHint; hint != "" && has != nil && has(hint) {
		return hint
	}

	switch file.Extension() {
	case ".py":
		return "python"
	case ".rs":
		return "rust"
	case ".sh", ".bash":
		return "bash"
	case ".dockerfile", "dockerfile":
		return "docker"
	case ".md", ".toml", ".yaml", ".yml", ".json", ".txt", ".ini", ".cfg":
		return "universal"
	case "":
		if spec.Language == "python" && strings.HasPrefix(strings.ToLower(file.Goal), "module") {
			return "python"
		}
	}
	if strings.EqualFold(path.Base(file.NormalizedPath()), "dockerfile") {
		return "docker"
	}
	return "universal"
}

// BuildInstruction assembles the per-file generation instruction from the
// project summary, the file goal and its requirements.
func BuildInstruction(file FileSpec, spec Spec) string {
	details := []string{
		fmt.Sprintf("Create the file '%s' for the project '%s'.", file.NormalizedPath(), spec.Name),
	}
	if file.Goal != "" {
		details = append(details, "Goal: "+file.Goal+".")
	}
	if summary := strings.TrimSpace(spec.Summary); summary != "" {
		details = append(details, "Project summary: "+summary+".")
	}
	if spec.Language != "" {
		details = append(details, "Primary language: "+spec.Language+".")
	}
	if len(spec.Tasks) > 0 {
		details = append(details, "Key capabilities:")
		for _, item := range spec.Tasks {
			details = append(details, "- "+item)
		}
	}
	if len(file.Requirements) > 0 {
		details = append(details, "File requirements:")
		for _, req := range file.Requirements {
			details = append(details, "- "+req)
		}
	}
	details = append(details, "Ensure the file is production-ready and consistent with the rest of the project.")
	return strings.TrimSpace(strings.Join(details, "\n"))
}

// ContextPayload renders the plan context handed to the chosen capability.
// The universal capability expects a JSON payload; code capabilities get a
// plain-text brief with excerpts of recently written files.
func ContextPayload(capability string, file FileSpec, spec Spec, ready []ReadyFile) string {
	recent := ready
	if len(recent) > maxContextFiles {
		recent = recent[len(recent)-maxContextFiles:]
	}

	if capability == "universal" {
		names := make([]string, 0, len(recent))
		for _, rf := range recent {
			names = append(names, rf.Path)
		}
		payload := map[string]any{
			"path":            file.NormalizedPath(),
			"project_summary": spec.Summary,
			"requirements":    file.Requirements,
			"language":        spec.Language,
			"ready_files":     names,
		}
		out, err := json.Marshal(payload)
		if err != nil {
			return "{}"
		}
		return string(out)
	}

	var lines []string
	if spec.Summary != "" {
		lines = append(lines, spec.Summary)
	}
	if file.Goal != "" {
		lines = append(lines, "File goal: "+file.Goal)
	}
	if len(file.Requirements) > 0 {
		lines = append(lines, "Requirements:")
		for _, req := range file.Requirements {
			lines = append(lines, "- "+req)
		}
	}
	if len(recent) > 0 {
		lines = append(lines, "Existing files:")
		for _, rf := range recent {
			excerpt := rf.Content
			if len(excerpt) > maxContextExcerpt {
				excerpt = excerpt[:maxContextExcerpt]
			}
			lines = append(lines, "- "+rf.Path)
			if strings.TrimSpace(excerpt) != "" {
				lines = append(lines, "```", strings.TrimRight(excerpt, "\n"), "```")
			}
		}
	}
	return strings.Join(lines, "\n")
}

// Summarize renders the scaffold report listing the allocated root and every
// generated file.
func Summarize(root string, files []FileSpec) string {
	lines := []string{"Project scaffold created at " + root}
	if len(files) == 0 {
		return lines[0]
	}
	lines = append(lines, "Generated files:")
	for _, file := range files {
		lines = append(lines, "- "+file.NormalizedPath())
	}
	return strings.Join(lines, "\n")
}
