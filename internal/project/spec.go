// Package project holds the multi-file project blueprint: tolerant plan
// normalization, capability selection per file, instruction/context assembly,
// collision-free root allocation and containment checks.
package project

import (
	"encoding/json"
	"fmt"
	"path"
	"regexp"
	"strings"
)

// FileSpec describes one file the architect wants materialized.
type FileSpec struct {
	Path           string
	Goal           string
	CapabilityHint string
	Requirements   []string
}

// NormalizedPath returns the forward-slash form of the file path.
func (f FileSpec) NormalizedPath() string {
	return strings.TrimSpace(strings.ReplaceAll(f.Path, "\\", "/"))
}

// Extension returns the lowercase extension used for capability selection.
// Dotfiles other than .env are treated as their own extension; a bare
// "Dockerfile" maps to "dockerfile".
func (f FileSpec) Extension() string {
	name := path.Base(f.NormalizedPath())
	if strings.HasPrefix(name, ".") && name != ".env" {
		return name
	}
	if strings.EqualFold(name, "dockerfile") {
		return "dockerfile"
	}
	return strings.ToLower(path.Ext(name))
}

// Spec is a parsed project blueprint.
type Spec struct {
	Name     string
	Summary  string
	Language string
	Tasks    []string
	Files    []FileSpec
}

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slug derives the directory-safe project name: lowercase, non-alphanumeric
// runs collapsed to single hyphens.
func (s Spec) Slug() string {
	slug := slugRe.ReplaceAllString(strings.ToLower(s.Name), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "project"
	}
	return slug
}

// Describe renders the summary plus the key capability bullets.
func (s Spec) Describe() string {
	var lines []string
	if summary := strings.TrimSpace(s.Summary); summary != "" {
		lines = append(lines, summary)
	}
	if len(s.Tasks) > 0 {
		lines = append(lines, "Key capabilities:")
		for _, item := range s.Tasks {
			lines = append(lines, "- "+item)
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// ParseSpec decodes a project plan from its JSON form, coercing mistyped
// fields. Entries without a path are dropped. Only structural failures are
// errors; an empty file list parses fine and is the caller's call to reject.
func ParseSpec(payload string) (Spec, error) {
	var data map[string]any
	if err := json.Unmarshal([]byte(payload), &data); err != nil {
		return Spec{}, fmt.Errorf("project plan is not valid JSON: %w", err)
	}

	spec := Spec{
		Name:     strings.TrimSpace(coerceString(data["project_name"])),
		Summary:  strings.TrimSpace(coerceString(data["summary"])),
		Language: strings.ToLower(strings.TrimSpace(coerceString(data["language"]))),
		Tasks:    coerceStringList(data["tasks"]),
	}
	if spec.Name == "" {
		spec.Name = "project"
	}
	if spec.Language == "" {
		spec.Language = "unknown"
	}

	rawFiles, _ := data["files"].([]any)
	for _, item := range rawFiles {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		filePath := strings.TrimSpace(coerceString(entry["path"]))
		if filePath == "" {
			continue
		}
		spec.Files = append(spec.Files, FileSpec{
			Path:           filePath,
			Goal:           strings.TrimSpace(coerceString(entry["goal"])),
			CapabilityHint: strings.ToLower(strings.TrimSpace(coerceString(entry["agent"]))),
			Requirements:   coerceStringList(entry["requirements"]),
		})
	}
	return spec, nil
}

func coerceString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprintf("%v", t)
	}
}

func coerceStringList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := strings.TrimSpace(coerceString(item)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
