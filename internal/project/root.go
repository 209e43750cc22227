package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrPathEscapesRoot is returned when a plan file would land outside the
// allocated project root.
var ErrPathEscapesRoot = errors.New("project file path escapes project root")

// maxRootAttempts bounds the suffix search during root allocation.
const maxRootAttempts = 1000

// AllocateRoot creates a fresh project directory under base: <slug>, then
// <slug>-2, <slug>-3 and so on. Atomic directory creation keeps concurrent
// allocations against the same base collision-free.
func AllocateRoot(base, slug string) (string, error) {
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve base directory: %w", err)
		}
		base = wd
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return "", fmt.Errorf("prepare base directory: %w", err)
	}
	if slug == "" {
		slug = "project"
	}

	for attempt := 1; attempt <= maxRootAttempts; attempt++ {
		name := slug
		if attempt > 1 {
			name = fmt.Sprintf("%s-%d", slug, attempt)
		}
		candidate := filepath.Join(base, name)
		err := os.Mkdir(candidate, 0o755)
		if err == nil {
			return candidate, nil
		}
		if !os.IsExist(err) {
			return "", fmt.Errorf("create project root %s: %w", candidate, err)
		}
	}
	return "", fmt.Errorf("no free project root for slug %q under %s", slug, base)
}

// ResolveWithin resolves a normalized plan path against root, rejecting any
// path that would escape it. The check runs before any write.
func ResolveWithin(root, relPath string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(strings.TrimSpace(relPath)))
	if cleaned == "." || cleaned == "" {
		return "", fmt.Errorf("%w: empty path", ErrPathEscapesRoot)
	}
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapesRoot, relPath)
	}

	resolved := filepath.Join(root, cleaned)
	rel, err := filepath.Rel(root, resolved)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrPathEscapesRoot, relPath)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrPathEscapesRoot, relPath)
	}
	return resolved, nil
}

// WriteFile writes content under root at the plan-relative path, creating
// parent directories and guaranteeing a single trailing newline.
func WriteFile(root, relPath, content string) (string, error) {
	target, err := ResolveWithin(root, relPath)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create parent directories for %s: %w", relPath, err)
	}
	text := strings.TrimRight(content, "\n") + "\n"
	if err := os.WriteFile(target, []byte(text), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", relPath, err)
	}
	return target, nil
}
