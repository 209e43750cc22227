// Package workspace builds the bounded, read-only workspace snapshot handed
// to the planner and to generating capabilities as advisory context.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	// MaxFiles bounds how many files the snapshot describes.
	MaxFiles = 20
	// MaxExcerptBytes bounds the per-file excerpt length.
	MaxExcerptBytes = 2000
)

var ignoredNames = map[string]bool{
	".git":        true,
	".venv":       true,
	"__pycache__": true,
	"node_modules": true,
	"vendor":      true,
	".mypy_cache": true,
	".pytest_cache": true,
	".devopsys":   true,
}

// Snapshot describes up to MaxFiles files under root: name, size and a
// truncated excerpt. Failures to read individual entries are skipped; the
// snapshot is advisory and never required for correctness.
func Snapshot(root string) string {
	if root == "" {
		if wd, err := os.Getwd(); err == nil {
			root = wd
		} else {
			root = "."
		}
	}
	abs, err := filepath.Abs(root)
	if err == nil {
		root = abs
	}

	files := collectFiles(root, MaxFiles)

	var b strings.Builder
	fmt.Fprintf(&b, "Workspace root: %s\nFiles observed:\n", root)
	if len(files) == 0 {
		b.WriteString("- (no files detected)\n")
	}
	for _, path := range files {
		rel, _ := filepath.Rel(root, path)
		if info, err := os.Stat(path); err == nil {
			fmt.Fprintf(&b, "- %s (%d bytes)\n", filepath.ToSlash(rel), info.Size())
		} else {
			fmt.Fprintf(&b, "- %s (size unavailable)\n", filepath.ToSlash(rel))
		}
	}

	b.WriteString("\nFile excerpts (truncated):\n")
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil || len(data) == 0 {
			continue
		}
		excerpt := string(data)
		if len(excerpt) > MaxExcerptBytes {
			excerpt = excerpt[:MaxExcerptBytes]
		}
		rel, _ := filepath.Rel(root, path)
		fmt.Fprintf(&b, "--- %s ---\n%s\n", filepath.ToSlash(rel), strings.TrimRight(excerpt, "\n"))
	}

	return strings.TrimSpace(b.String())
}

// collectFiles walks root depth-first with a deterministic order, stopping
// at the file cap.
func collectFiles(root string, maxFiles int) []string {
	var files []string
	stack := []string{root}

	for len(stack) > 0 && len(files) < maxFiles {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(current)
		if err != nil {
			continue
		}
		// Directories after files, both alphabetical, matching the
		// original traversal order.
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].IsDir() != entries[j].IsDir() {
				return !entries[i].IsDir()
			}
			return entries[i].Name() < entries[j].Name()
		})

		for _, entry := range entries {
			if ignoredNames[entry.Name()] {
				continue
			}
			full := filepath.Join(current, entry.Name())
			if entry.IsDir() {
				stack = append(stack, full)
				continue
			}
			files = append(files, full)
			if len(files) >= maxFiles {
				break
			}
		}
	}
	return files
}
