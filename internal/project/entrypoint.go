package project

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

type manifest struct {
	Project struct {
		Scripts map[string]string `toml:"scripts"`
	} `toml:"project"`
}

// DiscoverEntrypoint reads the generated pyproject.toml and returns the
// first declared [project.scripts] entry (alphabetical for determinism).
// A missing manifest or empty scripts table yields an empty name, not an
// error.
func DiscoverEntrypoint(root string) (string, error) {
	data, err := os.ReadFile(filepath.Join(root, "pyproject.toml"))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read pyproject.toml: %w", err)
	}

	var m manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return "", fmt.Errorf("parse pyproject.toml: %w", err)
	}
	if len(m.Project.Scripts) == 0 {
		return "", nil
	}

	names := make([]string, 0, len(m.Project.Scripts))
	for name := range m.Project.Scripts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names[0], nil
}
