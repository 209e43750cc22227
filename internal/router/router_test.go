package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyDockerfileKeywordWinsOutright(t *testing.T) {
	// "dockerfile" carries the exact-keyword bonus, so docker must beat
	// every competing capability even when their keywords also appear.
	route := Classify("Write a Dockerfile for a python fastapi service")

	assert.Equal(t, "docker", route.Capability)
	// The dockerfile pattern plus the bonus outscores python's two hits.
	assert.Greater(t, route.Score, Classify("python fastapi service").Score)
}

func TestClassifyTable(t *testing.T) {
	cases := []struct {
		task string
		want string
	}{
		{"containerize the web service", "docker"},
		{"draw a circle with python", "python"},
		{"write a cargo build helper in rust", "rust"},
		{"rsync backup shell script with cron", "bash"},
		{"install docker on ubuntu with systemd", "linux"},
		{"scaffold a project structure with pyproject.toml", "project_architect"},
		{"нарисуй круг", "python"},
	}

	for _, tc := range cases {
		t.Run(tc.task, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.task).Capability)
		})
	}
}

func TestClassifyFallback(t *testing.T) {
	route := Classify("do something unspecified")

	assert.Equal(t, DefaultCapability, route.Capability)
	assert.Equal(t, 0, route.Score)
	assert.Equal(t, "fallback to python", route.Reason)
}

func TestClassifyTieKeepsFirstSeen(t *testing.T) {
	// One docker hit and one rust hit: docker comes first in the table
	// and a tie must not displace it.
	route := Classify("container for rust")
	assert.Equal(t, "docker", route.Capability)
}

func TestClassifyIsDeterministic(t *testing.T) {
	task := "bootstrap a python project with docker"
	first := Classify(task)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Classify(task))
	}
}

func TestProjectIntent(t *testing.T) {
	assert.True(t, ProjectIntent("Bootstrap a sample python project"))
	assert.True(t, ProjectIntent("create README.md and src layout"))
	assert.False(t, ProjectIntent("print the current GPU usage"))
}
