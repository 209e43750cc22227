// Package router implements the deterministic keyword fallback classifier.
// It maps free-text tasks onto a single capability using a static pattern
// table; the planner consults it both as a fallback and to prune plans.
package router

import (
	"fmt"
	"regexp"
	"strings"
)

// Route is the classifier outcome: the winning capability, its score and a
// human-readable reason.
type Route struct {
	Capability string
	Score      int
	Reason     string
}

// DefaultCapability is returned when no pattern matches at all.
const DefaultCapability = "python"

// dockerfileBonus rewards the unambiguous "dockerfile" keyword so container
// tasks never lose to capabilities with broader pattern sets.
const dockerfileBonus = 5

type entry struct {
	capability string
	patterns   []*regexp.Regexp
}

// Table order matters: ties keep the first-seen capability.
var table = []entry{
	{"docker", compile(
		`\bdockerfile\b`,
		`\bdocker\b`,
		`container\b`,
	)},
	{"python", compile(
		`\bpython\b`,
		`\.py\b`,
		`fastapi|uvicorn|poetry|pip|pyproject`,
		`draw|circle|plot|graph|visualise|visualize`,
		`рису(й|ет|ем)|круг|график|построй`,
	)},
	{"rust", compile(
		`\brust\b`,
		`cargo\b`,
		`\.rs\b`,
	)},
	{"bash", compile(
		`\bbash\b`,
		`shell\b`,
		`\.sh\b`,
		`cron|rsync|grep|sed|awk`,
		`launch|start|bootstrap`,
		`запуск|запусти|старт`,
	)},
	{"linux", compile(
		`\bubuntu\b`,
		`\barch\b`,
		`linux\b`,
		`apt\b|pacman\b|systemd\b`,
	)},
	{"project_architect", compile(
		`\bproject\b`,
		`\bscaffold\b`,
		`\bstructure\b`,
		`pyproject\.toml`,
		`readme\.md`,
		`\bmodule\b`,
		`\bsrc\b`,
		`проект`,
		`структур`,
		`каталог`,
	)},
}

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

// Classify scores the task against every capability's pattern list and
// returns the capability with the strictly highest score. With no matches
// at all it falls back to the default capability with score 0.
func Classify(task string) Route {
	text := strings.ToLower(task)
	var best *Route

	for _, e := range table {
		hits := 0
		for _, p := range e.patterns {
			if p.MatchString(text) {
				hits++
			}
		}
		if hits == 0 {
			continue
		}
		score := hits
		if e.capability == "docker" && strings.Contains(text, "dockerfile") {
			score += dockerfileBonus
		}
		if best == nil || score > best.Score {
			best = &Route{
				Capability: e.capability,
				Score:      score,
				Reason:     fmt.Sprintf("matched %d keywords for %s", hits, e.capability),
			}
		}
	}

	if best == nil {
		return Route{Capability: DefaultCapability, Score: 0, Reason: "fallback to python"}
	}
	return *best
}

// ProjectIntent reports whether the task matches any project-scaffolding
// pattern. The planner uses it to auto-inject a project_architect step.
func ProjectIntent(task string) bool {
	text := strings.ToLower(task)
	for _, e := range table {
		if e.capability != "project_architect" {
			continue
		}
		for _, p := range e.patterns {
			if p.MatchString(text) {
				return true
			}
		}
	}
	return false
}
