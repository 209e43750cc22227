package project

import (
	"encoding/json"
	"regexp"
	"strings"
)

var curlyQuotes = strings.NewReplacer(
	"“", `"`,
	"”", `"`,
	"„", `"`,
	"‟", `"`,
	"’", "'",
	"‘", "'",
)

var (
	lineCommentRe   = regexp.MustCompile(`(?m)//.*?$`)
	blockCommentRe  = regexp.MustCompile(`(?s)/\*.*?\*/`)
	trailingCommaRe = regexp.MustCompile(`,(\s*[}\]])`)
	embeddedObjRe   = regexp.MustCompile(`(?s)\{.*\}`)
)

// NormalizePlan turns a raw architect response into canonical plan JSON.
// Models wrap plans in fences, smart quotes, comments and trailing commas;
// the pipeline tries progressively more aggressive cleanups and finally a
// field-by-field regex extraction before giving up with an empty plan.
func NormalizePlan(raw string) []byte {
	data := decodePlan(raw)
	doc := planDoc{
		ProjectName: "project",
		Language:    "python",
		Summary:     "",
		Tasks:       []string{},
		Files:       []planFile{},
	}
	if name := strings.TrimSpace(coerceString(data["project_name"])); name != "" {
		doc.ProjectName = name
	}
	if language := strings.TrimSpace(coerceString(data["language"])); language != "" {
		doc.Language = language
	}
	doc.Summary = strings.TrimSpace(coerceString(data["summary"]))
	if tasks := coerceStringList(data["tasks"]); tasks != nil {
		doc.Tasks = tasks
	}

	if rawFiles, ok := data["files"].([]any); ok {
		for _, item := range rawFiles {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			path := strings.TrimSpace(coerceString(entry["path"]))
			if path == "" {
				continue
			}
			file := planFile{
				Path:         path,
				Goal:         strings.TrimSpace(coerceString(entry["goal"])),
				Agent:        strings.TrimSpace(coerceString(entry["agent"])),
				Requirements: coerceStringList(entry["requirements"]),
			}
			if file.Requirements == nil {
				file.Requirements = []string{}
			}
			doc.Files = append(doc.Files, file)
		}
	}

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return []byte("{}")
	}
	return out
}

type planDoc struct {
	ProjectName string     `json:"project_name"`
	Language    string     `json:"language"`
	Summary     string     `json:"summary"`
	Tasks       []string   `json:"tasks"`
	Files       []planFile `json:"files"`
}

type planFile struct {
	Path         string   `json:"path"`
	Goal         string   `json:"goal"`
	Agent        string   `json:"agent"`
	Requirements []string `json:"requirements"`
}

func decodePlan(raw string) map[string]any {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}
	}

	base := curlyQuotes.Replace(stripCodeFences(raw))

	candidates := []string{
		base,
		lineCommentRe.ReplaceAllString(blockCommentRe.ReplaceAllString(base, ""), ""),
		removeTrailingCommas(base),
		removeTrailingCommas(lineCommentRe.ReplaceAllString(blockCommentRe.ReplaceAllString(base, ""), "")),
	}

	var data map[string]any
	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		if err := json.Unmarshal([]byte(candidate), &data); err == nil && data != nil {
			break
		}
		data = nil
		if embedded := embeddedObjRe.FindString(candidate); embedded != "" {
			if err := json.Unmarshal([]byte(removeTrailingCommas(embedded)), &data); err == nil && data != nil {
				break
			}
			data = nil
		}
	}

	if data == nil || data["files"] == nil {
		if fallback := extractPlanRegex(raw); len(fallback) > 0 {
			return fallback
		}
	}
	if data == nil {
		return map[string]any{}
	}
	return data
}

func stripCodeFences(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	lines := strings.Split(text, "\n")
	for i := len(lines) - 1; i > 0; i-- {
		if strings.HasPrefix(lines[i], "```") {
			return strings.TrimSpace(strings.Join(lines[1:i], "\n"))
		}
	}
	return strings.TrimSpace(strings.Join(lines[1:], "\n"))
}

func removeTrailingCommas(text string) string {
	for {
		next := trailingCommaRe.ReplaceAllString(text, "$1")
		if next == text {
			return next
		}
		text = next
	}
}

var (
	planNameRe    = regexp.MustCompile(`"project_name"\s*:\s*"([^"]+)"`)
	planLangRe    = regexp.MustCompile(`"language"\s*:\s*"([^"]+)"`)
	planSummaryRe = regexp.MustCompile(`"summary"\s*:\s*"([^"]*)"`)
	planTasksRe   = regexp.MustCompile(`(?s)"tasks"\s*:\s*\[(.*?)\]`)
	planFileRe    = regexp.MustCompile(`(?s)\{[^{}]*?"path"\s*:\s*"[^"]+"[^{}]*?\}`)
	planPathRe    = regexp.MustCompile(`"path"\s*:\s*"([^"]+)"`)
	planGoalRe    = regexp.MustCompile(`"goal"\s*:\s*"([^"]*)"`)
	planAgentRe   = regexp.MustCompile(`"agent"\s*:\s*"([^"]*)"`)
	planReqsRe    = regexp.MustCompile(`(?s)"requirements"\s*:\s*\[(.*?)\]`)
	quotedItemRe  = regexp.MustCompile(`"([^"]+)"`)
)

// extractPlanRegex is the last-resort decode path: pull fields out one by one
// when no candidate parses as JSON.
func extractPlanRegex(text string) map[string]any {
	result := map[string]any{}

	pick := func(re *regexp.Regexp) string {
		if m := re.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1])
		}
		return ""
	}
	if name := pick(planNameRe); name != "" {
		result["project_name"] = name
	}
	if language := pick(planLangRe); language != "" {
		result["language"] = language
	}
	if summary := pick(planSummaryRe); summary != "" {
		result["summary"] = summary
	}
	if m := planTasksRe.FindStringSubmatch(text); m != nil {
		var tasks []any
		for _, item := range quotedItemRe.FindAllStringSubmatch(m[1], -1) {
			if s := strings.TrimSpace(item[1]); s != "" {
				tasks = append(tasks, s)
			}
		}
		if len(tasks) > 0 {
			result["tasks"] = tasks
		}
	}

	var files []any
	for _, block := range planFileRe.FindAllString(text, -1) {
		cleaned := removeTrailingCommas(lineCommentRe.ReplaceAllString(blockCommentRe.ReplaceAllString(curlyQuotes.Replace(block), ""), ""))
		var entry map[string]any
		if err := json.Unmarshal([]byte(cleaned), &entry); err == nil && coerceString(entry["path"]) != "" {
			files = append(files, entry)
			continue
		}

		pickBlock := func(re *regexp.Regexp) string {
			if m := re.FindStringSubmatch(block); m != nil {
				return strings.TrimSpace(m[1])
			}
			return ""
		}
		path := pickBlock(planPathRe)
		if path == "" {
			continue
		}
		rebuilt := map[string]any{"path": path}
		if goal := pickBlock(planGoalRe); goal != "" {
			rebuilt["goal"] = goal
		}
		if agent := pickBlock(planAgentRe); agent != "" {
			rebuilt["agent"] = agent
		}
		if m := planReqsRe.FindStringSubmatch(block); m != nil {
			var reqs []any
			for _, item := range quotedItemRe.FindAllStringSubmatch(m[1], -1) {
				if s := strings.TrimSpace(item[1]); s != "" {
					reqs = append(reqs, s)
				}
			}
			if len(reqs) > 0 {
				rebuilt["requirements"] = reqs
			}
		}
		files = append(files, rebuilt)
	}
	if len(files) > 0 {
		result["files"] = files
	}
	return result
}
