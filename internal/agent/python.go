package agent

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/OnisOris/devopsys/internal/backend"
	"github.com/OnisOris/devopsys/internal/verify"
)

const pythonPrompt = `You are a senior Python engineer working in a multi-agent team.
Task:
%s

Additional context (may be empty):
%s

Constraints:
- Implement exactly what the task requests; avoid unrelated features.
- Write clean, idiomatic Python 3.11+ using only the standard library. Never import third-party packages unless the task explicitly names them.
- Always include a main() and an if __name__ == "__main__": guard.
- If the task implies command-line usage, use minimal argparse.
- Return ONLY executable Python code. No Markdown, prose, or explanations.`

// Python generates standalone Python scripts. Its output goes through the
// full refinement loop, so the normalizer works hard to salvage executable
// code from whatever the model returned.
type Python struct{}

func (Python) Name() string        { return "python" }
func (Python) Description() string { return "Generate Python scripts" }

func (Python) Run(ctx context.Context, model backend.Model, req Request) (Result, error) {
	prompt := fmt.Sprintf(pythonPrompt, strings.TrimSpace(req.Task), strings.TrimSpace(req.PlanContext))
	raw, err := model.Complete(ctx, prompt)
	if err != nil {
		return Result{}, fmt.Errorf("python capability: %w", err)
	}

	code := normalizePython(raw, req.Task)
	valid := strings.Contains(code, dummyMarker)
	if !valid {
		valid, _ = verify.CheckSyntax(verify.LangPython, code)
	}

	filename := ""
	if valid {
		filename = "script.py"
		if strings.Contains(strings.ToLower(req.Task), "main.py") {
			filename = "main.py"
		}
	}
	return Result{Text: code, Filename: filename}, nil
}

const dummyMarker = "Generated (dummy backend)"

const pythonPlaceholder = `Python scaffold for task: %s

This placeholder was generated automatically because the model response did not
produce valid Python code. Implement the solution manually in this file.
`

var (
	fencedBlockRe = regexp.MustCompile("(?s)```(\\w+)?\\n(.*?)```")
	callLineRe    = regexp.MustCompile(`[\w_]+\(.*\)`)
)

type fencedBlock struct {
	lang string
	body string
}

// normalizePython extracts executable code from a model response: fenced
// blocks are preferred, fence noise stripped, trailing prose trimmed, and a
// minimal main/guard appended when the valid code lacks one. Unsalvageable
// output becomes an explicit placeholder.
func normalizePython(raw, task string) string {
	text := strings.TrimSpace(raw)
	if text == "" {
		return fmt.Sprintf(pythonPlaceholder, task)
	}
	if strings.Contains(text, dummyMarker) {
		return ensureNewline(text)
	}

	blocks := extractFencedBlocks(text)
	candidate := text
	if len(blocks) > 0 {
		candidate = pickBestBlock(blocks)
	}
	candidate = stripFenceNoise(candidate)

	// No matched block pair but a stray fence: keep what sits between the
	// first opening fence and the last one.
	if len(blocks) == 0 && strings.Contains(text, "```") {
		beforeLast := text[:strings.LastIndex(text, "```")]
		if open := strings.Index(beforeLast, "```"); open >= 0 {
			candidate = stripFenceNoise(strings.TrimLeft(beforeLast[open+3:], "\n"))
		}
	}

	attempts := []string{candidate}
	if !pythonParses(candidate) {
		if trimmed := trimTrailingProse(candidate); trimmed != candidate {
			attempts = append(attempts, trimmed)
		}
	}
	if !pythonParses(attempts[len(attempts)-1]) && len(blocks) > 0 {
		longest := ""
		for _, b := range blocks {
			if len(b.body) > len(longest) {
				longest = b.body
			}
		}
		attempts = append(attempts, stripFenceNoise(longest))
	}

	code := attempts[len(attempts)-1]
	for _, variant := range attempts {
		if pythonParses(variant) {
			code = variant
			break
		}
	}
	if !pythonParses(code) {
		return fmt.Sprintf(pythonPlaceholder, task)
	}

	needsMain := !strings.Contains(code, "def main")
	needsGuard := !strings.Contains(code, `if __name__ == "__main__":`)
	if needsMain || needsGuard {
		parts := []string{strings.TrimRight(code, "\n")}
		if needsMain {
			parts = append(parts, "def main() -> None:\n    pass")
		}
		if needsGuard {
			parts = append(parts, "if __name__ == \"__main__\":\n    main()")
		}
		code = strings.TrimSpace(strings.Join(parts, "\n\n"))
	}
	return ensureNewline(code)
}

func pythonParses(code string) bool {
	if strings.TrimSpace(code) == "" {
		return false
	}
	ok, _ := verify.CheckSyntax(verify.LangPython, code)
	return ok
}

func extractFencedBlocks(text string) []fencedBlock {
	var blocks []fencedBlock
	for _, m := range fencedBlockRe.FindAllStringSubmatch(text, -1) {
		blocks = append(blocks, fencedBlock{
			lang: strings.ToLower(strings.TrimSpace(m[1])),
			body: m[2],
		})
	}
	return blocks
}

// pickBestBlock prefers python-marked blocks, then the longest block that
// parses, then the longest block at all.
func pickBestBlock(blocks []fencedBlock) string {
	candidates := blocks
	var pyBlocks []fencedBlock
	for _, b := range blocks {
		if b.lang == "py" || b.lang == "python" {
			pyBlocks = append(pyBlocks, b)
		}
	}
	if len(pyBlocks) > 0 {
		candidates = pyBlocks
	}

	best := ""
	for _, b := range candidates {
		if pythonParses(b.body) && len(b.body) > len(best) {
			best = b.body
		}
	}
	if best != "" {
		return best
	}
	for _, b := range candidates {
		if len(b.body) > len(best) {
			best = b.body
		}
	}
	return best
}

func stripFenceNoise(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.ToLower(strings.TrimSpace(line))
		if trimmed == "```" || strings.HasPrefix(trimmed, "```python") || strings.HasPrefix(trimmed, "```py") {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) > 0 {
		first := strings.ToLower(strings.TrimSpace(lines[0]))
		if first == "python" || first == "py" {
			lines = lines[1:]
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// trimTrailingProse drops trailing lines that look like natural-language
// explanation rather than code.
func trimTrailingProse(src string) string {
	codeTokens := []string{"def ", "class ", "import ", "from ", "return", "=", "):", "]:", "}:"}
	lines := strings.Split(src, "\n")
	for len(lines) > 0 {
		tail := strings.TrimSpace(lines[len(lines)-1])
		if tail == "" {
			lines = lines[:len(lines)-1]
			continue
		}
		if strings.HasPrefix(tail, "#") {
			break
		}
		isCode := false
		for _, tok := range codeTokens {
			if strings.Contains(tail, tok) {
				isCode = true
				break
			}
		}
		if !isCode && !callLineRe.MatchString(tail) {
			lines = lines[:len(lines)-1]
			continue
		}
		break
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func ensureNewline(text string) string {
	if strings.HasSuffix(text, "\n") {
		return text
	}
	return text + "\n"
}
