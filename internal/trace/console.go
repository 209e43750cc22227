package trace

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const defaultPreviewLimit = 400

var (
	ruleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	stepStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1"))
	finalStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))
	labelStyle   = lipgloss.NewStyle().Faint(true)
	panelStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	captionStyle = lipgloss.NewStyle().Italic(true).Faint(true)
)

// ConsoleObserver renders run progress to a terminal with lipgloss styling.
type ConsoleObserver struct {
	out          io.Writer
	previewLimit int
	showSnapshot bool
}

// NewConsoleObserver creates a console observer writing to out.
func NewConsoleObserver(out io.Writer) *ConsoleObserver {
	return &ConsoleObserver{out: out, previewLimit: defaultPreviewLimit}
}

// ShowWorkspaceSnapshot enables printing the workspace snapshot on start.
func (c *ConsoleObserver) ShowWorkspaceSnapshot(show bool) {
	c.showSnapshot = show
}

func (c *ConsoleObserver) rule(style lipgloss.Style, title string) {
	pad := 40 - len(title)
	if pad < 0 {
		pad = 0
	}
	fmt.Fprintln(c.out, style.Render("── "+title+" "+strings.Repeat("─", pad)))
}

func (c *ConsoleObserver) panel(title, body string) {
	fmt.Fprintln(c.out, panelStyle.Render(body))
	if title != "" {
		fmt.Fprintln(c.out, captionStyle.Render(title))
	}
}

func (c *ConsoleObserver) preview(text string) string {
	data := strings.TrimSpace(text)
	if data == "" {
		return "<empty>"
	}
	data = strings.ReplaceAll(data, "\n", " ⏎ ")
	if len(data) > c.previewLimit {
		return data[:c.previewLimit] + " …"
	}
	return data
}

func (c *ConsoleObserver) OnStart(runID, task, workspace string) {
	c.rule(ruleStyle, "Task")
	fmt.Fprintf(c.out, "%s %s\n", labelStyle.Render("run="+runID), c.preview(task))
	if c.showSnapshot {
		c.rule(ruleStyle, "Workspace Snapshot")
		c.panel("workspace", c.preview(workspace))
	}
}

func (c *ConsoleObserver) OnPlan(steps []Step) {
	c.rule(ruleStyle, "Planner")
	if len(steps) == 0 {
		fmt.Fprintln(c.out, "planner returned an empty plan; falling back to router route")
		return
	}
	for i, step := range steps {
		reason := step.Reason
		if reason == "" {
			reason = "<no reason provided>"
		}
		fmt.Fprintf(c.out, "Step %d: %s  %s\n", i+1, stepStyle.Render(step.Capability), labelStyle.Render(reason))
	}
}

func (c *ConsoleObserver) OnStepStart(step Step, instruction string) {
	c.rule(stepStyle, "Capability → "+step.Capability)
	fmt.Fprintf(c.out, "%s %s\n", labelStyle.Render("instruction"), c.preview(instruction))
}

func (c *ConsoleObserver) OnStepEnd(step Step, result Artifact) {
	details := fmt.Sprintf("size=%d chars", len(result.Text))
	if result.Filename != "" {
		details = "file=" + result.Filename + ", " + details
	}
	fmt.Fprintf(c.out, "%s %s\n", labelStyle.Render("result"), details)
	c.panel(step.Capability+" output", c.preview(result.Text))
}

func (c *ConsoleObserver) OnStepError(step Step, err error) {
	c.rule(errorStyle, "Capability Error → "+step.Capability)
	fmt.Fprintln(c.out, errorStyle.Render(err.Error()))
}

func (c *ConsoleObserver) OnFinal(result Artifact) {
	c.rule(finalStyle, "Final Result")
	if result.Filename != "" {
		fmt.Fprintln(c.out, labelStyle.Render("file="+result.Filename))
	}
	c.panel("final", c.preview(result.Text))
}
