package cli

import (
	coreapp "depmanifest/internal/core/app"
	"depmanifest/internal/data/history"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Width(14)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)
)

func renderSummary(result coreapp.RunResult) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("KISSY module manifest"))
	b.WriteString("\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}
	row("files", fmt.Sprintf("%d", result.Stats.Files))
	row("declarations", fmt.Sprintf("%d", result.Stats.Declarations))
	row("modules", fmt.Sprintf("%d", result.Modules)+changeSince(result, result.Modules, func(p *history.Snapshot) int { return p.ModuleCount }))
	row("requires", fmt.Sprintf("%d", result.Edges)+changeSince(result, result.Edges, func(p *history.Snapshot) int { return p.EdgeCount }))
	if result.Stats.FixedNames > 0 {
		row("names fixed", fmt.Sprintf("%d", result.Stats.FixedNames))
	}
	if result.Cycles > 0 {
		row("cycles", warningStyle.Render(fmt.Sprintf("%d", result.Cycles)))
	}
	if result.Stats.Unresolved > 0 {
		row("unresolved", warningStyle.Render(fmt.Sprintf("%d", result.Stats.Unresolved)))
	}
	if result.RunID != "" {
		row("run", result.RunID)
	}
	if result.Previous != nil {
		row("previous", result.Previous.Timestamp.Local().Format(time.DateTime))
	}
	row("duration", result.Duration.Round(time.Millisecond).String())
	b.WriteString(successStyle.Render("written to " + result.OutputPath))
	return b.String()
}

// changeSince renders the difference to the previous run, e.g. " (+2)".
func changeSince(result coreapp.RunResult, current int, field func(*history.Snapshot) int) string {
	if result.Previous == nil {
		return ""
	}
	delta := current - field(result.Previous)
	if delta == 0 {
		return ""
	}
	return fmt.Sprintf(" (%+d)", delta)
}
