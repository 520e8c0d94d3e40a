package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"maparr/internal/analysis"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#54baff"))
	healthyStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3fb950"))
	warnStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#d29922"))
	criticalStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#f85149"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#9aa0ae"))
	sectionStyle  = lipgloss.NewStyle().Bold(true).MarginTop(1)
)

func statusStyle(s analysis.Status) lipgloss.Style {
	switch s {
	case analysis.StatusCritical:
		return criticalStyle
	case analysis.StatusNeedsAttention:
		return warnStyle
	}
	return healthyStyle
}

func severityStyle(s analysis.Severity) lipgloss.Style {
	switch s {
	case analysis.SeverityCritical:
		return criticalStyle
	case analysis.SeverityWarning:
		return warnStyle
	}
	return dimStyle
}

// renderReport formats one result for the terminal.
func renderReport(r *analysis.Result) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("MapArr analysis"))
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Status:     %s\n", statusStyle(r.Summary.Status).Render(string(r.Summary.Status)))
	fmt.Fprintf(&b, "Platform:   %s\n", r.Summary.PlatformDetected)
	fmt.Fprintf(&b, "Containers: %d\n", r.Summary.ContainersAnalyzed)

	if len(r.Conflicts) > 0 {
		b.WriteString(sectionStyle.Render(fmt.Sprintf("Conflicts (%d)", len(r.Conflicts))))
		b.WriteString("\n")
		for _, c := range r.Conflicts {
			fmt.Fprintf(&b, "  %s %s\n", severityStyle(c.Severity).Render("["+string(c.Severity)+"]"), c.Type)
			fmt.Fprintf(&b, "    %s\n", c.Note)
			fmt.Fprintf(&b, "    %s\n", dimStyle.Render("fix: "+c.Fix.Description))
			for _, note := range c.SecondaryNotes {
				fmt.Fprintf(&b, "    %s\n", dimStyle.Render("also: "+note))
			}
		}
	}

	if len(r.Recommendations) > 0 {
		b.WriteString(sectionStyle.Render("Recommendations"))
		b.WriteString("\n")
		for _, rec := range r.Recommendations {
			fmt.Fprintf(&b, "  %s %s\n", dimStyle.Render("("+string(rec.Priority)+")"), rec.Title)
			fmt.Fprintf(&b, "    %s\n", rec.Description)
			if rec.Action != "" {
				fmt.Fprintf(&b, "    %s\n", dimStyle.Render("-> "+rec.Action))
			}
		}
	}

	if r.HardlinkLayout != nil && r.Summary.Status != analysis.StatusHealthy {
		b.WriteString(sectionStyle.Render("Suggested layout"))
		b.WriteString("\n")
		for _, line := range strings.Split(r.HardlinkLayout.Structure, "\n") {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	}

	if len(r.ArrConfigs) > 0 {
		b.WriteString(sectionStyle.Render("Detected apps"))
		b.WriteString("\n")
		for _, cfg := range r.ArrConfigs {
			fmt.Fprintf(&b, "  %s (%s)\n", cfg.Container, cfg.AppType)
			if cfg.RootFolder != "" {
				fmt.Fprintf(&b, "    root: %s\n", cfg.RootFolder)
			}
			for _, issue := range cfg.Issues {
				fmt.Fprintf(&b, "    %s\n", warnStyle.Render("! "+issue))
			}
		}
	}

	return b.String()
}
