package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Tab identifies one dashboard pane.
type Tab int

const (
	TabOverview Tab = iota
	TabComponents
	TabReliability

	tabCount = 3
)

// String returns the tab's display name.
func (t Tab) String() string {
	switch t {
	case TabOverview:
		return "Overview"
	case TabComponents:
		return "Components"
	case TabReliability:
		return "Reliability"
	default:
		return "Unknown"
	}
}

var (
	statusBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	errorBarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("160")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				Padding(0, 2)

	headingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("42"))

	badStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("160"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Padding(0, 1)

	contentStyle = lipgloss.NewStyle().
			Padding(1, 2)
)

func renderStatusBar(snap snapshot, width int) string {
	if snap.err != nil {
		return errorBarStyle.Width(width).Render(
			fmt.Sprintf("taskdesk — daemon unreachable: %v", snap.err))
	}
	if snap.status == nil {
		return statusBarStyle.Width(width).Render("taskdesk — connecting…")
	}

	s := snap.status
	line := fmt.Sprintf("taskdesk — up %s · %d display(s) · %d/%d components loaded · updated %s",
		formatUptime(s.UptimeSeconds), s.DisplayCount, s.ComponentsLoaded,
		len(componentNames(snap)), snap.taken.Format("15:04:05"))
	return statusBarStyle.Width(width).Render(line)
}

func renderTabBar(active Tab, width int) string {
	var parts []string
	for t := Tab(0); t < tabCount; t++ {
		label := fmt.Sprintf("%d %s", int(t)+1, t)
		if t == active {
			parts = append(parts, activeTabStyle.Render(label))
		} else {
			parts = append(parts, inactiveTabStyle.Render(label))
		}
	}
	return lipgloss.NewStyle().Width(width).Render(
		lipgloss.JoinHorizontal(lipgloss.Top, parts...))
}

func renderHelpBar(width int) string {
	return helpStyle.Width(width).Render(
		"tab/1-3: switch · r: refresh · q: quit")
}

func renderOverview(snap snapshot, width int) string {
	var b strings.Builder

	b.WriteString(headingStyle.Render("Window roles"))
	b.WriteString("\n")
	if snap.status == nil || len(snap.status.Roles) == 0 {
		b.WriteString(labelStyle.Render("  (none tracked)"))
		b.WriteString("\n")
	} else {
		for _, role := range snap.status.Roles {
			b.WriteString("  " + role + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(headingStyle.Render("Displays"))
	b.WriteString("\n")
	if snap.displays == nil || len(snap.displays.Displays) == 0 {
		b.WriteString(labelStyle.Render("  (no displays reported)"))
		b.WriteString("\n")
	} else {
		for _, d := range snap.displays.Displays {
			mark := " "
			if d.Primary {
				mark = "*"
			}
			b.WriteString(fmt.Sprintf("  %s %d  %-12s %dx%d+%d+%d  (work %dx%d+%d+%d)\n",
				mark, d.ID, d.Name,
				d.Width, d.Height, d.X, d.Y,
				d.WorkW, d.WorkH, d.WorkX, d.WorkY))
		}
	}

	return contentStyle.Width(width).Render(b.String())
}

func renderComponents(snap snapshot, width int) string {
	var b strings.Builder

	b.WriteString(headingStyle.Render("Component registry"))
	b.WriteString("\n")

	if snap.components == nil {
		b.WriteString(labelStyle.Render("  (no data)"))
		return contentStyle.Width(width).Render(b.String())
	}

	st := snap.components.Status
	b.WriteString(fmt.Sprintf("  registered %d · loaded %d · loading %d\n\n",
		st.Registered, st.Loaded, st.Loading))

	names := make([]string, 0, len(st.Components))
	for name := range st.Components {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		c := st.Components[name]
		state := labelStyle.Render("pending")
		switch {
		case c.Loaded:
			state = okStyle.Render("loaded")
		case c.Loading:
			state = "loading"
		}
		b.WriteString(fmt.Sprintf("  %-16s %-10s %s\n", name, c.Priority, state))
	}

	return contentStyle.Width(width).Render(b.String())
}

func renderReliability(snap snapshot, width int) string {
	var b strings.Builder

	b.WriteString(headingStyle.Render("Health"))
	b.WriteString("\n")
	if snap.health != nil {
		h := snap.health.Health
		verdict := okStyle.Render("healthy")
		if !h.Healthy {
			verdict = badStyle.Render("unhealthy")
		}
		b.WriteString(fmt.Sprintf("  %s · success rate %.1f%% · %d error(s)\n",
			verdict, h.SuccessRate*100, h.TotalErrors))
		for _, rec := range h.Recommendations {
			b.WriteString("  ! " + rec + "\n")
		}
	} else {
		b.WriteString(labelStyle.Render("  (no data)"))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(headingStyle.Render("Counters"))
	b.WriteString("\n")
	if snap.stats != nil {
		s := snap.stats.Stats
		b.WriteString(fmt.Sprintf("  invocations %d · errors %d · retried %d · failed %d · degraded %d\n",
			s.TotalInvocations, s.TotalErrors, s.RetriedOperations,
			s.FailedOperations, s.DegradedOperations))

		if len(s.TopErrorTypes) > 0 {
			b.WriteString("\n")
			b.WriteString(headingStyle.Render("Top error types"))
			b.WriteString("\n")
			for _, tc := range s.TopErrorTypes {
				b.WriteString(fmt.Sprintf("  %-24s %d\n", tc.Tag, tc.Count))
			}
		}
		if len(s.WorstChannels) > 0 {
			b.WriteString("\n")
			b.WriteString(headingStyle.Render("Worst channels"))
			b.WriteString("\n")
			for _, tc := range s.WorstChannels {
				b.WriteString(fmt.Sprintf("  %-24s %d\n", tc.Tag, tc.Count))
			}
		}
		if s.LastError != nil {
			b.WriteString("\n")
			b.WriteString(headingStyle.Render("Last error"))
			b.WriteString("\n")
			b.WriteString(fmt.Sprintf("  [%s] %s: %s\n",
				s.LastError.Channel, s.LastError.Type, s.LastError.Message))
		}
	} else {
		b.WriteString(labelStyle.Render("  (no data)"))
		b.WriteString("\n")
	}

	return contentStyle.Width(width).Render(b.String())
}

func joinScreen(parts ...string) string {
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func formatUptime(seconds int64) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds < 3600 {
		return fmt.Sprintf("%dm%02ds", seconds/60, seconds%60)
	}
	return fmt.Sprintf("%dh%02dm", seconds/3600, (seconds%3600)/60)
}

func componentNames(snap snapshot) []string {
	if snap.components == nil {
		return nil
	}
	names := make([]string, 0, len(snap.components.Status.Components))
	for name := range snap.components.Status.Components {
		names = append(names, name)
	}
	return names
}
