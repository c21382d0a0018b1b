package tui

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/hylla/takt/internal/app"
	"github.com/hylla/takt/internal/domain"
)

// ReportData bundles the velocity views that feed the weekly report.
type ReportData struct {
	Now        time.Time
	Metrics    domain.VelocityMetrics
	TaskSeries []int
	SpecSeries []int
	Activities []app.SpecActivity
}

// BuildWeeklyReport renders the weekly velocity report as markdown. The same
// text backs the dashboard report view and the CLI report command.
func BuildWeeklyReport(data ReportData) string {
	week := domain.WeekKeyOf(data.Now)
	metrics := data.Metrics

	var b strings.Builder
	fmt.Fprintf(&b, "# Velocity report: %s\n\n", week)
	fmt.Fprintf(&b, "Week of %s: %d tasks completed so far (%d required, %d optional).\n",
		week.Start().Format("2006-01-02"),
		metrics.CurrentWeekTasks,
		metrics.RequiredVsOptional.Required,
		metrics.RequiredVsOptional.Optional)
	if day, count := busiestDayOf(metrics.DayOfWeekVelocity); count > 0 {
		fmt.Fprintf(&b, "Busiest day: %s (%d tasks).\n", day, count)
	}
	if closed := trailingCount(data.SpecSeries); closed > 0 {
		fmt.Fprintf(&b, "Workstreams closed this week: %d.\n", closed)
	}

	b.WriteString("\n## Tasks by day\n\n")
	b.WriteString("| Day | Tasks |\n|-----|------:|\n")
	for _, day := range weekdayOrder {
		fmt.Fprintf(&b, "| %s | %d |\n", day.String()[:3], metrics.DayOfWeekVelocity.Count(day))
	}

	b.WriteString("\n## Recent weeks\n\n")
	if len(data.TaskSeries) == 0 {
		b.WriteString("_No weeks recorded yet._\n")
	} else {
		b.WriteString("| Week | Tasks | Workstreams closed |\n|------|------:|-------------------:|\n")
		keys := domain.WindowEnding(week, len(data.TaskSeries))
		for idx, key := range keys {
			closed := 0
			if idx < len(data.SpecSeries) {
				closed = data.SpecSeries[idx]
			}
			fmt.Fprintf(&b, "| %s | %d | %d |\n", key, data.TaskSeries[idx], closed)
		}
	}

	b.WriteString("\n## Workstreams\n\n")
	if len(data.Activities) == 0 {
		b.WriteString("_No workstreams recorded yet._\n")
	} else {
		b.WriteString("| Workstream | Progress | Last activity | Done |\n|------------|---------:|---------------|:----:|\n")
		for _, item := range data.Activities {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
				item.SpecID,
				formatProgress(item.Activity),
				formatActivityDate(item.Activity.LastTaskDate),
				formatDoneMark(item.Activity))
		}
	}
	return b.String()
}

// buildReportMarkdown assembles the weekly report from loaded dashboard state.
func (m Model) buildReportMarkdown() string {
	return BuildWeeklyReport(ReportData{
		Now:        m.clock(),
		Metrics:    m.metrics,
		TaskSeries: m.taskSeries,
		SpecSeries: m.specSeries,
		Activities: m.activities,
	})
}

// renderReportView renders the full-screen weekly report view.
func (m Model) renderReportView() tea.View {
	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	hintStyle := lipgloss.NewStyle().Foreground(muted)
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	week := domain.WeekKeyOf(m.clock())
	header := titleStyle.Render("takt report") + "  " + week.String() + statusStyle.Render("  ["+m.modeLabel()+"]")
	windowLine := hintStyle.Render(fmt.Sprintf("window: %d weeks  workstreams: %d", len(m.taskSeries), len(m.activities)))

	wrapWidth := max(24, m.width-8)
	rendered := m.reportRenderer.render(m.reportMarkdown, wrapWidth)
	bodyLines := splitMarkdownLines(rendered)

	hints := hintStyle.Render("y yank markdown • j/k scroll • pgup/pgdown page • r reload • esc back")

	statusLine := ""
	statusText := strings.TrimSpace(m.status)
	if statusText != "" && statusText != "ready" {
		statusLine = statusStyle.Render(statusText)
	}

	beforeBody := strings.Join([]string{header, windowLine, ""}, "\n")
	afterParts := []string{"", hints}
	if statusLine != "" {
		afterParts = append(afterParts, statusLine)
	}
	afterBody := strings.Join(afterParts, "\n")

	bodyHeight := 12
	if m.height > 0 {
		bodyHeight = m.height - lipgloss.Height(beforeBody) - lipgloss.Height(afterBody)
		if bodyHeight < 6 {
			bodyHeight = 6
		}
	}
	maxScroll := max(0, len(bodyLines)-bodyHeight)
	scrollTop := clamp(m.reportScroll, 0, maxScroll)
	visibleEnd := min(len(bodyLines), scrollTop+bodyHeight)
	visible := append([]string(nil), bodyLines[scrollTop:visibleEnd]...)
	if len(visible) < bodyHeight {
		visible = append(visible, make([]string, bodyHeight-len(visible))...)
	}

	content := strings.Join([]string{beforeBody, strings.Join(visible, "\n"), afterBody}, "\n")
	if m.height > 0 {
		content = fitLines(content, m.height)
	}
	if m.help.ShowAll {
		overlay := m.renderHelpOverlay(accent, muted, dim, hintStyle, m.width-8)
		if overlay != "" {
			overlayHeight := lipgloss.Height(content)
			if m.height > 0 {
				overlayHeight = m.height
			}
			content = overlayOnContent(content, overlay, max(1, m.width), max(1, overlayHeight))
		}
	}

	v := tea.NewView(content)
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

// splitMarkdownLines splits rendered markdown while preserving empty rows.
func splitMarkdownLines(rendered string) []string {
	if rendered == "" {
		return []string{""}
	}
	return strings.Split(strings.TrimRight(rendered, "\n"), "\n")
}

// reportViewportStep returns one paging increment for report scroll updates.
func (m Model) reportViewportStep() int {
	if m.height <= 0 {
		return 6
	}
	return max(3, m.height/3)
}

// busiestDayOf returns the weekday with the highest count, Monday-first ties.
func busiestDayOf(days domain.DayOfWeekCounts) (time.Weekday, int) {
	best := time.Monday
	bestCount := 0
	for _, day := range weekdayOrder {
		if count := days.Count(day); count > bestCount {
			best = day
			bestCount = count
		}
	}
	return best, bestCount
}

// trailingCount reads the final series entry, the current-week bucket.
func trailingCount(series []int) int {
	if len(series) == 0 {
		return 0
	}
	return series[len(series)-1]
}

// formatProgress renders the reported task counters for one workstream.
func formatProgress(activity domain.SpecActivityData) string {
	if activity.TotalTasks == 0 && activity.CompletedTasks == 0 {
		return "-"
	}
	return fmt.Sprintf("%d/%d", activity.CompletedTasks, activity.TotalTasks)
}

// formatActivityDate formats optional activity dates for report rows.
func formatActivityDate(at time.Time) string {
	if at.IsZero() {
		return "-"
	}
	return at.Format("2006-01-02")
}

// formatDoneMark marks completed workstreams in report rows.
func formatDoneMark(activity domain.SpecActivityData) string {
	if activity.Completed() {
		return "✓"
	}
	return ""
}
