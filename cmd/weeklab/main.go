// Package main renders ISO week boundary worksheets for velocity bucket debugging.
package main

import (
	"flag"
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"

	"github.com/hylla/takt/internal/domain"
)

// minWindowWeeks defines the minimum supported trailing window length.
const minWindowWeeks = 1

// maxWindowWeeks defines the maximum supported trailing window length.
const maxWindowWeeks = 52

// boundaryCase describes one year-boundary timestamp worth eyeballing.
type boundaryCase struct {
	Label string
	At    time.Time
}

// main runs the week boundary playground.
func main() {
	weeks := flag.Int("weeks", domain.DefaultMetricsWeeks, "trailing window length in weeks")
	anchor := flag.String("anchor", "", "anchor date for the trailing window (YYYY-MM-DD, empty = today)")
	flag.Parse()

	anchorTime := time.Now().UTC()
	if raw := strings.TrimSpace(*anchor); raw != "" {
		parsed, err := time.Parse(time.DateOnly, raw)
		if err != nil {
			fmt.Printf("invalid anchor %q: %v\n", raw, err)
			return
		}
		anchorTime = parsed.UTC()
	}

	windowWeeks := clamp(*weeks, minWindowWeeks, maxWindowWeeks)
	fmt.Println(renderSheet(anchorTime, windowWeeks))
}

// renderSheet renders the boundary table and the trailing window into one terminal sheet.
func renderSheet(anchor time.Time, weeks int) string {
	accent := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62"))
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("239"))

	title := accent.Render("takt week boundary playground")
	subtitle := dim.Render(fmt.Sprintf("anchor=%s  window=%d weeks", anchor.Format(time.DateOnly), weeks))

	sections := []string{
		title,
		subtitle,
		renderBoundaryTable(),
		renderWindow(anchor, weeks),
	}
	return strings.Join(sections, "\n\n")
}

// renderBoundaryTable renders the year-boundary cases with their resolved buckets.
func renderBoundaryTable() string {
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	bad := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))

	cases := boundaryCases()
	rows := make([]string, 0, len(cases)+1)
	rows = append(rows, header.Render(fmt.Sprintf("%-28s %-10s %-9s %-11s %s", "case", "date", "weekday", "iso week", "week starts")))
	for _, c := range cases {
		key := domain.WeekKeyOf(c.At)
		start := key.Start()
		line := fmt.Sprintf("%-28s %-10s %-9s %-11s %s",
			c.Label,
			c.At.Format(time.DateOnly),
			c.At.Weekday().String(),
			key.String(),
			start.Format(time.DateOnly),
		)
		if !containsDay(key, c.At) {
			line += " " + bad.Render("OUTSIDE BUCKET")
		}
		rows = append(rows, muted.Render(line))
	}

	card := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("239")).
		Padding(0, 1)
	return card.Render(strings.Join(rows, "\n"))
}

// renderWindow renders the trailing window ending at the anchor's week, oldest first.
func renderWindow(anchor time.Time, weeks int) string {
	header := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	accent := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))

	current := domain.WeekKeyOf(anchor)
	window := domain.WindowEnding(current, weeks)

	rows := make([]string, 0, len(window)+1)
	rows = append(rows, header.Render(fmt.Sprintf("%-11s %-12s %s", "iso week", "starts", "ends")))
	for _, key := range window {
		start := key.Start()
		end := start.AddDate(0, 0, 6)
		line := fmt.Sprintf("%-11s %-12s %s", key.String(), start.Format(time.DateOnly), end.Format(time.DateOnly))
		if key == current {
			rows = append(rows, accent.Render(line+"  (current)"))
			continue
		}
		rows = append(rows, muted.Render(line))
	}

	card := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("239")).
		Padding(0, 1)
	return card.Render(strings.Join(rows, "\n"))
}

// boundaryCases returns the year-boundary timestamps that historically trip week math.
func boundaryCases() []boundaryCase {
	return []boundaryCase{
		{Label: "long year, last day", At: date(2020, 12, 31)},
		{Label: "jan 1 in prior iso year", At: date(2021, 1, 1)},
		{Label: "first monday of 2021", At: date(2021, 1, 4)},
		{Label: "w53 start", At: date(2015, 12, 28)},
		{Label: "w53 final sunday", At: date(2016, 1, 3)},
		{Label: "first monday of 2016", At: date(2016, 1, 4)},
		{Label: "dec monday in next iso year", At: date(2024, 12, 30)},
		{Label: "jan 1 on a sunday", At: date(2023, 1, 1)},
		{Label: "jan 1 aligned with iso year", At: date(2026, 1, 1)},
	}
}

// containsDay reports whether the resolved bucket's seven-day span covers the timestamp.
func containsDay(key domain.WeekKey, at time.Time) bool {
	start := key.Start()
	end := start.AddDate(0, 0, 7)
	return !at.Before(start) && at.Before(end)
}

// date builds one UTC midnight timestamp.
func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// clamp constrains one integer between lower and upper bounds.
func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
