package tui

import (
	"context"
	"fmt"
	"image/color"
	"strings"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/atotto/clipboard"
	"github.com/hylla/takt/internal/app"
	"github.com/hylla/takt/internal/domain"
)

// Service represents service data used by this package.
type Service interface {
	Metrics() (domain.VelocityMetrics, error)
	WeeklyHistory() ([]domain.WeeklyTaskData, error)
	TasksPerWeek(int) ([]int, error)
	SpecsPerWeek(int) ([]int, error)
	SpecActivities() ([]app.SpecActivity, error)
	RecordTaskCompletion(context.Context, app.RecordTaskInput) error
}

// inputMode represents a selectable mode.
type inputMode int

// modeNone and related constants define package defaults.
const (
	modeNone inputMode = iota
	modeRecord
	modeReport
)

// recordFormFields stores record-form field keys in display/update order.
var recordFormFields = []string{"spec", "task", "required", "completed"}

// record-form field indexes used throughout keyboard/update logic.
const (
	recordFieldSpec = iota
	recordFieldTask
	recordFieldRequired
	recordFieldCompleted
)

// pane identifiers used for focus cycling and rendering.
const (
	paneSummary = iota
	paneDays
	paneTrend
	paneSpecs
)

// specTableWindow caps visible workstream rows in the dashboard pane.
const specTableWindow = 12

// trendRowWindow caps visible trend rows in the dashboard pane.
const trendRowWindow = 8

// weekdayOrder lists weekdays Monday-first to match week bucketing.
var weekdayOrder = []time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}

// Model represents model data used by this package.
type Model struct {
	svc Service

	ready  bool
	width  int
	height int
	err    error

	status string

	help help.Model
	keys keyMap

	clock       app.Clock
	windowWeeks int
	panes       PaneConfig

	metrics    domain.VelocityMetrics
	history    []domain.WeeklyTaskData
	taskSeries []int
	specSeries []int
	activities []app.SpecActivity

	selectedPane int
	selectedSpec int

	mode           inputMode
	formInputs     []textinput.Model
	formFocus      int
	recordRequired bool

	reportMarkdown string
	reportScroll   int
	reportRenderer markdownRenderer
}

// loadedMsg carries message data through update handling.
type loadedMsg struct {
	metrics    domain.VelocityMetrics
	history    []domain.WeeklyTaskData
	taskSeries []int
	specSeries []int
	activities []app.SpecActivity
	err        error
}

// actionMsg carries message data through update handling.
type actionMsg struct {
	err    error
	status string
	reload bool
}

// NewModel constructs a new value for this package.
func NewModel(svc Service, opts ...Option) Model {
	h := help.New()
	h.ShowAll = false
	m := Model{
		svc:         svc,
		status:      "loading...",
		help:        h,
		keys:        newKeyMap(),
		clock:       time.Now,
		windowWeeks: domain.DefaultMetricsWeeks,
		panes:       DefaultPaneConfig(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m)
		}
	}
	return m
}

// Init handles init.
func (m Model) Init() tea.Cmd {
	return m.loadData
}

// Update updates state for the requested operation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.metrics = msg.metrics
		m.history = msg.history
		m.taskSeries = msg.taskSeries
		m.specSeries = msg.specSeries
		m.activities = msg.activities
		m.selectedSpec = clamp(m.selectedSpec, 0, max(0, len(m.activities)-1))
		if m.mode == modeReport {
			m.reportMarkdown = m.buildReportMarkdown()
		}
		if m.status == "" || m.status == "loading..." || m.status == "reloading..." {
			m.status = "ready"
		}
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		if msg.status != "" {
			m.status = msg.status
		}
		if msg.reload {
			return m, m.loadData
		}
		return m, nil

	case tea.KeyPressMsg:
		if m.mode != modeNone {
			return m.handleInputModeKey(msg)
		}
		return m.handleNormalModeKey(msg)

	case tea.MouseWheelMsg:
		return m.handleMouseWheel(msg)

	default:
		return m, nil
	}
}

// View handles view.
func (m Model) View() tea.View {
	if m.err != nil {
		v := tea.NewView("error: " + m.err.Error() + "\n\npress r to retry • q quit\n")
		v.MouseMode = tea.MouseModeCellMotion
		v.AltScreen = true
		return v
	}
	if !m.ready {
		v := tea.NewView("loading...")
		v.MouseMode = tea.MouseModeCellMotion
		v.AltScreen = true
		return v
	}
	if m.mode == modeReport {
		return m.renderReportView()
	}

	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	helpStyle := lipgloss.NewStyle().Foreground(muted)
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	week := domain.WeekKeyOf(m.clock())
	header := titleStyle.Render("takt") + "  " + week.String()
	header += statusStyle.Render("  [" + m.modeLabel() + "]")

	paneWidth := m.paneWidth()
	visible := m.visiblePanes()
	paneViews := make([]string, 0, len(visible))
	for idx, pane := range visible {
		focused := idx == clamp(m.selectedPane, 0, len(visible)-1)
		switch pane {
		case paneSummary:
			paneViews = append(paneViews, renderPane("This week", m.renderSummaryPane(muted), paneWidth, focused, accent, dim))
		case paneDays:
			paneViews = append(paneViews, renderPane("By day", m.renderDayBars(paneWidth-4, muted), paneWidth, focused, accent, dim))
		case paneTrend:
			paneViews = append(paneViews, renderPane(fmt.Sprintf("Last %d weeks", len(m.taskSeries)), m.renderTrend(paneWidth-4, muted), paneWidth, focused, accent, dim))
		case paneSpecs:
			paneViews = append(paneViews, renderPane(fmt.Sprintf("Workstreams (%d)", len(m.activities)), m.renderSpecTable(paneWidth-4, focused, muted), paneWidth, focused, accent, dim))
		}
	}
	rows := make([]string, 0, (len(paneViews)+1)/2)
	for start := 0; start < len(paneViews); start += 2 {
		end := min(len(paneViews), start+2)
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, paneViews[start:end]...))
	}

	sections := []string{header, "", strings.Join(rows, "\n")}
	if strings.TrimSpace(m.status) != "" && m.status != "ready" {
		sections = append(sections, statusStyle.Render(m.status))
	}
	content := strings.Join(sections, "\n")

	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, m.width-2))
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpBubble.View(m.keys))

	contentHeight := lipgloss.Height(content)
	if m.height > 0 {
		helpHeight := lipgloss.Height(helpLine)
		contentHeight = max(0, m.height-helpHeight)
		content = fitLines(content, contentHeight)
	}

	fullContent := content + "\n" + helpLine
	overlay := m.renderModeOverlay(accent, helpStyle, m.width-8)
	if m.help.ShowAll {
		overlay = m.renderHelpOverlay(accent, muted, dim, helpStyle, m.width-8)
	}
	if overlay != "" {
		overlayHeight := lipgloss.Height(fullContent)
		if m.height > 0 {
			overlayHeight = m.height
		}
		fullContent = overlayOnContent(fullContent, overlay, max(1, m.width), max(1, overlayHeight))
	}

	v := tea.NewView(fullContent)
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

// loadData loads required data for the current operation.
func (m Model) loadData() tea.Msg {
	metrics, err := m.svc.Metrics()
	if err != nil {
		return loadedMsg{err: err}
	}
	history, err := m.svc.WeeklyHistory()
	if err != nil {
		return loadedMsg{err: err}
	}
	taskSeries, err := m.svc.TasksPerWeek(m.windowWeeks)
	if err != nil {
		return loadedMsg{err: err}
	}
	specSeries, err := m.svc.SpecsPerWeek(m.windowWeeks)
	if err != nil {
		return loadedMsg{err: err}
	}
	activities, err := m.svc.SpecActivities()
	if err != nil {
		return loadedMsg{err: err}
	}
	return loadedMsg{
		metrics:    metrics,
		history:    history,
		taskSeries: taskSeries,
		specSeries: specSeries,
		activities: activities,
	}
}

// handleNormalModeKey handles normal mode key.
func (m Model) handleNormalModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		if m.help.ShowAll {
			m.status = "help"
		} else {
			m.status = "ready"
		}
		return m, nil
	case msg.String() == "esc":
		if m.help.ShowAll {
			m.help.ShowAll = false
			m.status = "ready"
		}
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.status = "reloading..."
		return m, m.loadData
	case key.Matches(msg, m.keys.focusNext):
		m.cyclePane(1)
		return m, nil
	case key.Matches(msg, m.keys.focusPrev):
		m.cyclePane(-1)
		return m, nil
	case key.Matches(msg, m.keys.moveDown):
		if m.focusedPane() == paneSpecs && m.selectedSpec < len(m.activities)-1 {
			m.selectedSpec++
		}
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		if m.focusedPane() == paneSpecs && m.selectedSpec > 0 {
			m.selectedSpec--
		}
		return m, nil
	case key.Matches(msg, m.keys.record):
		m.help.ShowAll = false
		return m, m.startRecordForm()
	case key.Matches(msg, m.keys.report):
		m.help.ShowAll = false
		return m.openReport()
	default:
		return m, nil
	}
}

// handleInputModeKey handles input mode key.
func (m Model) handleInputModeKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if m.mode == modeReport {
		return m.handleReportKey(msg)
	}

	switch {
	case msg.Code == tea.KeyEscape || msg.String() == "esc":
		m.closeRecordForm()
		m.status = "cancelled"
		return m, nil
	case msg.Code == tea.KeyTab || msg.String() == "tab" || msg.String() == "down":
		return m, m.focusRecordField(m.formFocus + 1)
	case msg.String() == "shift+tab" || msg.String() == "backtab" || msg.String() == "up":
		return m, m.focusRecordField(m.formFocus - 1)
	case msg.Code == tea.KeyEnter || msg.String() == "enter":
		return m.submitRecordForm()
	default:
		if m.formFocus == recordFieldRequired {
			switch msg.String() {
			case "h", "l", "left", "right", "space", " ":
				m.recordRequired = !m.recordRequired
			}
			return m, nil
		}
		inputIdx := recordInputIndex(m.formFocus)
		if inputIdx < 0 || inputIdx >= len(m.formInputs) {
			return m, nil
		}
		var cmd tea.Cmd
		m.formInputs[inputIdx], cmd = m.formInputs[inputIdx].Update(msg)
		return m, cmd
	}
}

// handleReportKey handles report mode key.
func (m Model) handleReportKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Code == tea.KeyEscape || msg.String() == "esc":
		if m.help.ShowAll {
			m.help.ShowAll = false
			return m, nil
		}
		m.mode = modeNone
		m.reportScroll = 0
		m.status = "ready"
		return m, nil
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggleHelp):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.yank):
		if err := clipboard.WriteAll(m.reportMarkdown); err != nil {
			m.status = "clipboard unavailable: " + err.Error()
		} else {
			m.status = "report markdown copied"
		}
		return m, nil
	case key.Matches(msg, m.keys.reload):
		m.status = "reloading..."
		return m, m.loadData
	case key.Matches(msg, m.keys.moveDown):
		m.reportScroll++
		return m, nil
	case key.Matches(msg, m.keys.moveUp):
		m.reportScroll = max(0, m.reportScroll-1)
		return m, nil
	case msg.String() == "pgdown":
		m.reportScroll += m.reportViewportStep()
		return m, nil
	case msg.String() == "pgup":
		m.reportScroll = max(0, m.reportScroll-m.reportViewportStep())
		return m, nil
	default:
		return m, nil
	}
}

// handleMouseWheel handles mouse wheel.
func (m Model) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	if m.help.ShowAll {
		return m, nil
	}
	if m.mode == modeReport {
		switch msg.Button {
		case tea.MouseWheelUp:
			m.reportScroll = max(0, m.reportScroll-3)
		case tea.MouseWheelDown:
			m.reportScroll += 3
		}
		return m, nil
	}
	if m.mode != modeNone {
		return m, nil
	}
	if m.focusedPane() == paneSpecs {
		switch msg.Button {
		case tea.MouseWheelUp:
			if m.selectedSpec > 0 {
				m.selectedSpec--
			}
		case tea.MouseWheelDown:
			if m.selectedSpec < len(m.activities)-1 {
				m.selectedSpec++
			}
		}
	}
	return m, nil
}

// openReport switches into the full-screen weekly report view.
func (m Model) openReport() (tea.Model, tea.Cmd) {
	m.mode = modeReport
	m.reportScroll = 0
	m.reportMarkdown = m.buildReportMarkdown()
	m.status = "weekly report"
	return m, nil
}

// startRecordForm opens the record-task form focused on the workstream id field.
func (m *Model) startRecordForm() tea.Cmd {
	m.mode = modeRecord
	m.recordRequired = false
	spec := newModalInput("", "workstream id (e.g. auth-rework)", "", 120)
	task := newModalInput("", "task id (optional)", "", 120)
	completed := newModalInput("", "YYYY-MM-DD (blank = now)", "", 32)
	m.formInputs = []textinput.Model{spec, task, completed}
	m.status = "record task"
	return m.focusRecordField(recordFieldSpec)
}

// closeRecordForm clears record-form state.
func (m *Model) closeRecordForm() {
	m.mode = modeNone
	m.formInputs = nil
	m.formFocus = 0
	m.recordRequired = false
}

// focusRecordField moves form focus, wrapping across the record fields.
func (m *Model) focusRecordField(field int) tea.Cmd {
	count := len(recordFormFields)
	m.formFocus = ((field % count) + count) % count
	for idx := range m.formInputs {
		m.formInputs[idx].Blur()
	}
	if inputIdx := recordInputIndex(m.formFocus); inputIdx >= 0 && inputIdx < len(m.formInputs) {
		return m.formInputs[inputIdx].Focus()
	}
	return nil
}

// recordInputIndex maps a form field to its text input index, or -1 for the toggle.
func recordInputIndex(field int) int {
	switch field {
	case recordFieldSpec:
		return 0
	case recordFieldTask:
		return 1
	case recordFieldCompleted:
		return 2
	default:
		return -1
	}
}

// submitRecordForm validates the form and issues the record command.
func (m Model) submitRecordForm() (tea.Model, tea.Cmd) {
	input, err := m.parseRecordForm()
	if err != nil {
		m.status = err.Error()
		return m, nil
	}
	m.closeRecordForm()
	m.status = "recording..."
	return m, m.recordTaskCmd(input)
}

// parseRecordForm builds the record input from current form values.
func (m Model) parseRecordForm() (app.RecordTaskInput, error) {
	if len(m.formInputs) < 3 {
		return app.RecordTaskInput{}, fmt.Errorf("record form is not open")
	}
	specID := strings.TrimSpace(m.formInputs[0].Value())
	if specID == "" {
		return app.RecordTaskInput{}, fmt.Errorf("workstream id is required")
	}
	input := app.RecordTaskInput{
		SpecID:   specID,
		TaskID:   strings.TrimSpace(m.formInputs[1].Value()),
		Required: m.recordRequired,
	}
	if raw := strings.TrimSpace(m.formInputs[2].Value()); raw != "" {
		completedAt, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return app.RecordTaskInput{}, fmt.Errorf("completed date must be YYYY-MM-DD")
		}
		input.CompletedAt = completedAt
	}
	return input, nil
}

// recordTaskCmd persists one completed task through the service.
func (m Model) recordTaskCmd(input app.RecordTaskInput) tea.Cmd {
	return func() tea.Msg {
		if err := m.svc.RecordTaskCompletion(context.Background(), input); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{status: fmt.Sprintf("recorded task for %s", input.SpecID), reload: true}
	}
}

// cyclePane moves pane focus by delta across the visible panes.
func (m *Model) cyclePane(delta int) {
	visible := m.visiblePanes()
	if len(visible) == 0 {
		m.selectedPane = 0
		return
	}
	m.selectedPane = ((m.selectedPane+delta)%len(visible) + len(visible)) % len(visible)
}

// focusedPane returns the pane id under focus.
func (m Model) focusedPane() int {
	visible := m.visiblePanes()
	if len(visible) == 0 {
		return paneSummary
	}
	return visible[clamp(m.selectedPane, 0, len(visible)-1)]
}

// visiblePanes lists the pane ids enabled by the pane config, summary first.
func (m Model) visiblePanes() []int {
	panes := []int{paneSummary}
	if m.panes.ShowDayBars {
		panes = append(panes, paneDays)
	}
	if m.panes.ShowTrend {
		panes = append(panes, paneTrend)
	}
	if m.panes.ShowSpecTable {
		panes = append(panes, paneSpecs)
	}
	return panes
}

// paneWidth computes one dashboard pane width from the window size.
func (m Model) paneWidth() int {
	if m.width <= 0 {
		return 44
	}
	return clamp((m.width-4)/2, 34, 60)
}

// modeLabel describes the active mode for the header.
func (m Model) modeLabel() string {
	switch m.mode {
	case modeRecord:
		return "record"
	case modeReport:
		return "report"
	default:
		return "normal"
	}
}

// renderSummaryPane renders the current-week totals pane.
func (m Model) renderSummaryPane(muted color.Color) string {
	labelStyle := lipgloss.NewStyle().Foreground(muted)
	lines := []string{
		fmt.Sprintf("%d tasks completed", m.metrics.CurrentWeekTasks),
		labelStyle.Render(fmt.Sprintf("required %d • optional %d", m.metrics.RequiredVsOptional.Required, m.metrics.RequiredVsOptional.Optional)),
	}
	if day, count := busiestDayOf(m.metrics.DayOfWeekVelocity); count > 0 {
		lines = append(lines, labelStyle.Render(fmt.Sprintf("busiest %s (%d)", day.String()[:3], count)))
	}
	if closed := trailingCount(m.specSeries); closed > 0 {
		lines = append(lines, labelStyle.Render(fmt.Sprintf("workstreams closed %d", closed)))
	}
	lines = append(lines, labelStyle.Render("week starts "+domain.WeekKeyOf(m.clock()).Start().Format("2006-01-02")))
	return strings.Join(lines, "\n")
}

// renderDayBars renders the day-of-week distribution for the current week.
func (m Model) renderDayBars(width int, muted color.Color) string {
	maxCount := 0
	for _, day := range weekdayOrder {
		if count := m.metrics.DayOfWeekVelocity.Count(day); count > maxCount {
			maxCount = count
		}
	}
	labelStyle := lipgloss.NewStyle().Foreground(muted)
	barWidth := clamp(width-10, 4, 28)
	lines := make([]string, 0, len(weekdayOrder))
	for _, day := range weekdayOrder {
		count := m.metrics.DayOfWeekVelocity.Count(day)
		lines = append(lines, fmt.Sprintf("%s %s %d", labelStyle.Render(day.String()[:3]), renderBar(count, maxCount, barWidth), count))
	}
	return strings.Join(lines, "\n")
}

// renderTrend renders the recent-weeks task and workstream series.
func (m Model) renderTrend(width int, muted color.Color) string {
	labelStyle := lipgloss.NewStyle().Foreground(muted)
	if len(m.taskSeries) == 0 {
		return labelStyle.Render("(no weeks recorded)")
	}
	maxCount := 0
	for _, count := range m.taskSeries {
		if count > maxCount {
			maxCount = count
		}
	}
	barWidth := clamp(width-26, 4, 24)
	keys := domain.WindowEnding(domain.WeekKeyOf(m.clock()), len(m.taskSeries))
	start := max(0, len(keys)-trendRowWindow)

	lines := make([]string, 0, trendRowWindow+2)
	if start > 0 {
		lines = append(lines, labelStyle.Render(fmt.Sprintf("showing last %d of %d weeks", len(keys)-start, len(keys))))
	}
	for idx := start; idx < len(keys); idx++ {
		closed := 0
		if idx < len(m.specSeries) {
			closed = m.specSeries[idx]
		}
		line := fmt.Sprintf("%s %s %2d", labelStyle.Render(keys[idx].String()), renderBar(m.taskSeries[idx], maxCount, barWidth), m.taskSeries[idx])
		if closed > 0 {
			line += labelStyle.Render(fmt.Sprintf("  +%d closed", closed))
		}
		lines = append(lines, line)
	}
	if len(m.history) > 0 {
		lines = append(lines, labelStyle.Render(fmt.Sprintf("%d weeks on record since %s", len(m.history), m.history[0].Week)))
	}
	return strings.Join(lines, "\n")
}

// renderSpecTable renders workstream activity rows with the selected row marked.
func (m Model) renderSpecTable(width int, focused bool, muted color.Color) string {
	labelStyle := lipgloss.NewStyle().Foreground(muted)
	if len(m.activities) == 0 {
		return labelStyle.Render("(no workstreams yet)")
	}
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	doneStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	idWidth := clamp(width-22, 8, 28)

	start := 0
	if len(m.activities) > specTableWindow {
		start = clamp(m.selectedSpec-specTableWindow/2, 0, len(m.activities)-specTableWindow)
	}
	end := min(len(m.activities), start+specTableWindow)

	rows := make([]string, 0, specTableWindow+1)
	for idx := start; idx < end; idx++ {
		item := m.activities[idx]
		marker := "  "
		if focused && idx == m.selectedSpec {
			marker = "│ "
		}
		done := " "
		if item.Activity.Completed() {
			done = "✓"
		}
		row := fmt.Sprintf("%s%-*s %5s %s %s", marker, idWidth, truncate(item.SpecID, idWidth), formatProgress(item.Activity), done, formatActivityDate(item.Activity.LastTaskDate))
		switch {
		case focused && idx == m.selectedSpec:
			row = selectedStyle.Render(row)
		case item.Activity.Completed():
			row = doneStyle.Render(row)
		}
		rows = append(rows, row)
	}
	if len(m.activities) > specTableWindow {
		rows = append(rows, labelStyle.Render(fmt.Sprintf("showing %d-%d of %d", start+1, end, len(m.activities))))
	}
	return strings.Join(rows, "\n")
}

// renderPane frames one dashboard pane, highlighting the focused border.
func renderPane(title, content string, width int, focused bool, accent, dim color.Color) string {
	borderStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 1).
		MarginRight(1).
		Width(width)
	if focused {
		borderStyle = borderStyle.BorderForeground(accent)
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	return borderStyle.Render(titleStyle.Render(title) + "\n" + content)
}

// renderBar scales count against maxCount into a fixed-width block bar.
func renderBar(count, maxCount, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if maxCount > 0 && count > 0 {
		filled = count * width / maxCount
		if filled == 0 {
			filled = 1
		}
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

// renderModeOverlay renders the record-form overlay box.
func (m Model) renderModeOverlay(accent color.Color, hintStyle lipgloss.Style, maxWidth int) string {
	if m.mode != modeRecord || len(m.formInputs) < 3 {
		return ""
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1)
	if maxWidth > 0 {
		style = style.Width(clamp(maxWidth, 40, 72))
	}
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	focusStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	labelFor := func(field int, label string) string {
		if m.formFocus == field {
			return focusStyle.Render("│ " + label)
		}
		return "  " + label
	}
	required := "no"
	if m.recordRequired {
		required = "yes"
	}
	lines := []string{
		titleStyle.Render("Record task"),
		labelFor(recordFieldSpec, "workstream: ") + m.formInputs[0].View(),
		labelFor(recordFieldTask, "task:       ") + m.formInputs[1].View(),
		labelFor(recordFieldRequired, "required:   ") + required + hintStyle.Render("  (h/l toggle)"),
		labelFor(recordFieldCompleted, "completed:  ") + m.formInputs[2].View(),
		hintStyle.Render("tab next field • enter record • esc cancel"),
	}
	return style.Render(strings.Join(lines, "\n"))
}

// renderHelpOverlay renders the expanded key reference.
func (m Model) renderHelpOverlay(accent, muted, dim color.Color, _ lipgloss.Style, maxWidth int) string {
	width := clamp(maxWidth, 48, 90)
	if width <= 0 {
		width = 72
	}
	hb := m.help
	hb.ShowAll = true
	hb.SetWidth(width - 4)

	title := lipgloss.NewStyle().Bold(true).Foreground(accent).Render("TAKT Help")
	workflow := []string{
		lipgloss.NewStyle().Bold(true).Foreground(accent).Render("Workflows"),
		"1. n record a completed task without leaving the dashboard",
		"2. i/enter open the weekly report  •  y copies its markdown",
		"3. tab/shift+tab move pane focus  •  j/k move workstream rows",
		"4. r reload after edits made through the API or MCP tools",
	}
	lines := []string{
		title,
		"",
		hb.View(m.keys),
		"",
		lipgloss.NewStyle().Foreground(muted).Render(strings.Join(workflow, "\n")),
		lipgloss.NewStyle().Foreground(muted).Render("press ? or esc to close"),
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 1)
	if maxWidth > 0 {
		style = style.Width(width)
	}
	return style.Render(strings.Join(lines, "\n"))
}

// newModalInput builds a configured text input for modal forms.
func newModalInput(prompt, placeholder, value string, limit int) textinput.Model {
	in := textinput.New()
	in.Prompt = prompt
	in.Placeholder = placeholder
	in.CharLimit = limit
	if value != "" {
		in.SetValue(value)
	}
	return in
}

// clamp bounds v into the inclusive range.
func clamp(v, minV, maxV int) int {
	if maxV < minV {
		return minV
	}
	if v < minV {
		return minV
	}
	if v > maxV {
		return maxV
	}
	return v
}

// max returns the larger of the provided values.
func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// min returns the smaller of the provided values.
func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent overlays on content.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centeredOverlay := lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		overlay,
	)
	overlayLayer := lipgloss.NewLayer(centeredOverlay).X(0).Y(0).Z(10)

	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}

// truncate truncates the requested operation.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= max {
		return s
	}
	if max <= 1 {
		return string(rs[:max])
	}
	return string(rs[:max-1]) + "…"
}
