package common

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hylla/takt/internal/app"
	"github.com/hylla/takt/internal/domain"
)

// VelocityReadModel defines app-facing reads used to synthesize velocity summaries.
type VelocityReadModel interface {
	Metrics() (domain.VelocityMetrics, error)
	WeeklyHistory() ([]domain.WeeklyTaskData, error)
	TasksPerWeek(int) ([]int, error)
	SpecsPerWeek(int) ([]int, error)
	SpecActivities() ([]app.SpecActivity, error)
}

// SummaryService builds summary-first velocity responses from app read models.
type SummaryService struct {
	read VelocityReadModel
	now  func() time.Time
}

// NewSummaryService constructs one summary adapter over app-level read methods.
func NewSummaryService(read VelocityReadModel, now func() time.Time) *SummaryService {
	if now == nil {
		now = time.Now
	}
	return &SummaryService{
		read: read,
		now:  now,
	}
}

// VelocitySummary resolves one deterministic velocity summary.
func (s *SummaryService) VelocitySummary(ctx context.Context, in SummaryRequest) (VelocitySummary, error) {
	if s == nil || s.read == nil {
		return VelocitySummary{}, fmt.Errorf("summary service is not configured: %w", ErrVelocityUnavailable)
	}
	window, err := normalizeWindowWeeks(in.Weeks)
	if err != nil {
		return VelocitySummary{}, err
	}

	metrics, err := s.read.Metrics()
	if err != nil {
		return VelocitySummary{}, mapAppError("velocity metrics", err)
	}
	history, err := s.read.WeeklyHistory()
	if err != nil {
		return VelocitySummary{}, mapAppError("weekly history", err)
	}
	tasksPerWeek, err := s.read.TasksPerWeek(window)
	if err != nil {
		return VelocitySummary{}, mapAppError("tasks per week", err)
	}
	specsPerWeek, err := s.read.SpecsPerWeek(window)
	if err != nil {
		return VelocitySummary{}, mapAppError("specs per week", err)
	}
	activities, err := s.read.SpecActivities()
	if err != nil {
		return VelocitySummary{}, mapAppError("list spec activity", err)
	}

	// History is sorted oldest first; report at most the requested window.
	if len(history) > window {
		history = history[len(history)-window:]
	}
	weeks := make([]WeekView, 0, len(history))
	for _, bucket := range history {
		weeks = append(weeks, mapWeek(bucket))
	}
	specs := make([]SpecActivityView, 0, len(activities))
	for _, activity := range activities {
		specs = append(specs, mapSpecActivity(activity.SpecID, activity.Activity))
	}

	capturedAt := s.now().UTC().Truncate(time.Second)
	summary := VelocitySummary{
		CapturedAt:   capturedAt,
		Week:         domain.WeekKeyOf(capturedAt).String(),
		WindowWeeks:  window,
		Metrics:      mapMetrics(metrics),
		Weeks:        weeks,
		TasksPerWeek: tasksPerWeek,
		SpecsPerWeek: specsPerWeek,
		Specs:        specs,
		Warnings:     buildSummaryWarnings(metrics, specs),
	}
	stateHash, err := computeSummaryHash(summary)
	if err != nil {
		return VelocitySummary{}, fmt.Errorf("compute state hash: %w", err)
	}
	summary.StateHash = stateHash
	return summary, nil
}

// mapWeek maps one domain week bucket into the transport view.
func mapWeek(bucket domain.WeeklyTaskData) WeekView {
	return WeekView{
		Week:      bucket.Week.String(),
		StartDate: bucket.Week.Start().Format(time.DateOnly),
		Total:     bucket.Total,
		Required:  bucket.Required,
		Optional:  bucket.Optional,
		Days:      bucket.Days,
	}
}

// buildSummaryWarnings synthesizes warning text from metric and activity rollups.
func buildSummaryWarnings(metrics domain.VelocityMetrics, specs []SpecActivityView) []string {
	warnings := make([]string, 0, 2)
	openSpecs := 0
	for _, spec := range specs {
		if spec.TotalTasks > 0 && !spec.Completed {
			openSpecs++
		}
	}
	if openSpecs > 0 {
		warnings = append(warnings, fmt.Sprintf("%d workstreams remain incomplete", openSpecs))
	}
	if metrics.CurrentWeekTasks == 0 {
		warnings = append(warnings, "no task completions recorded this week")
	}
	return warnings
}

// computeSummaryHash returns a deterministic state hash for velocity summaries.
// The captured-at timestamp stays out of the hash so identical aggregates hash
// identically across calls.
func computeSummaryHash(summary VelocitySummary) (string, error) {
	payload := struct {
		Week         string             `json:"week"`
		WindowWeeks  int                `json:"window_weeks"`
		Metrics      MetricsView        `json:"metrics"`
		Weeks        []WeekView         `json:"weeks"`
		TasksPerWeek []int              `json:"tasks_per_week"`
		SpecsPerWeek []int              `json:"specs_per_week"`
		Specs        []SpecActivityView `json:"specs"`
	}{
		Week:         summary.Week,
		WindowWeeks:  summary.WindowWeeks,
		Metrics:      summary.Metrics,
		Weeks:        summary.Weeks,
		TasksPerWeek: summary.TasksPerWeek,
		SpecsPerWeek: summary.SpecsPerWeek,
		Specs:        summary.Specs,
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal summary payload: %w", err)
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}
