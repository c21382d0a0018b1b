// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"
	"time"

	"github.com/hylla/takt/internal/domain"
)

// DefaultWindowWeeks is the per-week window length transports use when a
// request omits the weeks parameter.
const DefaultWindowWeeks = domain.DefaultMetricsWeeks

// MaxWindowWeeks bounds the per-week window length accepted from transports.
const MaxWindowWeeks = 104

// ErrInvalidVelocityRequest reports malformed velocity input.
var ErrInvalidVelocityRequest = errors.New("invalid velocity request")

// ErrInvalidProfileRequest reports malformed profile input.
var ErrInvalidProfileRequest = errors.New("invalid profile request")

// ErrProfileConflict reports a profile id that already exists.
var ErrProfileConflict = errors.New("profile conflict")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrVelocityUnavailable reports missing velocity backing support.
var ErrVelocityUnavailable = errors.New("velocity service unavailable")

// RecordTaskRequest captures one task-completion submission.
type RecordTaskRequest struct {
	SpecID      string `json:"spec_id"`
	TaskID      string `json:"task_id,omitempty"`
	Required    bool   `json:"required"`
	CompletedAt string `json:"completed_at,omitempty"`
}

// RecordSpecCompletionRequest captures one workstream-completion submission.
type RecordSpecCompletionRequest struct {
	SpecID         string `json:"spec_id"`
	TotalTasks     int    `json:"total_tasks"`
	CompletedTasks int    `json:"completed_tasks"`
	CompletedAt    string `json:"completed_at,omitempty"`
}

// UpdateSpecProgressRequest captures one workstream progress refresh.
type UpdateSpecProgressRequest struct {
	SpecID         string `json:"spec_id"`
	TotalTasks     int    `json:"total_tasks"`
	CompletedTasks int    `json:"completed_tasks"`
}

// ProfileRequest captures profile fields submitted for create, update, and validate calls.
type ProfileRequest struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Template string `json:"template"`
}

// SummaryRequest captures one velocity summary request.
type SummaryRequest struct {
	Weeks int
}

// WeekView summarizes one ISO-week bucket for transport responses.
type WeekView struct {
	Week      string                 `json:"week"`
	StartDate string                 `json:"start_date"`
	Total     int                    `json:"total_tasks"`
	Required  int                    `json:"required_tasks"`
	Optional  int                    `json:"optional_tasks"`
	Days      domain.DayOfWeekCounts `json:"days"`
}

// MetricsView reports the derived velocity summary for transport responses.
type MetricsView struct {
	CurrentWeekTasks  int                    `json:"current_week_tasks"`
	RequiredTasks     int                    `json:"required_tasks"`
	OptionalTasks     int                    `json:"optional_tasks"`
	DayOfWeekVelocity domain.DayOfWeekCounts `json:"day_of_week_velocity"`
	TasksPerWeek      []int                  `json:"tasks_per_week"`
}

// SpecActivityView reports one workstream's recorded activity for transport responses.
type SpecActivityView struct {
	SpecID         string     `json:"spec_id"`
	FirstTaskDate  *time.Time `json:"first_task_date,omitempty"`
	LastTaskDate   *time.Time `json:"last_task_date,omitempty"`
	TotalTasks     int        `json:"total_tasks"`
	CompletedTasks int        `json:"completed_tasks"`
	CompletionDate *time.Time `json:"completion_date,omitempty"`
	Completed      bool       `json:"completed"`
}

// ProfileView reports one report profile for transport responses.
type ProfileView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Template  string    `json:"template"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ProfileValidationView reports profile field validation results.
type ProfileValidationView struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// VelocitySummary is the deterministic velocity bundle returned to HTTP and MCP callers.
type VelocitySummary struct {
	CapturedAt   time.Time          `json:"captured_at"`
	Week         string             `json:"week"`
	WindowWeeks  int                `json:"window_weeks"`
	StateHash    string             `json:"state_hash"`
	Metrics      MetricsView        `json:"metrics"`
	Weeks        []WeekView         `json:"weeks"`
	TasksPerWeek []int              `json:"tasks_per_week"`
	SpecsPerWeek []int              `json:"specs_per_week"`
	Specs        []SpecActivityView `json:"specs"`
	Warnings     []string           `json:"warnings,omitempty"`
}

// VelocityService captures velocity operations exposed to transport adapters.
type VelocityService interface {
	RecordTaskCompletion(context.Context, RecordTaskRequest) (SpecActivityView, error)
	RecordSpecCompletion(context.Context, RecordSpecCompletionRequest) (SpecActivityView, error)
	UpdateSpecProgress(context.Context, UpdateSpecProgressRequest) (SpecActivityView, error)
	VelocityMetrics(context.Context) (MetricsView, error)
	TasksPerWeek(context.Context, int) ([]int, error)
	SpecsPerWeek(context.Context, int) ([]int, error)
	ListSpecActivity(context.Context) ([]SpecActivityView, error)
	GetSpecActivity(context.Context, string) (SpecActivityView, error)
}

// SummaryReader resolves one velocity summary request.
type SummaryReader interface {
	VelocitySummary(context.Context, SummaryRequest) (VelocitySummary, error)
}

// ProfileDirectory captures profile operations exposed to transport adapters.
type ProfileDirectory interface {
	CreateProfile(context.Context, ProfileRequest) (ProfileView, error)
	UpdateProfile(context.Context, ProfileRequest) (ProfileView, error)
	GetProfile(context.Context, string) (ProfileView, error)
	ListProfiles(context.Context) ([]ProfileView, error)
	ValidateProfile(context.Context, ProfileRequest) (ProfileValidationView, error)
}
