package common

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hylla/takt/internal/app"
	"github.com/hylla/takt/internal/domain"
)

// ServiceAdapter exposes app-level velocity and profile services to transport adapters.
type ServiceAdapter struct {
	velocity *app.Aggregator
	profiles *app.ProfileService
}

// NewServiceAdapter constructs one transport adapter over app services.
func NewServiceAdapter(velocity *app.Aggregator, profiles *app.ProfileService) *ServiceAdapter {
	return &ServiceAdapter{
		velocity: velocity,
		profiles: profiles,
	}
}

// RecordTaskCompletion records one task completion through app-level APIs.
func (a *ServiceAdapter) RecordTaskCompletion(ctx context.Context, in RecordTaskRequest) (SpecActivityView, error) {
	if a == nil || a.velocity == nil {
		return SpecActivityView{}, fmt.Errorf("service adapter is not configured: %w", ErrVelocityUnavailable)
	}

	req, completedAt, err := normalizeRecordTaskRequest(in)
	if err != nil {
		return SpecActivityView{}, err
	}

	if err := a.velocity.RecordTaskCompletion(ctx, app.RecordTaskInput{
		SpecID:      req.SpecID,
		TaskID:      req.TaskID,
		Required:    req.Required,
		CompletedAt: completedAt,
	}); err != nil {
		return SpecActivityView{}, mapAppError("record task completion", err)
	}
	return a.specActivityView(req.SpecID, "record task completion")
}

// RecordSpecCompletion records one workstream completion through app-level APIs.
func (a *ServiceAdapter) RecordSpecCompletion(ctx context.Context, in RecordSpecCompletionRequest) (SpecActivityView, error) {
	if a == nil || a.velocity == nil {
		return SpecActivityView{}, fmt.Errorf("service adapter is not configured: %w", ErrVelocityUnavailable)
	}

	req, completedAt, err := normalizeRecordSpecCompletionRequest(in)
	if err != nil {
		return SpecActivityView{}, err
	}

	if err := a.velocity.RecordSpecCompletion(ctx, app.RecordSpecCompletionInput{
		SpecID:         req.SpecID,
		TotalTasks:     req.TotalTasks,
		CompletedTasks: req.CompletedTasks,
		CompletedAt:    completedAt,
	}); err != nil {
		return SpecActivityView{}, mapAppError("record spec completion", err)
	}
	return a.specActivityView(req.SpecID, "record spec completion")
}

// UpdateSpecProgress refreshes one workstream's task counters through app-level APIs.
func (a *ServiceAdapter) UpdateSpecProgress(ctx context.Context, in UpdateSpecProgressRequest) (SpecActivityView, error) {
	if a == nil || a.velocity == nil {
		return SpecActivityView{}, fmt.Errorf("service adapter is not configured: %w", ErrVelocityUnavailable)
	}

	req, err := normalizeUpdateSpecProgressRequest(in)
	if err != nil {
		return SpecActivityView{}, err
	}

	if err := a.velocity.UpdateSpecProgress(ctx, app.UpdateSpecProgressInput{
		SpecID:         req.SpecID,
		TotalTasks:     req.TotalTasks,
		CompletedTasks: req.CompletedTasks,
	}); err != nil {
		return SpecActivityView{}, mapAppError("update spec progress", err)
	}
	return a.specActivityView(req.SpecID, "update spec progress")
}

// VelocityMetrics resolves the derived velocity summary through app-level APIs.
func (a *ServiceAdapter) VelocityMetrics(ctx context.Context) (MetricsView, error) {
	if a == nil || a.velocity == nil {
		return MetricsView{}, fmt.Errorf("service adapter is not configured: %w", ErrVelocityUnavailable)
	}

	metrics, err := a.velocity.Metrics()
	if err != nil {
		return MetricsView{}, mapAppError("velocity metrics", err)
	}
	return mapMetrics(metrics), nil
}

// TasksPerWeek resolves the per-week task series through app-level APIs.
func (a *ServiceAdapter) TasksPerWeek(ctx context.Context, weeks int) ([]int, error) {
	if a == nil || a.velocity == nil {
		return nil, fmt.Errorf("service adapter is not configured: %w", ErrVelocityUnavailable)
	}

	window, err := normalizeWindowWeeks(weeks)
	if err != nil {
		return nil, err
	}
	counts, err := a.velocity.TasksPerWeek(window)
	if err != nil {
		return nil, mapAppError("tasks per week", err)
	}
	return counts, nil
}

// SpecsPerWeek resolves the per-week workstream-completion series through app-level APIs.
func (a *ServiceAdapter) SpecsPerWeek(ctx context.Context, weeks int) ([]int, error) {
	if a == nil || a.velocity == nil {
		return nil, fmt.Errorf("service adapter is not configured: %w", ErrVelocityUnavailable)
	}

	window, err := normalizeWindowWeeks(weeks)
	if err != nil {
		return nil, err
	}
	counts, err := a.velocity.SpecsPerWeek(window)
	if err != nil {
		return nil, mapAppError("specs per week", err)
	}
	return counts, nil
}

// ListSpecActivity lists all tracked workstreams through app-level APIs.
func (a *ServiceAdapter) ListSpecActivity(ctx context.Context) ([]SpecActivityView, error) {
	if a == nil || a.velocity == nil {
		return nil, fmt.Errorf("service adapter is not configured: %w", ErrVelocityUnavailable)
	}

	activities, err := a.velocity.SpecActivities()
	if err != nil {
		return nil, mapAppError("list spec activity", err)
	}
	views := make([]SpecActivityView, 0, len(activities))
	for _, activity := range activities {
		views = append(views, mapSpecActivity(activity.SpecID, activity.Activity))
	}
	return views, nil
}

// GetSpecActivity resolves one workstream's activity through app-level APIs.
func (a *ServiceAdapter) GetSpecActivity(ctx context.Context, specID string) (SpecActivityView, error) {
	if a == nil || a.velocity == nil {
		return SpecActivityView{}, fmt.Errorf("service adapter is not configured: %w", ErrVelocityUnavailable)
	}

	specID = strings.TrimSpace(specID)
	if specID == "" {
		return SpecActivityView{}, fmt.Errorf("spec_id is required: %w", ErrInvalidVelocityRequest)
	}
	return a.specActivityView(specID, "get spec activity")
}

// CreateProfile creates one report profile through app-level APIs.
func (a *ServiceAdapter) CreateProfile(ctx context.Context, in ProfileRequest) (ProfileView, error) {
	if a == nil || a.profiles == nil {
		return ProfileView{}, fmt.Errorf("profile directory is not configured: %w", ErrVelocityUnavailable)
	}

	req, err := normalizeProfileRequest(in)
	if err != nil {
		return ProfileView{}, err
	}
	profile, err := a.profiles.CreateProfile(ctx, app.ProfileInput{
		ID:       req.ID,
		Name:     req.Name,
		Template: req.Template,
	})
	if err != nil {
		return ProfileView{}, mapAppError("create profile", err)
	}
	return mapProfile(profile), nil
}

// UpdateProfile updates one report profile through app-level APIs.
func (a *ServiceAdapter) UpdateProfile(ctx context.Context, in ProfileRequest) (ProfileView, error) {
	if a == nil || a.profiles == nil {
		return ProfileView{}, fmt.Errorf("profile directory is not configured: %w", ErrVelocityUnavailable)
	}

	req, err := normalizeProfileRequest(in)
	if err != nil {
		return ProfileView{}, err
	}
	profile, err := a.profiles.UpdateProfile(ctx, app.ProfileInput{
		ID:       req.ID,
		Name:     req.Name,
		Template: req.Template,
	})
	if err != nil {
		return ProfileView{}, mapAppError("update profile", err)
	}
	return mapProfile(profile), nil
}

// GetProfile resolves one report profile through app-level APIs.
func (a *ServiceAdapter) GetProfile(ctx context.Context, id string) (ProfileView, error) {
	if a == nil || a.profiles == nil {
		return ProfileView{}, fmt.Errorf("profile directory is not configured: %w", ErrVelocityUnavailable)
	}

	id = strings.TrimSpace(id)
	if id == "" {
		return ProfileView{}, fmt.Errorf("id is required: %w", ErrInvalidProfileRequest)
	}
	profile, err := a.profiles.GetProfile(ctx, id)
	if err != nil {
		return ProfileView{}, mapAppError("get profile", err)
	}
	return mapProfile(profile), nil
}

// ListProfiles lists all report profiles through app-level APIs.
func (a *ServiceAdapter) ListProfiles(ctx context.Context) ([]ProfileView, error) {
	if a == nil || a.profiles == nil {
		return nil, fmt.Errorf("profile directory is not configured: %w", ErrVelocityUnavailable)
	}

	profiles, err := a.profiles.ListProfiles(ctx)
	if err != nil {
		return nil, mapAppError("list profiles", err)
	}
	views := make([]ProfileView, 0, len(profiles))
	for _, profile := range profiles {
		views = append(views, mapProfile(profile))
	}
	return views, nil
}

// ValidateProfile reports profile field validation without persisting anything.
func (a *ServiceAdapter) ValidateProfile(ctx context.Context, in ProfileRequest) (ProfileValidationView, error) {
	if a == nil || a.profiles == nil {
		return ProfileValidationView{}, fmt.Errorf("profile directory is not configured: %w", ErrVelocityUnavailable)
	}

	result := a.profiles.ValidateProfile(app.ProfileInput{
		ID:       in.ID,
		Name:     in.Name,
		Template: in.Template,
	})
	return ProfileValidationView{
		Valid:  result.Valid,
		Errors: append([]string(nil), result.Errors...),
	}, nil
}

// specActivityView resolves one workstream's post-mutation activity row.
func (a *ServiceAdapter) specActivityView(specID, operation string) (SpecActivityView, error) {
	activity, err := a.velocity.SpecActivityFor(specID)
	if err != nil {
		return SpecActivityView{}, mapAppError(operation, err)
	}
	return mapSpecActivity(specID, activity), nil
}

// normalizeRecordTaskRequest validates and canonicalizes record-task input.
func normalizeRecordTaskRequest(in RecordTaskRequest) (RecordTaskRequest, time.Time, error) {
	specID := strings.TrimSpace(in.SpecID)
	if specID == "" {
		return RecordTaskRequest{}, time.Time{}, fmt.Errorf("spec_id is required: %w", ErrInvalidVelocityRequest)
	}
	completedAt, err := parseOptionalTimestamp(in.CompletedAt)
	if err != nil {
		return RecordTaskRequest{}, time.Time{}, err
	}
	return RecordTaskRequest{
		SpecID:      specID,
		TaskID:      strings.TrimSpace(in.TaskID),
		Required:    in.Required,
		CompletedAt: strings.TrimSpace(in.CompletedAt),
	}, completedAt, nil
}

// normalizeRecordSpecCompletionRequest validates and canonicalizes spec-completion input.
func normalizeRecordSpecCompletionRequest(in RecordSpecCompletionRequest) (RecordSpecCompletionRequest, time.Time, error) {
	specID := strings.TrimSpace(in.SpecID)
	if specID == "" {
		return RecordSpecCompletionRequest{}, time.Time{}, fmt.Errorf("spec_id is required: %w", ErrInvalidVelocityRequest)
	}
	completedAt, err := parseOptionalTimestamp(in.CompletedAt)
	if err != nil {
		return RecordSpecCompletionRequest{}, time.Time{}, err
	}
	return RecordSpecCompletionRequest{
		SpecID:         specID,
		TotalTasks:     in.TotalTasks,
		CompletedTasks: in.CompletedTasks,
		CompletedAt:    strings.TrimSpace(in.CompletedAt),
	}, completedAt, nil
}

// normalizeUpdateSpecProgressRequest validates and canonicalizes progress input.
func normalizeUpdateSpecProgressRequest(in UpdateSpecProgressRequest) (UpdateSpecProgressRequest, error) {
	specID := strings.TrimSpace(in.SpecID)
	if specID == "" {
		return UpdateSpecProgressRequest{}, fmt.Errorf("spec_id is required: %w", ErrInvalidVelocityRequest)
	}
	return UpdateSpecProgressRequest{
		SpecID:         specID,
		TotalTasks:     in.TotalTasks,
		CompletedTasks: in.CompletedTasks,
	}, nil
}

// normalizeProfileRequest validates and canonicalizes profile input.
func normalizeProfileRequest(in ProfileRequest) (ProfileRequest, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return ProfileRequest{}, fmt.Errorf("id is required: %w", ErrInvalidProfileRequest)
	}
	return ProfileRequest{
		ID:       id,
		Name:     in.Name,
		Template: in.Template,
	}, nil
}

// normalizeWindowWeeks applies the default window and bounds transport-supplied lengths.
func normalizeWindowWeeks(weeks int) (int, error) {
	if weeks == 0 {
		return DefaultWindowWeeks, nil
	}
	if weeks < 1 || weeks > MaxWindowWeeks {
		return 0, fmt.Errorf("weeks %d is outside 1..%d: %w", weeks, MaxWindowWeeks, ErrInvalidVelocityRequest)
	}
	return weeks, nil
}

// parseOptionalTimestamp parses one optional RFC 3339 timestamp. Empty input
// defers to the service clock downstream.
func parseOptionalTimestamp(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("completed_at %q is not RFC 3339: %w", raw, ErrInvalidVelocityRequest)
	}
	return parsed.UTC(), nil
}

// mapMetrics maps domain metrics into the transport view.
func mapMetrics(in domain.VelocityMetrics) MetricsView {
	return MetricsView{
		CurrentWeekTasks:  in.CurrentWeekTasks,
		RequiredTasks:     in.RequiredVsOptional.Required,
		OptionalTasks:     in.RequiredVsOptional.Optional,
		DayOfWeekVelocity: in.DayOfWeekVelocity,
		TasksPerWeek:      append([]int(nil), in.TasksPerWeek...),
	}
}

// mapSpecActivity maps one domain activity record into one transport DTO row.
func mapSpecActivity(specID string, activity domain.SpecActivityData) SpecActivityView {
	return SpecActivityView{
		SpecID:         specID,
		FirstTaskDate:  optionalTime(activity.FirstTaskDate),
		LastTaskDate:   optionalTime(activity.LastTaskDate),
		TotalTasks:     activity.TotalTasks,
		CompletedTasks: activity.CompletedTasks,
		CompletionDate: cloneTimePtr(activity.CompletionDate),
		Completed:      activity.Completed(),
	}
}

// mapProfile maps one domain profile into one transport DTO row.
func mapProfile(p domain.Profile) ProfileView {
	return ProfileView{
		ID:        p.ID,
		Name:      p.Name,
		Template:  p.Template,
		CreatedAt: p.CreatedAt.UTC(),
		UpdatedAt: p.UpdatedAt.UTC(),
	}
}

// optionalTime maps zero timestamps to nil pointers for omit-empty rendering.
func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	utc := t.UTC()
	return &utc
}

// cloneTimePtr copies one optional timestamp without aliasing aggregate state.
func cloneTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}

// mapAppError maps app and domain errors into transport-layer error sentinels.
func mapAppError(operation string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, app.ErrNotInitialized):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrVelocityUnavailable, err))
	case errors.Is(err, app.ErrNotFound),
		errors.Is(err, app.ErrProfileNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, app.ErrProfileExists):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrProfileConflict, err))
	case errors.Is(err, domain.ErrInvalidSpecID),
		errors.Is(err, domain.ErrInvalidTaskCounts):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidVelocityRequest, err))
	case errors.Is(err, domain.ErrInvalidProfile):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidProfileRequest, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}
