package app

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hylla/takt/internal/domain"
)

// RecordTaskInput describes one completed task event.
type RecordTaskInput struct {
	SpecID      string
	TaskID      string
	Required    bool
	CompletedAt time.Time
}

// RecordSpecCompletionInput describes one workstream completion event.
type RecordSpecCompletionInput struct {
	SpecID         string
	TotalTasks     int
	CompletedTasks int
	CompletedAt    time.Time
}

// UpdateSpecProgressInput describes one workstream progress snapshot.
type UpdateSpecProgressInput struct {
	SpecID         string
	TotalTasks     int
	CompletedTasks int
}

// SpecActivity pairs a workstream id with its activity record for read views.
type SpecActivity struct {
	SpecID   string
	Activity domain.SpecActivityData
}

// Aggregator owns the in-memory velocity aggregate for one workspace and
// persists it through the state store after every mutation. Recording
// operations serialize on an internal mutex so overlapping calls cannot lose
// updates; read operations snapshot under the same mutex and never fail once
// Initialize has completed.
type Aggregator struct {
	mu    sync.Mutex
	store StateStore
	clock Clock

	data        *domain.VelocityData
	initialized bool
}

// NewAggregator constructs a new value for this package.
func NewAggregator(store StateStore, clock Clock) *Aggregator {
	if clock == nil {
		clock = time.Now
	}
	return &Aggregator{store: store, clock: clock}
}

// Initialize loads the persisted aggregate, or starts empty when the store
// holds no snapshot. It must complete before any other operation; every
// other operation fails with ErrNotInitialized until it has.
func (a *Aggregator) Initialize(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	data, ok, err := a.store.GetVelocityData(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	if ok {
		a.data = data.Clone()
	} else {
		a.data = domain.NewVelocityData()
	}
	a.initialized = true
	return nil
}

// RecordTaskCompletion records one completed task and persists the updated
// aggregate. Repeated calls for the same task accumulate; TaskID is carried
// for traceability only and never deduplicates. A zero CompletedAt falls
// back to the aggregator clock.
func (a *Aggregator) RecordTaskCompletion(ctx context.Context, in RecordTaskInput) error {
	specID := strings.TrimSpace(in.SpecID)
	if specID == "" {
		return domain.ErrInvalidSpecID
	}
	completedAt := in.CompletedAt

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.initialized {
		return ErrNotInitialized
	}
	if completedAt.IsZero() {
		completedAt = a.clock()
	}
	a.data.RecordTask(specID, in.Required, completedAt)
	return a.persist(ctx)
}

// RecordSpecCompletion overwrites the workstream's progress counters and
// asserts completion at the event timestamp, then persists. A zero
// CompletedAt falls back to the aggregator clock.
func (a *Aggregator) RecordSpecCompletion(ctx context.Context, in RecordSpecCompletionInput) error {
	specID := strings.TrimSpace(in.SpecID)
	if specID == "" {
		return domain.ErrInvalidSpecID
	}
	if in.TotalTasks < 0 || in.CompletedTasks < 0 {
		return domain.ErrInvalidTaskCounts
	}
	completedAt := in.CompletedAt

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.initialized {
		return ErrNotInitialized
	}
	if completedAt.IsZero() {
		completedAt = a.clock()
	}
	a.data.RecordSpecCompletion(specID, in.TotalTasks, in.CompletedTasks, completedAt)
	return a.persist(ctx)
}

// UpdateSpecProgress overwrites the workstream's progress counters, derives
// its completion state from them, and persists. The completion instant for a
// newly complete workstream comes from the aggregator clock; a regression
// below complete clears it.
func (a *Aggregator) UpdateSpecProgress(ctx context.Context, in UpdateSpecProgressInput) error {
	specID := strings.TrimSpace(in.SpecID)
	if specID == "" {
		return domain.ErrInvalidSpecID
	}
	if in.TotalTasks < 0 || in.CompletedTasks < 0 {
		return domain.ErrInvalidTaskCounts
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.initialized {
		return ErrNotInitialized
	}
	a.data.UpdateSpecProgress(specID, in.TotalTasks, in.CompletedTasks, a.clock())
	return a.persist(ctx)
}

// Metrics returns the derived summary for the current week plus the default
// per-week history window.
func (a *Aggregator) Metrics() (domain.VelocityMetrics, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.initialized {
		return domain.VelocityMetrics{}, ErrNotInitialized
	}
	return a.data.Metrics(a.clock()), nil
}

// TasksPerWeek returns total task counts for the numWeeks most recent
// calendar weeks ending at the current week, oldest first and zero-filled.
func (a *Aggregator) TasksPerWeek(numWeeks int) ([]int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.initialized {
		return nil, ErrNotInitialized
	}
	return a.data.TasksPerWeek(numWeeks, a.clock()), nil
}

// SpecsPerWeek returns completed-workstream counts for the numWeeks most
// recent calendar weeks ending at the current week, oldest first and
// zero-filled.
func (a *Aggregator) SpecsPerWeek(numWeeks int) ([]int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.initialized {
		return nil, ErrNotInitialized
	}
	return a.data.SpecsPerWeek(numWeeks, a.clock()), nil
}

// WeeklyHistory returns the stored week buckets in ascending calendar order.
func (a *Aggregator) WeeklyHistory() ([]domain.WeeklyTaskData, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.initialized {
		return nil, ErrNotInitialized
	}
	sorted := a.data.SortedWeeks()
	weeks := make([]domain.WeeklyTaskData, 0, len(sorted))
	for _, bucket := range sorted {
		weeks = append(weeks, *bucket)
	}
	return weeks, nil
}

// SpecActivities returns every workstream activity record sorted by spec id.
func (a *Aggregator) SpecActivities() ([]SpecActivity, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.initialized {
		return nil, ErrNotInitialized
	}
	out := make([]SpecActivity, 0, len(a.data.Specs))
	for id, activity := range a.data.Specs {
		copied := *activity
		copied.CompletionDate = copySpecTime(activity.CompletionDate)
		out = append(out, SpecActivity{SpecID: id, Activity: copied})
	}
	sortSpecActivities(out)
	return out, nil
}

// SpecActivityFor returns one workstream's activity record.
func (a *Aggregator) SpecActivityFor(specID string) (domain.SpecActivityData, error) {
	specID = strings.TrimSpace(specID)
	if specID == "" {
		return domain.SpecActivityData{}, domain.ErrInvalidSpecID
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.initialized {
		return domain.SpecActivityData{}, ErrNotInitialized
	}
	activity, ok := a.data.Specs[specID]
	if !ok {
		return domain.SpecActivityData{}, ErrNotFound
	}
	copied := *activity
	copied.CompletionDate = copySpecTime(activity.CompletionDate)
	return copied, nil
}

// Snapshot returns a deep copy of the current aggregate for export flows.
func (a *Aggregator) Snapshot() (domain.VelocityData, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.initialized {
		return domain.VelocityData{}, ErrNotInitialized
	}
	return *a.data.Clone(), nil
}

// ReplaceData swaps in a new aggregate (import flows) and persists it.
func (a *Aggregator) ReplaceData(ctx context.Context, data domain.VelocityData) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.initialized {
		return ErrNotInitialized
	}
	a.data = data.Clone()
	return a.persist(ctx)
}

// persist writes the full aggregate snapshot. The in-memory mutation stays
// applied even when the write fails, so callers may retry persistence
// without replaying the mutation.
func (a *Aggregator) persist(ctx context.Context) error {
	if err := a.store.SaveVelocityData(ctx, *a.data.Clone()); err != nil {
		return fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return nil
}

// sortSpecActivities orders activity views by spec id.
func sortSpecActivities(items []SpecActivity) {
	slices.SortFunc(items, func(a, b SpecActivity) int {
		return strings.Compare(a.SpecID, b.SpecID)
	})
}

// copySpecTime copies an optional timestamp.
func copySpecTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	ts := *t
	return &ts
}
