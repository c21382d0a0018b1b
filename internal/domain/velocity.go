package domain

import (
	"slices"
	"time"
)

// DefaultMetricsWeeks is the window length Metrics uses for its per-week
// history series.
const DefaultMetricsWeeks = 12

// DayOfWeekCounts holds one task counter per calendar day, Monday first.
type DayOfWeekCounts struct {
	Monday    int `json:"monday"`
	Tuesday   int `json:"tuesday"`
	Wednesday int `json:"wednesday"`
	Thursday  int `json:"thursday"`
	Friday    int `json:"friday"`
	Saturday  int `json:"saturday"`
	Sunday    int `json:"sunday"`
}

// Add increments the counter for the given calendar day.
func (d *DayOfWeekCounts) Add(day time.Weekday) {
	switch day {
	case time.Monday:
		d.Monday++
	case time.Tuesday:
		d.Tuesday++
	case time.Wednesday:
		d.Wednesday++
	case time.Thursday:
		d.Thursday++
	case time.Friday:
		d.Friday++
	case time.Saturday:
		d.Saturday++
	case time.Sunday:
		d.Sunday++
	}
}

// Count returns the counter for the given calendar day.
func (d DayOfWeekCounts) Count(day time.Weekday) int {
	switch day {
	case time.Monday:
		return d.Monday
	case time.Tuesday:
		return d.Tuesday
	case time.Wednesday:
		return d.Wednesday
	case time.Thursday:
		return d.Thursday
	case time.Friday:
		return d.Friday
	case time.Saturday:
		return d.Saturday
	case time.Sunday:
		return d.Sunday
	}
	return 0
}

// Total sums the seven day counters.
func (d DayOfWeekCounts) Total() int {
	return d.Monday + d.Tuesday + d.Wednesday + d.Thursday + d.Friday + d.Saturday + d.Sunday
}

// WeeklyTaskData aggregates the task completions recorded in one ISO week.
type WeeklyTaskData struct {
	Week     WeekKey         `json:"week"`
	Total    int             `json:"total"`
	Required int             `json:"required"`
	Optional int             `json:"optional"`
	Days     DayOfWeekCounts `json:"days"`
}

// SpecActivityData tracks per-workstream task activity and the latest
// reported completion snapshot. FirstTaskDate is set by the first task event
// and never changes afterward; a zero FirstTaskDate means no task event has
// been recorded yet (the record was created by a progress report).
type SpecActivityData struct {
	FirstTaskDate  time.Time  `json:"first_task_date"`
	LastTaskDate   time.Time  `json:"last_task_date"`
	TotalTasks     int        `json:"total_tasks"`
	CompletedTasks int        `json:"completed_tasks"`
	CompletionDate *time.Time `json:"completion_date,omitempty"`
}

// Completed reports whether the latest progress snapshot satisfies the
// completion condition.
func (s SpecActivityData) Completed() bool {
	return s.TotalTasks > 0 && s.CompletedTasks >= s.TotalTasks
}

// VelocityData is the persisted aggregate root: week buckets keyed by ISO
// week plus per-workstream activity records.
type VelocityData struct {
	Weeks map[WeekKey]*WeeklyTaskData  `json:"weeks"`
	Specs map[string]*SpecActivityData `json:"specs"`
}

// NewVelocityData constructs the empty aggregate.
func NewVelocityData() *VelocityData {
	return &VelocityData{
		Weeks: make(map[WeekKey]*WeeklyTaskData),
		Specs: make(map[string]*SpecActivityData),
	}
}

// RecordTask applies one task completion: the matching week bucket's total,
// required-or-optional, and day counters grow by one, and the workstream's
// activity dates advance.
func (v *VelocityData) RecordTask(specID string, required bool, completedAt time.Time) {
	key := WeekKeyOf(completedAt)
	bucket, ok := v.Weeks[key]
	if !ok {
		bucket = &WeeklyTaskData{Week: key}
		v.Weeks[key] = bucket
	}
	bucket.Total++
	if required {
		bucket.Required++
	} else {
		bucket.Optional++
	}
	bucket.Days.Add(DayOfWeekOf(completedAt))

	ts := completedAt.UTC()
	activity, ok := v.Specs[specID]
	if !ok {
		v.Specs[specID] = &SpecActivityData{FirstTaskDate: ts, LastTaskDate: ts}
		return
	}
	if activity.FirstTaskDate.IsZero() {
		activity.FirstTaskDate = ts
	}
	activity.LastTaskDate = ts
}

// RecordSpecCompletion overwrites the workstream's progress snapshot and
// marks it completed at the given instant, creating the record if absent.
func (v *VelocityData) RecordSpecCompletion(specID string, totalTasks, completedTasks int, completedAt time.Time) {
	activity := v.ensureSpec(specID)
	activity.TotalTasks = totalTasks
	activity.CompletedTasks = completedTasks
	ts := completedAt.UTC()
	activity.CompletionDate = &ts
}

// UpdateSpecProgress overwrites the workstream's progress snapshot and
// derives its completion state: now supplies the completion instant when the
// workstream newly becomes complete, and an already-set completion date is
// kept; when the condition no longer holds the date is cleared.
func (v *VelocityData) UpdateSpecProgress(specID string, totalTasks, completedTasks int, now time.Time) {
	activity := v.ensureSpec(specID)
	activity.TotalTasks = totalTasks
	activity.CompletedTasks = completedTasks
	switch {
	case activity.Completed() && activity.CompletionDate == nil:
		ts := now.UTC()
		activity.CompletionDate = &ts
	case !activity.Completed():
		activity.CompletionDate = nil
	}
}

// ensureSpec finds or creates the activity record for specID.
func (v *VelocityData) ensureSpec(specID string) *SpecActivityData {
	activity, ok := v.Specs[specID]
	if !ok {
		activity = &SpecActivityData{}
		v.Specs[specID] = activity
	}
	return activity
}

// SortedWeeks returns the week buckets in ascending calendar order. The view
// is computed fresh on every call; insertion order is never trusted.
func (v *VelocityData) SortedWeeks() []*WeeklyTaskData {
	weeks := make([]*WeeklyTaskData, 0, len(v.Weeks))
	for _, bucket := range v.Weeks {
		weeks = append(weeks, bucket)
	}
	slices.SortFunc(weeks, func(a, b *WeeklyTaskData) int {
		if a.Week.Before(b.Week) {
			return -1
		}
		if b.Week.Before(a.Week) {
			return 1
		}
		return 0
	})
	return weeks
}

// TasksPerWeek returns the total task count for each of the numWeeks most
// recent calendar weeks ending at the week containing now, oldest first.
// Weeks without recorded activity contribute zero.
func (v *VelocityData) TasksPerWeek(numWeeks int, now time.Time) []int {
	window := WindowEnding(WeekKeyOf(now), numWeeks)
	counts := make([]int, len(window))
	for i, key := range window {
		if bucket, ok := v.Weeks[key]; ok {
			counts[i] = bucket.Total
		}
	}
	return counts
}

// SpecsPerWeek returns, for the same window as TasksPerWeek, the number of
// distinct workstreams whose completion date falls in each week.
func (v *VelocityData) SpecsPerWeek(numWeeks int, now time.Time) []int {
	window := WindowEnding(WeekKeyOf(now), numWeeks)
	index := make(map[WeekKey]int, len(window))
	for i, key := range window {
		index[key] = i
	}
	counts := make([]int, len(window))
	for _, activity := range v.Specs {
		if activity.CompletionDate == nil {
			continue
		}
		if i, ok := index[WeekKeyOf(*activity.CompletionDate)]; ok {
			counts[i]++
		}
	}
	return counts
}

// Clone returns a deep copy of the aggregate.
func (v *VelocityData) Clone() *VelocityData {
	out := NewVelocityData()
	for key, bucket := range v.Weeks {
		copied := *bucket
		out.Weeks[key] = &copied
	}
	for id, activity := range v.Specs {
		copied := *activity
		copied.CompletionDate = copyTimePtr(activity.CompletionDate)
		out.Specs[id] = &copied
	}
	return out
}

// copyTimePtr copies an optional timestamp.
func copyTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	ts := *t
	return &ts
}
