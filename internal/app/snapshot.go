package app

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/hylla/takt/internal/domain"
)

// SnapshotVersion defines a package constant value.
const SnapshotVersion = "takt.snapshot.v1"

// Snapshot represents snapshot data used by this package.
type Snapshot struct {
	Version    string            `json:"version"`
	ExportedAt time.Time         `json:"exported_at"`
	Weeks      []SnapshotWeek    `json:"weeks"`
	Specs      []SnapshotSpec    `json:"specs"`
	Profiles   []SnapshotProfile `json:"profiles,omitempty"`
}

// SnapshotWeek represents one persisted week bucket in a snapshot.
type SnapshotWeek struct {
	Year     int               `json:"year"`
	Week     int               `json:"week"`
	Total    int               `json:"total"`
	Required int               `json:"required"`
	Optional int               `json:"optional"`
	Days     SnapshotDayCounts `json:"days"`
}

// SnapshotDayCounts represents one week's per-day counters in a snapshot.
type SnapshotDayCounts struct {
	Monday    int `json:"monday"`
	Tuesday   int `json:"tuesday"`
	Wednesday int `json:"wednesday"`
	Thursday  int `json:"thursday"`
	Friday    int `json:"friday"`
	Saturday  int `json:"saturday"`
	Sunday    int `json:"sunday"`
}

// SnapshotSpec represents one persisted workstream activity row in a snapshot.
type SnapshotSpec struct {
	SpecID         string     `json:"spec_id"`
	FirstTaskDate  *time.Time `json:"first_task_date,omitempty"`
	LastTaskDate   *time.Time `json:"last_task_date,omitempty"`
	TotalTasks     int        `json:"total_tasks"`
	CompletedTasks int        `json:"completed_tasks"`
	CompletionDate *time.Time `json:"completion_date,omitempty"`
}

// SnapshotProfile represents one persisted profile row in a snapshot.
type SnapshotProfile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Template  string    `json:"template"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExportSnapshot handles export snapshot. The profile service is optional;
// when nil the snapshot carries no profile section.
func (a *Aggregator) ExportSnapshot(ctx context.Context, profiles *ProfileService) (Snapshot, error) {
	data, err := a.Snapshot()
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Version:    SnapshotVersion,
		ExportedAt: a.clock().UTC(),
		Weeks:      make([]SnapshotWeek, 0, len(data.Weeks)),
		Specs:      make([]SnapshotSpec, 0, len(data.Specs)),
	}
	for _, bucket := range data.SortedWeeks() {
		snap.Weeks = append(snap.Weeks, snapshotWeekFromDomain(*bucket))
	}
	for specID, activity := range data.Specs {
		snap.Specs = append(snap.Specs, snapshotSpecFromDomain(specID, *activity))
	}

	if profiles != nil {
		stored, listErr := profiles.ListProfiles(ctx)
		if listErr != nil {
			return Snapshot{}, listErr
		}
		snap.Profiles = make([]SnapshotProfile, 0, len(stored))
		for _, profile := range stored {
			snap.Profiles = append(snap.Profiles, snapshotProfileFromDomain(profile))
		}
	}

	snap.sort()
	return snap, nil
}

// ImportSnapshot handles import snapshot: the velocity aggregate is replaced
// wholesale and profiles are upserted by id. The profile service is optional;
// when nil any profile section is ignored.
func (a *Aggregator) ImportSnapshot(ctx context.Context, profiles *ProfileService, snap Snapshot) error {
	if err := snap.Validate(); err != nil {
		return err
	}
	snap.sort()

	if err := a.ReplaceData(ctx, *snap.toDomainVelocity()); err != nil {
		return err
	}

	if profiles == nil {
		return nil
	}
	for _, snapshotProfile := range snap.Profiles {
		profile := snapshotProfile.toDomain()
		if _, err := profiles.store.GetProfile(ctx, profile.ID); err == nil {
			if err := profiles.store.UpdateProfile(ctx, profile); err != nil {
				return err
			}
			continue
		} else if !errors.Is(err, ErrProfileNotFound) {
			return err
		}
		if err := profiles.store.CreateProfile(ctx, profile); err != nil {
			return err
		}
	}
	return nil
}

// Validate validates the requested operation.
func (s *Snapshot) Validate() error {
	if s.Version != "" && s.Version != SnapshotVersion {
		return fmt.Errorf("unsupported snapshot version: %q", s.Version)
	}

	weekKeys := map[domain.WeekKey]struct{}{}
	for i, w := range s.Weeks {
		if w.Year < 1 {
			return fmt.Errorf("weeks[%d].year is required", i)
		}
		if w.Week < 1 || w.Week > 53 {
			return fmt.Errorf("weeks[%d].week must be in 1..53", i)
		}
		if w.Total < 0 || w.Required < 0 || w.Optional < 0 {
			return fmt.Errorf("weeks[%d] counts must be >= 0", i)
		}
		if w.Total != w.Required+w.Optional {
			return fmt.Errorf("weeks[%d] total %d != required %d + optional %d", i, w.Total, w.Required, w.Optional)
		}
		if daySum := w.Days.total(); daySum != w.Total {
			return fmt.Errorf("weeks[%d] day counts sum %d != total %d", i, daySum, w.Total)
		}
		key := domain.WeekKey{Year: w.Year, Week: w.Week}
		if _, exists := weekKeys[key]; exists {
			return fmt.Errorf("duplicate week: %v", key)
		}
		weekKeys[key] = struct{}{}
	}

	specIDs := map[string]struct{}{}
	for i, sp := range s.Specs {
		specID := strings.TrimSpace(sp.SpecID)
		if specID == "" {
			return fmt.Errorf("specs[%d].spec_id is required", i)
		}
		if _, exists := specIDs[specID]; exists {
			return fmt.Errorf("duplicate spec id: %q", specID)
		}
		if sp.TotalTasks < 0 || sp.CompletedTasks < 0 {
			return fmt.Errorf("specs[%d] task counts must be >= 0", i)
		}
		if sp.FirstTaskDate == nil && sp.LastTaskDate != nil {
			return fmt.Errorf("specs[%d].first_task_date is required with last_task_date", i)
		}
		if sp.FirstTaskDate != nil && sp.LastTaskDate == nil {
			return fmt.Errorf("specs[%d].last_task_date is required with first_task_date", i)
		}
		if sp.FirstTaskDate != nil && sp.LastTaskDate != nil && sp.LastTaskDate.Before(*sp.FirstTaskDate) {
			return fmt.Errorf("specs[%d].last_task_date before first_task_date", i)
		}
		s.Specs[i].SpecID = specID
		specIDs[specID] = struct{}{}
	}

	profileIDs := map[string]struct{}{}
	for i, p := range s.Profiles {
		result := domain.ValidateProfileFields(strings.TrimSpace(p.ID), strings.TrimSpace(p.Name), strings.TrimSpace(p.Template))
		if !result.Valid {
			return fmt.Errorf("profiles[%d] invalid: %s", i, strings.Join(result.Errors, "; "))
		}
		if p.CreatedAt.IsZero() || p.UpdatedAt.IsZero() {
			return fmt.Errorf("profiles[%d] timestamps are required", i)
		}
		id := strings.TrimSpace(p.ID)
		if _, exists := profileIDs[id]; exists {
			return fmt.Errorf("duplicate profile id: %q", id)
		}
		s.Profiles[i].ID = id
		profileIDs[id] = struct{}{}
	}

	return nil
}

// sort handles sort.
func (s *Snapshot) sort() {
	sort.Slice(s.Weeks, func(i, j int) bool {
		a := s.Weeks[i]
		b := s.Weeks[j]
		if a.Year == b.Year {
			return a.Week < b.Week
		}
		return a.Year < b.Year
	})
	sort.Slice(s.Specs, func(i, j int) bool {
		return s.Specs[i].SpecID < s.Specs[j].SpecID
	})
	sort.Slice(s.Profiles, func(i, j int) bool {
		return s.Profiles[i].ID < s.Profiles[j].ID
	})
}

// toDomainVelocity rebuilds the aggregate from snapshot rows.
func (s *Snapshot) toDomainVelocity() *domain.VelocityData {
	data := domain.NewVelocityData()
	for _, w := range s.Weeks {
		key := domain.WeekKey{Year: w.Year, Week: w.Week}
		data.Weeks[key] = &domain.WeeklyTaskData{
			Week:     key,
			Total:    w.Total,
			Required: w.Required,
			Optional: w.Optional,
			Days: domain.DayOfWeekCounts{
				Monday:    w.Days.Monday,
				Tuesday:   w.Days.Tuesday,
				Wednesday: w.Days.Wednesday,
				Thursday:  w.Days.Thursday,
				Friday:    w.Days.Friday,
				Saturday:  w.Days.Saturday,
				Sunday:    w.Days.Sunday,
			},
		}
	}
	for _, sp := range s.Specs {
		activity := &domain.SpecActivityData{
			TotalTasks:     sp.TotalTasks,
			CompletedTasks: sp.CompletedTasks,
			CompletionDate: copyTimePtr(sp.CompletionDate),
		}
		if sp.FirstTaskDate != nil {
			activity.FirstTaskDate = sp.FirstTaskDate.UTC()
		}
		if sp.LastTaskDate != nil {
			activity.LastTaskDate = sp.LastTaskDate.UTC()
		}
		data.Specs[sp.SpecID] = activity
	}
	return data
}

// snapshotWeekFromDomain handles snapshot week from domain.
func snapshotWeekFromDomain(bucket domain.WeeklyTaskData) SnapshotWeek {
	return SnapshotWeek{
		Year:     bucket.Week.Year,
		Week:     bucket.Week.Week,
		Total:    bucket.Total,
		Required: bucket.Required,
		Optional: bucket.Optional,
		Days: SnapshotDayCounts{
			Monday:    bucket.Days.Monday,
			Tuesday:   bucket.Days.Tuesday,
			Wednesday: bucket.Days.Wednesday,
			Thursday:  bucket.Days.Thursday,
			Friday:    bucket.Days.Friday,
			Saturday:  bucket.Days.Saturday,
			Sunday:    bucket.Days.Sunday,
		},
	}
}

// snapshotSpecFromDomain handles snapshot spec from domain.
func snapshotSpecFromDomain(specID string, activity domain.SpecActivityData) SnapshotSpec {
	out := SnapshotSpec{
		SpecID:         specID,
		TotalTasks:     activity.TotalTasks,
		CompletedTasks: activity.CompletedTasks,
		CompletionDate: copyTimePtr(activity.CompletionDate),
	}
	if !activity.FirstTaskDate.IsZero() {
		first := activity.FirstTaskDate.UTC().Truncate(time.Second)
		out.FirstTaskDate = &first
	}
	if !activity.LastTaskDate.IsZero() {
		last := activity.LastTaskDate.UTC().Truncate(time.Second)
		out.LastTaskDate = &last
	}
	return out
}

// snapshotProfileFromDomain handles snapshot profile from domain.
func snapshotProfileFromDomain(profile domain.Profile) SnapshotProfile {
	return SnapshotProfile{
		ID:        profile.ID,
		Name:      profile.Name,
		Template:  profile.Template,
		CreatedAt: profile.CreatedAt.UTC(),
		UpdatedAt: profile.UpdatedAt.UTC(),
	}
}

// toDomain converts domain.
func (p SnapshotProfile) toDomain() domain.Profile {
	return domain.Profile{
		ID:        strings.TrimSpace(p.ID),
		Name:      strings.TrimSpace(p.Name),
		Template:  strings.TrimSpace(p.Template),
		CreatedAt: p.CreatedAt.UTC(),
		UpdatedAt: p.UpdatedAt.UTC(),
	}
}

// total sums the seven snapshot day counters.
func (d SnapshotDayCounts) total() int {
	return d.Monday + d.Tuesday + d.Wednesday + d.Thursday + d.Friday + d.Saturday + d.Sunday
}

// copyTimePtr copies time ptr.
func copyTimePtr(in *time.Time) *time.Time {
	if in == nil {
		return nil
	}
	t := in.UTC().Truncate(time.Second)
	return &t
}
