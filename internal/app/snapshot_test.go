package app

import (
	"context"
	"testing"
	"time"

	"github.com/hylla/takt/internal/domain"
)

func TestExportSnapshotIncludesExpectedData(t *testing.T) {
	now := time.Date(2026, 2, 6, 20, 0, 0, 0, time.UTC)
	store := &fakeStateStore{}
	agg := newTestAggregator(t, store, now)

	recordings := []RecordTaskInput{
		{SpecID: "spec-b", Required: true, CompletedAt: now},
		{SpecID: "spec-a", Required: false, CompletedAt: now.AddDate(0, 0, -21)},
	}
	for _, in := range recordings {
		if err := agg.RecordTaskCompletion(context.Background(), in); err != nil {
			t.Fatalf("RecordTaskCompletion() error = %v", err)
		}
	}
	if err := agg.RecordSpecCompletion(context.Background(), RecordSpecCompletionInput{SpecID: "spec-a", TotalTasks: 4, CompletedTasks: 4, CompletedAt: now}); err != nil {
		t.Fatalf("RecordSpecCompletion() error = %v", err)
	}

	profileStore := newFakeProfileStore()
	profiles := NewProfileService(profileStore, func() time.Time { return now })
	for _, id := range []string{"zeta-team", "alpha-team"} {
		if _, err := profiles.CreateProfile(context.Background(), ProfileInput{ID: id, Name: "Team", Template: "tmpl"}); err != nil {
			t.Fatalf("CreateProfile(%s) error = %v", id, err)
		}
	}

	snap, err := agg.ExportSnapshot(context.Background(), profiles)
	if err != nil {
		t.Fatalf("ExportSnapshot() error = %v", err)
	}
	if snap.Version != SnapshotVersion {
		t.Fatalf("unexpected version %q", snap.Version)
	}
	if !snap.ExportedAt.Equal(now) {
		t.Fatalf("ExportedAt = %v, want %v", snap.ExportedAt, now)
	}
	if len(snap.Weeks) != 2 {
		t.Fatalf("expected 2 week rows, got %d", len(snap.Weeks))
	}
	for i := 1; i < len(snap.Weeks); i++ {
		prev := domain.WeekKey{Year: snap.Weeks[i-1].Year, Week: snap.Weeks[i-1].Week}
		curr := domain.WeekKey{Year: snap.Weeks[i].Year, Week: snap.Weeks[i].Week}
		if !prev.Before(curr) {
			t.Fatalf("weeks not ascending: %v then %v", prev, curr)
		}
	}
	if len(snap.Specs) != 2 || snap.Specs[0].SpecID != "spec-a" || snap.Specs[1].SpecID != "spec-b" {
		t.Fatalf("unexpected spec rows %#v", snap.Specs)
	}
	if snap.Specs[0].CompletionDate == nil {
		t.Fatal("expected completion date on spec-a")
	}
	if len(snap.Profiles) != 2 || snap.Profiles[0].ID != "alpha-team" || snap.Profiles[1].ID != "zeta-team" {
		t.Fatalf("unexpected profile rows %#v", snap.Profiles)
	}
}

func TestExportSnapshotWithoutProfiles(t *testing.T) {
	now := time.Date(2026, 2, 6, 20, 0, 0, 0, time.UTC)
	agg := newTestAggregator(t, &fakeStateStore{}, now)

	snap, err := agg.ExportSnapshot(context.Background(), nil)
	if err != nil {
		t.Fatalf("ExportSnapshot() error = %v", err)
	}
	if snap.Profiles != nil {
		t.Fatalf("expected no profile section, got %#v", snap.Profiles)
	}
}

func TestImportSnapshotReplacesStateAndUpsertsProfiles(t *testing.T) {
	now := time.Date(2026, 2, 6, 20, 0, 0, 0, time.UTC)
	store := &fakeStateStore{}
	agg := newTestAggregator(t, store, now)

	if err := agg.RecordTaskCompletion(context.Background(), RecordTaskInput{SpecID: "stale-spec", Required: true, CompletedAt: now}); err != nil {
		t.Fatalf("RecordTaskCompletion() error = %v", err)
	}

	profileStore := newFakeProfileStore()
	profiles := NewProfileService(profileStore, func() time.Time { return now })
	if _, err := profiles.CreateProfile(context.Background(), ProfileInput{ID: "backend-team", Name: "Old Name", Template: "v1"}); err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}

	first := now.AddDate(0, 0, -10)
	snap := Snapshot{
		Version: SnapshotVersion,
		Weeks: []SnapshotWeek{
			{Year: 2026, Week: 5, Total: 2, Required: 1, Optional: 1, Days: SnapshotDayCounts{Tuesday: 2}},
		},
		Specs: []SnapshotSpec{
			{SpecID: "imported-spec", FirstTaskDate: &first, LastTaskDate: &now, TotalTasks: 3, CompletedTasks: 1},
		},
		Profiles: []SnapshotProfile{
			{ID: "backend-team", Name: "New Name", Template: "v2", CreatedAt: now, UpdatedAt: now},
			{ID: "data-team", Name: "Data Team", Template: "v1", CreatedAt: now, UpdatedAt: now},
		},
	}

	if err := agg.ImportSnapshot(context.Background(), profiles, snap); err != nil {
		t.Fatalf("ImportSnapshot() error = %v", err)
	}

	if _, err := agg.SpecActivityFor("stale-spec"); err == nil {
		t.Fatal("expected stale spec to be replaced")
	}
	activity, err := agg.SpecActivityFor("imported-spec")
	if err != nil {
		t.Fatalf("SpecActivityFor() error = %v", err)
	}
	if activity.TotalTasks != 3 || activity.CompletedTasks != 1 {
		t.Fatalf("imported counters = %d/%d", activity.CompletedTasks, activity.TotalTasks)
	}

	if store.data.Weeks[domain.WeekKey{Year: 2026, Week: 5}] == nil {
		t.Fatal("expected imported state to be persisted")
	}

	if got := profileStore.profiles["backend-team"]; got.Name != "New Name" || got.Template != "v2" {
		t.Fatalf("unexpected updated profile %#v", got)
	}
	if _, ok := profileStore.profiles["data-team"]; !ok {
		t.Fatal("expected new profile data-team")
	}
}

func TestImportSnapshotValidateErrors(t *testing.T) {
	now := time.Date(2026, 2, 6, 20, 0, 0, 0, time.UTC)
	agg := newTestAggregator(t, &fakeStateStore{}, now)

	badVersion := Snapshot{Version: "takt.snapshot.v999"}
	if err := agg.ImportSnapshot(context.Background(), nil, badVersion); err == nil {
		t.Fatal("expected version validation error")
	}

	badTotals := Snapshot{
		Version: SnapshotVersion,
		Weeks:   []SnapshotWeek{{Year: 2026, Week: 5, Total: 3, Required: 1, Optional: 1, Days: SnapshotDayCounts{Monday: 3}}},
	}
	if err := agg.ImportSnapshot(context.Background(), nil, badTotals); err == nil {
		t.Fatal("expected total split validation error")
	}

	badDays := Snapshot{
		Version: SnapshotVersion,
		Weeks:   []SnapshotWeek{{Year: 2026, Week: 5, Total: 2, Required: 2, Days: SnapshotDayCounts{Monday: 1}}},
	}
	if err := agg.ImportSnapshot(context.Background(), nil, badDays); err == nil {
		t.Fatal("expected day sum validation error")
	}

	dupWeeks := Snapshot{
		Version: SnapshotVersion,
		Weeks: []SnapshotWeek{
			{Year: 2026, Week: 5, Total: 1, Required: 1, Days: SnapshotDayCounts{Monday: 1}},
			{Year: 2026, Week: 5, Total: 1, Required: 1, Days: SnapshotDayCounts{Friday: 1}},
		},
	}
	if err := agg.ImportSnapshot(context.Background(), nil, dupWeeks); err == nil {
		t.Fatal("expected duplicate week validation error")
	}

	orphanDate := Snapshot{
		Version: SnapshotVersion,
		Specs:   []SnapshotSpec{{SpecID: "s1", LastTaskDate: &now}},
	}
	if err := agg.ImportSnapshot(context.Background(), nil, orphanDate); err == nil {
		t.Fatal("expected paired date validation error")
	}

	badProfile := Snapshot{
		Version:  SnapshotVersion,
		Profiles: []SnapshotProfile{{ID: "Bad_ID", Name: "n", Template: "t", CreatedAt: now, UpdatedAt: now}},
	}
	if err := agg.ImportSnapshot(context.Background(), nil, badProfile); err == nil {
		t.Fatal("expected profile validation error")
	}
}

// TestSnapshotRoundTrip verifies export and re-import reproduce the same
// derived metrics on a fresh aggregator.
func TestSnapshotRoundTrip(t *testing.T) {
	now := time.Date(2026, 2, 6, 20, 0, 0, 0, time.UTC)
	source := newTestAggregator(t, &fakeStateStore{}, now)

	if err := source.RecordTaskCompletion(context.Background(), RecordTaskInput{SpecID: "spec-a", Required: true, CompletedAt: now.AddDate(0, 0, -7)}); err != nil {
		t.Fatalf("RecordTaskCompletion() error = %v", err)
	}
	if err := source.RecordTaskCompletion(context.Background(), RecordTaskInput{SpecID: "spec-a", Required: false, CompletedAt: now}); err != nil {
		t.Fatalf("RecordTaskCompletion() error = %v", err)
	}
	if err := source.UpdateSpecProgress(context.Background(), UpdateSpecProgressInput{SpecID: "spec-a", TotalTasks: 2, CompletedTasks: 2}); err != nil {
		t.Fatalf("UpdateSpecProgress() error = %v", err)
	}

	snap, err := source.ExportSnapshot(context.Background(), nil)
	if err != nil {
		t.Fatalf("ExportSnapshot() error = %v", err)
	}

	target := newTestAggregator(t, &fakeStateStore{}, now)
	if err := target.ImportSnapshot(context.Background(), nil, snap); err != nil {
		t.Fatalf("ImportSnapshot() error = %v", err)
	}

	sourceMetrics, err := source.Metrics()
	if err != nil {
		t.Fatalf("Metrics() error = %v", err)
	}
	targetMetrics, err := target.Metrics()
	if err != nil {
		t.Fatalf("Metrics() error = %v", err)
	}
	if sourceMetrics.CurrentWeekTasks != targetMetrics.CurrentWeekTasks {
		t.Fatalf("CurrentWeekTasks differ: %d vs %d", sourceMetrics.CurrentWeekTasks, targetMetrics.CurrentWeekTasks)
	}
	if sourceMetrics.DayOfWeekVelocity != targetMetrics.DayOfWeekVelocity {
		t.Fatalf("DayOfWeekVelocity differ: %+v vs %+v", sourceMetrics.DayOfWeekVelocity, targetMetrics.DayOfWeekVelocity)
	}

	sourceActivity, err := source.SpecActivityFor("spec-a")
	if err != nil {
		t.Fatalf("SpecActivityFor() error = %v", err)
	}
	targetActivity, err := target.SpecActivityFor("spec-a")
	if err != nil {
		t.Fatalf("SpecActivityFor() error = %v", err)
	}
	if targetActivity.CompletionDate == nil || !targetActivity.CompletionDate.Equal(*sourceActivity.CompletionDate) {
		t.Fatalf("CompletionDate differ: %v vs %v", targetActivity.CompletionDate, sourceActivity.CompletionDate)
	}
}
