package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/hylla/takt/internal/domain"
)

type fakeProfileStore struct {
	profiles map[string]domain.Profile
	err      error
}

func newFakeProfileStore() *fakeProfileStore {
	return &fakeProfileStore{profiles: make(map[string]domain.Profile)}
}

func (f *fakeProfileStore) CreateProfile(_ context.Context, profile domain.Profile) error {
	if f.err != nil {
		return f.err
	}
	f.profiles[profile.ID] = profile
	return nil
}

func (f *fakeProfileStore) UpdateProfile(_ context.Context, profile domain.Profile) error {
	if f.err != nil {
		return f.err
	}
	if _, ok := f.profiles[profile.ID]; !ok {
		return ErrProfileNotFound
	}
	f.profiles[profile.ID] = profile
	return nil
}

func (f *fakeProfileStore) GetProfile(_ context.Context, id string) (domain.Profile, error) {
	if f.err != nil {
		return domain.Profile{}, f.err
	}
	profile, ok := f.profiles[id]
	if !ok {
		return domain.Profile{}, ErrProfileNotFound
	}
	return profile, nil
}

func (f *fakeProfileStore) ListProfiles(_ context.Context) ([]domain.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.Profile, 0, len(f.profiles))
	for _, p := range f.profiles {
		out = append(out, p)
	}
	return out, nil
}

func TestProfileServiceCreateAndGet(t *testing.T) {
	now := time.Date(2026, 2, 6, 12, 0, 0, 0, time.UTC)
	store := newFakeProfileStore()
	svc := NewProfileService(store, func() time.Time { return now })

	created, err := svc.CreateProfile(context.Background(), ProfileInput{
		ID:       "backend-team",
		Name:     "Backend Team",
		Template: "# Weekly report\n",
	})
	if err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}
	if !created.CreatedAt.Equal(now) || !created.UpdatedAt.Equal(now) {
		t.Fatalf("timestamps = %v/%v, want clock time", created.CreatedAt, created.UpdatedAt)
	}

	got, err := svc.GetProfile(context.Background(), "backend-team")
	if err != nil {
		t.Fatalf("GetProfile() error = %v", err)
	}
	if got.Name != "Backend Team" {
		t.Fatalf("Name = %q, want %q", got.Name, "Backend Team")
	}
}

func TestProfileServiceCreateDuplicate(t *testing.T) {
	store := newFakeProfileStore()
	svc := NewProfileService(store, nil)

	input := ProfileInput{ID: "backend-team", Name: "Backend Team", Template: "tmpl"}
	if _, err := svc.CreateProfile(context.Background(), input); err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}
	if _, err := svc.CreateProfile(context.Background(), input); !errors.Is(err, ErrProfileExists) {
		t.Fatalf("duplicate CreateProfile() error = %v, want ErrProfileExists", err)
	}
}

func TestProfileServiceCreateInvalid(t *testing.T) {
	svc := NewProfileService(newFakeProfileStore(), nil)

	_, err := svc.CreateProfile(context.Background(), ProfileInput{ID: "Bad_ID", Name: "n", Template: "t"})
	if !errors.Is(err, domain.ErrInvalidProfile) {
		t.Fatalf("CreateProfile() error = %v, want ErrInvalidProfile", err)
	}
}

func TestProfileServiceUpdate(t *testing.T) {
	created := time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)
	updated := time.Date(2026, 2, 6, 12, 0, 0, 0, time.UTC)
	now := created
	store := newFakeProfileStore()
	svc := NewProfileService(store, func() time.Time { return now })

	if _, err := svc.CreateProfile(context.Background(), ProfileInput{ID: "backend-team", Name: "Backend Team", Template: "v1"}); err != nil {
		t.Fatalf("CreateProfile() error = %v", err)
	}

	now = updated
	got, err := svc.UpdateProfile(context.Background(), ProfileInput{ID: "backend-team", Name: "Platform Team", Template: "v2"})
	if err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if got.Name != "Platform Team" || got.Template != "v2" {
		t.Fatalf("updated profile = %+v", got)
	}
	if !got.CreatedAt.Equal(created) {
		t.Fatalf("CreatedAt = %v, want original %v", got.CreatedAt, created)
	}
	if !got.UpdatedAt.Equal(updated) {
		t.Fatalf("UpdatedAt = %v, want %v", got.UpdatedAt, updated)
	}
}

func TestProfileServiceUpdateMissing(t *testing.T) {
	svc := NewProfileService(newFakeProfileStore(), nil)

	_, err := svc.UpdateProfile(context.Background(), ProfileInput{ID: "ghost", Name: "n", Template: "t"})
	if !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("UpdateProfile() error = %v, want ErrProfileNotFound", err)
	}
}

func TestProfileServiceGetMissing(t *testing.T) {
	svc := NewProfileService(newFakeProfileStore(), nil)

	if _, err := svc.GetProfile(context.Background(), "ghost"); !errors.Is(err, ErrProfileNotFound) {
		t.Fatalf("GetProfile() error = %v, want ErrProfileNotFound", err)
	}
	if _, err := svc.GetProfile(context.Background(), "  "); !errors.Is(err, domain.ErrInvalidProfile) {
		t.Fatalf("GetProfile(blank) error = %v, want ErrInvalidProfile", err)
	}
}

func TestProfileServiceListSorted(t *testing.T) {
	store := newFakeProfileStore()
	svc := NewProfileService(store, nil)

	for _, id := range []string{"gamma", "alpha", "beta"} {
		if _, err := svc.CreateProfile(context.Background(), ProfileInput{ID: id, Name: "Team " + id, Template: "t"}); err != nil {
			t.Fatalf("CreateProfile(%s) error = %v", id, err)
		}
	}
	profiles, err := svc.ListProfiles(context.Background())
	if err != nil {
		t.Fatalf("ListProfiles() error = %v", err)
	}
	for i, want := range []string{"alpha", "beta", "gamma"} {
		if profiles[i].ID != want {
			t.Fatalf("profiles[%d] = %q, want %q", i, profiles[i].ID, want)
		}
	}
}

// TestProfileServiceValidate verifies validation is pure and reports ordered
// messages without touching the store.
func TestProfileServiceValidate(t *testing.T) {
	svc := NewProfileService(newFakeProfileStore(), nil)

	result := svc.ValidateProfile(ProfileInput{ID: "backend-team", Name: "Backend Team", Template: "t"})
	if !result.Valid || len(result.Errors) != 0 {
		t.Fatalf("ValidateProfile(valid) = %+v", result)
	}

	result = svc.ValidateProfile(ProfileInput{ID: "Bad ID", Name: "", Template: strings.Repeat("x", domain.MaxProfileTemplateLength+1)})
	if result.Valid {
		t.Fatal("ValidateProfile(invalid) reported valid")
	}
	if len(result.Errors) != 3 {
		t.Fatalf("expected 3 errors, got %d: %v", len(result.Errors), result.Errors)
	}
}
