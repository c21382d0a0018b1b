package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/hylla/takt/internal/domain"
)

// ProfileInput describes profile fields supplied by callers.
type ProfileInput struct {
	ID       string
	Name     string
	Template string
}

// ProfileService manages prompt profiles behind the profile store.
type ProfileService struct {
	store ProfileStore
	clock Clock
}

// NewProfileService constructs a new value for this package.
func NewProfileService(store ProfileStore, clock Clock) *ProfileService {
	if clock == nil {
		clock = time.Now
	}
	return &ProfileService{store: store, clock: clock}
}

// CreateProfile validates and persists a new profile. A taken id fails with
// ErrProfileExists.
func (s *ProfileService) CreateProfile(ctx context.Context, in ProfileInput) (domain.Profile, error) {
	profile, err := domain.NewProfile(in.ID, in.Name, in.Template, s.clock())
	if err != nil {
		return domain.Profile{}, err
	}
	if _, err := s.store.GetProfile(ctx, profile.ID); err == nil {
		return domain.Profile{}, fmt.Errorf("%w: %s", ErrProfileExists, profile.ID)
	} else if !errors.Is(err, ErrProfileNotFound) {
		return domain.Profile{}, fmt.Errorf("check profile %s: %w", profile.ID, err)
	}
	if err := s.store.CreateProfile(ctx, profile); err != nil {
		return domain.Profile{}, fmt.Errorf("create profile %s: %w", profile.ID, err)
	}
	return profile, nil
}

// GetProfile returns one profile by id.
func (s *ProfileService) GetProfile(ctx context.Context, id string) (domain.Profile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return domain.Profile{}, fmt.Errorf("%w: profile id is required", domain.ErrInvalidProfile)
	}
	profile, err := s.store.GetProfile(ctx, id)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("get profile %s: %w", id, err)
	}
	return profile, nil
}

// UpdateProfile replaces a profile's name and template.
func (s *ProfileService) UpdateProfile(ctx context.Context, in ProfileInput) (domain.Profile, error) {
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return domain.Profile{}, fmt.Errorf("%w: profile id is required", domain.ErrInvalidProfile)
	}
	profile, err := s.store.GetProfile(ctx, id)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("get profile %s: %w", id, err)
	}
	if err := profile.UpdateDetails(in.Name, in.Template, s.clock()); err != nil {
		return domain.Profile{}, err
	}
	if err := s.store.UpdateProfile(ctx, profile); err != nil {
		return domain.Profile{}, fmt.Errorf("update profile %s: %w", id, err)
	}
	return profile, nil
}

// ListProfiles returns all profiles sorted by id.
func (s *ProfileService) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	profiles, err := s.store.ListProfiles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	slices.SortFunc(profiles, func(a, b domain.Profile) int {
		return strings.Compare(a.ID, b.ID)
	})
	return profiles, nil
}

// ValidateProfile checks candidate fields and reports the outcome as data,
// never as an error.
func (s *ProfileService) ValidateProfile(in ProfileInput) domain.ValidationResult {
	return domain.ValidateProfileFields(
		strings.TrimSpace(in.ID),
		strings.TrimSpace(in.Name),
		strings.TrimSpace(in.Template),
	)
}
