package app

import (
	"context"
	"time"

	"github.com/hylla/takt/internal/domain"
)

// IDGenerator returns unique identifiers for new task events.
type IDGenerator func() string

// Clock returns the current time.
type Clock func() time.Time

// StateStore persists the velocity aggregate as one full snapshot. Get
// reports absence through its second return value; Save must be atomic from
// the caller's point of view.
type StateStore interface {
	GetVelocityData(context.Context) (domain.VelocityData, bool, error)
	SaveVelocityData(context.Context, domain.VelocityData) error
}

// ProfileStore persists prompt profiles.
type ProfileStore interface {
	CreateProfile(context.Context, domain.Profile) error
	UpdateProfile(context.Context, domain.Profile) error
	GetProfile(context.Context, string) (domain.Profile, error)
	ListProfiles(context.Context) ([]domain.Profile, error)
}
