// Package storage defines the serialized state document shared by the
// persistence backends.
package storage

import (
	"encoding/json"
	"fmt"

	"github.com/hylla/takt/internal/domain"
)

// StateVersion defines a package constant value.
const StateVersion = 1

// StateDocument represents state document data used by this package.
type StateDocument struct {
	Version int                                       `json:"version"`
	Weeks   map[domain.WeekKey]*domain.WeeklyTaskData `json:"weeks"`
	Specs   map[string]*domain.SpecActivityData       `json:"specs"`
}

// EncodeState serializes the aggregate into its versioned document form.
func EncodeState(data domain.VelocityData) ([]byte, error) {
	doc := StateDocument{
		Version: StateVersion,
		Weeks:   data.Weeks,
		Specs:   data.Specs,
	}
	return json.Marshal(doc)
}

// DecodeState rebuilds the aggregate from its document form. Week buckets are
// re-keyed from the map key so a hand-edited document stays coherent.
func DecodeState(raw []byte) (*domain.VelocityData, error) {
	var doc StateDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("decode state document: %w", err)
	}
	if doc.Version != 0 && doc.Version != StateVersion {
		return nil, fmt.Errorf("unsupported state document version %d", doc.Version)
	}

	data := domain.NewVelocityData()
	for key, bucket := range doc.Weeks {
		if bucket == nil {
			continue
		}
		copied := *bucket
		copied.Week = key
		data.Weeks[key] = &copied
	}
	for specID, activity := range doc.Specs {
		if activity == nil {
			continue
		}
		copied := *activity
		data.Specs[specID] = &copied
	}
	return data, nil
}
