// Package file persists velocity state and profiles as JSON documents in a
// single directory. Writes go through a temp file rename so a crash never
// leaves a half-written document behind.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/hylla/takt/internal/adapters/storage"
	"github.com/hylla/takt/internal/app"
	"github.com/hylla/takt/internal/domain"
)

const (
	stateFileName    = "velocity.json"
	profilesFileName = "profiles.json"
)

// profilesVersion defines a package constant value.
const profilesVersion = 1

// Store represents store data used by this package. It implements both the
// velocity state port and the profile port.
type Store struct {
	dir string
	mu  sync.Mutex
}

// profilesDocument represents the on-disk profile collection.
type profilesDocument struct {
	Version  int              `json:"version"`
	Profiles []domain.Profile `json:"profiles"`
}

// Open opens the requested operation.
func Open(dir string) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("state dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// Close closes the requested operation.
func (s *Store) Close() error {
	return nil
}

// StatePath returns the velocity document location.
func (s *Store) StatePath() string {
	return filepath.Join(s.dir, stateFileName)
}

// GetVelocityData returns the stored aggregate. The second result reports
// whether a state document exists yet.
func (s *Store) GetVelocityData(_ context.Context) (domain.VelocityData, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, err := os.ReadFile(s.StatePath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.VelocityData{}, false, nil
		}
		return domain.VelocityData{}, false, fmt.Errorf("read state file: %w", err)
	}
	data, err := storage.DecodeState(raw)
	if err != nil {
		return domain.VelocityData{}, false, fmt.Errorf("decode state file: %w", err)
	}
	return *data, true, nil
}

// SaveVelocityData overwrites the state document with the full aggregate.
func (s *Store) SaveVelocityData(_ context.Context, data domain.VelocityData) error {
	payload, err := storage.EncodeState(data)
	if err != nil {
		return fmt.Errorf("encode velocity state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return writeFileAtomic(s.StatePath(), payload)
}

// CreateProfile creates profile.
func (s *Store) CreateProfile(_ context.Context, p domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadProfiles()
	if err != nil {
		return err
	}
	for _, existing := range doc.Profiles {
		if existing.ID == p.ID {
			return app.ErrProfileExists
		}
	}
	doc.Profiles = append(doc.Profiles, p)
	return s.saveProfiles(doc)
}

// UpdateProfile updates state for the requested operation.
func (s *Store) UpdateProfile(_ context.Context, p domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadProfiles()
	if err != nil {
		return err
	}
	for i, existing := range doc.Profiles {
		if existing.ID == p.ID {
			doc.Profiles[i] = p
			return s.saveProfiles(doc)
		}
	}
	return app.ErrProfileNotFound
}

// GetProfile returns profile.
func (s *Store) GetProfile(_ context.Context, id string) (domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadProfiles()
	if err != nil {
		return domain.Profile{}, err
	}
	for _, existing := range doc.Profiles {
		if existing.ID == id {
			return existing, nil
		}
	}
	return domain.Profile{}, app.ErrProfileNotFound
}

// ListProfiles lists profiles.
func (s *Store) ListProfiles(_ context.Context) ([]domain.Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.loadProfiles()
	if err != nil {
		return nil, err
	}
	return append([]domain.Profile{}, doc.Profiles...), nil
}

// loadProfiles handles load profiles. Callers hold the mutex.
func (s *Store) loadProfiles() (profilesDocument, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, profilesFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return profilesDocument{Version: profilesVersion}, nil
		}
		return profilesDocument{}, fmt.Errorf("read profiles file: %w", err)
	}
	var doc profilesDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return profilesDocument{}, fmt.Errorf("decode profiles file: %w", err)
	}
	if doc.Version != 0 && doc.Version != profilesVersion {
		return profilesDocument{}, fmt.Errorf("unsupported profiles file version %d", doc.Version)
	}
	return doc, nil
}

// saveProfiles handles save profiles. Callers hold the mutex.
func (s *Store) saveProfiles(doc profilesDocument) error {
	doc.Version = profilesVersion
	sort.Slice(doc.Profiles, func(i, j int) bool {
		return doc.Profiles[i].ID < doc.Profiles[j].ID
	})
	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode profiles file: %w", err)
	}
	return writeFileAtomic(filepath.Join(s.dir, profilesFileName), payload)
}

// writeFileAtomic writes via a sibling temp file and rename so readers never
// observe a partial document.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".takt-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("set temp file mode: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
