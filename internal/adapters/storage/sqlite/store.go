package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hylla/takt/internal/adapters/storage"
	"github.com/hylla/takt/internal/app"
	"github.com/hylla/takt/internal/domain"
	_ "modernc.org/sqlite"
)

// driverName defines a package constant value.
const driverName = "sqlite"

// Store represents store data used by this package. It implements both the
// velocity state port and the profile port.
type Store struct {
	db *sql.DB
}

// Open opens the requested operation.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	store := &Store{db: db}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// OpenInMemory opens in memory.
func OpenInMemory() (*Store, error) {
	db, err := sql.Open(driverName, "file::memory:?cache=shared")
	if err != nil {
		return nil, fmt.Errorf("open sqlite memory: %w", err)
	}
	store := &Store{db: db}
	if err := store.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the requested operation.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate handles migrate.
func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		// velocity_state is a single-row document table; the aggregate is
		// written whole on every mutation.
		`CREATE TABLE IF NOT EXISTS velocity_state (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			payload_json TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS profiles (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			template TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
	}

	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	return nil
}

// GetVelocityData returns the stored aggregate. The second result reports
// whether a snapshot row exists yet.
func (s *Store) GetVelocityData(ctx context.Context) (domain.VelocityData, bool, error) {
	row := s.db.QueryRowContext(ctx, `SELECT payload_json FROM velocity_state WHERE id = 1`)
	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.VelocityData{}, false, nil
		}
		return domain.VelocityData{}, false, err
	}
	data, err := storage.DecodeState([]byte(payload))
	if err != nil {
		return domain.VelocityData{}, false, fmt.Errorf("decode velocity payload_json: %w", err)
	}
	return *data, true, nil
}

// SaveVelocityData overwrites the single snapshot row with the full aggregate.
func (s *Store) SaveVelocityData(ctx context.Context, data domain.VelocityData) error {
	payload, err := storage.EncodeState(data)
	if err != nil {
		return fmt.Errorf("encode velocity state: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO velocity_state(id, payload_json, updated_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET payload_json = excluded.payload_json, updated_at = excluded.updated_at
	`, string(payload), ts(time.Now()))
	return err
}

// CreateProfile creates profile.
func (s *Store) CreateProfile(ctx context.Context, p domain.Profile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO profiles(id, name, template, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, p.ID, p.Name, p.Template, ts(p.CreatedAt), ts(p.UpdatedAt))
	if err != nil && isUniqueViolation(err) {
		return app.ErrProfileExists
	}
	return err
}

// UpdateProfile updates state for the requested operation.
func (s *Store) UpdateProfile(ctx context.Context, p domain.Profile) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE profiles
		SET name = ?, template = ?, updated_at = ?
		WHERE id = ?
	`, p.Name, p.Template, ts(p.UpdatedAt), p.ID)
	if err != nil {
		return err
	}
	return translateNoRows(res)
}

// GetProfile returns profile.
func (s *Store) GetProfile(ctx context.Context, id string) (domain.Profile, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, template, created_at, updated_at
		FROM profiles
		WHERE id = ?
	`, id)
	return scanProfile(row)
}

// ListProfiles lists profiles.
func (s *Store) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, template, created_at, updated_at
		FROM profiles
		ORDER BY id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []domain.Profile{}
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, profile)
	}
	return out, rows.Err()
}

// scanner represents scanner data used by this package.
type scanner interface {
	Scan(dest ...any) error
}

// scanProfile handles scan profile.
func scanProfile(s scanner) (domain.Profile, error) {
	var (
		p          domain.Profile
		createdRaw string
		updatedRaw string
	)
	if err := s.Scan(&p.ID, &p.Name, &p.Template, &createdRaw, &updatedRaw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Profile{}, app.ErrProfileNotFound
		}
		return domain.Profile{}, err
	}
	p.CreatedAt = parseTS(createdRaw)
	p.UpdatedAt = parseTS(updatedRaw)
	return p, nil
}

// translateNoRows handles translate no rows.
func translateNoRows(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return app.ErrProfileNotFound
	}
	return nil
}

// ts handles ts.
func ts(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTS parses input into a normalized form.
func parseTS(v string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return ts.UTC()
}

// isUniqueViolation reports whether the expected condition is satisfied.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint")
}
