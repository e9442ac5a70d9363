// Package store persists identity provider configuration in a local SQLite
// database. The idps table holds the administrator-managed provider registry;
// the attributes table holds each user's provider configuration keyed by
// (username, idp).
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/idpauth/devicelogin/internal/deviceflow"
	"github.com/idpauth/devicelogin/internal/validation"
)

// Errors surfaced by store lookups. ErrNotFound and ErrInvalidConfig stay
// distinguishable so operator diagnostics can tell a missing row from a
// corrupt one, even though callers collapse both to a failed login.
var (
	// ErrNotFound indicates no row matched the lookup
	ErrNotFound = errors.New("provider not found")

	// ErrInvalidConfig indicates a stored configuration that could not be
	// decoded or is missing required fields
	ErrInvalidConfig = errors.New("invalid provider configuration")

	// ErrExists indicates an insert for a name already registered
	ErrExists = errors.New("provider already exists")
)

// Store reads and writes provider configuration at a fixed database path.
// Every operation opens a fresh connection and closes it before returning;
// no handle is shared across calls.
type Store struct {
	path string
}

// New creates a store for the given database path. The path is not touched
// until the first operation.
func New(path string) *Store {
	return &Store{path: path}
}

func (s *Store) open() (*sql.DB, error) {
	db, err := sql.Open("sqlite3", s.path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return db, nil
}

// ListProviders returns the names of the providers configured for username,
// ordered by name. A user with no configured providers yields an empty list,
// not an error.
func (s *Store) ListProviders(ctx context.Context, username string) ([]string, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx,
		`SELECT idp FROM attributes WHERE username = ? ORDER BY idp`, username)
	if err != nil {
		return nil, fmt.Errorf("querying providers: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning provider name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading providers: %w", err)
	}
	return names, nil
}

// GetProvider loads and decodes one provider configuration for username.
// A missing row is ErrNotFound; a row whose payload does not decode into a
// complete provider configuration is ErrInvalidConfig.
func (s *Store) GetProvider(ctx context.Context, name, username string) (*deviceflow.Provider, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var raw string
	err = db.QueryRowContext(ctx,
		`SELECT attributes FROM attributes WHERE username = ? AND idp = ?`,
		username, name).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying provider: %w", err)
	}

	var p deviceflow.Provider
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	p.Name = name

	if err := validation.ValidateProvider(&p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &p, nil
}
