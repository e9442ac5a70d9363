package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// UserIdP is one (provider, configuration) pair belonging to a user.
type UserIdP struct {
	Name   string
	Config string
}

// CreateIdP registers a provider in the global registry. Registering an
// existing name is ErrExists.
func (s *Store) CreateIdP(ctx context.Context, name, params string) error {
	exists, err := s.IdPExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		return ErrExists
	}

	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx,
		`INSERT INTO idps (name, params) VALUES (?, ?)`, name, params); err != nil {
		return fmt.Errorf("inserting provider: %w", err)
	}
	return nil
}

// UpdateIdP replaces the operational parameters of a registered provider.
func (s *Store) UpdateIdP(ctx context.Context, name, params string) error {
	exists, err := s.IdPExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx,
		`UPDATE idps SET params = ? WHERE name = ?`, params, name); err != nil {
		return fmt.Errorf("updating provider: %w", err)
	}
	return nil
}

// DeleteIdP removes a provider from the global registry.
func (s *Store) DeleteIdP(ctx context.Context, name string) error {
	exists, err := s.IdPExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}

	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, `DELETE FROM idps WHERE name = ?`, name); err != nil {
		return fmt.Errorf("deleting provider: %w", err)
	}
	return nil
}

// IdPExists reports whether a provider name is registered.
func (s *Store) IdPExists(ctx context.Context, name string) (bool, error) {
	db, err := s.open()
	if err != nil {
		return false, err
	}
	defer db.Close()

	var found string
	err = db.QueryRowContext(ctx, `SELECT name FROM idps WHERE name = ?`, name).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying provider: %w", err)
	}
	return true, nil
}

// IdPNames returns all registered provider names, ordered by name.
func (s *Store) IdPNames(ctx context.Context) ([]string, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return scanStrings(db.QueryContext(ctx, `SELECT name FROM idps ORDER BY name`))
}

// IdPParams returns the stored operational parameters of a provider.
func (s *Store) IdPParams(ctx context.Context, name string) (string, error) {
	db, err := s.open()
	if err != nil {
		return "", err
	}
	defer db.Close()

	var params string
	err = db.QueryRowContext(ctx, `SELECT params FROM idps WHERE name = ?`, name).Scan(&params)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("querying provider params: %w", err)
	}
	return params, nil
}

// SetAttributes stores a user's configuration for a provider.
func (s *Store) SetAttributes(ctx context.Context, username, idp, attributes string) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx,
		`INSERT INTO attributes (username, idp, attributes) VALUES (?, ?, ?)`,
		username, idp, attributes); err != nil {
		return fmt.Errorf("inserting attributes: %w", err)
	}
	return nil
}

// UpdateAttributes replaces a user's configuration for a provider.
func (s *Store) UpdateAttributes(ctx context.Context, username, idp, attributes string) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx,
		`UPDATE attributes SET attributes = ? WHERE username = ? AND idp = ?`,
		attributes, username, idp); err != nil {
		return fmt.Errorf("updating attributes: %w", err)
	}
	return nil
}

// DeleteAttributes removes a user's configuration for a provider.
func (s *Store) DeleteAttributes(ctx context.Context, username, idp string) error {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx,
		`DELETE FROM attributes WHERE username = ? AND idp = ?`, username, idp); err != nil {
		return fmt.Errorf("deleting attributes: %w", err)
	}
	return nil
}

// Usernames returns every user with at least one configured provider.
func (s *Store) Usernames(ctx context.Context) ([]string, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return scanStrings(db.QueryContext(ctx, `SELECT DISTINCT username FROM attributes ORDER BY username`))
}

// UserConfigs returns all of a user's provider configurations with their
// raw stored payloads, ordered by provider name.
func (s *Store) UserConfigs(ctx context.Context, username string) ([]UserIdP, error) {
	db, err := s.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	rows, err := db.QueryContext(ctx,
		`SELECT idp, attributes FROM attributes WHERE username = ? ORDER BY idp`, username)
	if err != nil {
		return nil, fmt.Errorf("querying attributes: %w", err)
	}
	defer rows.Close()

	var configs []UserIdP
	for rows.Next() {
		var c UserIdP
		if err := rows.Scan(&c.Name, &c.Config); err != nil {
			return nil, fmt.Errorf("scanning attributes: %w", err)
		}
		configs = append(configs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading attributes: %w", err)
	}
	return configs, nil
}

func scanStrings(rows *sql.Rows, err error) ([]string, error) {
	if err != nil {
		return nil, fmt.Errorf("querying names: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("scanning name: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading names: %w", err)
	}
	return out, nil
}
