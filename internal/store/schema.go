package store

import "fmt"

var schema = []string{
	`CREATE TABLE IF NOT EXISTS idps (
		name TEXT PRIMARY KEY,
		params TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS attributes (
		username TEXT,
		idp TEXT,
		attributes TEXT,
		PRIMARY KEY (username, idp)
	)`,
}

// Bootstrap creates the database schema if it does not exist yet. It is
// safe to call on every management CLI start.
func (s *Store) Bootstrap() error {
	db, err := s.open()
	if err != nil {
		return err
	}
	defer db.Close()

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}
