package store

import (
	"fmt"
	"strings"
)

// Check verifies the database file and schema. It runs SQLite's
// integrity check, then confirms every table exists and every migration
// is applied. Rows are closed before the next query since an in-memory
// store has a single connection.
func (s *Store) Check() error {
	rows, err := s.db.Query("PRAGMA integrity_check")
	if err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}

	var problems []string
	for rows.Next() {
		var msg string
		if err := rows.Scan(&msg); err != nil {
			rows.Close()
			return fmt.Errorf("scan integrity result: %w", err)
		}
		if msg != "ok" {
			problems = append(problems, msg)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("integrity check: %w", err)
	}
	if len(problems) > 0 {
		return fmt.Errorf("database corrupted: %s", strings.Join(problems, "; "))
	}

	if err := ValidateSchema(s.db); err != nil {
		return err
	}

	status, err := GetMigrationStatus(s.db)
	if err != nil {
		return err
	}
	if status.CurrentVersion != status.LatestVersion {
		return fmt.Errorf("schema at version %d, want %d", status.CurrentVersion, status.LatestVersion)
	}
	return nil
}
