package database

import (
	"fmt"
	"time"
)

// FingerprintRepository persists the previous run's content fingerprints,
// keyed by (channel, start instant).
type FingerprintRepository struct {
	db *DB
}

// NewFingerprintRepository creates a new fingerprint repository
func NewFingerprintRepository(db *DB) *FingerprintRepository {
	return &FingerprintRepository{db: db}
}

// GetAll returns every stored fingerprint from the previous successful run.
func (r *FingerprintRepository) GetAll() (map[FingerprintKey]string, error) {
	rows, err := r.db.Query(`SELECT channel_id, start_utc, fingerprint FROM epg_fingerprints`)
	if err != nil {
		return nil, fmt.Errorf("failed to load fingerprints: %w", err)
	}
	defer rows.Close()

	fingerprints := make(map[FingerprintKey]string)
	for rows.Next() {
		var key FingerprintKey
		var fingerprint string
		if err := rows.Scan(&key.ChannelID, &key.Start, &fingerprint); err != nil {
			return nil, fmt.Errorf("failed to scan fingerprint row: %w", err)
		}
		fingerprints[key] = fingerprint
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fingerprint rows: %w", err)
	}

	return fingerprints, nil
}

// ReplaceAll atomically replaces the stored fingerprint snapshot. Called once
// per successful generation run.
func (r *FingerprintRepository) ReplaceAll(fingerprints map[FingerprintKey]string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM epg_fingerprints`); err != nil {
		return fmt.Errorf("failed to clear fingerprints: %w", err)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	stmt, err := tx.Prepare(`
		INSERT INTO epg_fingerprints (channel_id, start_utc, fingerprint, updated_at)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for key, fingerprint := range fingerprints {
		if _, err := stmt.Exec(key.ChannelID, key.Start, fingerprint, now); err != nil {
			return fmt.Errorf("failed to insert fingerprint: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit fingerprints: %w", err)
	}

	return nil
}

// GetFingerprintCount returns the number of stored fingerprints
func (r *FingerprintRepository) GetFingerprintCount() (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM epg_fingerprints").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to get fingerprint count: %w", err)
	}
	return count, nil
}
