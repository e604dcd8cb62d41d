package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// SaveStepData upserts a step-data value for a session. Re-saving the same
// key replaces the previous value (replace semantics, not append).
func (db *DB) SaveStepData(ctx context.Context, sessionID uuid.UUID, key string, value any) error {
	jsonBytes, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal step data %s: %w", key, err)
	}

	_, err = db.pool.Exec(ctx,
		`INSERT INTO step_data (session_id, data_key, value)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (session_id, data_key) DO UPDATE SET value = $3, updated_at = NOW()`,
		sessionID, key, jsonBytes,
	)
	if err != nil {
		return fmt.Errorf("failed to save step data %s: %w", key, err)
	}
	return nil
}

// GetStepData retrieves a step-data value by session ID and key.
// Returns (nil, nil) when the key was never written, so callers can
// implement generate-on-demand without treating absence as an error.
func (db *DB) GetStepData(ctx context.Context, sessionID uuid.UUID, key string) ([]byte, error) {
	var value []byte
	err := db.pool.QueryRow(ctx,
		`SELECT value FROM step_data WHERE session_id = $1 AND data_key = $2`,
		sessionID, key,
	).Scan(&value)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get step data %s: %w", key, err)
	}
	return value, nil
}

// ListStepData retrieves all step-data entries for a session
func (db *DB) ListStepData(ctx context.Context, sessionID uuid.UUID) ([]StepDataEntry, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT session_id, data_key, value, updated_at
		 FROM step_data WHERE session_id = $1 ORDER BY data_key`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list step data: %w", err)
	}
	defer rows.Close()

	var entries []StepDataEntry
	for rows.Next() {
		var e StepDataEntry
		if err := rows.Scan(&e.SessionID, &e.Key, &e.Value, &e.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan step data: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
