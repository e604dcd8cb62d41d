// Package db provides PostgreSQL persistence for workflow sessions, step
// data, decision audit records, and prompt template overrides.
package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// CreateSession allocates a new session record in active status
func (db *DB) CreateSession(ctx context.Context, input SessionInput) (*Session, error) {
	var s Session
	err := db.pool.QueryRow(ctx,
		`INSERT INTO sessions (client_name, industry, status, current_step)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, client_name, industry, status, current_step, COALESCE(route, ''), created_at, updated_at`,
		input.ClientName, input.Industry, SessionActive, input.CurrentStep,
	).Scan(&s.ID, &s.ClientName, &s.Industry, &s.Status, &s.CurrentStep, &s.Route, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	return &s, nil
}

// GetSession retrieves a session by ID. Returns (nil, nil) if not found.
func (db *DB) GetSession(ctx context.Context, sessionID uuid.UUID) (*Session, error) {
	var s Session
	err := db.pool.QueryRow(ctx,
		`SELECT id, client_name, industry, status, current_step, COALESCE(route, ''), created_at, updated_at
		 FROM sessions WHERE id = $1`,
		sessionID,
	).Scan(&s.ID, &s.ClientName, &s.Industry, &s.Status, &s.CurrentStep, &s.Route, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return &s, nil
}

// ListSessions retrieves sessions with optional filters, newest first
func (db *DB) ListSessions(ctx context.Context, filters SessionFilters) ([]Session, error) {
	if filters.Limit == 0 {
		filters.Limit = 50
	}

	query := `SELECT id, client_name, industry, status, current_step, COALESCE(route, ''), created_at, updated_at
		FROM sessions WHERE 1=1`
	args := []any{}
	argNum := 1

	if filters.Client != "" {
		query += fmt.Sprintf(" AND client_name ILIKE $%d", argNum)
		args = append(args, "%"+filters.Client+"%")
		argNum++
	}
	if filters.Status != "" {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, filters.Status)
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", argNum)
	args = append(args, filters.Limit)

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var s Session
		if err := rows.Scan(&s.ID, &s.ClientName, &s.Industry, &s.Status, &s.CurrentStep, &s.Route, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

// UpdateSessionStep moves a session to a new current step
func (db *DB) UpdateSessionStep(ctx context.Context, sessionID uuid.UUID, step string) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE sessions SET current_step = $1, updated_at = NOW() WHERE id = $2`,
		step, sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session step: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	return nil
}

// UpdateSessionRoute commits a session to a route
func (db *DB) UpdateSessionRoute(ctx context.Context, sessionID uuid.UUID, route string) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE sessions SET route = $1, updated_at = NOW() WHERE id = $2`,
		route, sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session route: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	return nil
}

// UpdateSessionStatus changes the lifecycle status of a session
func (db *DB) UpdateSessionStatus(ctx context.Context, sessionID uuid.UUID, status string) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE sessions SET status = $1, updated_at = NOW() WHERE id = $2`,
		status, sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to update session status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	return nil
}

// DeleteSession deletes a session and all its child records (via cascade)
func (db *DB) DeleteSession(ctx context.Context, sessionID uuid.UUID) error {
	result, err := db.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, sessionID)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("session not found: %s", sessionID)
	}
	return nil
}
