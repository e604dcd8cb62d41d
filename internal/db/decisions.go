package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// InsertDecision appends an immutable decision record. Decisions are never
// updated or individually deleted; they only go away when the owning session
// is cascade-deleted.
func (db *DB) InsertDecision(ctx context.Context, sessionID uuid.UUID, step, decision, feedback string) (*Decision, error) {
	var d Decision
	err := db.pool.QueryRow(ctx,
		`INSERT INTO decisions (session_id, step, decision, feedback)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, session_id, step, decision, COALESCE(feedback, ''), decided_at`,
		sessionID, step, decision, feedback,
	).Scan(&d.ID, &d.SessionID, &d.Step, &d.Decision, &d.Feedback, &d.DecidedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert decision: %w", err)
	}
	return &d, nil
}

// ListDecisions retrieves all decisions for a session ordered by decision
// time, which is the order audit replay depends on.
func (db *DB) ListDecisions(ctx context.Context, sessionID uuid.UUID) ([]Decision, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, session_id, step, decision, COALESCE(feedback, ''), decided_at
		 FROM decisions WHERE session_id = $1 ORDER BY decided_at`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list decisions: %w", err)
	}
	defer rows.Close()

	var decisions []Decision
	for rows.Next() {
		var d Decision
		if err := rows.Scan(&d.ID, &d.SessionID, &d.Step, &d.Decision, &d.Feedback, &d.DecidedAt); err != nil {
			return nil, fmt.Errorf("failed to scan decision: %w", err)
		}
		decisions = append(decisions, d)
	}
	return decisions, nil
}
