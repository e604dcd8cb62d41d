package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Operator is a human reviewer account. Operators authenticate to manage
// prompt templates; session gate decisions are recorded under their session.
type Operator struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	PasswordSet  bool      `json:"password_set"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CheckOperatorEmailExists reports whether an operator with the email exists
func (db *DB) CheckOperatorEmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM operators WHERE email = $1)`,
		email,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check operator email: %w", err)
	}
	return exists, nil
}

// CreateOperator inserts a new operator without a password set
func (db *DB) CreateOperator(ctx context.Context, name, email string) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO operators (name, email) VALUES ($1, $2) RETURNING id`,
		name, email,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create operator: %w", err)
	}
	return id, nil
}

// GetOperator retrieves an operator by ID. Returns (nil, nil) if not found.
func (db *DB) GetOperator(ctx context.Context, operatorID uuid.UUID) (*Operator, error) {
	var op Operator
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, email, COALESCE(password_hash, ''), password_hash IS NOT NULL, created_at, updated_at
		 FROM operators WHERE id = $1`,
		operatorID,
	).Scan(&op.ID, &op.Name, &op.Email, &op.PasswordHash, &op.PasswordSet, &op.CreatedAt, &op.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get operator: %w", err)
	}
	return &op, nil
}

// GetOperatorByEmail retrieves an operator by email. Returns (nil, nil) if not found.
func (db *DB) GetOperatorByEmail(ctx context.Context, email string) (*Operator, error) {
	var op Operator
	err := db.pool.QueryRow(ctx,
		`SELECT id, name, email, COALESCE(password_hash, ''), password_hash IS NOT NULL, created_at, updated_at
		 FROM operators WHERE email = $1`,
		email,
	).Scan(&op.ID, &op.Name, &op.Email, &op.PasswordHash, &op.PasswordSet, &op.CreatedAt, &op.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get operator by email: %w", err)
	}
	return &op, nil
}

// UpdateOperatorPassword replaces the stored password hash
func (db *DB) UpdateOperatorPassword(ctx context.Context, operatorID uuid.UUID, passwordHash string) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE operators SET password_hash = $1, updated_at = NOW() WHERE id = $2`,
		passwordHash, operatorID,
	)
	if err != nil {
		return fmt.Errorf("failed to update operator password: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("operator not found: %s", operatorID)
	}
	return nil
}
