package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// GetActiveTemplate retrieves the active template for a category.
// Returns (nil, nil) when no active override exists.
func (db *DB) GetActiveTemplate(ctx context.Context, category string) (*PromptTemplate, error) {
	var t PromptTemplate
	err := db.pool.QueryRow(ctx,
		`SELECT id, category, content, active, created_at, updated_at
		 FROM prompt_templates WHERE category = $1 AND active = TRUE`,
		category,
	).Scan(&t.ID, &t.Category, &t.Content, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get active template for %s: %w", category, err)
	}
	return &t, nil
}

// SaveTemplate stores a new template for a category and makes it active.
// Previously active templates in the category are deactivated but retained
// for rollback.
func (db *DB) SaveTemplate(ctx context.Context, category, content string) (*PromptTemplate, error) {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	_, err = tx.Exec(ctx,
		`UPDATE prompt_templates SET active = FALSE, updated_at = NOW()
		 WHERE category = $1 AND active = TRUE`,
		category,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to deactivate templates for %s: %w", category, err)
	}

	var t PromptTemplate
	err = tx.QueryRow(ctx,
		`INSERT INTO prompt_templates (category, content, active)
		 VALUES ($1, $2, TRUE)
		 RETURNING id, category, content, active, created_at, updated_at`,
		category, content,
	).Scan(&t.ID, &t.Category, &t.Content, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save template for %s: %w", category, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit template save: %w", err)
	}
	return &t, nil
}

// DeactivateTemplates resets a category to its compiled-in default by
// deactivating every stored template for it
func (db *DB) DeactivateTemplates(ctx context.Context, category string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE prompt_templates SET active = FALSE, updated_at = NOW()
		 WHERE category = $1 AND active = TRUE`,
		category,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate templates for %s: %w", category, err)
	}
	return nil
}

// DeactivateAllTemplates resets every category to its compiled-in default
func (db *DB) DeactivateAllTemplates(ctx context.Context) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE prompt_templates SET active = FALSE, updated_at = NOW() WHERE active = TRUE`,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate templates: %w", err)
	}
	return nil
}

// ListTemplates retrieves stored templates, optionally scoped to a category,
// newest first
func (db *DB) ListTemplates(ctx context.Context, category string) ([]PromptTemplate, error) {
	query := `SELECT id, category, content, active, created_at, updated_at
		FROM prompt_templates`
	args := []any{}
	if category != "" {
		query += ` WHERE category = $1`
		args = append(args, category)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	defer rows.Close()

	var templates []PromptTemplate
	for rows.Next() {
		var t PromptTemplate
		if err := rows.Scan(&t.ID, &t.Category, &t.Content, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, t)
	}
	return templates, nil
}
