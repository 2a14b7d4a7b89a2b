package repository

import (
	"context"
	"fmt"
	"time"

	"velym/backend/internal/model"
)

// ListResources returns the directory ordered by category then title. An
// empty category returns every entry.
func (r *sqliteRepository) ListResources(ctx context.Context, category string) ([]model.Resource, error) {
	query := "SELECT id, title, description, category, url, content, created_at FROM mental_health_resources"
	args := []any{}
	if category != "" {
		query += " WHERE category = ?"
		args = append(args, category)
	}
	query += " ORDER BY category ASC, title ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	resources := []model.Resource{}
	for rows.Next() {
		var res model.Resource
		if err := rows.Scan(&res.ID, &res.Title, &res.Description, &res.Category, &res.URL, &res.Content, &res.CreatedAt); err != nil {
			return nil, err
		}
		resources = append(resources, res)
	}
	return resources, rows.Err()
}

// SeedResources inserts resources whose id is not present yet. Existing rows
// are left alone so edits made in the database survive restarts.
func (r *sqliteRepository) SeedResources(ctx context.Context, resources []model.Resource) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC()
	for _, res := range resources {
		_, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO mental_health_resources (id, title, description, category, url, content, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			res.ID, res.Title, res.Description, res.Category, res.URL, res.Content, now)
		if err != nil {
			return fmt.Errorf("could not seed resource %s: %w", res.ID, err)
		}
	}
	return tx.Commit()
}
