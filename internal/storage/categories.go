package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"finledger/internal/core"
)

func scanCategory(s rowScanner) (core.Category, error) {
	var (
		c   core.Category
		typ string
	)
	if err := s.Scan(&c.ID, &c.UserID, &c.Name, &typ, &c.Color); err != nil {
		return core.Category{}, err
	}
	c.Type = core.TransactionType(typ)
	return c, nil
}

func (r *SQLiteRepository) InsertCategory(ctx context.Context, c core.Category) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO categories (id, user_id, name, type, color) VALUES (?, ?, ?, ?, ?)`,
		c.ID, c.UserID, c.Name, string(c.Type), c.Color)
	if err != nil {
		return fmt.Errorf("create category: %w", mapError(err))
	}

	slog.InfoContext(ctx, "Category saved to SQLite", "id", c.ID, "name", c.Name, "type", c.Type)
	return nil
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, userID, id string) (core.Category, error) {
	row := r.q.QueryRowContext(ctx, `
		SELECT id, user_id, name, type, color FROM categories WHERE user_id = ? AND id = ?`, userID, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, &core.NotFoundError{Entity: "category", ID: id}
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category %s: %w", id, err)
	}
	return c, nil
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, userID string) ([]core.Category, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, user_id, name, type, color FROM categories
		WHERE user_id = ? ORDER BY type, name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.q.ExecContext(ctx, `
		UPDATE categories SET name = ?, type = ?, color = ? WHERE user_id = ? AND id = ?`,
		c.Name, string(c.Type), c.Color, c.UserID, c.ID)
	if err != nil {
		return fmt.Errorf("update category %s: %w", c.ID, mapError(err))
	}
	return requireAffected(res, "category", c.ID)
}

// DeleteCategory removes the category. Referencing transactions keep their
// rows with category_id set to NULL.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, userID, id string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM categories WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete category %s: %w", id, err)
	}
	if err := requireAffected(res, "category", id); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Category deleted from SQLite", "id", id)
	return nil
}
