package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/reinanbr/money-std/internal/core"
)

// ListCategories returns categories, optionally restricted to one type,
// de-duplicated by (name, type) keeping the lowest id. With a type filter the
// result is ordered by name; without, by type then name.
func (r *Repository) ListCategories(ctx context.Context, typeFilter core.TransactionType) ([]core.Category, error) {
	query := `
		SELECT id, name, type, color FROM categories
		WHERE id IN (SELECT MIN(id) FROM categories GROUP BY name, type)
	`
	var args []any
	if typeFilter != "" {
		if err := typeFilter.Validate(); err != nil {
			return nil, err
		}
		query += " AND type = ? ORDER BY name"
		args = append(args, string(typeFilter))
	} else {
		query += " ORDER BY type, name"
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Type, &c.Color); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// CreateCategory inserts a category and returns it with its generated id.
// Duplicate (name, type) pairs are tolerated on write; reads filter them.
func (r *Repository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Color == "" {
		c.Color = core.DefaultCategoryColor
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO categories (name, type, color)
		VALUES (?, ?, ?)
	`, c.Name, string(c.Type), c.Color)
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category insert id: %w", err)
	}
	c.ID = id

	slog.InfoContext(ctx, "Category created", "id", c.ID, "name", c.Name, "type", c.Type)
	return c, nil
}

// DeleteCategory detaches every transaction referencing the category, then
// removes the category row. The null-out runs first so a failure between the
// two statements leaves orphaned (safe) references rather than dangling ones.
// Returns the number of category rows removed (0 or 1).
func (r *Repository) DeleteCategory(ctx context.Context, id int64) (int64, error) {
	if _, err := r.db.ExecContext(ctx,
		"UPDATE transactions SET category_id = NULL WHERE category_id = ?", id); err != nil {
		return 0, fmt.Errorf("detach transactions from category %d: %w", id, err)
	}

	res, err := r.db.ExecContext(ctx, "DELETE FROM categories WHERE id = ?", id)
	if err != nil {
		return 0, fmt.Errorf("delete category %d: %w", id, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("category delete count: %w", err)
	}
	if n > 0 {
		slog.InfoContext(ctx, "Category deleted", "id", id)
	}
	return n, nil
}
