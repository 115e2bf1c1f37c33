// Package storage implements the SQLite persistence layer: schema
// bootstrapping, category and transaction stores, and the balance aggregates
// derived from them. All access to the database goes through Repository;
// nothing else holds a handle.
package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/reinanbr/money-std/internal/core"

	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// createdAtLayout is a fixed-width UTC timestamp so created_at sorts
// correctly as TEXT even for inserts within the same second.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// defaultCategories is seeded once, only when the categories table is empty.
// Checking emptiness (rather than per-row existence) keeps deliberately
// deleted defaults from being resurrected on restart.
var defaultCategories = []core.Category{
	{Name: "Alimentação", Type: core.Expense, Color: "#FF6B6B"},
	{Name: "Transporte", Type: core.Expense, Color: "#4ECDC4"},
	{Name: "Moradia", Type: core.Expense, Color: "#45B7D1"},
	{Name: "Saúde", Type: core.Expense, Color: "#96CEB4"},
	{Name: "Educação", Type: core.Expense, Color: "#FFEAA7"},
	{Name: "Lazer", Type: core.Expense, Color: "#DDA0DD"},
	{Name: "Salário", Type: core.Income, Color: "#2ECC71"},
	{Name: "Freelance", Type: core.Income, Color: "#F39C12"},
	{Name: "Investimentos", Type: core.Income, Color: "#9B59B6"},
	{Name: "Outros", Type: core.Income, Color: "#95A5A6"},
}

type Repository struct {
	db *sql.DB
}

// NewRepository opens (or creates) the database at dbPath, runs migrations,
// seeds the default categories on a fresh store and removes duplicate
// category rows left behind by older versions.
func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := migrateSchema(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	r := &Repository{db: db}

	if err := r.seedDefaultCategories(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed default categories: %w", err)
	}

	// Best effort: never block startup on cleanup.
	if err := r.dedupeCategories(context.Background()); err != nil {
		slog.Warn("Category de-duplication skipped", "error", err)
	}

	return r, nil
}

// migrateSchema applies any pending embedded migrations to the store at
// dbPath. The migrate driver takes ownership of the connection it wraps, so
// this runs on a short-lived handle of its own instead of the pool the
// repository keeps.
func migrateSchema(dbPath string) error {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open for migration: %w", err)
	}
	defer db.Close()

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("wrap sqlite driver: %w", err)
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("read embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("build migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *Repository) seedDefaultCategories(ctx context.Context) error {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		return fmt.Errorf("count categories: %w", err)
	}
	if count > 0 {
		return nil
	}

	stmt, err := r.db.PrepareContext(ctx, `
		INSERT INTO categories (name, type, color)
		VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare seed statement: %w", err)
	}
	defer stmt.Close()

	for _, c := range defaultCategories {
		if _, err := stmt.ExecContext(ctx, c.Name, string(c.Type), c.Color); err != nil {
			return fmt.Errorf("insert category %q: %w", c.Name, err)
		}
	}

	slog.InfoContext(ctx, "Seeded default categories", "count", len(defaultCategories))
	return nil
}

// dedupeCategories removes rows sharing (name, type) with a lower-id row.
func (r *Repository) dedupeCategories(ctx context.Context) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM categories WHERE id NOT IN (
			SELECT MIN(id) FROM categories
			GROUP BY name, type
		)
	`)
	if err != nil {
		return fmt.Errorf("delete duplicate categories: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		slog.InfoContext(ctx, "Removed duplicate categories", "count", n)
	}
	return nil
}
