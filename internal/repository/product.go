package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"

	"catalogmirror/scraper/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	log "github.com/sirupsen/logrus"
)

var tableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// DB is the subset of pgxpool.Pool the mirror needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// ProductRepository mirrors the snapshot's products into Postgres.
type ProductRepository interface {
	EnsureSchema(ctx context.Context) error
	ReplaceProducts(ctx context.Context, products []domain.Product) error
}

type productRepository struct {
	db    DB
	table string
}

func NewProductRepository(db DB, table string) (ProductRepository, error) {
	if !tableNameRegex.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	return &productRepository{
		db:    db,
		table: table,
	}, nil
}

func (r *productRepository) EnsureSchema(ctx context.Context) error {
	query := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS %s (
		id INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		code TEXT NOT NULL DEFAULT '',
		price NUMERIC(14,2) NOT NULL DEFAULT 0,
		qty_available INTEGER NOT NULL DEFAULT 0,
		category_ids JSONB NOT NULL DEFAULT '[]',
		data JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`, r.table)
	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to ensure %s table: %w", r.table, err)
	}
	return nil
}

// ReplaceProducts upserts every product and removes rows that are no longer in the catalog, in one transaction.
func (r *productRepository) ReplaceProducts(ctx context.Context, products []domain.Product) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if committed {
			return
		}
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			log.Warnf("⚠️ Rollback failed: %v", rbErr)
		}
	}()

	upsert := fmt.Sprintf(`
	INSERT INTO %s (id, name, code, price, qty_available, category_ids, data, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, now())
	ON CONFLICT (id)
	DO UPDATE SET name = $2, code = $3, price = $4, qty_available = $5, category_ids = $6, data = $7, updated_at = now()`, r.table)

	ids := make([]int, 0, len(products))
	for _, p := range products {
		categoryIDs, err := json.Marshal(p.CategoryIDs)
		if err != nil {
			return fmt.Errorf("failed to encode categories of product %d: %w", p.ID, err)
		}
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to encode product %d: %w", p.ID, err)
		}
		if _, err := tx.Exec(ctx, upsert, p.ID, p.Name, p.Code, p.Price.StringFixed(2), p.QtyAvailable, categoryIDs, data); err != nil {
			return fmt.Errorf("failed to save product %d: %w", p.ID, err)
		}
		ids = append(ids, p.ID)
	}

	prune := fmt.Sprintf(`DELETE FROM %s WHERE NOT (id = ANY($1))`, r.table)
	tag, err := tx.Exec(ctx, prune, ids)
	if err != nil {
		return fmt.Errorf("failed to prune products: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit products: %w", err)
	}
	committed = true

	log.Infof("🗄️ Mirrored %d products to %s (%d removed)", len(products), r.table, tag.RowsAffected())
	return nil
}
