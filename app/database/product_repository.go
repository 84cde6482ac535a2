package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const (
	productTableA = "feed_products_a"
	productTableB = "feed_products_b"
)

var _ ProductRepository = (*ProductRepo)(nil)

type ProductRepo struct {
	db *DB
}

func NewProductRepository(db *DB) *ProductRepo {
	return &ProductRepo{db: db}
}

// PrepareStaging empties the inactive table and returns its name.
func (r *ProductRepo) PrepareStaging(ctx context.Context) (string, error) {
	active, err := r.activeTable(ctx, r.db.DB)
	if err != nil {
		return "", err
	}

	staging := otherTable(active)
	if _, err := r.db.ExecContext(ctx, "DELETE FROM "+staging); err != nil {
		return "", fmt.Errorf("failed to clear staging table %s: %w", staging, err)
	}
	return staging, nil
}

// InsertBatch writes rows into table inside a single transaction.
func (r *ProductRepo) InsertBatch(ctx context.Context, table string, rows []ProductRow) error {
	if err := checkTable(table); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin batch transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO "+table+" (title, price, link, image, merchant) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.Title, row.Price, row.Link, row.Image, row.Merchant); err != nil {
			return fmt.Errorf("failed to insert product row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// Optimize merges the FTS b-trees of table after a bulk load.
func (r *ProductRepo) Optimize(ctx context.Context, table string) error {
	if err := checkTable(table); err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, "INSERT INTO "+table+"("+table+") VALUES('optimize')"); err != nil {
		return fmt.Errorf("failed to optimize %s: %w", table, err)
	}
	return nil
}

// Activate points readers at table.
func (r *ProductRepo) Activate(ctx context.Context, table string, rowCount int, importedAt time.Time) error {
	if err := checkTable(table); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE feed_index_state
		SET active = ?, row_count = ?, imported_at = ?
		WHERE id = 1
	`, table, rowCount, importedAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to activate %s: %w", table, err)
	}
	return nil
}

// Search runs an FTS5 MATCH expression against the active table, best rank
// first and cheapest first within equal rank.
func (r *ProductRepo) Search(ctx context.Context, match string, maxPrice *float64, limit int) ([]ProductRow, error) {
	if limit <= 0 {
		return nil, nil
	}

	// Pointer lookup and query share one snapshot so a concurrent import
	// can never swap the table underneath the read.
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin search transaction: %w", err)
	}
	defer tx.Rollback()

	table, err := r.activeTable(ctx, tx)
	if err != nil {
		return nil, err
	}

	query := "SELECT title, price, link, COALESCE(image, ''), COALESCE(merchant, '') FROM " + table +
		" WHERE " + table + " MATCH ?"
	args := []any{match}
	if maxPrice != nil {
		query += " AND CAST(price AS REAL) <= ?"
		args = append(args, *maxPrice)
	}
	query += " ORDER BY rank, CAST(price AS REAL) LIMIT ?"
	args = append(args, limit)

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to search products: %w", err)
	}
	defer rows.Close()

	var products []ProductRow
	for rows.Next() {
		var p ProductRow
		if err := rows.Scan(&p.Title, &p.Price, &p.Link, &p.Image, &p.Merchant); err != nil {
			return nil, fmt.Errorf("failed to scan product row: %w", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating product rows: %w", err)
	}

	return products, nil
}

func (r *ProductRepo) GetStats(ctx context.Context) (IndexStats, error) {
	var stats IndexStats
	var importedAt sql.NullInt64
	err := r.db.QueryRowContext(ctx,
		"SELECT active, row_count, imported_at FROM feed_index_state WHERE id = 1",
	).Scan(&stats.ActiveTable, &stats.RowCount, &importedAt)
	if err != nil {
		return IndexStats{}, fmt.Errorf("failed to get index stats: %w", err)
	}

	if importedAt.Valid {
		t := time.Unix(importedAt.Int64, 0).UTC()
		stats.ImportedAt = &t
	}
	return stats, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *ProductRepo) activeTable(ctx context.Context, q queryRower) (string, error) {
	var table string
	if err := q.QueryRowContext(ctx, "SELECT active FROM feed_index_state WHERE id = 1").Scan(&table); err != nil {
		return "", fmt.Errorf("failed to read active index table: %w", err)
	}
	if err := checkTable(table); err != nil {
		return "", err
	}
	return table, nil
}

func otherTable(table string) string {
	if table == productTableA {
		return productTableB
	}
	return productTableA
}

func checkTable(table string) error {
	switch table {
	case productTableA, productTableB:
		return nil
	}
	return fmt.Errorf("unknown product table %q", table)
}
