package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"registro/internal/core"
	"registro/internal/ledger"
)

// SQLiteGateway persists the ledger snapshot in a local SQLite database.
// Save replaces the whole document inside one transaction.
type SQLiteGateway struct {
	db *sql.DB
}

func NewSQLiteGateway(dbPath string) (*SQLiteGateway, error) {
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

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteGateway{db: db}, nil
}

func (g *SQLiteGateway) Close() error {
	if g.db != nil {
		return g.db.Close()
	}
	return nil
}

// Load reads the stored snapshot. A database that has never been saved to
// returns (nil, nil). Presence is tracked by the saved marker written on
// every Save, not by row counts: an empty registry or an empty log is still
// a saved state and must round-trip as such.
func (g *SQLiteGateway) Load(ctx context.Context) (*ledger.Snapshot, error) {
	var saved int
	if err := g.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM meta WHERE key = 'saved_at'`).Scan(&saved); err != nil {
		return nil, fmt.Errorf("probe snapshot presence: %w", err)
	}
	if saved == 0 {
		return nil, nil
	}

	snap := &ledger.Snapshot{}

	rows, err := g.db.QueryContext(ctx, `
		SELECT id, tx_type, amount_cents, category, sub_category, tx_date, created_at, is_paid
		FROM transactions ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			tx               core.Transaction
			rawType          string
			txDate, createdAt string
			isPaid           int
		)
		if err := rows.Scan(&tx.ID, &rawType, &tx.Amount.Cents, &tx.Category,
			&tx.SubCategory, &txDate, &createdAt, &isPaid); err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		tx.Type = core.TxType(rawType)
		tx.IsPaid = isPaid != 0
		if tx.Date, err = core.ParseDate(txDate); err != nil {
			return nil, fmt.Errorf("parse stored date %q: %w", txDate, err)
		}
		if tx.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse stored timestamp %q: %w", createdAt, err)
		}
		snap.Transactions = append(snap.Transactions, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}

	catRows, err := g.db.QueryContext(ctx, `SELECT name FROM categories ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer catRows.Close()
	for catRows.Next() {
		var name string
		if err := catRows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		snap.Categories = append(snap.Categories, name)
	}
	if err := catRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}

	subRows, err := g.db.QueryContext(ctx, `SELECT category, item FROM sub_history ORDER BY category, position`)
	if err != nil {
		return nil, fmt.Errorf("query sub history: %w", err)
	}
	defer subRows.Close()
	byCat := make(map[string]int)
	for subRows.Next() {
		var category, item string
		if err := subRows.Scan(&category, &item); err != nil {
			return nil, fmt.Errorf("scan sub history: %w", err)
		}
		idx, ok := byCat[category]
		if !ok {
			snap.SubHistory = append(snap.SubHistory, ledger.SubHistory{Category: category})
			idx = len(snap.SubHistory) - 1
			byCat[category] = idx
		}
		snap.SubHistory[idx].Items = append(snap.SubHistory[idx].Items, item)
	}
	if err := subRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sub history: %w", err)
	}

	return snap, nil
}

// Save writes the full snapshot, replacing whatever was stored before.
func (g *SQLiteGateway) Save(ctx context.Context, snap ledger.Snapshot) error {
	dbTx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer dbTx.Rollback()

	for _, table := range []string{"transactions", "categories", "sub_history"} {
		if _, err := dbTx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}

	txStmt, err := dbTx.PrepareContext(ctx, `
		INSERT INTO transactions (position, id, tx_type, amount_cents, category, sub_category, tx_date, created_at, is_paid)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare transaction insert: %w", err)
	}
	defer txStmt.Close()
	for i, tx := range snap.Transactions {
		paid := 0
		if tx.IsPaid {
			paid = 1
		}
		if _, err := txStmt.ExecContext(ctx, i, tx.ID, string(tx.Type), tx.Amount.Cents,
			tx.Category, tx.SubCategory, tx.Date.String(),
			tx.CreatedAt.UTC().Format(time.RFC3339Nano), paid); err != nil {
			return fmt.Errorf("insert transaction %s: %w", tx.ID, err)
		}
	}

	catStmt, err := dbTx.PrepareContext(ctx, `INSERT INTO categories (position, name) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare category insert: %w", err)
	}
	defer catStmt.Close()
	for i, name := range snap.Categories {
		if _, err := catStmt.ExecContext(ctx, i, name); err != nil {
			return fmt.Errorf("insert category %q: %w", name, err)
		}
	}

	subStmt, err := dbTx.PrepareContext(ctx, `INSERT INTO sub_history (category, position, item) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare sub history insert: %w", err)
	}
	defer subStmt.Close()
	for _, h := range snap.SubHistory {
		for i, item := range h.Items {
			if _, err := subStmt.ExecContext(ctx, h.Category, i, item); err != nil {
				return fmt.Errorf("insert sub history %q/%q: %w", h.Category, item, err)
			}
		}
	}

	if _, err := dbTx.ExecContext(ctx, `INSERT OR REPLACE INTO meta (key, value) VALUES ('saved_at', ?)`,
		time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("write saved marker: %w", err)
	}

	if err := dbTx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}

	slog.DebugContext(ctx, "Snapshot saved to SQLite",
		"transactions", len(snap.Transactions),
		"categories", len(snap.Categories))
	return nil
}
