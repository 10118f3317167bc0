package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"OrdersParser/internal/domain"
	"OrdersParser/internal/ports"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const processedTable = "processed_orders"

// Ledger persists written orders so a batch can be replayed without duplicate rows.
type Ledger struct {
	db          *sql.DB
	placeholder sq.PlaceholderFormat
	logger      *slog.Logger
}

var _ ports.OrderLedger = (*Ledger)(nil)

// Open connects to the ledger database and applies migrations.
func Open(ctx context.Context, driver, dsn string, logger *slog.Logger) (*Ledger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	driver = strings.ToLower(strings.TrimSpace(driver))

	if driver == DriverSQLite {
		if dir := filepath.Dir(dsn); dir != "" && !strings.HasPrefix(dsn, "file:") && dsn != ":memory:" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create ledger dir: %w", err)
			}
		}
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s ledger: %w", driver, err)
	}
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s ledger: %w", driver, err)
	}

	version, err := Migrate(db, driver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Debug("ledger ready", "driver", driver, "schema_version", version)

	return NewLedger(db, driver, logger), nil
}

// NewLedger wraps an already migrated database.
func NewLedger(db *sql.DB, driver string, logger *slog.Logger) *Ledger {
	if logger == nil {
		logger = slog.Default()
	}
	var placeholder sq.PlaceholderFormat = sq.Question
	if driver == DriverPostgres {
		placeholder = sq.Dollar
	}
	return &Ledger{db: db, placeholder: placeholder, logger: logger.With("component", "ledger")}
}

// AlreadyProcessed returns the subset of keys already recorded.
func (l *Ledger) AlreadyProcessed(ctx context.Context, keys []string) (map[string]bool, error) {
	result := make(map[string]bool)
	if l.db == nil || len(keys) == 0 {
		return result, nil
	}

	query, args, err := l.selectProcessed(keys).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build processed query: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query processed: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan key: %w", err)
		}
		result[key] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return result, nil
}

func (l *Ledger) selectProcessed(keys []string) sq.SelectBuilder {
	return sq.Select("order_key").
		From(processedTable).
		Where(sq.Eq{"order_key": keys}).
		PlaceholderFormat(l.placeholder)
}

// SaveProcessed upserts the record of a written order.
func (l *Ledger) SaveProcessed(ctx context.Context, order domain.ProcessedOrder) error {
	if l.db == nil {
		return nil
	}

	query, args, err := sq.Insert(processedTable).
		Columns("order_key", "channel", "order_id", "sheet", "items", "run_id", "processed_at").
		Values(order.Key, string(order.Channel), order.OrderID, order.Sheet, order.Items, order.RunID, order.ProcessedAt.UTC()).
		Suffix(`ON CONFLICT (order_key) DO UPDATE SET
			sheet = excluded.sheet,
			items = excluded.items,
			run_id = excluded.run_id,
			processed_at = excluded.processed_at`).
		PlaceholderFormat(l.placeholder).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	if _, err := l.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert processed: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (l *Ledger) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}
