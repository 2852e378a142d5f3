package marketdata

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository is the keyed raw-row store behind the series service.
// Replace has full-overwrite semantics: each call discards whatever
// was previously persisted for the ticker.
type Repository interface {
	Replace(ctx context.Context, ticker string, rows []RawBar) error
	Load(ctx context.Context, ticker string) ([]RawBar, error)
}

// PostgresRepository implements Repository on pgx
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new bar repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the bars table if it does not exist. Numeric
// columns are TEXT on purpose: rows are persisted verbatim and coerced
// on load (see Clean).
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS bars (
			ticker     TEXT NOT NULL,
			bar_date   TEXT NOT NULL,
			open       TEXT NOT NULL DEFAULT '',
			high       TEXT NOT NULL DEFAULT '',
			low        TEXT NOT NULL DEFAULT '',
			close      TEXT NOT NULL DEFAULT '',
			volume     TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (ticker, bar_date)
		)
	`)
	if err != nil {
		return fmt.Errorf("create bars table: %w", err)
	}
	return nil
}

// Replace overwrites the persisted rows for a ticker in one transaction
func (r *PostgresRepository) Replace(ctx context.Context, ticker string, rows []RawBar) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM bars WHERE ticker = $1`, ticker); err != nil {
		return fmt.Errorf("delete prior rows: %w", err)
	}

	batch := &pgx.Batch{}
	for _, row := range rows {
		batch.Queue(`
			INSERT INTO bars (ticker, bar_date, open, high, low, close, volume)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (ticker, bar_date) DO UPDATE SET
				open = EXCLUDED.open,
				high = EXCLUDED.high,
				low = EXCLUDED.low,
				close = EXCLUDED.close,
				volume = EXCLUDED.volume
		`, ticker, row.Date, row.Open, row.High, row.Low, row.Close, row.Volume)
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit replace tx: %w", err)
	}
	return nil
}

// Load reads back every persisted row for a ticker in date order
func (r *PostgresRepository) Load(ctx context.Context, ticker string) ([]RawBar, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT bar_date, open, high, low, close, volume
		FROM bars
		WHERE ticker = $1
		ORDER BY bar_date ASC
	`, ticker)
	if err != nil {
		return nil, fmt.Errorf("query bars: %w", err)
	}
	defer rows.Close()

	var result []RawBar
	for rows.Next() {
		var row RawBar
		if err := rows.Scan(&row.Date, &row.Open, &row.High, &row.Low, &row.Close, &row.Volume); err != nil {
			return nil, fmt.Errorf("scan bar: %w", err)
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
