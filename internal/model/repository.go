package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository persists artifacts as one JSON document per
// ticker, upserted on every save.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new model repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// EnsureSchema creates the models table if it does not exist
func (r *PostgresRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS models (
			ticker     TEXT PRIMARY KEY,
			payload    JSONB NOT NULL,
			trained_at TIMESTAMPTZ NOT NULL,
			accuracy   DOUBLE PRECISION NOT NULL DEFAULT 0
		)
	`)
	if err != nil {
		return fmt.Errorf("create models table: %w", err)
	}
	return nil
}

// Save overwrites the artifact for a ticker
func (r *PostgresRepository) Save(ctx context.Context, ticker string, artifact *Artifact) error {
	payload, err := json.Marshal(artifact)
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO models (ticker, payload, trained_at, accuracy)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (ticker) DO UPDATE SET
			payload = EXCLUDED.payload,
			trained_at = EXCLUDED.trained_at,
			accuracy = EXCLUDED.accuracy
	`, ticker, payload, artifact.TrainedAt, artifact.Accuracy)
	if err != nil {
		return fmt.Errorf("upsert model: %w", err)
	}
	return nil
}

// Load reads the artifact for a ticker, ErrNotTrained when absent
func (r *PostgresRepository) Load(ctx context.Context, ticker string) (*Artifact, error) {
	var payload []byte
	err := r.pool.QueryRow(ctx, `SELECT payload FROM models WHERE ticker = $1`, ticker).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotTrained
		}
		return nil, fmt.Errorf("query model: %w", err)
	}

	var artifact Artifact
	if err := json.Unmarshal(payload, &artifact); err != nil {
		return nil, fmt.Errorf("unmarshal artifact: %w", err)
	}
	if artifact.Classifier == nil {
		return nil, fmt.Errorf("artifact for %q has no classifier state", ticker)
	}
	return &artifact, nil
}
