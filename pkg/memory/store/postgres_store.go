package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taleweave/taleweave/pkg/memory/model"
)

// PostgresStore implements VectorStore using Postgres, with pgvector as
// the accelerated path. When the vector extension cannot be installed the
// store still commits every record and answers queries by scanning rows
// of matching dimensionality and ranking by cosine distance in process.
type PostgresStore struct {
	DB     *pgxpool.Pool
	logger *log.Logger

	initOnce    sync.Once
	initErr     error
	accelerated bool
}

// NewPostgresStore connects to Postgres and returns a Postgres-backed
// VectorStore implementation.
func NewPostgresStore(ctx context.Context, connStr string) (*PostgresStore, error) {
	db, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}
	return &PostgresStore{DB: db, logger: log.With("component", "postgres-store")}, nil
}

func (ps *PostgresStore) EnsureReady(ctx context.Context) error {
	ps.initOnce.Do(func() {
		if _, err := ps.DB.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS vector;`); err != nil {
			ps.logger.Warn("pgvector unavailable, queries will scan", "err", err)
		} else {
			ps.accelerated = true
		}
		vecColumn := ""
		if ps.accelerated {
			vecColumn = "vec vector,"
		}
		schema := fmt.Sprintf(`
                CREATE TABLE IF NOT EXISTS journal_memories (
                        id TEXT PRIMARY KEY,
                        owner TEXT NOT NULL,
                        kind TEXT NOT NULL,
                        dims INT NOT NULL,
                        %s
                        payload JSONB NOT NULL,
                        embedding JSONB NOT NULL,
                        created_at TIMESTAMPTZ NOT NULL
                );
                CREATE INDEX IF NOT EXISTS journal_memories_owner_idx ON journal_memories (owner);
                `, vecColumn)
		if _, err := ps.DB.Exec(ctx, schema); err != nil {
			ps.initErr = fmt.Errorf("failed to create schema: %w", err)
		}
	})
	return ps.initErr
}

func (ps *PostgresStore) Insert(ctx context.Context, rec model.MemoryRecord) (string, error) {
	if err := ps.EnsureReady(ctx); err != nil {
		return "", err
	}
	if len(rec.Embedding) == 0 {
		return "", ErrEmptyEmbedding
	}
	if rec.Owner == "" {
		return "", ErrNoOwner
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.Importance = model.ClampImportance(rec.Importance)
	rec.Distance = 0

	payload, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	jsonEmbed, _ := json.Marshal(rec.Embedding)

	if ps.accelerated {
		_, err = ps.DB.Exec(ctx, `
                INSERT INTO journal_memories (id, owner, kind, dims, vec, payload, embedding, created_at)
                VALUES ($1, $2, $3, $4, $5::vector, $6::jsonb, $7::jsonb, $8);
                `, rec.ID, rec.Owner, string(rec.Kind), len(rec.Embedding),
			vectorLiteral(string(jsonEmbed)), string(payload), string(jsonEmbed), rec.CreatedAt)
	} else {
		_, err = ps.DB.Exec(ctx, `
                INSERT INTO journal_memories (id, owner, kind, dims, payload, embedding, created_at)
                VALUES ($1, $2, $3, $4, $5::jsonb, $6::jsonb, $7);
                `, rec.ID, rec.Owner, string(rec.Kind), len(rec.Embedding),
			string(payload), string(jsonEmbed), rec.CreatedAt)
	}
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

func (ps *PostgresStore) Query(ctx context.Context, embedding []float32, k int) ([]model.MemoryRecord, error) {
	if err := ps.EnsureReady(ctx); err != nil {
		return nil, err
	}
	if k <= 0 || len(embedding) == 0 {
		return nil, nil
	}
	if ps.accelerated {
		records, err := ps.queryVector(ctx, embedding, k)
		if err == nil {
			return records, nil
		}
		ps.logger.Warn("pgvector query failed, scanning", "err", err)
	}
	return ps.queryScan(ctx, embedding, k)
}

// queryVector ranks with the pgvector cosine-distance operator. The dims
// predicate keeps vectors of other dimensionalities out of the comparison.
func (ps *PostgresStore) queryVector(ctx context.Context, embedding []float32, k int) ([]model.MemoryRecord, error) {
	jsonEmbed, _ := json.Marshal(embedding)
	rows, err := ps.DB.Query(ctx, `
        SELECT payload, (vec <=> $1::vector) AS distance
        FROM journal_memories
        WHERE dims = $2
        ORDER BY vec <=> $1::vector
        LIMIT $3;
        `, vectorLiteral(string(jsonEmbed)), len(embedding), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.MemoryRecord
	for rows.Next() {
		var payload []byte
		var distance float64
		if err := rows.Scan(&payload, &distance); err != nil {
			return nil, err
		}
		var rec model.MemoryRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		rec.Distance = distance
		records = append(records, rec)
	}
	return records, rows.Err()
}

// queryScan is the extension-free fallback: fetch same-dimensionality rows
// and rank them in process.
func (ps *PostgresStore) queryScan(ctx context.Context, embedding []float32, k int) ([]model.MemoryRecord, error) {
	rows, err := ps.DB.Query(ctx, `
        SELECT payload FROM journal_memories WHERE dims = $1;
        `, len(embedding))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.MemoryRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var rec model.MemoryRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		dist, ok := model.CosineDistance(embedding, rec.Embedding)
		if !ok {
			continue
		}
		rec.Distance = dist
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sortByDistance(records)
	if len(records) > k {
		records = records[:k]
	}
	return records, nil
}

func (ps *PostgresStore) DeleteByOwner(ctx context.Context, owner string) (int, error) {
	if err := ps.EnsureReady(ctx); err != nil {
		return 0, err
	}
	tag, err := ps.DB.Exec(ctx, `DELETE FROM journal_memories WHERE owner = $1;`, owner)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

// Close releases the underlying connection pool.
func (ps *PostgresStore) Close() error {
	if ps == nil || ps.DB == nil {
		return nil
	}
	ps.DB.Close()
	return nil
}

func vectorLiteral(jsonArray string) string {
	return fmt.Sprintf("[%s]", strings.Trim(jsonArray, "[]"))
}
