package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/josinaldojr/talkdoc-rag/internal/rag"
)

const undefinedTable = "42P01"

// PgIndex keeps chunks and their embeddings in Postgres with pgvector.
type PgIndex struct {
	db       *pgxpool.Pool
	manifest Manifest
}

type PgWriter struct {
	DB *pgxpool.Pool
}

func (w *PgWriter) Write(ctx context.Context, m Manifest, chunks []rag.Chunk, vectors [][]float32) error {
	tx, err := w.DB.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ddl := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		`DROP TABLE IF EXISTS medical_chunk`,
		fmt.Sprintf(`
			CREATE TABLE medical_chunk (
				id        TEXT PRIMARY KEY,
				position  INT NOT NULL,
				content   TEXT NOT NULL,
				embedding vector(%d) NOT NULL
			)`, m.Dimension),
		`CREATE TABLE IF NOT EXISTS medical_index_manifest (
				id       INT PRIMARY KEY,
				manifest TEXT NOT NULL
			)`,
	}
	for _, stmt := range ddl {
		if _, err := tx.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("prepare schema: %w", err)
		}
	}

	batch := &pgx.Batch{}
	for i, c := range chunks {
		batch.Queue(`
			INSERT INTO medical_chunk (id, position, content, embedding)
			VALUES ($1, $2, $3, $4)
		`, c.ID, c.Position, c.Content, pgvector.NewVector(vectors[i]))
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert chunks: %w", err)
	}

	data, err := m.marshal()
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO medical_index_manifest (id, manifest)
		VALUES (1, $1)
		ON CONFLICT (id) DO UPDATE SET manifest = EXCLUDED.manifest
	`, string(data))
	if err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return tx.Commit(ctx)
}

// OpenPg checks that a complete index built with embedder exists in the
// database.
func OpenPg(ctx context.Context, db *pgxpool.Pool, embedder rag.Embedder) (*PgIndex, error) {
	var raw string
	err := db.QueryRow(ctx, `SELECT manifest FROM medical_index_manifest WHERE id = 1`).Scan(&raw)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.Is(err, pgx.ErrNoRows) || (errors.As(err, &pgErr) && pgErr.Code == undefinedTable) {
			return nil, fmt.Errorf("%w: no manifest in database", ErrIndexNotFound)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	m, err := parseManifest([]byte(raw))
	if err != nil {
		return nil, err
	}
	if err := m.CheckEmbedder(embedder); err != nil {
		return nil, err
	}

	var n int
	if err := db.QueryRow(ctx, `SELECT count(*) FROM medical_chunk`).Scan(&n); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
	}
	if n != m.Chunks {
		return nil, fmt.Errorf("%w: %d chunks stored, manifest says %d", ErrIndexCorrupt, n, m.Chunks)
	}

	return &PgIndex{db: db, manifest: m}, nil
}

func (p *PgIndex) Manifest() Manifest { return p.manifest }

// Search orders by cosine distance, then by chunk position.
func (p *PgIndex) Search(ctx context.Context, embedding []float32, k int) ([]rag.Chunk, error) {
	if len(embedding) != p.manifest.Dimension {
		return nil, fmt.Errorf("query vector has %d dimensions, index has %d", len(embedding), p.manifest.Dimension)
	}
	if k <= 0 {
		k = rag.DefaultTopK
	}

	vec := pgvector.NewVector(embedding)

	rows, err := p.db.Query(ctx, `
		SELECT id, position, content, 1 - (embedding <=> $1) AS similarity
		FROM medical_chunk
		ORDER BY embedding <=> $1, position
		LIMIT $2
	`, vec, k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []rag.Chunk
	for rows.Next() {
		var c rag.Chunk
		var sim float64
		if err := rows.Scan(&c.ID, &c.Position, &c.Content, &sim); err != nil {
			return nil, err
		}
		c.Similarity = float32(sim)
		chunks = append(chunks, c)
	}

	return chunks, rows.Err()
}

var _ rag.Index = (*PgIndex)(nil)
