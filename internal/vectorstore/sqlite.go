package vectorstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/josinaldojr/talkdoc-rag/internal/rag"
)

// SQLiteFile is the database file name inside the index directory.
const SQLiteFile = "index.sqlite"

// SQLiteWriter stores the index in a single SQLite file.
type SQLiteWriter struct {
	Dir string
}

func openSQLite(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return db, nil
}

func (w *SQLiteWriter) Write(ctx context.Context, m Manifest, chunks []rag.Chunk, vectors [][]float32) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	db, err := openSQLite(filepath.Join(w.Dir, SQLiteFile))
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	ddl := []string{
		`DROP TABLE IF EXISTS chunk`,
		`DROP TABLE IF EXISTS manifest`,
		`CREATE TABLE chunk (
			id        TEXT PRIMARY KEY,
			position  INTEGER NOT NULL,
			content   TEXT NOT NULL,
			embedding BLOB NOT NULL
		)`,
		`CREATE TABLE manifest (
			id   INTEGER PRIMARY KEY,
			body TEXT NOT NULL
		)`,
	}
	for _, stmt := range ddl {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("prepare schema: %w", err)
		}
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO chunk(id, position, content, embedding) VALUES(?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, c := range chunks {
		if _, err := stmt.ExecContext(ctx, c.ID, c.Position, c.Content, encodeVector(vectors[i])); err != nil {
			return fmt.Errorf("insert chunk %s: %w", c.ID, err)
		}
	}

	data, err := m.marshal()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO manifest(id, body) VALUES(1, ?)`, string(data)); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return tx.Commit()
}

// SQLiteIndex holds every chunk vector in memory and scans them all on
// each query. It suits small corpora such as a single reference book.
type SQLiteIndex struct {
	manifest Manifest
	chunks   []rag.Chunk
	vectors  [][]float32
}

// OpenSQLite loads an index written by SQLiteWriter. The file is closed
// before returning.
func OpenSQLite(ctx context.Context, dir string, embedder rag.Embedder) (*SQLiteIndex, error) {
	path := filepath.Join(dir, SQLiteFile)
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, path)
		}
		return nil, fmt.Errorf("stat index: %w", err)
	}

	db, err := openSQLite(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var raw string
	if err := db.QueryRowContext(ctx, `SELECT body FROM manifest WHERE id = 1`).Scan(&raw); err != nil {
		return nil, fmt.Errorf("%w: read manifest: %v", ErrIndexCorrupt, err)
	}
	m, err := parseManifest([]byte(raw))
	if err != nil {
		return nil, err
	}
	if err := m.CheckEmbedder(embedder); err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT id, position, content, embedding FROM chunk ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
	}
	defer rows.Close()

	idx := &SQLiteIndex{manifest: m}
	for rows.Next() {
		var (
			c    rag.Chunk
			blob []byte
		)
		if err := rows.Scan(&c.ID, &c.Position, &c.Content, &blob); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
		}
		vec, err := decodeVector(blob)
		if err != nil || len(vec) != m.Dimension {
			return nil, fmt.Errorf("%w: chunk %s has a bad embedding", ErrIndexCorrupt, c.ID)
		}
		idx.chunks = append(idx.chunks, c)
		idx.vectors = append(idx.vectors, normalize(vec))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
	}
	if len(idx.chunks) != m.Chunks {
		return nil, fmt.Errorf("%w: %d chunks stored, manifest says %d", ErrIndexCorrupt, len(idx.chunks), m.Chunks)
	}

	return idx, nil
}

func (s *SQLiteIndex) Manifest() Manifest { return s.manifest }

// Search ranks every chunk by cosine similarity.
func (s *SQLiteIndex) Search(_ context.Context, embedding []float32, k int) ([]rag.Chunk, error) {
	if len(embedding) != s.manifest.Dimension {
		return nil, fmt.Errorf("query vector has %d dimensions, index has %d", len(embedding), s.manifest.Dimension)
	}
	if k <= 0 {
		return nil, nil
	}

	q := normalize(embedding)
	scored := make([]rag.Chunk, len(s.chunks))
	for i, c := range s.chunks {
		c.Similarity = dot(q, s.vectors[i])
		scored[i] = c
	}
	sortChunks(scored)

	return scored[:min(k, len(scored))], nil
}

// encodeVector stores float32 values little-endian without a length
// prefix; the length follows from the blob size.
func encodeVector(v []float32) []byte {
	b := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(b[i*4:], math.Float32bits(f))
	}
	return b
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return v, nil
}

func normalize(v []float32) []float32 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	norm := float32(math.Sqrt(sum))
	for i, f := range v {
		out[i] = f / norm
	}
	return out
}

func dot(a, b []float32) float32 {
	var s float32
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

var _ rag.Index = (*SQLiteIndex)(nil)
