package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"

	"github.com/philippgille/chromem-go"

	"github.com/josinaldojr/talkdoc-rag/internal/rag"
)

const (
	chromemDir   = "chromem"
	manifestFile = "index.yaml"
	positionKey  = "position"
)

// ChromemIndex is a read-only view over a persisted chromem-go collection.
type ChromemIndex struct {
	collection *chromem.Collection
	manifest   Manifest
}

// ChromemWriter persists an index as a directory: the chromem database in
// a subdirectory and the manifest beside it.
type ChromemWriter struct {
	Dir      string
	Embedder rag.Embedder
}

func (w *ChromemWriter) Write(ctx context.Context, m Manifest, chunks []rag.Chunk, vectors [][]float32) error {
	dbPath := filepath.Join(w.Dir, chromemDir)
	if err := os.RemoveAll(dbPath); err != nil {
		return fmt.Errorf("clear previous index: %w", err)
	}
	_ = os.Remove(filepath.Join(w.Dir, manifestFile))
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}

	db, err := chromem.NewPersistentDB(dbPath, false)
	if err != nil {
		return fmt.Errorf("create chromem db: %w", err)
	}

	col, err := db.CreateCollection(m.Collection, map[string]string{
		"embedding_model": m.EmbeddingModel,
		"build_id":        m.BuildID,
	}, embeddingFunc(w.Embedder))
	if err != nil {
		return fmt.Errorf("create collection: %w", err)
	}

	docs := make([]chromem.Document, 0, len(chunks))
	for i, c := range chunks {
		docs = append(docs, chromem.Document{
			ID:        c.ID,
			Content:   c.Content,
			Metadata:  map[string]string{positionKey: strconv.Itoa(c.Position)},
			Embedding: vectors[i],
		})
	}
	if err := col.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}

	data, err := m.marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(w.Dir, manifestFile), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// OpenChromem loads an index directory written by ChromemWriter and
// attaches embedder, which must match the one used at build time.
func OpenChromem(dir string, embedder rag.Embedder) (*ChromemIndex, error) {
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, dir)
		}
		return nil, fmt.Errorf("stat index dir: %w", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, manifestFile))
	if err != nil {
		return nil, fmt.Errorf("%w: read manifest: %v", ErrIndexCorrupt, err)
	}
	m, err := parseManifest(data)
	if err != nil {
		return nil, err
	}
	if err := m.CheckEmbedder(embedder); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, chromemDir)
	if _, err := os.Stat(dbPath); err != nil {
		return nil, fmt.Errorf("%w: missing %s", ErrIndexCorrupt, dbPath)
	}
	db, err := chromem.NewPersistentDB(dbPath, false)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIndexCorrupt, err)
	}

	col := db.GetCollection(m.Collection, embeddingFunc(embedder))
	if col == nil {
		return nil, fmt.Errorf("%w: collection %q not found", ErrIndexCorrupt, m.Collection)
	}
	if n := col.Count(); n != m.Chunks {
		return nil, fmt.Errorf("%w: %d chunks stored, manifest says %d", ErrIndexCorrupt, n, m.Chunks)
	}

	return &ChromemIndex{collection: col, manifest: m}, nil
}

func (c *ChromemIndex) Manifest() Manifest { return c.manifest }

// Search returns the k most similar chunks, nearest first. Equal
// similarities are ordered by chunk position.
//
// chromem picks its top n concurrently, so among equal scores at the cutoff
// the winners vary between calls. The whole collection is ranked here and
// cut to k after sorting.
func (c *ChromemIndex) Search(ctx context.Context, embedding []float32, k int) ([]rag.Chunk, error) {
	if len(embedding) != c.manifest.Dimension {
		return nil, fmt.Errorf("query vector has %d dimensions, index has %d", len(embedding), c.manifest.Dimension)
	}

	total := c.collection.Count()
	if k <= 0 || total == 0 {
		return nil, nil
	}

	results, err := c.collection.QueryEmbedding(ctx, embedding, total, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection: %w", err)
	}

	chunks := make([]rag.Chunk, 0, len(results))
	for _, r := range results {
		pos, err := strconv.Atoi(r.Metadata[positionKey])
		if err != nil {
			return nil, fmt.Errorf("%w: chunk %s has no position", ErrIndexCorrupt, r.ID)
		}
		chunks = append(chunks, rag.Chunk{
			ID:         r.ID,
			Position:   pos,
			Content:    r.Content,
			Similarity: r.Similarity,
		})
	}
	sortChunks(chunks)
	return chunks[:min(k, len(chunks))], nil
}

func sortChunks(chunks []rag.Chunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		if chunks[i].Similarity != chunks[j].Similarity {
			return chunks[i].Similarity > chunks[j].Similarity
		}
		return chunks[i].Position < chunks[j].Position
	})
}

func embeddingFunc(e rag.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return e.EmbedQuery(ctx, text)
	}
}

var _ rag.Index = (*ChromemIndex)(nil)
