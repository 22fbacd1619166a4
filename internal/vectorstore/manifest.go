package vectorstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/josinaldojr/talkdoc-rag/internal/ingest"
	"github.com/josinaldojr/talkdoc-rag/internal/rag"
)

var (
	ErrIndexNotFound    = errors.New("vector index not found")
	ErrIndexCorrupt     = errors.New("vector index is corrupt")
	ErrEmbedderMismatch = errors.New("embedder does not match the one used to build the index")
)

// Manifest records how an index was built. It is written after all chunks
// so an interrupted build never looks complete.
type Manifest struct {
	BuildID        string    `yaml:"build_id"`
	Collection     string    `yaml:"collection"`
	Source         string    `yaml:"source"`
	EmbeddingModel string    `yaml:"embedding_model"`
	Dimension      int       `yaml:"dimension"`
	Chunks         int       `yaml:"chunks"`
	ChunkSize      int       `yaml:"chunk_size"`
	ChunkOverlap   int       `yaml:"chunk_overlap"`
	CreatedAt      time.Time `yaml:"created_at"`
}

func NewManifest(embedder rag.Embedder, collection, source string, chunks int) Manifest {
	return Manifest{
		BuildID:        uuid.NewString(),
		Collection:     collection,
		Source:         source,
		EmbeddingModel: embedder.Name(),
		Dimension:      embedder.Dimension(),
		Chunks:         chunks,
		ChunkSize:      ingest.ChunkSize,
		ChunkOverlap:   ingest.ChunkOverlap,
		CreatedAt:      time.Now().UTC(),
	}
}

// CheckEmbedder fails when e would produce vectors from another space.
func (m Manifest) CheckEmbedder(e rag.Embedder) error {
	if m.EmbeddingModel != e.Name() || m.Dimension != e.Dimension() {
		return fmt.Errorf("%w: index built with %s/%d, got %s/%d",
			ErrEmbedderMismatch, m.EmbeddingModel, m.Dimension, e.Name(), e.Dimension())
	}
	return nil
}

func (m Manifest) validate() error {
	if m.Collection == "" || m.EmbeddingModel == "" || m.Dimension <= 0 || m.Chunks <= 0 {
		return fmt.Errorf("%w: incomplete manifest", ErrIndexCorrupt)
	}
	return nil
}

func (m Manifest) marshal() ([]byte, error) {
	return yaml.Marshal(m)
}

func parseManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("%w: manifest: %v", ErrIndexCorrupt, err)
	}
	if err := m.validate(); err != nil {
		return Manifest{}, err
	}
	return m, nil
}
