package vectorstore

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLite_RoundTrip(t *testing.T) {
	ctx := context.Background()
	emb := hashEmbedder{name: "hash", dim: 24}
	dir := filepath.Join(t.TempDir(), "idx")

	m, err := Build(ctx, &SQLiteWriter{Dir: dir}, emb, medicalBook(), "book.txt", "medical_book")
	require.NoError(t, err)

	idx, err := OpenSQLite(ctx, dir, emb)
	require.NoError(t, err)
	assert.Equal(t, m.BuildID, idx.Manifest().BuildID)
	require.Len(t, idx.chunks, m.Chunks)

	for _, c := range idx.chunks {
		got, err := idx.Search(ctx, mustEmbed(t, emb, c.Content), 1)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, c.ID, got[0].ID)
		assert.InDelta(t, 1.0, got[0].Similarity, 1e-5)
	}

	top, err := idx.Search(ctx, mustEmbed(t, emb, "fever"), 5)
	require.NoError(t, err)
	assert.Len(t, top, 5)
	again, err := idx.Search(ctx, mustEmbed(t, emb, "fever"), 5)
	require.NoError(t, err)
	assert.Equal(t, top, again)

	all, err := idx.Search(ctx, mustEmbed(t, emb, "fever"), m.Chunks+10)
	require.NoError(t, err)
	assert.Len(t, all, m.Chunks)
}

func TestSQLite_RebuildReplacesContent(t *testing.T) {
	ctx := context.Background()
	emb := hashEmbedder{name: "hash", dim: 8}
	dir := t.TempDir()

	_, err := Build(ctx, &SQLiteWriter{Dir: dir}, emb, medicalBook(), "a", "c")
	require.NoError(t, err)
	m, err := Build(ctx, &SQLiteWriter{Dir: dir}, emb, "Only one short chunk about measles.", "b", "c")
	require.NoError(t, err)

	idx, err := OpenSQLite(ctx, dir, emb)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Chunks)
	assert.Len(t, idx.chunks, 1)
}

func TestSQLite_OpenFailures(t *testing.T) {
	ctx := context.Background()
	emb := hashEmbedder{name: "hash", dim: 8}

	_, err := OpenSQLite(ctx, t.TempDir(), emb)
	assert.ErrorIs(t, err, ErrIndexNotFound)

	dir := t.TempDir()
	_, err = Build(ctx, &SQLiteWriter{Dir: dir}, emb, medicalBook(), "a", "c")
	require.NoError(t, err)

	_, err = OpenSQLite(ctx, dir, hashEmbedder{name: "other", dim: 8})
	assert.ErrorIs(t, err, ErrEmbedderMismatch)

	db, err := sql.Open("sqlite", filepath.Join(dir, SQLiteFile))
	require.NoError(t, err)
	_, err = db.Exec(`DELETE FROM chunk WHERE position = 0`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = OpenSQLite(ctx, dir, emb)
	assert.ErrorIs(t, err, ErrIndexCorrupt)
}

func TestVectorEncoding(t *testing.T) {
	v := []float32{0.5, -1.25, 3}
	got, err := decodeVector(encodeVector(v))
	require.NoError(t, err)
	assert.Equal(t, v, got)

	_, err = decodeVector([]byte{1, 2, 3})
	assert.Error(t, err)
}
