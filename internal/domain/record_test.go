package domain

import (
	"testing"
	"time"

	"github.com/DRSN-tech/newsvector/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMeta() ArticleMeta {
	return ArticleMeta{
		ArticleID: "11111111-2222-3333-4444-555555555555",
		Title:     "Title",
		Summary:   "Summary",
		Link:      "http://example.com/article",
		ImageURL:  "http://example.com/pic.jpg",
		PubDate:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func TestNewTextChunkRecord(t *testing.T) {
	vector := make([]float32, 512)

	t.Run("valid record", func(t *testing.T) {
		rec, err := NewTextChunkRecord(testMeta(), 0, "chunk text", vector)
		require.NoError(t, err)

		assert.NotEmpty(t, rec.ID)
		assert.Equal(t, RecordTypeTextChunk, rec.Type)
		assert.Equal(t, 0, rec.ChunkIndex)
		assert.Equal(t, "chunk text", rec.Text)
		assert.NotZero(t, rec.CreatedAt)
	})

	t.Run("fresh id per record", func(t *testing.T) {
		first, err := NewTextChunkRecord(testMeta(), 0, "a", vector)
		require.NoError(t, err)
		second, err := NewTextChunkRecord(testMeta(), 1, "b", vector)
		require.NoError(t, err)

		assert.NotEqual(t, first.ID, second.ID)
	})

	t.Run("missing article id", func(t *testing.T) {
		meta := testMeta()
		meta.ArticleID = ""
		_, err := NewTextChunkRecord(meta, 0, "x", vector)
		assert.ErrorIs(t, err, e.ErrArticleIDRequired)
	})

	t.Run("empty vector", func(t *testing.T) {
		_, err := NewTextChunkRecord(testMeta(), 0, "x", nil)
		assert.ErrorIs(t, err, e.ErrEmptyVector)
	})

	t.Run("negative chunk index", func(t *testing.T) {
		_, err := NewTextChunkRecord(testMeta(), -1, "x", vector)
		assert.ErrorIs(t, err, e.ErrNegativeChunkIndex)
	})

	t.Run("empty text", func(t *testing.T) {
		_, err := NewTextChunkRecord(testMeta(), 0, "", vector)
		assert.ErrorIs(t, err, e.ErrEmptyChunkText)
	})
}

func TestNewImageRecord(t *testing.T) {
	vector := make([]float32, 512)

	rec, err := NewImageRecord(testMeta(), "articles/abc.jpg", vector)
	require.NoError(t, err)

	assert.Equal(t, RecordTypeImage, rec.Type)
	assert.Equal(t, "articles/abc.jpg", rec.ImageKey)
	assert.Empty(t, rec.Text)
	assert.NotZero(t, rec.CreatedAt)
}

func TestRecord_Payload(t *testing.T) {
	vector := make([]float32, 512)

	t.Run("text chunk payload", func(t *testing.T) {
		rec, err := NewTextChunkRecord(testMeta(), 3, "body", vector)
		require.NoError(t, err)

		p := rec.Payload()
		assert.Equal(t, "text_chunk", p["type"])
		assert.Equal(t, testMeta().ArticleID, p["article_id"])
		assert.Equal(t, int64(3), p["chunk_index"])
		assert.Equal(t, "body", p["text"])
		assert.Equal(t, rec.CreatedAt, p["created_at"])
		assert.Equal(t, "2026-01-02T03:04:05Z", p["pub_date"])
		assert.NotContains(t, p, "image_key")
	})

	t.Run("image payload has no chunk fields", func(t *testing.T) {
		rec, err := NewImageRecord(testMeta(), "articles/abc.jpg", vector)
		require.NoError(t, err)

		p := rec.Payload()
		assert.Equal(t, "image", p["type"])
		assert.Equal(t, "articles/abc.jpg", p["image_key"])
		assert.NotContains(t, p, "chunk_index")
		assert.NotContains(t, p, "text")
	})

	t.Run("empty image key is omitted", func(t *testing.T) {
		rec, err := NewImageRecord(testMeta(), "", vector)
		require.NoError(t, err)

		assert.NotContains(t, rec.Payload(), "image_key")
	})
}
