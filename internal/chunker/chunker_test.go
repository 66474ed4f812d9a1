package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Run("valid geometry", func(t *testing.T) {
		c, err := New(1500, 400)
		require.NoError(t, err)
		require.NotNil(t, c)
	})

	t.Run("overlap equal to chunk size is rejected", func(t *testing.T) {
		c, err := New(100, 100)
		assert.Error(t, err)
		assert.Nil(t, c)
	})

	t.Run("overlap larger than chunk size is rejected", func(t *testing.T) {
		_, err := New(100, 200)
		assert.Error(t, err)
	})

	t.Run("non-positive chunk size is rejected", func(t *testing.T) {
		_, err := New(0, 0)
		assert.Error(t, err)
	})
}

func TestChunk_ShortInput(t *testing.T) {
	c, err := New(1500, 400)
	require.NoError(t, err)

	t.Run("input shorter than chunk size yields the input itself", func(t *testing.T) {
		text := "Небольшая новость без продолжения."
		chunks := c.Chunk(text)
		require.Len(t, chunks, 1)
		assert.Equal(t, text, chunks[0])
	})

	t.Run("empty input yields no chunks", func(t *testing.T) {
		assert.Empty(t, c.Chunk(""))
		assert.Empty(t, c.Chunk("   \n\t  "))
	})

	t.Run("surrounding whitespace is trimmed before chunking", func(t *testing.T) {
		chunks := c.Chunk("  \n Новость с краевыми пробелами. \t ")
		require.Len(t, chunks, 1)
		assert.Equal(t, "Новость с краевыми пробелами.", chunks[0])
	})
}

func TestChunk_PlainTextScenario(t *testing.T) {
	// 3000 символов без каких-либо разделителей: резка на уровне символов,
	// chunk_size=1500, overlap=400 -> два фрагмента
	c, err := New(1500, 400)
	require.NoError(t, err)

	text := strings.Repeat("abcde", 600)
	chunks := c.Chunk(text)

	require.Len(t, chunks, 2)
	assert.Len(t, chunks[0], 1500)
	assert.Len(t, chunks[1], 1900) // 400 контекста + 1500 нового текста

	tail := chunks[0][len(chunks[0])-400:]
	head := chunks[1][:400]
	assert.Equal(t, tail, head)
}

func TestChunk_OverlapIsContiguous(t *testing.T) {
	c, err := New(200, 50)
	require.NoError(t, err)

	text := strings.Repeat("slovo dela text novost lenta ", 40) // ~1160 символов
	chunks := c.Chunk(text)
	require.Greater(t, len(chunks), 1)

	trimmed := strings.TrimSpace(text)
	for i, chunk := range chunks {
		assert.Contains(t, trimmed, chunk, "chunk %d must be a contiguous substring", i)
	}

	for i := 0; i < len(chunks)-1; i++ {
		tail := chunks[i][len(chunks[i])-50:]
		head := chunks[i+1][:50]
		assert.Equal(t, tail, head, "overlap between chunks %d and %d", i, i+1)
	}
}

func TestChunk_Deterministic(t *testing.T) {
	c, err := New(300, 60)
	require.NoError(t, err)

	text := strings.Repeat("Первое предложение. Второе предложение подлиннее! Третье? ", 30)

	first := c.Chunk(text)
	second := c.Chunk(text)
	assert.Equal(t, first, second)
}

func TestChunk_BoundaryPreference(t *testing.T) {
	t.Run("paragraph break wins over finer separators", func(t *testing.T) {
		c, err := New(100, 20)
		require.NoError(t, err)

		para1 := strings.Repeat("a", 60) + ". End of one"
		para2 := strings.Repeat("b", 120)
		chunks := c.Chunk(para1 + "\n\n" + para2)

		require.Greater(t, len(chunks), 1)
		// Первый сегмент заканчивается на границе абзаца, а не посреди para2
		assert.Equal(t, para1+"\n\n", chunks[0])
	})

	t.Run("sentence end wins over space", func(t *testing.T) {
		c, err := New(50, 10)
		require.NoError(t, err)

		text := "One sentence here. " + strings.Repeat("word ", 30)
		chunks := c.Chunk(text)

		require.Greater(t, len(chunks), 1)
		assert.True(t, strings.HasPrefix(chunks[0], "One sentence here. "))
		assert.Equal(t, "One sentence here. ", chunks[0])
	})

	t.Run("falls back to character split without separators", func(t *testing.T) {
		c, err := New(10, 2)
		require.NoError(t, err)

		chunks := c.Chunk(strings.Repeat("x", 25))
		require.Len(t, chunks, 3)
		assert.Len(t, chunks[0], 10)
		assert.Len(t, chunks[1], 12)
	})
}

func TestChunk_RuneSafety(t *testing.T) {
	c, err := New(10, 3)
	require.NoError(t, err)

	text := strings.Repeat("щ", 25)
	chunks := c.Chunk(text)

	for _, chunk := range chunks {
		for _, r := range chunk {
			assert.Equal(t, 'щ', r)
		}
	}
}
