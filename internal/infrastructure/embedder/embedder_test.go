package embedder

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DRSN-tech/newsvector/internal/cfg"
	"github.com/DRSN-tech/newsvector/pkg/e"
	"github.com/DRSN-tech/newsvector/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestEmbedder собирает клиента без retry-пауз (одна попытка).
func newTestEmbedder(t *testing.T, addr string) *Embedder {
	t.Helper()

	return NewEmbedder(&cfg.EmbedderCfg{
		Addr:          addr,
		Timeout:       5 * time.Second,
		MaxConcurrent: 2,
		MaxRetries:    1,
	}, logger.NewNopLogger())
}

func embeddingService(t *testing.T, handler func(path string, req embedRequest) ([]float32, int)) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		vector, status := handler(r.URL.Path, req)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}

		_ = json.NewEncoder(w).Encode(embedResponse{Vector: vector, ModelVersion: "test"})
	}))
	t.Cleanup(srv.Close)

	return srv
}

func pngBytes(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 60), G: uint8(y * 60), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestEmbedText(t *testing.T) {
	want := []float32{0.1, 0.2, 0.3}
	srv := embeddingService(t, func(path string, req embedRequest) ([]float32, int) {
		assert.Equal(t, "/embed/text", path)
		assert.Equal(t, "hello world", req.Text)
		return want, http.StatusOK
	})

	m := newTestEmbedder(t, srv.URL)

	vector, err := m.EmbedText(context.Background(), "hello world")
	require.NoError(t, err)
	assert.Equal(t, want, vector)
}

func TestEmbedText_EmptyVectorFromService(t *testing.T) {
	srv := embeddingService(t, func(string, embedRequest) ([]float32, int) {
		return nil, http.StatusOK
	})

	m := newTestEmbedder(t, srv.URL)

	_, err := m.EmbedText(context.Background(), "hello")
	assert.ErrorIs(t, err, e.ErrEmptyVector)
}

func TestEmbedText_ServiceError(t *testing.T) {
	srv := embeddingService(t, func(string, embedRequest) ([]float32, int) {
		return nil, http.StatusInternalServerError
	})

	m := newTestEmbedder(t, srv.URL)

	_, err := m.EmbedText(context.Background(), "hello")
	assert.Error(t, err)
}

func TestEmbedImage(t *testing.T) {
	raw := pngBytes(t)

	imageSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(raw)
	}))
	defer imageSrv.Close()

	want := []float32{1, 2, 3}
	embedSrv := embeddingService(t, func(path string, req embedRequest) ([]float32, int) {
		assert.Equal(t, "/embed/image", path)
		assert.Equal(t, "image/png", req.MimeType)

		// Сервису всегда уходит валидный нормализованный PNG
		decoded, err := base64.StdEncoding.DecodeString(req.Image)
		require.NoError(t, err)
		_, err = png.Decode(bytes.NewReader(decoded))
		require.NoError(t, err)

		return want, http.StatusOK
	})

	m := newTestEmbedder(t, embedSrv.URL)

	res, err := m.EmbedImage(context.Background(), imageSrv.URL)
	require.NoError(t, err)

	assert.Equal(t, want, res.Vector)
	// Архивируются исходные байты, не перекодированные
	assert.Equal(t, raw, res.Image.Bytes)
	assert.Equal(t, "image/png", res.Image.MimeType)
}

func TestEmbedImage_UnsupportedMIME(t *testing.T) {
	imageSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte("<html>not an image</html>"))
	}))
	defer imageSrv.Close()

	m := newTestEmbedder(t, "http://unused.invalid")

	_, err := m.EmbedImage(context.Background(), imageSrv.URL)
	assert.ErrorIs(t, err, e.ErrUnsupportedMediaType)
}

func TestEmbedImage_GIFIsRejected(t *testing.T) {
	// gif не входит в карту поддерживаемых типов и отсекается до декодирования
	imageSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/gif")
		_, _ = w.Write([]byte("GIF89a"))
	}))
	defer imageSrv.Close()

	m := newTestEmbedder(t, "http://unused.invalid")

	_, err := m.EmbedImage(context.Background(), imageSrv.URL)
	assert.ErrorIs(t, err, e.ErrUnsupportedMediaType)
}

func TestEmbedImage_CorruptedImage(t *testing.T) {
	imageSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("definitely not a png"))
	}))
	defer imageSrv.Close()

	m := newTestEmbedder(t, "http://unused.invalid")

	_, err := m.EmbedImage(context.Background(), imageSrv.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image decode")
}

func TestEmbedImage_FetchFailure(t *testing.T) {
	imageSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer imageSrv.Close()

	m := newTestEmbedder(t, "http://unused.invalid")

	_, err := m.EmbedImage(context.Background(), imageSrv.URL)
	assert.Error(t, err)
}
