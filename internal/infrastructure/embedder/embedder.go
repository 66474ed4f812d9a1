package embedder

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/DRSN-tech/newsvector/internal/cfg"
	"github.com/DRSN-tech/newsvector/internal/domain"
	"github.com/DRSN-tech/newsvector/internal/infrastructure"
	"github.com/DRSN-tech/newsvector/internal/usecase"
	"github.com/DRSN-tech/newsvector/pkg/e"
	"github.com/DRSN-tech/newsvector/pkg/jitter"
	"github.com/DRSN-tech/newsvector/pkg/logger"

	_ "image/jpeg"

	_ "golang.org/x/image/webp"
)

// maxImageBytes — предел на размер скачиваемого изображения
const maxImageBytes = 10 << 20

// Embedder клиент мультимодального embedding-сервиса (CLIP-класс, общая размерность
// для текста и изображений). Текстовые и графические векторы сравнимы между собой.
type Embedder struct {
	client        *http.Client
	cfg           *cfg.EmbedderCfg
	maxConcurrent int
	maxRetries    int
	sem           chan struct{}
	logger        logger.Logger
}

func NewEmbedder(embedderCfg *cfg.EmbedderCfg, logger logger.Logger) *Embedder {
	return &Embedder{
		client: &http.Client{
			Timeout: embedderCfg.Timeout,
		},
		cfg:           embedderCfg,
		maxConcurrent: embedderCfg.MaxConcurrent,
		maxRetries:    embedderCfg.MaxRetries,
		sem:           make(chan struct{}, embedderCfg.MaxConcurrent),
		logger:        logger,
	}
}

type embedRequest struct {
	Text     string `json:"text,omitempty"`
	Image    string `json:"image,omitempty"` // base64 PNG
	MimeType string `json:"mime_type,omitempty"`
}

type embedResponse struct {
	Vector       []float32 `json:"vector"`
	ModelVersion string    `json:"model_version"`
}

// EmbedText выполняет векторизацию текста с retry-логикой и экспоненциальной задержкой.
func (m *Embedder) EmbedText(ctx context.Context, text string) ([]float32, error) {
	const op = "Embedder.EmbedText"

	return m.embedWithRetry(ctx, op, "/embed/text", &embedRequest{Text: text})
}

// EmbedImage скачивает изображение, декодирует его в фиксированную цветовую модель
// и векторизует. Любой сбой загрузки или декодирования возвращается как ошибка,
// которую конвейер трактует как «пропустить image-запись», а не как фатальный сбой.
func (m *Embedder) EmbedImage(ctx context.Context, imageURL string) (*usecase.EmbedImageRes, error) {
	const op = "Embedder.EmbedImage"

	raw, mime, err := m.fetchImage(ctx, imageURL)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if _, err := infrastructure.GetExtensionFromMIME(mime); err != nil {
		return nil, e.Wrap(op, fmt.Errorf("mime %q: %w", mime, err))
	}

	normalized, err := normalizeImage(raw)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	vector, err := m.embedWithRetry(ctx, op, "/embed/image", &embedRequest{
		Image:    base64.StdEncoding.EncodeToString(normalized),
		MimeType: "image/png",
	})
	if err != nil {
		return nil, err
	}

	return &usecase.EmbedImageRes{
		Vector: vector,
		Image: domain.Image{
			Bytes:    raw,
			MimeType: mime,
		},
	}, nil
}

// embedWithRetry повторяет запрос к embedding-сервису с джиттером между попытками.
func (m *Embedder) embedWithRetry(ctx context.Context, op, path string, req *embedRequest) ([]float32, error) {
	const (
		baseJitter = 1 * time.Second
		maxJitter  = 30 * time.Second
	)

	for attempt := 0; attempt < m.maxRetries; attempt++ {
		vector, err := m.embed(ctx, path, req)
		if err == nil {
			return vector, nil
		}

		if attempt == m.maxRetries-1 {
			return nil, e.Wrap(op, fmt.Errorf("all %d attempts failed: %w", m.maxRetries, err))
		}

		sleepTime := jitter.ExponentialBackoff(
			baseJitter,
			maxJitter,
			attempt,
			jitter.DefaultJitter,
		)

		m.logger.Warnf("embedding request failed, retrying in %v (attempt %d): %v", sleepTime, attempt+1, err)
		select {
		case <-time.After(sleepTime):
		case <-ctx.Done():
			return nil, e.Wrap(op, ctx.Err())
		}
	}

	return nil, e.Wrap(op, fmt.Errorf("unreachable"))
}

// embed выполняет один запрос; конкурентность ограничена семафором.
func (m *Embedder) embed(ctx context.Context, path string, req *embedRequest) ([]float32, error) {
	select {
	case m.sem <- struct{}{}:
		defer func() { <-m.sem }()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.Addr+path, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding service returned status %d", resp.StatusCode)
	}

	var res embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, err
	}

	if len(res.Vector) == 0 {
		return nil, e.ErrEmptyVector
	}

	return res.Vector, nil
}

// fetchImage скачивает байты изображения и определяет его MIME-тип.
func (m *Embedder) fetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", err
	}
	if len(raw) == 0 {
		return nil, "", fmt.Errorf("empty image body")
	}

	mime := resp.Header.Get("Content-Type")
	if idx := strings.Index(mime, ";"); idx > 0 {
		mime = mime[:idx]
	}
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(raw)
	}

	return raw, strings.TrimSpace(mime), nil
}

// normalizeImage декодирует изображение и перекодирует его в RGBA PNG,
// чтобы embedding-сервис всегда получал одну цветовую модель.
func normalizeImage(raw []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("image decode: %w", err)
	}

	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)

	var buf bytes.Buffer
	if err := png.Encode(&buf, rgba); err != nil {
		return nil, fmt.Errorf("image encode: %w", err)
	}

	return buf.Bytes(), nil
}
