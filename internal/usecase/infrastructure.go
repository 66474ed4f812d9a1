package usecase

import (
	"context"

	"github.com/DRSN-tech/newsvector/internal/domain"
)

type FeedCollectorInfra interface {
	Collect(ctx context.Context) ([]domain.Entry, error)
}

type ArticleExtractorInfra interface {
	// Extract возвращает текст статьи и признак использования запасной стратегии
	Extract(ctx context.Context, entry domain.Entry) (string, bool)
}

type TextChunker interface {
	Chunk(text string) []string
}

type EmbedderInfra interface {
	EmbedText(ctx context.Context, text string) ([]float32, error)
	EmbedImage(ctx context.Context, imageURL string) (*EmbedImageRes, error)
}

type EventProducerInfra interface {
	PublishArticleIngested(ctx context.Context, req *ArticleIngestedReq) error
}
