package usecase

import (
	"context"

	"github.com/DRSN-tech/newsvector/internal/domain"
)

type RecordRepository interface {
	Upsert(ctx context.Context, record *domain.Record) error
	Oldest(ctx context.Context, limit int) ([]EvictionCandidate, error)
	Delete(ctx context.Context, ids []string) error
	Count(ctx context.Context) (uint64, error)
}

type DedupRepository interface {
	SeenOrMark(ctx context.Context, link string) bool
	Unmark(ctx context.Context, link string)
}

type ImageRepository interface {
	Upload(ctx context.Context, articleID string, image domain.Image) (string, error)
	Delete(ctx context.Context, key string) error
}
