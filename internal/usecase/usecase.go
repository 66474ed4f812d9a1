package usecase

import "context"

type IngestUC interface {
	Run(ctx context.Context) (*IngestStats, error)
}

type RetentionUC interface {
	EnforceBudget(ctx context.Context) (*RetentionStats, error)
	DeleteOldest(ctx context.Context, batchSize int) (int, error)
}
