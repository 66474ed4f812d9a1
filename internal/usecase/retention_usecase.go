package usecase

import (
	"context"

	"github.com/DRSN-tech/newsvector/internal/cfg"
	"github.com/DRSN-tech/newsvector/pkg/e"
	"github.com/DRSN-tech/newsvector/pkg/logger"
)

// RetentionUseCase удерживает занятость коллекции под настроенным потолком.
//
// Политика — пороговое вытеснение: занятость оценивается как точное число записей,
// умноженное на сконфигурированный средний размер записи (AvgRecordBytes), и одна
// партия самых старых по created_at записей удаляется только при превышении потолка.
type RetentionUseCase struct {
	recordRepo RecordRepository
	imageRepo  ImageRepository // nil, когда архивирование изображений отключено
	cfg        *cfg.RetentionCfg
	logger     logger.Logger
}

func NewRetentionUC(recordRepo RecordRepository, imageRepo ImageRepository, cfg *cfg.RetentionCfg, logger logger.Logger) *RetentionUseCase {
	return &RetentionUseCase{
		recordRepo: recordRepo,
		imageRepo:  imageRepo,
		cfg:        cfg,
		logger:     logger,
	}
}

// EnforceBudget выполняет один шаг вытеснения по пороговой политике.
func (r *RetentionUseCase) EnforceBudget(ctx context.Context) (*RetentionStats, error) {
	const op = "RetentionUseCase.EnforceBudget"

	count, err := r.recordRepo.Count(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	stats := &RetentionStats{
		RecordCount:    count,
		EstimatedBytes: int64(count) * r.cfg.AvgRecordBytes,
	}

	if stats.EstimatedBytes <= r.cfg.MaxStorageBytes {
		r.logger.Infof("storage within budget: records=%d, estimated=%d bytes, max=%d bytes",
			count, stats.EstimatedBytes, r.cfg.MaxStorageBytes)
		return stats, nil
	}

	stats.Triggered = true

	deleted, err := r.DeleteOldest(ctx, r.cfg.BatchSize)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	stats.Deleted = deleted

	return stats, nil
}

// DeleteOldest удаляет партию самых старых записей по возрастанию created_at
// вместе с их заархивированными изображениями, чтобы в архиве не копились
// объекты без записи. Пустая выборка — валидное терминальное состояние
// («нечего удалять»), не ошибка.
func (r *RetentionUseCase) DeleteOldest(ctx context.Context, batchSize int) (int, error) {
	const op = "RetentionUseCase.DeleteOldest"

	candidates, err := r.recordRepo.Oldest(ctx, batchSize)
	if err != nil {
		return 0, e.Wrap(op, err)
	}

	if len(candidates) == 0 {
		r.logger.Infof("no records found to delete")
		return 0, nil
	}

	ids := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		ids = append(ids, candidate.ID)
	}

	if err := r.recordRepo.Delete(ctx, ids); err != nil {
		return 0, e.Wrap(op, err)
	}

	r.deleteArchivedImages(ctx, candidates)

	r.logger.Infof("deleted %d oldest records", len(ids))

	return len(ids), nil
}

// deleteArchivedImages подчищает объекты вытесненных image-записей (best-effort):
// запись в Qdrant уже удалена, сбой архива оставляет объект до следующей партии
// с тем же ключом либо до ручной чистки.
func (r *RetentionUseCase) deleteArchivedImages(ctx context.Context, candidates []EvictionCandidate) {
	if r.imageRepo == nil {
		return
	}

	for _, candidate := range candidates {
		if candidate.ImageKey == "" {
			continue
		}

		if err := r.imageRepo.Delete(ctx, candidate.ImageKey); err != nil {
			r.logger.Warnf("failed to delete archived image: key=%s, err=%v", candidate.ImageKey, err)
		}
	}
}
