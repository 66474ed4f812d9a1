package qdrant

import (
	"context"

	"github.com/DRSN-tech/newsvector/internal/cfg"
	"github.com/DRSN-tech/newsvector/internal/domain"
	"github.com/DRSN-tech/newsvector/internal/usecase"
	"github.com/DRSN-tech/newsvector/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/qdrant/go-client/qdrant"
)

// RecordRepo репозиторий для работы с записями конвейера в Qdrant
type RecordRepo struct {
	client *qdrant.Client
	cfg    *cfg.QdrantCfg
}

func NewRecordRepo(client *qdrant.Client, cfg *cfg.QdrantCfg) *RecordRepo {
	return &RecordRepo{
		client: client,
		cfg:    cfg,
	}
}

// Upsert сохраняет запись в коллекции.
// Несовпадение размерности вектора с конфигурацией коллекции — ошибка,
// запись не должна попасть в индекс.
func (q *RecordRepo) Upsert(ctx context.Context, record *domain.Record) error {
	if uint64(len(record.Vector)) != q.cfg.VectorSize {
		return e.Wrap(whereami.WhereAmI(), e.ErrVectorSizeMismatch)
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.cfg.CollectionName,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewIDUUID(record.ID),
				Vectors: qdrant.NewVectors(record.Vector...),
				Payload: qdrant.NewValueMap(record.Payload()),
			},
		},
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Oldest возвращает limit самых старых записей по возрастанию created_at
// вместе с ключами заархивированных изображений. Пустой результат — валидное состояние.
func (q *RecordRepo) Oldest(ctx context.Context, limit int) ([]usecase.EvictionCandidate, error) {
	points, err := q.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: q.cfg.CollectionName,
		Limit:          qdrant.PtrOf(uint32(limit)),
		WithPayload:    qdrant.NewWithPayloadInclude("image_key"),
		OrderBy: &qdrant.OrderBy{
			Key:       "created_at",
			Direction: qdrant.Direction_Asc.Enum(),
		},
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	candidates := make([]usecase.EvictionCandidate, 0, len(points))
	for _, point := range points {
		candidates = append(candidates, usecase.EvictionCandidate{
			ID:       point.Id.GetUuid(),
			ImageKey: point.Payload["image_key"].GetStringValue(),
		})
	}

	return candidates, nil
}

// Delete удаляет записи одним групповым запросом по набору идентификаторов.
func (q *RecordRepo) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	pointIDs := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		pointIDs = append(pointIDs, qdrant.NewIDUUID(id))
	}

	_, err := q.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: q.cfg.CollectionName,
		Points:         qdrant.NewPointsSelector(pointIDs...),
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Count возвращает точное количество записей в коллекции.
func (q *RecordRepo) Count(ctx context.Context) (uint64, error) {
	count, err := q.client.Count(ctx, &qdrant.CountPoints{
		CollectionName: q.cfg.CollectionName,
		Exact:          qdrant.PtrOf(true),
	})
	if err != nil {
		return 0, e.Wrap(whereami.WhereAmI(), err)
	}

	return count, nil
}
