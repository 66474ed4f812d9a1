package clients

import (
	"context"
	"fmt"
	"strings"

	config "github.com/DRSN-tech/newsvector/internal/cfg"
	"github.com/DRSN-tech/newsvector/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/qdrant/go-client/qdrant"
)

type QdrantClient struct {
	Client *qdrant.Client
	cfg    *config.QdrantCfg
}

func NewQdrantClient(cfg *config.QdrantCfg) (*QdrantClient, error) {
	qdrantClient, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.ApiKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &QdrantClient{
		Client: qdrantClient,
		cfg:    cfg,
	}, nil
}

// EnsureCollection идемпотентно создаёт коллекцию с заданной размерностью векторов и косинусной метрикой.
// Существующая коллекция не пересоздаётся и не изменяется.
func EnsureCollection(ctx context.Context, client *QdrantClient) error {
	exists, err := client.Client.CollectionExists(ctx, client.cfg.CollectionName)
	if err != nil {
		return fmt.Errorf("failed to check collection existence: %w", err)
	}

	if !exists {
		if err := client.Client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: client.cfg.CollectionName,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     client.cfg.VectorSize,
				Distance: qdrant.Distance_Cosine,
			}),
		}); err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
	}

	return nil
}

// EnsurePayloadIndexes создаёт вторичные индексы по payload-полям:
// type (keyword) — для фильтрации по варианту записи,
// created_at (integer) — для упорядоченного scroll при вытеснении старых записей.
// Повторное создание индекса считается успехом.
func EnsurePayloadIndexes(ctx context.Context, client *QdrantClient) error {
	indexes := []struct {
		field     string
		fieldType qdrant.FieldType
	}{
		{field: "type", fieldType: qdrant.FieldType_FieldTypeKeyword},
		{field: "created_at", fieldType: qdrant.FieldType_FieldTypeInteger},
	}

	for _, idx := range indexes {
		_, err := client.Client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: client.cfg.CollectionName,
			FieldName:      idx.field,
			FieldType:      &idx.fieldType,
		})
		if err != nil && !strings.Contains(err.Error(), "already exists") {
			return fmt.Errorf("failed to create payload index %q: %w", idx.field, err)
		}
	}

	return nil
}
