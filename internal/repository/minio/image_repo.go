package minio

import (
	"bytes"
	"context"
	"fmt"

	"github.com/DRSN-tech/newsvector/internal/cfg"
	"github.com/DRSN-tech/newsvector/internal/domain"
	"github.com/DRSN-tech/newsvector/internal/infrastructure"
	"github.com/DRSN-tech/newsvector/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/minio/minio-go/v7"
)

// ImageRepo архивирует изображения статей в MinIO.
type ImageRepo struct {
	mc  *minio.Client
	cfg *cfg.MinIOCfg
}

func NewImageRepo(mc *minio.Client, cfg *cfg.MinIOCfg) *ImageRepo {
	return &ImageRepo{
		mc:  mc,
		cfg: cfg,
	}
}

// Upload сохраняет изображение статьи и возвращает ключ объекта.
// Ключ детерминирован по article_id: повторный запуск перезаписывает тот же объект.
func (i *ImageRepo) Upload(ctx context.Context, articleID string, image domain.Image) (string, error) {
	ext, err := infrastructure.GetExtensionFromMIME(image.MimeType)
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	key := fmt.Sprintf("articles/%s.%s", articleID, ext)

	reader := bytes.NewReader(image.Bytes)
	info, err := i.mc.PutObject(ctx, i.cfg.BucketName, key, reader, int64(len(image.Bytes)), minio.PutObjectOptions{
		ContentType: image.MimeType,
	})
	if err != nil {
		return "", e.Wrap(whereami.WhereAmI(), err)
	}

	return info.Key, nil
}

// Delete удаляет объект из MinIO по указанному ключу.
func (i *ImageRepo) Delete(ctx context.Context, key string) error {
	if err := i.mc.RemoveObject(ctx, i.cfg.BucketName, key, minio.RemoveObjectOptions{}); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
