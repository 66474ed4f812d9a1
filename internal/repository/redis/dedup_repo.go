package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/DRSN-tech/newsvector/internal/cfg"
	"github.com/DRSN-tech/newsvector/pkg/clients"
	"github.com/DRSN-tech/newsvector/pkg/e"
	"github.com/DRSN-tech/newsvector/pkg/logger"
	"github.com/jimlawless/whereami"
)

// DedupRepo отслеживает уже обработанные ссылки статей в пределах окна дедупликации.
type DedupRepo struct {
	client *clients.RedisClient
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewDedupRepo(client *clients.RedisClient, cfg *cfg.RedisCfg, logger logger.Logger) *DedupRepo {
	return &DedupRepo{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// SeenOrMark атомарно проверяет и помечает ссылку как обработанную (SET NX + TTL).
// Возвращает true, если ссылка уже встречалась в пределах окна.
// Ошибка Redis логируется, а ссылка считается новой: повторный ингест статьи
// восстановим, молчаливая потеря — нет.
func (r *DedupRepo) SeenOrMark(ctx context.Context, link string) bool {
	key := dedupKey(link)

	created, err := r.client.Client.SetNX(ctx, key, 1, r.cfg.DedupTTL).Result()
	if err != nil {
		r.logger.Warnf("Redis SETNX failed, treating link as unseen: %v", e.Wrap(whereami.WhereAmI(), err))
		return false
	}

	return !created
}

// Unmark снимает отметку со ссылки, не давшей ни одной записи,
// чтобы следующий плановый прогон повторил попытку. Вызов best-effort:
// при ошибке Redis отметка истечёт сама по TTL.
func (r *DedupRepo) Unmark(ctx context.Context, link string) {
	if err := r.client.Client.Del(ctx, dedupKey(link)).Err(); err != nil {
		r.logger.Warnf("Redis DEL failed, dedup mark will expire by TTL: %v", e.Wrap(whereami.WhereAmI(), err))
	}
}

func dedupKey(link string) string {
	sum := sha256.Sum256([]byte(link))
	return "article:link:" + hex.EncodeToString(sum[:])
}
