package usecase

import (
	"context"

	"github.com/DRSN-tech/newsvector/internal/domain"
	"github.com/DRSN-tech/newsvector/pkg/e"
	"github.com/DRSN-tech/newsvector/pkg/logger"
	"github.com/google/uuid"
)

// IngestUseCase реализует конвейер ингеста: лента -> извлечение текста ->
// разбиение на фрагменты -> векторизация -> сохранение записей.
// Записи разных статей независимы; сбой одного фрагмента или статьи
// не прерывает обработку остальных.
type IngestUseCase struct {
	collector  FeedCollectorInfra
	extractor  ArticleExtractorInfra
	chunker    TextChunker
	embedder   EmbedderInfra
	recordRepo RecordRepository
	dedupRepo  DedupRepository
	imageRepo  ImageRepository    // nil отключает архивирование изображений
	producer   EventProducerInfra // nil отключает публикацию событий
	logger     logger.Logger
}

func NewIngestUC(
	collector FeedCollectorInfra,
	extractor ArticleExtractorInfra,
	chunker TextChunker,
	embedder EmbedderInfra,
	recordRepo RecordRepository,
	dedupRepo DedupRepository,
	imageRepo ImageRepository,
	producer EventProducerInfra,
	logger logger.Logger,
) *IngestUseCase {
	return &IngestUseCase{
		collector:  collector,
		extractor:  extractor,
		chunker:    chunker,
		embedder:   embedder,
		recordRepo: recordRepo,
		dedupRepo:  dedupRepo,
		imageRepo:  imageRepo,
		producer:   producer,
		logger:     logger,
	}
}

// Run обрабатывает один проход по всем настроенным лентам.
func (u *IngestUseCase) Run(ctx context.Context) (*IngestStats, error) {
	const op = "IngestUseCase.Run"

	entries, err := u.collector.Collect(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	stats := &IngestStats{EntriesSeen: len(entries)}

	for _, entry := range entries {
		if u.dedupRepo.SeenOrMark(ctx, entry.Link) {
			stats.Deduplicated++
			continue
		}

		if !u.processEntry(ctx, entry, stats) {
			// Статья без единой сохранённой записи не считается обработанной:
			// отметка снимается, следующий плановый прогон повторит попытку
			u.dedupRepo.Unmark(ctx, entry.Link)
		}
	}

	u.logger.Infof(
		"ingest run finished: entries=%d deduplicated=%d articles=%d chunks=%d images=%d chunk_failures=%d",
		stats.EntriesSeen, stats.Deduplicated, stats.Articles, stats.ChunksStored, stats.ImagesStored, stats.ChunkFailures,
	)

	return stats, nil
}

// processEntry обрабатывает одну статью целиком и возвращает true,
// если сохранена хотя бы одна запись.
// Частичный ингест (часть фрагментов сохранена, часть потеряна) — допустимое
// восстановимое состояние, а не повреждение данных.
func (u *IngestUseCase) processEntry(ctx context.Context, entry domain.Entry, stats *IngestStats) bool {
	meta := domain.ArticleMeta{
		ArticleID: uuid.NewString(), // свежий идентификатор на каждую статью
		Title:     entry.Title,
		Summary:   entry.Summary,
		Link:      entry.Link,
		ImageURL:  entry.ImageURL,
		PubDate:   entry.Published,
	}

	text, _ := u.extractor.Extract(ctx, entry)

	chunks := u.chunker.Chunk(text)
	if len(chunks) == 0 {
		u.logger.Warnf("nothing to ingest: link=%s, article_id=%s", entry.Link, meta.ArticleID)
		return false
	}

	chunksStored := 0
	for i, chunk := range chunks {
		if u.storeChunk(ctx, meta, i, chunk) {
			chunksStored++
		} else {
			stats.ChunkFailures++
		}
	}

	imageStored := false
	if entry.ImageURL != "" {
		imageStored = u.storeImage(ctx, meta)
	}

	if chunksStored == 0 && !imageStored {
		return false
	}

	stats.Articles++
	stats.ChunksStored += chunksStored
	if imageStored {
		stats.ImagesStored++
	}

	u.publishEvent(ctx, meta, chunksStored, imageStored)

	return true
}

// storeChunk векторизует и сохраняет один текстовый фрагмент.
// chunk_index — позиция фрагмента в исходном тексте.
func (u *IngestUseCase) storeChunk(ctx context.Context, meta domain.ArticleMeta, index int, chunk string) bool {
	vector, err := u.embedder.EmbedText(ctx, chunk)
	if err != nil {
		u.logger.Warnf("chunk embedding failed: link=%s, article_id=%s, chunk_index=%d, err=%v",
			meta.Link, meta.ArticleID, index, err)
		return false
	}

	record, err := domain.NewTextChunkRecord(meta, index, chunk, vector)
	if err != nil {
		u.logger.Warnf("invalid chunk record: link=%s, article_id=%s, chunk_index=%d, err=%v",
			meta.Link, meta.ArticleID, index, err)
		return false
	}

	if err := u.recordRepo.Upsert(ctx, record); err != nil {
		u.logger.Warnf("chunk upsert failed: link=%s, article_id=%s, chunk_index=%d, err=%v",
			meta.Link, meta.ArticleID, index, err)
		return false
	}

	return true
}

// storeImage векторизует изображение статьи и сохраняет image-запись.
// Любой сбой означает отсутствие image-записи у статьи; text_chunk-записи при этом не блокируются.
func (u *IngestUseCase) storeImage(ctx context.Context, meta domain.ArticleMeta) bool {
	res, err := u.embedder.EmbedImage(ctx, meta.ImageURL)
	if err != nil {
		u.logger.Warnf("image embedding failed, skipping image record: image_url=%s, article_id=%s, err=%v",
			meta.ImageURL, meta.ArticleID, err)
		return false
	}

	imageKey := ""
	if u.imageRepo != nil {
		key, err := u.imageRepo.Upload(ctx, meta.ArticleID, res.Image)
		if err != nil {
			// Архив — вспомогательное хранилище, его сбой не блокирует запись
			u.logger.Warnf("image archive upload failed: article_id=%s, err=%v", meta.ArticleID, err)
		} else {
			imageKey = key
		}
	}

	record, err := domain.NewImageRecord(meta, imageKey, res.Vector)
	if err != nil {
		u.logger.Warnf("invalid image record: article_id=%s, err=%v", meta.ArticleID, err)
		return false
	}

	if err := u.recordRepo.Upsert(ctx, record); err != nil {
		u.logger.Warnf("image upsert failed: image_url=%s, article_id=%s, err=%v",
			meta.ImageURL, meta.ArticleID, err)
		return false
	}

	return true
}

// publishEvent отправляет событие об ингесте статьи (best-effort).
func (u *IngestUseCase) publishEvent(ctx context.Context, meta domain.ArticleMeta, chunksStored int, imageStored bool) {
	if u.producer == nil {
		return
	}

	err := u.producer.PublishArticleIngested(ctx, &ArticleIngestedReq{
		ArticleID:    meta.ArticleID,
		Link:         meta.Link,
		ChunksStored: chunksStored,
		ImageStored:  imageStored,
	})
	if err != nil {
		u.logger.Warnf("failed to publish ingest event: article_id=%s, err=%v", meta.ArticleID, err)
	}
}
