package usecase

import "github.com/DRSN-tech/newsvector/internal/domain"

// INGEST USECASE

// IngestStats — итоги одного прогона ингеста.
type IngestStats struct {
	EntriesSeen   int // элементов получено из лент
	Deduplicated  int // пропущено как уже обработанные
	Articles      int // статей с хотя бы одной сохранённой записью
	ChunksStored  int
	ImagesStored  int
	ChunkFailures int // фрагменты, потерянные из-за сбоя векторизации или записи
}

// RETENTION USECASE

// EvictionCandidate — запись, выбранная к вытеснению.
// ImageKey непуст только у image-записей с заархивированным объектом.
type EvictionCandidate struct {
	ID       string
	ImageKey string
}

// RetentionStats — итоги одного прогона вытеснения.
type RetentionStats struct {
	RecordCount    uint64
	EstimatedBytes int64 // оценка занятости: точное число записей * средний размер записи
	Triggered      bool  // превышен ли потолок хранилища
	Deleted        int
}

// INFRASTRUCTURE

// EmbedImageRes — результат векторизации изображения.
// Исходные байты возвращаются для архивирования.
type EmbedImageRes struct {
	Vector []float32
	Image  domain.Image
}

// ArticleIngestedReq — запрос на публикацию события об ингесте статьи.
type ArticleIngestedReq struct {
	ArticleID    string
	Link         string
	ChunksStored int
	ImageStored  bool
}
