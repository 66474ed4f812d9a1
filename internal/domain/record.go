package domain

import (
	"time"

	"github.com/DRSN-tech/newsvector/pkg/e"
	"github.com/google/uuid"
)

// RecordType — вариант записи в коллекции.
type RecordType string

const (
	RecordTypeTextChunk RecordType = "text_chunk"
	RecordTypeImage     RecordType = "image"
)

// Payload описывает дополнительную информацию вектора
type Payload map[string]any

// ArticleMeta — метаданные исходной статьи, денормализуемые в каждую её запись.
type ArticleMeta struct {
	ArticleID string // общий идентификатор всех записей одной статьи
	Title     string
	Summary   string
	Link      string
	ImageURL  string
	PubDate   time.Time
}

// Record представляет одну хранимую запись: вектор плюс payload.
// Запись неизменяема после создания; единственное последующее событие — удаление при вытеснении.
type Record struct {
	ID         string
	Vector     []float32
	Type       RecordType
	Meta       ArticleMeta
	ChunkIndex int    // только для text_chunk
	Text       string // только для text_chunk
	ImageKey   string // только для image; ключ объекта в архиве, может быть пустым
	CreatedAt  int64  // UTC UnixNano, ключ сортировки вытеснения
}

// NewTextChunkRecord создаёт запись текстового фрагмента.
// Идентификатор генерируется в момент создания, created_at проставляется немедленно.
func NewTextChunkRecord(meta ArticleMeta, chunkIndex int, text string, vector []float32) (*Record, error) {
	if err := validateCommon(meta, vector); err != nil {
		return nil, err
	}
	if chunkIndex < 0 {
		return nil, e.ErrNegativeChunkIndex
	}
	if text == "" {
		return nil, e.ErrEmptyChunkText
	}

	return &Record{
		ID:         uuid.NewString(),
		Vector:     vector,
		Type:       RecordTypeTextChunk,
		Meta:       meta,
		ChunkIndex: chunkIndex,
		Text:       text,
		CreatedAt:  time.Now().UTC().UnixNano(),
	}, nil
}

// NewImageRecord создаёт запись изображения статьи.
func NewImageRecord(meta ArticleMeta, imageKey string, vector []float32) (*Record, error) {
	if err := validateCommon(meta, vector); err != nil {
		return nil, err
	}

	return &Record{
		ID:        uuid.NewString(),
		Vector:    vector,
		Type:      RecordTypeImage,
		Meta:      meta,
		ImageKey:  imageKey,
		CreatedAt: time.Now().UTC().UnixNano(),
	}, nil
}

func validateCommon(meta ArticleMeta, vector []float32) error {
	if meta.ArticleID == "" {
		return e.ErrArticleIDRequired
	}
	if len(vector) == 0 {
		return e.ErrEmptyVector
	}

	return nil
}

// Payload собирает payload записи для хранилища.
// Поля варианта присутствуют только у соответствующего типа записи.
func (r *Record) Payload() Payload {
	p := Payload{
		"type":       string(r.Type),
		"article_id": r.Meta.ArticleID,
		"title":      r.Meta.Title,
		"summary":    r.Meta.Summary,
		"link":       r.Meta.Link,
		"image_url":  r.Meta.ImageURL,
		"pub_date":   r.Meta.PubDate.UTC().Format(time.RFC3339),
		"created_at": r.CreatedAt,
	}

	switch r.Type {
	case RecordTypeTextChunk:
		p["chunk_index"] = int64(r.ChunkIndex)
		p["text"] = r.Text
	case RecordTypeImage:
		if r.ImageKey != "" {
			p["image_key"] = r.ImageKey
		}
	}

	return p
}
