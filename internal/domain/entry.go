package domain

import "time"

// Entry — нормализованный элемент RSS/Atom-ленты до извлечения полного текста.
type Entry struct {
	Title     string
	Summary   string
	Link      string    // обязательное поле; элементы без ссылки отбрасываются коллектором
	Published time.Time // при отсутствии в ленте — время обработки
	ImageURL  string    // первая image-ссылка из enclosure/media, может быть пустой
}

// Image — загруженные байты изображения статьи.
type Image struct {
	Bytes    []byte
	MimeType string
}
