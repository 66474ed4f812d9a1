package e

import "fmt"

var (
	// Внутренние ошибки с векторами
	ErrEmptyVector        = fmt.Errorf("empty vector")
	ErrVectorSizeMismatch = fmt.Errorf("vector size mismatch")

	// Ошибки построения записей
	ErrArticleIDRequired    = fmt.Errorf("article id is required")
	ErrNegativeChunkIndex   = fmt.Errorf("chunk index must not be negative")
	ErrEmptyChunkText       = fmt.Errorf("chunk text is empty")
	ErrUnsupportedMediaType = fmt.Errorf("unsupported media type")

	// Ошибки конфигурации
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect env variable")
	ErrOverlapTooLarge      = fmt.Errorf("chunk overlap must be smaller than chunk size")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
