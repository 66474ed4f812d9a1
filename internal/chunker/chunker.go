// Package chunker разбивает текст статьи на перекрывающиеся фрагменты фиксированного размера,
// пригодные для векторизации.
package chunker

import (
	"strings"
	"unicode"

	"github.com/DRSN-tech/newsvector/pkg/e"
)

// Chunker разрезает текст по позициям, предпочитая наиболее крупные границы:
// абзац, перенос строки, конец предложения, пробел и только затем произвольный символ.
// Каждый фрагмент после первого получает хвост предыдущего сегмента длиной overlap
// для сохранения сквозного контекста между фрагментами.
type Chunker struct {
	chunkSize int // максимум нового текста в одном фрагменте, в рунах
	overlap   int // длина переносимого контекста, в рунах
}

// New валидирует геометрию фрагментов. overlap >= chunkSize — ошибка конфигурации.
func New(chunkSize, overlap int) (*Chunker, error) {
	if chunkSize <= 0 || overlap < 0 || overlap >= chunkSize {
		return nil, e.ErrOverlapTooLarge
	}

	return &Chunker{
		chunkSize: chunkSize,
		overlap:   overlap,
	}, nil
}

// Chunk возвращает упорядоченные фрагменты текста.
// Вход сначала нормализуется обрезкой краевых пробельных символов; каждый
// фрагмент — непрерывная подстрока нормализованного входа, результат детерминирован.
// Пустой после нормализации вход даёт пустой результат, вход не длиннее
// chunkSize — ровно один фрагмент, равный нормализованному входу.
func (c *Chunker) Chunk(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= c.chunkSize {
		return []string{text}
	}

	cuts := c.cutPositions(runes)

	chunks := make([]string, 0, len(cuts))
	for i, start := range cuts {
		end := len(runes)
		if i+1 < len(cuts) {
			end = cuts[i+1]
		}

		chunkStart := start
		if i > 0 {
			chunkStart = start - c.overlap
			if chunkStart < 0 {
				chunkStart = 0
			}
		}

		chunks = append(chunks, string(runes[chunkStart:end]))
	}

	return chunks
}

// cutPositions вычисляет стартовые позиции сегментов нового текста.
// Пока остаток превышает chunkSize, в пределах окна выбирается самая крупная доступная граница.
func (c *Chunker) cutPositions(runes []rune) []int {
	cuts := []int{0}

	pos := 0
	for len(runes)-pos > c.chunkSize {
		window := runes[pos : pos+c.chunkSize]
		cut := pos + bestCut(window)
		cuts = append(cuts, cut)
		pos = cut
	}

	return cuts
}

// bestCut возвращает смещение следующего сегмента внутри окна, всегда в диапазоне (0, len(window)].
func bestCut(window []rune) int {
	if cut := lastParagraphBreak(window); cut > 0 {
		return cut
	}
	if cut := lastLineBreak(window); cut > 0 {
		return cut
	}
	if cut := lastSentenceEnd(window); cut > 0 {
		return cut
	}
	if cut := lastSpace(window); cut > 0 {
		return cut
	}

	return len(window)
}

// lastParagraphBreak ищет последнюю пустую строку; сегмент продолжается после неё.
func lastParagraphBreak(window []rune) int {
	for i := len(window) - 2; i > 0; i-- {
		if window[i] == '\n' && window[i+1] == '\n' {
			j := i + 1
			for j+1 < len(window) && window[j+1] == '\n' {
				j++
			}
			return j + 1
		}
	}

	return 0
}

func lastLineBreak(window []rune) int {
	for i := len(window) - 1; i > 0; i-- {
		if window[i] == '\n' {
			return i + 1
		}
	}

	return 0
}

// lastSentenceEnd ищет завершающую пунктуацию, за которой следует пробельный символ.
func lastSentenceEnd(window []rune) int {
	for i := len(window) - 2; i > 0; i-- {
		if isSentencePunct(window[i]) && unicode.IsSpace(window[i+1]) {
			return i + 2
		}
	}

	return 0
}

func lastSpace(window []rune) int {
	for i := len(window) - 1; i > 0; i-- {
		if unicode.IsSpace(window[i]) {
			return i + 1
		}
	}

	return 0
}

func isSentencePunct(r rune) bool {
	switch r {
	case '.', '!', '?':
		return true
	}

	return false
}
