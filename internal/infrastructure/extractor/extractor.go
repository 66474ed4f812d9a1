package extractor

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/DRSN-tech/newsvector/internal/cfg"
	"github.com/DRSN-tech/newsvector/internal/domain"
	"github.com/DRSN-tech/newsvector/pkg/logger"
	"github.com/PuerkitoBio/goquery"
)

// minContentLen — минимальная длина текста, при которой селектор считается содержательным
const minContentLen = 100

// contentSelectors перебираются от семантических элементов к общим контейнерам
var contentSelectors = []string{
	"article",
	"main",
	"[role='main']",
	".article-body",
	".main-content",
	".content",
	"#content",
	".post",
	".entry",
	"body",
}

// Extractor получает полный текст статьи по ссылке из ленты.
type Extractor struct {
	client *http.Client
	cfg    *cfg.ExtractorCfg
	logger logger.Logger
}

func NewExtractor(extractorCfg *cfg.ExtractorCfg, logger logger.Logger) *Extractor {
	return &Extractor{
		client: &http.Client{
			Timeout: extractorCfg.FetchTimeout, // один медленный URL не должен останавливать конвейер
		},
		cfg:    extractorCfg,
		logger: logger,
	}
}

// Extract возвращает текст статьи и признак использования запасной стратегии.
// Сырые сетевые ошибки и таймауты наружу не выходят: при любом сбое или пустом
// результате извлечения возвращается конкатенация заголовка и аннотации из ленты.
func (x *Extractor) Extract(ctx context.Context, entry domain.Entry) (string, bool) {
	text, err := x.extractFull(ctx, entry.Link)
	if err != nil || text == "" {
		x.logger.Warnf("article extraction failed, using feed fallback: link=%s, err=%v", entry.Link, err)
		return fallbackText(entry), true
	}

	return text, false
}

// extractFull загружает страницу и выделяет основной текст, отбрасывая обвязку.
func (x *Extractor) extractFull(ctx context.Context, link string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", x.cfg.UserAgent)

	resp, err := x.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	return extractMainContent(doc), nil
}

// extractMainContent выделяет основной текст документа.
// Сначала удаляются нетекстовые и навигационные элементы, затем селекторы
// перебираются от самых специфичных к body; берётся первый содержательный.
func extractMainContent(doc *goquery.Document) string {
	doc.Find("script, style, nav, footer, header, aside, .nav, .navbar, .footer, .header, .sidebar, .advertisement, .ads").Remove()

	var content strings.Builder
	for _, selector := range contentSelectors {
		found := false
		doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if len(text) > minContentLen {
				content.WriteString(text)
				content.WriteString("\n\n")
				found = true
			}
		})

		if found {
			break
		}
	}

	return collapseWhitespace(content.String())
}

// collapseWhitespace убирает пустые строки и краевые пробелы построчно.
func collapseWhitespace(text string) string {
	lines := strings.Split(text, "\n")

	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			cleaned = append(cleaned, line)
		}
	}

	return strings.Join(cleaned, "\n")
}

func fallbackText(entry domain.Entry) string {
	return strings.TrimSpace(entry.Title + " " + entry.Summary)
}
