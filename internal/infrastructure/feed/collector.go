package feed

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/DRSN-tech/newsvector/internal/cfg"
	"github.com/DRSN-tech/newsvector/internal/domain"
	"github.com/DRSN-tech/newsvector/pkg/logger"
	"github.com/mmcdole/gofeed"
)

// Collector обходит настроенные RSS/Atom-источники и выдаёт нормализованные элементы.
// Порядок источников и порядок элементов внутри источника сохраняются.
type Collector struct {
	parser *gofeed.Parser
	cfg    *cfg.FeedCfg
	logger logger.Logger
}

func NewCollector(feedCfg *cfg.FeedCfg, client *http.Client, logger logger.Logger) *Collector {
	parser := gofeed.NewParser()
	parser.Client = client

	return &Collector{
		parser: parser,
		cfg:    feedCfg,
		logger: logger,
	}
}

// Collect собирает элементы всех источников.
// Сбой одного источника (сеть, битый XML) логируется и не прерывает обход остальных;
// ошибка возвращается только когда не удалось разобрать ни один источник.
func (c *Collector) Collect(ctx context.Context) ([]domain.Entry, error) {
	const op = "Collector.Collect"

	var (
		entries []domain.Entry
		failed  int
	)

	for _, url := range c.cfg.URLs {
		feed, err := c.parser.ParseURLWithContext(url, ctx)
		if err != nil {
			failed++
			c.logger.Warnf("skipping feed source %s: %v", url, err)
			continue
		}

		for _, item := range feed.Items {
			entry, ok := c.normalizeItem(item)
			if !ok {
				continue
			}
			entries = append(entries, entry)
		}
	}

	if failed == len(c.cfg.URLs) {
		return nil, fmt.Errorf("%s: all %d feed sources failed", op, failed)
	}

	return entries, nil
}

// normalizeItem приводит элемент ленты к доменной модели.
// Элементы без ссылки отбрасываются; отсутствующая дата публикации заменяется временем обработки.
func (c *Collector) normalizeItem(item *gofeed.Item) (domain.Entry, bool) {
	link := strings.TrimSpace(item.Link)
	if link == "" {
		c.logger.Warnf("dropping feed item without link: title=%q", item.Title)
		return domain.Entry{}, false
	}

	published := time.Now().UTC()
	if item.PublishedParsed != nil {
		published = item.PublishedParsed.UTC()
	} else if item.UpdatedParsed != nil {
		published = item.UpdatedParsed.UTC()
	}

	return domain.Entry{
		Title:     strings.TrimSpace(item.Title),
		Summary:   strings.TrimSpace(item.Description),
		Link:      link,
		Published: published,
		ImageURL:  firstImageURL(item),
	}, true
}

// firstImageURL возвращает первую image-ссылку элемента:
// enclosure с типом image/*, затем media:content, затем картинка элемента.
func firstImageURL(item *gofeed.Item) string {
	for _, enc := range item.Enclosures {
		if enc == nil || enc.URL == "" {
			continue
		}
		if strings.HasPrefix(enc.Type, "image/") {
			return enc.URL
		}
	}

	if media, ok := item.Extensions["media"]; ok {
		for _, content := range media["content"] {
			if url := content.Attrs["url"]; url != "" {
				return url
			}
		}
	}

	if item.Image != nil && item.Image.URL != "" {
		return item.Image.URL
	}

	return ""
}
