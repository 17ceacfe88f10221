package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"ArticleRelay/internal/config"
	"ArticleRelay/internal/domain"
	"ArticleRelay/internal/ports"
)

const (
	publicationDateLabel = "publication date:"
	authorsLabel         = "author(s):"
)

// Reader fetches the publisher RSS feed and maps items to feed entries.
type Reader struct {
	url            string
	maxEntries     int
	unknownDate    string
	unknownAuthors string
	parser         *gofeed.Parser
	logger         *slog.Logger
}

var _ ports.FeedReader = (*Reader)(nil)

// NewReader wires a gofeed parser; a nil client gets the configured timeout.
func NewReader(cfg config.FeedConfig, client *http.Client, log *slog.Logger) *Reader {
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	fp := gofeed.NewParser()
	fp.Client = client
	if cfg.UserAgent != "" {
		fp.UserAgent = cfg.UserAgent
	}

	return &Reader{
		url:            cfg.URL,
		maxEntries:     cfg.MaxEntries,
		unknownDate:    cfg.UnknownDate,
		unknownAuthors: cfg.UnknownAuthors,
		parser:         fp,
		logger:         log,
	}
}

// Fetch downloads and parses the feed. A malformed or unreachable feed is an
// error; an empty feed is not.
func (r *Reader) Fetch(ctx context.Context) ([]domain.FeedEntry, error) {
	if r.url == "" {
		return nil, fmt.Errorf("feed url is not configured")
	}

	r.debug("fetch feed", "url", r.url)
	parsed, err := r.parser.ParseURLWithContext(r.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", r.url, err)
	}

	items := parsed.Items
	if r.maxEntries > 0 && len(items) > r.maxEntries {
		items = items[:r.maxEntries]
	}

	entries := make([]domain.FeedEntry, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		entries = append(entries, r.toEntry(item))
	}

	r.debug("feed parsed", "items", len(parsed.Items), "entries", len(entries))
	return entries, nil
}

func (r *Reader) toEntry(item *gofeed.Item) domain.FeedEntry {
	title := strings.TrimSpace(item.Title)
	if title == "" {
		title = domain.NoTitle
	}

	date, authors := ParseDescription(item.Description)
	if date == "" {
		date = r.unknownDate
	}
	if authors == "" {
		authors = r.unknownAuthors
	}

	return domain.FeedEntry{
		Title:         title,
		Link:          strings.TrimSpace(item.Link),
		Description:   item.Description,
		PublishedDate: date,
		Authors:       authors,
	}
}

// ParseDescription reads the "Publication date:" and "Author(s):" paragraphs
// that ScienceDirect embeds in item descriptions. Missing values are empty.
func ParseDescription(description string) (date, authors string) {
	if strings.TrimSpace(description) == "" {
		return "", ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(description))
	if err != nil {
		return "", ""
	}

	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		lower := strings.ToLower(text)
		switch {
		case strings.HasPrefix(lower, publicationDateLabel):
			date = valueAfterColon(text)
		case strings.HasPrefix(lower, authorsLabel):
			authors = valueAfterColon(text)
		}
	})
	return date, authors
}

func valueAfterColon(text string) string {
	_, value, _ := strings.Cut(text, ":")
	return strings.TrimSpace(value)
}

func (r *Reader) debug(msg string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Debug(msg, args...)
	}
}
