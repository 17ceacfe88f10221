package parser

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"ArticleRelay/internal/config"
	"ArticleRelay/internal/ports"
)

const maxPageBytes = 8 << 20

// PageFetcher downloads landing pages the way a browser would.
type PageFetcher struct {
	client         *http.Client
	userAgent      string
	referer        string
	acceptLanguage string
}

var _ ports.PageFetcher = (*PageFetcher)(nil)

// NewPageFetcher wires an HTTP client; a nil client gets the configured timeout.
func NewPageFetcher(cfg config.PageConfig, client *http.Client) *PageFetcher {
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &PageFetcher{
		client:         client,
		userAgent:      cfg.UserAgent,
		referer:        cfg.Referer,
		acceptLanguage: cfg.AcceptLanguage,
	}
}

// Fetch returns the page markup; network errors and non-2xx statuses are errors.
func (f *PageFetcher) Fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,*/*;q=0.8")
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}
	if f.referer != "" {
		req.Header.Set("Referer", f.referer)
	}
	if f.acceptLanguage != "" {
		req.Header.Set("Accept-Language", f.acceptLanguage)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("page returned %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("read page: %w", err)
	}
	return string(body), nil
}
