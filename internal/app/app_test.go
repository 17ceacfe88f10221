package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ArticleRelay/internal/config"
)

type upstreams struct {
	feed     *httptest.Server
	page     *httptest.Server
	chat     *httptest.Server
	telegram *httptest.Server

	mu    sync.Mutex
	calls map[string][]string
}

func (u *upstreams) record(method, body string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.calls[method] = append(u.calls[method], body)
}

func (u *upstreams) bodies(method string) []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.calls[method]...)
}

func startUpstreams(t *testing.T) *upstreams {
	t.Helper()

	u := &upstreams{calls: map[string][]string{}}

	u.page = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div class="Abstracts"><p>Background info</p></div></body></html>`))
	}))
	t.Cleanup(u.page.Close)

	u.feed = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0"?><rss version="2.0"><channel><title>j</title>
<item><title>Study X</title><link>%s/article/S1</link>
<description><![CDATA[<p>Publication date: May 2025</p><p>Author(s): I. Petrov</p>]]></description></item>
</channel></rss>`, u.page.URL)
	}))
	t.Cleanup(u.feed.Close)

	u.chat = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Content string `json:"content"`
			} `json:"messages"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		u.record("chat", "")
		user := ""
		if len(req.Messages) > 1 {
			user = req.Messages[1].Content
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]string{"content": "Перевод " + user}}},
		})
	}))
	t.Cleanup(u.chat.Close)

	u.telegram = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		u.record(r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:], string(body))
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	t.Cleanup(u.telegram.Close)

	return u
}

func testConfig(t *testing.T, u *upstreams) config.Config {
	dir := t.TempDir()
	return config.Config{
		Logging: config.LoggingConfig{Level: "error"},
		Feed: config.FeedConfig{
			URL:            u.feed.URL,
			Timeout:        5 * time.Second,
			UnknownDate:    "Неизвестно",
			UnknownAuthors: "Неизвестны",
		},
		Page:     config.PageConfig{UserAgent: "test", Timeout: 5 * time.Second},
		Database: config.DatabaseConfig{Driver: "sqlite", DSN: filepath.Join(dir, "articles.sqlite")},
		ChatGPT: config.ChatGPTConfig{
			Endpoint: u.chat.URL,
			Model:    "gpt-4o",
			APIKey:   "key",
			Timeout:  5 * time.Second,
		},
		Translation: config.TranslationConfig{
			Language:            "Russian",
			TitlePlaceholder:    "Нет заголовка",
			AbstractPlaceholder: "Аннотация не найдена.",
		},
		Notifications: config.NotificationConfig{Telegram: config.TelegramConfig{
			APIBase:  u.telegram.URL,
			BotToken: "TOKEN",
			ChatID:   "@channel",
			Labels:   config.TelegramLabels{PublicationDate: "Дата публикации", Authors: "Автор(ы)", ReadMore: "Читать далее"},
		}},
		Export: config.ExportConfig{Path: filepath.Join(dir, "articles.csv"), Caption: "Свод публикаций (CSV)"},
	}
}

func TestApplicationPollThenExport(t *testing.T) {
	t.Parallel()

	u := startUpstreams(t)
	application, err := New(testConfig(t, u), nil)
	require.NoError(t, err)
	defer application.Close()

	ctx := context.Background()
	require.NoError(t, application.Poll(ctx))

	messages := u.bodies("sendMessage")
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "Перевод Study X")
	assert.Contains(t, messages[0], "Перевод Background info")
	assert.Contains(t, messages[0], u.page.URL+"/article/S1")
	assert.Len(t, u.bodies("chat"), 2)

	require.NoError(t, application.Poll(ctx))
	assert.Len(t, u.bodies("sendMessage"), 1)
	assert.Len(t, u.bodies("chat"), 2)

	require.NoError(t, application.Export(ctx))
	docs := u.bodies("sendDocument")
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0], "FingerprintID,TranslatedTitle")
	assert.Contains(t, docs[0], "Перевод Study X")
	assert.Contains(t, docs[0], "Свод публикаций (CSV)")
}

func TestApplicationRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	_, err := New(config.Config{}, nil)
	assert.ErrorContains(t, err, "invalid config")
}
