package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"ArticleRelay/internal/config"
	"ArticleRelay/internal/domain"
	"ArticleRelay/internal/ports"
)

// Notifier publishes announcements and files to a Telegram chat via the bot API.
type Notifier struct {
	apiBase  string
	botToken string
	chatID   string
	threadID int
	labels   config.TelegramLabels

	client  *http.Client
	limiter *rate.Limiter
	logger  *slog.Logger
}

var _ ports.Publisher = (*Notifier)(nil)

// Option customises a Notifier.
type Option func(*Notifier)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(n *Notifier) {
		n.client = hc
	}
}

// WithLimiter replaces the send rate limiter.
func WithLimiter(l *rate.Limiter) Option {
	return func(n *Notifier) {
		n.limiter = l
	}
}

// WithLogger attaches a logger.
func WithLogger(log *slog.Logger) Option {
	return func(n *Notifier) {
		n.logger = log
	}
}

// NewNotifier registers bot token, chat and layout settings.
func NewNotifier(cfg config.TelegramConfig, opts ...Option) *Notifier {
	apiBase := strings.TrimRight(cfg.APIBase, "/")
	if apiBase == "" {
		apiBase = "https://api.telegram.org"
	}

	limit := rate.Inf
	if cfg.MinInterval > 0 {
		limit = rate.Every(cfg.MinInterval)
	}

	n := &Notifier{
		apiBase:  apiBase,
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		threadID: cfg.ThreadID,
		labels:   cfg.Labels,
		client:   &http.Client{Timeout: 30 * time.Second},
		limiter:  rate.NewLimiter(limit, 1),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

type inlineButton struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

type replyMarkup struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

type sendMessageRequest struct {
	ChatID          string       `json:"chat_id"`
	Text            string       `json:"text"`
	ParseMode       string       `json:"parse_mode"`
	MessageThreadID int          `json:"message_thread_id,omitempty"`
	ReplyMarkup     *replyMarkup `json:"reply_markup,omitempty"`
}

type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
}

// PublishArticle sends the HTML announcement with a read-more button when the
// record has a link.
func (n *Notifier) PublishArticle(ctx context.Context, record domain.LedgerRecord) error {
	if err := n.check(); err != nil {
		return err
	}

	payload := sendMessageRequest{
		ChatID:          n.chatID,
		Text:            RenderArticle(record, n.labels),
		ParseMode:       "HTML",
		MessageThreadID: n.threadID,
	}
	if link := strings.TrimSpace(record.Link); link != "" {
		payload.ReplyMarkup = &replyMarkup{
			InlineKeyboard: [][]inlineButton{{{Text: n.labels.ReadMore, URL: link}}},
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	if err := n.call(ctx, "sendMessage", "application/json", body); err != nil {
		return fmt.Errorf("publish %s: %w", record.Fingerprint, err)
	}
	n.debug("article published", "fingerprint", record.Fingerprint.String())
	return nil
}

// PublishDocument uploads the file at path with a caption.
func (n *Notifier) PublishDocument(ctx context.Context, path, caption string) error {
	if err := n.check(); err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open document: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := map[string]string{"chat_id": n.chatID}
	if caption != "" {
		fields["caption"] = caption
	}
	if n.threadID != 0 {
		fields["message_thread_id"] = strconv.Itoa(n.threadID)
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return fmt.Errorf("write field %s: %w", k, err)
		}
	}
	part, err := mw.CreateFormFile("document", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("copy document: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}

	if err := n.call(ctx, "sendDocument", mw.FormDataContentType(), buf.Bytes()); err != nil {
		return fmt.Errorf("publish document %s: %w", filepath.Base(path), err)
	}
	n.debug("document published", "path", path)
	return nil
}

func (n *Notifier) check() error {
	if n == nil || n.botToken == "" || n.chatID == "" || n.client == nil {
		return fmt.Errorf("telegram notifier misconfigured")
	}
	return nil
}

func (n *Notifier) call(ctx context.Context, method, contentType string, body []byte) error {
	if n.limiter != nil {
		if err := n.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	endpoint := fmt.Sprintf("%s/bot%s/%s", n.apiBase, n.botToken, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := n.client.Do(req)
	if err != nil {
		// the URL carries the bot token
		return fmt.Errorf("do request %s: %w", method, redact(err, n.botToken))
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	var decoded apiResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("telegram error: %s", resp.Status)
	}
	if !decoded.OK {
		return fmt.Errorf("telegram error %s: %s", resp.Status, decoded.Description)
	}
	return nil
}

func redact(err error, token string) error {
	if token == "" {
		return err
	}
	return fmt.Errorf("%s", strings.ReplaceAll(err.Error(), token, "<token>"))
}

func (n *Notifier) debug(msg string, args ...interface{}) {
	if n.logger != nil {
		n.logger.Debug(msg, args...)
	}
}
