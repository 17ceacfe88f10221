package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone = "UTC"

	configPathEnv     = "ARTICLE_RELAY_CONFIG"
	databaseDriverEnv = "DATABASE_DRIVER"
	databaseDSNEnv    = "DATABASE_DSN"
	feedURLEnv        = "FEED_URL"
	logLevelEnv       = "LOG_LEVEL"
	openAIAPIKeyEnv   = "OPENAI_API_KEY"
	chatGPTModelEnv   = "CHATGPT_MODEL"
	telegramTokenEnv  = "TELEGRAM_BOT_TOKEN"
	telegramChatIDEnv = "TELEGRAM_CHANNEL_ID"
	telegramThreadEnv = "TELEGRAM_THREAD_ID"
)

// Config holds every setting the relay needs; it is built once at startup.
type Config struct {
	Logging       LoggingConfig      `yaml:"logging"`
	Feed          FeedConfig         `yaml:"feed"`
	Page          PageConfig         `yaml:"page"`
	Database      DatabaseConfig     `yaml:"database"`
	ChatGPT       ChatGPTConfig      `yaml:"chatgpt"`
	Translation   TranslationConfig  `yaml:"translation"`
	Notifications NotificationConfig `yaml:"notifications"`
	Scheduler     SchedulerConfig    `yaml:"scheduler"`
	Export        ExportConfig       `yaml:"export"`
	Metrics       MetricsConfig      `yaml:"metrics"`
}

// LoggingConfig selects slog level and handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// FeedConfig points at the publisher RSS feed.
type FeedConfig struct {
	URL       string        `yaml:"url"`
	UserAgent string        `yaml:"userAgent"`
	Timeout   time.Duration `yaml:"timeout"`
	// MaxEntries caps the window taken from the feed; 0 takes everything.
	MaxEntries     int    `yaml:"maxEntries"`
	UnknownDate    string `yaml:"unknownDate"`
	UnknownAuthors string `yaml:"unknownAuthors"`
}

// PageConfig controls landing-page requests.
type PageConfig struct {
	UserAgent      string        `yaml:"userAgent"`
	Referer        string        `yaml:"referer"`
	AcceptLanguage string        `yaml:"acceptLanguage"`
	Timeout        time.Duration `yaml:"timeout"`
}

// DatabaseConfig describes the ledger backend: "sqlite" (file path DSN) or "postgres".
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

// ChatGPTConfig defines how to contact the chat completions API.
type ChatGPTConfig struct {
	Endpoint            string        `yaml:"endpoint"`
	Model               string        `yaml:"model"`
	APIKey              string        `yaml:"apiKey"`
	Timeout             time.Duration `yaml:"timeout"`
	TitleTemperature    *float64      `yaml:"titleTemperature"`
	AbstractTemperature *float64      `yaml:"abstractTemperature"`
	TitlePrompt         string        `yaml:"titlePrompt"`
	AbstractPrompt      string        `yaml:"abstractPrompt"`
}

const (
	defaultTitleTemperature    = 0.0
	defaultAbstractTemperature = 0.3
)

// TitleTemp is the sampling temperature for titles. An explicit 0 is kept.
func (c ChatGPTConfig) TitleTemp() float64 {
	if c.TitleTemperature == nil {
		return defaultTitleTemperature
	}
	return *c.TitleTemperature
}

// AbstractTemp is the sampling temperature for abstracts. An explicit 0 is kept.
func (c ChatGPTConfig) AbstractTemp() float64 {
	if c.AbstractTemperature == nil {
		return defaultAbstractTemperature
	}
	return *c.AbstractTemperature
}

// TranslationConfig fixes the target language and the placeholders used
// when there is nothing to translate.
type TranslationConfig struct {
	Language            string `yaml:"language"`
	TitlePlaceholder    string `yaml:"titlePlaceholder"`
	AbstractPlaceholder string `yaml:"abstractPlaceholder"`
}

// NotificationConfig encapsulates outbound channels.
type NotificationConfig struct {
	Telegram TelegramConfig `yaml:"telegram"`
}

// TelegramConfig wires all data required to send messages.
type TelegramConfig struct {
	APIBase  string `yaml:"apiBase"`
	BotToken string `yaml:"botToken"`
	ChatID   string `yaml:"chatId"`
	// ThreadID targets a forum topic; 0 posts to the main channel.
	ThreadID    int            `yaml:"threadId"`
	MinInterval time.Duration  `yaml:"minInterval"`
	Labels      TelegramLabels `yaml:"labels"`
}

// TelegramLabels are the localized strings of the announcement layout.
type TelegramLabels struct {
	PublicationDate string `yaml:"publicationDate"`
	Authors         string `yaml:"authors"`
	ReadMore        string `yaml:"readMore"`
}

// SchedulerConfig defines when the poll and export jobs run.
type SchedulerConfig struct {
	PollExpression   string         `yaml:"pollExpression"`
	ExportExpression string         `yaml:"exportExpression"`
	Timezone         string         `yaml:"timezone"`
	RunOnStart       *bool          `yaml:"runOnStart"`
	location         *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// PollOnStart reports whether a poll runs immediately when the scheduler starts.
func (s SchedulerConfig) PollOnStart() bool {
	return s.RunOnStart == nil || *s.RunOnStart
}

// ExportConfig controls the weekly CSV snapshot.
type ExportConfig struct {
	Path    string `yaml:"path"`
	Caption string `yaml:"caption"`
}

// MetricsConfig exposes Prometheus metrics when Listen is set (e.g. ":9090").
type MetricsConfig struct {
	Listen string `yaml:"listen"`
}

// Load reads .env and YAML configuration (if present) and applies environment overrides.
func Load(path string) Config {
	_ = godotenv.Load()

	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezone()

	return cfg
}

// Validate reports settings without which the relay cannot do its job.
func (c Config) Validate() error {
	var errs []error
	if c.Feed.URL == "" {
		errs = append(errs, errors.New("feed url is required"))
	}
	if c.Database.DSN == "" {
		errs = append(errs, errors.New("database dsn is required"))
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		errs = append(errs, errors.New("database driver must be sqlite or postgres"))
	}
	if c.Notifications.Telegram.BotToken == "" {
		errs = append(errs, errors.New("telegram bot token is required"))
	}
	if c.Notifications.Telegram.ChatID == "" {
		errs = append(errs, errors.New("telegram chat id is required"))
	}
	return errors.Join(errs...)
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(feedURLEnv); v != "" {
		c.Feed.URL = v
	}

	if v := os.Getenv(logLevelEnv); v != "" {
		c.Logging.Level = v
	}

	if v := os.Getenv(databaseDriverEnv); v != "" {
		c.Database.Driver = v
	}

	if v := os.Getenv(databaseDSNEnv); v != "" {
		c.Database.DSN = v
	}

	if v := os.Getenv(telegramTokenEnv); v != "" {
		c.Notifications.Telegram.BotToken = v
	}

	if v := os.Getenv(telegramChatIDEnv); v != "" {
		c.Notifications.Telegram.ChatID = v
	}

	if v := os.Getenv(telegramThreadEnv); v != "" {
		if id, err := strconv.Atoi(v); err == nil {
			c.Notifications.Telegram.ThreadID = id
		} else {
			log.Printf("config: ignoring non-numeric %s=%q", telegramThreadEnv, v)
		}
	}

	if v := os.Getenv(openAIAPIKeyEnv); v != "" {
		c.ChatGPT.APIKey = v
	}

	if v := os.Getenv(chatGPTModelEnv); v != "" {
		c.ChatGPT.Model = v
	}
}

func (c *Config) bindTimezone() {
	tz := c.Scheduler.Timezone
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	c.Scheduler.location = loc
}

func mergeConfig(base, override Config) Config {
	overrideString(&base.Logging.Level, override.Logging.Level)
	overrideString(&base.Logging.Format, override.Logging.Format)

	overrideString(&base.Feed.URL, override.Feed.URL)
	overrideString(&base.Feed.UserAgent, override.Feed.UserAgent)
	overrideDuration(&base.Feed.Timeout, override.Feed.Timeout)
	if override.Feed.MaxEntries > 0 {
		base.Feed.MaxEntries = override.Feed.MaxEntries
	}
	overrideString(&base.Feed.UnknownDate, override.Feed.UnknownDate)
	overrideString(&base.Feed.UnknownAuthors, override.Feed.UnknownAuthors)

	overrideString(&base.Page.UserAgent, override.Page.UserAgent)
	overrideString(&base.Page.Referer, override.Page.Referer)
	overrideString(&base.Page.AcceptLanguage, override.Page.AcceptLanguage)
	overrideDuration(&base.Page.Timeout, override.Page.Timeout)

	if override.Database.DSN != "" {
		base.Database.DSN = override.Database.DSN
		if override.Database.Driver != "" {
			base.Database.Driver = override.Database.Driver
		}
	}

	overrideString(&base.ChatGPT.Endpoint, override.ChatGPT.Endpoint)
	overrideString(&base.ChatGPT.Model, override.ChatGPT.Model)
	overrideString(&base.ChatGPT.APIKey, override.ChatGPT.APIKey)
	overrideDuration(&base.ChatGPT.Timeout, override.ChatGPT.Timeout)
	if override.ChatGPT.TitleTemperature != nil {
		base.ChatGPT.TitleTemperature = override.ChatGPT.TitleTemperature
	}
	if override.ChatGPT.AbstractTemperature != nil {
		base.ChatGPT.AbstractTemperature = override.ChatGPT.AbstractTemperature
	}
	overrideString(&base.ChatGPT.TitlePrompt, override.ChatGPT.TitlePrompt)
	overrideString(&base.ChatGPT.AbstractPrompt, override.ChatGPT.AbstractPrompt)

	overrideString(&base.Translation.Language, override.Translation.Language)
	overrideString(&base.Translation.TitlePlaceholder, override.Translation.TitlePlaceholder)
	overrideString(&base.Translation.AbstractPlaceholder, override.Translation.AbstractPlaceholder)

	tg := override.Notifications.Telegram
	overrideString(&base.Notifications.Telegram.APIBase, tg.APIBase)
	overrideString(&base.Notifications.Telegram.BotToken, tg.BotToken)
	overrideString(&base.Notifications.Telegram.ChatID, tg.ChatID)
	if tg.ThreadID != 0 {
		base.Notifications.Telegram.ThreadID = tg.ThreadID
	}
	overrideDuration(&base.Notifications.Telegram.MinInterval, tg.MinInterval)
	overrideString(&base.Notifications.Telegram.Labels.PublicationDate, tg.Labels.PublicationDate)
	overrideString(&base.Notifications.Telegram.Labels.Authors, tg.Labels.Authors)
	overrideString(&base.Notifications.Telegram.Labels.ReadMore, tg.Labels.ReadMore)

	overrideString(&base.Scheduler.PollExpression, override.Scheduler.PollExpression)
	overrideString(&base.Scheduler.ExportExpression, override.Scheduler.ExportExpression)
	overrideString(&base.Scheduler.Timezone, override.Scheduler.Timezone)
	if override.Scheduler.RunOnStart != nil {
		base.Scheduler.RunOnStart = override.Scheduler.RunOnStart
	}

	overrideString(&base.Export.Path, override.Export.Path)
	overrideString(&base.Export.Caption, override.Export.Caption)

	overrideString(&base.Metrics.Listen, override.Metrics.Listen)

	return base
}

func overrideString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func overrideDuration(dst *time.Duration, v time.Duration) {
	if v > 0 {
		*dst = v
	}
}

func defaultConfig() Config {
	tz, _ := time.LoadLocation(defaultTimezone)
	const browserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
		"(KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36"

	return Config{
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Feed: FeedConfig{
			URL:            "https://rss.sciencedirect.com/publication/science/03603199",
			UserAgent:      "ArticleRelay/1.0",
			Timeout:        20 * time.Second,
			UnknownDate:    "Неизвестно",
			UnknownAuthors: "Неизвестны",
		},
		Page: PageConfig{
			UserAgent:      browserAgent,
			Referer:        "https://www.sciencedirect.com/",
			AcceptLanguage: "en-US,en;q=0.9",
			Timeout:        10 * time.Second,
		},
		Database: DatabaseConfig{Driver: "sqlite", DSN: "articles.sqlite"},
		ChatGPT: ChatGPTConfig{
			Endpoint: "https://api.openai.com/v1/chat/completions",
			Model:    "gpt-4o",
			Timeout:  60 * time.Second,
		},
		Translation: TranslationConfig{
			Language:            "Russian",
			TitlePlaceholder:    "Нет заголовка",
			AbstractPlaceholder: "Аннотация не найдена.",
		},
		Notifications: NotificationConfig{
			Telegram: TelegramConfig{
				APIBase:     "https://api.telegram.org",
				MinInterval: 3 * time.Second,
				Labels: TelegramLabels{
					PublicationDate: "Дата публикации",
					Authors:         "Автор(ы)",
					ReadMore:        "Читать далее",
				},
			},
		},
		Scheduler: SchedulerConfig{
			PollExpression:   "@every 1m",
			ExportExpression: "0 17 * * 6",
			Timezone:         defaultTimezone,
			location:         tz,
		},
		Export: ExportConfig{
			Path:    "articles.csv",
			Caption: "Свод публикаций (CSV)",
		},
	}
}
