package ports

import (
	"context"

	"ArticleRelay/internal/domain"
)

// FeedReader pulls the current window of entries from the publisher feed.
type FeedReader interface {
	Fetch(ctx context.Context) ([]domain.FeedEntry, error)
}

// Ledger is the durable record of processed fingerprints.
type Ledger interface {
	Exists(ctx context.Context, fp domain.Fingerprint) (bool, error)
	InsertIfAbsent(ctx context.Context, record domain.LedgerRecord) error
	ExportAll(ctx context.Context) ([]domain.LedgerRecord, error)
}

// PageFetcher retrieves raw landing-page markup.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// AbstractExtractor turns landing-page markup into plain abstract text.
type AbstractExtractor interface {
	Extract(markup string) string
}

// Translator converts titles and abstracts into the target language.
type Translator interface {
	TranslateTitle(ctx context.Context, text string) (string, error)
	TranslateAbstract(ctx context.Context, text string) (string, error)
}

// Publisher delivers announcements and export files to the channel.
type Publisher interface {
	PublishArticle(ctx context.Context, record domain.LedgerRecord) error
	PublishDocument(ctx context.Context, path, caption string) error
}

// Scheduler runs named jobs on cron expressions without overlapping them.
type Scheduler interface {
	Schedule(name, spec string, job func(context.Context)) error
	RunNow(ctx context.Context, name string) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}
