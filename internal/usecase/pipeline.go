package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"ArticleRelay/internal/domain"
	"ArticleRelay/internal/observability"
	"ArticleRelay/internal/ports"
)

var (
	errNoLink           = errors.New("entry has no link")
	errAbstractNotFound = errors.New("no abstract container matched")
)

// PipelineDeps wires all driven adapters into the orchestration pipeline.
type PipelineDeps struct {
	Feed       ports.FeedReader
	Ledger     ports.Ledger
	Fetcher    ports.PageFetcher
	Extractor  ports.AbstractExtractor
	Translator ports.Translator
	Publisher  ports.Publisher
	Metrics    *observability.Metrics
	Logger     *slog.Logger
}

// Pipeline implements the poll workflow: fetch, deduplicate, enrich,
// translate, persist and publish, with failures contained per entry.
type Pipeline struct {
	feed       ports.FeedReader
	ledger     ports.Ledger
	fetcher    ports.PageFetcher
	extractor  ports.AbstractExtractor
	translator ports.Translator
	publisher  ports.Publisher
	metrics    *observability.Metrics
	logger     *slog.Logger
	now        func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	log := deps.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Pipeline{
		feed:       deps.Feed,
		ledger:     deps.Ledger,
		fetcher:    deps.Fetcher,
		extractor:  deps.Extractor,
		translator: deps.Translator,
		publisher:  deps.Publisher,
		metrics:    deps.Metrics,
		logger:     log,
		now:        time.Now,
	}
}

// Run executes one poll. A feed failure aborts the poll before any state
// changes. Ledger failures fail only their entry; they are joined into the
// returned error once every entry has been attempted.
func (p *Pipeline) Run(ctx context.Context) (domain.RunReport, error) {
	report := domain.RunReport{RunID: uuid.NewString(), StartedAt: p.now()}
	log := p.logger.With("run_id", report.RunID)

	if p.feed == nil || p.ledger == nil {
		return report, fmt.Errorf("pipeline misconfigured")
	}

	entries, err := p.feed.Fetch(ctx)
	if err != nil {
		p.metrics.RecordFailure(domain.Failed(domain.FailureSource, err))
		log.Error("poll aborted", "error", err)
		report.FinishedAt = p.now()
		return report, fmt.Errorf("fetch feed: %w", err)
	}
	p.metrics.RecordFetched(len(entries))

	if len(entries) == 0 {
		log.Warn("feed returned no entries")
		report.FinishedAt = p.now()
		return report, nil
	}

	var errs []error
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		item, err := p.processEntry(ctx, log, entry)
		report.Items = append(report.Items, item)
		if err != nil {
			errs = append(errs, err)
		}
	}

	report.FinishedAt = p.now()
	log.Info("poll finished",
		"entries", len(entries),
		"skipped", report.Count(domain.StateSkipped),
		"published", report.Count(domain.StatePublished),
		"unpublished", report.Count(domain.StatePersisted),
		"failed", report.Count(domain.StateFailed),
		"elapsed", report.FinishedAt.Sub(report.StartedAt),
	)
	return report, errors.Join(errs...)
}

func (p *Pipeline) processEntry(ctx context.Context, log *slog.Logger, entry domain.FeedEntry) (item domain.ItemResult, err error) {
	article := domain.Article{
		Entry:       entry,
		Fingerprint: domain.EntryFingerprint(entry),
	}
	item = domain.ItemResult{
		Fingerprint: article.Fingerprint,
		Title:       entry.Title,
		State:       domain.StateFingerprinted,
	}
	log = log.With("fingerprint", article.Fingerprint.String())
	defer func() {
		if r := recover(); r != nil {
			item, err = p.recovered(log, item, r)
		}
	}()

	exists, err := p.ledger.Exists(ctx, article.Fingerprint)
	if err != nil {
		return p.fail(log, item, domain.Failed(domain.FailurePersistence, err))
	}
	if exists {
		item.State = domain.StateSkipped
		p.metrics.RecordSkipped()
		log.Debug("entry already processed", "title", entry.Title)
		return item, nil
	}

	item.State = domain.StateEnriching
	abstract, outcome := p.enrich(ctx, entry.Link)
	item = p.degrade(log, item, outcome)
	article.Abstract = abstract

	item.State = domain.StateTranslating
	article.TranslatedTitle, outcome = p.translate(ctx, p.translatorTitle, entry.Title)
	item = p.degrade(log, item, outcome)
	article.TranslatedAbstract, outcome = p.translate(ctx, p.translatorAbstract, article.Abstract)
	item = p.degrade(log, item, outcome)

	record := article.Record()
	if err := p.ledger.InsertIfAbsent(ctx, record); err != nil {
		return p.fail(log, item, domain.Failed(domain.FailurePersistence, err))
	}
	item.State = domain.StatePersisted
	p.metrics.RecordPersisted()

	if outcome := p.publish(ctx, record); !outcome.OK() {
		// the record stays persisted so the entry is never announced twice
		item.Failures = append(item.Failures, outcome)
		p.metrics.RecordFailure(outcome)
		log.Error("publish failed", "error", outcome.Err)
		return item, nil
	}
	item.State = domain.StatePublished
	p.metrics.RecordPublished()
	log.Info("article published", "title", entry.Title)
	return item, nil
}

// enrich degrades to domain.AbstractNotFound on any failure.
func (p *Pipeline) enrich(ctx context.Context, link string) (string, domain.Outcome) {
	if link == "" {
		return domain.AbstractNotFound, domain.Failed(domain.FailureEnrichment, errNoLink)
	}
	if p.fetcher == nil || p.extractor == nil {
		return domain.AbstractNotFound, domain.Failed(domain.FailureEnrichment, fmt.Errorf("enricher not configured"))
	}

	markup, err := p.fetcher.Fetch(ctx, link)
	if err != nil {
		return domain.AbstractNotFound, domain.Failed(domain.FailureEnrichment, err)
	}

	abstract := p.extractor.Extract(markup)
	if abstract == domain.AbstractNotFound {
		return abstract, domain.Failed(domain.FailureEnrichment, errAbstractNotFound)
	}
	return abstract, domain.Succeeded()
}

type translateFunc func(ctx context.Context, text string) (string, error)

func (p *Pipeline) translatorTitle(ctx context.Context, text string) (string, error) {
	return p.translator.TranslateTitle(ctx, text)
}

func (p *Pipeline) translatorAbstract(ctx context.Context, text string) (string, error) {
	return p.translator.TranslateAbstract(ctx, text)
}

// translate degrades to the original text when the service fails.
func (p *Pipeline) translate(ctx context.Context, fn translateFunc, text string) (string, domain.Outcome) {
	if p.translator == nil {
		return StripMarkup(text), domain.Failed(domain.FailureTranslation, fmt.Errorf("translator not configured"))
	}
	out, err := fn(ctx, text)
	if err != nil {
		return StripMarkup(text), domain.Failed(domain.FailureTranslation, err)
	}
	return StripMarkup(out), domain.Succeeded()
}

func (p *Pipeline) publish(ctx context.Context, record domain.LedgerRecord) domain.Outcome {
	if p.publisher == nil {
		return domain.Failed(domain.FailureDelivery, fmt.Errorf("publisher not configured"))
	}
	return domain.Failed(domain.FailureDelivery, p.publisher.PublishArticle(ctx, record))
}

func (p *Pipeline) degrade(log *slog.Logger, item domain.ItemResult, outcome domain.Outcome) domain.ItemResult {
	if outcome.OK() {
		return item
	}
	item.Failures = append(item.Failures, outcome)
	p.metrics.RecordFailure(outcome)
	log.Warn("step degraded", "kind", outcome.Kind, "error", outcome.Err)
	return item
}

func (p *Pipeline) fail(log *slog.Logger, item domain.ItemResult, outcome domain.Outcome) (domain.ItemResult, error) {
	item.State = domain.StateFailed
	item.Failures = append(item.Failures, outcome)
	p.metrics.RecordFailure(outcome)
	log.Error("entry failed", "kind", outcome.Kind, "error", outcome.Err)
	return item, fmt.Errorf("entry %s: %w", item.Fingerprint, outcome.Err)
}

// recovered turns a panic raised by an adapter into a result for its entry so
// the remaining entries of the poll still run. Once the record is persisted
// only delivery can have panicked, which is treated like any publish failure.
func (p *Pipeline) recovered(log *slog.Logger, item domain.ItemResult, r any) (domain.ItemResult, error) {
	panicErr := fmt.Errorf("panic: %v", r)
	if item.State == domain.StatePersisted {
		outcome := domain.Failed(domain.FailureDelivery, panicErr)
		item.Failures = append(item.Failures, outcome)
		p.metrics.RecordFailure(outcome)
		log.Error("publish failed", "error", panicErr)
		return item, nil
	}
	return p.fail(log, item, domain.Failed(domain.FailureInternal, panicErr))
}
