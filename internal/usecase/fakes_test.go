package usecase

import (
	"context"
	"errors"
	"sync"

	"ArticleRelay/internal/domain"
)

type fakeFeed struct {
	entries []domain.FeedEntry
	err     error
	calls   int
}

func (f *fakeFeed) Fetch(context.Context) ([]domain.FeedEntry, error) {
	f.calls++
	return f.entries, f.err
}

// memLedger keeps records in insertion order and can fail per fingerprint.
type memLedger struct {
	mu        sync.Mutex
	records   []domain.LedgerRecord
	failOn    map[domain.Fingerprint]error
	exportErr error
}

func newMemLedger() *memLedger {
	return &memLedger{failOn: map[domain.Fingerprint]error{}}
}

func (l *memLedger) Exists(_ context.Context, fp domain.Fingerprint) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.failOn[fp]; err != nil {
		return false, err
	}
	for _, rec := range l.records {
		if rec.Fingerprint == fp {
			return true, nil
		}
	}
	return false, nil
}

func (l *memLedger) InsertIfAbsent(_ context.Context, record domain.LedgerRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, rec := range l.records {
		if rec.Fingerprint == record.Fingerprint {
			return nil
		}
	}
	l.records = append(l.records, record)
	return nil
}

func (l *memLedger) ExportAll(context.Context) ([]domain.LedgerRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.exportErr != nil {
		return nil, l.exportErr
	}
	return append([]domain.LedgerRecord(nil), l.records...), nil
}

type fakeFetcher struct {
	pages    map[string]string
	calls    int
	panicsOn string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (string, error) {
	f.calls++
	if url != "" && url == f.panicsOn {
		panic("nil pointer dereference in page parser")
	}
	page, ok := f.pages[url]
	if !ok {
		return "", errors.New("page returned 404 Not Found")
	}
	return page, nil
}

// fakeTranslator prefixes input; sentinels map to placeholders like the real one.
type fakeTranslator struct {
	calls int
	err   error
	reply func(string) string
}

func (t *fakeTranslator) TranslateTitle(_ context.Context, text string) (string, error) {
	if text == "" || text == domain.NoTitle {
		return "Нет заголовка", nil
	}
	return t.do(text)
}

func (t *fakeTranslator) TranslateAbstract(_ context.Context, text string) (string, error) {
	if text == "" || text == domain.AbstractNotFound {
		return "Аннотация не найдена.", nil
	}
	return t.do(text)
}

func (t *fakeTranslator) do(text string) (string, error) {
	t.calls++
	if t.err != nil {
		return "", t.err
	}
	if t.reply != nil {
		return t.reply(text), nil
	}
	return "Перевод " + text, nil
}

type sentDocument struct {
	path    string
	caption string
	content []byte
}

type fakePublisher struct {
	articles []domain.LedgerRecord
	docs     []sentDocument
	err      error
	panics   bool
	readFile func(string) ([]byte, error)
}

func (p *fakePublisher) PublishArticle(_ context.Context, record domain.LedgerRecord) error {
	if p.panics {
		panic("send on closed channel")
	}
	p.articles = append(p.articles, record)
	return p.err
}

func (p *fakePublisher) PublishDocument(_ context.Context, path, caption string) error {
	doc := sentDocument{path: path, caption: caption}
	if p.readFile != nil {
		doc.content, _ = p.readFile(path)
	}
	p.docs = append(p.docs, doc)
	return p.err
}
