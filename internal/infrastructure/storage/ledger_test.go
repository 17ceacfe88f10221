package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ArticleRelay/internal/domain"
)

func openTestLedger(t *testing.T) *Ledger {
	t.Helper()

	ledger, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "ledger.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = ledger.Close() })
	return ledger
}

func record(title, link string) domain.LedgerRecord {
	return domain.LedgerRecord{
		Fingerprint:        domain.NewFingerprint(title, link),
		TranslatedTitle:    "Перевод " + title,
		TranslatedAbstract: "Аннотация " + title,
		Authors:            "A. Author",
		PublishedDate:      "May 2025",
		Link:               link,
	}
}

func TestLedgerExistsBeforeAndAfterInsert(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ledger := openTestLedger(t)
	rec := record("Study X", "https://example.org/x")

	exists, err := ledger.Exists(ctx, rec.Fingerprint)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, ledger.InsertIfAbsent(ctx, rec))

	exists, err = ledger.Exists(ctx, rec.Fingerprint)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLedgerFirstWriteWins(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ledger := openTestLedger(t)

	first := record("Study X", "https://example.org/x")
	second := first
	second.TranslatedTitle = "Другой перевод"
	second.TranslatedAbstract = "Другая аннотация"

	require.NoError(t, ledger.InsertIfAbsent(ctx, first))
	require.NoError(t, ledger.InsertIfAbsent(ctx, second))

	records, err := ledger.ExportAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, first, records[0])
}

func TestLedgerExportAllKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	ledger := openTestLedger(t)

	// fingerprints sort differently from insertion order
	recs := []domain.LedgerRecord{
		record("Zeta", "https://example.org/z"),
		record("Alpha", "https://example.org/a"),
		record("Mu", "https://example.org/m"),
	}
	for _, rec := range recs {
		require.NoError(t, ledger.InsertIfAbsent(ctx, rec))
	}

	got, err := ledger.ExportAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, recs, got)
}

func TestLedgerExportAllEmpty(t *testing.T) {
	t.Parallel()

	records, err := openTestLedger(t).ExportAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestLedgerSchemaSurvivesReopen(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ledger.sqlite")
	rec := record("Study X", "https://example.org/x")

	first, err := Open(DriverSQLite, path)
	require.NoError(t, err)
	require.NoError(t, first.InsertIfAbsent(ctx, rec))
	require.NoError(t, first.Close())

	second, err := Open(DriverSQLite, path)
	require.NoError(t, err)
	defer second.Close()

	exists, err := second.Exists(ctx, rec.Fingerprint)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLedgerStorageFailuresPropagate(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rec := record("Study X", "https://example.org/x")

	unreachable, err := Open(DriverSQLite, filepath.Join(t.TempDir(), "missing-dir", "ledger.sqlite"))
	require.NoError(t, err)
	defer unreachable.Close()

	_, err = unreachable.Exists(ctx, rec.Fingerprint)
	assert.Error(t, err)
	assert.Error(t, unreachable.InsertIfAbsent(ctx, rec))

	closed := openTestLedger(t)
	_, err = closed.Exists(ctx, rec.Fingerprint)
	require.NoError(t, err)
	require.NoError(t, closed.Close())

	_, err = closed.Exists(ctx, rec.Fingerprint)
	assert.Error(t, err)
	assert.Error(t, closed.InsertIfAbsent(ctx, rec))
	_, err = closed.ExportAll(ctx)
	assert.Error(t, err)
}

func TestOpenRejectsUnknownDriver(t *testing.T) {
	t.Parallel()

	_, err := Open("mysql", "whatever")
	assert.ErrorContains(t, err, "unsupported ledger driver")
}

func TestPostgresStatements(t *testing.T) {
	t.Parallel()

	ledger, err := NewLedger(nil, DriverPostgres)
	require.NoError(t, err)

	query, args, err := ledger.builder.
		Insert(articlesTable).
		Columns(ledgerColumns...).
		Values("h", "t", "a", "au", "d", "u").
		Suffix("ON CONFLICT (hash) DO NOTHING").
		ToSql()
	require.NoError(t, err)
	assert.Equal(t,
		"INSERT INTO articles (hash,title_ru,annotation_ru,authors,published_date,url) VALUES ($1,$2,$3,$4,$5,$6) ON CONFLICT (hash) DO NOTHING",
		query)
	assert.Len(t, args, 6)

	_, err = ledger.Exists(context.Background(), "h")
	assert.ErrorContains(t, err, "not configured")
}
