package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"ArticleRelay/internal/domain"
	"ArticleRelay/internal/ports"
)

const articlesTable = "articles"

// Supported drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

var ledgerColumns = []string{"hash", "title_ru", "annotation_ru", "authors", "published_date", "url"}

type dialect struct {
	schema      string
	orderBy     string
	placeholder sq.PlaceholderFormat
}

var dialects = map[string]dialect{
	DriverSQLite: {
		schema: `CREATE TABLE IF NOT EXISTS articles (
			hash TEXT PRIMARY KEY,
			title_ru TEXT,
			annotation_ru TEXT,
			authors TEXT,
			published_date TEXT,
			url TEXT
		)`,
		orderBy:     "rowid",
		placeholder: sq.Question,
	},
	DriverPostgres: {
		schema: `CREATE TABLE IF NOT EXISTS articles (
			seq BIGSERIAL,
			hash TEXT PRIMARY KEY,
			title_ru TEXT,
			annotation_ru TEXT,
			authors TEXT,
			published_date TEXT,
			url TEXT
		)`,
		orderBy:     "seq",
		placeholder: sq.Dollar,
	},
}

// Ledger persists processed articles, one row per fingerprint.
type Ledger struct {
	db      *sql.DB
	dialect dialect
	builder sq.StatementBuilderType

	schemaMu    sync.Mutex
	schemaReady bool
}

var _ ports.Ledger = (*Ledger)(nil)

// Open connects to the ledger database. The schema is created lazily on first use.
func Open(driver, dsn string) (*Ledger, error) {
	if _, ok := dialects[driver]; !ok {
		return nil, fmt.Errorf("unsupported ledger driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s ledger: %w", driver, err)
	}
	if driver == DriverSQLite {
		// SQLite doesn't support concurrent writes
		db.SetMaxOpenConns(1)
	}

	ledger, err := NewLedger(db, driver)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return ledger, nil
}

// NewLedger wraps an existing connection for the given driver.
func NewLedger(db *sql.DB, driver string) (*Ledger, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported ledger driver %q", driver)
	}
	return &Ledger{
		db:      db,
		dialect: d,
		builder: sq.StatementBuilder.PlaceholderFormat(d.placeholder),
	}, nil
}

// Close releases the underlying connection pool.
func (l *Ledger) Close() error {
	if l.db == nil {
		return nil
	}
	return l.db.Close()
}

// Exists reports whether a record with this fingerprint is already stored.
func (l *Ledger) Exists(ctx context.Context, fp domain.Fingerprint) (bool, error) {
	if err := l.ensureSchema(ctx); err != nil {
		return false, err
	}

	query, args, err := l.builder.
		Select("1").
		From(articlesTable).
		Where(sq.Eq{"hash": fp.String()}).
		Limit(1).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}

	var one int
	err = l.db.QueryRowContext(ctx, query, args...).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query fingerprint %s: %w", fp, err)
	}
	return true, nil
}

// InsertIfAbsent stores the record unless its fingerprint is present; the
// conflict case is a silent no-op and never updates the stored row.
func (l *Ledger) InsertIfAbsent(ctx context.Context, record domain.LedgerRecord) error {
	if err := l.ensureSchema(ctx); err != nil {
		return err
	}

	query, args, err := l.builder.
		Insert(articlesTable).
		Columns(ledgerColumns...).
		Values(
			record.Fingerprint.String(),
			record.TranslatedTitle,
			record.TranslatedAbstract,
			record.Authors,
			record.PublishedDate,
			record.Link,
		).
		Suffix("ON CONFLICT (hash) DO NOTHING").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := l.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert fingerprint %s: %w", record.Fingerprint, err)
	}
	return nil
}

// ExportAll returns every record in storage order.
func (l *Ledger) ExportAll(ctx context.Context) ([]domain.LedgerRecord, error) {
	if err := l.ensureSchema(ctx); err != nil {
		return nil, err
	}

	query, args, err := l.builder.
		Select(ledgerColumns...).
		From(articlesTable).
		OrderBy(l.dialect.orderBy).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build export query: %w", err)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query ledger: %w", err)
	}
	defer rows.Close()

	var records []domain.LedgerRecord
	for rows.Next() {
		var (
			rec                                  domain.LedgerRecord
			hash                                 string
			title, abstract, authors, date, link sql.NullString
		)
		if err := rows.Scan(&hash, &title, &abstract, &authors, &date, &link); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Fingerprint = domain.Fingerprint(hash)
		rec.TranslatedTitle = title.String
		rec.TranslatedAbstract = abstract.String
		rec.Authors = authors.String
		rec.PublishedDate = date.String
		rec.Link = link.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	return records, nil
}

// ensureSchema creates the table on first use. A failed attempt is retried
// by the next call.
func (l *Ledger) ensureSchema(ctx context.Context) error {
	if l.db == nil {
		return fmt.Errorf("ledger database is not configured")
	}

	l.schemaMu.Lock()
	defer l.schemaMu.Unlock()

	if l.schemaReady {
		return nil
	}
	if _, err := l.db.ExecContext(ctx, l.dialect.schema); err != nil {
		return fmt.Errorf("create ledger schema: %w", err)
	}
	l.schemaReady = true
	return nil
}
