package usecase

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"ArticleRelay/internal/domain"
	"ArticleRelay/internal/ports"
)

// utf8BOM lets spreadsheet tools detect the encoding.
const utf8BOM = "\ufeff"

// ExportHeader is the first row of every export file.
var ExportHeader = []string{
	"FingerprintID",
	"TranslatedTitle",
	"TranslatedAbstract",
	"Authors",
	"PublicationDate",
	"SourceLink",
}

// Exporter snapshots the whole ledger into a CSV file and delivers it.
type Exporter struct {
	ledger    ports.Ledger
	publisher ports.Publisher
	path      string
	caption   string
	logger    *slog.Logger
}

// NewExporter wires the ledger, the delivery channel and the target file.
func NewExporter(ledger ports.Ledger, publisher ports.Publisher, path, caption string, log *slog.Logger) *Exporter {
	if log == nil {
		log = slog.Default()
	}
	return &Exporter{
		ledger:    ledger,
		publisher: publisher,
		path:      path,
		caption:   caption,
		logger:    log,
	}
}

// Export writes every ledger record, in ledger order, and hands the file to
// the publisher once. It returns the number of data rows.
func (e *Exporter) Export(ctx context.Context) (int, error) {
	if e.ledger == nil || e.publisher == nil || e.path == "" {
		return 0, fmt.Errorf("exporter misconfigured")
	}

	records, err := e.ledger.ExportAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("read ledger: %w", err)
	}

	if err := e.writeFile(records); err != nil {
		return 0, err
	}

	if err := e.publisher.PublishDocument(ctx, e.path, e.caption); err != nil {
		return len(records), fmt.Errorf("deliver export: %w", err)
	}

	e.logger.Info("export delivered", "rows", len(records), "path", e.path)
	return len(records), nil
}

// writeFile replaces the export atomically so a failed run never leaves a
// truncated snapshot behind.
func (e *Exporter) writeFile(records []domain.LedgerRecord) error {
	dir := filepath.Dir(e.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(e.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := WriteCSV(tmp, records); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}
	if err := os.Rename(tmp.Name(), e.path); err != nil {
		return fmt.Errorf("replace export file: %w", err)
	}
	return nil
}

// WriteCSV serialises records with a UTF-8 signature and the export header.
func WriteCSV(w io.Writer, records []domain.LedgerRecord) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("write signature: %w", err)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, rec := range records {
		row := []string{
			rec.Fingerprint.String(),
			rec.TranslatedTitle,
			rec.TranslatedAbstract,
			rec.Authors,
			rec.PublishedDate,
			rec.Link,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %s: %w", rec.Fingerprint, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
