package domain

const (
	// NoTitle marks a feed entry published without a title.
	NoTitle = "No Title"

	// AbstractNotFound is returned by extraction when no known container matched.
	AbstractNotFound = "Abstract not found."
)

// FeedEntry is a single item of the current feed window.
type FeedEntry struct {
	Title       string
	Link        string
	Description string

	// PublishedDate and Authors are free text parsed from Description.
	PublishedDate string
	Authors       string
}

// Article is an entry travelling through enrichment and translation.
type Article struct {
	Entry              FeedEntry
	Fingerprint        Fingerprint
	Abstract           string
	TranslatedTitle    string
	TranslatedAbstract string
}

// Record builds the ledger row for a fully processed article.
func (a Article) Record() LedgerRecord {
	return LedgerRecord{
		Fingerprint:        a.Fingerprint,
		TranslatedTitle:    a.TranslatedTitle,
		TranslatedAbstract: a.TranslatedAbstract,
		Authors:            a.Entry.Authors,
		PublishedDate:      a.Entry.PublishedDate,
		Link:               a.Entry.Link,
	}
}

// LedgerRecord is the durable row persisted once per fingerprint.
type LedgerRecord struct {
	Fingerprint        Fingerprint
	TranslatedTitle    string
	TranslatedAbstract string
	Authors            string
	PublishedDate      string
	Link               string
}
