package domain

import (
	"crypto/md5"
	"encoding/hex"
)

// Values substituted for a missing title or link when computing the key.
// Ledgers written by earlier releases hold keys built from these.
const (
	untitledKey = "Без названия"
	linklessKey = "#"
)

// Fingerprint is the deduplication key of a feed entry.
type Fingerprint string

// NewFingerprint digests title and link. Publication date and authors are not
// part of the key, so corrections to them upstream never re-trigger processing.
func NewFingerprint(title, link string) Fingerprint {
	sum := md5.Sum([]byte(title + link))
	return Fingerprint(hex.EncodeToString(sum[:]))
}

// EntryFingerprint keys a feed entry, hashing a missing title or link as the
// ledger has always stored it.
func EntryFingerprint(e FeedEntry) Fingerprint {
	title, link := e.Title, e.Link
	if title == "" || title == NoTitle {
		title = untitledKey
	}
	if link == "" {
		link = linklessKey
	}
	return NewFingerprint(title, link)
}

func (f Fingerprint) String() string {
	return string(f)
}
