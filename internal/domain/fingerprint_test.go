package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewFingerprintIsStable(t *testing.T) {
	t.Parallel()

	first := NewFingerprint("Study X", "https://example.org/a")
	second := NewFingerprint("Study X", "https://example.org/a")

	assert.Equal(t, first, second)
	assert.Len(t, first.String(), 32)
}

func TestNewFingerprintDistinguishesInputs(t *testing.T) {
	t.Parallel()

	base := NewFingerprint("Study X", "https://example.org/a")

	assert.NotEqual(t, base, NewFingerprint("Study Y", "https://example.org/a"))
	assert.NotEqual(t, base, NewFingerprint("Study X", "https://example.org/b"))
}

func TestNewFingerprintEmptyInput(t *testing.T) {
	t.Parallel()

	// md5 of the empty string
	assert.Equal(t, Fingerprint("d41d8cd98f00b204e9800998ecf8427e"), NewFingerprint("", ""))
}

func TestRunReportCount(t *testing.T) {
	t.Parallel()

	report := RunReport{Items: []ItemResult{
		{State: StatePublished},
		{State: StateSkipped},
		{State: StatePublished},
	}}

	assert.Equal(t, 2, report.Count(StatePublished))
	assert.Equal(t, 1, report.Count(StateSkipped))
	assert.Equal(t, 0, report.Count(StateFailed))
}

func TestEntryFingerprintMissingFields(t *testing.T) {
	t.Parallel()

	untitled := NewFingerprint("Без названия", "#")

	assert.Equal(t, untitled, EntryFingerprint(FeedEntry{}))
	assert.Equal(t, untitled, EntryFingerprint(FeedEntry{Title: NoTitle}))
	assert.Equal(t, NewFingerprint("Study X", "#"), EntryFingerprint(FeedEntry{Title: "Study X"}))
	assert.Equal(t,
		NewFingerprint("Study X", "https://example.org/a"),
		EntryFingerprint(FeedEntry{Title: "Study X", Link: "https://example.org/a"}),
	)
}
