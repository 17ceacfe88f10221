package telegram

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"ArticleRelay/internal/config"
	"ArticleRelay/internal/domain"
)

// MaxMessageLength is the Bot API limit for sendMessage text.
const MaxMessageLength = 4096

const (
	ellipsis = "…"

	// caps for header fields so the abstract always keeps some room
	maxTitleLength = 1024
	maxFieldLength = 512
)

// RenderArticle builds the HTML announcement. The abstract is shortened when
// the whole message would exceed MaxMessageLength.
func RenderArticle(record domain.LedgerRecord, labels config.TelegramLabels) string {
	head := fmt.Sprintf("<b>%s</b>\n%s: %s\n%s: %s\n\n",
		fitEscaped(record.TranslatedTitle, maxTitleLength),
		labels.PublicationDate, fitEscaped(record.PublishedDate, maxFieldLength),
		labels.Authors, fitEscaped(record.Authors, maxFieldLength),
	)

	budget := MaxMessageLength - utf8.RuneCountInString(head)
	return head + fitEscaped(record.TranslatedAbstract, budget)
}

// fitEscaped escapes text and cuts it, on a rune boundary of the unescaped
// input, until the escaped form fits into budget runes.
func fitEscaped(text string, budget int) string {
	escaped := html.EscapeString(text)
	if utf8.RuneCountInString(escaped) <= budget {
		return escaped
	}

	runes := []rune(text)
	keep := budget - 1
	if keep > len(runes) {
		keep = len(runes)
	}
	for keep > 0 {
		escaped = html.EscapeString(strings.TrimRight(string(runes[:keep]), " \n")) + ellipsis
		if utf8.RuneCountInString(escaped) <= budget {
			return escaped
		}
		keep -= utf8.RuneCountInString(escaped) - budget
	}
	return ""
}
