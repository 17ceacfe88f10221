package parser

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"ArticleRelay/internal/domain"
	"ArticleRelay/internal/ports"
	"ArticleRelay/internal/scanner"
)

// graphicalAbstractMarker separates the prose abstract from the caption of
// the visual abstract in ScienceDirect markup.
const graphicalAbstractMarker = "Graphical abstract"

// DefaultMatchers lists the abstract containers ScienceDirect has used, in priority order.
func DefaultMatchers() *scanner.Registry {
	return scanner.NewRegistry(
		classMatcher("abstracts", "div.Abstracts"),
		classMatcher("sv-abstract", "div.svAbstract"),
		classMatcher("abstract-author", "div.abstract.author"),
	)
}

func classMatcher(name, selector string) scanner.MatcherFunc {
	return scanner.MatcherFunc{
		Label: name,
		Fn: func(doc *goquery.Document) *goquery.Selection {
			return doc.Find(selector).First()
		},
	}
}

// Extractor pulls a plain-text abstract out of landing-page markup.
type Extractor struct {
	matchers *scanner.Registry
	logger   *slog.Logger
}

var _ ports.AbstractExtractor = (*Extractor)(nil)

// NewExtractor uses DefaultMatchers when matchers is nil.
func NewExtractor(matchers *scanner.Registry, log *slog.Logger) *Extractor {
	if matchers == nil {
		matchers = DefaultMatchers()
	}
	return &Extractor{matchers: matchers, logger: log}
}

// Extract returns the normalized abstract or domain.AbstractNotFound.
func (e *Extractor) Extract(markup string) string {
	if strings.TrimSpace(markup) == "" {
		return domain.AbstractNotFound
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		e.debug("parse page markup", "error", err)
		return domain.AbstractNotFound
	}

	sel, matcher, ok := e.matchers.First(doc)
	if !ok {
		e.debug("no abstract container matched", "matchers", e.matchers.Names())
		return domain.AbstractNotFound
	}

	text := normalizeAbstract(joinText(sel))
	if text == "" {
		return domain.AbstractNotFound
	}
	e.debug("abstract extracted", "matcher", matcher, "length", len(text))
	return text
}

// joinText concatenates every non-blank text node under sel with single spaces.
func joinText(sel *goquery.Selection) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, " ")
}

func normalizeAbstract(text string) string {
	text = strings.TrimSpace(text)
	if idx := strings.Index(text, graphicalAbstractMarker); idx >= 0 {
		text = text[:idx]
	}
	return strings.Join(strings.Fields(text), " ")
}

func (e *Extractor) debug(msg string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}
