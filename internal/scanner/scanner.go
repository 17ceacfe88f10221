package scanner

import (
	"github.com/PuerkitoBio/goquery"
)

// Matcher locates the abstract container for one known page layout.
type Matcher interface {
	Name() string
	Match(doc *goquery.Document) (*goquery.Selection, bool)
}

// MatcherFunc adapts a plain function into a named Matcher.
type MatcherFunc struct {
	Label string
	Fn    func(doc *goquery.Document) *goquery.Selection
}

// Name identifies the matcher in logs.
func (m MatcherFunc) Name() string {
	return m.Label
}

// Match runs the function and reports whether it selected anything.
func (m MatcherFunc) Match(doc *goquery.Document) (*goquery.Selection, bool) {
	if m.Fn == nil {
		return nil, false
	}
	sel := m.Fn(doc)
	if sel == nil || sel.Length() == 0 {
		return nil, false
	}
	return sel, true
}

// Registry keeps matchers in priority order; the first hit wins.
type Registry struct {
	matchers []Matcher
}

// NewRegistry builds a registry pre-filled with the given matchers, in order.
func NewRegistry(matchers ...Matcher) *Registry {
	r := &Registry{}
	for _, m := range matchers {
		r.Register(m)
	}
	return r
}

// Register appends a matcher with the lowest priority, or replaces one with
// the same name in place.
func (r *Registry) Register(m Matcher) {
	for i, existing := range r.matchers {
		if existing.Name() == m.Name() {
			r.matchers[i] = m
			return
		}
	}
	r.matchers = append(r.matchers, m)
}

// Names lists registered matchers in priority order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.matchers))
	for _, m := range r.matchers {
		names = append(names, m.Name())
	}
	return names
}

// First returns the selection of the highest-priority matcher that hits.
func (r *Registry) First(doc *goquery.Document) (*goquery.Selection, string, bool) {
	if doc == nil {
		return nil, "", false
	}
	for _, m := range r.matchers {
		if sel, ok := m.Match(doc); ok {
			return sel, m.Name(), true
		}
	}
	return nil, "", false
}
