package extractor

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"
)

// Querier answers CSS selector queries against a DOM. Both methods look at
// the first matching element in document order and return "" when nothing
// matches.
type Querier interface {
	Attr(selector, name string) string
	Text(selector string) string
}

// dom interprets rules as selector queries.
type dom struct {
	q Querier
}

// NewDOM returns a Source that evaluates rules as selector queries on q.
func NewDOM(q Querier) Source {
	return dom{q: q}
}

func (d dom) Lookup(r Rule) string {
	switch r.Kind {
	case KindMeta:
		return d.q.Attr(fmt.Sprintf(`meta[%s=%q]`, r.Attr, r.Name), "content")

	case KindAttrByID:
		return d.q.Attr("#"+r.Name, r.Attr)

	case KindText:
		for _, sel := range r.Selectors {
			if v := strings.TrimSpace(d.q.Text(sel)); v != "" {
				return v
			}
		}
		return ""

	case KindDataAttr:
		return d.q.Attr("["+r.Attr+"]", r.Attr)

	case KindImageMap:
		return firstObjectKey(d.q.Attr("["+r.Attr+"]", r.Attr))

	case KindLinkedData:
		return linkedDataField(d.q.Text(`script[type="application/ld+json"]`), r.Name)

	case KindClassImage:
		return d.q.Attr("img."+r.Name, "src")

	case KindPricePair:
		if len(r.Selectors) == 0 {
			return ""
		}
		container := r.Selectors[0]
		whole := strings.TrimSpace(d.q.Text(container + " .a-price-whole"))
		if whole == "" {
			return ""
		}
		return r.Symbol + whole + strings.TrimSpace(d.q.Text(container+" .a-price-fraction"))

	case KindSymbolWhole:
		whole := strings.TrimSpace(d.q.Text(".a-price-whole"))
		if whole == "" {
			return ""
		}
		symbol := strings.TrimSpace(d.q.Text(".a-price-symbol"))
		if symbol == "" {
			symbol = r.Symbol
		}
		return symbol + whole
	}
	return ""
}

// Document is a Querier over a parsed HTML document.
// Document is safe for concurrent use.
type Document struct {
	doc *goquery.Document
}

var _ Querier = (*Document)(nil)

// NewDocument wraps an already parsed goquery document.
func NewDocument(doc *goquery.Document) *Document {
	return &Document{doc: doc}
}

// ParseDocument parses HTML from r.
func ParseDocument(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("extractor: parse html: %w", err)
	}
	return &Document{doc: goquery.NewDocumentFromNode(root)}, nil
}

// ParseString parses an HTML string. Reading from memory cannot fail, so
// neither can this.
func ParseString(s string) *Document {
	doc, err := ParseDocument(strings.NewReader(s))
	if err != nil {
		return &Document{doc: goquery.NewDocumentFromNode(&html.Node{Type: html.DocumentNode})}
	}
	return doc
}

// Attr implements Querier.
func (d *Document) Attr(selector, name string) string {
	m, err := compile(selector)
	if err != nil {
		return ""
	}
	v, _ := d.doc.FindMatcher(m).First().Attr(name)
	return v
}

// Text implements Querier.
func (d *Document) Text(selector string) string {
	m, err := compile(selector)
	if err != nil {
		return ""
	}
	return d.doc.FindMatcher(m).First().Text()
}

// selectors caches compiled selectors; the rule tables are fixed so the set
// stays small.
var selectors sync.Map // string -> cascadia.Selector

func compile(selector string) (cascadia.Selector, error) {
	if v, ok := selectors.Load(selector); ok {
		return v.(cascadia.Selector), nil
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, err
	}
	selectors.Store(selector, sel)
	return sel, nil
}
