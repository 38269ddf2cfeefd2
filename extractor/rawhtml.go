package extractor

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/net/html"
)

// RawHTML evaluates rules with text patterns over unparsed markup. It is
// meant for fetched pages where building a DOM is not worth the cost.
//
// Located values are entity-decoded. Rules that need structural scoping
// (KindText, KindPricePair) are not supported and always miss.
type RawHTML struct {
	src string
}

var _ Source = RawHTML{}

// NewRawHTML returns a Source over the markup in s.
func NewRawHTML(s string) RawHTML {
	return RawHTML{src: s}
}

var (
	reLinkedData  = regexp.MustCompile(`(?i)<script[^>]*type=["']application/ld\+json["'][^>]*>([^<]+)</script>`)
	rePriceWhole  = regexp.MustCompile(`class="a-price-whole">([^<]+)<`)
	rePriceSymbol = regexp.MustCompile(`class="a-price-symbol">([^<]+)<`)
)

// Lookup implements Source.
func (h RawHTML) Lookup(r Rule) string {
	switch r.Kind {
	case KindMeta:
		name := regexp.QuoteMeta(r.Name)
		attr := regexp.QuoteMeta(r.Attr)
		if v := h.match(fmt.Sprintf(`(?i)<meta[^>]*%s\s*=\s*["']%s["'][^>]*content\s*=\s*["']([^"']+)["']`, attr, name)); v != "" {
			return v
		}
		return h.match(fmt.Sprintf(`(?i)<meta[^>]*content\s*=\s*["']([^"']+)["'][^>]*%s\s*=\s*["']%s["']`, attr, name))

	case KindAttrByID:
		return h.match(fmt.Sprintf(`(?i)id=["']%s["'][^>]*%s=["']([^"']+)["']`,
			regexp.QuoteMeta(r.Name), regexp.QuoteMeta(r.Attr)))

	case KindDataAttr:
		return h.match(fmt.Sprintf(`(?i)%s=["']([^"']+)["']`, regexp.QuoteMeta(r.Attr)))

	case KindImageMap:
		// The map is attribute-escaped JSON; match up to the closing quote
		// before decoding.
		v := h.match(fmt.Sprintf(`(?i)%s=["'](\{[^"']+\})["']`, regexp.QuoteMeta(r.Attr)))
		return firstObjectKey(v)

	case KindLinkedData:
		m := reLinkedData.FindStringSubmatch(h.src)
		if m == nil {
			return ""
		}
		return linkedDataField(m[1], r.Name)

	case KindClassImage:
		return h.match(fmt.Sprintf(`(?i)<img[^>]*class=["'][^"']*%s[^"']*["'][^>]*src=["']([^"']+)["']`,
			regexp.QuoteMeta(r.Name)))

	case KindSymbolWhole:
		m := rePriceWhole.FindStringSubmatch(h.src)
		if m == nil {
			return ""
		}
		whole := strings.TrimSpace(html.UnescapeString(m[1]))
		if whole == "" {
			return ""
		}
		symbol := r.Symbol
		if s := rePriceSymbol.FindStringSubmatch(h.src); s != nil && s[1] != "" {
			symbol = html.UnescapeString(s[1])
		}
		return symbol + whole
	}
	return ""
}

// match returns the first capture group of pattern, entity-decoded.
func (h RawHTML) match(pattern string) string {
	re, err := compilePattern(pattern)
	if err != nil {
		return ""
	}
	m := re.FindStringSubmatch(h.src)
	if m == nil {
		return ""
	}
	return html.UnescapeString(m[1])
}

var patterns sync.Map // string -> *regexp.Regexp

func compilePattern(pattern string) (*regexp.Regexp, error) {
	if v, ok := patterns.Load(pattern); ok {
		return v.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	patterns.Store(pattern, re)
	return re, nil
}
