// Package extractor locates product metadata in Amazon product pages.
//
// A Strategy is a declarative table of fallback rules per field. The same
// Extract routine runs a Strategy against any Source: a parsed or live DOM
// (NewDOM) or a raw HTML string (NewRawHTML). Sources return "" for rules
// they cannot evaluate, so a rule never fails an extraction on its own; only
// exhausting every rule of a required field does.
package extractor

import (
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/use-agent/linkcard/models"
	"github.com/use-agent/linkcard/urlnorm"
)

// Source evaluates extraction rules against one document.
type Source interface {
	// Lookup returns the value located by r, or "" when r finds nothing or
	// is not supported by this source.
	Lookup(r Rule) string
}

// Trace records the 1-based tier that produced each field. Zero means no
// tier matched.
type Trace struct {
	Title       int
	Image       int
	Description int
	Price       int
}

// Extract runs s against src and builds a ProductMetadata whose URL is the
// normalized pageURL.
//
// Missing title, image or description fail with TITLE_NOT_FOUND,
// IMAGE_NOT_FOUND or DESCRIPTION_NOT_FOUND, checked in that order. A missing
// price is not an error.
func Extract(src Source, s Strategy, pageURL string) (models.ProductMetadata, error) {
	m, _, err := ExtractTrace(src, s, pageURL)
	return m, err
}

// ExtractTrace is Extract that also reports which tier won each field.
func ExtractTrace(src Source, s Strategy, pageURL string) (models.ProductMetadata, Trace, error) {
	var tr Trace

	title, tier := locate(src, s.Title, s.StripPrefixes)
	if title == "" {
		return models.ProductMetadata{}, tr, fieldNotFound(models.ErrCodeTitleNotFound, s.Name)
	}
	tr.Title = tier

	image, tier := locate(src, s.Image, nil)
	if image == "" {
		return models.ProductMetadata{}, tr, fieldNotFound(models.ErrCodeImageNotFound, s.Name)
	}
	tr.Image = tier

	description, tier := locate(src, s.Description, s.StripPrefixes)
	if description == "" {
		return models.ProductMetadata{}, tr, fieldNotFound(models.ErrCodeDescriptionNotFound, s.Name)
	}
	tr.Description = tier

	price, tier := locate(src, s.Price, nil)
	tr.Price = tier

	normalized, err := urlnorm.Normalize(pageURL)
	if err != nil {
		return models.ProductMetadata{}, tr, err
	}

	slog.Debug("extractor: metadata located",
		"strategy", s.Name,
		"titleTier", tr.Title,
		"imageTier", tr.Image,
		"descriptionTier", tr.Description,
		"priceTier", tr.Price,
	)

	return models.ProductMetadata{
		Title:       title,
		Image:       image,
		Description: description,
		Price:       price,
		URL:         normalized,
	}, tr, nil
}

// locate tries rules in order and returns the first non-empty value with
// its 1-based tier.
func locate(src Source, rules []Rule, stripPrefixes []string) (string, int) {
	for i, r := range rules {
		v := strings.TrimSpace(src.Lookup(r))
		v = stripPrefix(v, stripPrefixes)
		v = truncate(v, r.MaxLen)
		if v != "" {
			return v, i + 1
		}
	}
	return "", 0
}

// stripPrefix removes each prefix in turn when s starts with it.
func stripPrefix(s string, prefixes []string) string {
	for _, p := range prefixes {
		if len(s) >= len(p) && strings.EqualFold(s[:len(p)], p) {
			s = strings.TrimLeft(s[len(p):], " \t\r\n")
		}
	}
	return s
}

func truncate(s string, maxLen int) string {
	if maxLen <= 0 || utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:maxLen]))
}

func fieldNotFound(code, strategy string) *models.LinkCardError {
	return models.NewLinkCardError(code, "no "+strategy+" rule matched", nil)
}
