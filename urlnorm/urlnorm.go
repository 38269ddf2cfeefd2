// Package urlnorm validates and canonicalizes Amazon product URLs.
package urlnorm

import (
	"errors"
	"net/url"
	"regexp"
	"strings"

	"github.com/use-agent/linkcard/models"
)

// Rejection reasons returned by Validate.
const (
	ReasonNotProviderDomain = "not this provider's domain"
	ReasonNotProductPage    = "not a product page"
	ReasonInvalidURL        = "not a valid URL"
)

// storefrontHosts are the localized Amazon storefronts, bare and www.
var storefrontHosts = map[string]struct{}{
	"amazon.co.jp":     {},
	"amazon.com":       {},
	"amazon.co.uk":     {},
	"amazon.de":        {},
	"amazon.fr":        {},
	"amazon.it":        {},
	"amazon.es":        {},
	"amazon.ca":        {},
	"www.amazon.co.jp": {},
	"www.amazon.com":   {},
	"www.amazon.co.uk": {},
	"www.amazon.de":    {},
	"www.amazon.fr":    {},
	"www.amazon.it":    {},
	"www.amazon.es":    {},
	"www.amazon.ca":    {},
}

// shortHosts resolve to a product page only after redirects.
var shortHosts = map[string]struct{}{
	"amzn.to": {},
	"a.co":    {},
}

// productPathMarkers identify a product detail page.
var productPathMarkers = []string{"/dp/", "/gp/product/"}

var errNotAbsolute = errors.New("missing scheme or host")

var reASIN = regexp.MustCompile(`/(?:dp|gp/product)/([A-Z0-9]{10})(?:[/?#]|$)`)

// Validation is the outcome of Validate. Reason is empty when Valid.
type Validation struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
}

// Validate classifies rawURL as an Amazon product page, an Amazon short
// link, or neither.
func Validate(rawURL string) Validation {
	u, err := parseAbsolute(rawURL)
	if err != nil {
		return Validation{Reason: ReasonInvalidURL}
	}

	host := strings.ToLower(u.Hostname())
	if _, ok := shortHosts[host]; ok {
		return Validation{Valid: true}
	}
	if _, ok := storefrontHosts[host]; !ok {
		return Validation{Reason: ReasonNotProviderDomain}
	}

	for _, marker := range productPathMarkers {
		if strings.Contains(u.Path, marker) {
			return Validation{Valid: true}
		}
	}
	return Validation{Reason: ReasonNotProductPage}
}

// Normalize removes tracking parameters from rawURL: every query key that
// starts with "ref" or "_", and the key "th". All other parameters keep
// their relative order. Duplicate keys collapse into the first position
// with the last value.
func Normalize(rawURL string) (string, error) {
	u, err := parseAbsolute(rawURL)
	if err != nil {
		return "", models.NewLinkCardError(models.ErrCodeInvalidURL, ReasonInvalidURL, err)
	}

	var keys []string
	values := make(map[string]string)
	for _, pair := range strings.Split(u.RawQuery, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			key = rawKey
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			value = rawValue
		}
		if isTrackingKey(key) {
			continue
		}
		if _, seen := values[key]; !seen {
			keys = append(keys, key)
		}
		values[key] = value
	}

	var b strings.Builder
	for i, key := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(key))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(values[key]))
	}
	u.RawQuery = b.String()
	u.ForceQuery = false

	return u.String(), nil
}

func isTrackingKey(key string) bool {
	return strings.HasPrefix(key, "ref") || strings.HasPrefix(key, "_") || key == "th"
}

// ExtractASIN returns the 10-character product identifier embedded in a
// /dp/{id} or /gp/product/{id} path.
func ExtractASIN(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	m := reASIN.FindStringSubmatch(u.Path)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ToAffiliateLink rewrites rawURL to the canonical /dp/{id} form on the
// same storefront, carrying tag as the affiliate parameter. URLs without a
// product identifier are returned unchanged.
func ToAffiliateLink(rawURL, tag string) string {
	u, err := parseAbsolute(rawURL)
	if err != nil {
		return rawURL
	}
	asin, ok := ExtractASIN(rawURL)
	if !ok {
		return rawURL
	}

	link := u.Scheme + "://" + u.Host + "/dp/" + asin
	if tag != "" {
		link += "?tag=" + url.QueryEscape(tag)
	}
	return link
}

// parseAbsolute parses rawURL and requires a scheme and host.
func parseAbsolute(rawURL string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, &url.Error{Op: "parse", URL: rawURL, Err: errNotAbsolute}
	}
	return u, nil
}
