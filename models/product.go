package models

// ProductMetadata is the metadata of one product page.
//
// Title, Image, Description and URL are never empty in a record returned by
// the extractor. Price is the only optional field; an empty string means the
// page did not expose one. Values are passed by copy and never mutated after
// extraction.
type ProductMetadata struct {
	Title       string `json:"title"`
	Image       string `json:"image"`
	Description string `json:"description"`

	// Price is a display string with its currency symbol, e.g. "￥3,980".
	Price string `json:"price,omitempty"`

	// URL is the normalized canonical product URL.
	URL string `json:"url"`
}

// HasPrice reports whether the record carries a price.
func (m ProductMetadata) HasPrice() bool {
	return m.Price != ""
}
