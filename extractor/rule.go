package extractor

// Kind selects how a Rule is evaluated against a Source.
type Kind int

const (
	// KindMeta reads the content attribute of <meta {Attr}="{Name}">.
	KindMeta Kind = iota + 1

	// KindAttrByID reads attribute Attr of the element with id Name.
	KindAttrByID

	// KindText reads the trimmed text content of the first element
	// matching Selectors[0], then Selectors[1], and so on.
	KindText

	// KindDataAttr reads the first occurrence of attribute Attr anywhere.
	KindDataAttr

	// KindImageMap decodes attribute Attr as a JSON object of
	// image URL -> dimensions and returns the first key.
	KindImageMap

	// KindLinkedData reads field Name from the first JSON-LD block. When
	// the field is an array its first element is used.
	KindLinkedData

	// KindClassImage reads the src of the first <img> with class Name.
	KindClassImage

	// KindPricePair composes Symbol + whole + fraction from the
	// a-price-whole / a-price-fraction elements under Selectors[0].
	KindPricePair

	// KindSymbolWhole composes the a-price-symbol text (Symbol when absent)
	// with the first a-price-whole text.
	KindSymbolWhole
)

var kindNames = map[Kind]string{
	KindMeta:        "meta",
	KindAttrByID:    "attr",
	KindText:        "text",
	KindDataAttr:    "data-attr",
	KindImageMap:    "image-map",
	KindLinkedData:  "linked-data",
	KindClassImage:  "class-image",
	KindPricePair:   "price-pair",
	KindSymbolWhole: "symbol-whole",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// Rule is one tier of a field's fallback chain.
type Rule struct {
	Kind      Kind
	Name      string
	Attr      string
	Selectors []string

	// MaxLen truncates the located value to at most MaxLen runes.
	// Zero means no limit.
	MaxLen int

	// Symbol is the currency symbol used when composing a price from parts.
	Symbol string
}

// Meta matches <meta {attr}="{name}" content="...">. attr is "name" or
// "property".
func Meta(attr, name string) Rule {
	return Rule{Kind: KindMeta, Attr: attr, Name: name}
}

// AttrByID matches attribute attr of the element with the given id.
func AttrByID(id, attr string) Rule {
	return Rule{Kind: KindAttrByID, Name: id, Attr: attr}
}

// Text matches the text content of the first selector that finds an element
// with non-empty text.
func Text(selectors ...string) Rule {
	return Rule{Kind: KindText, Selectors: selectors}
}

// TextMax is Text truncated to maxLen runes.
func TextMax(maxLen int, selectors ...string) Rule {
	return Rule{Kind: KindText, Selectors: selectors, MaxLen: maxLen}
}

// DataAttr matches the first value of the given attribute in the document.
func DataAttr(attr string) Rule {
	return Rule{Kind: KindDataAttr, Attr: attr}
}

// ImageMap matches a JSON image map stored in attr.
func ImageMap(attr string) Rule {
	return Rule{Kind: KindImageMap, Attr: attr}
}

// LinkedData matches field of the first application/ld+json block.
func LinkedData(field string) Rule {
	return Rule{Kind: KindLinkedData, Name: field}
}

// ClassImage matches the src of the first <img> carrying class.
func ClassImage(class string) Rule {
	return Rule{Kind: KindClassImage, Name: class}
}

// PricePair composes a price from whole and fraction parts scoped under
// container.
func PricePair(container, symbol string) Rule {
	return Rule{Kind: KindPricePair, Selectors: []string{container}, Symbol: symbol}
}

// SymbolWhole composes a price from the symbol and whole parts, falling
// back to defaultSymbol when the page has no symbol element.
func SymbolWhole(defaultSymbol string) Rule {
	return Rule{Kind: KindSymbolWhole, Symbol: defaultSymbol}
}
