package extractor

// Strategy is the field-location table: for each field, the rules tried in
// priority order. The first rule that yields a non-empty value wins.
type Strategy struct {
	Name        string
	Title       []Rule
	Image       []Rule
	Description []Rule
	Price       []Rule

	// StripPrefixes are removed (case-insensitively, with trailing
	// whitespace) from title and description after they are located.
	StripPrefixes []string
}

// YenSymbol is prefixed to prices composed from their parts. Pages on
// non-Japanese storefronts get it too; prices read whole from the page keep
// their own symbol.
const YenSymbol = "¥"

// DescriptionMaxLen bounds descriptions taken from free page text.
const DescriptionMaxLen = 150

const corePriceDisplay = "#corePriceDisplay_desktop_feature_div"

// DOMStrategy reads a loaded product page through selector queries.
// Platform meta tags come first, page elements last.
var DOMStrategy = Strategy{
	Name: "dom",
	Title: []Rule{
		Meta("name", "title"),
		Meta("property", "og:title"),
		Text("#productTitle"),
	},
	Image: []Rule{
		AttrByID("landingImage", "src"),
		Meta("property", "og:image"),
	},
	Description: []Rule{
		Meta("name", "description"),
		Meta("property", "og:description"),
		TextMax(DescriptionMaxLen, "#feature-bullets"),
	},
	Price: []Rule{
		// .a-offscreen is the screen-reader copy holding the full price string.
		Text(corePriceDisplay + ` .a-price[data-a-color="price"] .a-offscreen`),
		Text("#corePrice_desktop .a-price .a-offscreen"),
		Text("#apex_desktop .a-price .a-offscreen"),
		Text("#priceblock_ourprice", "#priceblock_dealprice", "#price_inside_buybox"),
		// Scoped to the core display so an unrelated price elsewhere on
		// the page is never picked up.
		PricePair(corePriceDisplay, YenSymbol),
	},
}

// HTMLStrategy reads fetched markup with text patterns. Container scoping is
// not re-derivable from a raw string, so price uses the symbol/whole pair.
var HTMLStrategy = Strategy{
	Name: "html",
	Title: []Rule{
		Meta("name", "title"),
	},
	Image: []Rule{
		AttrByID("landingImage", "src"),
		DataAttr("data-old-hires"),
		ImageMap("data-a-dynamic-image"),
		LinkedData("image"),
		ClassImage("a-dynamic-image"),
	},
	Description: []Rule{
		Meta("name", "description"),
	},
	Price: []Rule{
		SymbolWhole(YenSymbol),
	},
	StripPrefixes: []string{"Amazon.co.jp:", "Amazon.com:"},
}
