package extract

import "strings"

// Shop categories
const (
	ShopGeneral = "General Store"
	ShopArms    = "Arms Dealer"
	ShopBlack   = "Black Market"
)

// ShopCategories is the fixed list of shop section labels.
var ShopCategories = []string{ShopGeneral, ShopArms, ShopBlack}

// shopHeadings are generic heading elements; only those whose text names
// a shop become section markers.
const shopHeadings = "h1, h2, h3, h4, [role='heading'], div[class*='title'], div[class*='header']"

// Layout contains CSS selectors for one known rendering of the shop page
type Layout struct {
	Name   string
	Header string // Section header markers; their text names the shop
	Row    string // Row containers beneath a header
	Title  string // Name control inside a row
	Price  string // Price element inside a row
	Stock  string // Stock element inside a row; the count is its last digit run

	// Anchor, when set, replaces Row: rows are the nearest compact
	// ancestors of controls matching Anchor whose label is AnchorLabel.
	// Price and stock then fall back to the row text.
	Anchor      string
	AnchorLabel string
}

// DefaultLayouts lists the renderings the strict walker knows, most common
// first.
var DefaultLayouts = []Layout{
	{
		// Desktop card layout
		Name:   "desktop",
		Header: "[class*='shopHeader'], [class*='categoryHeader'], [class*='shopName___'], " + shopHeadings,
		Row:    "[class*='row___'], [class*='itemRow']",
		Title:  "button[class*='itemNameButton'], [class*='itemName___']",
		Price:  "span[class*='displayPrice'], [class*='price___']",
		Stock:  "[data-tt-content-type='stock'], [class*='stock___']",
	},
	{
		// Embedded browser and PDA layout
		Name:   "compact",
		Header: "[data-shop-title], [class*='shopTitle']",
		Row:    "[class*='itemCard'], [data-item-row]",
		Title:  "[class*='cardName'], [data-item-name]",
		Price:  "[class*='cardPrice'], [data-item-price]",
		Stock:  "[class*='cardStock'], [data-item-stock]",
	},
	{
		// Legacy table layout: Item | Name | Type | Cost | Stock | Amount | Buy
		Name:   "table",
		Header: "caption, th[colspan], [class*='tableTitle']",
		Row:    "tr",
		Title:  "td:nth-child(2)",
		Price:  "td:nth-child(4)",
		Stock:  "td:nth-child(5)",
	},
	{
		// Rows found by climbing from each BUY control
		Name:        "buy",
		Header:      "[class*='shopHeader'], [class*='categoryHeader'], " + shopHeadings,
		Title:       "button[class*='itemNameButton'], [class*='itemName___']",
		Price:       "span[class*='displayPrice'], [class*='price___']",
		Stock:       "[data-tt-content-type='stock'], [class*='stock___']",
		Anchor:      "button, input",
		AnchorLabel: "BUY",
	},
}

// NormalizeShop maps free header text onto a shop category by keyword.
func NormalizeShop(raw string) (string, bool) {
	t := strings.ToLower(Normalize(raw))
	if t == "" {
		return "", false
	}
	switch {
	case strings.Contains(t, "general"):
		return ShopGeneral, true
	case strings.Contains(t, "arms"):
		return ShopArms, true
	case strings.Contains(t, "black"):
		return ShopBlack, true
	}
	return "", false
}

// exactShop matches text against the shop labels exactly, ignoring case
// and whitespace.
func exactShop(text string) (string, bool) {
	t := Normalize(text)
	for _, c := range ShopCategories {
		if strings.EqualFold(t, c) {
			return c, true
		}
	}
	return "", false
}
