package extract

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	maxRowClimb = 12
	maxRowText  = 800
)

var rowStockLabel = regexp.MustCompile(`(?i)\bstock\b[^0-9]*([0-9][0-9,]*)`)

type section struct {
	shop  string
	start int
	end   int
	node  *html.Node
}

// StrictWalker extracts rows beneath recognised section headers using the
// exact markup hooks of a known layout.
type StrictWalker struct {
	Layouts []Layout
}

// NewStrictWalker creates a walker over the given layouts, or the defaults
func NewStrictWalker(layouts ...Layout) *StrictWalker {
	if len(layouts) == 0 {
		layouts = DefaultLayouts
	}
	return &StrictWalker{Layouts: layouts}
}

// Walk returns the rows of the first layout that yields any. An empty
// result means no layout matched and the caller should fall through.
func (w *StrictWalker) Walk(doc *goquery.Document) []Item {
	order := indexDocument(doc)
	for _, layout := range w.Layouts {
		if items := w.walkLayout(doc, order, layout); len(items) > 0 {
			return items
		}
	}
	return nil
}

func (w *StrictWalker) walkLayout(doc *goquery.Document, order docOrder, layout Layout) []Item {
	var rows []*html.Node
	if layout.Anchor != "" {
		rows = anchoredRows(doc, order, layout)
	} else {
		rows = doc.Find(layout.Row).Nodes
	}
	if len(rows) == 0 {
		return nil
	}
	rowSet := make(map[*html.Node]bool, len(rows))
	for _, n := range rows {
		rowSet[n] = true
	}

	sections := strictSections(doc, order, layout.Header, rowSet)
	if len(sections) == 0 {
		return nil
	}

	var items []Item
	for _, n := range rows {
		if layout.Anchor == "" && nestedIn(n, rowSet) {
			continue
		}
		shop, ok := sectionFor(sections, order.pos(n))
		if !ok {
			continue
		}
		if item, ok := parseStrictRow(doc.FindNodes(n), layout, shop); ok {
			items = append(items, item)
		}
	}
	return items
}

// anchoredRows climbs from every control labelled layout.AnchorLabel to the
// first ancestor compact enough to be a single row that shows a price.
// Rows come back in document order without repeats.
func anchoredRows(doc *goquery.Document, order docOrder, layout Layout) []*html.Node {
	seen := make(map[*html.Node]bool)
	var rows []*html.Node
	doc.Find(layout.Anchor).Each(func(_ int, s *goquery.Selection) {
		label := selectionText(s)
		if goquery.NodeName(s) == "input" {
			label, _ = s.Attr("value")
		}
		if !strings.EqualFold(Normalize(label), layout.AnchorLabel) {
			return
		}
		n := s.Get(0)
		for i := 0; i < maxRowClimb && n.Parent != nil; i++ {
			n = n.Parent
			if n.Type != html.ElementNode {
				break
			}
			text := visibleText(n)
			if utf8.RuneCountInString(text) < maxRowText && strings.Contains(text, "$") && strings.ContainsAny(text, "0123456789") {
				if !seen[n] {
					seen[n] = true
					rows = append(rows, n)
				}
				return
			}
		}
	})
	sort.Slice(rows, func(i, j int) bool { return order.pos(rows[i]) < order.pos(rows[j]) })
	return rows
}

// strictSections locates header markers whose text names a shop and gives
// each the span up to the next marker in document order. Markers inside a
// priced row are item text, and a marker wrapping another marker yields to
// the inner one.
func strictSections(doc *goquery.Document, order docOrder, selector string, rows map[*html.Node]bool) []section {
	var found []section
	doc.Find(selector).Each(func(_ int, h *goquery.Selection) {
		n := h.Get(0)
		if row := enclosingRow(n, rows); row != nil && hasCurrency(visibleText(row)) {
			return
		}
		shop, ok := NormalizeShop(selectionText(h))
		if !ok {
			return
		}
		found = append(found, section{shop: shop, start: order.pos(n), node: n})
	})

	wrappers := make(map[*html.Node]bool)
	for _, sec := range found {
		for p := sec.node.Parent; p != nil; p = p.Parent {
			wrappers[p] = true
		}
	}
	var sections []section
	for _, sec := range found {
		if !wrappers[sec.node] {
			sections = append(sections, sec)
		}
	}
	return bound(sections)
}

// enclosingRow returns the row that is n or contains n, if any.
func enclosingRow(n *html.Node, rows map[*html.Node]bool) *html.Node {
	for p := n; p != nil; p = p.Parent {
		if rows[p] {
			return p
		}
	}
	return nil
}

// bound sorts sections by position and closes each at the next one.
func bound(sections []section) []section {
	sort.Slice(sections, func(i, j int) bool { return sections[i].start < sections[j].start })
	for i := range sections {
		if i+1 < len(sections) {
			sections[i].end = sections[i+1].start
		} else {
			sections[i].end = math.MaxInt
		}
	}
	return sections
}

func sectionFor(sections []section, pos int) (string, bool) {
	i := sort.Search(len(sections), func(i int) bool { return sections[i].end > pos })
	if i < len(sections) && pos > sections[i].start {
		return sections[i].shop, true
	}
	return "", false
}

func nestedIn(n *html.Node, set map[*html.Node]bool) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if set[p] {
			return true
		}
	}
	return false
}

func parseStrictRow(row *goquery.Selection, layout Layout, shop string) (Item, bool) {
	name := selectionText(row.Find(layout.Title).First())
	if !IsPlausibleName(name) {
		return Item{}, false
	}
	anchored := layout.Anchor != ""

	priceSel := row.Find(layout.Price).First()
	priceText := priceSel.Text()
	if priceSel.Length() == 0 && anchored {
		priceText = selectionText(row)
	}
	cost, ok := ParseMoney(priceText)
	if !ok {
		return Item{}, false
	}

	var stock int64
	stockSel := row.Find(layout.Stock).First()
	switch {
	case stockSel.Length() > 0:
		stock, ok = parseTrailingInteger(stockSel.Text())
	case anchored:
		stock, ok = parseLabeledStock(selectionText(row))
	default:
		ok = false
	}
	if !ok {
		return Item{}, false
	}

	return Item{Name: name, Cost: cost, Stock: stock, Shop: shop}, true
}

func parseLabeledStock(text string) (int64, bool) {
	m := rowStockLabel.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	return parseRun(m[1])
}
