package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// maxNameTokens bounds the token fallback for card names.
const maxNameTokens = 3

// labelVocabulary is stripped from card text before a name is read from it.
var labelVocabulary = regexp.MustCompile(`(?i)\b(?:general store|arms dealer|black market|in stock|stock|available|buy|cost|price|each|item|name|type|amount|qty)\b`)

var nameSeparators = regexp.MustCompile(`^[\s:\-|•·,]+|[\s:\-|•·,]+$`)

// Candidate is an element suspected of representing one priced item.
type Candidate struct {
	Shop string
	Path string
	Text string

	// Fields recovered from the candidate's own text
	Name     string
	Cost     int64
	HasCost  bool
	Stock    int64
	HasStock bool
}

// Complete reports whether the card text alone produced a full record.
func (c Candidate) Complete() bool {
	return c.Name != "" && c.HasCost && c.HasStock
}

// Item converts a complete candidate into a record.
func (c Candidate) Item() Item {
	return Item{Name: c.Name, Cost: c.Cost, Stock: c.Stock, Shop: c.Shop}
}

// LooseScanner finds priced-looking controls under exact shop labels when
// no known layout matched.
type LooseScanner struct{}

// Scan returns candidates in document order, with whatever fields their own
// text yields already parsed.
func (LooseScanner) Scan(doc *goquery.Document) []Candidate {
	order := indexDocument(doc)
	nodes := order.elements()
	sections := looseSections(nodes)
	if len(sections) == 0 {
		return nil
	}

	var candidates []Candidate
	admitted := make(map[*html.Node]bool)
	for _, sec := range sections {
		end := sec.end
		if end > len(nodes) {
			end = len(nodes)
		}
		for _, n := range nodes[sec.start+1 : end] {
			if !isInteractive(n) || nestedIn(n, admitted) || !isVisible(n) {
				continue
			}
			text := visibleText(n)
			if !hasCurrency(text) || !digitRun.MatchString(text) {
				continue
			}
			admitted[n] = true
			candidates = append(candidates, parseCard(sec.shop, cssPath(n), text))
		}
	}
	return candidates
}

// looseSections finds header-like elements whose visible text equals a
// shop label, keeping the first per shop.
func looseSections(nodes []*html.Node) []section {
	seen := make(map[string]bool)
	var sections []section
	for i, n := range nodes {
		if isInteractive(n) || hasInteractiveAncestor(n) || !isVisible(n) {
			continue
		}
		shop, ok := exactShop(visibleText(n))
		if !ok || seen[shop] {
			continue
		}
		seen[shop] = true
		sections = append(sections, section{shop: shop, start: i, node: n})
	}
	return bound(sections)
}

func parseCard(shop, path, text string) Candidate {
	c := Candidate{Shop: shop, Path: path, Text: text}
	c.Cost, c.HasCost = ParseMoney(text)
	c.Stock, c.HasStock = parseStock(text)
	c.Name = cardName(text)
	return c
}

// cardName reads the name ahead of the first currency marker, falling back
// to the first few letter-bearing tokens.
func cardName(text string) string {
	if i := strings.Index(text, "$"); i > 0 {
		head := cleanName(text[:i])
		if IsPlausibleName(head) {
			return head
		}
	}

	var tokens []string
	for _, tok := range strings.Fields(labelVocabulary.ReplaceAllString(text, " ")) {
		if strings.Contains(tok, "$") || !IsPlausibleName(tok) {
			if len(tokens) > 0 {
				break
			}
			continue
		}
		tokens = append(tokens, tok)
		if len(tokens) == maxNameTokens {
			break
		}
	}
	if name := cleanName(strings.Join(tokens, " ")); IsPlausibleName(name) {
		return name
	}
	return ""
}

func cleanName(s string) string {
	s = labelVocabulary.ReplaceAllString(s, " ")
	s = Normalize(s)
	return nameSeparators.ReplaceAllString(s, "")
}
