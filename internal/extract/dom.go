package extract

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Attributes written by hosts that can measure layout. A static snapshot
// simply lacks them and the style-based checks apply alone.
const (
	HiddenAttr = "data-rv-hidden"
	BoxAttr    = "data-rv-box"
)

var blockTags = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true,
	"br": true, "dd": true, "details": true, "dialog": true, "div": true,
	"dl": true, "dt": true, "fieldset": true, "figcaption": true,
	"figure": true, "footer": true, "form": true, "h1": true, "h2": true,
	"h3": true, "h4": true, "h5": true, "h6": true, "header": true,
	"hr": true, "li": true, "main": true, "nav": true, "ol": true,
	"p": true, "pre": true, "section": true, "summary": true,
	"table": true, "tbody": true, "td": true, "tfoot": true, "th": true,
	"thead": true, "tr": true, "ul": true,
}

var invisibleTags = map[string]bool{
	"head": true, "script": true, "style": true, "template": true,
	"noscript": true, "meta": true, "link": true, "title": true,
}

// docOrder maps element nodes to their depth-first document position.
type docOrder map[*html.Node]int

func indexDocument(doc *goquery.Document) docOrder {
	order := make(docOrder)
	i := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			order[n] = i
			i++
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range doc.Nodes {
		walk(n)
	}
	return order
}

func (o docOrder) pos(n *html.Node) int {
	if p, ok := o[n]; ok {
		return p
	}
	return -1
}

// elements returns every element node in document order.
func (o docOrder) elements() []*html.Node {
	nodes := make([]*html.Node, len(o))
	for n, p := range o {
		nodes[p] = n
	}
	return nodes
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// hiddenSelf reports whether n itself is hidden, ignoring ancestors.
func hiddenSelf(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if invisibleTags[n.Data] {
		return true
	}
	if _, ok := attr(n, "hidden"); ok {
		return true
	}
	if v, ok := attr(n, HiddenAttr); ok && v != "0" {
		return true
	}
	if v, ok := attr(n, "aria-hidden"); ok && strings.EqualFold(v, "true") {
		return true
	}
	if n.Data == "input" {
		if v, _ := attr(n, "type"); strings.EqualFold(v, "hidden") {
			return true
		}
	}
	if style, ok := attr(n, "style"); ok {
		s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
		if strings.Contains(s, "display:none") || strings.Contains(s, "visibility:hidden") {
			return true
		}
	}
	return false
}

// isVisible reports whether n and all of its ancestors are rendered.
func isVisible(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if hiddenSelf(p) {
			return false
		}
	}
	return true
}

// isInteractive reports whether n is a clickable control.
func isInteractive(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	switch n.Data {
	case "button", "summary":
		return true
	case "a":
		_, ok := attr(n, "href")
		return ok
	case "input":
		t, _ := attr(n, "type")
		switch strings.ToLower(t) {
		case "button", "submit", "image":
			return true
		}
	}
	if role, ok := attr(n, "role"); ok {
		switch strings.ToLower(role) {
		case "button", "link", "menuitem", "option", "tab":
			return true
		}
	}
	if _, ok := attr(n, "onclick"); ok {
		return true
	}
	if v, ok := attr(n, "tabindex"); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && i >= 0 {
			return true
		}
	}
	return false
}

// hasInteractiveAncestor reports whether any ancestor of n is clickable.
func hasInteractiveAncestor(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if isInteractive(p) {
			return true
		}
	}
	return false
}

// boxArea returns the annotated rendered area of n, if a host measured it.
func boxArea(n *html.Node) (w, h float64, ok bool) {
	v, found := attr(n, BoxAttr)
	if !found {
		return 0, 0, false
	}
	if _, err := fmt.Sscanf(v, "%g,%g", &w, &h); err != nil {
		return 0, 0, false
	}
	return w, h, true
}

// cssPath builds a selector that addresses n by structural position, so a
// live host can find the same element again.
func cssPath(n *html.Node) string {
	var parts []string
	for p := n; p != nil && p.Type == html.ElementNode; p = p.Parent {
		if p.Parent == nil || p.Parent.Type != html.ElementNode {
			parts = append(parts, p.Data)
			break
		}
		idx := 1
		for s := p.PrevSibling; s != nil; s = s.PrevSibling {
			if s.Type == html.ElementNode {
				idx++
			}
		}
		parts = append(parts, fmt.Sprintf("%s:nth-child(%d)", p.Data, idx))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, " > ")
}

// textLines renders the visible text under n as lines, breaking at block
// elements the way a browser's innerText does.
func textLines(n *html.Node) []string {
	var lines []string
	var cur strings.Builder
	flush := func() {
		if line := Normalize(cur.String()); line != "" {
			lines = append(lines, line)
		}
		cur.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			cur.WriteString(n.Data)
			return
		case html.ElementNode:
			if hiddenSelf(n) {
				return
			}
		}
		block := n.Type == html.ElementNode && blockTags[n.Data]
		if block {
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			flush()
		} else if n.Type == html.ElementNode && n.Data != "span" && n.Data != "b" &&
			n.Data != "strong" && n.Data != "i" && n.Data != "em" && n.Data != "small" {
			cur.WriteString(" ")
		}
	}
	walk(n)
	flush()
	return lines
}

// visibleText is the normalized single-line form of textLines.
func visibleText(n *html.Node) string {
	return strings.Join(textLines(n), " ")
}

func selectionText(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	return visibleText(s.Get(0))
}
