package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Location is a canonical travel destination
type Location string

// LocationSetVersion changes whenever Locations or locationAliases change,
// so collectors can tell which enumeration a client resolved against.
const LocationSetVersion = 2

// Locations is the closed set of destinations a shop can belong to.
var Locations = []Location{
	"Mexico",
	"Cayman Islands",
	"Canada",
	"Hawaii",
	"United Kingdom",
	"Argentina",
	"Switzerland",
	"Japan",
	"China",
	"UAE",
	"South Africa",
}

var locationAliases = map[string]Location{
	"uk":                   "United Kingdom",
	"england":              "United Kingdom",
	"britain":              "United Kingdom",
	"great britain":        "United Kingdom",
	"london":               "United Kingdom",
	"united arab emirates": "UAE",
	"emirates":             "UAE",
	"dubai":                "UAE",
	"cayman":               "Cayman Islands",
	"caymans":              "Cayman Islands",
	"the cayman islands":   "Cayman Islands",
	"hawai'i":              "Hawaii",
	"mx":                   "Mexico",
	"za":                   "South Africa",
	"s. africa":            "South Africa",
	"sa":                   "South Africa",
	"ch":                   "Switzerland",
	"jp":                   "Japan",
	"cn":                   "China",
	"ca":                   "Canada",
	"ar":                   "Argentina",
}

var canonicalLocations = func() map[string]Location {
	m := make(map[string]Location, len(Locations))
	for _, l := range Locations {
		m[foldLocation(string(l))] = l
	}
	return m
}()

var narrativePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)you are in\s+([A-Za-z\s]+?)\s+and have\s+\$`),
	regexp.MustCompile(`(?i)you are (?:currently |now )?in\s+(?:the\s+)?([A-Za-z][A-Za-z .'\-]{0,40}?)\s*(?:[.,!]|\s+and\b|$)`),
}

const headingSelector = "h1, h2, h3, h4, h5, h6, [role='heading'], [class*='title___']"

func foldLocation(s string) string {
	return strings.ToLower(Normalize(s))
}

// LookupLocation maps a phrase to a canonical location, accepting aliases.
func LookupLocation(phrase string) (Location, bool) {
	key := foldLocation(phrase)
	if l, ok := canonicalLocations[key]; ok {
		return l, true
	}
	if l, ok := locationAliases[key]; ok {
		return l, true
	}
	return "", false
}

// ResolveLocation determines which destination the document shows. The
// narrative sentence wins over headings; an unresolved document yields
// false and no extraction should follow.
func ResolveLocation(doc *goquery.Document) (Location, bool) {
	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	text := selectionText(body)

	for _, re := range narrativePatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if l, ok := LookupLocation(m[1]); ok {
				return l, true
			}
		}
	}

	var found Location
	doc.Find(headingSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if !isVisible(s.Get(0)) {
			return true
		}
		if l, ok := canonicalLocations[foldLocation(selectionText(s))]; ok {
			found = l
			return false
		}
		return true
	})
	if found != "" {
		return found, true
	}

	return "", false
}
