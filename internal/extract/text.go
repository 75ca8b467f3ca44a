package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxNameLength bounds a plausible item name, in runes.
const maxNameLength = 80

// maxPlausibleStock bounds the unlabeled digit-run fallback for stock.
const maxPlausibleStock = 1_000_000

var (
	// moneyRegex matches a dollar-marked amount with an optional magnitude,
	// abbreviated ("k", "mil", "bn") or spelled out ("million"). A suffix
	// must end the word, so "$100 Black Market" is not $100b.
	moneyRegex   = regexp.MustCompile(`\$\s*([0-9][0-9,]*(?:\.[0-9]+)?)(?:(?i:\s?(thousand|million|billion)|(mil|mln|mn|bn|k|m|b))(?:[^A-Za-z]|$))?`)
	digitRun     = regexp.MustCompile(`[0-9][0-9,]*`)
	trailingRun  = regexp.MustCompile(`([0-9][0-9,]*)[^0-9]*$`)
	currencyMark = regexp.MustCompile(`\$\s*[0-9]`)

	stockAfterLabel  = regexp.MustCompile(`(?i)\b(?:stock|available)[:\-\s]*([0-9][0-9,]*)`)
	stockBeforeLabel = regexp.MustCompile(`(?i)([0-9][0-9,]*)\s+in\s+stock\b`)
	stockLabel       = regexp.MustCompile(`(?i)\b(?:stock|available)`)
)

var magnitudes = map[string]float64{
	"k":        1e3,
	"thousand": 1e3,
	"m":        1e6,
	"mil":      1e6,
	"mln":      1e6,
	"mn":       1e6,
	"million":  1e6,
	"b":        1e9,
	"bn":       1e9,
	"billion":  1e9,
}

// Normalize collapses whitespace runs to single spaces and trims.
func Normalize(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

// ParseMoney returns the first currency-marked amount in text, with
// grouping separators removed and any magnitude suffix applied.
func ParseMoney(text string) (int64, bool) {
	m := moneyRegex.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil || math.IsInf(value, 0) || math.IsNaN(value) {
		return 0, false
	}

	if suffix := m[2] + m[3]; suffix != "" {
		value *= magnitudes[strings.ToLower(suffix)]
	}
	// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
	if value >= math.MaxInt64 {
		return 0, false
	}

	return int64(math.Round(value)), true
}

// ParseInteger returns the first digit run in text with grouping removed.
func ParseInteger(text string) (int64, bool) {
	return parseRun(digitRun.FindString(text))
}

// parseTrailingInteger returns the last digit run in text. Stock cells
// often carry a screen-reader prefix ahead of the count.
func parseTrailingInteger(text string) (int64, bool) {
	m := trailingRun.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	return parseRun(m[1])
}

func parseRun(run string) (int64, bool) {
	run = strings.ReplaceAll(run, ",", "")
	if run == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(run, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// IsPlausibleName rejects text that is empty, too long, currency-prefixed
// or carries no letter at all.
func IsPlausibleName(text string) bool {
	t := Normalize(text)
	if t == "" || utf8.RuneCountInString(t) > maxNameLength {
		return false
	}
	if strings.HasPrefix(t, "$") {
		return false
	}
	for _, r := range t {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

// hasCurrency reports whether text contains a dollar-marked number.
func hasCurrency(text string) bool {
	return currencyMark.MatchString(text)
}

// parseStock reads a stock count, preferring a labeled number and falling
// back to the largest plausible digit run outside any money token.
func parseStock(text string) (int64, bool) {
	if m := stockAfterLabel.FindStringSubmatch(text); m != nil {
		if n, ok := parseRun(m[1]); ok {
			return n, true
		}
	}
	if m := stockBeforeLabel.FindStringSubmatch(text); m != nil {
		if n, ok := parseRun(m[1]); ok {
			return n, true
		}
	}
	return largestDigitRun(moneyRegex.ReplaceAllString(text, " "))
}

func largestDigitRun(text string) (int64, bool) {
	var best int64 = -1
	for _, run := range digitRun.FindAllString(text, -1) {
		n, ok := parseRun(run)
		if !ok || n > maxPlausibleStock {
			continue
		}
		if n > best {
			best = n
		}
	}
	if best < 0 {
		return 0, false
	}
	return best, true
}
