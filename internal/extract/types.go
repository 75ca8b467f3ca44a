package extract

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Tier identifies the cascade strategy that produced a batch
type Tier string

const (
	TierStrict     Tier = "strict"
	TierLooseProbe Tier = "loose-probe"
	TierNone       Tier = "none"
)

// Item represents one priced shop entry. Field names follow the collector's
// report format.
type Item struct {
	Name  string `json:"name"`
	Cost  int64  `json:"cost"`
	Stock int64  `json:"stock"`
	Shop  string `json:"shop"`
}

// Key returns the identity key used for deduplication within a pass.
func (i Item) Key() string {
	return strings.ToLower(i.Shop) + "\x00" + strings.ToLower(i.Name)
}

// Batch is the result of one extraction pass.
type Batch struct {
	Location Location
	Items    []Item
	Tier     Tier
}

// Valid reports whether the batch is worth reporting.
func (b Batch) Valid() bool {
	return b.Location != "" && b.Tier != TierNone && len(b.Items) > 0
}

// Surface is the live document an extraction pass reads from and, for the
// detail probe, interacts with.
type Surface interface {
	// Snapshot returns the current state of the document
	Snapshot(ctx context.Context) (*goquery.Document, error)

	// Click activates the element addressed by selector
	Click(ctx context.Context, selector string) error

	// ClickBackdrop dismisses whatever overlay is open without a target
	ClickBackdrop(ctx context.Context) error
}

// dedupe collapses items sharing an identity key. The later record wins
// but keeps the position of the first occurrence.
func dedupe(items []Item) []Item {
	index := make(map[string]int, len(items))
	out := make([]Item, 0, len(items))
	for _, it := range items {
		k := it.Key()
		if i, ok := index[k]; ok {
			out[i] = it
			continue
		}
		index[k] = len(out)
		out = append(out, it)
	}
	return out
}
