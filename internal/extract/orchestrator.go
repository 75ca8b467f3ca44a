package extract

import (
	"context"
	"time"

	"droqsdb/overseasreporter/logger"

	"github.com/PuerkitoBio/goquery"
)

// DefaultLooseMinYield is the smallest loose-tier batch considered sound.
const DefaultLooseMinYield = 5

// strategy is one tier of the cascade. A result below minYield counts as
// nothing and the next tier runs.
type strategy struct {
	tier     Tier
	minYield int
	run      func(ctx context.Context, doc *goquery.Document) []Item
}

// Options configures an Extractor
type Options struct {
	Layouts       []Layout
	LooseMinYield int
	Probe         bool
	ProbeConfig   ProbeConfig
}

// Extractor runs the tiered cascade over a surface: strict layouts first,
// then loose scanning with detail probes. Passes must not overlap.
type Extractor struct {
	surface    Surface
	strict     *StrictWalker
	loose      LooseScanner
	prober     *Prober
	strategies []strategy
	log        *logger.Logger

	// probed remembers probe results from the previous pass, keyed by
	// candidate path and text, so an unchanged card is not clicked again.
	probed map[string]probeResult
}

type probeResult struct {
	item Item
	ok   bool
}

// NewExtractor creates an extractor over surface
func NewExtractor(surface Surface, opts Options) *Extractor {
	if opts.LooseMinYield < 1 {
		opts.LooseMinYield = DefaultLooseMinYield
	}

	e := &Extractor{
		surface: surface,
		strict:  NewStrictWalker(opts.Layouts...),
		log:     logger.ForExtractor(),
	}
	if opts.Probe {
		e.prober = NewProber(surface, opts.ProbeConfig)
	}

	e.strategies = []strategy{
		{tier: TierStrict, minYield: 1, run: e.runStrict},
		{tier: TierLooseProbe, minYield: opts.LooseMinYield, run: e.runLoose},
	}
	return e
}

// Extract snapshots the surface and runs one pass. It never fails: any
// problem yields a batch with TierNone.
func (e *Extractor) Extract(ctx context.Context) Batch {
	doc, err := e.surface.Snapshot(ctx)
	if err != nil {
		e.log.Warn().Err(err).Msg("Snapshot failed")
		return Batch{Tier: TierNone}
	}
	return e.ExtractDocument(ctx, doc)
}

// ExtractDocument runs one pass over an already captured document.
func (e *Extractor) ExtractDocument(ctx context.Context, doc *goquery.Document) Batch {
	start := time.Now()

	location, ok := ResolveLocation(doc)
	if !ok {
		e.log.Debug().Msg("Location unresolved, skipping pass")
		return Batch{Tier: TierNone}
	}

	for _, s := range e.strategies {
		items := dedupe(s.run(ctx, doc))
		if len(items) >= s.minYield {
			e.log.Debug().
				Str("location", string(location)).
				Str("tier", string(s.tier)).
				Int("items", len(items)).
				Dur("elapsed", time.Since(start)).
				Msg("Extraction complete")
			return Batch{Location: location, Items: items, Tier: s.tier}
		}
		e.log.Debug().
			Str("tier", string(s.tier)).
			Int("items", len(items)).
			Int("min_yield", s.minYield).
			Msg("Tier yield too low")
	}

	return Batch{Location: location, Tier: TierNone}
}

func (e *Extractor) runStrict(_ context.Context, doc *goquery.Document) []Item {
	return e.strict.Walk(doc)
}

func (e *Extractor) runLoose(ctx context.Context, doc *goquery.Document) []Item {
	var items []Item
	probed := make(map[string]probeResult)
	for _, c := range e.loose.Scan(doc) {
		if c.Complete() {
			items = append(items, c.Item())
			continue
		}
		if e.prober == nil {
			continue
		}
		key := c.Path + "\x00" + c.Text
		res, seen := e.probed[key]
		if !seen {
			if ctx.Err() != nil {
				continue
			}
			res.item, res.ok = e.prober.Resolve(ctx, c)
		}
		if res.ok || ctx.Err() == nil {
			probed[key] = res
		}
		if res.ok {
			items = append(items, res.item)
		}
	}
	e.probed = probed
	return items
}
