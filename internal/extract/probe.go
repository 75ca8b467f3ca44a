package extract

import (
	"context"
	"strings"
	"time"

	"droqsdb/overseasreporter/logger"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Overlay size bounds, in characters of visible text and in CSS pixels
// when the host annotates boxes.
const (
	minOverlayText   = 12
	maxOverlayText   = 2000
	minOverlayWidth  = 120
	minOverlayHeight = 60
)

// dismissTimeout bounds the close attempt, which runs even after the pass
// context is cancelled.
const dismissTimeout = 3 * time.Second

const modalSelector = "[role='dialog'], [role='alertdialog'], [aria-modal='true'], dialog[open]"

const overlayBlockSelector = "div, section, article, aside, dialog, form"

const headingNameSelector = "h1, h2, h3, h4, h5, h6, [role='heading']"

var closeWords = map[string]bool{
	"×": true, "✕": true, "✖": true, "x": true, "close": true, "cancel": true, "back": true,
}

// ProbeConfig bounds and paces the detail probe
type ProbeConfig struct {
	Attempts  int           // overlay polls per candidate
	Interval  time.Duration // delay between polls
	PaceEvery int           // pause after this many completed probes
	PacePause time.Duration
	Settle    time.Duration // pause after dismissing an overlay
}

// DefaultProbeConfig returns the standard probe timings
func DefaultProbeConfig() ProbeConfig {
	return ProbeConfig{
		Attempts:  12,
		Interval:  150 * time.Millisecond,
		PaceEvery: 4,
		PacePause: 400 * time.Millisecond,
		Settle:    120 * time.Millisecond,
	}
}

// Prober recovers missing candidate fields by opening the candidate's
// detail overlay, reading it, and closing it again.
type Prober struct {
	surface Surface
	cfg     ProbeConfig
	done    int
	log     *logger.Logger
}

// NewProber creates a prober against a live surface
func NewProber(surface Surface, cfg ProbeConfig) *Prober {
	if cfg.Attempts < 1 {
		cfg.Attempts = 1
	}
	return &Prober{
		surface: surface,
		cfg:     cfg,
		log:     logger.ForExtractor().WithField("tier", "probe"),
	}
}

// overlay is an open detail surface found after activating a candidate.
type overlay struct {
	node      *html.Node
	closePath string
}

// Resolve opens c's overlay and returns the completed record. Fields the
// card text already produced are kept; the overlay fills the rest.
func (p *Prober) Resolve(ctx context.Context, c Candidate) (Item, bool) {
	defer p.pace(ctx)

	baseline, err := p.surface.Snapshot(ctx)
	if err != nil {
		p.log.Debug().Err(err).Msg("Baseline snapshot failed")
		return Item{}, false
	}
	seen := visibleSignatures(baseline)

	if err := p.surface.Click(ctx, c.Path); err != nil {
		p.log.Debug().Err(err).Str("path", c.Path).Msg("Activation failed")
		return Item{}, false
	}

	var ov *overlay
	defer func() { p.dismiss(ctx, ov) }()

	ov = p.await(ctx, seen)
	if ov == nil {
		p.log.Debug().Str("path", c.Path).Msg("No overlay appeared")
		return Item{}, false
	}

	item, ok := readOverlay(ov.node, c)
	if !ok {
		p.log.Debug().Str("path", c.Path).Msg("Overlay lacked fields")
	}
	return item, ok
}

// await polls for a newly visible overlay, bounded by the attempt count.
func (p *Prober) await(ctx context.Context, seen signatures) *overlay {
	for i := 0; i < p.cfg.Attempts; i++ {
		if !sleep(ctx, p.cfg.Interval) {
			return nil
		}
		doc, err := p.surface.Snapshot(ctx)
		if err != nil {
			continue
		}
		if n := findOverlay(doc, seen); n != nil {
			return &overlay{node: n, closePath: closeControl(n)}
		}
	}
	return nil
}

// dismiss always attempts to close whatever the activation opened, then
// lets the page settle.
func (p *Prober) dismiss(ctx context.Context, ov *overlay) {
	dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dismissTimeout)
	defer cancel()

	var err error
	if ov != nil && ov.closePath != "" {
		err = p.surface.Click(dctx, ov.closePath)
	}
	if ov == nil || ov.closePath == "" || err != nil {
		err = p.surface.ClickBackdrop(dctx)
	}
	if err != nil {
		p.log.Debug().Err(err).Msg("Overlay dismissal failed")
	}
	sleep(dctx, p.cfg.Settle)
}

func (p *Prober) pace(ctx context.Context) {
	p.done++
	if p.cfg.PaceEvery > 0 && p.done%p.cfg.PaceEvery == 0 {
		sleep(ctx, p.cfg.PacePause)
	}
}

// signatures records what was visible before activation, so only newly
// shown regions qualify as the overlay.
type signatures struct {
	paths  map[string]bool
	modals map[string]bool
}

func visibleSignatures(doc *goquery.Document) signatures {
	sig := signatures{paths: make(map[string]bool), modals: make(map[string]bool)}
	for _, n := range indexDocument(doc).elements() {
		if isVisible(n) {
			sig.paths[cssPath(n)] = true
		}
	}
	doc.Find(modalSelector).Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		if isVisible(n) {
			sig.modals[cssPath(n)+"\x00"+visibleText(n)] = true
		}
	})
	return sig
}

// findOverlay prefers an explicit modal showing a price; otherwise it takes
// the largest newly visible block that reads like an item detail.
func findOverlay(doc *goquery.Document, seen signatures) *html.Node {
	var modal *html.Node
	doc.Find(modalSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		n := s.Get(0)
		if !isVisible(n) {
			return true
		}
		text := visibleText(n)
		if seen.modals[cssPath(n)+"\x00"+text] || !hasCurrency(text) {
			return true
		}
		modal = n
		return false
	})
	if modal != nil {
		return modal
	}

	var best *html.Node
	var bestScore float64
	doc.Find(overlayBlockSelector).Each(func(_ int, s *goquery.Selection) {
		n := s.Get(0)
		if seen.paths[cssPath(n)] || !isVisible(n) {
			return
		}
		text := visibleText(n)
		if len(text) < minOverlayText || len(text) > maxOverlayText {
			return
		}
		if !hasCurrency(text) || !stockLabel.MatchString(text) {
			return
		}
		score := float64(len(text))
		if w, h, ok := boxArea(n); ok {
			if w < minOverlayWidth || h < minOverlayHeight {
				return
			}
			score = w * h
		}
		if score > bestScore {
			best, bestScore = n, score
		}
	})
	return best
}

// closeControl finds a dismiss button inside the overlay.
func closeControl(n *html.Node) string {
	var path string
	goquery.NewDocumentFromNode(n).Find("button, a, [role='button'], [aria-label], [class*='close']").
		EachWithBreak(func(_ int, s *goquery.Selection) bool {
			c := s.Get(0)
			if !isVisible(c) {
				return true
			}
			label := strings.ToLower(s.AttrOr("aria-label", "") + " " + s.AttrOr("title", ""))
			class := strings.ToLower(s.AttrOr("class", ""))
			text := strings.ToLower(visibleText(c))
			if strings.Contains(label, "close") || strings.Contains(class, "close") || closeWords[text] {
				path = cssPath(c)
				return false
			}
			return true
		})
	return path
}

// readOverlay fills c's missing fields from the overlay text.
func readOverlay(n *html.Node, c Candidate) (Item, bool) {
	item := Item{Shop: c.Shop, Name: c.Name, Cost: c.Cost, Stock: c.Stock}
	text := visibleText(n)

	if item.Name == "" {
		item.Name = overlayName(n)
	}
	hasCost, hasStock := c.HasCost, c.HasStock
	if !hasCost {
		item.Cost, hasCost = ParseMoney(text)
	}
	if !hasStock {
		item.Stock, hasStock = parseStock(text)
	}

	if item.Name == "" || !hasCost || !hasStock {
		return Item{}, false
	}
	return item, true
}

func overlayName(n *html.Node) string {
	heading := goquery.NewDocumentFromNode(n).Find(headingNameSelector).First()
	if name := selectionText(heading); IsPlausibleName(name) {
		return name
	}
	for _, line := range textLines(n) {
		if closeWords[strings.ToLower(line)] || hasCurrency(line) || stockLabel.MatchString(line) {
			continue
		}
		if cleanName(line) == "" {
			continue
		}
		if IsPlausibleName(line) {
			return line
		}
	}
	return ""
}

// sleep waits for d or until ctx is done, reporting whether it waited.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
