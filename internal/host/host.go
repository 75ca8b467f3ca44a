// Package host provides the live documents an extraction pass reads from.
package host

import (
	"context"
	"errors"
	"strings"
	"sync"

	"droqsdb/overseasreporter/internal/extract"

	"github.com/PuerkitoBio/goquery"
)

// ErrNotInteractive is returned by hosts that serve a document they cannot
// click on.
var ErrNotInteractive = errors.New("host does not support interaction")

// Host is a document source that also announces content changes.
type Host interface {
	extract.Surface

	// Changes signals after the document content changed. Signals may be
	// coalesced; receivers must re-read the document rather than count them.
	Changes() <-chan struct{}

	// Close releases the host's resources
	Close() error
}

// notifier coalesces change signals into a one-slot channel.
type notifier struct {
	ch chan struct{}
}

func newNotifier() notifier {
	return notifier{ch: make(chan struct{}, 1)}
}

func (n notifier) notify() {
	select {
	case n.ch <- struct{}{}:
	default:
	}
}

func (n notifier) Changes() <-chan struct{} {
	return n.ch
}

func parse(markup string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(markup))
}

// Static serves an in-memory document. Replacing the markup counts as a
// change.
type Static struct {
	notifier
	mu     sync.RWMutex
	markup string
}

// NewStatic creates a static host holding markup
func NewStatic(markup string) *Static {
	return &Static{notifier: newNotifier(), markup: markup}
}

// SetHTML replaces the document and signals a change
func (s *Static) SetHTML(markup string) {
	s.mu.Lock()
	s.markup = markup
	s.mu.Unlock()
	s.notify()
}

// Snapshot parses the current markup
func (s *Static) Snapshot(ctx context.Context) (*goquery.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	markup := s.markup
	s.mu.RUnlock()
	return parse(markup)
}

// Click is unsupported on a static document
func (s *Static) Click(ctx context.Context, selector string) error {
	return ErrNotInteractive
}

// ClickBackdrop is unsupported on a static document
func (s *Static) ClickBackdrop(ctx context.Context) error {
	return ErrNotInteractive
}

// Close is a no-op
func (s *Static) Close() error {
	return nil
}
