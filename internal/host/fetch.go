package host

import (
	"context"
	"io"
	"sync"
	"time"

	"droqsdb/overseasreporter/helpers"
	"droqsdb/overseasreporter/logger"
	apperrors "droqsdb/overseasreporter/pkg/errors"

	"github.com/PuerkitoBio/goquery"
	"github.com/cespare/xxhash/v2"
)

// FetchConfig configures a polling HTTP host
type FetchConfig struct {
	URL      string
	Interval time.Duration
	Cookie   string
	Referer  string
}

// Fetch polls a page over plain HTTP and reports a change whenever the body
// digest differs from the last poll. It cannot interact with the page.
type Fetch struct {
	notifier
	cfg    FetchConfig
	log    *logger.Logger
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.RWMutex
	body   []byte
	digest uint64
}

// NewFetch creates a fetch host and starts polling until Close
func NewFetch(ctx context.Context, cfg FetchConfig) *Fetch {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Minute
	}
	ctx, cancel := context.WithCancel(ctx)
	f := &Fetch{
		notifier: newNotifier(),
		cfg:      cfg,
		log:      logger.ForHost("fetch"),
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go f.poll(ctx)
	return f
}

func (f *Fetch) poll(ctx context.Context) {
	defer close(f.done)

	ticker := time.NewTicker(f.cfg.Interval)
	defer ticker.Stop()

	for {
		if _, err := f.refresh(ctx); err != nil && ctx.Err() == nil {
			f.log.Warn().Err(err).Str("url", f.cfg.URL).Msg("Poll failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// refresh fetches the page and stores it, reporting whether it changed.
func (f *Fetch) refresh(ctx context.Context) (bool, error) {
	r, err := helpers.FetchWithRandomHeaders(ctx, f.cfg.URL, helpers.FetchOptions{
		Cookie:  f.cfg.Cookie,
		Referer: f.cfg.Referer,
	})
	if err != nil {
		return false, apperrors.NewHost("fetch", "page fetch failed", err)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return false, apperrors.NewHost("fetch", "page read failed", err)
	}

	digest := xxhash.Sum64(body)
	f.mu.Lock()
	changed := f.body == nil || digest != f.digest
	f.body, f.digest = body, digest
	f.mu.Unlock()

	if changed {
		f.log.Debug().Int("bytes", len(body)).Msg("Page content changed")
		f.notify()
	}
	return changed, nil
}

// Snapshot parses the last fetched body, fetching once if nothing has been
// stored yet.
func (f *Fetch) Snapshot(ctx context.Context) (*goquery.Document, error) {
	f.mu.RLock()
	body := f.body
	f.mu.RUnlock()

	if body == nil {
		if _, err := f.refresh(ctx); err != nil {
			return nil, err
		}
		f.mu.RLock()
		body = f.body
		f.mu.RUnlock()
	}
	return parse(string(body))
}

// Click is unsupported over plain HTTP
func (f *Fetch) Click(ctx context.Context, selector string) error {
	return ErrNotInteractive
}

// ClickBackdrop is unsupported over plain HTTP
func (f *Fetch) ClickBackdrop(ctx context.Context) error {
	return ErrNotInteractive
}

// Close stops polling
func (f *Fetch) Close() error {
	f.cancel()
	<-f.done
	return nil
}
