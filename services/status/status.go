// Package status presents short report outcomes to the person at the page.
package status

import (
	"context"
	"sync"
	"time"

	"droqsdb/overseasreporter/logger"
)

const badgeTimeout = 2 * time.Second

// Presenter shows and hides a single status line
type Presenter interface {
	Show(message string)
	Hide()
}

// Badge is an on-page status element, as drawn by the Chrome host
type Badge interface {
	ShowBadge(ctx context.Context, text string) error
	HideBadge(ctx context.Context) error
}

// Display logs every status line, mirrors it to an optional badge, and hides
// it again after a quiet period.
type Display struct {
	mu        sync.Mutex
	current   string
	hideAfter time.Duration
	timer     *time.Timer
	gen       uint64
	badge     Badge
	log       *logger.Logger
}

// NewDisplay creates a display. A nil badge logs only; a zero hideAfter
// keeps lines until replaced.
func NewDisplay(hideAfter time.Duration, badge Badge) *Display {
	return &Display{
		hideAfter: hideAfter,
		badge:     badge,
		log:       logger.ForStatus(),
	}
}

// Show replaces the status line
func (d *Display) Show(message string) {
	d.mu.Lock()
	d.current = message
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	if d.hideAfter > 0 {
		d.timer = time.AfterFunc(d.hideAfter, func() { d.expire(gen) })
	}
	d.mu.Unlock()

	d.log.Info().Msg(message)
	if d.badge != nil {
		ctx, cancel := context.WithTimeout(context.Background(), badgeTimeout)
		defer cancel()
		if err := d.badge.ShowBadge(ctx, message); err != nil {
			d.log.Debug().Err(err).Msg("Badge update failed")
		}
	}
}

// Hide clears the status line
func (d *Display) Hide() {
	d.mu.Lock()
	d.current = ""
	d.gen++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	d.clearBadge()
}

// expire hides the line only if nothing replaced it since gen was shown.
func (d *Display) expire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen {
		d.mu.Unlock()
		return
	}
	d.current = ""
	d.timer = nil
	d.mu.Unlock()
	d.clearBadge()
}

func (d *Display) clearBadge() {
	if d.badge == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), badgeTimeout)
	defer cancel()
	if err := d.badge.HideBadge(ctx); err != nil {
		d.log.Debug().Err(err).Msg("Badge hide failed")
	}
}

// Current returns the visible status line, empty when hidden
func (d *Display) Current() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}
