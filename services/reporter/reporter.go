// Package reporter decides whether an extracted batch is worth uploading
// and drives the upload, cooldown and status collaborators.
package reporter

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"droqsdb/overseasreporter/internal/extract"
	"droqsdb/overseasreporter/logger"
	apperrors "droqsdb/overseasreporter/pkg/errors"
	"droqsdb/overseasreporter/services/cooldown"
	"droqsdb/overseasreporter/services/publisher"
	"droqsdb/overseasreporter/services/status"
	"droqsdb/overseasreporter/services/uploader"
)

// Status lines
const (
	StatusUploading = "Uploading…"
	StatusUploaded  = "Uploaded ✓ %d items"
	StatusFailed    = "Upload Failed %s"
)

const mirrorTimeout = 5 * time.Second

// Outcome describes what Report did with a batch
type Outcome int

const (
	// OutcomeInvalid means the batch had no location or no items
	OutcomeInvalid Outcome = iota
	// OutcomeUnchanged means the batch matched the last one seen
	OutcomeUnchanged
	// OutcomeCooldown means the location was reported too recently
	OutcomeCooldown
	// OutcomeUploaded means the collector accepted the batch
	OutcomeUploaded
	// OutcomeFailed means the upload failed
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInvalid:
		return "invalid"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeCooldown:
		return "cooldown"
	case OutcomeUploaded:
		return "uploaded"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Reporter uploads batches that changed since the last pass. It remembers
// only the last fingerprint, for the life of the process.
type Reporter struct {
	uploader uploader.Uploader
	cooldown cooldown.Store
	status   status.Presenter
	mirror   publisher.Publisher

	last string
	log  *logger.Logger
}

// NewReporter creates a reporter. mirror may be nil.
func NewReporter(up uploader.Uploader, cd cooldown.Store, st status.Presenter, mirror publisher.Publisher) *Reporter {
	return &Reporter{
		uploader: up,
		cooldown: cd,
		status:   st,
		mirror:   mirror,
		log:      logger.ForReporter(),
	}
}

// Report gates b on change and cooldown, then uploads it. It is not safe
// for concurrent use; the worker calls it from one pass at a time.
func (r *Reporter) Report(ctx context.Context, b extract.Batch) Outcome {
	if !b.Valid() {
		return OutcomeInvalid
	}

	fp := Fingerprint(b)
	if fp == r.last {
		r.log.Debug().Str("location", string(b.Location)).Msg("Batch unchanged, suppressed")
		return OutcomeUnchanged
	}

	recent, err := r.cooldown.Recent(ctx, b.Location)
	if err != nil {
		r.log.Warn().Err(err).Msg("Cooldown lookup failed, reporting anyway")
	} else if recent {
		r.log.Debug().Str("location", string(b.Location)).Msg("Location in cooldown, suppressed")
		return OutcomeCooldown
	}

	r.last = fp
	r.status.Show(StatusUploading)

	if err := r.uploader.Upload(ctx, b.Location, b.Items); err != nil {
		r.log.Warn().
			Err(err).
			Str("location", string(b.Location)).
			Int("items", len(b.Items)).
			Msg("Upload failed")
		r.status.Show(fmt.Sprintf(StatusFailed, apperrors.Reason(err)))
		return OutcomeFailed
	}

	if err := r.cooldown.Mark(ctx, b.Location); err != nil {
		r.log.Warn().Err(err).Msg("Cooldown mark failed")
	}

	breakdown := Breakdown(b.Items)
	r.log.Info().
		Str("location", string(b.Location)).
		Str("tier", string(b.Tier)).
		Int("items", len(b.Items)).
		Str("breakdown", breakdown).
		Msg("Batch uploaded")
	message := fmt.Sprintf(StatusUploaded, len(b.Items))
	if breakdown != "" {
		message += " (" + breakdown + ")"
	}
	r.status.Show(message)

	r.publish(ctx, b)
	return OutcomeUploaded
}

// mirrorRecord is the stream copy of an accepted batch.
type mirrorRecord struct {
	Location   extract.Location `json:"location"`
	Tier       extract.Tier     `json:"tier"`
	Items      []extract.Item   `json:"items"`
	ReportedAt time.Time        `json:"reported_at"`
}

func (r *Reporter) publish(ctx context.Context, b extract.Batch) {
	if r.mirror == nil {
		return
	}
	data, err := json.Marshal(mirrorRecord{
		Location:   b.Location,
		Tier:       b.Tier,
		Items:      b.Items,
		ReportedAt: time.Now().UTC(),
	})
	if err != nil {
		r.log.Error().Err(err).Msg("Mirror encoding failed")
		return
	}
	mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), mirrorTimeout)
	defer cancel()
	if err := r.mirror.Publish(mctx, string(b.Location), data); err != nil {
		r.log.Warn().Err(err).Msg("Mirror publish failed")
	}
}

// Breakdown counts items per shop, known shops first, as
// "General Store: 3 | Black Market: 2".
func Breakdown(items []extract.Item) string {
	counts := make(map[string]int)
	var extra []string
	for _, it := range items {
		if counts[it.Shop] == 0 && !slices.Contains(extract.ShopCategories, it.Shop) {
			extra = append(extra, it.Shop)
		}
		counts[it.Shop]++
	}

	var parts []string
	for _, shop := range append(append([]string{}, extract.ShopCategories...), extra...) {
		if n := counts[shop]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s: %d", shop, n))
		}
	}
	return strings.Join(parts, " | ")
}
