package worker

import (
	"context"
	"time"

	"droqsdb/overseasreporter/internal/extract"
	"droqsdb/overseasreporter/logger"
	"droqsdb/overseasreporter/services/reporter"
)

// Extractor produces one batch per pass
type Extractor interface {
	Extract(ctx context.Context) extract.Batch
}

// Reporter consumes one batch per pass
type Reporter interface {
	Report(ctx context.Context, b extract.Batch) reporter.Outcome
}

// PassResult summarizes a finished pass
type PassResult struct {
	Batch   extract.Batch
	Outcome reporter.Outcome
	Elapsed time.Duration
}

// Worker turns change notifications into extraction passes. Notifications
// restart a debounce timer; when it fires a pass starts unless one is
// already running, in which case exactly one re-run is scheduled for after
// it finishes.
type Worker struct {
	changes   <-chan struct{}
	extractor Extractor
	reporter  Reporter
	debounce  time.Duration
	log       *logger.Logger

	// OnPass, when set, is called from the pass goroutine after each pass
	OnPass func(PassResult)
}

// NewWorker creates a new worker
func NewWorker(
	changes <-chan struct{},
	ex Extractor,
	rep Reporter,
	debounce time.Duration,
) *Worker {
	return &Worker{
		changes:   changes,
		extractor: ex,
		reporter:  rep,
		debounce:  debounce,
		log:       logger.ForWorker(),
	}
}

// Start runs the worker until ctx is cancelled. The first pass is scheduled
// immediately. Start waits for an in-flight pass before returning.
func (w *Worker) Start(ctx context.Context) {
	timer := time.NewTimer(0)
	defer timer.Stop()

	done := make(chan struct{}, 1)
	running, pending := false, false

	for {
		select {
		case <-ctx.Done():
			if running {
				<-done
			}
			w.log.Info().Msg("Worker stopped")
			return

		case <-w.changes:
			timer.Reset(w.debounce)

		case <-timer.C:
			if running {
				pending = true
				continue
			}
			running = true
			go func() {
				w.runPass(ctx)
				done <- struct{}{}
			}()

		case <-done:
			running = false
			if pending {
				pending = false
				timer.Reset(w.debounce)
			}
		}
	}
}

// runPass extracts and reports once
func (w *Worker) runPass(ctx context.Context) {
	start := time.Now()
	batch := w.extractor.Extract(ctx)
	outcome := reporter.OutcomeInvalid
	if ctx.Err() == nil {
		outcome = w.reporter.Report(ctx, batch)
	}
	elapsed := time.Since(start)

	w.log.Debug().
		Str("location", string(batch.Location)).
		Str("tier", string(batch.Tier)).
		Int("items", len(batch.Items)).
		Str("outcome", outcome.String()).
		Dur("elapsed", elapsed).
		Msg("Pass finished")

	if w.OnPass != nil {
		w.OnPass(PassResult{Batch: batch, Outcome: outcome, Elapsed: elapsed})
	}
}
