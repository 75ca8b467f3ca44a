// Package uploader sends extracted batches to the collector.
package uploader

import (
	"context"
	"errors"
	"net"
	"time"

	"droqsdb/overseasreporter/internal/extract"
	"droqsdb/overseasreporter/logger"
	apperrors "droqsdb/overseasreporter/pkg/errors"

	"github.com/go-resty/resty/v2"
)

// DefaultMaxItems is the collector's per-report item limit
const DefaultMaxItems = 300

// Uploader delivers one location's items to the collector
type Uploader interface {
	Upload(ctx context.Context, loc extract.Location, items []extract.Item) error
}

// Payload is the report body
type Payload struct {
	Location extract.Location `json:"location"`
	Items    []extract.Item   `json:"items"`
}

// Config configures the HTTP uploader
type Config struct {
	Endpoint string
	Timeout  time.Duration
	MaxItems int
	ClientID string
}

// HTTPUploader posts reports as JSON
type HTTPUploader struct {
	client   *resty.Client
	endpoint string
	maxItems int
	log      *logger.Logger
}

// NewHTTPUploader creates an uploader for cfg.Endpoint
func NewHTTPUploader(cfg Config) *HTTPUploader {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = DefaultMaxItems
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}

	client := resty.New()
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("Content-Type", "application/json")
	if cfg.ClientID != "" {
		client.SetHeader("X-Client", cfg.ClientID)
	}

	return &HTTPUploader{
		client:   client,
		endpoint: cfg.Endpoint,
		maxItems: cfg.MaxItems,
		log:      logger.ForUploader(),
	}
}

// Upload posts {location, items}, truncating items to the configured limit.
// Failures are *errors.ReportError values whose Reason is one of
// "HTTP <status>", "Timeout" or "Network error".
func (u *HTTPUploader) Upload(ctx context.Context, loc extract.Location, items []extract.Item) error {
	if len(items) > u.maxItems {
		u.log.Warn().
			Int("items", len(items)).
			Int("max_items", u.maxItems).
			Msg("Truncating report")
		items = items[:u.maxItems]
	}

	start := time.Now()
	res, err := u.client.R().
		SetContext(ctx).
		SetBody(Payload{Location: loc, Items: items}).
		Post(u.endpoint)
	if err != nil {
		return classify(err)
	}
	if !res.IsSuccess() {
		return apperrors.NewHTTP("uploader", res.StatusCode())
	}

	u.log.Debug().
		Str("location", string(loc)).
		Int("items", len(items)).
		Int("status", res.StatusCode()).
		Dur("elapsed", time.Since(start)).
		Msg("Report accepted")
	return nil
}

func classify(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return apperrors.NewTimeout("uploader", "report timed out", err)
	}
	return apperrors.NewNetwork("uploader", "report failed", err)
}
