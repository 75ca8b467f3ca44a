package host

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatic(t *testing.T) {
	s := NewStatic(`<html><body><h4>Mexico</h4></body></html>`)
	var _ Host = s

	doc, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Mexico", doc.Find("h4").Text())

	select {
	case <-s.Changes():
		t.Fatal("no change expected before SetHTML")
	default:
	}

	s.SetHTML(`<html><body><h4>Canada</h4></body></html>`)
	s.SetHTML(`<html><body><h4>Japan</h4></body></html>`)

	select {
	case <-s.Changes():
	case <-time.After(time.Second):
		t.Fatal("expected a change signal")
	}
	select {
	case <-s.Changes():
		t.Fatal("signals should coalesce")
	default:
	}

	doc, err = s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Japan", doc.Find("h4").Text())

	assert.ErrorIs(t, s.Click(context.Background(), "h4"), ErrNotInteractive)
	assert.ErrorIs(t, s.ClickBackdrop(context.Background()), ErrNotInteractive)
	assert.NoError(t, s.Close())
}

func TestStaticCancelledSnapshot(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStatic("<html></html>").Snapshot(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchSignalsOnContentChange(t *testing.T) {
	var version atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if version.Load() == 0 {
			w.Write([]byte(`<html><body><h4>Mexico</h4></body></html>`))
			return
		}
		w.Write([]byte(`<html><body><h4>Canada</h4></body></html>`))
	}))
	defer server.Close()

	f := NewFetch(context.Background(), FetchConfig{URL: server.URL, Interval: 20 * time.Millisecond})
	defer f.Close()
	var _ Host = f

	select {
	case <-f.Changes():
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change after the first fetch")
	}

	doc, err := f.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Mexico", doc.Find("h4").Text())

	// Same content on the next polls: no signal
	select {
	case <-f.Changes():
		t.Fatal("unchanged content should not signal")
	case <-time.After(100 * time.Millisecond):
	}

	version.Store(1)
	select {
	case <-f.Changes():
	case <-time.After(2 * time.Second):
		t.Fatal("expected a change after content changed")
	}

	doc, err = f.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Canada", doc.Find("h4").Text())

	assert.ErrorIs(t, f.Click(context.Background(), "h4"), ErrNotInteractive)
}

func TestFetchSnapshotFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	f := NewFetch(context.Background(), FetchConfig{URL: server.URL, Interval: time.Hour})
	defer f.Close()

	_, err := f.Snapshot(context.Background())
	assert.Error(t, err)
}

func TestQuote(t *testing.T) {
	assert.Equal(t, `"div > a:nth-child(2)"`, quote("div > a:nth-child(2)"))
	assert.Equal(t, `"say \"hi\""`, quote(`say "hi"`))
}
