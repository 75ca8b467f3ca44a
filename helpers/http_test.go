package helpers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchWithRandomHeaders(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		assert.NotEmpty(t, r.Header.Get("Accept"))
		assert.NotEmpty(t, r.Header.Get("Accept-Language"))
		assert.Equal(t, "sid=abc", r.Header.Get("Cookie"))
		assert.Equal(t, "https://www.torn.com/", r.Header.Get("referer"))

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<html><body>You are in Mexico</body></html>"))
	}))
	defer server.Close()

	reader, err := FetchWithRandomHeaders(context.Background(), server.URL, FetchOptions{
		Cookie:  "sid=abc",
		Referer: "https://www.torn.com/",
	})
	require.NoError(t, err)

	body, err := io.ReadAll(reader)
	assert.NoError(t, err)
	assert.Contains(t, string(body), "You are in Mexico")
}

func TestFetchWithRandomHeadersOmitsEmptyOptions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Cookie"))
		assert.Empty(t, r.Header.Get("referer"))
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	_, err := FetchWithRandomHeaders(context.Background(), server.URL, FetchOptions{})
	assert.NoError(t, err)
}

func TestFetchWithRandomHeadersNonUTF8(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=iso-8859-1")
		w.WriteHeader(http.StatusOK)
		// "Café $5" with é as 0xE9 in ISO-8859-1
		w.Write([]byte("<html><body>Caf\xe9 $5</body></html>"))
	}))
	defer server.Close()

	reader, err := FetchWithRandomHeaders(context.Background(), server.URL, FetchOptions{})
	require.NoError(t, err)

	body, err := io.ReadAll(reader)
	assert.NoError(t, err)
	assert.Contains(t, string(body), "Café $5")
}

func TestFetchWithRandomHeadersError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := FetchWithRandomHeaders(context.Background(), server.URL, FetchOptions{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status code: 500")

	serverRateLimited := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer serverRateLimited.Close()

	_, err = FetchWithRandomHeaders(context.Background(), serverRateLimited.URL, FetchOptions{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
}

func TestFetchWithRandomHeadersCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := FetchWithRandomHeaders(ctx, server.URL, FetchOptions{})
	assert.Error(t, err)
}

func TestFetchWithRandomHeadersInvalidURL(t *testing.T) {
	_, err := FetchWithRandomHeaders(context.Background(), "http://invalid.url.that.does.not.exist", FetchOptions{})
	assert.Error(t, err)
}
