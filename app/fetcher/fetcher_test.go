package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lysyi3m/memo-comb/app/memo"
)

func testConfig() Config {
	return Config{
		UserAgent:  "memo-comb-test/1.0",
		Timeout:    2 * time.Second,
		Retries:    2,
		RetryDelay: 5 * time.Millisecond,
	}
}

func TestFetch_ReturnsBodyAndContentType(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4 body"))
	}))
	defer server.Close()

	doc, err := New(testConfig()).Fetch(context.Background(), server.URL+"/infomemos?number=55")
	require.NoError(t, err)

	assert.Equal(t, "memo-comb-test/1.0", gotUserAgent)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.Equal(t, "%PDF-1.4 body", string(doc.Body))
	assert.Equal(t, server.URL+"/infomemos?number=55", doc.URL)
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	doc, err := New(testConfig()).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(doc.Body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetch_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	_, err := New(testConfig()).Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, memo.ErrFetch))
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetch_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := New(testConfig()).Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, memo.ErrFetch))
	assert.Contains(t, err.Error(), "503")
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetch_RejectsOversizedBody(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Write([]byte("%PDF-1.4 this body is longer than the limit"))
	}))
	defer server.Close()

	config := testConfig()
	config.MaxBody = 16

	_, err := New(config).Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, memo.ErrFetch))
	assert.Contains(t, err.Error(), "body too large")
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetch_AcceptsBodyAtLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("0123456789abcdef"))
	}))
	defer server.Close()

	config := testConfig()
	config.MaxBody = 16

	doc, err := New(config).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef", string(doc.Body))
}

func TestFetch_CanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(testConfig()).Fetch(ctx, server.URL)
	require.Error(t, err)
	assert.True(t, errors.Is(err, memo.ErrFetch))
}

func TestBackoff_Capped(t *testing.T) {
	assert.Equal(t, time.Second, backoff(time.Second, 1))
	assert.Equal(t, 4*time.Second, backoff(time.Second, 3))
	assert.Equal(t, 30*time.Second, backoff(time.Second, 10))
}
