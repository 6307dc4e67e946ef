package fetcher

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/lysyi3m/memo-comb/app/memo"
)

const defaultMaxBodySize = 32 << 20

type Config struct {
	UserAgent  string
	Timeout    time.Duration // per attempt
	Retries    int           // extra attempts after the first
	Rate       float64       // requests per second, 0 for unlimited
	RetryDelay time.Duration // first backoff step, doubled per retry
	MaxBody    int64         // larger bodies are rejected
}

// Fetcher performs GET requests with a per-attempt timeout, capped
// exponential backoff between attempts and an optional request rate limit.
type Fetcher struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	config     Config
}

func New(config Config) *Fetcher {
	return NewWithClient(NewHTTPClient(config.Timeout), config)
}

func NewWithClient(httpClient *http.Client, config Config) *Fetcher {
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.Retries < 0 {
		config.Retries = 0
	}
	if config.RetryDelay <= 0 {
		config.RetryDelay = time.Second
	}
	if config.MaxBody <= 0 {
		config.MaxBody = defaultMaxBodySize
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if config.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.Rate), 1)
	}

	return &Fetcher{httpClient: httpClient, limiter: limiter, config: config}
}

func NewHTTPClient(timeout time.Duration) *http.Client {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        20,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: tr}
}

// Fetch returns the body of url. Every failure wraps memo.ErrFetch.
func (f *Fetcher) Fetch(ctx context.Context, url string) (memo.Document, error) {
	var lastErr error

	for attempt := 0; attempt <= f.config.Retries; attempt++ {
		if attempt > 0 {
			delay := backoff(f.config.RetryDelay, attempt)
			slog.Warn("Fetch retry scheduled", "url", url, "attempt", attempt, "delay", delay.String(), "error", lastErr)

			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return memo.Document{}, fmt.Errorf("%w: %v", memo.ErrFetch, ctx.Err())
			}
		}

		if err := f.limiter.Wait(ctx); err != nil {
			return memo.Document{}, fmt.Errorf("%w: %v", memo.ErrFetch, err)
		}

		doc, retryable, err := f.fetchOnce(ctx, url)
		if err == nil {
			return doc, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}

	return memo.Document{}, fmt.Errorf("%w: %v", memo.ErrFetch, lastErr)
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (memo.Document, bool, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(timeoutCtx, http.MethodGet, url, nil)
	if err != nil {
		return memo.Document{}, false, fmt.Errorf("failed to create request: %w", err)
	}

	if f.config.UserAgent != "" {
		req.Header.Set("User-Agent", f.config.UserAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return memo.Document{}, true, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return memo.Document{}, retryable, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBody+1))
	if err != nil {
		return memo.Document{}, true, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(data)) > f.config.MaxBody {
		return memo.Document{}, false, fmt.Errorf("body too large: more than %d bytes", f.config.MaxBody)
	}

	return memo.Document{
		URL:         url,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
	}, false, nil
}

// backoff doubles from base on every attempt and is capped at thirty seconds.
func backoff(base time.Duration, attempt int) time.Duration {
	delay := base * time.Duration(1<<uint(attempt-1))
	if delay > 30*time.Second {
		delay = 30 * time.Second
	}
	return delay
}
