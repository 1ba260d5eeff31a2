package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/jonesrussell/pricewatch/internal/logger"
)

// Error types for the fetcher package.
var (
	// ErrFetchExhausted is returned when all retries for a URL are spent.
	// Callers must treat it as fatal for the page, not for the whole run.
	ErrFetchExhausted = errors.New("fetch retries exhausted")

	// ErrBotDefense is returned when a response body matches a bot-defense marker.
	ErrBotDefense = errors.New("bot defense detected")
)

// statusOKLow / statusOKHigh bound the accepted HTTP status range.
const (
	statusOKLow  = 200
	statusOKHigh = 299
)

// Fetcher issues rate-limited, retried HTTP GET requests with user-agent
// rotation and bot-defense detection. Each agent owns its own Fetcher, so
// request budgets are per-agent rather than process-wide.
type Fetcher struct {
	httpClient *http.Client
	log        logger.Interface
	cfg        Config
	backoff    time.Duration

	mu           sync.Mutex
	windowStart  time.Time
	requestCount int
	rng          *rand.Rand
}

// New creates a Fetcher with the given configuration.
func New(cfg Config, log logger.Interface) *Fetcher {
	cfg = cfg.withDefaults()
	return &Fetcher{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		log:        log,
		cfg:        cfg,
		backoff:    backoffBase,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Fetch retrieves the page body for the given URL. Transport failures,
// non-2xx responses and bot-defense pages are retried with exponential
// backoff up to the configured cap; exhaustion returns ErrFetchExhausted.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= f.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt)) * f.backoff
			f.log.Warn("retrying fetch",
				"url", url,
				"attempt", attempt,
				"backoff", backoff,
				"error", lastErr,
			)
			if sleepErr := sleepContext(ctx, backoff); sleepErr != nil {
				return "", sleepErr
			}
		}

		if throttleErr := f.throttle(ctx); throttleErr != nil {
			return "", throttleErr
		}

		body, fetchErr := f.doRequest(ctx, url)
		if fetchErr != nil {
			lastErr = fetchErr
			continue
		}

		if marker, detected := detectBotDefense(body); detected {
			lastErr = fmt.Errorf("%w: matched %q", ErrBotDefense, marker)
			continue
		}

		return body, nil
	}

	return "", fmt.Errorf("%w for %s: %w", ErrFetchExhausted, url, lastErr)
}

// throttle enforces the request budget and the inter-request jitter.
// If the budget for the current window is spent, it sleeps until the
// window resets before admitting the request.
func (f *Fetcher) throttle(ctx context.Context) error {
	f.mu.Lock()
	now := time.Now()

	if f.windowStart.IsZero() || now.Sub(f.windowStart) >= f.cfg.Window {
		f.windowStart = now
		f.requestCount = 0
	}

	var wait time.Duration
	if f.requestCount >= f.cfg.RequestsPerMinute {
		wait = f.cfg.Window - now.Sub(f.windowStart)
	}

	if wait > 0 {
		f.mu.Unlock()
		f.log.Debug("request budget exhausted, waiting for window reset", "wait", wait)
		if sleepErr := sleepContext(ctx, wait); sleepErr != nil {
			return sleepErr
		}
		f.mu.Lock()
		f.windowStart = time.Now()
		f.requestCount = 0
	}

	f.requestCount++
	jitter := f.jitter()
	f.mu.Unlock()

	if jitter > 0 {
		return sleepContext(ctx, jitter)
	}
	return nil
}

// jitter picks a randomized delay in [MinDelay, MaxDelay].
// Callers must hold f.mu.
func (f *Fetcher) jitter() time.Duration {
	if f.cfg.MaxDelay <= 0 {
		return 0
	}
	spread := f.cfg.MaxDelay - f.cfg.MinDelay
	if spread <= 0 {
		return f.cfg.MinDelay
	}
	return f.cfg.MinDelay + time.Duration(f.rng.Int63n(int64(spread)))
}

// doRequest performs a single HTTP GET with a randomly rotated user agent.
func (f *Fetcher) doRequest(ctx context.Context, url string) (string, error) {
	req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if reqErr != nil {
		return "", fmt.Errorf("create request: %w", reqErr)
	}

	req.Header.Set("User-Agent", f.userAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, doErr := f.httpClient.Do(req)
	if doErr != nil {
		return "", fmt.Errorf("http fetch: %w", doErr)
	}
	defer resp.Body.Close()

	if resp.StatusCode < statusOKLow || resp.StatusCode > statusOKHigh {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBodyBytes))
		return "", fmt.Errorf("unexpected http status %d", resp.StatusCode)
	}

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if readErr != nil {
		return "", fmt.Errorf("read response body: %w", readErr)
	}

	return string(body), nil
}

// userAgent returns a uniformly random user agent from the pool.
func (f *Fetcher) userAgent() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return userAgents[f.rng.Intn(len(userAgents))]
}

// detectBotDefense reports whether the body looks like a bot-defense page
// and which marker matched.
func detectBotDefense(body string) (string, bool) {
	lower := strings.ToLower(body)
	for _, marker := range botDefenseMarkers {
		if strings.Contains(lower, marker) {
			return marker, true
		}
	}
	return "", false
}

// sleepContext sleeps for d or returns the context error if cancelled first.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
