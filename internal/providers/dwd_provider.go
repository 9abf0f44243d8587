package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"dwdcdc/internal/common"
	"dwdcdc/internal/constants"
	"dwdcdc/internal/dataset"
	"dwdcdc/internal/logging"
	"dwdcdc/internal/metrics"
)

// DWDProviderConfig bundles the transport settings of the archive client
type DWDProviderConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Retries           int
	RetryBackoff      time.Duration
	ListingCacheTTL   time.Duration
}

// DWDProvider reads the DWD Climate Data Center over HTTPS
type DWDProvider struct {
	BaseURL string
	Client  *http.Client

	retries  int
	backoff  time.Duration
	limiter  *rate.Limiter
	circuit  *gobreaker.CircuitBreaker
	cache    common.CacheInterface
	cacheTTL time.Duration
	metrics  *metrics.MetricsRegistry
}

// Ensure DWDProvider implements Archive
var _ Archive = (*DWDProvider)(nil)

// NewDWDProvider creates an archive client. cache and m may be nil.
func NewDWDProvider(cfg DWDProviderConfig, cache common.CacheInterface, m *metrics.MetricsRegistry) *DWDProvider {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 3 * time.Second
	}
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "dwd-archive",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     2 * time.Minute,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn("Circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &DWDProvider{
		BaseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		Client:   &http.Client{Timeout: cfg.Timeout},
		retries:  cfg.Retries,
		backoff:  cfg.RetryBackoff,
		limiter:  rate.NewLimiter(limit, 1),
		circuit:  cb,
		cache:    cache,
		cacheTTL: cfg.ListingCacheTTL,
		metrics:  m,
	}
}

// ============================================================================
// Archive
// ============================================================================

// List returns the file names of dir, filtered by station when stations are given
func (p *DWDProvider) List(ctx context.Context, d dataset.Descriptor, dir string, stations ...int) ([]string, error) {
	names, err := p.listDir(ctx, dir)
	if err != nil {
		return nil, err
	}
	return FilterByStation(d, names, stations), nil
}

// Download returns the content of the file at path relative to the base URL
func (p *DWDProvider) Download(ctx context.Context, path string) ([]byte, error) {
	start := time.Now()
	body, err := p.get(ctx, path)
	p.metrics.RemoteRequest("download", outcome(err), time.Since(start))
	return body, err
}

func (p *DWDProvider) listDir(ctx context.Context, dir string) ([]string, error) {
	dir = strings.Trim(dir, "/")
	load := func(ctx context.Context) ([]string, error) {
		start := time.Now()
		body, err := p.get(ctx, dir+"/")
		p.metrics.RemoteRequest("list", outcome(err), time.Since(start))
		if err != nil {
			return nil, err
		}
		return parseAutoindex(string(body)), nil
	}

	if p.cache == nil || p.cacheTTL <= 0 {
		return load(ctx)
	}

	key := common.ListingKey(dir)
	if names, ok := p.cache.Get(ctx, key); ok {
		p.metrics.CacheLookup("listing", true)
		return names, nil
	}
	p.metrics.CacheLookup("listing", false)
	return p.cache.GetOrSet(ctx, key, p.cacheTTL, load)
}

// ============================================================================
// HTTP Helper Methods
// ============================================================================

// get fetches path with pacing, bounded retries and the circuit breaker
func (p *DWDProvider) get(ctx context.Context, path string) ([]byte, error) {
	var lastErr *TransportError

	for attempt := 0; ; attempt++ {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, newTransportError(constants.ErrCodeNetworkError, path, 0, err)
		}

		body, err := p.attempt(ctx, path)
		if err == nil {
			return body, nil
		}

		lastErr = err
		p.metrics.TransportError(err.Code)
		if !err.Retryable || attempt >= p.retries {
			return nil, lastErr
		}

		logging.Warn("Remote request failed, retrying",
			"path", path,
			"attempt", attempt+1,
			"code", err.Code,
			"error", err.Error(),
		)

		timer := time.NewTimer(p.backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, newTransportError(constants.ErrCodeNetworkError, path, 0, ctx.Err())
		case <-timer.C:
		}
	}
}

func (p *DWDProvider) attempt(ctx context.Context, path string) ([]byte, *TransportError) {
	url := p.BaseURL + "/" + strings.TrimLeft(path, "/")

	result, err := p.circuit.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, newTransportError(constants.ErrCodeNetworkError, path, 0, err)
		}

		resp, err := p.Client.Do(req)
		if err != nil {
			return nil, newTransportError(constants.ErrCodeNetworkError, path, 0, err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, newTransportError(constants.ErrCodeNetworkError, path, resp.StatusCode, err)
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return body, nil
		case resp.StatusCode == http.StatusTooManyRequests:
			return nil, newTransportError(constants.ErrCodeRateLimited, path, resp.StatusCode, nil)
		case resp.StatusCode >= 500:
			return nil, newTransportError(constants.ErrCodeRemoteStatus, path, resp.StatusCode,
				fmt.Errorf("HTTP %d", resp.StatusCode))
		case resp.StatusCode == http.StatusNotFound:
			// the archive answered; do not count against the breaker
			return httpStatusResult{code: constants.ErrCodeRemoteNotFound, status: resp.StatusCode}, nil
		default:
			return httpStatusResult{code: constants.ErrCodeRemoteStatus, status: resp.StatusCode}, nil
		}
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, newTransportError(constants.ErrCodeCircuitOpen, path, 0, err)
		}
		var te *TransportError
		if errors.As(err, &te) {
			return nil, te
		}
		return nil, newTransportError(constants.ErrCodeNetworkError, path, 0, err)
	}

	switch r := result.(type) {
	case []byte:
		return r, nil
	case httpStatusResult:
		return nil, newTransportError(r.code, path, r.status, fmt.Errorf("HTTP %d", r.status))
	default:
		return nil, newTransportError(constants.ErrCodeNetworkError, path, 0, fmt.Errorf("unexpected result type %T", result))
	}
}

type httpStatusResult struct {
	code   string
	status int
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
