package liquipedia

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	crerr "github.com/cockroachdb/errors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/riskibarqy/matchsync/internal/platform/cache"
	"github.com/riskibarqy/matchsync/internal/platform/logging"
	"github.com/riskibarqy/matchsync/internal/platform/resilience"
	"github.com/riskibarqy/matchsync/internal/usecase"
)

const (
	defaultBaseURL   = "https://liquipedia.net"
	defaultUserAgent = "matchsync/1.0"
	maxPageBytes     = 4 << 20
)

var errSourceTransient = crerr.New("source transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	UserAgent      string
	Timeout        time.Duration
	MaxRetries     int
	CacheTTL       time.Duration
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

type detailResult struct {
	detail usecase.MatchDetail
	found  bool
}

// Client loads match detail pages and reads the series score off them.
type Client struct {
	httpClient     *http.Client
	baseURL        *url.URL
	userAgent      string
	retry          resilience.RetryPolicy
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	cache          *cache.Store[detailResult]
}

func NewClient(cfg ClientConfig) (*Client, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	rawBase := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if rawBase == "" {
		rawBase = defaultBaseURL
	}
	baseURL, err := url.Parse(rawBase)
	if err != nil {
		return nil, crerr.Wrap(err, "invalid SOURCE_BASE_URL")
	}
	if baseURL.Scheme != "http" && baseURL.Scheme != "https" {
		return nil, crerr.Newf("SOURCE_BASE_URL %q uses unsupported scheme=%q", rawBase, baseURL.Scheme)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 10 * time.Second
	}

	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)
	breaker := resilience.NewCircuitBreaker("liquipedia", breakerCfg)
	breaker.OnStateChange(func(name string, from, to resilience.CircuitState) {
		logger.Warn("circuit breaker state changed", "breaker", name, "from", from, "to", to)
	})

	return &Client{
		httpClient:     httpClient,
		baseURL:        baseURL,
		userAgent:      userAgent,
		retry:          resilience.RetryPolicy{MaxAttempts: max(cfg.MaxRetries, 0) + 1, Backoff: time.Second},
		logger:         logger,
		breaker:        breaker,
		circuitEnabled: breakerCfg.Enabled,
		cache:          cache.NewStore[detailResult](cfg.CacheTTL),
	}, nil
}

// FetchDetail loads one detail page. Missing pages and pages without a
// plausible series score report found=false and are cached like hits.
func (c *Client) FetchDetail(ctx context.Context, detailURL string) (usecase.MatchDetail, bool, error) {
	fullURL, err := c.resolve(detailURL)
	if err != nil {
		return usecase.MatchDetail{}, false, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err)
	}

	result, err := c.cache.GetOrLoad(ctx, fullURL, func(ctx context.Context) (detailResult, error) {
		return c.load(ctx, fullURL)
	})
	if err != nil {
		return usecase.MatchDetail{}, false, err
	}
	return result.detail, result.found, nil
}

func (c *Client) resolve(detailURL string) (string, error) {
	detailURL = strings.TrimSpace(detailURL)
	if detailURL == "" {
		return "", fmt.Errorf("detail url is required")
	}
	ref, err := url.Parse(detailURL)
	if err != nil {
		return "", fmt.Errorf("parse detail url %q: %w", detailURL, err)
	}
	return c.baseURL.ResolveReference(ref).String(), nil
}

func (c *Client) load(ctx context.Context, fullURL string) (detailResult, error) {
	var page []byte
	call := func(ctx context.Context) error {
		return resilience.Retry(ctx, c.retry, isTransient, func(ctx context.Context, attempt int) error {
			body, err := c.executeRequest(ctx, fullURL)
			if err != nil {
				return err
			}
			page = body
			return nil
		})
	}

	var err error
	if c.circuitEnabled {
		var permanent error
		err = c.breaker.Execute(ctx, func(ctx context.Context) error {
			callErr := call(ctx)
			if callErr != nil && !isTransient(callErr) {
				permanent = callErr
				return nil
			}
			return callErr
		})
		if err == nil {
			err = permanent
		}
	} else {
		err = call(ctx)
	}

	switch {
	case err == nil:
	case stderrors.Is(err, resilience.ErrCircuitOpen):
		return detailResult{}, fmt.Errorf("%w: detail pages are temporarily unavailable", usecase.ErrDependencyUnavailable)
	default:
		c.logger.WarnContext(ctx, "detail page request failed", "url", fullURL, "error", err)
		return detailResult{}, err
	}
	if page == nil {
		return detailResult{}, nil
	}

	detail, found, err := ParseDetail(page)
	if err != nil {
		return detailResult{}, fmt.Errorf("parse detail page %s: %w", fullURL, err)
	}
	return detailResult{detail: detail, found: found}, nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: send request: %v", errSourceTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", errSourceTransient, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if isRetryableStatus(resp.StatusCode) {
			return nil, fmt.Errorf("%w: source status=%d", errSourceTransient, resp.StatusCode)
		}
		return nil, fmt.Errorf("source status=%d", resp.StatusCode)
	}
	return body, nil
}

func isTransient(err error) bool {
	return stderrors.Is(err, errSourceTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
}
