package feed

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/go-playground/validator/v10"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/riskibarqy/matchsync/internal/domain/match"
	"github.com/riskibarqy/matchsync/internal/domain/tournament"
	"github.com/riskibarqy/matchsync/internal/platform/logging"
	"github.com/riskibarqy/matchsync/internal/platform/resilience"
	"github.com/riskibarqy/matchsync/internal/usecase"
)

const (
	viewUpcoming  = "upcoming"
	viewCompleted = "completed"

	maxBodyBytes = 8 << 20
)

var errFeedTransient = crerr.New("feed transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	BaseURL        string
	Token          string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads match and tournament snapshots from the extraction feed.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	token          string
	retry          resilience.RetryPolicy
	logger         *logging.Logger
	breaker        *resilience.CircuitBreaker
	circuitEnabled bool
	flight         resilience.SingleFlight[[]byte]
	validate       *validator.Validate
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = 15 * time.Second
	}

	breakerCfg := resilience.NormalizeCircuitBreakerConfig(cfg.CircuitBreaker)
	breaker := resilience.NewCircuitBreaker("feed", breakerCfg)
	breaker.OnStateChange(func(name string, from, to resilience.CircuitState) {
		logger.Warn("circuit breaker state changed", "breaker", name, "from", from, "to", to)
	})

	return &Client{
		httpClient:     httpClient,
		baseURL:        strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:          strings.TrimSpace(cfg.Token),
		retry:          resilience.RetryPolicy{MaxAttempts: max(cfg.MaxRetries, 0) + 1, Backoff: time.Second},
		logger:         logger,
		breaker:        breaker,
		circuitEnabled: breakerCfg.Enabled,
		validate:       validator.New(),
	}
}

func (c *Client) FetchUpcoming(ctx context.Context, game string) ([]match.Snapshot, error) {
	return c.fetchMatches(ctx, game, viewUpcoming)
}

func (c *Client) FetchCompleted(ctx context.Context, game string) ([]match.Snapshot, error) {
	return c.fetchMatches(ctx, game, viewCompleted)
}

func (c *Client) FetchTournaments(ctx context.Context, game string) ([]tournament.Tournament, error) {
	game = strings.TrimSpace(game)
	if game == "" {
		return nil, fmt.Errorf("%w: game is required", usecase.ErrInvalidInput)
	}

	var envelope tournamentsEnvelope
	if err := c.getJSON(ctx, "/v1/"+url.PathEscape(game)+"/tournaments", nil, &envelope); err != nil {
		return nil, fmt.Errorf("fetch tournaments game=%s: %w", game, err)
	}

	out := make([]tournament.Tournament, 0, len(envelope.Data))
	for _, item := range envelope.Data {
		if err := c.validate.StructCtx(ctx, item); err != nil {
			c.logger.WarnContext(ctx, "skip invalid tournament from feed", "game", game, "name", item.Name, "error", err)
			continue
		}
		out = append(out, item.toDomain(game))
	}
	return out, nil
}

func (c *Client) fetchMatches(ctx context.Context, game, view string) ([]match.Snapshot, error) {
	game = strings.TrimSpace(game)
	if game == "" {
		return nil, fmt.Errorf("%w: game is required", usecase.ErrInvalidInput)
	}

	var envelope matchesEnvelope
	query := url.Values{"view": []string{view}}
	if err := c.getJSON(ctx, "/v1/"+url.PathEscape(game)+"/matches", query, &envelope); err != nil {
		return nil, fmt.Errorf("fetch %s matches game=%s: %w", view, game, err)
	}

	out := make([]match.Snapshot, 0, len(envelope.Data))
	skipped := 0
	for _, item := range envelope.Data {
		if err := c.validate.StructCtx(ctx, item); err != nil {
			skipped++
			c.logger.DebugContext(ctx, "skip invalid match from feed", "game", game, "view", view, "id", item.ID, "error", err)
			continue
		}
		out = append(out, item.toDomain(game))
	}
	if skipped > 0 {
		c.logger.WarnContext(ctx, "feed returned invalid matches", "game", game, "view", view, "skipped", skipped)
	}
	return out, nil
}

// getJSON decodes one feed document. Identical concurrent reads share one
// request.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, target any) error {
	if c.baseURL == "" {
		return fmt.Errorf("%w: feed base url is not configured", usecase.ErrDependencyUnavailable)
	}

	fullURL := c.baseURL + path
	if encoded := query.Encode(); encoded != "" {
		fullURL += "?" + encoded
	}

	raw, err, _ := c.flight.Do(fullURL, func() ([]byte, error) {
		return c.fetch(ctx, fullURL)
	})
	if err != nil {
		return err
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode feed payload: %w", err)
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, fullURL string) ([]byte, error) {
	var raw []byte
	call := func(ctx context.Context) error {
		return resilience.Retry(ctx, c.retry, isTransient, func(ctx context.Context, attempt int) error {
			body, err := c.executeRequest(ctx, fullURL)
			if err != nil {
				c.logger.DebugContext(ctx, "feed request attempt failed", "url", fullURL, "attempt", attempt, "error", err)
				return err
			}
			raw = body
			return nil
		})
	}

	var err error
	if c.circuitEnabled {
		var permanent error
		err = c.breaker.Execute(ctx, func(ctx context.Context) error {
			callErr := call(ctx)
			if callErr != nil && !isTransient(callErr) {
				// The feed answered; only transient failures trip the breaker.
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
		return raw, nil
	case stderrors.Is(err, resilience.ErrCircuitOpen):
		c.logger.WarnContext(ctx, "feed circuit breaker rejected request", "state", c.breaker.State())
		return nil, fmt.Errorf("%w: snapshot feed is temporarily unavailable", usecase.ErrDependencyUnavailable)
	case isTransient(err):
		c.logger.WarnContext(ctx, "feed request failed", "url", fullURL, "error", err)
		return nil, fmt.Errorf("%w: %v", usecase.ErrDependencyUnavailable, err)
	default:
		return nil, err
	}
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("accept", "application/json")
	if c.token != "" {
		req.Header.Set("authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: send request: %v", errFeedTransient, err)
	}
	defer resp.Body.Close()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	if _, err := buf.ReadFrom(io.LimitReader(resp.Body, maxBodyBytes)); err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", errFeedTransient, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if isRetryableStatus(resp.StatusCode) {
			return nil, fmt.Errorf("%w: feed status=%d body=%s", errFeedTransient, resp.StatusCode, abbreviateBody(buf.B))
		}
		return nil, fmt.Errorf("feed status=%d body=%s", resp.StatusCode, abbreviateBody(buf.B))
	}

	return append([]byte(nil), buf.B...), nil
}

func isTransient(err error) bool {
	return stderrors.Is(err, errFeedTransient)
}

func isRetryableStatus(code int) bool {
	return code == http.StatusRequestTimeout ||
		code == http.StatusTooManyRequests ||
		code >= http.StatusInternalServerError
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}
