package apifootball

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/match-reconciler/internal/platform/logging"
	"github.com/riskibarqy/match-reconciler/internal/platform/resilience"
	"github.com/riskibarqy/match-reconciler/internal/usecase"
	"github.com/valyala/fasthttp"
)

const (
	defaultBaseURL  = "https://v3.football.api-sports.io"
	apiKeyHeader    = "x-apisports-key"
	rapidHostHeader = "x-rapidapi-host"
	rapidKeyHeader  = "x-rapidapi-key"
	maxBodySize     = 8 << 20
)

var errAPIFootballTransient = crerr.New("api-football transient failure")

type ClientConfig struct {
	HTTPClient *fasthttp.Client
	BaseURL    string
	APIKey     string
	// Host switches authentication to the RapidAPI gateway headers.
	Host           string
	Timeout        time.Duration
	MaxRetries     int
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client reads single-fixture documents from API-Football and maps them to match snapshots.
type Client struct {
	httpClient *fasthttp.Client
	baseURL    string
	apiKey     string
	host       string
	timeout    time.Duration
	maxRetries int
	logger     *logging.Logger
	guard      *resilience.Guard
	flight     resilience.SingleFlight[[]byte]
	retryDelay func(attempt int) time.Duration
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &fasthttp.Client{
			Name:                "match-reconciler",
			ReadTimeout:         timeout,
			WriteTimeout:        timeout,
			MaxResponseBodySize: maxBodySize,
		}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	guard := resilience.NewGuard(cfg.CircuitBreaker, resilience.IsMarked(errAPIFootballTransient)).
		OnStateChange(func(from, to resilience.CircuitState) {
			logger.Warn("api-football circuit breaker state changed", "from", from, "to", to)
		})

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		host:       strings.TrimSpace(cfg.Host),
		timeout:    timeout,
		maxRetries: max(cfg.MaxRetries, 0),
		logger:     logger,
		guard:      guard,
		retryDelay: func(attempt int) time.Duration { return time.Duration(attempt+1) * time.Second },
	}
}

// FetchMatchSnapshot loads /fixtures?id= with events, lineups and statistics embedded.
func (c *Client) FetchMatchSnapshot(ctx context.Context, fixtureExternalID int64) (usecase.ExternalMatchSnapshot, error) {
	if fixtureExternalID <= 0 {
		return usecase.ExternalMatchSnapshot{}, fmt.Errorf("%w: fixture id must be > 0", usecase.ErrInvalidInput)
	}

	var envelope fixturesEnvelope
	if err := c.doJSON(ctx, "/fixtures", map[string]string{"id": strconv.FormatInt(fixtureExternalID, 10)}, &envelope); err != nil {
		return usecase.ExternalMatchSnapshot{}, fmt.Errorf("fetch fixture id=%d: %w", fixtureExternalID, err)
	}
	if message := envelopeError(envelope.Errors); message != "" {
		return usecase.ExternalMatchSnapshot{}, fmt.Errorf("%w: fetch fixture id=%d: provider error: %s", usecase.ErrDependencyUnavailable, fixtureExternalID, message)
	}
	if len(envelope.Response) == 0 {
		return usecase.ExternalMatchSnapshot{}, fmt.Errorf("%w: fixture id=%d", usecase.ErrNotFound, fixtureExternalID)
	}

	return mapSnapshot(envelope.Response[0]), nil
}

func (c *Client) doJSON(ctx context.Context, path string, query map[string]string, target any) error {
	if err := c.guard.Allow(); err != nil {
		c.logger.WarnContext(ctx, "api-football circuit breaker rejected request", "state", c.guard.State())
		return fmt.Errorf("%w: match data provider is temporarily unavailable", usecase.ErrDependencyUnavailable)
	}

	args := fasthttp.AcquireArgs()
	for key, value := range query {
		args.Set(key, value)
	}
	fullURL := c.baseURL + path
	if encoded := args.String(); encoded != "" {
		fullURL += "?" + encoded
	}
	fasthttp.ReleaseArgs(args)

	raw, err, _ := c.flight.Do(fullURL, func() ([]byte, error) {
		body, reqErr := c.executeRequest(ctx, fullURL)
		c.guard.Record(reqErr)
		return body, reqErr
	})
	if err != nil {
		if stderrors.Is(err, errAPIFootballTransient) {
			return fmt.Errorf("%w: %v", usecase.ErrDependencyUnavailable, err)
		}
		return err
	}

	if err := sonic.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode provider payload: %w", err)
	}
	return nil
}

func (c *Client) executeRequest(ctx context.Context, fullURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		body, retry, err := c.doOnce(ctx, fullURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retry || attempt == c.maxRetries {
			break
		}

		timer := time.NewTimer(c.retryDelay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	c.logger.WarnContext(ctx, "api-football request failed", "url", fullURL, "error", lastErr)
	return nil, lastErr
}

// doOnce reports whether a failed attempt is worth retrying.
func (c *Client) doOnce(ctx context.Context, fullURL string) ([]byte, bool, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(fullURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.Set("Accept", "application/json")
	if c.host != "" {
		req.Header.Set(rapidHostHeader, c.host)
		req.Header.Set(rapidKeyHeader, c.apiKey)
	} else {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	deadline := time.Now().Add(c.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}

	if err := c.httpClient.DoDeadline(req, resp, deadline); err != nil {
		return nil, true, fmt.Errorf("%w: send request: %v", errAPIFootballTransient, err)
	}

	status := resp.StatusCode()
	body := append([]byte(nil), resp.Body()...)
	if status >= 200 && status < 300 {
		return body, false, nil
	}
	if isRetryableStatus(status) {
		return nil, true, fmt.Errorf("%w: provider status=%d body=%s", errAPIFootballTransient, status, abbreviateBody(body))
	}
	return nil, false, fmt.Errorf("provider status=%d body=%s", status, abbreviateBody(body))
}

func isRetryableStatus(code int) bool {
	return code == fasthttp.StatusTooManyRequests || code >= fasthttp.StatusInternalServerError
}

// envelopeError flattens the "errors" field, which is an empty array on success and an object
// keyed by error name otherwise.
func envelopeError(raw any) string {
	switch value := raw.(type) {
	case map[string]any:
		parts := make([]string, 0, len(value))
		for key, message := range value {
			parts = append(parts, fmt.Sprintf("%s=%v", key, message))
		}
		sort.Strings(parts)
		return strings.Join(parts, "; ")
	case []any:
		parts := make([]string, 0, len(value))
		for _, message := range value {
			parts = append(parts, fmt.Sprint(message))
		}
		return strings.Join(parts, "; ")
	default:
		return ""
	}
}

func abbreviateBody(raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if len(text) > 512 {
		return text[:512] + "...(truncated)"
	}
	return text
}
