package tenantclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/propagators/b3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"opsconsole/internal/shared_kernel/domain"
)

const (
	TenantPlaceholder  = "{tenant}"
	DefaultRefreshPath = "/auth/token/refresh/"
	defaultTimeout     = 30 * time.Second
)

var _ Requester = (*Client)(nil)

type Config struct {
	// BaseURLTemplate contains {tenant}, e.g. https://{tenant}.api.example.com/api
	BaseURLTemplate string
	RefreshPath     string
	Timeout         time.Duration
}

type TokenListener func(tokens domain.TokenPair)

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithRateLimit throttles outgoing requests to rps with the given burst.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithTokenListener(listener TokenListener) Option {
	return func(c *Client) {
		c.onTokens = listener
	}
}

type Client struct {
	baseURL     string
	refreshPath string
	timeout     time.Duration
	tenant      domain.TenantSchema
	httpClient  *http.Client
	limiter     *rate.Limiter
	onTokens    TokenListener
	propagator  propagation.TextMapPropagator
	tracer      trace.Tracer

	mu      sync.RWMutex
	tokens  domain.TokenPair
	refresh singleflight.Group
}

// New returns ErrNotReady when the tenant or the token pair is unusable.
func New(cfg Config, tenant domain.TenantSchema, tokens domain.TokenPair, opts ...Option) (*Client, error) {
	if !tokens.IsComplete() {
		return nil, ErrNotReady
	}
	return newClient(cfg, tenant, tokens, opts...)
}

// NewAnonymous returns a client for the unauthenticated auth endpoints. It
// sends no bearer header and never refreshes.
func NewAnonymous(cfg Config, tenant domain.TenantSchema, opts ...Option) (*Client, error) {
	return newClient(cfg, tenant, domain.TokenPair{}, opts...)
}

func newClient(cfg Config, tenant domain.TenantSchema, tokens domain.TokenPair, opts ...Option) (*Client, error) {
	if tenant.Validate() != nil {
		return nil, ErrNotReady
	}

	baseURL, err := BaseURL(cfg.BaseURLTemplate, tenant)
	if err != nil {
		return nil, err
	}

	initMetrics()

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	refreshPath := cfg.RefreshPath
	if refreshPath == "" {
		refreshPath = DefaultRefreshPath
	}

	c := &Client{
		baseURL:     baseURL,
		refreshPath: refreshPath,
		timeout:     timeout,
		tenant:      tenant,
		httpClient:  &http.Client{Timeout: timeout},
		propagator:  b3.New(),
		tracer:      otel.Tracer(meterName),
		tokens:      tokens,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL substitutes the tenant into the template.
func BaseURL(template string, tenant domain.TenantSchema) (string, error) {
	if !strings.Contains(template, TenantPlaceholder) {
		return "", fmt.Errorf("base url template %q has no %s placeholder: %w", template, TenantPlaceholder, ErrNotReady)
	}

	raw := strings.TrimRight(strings.ReplaceAll(template, TenantPlaceholder, tenant.String()), "/")
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", fmt.Errorf("parsing base url %q: %w", raw, ErrNotReady)
	}
	return raw, nil
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) Tenant() domain.TenantSchema {
	return c.tenant
}

func (c *Client) Tokens() domain.TokenPair {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.tokens
}

// Do sends one request and decodes a 2xx JSON body into out when out is not nil.
// A 401 triggers one token refresh followed by one replay.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
	}

	access := c.Tokens().Access
	status, respBody, err := c.send(ctx, method, path, query, payload, access)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized && c.Tokens().Refresh != "" {
		refreshed, err := c.refreshTokens(ctx, access)
		if err != nil {
			return err
		}
		status, respBody, err = c.send(ctx, method, path, query, payload, refreshed.Access)
		if err != nil {
			return err
		}
	}

	if status < 200 || status > 299 {
		return newAPIError(status, respBody)
	}

	if out == nil || len(bytes.TrimSpace(respBody)) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte, access string) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, fmt.Errorf("waiting for rate limiter: %w", err)
		}
	}

	target := c.resolve(path, query)

	ctx, span := c.tracer.Start(ctx, "http.client.request",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", target),
			attribute.String("tenant", c.tenant.String()),
		),
	)
	defer span.End()

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if access != "" {
		req.Header.Set("Authorization", "Bearer "+access)
	}
	c.propagator.Inject(ctx, propagation.HeaderCarrier(req.Header))

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if ctx.Err() != nil {
			return 0, nil, ctx.Err()
		}
		slog.Error("sending tenant request",
			slog.String("method", method),
			slog.String("url", target),
			slog.String("error", err.Error()))
		return 0, nil, &NetworkError{Method: method, URL: target, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &NetworkError{Method: method, URL: target, Err: err}
	}

	recordRequest(ctx, method, path, resp.StatusCode, started)
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	if resp.StatusCode >= 500 {
		span.SetStatus(codes.Error, resp.Status)
	}
	slog.Debug("tenant request",
		slog.String("method", method),
		slog.String("url", target),
		slog.Int("status", resp.StatusCode))

	return resp.StatusCode, respBody, nil
}

func (c *Client) resolve(path string, query url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// refreshTokens exchanges the refresh token once for all callers that failed
// with staleAccess. The exchange ignores caller cancellation and is bounded by
// the client timeout; each caller waits on its own ctx.
func (c *Client) refreshTokens(ctx context.Context, staleAccess string) (domain.TokenPair, error) {
	results := c.refresh.DoChan("refresh", func() (any, error) {
		refreshCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		return c.exchangeRefresh(refreshCtx, staleAccess)
	})

	select {
	case <-ctx.Done():
		return domain.TokenPair{}, ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return domain.TokenPair{}, res.Err
		}
		return res.Val.(domain.TokenPair), nil
	}
}

func (c *Client) exchangeRefresh(ctx context.Context, staleAccess string) (domain.TokenPair, error) {
	current := c.Tokens()
	if current.Access != staleAccess {
		return current, nil
	}

	payload, err := json.Marshal(refreshRequest{Refresh: current.Refresh})
	if err != nil {
		return domain.TokenPair{}, fmt.Errorf("marshaling refresh request: %w", err)
	}

	status, body, err := c.send(ctx, http.MethodPost, c.refreshPath, nil, payload, "")
	if err != nil {
		recordRefresh(ctx, "error")
		return domain.TokenPair{}, fmt.Errorf("refreshing access token: %w", err)
	}
	if status < 200 || status > 299 {
		recordRefresh(ctx, "rejected")
		return domain.TokenPair{}, fmt.Errorf("refreshing access token: %w", newAPIError(status, body))
	}

	var decoded refreshResponse
	if err := json.Unmarshal(body, &decoded); err != nil || decoded.Access == "" {
		recordRefresh(ctx, "invalid")
		return domain.TokenPair{}, fmt.Errorf("refreshing access token: %w", newAPIError(http.StatusUnauthorized, body))
	}

	next := domain.TokenPair{Access: decoded.Access, Refresh: decoded.Refresh}
	if next.Refresh == "" {
		next.Refresh = current.Refresh
	}

	c.mu.Lock()
	c.tokens = next
	c.mu.Unlock()
	recordRefresh(ctx, "ok")

	if c.onTokens != nil {
		c.onTokens(next)
	}
	return next, nil
}
