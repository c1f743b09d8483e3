// Package gateway sends every backend request with the current session
// credential and classifies the outcome.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/heartmarshall/civic-client/internal/domain"
	"github.com/heartmarshall/civic-client/pkg/ctxutil"
)

const (
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 8 << 20

	// HeaderRequestID carries the correlation id of a call.
	HeaderRequestID = "X-Request-Id"
)

// TokenStore persists the single session credential.
// Get returns "" when nothing is stored. Clear on an empty store is not an error.
type TokenStore interface {
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, token string) error
	Clear(ctx context.Context) error
}

// Outcome classifies a finished call for observers.
type Outcome string

const (
	OutcomeOK           Outcome = "ok"
	OutcomeUnauthorized Outcome = "unauthorized"
	OutcomeServerError  Outcome = "server_error"
	OutcomeNetworkError Outcome = "network_error"
)

// Observer is notified after every call.
type Observer interface {
	ObserveRequest(method, route string, outcome Outcome, elapsed time.Duration)
}

// Request is one outbound call.
type Request struct {
	Method string
	// Path is appended to the base URL and may include a query string.
	Path string
	// Route is a low-cardinality label for observers; defaults to Path.
	Route       string
	ContentType string
	Body        io.Reader
	// Fallback is the message used when a failed response carries no detail.
	Fallback string
}

// Response is a successful (2xx) reply with its body fully read.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Gateway attaches the stored credential to outbound requests and turns
// HTTP outcomes into domain errors. A 401 clears the store.
type Gateway struct {
	baseURL    string
	httpClient *http.Client
	store      TokenStore
	observer   Observer
	userAgent  string
	log        *slog.Logger
}

// Option customizes a Gateway.
type Option func(*Gateway)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(g *Gateway) { g.httpClient = c }
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(d time.Duration) Option {
	return func(g *Gateway) { g.httpClient.Timeout = d }
}

// WithObserver registers a call observer.
func WithObserver(o Observer) Option {
	return func(g *Gateway) { g.observer = o }
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(g *Gateway) { g.userAgent = ua }
}

// New creates a Gateway for the backend at baseURL.
func New(baseURL string, store TokenStore, logger *slog.Logger, opts ...Option) *Gateway {
	g := &Gateway{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		store:      store,
		userAgent:  "civic-client",
		log:        logger.With("component", "gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Store returns the token store the gateway reads from.
func (g *Gateway) Store() TokenStore {
	return g.store
}

// Send performs req. The credential is re-read from the store for every call.
//
// Errors are *domain.APIError with kind Unauthorized (HTTP 401, store cleared),
// Server (any other non-2xx) or Network (transport failure, timeout, cancellation).
func (g *Gateway) Send(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	route := req.Route
	if route == "" {
		route = req.Path
	}

	ctx, requestID := ctxutil.EnsureRequestID(ctx)
	log := g.log.With(
		slog.String("method", req.Method),
		slog.String("route", route),
		slog.String("request_id", requestID),
	)

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, g.baseURL+req.Path, req.Body)
	if err != nil {
		return nil, fmt.Errorf("gateway: create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", g.userAgent)
	httpReq.Header.Set(HeaderRequestID, requestID)
	if req.ContentType != "" {
		httpReq.Header.Set("Content-Type", req.ContentType)
	}

	token, err := g.store.Get(ctx)
	if err != nil {
		log.WarnContext(ctx, "token store read failed, sending unauthenticated", slog.String("error", err.Error()))
		token = ""
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	log.DebugContext(ctx, "gateway request", slog.Bool("authenticated", token != ""))

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		g.observe(req.Method, route, OutcomeNetworkError, start)
		log.WarnContext(ctx, "gateway transport failure", slog.String("error", err.Error()))
		return nil, domain.NewNetworkError(networkMessage(ctx, err), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		g.observe(req.Method, route, OutcomeNetworkError, start)
		return nil, domain.NewNetworkError(networkMessage(ctx, err), fmt.Errorf("read body: %w", err))
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		g.observe(req.Method, route, OutcomeOK, start)
		log.DebugContext(ctx, "gateway response", slog.Int("status", resp.StatusCode), slog.Int("bytes", len(body)))
		return &Response{Status: resp.StatusCode, Header: resp.Header, Body: body}, nil

	case resp.StatusCode == http.StatusUnauthorized:
		g.observe(req.Method, route, OutcomeUnauthorized, start)
		// Cleared exactly once per 401; a failing clear does not change the result.
		if err := g.store.Clear(ctx); err != nil {
			log.ErrorContext(ctx, "token store clear failed", slog.String("error", err.Error()))
		}
		log.InfoContext(ctx, "session rejected by server, credential cleared")
		return nil, domain.NewUnauthorizedError(ParseDetail(body))

	default:
		g.observe(req.Method, route, OutcomeServerError, start)
		msg := ParseDetail(body)
		if msg == "" {
			msg = req.Fallback
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		log.WarnContext(ctx, "gateway server error", slog.Int("status", resp.StatusCode), slog.String("detail", msg))
		return nil, domain.NewServerError(resp.StatusCode, msg)
	}
}

func (g *Gateway) observe(method, route string, outcome Outcome, start time.Time) {
	if g.observer == nil {
		return
	}
	g.observer.ObserveRequest(method, route, outcome, time.Since(start))
}

func networkMessage(ctx context.Context, err error) string {
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled):
		return "Request cancelled."
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return "Request timed out."
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "Request timed out."
	}
	return ""
}
