// Package apiclient is the single choke point for requests to the storefront
// backend API. It injects the stored bearer token, keeps a cookie jar for
// cookie-mode sessions, rate-limits 401 warnings per endpoint and maps every
// failure to an *errors.AppError for the caller.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/target/storefront-go/internal/errors"
	"github.com/target/storefront-go/internal/observability/statsd"
	"github.com/target/storefront-go/internal/ports"
	"golang.org/x/net/publicsuffix"
)

const (
	// DefaultBaseURL is used when no base URL is configured.
	DefaultBaseURL = "/api"
	// DefaultOrigin resolves a relative base URL.
	DefaultOrigin = "http://localhost:3000"
	// DefaultUnauthorizedLogCooldown spaces out 401 warnings for one endpoint.
	DefaultUnauthorizedLogCooldown = 10 * time.Second

	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "storefront-go"
	maxErrorBody     = 64 << 10
)

// Options configures a Client.
type Options struct {
	// BaseURL is the API root. A relative value such as "/api" is resolved
	// against Origin.
	BaseURL string
	Origin  string

	// Tokens supplies the bearer credential. Required.
	Tokens ports.TokenStore

	// HTTPClient is copied and its transport wrapped. Optional.
	HTTPClient *http.Client
	Timeout    time.Duration
	UserAgent  string

	UnauthorizedLogCooldown time.Duration

	Logger  *slog.Logger
	Metrics statsd.Sink
}

// Client talks to the storefront backend.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *slog.Logger
}

var (
	_ ports.AuthAPI = (*Client)(nil)
	_ ports.CartAPI = (*Client)(nil)
)

// New builds a Client. Callers should pass a validated config.
func New(opts Options) (*Client, error) {
	if opts.Tokens == nil {
		return nil, errors.New("token store is required")
	}

	base, err := ResolveBaseURL(opts.BaseURL, opts.Origin)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sink := opts.Metrics
	if sink == nil {
		sink = statsd.Nop{}
	}
	cooldown := opts.UnauthorizedLogCooldown
	if cooldown <= 0 {
		cooldown = DefaultUnauthorizedLogCooldown
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	hc := &http.Client{}
	if opts.HTTPClient != nil {
		*hc = *opts.HTTPClient
	}
	if opts.Timeout > 0 {
		hc.Timeout = opts.Timeout
	} else if hc.Timeout == 0 {
		hc.Timeout = defaultTimeout
	}
	if hc.Jar == nil {
		jar, jarErr := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if jarErr != nil {
			return nil, fmt.Errorf("create cookie jar: %w", jarErr)
		}
		hc.Jar = jar
	}

	next := hc.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	hc.Transport = chain(next,
		withRequestMeta(userAgent),
		withBearer(opts.Tokens, logger),
		withUnauthorizedLog(unauthorizedLogOptions{
			basePath: base.Path,
			cooldown: cooldown,
			logger:   logger,
			metrics:  sink,
		}),
		withMetrics(base.Path, sink),
	)

	return &Client{base: base, http: hc, logger: logger}, nil
}

// BaseURL returns the resolved API root.
func (c *Client) BaseURL() string { return c.base.String() }

// ResolveBaseURL returns the absolute API root for base, resolving a relative
// base against origin. Empty values fall back to the defaults.
func ResolveBaseURL(base, origin string) (*url.URL, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", base, err)
	}
	if !u.IsAbs() {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			origin = DefaultOrigin
		}
		o, oerr := url.Parse(origin)
		if oerr != nil {
			return nil, fmt.Errorf("parse origin %q: %w", origin, oerr)
		}
		if o.Scheme == "" || o.Host == "" {
			return nil, fmt.Errorf("origin %q must be absolute", origin)
		}
		u = o.ResolveReference(u)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

// do sends a JSON request and decodes a JSON response into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "encode %s %s request", method, path)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), body)
	if err != nil {
		return apperrors.Wrapf(err, apperrors.ErrCodeInternal, "create %s %s request", method, path)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.MapTransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return handleErrorResponse(resp)
	}
	return decodeSuccess(resp, out)
}

// errorBody covers the message shapes the backend uses for failures.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

func handleErrorResponse(resp *http.Response) error {
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	closeErr := resp.Body.Close()

	var msg string
	var eb errorBody
	if readErr == nil && json.Unmarshal(raw, &eb) == nil {
		msg = eb.Message
		if msg == "" {
			msg = eb.Error
		}
	}

	appErr := apperrors.MapHTTPStatus(resp.StatusCode, msg)
	if cause := errors.Join(readErr, closeErr); cause != nil {
		appErr.Cause = cause
	}
	return appErr
}

func decodeSuccess(resp *http.Response, out any) error {
	var decodeErr error
	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			decodeErr = apperrors.Wrap(err, apperrors.ErrCodeInternal, "Malformed response from server.")
		}
	}
	// Drain so the connection can be reused.
	_, drainErr := io.Copy(io.Discard, resp.Body)
	closeErr := resp.Body.Close()

	if decodeErr != nil {
		return decodeErr
	}
	if err := errors.Join(drainErr, closeErr); err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeTransport, "read response body")
	}
	return nil
}
