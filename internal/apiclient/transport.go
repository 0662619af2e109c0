package apiclient

import (
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/target/storefront-go/internal/observability/metrics"
	"github.com/target/storefront-go/internal/observability/statsd"
	"github.com/target/storefront-go/internal/ports"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

// identityCheckEndpoint never logs 401s: it is expected to fail when a stored
// token has expired.
const identityCheckEndpoint = "GET /auth/me"

// roundTripperFunc adapts a function to http.RoundTripper.
type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

type middleware func(http.RoundTripper) http.RoundTripper

// chain wraps next so that mws[0] runs first.
func chain(next http.RoundTripper, mws ...middleware) http.RoundTripper {
	for i := len(mws) - 1; i >= 0; i-- {
		next = mws[i](next)
	}
	return next
}

// idSegments names the path parameter that follows a collection segment.
var idSegments = map[string]string{
	"cart": ":itemId",
}

// endpointKey names a request as "METHOD /path" relative to the API root,
// with resource ids replaced by their parameter name ("PUT /cart/:itemId").
func endpointKey(r *http.Request, basePath string) string {
	p := strings.Trim(strings.TrimPrefix(r.URL.Path, basePath), "/")
	if p == "" {
		return r.Method + " /"
	}
	segs := strings.Split(p, "/")
	for i := 1; i < len(segs); i++ {
		if param, ok := idSegments[segs[i-1]]; ok {
			segs[i] = param
		}
	}
	return r.Method + " /" + strings.Join(segs, "/")
}

func withRequestMeta(userAgent string) middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
			r2 := r.Clone(r.Context())
			if r2.Header.Get("X-Request-ID") == "" {
				r2.Header.Set("X-Request-ID", uuid.NewString())
			}
			r2.Header.Set("User-Agent", userAgent)
			return next.RoundTrip(r2)
		})
	}
}

// withBearer attaches "Authorization: Bearer <token>" when the store holds a
// token. Without one the request goes out unauthenticated and any session
// cookie in the jar still applies.
func withBearer(tokens ports.TokenStore, logger *slog.Logger) middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
			tok, err := tokens.Token(r.Context())
			if err != nil {
				logger.WarnContext(r.Context(), "read stored token failed; sending unauthenticated", "error", err)
				tok = ""
			}
			if tok == "" {
				return next.RoundTrip(r)
			}
			r2 := r.Clone(r.Context())
			(&oauth2.Token{AccessToken: tok, TokenType: "Bearer"}).SetAuthHeader(r2)
			return next.RoundTrip(r2)
		})
	}
}

type unauthorizedLogOptions struct {
	basePath string
	cooldown time.Duration
	logger   *slog.Logger
	metrics  statsd.Sink
	now      func() time.Time
}

// unauthorizedLog throttles 401 warnings to one per endpoint per cooldown.
type unauthorizedLog struct {
	unauthorizedLogOptions

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newUnauthorizedLog(opts unauthorizedLogOptions) *unauthorizedLog {
	if opts.now == nil {
		opts.now = time.Now
	}
	return &unauthorizedLog{unauthorizedLogOptions: opts, limiters: make(map[string]*rate.Limiter)}
}

// allow reports whether a warning for endpoint may be logged now.
func (u *unauthorizedLog) allow(endpoint string) bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	lim, ok := u.limiters[endpoint]
	if !ok {
		lim = rate.NewLimiter(rate.Every(u.cooldown), 1)
		u.limiters[endpoint] = lim
	}
	return lim.AllowN(u.now(), 1)
}

func (u *unauthorizedLog) observe(r *http.Request, resp *http.Response) {
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		return
	}
	endpoint := endpointKey(r, u.basePath)
	metrics.EmitUnauthorized(u.metrics, endpoint)
	if endpoint == identityCheckEndpoint {
		return
	}
	if u.allow(endpoint) {
		u.logger.WarnContext(r.Context(), "unauthorized response from api",
			"endpoint", endpoint,
			"cooldown", u.cooldown)
	}
}

// withUnauthorizedLog is side-effect only: the response is always returned
// to the caller unchanged.
func withUnauthorizedLog(opts unauthorizedLogOptions) middleware {
	ul := newUnauthorizedLog(opts)
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
			resp, err := next.RoundTrip(r)
			if err == nil {
				ul.observe(r, resp)
			}
			return resp, err
		})
	}
}

func withMetrics(basePath string, sink statsd.Sink) middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return roundTripperFunc(func(r *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(r)
			m := metrics.APIRequest{
				Endpoint: endpointKey(r, basePath),
				Duration: time.Since(start),
				Err:      err,
			}
			if resp != nil {
				m.Status = resp.StatusCode
			}
			metrics.EmitAPIRequest(sink, m)
			return resp, err
		})
	}
}
