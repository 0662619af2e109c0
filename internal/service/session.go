package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	domainauth "github.com/target/storefront-go/internal/domain/auth"
	apperrors "github.com/target/storefront-go/internal/errors"
	"github.com/target/storefront-go/internal/ports"
	"golang.org/x/sync/singleflight"
)

// SessionServiceOptions groups dependencies for SessionService.
type SessionServiceOptions struct {
	API    ports.AuthAPI
	Tokens ports.TokenStore
	Logger *slog.Logger
}

// SessionEvent is delivered to subscribers whenever the session changes state.
type SessionEvent struct {
	State domainauth.State
	User  *domainauth.User
}

// SessionListener receives session events. ctx belongs to the operation that
// caused the change.
type SessionListener func(ctx context.Context, ev SessionEvent)

// SessionService owns the current-user state. It is the only component that
// writes or clears the stored token.
type SessionService struct {
	api    ports.AuthAPI
	tokens ports.TokenStore
	logger *slog.Logger

	flight singleflight.Group

	mu      sync.Mutex
	state   domainauth.State
	user    *domainauth.User
	started bool
	// epoch increments on every login, verification and logout so that an
	// identity check started earlier cannot overwrite their outcome.
	epoch     uint64
	listeners map[int]SessionListener
	nextID    int
}

const identityCheckKey = "identity-check"

// NewSessionService constructs a new SessionService in the uninitialized state.
func NewSessionService(opts SessionServiceOptions) *SessionService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		api:       opts.API,
		tokens:    opts.Tokens,
		logger:    logger.With("component", "session"),
		state:     domainauth.StateUninitialized,
		listeners: make(map[int]SessionListener),
	}
}

// Subscribe registers fn for session events and returns a function that
// removes it. Listeners run synchronously, outside the service's lock.
func (s *SessionService) Subscribe(fn SessionListener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Start performs the initial identity check. Calls after the first join the
// check if it is still running and are otherwise no-ops.
func (s *SessionService) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started && s.state.Settled() {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.mu.Unlock()
	return s.CheckAuth(ctx)
}

// CheckAuth verifies the stored token with the backend. Concurrent callers
// share a single identity request and its result. The shared request does not
// inherit any caller's cancellation; a caller whose ctx ends stops waiting and
// the check still settles the session for everyone else.
func (s *SessionService) CheckAuth(ctx context.Context) error {
	shared := context.WithoutCancel(ctx)
	ch := s.flight.DoChan(identityCheckKey, func() (any, error) {
		return nil, s.checkAuth(shared)
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return fmt.Errorf("check auth: %w", ctx.Err())
	}
}

func (s *SessionService) checkAuth(ctx context.Context) error {
	epoch := s.beginCheck(ctx)

	tok, err := s.tokens.Token(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "read stored token failed", "error", err)
		tok = ""
	}
	if tok == "" {
		s.settleIf(ctx, epoch, domainauth.StateAnonymous, nil)
		return nil
	}

	user, err := s.api.Me(ctx)
	switch {
	case err == nil:
		s.settleIf(ctx, epoch, domainauth.StateAuthenticated, user)
		return nil
	case apperrors.IsUnauthorized(err):
		s.logger.DebugContext(ctx, "stored token rejected; clearing")
		s.clearTokenIf(ctx, epoch)
		s.settleIf(ctx, epoch, domainauth.StateAnonymous, nil)
		return nil
	default:
		s.settleIf(ctx, epoch, domainauth.StateAnonymous, nil)
		return fmt.Errorf("check auth: %w", err)
	}
}

// Login authenticates with email and password, persists the returned token
// (if any) and adopts the returned user. On error the session is unchanged.
func (s *SessionService) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	if email == "" || password == "" {
		return nil, apperrors.Validation("Email and password are required.")
	}

	res, err := s.api.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if err := s.adopt(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// Register creates an account. It never establishes a session: the account
// must be verified first.
func (s *SessionService) Register(ctx context.Context, name, email, password string) (*ports.MessageResult, error) {
	return s.api.Register(ctx, ports.RegisterInput{Name: name, Email: email, Password: password})
}

// VerifyEmail confirms a registration code. When the backend answers with a
// user the session adopts it.
func (s *SessionService) VerifyEmail(ctx context.Context, email, code string) (*ports.LoginResult, error) {
	res, err := s.api.VerifyEmail(ctx, email, code)
	if err != nil {
		return nil, err
	}
	if res.User == nil {
		return res, nil
	}
	if err := s.adopt(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

// ResendVerification requests a new verification code for email.
func (s *SessionService) ResendVerification(ctx context.Context, email string) (*ports.MessageResult, error) {
	return s.api.ResendVerification(ctx, email)
}

// adopt persists the token from res and switches to the authenticated state.
func (s *SessionService) adopt(ctx context.Context, res *ports.LoginResult) error {
	if res == nil || res.User == nil {
		return apperrors.Internal("Login response did not include a user.")
	}
	// Supersede any identity check in flight before touching the token.
	s.mu.Lock()
	s.epoch++
	s.mu.Unlock()

	if res.Token != "" {
		if err := s.tokens.SetToken(ctx, res.Token); err != nil {
			return fmt.Errorf("persist token: %w", err)
		}
	}
	s.settle(ctx, domainauth.StateAuthenticated, res.User)
	return nil
}

// Logout ends the session. Local credentials are cleared whatever the outcome
// of the backend call; the returned error is informational.
func (s *SessionService) Logout(ctx context.Context) error {
	apiErr := s.api.Logout(ctx)
	if apiErr != nil {
		s.logger.WarnContext(ctx, "backend logout failed; clearing local session anyway", "error", apiErr)
		apiErr = fmt.Errorf("logout: %w", apiErr)
	}

	clearErr := s.tokens.ClearToken(ctx)
	if clearErr != nil {
		s.logger.ErrorContext(ctx, "clear token on logout failed", "error", clearErr)
		clearErr = fmt.Errorf("clear token: %w", clearErr)
	}

	s.settle(ctx, domainauth.StateAnonymous, nil)
	return errors.Join(apiErr, clearErr)
}

// RefreshUser re-fetches the current user and overwrites the session with it.
// A 401 clears the token like CheckAuth does; other errors leave the session
// untouched.
func (s *SessionService) RefreshUser(ctx context.Context) (*domainauth.User, error) {
	s.mu.Lock()
	epoch := s.epoch
	s.mu.Unlock()

	user, err := s.api.Me(ctx)
	if err != nil {
		if apperrors.IsUnauthorized(err) {
			s.clearTokenIf(ctx, epoch)
			s.settleIf(ctx, epoch, domainauth.StateAnonymous, nil)
		}
		return nil, fmt.Errorf("refresh user: %w", err)
	}
	s.settleIf(ctx, epoch, domainauth.StateAuthenticated, user)
	return user, nil
}

// User returns a copy of the current user, or nil when anonymous.
func (s *SessionService) User() *domainauth.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// State returns the current lifecycle state.
func (s *SessionService) State() domainauth.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsAuthenticated reports whether a user is present.
func (s *SessionService) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user != nil
}

// IsAdmin reports whether the current user holds an admin role.
func (s *SessionService) IsAdmin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user.IsAdmin()
}

// IsLoading is true until the first identity check settles and while any
// identity check is running.
func (s *SessionService) IsLoading() bool {
	return !s.State().Settled()
}

// clearTokenIf removes a token the backend rejected, unless a newer session
// replaced it after epoch was read. The lock is held so adopt cannot write a
// fresh token in between.
func (s *SessionService) clearTokenIf(ctx context.Context, epoch uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.epoch != epoch {
		return
	}
	if err := s.tokens.ClearToken(ctx); err != nil {
		s.logger.ErrorContext(ctx, "clear rejected token failed", "error", err)
	}
}

func (s *SessionService) beginCheck(ctx context.Context) uint64 {
	s.mu.Lock()
	s.started = true
	s.state = domainauth.StateChecking
	epoch := s.epoch
	ev, listeners := s.snapshotLocked()
	s.mu.Unlock()

	notify(ctx, listeners, ev)
	return epoch
}

// settle applies a new state unconditionally and starts a new epoch.
func (s *SessionService) settle(ctx context.Context, state domainauth.State, user *domainauth.User) {
	s.mu.Lock()
	s.epoch++
	s.apply(state, user)
	ev, listeners := s.snapshotLocked()
	s.mu.Unlock()

	notify(ctx, listeners, ev)
}

// settleIf applies a new state only if no login, verification or logout
// happened since epoch was read. A superseded identity result still ends the
// checking phase by restoring the settled state.
func (s *SessionService) settleIf(ctx context.Context, epoch uint64, state domainauth.State, user *domainauth.User) {
	s.mu.Lock()
	if s.epoch != epoch {
		s.logger.DebugContext(ctx, "discarding superseded identity result", "state", state)
		if s.state.Settled() {
			s.mu.Unlock()
			return
		}
		state, user = domainauth.StateAnonymous, s.user
		if user != nil {
			state = domainauth.StateAuthenticated
		}
	}
	s.apply(state, user)
	ev, listeners := s.snapshotLocked()
	s.mu.Unlock()

	notify(ctx, listeners, ev)
}

func (s *SessionService) apply(state domainauth.State, user *domainauth.User) {
	if state != domainauth.StateAuthenticated {
		user = nil
	}
	if user != nil {
		u := *user
		user = &u
	}
	s.state = state
	s.user = user
}

func (s *SessionService) snapshotLocked() (SessionEvent, []SessionListener) {
	ev := SessionEvent{State: s.state}
	if s.user != nil {
		u := *s.user
		ev.User = &u
	}
	listeners := make([]SessionListener, 0, len(s.listeners))
	for id := 0; id < s.nextID; id++ {
		if fn, ok := s.listeners[id]; ok {
			listeners = append(listeners, fn)
		}
	}
	return ev, listeners
}

func notify(ctx context.Context, listeners []SessionListener, ev SessionEvent) {
	for _, fn := range listeners {
		fn(ctx, ev)
	}
}
