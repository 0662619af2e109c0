// Package fakeapi is an in-memory storefront backend for tests. It serves the
// auth and cart endpoints under /api, accepts bearer tokens and the "token"
// cookie, and records how often each endpoint was hit.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	domainauth "github.com/target/storefront-go/internal/domain/auth"
	domaincart "github.com/target/storefront-go/internal/domain/cart"
)

// VerificationCode is the code every registration expects.
const VerificationCode = "123456"

const cookieName = "token"

type account struct {
	user     domainauth.User
	password string
}

type failure struct {
	status  int
	message string
}

// Server is a fake backend bound to an httptest.Server.
type Server struct {
	srv *httptest.Server

	mu          sync.Mutex
	accounts    map[string]*account // by email
	tokens      map[string]string   // token -> email
	carts       map[string]*domaincart.Cart
	products    map[string]domaincart.Product
	hits        map[string]int
	failures    map[string]failure
	lastAuthz   string
	nextID      int
	issueTokens bool
}

// New starts a fake backend and closes it when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		accounts:    make(map[string]*account),
		tokens:      make(map[string]string),
		carts:       make(map[string]*domaincart.Cart),
		products:    make(map[string]domaincart.Product),
		hits:        make(map[string]int),
		failures:    make(map[string]failure),
		issueTokens: true,
	}
	s.srv = httptest.NewServer(s.routes())
	t.Cleanup(s.srv.Close)
	return s
}

// Origin is the server root, e.g. "http://127.0.0.1:4321".
func (s *Server) Origin() string { return s.srv.URL }

// URL is the API root ("<origin>/api").
func (s *Server) URL() string { return s.srv.URL + "/api" }

// CookieOnly makes login and verification set only the session cookie,
// omitting the token from the response body.
func (s *Server) CookieOnly() {
	s.mu.Lock()
	s.issueTokens = false
	s.mu.Unlock()
}

// AddUser registers a verified account and returns its user record.
func (s *Server) AddUser(name, email, password string, role domainauth.Role) domainauth.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := domainauth.User{ID: s.id("u"), Name: name, Email: email, Role: role, IsVerified: true}
	s.accounts[email] = &account{user: u, password: password}
	return u
}

// AddProduct makes a product available to add to carts.
func (s *Server) AddProduct(id, name string, price float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[id] = domaincart.Product{ID: id, Name: name, Price: domaincart.Price(price)}
}

// IssueToken returns a valid token for email, as if the user had logged in.
func (s *Server) IssueToken(email string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issue(email)
}

// RevokeAll invalidates every issued token.
func (s *Server) RevokeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[string]string)
}

// Fail makes endpoint (e.g. "GET /cart") answer status with message until Recover.
func (s *Server) Fail(endpoint string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[endpoint] = failure{status: status, message: message}
}

// Recover removes a failure set by Fail.
func (s *Server) Recover(endpoint string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.failures, endpoint)
}

// Hits returns how many requests endpoint received.
func (s *Server) Hits(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[endpoint]
}

// LastAuthorization returns the Authorization header of the most recent request.
func (s *Server) LastAuthorization() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastAuthz
}

// CartFor returns a copy of the stored cart for email.
func (s *Server) CartFor(email string) *domaincart.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneCart(s.carts[email])
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/auth/me", s.handleMe)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/signup", s.handleSignup)
		r.Post("/auth/verify-email", s.handleVerify)
		r.Post("/auth/resend-verification", s.handleResend)
		r.Post("/auth/logout", s.handleLogout)

		r.Get("/cart", s.handleGetCart)
		r.Post("/cart", s.handleAddItem)
		r.Delete("/cart", s.handleClearCart)
		r.Put("/cart/{itemId}", s.handleUpdateItem)
		r.Delete("/cart/{itemId}", s.handleRemoveItem)
	})
	return r
}

// enter records the hit and applies a configured failure. It returns false
// when the handler must stop. The caller holds no lock.
func (s *Server) enter(w http.ResponseWriter, r *http.Request, endpoint string) bool {
	s.mu.Lock()
	s.hits[endpoint]++
	s.lastAuthz = r.Header.Get("Authorization")
	f, failing := s.failures[endpoint]
	s.mu.Unlock()

	if failing {
		writeJSON(w, f.status, map[string]string{"message": f.message})
		return false
	}
	return true
}

// authenticate resolves the caller's email from the bearer header or cookie.
// Must be called with s.mu held.
func (s *Server) authenticate(r *http.Request) (string, bool) {
	tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	if tok == "" {
		if c, err := r.Cookie(cookieName); err == nil {
			tok = c.Value
		}
	}
	email, ok := s.tokens[tok]
	return email, ok && tok != ""
}

func (s *Server) id(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s%d", prefix, s.nextID)
}

// issue must be called with s.mu held.
func (s *Server) issue(email string) string {
	tok := s.id("tok-")
	s.tokens[tok] = email
	return tok
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func unauthorized(w http.ResponseWriter) {
	writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Not authorized, no valid token"})
}

func cloneCart(c *domaincart.Cart) *domaincart.Cart {
	if c == nil {
		return nil
	}
	cp := &domaincart.Cart{ID: c.ID, Items: make([]domaincart.Item, len(c.Items))}
	copy(cp.Items, c.Items)
	return cp
}
