package fakeapi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	domainauth "github.com/target/storefront-go/internal/domain/auth"
	domaincart "github.com/target/storefront-go/internal/domain/cart"
)

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid JSON body"})
		return false
	}
	return true
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	if !s.enter(w, r, "GET /auth/me") {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.authenticate(r)
	if !ok {
		unauthorized(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": s.accounts[email].user})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.enter(w, r, "POST /auth/login") {
		return
	}
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[in.Email]
	if !ok || acct.password != in.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid email or password"})
		return
	}
	if !acct.user.IsVerified {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "Please verify your email first"})
		return
	}
	s.respondWithSession(w, acct.user, "Logged in")
}

// respondWithSession must be called with s.mu held.
func (s *Server) respondWithSession(w http.ResponseWriter, u domainauth.User, message string) {
	tok := s.issue(u.Email)
	http.SetCookie(w, &http.Cookie{Name: cookieName, Value: tok, Path: "/", HttpOnly: true})
	body := map[string]any{"user": u, "message": message}
	if s.issueTokens {
		body["token"] = tok
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if !s.enter(w, r, "POST /auth/signup") {
		return
	}
	var in struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &in) {
		return
	}
	if in.Name == "" || in.Email == "" || len(in.Password) < 6 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Name, email and a 6+ character password are required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.accounts[in.Email]; exists {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "User already exists"})
		return
	}
	s.accounts[in.Email] = &account{
		user:     domainauth.User{ID: s.id("u"), Name: in.Name, Email: in.Email, Role: domainauth.RoleUser},
		password: in.Password,
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Verification code sent to " + in.Email})
}

func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	if !s.enter(w, r, "POST /auth/verify-email") {
		return
	}
	var in struct {
		Email string `json:"email"`
		Code  string `json:"code"`
	}
	if !decode(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[in.Email]
	if !ok || in.Code != VerificationCode {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid or expired verification code"})
		return
	}
	acct.user.IsVerified = true
	s.respondWithSession(w, acct.user, "Email verified")
}

func (s *Server) handleResend(w http.ResponseWriter, r *http.Request) {
	if !s.enter(w, r, "POST /auth/resend-verification") {
		return
	}
	var in struct {
		Email string `json:"email"`
	}
	if !decode(w, r, &in) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Verification code sent to " + in.Email})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if !s.enter(w, r, "POST /auth/logout") {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if email, ok := s.authenticate(r); ok {
		for tok, e := range s.tokens {
			if e == email {
				delete(s.tokens, tok)
			}
		}
	}
	http.SetCookie(w, &http.Cookie{Name: cookieName, Value: "", Path: "/", MaxAge: -1})
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out"})
}

// cartOwner authenticates and returns the caller's cart, creating it on first use.
// Must be called with s.mu held.
func (s *Server) cartOwner(w http.ResponseWriter, r *http.Request) (*domaincart.Cart, bool) {
	email, ok := s.authenticate(r)
	if !ok {
		unauthorized(w)
		return nil, false
	}
	c, ok := s.carts[email]
	if !ok {
		c = &domaincart.Cart{ID: s.id("c"), Items: []domaincart.Item{}}
		s.carts[email] = c
	}
	return c, true
}

func writeCart(w http.ResponseWriter, c *domaincart.Cart) {
	writeJSON(w, http.StatusOK, map[string]any{"cart": c})
}

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	if !s.enter(w, r, "GET /cart") {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cartOwner(w, r)
	if !ok {
		return
	}
	writeCart(w, c)
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	if !s.enter(w, r, "POST /cart") {
		return
	}
	var in struct {
		ProductID string `json:"productId"`
		Quantity  int    `json:"quantity"`
	}
	if !decode(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cartOwner(w, r)
	if !ok {
		return
	}
	p, known := s.products[in.ProductID]
	if !known {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Product not found"})
		return
	}
	if in.Quantity < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Quantity must be at least 1"})
		return
	}
	for i := range c.Items {
		if c.Items[i].Product.ID == in.ProductID {
			c.Items[i].Quantity += in.Quantity
			writeCart(w, c)
			return
		}
	}
	c.Items = append(c.Items, domaincart.Item{ID: s.id("i"), Quantity: in.Quantity, Product: p})
	writeCart(w, c)
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	if !s.enter(w, r, "PUT /cart/{itemId}") {
		return
	}
	var in struct {
		Quantity int `json:"quantity"`
	}
	if !decode(w, r, &in) {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cartOwner(w, r)
	if !ok {
		return
	}
	if in.Quantity < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Quantity must be at least 1"})
		return
	}
	itemID := chi.URLParam(r, "itemId")
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items[i].Quantity = in.Quantity
			writeCart(w, c)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Item not found in cart"})
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	if !s.enter(w, r, "DELETE /cart/{itemId}") {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cartOwner(w, r)
	if !ok {
		return
	}
	itemID := chi.URLParam(r, "itemId")
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			c.Items = append(c.Items[:i], c.Items[i+1:]...)
			writeCart(w, c)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Item not found in cart"})
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	if !s.enter(w, r, "DELETE /cart") {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cartOwner(w, r)
	if !ok {
		return
	}
	c.Items = []domaincart.Item{}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Cart cleared"})
}
