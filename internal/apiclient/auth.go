package apiclient

import (
	"context"
	"net/http"

	domainauth "github.com/target/storefront-go/internal/domain/auth"
	apperrors "github.com/target/storefront-go/internal/errors"
	"github.com/target/storefront-go/internal/ports"
)

type userEnvelope struct {
	User *domainauth.User `json:"user"`
}

type credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type verifyRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

type emailRequest struct {
	Email string `json:"email"`
}

// Me performs the identity check (GET /auth/me).
func (c *Client) Me(ctx context.Context) (*domainauth.User, error) {
	var env userEnvelope
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &env); err != nil {
		return nil, err
	}
	if env.User == nil {
		return nil, apperrors.Internalf("%s response did not include a user.", identityCheckEndpoint)
	}
	return env.User, nil
}

// Login exchanges credentials for a session (POST /auth/login).
// The token is optional: cookie-mode backends only set a cookie.
func (c *Client) Login(ctx context.Context, email, password string) (*ports.LoginResult, error) {
	var res ports.LoginResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", credentials{Email: email, Password: password}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Register creates an account pending email verification (POST /auth/signup).
func (c *Client) Register(ctx context.Context, in ports.RegisterInput) (*ports.MessageResult, error) {
	var res ports.MessageResult
	if err := c.do(ctx, http.MethodPost, "/auth/signup", in, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// VerifyEmail confirms a registration code (POST /auth/verify-email).
func (c *Client) VerifyEmail(ctx context.Context, email, code string) (*ports.LoginResult, error) {
	var res ports.LoginResult
	if err := c.do(ctx, http.MethodPost, "/auth/verify-email", verifyRequest{Email: email, Code: code}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ResendVerification asks the backend to send a new code (POST /auth/resend-verification).
func (c *Client) ResendVerification(ctx context.Context, email string) (*ports.MessageResult, error) {
	var res ports.MessageResult
	if err := c.do(ctx, http.MethodPost, "/auth/resend-verification", emailRequest{Email: email}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// Logout ends the server-side session (POST /auth/logout).
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}
