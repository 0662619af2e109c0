// Package ports defines interfaces (hexagonal ports) for the storefront client.
// Implementations live in internal/adapters and internal/apiclient; the session
// and cart services in internal/service orchestrate them.
package ports

import (
	"context"

	domainauth "github.com/target/storefront-go/internal/domain/auth"
)

// TokenStore persists the single bearer credential for this client.
// Token returns "" when nothing is stored. SetToken with an empty value
// removes the stored token.
type TokenStore interface {
	Token(ctx context.Context) (string, error)
	SetToken(ctx context.Context, value string) error
	ClearToken(ctx context.Context) error
}

// LoginResult is the backend response to a login or verification request.
type LoginResult struct {
	User    *domainauth.User `json:"user,omitempty"`
	Token   string           `json:"token,omitempty"`
	Message string           `json:"message,omitempty"`
}

// MessageResult is a backend response that only carries a message.
type MessageResult struct {
	Message string `json:"message"`
}

// RegisterInput groups the fields for account registration.
type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthAPI is the subset of the backend API the session manager depends on.
type AuthAPI interface {
	// Me performs the identity check against the current credentials.
	Me(ctx context.Context) (*domainauth.User, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
	Register(ctx context.Context, in RegisterInput) (*MessageResult, error)
	VerifyEmail(ctx context.Context, email, code string) (*LoginResult, error)
	ResendVerification(ctx context.Context, email string) (*MessageResult, error)
	Logout(ctx context.Context) error
}
