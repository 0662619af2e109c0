// Package mocks provides mock implementations of the storefront client ports.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the
// interfaces in internal/ports. The mocks are generated using go:generate directives.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	api := mocks.NewMockAuthAPI(ctrl)
//	api.EXPECT().Me(gomock.Any()).Return(&domainauth.User{ID: "u1"}, nil)
package mocks

// AuthAPI: Me, Login, Register, VerifyEmail, ResendVerification, Logout
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=auth_api_mock.go github.com/target/storefront-go/internal/ports AuthAPI

// CartAPI: GetCart, AddToCart, UpdateCartItem, RemoveFromCart, ClearCart
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=cart_api_mock.go github.com/target/storefront-go/internal/ports CartAPI

// TokenStore: Token, SetToken, ClearToken
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=token_store_mock.go github.com/target/storefront-go/internal/ports TokenStore
