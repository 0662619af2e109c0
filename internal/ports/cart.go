package ports

import (
	"context"

	domaincart "github.com/target/storefront-go/internal/domain/cart"
)

// CartAPI is the subset of the backend API the cart manager depends on.
// Every mutating call returns the backend's authoritative cart.
type CartAPI interface {
	GetCart(ctx context.Context) (*domaincart.Cart, error)
	AddToCart(ctx context.Context, productID string, quantity int) (*domaincart.Cart, error)
	UpdateCartItem(ctx context.Context, itemID string, quantity int) (*domaincart.Cart, error)
	RemoveFromCart(ctx context.Context, itemID string) (*domaincart.Cart, error)
	ClearCart(ctx context.Context) error
}
