package apiclient

import (
	"context"
	"net/http"
	"net/url"

	domaincart "github.com/target/storefront-go/internal/domain/cart"
)

type cartEnvelope struct {
	Cart *domaincart.Cart `json:"cart"`
}

type addItemRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

func (c *Client) cartCall(ctx context.Context, method, path string, in any) (*domaincart.Cart, error) {
	var env cartEnvelope
	if err := c.do(ctx, method, path, in, &env); err != nil {
		return nil, err
	}
	return env.Cart, nil
}

// GetCart returns the server's cart (GET /cart). A nil cart means the user has none yet.
func (c *Client) GetCart(ctx context.Context) (*domaincart.Cart, error) {
	return c.cartCall(ctx, http.MethodGet, "/cart", nil)
}

// AddToCart adds quantity of a product (POST /cart).
func (c *Client) AddToCart(ctx context.Context, productID string, quantity int) (*domaincart.Cart, error) {
	return c.cartCall(ctx, http.MethodPost, "/cart", addItemRequest{ProductID: productID, Quantity: quantity})
}

// UpdateCartItem sets an item's quantity (PUT /cart/{itemId}).
func (c *Client) UpdateCartItem(ctx context.Context, itemID string, quantity int) (*domaincart.Cart, error) {
	return c.cartCall(ctx, http.MethodPut, "/cart/"+url.PathEscape(itemID), quantityRequest{Quantity: quantity})
}

// RemoveFromCart deletes an item (DELETE /cart/{itemId}).
func (c *Client) RemoveFromCart(ctx context.Context, itemID string) (*domaincart.Cart, error) {
	return c.cartCall(ctx, http.MethodDelete, "/cart/"+url.PathEscape(itemID), nil)
}

// ClearCart empties the cart (DELETE /cart).
func (c *Client) ClearCart(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/cart", nil, nil)
}
