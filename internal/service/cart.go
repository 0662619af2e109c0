package service

import (
	"context"
	"log/slog"
	"sync"

	domainauth "github.com/target/storefront-go/internal/domain/auth"
	domaincart "github.com/target/storefront-go/internal/domain/cart"
	"github.com/target/storefront-go/internal/ports"
)

// CartServiceOptions groups dependencies for CartService.
type CartServiceOptions struct {
	API    ports.CartAPI
	Logger *slog.Logger
}

// CartService mirrors the authenticated user's cart. Every successful
// mutation replaces the local cart with the one the backend returns.
type CartService struct {
	api    ports.CartAPI
	logger *slog.Logger

	mu   sync.Mutex
	cart *domaincart.Cart
	// session is the last session state delivered by OnSessionEvent.
	session domainauth.State
	// seq numbers requests; applied is the newest one whose response was kept.
	seq     uint64
	applied uint64
	// cleared is the seq value at the last local clear. Responses to requests
	// issued before it are stale.
	cleared uint64
}

// NewCartService constructs a new CartService with no cart.
func NewCartService(opts CartServiceOptions) *CartService {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &CartService{
		api:     opts.API,
		logger:  logger.With("component", "cart"),
		session: domainauth.StateUninitialized,
	}
}

// Attach subscribes the cart to session changes and returns the unsubscribe
// function. Nothing happens while the session is checking.
func (c *CartService) Attach(sessions *SessionService) func() {
	return sessions.Subscribe(c.OnSessionEvent)
}

// OnSessionEvent reacts to a settled session: authenticated fetches the cart
// once, anonymous drops it without a request. While the session is checking
// no fetch is sent and no response is applied.
func (c *CartService) OnSessionEvent(ctx context.Context, ev SessionEvent) {
	c.mu.Lock()
	c.session = ev.State
	if ev.State == domainauth.StateAnonymous {
		c.resetLocked()
	}
	c.mu.Unlock()

	if ev.State == domainauth.StateAuthenticated {
		c.FetchCart(ctx)
	}
}

// FetchCart replaces the local cart with the backend's. Failures are logged
// and leave no cart. Without an authenticated session nothing is sent.
func (c *CartService) FetchCart(ctx context.Context) {
	seq, ok := c.begin()
	if !ok {
		return
	}

	cart, err := c.api.GetCart(ctx)
	if err != nil {
		c.logger.ErrorContext(ctx, "fetch cart failed", "error", err)
		c.commit(ctx, seq, nil)
		return
	}
	c.commit(ctx, seq, cart)
}

// AddToCart adds quantity units of productID. Callers validate quantity.
func (c *CartService) AddToCart(ctx context.Context, productID string, quantity int) (*domaincart.Cart, error) {
	seq := c.next()
	cart, err := c.api.AddToCart(ctx, productID, quantity)
	if err != nil {
		return nil, err
	}
	return c.commit(ctx, seq, cart), nil
}

// UpdateCartItem sets the quantity of an existing line.
func (c *CartService) UpdateCartItem(ctx context.Context, itemID string, quantity int) (*domaincart.Cart, error) {
	seq := c.next()
	cart, err := c.api.UpdateCartItem(ctx, itemID, quantity)
	if err != nil {
		return nil, err
	}
	return c.commit(ctx, seq, cart), nil
}

// RemoveFromCart deletes a line from the cart.
func (c *CartService) RemoveFromCart(ctx context.Context, itemID string) (*domaincart.Cart, error) {
	seq := c.next()
	cart, err := c.api.RemoveFromCart(ctx, itemID)
	if err != nil {
		return nil, err
	}
	return c.commit(ctx, seq, cart), nil
}

// ClearCart empties the cart on the backend and drops the local copy.
func (c *CartService) ClearCart(ctx context.Context) error {
	if err := c.api.ClearCart(ctx); err != nil {
		return err
	}
	c.mu.Lock()
	c.resetLocked()
	c.mu.Unlock()
	return nil
}

// Cart returns a copy of the current cart, or nil.
func (c *CartService) Cart() *domaincart.Cart {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyCart(c.cart)
}

// Total returns the cart total, 0 without a cart.
func (c *CartService) Total() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cart.Total()
}

// Count returns the number of units in the cart, 0 without a cart.
func (c *CartService) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cart.Count()
}

// begin takes a sequence number for a fetch. Nothing is sent while the
// session is checking, since settling will fetch. Any other state without a
// user drops the cart.
func (c *CartService) begin() (uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.session {
	case domainauth.StateAuthenticated:
		c.seq++
		return c.seq, true
	case domainauth.StateChecking:
		return 0, false
	default:
		c.resetLocked()
		return 0, false
	}
}

func (c *CartService) next() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// commit stores cart if the response for seq is still current and the
// session is authenticated, and returns a copy of it for the caller either way.
func (c *CartService) commit(ctx context.Context, seq uint64, cart *domaincart.Cart) *domaincart.Cart {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session != domainauth.StateAuthenticated {
		c.logger.DebugContext(ctx, "discarding cart response without authenticated session", "seq", seq, "session", c.session)
		return copyCart(cart)
	}
	if seq <= c.applied || seq <= c.cleared {
		c.logger.DebugContext(ctx, "discarding stale cart response", "seq", seq, "applied", c.applied, "cleared", c.cleared)
		return copyCart(cart)
	}
	c.applied = seq
	c.cart = copyCart(cart)
	return copyCart(cart)
}

func (c *CartService) resetLocked() {
	c.cart = nil
	c.cleared = c.seq
}

func copyCart(cart *domaincart.Cart) *domaincart.Cart {
	if cart == nil {
		return nil
	}
	cp := &domaincart.Cart{ID: cart.ID, Items: make([]domaincart.Item, len(cart.Items))}
	copy(cp.Items, cart.Items)
	return cp
}
