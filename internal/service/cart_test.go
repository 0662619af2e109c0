package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/storefront-go/internal/domain/auth"
	domaincart "github.com/target/storefront-go/internal/domain/cart"
	apperrors "github.com/target/storefront-go/internal/errors"
	"github.com/target/storefront-go/internal/mocks"
	mockauth "github.com/target/storefront-go/internal/mocks/auth"
	"github.com/target/storefront-go/internal/ports"
	"go.uber.org/mock/gomock"
)

type cartFixture struct {
	session *SessionService
	cart    *CartService
	authAPI *mocks.MockAuthAPI
	cartAPI *mocks.MockCartAPI
	tokens  *mockauth.MemoryTokenStore
}

func newCartFixture(t *testing.T, token string) *cartFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &cartFixture{
		authAPI: mocks.NewMockAuthAPI(ctrl),
		cartAPI: mocks.NewMockCartAPI(ctrl),
		tokens:  mockauth.NewMemoryTokenStore(token),
	}
	f.session = NewSessionService(SessionServiceOptions{API: f.authAPI, Tokens: f.tokens})
	f.cart = NewCartService(CartServiceOptions{API: f.cartAPI})
	t.Cleanup(f.cart.Attach(f.session))
	return f
}

// signIn settles the session as authenticated with initial as the server cart.
func (f *cartFixture) signIn(t *testing.T, initial *domaincart.Cart) {
	t.Helper()
	f.authAPI.EXPECT().Me(gomock.Any()).Return(testUser, nil)
	f.cartAPI.EXPECT().GetCart(gomock.Any()).Return(initial, nil)
	require.NoError(t, f.session.Start(context.Background()))
}

func item(id, productID string, price float64, qty int) domaincart.Item {
	return domaincart.Item{
		ID:       id,
		Quantity: qty,
		Product:  domaincart.Product{ID: productID, Name: productID, Price: domaincart.Price(price)},
	}
}

func TestCartService_Empty(t *testing.T) {
	c := NewCartService(CartServiceOptions{})

	assert.Nil(t, c.Cart())
	assert.Zero(t, c.Total())
	assert.Zero(t, c.Count())
}

func TestCartService_WaitsForSessionToSettle(t *testing.T) {
	f := newCartFixture(t, "tok")

	entered := make(chan struct{})
	release := make(chan struct{})
	f.authAPI.EXPECT().Me(gomock.Any()).DoAndReturn(func(context.Context) (*domainauth.User, error) {
		close(entered)
		<-release
		return testUser, nil
	})

	done := make(chan error, 1)
	go func() { done <- f.session.Start(context.Background()) }()
	<-entered

	// Checking: no GetCart expectation is registered yet, so a fetch here fails the test.
	assert.True(t, f.session.IsLoading())
	assert.Nil(t, f.cart.Cart())

	server := &domaincart.Cart{ID: "c1", Items: []domaincart.Item{item("i1", "p1", 10, 2)}}
	f.cartAPI.EXPECT().GetCart(gomock.Any()).Return(server, nil).Times(1)
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, server, f.cart.Cart())
}

func TestCartService_AnonymousClearsWithoutRequest(t *testing.T) {
	f := newCartFixture(t, "")

	require.NoError(t, f.session.Start(context.Background()))

	assert.Equal(t, domainauth.StateAnonymous, f.session.State())
	assert.Nil(t, f.cart.Cart())
}

func TestCartService_FetchCart(t *testing.T) {
	t.Run("not authenticated sends nothing", func(t *testing.T) {
		f := newCartFixture(t, "")
		f.cart.FetchCart(context.Background())
		assert.Nil(t, f.cart.Cart())
	})

	t.Run("failure drops the cart", func(t *testing.T) {
		f := newCartFixture(t, "tok")
		f.signIn(t, &domaincart.Cart{Items: []domaincart.Item{item("i1", "p1", 1, 1)}})
		require.NotNil(t, f.cart.Cart())

		f.cartAPI.EXPECT().GetCart(gomock.Any()).Return(nil, apperrors.Internal("down"))
		f.cart.FetchCart(context.Background())

		assert.Nil(t, f.cart.Cart())
	})
}

func TestCartService_AddToCart(t *testing.T) {
	f := newCartFixture(t, "tok")
	f.signIn(t, &domaincart.Cart{Items: []domaincart.Item{}})

	server := &domaincart.Cart{Items: []domaincart.Item{
		{ID: "i1", Quantity: 2, Product: domaincart.Product{ID: "p1", Price: domaincart.Price(9.99)}},
	}}
	f.cartAPI.EXPECT().AddToCart(gomock.Any(), "p1", 2).Return(server, nil)

	got, err := f.cart.AddToCart(context.Background(), "p1", 2)
	require.NoError(t, err)

	assert.Equal(t, server, got)
	assert.InDelta(t, 19.98, f.cart.Total(), 1e-9)
	assert.Equal(t, 2, f.cart.Count())
}

func TestCartService_AddToCart_ForwardsQuantity(t *testing.T) {
	f := newCartFixture(t, "tok")
	f.signIn(t, nil)

	f.cartAPI.EXPECT().AddToCart(gomock.Any(), "p1", 0).
		Return(nil, apperrors.MapHTTPStatus(400, "Quantity must be at least 1"))

	_, err := f.cart.AddToCart(context.Background(), "p1", 0)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
	assert.Nil(t, f.cart.Cart())
}

func TestCartService_Totals(t *testing.T) {
	f := newCartFixture(t, "tok")
	f.signIn(t, &domaincart.Cart{Items: []domaincart.Item{
		item("i1", "p1", 10, 2),
		item("i2", "p2", 5.5, 1),
	}})

	assert.InDelta(t, 25.5, f.cart.Total(), 1e-9)
	assert.Equal(t, 3, f.cart.Count())
}

func TestCartService_MutationsReplaceWholesale(t *testing.T) {
	initial := &domaincart.Cart{ID: "c1", Items: []domaincart.Item{item("i1", "p1", 10, 1)}}

	tests := []struct {
		name   string
		expect func(api *mocks.MockCartAPI, server *domaincart.Cart)
		call   func(c *CartService) (*domaincart.Cart, error)
	}{
		{
			name: "add",
			expect: func(api *mocks.MockCartAPI, server *domaincart.Cart) {
				api.EXPECT().AddToCart(gomock.Any(), "p2", 1).Return(server, nil)
			},
			call: func(c *CartService) (*domaincart.Cart, error) {
				return c.AddToCart(context.Background(), "p2", 1)
			},
		},
		{
			name: "update",
			expect: func(api *mocks.MockCartAPI, server *domaincart.Cart) {
				api.EXPECT().UpdateCartItem(gomock.Any(), "i1", 4).Return(server, nil)
			},
			call: func(c *CartService) (*domaincart.Cart, error) {
				return c.UpdateCartItem(context.Background(), "i1", 4)
			},
		},
		{
			name: "remove",
			expect: func(api *mocks.MockCartAPI, server *domaincart.Cart) {
				api.EXPECT().RemoveFromCart(gomock.Any(), "i1").Return(server, nil)
			},
			call: func(c *CartService) (*domaincart.Cart, error) {
				return c.RemoveFromCart(context.Background(), "i1")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCartFixture(t, "tok")
			f.signIn(t, initial)

			// The server answer shares nothing with the local cart.
			server := &domaincart.Cart{ID: "c9", Items: []domaincart.Item{item("i7", "p7", 3, 5)}}
			tt.expect(f.cartAPI, server)

			got, err := tt.call(f.cart)
			require.NoError(t, err)
			assert.Equal(t, server, got)
			assert.Equal(t, server, f.cart.Cart())
		})
	}
}

func TestCartService_MutationErrorsPropagate(t *testing.T) {
	f := newCartFixture(t, "tok")
	initial := &domaincart.Cart{Items: []domaincart.Item{item("i1", "p1", 10, 1)}}
	f.signIn(t, initial)

	wantErr := apperrors.NotFound("Product not found")
	f.cartAPI.EXPECT().AddToCart(gomock.Any(), "nope", 1).Return(nil, wantErr)
	f.cartAPI.EXPECT().UpdateCartItem(gomock.Any(), "i1", 3).Return(nil, wantErr)
	f.cartAPI.EXPECT().RemoveFromCart(gomock.Any(), "i1").Return(nil, wantErr)
	f.cartAPI.EXPECT().ClearCart(gomock.Any()).Return(wantErr)

	_, err := f.cart.AddToCart(context.Background(), "nope", 1)
	assert.Same(t, wantErr, err)
	_, err = f.cart.UpdateCartItem(context.Background(), "i1", 3)
	assert.Same(t, wantErr, err)
	_, err = f.cart.RemoveFromCart(context.Background(), "i1")
	assert.Same(t, wantErr, err)
	assert.Same(t, wantErr, f.cart.ClearCart(context.Background()))

	assert.Equal(t, initial, f.cart.Cart())
}

func TestCartService_ClearCart(t *testing.T) {
	f := newCartFixture(t, "tok")
	f.signIn(t, &domaincart.Cart{Items: []domaincart.Item{item("i1", "p1", 10, 1)}})
	f.cartAPI.EXPECT().ClearCart(gomock.Any()).Return(nil)

	require.NoError(t, f.cart.ClearCart(context.Background()))

	assert.Nil(t, f.cart.Cart())
	assert.Zero(t, f.cart.Count())
}

func TestCartService_DiscardsOutOfOrderResponse(t *testing.T) {
	f := newCartFixture(t, "tok")
	f.signIn(t, nil)

	slow := &domaincart.Cart{Items: []domaincart.Item{item("i1", "p1", 10, 1)}}
	fast := &domaincart.Cart{Items: []domaincart.Item{item("i1", "p1", 10, 2)}}

	entered := make(chan struct{})
	release := make(chan struct{})
	f.cartAPI.EXPECT().UpdateCartItem(gomock.Any(), "i1", 1).DoAndReturn(
		func(context.Context, string, int) (*domaincart.Cart, error) {
			close(entered)
			<-release
			return slow, nil
		})
	f.cartAPI.EXPECT().UpdateCartItem(gomock.Any(), "i1", 2).Return(fast, nil)

	done := make(chan error, 1)
	go func() {
		_, err := f.cart.UpdateCartItem(context.Background(), "i1", 1)
		done <- err
	}()
	<-entered

	_, err := f.cart.UpdateCartItem(context.Background(), "i1", 2)
	require.NoError(t, err)
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, fast, f.cart.Cart())
}

func TestCartService_DiscardsResponseAfterLogout(t *testing.T) {
	f := newCartFixture(t, "tok")
	f.signIn(t, nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	server := &domaincart.Cart{Items: []domaincart.Item{item("i1", "p1", 10, 1)}}
	f.cartAPI.EXPECT().AddToCart(gomock.Any(), "p1", 1).DoAndReturn(
		func(context.Context, string, int) (*domaincart.Cart, error) {
			close(entered)
			<-release
			return server, nil
		})
	f.authAPI.EXPECT().Logout(gomock.Any()).Return(nil)

	done := make(chan error, 1)
	go func() {
		_, err := f.cart.AddToCart(context.Background(), "p1", 1)
		done <- err
	}()
	<-entered

	require.NoError(t, f.session.Logout(context.Background()))
	close(release)
	require.NoError(t, <-done)

	assert.Nil(t, f.cart.Cart())
}

func TestCartService_MutationAfterFailedLogoutKeepsCartEmpty(t *testing.T) {
	f := newCartFixture(t, "tok")
	f.signIn(t, &domaincart.Cart{Items: []domaincart.Item{item("i1", "p1", 10, 1)}})

	f.authAPI.EXPECT().Logout(gomock.Any()).Return(apperrors.MapTransportError(errors.New("network down")))
	require.Error(t, f.session.Logout(context.Background()))
	require.Equal(t, domainauth.StateAnonymous, f.session.State())

	// The backend still honours the session cookie, so the add succeeds.
	server := &domaincart.Cart{Items: []domaincart.Item{item("i2", "p2", 5, 1)}}
	f.cartAPI.EXPECT().AddToCart(gomock.Any(), "p2", 1).Return(server, nil)

	got, err := f.cart.AddToCart(context.Background(), "p2", 1)
	require.NoError(t, err)
	assert.Equal(t, server, got)

	assert.Nil(t, f.cart.Cart())
	assert.Zero(t, f.cart.Total())
	assert.Zero(t, f.cart.Count())
}

func TestCartService_NoFetchDuringRecheck(t *testing.T) {
	f := newCartFixture(t, "tok")
	initial := &domaincart.Cart{Items: []domaincart.Item{item("i1", "p1", 10, 2)}}
	f.signIn(t, initial)

	entered := make(chan struct{})
	release := make(chan struct{})
	f.authAPI.EXPECT().Me(gomock.Any()).DoAndReturn(func(context.Context) (*domainauth.User, error) {
		close(entered)
		<-release
		return testUser, nil
	})

	done := make(chan error, 1)
	go func() { done <- f.session.CheckAuth(context.Background()) }()
	<-entered

	// No GetCart expectation is registered here: a request would fail the test.
	f.cart.FetchCart(context.Background())
	assert.Equal(t, initial, f.cart.Cart())

	refreshed := &domaincart.Cart{Items: []domaincart.Item{item("i1", "p1", 10, 3)}}
	f.cartAPI.EXPECT().GetCart(gomock.Any()).Return(refreshed, nil).Times(1)
	close(release)
	require.NoError(t, <-done)

	assert.Equal(t, refreshed, f.cart.Cart())
}

func TestCartService_LogoutClearsCart(t *testing.T) {
	f := newCartFixture(t, "tok")
	f.signIn(t, &domaincart.Cart{Items: []domaincart.Item{item("i1", "p1", 10, 3)}})
	require.Equal(t, 3, f.cart.Count())

	f.authAPI.EXPECT().Logout(gomock.Any()).Return(apperrors.Internal("backend down"))

	err := f.session.Logout(context.Background())
	require.Error(t, err)

	assert.Equal(t, domainauth.StateAnonymous, f.session.State())
	assert.Nil(t, f.cart.Cart())
	assert.Zero(t, f.cart.Total())
	assert.Empty(t, f.tokens.Current())
}

func TestCartService_LoginFetchesCart(t *testing.T) {
	f := newCartFixture(t, "")
	require.NoError(t, f.session.Start(context.Background()))

	server := &domaincart.Cart{Items: []domaincart.Item{item("i1", "p1", 4, 1)}}
	f.authAPI.EXPECT().Login(gomock.Any(), "ada@example.com", "secret").
		Return(&ports.LoginResult{User: testUser, Token: "t"}, nil)
	f.cartAPI.EXPECT().GetCart(gomock.Any()).Return(server, nil).Times(1)

	_, err := f.session.Login(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)

	assert.Equal(t, server, f.cart.Cart())
}
