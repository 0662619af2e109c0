package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/target/storefront-go/internal/bootstrap"
	domaincart "github.com/target/storefront-go/internal/domain/cart"
	apperrors "github.com/target/storefront-go/internal/errors"
)

type cartView struct {
	Cart  *domaincart.Cart `json:"cart"`
	Total float64          `json:"total"`
	Count int              `json:"count"`
}

func viewCart(app *bootstrap.App) cartView {
	return cartView{Cart: app.Cart.Cart(), Total: app.Cart.Total(), Count: app.Cart.Count()}
}

// cartOp runs fn only for an authenticated session and prints the cart after.
func (c *cli) cartOp(cmd *cobra.Command, fn func(ctx context.Context, app *bootstrap.App) error) error {
	return c.run(cmd, func(ctx context.Context, app *bootstrap.App) (any, error) {
		if !app.Session.IsAuthenticated() {
			return nil, apperrors.Unauthorized("Not logged in. Run `storefront login` first.")
		}
		if fn != nil {
			if err := fn(ctx, app); err != nil {
				return nil, err
			}
		}
		return viewCart(app), nil
	})
}

func (c *cli) cartCmd() *cobra.Command {
	cartCmd := &cobra.Command{
		Use:   "cart",
		Short: "Show and change the cart",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the cart with total and item count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.cartOp(cmd, nil)
		},
	}

	var quantity int
	add := &cobra.Command{
		Use:   "add <productId>",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if quantity < 1 {
				return apperrors.ValidationField("quantity", fmt.Sprintf("--quantity must be at least 1, got %d", quantity))
			}
			return c.cartOp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				_, err := app.Cart.AddToCart(ctx, args[0], quantity)
				return err
			})
		},
	}
	add.Flags().IntVarP(&quantity, "quantity", "n", 1, "Number of units")

	update := &cobra.Command{
		Use:   "update <itemId> <quantity>",
		Short: "Set the quantity of a cart line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			qty, err := strconv.Atoi(args[1])
			if err != nil || qty < 1 {
				return apperrors.Validationf("quantity must be a positive integer, got %q", args[1])
			}
			return c.cartOp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				_, err := app.Cart.UpdateCartItem(ctx, args[0], qty)
				return err
			})
		},
	}

	remove := &cobra.Command{
		Use:   "remove <itemId>",
		Short: "Remove a line from the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.cartOp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				_, err := app.Cart.RemoveFromCart(ctx, args[0])
				return err
			})
		},
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.cartOp(cmd, func(ctx context.Context, app *bootstrap.App) error {
				return app.Cart.ClearCart(ctx)
			})
		},
	}

	cartCmd.AddCommand(show, add, update, remove, clearCmd)
	return cartCmd
}
