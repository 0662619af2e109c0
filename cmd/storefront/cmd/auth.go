package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/target/storefront-go/internal/bootstrap"
	domainauth "github.com/target/storefront-go/internal/domain/auth"
)

type sessionView struct {
	State   domainauth.State `json:"state"`
	User    *domainauth.User `json:"user"`
	IsAdmin bool             `json:"isAdmin"`
}

// authView is printed after login and verification. The token stays out
// of the output.
type authView struct {
	Message string      `json:"message,omitempty"`
	Session sessionView `json:"session"`
}

func viewSession(app *bootstrap.App) sessionView {
	return sessionView{
		State:   app.Session.State(),
		User:    app.Session.User(),
		IsAdmin: app.Session.IsAdmin(),
	}
}

func (c *cli) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlag("email", email); err != nil {
				return err
			}
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App) (any, error) {
				res, err := app.Session.Login(ctx, email, password)
				if err != nil {
					return nil, err
				}
				return authView{Message: res.Message, Session: viewSession(app)}, nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	return cmd
}

func (c *cli) registerCmd() *cobra.Command {
	var name, email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account; a verification code is emailed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlag("name", name); err != nil {
				return err
			}
			if err := requireFlag("email", email); err != nil {
				return err
			}
			if err := requireFlag("password", password); err != nil {
				return err
			}
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App) (any, error) {
				return app.Session.Register(ctx, name, email, password)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&password, "password", "", "Account password")
	return cmd
}

func (c *cli) verifyCmd() *cobra.Command {
	var email, code string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Confirm an email address with the emailed code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlag("email", email); err != nil {
				return err
			}
			if err := requireFlag("code", code); err != nil {
				return err
			}
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App) (any, error) {
				res, err := app.Session.VerifyEmail(ctx, email, code)
				if err != nil {
					return nil, err
				}
				return authView{Message: res.Message, Session: viewSession(app)}, nil
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&code, "code", "", "Verification code")
	return cmd
}

func (c *cli) resendCmd() *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "resend-verification",
		Short: "Send a new verification code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlag("email", email); err != nil {
				return err
			}
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App) (any, error) {
				return app.Session.ResendVerification(ctx, email)
			})
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "Account email")
	return cmd
}

func (c *cli) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and forget the stored token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(ctx context.Context, app *bootstrap.App) (any, error) {
				if err := app.Session.Logout(ctx); err != nil {
					// Local credentials are gone regardless.
					app.Logger.WarnContext(ctx, "logout incomplete", "error", err)
				}
				return viewSession(app), nil
			})
		},
	}
}

func (c *cli) whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.run(cmd, func(_ context.Context, app *bootstrap.App) (any, error) {
				return viewSession(app), nil
			})
		},
	}
}
