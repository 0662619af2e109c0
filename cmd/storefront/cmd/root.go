// Package cmd implements the storefront command line client.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/target/storefront-go/internal/bootstrap"
	apperrors "github.com/target/storefront-go/internal/errors"
)

// AppFactory builds the client stack for one command invocation.
type AppFactory func(ctx context.Context) (*bootstrap.App, error)

// Options configures NewRootCmd. Zero values use stdout and stderr and load
// the app from the environment.
type Options struct {
	Out    io.Writer
	Err    io.Writer
	NewApp AppFactory
	// Args replaces os.Args[1:] when non-nil.
	Args []string
}

type cli struct {
	out    io.Writer
	newApp AppFactory
	query  string
}

// NewRootCmd builds the storefront command tree.
func NewRootCmd(opts Options) *cobra.Command {
	c := &cli{out: opts.Out, newApp: opts.NewApp}
	if c.out == nil {
		c.out = os.Stdout
	}
	if c.newApp == nil {
		c.newApp = appFromEnv
	}

	root := &cobra.Command{
		Use:   "storefront",
		Short: "Storefront session and cart client",
		Long: `Talks to a storefront backend API: log in, inspect the session and manage the cart.
Configuration comes from the environment (API_BASE_URL, TOKEN_STORE, ...) or a .env file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(c.out)
	if opts.Err != nil {
		root.SetErr(opts.Err)
	}
	if opts.Args != nil {
		root.SetArgs(opts.Args)
	}
	root.PersistentFlags().StringVarP(&c.query, "query", "q", "", "JMESPath expression applied to the JSON output")

	root.AddCommand(
		c.loginCmd(),
		c.registerCmd(),
		c.verifyCmd(),
		c.resendCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.cartCmd(),
	)
	return root
}

// Execute runs the command tree and reports a failure on the error writer.
// It returns the process exit code.
func Execute(ctx context.Context, opts Options) int {
	root := NewRootCmd(opts)
	cmd, err := root.ExecuteContextC(ctx)
	if err == nil {
		return 0
	}
	if cmd == nil {
		cmd = root
	}
	fmt.Fprintln(root.ErrOrStderr(), "Error:", describeError(cmd, err))
	return 1
}

// describeError renders err for the terminal, adding a next step for the
// failures a user can fix.
func describeError(cmd *cobra.Command, err error) string {
	msg := err.Error()
	switch {
	case apperrors.IsForbidden(err):
		return msg + "\nConfirm your email with `storefront verify` or request a new code with `storefront resend-verification`."
	case apperrors.GetField(err) != "":
		return fmt.Sprintf("%s\nRun '%s --help' for usage.", msg, cmd.CommandPath())
	}
	return msg
}

func appFromEnv(ctx context.Context) (*bootstrap.App, error) {
	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		return nil, err
	}
	logger := bootstrap.InitLogger(bootstrap.LoggerOptionsFromConfig(&cfg))
	return bootstrap.NewApp(ctx, bootstrap.AppDeps{Config: &cfg, Logger: logger})
}

// run builds the app, settles the session and hands both to fn. Whatever fn
// returns is printed as JSON.
func (c *cli) run(cmd *cobra.Command, fn func(ctx context.Context, app *bootstrap.App) (any, error)) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	app, err := c.newApp(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			app.Logger.ErrorContext(ctx, "close app failed", "error", cerr)
		}
	}()

	if err := app.Session.Start(ctx); err != nil {
		app.Logger.WarnContext(ctx, "session check failed", "error", err)
	}

	out, err := fn(ctx, app)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	return printJSON(c.out, c.query, out)
}

func requireFlag(name, value string) error {
	if value == "" {
		return apperrors.ValidationField(name, fmt.Sprintf("--%s is required", name))
	}
	return nil
}
