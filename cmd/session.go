package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/travel-backoffice/internal"
	"github.com/frahmantamala/travel-backoffice/internal/auth"
	"github.com/frahmantamala/travel-backoffice/internal/session"
	"github.com/frahmantamala/travel-backoffice/pkg/logger"
)

var (
	loginEmail    string
	loginPassword string
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Log in, log out and inspect the CLI session",
	Long: `Runs the login state machine against the configured session backend.
The CLI keeps its session on its own "cli" scope, apart from HTTP clients. With the memory
backend a session lasts only for one command.`,
}

var sessionLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with email and password",
	RunE: withSessionCLI(func(ctx context.Context, c sessionCLI, _ []string) error {
		password := loginPassword
		if password == "" {
			password = os.Getenv("BACKOFFICE_PASSWORD")
		}
		return c.login(ctx, loginEmail, password)
	}),
}

var sessionLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Clear the CLI session",
	RunE: withSessionCLI(func(ctx context.Context, c sessionCLI, _ []string) error {
		return c.logout(ctx)
	}),
}

var sessionWhoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in user",
	RunE: withSessionCLI(func(ctx context.Context, c sessionCLI, _ []string) error {
		return c.whoami(ctx)
	}),
}

var sessionCanCmd = &cobra.Command{
	Use:   "can [page-id]",
	Short: "Ask the route guard whether the session may open a page",
	Args:  cobra.ExactArgs(1),
	RunE: withSessionCLI(func(ctx context.Context, c sessionCLI, args []string) error {
		return c.can(ctx, args[0])
	}),
}

func init() {
	sessionLoginCmd.Flags().StringVarP(&loginEmail, "email", "e", "", "account email")
	sessionLoginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "account password (defaults to $BACKOFFICE_PASSWORD)")
	_ = sessionLoginCmd.MarkFlagRequired("email")

	sessionCmd.AddCommand(sessionLoginCmd, sessionLogoutCmd, sessionWhoamiCmd, sessionCanCmd)
}

type sessionAuth interface {
	Login(ctx context.Context, email, password string) (*session.Principal, error)
	Logout(ctx context.Context) error
	CurrentUser(ctx context.Context) (*session.Principal, bool, error)
	State(ctx context.Context) auth.State
}

type pageGuard interface {
	Allow(ctx context.Context, pageID string) auth.Decision
}

type sessionCLI struct {
	auth  sessionAuth
	guard pageGuard
	out   io.Writer
}

func withSessionCLI(run func(ctx context.Context, c sessionCLI, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := internal.ContextWithClientID(context.Background(), internal.CLIClientID)
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		ident, err := buildIdentity(ctx, cfg, logger.LoggerWrapper())
		if err != nil {
			return err
		}
		defer ident.Close()

		return run(ctx, sessionCLI{auth: ident.Auth, guard: ident.Guard, out: cmd.OutOrStdout()}, args)
	}
}

func (c sessionCLI) login(ctx context.Context, email, password string) error {
	p, err := c.auth.Login(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Logged in as %s (%s)\n", p.Email, p.Role)
	return nil
}

func (c sessionCLI) logout(ctx context.Context) error {
	if err := c.auth.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Logged out")
	return nil
}

func (c sessionCLI) whoami(ctx context.Context) error {
	p, ok, err := c.auth.CurrentUser(ctx)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintf(c.out, "state: %s\n", c.auth.State(ctx))
		return nil
	}
	name := p.FullName()
	if name == "" {
		name = "-"
	}
	fmt.Fprintf(c.out, "state: %s\nid: %s\nemail: %s\nname: %s\nrole: %s\n",
		c.auth.State(ctx), p.ID, p.Email, name, p.Role)
	return nil
}

func (c sessionCLI) can(ctx context.Context, pageID string) error {
	d := c.guard.Allow(ctx, pageID)
	if d.Allowed {
		fmt.Fprintf(c.out, "%s: allowed\n", pageID)
		return nil
	}
	fmt.Fprintf(c.out, "%s: denied (%s)\n", pageID, d.Reason)
	return nil
}
