// Package cli implements tiergatectl, the admin command line for tiergate.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/tiergate/internal/client/client"
	"github.com/dmitrijs2005/tiergate/internal/client/config"
	"github.com/spf13/cobra"
)

// ClientFactory dials the backend. Tests replace it with a fake.
type ClientFactory func(addr, session string) (client.Client, error)

type App struct {
	config    *config.Config
	newClient ClientFactory
	out       io.Writer
}

func NewApp(c *config.Config, f ClientFactory) *App {
	if f == nil {
		f = func(addr, session string) (client.Client, error) {
			return client.NewGRPCClient(addr, session)
		}
	}
	return &App{config: c, newClient: f}
}

// withClient runs fn with a connected client and a context bounded by the
// configured timeout.
func (a *App) withClient(ctx context.Context, fn func(ctx context.Context, c client.Client) error) error {
	c, err := a.newClient(a.config.ServerEndpointAddr, a.config.SessionToken)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer c.Close()

	if a.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.Timeout)
		defer cancel()
	}
	return fn(ctx, c)
}

// NewRootCmd builds the tiergatectl command tree.
func (a *App) NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "tiergatectl",
		Short: "tiergatectl - admin client for the tiergate access service",
		Long: `tiergatectl talks to a tiergate server over gRPC.

Administrative commands (tier, link issue) require --session, or
TIERGATE_SESSION, holding a session token of an allow-listed admin.
Obtain one with "link verify" on a magic link sent to the admin.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			a.out = cmd.OutOrStdout()
		},
	}

	root.PersistentFlags().StringVarP(&a.config.ServerEndpointAddr, "addr", "a", a.config.ServerEndpointAddr, "address and port of the tiergate gRPC server")
	root.PersistentFlags().StringVar(&a.config.SessionToken, "session", a.config.SessionToken, "admin session token sent with every call")
	root.PersistentFlags().DurationVar(&a.config.Timeout, "timeout", a.config.Timeout, "per-command timeout")

	root.AddCommand(a.pingCmd())
	root.AddCommand(a.accessCmd())
	root.AddCommand(a.tierCmd())
	root.AddCommand(a.linkCmd())
	return root
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
