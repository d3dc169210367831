package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/tiergate/internal/client/client"
	"github.com/spf13/cobra"
)

func (a *App) pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the server answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd.Context(), func(ctx context.Context, c client.Client) error {
				if err := c.Ping(ctx); err != nil {
					return err
				}
				a.printf("OK\n")
				return nil
			})
		},
	}
}

func (a *App) accessCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "access <email> <content-id>",
		Short: "Evaluate access to a content item",
		Long: `Evaluate access for a user and content item.

A granted request for a new item consumes one unlock of the user's quota.

Examples:
  tiergatectl access reader@example.com weekly-report-12`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd.Context(), func(ctx context.Context, c client.Client) error {
				res, err := c.EvaluateAccess(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				verdict := "denied"
				if res.Granted {
					verdict = "granted"
				}
				a.printf("%s (%s)", verdict, res.Reason)
				if res.Tier != "" {
					a.printf(" tier=%s", res.Tier)
				}
				a.printf("\n")
				return nil
			})
		},
	}
}

func (a *App) tierCmd() *cobra.Command {
	var source string
	cmd := &cobra.Command{
		Use:   "tier <email> <tier1|tier2|vip>",
		Short: "Request a tier upgrade",
		Long: `Request a tier change. Only upgrades are applied; requests for the
current or a lower tier are reported and leave the record untouched.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd.Context(), func(ctx context.Context, c client.Client) error {
				res, err := c.RequestTierChange(ctx, args[0], strings.ToLower(args[1]), source)
				if err != nil {
					return err
				}
				a.printf("%s: %s -> %s\n", res.Outcome, res.PreviousTier, res.NewTier)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&source, "source", "s", "", "source recorded when the user is new (default admin)")
	return cmd
}

func (a *App) linkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "link",
		Short: "Issue or verify magic links",
	}
	cmd.AddCommand(a.linkIssueCmd())
	cmd.AddCommand(a.linkVerifyCmd())
	return cmd
}

func (a *App) linkIssueCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "issue <email>",
		Short: "Issue a magic-link token without mailing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withClient(cmd.Context(), func(ctx context.Context, c client.Client) error {
				link, err := c.IssueMagicLink(ctx, args[0])
				if err != nil {
					return err
				}
				a.printf("token: %s\nexpires: %s\n", link.Token, formatTime(link.ExpiresAt))
				return nil
			})
		},
	}
}

func (a *App) linkVerifyCmd() *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "verify <email>",
		Short: "Redeem a magic-link token",
		Long: `Redeem a magic-link token. Without --token the token is read from the
terminal without echo.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				t, err := GetToken(cmd.ErrOrStderr())
				if err != nil {
					return fmt.Errorf("read token: %w", err)
				}
				token = t
			}
			return a.withClient(cmd.Context(), func(ctx context.Context, c client.Client) error {
				session, err := c.VerifyMagicLink(ctx, args[0], token)
				if errors.Is(err, client.ErrInvalidLink) {
					return errors.New("link is invalid or expired")
				}
				if err != nil {
					return err
				}
				a.printf("verified\nsession: %s\n", session)
				return nil
			})
		},
	}
	cmd.Flags().StringVarP(&token, "token", "t", "", "magic-link token")
	return cmd
}
