package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"lifeledger/internal/backend"
	"lifeledger/internal/config"
	"lifeledger/internal/core"
)

func newUserCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage ledger users",
	}
	cmd.AddCommand(newUserAddCommand(e), newUserListCommand(e))
	return cmd
}

func newUserAddCommand(e *env) *cobra.Command {
	var (
		name      string
		email     string
		role      string
		withToken bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withBackend(cmd.Context(), func(cfg *config.Config, b backend.Backend) error {
				u, err := b.CreateUser(cmd.Context(), core.NewUser{Name: name, Email: email, Role: core.Role(role)})
				if err != nil {
					return fmt.Errorf("creating user: %w", err)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "created %s user %s <%s>\n", u.Role, u.ID, u.Email)
				if withToken {
					token, err := issuerFor(cfg).Issue(u)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, token)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name (required)")
	cmd.Flags().StringVar(&email, "email", "", "email address (required)")
	cmd.Flags().StringVar(&role, "role", string(core.RoleUser), "user or admin")
	cmd.Flags().BoolVar(&withToken, "token", false, "also print a bearer token for the new user")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newUserListCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List users, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withBackend(cmd.Context(), func(_ *config.Config, b backend.Backend) error {
				users, err := b.ListUsers(cmd.Context())
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE\tCREATED")
				for _, u := range users {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role, u.CreatedAt.Format(time.DateOnly))
				}
				return tw.Flush()
			})
		},
	}
}

func newTokenCommand(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "token <user-id>",
		Short: "Print a bearer token for an existing user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withBackend(cmd.Context(), func(cfg *config.Config, b backend.Backend) error {
				u, err := b.GetUser(cmd.Context(), args[0])
				if err != nil {
					return fmt.Errorf("loading user %s: %w", args[0], err)
				}
				token, err := issuerFor(cfg).Issue(u)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), token)
				return nil
			})
		},
	}
}
