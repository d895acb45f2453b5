package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bher20/npahowtopay/internal/auth"
)

func newUserCmd(a *app) *cobra.Command {
	var username, email, password, role string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an API user",
		RunE: func(cmd *cobra.Command, args []string) error {
			if username == "" || password == "" {
				return errors.New("--username and --password are required")
			}
			st, err := a.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer st.Close()
			svc, err := auth.NewService(st)
			if err != nil {
				return err
			}
			u, err := svc.Register(cmd.Context(), username, email, password, role)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s) role=%s\n", u.Username, u.ID, u.Role)
			return nil
		},
	}
	create.Flags().StringVar(&username, "username", "", "login name")
	create.Flags().StringVar(&email, "email", "", "email address")
	create.Flags().StringVar(&password, "password", "", "password")
	create.Flags().StringVar(&role, "role", auth.RoleViewer, "admin, analyst or viewer")

	cmd := &cobra.Command{Use: "user", Short: "Manage API users"}
	cmd.AddCommand(create)
	return cmd
}

func newTokenCmd(a *app) *cobra.Command {
	var username, name, role, expires string
	create := &cobra.Command{
		Use:   "create",
		Short: "Issue an API token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			st, err := a.openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close()
			svc, err := auth.NewService(st)
			if err != nil {
				return err
			}

			u, err := st.GetUserByUsername(ctx, username)
			if err != nil {
				return err
			}
			if u == nil {
				return fmt.Errorf("no user %q", username)
			}
			if role == "" {
				role = u.Role
			}
			if expires == "" {
				expires = a.cfg.TokenExpiry
			}
			expiresAt, err := auth.ParseExpirationDuration(expires)
			if err != nil {
				return err
			}
			t, raw, err := svc.CreateToken(ctx, u.ID, name, role, expiresAt)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "token %s (role=%s)\n%s\n", t.ID, t.Role, raw)
			return nil
		},
	}
	create.Flags().StringVar(&username, "username", "", "owner of the token")
	create.Flags().StringVar(&name, "name", "cli", "label for the token")
	create.Flags().StringVar(&role, "role", "", "role granted by the token (default the user's role)")
	create.Flags().StringVar(&expires, "expires", "", "lifetime such as 30d, 2w or never (default $NPAHOWTOPAY_TOKEN_EXPIRY)")
	_ = create.MarkFlagRequired("username")

	cmd := &cobra.Command{Use: "token", Short: "Manage API tokens"}
	cmd.AddCommand(create)
	return cmd
}
