package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bher20/npahowtopay/internal/migrate"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrate.Up(cmd.Context(), a.cfg.DBDriver, a.cfg.DBDSN)
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrate.Down(cmd.Context(), a.cfg.DBDriver, a.cfg.DBDSN)
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Print the state of every migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return migrate.Status(cmd.Context(), a.cfg.DBDriver, a.cfg.DBDSN)
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current schema version",
			RunE: func(cmd *cobra.Command, args []string) error {
				v, err := migrate.Version(cmd.Context(), a.cfg.DBDriver, a.cfg.DBDSN)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			},
		},
	)
	return cmd
}
