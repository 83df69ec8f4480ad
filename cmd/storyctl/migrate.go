// cmd/storyctl/migrate.go
package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/config"
	"github.com/abigailisabeldefontes-stack/narrative-nurture-box/internal/storage/postgres"
)

func newMigrateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage PostgreSQL schema migrations",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			if c.cfg.Store.Backend != config.StoreBackendPostgres {
				return errors.New("migrations require STORE_BACKEND=postgres")
			}
			return nil
		},
	}

	up := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := postgres.RunMigrations(cmd.Context(), c.cfg.Store.DatabaseURL); err != nil {
				return err
			}
			return printVersion(cmd, c)
		},
	}

	var steps int
	down := &cobra.Command{
		Use:   "down",
		Short: "Roll back migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if steps < 1 {
				return fmt.Errorf("--steps must be at least 1")
			}
			if err := postgres.RollbackMigrations(cmd.Context(), c.cfg.Store.DatabaseURL, steps); err != nil {
				return err
			}
			return printVersion(cmd, c)
		},
	}
	down.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")

	version := &cobra.Command{
		Use:   "version",
		Short: "Print the current schema version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printVersion(cmd, c)
		},
	}

	cmd.AddCommand(up, down, version)
	return cmd
}

func printVersion(cmd *cobra.Command, c *cli) error {
	v, err := postgres.MigrationVersion(cmd.Context(), c.cfg.Store.DatabaseURL)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", v)
	return nil
}
