package main

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/lk2023060901/file-storage-backend/internal/data"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/database"
	"github.com/spf13/cobra"
)

func newMigrateCmd(configFile *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(*configFile, func(ctx context.Context, m *data.Migrator) error {
					return m.Up(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(*configFile, func(ctx context.Context, m *data.Migrator) error {
					return m.Down(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show the state of every migration",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return withMigrator(*configFile, func(ctx context.Context, m *data.Migrator) error {
					status, err := m.Status(ctx)
					if err != nil {
						return err
					}

					w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
					fmt.Fprintln(w, "VERSION\tSTATE\tAPPLIED AT\tPATH")
					for _, s := range status {
						applied := "-"
						if !s.AppliedAt.IsZero() {
							applied = s.AppliedAt.Format(time.RFC3339)
						}
						fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", s.Source.Version, s.State, applied, s.Source.Path)
					}
					return w.Flush()
				})
			},
		},
	)
	return cmd
}

func withMigrator(configFile string, fn func(ctx context.Context, m *data.Migrator) error) error {
	config, log, err := setup(configFile)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	db, err := database.New(config.Database, log.Named("database"))
	if err != nil {
		return err
	}
	defer db.Close()

	sqlDB, err := db.SQL()
	if err != nil {
		return err
	}
	m, err := data.NewMigrator(sqlDB, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	return fn(ctx, m)
}
