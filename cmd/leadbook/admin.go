package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leadbook/leadbook/internal/db"
	"github.com/leadbook/leadbook/internal/dbpool"
	"github.com/leadbook/leadbook/internal/store"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			if err := db.Migrate(cmd.Context(), cfg.DatabaseURL.Value(), log); err != nil {
				log.WithError(err).Error("migration failed")
				return err
			}

			log.WithField("schema_version", db.SchemaVersion()).Info("migrations applied")
			return nil
		},
	}
}

func newUserCmd() *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage API users",
	}

	userCmd.AddCommand(&cobra.Command{
		Use:   "add <name>",
		Short: "Create a user and print its API key",
		Long:  "Create a user and print its API key. The key is shown once and only its hash is stored.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}

			pool, err := dbpool.NewPool(cmd.Context(), cfg.DatabaseURL.Value(), 2)
			if err != nil {
				log.WithError(err).Error("connecting to database")
				return err
			}
			defer pool.Close()

			users := store.NewUserStore(store.Base{DB: pool, Log: log})
			user, key, err := users.CreateUser(cmd.Context(), args[0])
			if err != nil {
				log.WithError(err).Error("creating user")
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "id:      %s\nname:    %s\napi_key: %s\n", user.ID, user.Name, key)
			return nil
		},
	})

	return userCmd
}
