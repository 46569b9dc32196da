package main

import (
	"github.com/spf13/cobra"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/database"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations and seed tenants, then exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := openDatabase(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			return database.Close(db)
		},
	}
}
