// Package cli implements sitehubctl, the site's operations command.
package cli

import (
	"fmt"

	"sitehub/internal/config"
	"sitehub/internal/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:          "sitehubctl",
	Short:        "Operations tooling for SiteHub",
	Long:         "sitehubctl manages the SiteHub database: schema migrations, demo data and staff accounts.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		return nil
	},
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

// connect opens the configured database and applies the schema.
func connect() (*gorm.DB, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

func closeDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
