package cli

import (
	"fmt"
	"strconv"

	"sitehub/internal/database"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Inspect and apply schema migrations",
}

// openRaw connects without touching the schema.
func openRaw() (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending SQL migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openRaw()
		if err != nil {
			return err
		}
		defer closeDB(db)

		if err := database.RunMigrations(cmd.Context(), db); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		cmd.Println("sql migrations applied")
		return nil
	},
}

var migrateAutoCmd = &cobra.Command{
	Use:   "auto",
	Short: "Run GORM AutoMigrate for every model",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openRaw()
		if err != nil {
			return err
		}
		defer closeDB(db)

		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(cmd.Context(), db, cfg); err != nil {
			return fmt.Errorf("auto schema apply failed: %w", err)
		}
		cmd.Println("automigrations applied")
		return nil
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the schema policy and pending migrations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openRaw()
		if err != nil {
			return err
		}
		defer closeDB(db)

		status, err := database.GetSchemaStatus(cmd.Context(), db, cfg)
		if err != nil {
			return fmt.Errorf("schema status failed: %w", err)
		}
		cmd.Printf("driver=%s mode=%s env=%s run_sql=%t run_auto=%t applied=%d pending=%d\n",
			status.Driver, status.Mode, status.Environment, status.WillRunSQL, status.WillRunAutoMigrate,
			len(status.AppliedVersions), len(status.PendingMigrations))
		for _, m := range status.PendingMigrations {
			cmd.Printf("pending: %06d_%s\n", m.Version, m.Name)
		}
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down <version>",
	Short: "Roll back one applied migration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		version, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[0], err)
		}
		db, err := openRaw()
		if err != nil {
			return err
		}
		defer closeDB(db)

		if err := database.RollbackMigration(cmd.Context(), db, version); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		cmd.Printf("rolled back migration %d\n", version)
		return nil
	},
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateAutoCmd, migrateStatusCmd, migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
}
