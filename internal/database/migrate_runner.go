package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"sitehub/internal/middleware"

	"gorm.io/gorm"
)

// MigrationLog is one row of the ledger of applied SQL migrations.
type MigrationLog struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	AppliedAt time.Time `gorm:"autoCreateTime;index"`
}

func (MigrationLog) TableName() string {
	return "migration_logs"
}

// migrator applies a fixed, version-ordered list of migrations and keeps
// migration_logs in step with it. A script and its ledger row always commit
// or roll back together.
type migrator struct {
	db   *gorm.DB
	list []Migration
}

func newMigrator(db *gorm.DB, list []Migration) *migrator {
	return &migrator{db: db, list: list}
}

func (m *migrator) ensureLedger(ctx context.Context) error {
	if err := m.db.WithContext(ctx).AutoMigrate(&MigrationLog{}); err != nil {
		return fmt.Errorf("create migration_logs: %w", err)
	}
	return nil
}

// applied lists recorded versions in ascending order. A missing ledger
// table reads as nothing applied.
func (m *migrator) applied(ctx context.Context) ([]int, error) {
	var versions []int
	err := m.db.WithContext(ctx).Model(&MigrationLog{}).Order("version").Pluck("version", &versions).Error
	switch {
	case err == nil:
		return versions, nil
	case errors.Is(err, gorm.ErrRecordNotFound), isMissingTableError(err):
		return []int{}, nil
	default:
		return nil, fmt.Errorf("read migration_logs: %w", err)
	}
}

func isMissingTableError(err error) bool {
	msg := strings.ToLower(err.Error())
	return (strings.Contains(msg, "relation") && strings.Contains(msg, "does not exist")) ||
		strings.Contains(msg, "no such table")
}

// pending returns the applied versions and the migrations not yet among them.
func (m *migrator) pending(ctx context.Context) ([]int, []Migration, error) {
	applied, err := m.applied(ctx)
	if err != nil {
		return nil, nil, err
	}
	var out []Migration
	for _, mig := range m.list {
		if !slices.Contains(applied, mig.Version) {
			out = append(out, mig)
		}
	}
	return applied, out, nil
}

// Up applies every pending migration in version order.
func (m *migrator) Up(ctx context.Context) error {
	if err := m.ensureLedger(ctx); err != nil {
		return err
	}
	applied, todo, err := m.pending(ctx)
	if err != nil {
		return err
	}
	if err := validateAppliedVersions(applied, m.list); err != nil {
		return err
	}
	for _, mig := range todo {
		middleware.Logger.InfoContext(ctx, "applying migration", slog.String("migration", mig.String()))
		err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Exec(mig.UpScript).Error; err != nil {
				return fmt.Errorf("apply %s: %w", mig.String(), err)
			}
			if err := tx.Create(&MigrationLog{Version: mig.Version, Name: mig.Name}).Error; err != nil {
				return fmt.Errorf("record %s: %w", mig.String(), err)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}
	if len(todo) == 0 {
		middleware.Logger.DebugContext(ctx, "schema up to date", slog.Int("applied", len(applied)))
	}
	return nil
}

// Down runs the rollback script of one applied migration and drops its
// ledger row.
func (m *migrator) Down(ctx context.Context, version int) error {
	idx := slices.IndexFunc(m.list, func(mig Migration) bool { return mig.Version == version })
	if idx < 0 {
		return fmt.Errorf("migration version %d not found", version)
	}
	mig := m.list[idx]

	applied, err := m.applied(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(applied, version) {
		return fmt.Errorf("migration %d has not been applied", version)
	}

	middleware.Logger.InfoContext(ctx, "rolling back migration", slog.String("migration", mig.String()))
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(mig.DownScript).Error; err != nil {
			return fmt.Errorf("roll back %s: %w", mig.String(), err)
		}
		if err := tx.Where("version = ?", version).Delete(&MigrationLog{}).Error; err != nil {
			return fmt.Errorf("unrecord %s: %w", mig.String(), err)
		}
		return nil
	})
}

// validateAppliedVersions rejects a ledger holding versions this binary does
// not ship; they were applied by a newer build and must be rolled back by it.
func validateAppliedVersions(applied []int, registered []Migration) error {
	var unknown []string
	for _, version := range applied {
		if !slices.ContainsFunc(registered, func(mig Migration) bool { return mig.Version == version }) {
			unknown = append(unknown, fmt.Sprintf("%06d", version))
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	slices.Sort(unknown)
	return fmt.Errorf("migration_logs contains unknown versions not present in this build: %s (roll them back with the binary that applied them)",
		strings.Join(unknown, ", "))
}

// RunMigrations applies every pending embedded migration.
func RunMigrations(ctx context.Context, db *gorm.DB) error {
	return newMigrator(db, migrations).Up(ctx)
}

// RollbackMigration reverts one applied embedded migration by version.
func RollbackMigration(ctx context.Context, db *gorm.DB, version int) error {
	return newMigrator(db, migrations).Down(ctx, version)
}
