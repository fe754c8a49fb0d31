package cli

import (
	"context"
	"fmt"

	"sitehub/internal/repository"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var staffCmd = &cobra.Command{
	Use:   "staff",
	Short: "Grant, revoke and list staff access",
}

// setStaff updates the staff flag of the named user.
func setStaff(ctx context.Context, db *gorm.DB, username string, staff bool) error {
	users := repository.NewUserRepository(db)
	user, err := users.GetByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user == nil {
		return fmt.Errorf("user %q not found", username)
	}
	user.IsStaff = staff
	return users.Update(ctx, user)
}

func staffToggleCmd(use, short string, staff bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <username>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := connect()
			if err != nil {
				return err
			}
			defer closeDB(db)

			if err := setStaff(cmd.Context(), db, args[0], staff); err != nil {
				return fmt.Errorf("%s %s: %w", use, args[0], err)
			}
			cmd.Printf("%s: staff=%t\n", args[0], staff)
			return nil
		},
	}
}

var staffListCmd = &cobra.Command{
	Use:   "list",
	Short: "List staff accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := connect()
		if err != nil {
			return err
		}
		defer closeDB(db)

		usernames, err := listStaff(cmd.Context(), db)
		if err != nil {
			return err
		}
		if len(usernames) == 0 {
			cmd.Println("no staff accounts")
			return nil
		}
		for _, name := range usernames {
			cmd.Println(name)
		}
		return nil
	},
}

func listStaff(ctx context.Context, db *gorm.DB) ([]string, error) {
	var usernames []string
	err := db.WithContext(ctx).Table("users").Where("is_staff = ?", true).Order("username").Pluck("username", &usernames).Error
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	return usernames, nil
}

func init() {
	staffCmd.AddCommand(
		staffToggleCmd("promote", "Give a user staff access", true),
		staffToggleCmd("demote", "Remove staff access from a user", false),
		staffListCmd,
	)
	rootCmd.AddCommand(staffCmd)
}
