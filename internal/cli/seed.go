package cli

import (
	"fmt"

	"sitehub/internal/seed"

	"github.com/spf13/cobra"
)

var seedOpts struct {
	users    int
	blogs    int
	products int
	clean    bool
	fixtures string
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Populate the database with demo data",
	Long: "Generates fake users, blogs and products. With --fixtures the data set is read " +
		"from a YAML file instead and applied idempotently.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := connect()
		if err != nil {
			return err
		}
		defer closeDB(db)

		s := seed.NewSeeder(db)
		if seedOpts.clean {
			if err := s.ClearAll(cmd.Context()); err != nil {
				return fmt.Errorf("cleanup failed: %w", err)
			}
		}

		if seedOpts.fixtures != "" {
			fx, err := seed.LoadFixtures(seedOpts.fixtures)
			if err != nil {
				return err
			}
			summary, err := s.ApplyFixtures(cmd.Context(), fx)
			if err != nil {
				return fmt.Errorf("apply fixtures: %w", err)
			}
			cmd.Printf("fixtures applied: %d users, %d categories, %d blogs, %d products created\n",
				summary.Users, summary.Categories, summary.Blogs, summary.Products)
			return nil
		}

		if _, err := s.Run(cmd.Context(), seed.Options{
			Users:    seedOpts.users,
			Blogs:    seedOpts.blogs,
			Products: seedOpts.products,
		}); err != nil {
			return fmt.Errorf("seeding failed: %w", err)
		}
		cmd.Printf("all generated users have the password %q\n", seed.DefaultPassword)
		return nil
	},
}

func init() {
	f := seedCmd.Flags()
	f.IntVar(&seedOpts.users, "users", 10, "number of users to create")
	f.IntVar(&seedOpts.blogs, "blogs", 20, "number of blogs to create")
	f.IntVar(&seedOpts.products, "products", 16, "number of products to create")
	f.BoolVar(&seedOpts.clean, "clean", false, "delete existing site data first")
	f.StringVar(&seedOpts.fixtures, "fixtures", "", "YAML fixtures file to apply instead of generated data")
	rootCmd.AddCommand(seedCmd)
}
