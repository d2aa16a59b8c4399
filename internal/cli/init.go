package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/example/maintd/internal/config"
	"github.com/example/maintd/internal/db"
	"github.com/example/maintd/internal/wire"
)

// InitCmd returns the init command
func InitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize the maintd config and database",
		Long: `Write a default config file (unless one exists) and create the database
with the required schema. --seed loads a handful of sample requests.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, _ := cmd.Flags().GetBool("seed")
			path := wire.ConfigPath()

			if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
				if err := config.SaveConfig(path, config.Default()); err != nil {
					return err
				}
				fmt.Printf("✓ Config written to %s\n", path)
			} else if err != nil {
				return fmt.Errorf("failed to check config: %w", err)
			} else {
				fmt.Printf("Using existing config %s\n", path)
			}

			database := wire.Database()
			fmt.Println("✓ Database initialized successfully")

			if seed {
				if err := db.SeedFixtures(database, wire.Clock().Now()); err != nil {
					return fmt.Errorf("failed to seed database: %w", err)
				}
				fmt.Println("✓ Sample requests loaded")
			}

			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  maintd request create \"Leaking tap\" --category Facilities")
			fmt.Println("  maintd serve")

			return nil
		},
	}

	cmd.Flags().Bool("seed", false, "Load sample requests and escalation history")
	return cmd
}
