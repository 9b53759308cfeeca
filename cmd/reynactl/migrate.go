package main

import (
	"errors"
	"fmt"

	"github.com/fatih/color"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
)

var migrationsDir string

var migrateCmd = &cobra.Command{
	Use:       "migrate <up|down|version>",
	Short:     "Apply or roll back database migrations",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"up", "down", "version"},
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, _, err := loadConfig()
		if err != nil {
			return err
		}

		m, err := migrate.New("file://"+migrationsDir, cfg.DB.DSN)
		if err != nil {
			return fmt.Errorf("create migrate instance: %w", err)
		}
		defer m.Close()

		out := cmd.OutOrStdout()
		switch args[0] {
		case "up":
			err = m.Up()
		case "down":
			steps, _ := cmd.Flags().GetInt("steps")
			err = m.Steps(-steps)
		case "version":
			version, dirty, vErr := m.Version()
			if errors.Is(vErr, migrate.ErrNilVersion) {
				fmt.Fprintln(out, "no migrations applied")
				return nil
			}
			if vErr != nil {
				return vErr
			}
			fmt.Fprintf(out, "version %d (dirty: %t)\n", version, dirty)
			return nil
		}

		if errors.Is(err, migrate.ErrNoChange) {
			fmt.Fprintln(out, color.YellowString("no change"))
			return nil
		}
		if err != nil {
			return fmt.Errorf("migrate %s: %w", args[0], err)
		}
		fmt.Fprintln(out, color.GreenString("migrate %s done", args[0]))
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrationsDir, "dir", "migrations", "directory with the .sql migration files")
	migrateCmd.Flags().Int("steps", 1, "number of migrations to roll back with down")
	rootCmd.AddCommand(migrateCmd)
}
