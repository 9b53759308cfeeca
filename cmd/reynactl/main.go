package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/lareyna/reyna-api/adapters/persistence"
	"github.com/lareyna/reyna-api/internal/config"
	"github.com/lareyna/reyna-api/pkg/logger"
)

var (
	configDir string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "reynactl",
	Short: "Operational tasks for the Reyna shop backend",
	Long: `reynactl runs maintenance tasks against the Reyna database.

Examples:
  reynactl migrate up                                   # Apply pending migrations
  reynactl seed-admin --email admin@reyna.pe            # Create or reset the admin account
  reynactl export products --out productos.xlsx         # Write the product workbook to a file
  reynactl backup                                       # Upload a pg_dump of the database`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", ".", "directory holding config.yaml and .env")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}

type env struct {
	cfg    config.Config
	logger logger.Logger
	db     *pgxpool.Pool
}

func loadConfig() (config.Config, logger.Logger, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return cfg, nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.NewNopLogger()
	if verbose {
		log = logger.NewZapLogger("development")
	}
	return cfg, log, nil
}

func connect(ctx context.Context) (*env, error) {
	cfg, log, err := loadConfig()
	if err != nil {
		return nil, err
	}
	db, err := persistence.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, logger: log, db: db}, nil
}

func (e *env) Close() {
	e.db.Close()
	_ = e.logger.Sync()
}
