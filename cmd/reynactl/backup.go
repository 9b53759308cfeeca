package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lareyna/reyna-api/adapters/media_storage"
	"github.com/lareyna/reyna-api/internal/application/usecase/backup"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Dump the database with pg_dump and upload it to file storage",
	Long: `Run pg_dump in custom format against db.dsn and upload the dump under
backups/database/ through the configured storage driver (cloudinary or s3).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		ctx := cmd.Context()
		uploader, err := media_storage.NewFileUploader(ctx, cfg, log)
		if err != nil {
			return err
		}

		res, err := backup.NewBackupUseCase(cfg.DB.DSN, backup.PgDump, uploader, log).Execute(ctx)
		if err != nil {
			return err
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %d bytes to %s\n", res.Size, cyan(res.URL))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(backupCmd)
}
