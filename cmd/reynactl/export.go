package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lareyna/reyna-api/adapters/persistence"
	exportUC "github.com/lareyna/reyna-api/internal/application/usecase/export"
	domain "github.com/lareyna/reyna-api/internal/domain/export"
)

var exportCmd = &cobra.Command{
	Use:       "export <products|users>",
	Short:     "Write a product or user workbook to a file",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(domain.KindProducts), string(domain.KindUsers)},
	RunE: func(cmd *cobra.Command, args []string) error {
		out, _ := cmd.Flags().GetString("out")

		ctx := cmd.Context()
		e, err := connect(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		builder := exportUC.NewBuildWorkbookUseCase(
			persistence.NewPostgresProductRepo(e.db),
			persistence.NewPostgresUserRepo(e.db, e.logger),
			e.logger,
		)
		return runExport(ctx, builder, domain.Kind(args[0]), out, cmd.OutOrStdout())
	},
}

func init() {
	exportCmd.Flags().StringP("out", "o", "", "output path (defaults to productos.xlsx or usuarios.xlsx)")
	rootCmd.AddCommand(exportCmd)
}

func runExport(ctx context.Context, builder *exportUC.BuildWorkbookUseCase, kind domain.Kind, out string, w io.Writer) error {
	file, err := builder.Execute(ctx, kind)
	if err != nil {
		return err
	}
	if out == "" {
		out = file.Name
	}
	if err := os.WriteFile(out, file.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	fmt.Fprintf(w, "Wrote %d %s to %s\n", file.Rows, kind, cyan(out))
	return nil
}
