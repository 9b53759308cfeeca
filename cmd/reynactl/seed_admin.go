package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lareyna/reyna-api/adapters/persistence"
	authUC "github.com/lareyna/reyna-api/internal/application/usecase/auth"
)

var seedAdminCmd = &cobra.Command{
	Use:   "seed-admin",
	Short: "Create the admin account or reset its password",
	Long: `Create an ADMIN user, or reset the password and role of the user that
already owns the email.

The password is read from --password or the ADMIN_PASSWORD environment variable.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("name")
		email, _ := cmd.Flags().GetString("email")
		password, _ := cmd.Flags().GetString("password")
		if password == "" {
			password = os.Getenv("ADMIN_PASSWORD")
		}
		if email == "" || password == "" {
			return fmt.Errorf("--email and a password (--password or ADMIN_PASSWORD) are required")
		}

		ctx := cmd.Context()
		e, err := connect(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		uc := authUC.NewSeedAdminUseCase(persistence.NewPostgresUserRepo(e.db, e.logger), e.logger)
		admin, err := uc.Execute(ctx, authUC.SeedAdminInput{FullName: name, Email: email, Password: password})
		if err != nil {
			return err
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Fprintf(cmd.OutOrStdout(), "%s admin %s (%s) is ready\n", green("✓"), admin.Email, admin.ID)
		return nil
	},
}

func init() {
	seedAdminCmd.Flags().String("name", "Administrador", "full name of the admin")
	seedAdminCmd.Flags().String("email", os.Getenv("ADMIN_EMAIL"), "admin email")
	seedAdminCmd.Flags().String("password", "", "admin password")
	rootCmd.AddCommand(seedAdminCmd)
}
