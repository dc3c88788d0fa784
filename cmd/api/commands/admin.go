package commands

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/cloudtodo/core/internal/application/services"
)

// NewAdminCommand creates the admin helper commands
func NewAdminCommand() *cobra.Command {
	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Admin API helpers",
	}

	adminCmd.AddCommand(&cobra.Command{
		Use:   "hash-password <password>",
		Short: "Print the bcrypt hash to put in admin.password_hash",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			hash, err := services.HashPassword(args[0])
			if err != nil {
				log.Fatal(err)
			}
			fmt.Println(hash)
		},
	})

	adminCmd.AddCommand(&cobra.Command{
		Use:   "token",
		Short: "Issue an admin bearer token without logging in",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, appLogger, err := loadConfigAndLogger()
			if err != nil {
				log.Fatal(err)
			}

			auth := services.NewAuthService(cfg.Admin, cfg.JWT, appLogger)
			token, err := auth.GenerateToken(cfg.Admin.Username)
			if err != nil {
				log.Fatalf("Failed to issue token: %v", err)
			}
			fmt.Println(token)
		},
	})

	return adminCmd
}
