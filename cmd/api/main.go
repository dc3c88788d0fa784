package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloudtodo/core/cmd/api/commands"
)

// @title CloudTodo API
// @version 1.0
// @description Telegram task bot webhook and admin API

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	rootCmd := &cobra.Command{
		Use:   "cloudtodo",
		Short: "CloudTodo bot server",
		Long:  `CloudTodo is a Telegram task bot: it receives commands over a webhook, keeps each user's tasks in a key-value or SQL store and answers with formatted replies.`,
	}

	// Add commands
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewWebhookCommand())
	rootCmd.AddCommand(commands.NewAdminCommand())
	rootCmd.AddCommand(commands.NewShellCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
