package commands

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloudtodo/core/internal/adapters/telegram"
)

// NewWebhookCommand registers or removes the Telegram webhook
func NewWebhookCommand() *cobra.Command {
	webhookCmd := &cobra.Command{
		Use:   "webhook",
		Short: "Manage the Telegram webhook",
	}

	webhookCmd.AddCommand(&cobra.Command{
		Use:     "install <public-base-url>",
		Short:   "Point the bot at this server",
		Example: "cloudtodo webhook install https://bot.example.com",
		Args:    cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			cfg, appLogger, err := loadConfigAndLogger()
			if err != nil {
				log.Fatal(err)
			}
			if cfg.Telegram.BotToken == "" {
				log.Fatal("telegram.bot_token is not configured")
			}

			url := strings.TrimRight(args[0], "/") + cfg.Telegram.WebhookPath
			client, err := telegram.NewClient(cfg.Telegram, appLogger)
			if err != nil {
				log.Fatal(err)
			}
			if err := client.SetWebhook(context.Background(), url, cfg.Telegram.SecretToken); err != nil {
				log.Fatalf("Failed to install webhook: %v", err)
			}
			fmt.Printf("Webhook installed at %s\n", url)
		},
	})

	webhookCmd.AddCommand(&cobra.Command{
		Use:   "delete",
		Short: "Remove the registered webhook",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, appLogger, err := loadConfigAndLogger()
			if err != nil {
				log.Fatal(err)
			}

			client, err := telegram.NewClient(cfg.Telegram, appLogger)
			if err != nil {
				log.Fatal(err)
			}
			if err := client.DeleteWebhook(context.Background()); err != nil {
				log.Fatalf("Failed to delete webhook: %v", err)
			}
			fmt.Println("Webhook deleted")
		},
	})

	return webhookCmd
}
