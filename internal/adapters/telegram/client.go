// Package telegram adapts the go-telegram Bot API client to the messenger port.
package telegram

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"github.com/cloudtodo/core/internal/infrastructure/config"
	"github.com/cloudtodo/core/internal/infrastructure/logger"
	"github.com/cloudtodo/core/internal/ports"
)

// maxMessageChars keeps replies under the Bot API limit of 4096 characters.
const maxMessageChars = 3800

// Client implements ports.Messenger
type Client struct {
	api    *bot.Bot
	logger *logger.Logger
}

// NewClient creates a Bot API client. Updates arrive through the webhook,
// so the client never polls and skips the getMe handshake.
func NewClient(cfg config.TelegramConfig, logger *logger.Logger) (*Client, error) {
	api, err := bot.New(cfg.BotToken,
		bot.WithServerURL(strings.TrimRight(cfg.APIURL, "/")),
		bot.WithHTTPClient(cfg.RequestTimeout, &http.Client{Timeout: cfg.RequestTimeout}),
		bot.WithSkipGetMe(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram client: %w", err)
	}

	return &Client{
		api:    api,
		logger: logger.WithComponent("telegram"),
	}, nil
}

var _ ports.Messenger = (*Client)(nil)

// SendMessage sends text as Markdown, falling back to plain text when
// Telegram rejects the markup (user content may contain stray * or _).
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	text = trimMessage(text)

	_, err := c.api.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeMarkdownV1,
	})
	if errors.Is(err, bot.ErrorBadRequest) {
		c.logger.Debugw("Markdown rejected, resending as plain text", "chat_id", chatID)
		_, err = c.api.SendMessage(ctx, &bot.SendMessageParams{ChatID: chatID, Text: text})
	}
	if err != nil {
		return fmt.Errorf("telegram sendMessage: %w", err)
	}
	return nil
}

// SendDocument uploads doc as a file attachment
func (c *Client) SendDocument(ctx context.Context, chatID int64, doc ports.Document) error {
	_, err := c.api.SendDocument(ctx, &bot.SendDocumentParams{
		ChatID:   chatID,
		Document: &models.InputFileUpload{Filename: doc.FileName, Data: bytes.NewReader(doc.Data)},
		Caption:  doc.Caption,
	})
	if err != nil {
		return fmt.Errorf("telegram sendDocument: %w", err)
	}
	return nil
}

// SetWebhook registers url as the update endpoint
func (c *Client) SetWebhook(ctx context.Context, url, secretToken string) error {
	ok, err := c.api.SetWebhook(ctx, &bot.SetWebhookParams{
		URL:            url,
		AllowedUpdates: []string{"message"},
		SecretToken:    secretToken,
	})
	if err != nil {
		return fmt.Errorf("telegram setWebhook: %w", err)
	}
	if !ok {
		return errors.New("telegram setWebhook: not acknowledged")
	}
	return nil
}

// DeleteWebhook removes the registered webhook
func (c *Client) DeleteWebhook(ctx context.Context) error {
	ok, err := c.api.DeleteWebhook(ctx, &bot.DeleteWebhookParams{})
	if err != nil {
		return fmt.Errorf("telegram deleteWebhook: %w", err)
	}
	if !ok {
		return errors.New("telegram deleteWebhook: not acknowledged")
	}
	return nil
}

func trimMessage(s string) string {
	s = strings.TrimRight(s, "\n")
	runes := []rune(s)
	if len(runes) <= maxMessageChars {
		return s
	}
	suffix := []rune("\n… (truncated)")
	return string(runes[:maxMessageChars-len(suffix)]) + string(suffix)
}
