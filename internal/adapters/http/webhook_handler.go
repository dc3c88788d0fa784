package http

import (
	"crypto/subtle"
	"net/http"
	"strconv"

	"github.com/go-telegram/bot/models"
	"github.com/labstack/echo/v4"

	"github.com/cloudtodo/core/internal/application/services"
	"github.com/cloudtodo/core/internal/infrastructure/logger"
	"github.com/cloudtodo/core/internal/ports"
)

// SecretTokenHeader carries the secret registered with setWebhook
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

// WebhookHandler receives Telegram updates
type WebhookHandler struct {
	bot         *services.BotService
	secretToken string
	logger      *logger.Logger
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(bot *services.BotService, secretToken string, logger *logger.Logger) *WebhookHandler {
	return &WebhookHandler{
		bot:         bot,
		secretToken: secretToken,
		logger:      logger.WithComponent("webhook"),
	}
}

// Handle processes one update. Anything past the secret check is answered
// with 200 so Telegram does not redeliver it.
// @Summary Telegram webhook
// @Description Receives bot updates from Telegram
// @Tags webhook
// @Accept json
// @Param X-Telegram-Bot-Api-Secret-Token header string false "Webhook secret"
// @Success 200
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /todo/webhook [post]
func (h *WebhookHandler) Handle(c echo.Context) error {
	if h.secretToken != "" {
		got := c.Request().Header.Get(SecretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secretToken)) != 1 {
			h.logger.LogSecurityEvent("invalid_webhook_secret", c.RealIP(), nil)
			return echo.NewHTTPError(http.StatusUnauthorized, "Unauthorized")
		}
	}

	var update models.Update
	if err := c.Bind(&update); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid update")
	}

	if update.Message == nil || update.Message.Text == "" {
		return c.NoContent(http.StatusOK)
	}

	userID := update.Message.Chat.ID
	if update.Message.From != nil {
		userID = update.Message.From.ID
	}

	msg := ports.Message{
		UserID: strconv.FormatInt(userID, 10),
		ChatID: update.Message.Chat.ID,
		Text:   update.Message.Text,
	}

	if err := h.bot.HandleAndReply(c.Request().Context(), msg); err != nil {
		h.logger.
			WithRequestID(c.Response().Header().Get(echo.HeaderXRequestID)).
			WithUserID(msg.UserID).
			WithError(err).
			Warnw("Reply delivery failed", "update_id", update.ID)
	}

	return c.NoContent(http.StatusOK)
}
