package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/cloudtodo/core/internal/application/services"
	"github.com/cloudtodo/core/internal/infrastructure/logger"
	"github.com/cloudtodo/core/internal/ports"
)

// AuthHandler handles admin authentication requests
type AuthHandler struct {
	authService *services.AuthService
	logger      *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, logger *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Login handles admin login
// @Summary Admin login
// @Description Exchange the admin credentials for a bearer token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ports.LoginRequest true "Credentials"
// @Success 200 {object} ports.AuthResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req ports.LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	response, err := h.authService.Login(req)
	if err != nil {
		if !errors.Is(err, services.ErrInvalidCredentials) {
			h.logger.Errorw("Login failed", "error", err.Error())
		}
		h.logger.LogSecurityEvent("login_failed", c.RealIP(), map[string]interface{}{
			"username": req.Username,
		})
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid credentials")
	}

	return c.JSON(http.StatusOK, response)
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
