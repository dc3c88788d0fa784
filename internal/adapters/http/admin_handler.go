package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/cloudtodo/core/internal/application/services"
	"github.com/cloudtodo/core/internal/domain/entities"
	"github.com/cloudtodo/core/internal/infrastructure/logger"
	"github.com/cloudtodo/core/internal/ports"
)

// AdminHandler exposes user records to operators
type AdminHandler struct {
	taskService *services.TaskService
	logger      *logger.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(taskService *services.TaskService, logger *logger.Logger) *AdminHandler {
	return &AdminHandler{
		taskService: taskService,
		logger:      logger,
	}
}

// ExportUser handles snapshot download
// @Summary Export a user's tasks
// @Description Download tasks and settings of one user as JSON
// @Tags admin
// @Produce json
// @Param id path string true "Telegram user ID"
// @Success 200 {object} ports.Snapshot
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /users/{id}/export [get]
func (h *AdminHandler) ExportUser(c echo.Context) error {
	userID := c.Param("id")

	snap, err := h.taskService.ExportUser(c.Request().Context(), userID)
	if err != nil {
		return h.recordError(err, userID)
	}

	fileName := services.ExportFileName(userID, time.Now())
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", fileName))
	return c.JSON(http.StatusOK, snap)
}

// ImportUser handles snapshot restore
// @Summary Import a user's tasks
// @Description Replace tasks and settings of one user with a snapshot
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Telegram user ID"
// @Param request body ports.ImportRequest true "Snapshot"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} ErrorResponse
// @Security BearerAuth
// @Router /users/{id}/import [post]
func (h *AdminHandler) ImportUser(c echo.Context) error {
	userID := c.Param("id")

	var req ports.ImportRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	snap := ports.Snapshot{Tasks: req.Tasks, Settings: req.Settings}
	if err := h.taskService.ImportUser(c.Request().Context(), userID, snap); err != nil {
		if errors.Is(err, entities.ErrInvalidSnapshot) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		h.logger.Errorw("Import failed", "error", err.Error(), "user_id", userID)
		return echo.NewHTTPError(http.StatusInternalServerError, "Import failed")
	}

	return c.JSON(http.StatusOK, MessageResponse{Message: fmt.Sprintf("Imported %d tasks", len(req.Tasks))})
}

// UserStats handles statistics lookup
// @Summary Get a user's statistics
// @Tags admin
// @Produce json
// @Param id path string true "Telegram user ID"
// @Success 200 {object} ports.Stats
// @Failure 404 {object} ErrorResponse
// @Security BearerAuth
// @Router /users/{id}/stats [get]
func (h *AdminHandler) UserStats(c echo.Context) error {
	userID := c.Param("id")

	stats, err := h.taskService.UserStats(c.Request().Context(), userID)
	if err != nil {
		return h.recordError(err, userID)
	}

	return c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) recordError(err error, userID string) error {
	if errors.Is(err, entities.ErrRecordNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}
	h.logger.Errorw("Failed to read user record", "error", err.Error(), "user_id", userID)
	return echo.NewHTTPError(http.StatusInternalServerError, "Failed to read user record")
}
