package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/alimgiray/prdash/internal/services"
	"github.com/alimgiray/prdash/pkg/logger"
	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService *services.NotificationService
}

func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// ListNotifications returns the latest delivered notifications
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	limit := 0
	if value := c.Query("limit"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive number"})
			return
		}
		limit = parsed
	}

	notifications, err := h.notificationService.GetRecent(limit)
	if err != nil {
		logger.WithError(err).Error("Failed to list notifications")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications})
}

// OpenNotification marks a notification clicked and redirects to its target
func (h *NotificationHandler) OpenNotification(c *gin.Context) {
	notification, err := h.notificationService.Open(c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
			return
		}
		logger.WithError(err).Error("Failed to open notification")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to open notification"})
		return
	}

	target := notification.ClickURL
	if target == "" {
		target = "/"
	}
	c.Redirect(http.StatusFound, target)
}
