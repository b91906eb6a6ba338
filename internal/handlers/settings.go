package handlers

import (
	"errors"
	"net/http"

	"github.com/alimgiray/prdash/internal/models"
	"github.com/alimgiray/prdash/internal/services"
	"github.com/alimgiray/prdash/pkg/logger"
	"github.com/gin-gonic/gin"
)

type SettingsHandler struct {
	settingsService   *services.SettingsService
	credentialService *services.CredentialService
}

func NewSettingsHandler(settingsService *services.SettingsService, credentialService *services.CredentialService) *SettingsHandler {
	return &SettingsHandler{
		settingsService:   settingsService,
		credentialService: credentialService,
	}
}

// GetSettings returns the saved dashboard settings
func (h *SettingsHandler) GetSettings(c *gin.Context) {
	settings, err := h.settingsService.Get()
	if err != nil {
		logger.WithError(err).Error("Failed to load settings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load settings"})
		return
	}

	c.JSON(http.StatusOK, settings)
}

// UpdateSettings validates and saves the dashboard settings
func (h *SettingsHandler) UpdateSettings(c *gin.Context) {
	var settings models.DashboardSettings
	if err := c.ShouldBindJSON(&settings); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data: " + err.Error()})
		return
	}

	if err := h.settingsService.Update(&settings); err != nil {
		var validationErr *models.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": validationErr.Message,
				"field": validationErr.Field,
			})
			return
		}
		logger.WithError(err).Error("Failed to save settings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save settings"})
		return
	}

	c.JSON(http.StatusOK, settings)
}

type tokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// SetToken stores a new API credential
func (h *SettingsHandler) SetToken(c *gin.Context) {
	var request tokenRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Token is required"})
		return
	}

	if err := h.credentialService.Set(request.Token); err != nil {
		var validationErr *models.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Message})
			return
		}
		logger.WithError(err).Error("Failed to save token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save token"})
		return
	}

	c.Status(http.StatusNoContent)
}

// ClearToken removes the stored API credential
func (h *SettingsHandler) ClearToken(c *gin.Context) {
	if err := h.credentialService.Clear(); err != nil {
		logger.WithError(err).Error("Failed to clear token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to clear token"})
		return
	}

	c.Status(http.StatusNoContent)
}
