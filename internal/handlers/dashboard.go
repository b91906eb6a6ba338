package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/alimgiray/prdash/internal/models"
	"github.com/alimgiray/prdash/internal/services"
	"github.com/alimgiray/prdash/pkg/logger"
	"github.com/gin-gonic/gin"
)

const exportContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type DashboardHandler struct {
	dashboardService *services.DashboardService
	exportService    *services.ExportService
	schedulerService *services.SchedulerService
}

func NewDashboardHandler(dashboardService *services.DashboardService, exportService *services.ExportService, schedulerService *services.SchedulerService) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		exportService:    exportService,
		schedulerService: schedulerService,
	}
}

// CurrentUser returns the login behind the stored credential
func (h *DashboardHandler) CurrentUser(c *gin.Context) {
	login, err := h.dashboardService.CurrentUser(c.Request.Context())
	if err != nil {
		if errors.Is(err, services.ErrNotAuthenticated) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		logger.WithError(err).Error("Failed to resolve current user")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to resolve current user"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"login": login})
}

// PullRequests returns the grouped pull requests of the current snapshot
func (h *DashboardHandler) PullRequests(c *gin.Context) {
	opts, err := parseGroupOptions(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	groups, snap, err := h.dashboardService.Groups(opts)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	response := gin.H{
		"epoch":       snap.Epoch,
		"settled":     snap.IsSettled(),
		"loading":     snap.LoadingCount(),
		"repo_errors": snap.RepoErrors,
		"groups":      services.SummarizeGroups(groups),
	}
	if next, ok := h.schedulerService.NextRun(); ok {
		response["next_refresh"] = next
	}

	c.JSON(http.StatusOK, response)
}

// Export streams the grouped pull requests as a spreadsheet
func (h *DashboardHandler) Export(c *gin.Context) {
	opts, err := parseGroupOptions(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	groups, _, err := h.dashboardService.Groups(opts)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="pull-requests.xlsx"`)
	c.Header("Content-Type", exportContentType)
	c.Status(http.StatusOK)
	if err := h.exportService.WriteXLSX(c.Writer, groups); err != nil {
		logger.WithError(err).Error("Failed to export pull requests")
	}
}

// Refresh triggers an immediate refresh
func (h *DashboardHandler) Refresh(c *gin.Context) {
	if err := h.schedulerService.Trigger(); err != nil {
		logger.WithError(err).Error("Failed to trigger refresh")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to trigger refresh"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "refresh scheduled"})
}

func parseGroupOptions(c *gin.Context) (services.GroupOptions, error) {
	var opts services.GroupOptions

	if value := c.Query("grouping"); value != "" {
		grouping := models.GroupingMode(value)
		if !grouping.IsValid() {
			return opts, errors.New("grouping must be one of repo, assigned, reviewer")
		}
		opts.Grouping = &grouping
	}

	if value := c.Query("show_me_only"); value != "" {
		showMeOnly, err := strconv.ParseBool(value)
		if err != nil {
			return opts, errors.New("show_me_only must be a boolean")
		}
		opts.ShowMeOnly = &showMeOnly
	}

	return opts, nil
}
