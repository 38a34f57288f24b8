package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/printhub/printhub-backend/internal/models"
	"github.com/printhub/printhub-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminHandler serves the audit trail and dashboard figures
type AdminHandler struct {
	activityService services.ActivityLogService
	statsService    services.StatsService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(activityService services.ActivityLogService, statsService services.StatsService) *AdminHandler {
	return &AdminHandler{activityService: activityService, statsService: statsService}
}

// ListActivityLogs handles GET /api/admin/activity-logs?action=&userId=&from=&to=&page=&limit=
func (h *AdminHandler) ListActivityLogs(c *gin.Context) {
	page, limit := pagination(c)

	var filter models.ActivityLogFilter
	if raw := c.Query("action"); raw != "" {
		action := models.ActivityAction(raw)
		if !action.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown action " + raw})
			return
		}
		filter.Action = action
	}
	if raw := c.Query("userId"); raw != "" {
		uid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid userId"})
			return
		}
		filter.UserID = &uid
	}
	from, to, ok := parseDateRange(c)
	if !ok {
		return
	}
	filter.From, filter.To = from, to

	logs, err := h.activityService.List(c.Request.Context(), filter, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, logs)
}

// Dashboard handles GET /api/admin/stats
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.statsService.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
