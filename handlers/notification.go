package handlers

import (
	"net/http"
	"strconv"

	"lendmark/services/notification"
	"lendmark/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	svc notification.NotificationService
}

func NewNotificationHandler(svc notification.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// ListNotificationsHandler derives the user's current alerts. inApp defaults to true.
func (h *NotificationHandler) ListNotificationsHandler(c *gin.Context) {
	userID := c.Param("userId")
	inApp := true
	if raw := c.Query("inApp"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			utils.JSONError(c, http.StatusBadRequest, "Invalid query", "inApp must be a boolean")
			return
		}
		inApp = v
	}

	items, err := h.svc.ListForUser(c.Request.Context(), userID, inApp)
	if err != nil {
		getLogger(c).Error("Failed to derive notifications", zap.String("userId", userID), zap.Error(err))
		utils.JSONError(c, http.StatusServiceUnavailable, "Failed to load notifications", "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

// MarkReadHandler flags one alert as read.
func (h *NotificationHandler) MarkReadHandler(c *gin.Context) {
	userID, alertID := c.Param("userId"), c.Param("id")
	if err := h.svc.MarkRead(c.Request.Context(), userID, alertID); err != nil {
		getLogger(c).Warn("Failed to mark notification read", zap.String("userId", userID), zap.Error(err))
		utils.JSONError(c, http.StatusServiceUnavailable, "Failed to mark notification read", "")
		return
	}
	c.Status(http.StatusNoContent)
}
