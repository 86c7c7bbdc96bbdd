package handlers

import (
	"context"
	"net/http"
	"time"

	"lendmark/models"
	"lendmark/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LifecycleRunner runs a full lifecycle sweep.
type LifecycleRunner interface {
	RunLifecycleSweep(ctx context.Context, now time.Time) (models.SweepResult, error)
}

type LifecycleHandler struct {
	sweeper LifecycleRunner
	clock   utils.Clock
}

func NewLifecycleHandler(sweeper LifecycleRunner, clock utils.Clock) *LifecycleHandler {
	return &LifecycleHandler{sweeper: sweeper, clock: clock}
}

// SweepHandler runs the finish and expire passes now.
func (h *LifecycleHandler) SweepHandler(c *gin.Context) {
	res, err := h.sweeper.RunLifecycleSweep(c.Request.Context(), h.clock.Now())
	if err != nil {
		getLogger(c).Error("Lifecycle sweep failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Lifecycle sweep failed, retry later", "result": res})
		return
	}
	c.JSON(http.StatusOK, res)
}
