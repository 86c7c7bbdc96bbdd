package handlers

import (
	"lendmark/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// getLogger retrieves the request-scoped logger installed by the access-log middleware.
func getLogger(c *gin.Context) *zap.Logger {
	return middleware.RequestLogger(c)
}
