package handlers

import (
	"github.com/gin-gonic/gin"
)

// HandlerBundle groups all endpoint handlers into one struct.
type HandlerBundle struct {
	// Reservation endpoints
	RequestReservationHandler gin.HandlerFunc
	ListReservationsHandler   gin.HandlerFunc
	GetReservationHandler     gin.HandlerFunc

	// Notification endpoints
	ListNotificationsHandler gin.HandlerFunc
	MarkNotificationRead     gin.HandlerFunc

	// Occupancy endpoints
	BuildingOccupancyHandler gin.HandlerFunc
	AllOccupancyHandler      gin.HandlerFunc

	// Admin endpoints
	LifecycleSweepHandler gin.HandlerFunc
	AdminToken            string

	HealthHandler gin.HandlerFunc
}
