package notification

import (
	"context"
	"fmt"
	"strconv"

	"lendmark/models"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"
)

// Pusher delivers one alert to a user's devices.
type Pusher interface {
	Push(ctx context.Context, userID string, alert models.NotificationItem) error
}

// UserTopic is the FCM topic a user's devices subscribe to.
func UserTopic(userID string) string {
	return "user_" + userID
}

// FCMPusher sends alerts through Firebase Cloud Messaging.
type FCMPusher struct {
	client *messaging.Client
	logger *zap.Logger
}

// NewFCMPusher wraps an initialized messaging client.
func NewFCMPusher(client *messaging.Client, logger *zap.Logger) (*FCMPusher, error) {
	if client == nil {
		return nil, fmt.Errorf("notification pusher initialization error: messaging client is nil")
	}
	return &FCMPusher{client: client, logger: logger}, nil
}

// Push sends alert to the user's topic with high priority on both platforms.
func (p *FCMPusher) Push(ctx context.Context, userID string, alert models.NotificationItem) error {
	msg := &messaging.Message{
		Topic: UserTopic(userID),
		Notification: &messaging.Notification{
			Title: alert.Title,
			Body:  alert.Location + " · " + alert.StartTime + "-" + alert.EndTime,
		},
		Data: map[string]string{
			"alertId":       alert.ID,
			"reservationId": alert.ReservationID,
			"type":          alert.Type,
			"date":          alert.Date,
			"minutesLeft":   strconv.Itoa(alert.MinutesLeft),
		},
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "reservation_alerts",
				Sound:     "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{
				"apns-priority":  "10",
				"apns-push-type": "alert",
			},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}

	id, err := p.client.Send(ctx, msg)
	if err != nil {
		return fmt.Errorf("failed to send FCM message for %s: %w", alert.ID, err)
	}
	p.logger.Debug("pushed reservation alert", zap.String("userId", userID),
		zap.String("alertId", alert.ID), zap.String("messageId", id))
	return nil
}
