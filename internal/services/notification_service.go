package services

import (
	"context"
	"encoding/json"

	"example.com/registrar/internal/messaging"
	"example.com/registrar/internal/metrics"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// NotificationService consumes decision and refund notifications from the
// queue and delivers them to registrants. Delivery is currently a structured
// log line; a mail provider slots in behind deliver without changing the
// consume loop.
type NotificationService struct {
	metrics *metrics.Metrics
}

// NewNotificationService creates a new notification service
func NewNotificationService(m *metrics.Metrics) *NotificationService {
	return &NotificationService{metrics: m}
}

// HandleMessage processes one queued notification. Returning an error makes
// the processor abandon the message for redelivery.
func (s *NotificationService) HandleMessage(ctx context.Context, message *azservicebus.ReceivedMessage) error {
	var notification messaging.Notification
	if err := json.Unmarshal(message.Body, &notification); err != nil {
		s.metrics.RecordError("notification_handle")
		return errors.Wrap(err, "failed to unmarshal notification")
	}

	switch notification.Type {
	case messaging.NotificationDecision, messaging.NotificationRefund:
		s.deliver(&notification)
	default:
		// Unknown types are completed, not abandoned: redelivery cannot fix them
		log.Warn().Str("type", notification.Type).Str("message_id", message.MessageID).Msg("skipping unknown notification type")
		s.metrics.IncrementCounter("notifications_skipped")
		return nil
	}

	s.metrics.RecordSuccess("notification_handle")
	s.metrics.IncrementCounter("notifications_delivered")
	return nil
}

func (s *NotificationService) deliver(n *messaging.Notification) {
	event := log.Info().
		Str("type", n.Type).
		Str("registration_id", n.RegistrationID).
		Str("user_id", n.UserID).
		Str("event_title", n.EventTitle).
		Str("status", n.Status)

	if n.Type == messaging.NotificationRefund {
		event = event.Float64("amount", n.Amount)
	}
	if n.Message != "" {
		event = event.Str("message", n.Message)
	}

	event.Msg("delivering registrant notification")
}
