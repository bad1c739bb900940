package services

import (
	"context"
	"time"

	"example.com/registrar/internal/cache"
	"example.com/registrar/internal/gateway"
	"example.com/registrar/internal/messaging"
	"example.com/registrar/internal/metrics"
	"example.com/registrar/internal/models"
	"example.com/registrar/internal/repositories"
	"example.com/registrar/internal/tracing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const paymentMethodCard = "card"

// PaymentStats summarizes a set of payment-bearing registrations
type PaymentStats struct {
	TotalTransactions int     `json:"total_transactions"`
	TotalRevenue      float64 `json:"total_revenue"`
	TotalRefunded     float64 `json:"total_refunded"`
	Completed         int     `json:"completed"`
	Refunded          int     `json:"refunded"`
}

// RegistrationService handles the registration ledger: sign-ups, admin
// decisions and refunds.
type RegistrationService struct {
	events        EventStore
	registrations RegistrationStore
	gateway       gateway.PaymentGateway
	notifier      Notifier
	indexer       PaymentIndexer
	cache         Cache
	metrics       *metrics.Metrics
	tracer        tracing.Tracer
}

// NewRegistrationService creates a new registration service. The notifier and
// indexer may be nil when their backends are not configured.
func NewRegistrationService(
	events EventStore,
	registrations RegistrationStore,
	gw gateway.PaymentGateway,
	notifier Notifier,
	indexer PaymentIndexer,
	c Cache,
	m *metrics.Metrics,
	t tracing.Tracer,
) *RegistrationService {
	return &RegistrationService{
		events:        events,
		registrations: registrations,
		gateway:       gw,
		notifier:      notifier,
		indexer:       indexer,
		cache:         c,
		metrics:       m,
		tracer:        t,
	}
}

// CreateRegistration registers a user for an event. Free events produce a
// pending registration immediately. Paid events charge the card first and
// only persist the registration once the gateway authorizes; a declined or
// malformed payment leaves no trace in the ledger.
func (s *RegistrationService) CreateRegistration(ctx context.Context, userID, eventID uuid.UUID, card *gateway.CardDetails, amount float64) (*models.Registration, error) {
	txn := s.tracer.StartTransaction("registration-service.create")
	defer s.tracer.EndTransaction(txn)
	s.tracer.AddAttribute(txn, "event_id", eventID.String())

	event, err := s.events.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	// Cheap pre-check; the unique index on (event_id, user_id) is the
	// authoritative guard.
	if existing, err := s.registrations.GetByEventAndUser(ctx, eventID, userID); err == nil && existing != nil {
		return nil, ErrAlreadyRegistered
	}

	now := time.Now()
	reg := &models.Registration{
		ID:               uuid.New(),
		EventID:          eventID,
		UserID:           userID,
		Status:           models.RegistrationPending,
		RegistrationDate: now,
		PaymentStatus:    models.PaymentPending,
	}

	if !event.IsFree {
		if card == nil {
			return nil, &gateway.ValidationError{Field: "payment", Reason: "payment details are required for paid events"}
		}
		if amount != event.EffectivePrice() {
			return nil, ErrAmountMismatch
		}

		span := s.tracer.StartSpan("gateway.authorize", txn)
		paymentID, err := s.gateway.Authorize(ctx, *card, amount)
		span.End()
		if err != nil {
			s.metrics.RecordError("payment_authorize")
			s.tracer.RecordError(txn, err)
			return nil, err
		}
		s.metrics.RecordSuccess("payment_authorize")

		method := paymentMethodCard
		paidAt := time.Now()
		reg.PaymentStatus = models.PaymentCompleted
		reg.PaymentID = &paymentID
		reg.AmountPaid = amount
		reg.PaymentDate = &paidAt
		reg.PaymentMethod = &method
	}

	if err := s.registrations.Create(ctx, reg); err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			if reg.PaymentID != nil {
				// The charge went through but a concurrent sign-up won the
				// index. Surface it loudly so support can reconcile.
				log.Error().
					Str("payment_id", *reg.PaymentID).
					Str("event_id", eventID.String()).
					Str("user_id", userID.String()).
					Msg("duplicate registration after successful charge")
			}
			return nil, ErrAlreadyRegistered
		}
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	if reg.PaymentStatus == models.PaymentCompleted {
		s.indexPayment(ctx, reg, event)
		s.metrics.IncrementCounter("payments_completed")
	}
	s.metrics.IncrementCounter("registrations_created")
	log.Info().
		Str("registration_id", reg.ID.String()).
		Str("event_id", eventID.String()).
		Bool("paid", !event.IsFree).
		Msg("registration created")

	return reg, nil
}

// DecideRegistration applies an admin's approve/reject decision to a pending
// registration. Approval bumps the event's participant counter.
func (s *RegistrationService) DecideRegistration(ctx context.Context, adminID, registrationID uuid.UUID, decision, message string) (*models.Registration, error) {
	txn := s.tracer.StartTransaction("registration-service.decide")
	defer s.tracer.EndTransaction(txn)

	if decision != models.RegistrationApproved && decision != models.RegistrationRejected {
		return nil, ErrInvalidDecision
	}

	reg, err := s.registrations.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	if reg.Status != models.RegistrationPending {
		return nil, ErrAlreadyDecided
	}

	now := time.Now()
	reg.Status = decision
	reg.ApprovedBy = &adminID
	reg.ApprovalDate = &now
	if message != "" {
		reg.Message = message
	}

	if err := s.registrations.Update(ctx, reg); err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	if decision == models.RegistrationApproved {
		if err := s.events.IncrementParticipants(ctx, reg.EventID); err != nil {
			// The decision is committed; a lost counter bump is recoverable
			// from the ledger.
			log.Error().Err(err).Str("event_id", reg.EventID.String()).Msg("failed to increment participant count")
			s.metrics.RecordError("participant_increment")
		}
		if err := s.cache.Delete(ctx, cache.GetEventCacheKey(reg.EventID), cache.GetActiveEventsCacheKey()); err != nil {
			log.Debug().Err(err).Msg("failed to invalidate event cache")
		}
	}

	s.metrics.IncrementCounter("registrations_" + decision)
	s.notifyDecision(ctx, reg, message)

	log.Info().
		Str("registration_id", reg.ID.String()).
		Str("decision", decision).
		Str("admin_id", adminID.String()).
		Msg("registration decided")

	return reg, nil
}

// RefundRegistration refunds a completed payment. A refunded registration is
// also rejected: the money is back, so the seat is released.
func (s *RegistrationService) RefundRegistration(ctx context.Context, adminID, registrationID uuid.UUID, amount float64) (*models.Registration, error) {
	txn := s.tracer.StartTransaction("registration-service.refund")
	defer s.tracer.EndTransaction(txn)

	reg, err := s.registrations.GetByID(ctx, registrationID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrRegistrationNotFound
		}
		return nil, err
	}
	if reg.PaymentStatus != models.PaymentCompleted || reg.PaymentID == nil {
		return nil, ErrNotCompleted
	}
	if amount <= 0 || amount > reg.AmountPaid {
		return nil, ErrInvalidRefundAmount
	}

	span := s.tracer.StartSpan("gateway.refund", txn)
	refundID, err := s.gateway.Refund(ctx, *reg.PaymentID, amount)
	span.End()
	if err != nil {
		s.metrics.RecordError("payment_refund")
		s.tracer.RecordError(txn, err)
		return nil, err
	}
	s.metrics.RecordSuccess("payment_refund")

	now := time.Now()
	reg.PaymentStatus = models.PaymentRefunded
	reg.RefundID = &refundID
	reg.RefundDate = &now
	reg.RefundAmount = &amount
	reg.Status = models.RegistrationRejected

	if err := s.registrations.Update(ctx, reg); err != nil {
		log.Error().Err(err).
			Str("refund_id", refundID).
			Str("registration_id", reg.ID.String()).
			Msg("refund issued but registration update failed")
		return nil, err
	}

	event, eventErr := s.events.GetByID(ctx, reg.EventID)
	if eventErr == nil {
		s.indexPayment(ctx, reg, event)
	}
	s.metrics.IncrementCounter("payments_refunded")
	s.notifyRefund(ctx, reg, amount)

	log.Info().
		Str("registration_id", reg.ID.String()).
		Str("refund_id", refundID).
		Float64("amount", amount).
		Msg("payment refunded")

	return reg, nil
}

// GetUserRegistrations returns a user's registrations, newest first
func (s *RegistrationService) GetUserRegistrations(ctx context.Context, userID uuid.UUID) ([]models.Registration, error) {
	return s.registrations.FindByUser(ctx, userID)
}

// ListByStatus returns registrations in the given approval status for the
// admin review queue.
func (s *RegistrationService) ListByStatus(ctx context.Context, status string) ([]models.Registration, error) {
	if status == "" {
		status = models.RegistrationPending
	}
	return s.registrations.FindByStatus(ctx, status)
}

// GetPayments returns payment-bearing registrations with summary stats.
// A nil userID returns every payment (admin view).
func (s *RegistrationService) GetPayments(ctx context.Context, userID *uuid.UUID) ([]models.Registration, PaymentStats, error) {
	payments, err := s.registrations.FindPayments(ctx, userID)
	if err != nil {
		return nil, PaymentStats{}, err
	}

	stats := PaymentStats{TotalTransactions: len(payments)}
	for i := range payments {
		p := &payments[i]
		switch p.PaymentStatus {
		case models.PaymentCompleted:
			stats.Completed++
			stats.TotalRevenue += p.AmountPaid
		case models.PaymentRefunded:
			stats.Refunded++
			if p.RefundAmount != nil {
				stats.TotalRefunded += *p.RefundAmount
			}
		}
	}

	return payments, stats, nil
}

func (s *RegistrationService) indexPayment(ctx context.Context, reg *models.Registration, event *models.Event) {
	if s.indexer == nil {
		return
	}
	if err := s.indexer.IndexPayment(ctx, reg, event); err != nil {
		log.Warn().Err(err).Str("registration_id", reg.ID.String()).Msg("failed to index payment")
		s.metrics.RecordError("payment_index")
	}
}

func (s *RegistrationService) notifyDecision(ctx context.Context, reg *models.Registration, message string) {
	if s.notifier == nil {
		return
	}

	notification := messaging.Notification{
		Type:           messaging.NotificationDecision,
		RegistrationID: reg.ID.String(),
		EventID:        reg.EventID.String(),
		UserID:         reg.UserID.String(),
		Status:         reg.Status,
		Message:        message,
		OccurredAt:     time.Now().UTC(),
	}
	if event, err := s.events.GetByID(ctx, reg.EventID); err == nil {
		notification.EventTitle = event.Title
	}

	if err := s.notifier.SendMessage(ctx, notification); err != nil {
		log.Warn().Err(err).Str("registration_id", reg.ID.String()).Msg("failed to publish decision notification")
		s.metrics.RecordError("notification_publish")
		return
	}
	s.metrics.IncrementCounter("notifications_published")
}

func (s *RegistrationService) notifyRefund(ctx context.Context, reg *models.Registration, amount float64) {
	if s.notifier == nil {
		return
	}

	notification := messaging.Notification{
		Type:           messaging.NotificationRefund,
		RegistrationID: reg.ID.String(),
		EventID:        reg.EventID.String(),
		UserID:         reg.UserID.String(),
		Status:         reg.PaymentStatus,
		Amount:         amount,
		OccurredAt:     time.Now().UTC(),
	}
	if event, err := s.events.GetByID(ctx, reg.EventID); err == nil {
		notification.EventTitle = event.Title
	}

	if err := s.notifier.SendMessage(ctx, notification); err != nil {
		log.Warn().Err(err).Str("registration_id", reg.ID.String()).Msg("failed to publish refund notification")
		s.metrics.RecordError("notification_publish")
		return
	}
	s.metrics.IncrementCounter("notifications_published")
}
