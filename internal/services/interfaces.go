package services

import (
	"context"
	"time"

	"example.com/registrar/internal/models"

	"github.com/google/uuid"
)

// UserStore is the persistence surface the user service depends on
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	CountByRole(ctx context.Context, role string) (int64, error)
}

// EventStore is the persistence surface the event and registration services
// depend on
type EventStore interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	FindActive(ctx context.Context) ([]models.Event, error)
	FindByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.Event, error)
	IncrementParticipants(ctx context.Context, id uuid.UUID) error
	CountAll(ctx context.Context) (int64, error)
	CountUpcoming(ctx context.Context, now time.Time) (int64, error)
	CompletePastEvents(ctx context.Context, now time.Time) (int64, error)
}

// RegistrationStore is the persistence surface for the registration ledger
type RegistrationStore interface {
	Create(ctx context.Context, reg *models.Registration) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error)
	GetByEventAndUser(ctx context.Context, eventID, userID uuid.UUID) (*models.Registration, error)
	Update(ctx context.Context, reg *models.Registration) error
	FindByUser(ctx context.Context, userID uuid.UUID) ([]models.Registration, error)
	FindAll(ctx context.Context, from, to *time.Time) ([]models.Registration, error)
	FindByStatus(ctx context.Context, status string) ([]models.Registration, error)
	FindPayments(ctx context.Context, userID *uuid.UUID) ([]models.Registration, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	CountByEvent(ctx context.Context, eventID uuid.UUID, status string) (int64, error)
	FindRecent(ctx context.Context, limit int) ([]models.Registration, error)
}

// Notifier publishes notification messages for the worker to deliver
type Notifier interface {
	SendMessage(ctx context.Context, body interface{}) error
}

// PaymentIndexer pushes payment records into the search backend
type PaymentIndexer interface {
	IndexPayment(ctx context.Context, reg *models.Registration, event *models.Event) error
}

// Cache is the subset of the cache client the services use
type Cache interface {
	Get(ctx context.Context, key string, value interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}
