package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Event lifecycle statuses
const (
	EventStatusActive    = "active"
	EventStatusCancelled = "cancelled"
	EventStatusCompleted = "completed"
)

// Registration approval statuses
const (
	RegistrationPending  = "pending"
	RegistrationApproved = "approved"
	RegistrationRejected = "rejected"
)

// Payment statuses
const (
	PaymentPending   = "pending"
	PaymentCompleted = "completed"
	PaymentFailed    = "failed"
	PaymentRefunded  = "refunded"
)

// User represents a registered account
type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Name      string         `gorm:"not null" json:"name"`
	Email     string         `gorm:"not null;uniqueIndex" json:"email"`
	Password  string         `gorm:"not null" json:"-"`
	Role      string         `gorm:"not null;default:user" json:"role"`
}

// Event represents an event open for registration
type Event struct {
	ID                  uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt           time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt           gorm.DeletedAt `gorm:"index" json:"-"`
	Title               string         `gorm:"not null" json:"title"`
	Description         string         `gorm:"not null" json:"description"`
	Date                time.Time      `gorm:"not null" json:"date"`
	Time                string         `gorm:"not null" json:"time"`
	Location            string         `gorm:"not null" json:"location"`
	Image               *string        `json:"image,omitempty"`
	MaxParticipants     int            `gorm:"not null;default:100" json:"max_participants"`
	CurrentParticipants int            `gorm:"not null;default:0" json:"current_participants"`
	CreatedBy           uuid.UUID      `gorm:"type:uuid;not null" json:"created_by"`
	Status              string         `gorm:"not null;default:active" json:"status"`
	IsFree              bool           `gorm:"not null;default:true" json:"is_free"`
	Price               float64        `gorm:"not null;default:0" json:"price"`
	Currency            string         `gorm:"not null;default:USD" json:"currency"`
	Registrations       []Registration `gorm:"foreignKey:EventID" json:"-"`
}

// EffectivePrice returns the price a registrant actually owes.
// Free events charge nothing regardless of the stored price.
func (e *Event) EffectivePrice() float64 {
	if e.IsFree {
		return 0
	}
	return e.Price
}

// Registration is one (event, user) ledger entry. Rows are never deleted;
// the approval and payment status fields carry the whole lifecycle.
type Registration struct {
	ID               uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	EventID          uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_registrations_event_user" json:"event_id"`
	UserID           uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_registrations_event_user" json:"user_id"`
	Status           string     `gorm:"not null;default:pending" json:"status"`
	RegistrationDate time.Time  `gorm:"not null" json:"registration_date"`
	ApprovedBy       *uuid.UUID `gorm:"type:uuid" json:"approved_by,omitempty"`
	ApprovalDate     *time.Time `json:"approval_date,omitempty"`
	Message          string     `json:"message,omitempty"`
	PaymentStatus    string     `gorm:"not null;default:pending" json:"payment_status"`
	PaymentID        *string    `json:"payment_id,omitempty"`
	AmountPaid       float64    `gorm:"not null;default:0" json:"amount_paid"`
	PaymentDate      *time.Time `json:"payment_date,omitempty"`
	PaymentMethod    *string    `json:"payment_method,omitempty"`
	RefundID         *string    `json:"refund_id,omitempty"`
	RefundDate       *time.Time `json:"refund_date,omitempty"`
	RefundAmount     *float64   `json:"refund_amount,omitempty"`
	Event            Event      `gorm:"foreignKey:EventID" json:"-"`
	User             User       `gorm:"foreignKey:UserID" json:"-"`
}

// SetupModels configures GORM models and runs migrations
func SetupModels(db *gorm.DB) error {
	err := db.AutoMigrate(
		&User{},
		&Event{},
		&Registration{},
	)
	if err != nil {
		return errors.Wrap(err, "failed to run auto migrations")
	}

	return nil
}
