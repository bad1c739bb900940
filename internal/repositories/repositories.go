package repositories

import (
	"context"
	"time"

	"example.com/registrar/internal/models"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// translate maps GORM errors onto the repository sentinels so callers can
// use errors.Is without importing gorm.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicateKey
	default:
		return err
	}
}

// UserRepository provides access to user accounts
type UserRepository struct {
	db         *gorm.DB // Write database
	readOnlyDB *gorm.DB // Read-only database
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB, readOnlyDB *gorm.DB) *UserRepository {
	return &UserRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return errors.Wrap(translate(err), "failed to create user")
	}
	return nil
}

// GetByID gets a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.readOnlyDB.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, errors.Wrap(translate(err), "failed to get user by ID")
	}
	return &user, nil
}

// GetByEmail gets a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.readOnlyDB.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		return nil, errors.Wrap(translate(err), "failed to get user by email")
	}
	return &user, nil
}

// CountByRole counts users holding a role
func (r *UserRepository) CountByRole(ctx context.Context, role string) (int64, error) {
	var count int64
	err := r.readOnlyDB.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ?", role).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count users by role")
	}
	return count, nil
}

// EventRepository provides access to event data
type EventRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *gorm.DB, readOnlyDB *gorm.DB) *EventRepository {
	return &EventRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Create creates a new event
func (r *EventRepository) Create(ctx context.Context, event *models.Event) error {
	if err := r.db.WithContext(ctx).Create(event).Error; err != nil {
		return errors.Wrap(translate(err), "failed to create event")
	}
	return nil
}

// GetByID gets an event by ID
func (r *EventRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	var event models.Event
	err := r.readOnlyDB.WithContext(ctx).First(&event, "id = ?", id).Error
	if err != nil {
		return nil, errors.Wrap(translate(err), "failed to get event by ID")
	}
	return &event, nil
}

// FindActive returns active events sorted by date ascending
func (r *EventRepository) FindActive(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	err := r.readOnlyDB.WithContext(ctx).
		Where("status = ?", models.EventStatusActive).
		Order("date ASC").
		Find(&events).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to find active events")
	}
	return events, nil
}

// FindByCreator returns events created by a specific admin
func (r *EventRepository) FindByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.Event, error) {
	var events []models.Event
	err := r.readOnlyDB.WithContext(ctx).
		Where("created_by = ?", creatorID).
		Order("date ASC").
		Find(&events).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to find events by creator")
	}
	return events, nil
}

// IncrementParticipants atomically bumps the participant counter by one.
// The increment happens in a single UPDATE so concurrent approvals cannot
// lose updates.
func (r *EventRepository) IncrementParticipants(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("id = ?", id).
		UpdateColumn("current_participants", gorm.Expr("current_participants + ?", 1))

	if result.Error != nil {
		return errors.Wrap(result.Error, "failed to increment participants")
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// CountAll counts all events
func (r *EventRepository) CountAll(ctx context.Context) (int64, error) {
	var count int64
	err := r.readOnlyDB.WithContext(ctx).Model(&models.Event{}).Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count events")
	}
	return count, nil
}

// CountUpcoming counts events dated from now onwards
func (r *EventRepository) CountUpcoming(ctx context.Context, now time.Time) (int64, error) {
	var count int64
	err := r.readOnlyDB.WithContext(ctx).
		Model(&models.Event{}).
		Where("date >= ?", now).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count upcoming events")
	}
	return count, nil
}

// CompletePastEvents marks active events whose date has passed as completed
// and returns how many were updated.
func (r *EventRepository) CompletePastEvents(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Event{}).
		Where("status = ? AND date < ?", models.EventStatusActive, now).
		Update("status", models.EventStatusCompleted)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, "failed to complete past events")
	}
	return result.RowsAffected, nil
}

// RegistrationRepository provides access to the registration ledger
type RegistrationRepository struct {
	db         *gorm.DB
	readOnlyDB *gorm.DB
}

// NewRegistrationRepository creates a new registration repository
func NewRegistrationRepository(db *gorm.DB, readOnlyDB *gorm.DB) *RegistrationRepository {
	return &RegistrationRepository{
		db:         db,
		readOnlyDB: readOnlyDB,
	}
}

// Create inserts a new registration. The (event_id, user_id) unique index is
// the authoritative duplicate guard; violations surface as ErrDuplicateKey.
func (r *RegistrationRepository) Create(ctx context.Context, reg *models.Registration) error {
	if err := r.db.WithContext(ctx).Create(reg).Error; err != nil {
		return errors.Wrap(translate(err), "failed to create registration")
	}
	return nil
}

// GetByID gets a registration by ID
func (r *RegistrationRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Registration, error) {
	var reg models.Registration
	err := r.readOnlyDB.WithContext(ctx).First(&reg, "id = ?", id).Error
	if err != nil {
		return nil, errors.Wrap(translate(err), "failed to get registration by ID")
	}
	return &reg, nil
}

// GetByEventAndUser gets the registration for an (event, user) pair
func (r *RegistrationRepository) GetByEventAndUser(ctx context.Context, eventID, userID uuid.UUID) (*models.Registration, error) {
	var reg models.Registration
	err := r.readOnlyDB.WithContext(ctx).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		First(&reg).Error
	if err != nil {
		return nil, errors.Wrap(translate(err), "failed to get registration by event and user")
	}
	return &reg, nil
}

// Update persists changes to a registration
func (r *RegistrationRepository) Update(ctx context.Context, reg *models.Registration) error {
	if err := r.db.WithContext(ctx).Save(reg).Error; err != nil {
		return errors.Wrap(translate(err), "failed to update registration")
	}
	return nil
}

// FindByUser returns a user's registrations, newest first, with event data
func (r *RegistrationRepository) FindByUser(ctx context.Context, userID uuid.UUID) ([]models.Registration, error) {
	var regs []models.Registration
	err := r.readOnlyDB.WithContext(ctx).
		Preload("Event").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&regs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to find registrations by user")
	}
	return regs, nil
}

// FindAll returns registrations, optionally restricted to a creation-date range
func (r *RegistrationRepository) FindAll(ctx context.Context, from, to *time.Time) ([]models.Registration, error) {
	query := r.readOnlyDB.WithContext(ctx).Model(&models.Registration{})
	if from != nil && to != nil {
		query = query.Where("created_at >= ? AND created_at <= ?", *from, *to)
	}

	var regs []models.Registration
	if err := query.Order("created_at DESC").Find(&regs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find registrations")
	}
	return regs, nil
}

// FindByStatus returns registrations with the given approval status
func (r *RegistrationRepository) FindByStatus(ctx context.Context, status string) ([]models.Registration, error) {
	var regs []models.Registration
	err := r.readOnlyDB.WithContext(ctx).
		Preload("Event").
		Preload("User").
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&regs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to find registrations by status")
	}
	return regs, nil
}

// FindPayments returns registrations that carry a payment, newest payment first
func (r *RegistrationRepository) FindPayments(ctx context.Context, userID *uuid.UUID) ([]models.Registration, error) {
	query := r.readOnlyDB.WithContext(ctx).
		Preload("Event").
		Preload("User").
		Where("amount_paid > 0")
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}

	var regs []models.Registration
	if err := query.Order("payment_date DESC").Find(&regs).Error; err != nil {
		return nil, errors.Wrap(err, "failed to find payments")
	}
	return regs, nil
}

// CountByStatus counts registrations with the given approval status
func (r *RegistrationRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := r.readOnlyDB.WithContext(ctx).
		Model(&models.Registration{}).
		Where("status = ?", status).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, "failed to count registrations by status")
	}
	return count, nil
}

// CountByEvent counts registrations for an event, optionally by status
func (r *RegistrationRepository) CountByEvent(ctx context.Context, eventID uuid.UUID, status string) (int64, error) {
	query := r.readOnlyDB.WithContext(ctx).
		Model(&models.Registration{}).
		Where("event_id = ?", eventID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, errors.Wrap(err, "failed to count registrations by event")
	}
	return count, nil
}

// FindRecent returns the most recent registrations with user and event data
func (r *RegistrationRepository) FindRecent(ctx context.Context, limit int) ([]models.Registration, error) {
	var regs []models.Registration
	err := r.readOnlyDB.WithContext(ctx).
		Preload("Event").
		Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Find(&regs).Error
	if err != nil {
		return nil, errors.Wrap(err, "failed to find recent registrations")
	}
	return regs, nil
}
