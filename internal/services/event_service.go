package services

import (
	"context"
	"time"

	"example.com/registrar/internal/cache"
	"example.com/registrar/internal/metrics"
	"example.com/registrar/internal/models"
	"example.com/registrar/internal/repositories"
	"example.com/registrar/internal/tracing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	eventCacheTTL      = 10 * time.Minute
	activeListCacheTTL = 5 * time.Minute
)

// CreateEventInput carries the fields an admin submits for a new event
type CreateEventInput struct {
	Title           string
	Description     string
	Date            time.Time
	Time            string
	Location        string
	Image           *string
	MaxParticipants int
	IsFree          bool
	Price           float64
	Currency        string
}

// EventService handles event lifecycle operations
type EventService struct {
	events  EventStore
	cache   Cache
	metrics *metrics.Metrics
	tracer  tracing.Tracer
}

// NewEventService creates a new event service
func NewEventService(events EventStore, c Cache, m *metrics.Metrics, t tracing.Tracer) *EventService {
	return &EventService{
		events:  events,
		cache:   c,
		metrics: m,
		tracer:  t,
	}
}

// CreateEvent creates an event owned by the given admin
func (s *EventService) CreateEvent(ctx context.Context, creatorID uuid.UUID, input CreateEventInput) (*models.Event, error) {
	txn := s.tracer.StartTransaction("event-service.create")
	defer s.tracer.EndTransaction(txn)

	if !input.IsFree && input.Price <= 0 {
		return nil, ErrInvalidPrice
	}

	maxParticipants := input.MaxParticipants
	if maxParticipants <= 0 {
		maxParticipants = 100
	}
	currency := input.Currency
	if currency == "" {
		currency = "USD"
	}
	price := input.Price
	if input.IsFree {
		price = 0
	}

	event := &models.Event{
		ID:              uuid.New(),
		Title:           input.Title,
		Description:     input.Description,
		Date:            input.Date,
		Time:            input.Time,
		Location:        input.Location,
		Image:           input.Image,
		MaxParticipants: maxParticipants,
		CreatedBy:       creatorID,
		Status:          models.EventStatusActive,
		IsFree:          input.IsFree,
		Price:           price,
		Currency:        currency,
	}

	if err := s.events.Create(ctx, event); err != nil {
		s.tracer.RecordError(txn, err)
		s.metrics.RecordError("event_create")
		return nil, err
	}

	if err := s.cache.Delete(ctx, cache.GetActiveEventsCacheKey()); err != nil {
		log.Debug().Err(err).Msg("failed to invalidate active events cache")
	}

	s.metrics.IncrementCounter("events_created")
	s.metrics.RecordSuccess("event_create")
	log.Info().Str("event_id", event.ID.String()).Str("title", event.Title).Msg("event created")

	return event, nil
}

// ListActiveEvents returns active events, served from cache when possible
func (s *EventService) ListActiveEvents(ctx context.Context) ([]models.Event, error) {
	key := cache.GetActiveEventsCacheKey()

	var cached []models.Event
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		s.metrics.IncrementCounter("event_cache_hits")
		return cached, nil
	}
	s.metrics.IncrementCounter("event_cache_misses")

	events, err := s.events.FindActive(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, key, events, activeListCacheTTL); err != nil {
		log.Debug().Err(err).Msg("failed to cache active events")
	}

	return events, nil
}

// GetEvent returns a single event, served from cache when possible
func (s *EventService) GetEvent(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	key := cache.GetEventCacheKey(id)

	var cached models.Event
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		s.metrics.IncrementCounter("event_cache_hits")
		return &cached, nil
	}
	s.metrics.IncrementCounter("event_cache_misses")

	event, err := s.events.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrEventNotFound
		}
		return nil, err
	}

	if err := s.cache.Set(ctx, key, event, eventCacheTTL); err != nil {
		log.Debug().Err(err).Msg("failed to cache event")
	}

	return event, nil
}

// ListEventsByCreator returns events created by the given admin
func (s *EventService) ListEventsByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.Event, error) {
	return s.events.FindByCreator(ctx, creatorID)
}

// CompletePastEvents marks active events whose date has passed as completed.
// The worker runs this periodically.
func (s *EventService) CompletePastEvents(ctx context.Context) (int64, error) {
	start := time.Now()
	updated, err := s.events.CompletePastEvents(ctx, time.Now())
	if err != nil {
		s.metrics.RecordError("event_sweep")
		return 0, err
	}
	s.metrics.RecordSuccess("event_sweep")
	s.metrics.RecordTimer("event_sweep_ms", time.Since(start).Milliseconds())

	if updated > 0 {
		if err := s.cache.Delete(ctx, cache.GetActiveEventsCacheKey()); err != nil {
			log.Debug().Err(err).Msg("failed to invalidate active events cache")
		}
		log.Info().Int64("completed", updated).Msg("marked past events as completed")
	}

	return updated, nil
}
