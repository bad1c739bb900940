package services

import (
	"context"
	"testing"
	"time"

	"example.com/registrar/internal/metrics"
	"example.com/registrar/internal/models"
	"example.com/registrar/internal/tracing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestEventService(events EventStore) *EventService {
	return &EventService{
		events:  events,
		cache:   stubCache{},
		metrics: metrics.NewMetrics(),
		tracer:  tracing.Disabled(),
	}
}

func TestCreateEvent(t *testing.T) {
	mockEvents := new(MockEventStore)
	mockEvents.On("Create", mock.Anything, mock.AnythingOfType("*models.Event")).Return(nil)

	service := newTestEventService(mockEvents)
	adminID := uuid.New()

	event, err := service.CreateEvent(context.Background(), adminID, CreateEventInput{
		Title:       "Paid Workshop",
		Description: "Hands-on session",
		Date:        time.Now().Add(7 * 24 * time.Hour),
		Time:        "10:00",
		Location:    "Main Hall",
		IsFree:      false,
		Price:       75,
	})

	require.NoError(t, err)
	require.Equal(t, adminID, event.CreatedBy)
	require.Equal(t, models.EventStatusActive, event.Status)
	require.Equal(t, 100, event.MaxParticipants)
	require.Equal(t, "USD", event.Currency)
	require.Equal(t, 75.0, event.Price)

	mockEvents.AssertExpectations(t)
}

func TestCreateEventFreeIgnoresPrice(t *testing.T) {
	mockEvents := new(MockEventStore)
	mockEvents.On("Create", mock.Anything, mock.AnythingOfType("*models.Event")).Return(nil)

	service := newTestEventService(mockEvents)

	event, err := service.CreateEvent(context.Background(), uuid.New(), CreateEventInput{
		Title:       "Community Meetup",
		Description: "Open to all",
		Date:        time.Now().Add(24 * time.Hour),
		Time:        "18:00",
		Location:    "Cafe",
		IsFree:      true,
		Price:       99,
	})

	require.NoError(t, err)
	require.True(t, event.IsFree)
	require.Zero(t, event.Price)
	require.Zero(t, event.EffectivePrice())
}

func TestCreateEventPaidRequiresPrice(t *testing.T) {
	mockEvents := new(MockEventStore)
	service := newTestEventService(mockEvents)

	_, err := service.CreateEvent(context.Background(), uuid.New(), CreateEventInput{
		Title:       "Broken Workshop",
		Description: "No price set",
		Date:        time.Now().Add(24 * time.Hour),
		Time:        "10:00",
		Location:    "Main Hall",
		IsFree:      false,
		Price:       0,
	})

	require.ErrorIs(t, err, ErrInvalidPrice)
	mockEvents.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCompletePastEvents(t *testing.T) {
	mockEvents := new(MockEventStore)
	mockEvents.On("CompletePastEvents", mock.Anything, mock.AnythingOfType("time.Time")).Return(int64(3), nil)

	service := newTestEventService(mockEvents)

	updated, err := service.CompletePastEvents(context.Background())

	require.NoError(t, err)
	require.Equal(t, int64(3), updated)
	mockEvents.AssertExpectations(t)
}
