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

func newTestAnalyticsService(users UserStore, events EventStore, regs RegistrationStore) *AnalyticsService {
	return &AnalyticsService{
		users:         users,
		events:        events,
		registrations: regs,
		cache:         stubCache{},
		metrics:       metrics.NewMetrics(),
		tracer:        tracing.Disabled(),
	}
}

func paymentAt(eventID uuid.UUID, status string, amount float64, paidAt time.Time) models.Registration {
	method := paymentMethodCard
	return models.Registration{
		ID:            uuid.New(),
		EventID:       eventID,
		UserID:        uuid.New(),
		Status:        models.RegistrationApproved,
		PaymentStatus: status,
		AmountPaid:    amount,
		PaymentDate:   &paidAt,
		PaymentMethod: &method,
	}
}

func TestGetAnalyticsAggregates(t *testing.T) {
	mockEvents := new(MockEventStore)
	mockRegs := new(MockRegistrationStore)

	january := time.Date(2026, time.January, 10, 12, 0, 0, 0, time.UTC)
	february := time.Date(2026, time.February, 5, 9, 0, 0, 0, time.UTC)

	workshopID := uuid.New()
	conferenceID := uuid.New()
	refundAmount := 25.0

	regs := []models.Registration{
		paymentAt(workshopID, models.PaymentCompleted, 50, january),
		paymentAt(workshopID, models.PaymentCompleted, 40, february),
		paymentAt(conferenceID, models.PaymentCompleted, 100, february),
		{
			ID:            uuid.New(),
			EventID:       conferenceID,
			UserID:        uuid.New(),
			Status:        models.RegistrationPending,
			PaymentStatus: models.PaymentPending,
		},
		{
			ID:            uuid.New(),
			EventID:       workshopID,
			UserID:        uuid.New(),
			Status:        models.RegistrationRejected,
			PaymentStatus: models.PaymentRefunded,
			AmountPaid:    25,
			RefundAmount:  &refundAmount,
		},
	}

	mockRegs.On("FindAll", mock.Anything, (*time.Time)(nil), (*time.Time)(nil)).Return(regs, nil)
	mockEvents.On("GetByID", mock.Anything, workshopID).Return(&models.Event{ID: workshopID, Title: "Workshop"}, nil)
	mockEvents.On("GetByID", mock.Anything, conferenceID).Return(&models.Event{ID: conferenceID, Title: "Conference"}, nil)

	service := newTestAnalyticsService(new(MockUserStore), mockEvents, mockRegs)

	report, err := service.GetAnalytics(context.Background(), nil, nil)
	require.NoError(t, err)

	require.Equal(t, 5, report.TotalRegistrations)
	require.Equal(t, 3, report.StatusCounts[models.RegistrationApproved])
	require.Equal(t, 1, report.StatusCounts[models.RegistrationPending])
	require.Equal(t, 1, report.StatusCounts[models.RegistrationRejected])
	require.Equal(t, 3, report.PaymentStatusCounts[models.PaymentCompleted])
	require.Equal(t, 1, report.PaymentStatusCounts[models.PaymentRefunded])

	require.Equal(t, 190.0, report.TotalRevenue)
	require.Equal(t, 25.0, report.TotalRefunded)
	require.InDelta(t, 190.0/3.0, report.AverageTransaction, 0.0001)
	require.InDelta(t, 60.0, report.ConversionRate, 0.0001)

	// Monthly buckets are chronological and sum to total revenue
	require.Equal(t, []MonthlyRevenue{
		{Month: "2026-01", Revenue: 50},
		{Month: "2026-02", Revenue: 140},
	}, report.RevenueByMonth)

	var bucketSum float64
	for _, bucket := range report.RevenueByMonth {
		bucketSum += bucket.Revenue
	}
	require.Equal(t, report.TotalRevenue, bucketSum)

	// Top events ranked by revenue, titles resolved
	require.Len(t, report.TopEvents, 2)
	require.Equal(t, conferenceID, report.TopEvents[0].EventID)
	require.Equal(t, "Conference", report.TopEvents[0].Title)
	require.Equal(t, 100.0, report.TopEvents[0].Revenue)
	require.Equal(t, workshopID, report.TopEvents[1].EventID)
	require.Equal(t, 90.0, report.TopEvents[1].Revenue)

	require.InDelta(t, 100.0, report.PaymentMethods[paymentMethodCard], 0.0001)
}

func TestGetAnalyticsEmptyLedger(t *testing.T) {
	mockRegs := new(MockRegistrationStore)
	mockRegs.On("FindAll", mock.Anything, (*time.Time)(nil), (*time.Time)(nil)).Return([]models.Registration{}, nil)

	service := newTestAnalyticsService(new(MockUserStore), new(MockEventStore), mockRegs)

	report, err := service.GetAnalytics(context.Background(), nil, nil)
	require.NoError(t, err)

	require.Zero(t, report.TotalRegistrations)
	require.Zero(t, report.TotalRevenue)
	require.Zero(t, report.TotalRefunded)
	require.Zero(t, report.AverageTransaction)
	require.Zero(t, report.ConversionRate)
	require.Empty(t, report.RevenueByMonth)
	require.Empty(t, report.TopEvents)
}

func TestGetAdminDashboard(t *testing.T) {
	mockUsers := new(MockUserStore)
	mockEvents := new(MockEventStore)
	mockRegs := new(MockRegistrationStore)

	adminID := uuid.New()
	event := models.Event{ID: uuid.New(), Title: "Workshop", CreatedBy: adminID}

	mockUsers.On("CountByRole", mock.Anything, models.RoleUser).Return(int64(42), nil)
	mockEvents.On("CountAll", mock.Anything).Return(int64(7), nil)
	mockEvents.On("CountUpcoming", mock.Anything, mock.AnythingOfType("time.Time")).Return(int64(3), nil)
	mockRegs.On("CountByStatus", mock.Anything, models.RegistrationPending).Return(int64(5), nil)
	mockEvents.On("FindByCreator", mock.Anything, adminID).Return([]models.Event{event}, nil)
	mockRegs.On("CountByEvent", mock.Anything, event.ID, "").Return(int64(12), nil)
	mockRegs.On("CountByEvent", mock.Anything, event.ID, models.RegistrationPending).Return(int64(4), nil)
	mockRegs.On("FindRecent", mock.Anything, recentActivityMax).Return([]models.Registration{}, nil)

	service := newTestAnalyticsService(mockUsers, mockEvents, mockRegs)

	dashboard, err := service.GetAdminDashboard(context.Background(), adminID)
	require.NoError(t, err)

	require.Equal(t, int64(42), dashboard.Stats.TotalUsers)
	require.Equal(t, int64(7), dashboard.Stats.TotalEvents)
	require.Equal(t, int64(3), dashboard.Stats.UpcomingEvents)
	require.Equal(t, int64(5), dashboard.Stats.PendingApprovals)
	require.Len(t, dashboard.Events, 1)
	require.Equal(t, int64(12), dashboard.Events[0].RegistrationCount)
	require.Equal(t, int64(4), dashboard.Events[0].PendingCount)
}

func TestGetUserDashboard(t *testing.T) {
	mockRegs := new(MockRegistrationStore)

	userID := uuid.New()
	upcoming := models.Event{ID: uuid.New(), Date: time.Now().Add(72 * time.Hour)}
	past := models.Event{ID: uuid.New(), Date: time.Now().Add(-72 * time.Hour)}

	regs := []models.Registration{
		{Status: models.RegistrationApproved, Event: upcoming},
		{Status: models.RegistrationApproved, Event: past},
		{Status: models.RegistrationPending, Event: upcoming},
		{Status: models.RegistrationRejected, Event: past},
	}
	mockRegs.On("FindByUser", mock.Anything, userID).Return(regs, nil)

	service := newTestAnalyticsService(new(MockUserStore), new(MockEventStore), mockRegs)

	dashboard, err := service.GetUserDashboard(context.Background(), userID)
	require.NoError(t, err)

	require.Equal(t, 4, dashboard.TotalRegistrations)
	require.Equal(t, 2, dashboard.Approved)
	require.Equal(t, 1, dashboard.Pending)
	require.Equal(t, 1, dashboard.Rejected)
	// Only approved registrations for future events count as upcoming
	require.Equal(t, 1, dashboard.UpcomingEvents)
}
