package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"example.com/registrar/internal/cache"
	"example.com/registrar/internal/metrics"
	"example.com/registrar/internal/models"
	"example.com/registrar/internal/tracing"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	analyticsCacheTTL = 2 * time.Minute
	topEventsLimit    = 5
	recentActivityMax = 10
	monthKeyLayout    = "2006-01"
)

// MonthlyRevenue is one calendar-month revenue bucket
type MonthlyRevenue struct {
	Month   string  `json:"month"`
	Revenue float64 `json:"revenue"`
}

// EventRevenue ranks an event by the revenue it generated
type EventRevenue struct {
	EventID      uuid.UUID `json:"event_id"`
	Title        string    `json:"title"`
	Revenue      float64   `json:"revenue"`
	Transactions int       `json:"transactions"`
}

// AggregateReport is the admin analytics report over the registration ledger
type AggregateReport struct {
	TotalRegistrations  int                `json:"total_registrations"`
	StatusCounts        map[string]int     `json:"status_counts"`
	PaymentStatusCounts map[string]int     `json:"payment_status_counts"`
	TotalRevenue        float64            `json:"total_revenue"`
	TotalRefunded       float64            `json:"total_refunded"`
	AverageTransaction  float64            `json:"average_transaction"`
	ConversionRate      float64            `json:"conversion_rate"`
	RevenueByMonth      []MonthlyRevenue   `json:"revenue_by_month"`
	TopEvents           []EventRevenue     `json:"top_events"`
	PaymentMethods      map[string]float64 `json:"payment_methods"`
}

// AdminStats are the headline numbers on the admin dashboard
type AdminStats struct {
	TotalUsers       int64 `json:"total_users"`
	TotalEvents      int64 `json:"total_events"`
	UpcomingEvents   int64 `json:"upcoming_events"`
	PendingApprovals int64 `json:"pending_approvals"`
}

// AdminEventSummary is one of the admin's events with registration counts
type AdminEventSummary struct {
	Event             models.Event `json:"event"`
	RegistrationCount int64        `json:"registration_count"`
	PendingCount      int64        `json:"pending_count"`
}

// AdminDashboard is the admin landing view
type AdminDashboard struct {
	Stats          AdminStats            `json:"stats"`
	Events         []AdminEventSummary   `json:"events"`
	RecentActivity []models.Registration `json:"recent_activity"`
}

// UserDashboard is the registrant landing view
type UserDashboard struct {
	TotalRegistrations int                   `json:"total_registrations"`
	Approved           int                   `json:"approved"`
	Pending            int                   `json:"pending"`
	Rejected           int                   `json:"rejected"`
	UpcomingEvents     int                   `json:"upcoming_events"`
	Registrations      []models.Registration `json:"registrations"`
}

// AnalyticsService aggregates the registration ledger into reports
type AnalyticsService struct {
	users         UserStore
	events        EventStore
	registrations RegistrationStore
	cache         Cache
	metrics       *metrics.Metrics
	tracer        tracing.Tracer
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(users UserStore, events EventStore, registrations RegistrationStore, c Cache, m *metrics.Metrics, t tracing.Tracer) *AnalyticsService {
	return &AnalyticsService{
		users:         users,
		events:        events,
		registrations: registrations,
		cache:         c,
		metrics:       m,
		tracer:        t,
	}
}

// GetAnalytics computes the aggregate report, optionally restricted to
// registrations created inside [from, to]. Reports are cached briefly since
// admins tend to refresh them.
func (s *AnalyticsService) GetAnalytics(ctx context.Context, from, to *time.Time) (*AggregateReport, error) {
	txn := s.tracer.StartTransaction("analytics-service.aggregate")
	defer s.tracer.EndTransaction(txn)

	key := cache.GetAnalyticsCacheKey(rangeKey(from, to))
	var cached AggregateReport
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		s.metrics.IncrementCounter("analytics_cache_hits")
		return &cached, nil
	}

	start := time.Now()
	regs, err := s.registrations.FindAll(ctx, from, to)
	if err != nil {
		s.tracer.RecordError(txn, err)
		return nil, err
	}

	report := s.aggregate(ctx, regs)
	s.metrics.RecordTimer("analytics_aggregate_ms", time.Since(start).Milliseconds())

	if err := s.cache.Set(ctx, key, report, analyticsCacheTTL); err != nil {
		log.Debug().Err(err).Msg("failed to cache analytics report")
	}

	return report, nil
}

func (s *AnalyticsService) aggregate(ctx context.Context, regs []models.Registration) *AggregateReport {
	report := &AggregateReport{
		TotalRegistrations: len(regs),
		StatusCounts: map[string]int{
			models.RegistrationPending:  0,
			models.RegistrationApproved: 0,
			models.RegistrationRejected: 0,
		},
		PaymentStatusCounts: map[string]int{
			models.PaymentPending:   0,
			models.PaymentCompleted: 0,
			models.PaymentFailed:    0,
			models.PaymentRefunded:  0,
		},
		PaymentMethods: map[string]float64{},
	}

	monthly := map[string]float64{}
	byEvent := map[uuid.UUID]*EventRevenue{}
	methodCounts := map[string]int{}
	transactions := 0

	for i := range regs {
		r := &regs[i]
		report.StatusCounts[r.Status]++
		report.PaymentStatusCounts[r.PaymentStatus]++

		if r.PaymentMethod != nil {
			methodCounts[*r.PaymentMethod]++
			transactions++
		}

		if r.PaymentStatus == models.PaymentCompleted {
			report.TotalRevenue += r.AmountPaid

			paidAt := r.RegistrationDate
			if r.PaymentDate != nil {
				paidAt = *r.PaymentDate
			}
			monthly[paidAt.Format(monthKeyLayout)] += r.AmountPaid

			entry, ok := byEvent[r.EventID]
			if !ok {
				entry = &EventRevenue{EventID: r.EventID}
				byEvent[r.EventID] = entry
			}
			entry.Revenue += r.AmountPaid
			entry.Transactions++
		}

		if r.PaymentStatus == models.PaymentRefunded && r.RefundAmount != nil {
			report.TotalRefunded += *r.RefundAmount
		}
	}

	if n := report.PaymentStatusCounts[models.PaymentCompleted]; n > 0 {
		report.AverageTransaction = report.TotalRevenue / float64(n)
	}
	if report.TotalRegistrations > 0 {
		report.ConversionRate = float64(report.StatusCounts[models.RegistrationApproved]) / float64(report.TotalRegistrations) * 100
	}

	months := make([]string, 0, len(monthly))
	for m := range monthly {
		months = append(months, m)
	}
	sort.Strings(months)
	report.RevenueByMonth = make([]MonthlyRevenue, 0, len(months))
	for _, m := range months {
		report.RevenueByMonth = append(report.RevenueByMonth, MonthlyRevenue{Month: m, Revenue: monthly[m]})
	}

	ranked := make([]EventRevenue, 0, len(byEvent))
	for _, entry := range byEvent {
		ranked = append(ranked, *entry)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Revenue != ranked[j].Revenue {
			return ranked[i].Revenue > ranked[j].Revenue
		}
		return ranked[i].EventID.String() < ranked[j].EventID.String()
	})
	if len(ranked) > topEventsLimit {
		ranked = ranked[:topEventsLimit]
	}
	for i := range ranked {
		if event, err := s.events.GetByID(ctx, ranked[i].EventID); err == nil {
			ranked[i].Title = event.Title
		}
	}
	report.TopEvents = ranked

	for method, count := range methodCounts {
		report.PaymentMethods[method] = float64(count) / float64(transactions) * 100
	}

	return report
}

// GetAdminDashboard builds the admin landing view
func (s *AnalyticsService) GetAdminDashboard(ctx context.Context, adminID uuid.UUID) (*AdminDashboard, error) {
	txn := s.tracer.StartTransaction("analytics-service.admin-dashboard")
	defer s.tracer.EndTransaction(txn)

	totalUsers, err := s.users.CountByRole(ctx, models.RoleUser)
	if err != nil {
		return nil, err
	}
	totalEvents, err := s.events.CountAll(ctx)
	if err != nil {
		return nil, err
	}
	upcoming, err := s.events.CountUpcoming(ctx, time.Now())
	if err != nil {
		return nil, err
	}
	pending, err := s.registrations.CountByStatus(ctx, models.RegistrationPending)
	if err != nil {
		return nil, err
	}

	ownEvents, err := s.events.FindByCreator(ctx, adminID)
	if err != nil {
		return nil, err
	}
	summaries := make([]AdminEventSummary, 0, len(ownEvents))
	for _, event := range ownEvents {
		total, err := s.registrations.CountByEvent(ctx, event.ID, "")
		if err != nil {
			return nil, err
		}
		pendingCount, err := s.registrations.CountByEvent(ctx, event.ID, models.RegistrationPending)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, AdminEventSummary{
			Event:             event,
			RegistrationCount: total,
			PendingCount:      pendingCount,
		})
	}

	recent, err := s.registrations.FindRecent(ctx, recentActivityMax)
	if err != nil {
		return nil, err
	}

	return &AdminDashboard{
		Stats: AdminStats{
			TotalUsers:       totalUsers,
			TotalEvents:      totalEvents,
			UpcomingEvents:   upcoming,
			PendingApprovals: pending,
		},
		Events:         summaries,
		RecentActivity: recent,
	}, nil
}

// GetUserDashboard builds the registrant landing view
func (s *AnalyticsService) GetUserDashboard(ctx context.Context, userID uuid.UUID) (*UserDashboard, error) {
	regs, err := s.registrations.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	dashboard := &UserDashboard{
		TotalRegistrations: len(regs),
		Registrations:      regs,
	}

	now := time.Now()
	for i := range regs {
		r := &regs[i]
		switch r.Status {
		case models.RegistrationApproved:
			dashboard.Approved++
			if r.Event.Date.After(now) {
				dashboard.UpcomingEvents++
			}
		case models.RegistrationPending:
			dashboard.Pending++
		case models.RegistrationRejected:
			dashboard.Rejected++
		}
	}

	return dashboard, nil
}

func rangeKey(from, to *time.Time) string {
	if from == nil || to == nil {
		return "all"
	}
	return fmt.Sprintf("%s:%s", from.Format("2006-01-02"), to.Format("2006-01-02"))
}
