package gateway

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	mrand "math/rand"
	"regexp"
	"strings"
	"sync"
	"time"

	"example.com/registrar/config"

	"github.com/pkg/errors"
)

// Decline errors returned after a transaction reaches the decision gate
var (
	ErrPaymentDeclined = errors.New("payment declined")
	ErrRefundDeclined  = errors.New("refund processing failed")
)

// ValidationError reports a malformed payment field. It is returned before
// the decision gate, so a caller seeing it knows nothing was charged.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// CardDetails is the payment instrument submitted by a registrant
type CardDetails struct {
	CardNumber     string `json:"card_number"`
	ExpiryDate     string `json:"expiry_date"`
	CVV            string `json:"cvv"`
	CardholderName string `json:"cardholder_name"`
}

// PaymentGateway authorizes charges and issues refunds. The production
// implementation would talk to a real processor; both must keep the
// validate-then-decide contract so callers need no change.
type PaymentGateway interface {
	Authorize(ctx context.Context, card CardDetails, amount float64) (string, error)
	Refund(ctx context.Context, paymentID string, amount float64) (string, error)
}

var (
	cardNumberPattern = regexp.MustCompile(`^\d{16}$`)
	expiryPattern     = regexp.MustCompile(`^\d{2}/\d{2}$`)
	cvvPattern        = regexp.MustCompile(`^\d{3,4}$`)
)

// MockGateway simulates a payment processor: a fixed latency stands in for
// the network round-trip and a random gate stands in for the processor's
// decision. The decision source is injectable so tests are deterministic.
type MockGateway struct {
	latency          time.Duration
	authorizeSuccess float64
	refundSuccess    float64

	mu     sync.Mutex
	decide func() float64
}

// Option configures a MockGateway
type Option func(*MockGateway)

// WithDecisionSource replaces the random decision source
func WithDecisionSource(decide func() float64) Option {
	return func(g *MockGateway) {
		g.decide = decide
	}
}

// New creates a mock gateway from configuration
func New(cfg config.GatewayConfig, opts ...Option) *MockGateway {
	rng := mrand.New(mrand.NewSource(time.Now().UnixNano()))

	g := &MockGateway{
		latency:          cfg.Latency,
		authorizeSuccess: cfg.AuthorizeSuccess,
		refundSuccess:    cfg.RefundSuccess,
		decide:           rng.Float64,
	}

	for _, opt := range opts {
		opt(g)
	}

	return g
}

// Authorize validates the card shape, simulates the round-trip and applies
// the success gate. Shape violations fail fast without consuming a random
// outcome.
func (g *MockGateway) Authorize(ctx context.Context, card CardDetails, amount float64) (string, error) {
	if err := validateCard(card); err != nil {
		return "", err
	}
	if amount <= 0 {
		return "", &ValidationError{Field: "amount", Reason: "must be positive"}
	}

	if err := g.wait(ctx); err != nil {
		return "", err
	}

	if !g.roll(g.authorizeSuccess) {
		return "", ErrPaymentDeclined
	}

	return transactionID("pay"), nil
}

// Refund simulates a refund against a previously issued payment ID
func (g *MockGateway) Refund(ctx context.Context, paymentID string, amount float64) (string, error) {
	if paymentID == "" {
		return "", &ValidationError{Field: "payment_id", Reason: "must not be empty"}
	}
	if amount <= 0 {
		return "", &ValidationError{Field: "amount", Reason: "must be positive"}
	}

	if err := g.wait(ctx); err != nil {
		return "", err
	}

	if !g.roll(g.refundSuccess) {
		return "", ErrRefundDeclined
	}

	return transactionID("ref"), nil
}

// wait blocks for the configured latency or until the context is cancelled
func (g *MockGateway) wait(ctx context.Context) error {
	if g.latency <= 0 {
		return nil
	}

	timer := time.NewTimer(g.latency)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// roll consumes one random outcome against a success rate
func (g *MockGateway) roll(successRate float64) bool {
	g.mu.Lock()
	outcome := g.decide()
	g.mu.Unlock()
	return outcome > 1-successRate
}

func validateCard(card CardDetails) error {
	number := strings.ReplaceAll(card.CardNumber, " ", "")
	if !cardNumberPattern.MatchString(number) {
		return &ValidationError{Field: "card_number", Reason: "must be exactly 16 digits"}
	}
	if !expiryPattern.MatchString(card.ExpiryDate) {
		return &ValidationError{Field: "expiry_date", Reason: "must match MM/YY"}
	}
	if !cvvPattern.MatchString(card.CVV) {
		return &ValidationError{Field: "cvv", Reason: "must be 3 or 4 digits"}
	}
	if strings.TrimSpace(card.CardholderName) == "" {
		return &ValidationError{Field: "cardholder_name", Reason: "must not be empty"}
	}
	return nil
}

// transactionID builds ids like pay_1700000000000_a1b2c3d4
func transactionID(prefix string) string {
	bytes := make([]byte, 4)
	rand.Read(bytes)
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMilli(), hex.EncodeToString(bytes))
}
