package services

import "errors"

// Domain errors surfaced to the API layer
var (
	ErrEventNotFound        = errors.New("event not found")
	ErrRegistrationNotFound = errors.New("registration not found")
	ErrAlreadyRegistered    = errors.New("already registered for this event")
	ErrAmountMismatch       = errors.New("invalid payment amount")
	ErrInvalidDecision      = errors.New("decision must be approved or rejected")
	ErrAlreadyDecided       = errors.New("registration has already been decided")
	ErrNotCompleted         = errors.New("cannot refund non-completed payment")
	ErrInvalidRefundAmount  = errors.New("refund amount must be positive and not exceed the amount paid")
	ErrInvalidPrice         = errors.New("paid events require a positive price")
	ErrEmailTaken           = errors.New("user with this email already exists")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidAdminCode     = errors.New("invalid admin code")
)
