package domain

import "errors"

// Sentinel errors shared by repositories, services and delivery layers.
var (
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidInput         = errors.New("invalid input")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrNoActiveEvent        = errors.New("no active event")
	ErrPaymentNotConfigured = errors.New("payment provider is not configured")
	ErrDeliveryFailed       = errors.New("message delivery failed")
)
