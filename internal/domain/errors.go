package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the stable failure taxonomy. Callers classify with
// errors.Is; the API layer maps them onto HTTP statuses.
var (
	ErrFlightNotFound   = errors.New("flight not found")
	ErrSeatNotFound     = errors.New("seat not found")
	ErrAirportNotFound  = errors.New("airport not found")
	ErrTicketNotFound   = errors.New("ticket not found")
	ErrRouteNotFound    = errors.New("route not found")
	ErrAircraftNotFound = errors.New("aircraft not found")
	ErrExtraNotFound    = errors.New("extra not found")

	ErrSeatUnavailable      = errors.New("seat unavailable")
	ErrRouteRegistered      = errors.New("route already registered")
	ErrTicketNotCancellable = errors.New("ticket cannot be cancelled")

	ErrValidation = errors.New("validation failed")
)

// Validationf wraps ErrValidation with a caller-facing detail message.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrFlightNotFound) ||
		errors.Is(err, ErrSeatNotFound) ||
		errors.Is(err, ErrAirportNotFound) ||
		errors.Is(err, ErrTicketNotFound) ||
		errors.Is(err, ErrRouteNotFound) ||
		errors.Is(err, ErrAircraftNotFound) ||
		errors.Is(err, ErrExtraNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrSeatUnavailable) ||
		errors.Is(err, ErrRouteRegistered) ||
		errors.Is(err, ErrTicketNotCancellable)
}
