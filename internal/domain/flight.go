package domain

import "time"

type Flight struct {
	ID              int64
	RouteID         int64
	AircraftID      int64
	DepartureTime   time.Time
	ArrivalTime     time.Time
	BasePriceCents  int64
	DurationSeconds int64
	Lifecycle
}

// DurationHours truncates to whole hours.
func (f Flight) DurationHours() int64 {
	return f.DurationSeconds / 3600
}
