package domain

import "time"

// Journey is one or two flights chained from origin to destination.
type Journey struct {
	FirstFlight        Flight
	SecondFlight       *Flight
	TotalDurationHours int64
	TotalPriceCents    int64
}

// ArrivalTime is the second leg's arrival when a layover exists.
func (j Journey) ArrivalTime() time.Time {
	if j.SecondFlight != nil {
		return j.SecondFlight.ArrivalTime
	}
	return j.FirstFlight.ArrivalTime
}

func (j Journey) DepartureTime() time.Time {
	return j.FirstFlight.DepartureTime
}
