package domain

import "time"

type SeatState string

const (
	SeatStateAvailable SeatState = "AVAILABLE"
	SeatStateReserved  SeatState = "RESERVED"
	SeatStateBooked    SeatState = "BOOKED"
)

type Seat struct {
	ID         int64
	FlightID   int64
	ClassID    int64
	Number     string
	State      SeatState
	PriceCents int64
	UpdatedAt  time.Time
}
