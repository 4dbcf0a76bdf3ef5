package domain

import "time"

type TicketState string

const (
	TicketStatePending   TicketState = "PENDING"
	TicketStateConfirmed TicketState = "CONFIRMED"
	TicketStateCancelled TicketState = "CANCELLED"
)

type Ticket struct {
	ID             int64
	Reference      string
	FlightID       int64
	PassengerID    int64
	SeatID         *int64
	SeatNumber     string
	FinalCostCents int64
	PurchaseDate   time.Time
	State          TicketState
	ExtraIDs       []int64
}

// TicketRequest is one leg of a purchase. A bulk purchase is an ordered list
// of these that must succeed or fail together.
type TicketRequest struct {
	FlightID       int64
	SeatNumber     string
	FinalCostCents int64
	ExtraIDs       []int64
}
