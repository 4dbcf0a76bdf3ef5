package email

import (
	"context"
	"log/slog"

	"github.com/mrusso91/aerobook/internal/kafka"
)

// Sender is the notification sink for ticket events. Delivery is a log line
// until a mail provider is wired in.
type Sender struct{}

func NewSender() *Sender {
	return &Sender{}
}

func (s *Sender) Send(ctx context.Context, event kafka.TicketEvent) error {
	slog.Info("notify passenger",
		"type", event.Type,
		"passenger_id", event.PassengerID,
		"flight_id", event.FlightID,
		"seat", event.SeatNumber,
		"reference", event.Reference,
	)
	return nil
}
