package booking

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mrusso91/aerobook/internal/domain"
	"github.com/mrusso91/aerobook/internal/kafka"
	"github.com/mrusso91/aerobook/internal/repository"
)

type BookingUseCase interface {
	CreateTicket(ctx context.Context, passengerID int64, req domain.TicketRequest) (*domain.Ticket, error)
	CreateTicketsBulk(ctx context.Context, passengerID int64, reqs []domain.TicketRequest) ([]domain.Ticket, error)
	CancelTicket(ctx context.Context, passengerID, ticketID int64) (*domain.Ticket, error)
	AmendTicket(ctx context.Context, ticketID int64, extraIDs []int64, finalCostCents *int64) (*domain.Ticket, error)
	GetTicket(ctx context.Context, passengerID, ticketID int64) (*domain.Ticket, error)
	ListTickets(ctx context.Context, passengerID int64, page, limit int) ([]domain.Ticket, int, error)
	HoldSeat(ctx context.Context, flightID int64, seatNumber string) error
	ReleaseSeat(ctx context.Context, flightID int64, seatNumber string) error
	ExpireStaleReservations(ctx context.Context) (int64, error)
}

type Cache interface {
	InvalidateDashboard(ctx context.Context, airlineID int64) error
	AcquireSeatHold(ctx context.Context, flightID int64, number string, ttl time.Duration) (bool, error)
	ReleaseSeatHold(ctx context.Context, flightID int64, number string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type BookingService struct {
	tickets            repository.TicketRepository
	flights            repository.FlightRepository
	cache              Cache
	producer           Producer
	ticketsTopic       string
	notificationsTopic string
	holdTTL            time.Duration
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func NewBookingService(
	tickets repository.TicketRepository,
	flights repository.FlightRepository,
	cache Cache,
	producer Producer,
	ticketsTopic string,
	holdTTL time.Duration,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		tickets:      tickets,
		flights:      flights,
		cache:        cache,
		producer:     producer,
		ticketsTopic: ticketsTopic,
		holdTTL:      holdTTL,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) CreateTicket(ctx context.Context, passengerID int64, req domain.TicketRequest) (*domain.Ticket, error) {
	tickets, err := s.CreateTicketsBulk(ctx, passengerID, []domain.TicketRequest{req})
	if err != nil {
		return nil, err
	}
	return &tickets[0], nil
}

// CreateTicketsBulk books every request or none of them. Requests are
// validated in order before any storage write; the repository runs the whole
// batch in a single transaction.
func (s *BookingService) CreateTicketsBulk(ctx context.Context, passengerID int64, reqs []domain.TicketRequest) ([]domain.Ticket, error) {
	if passengerID <= 0 {
		return nil, domain.Validationf("passenger id is required")
	}
	if len(reqs) == 0 {
		return nil, domain.Validationf("at least one ticket request is required")
	}

	airlineByFlight := make(map[int64]int64, len(reqs))
	for _, req := range reqs {
		if req.SeatNumber == "" {
			return nil, domain.Validationf("seat number is required")
		}
		if req.FinalCostCents < 0 {
			return nil, domain.Validationf("final cost must be non-negative")
		}
		if _, ok := airlineByFlight[req.FlightID]; ok {
			continue
		}
		if _, err := s.flights.GetByID(ctx, req.FlightID); err != nil {
			return nil, err
		}
		airlineID, err := s.flights.OwningAirline(ctx, req.FlightID)
		if err != nil {
			return nil, err
		}
		airlineByFlight[req.FlightID] = airlineID
	}

	refs := make([]string, len(reqs))
	for i := range reqs {
		refs[i] = uuid.NewString()
	}

	tickets, err := s.tickets.CreateBatch(ctx, passengerID, reqs, refs)
	if err != nil {
		return nil, err
	}

	// Every airline touched by the batch gets its counters invalidated, not
	// just the last one.
	s.invalidateAirlines(ctx, airlineByFlight)

	for _, ticket := range tickets {
		if s.cache != nil {
			_ = s.cache.ReleaseSeatHold(ctx, ticket.FlightID, ticket.SeatNumber)
		}
		s.publish(ctx, "ticket_created", &ticket)
	}
	return tickets, nil
}

func (s *BookingService) CancelTicket(ctx context.Context, passengerID, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.Cancel(ctx, passengerID, ticketID)
	if err != nil {
		return nil, err
	}

	if airlineID, err := s.flights.OwningAirline(ctx, ticket.FlightID); err == nil {
		if s.cache != nil {
			_ = s.cache.InvalidateDashboard(ctx, airlineID)
		}
	} else {
		slog.Warn("cancel: airline lookup failed", "flight_id", ticket.FlightID, "error", err)
	}
	if s.cache != nil && ticket.SeatNumber != "" {
		_ = s.cache.ReleaseSeatHold(ctx, ticket.FlightID, ticket.SeatNumber)
	}
	s.publish(ctx, "ticket_cancelled", ticket)
	return ticket, nil
}

func (s *BookingService) AmendTicket(ctx context.Context, ticketID int64, extraIDs []int64, finalCostCents *int64) (*domain.Ticket, error) {
	if finalCostCents != nil && *finalCostCents < 0 {
		return nil, domain.Validationf("final cost must be non-negative")
	}
	return s.tickets.Amend(ctx, ticketID, extraIDs, finalCostCents)
}

func (s *BookingService) GetTicket(ctx context.Context, passengerID, ticketID int64) (*domain.Ticket, error) {
	if passengerID == 0 {
		return s.tickets.GetByID(ctx, ticketID)
	}
	return s.tickets.GetForPassenger(ctx, passengerID, ticketID)
}

func (s *BookingService) ListTickets(ctx context.Context, passengerID int64, page, limit int) ([]domain.Ticket, int, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	tickets, total, err := s.tickets.ListByPassenger(ctx, passengerID, (page-1)*limit, limit)
	if err != nil {
		return nil, 0, err
	}
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return tickets, totalPages, nil
}

// HoldSeat is the reserve path: a redis hold for fast rejection plus the
// RESERVED row state swept back by the worker after the TTL.
func (s *BookingService) HoldSeat(ctx context.Context, flightID int64, seatNumber string) error {
	if seatNumber == "" {
		return domain.Validationf("seat number is required")
	}

	if s.cache != nil {
		held, err := s.cache.AcquireSeatHold(ctx, flightID, seatNumber, s.holdTTL)
		if err != nil {
			return err
		}
		if !held {
			return domain.ErrSeatUnavailable
		}
	}

	if err := s.flights.ReserveSeat(ctx, flightID, seatNumber); err != nil {
		if s.cache != nil {
			_ = s.cache.ReleaseSeatHold(ctx, flightID, seatNumber)
		}
		return err
	}
	return nil
}

func (s *BookingService) ReleaseSeat(ctx context.Context, flightID int64, seatNumber string) error {
	if err := s.flights.ReleaseSeat(ctx, flightID, seatNumber); err != nil {
		return err
	}
	if s.cache != nil {
		_ = s.cache.ReleaseSeatHold(ctx, flightID, seatNumber)
	}
	return nil
}

func (s *BookingService) ExpireStaleReservations(ctx context.Context) (int64, error) {
	return s.flights.ExpireStaleReservations(ctx, time.Now().Add(-s.holdTTL))
}

func (s *BookingService) invalidateAirlines(ctx context.Context, airlineByFlight map[int64]int64) {
	if s.cache == nil {
		return
	}
	seen := make(map[int64]struct{}, len(airlineByFlight))
	for _, airlineID := range airlineByFlight {
		if _, ok := seen[airlineID]; ok {
			continue
		}
		seen[airlineID] = struct{}{}
		if err := s.cache.InvalidateDashboard(ctx, airlineID); err != nil {
			slog.Warn("dashboard invalidation failed", "airline_id", airlineID, "error", err)
		}
	}
}

func (s *BookingService) publish(ctx context.Context, eventType string, ticket *domain.Ticket) {
	if s.producer == nil || s.ticketsTopic == "" {
		return
	}
	event := kafka.TicketEvent{
		Type:           eventType,
		Reference:      ticket.Reference,
		TicketID:       ticket.ID,
		FlightID:       ticket.FlightID,
		PassengerID:    ticket.PassengerID,
		SeatNumber:     ticket.SeatNumber,
		FinalCostCents: ticket.FinalCostCents,
		State:          string(ticket.State),
		PurchaseDate:   ticket.PurchaseDate,
	}
	if err := s.producer.Publish(ctx, s.ticketsTopic, ticket.Reference, event); err != nil {
		slog.Warn("failed to publish ticket event", "type", eventType, "reference", ticket.Reference, "error", err)
		return
	}
	if s.notificationsTopic != "" {
		if err := s.producer.Publish(ctx, s.notificationsTopic, ticket.Reference, event); err != nil {
			slog.Warn("failed to publish notification", "type", eventType, "reference", ticket.Reference, "error", err)
		}
	}
}

var _ BookingUseCase = (*BookingService)(nil)
