package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mrusso91/aerobook/internal/domain"
)

type TicketRepository interface {
	// CreateBatch books every request inside one transaction; any failure
	// rolls back the whole batch. refs holds one reference token per request.
	CreateBatch(ctx context.Context, passengerID int64, reqs []domain.TicketRequest, refs []string) ([]domain.Ticket, error)
	GetByID(ctx context.Context, ticketID int64) (*domain.Ticket, error)
	GetForPassenger(ctx context.Context, passengerID, ticketID int64) (*domain.Ticket, error)
	ListByPassenger(ctx context.Context, passengerID int64, offset, limit int) ([]domain.Ticket, int64, error)
	Cancel(ctx context.Context, passengerID, ticketID int64) (*domain.Ticket, error)
	Amend(ctx context.Context, ticketID int64, extraIDs []int64, finalCostCents *int64) (*domain.Ticket, error)
}

type PGTicketRepository struct {
	db           *pgxpool.Pool
	claimTimeout time.Duration
}

func NewTicketRepository(db *pgxpool.Pool, claimTimeout time.Duration) TicketRepository {
	return &PGTicketRepository{db: db, claimTimeout: claimTimeout}
}

func (r *PGTicketRepository) CreateBatch(ctx context.Context, passengerID int64, reqs []domain.TicketRequest, refs []string) ([]domain.Ticket, error) {
	if len(reqs) != len(refs) {
		return nil, fmt.Errorf("ticket batch: %d requests with %d references", len(reqs), len(refs))
	}

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if r.claimTimeout > 0 {
		if _, err := tx.Exec(ctx, fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.claimTimeout.Milliseconds())); err != nil {
			return nil, err
		}
	}

	tickets := make([]domain.Ticket, 0, len(reqs))
	for i, req := range reqs {
		seatID, _, err := claimSeat(ctx, tx, req.FlightID, req.SeatNumber)
		if err != nil {
			return nil, err
		}

		ticket := domain.Ticket{
			Reference:      refs[i],
			FlightID:       req.FlightID,
			PassengerID:    passengerID,
			SeatID:         &seatID,
			SeatNumber:     req.SeatNumber,
			FinalCostCents: req.FinalCostCents,
			State:          domain.TicketStateConfirmed,
			ExtraIDs:       req.ExtraIDs,
		}
		if err := tx.QueryRow(ctx, `INSERT INTO tickets (reference, flight_id, passenger_id, seat_id, final_cost_cents, state)
			VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, purchase_date`,
			ticket.Reference, ticket.FlightID, ticket.PassengerID, seatID, ticket.FinalCostCents, ticket.State).
			Scan(&ticket.ID, &ticket.PurchaseDate); err != nil {
			return nil, err
		}

		// Extra ids are attached as given; their existence is not validated.
		for _, extraID := range req.ExtraIDs {
			if _, err := tx.Exec(ctx, `INSERT INTO ticket_extras (ticket_id, extra_id) VALUES ($1, $2)`, ticket.ID, extraID); err != nil {
				return nil, err
			}
		}

		tickets = append(tickets, ticket)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return tickets, nil
}

// claimSeat performs the protected read-check-write: the row lock taken by
// FOR UPDATE guarantees two concurrent claims on one seat serialize so that
// only the first observes AVAILABLE.
func claimSeat(ctx context.Context, tx pgx.Tx, flightID int64, number string) (int64, int64, error) {
	var (
		seatID     int64
		priceCents int64
		state      domain.SeatState
	)
	err := tx.QueryRow(ctx, `SELECT id, price_cents, state FROM seats WHERE flight_id=$1 AND number=$2 FOR UPDATE`, flightID, number).
		Scan(&seatID, &priceCents, &state)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, 0, fmt.Errorf("seat %s on flight %d: %w", number, flightID, domain.ErrSeatNotFound)
	}
	if err != nil {
		return 0, 0, err
	}
	if state != domain.SeatStateAvailable {
		return 0, 0, fmt.Errorf("seat %s on flight %d: %w", number, flightID, domain.ErrSeatUnavailable)
	}

	if _, err := tx.Exec(ctx, `UPDATE seats SET state=$1, updated_at=now() WHERE id=$2`, domain.SeatStateBooked, seatID); err != nil {
		return 0, 0, err
	}
	return seatID, priceCents, nil
}

func (r *PGTicketRepository) GetByID(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	return r.getTicket(ctx, `WHERE t.id=$1`, ticketID)
}

func (r *PGTicketRepository) GetForPassenger(ctx context.Context, passengerID, ticketID int64) (*domain.Ticket, error) {
	return r.getTicket(ctx, `WHERE t.id=$1 AND t.passenger_id=$2`, ticketID, passengerID)
}

func (r *PGTicketRepository) getTicket(ctx context.Context, where string, args ...any) (*domain.Ticket, error) {
	row := r.db.QueryRow(ctx, `SELECT t.id, t.reference, t.flight_id, t.passenger_id, t.seat_id, COALESCE(s.number, ''), t.final_cost_cents, t.purchase_date, t.state
		FROM tickets t LEFT JOIN seats s ON s.id = t.seat_id `+where, args...)

	var t domain.Ticket
	if err := row.Scan(&t.ID, &t.Reference, &t.FlightID, &t.PassengerID, &t.SeatID, &t.SeatNumber, &t.FinalCostCents, &t.PurchaseDate, &t.State); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTicketNotFound
		}
		return nil, err
	}

	extraIDs, err := r.ticketExtras(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	t.ExtraIDs = extraIDs
	return &t, nil
}

func (r *PGTicketRepository) ticketExtras(ctx context.Context, ticketID int64) ([]int64, error) {
	rows, err := r.db.Query(ctx, `SELECT extra_id FROM ticket_extras WHERE ticket_id=$1 ORDER BY extra_id`, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *PGTicketRepository) ListByPassenger(ctx context.Context, passengerID int64, offset, limit int) ([]domain.Ticket, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE passenger_id=$1`, passengerID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `SELECT t.id, t.reference, t.flight_id, t.passenger_id, t.seat_id, COALESCE(s.number, ''), t.final_cost_cents, t.purchase_date, t.state
		FROM tickets t LEFT JOIN seats s ON s.id = t.seat_id
		WHERE t.passenger_id=$1 ORDER BY t.purchase_date DESC OFFSET $2 LIMIT $3`, passengerID, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tickets := make([]domain.Ticket, 0)
	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(&t.ID, &t.Reference, &t.FlightID, &t.PassengerID, &t.SeatID, &t.SeatNumber, &t.FinalCostCents, &t.PurchaseDate, &t.State); err != nil {
			return nil, 0, err
		}
		tickets = append(tickets, t)
	}
	return tickets, total, rows.Err()
}

// Cancel flips a ticket to CANCELLED and releases its seat in one
// transaction. passengerID 0 skips the ownership check (administrative path).
func (r *PGTicketRepository) Cancel(ctx context.Context, passengerID, ticketID int64) (*domain.Ticket, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT t.id, t.reference, t.flight_id, t.passenger_id, t.seat_id, COALESCE(s.number, ''), t.final_cost_cents, t.purchase_date, t.state
		FROM tickets t LEFT JOIN seats s ON s.id = t.seat_id WHERE t.id=$1 FOR UPDATE OF t`, ticketID)
	var t domain.Ticket
	if err := row.Scan(&t.ID, &t.Reference, &t.FlightID, &t.PassengerID, &t.SeatID, &t.SeatNumber, &t.FinalCostCents, &t.PurchaseDate, &t.State); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTicketNotFound
		}
		return nil, err
	}
	if passengerID != 0 && t.PassengerID != passengerID {
		return nil, domain.ErrTicketNotFound
	}
	if t.State == domain.TicketStateCancelled {
		return nil, domain.ErrTicketNotCancellable
	}

	if _, err := tx.Exec(ctx, `UPDATE tickets SET state=$1 WHERE id=$2`, domain.TicketStateCancelled, ticketID); err != nil {
		return nil, err
	}
	if t.SeatID != nil {
		if _, err := tx.Exec(ctx, `UPDATE seats SET state=$1, updated_at=now() WHERE id=$2`, domain.SeatStateAvailable, *t.SeatID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	t.State = domain.TicketStateCancelled
	return &t, nil
}

// Amend is the administrative correction of extras and final cost; the only
// mutation allowed on a confirmed ticket.
func (r *PGTicketRepository) Amend(ctx context.Context, ticketID int64, extraIDs []int64, finalCostCents *int64) (*domain.Ticket, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var exists int64
	if err := tx.QueryRow(ctx, `SELECT id FROM tickets WHERE id=$1 FOR UPDATE`, ticketID).Scan(&exists); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTicketNotFound
		}
		return nil, err
	}

	if finalCostCents != nil {
		if _, err := tx.Exec(ctx, `UPDATE tickets SET final_cost_cents=$1 WHERE id=$2`, *finalCostCents, ticketID); err != nil {
			return nil, err
		}
	}
	if extraIDs != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM ticket_extras WHERE ticket_id=$1`, ticketID); err != nil {
			return nil, err
		}
		for _, extraID := range extraIDs {
			if _, err := tx.Exec(ctx, `INSERT INTO ticket_extras (ticket_id, extra_id) VALUES ($1, $2)`, ticketID, extraID); err != nil {
				return nil, err
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, ticketID)
}

var _ TicketRepository = (*PGTicketRepository)(nil)
