package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mrusso91/aerobook/internal/domain"
)

type FlightRepository interface {
	Create(ctx context.Context, flight *domain.Flight, seats []domain.Seat) error
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	ListByRoutesOnDay(ctx context.Context, routeIDs []int64, dayStart, dayEnd time.Time) ([]domain.Flight, error)
	Deactivate(ctx context.Context, id int64) error
	OwningAirline(ctx context.Context, flightID int64) (int64, error)

	Seats(ctx context.Context, flightID int64) ([]domain.Seat, error)
	ReserveSeat(ctx context.Context, flightID int64, number string) error
	ReleaseSeat(ctx context.Context, flightID int64, number string) error
	ExpireStaleReservations(ctx context.Context, olderThan time.Time) (int64, error)

	DashboardStats(ctx context.Context, airlineID int64, now time.Time) (*domain.Dashboard, error)
}

type PGFlightRepository struct {
	db *pgxpool.Pool
}

func NewFlightRepository(db *pgxpool.Pool) FlightRepository {
	return &PGFlightRepository{db: db}
}

// Create inserts the flight and its full seat map in one transaction; a
// flight never exists without its seats.
func (r *PGFlightRepository) Create(ctx context.Context, flight *domain.Flight, seats []domain.Seat) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	flight.Lifecycle = domain.ActiveLifecycle()
	if err := tx.QueryRow(ctx, `INSERT INTO flights (route_id, aircraft_id, departure_time, arrival_time, base_price_cents, duration_seconds)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		flight.RouteID, flight.AircraftID, flight.DepartureTime, flight.ArrivalTime, flight.BasePriceCents, flight.DurationSeconds).
		Scan(&flight.ID); err != nil {
		return err
	}

	batch := &pgx.Batch{}
	for _, seat := range seats {
		batch.Queue(`INSERT INTO seats (flight_id, class_id, number, state, price_cents)
			VALUES ($1, $2, $3, $4, $5)`,
			flight.ID, seat.ClassID, seat.Number, domain.SeatStateAvailable, seat.PriceCents)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	row := r.db.QueryRow(ctx, `SELECT id, route_id, aircraft_id, departure_time, arrival_time, base_price_cents, duration_seconds, active, deactivated_at
		FROM flights WHERE id=$1 AND active`, id)
	var f domain.Flight
	if err := row.Scan(&f.ID, &f.RouteID, &f.AircraftID, &f.DepartureTime, &f.ArrivalTime, &f.BasePriceCents, &f.DurationSeconds, &f.Active, &f.DeactivatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrFlightNotFound
		}
		return nil, err
	}
	return &f, nil
}

func (r *PGFlightRepository) ListByRoutesOnDay(ctx context.Context, routeIDs []int64, dayStart, dayEnd time.Time) ([]domain.Flight, error) {
	rows, err := r.db.Query(ctx, `SELECT id, route_id, aircraft_id, departure_time, arrival_time, base_price_cents, duration_seconds, active, deactivated_at
		FROM flights WHERE active AND route_id = ANY($1) AND departure_time >= $2 AND departure_time < $3
		ORDER BY departure_time`, routeIDs, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		var f domain.Flight
		if err := rows.Scan(&f.ID, &f.RouteID, &f.AircraftID, &f.DepartureTime, &f.ArrivalTime, &f.BasePriceCents, &f.DurationSeconds, &f.Active, &f.DeactivatedAt); err != nil {
			return nil, err
		}
		flights = append(flights, f)
	}
	return flights, rows.Err()
}

// Deactivate soft-deletes; tickets keep referencing the row.
func (r *PGFlightRepository) Deactivate(ctx context.Context, id int64) error {
	cmd, err := r.db.Exec(ctx, `UPDATE flights SET active=false, deactivated_at=now() WHERE id=$1 AND active`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrFlightNotFound
	}
	return nil
}

func (r *PGFlightRepository) OwningAirline(ctx context.Context, flightID int64) (int64, error) {
	var airlineID int64
	err := r.db.QueryRow(ctx, `SELECT a.airline_id FROM flights f JOIN aircrafts a ON a.id = f.aircraft_id WHERE f.id=$1`, flightID).
		Scan(&airlineID)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrFlightNotFound
	}
	if err != nil {
		return 0, err
	}
	return airlineID, nil
}

func (r *PGFlightRepository) Seats(ctx context.Context, flightID int64) ([]domain.Seat, error) {
	rows, err := r.db.Query(ctx, `SELECT id, flight_id, class_id, number, state, price_cents, updated_at
		FROM seats WHERE flight_id=$1 ORDER BY id`, flightID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	seats := make([]domain.Seat, 0)
	for rows.Next() {
		var s domain.Seat
		if err := rows.Scan(&s.ID, &s.FlightID, &s.ClassID, &s.Number, &s.State, &s.PriceCents, &s.UpdatedAt); err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// ReserveSeat moves a seat AVAILABLE -> RESERVED under the same row lock the
// booking path uses. The hold is swept back by ExpireStaleReservations.
func (r *PGFlightRepository) ReserveSeat(ctx context.Context, flightID int64, number string) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var seatID int64
	var state domain.SeatState
	err = tx.QueryRow(ctx, `SELECT id, state FROM seats WHERE flight_id=$1 AND number=$2 FOR UPDATE`, flightID, number).
		Scan(&seatID, &state)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrSeatNotFound
	}
	if err != nil {
		return err
	}
	if state != domain.SeatStateAvailable {
		return domain.ErrSeatUnavailable
	}

	if _, err := tx.Exec(ctx, `UPDATE seats SET state=$1, updated_at=now() WHERE id=$2`, domain.SeatStateReserved, seatID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// ReleaseSeat is the administrative reset back to AVAILABLE, whatever the
// current state.
func (r *PGFlightRepository) ReleaseSeat(ctx context.Context, flightID int64, number string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE seats SET state=$1, updated_at=now() WHERE flight_id=$2 AND number=$3`,
		domain.SeatStateAvailable, flightID, number)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrSeatNotFound
	}
	return nil
}

func (r *PGFlightRepository) ExpireStaleReservations(ctx context.Context, olderThan time.Time) (int64, error) {
	cmd, err := r.db.Exec(ctx, `UPDATE seats SET state=$1, updated_at=now() WHERE state=$2 AND updated_at <= $3`,
		domain.SeatStateAvailable, domain.SeatStateReserved, olderThan)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *PGFlightRepository) DashboardStats(ctx context.Context, airlineID int64, now time.Time) (*domain.Dashboard, error) {
	var d domain.Dashboard

	if err := r.db.QueryRow(ctx, `SELECT COUNT(DISTINCT t.passenger_id)
		FROM tickets t
		JOIN flights f ON t.flight_id = f.id
		JOIN aircrafts a ON f.aircraft_id = a.id
		WHERE a.airline_id = $1 AND t.state <> $2`, airlineID, domain.TicketStateCancelled).
		Scan(&d.PassengerCount); err != nil {
		return nil, err
	}

	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	endOfMonth := startOfMonth.AddDate(0, 1, 0)
	if err := r.db.QueryRow(ctx, `SELECT COALESCE(SUM(t.final_cost_cents), 0)
		FROM tickets t
		JOIN flights f ON t.flight_id = f.id
		JOIN aircrafts a ON f.aircraft_id = a.id
		WHERE a.airline_id = $1 AND t.state <> $2 AND t.purchase_date >= $3 AND t.purchase_date < $4`,
		airlineID, domain.TicketStateCancelled, startOfMonth, endOfMonth).
		Scan(&d.MonthlyIncomeCents); err != nil {
		return nil, err
	}

	if err := r.db.QueryRow(ctx, `SELECT COUNT(DISTINCT route_id) FROM airline_routes
		WHERE airline_id = $1 AND active`, airlineID).
		Scan(&d.ActiveRoutes); err != nil {
		return nil, err
	}

	if err := r.db.QueryRow(ctx, `SELECT COUNT(DISTINCT f.id)
		FROM flights f
		JOIN aircrafts a ON f.aircraft_id = a.id
		WHERE a.airline_id = $1 AND f.departure_time <= $2 AND f.arrival_time >= $2`, airlineID, now).
		Scan(&d.FlightsInProgress); err != nil {
		return nil, err
	}

	return &d, nil
}

var _ FlightRepository = (*PGFlightRepository)(nil)
