package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mrusso91/aerobook/internal/domain"
)

type CatalogRepository interface {
	ResolveAirports(ctx context.Context, query string) ([]domain.Airport, error)
	SuggestLocations(ctx context.Context, query string) ([]domain.Airport, error)
	ListCities(ctx context.Context) ([]string, error)

	DirectRoutes(ctx context.Context, departureAirportIDs, arrivalAirportIDs []int64) ([]domain.Route, error)
	DepartureRoutes(ctx context.Context, departureAirportIDs, excludedArrivalIDs []int64) ([]domain.Route, error)
	ArrivalRoutes(ctx context.Context, arrivalAirportIDs, excludedDepartureIDs []int64) ([]domain.Route, error)
	EnsureRoute(ctx context.Context, departureAirportID, arrivalAirportID int64) (*domain.Route, error)
	RegisterAirlineRoute(ctx context.Context, airlineID, routeID int64) error
	DropAirlineRoute(ctx context.Context, airlineID, routeID int64) error

	GetAircraft(ctx context.Context, id int64) (*domain.Aircraft, error)
	ClassesByAircraft(ctx context.Context, aircraftID int64) ([]domain.AircraftClass, error)

	CreateExtra(ctx context.Context, extra *domain.Extra) error
	ListExtras(ctx context.Context, airlineID int64) ([]domain.Extra, error)
	DeleteExtra(ctx context.Context, airlineID, extraID int64) error
}

type PGCatalogRepository struct {
	db *pgxpool.Pool
}

func NewCatalogRepository(db *pgxpool.Pool) CatalogRepository {
	return &PGCatalogRepository{db: db}
}

// ResolveAirports matches an airport code or city name case-insensitively by
// prefix. A city may resolve to several airports.
func (r *PGCatalogRepository) ResolveAirports(ctx context.Context, query string) ([]domain.Airport, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, code, city, country, active, deactivated_at FROM airports
		WHERE active AND (code ILIKE $1 || '%' OR city ILIKE $1 || '%') ORDER BY id`, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAirports(rows)
}

func (r *PGCatalogRepository) SuggestLocations(ctx context.Context, query string) ([]domain.Airport, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, code, city, country, active, deactivated_at FROM airports
		WHERE active AND (code ILIKE $1 || '%' OR city ILIKE $1 || '%' OR name ILIKE $1 || '%' OR country ILIKE '%' || $1 || '%')
		ORDER BY id LIMIT 5`, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanAirports(rows)
}

func (r *PGCatalogRepository) ListCities(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT DISTINCT city FROM airports WHERE active ORDER BY city`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cities := make([]string, 0)
	for rows.Next() {
		var city string
		if err := rows.Scan(&city); err != nil {
			return nil, err
		}
		cities = append(cities, city)
	}
	return cities, rows.Err()
}

func (r *PGCatalogRepository) DirectRoutes(ctx context.Context, departureAirportIDs, arrivalAirportIDs []int64) ([]domain.Route, error) {
	rows, err := r.db.Query(ctx, `SELECT id, departure_airport_id, arrival_airport_id FROM routes
		WHERE departure_airport_id = ANY($1) AND arrival_airport_id = ANY($2)`, departureAirportIDs, arrivalAirportIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRoutes(rows)
}

func (r *PGCatalogRepository) DepartureRoutes(ctx context.Context, departureAirportIDs, excludedArrivalIDs []int64) ([]domain.Route, error) {
	rows, err := r.db.Query(ctx, `SELECT id, departure_airport_id, arrival_airport_id FROM routes
		WHERE departure_airport_id = ANY($1) AND NOT (arrival_airport_id = ANY($2))`, departureAirportIDs, excludedArrivalIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRoutes(rows)
}

func (r *PGCatalogRepository) ArrivalRoutes(ctx context.Context, arrivalAirportIDs, excludedDepartureIDs []int64) ([]domain.Route, error) {
	rows, err := r.db.Query(ctx, `SELECT id, departure_airport_id, arrival_airport_id FROM routes
		WHERE arrival_airport_id = ANY($1) AND NOT (departure_airport_id = ANY($2))`, arrivalAirportIDs, excludedDepartureIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRoutes(rows)
}

// EnsureRoute returns the shared route row for an airport pair, creating it
// when no airline has flown the pair before.
func (r *PGCatalogRepository) EnsureRoute(ctx context.Context, departureAirportID, arrivalAirportID int64) (*domain.Route, error) {
	var route domain.Route
	err := r.db.QueryRow(ctx, `INSERT INTO routes (departure_airport_id, arrival_airport_id)
		VALUES ($1, $2)
		ON CONFLICT (departure_airport_id, arrival_airport_id) DO UPDATE SET departure_airport_id = EXCLUDED.departure_airport_id
		RETURNING id, departure_airport_id, arrival_airport_id`, departureAirportID, arrivalAirportID).
		Scan(&route.ID, &route.DepartureAirportID, &route.ArrivalAirportID)
	if err != nil {
		return nil, err
	}
	return &route, nil
}

func (r *PGCatalogRepository) RegisterAirlineRoute(ctx context.Context, airlineID, routeID int64) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var active bool
	err = tx.QueryRow(ctx, `SELECT active FROM airline_routes WHERE airline_id=$1 AND route_id=$2 FOR UPDATE`, airlineID, routeID).Scan(&active)
	switch {
	case err == nil && active:
		return domain.ErrRouteRegistered
	case err == nil:
		if _, err := tx.Exec(ctx, `UPDATE airline_routes SET active=true, deactivated_at=NULL WHERE airline_id=$1 AND route_id=$2`, airlineID, routeID); err != nil {
			return err
		}
	case errors.Is(err, pgx.ErrNoRows):
		if _, err := tx.Exec(ctx, `INSERT INTO airline_routes (airline_id, route_id) VALUES ($1, $2)`, airlineID, routeID); err != nil {
			return err
		}
	default:
		return err
	}

	return tx.Commit(ctx)
}

func (r *PGCatalogRepository) DropAirlineRoute(ctx context.Context, airlineID, routeID int64) error {
	cmd, err := r.db.Exec(ctx, `UPDATE airline_routes SET active=false, deactivated_at=now()
		WHERE airline_id=$1 AND route_id=$2 AND active`, airlineID, routeID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrRouteNotFound
	}
	return nil
}

func (r *PGCatalogRepository) GetAircraft(ctx context.Context, id int64) (*domain.Aircraft, error) {
	var a domain.Aircraft
	err := r.db.QueryRow(ctx, `SELECT id, airline_id, model, total_seats, active, deactivated_at FROM aircrafts
		WHERE id=$1 AND active`, id).
		Scan(&a.ID, &a.AirlineID, &a.Model, &a.TotalSeats, &a.Active, &a.DeactivatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrAircraftNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ClassesByAircraft orders by descending price multiplier, the order seat rows
// are laid out in.
func (r *PGCatalogRepository) ClassesByAircraft(ctx context.Context, aircraftID int64) ([]domain.AircraftClass, error) {
	rows, err := r.db.Query(ctx, `SELECT id, aircraft_id, name, n_seats, price_multiplier, active, deactivated_at
		FROM aircraft_classes WHERE aircraft_id=$1 AND active ORDER BY price_multiplier DESC, id`, aircraftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	classes := make([]domain.AircraftClass, 0)
	for rows.Next() {
		var c domain.AircraftClass
		if err := rows.Scan(&c.ID, &c.AircraftID, &c.Name, &c.SeatCount, &c.PriceMultiplier, &c.Active, &c.DeactivatedAt); err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}
	return classes, rows.Err()
}

func (r *PGCatalogRepository) CreateExtra(ctx context.Context, extra *domain.Extra) error {
	extra.Lifecycle = domain.ActiveLifecycle()
	return r.db.QueryRow(ctx, `INSERT INTO extras (airline_id, name, price_cents) VALUES ($1, $2, $3) RETURNING id`,
		extra.AirlineID, extra.Name, extra.PriceCents).Scan(&extra.ID)
}

func (r *PGCatalogRepository) ListExtras(ctx context.Context, airlineID int64) ([]domain.Extra, error) {
	rows, err := r.db.Query(ctx, `SELECT id, airline_id, name, price_cents, active, deactivated_at FROM extras
		WHERE airline_id=$1 AND active ORDER BY id`, airlineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	extras := make([]domain.Extra, 0)
	for rows.Next() {
		var e domain.Extra
		if err := rows.Scan(&e.ID, &e.AirlineID, &e.Name, &e.PriceCents, &e.Active, &e.DeactivatedAt); err != nil {
			return nil, err
		}
		extras = append(extras, e)
	}
	return extras, rows.Err()
}

func (r *PGCatalogRepository) DeleteExtra(ctx context.Context, airlineID, extraID int64) error {
	cmd, err := r.db.Exec(ctx, `UPDATE extras SET active=false, deactivated_at=now()
		WHERE id=$1 AND airline_id=$2 AND active`, extraID, airlineID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrExtraNotFound
	}
	return nil
}

func scanAirports(rows pgx.Rows) ([]domain.Airport, error) {
	airports := make([]domain.Airport, 0)
	for rows.Next() {
		var a domain.Airport
		if err := rows.Scan(&a.ID, &a.Name, &a.Code, &a.City, &a.Country, &a.Active, &a.DeactivatedAt); err != nil {
			return nil, err
		}
		airports = append(airports, a)
	}
	return airports, rows.Err()
}

func scanRoutes(rows pgx.Rows) ([]domain.Route, error) {
	routes := make([]domain.Route, 0)
	for rows.Next() {
		var rt domain.Route
		if err := rows.Scan(&rt.ID, &rt.DepartureAirportID, &rt.ArrivalAirportID); err != nil {
			return nil, err
		}
		routes = append(routes, rt)
	}
	return routes, rows.Err()
}

var _ CatalogRepository = (*PGCatalogRepository)(nil)
