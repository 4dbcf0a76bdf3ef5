package flights

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/mrusso91/aerobook/internal/domain"
	"github.com/mrusso91/aerobook/internal/repository"
)

type FlightUseCase interface {
	Create(ctx context.Context, airlineID int64, input CreateFlightInput) (*domain.Flight, error)
	GetByID(ctx context.Context, id int64) (*domain.Flight, error)
	SeatMap(ctx context.Context, flightID int64) ([]domain.Seat, error)
	Deactivate(ctx context.Context, airlineID, flightID int64) error

	Dashboard(ctx context.Context, airlineID int64) (*domain.Dashboard, error)
	RegisterRoute(ctx context.Context, airlineID, departureAirportID, arrivalAirportID int64) (*domain.Route, error)
	DropRoute(ctx context.Context, airlineID, routeID int64) error

	CreateExtra(ctx context.Context, airlineID int64, name string, priceCents int64) (*domain.Extra, error)
	ListExtras(ctx context.Context, airlineID int64) ([]domain.Extra, error)
	DeleteExtra(ctx context.Context, airlineID, extraID int64) error
}

type Cache interface {
	GetDashboard(ctx context.Context, airlineID int64) (*domain.Dashboard, error)
	SetDashboard(ctx context.Context, airlineID int64, d *domain.Dashboard) error
}

type CreateFlightInput struct {
	RouteID        int64
	AircraftID     int64
	DepartureTime  time.Time
	ArrivalTime    time.Time
	BasePriceCents int64
}

type FlightService struct {
	catalog repository.CatalogRepository
	flights repository.FlightRepository
	cache   Cache
}

func NewFlightService(catalog repository.CatalogRepository, flights repository.FlightRepository, cache Cache) *FlightService {
	return &FlightService{catalog: catalog, flights: flights, cache: cache}
}

// Create inserts the flight together with its generated seat map; the two
// never exist separately.
func (s *FlightService) Create(ctx context.Context, airlineID int64, input CreateFlightInput) (*domain.Flight, error) {
	if !input.ArrivalTime.After(input.DepartureTime) {
		return nil, domain.Validationf("arrival time must be after departure time")
	}
	if input.BasePriceCents <= 0 {
		return nil, domain.Validationf("base price must be positive")
	}

	aircraft, err := s.catalog.GetAircraft(ctx, input.AircraftID)
	if err != nil {
		return nil, err
	}
	if aircraft.AirlineID != airlineID {
		return nil, domain.ErrAircraftNotFound
	}

	classes, err := s.catalog.ClassesByAircraft(ctx, input.AircraftID)
	if err != nil {
		return nil, err
	}
	if len(classes) == 0 {
		return nil, domain.Validationf("aircraft has no seating classes")
	}

	flight := &domain.Flight{
		RouteID:         input.RouteID,
		AircraftID:      input.AircraftID,
		DepartureTime:   input.DepartureTime,
		ArrivalTime:     input.ArrivalTime,
		BasePriceCents:  input.BasePriceCents,
		DurationSeconds: int64(input.ArrivalTime.Sub(input.DepartureTime).Seconds()),
	}
	seats := BuildSeatMap(input.BasePriceCents, classes)

	if err := s.flights.Create(ctx, flight, seats); err != nil {
		return nil, fmt.Errorf("create flight: %w", err)
	}
	return flight, nil
}

// BuildSeatMap lays seats out by descending class price multiplier, cycling
// letters A-F before moving to the next row. Seat price is the base price
// scaled by the class multiplier, rounded to the cent.
func BuildSeatMap(basePriceCents int64, classes []domain.AircraftClass) []domain.Seat {
	ordered := make([]domain.AircraftClass, len(classes))
	copy(ordered, classes)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PriceMultiplier > ordered[j].PriceMultiplier
	})

	seats := make([]domain.Seat, 0)
	row := 1
	letter := byte('A')
	for _, class := range ordered {
		for i := 0; i < class.SeatCount; i++ {
			seats = append(seats, domain.Seat{
				ClassID:    class.ID,
				Number:     fmt.Sprintf("%d%c", row, letter),
				State:      domain.SeatStateAvailable,
				PriceCents: int64(math.Round(float64(basePriceCents) * class.PriceMultiplier)),
			})
			letter++
			if letter == 'G' {
				row++
				letter = 'A'
			}
		}
	}
	return seats
}

func (s *FlightService) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	return s.flights.GetByID(ctx, id)
}

func (s *FlightService) SeatMap(ctx context.Context, flightID int64) ([]domain.Seat, error) {
	if _, err := s.flights.GetByID(ctx, flightID); err != nil {
		return nil, err
	}
	return s.flights.Seats(ctx, flightID)
}

func (s *FlightService) Deactivate(ctx context.Context, airlineID, flightID int64) error {
	owner, err := s.flights.OwningAirline(ctx, flightID)
	if err != nil {
		return err
	}
	if owner != airlineID {
		return domain.ErrFlightNotFound
	}
	return s.flights.Deactivate(ctx, flightID)
}

// Dashboard reads through the cache; staleness inside the TTL is accepted.
func (s *FlightService) Dashboard(ctx context.Context, airlineID int64) (*domain.Dashboard, error) {
	if s.cache != nil {
		if cached, err := s.cache.GetDashboard(ctx, airlineID); err == nil && cached != nil {
			return cached, nil
		}
	}

	stats, err := s.flights.DashboardStats(ctx, airlineID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		_ = s.cache.SetDashboard(ctx, airlineID, stats)
	}
	return stats, nil
}

func (s *FlightService) RegisterRoute(ctx context.Context, airlineID, departureAirportID, arrivalAirportID int64) (*domain.Route, error) {
	if departureAirportID == arrivalAirportID {
		return nil, domain.Validationf("departure and arrival airports must differ")
	}

	route, err := s.catalog.EnsureRoute(ctx, departureAirportID, arrivalAirportID)
	if err != nil {
		return nil, err
	}
	if err := s.catalog.RegisterAirlineRoute(ctx, airlineID, route.ID); err != nil {
		return nil, err
	}
	return route, nil
}

func (s *FlightService) DropRoute(ctx context.Context, airlineID, routeID int64) error {
	return s.catalog.DropAirlineRoute(ctx, airlineID, routeID)
}

func (s *FlightService) CreateExtra(ctx context.Context, airlineID int64, name string, priceCents int64) (*domain.Extra, error) {
	if name == "" {
		return nil, domain.Validationf("extra name is required")
	}
	if priceCents < 0 {
		return nil, domain.Validationf("extra price must be non-negative")
	}

	extra := &domain.Extra{AirlineID: airlineID, Name: name, PriceCents: priceCents}
	if err := s.catalog.CreateExtra(ctx, extra); err != nil {
		return nil, err
	}
	return extra, nil
}

func (s *FlightService) ListExtras(ctx context.Context, airlineID int64) ([]domain.Extra, error) {
	return s.catalog.ListExtras(ctx, airlineID)
}

func (s *FlightService) DeleteExtra(ctx context.Context, airlineID, extraID int64) error {
	return s.catalog.DeleteExtra(ctx, airlineID, extraID)
}

var _ FlightUseCase = (*FlightService)(nil)
