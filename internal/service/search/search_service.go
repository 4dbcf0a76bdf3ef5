package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mrusso91/aerobook/internal/domain"
	"github.com/mrusso91/aerobook/internal/repository"
)

const (
	minConnectionSeconds = 2 * 3600
	maxConnectionSeconds = 12 * 3600
)

const (
	SortDepartureTime = "departure_time"
	SortArrivalTime   = "arrival_time"
	SortPrice         = "price"
	SortDuration      = "duration"

	OrderAsc  = "asc"
	OrderDesc = "desc"
)

type SearchUseCase interface {
	Search(ctx context.Context, params Params) (*Result, error)
	SuggestLocations(ctx context.Context, query string) ([]domain.Airport, error)
	ListCities(ctx context.Context) ([]string, error)
}

// Params describe one itinerary search. Origin and Destination accept an
// airport code or a city name; either may resolve to several airports.
type Params struct {
	Origin        string
	Destination   string
	DepartureDate string
	AllowLayovers bool
	MaxPriceCents int64
	SortBy        string
	Order         string
	Page          int
	Limit         int
}

type Result struct {
	Journeys   []domain.Journey
	TotalPages int
}

type SearchService struct {
	catalog         repository.CatalogRepository
	flights         repository.FlightRepository
	defaultMaxPrice int64
	defaultPageSize int
}

func NewSearchService(catalog repository.CatalogRepository, flights repository.FlightRepository, defaultMaxPrice int64, defaultPageSize int) *SearchService {
	return &SearchService{
		catalog:         catalog,
		flights:         flights,
		defaultMaxPrice: defaultMaxPrice,
		defaultPageSize: defaultPageSize,
	}
}

func (s *SearchService) Search(ctx context.Context, params Params) (*Result, error) {
	if params.Origin == "" || params.Destination == "" {
		return nil, domain.Validationf("origin and destination are required")
	}
	if params.DepartureDate == "" {
		return nil, domain.Validationf("departure date is required")
	}
	day, err := time.ParseInLocation("2006-01-02", params.DepartureDate, time.UTC)
	if err != nil {
		return nil, domain.Validationf("departure date must be YYYY-MM-DD")
	}

	origins, err := s.catalog.ResolveAirports(ctx, params.Origin)
	if err != nil {
		return nil, err
	}
	if len(origins) == 0 {
		return nil, fmt.Errorf("departure %q: %w", params.Origin, domain.ErrAirportNotFound)
	}
	destinations, err := s.catalog.ResolveAirports(ctx, params.Destination)
	if err != nil {
		return nil, err
	}
	if len(destinations) == 0 {
		return nil, fmt.Errorf("arrival %q: %w", params.Destination, domain.ErrAirportNotFound)
	}

	maxPrice := params.MaxPriceCents
	if maxPrice <= 0 {
		maxPrice = s.defaultMaxPrice
	}
	limit := params.Limit
	if limit <= 0 {
		limit = s.defaultPageSize
	}
	page := params.Page
	if page <= 0 {
		page = 1
	}

	dayStart := day
	dayEnd := day.AddDate(0, 0, 1)
	originIDs := airportIDs(origins)
	destinationIDs := airportIDs(destinations)

	journeys, err := s.directJourneys(ctx, originIDs, destinationIDs, dayStart, dayEnd, maxPrice)
	if err != nil {
		return nil, err
	}

	if params.AllowLayovers {
		layovers, err := s.layoverJourneys(ctx, originIDs, destinationIDs, dayStart, dayEnd, maxPrice)
		if err != nil {
			return nil, err
		}
		journeys = append(journeys, layovers...)
	}

	if len(journeys) == 0 {
		return &Result{Journeys: []domain.Journey{}, TotalPages: 0}, nil
	}

	sortJourneys(journeys, params.SortBy, params.Order)

	totalPages := (len(journeys) + limit - 1) / limit
	offset := (page - 1) * limit
	if offset >= len(journeys) {
		return &Result{Journeys: []domain.Journey{}, TotalPages: totalPages}, nil
	}
	end := offset + limit
	if end > len(journeys) {
		end = len(journeys)
	}

	return &Result{Journeys: journeys[offset:end], TotalPages: totalPages}, nil
}

// directJourneys applies the strict price filter: a flight priced exactly at
// the cap is excluded.
func (s *SearchService) directJourneys(ctx context.Context, originIDs, destinationIDs []int64, dayStart, dayEnd time.Time, maxPrice int64) ([]domain.Journey, error) {
	routes, err := s.catalog.DirectRoutes(ctx, originIDs, destinationIDs)
	if err != nil {
		return nil, err
	}

	journeys := make([]domain.Journey, 0)
	if len(routes) == 0 {
		return journeys, nil
	}

	flights, err := s.flights.ListByRoutesOnDay(ctx, routeIDs(routes), dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	for _, flight := range flights {
		if flight.BasePriceCents >= maxPrice {
			continue
		}
		journeys = append(journeys, domain.Journey{
			FirstFlight:        flight,
			TotalDurationHours: flight.DurationSeconds / 3600,
			TotalPriceCents:    flight.BasePriceCents,
		})
	}
	return journeys, nil
}

// layoverJourneys composes two-leg itineraries through one intermediate
// airport. The connection window is inclusive on both ends, and the combined
// price filter is inclusive, unlike the direct one.
func (s *SearchService) layoverJourneys(ctx context.Context, originIDs, destinationIDs []int64, dayStart, dayEnd time.Time, maxPrice int64) ([]domain.Journey, error) {
	departureRoutes, err := s.catalog.DepartureRoutes(ctx, originIDs, destinationIDs)
	if err != nil {
		return nil, err
	}
	arrivalRoutes, err := s.catalog.ArrivalRoutes(ctx, destinationIDs, originIDs)
	if err != nil {
		return nil, err
	}

	journeys := make([]domain.Journey, 0)
	if len(departureRoutes) == 0 || len(arrivalRoutes) == 0 {
		return journeys, nil
	}

	firstLegs, err := s.flightsByRoute(ctx, departureRoutes, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}
	secondLegs, err := s.flightsByRoute(ctx, arrivalRoutes, dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	for _, depRoute := range departureRoutes {
		for _, arrRoute := range arrivalRoutes {
			if depRoute.ArrivalAirportID != arrRoute.DepartureAirportID {
				continue
			}
			for _, first := range firstLegs[depRoute.ID] {
				for _, second := range secondLegs[arrRoute.ID] {
					connection := int64(second.DepartureTime.Sub(first.ArrivalTime).Seconds())
					if connection < minConnectionSeconds || connection > maxConnectionSeconds {
						continue
					}
					totalPrice := first.BasePriceCents + second.BasePriceCents
					if totalPrice > maxPrice {
						continue
					}
					secondLeg := second
					journeys = append(journeys, domain.Journey{
						FirstFlight:        first,
						SecondFlight:       &secondLeg,
						TotalDurationHours: int64(secondLeg.ArrivalTime.Sub(first.DepartureTime).Seconds()) / 3600,
						TotalPriceCents:    totalPrice,
					})
				}
			}
		}
	}
	return journeys, nil
}

func (s *SearchService) flightsByRoute(ctx context.Context, routes []domain.Route, dayStart, dayEnd time.Time) (map[int64][]domain.Flight, error) {
	flights, err := s.flights.ListByRoutesOnDay(ctx, routeIDs(routes), dayStart, dayEnd)
	if err != nil {
		return nil, err
	}

	byRoute := make(map[int64][]domain.Flight, len(routes))
	for _, flight := range flights {
		byRoute[flight.RouteID] = append(byRoute[flight.RouteID], flight)
	}
	return byRoute, nil
}

func (s *SearchService) SuggestLocations(ctx context.Context, query string) ([]domain.Airport, error) {
	if query == "" {
		return []domain.Airport{}, nil
	}
	return s.catalog.SuggestLocations(ctx, query)
}

func (s *SearchService) ListCities(ctx context.Context) ([]string, error) {
	return s.catalog.ListCities(ctx)
}

// sortJourneys keeps the sort stable so ties preserve production order. An
// unknown sort key leaves the slice untouched.
func sortJourneys(journeys []domain.Journey, sortBy, order string) {
	var less func(a, b domain.Journey) bool
	switch sortBy {
	case SortDepartureTime:
		less = func(a, b domain.Journey) bool { return a.DepartureTime().Before(b.DepartureTime()) }
	case SortArrivalTime:
		less = func(a, b domain.Journey) bool { return a.ArrivalTime().Before(b.ArrivalTime()) }
	case SortPrice:
		less = func(a, b domain.Journey) bool { return a.TotalPriceCents < b.TotalPriceCents }
	case SortDuration:
		less = func(a, b domain.Journey) bool { return a.TotalDurationHours < b.TotalDurationHours }
	default:
		return
	}

	if order == OrderDesc {
		inner := less
		less = func(a, b domain.Journey) bool { return inner(b, a) }
	}

	sort.SliceStable(journeys, func(i, j int) bool { return less(journeys[i], journeys[j]) })
}

func airportIDs(airports []domain.Airport) []int64 {
	ids := make([]int64, 0, len(airports))
	for _, a := range airports {
		ids = append(ids, a.ID)
	}
	return ids
}

func routeIDs(routes []domain.Route) []int64 {
	ids := make([]int64, 0, len(routes))
	for _, r := range routes {
		ids = append(ids, r.ID)
	}
	return ids
}

var _ SearchUseCase = (*SearchService)(nil)
