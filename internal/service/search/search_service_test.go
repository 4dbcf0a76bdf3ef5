package search

import (
	"context"
	"testing"
	"time"

	"github.com/mrusso91/aerobook/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockCatalogRepository struct {
	mock.Mock
}

func (m *MockCatalogRepository) ResolveAirports(ctx context.Context, query string) ([]domain.Airport, error) {
	args := m.Called(ctx, query)
	return args.Get(0).([]domain.Airport), args.Error(1)
}

func (m *MockCatalogRepository) SuggestLocations(ctx context.Context, query string) ([]domain.Airport, error) {
	args := m.Called(ctx, query)
	return args.Get(0).([]domain.Airport), args.Error(1)
}

func (m *MockCatalogRepository) ListCities(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockCatalogRepository) DirectRoutes(ctx context.Context, departureAirportIDs, arrivalAirportIDs []int64) ([]domain.Route, error) {
	args := m.Called(ctx, departureAirportIDs, arrivalAirportIDs)
	return args.Get(0).([]domain.Route), args.Error(1)
}

func (m *MockCatalogRepository) DepartureRoutes(ctx context.Context, departureAirportIDs, excludedArrivalIDs []int64) ([]domain.Route, error) {
	args := m.Called(ctx, departureAirportIDs, excludedArrivalIDs)
	return args.Get(0).([]domain.Route), args.Error(1)
}

func (m *MockCatalogRepository) ArrivalRoutes(ctx context.Context, arrivalAirportIDs, excludedDepartureIDs []int64) ([]domain.Route, error) {
	args := m.Called(ctx, arrivalAirportIDs, excludedDepartureIDs)
	return args.Get(0).([]domain.Route), args.Error(1)
}

func (m *MockCatalogRepository) EnsureRoute(ctx context.Context, departureAirportID, arrivalAirportID int64) (*domain.Route, error) {
	args := m.Called(ctx, departureAirportID, arrivalAirportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Route), args.Error(1)
}

func (m *MockCatalogRepository) RegisterAirlineRoute(ctx context.Context, airlineID, routeID int64) error {
	args := m.Called(ctx, airlineID, routeID)
	return args.Error(0)
}

func (m *MockCatalogRepository) DropAirlineRoute(ctx context.Context, airlineID, routeID int64) error {
	args := m.Called(ctx, airlineID, routeID)
	return args.Error(0)
}

func (m *MockCatalogRepository) GetAircraft(ctx context.Context, id int64) (*domain.Aircraft, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Aircraft), args.Error(1)
}

func (m *MockCatalogRepository) ClassesByAircraft(ctx context.Context, aircraftID int64) ([]domain.AircraftClass, error) {
	args := m.Called(ctx, aircraftID)
	return args.Get(0).([]domain.AircraftClass), args.Error(1)
}

func (m *MockCatalogRepository) CreateExtra(ctx context.Context, extra *domain.Extra) error {
	args := m.Called(ctx, extra)
	return args.Error(0)
}

func (m *MockCatalogRepository) ListExtras(ctx context.Context, airlineID int64) ([]domain.Extra, error) {
	args := m.Called(ctx, airlineID)
	return args.Get(0).([]domain.Extra), args.Error(1)
}

func (m *MockCatalogRepository) DeleteExtra(ctx context.Context, airlineID, extraID int64) error {
	args := m.Called(ctx, airlineID, extraID)
	return args.Error(0)
}

type MockFlightRepository struct {
	mock.Mock
}

func (m *MockFlightRepository) Create(ctx context.Context, flight *domain.Flight, seats []domain.Seat) error {
	args := m.Called(ctx, flight, seats)
	return args.Error(0)
}

func (m *MockFlightRepository) GetByID(ctx context.Context, id int64) (*domain.Flight, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) ListByRoutesOnDay(ctx context.Context, routeIDs []int64, dayStart, dayEnd time.Time) ([]domain.Flight, error) {
	args := m.Called(ctx, routeIDs, dayStart, dayEnd)
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockFlightRepository) Deactivate(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockFlightRepository) OwningAirline(ctx context.Context, flightID int64) (int64, error) {
	args := m.Called(ctx, flightID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFlightRepository) Seats(ctx context.Context, flightID int64) ([]domain.Seat, error) {
	args := m.Called(ctx, flightID)
	return args.Get(0).([]domain.Seat), args.Error(1)
}

func (m *MockFlightRepository) ReserveSeat(ctx context.Context, flightID int64, number string) error {
	args := m.Called(ctx, flightID, number)
	return args.Error(0)
}

func (m *MockFlightRepository) ReleaseSeat(ctx context.Context, flightID int64, number string) error {
	args := m.Called(ctx, flightID, number)
	return args.Error(0)
}

func (m *MockFlightRepository) ExpireStaleReservations(ctx context.Context, olderThan time.Time) (int64, error) {
	args := m.Called(ctx, olderThan)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockFlightRepository) DashboardStats(ctx context.Context, airlineID int64, now time.Time) (*domain.Dashboard, error) {
	args := m.Called(ctx, airlineID, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Dashboard), args.Error(1)
}

func newTestService(catalog *MockCatalogRepository, flights *MockFlightRepository) *SearchService {
	return &SearchService{
		catalog:         catalog,
		flights:         flights,
		defaultMaxPrice: 200000,
		defaultPageSize: 10,
	}
}

func directFlight(id int64, departure time.Time, durationHours int64, priceCents int64) domain.Flight {
	return domain.Flight{
		ID:              id,
		RouteID:         1,
		DepartureTime:   departure,
		ArrivalTime:     departure.Add(time.Duration(durationHours) * time.Hour),
		BasePriceCents:  priceCents,
		DurationSeconds: durationHours * 3600,
	}
}

var searchDay = time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

func directParams() Params {
	return Params{
		Origin:        "JFK",
		Destination:   "LAX",
		DepartureDate: "2026-09-01",
		AllowLayovers: false,
		SortBy:        SortDepartureTime,
		Order:         OrderAsc,
	}
}

func expectAirports(catalog *MockCatalogRepository, ctx context.Context) {
	catalog.On("ResolveAirports", ctx, "JFK").Return([]domain.Airport{{ID: 1, Code: "JFK"}}, nil).Once()
	catalog.On("ResolveAirports", ctx, "LAX").Return([]domain.Airport{{ID: 2, Code: "LAX"}}, nil).Once()
}

func TestSearchService_Search_MissingDate(t *testing.T) {
	service := newTestService(&MockCatalogRepository{}, &MockFlightRepository{})

	params := directParams()
	params.DepartureDate = ""

	result, err := service.Search(context.Background(), params)

	assert.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSearchService_Search_UnknownAirport(t *testing.T) {
	mockCatalog := &MockCatalogRepository{}
	service := newTestService(mockCatalog, &MockFlightRepository{})

	ctx := context.Background()
	mockCatalog.On("ResolveAirports", ctx, "JFK").Return([]domain.Airport{}, nil).Once()

	params := directParams()
	result, err := service.Search(ctx, params)

	assert.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, domain.ErrAirportNotFound)
	mockCatalog.AssertExpectations(t)
}

func TestSearchService_Search_NoRoutesIsEmptyResult(t *testing.T) {
	mockCatalog := &MockCatalogRepository{}
	mockFlights := &MockFlightRepository{}
	service := newTestService(mockCatalog, mockFlights)

	ctx := context.Background()
	expectAirports(mockCatalog, ctx)
	mockCatalog.On("DirectRoutes", ctx, []int64{1}, []int64{2}).Return([]domain.Route{}, nil).Once()

	result, err := service.Search(ctx, directParams())

	assert.NoError(t, err)
	assert.Empty(t, result.Journeys)
	assert.Equal(t, 0, result.TotalPages)
	mockFlights.AssertNotCalled(t, "ListByRoutesOnDay")
}

// A direct flight priced exactly at the cap is excluded; one cent below it is
// kept.
func TestSearchService_Search_DirectPriceCapIsStrict(t *testing.T) {
	mockCatalog := &MockCatalogRepository{}
	mockFlights := &MockFlightRepository{}
	service := newTestService(mockCatalog, mockFlights)

	ctx := context.Background()
	expectAirports(mockCatalog, ctx)
	mockCatalog.On("DirectRoutes", ctx, []int64{1}, []int64{2}).Return([]domain.Route{{ID: 1, DepartureAirportID: 1, ArrivalAirportID: 2}}, nil).Once()

	flights := []domain.Flight{
		directFlight(1, searchDay.Add(8*time.Hour), 6, 50000),
		directFlight(2, searchDay.Add(9*time.Hour), 6, 49999),
	}
	mockFlights.On("ListByRoutesOnDay", ctx, []int64{1}, searchDay, searchDay.AddDate(0, 0, 1)).Return(flights, nil).Once()

	params := directParams()
	params.MaxPriceCents = 50000
	result, err := service.Search(ctx, params)

	assert.NoError(t, err)
	assert.Len(t, result.Journeys, 1)
	assert.Equal(t, int64(2), result.Journeys[0].FirstFlight.ID)
	assert.Equal(t, int64(49999), result.Journeys[0].TotalPriceCents)
}

func TestSearchService_Search_DirectDurationIsWholeHours(t *testing.T) {
	mockCatalog := &MockCatalogRepository{}
	mockFlights := &MockFlightRepository{}
	service := newTestService(mockCatalog, mockFlights)

	ctx := context.Background()
	expectAirports(mockCatalog, ctx)
	mockCatalog.On("DirectRoutes", ctx, []int64{1}, []int64{2}).Return([]domain.Route{{ID: 1}}, nil).Once()

	// 5h59m truncates to 5 hours.
	flight := domain.Flight{
		ID:              1,
		RouteID:         1,
		DepartureTime:   searchDay.Add(8 * time.Hour),
		ArrivalTime:     searchDay.Add(8*time.Hour + 5*time.Hour + 59*time.Minute),
		BasePriceCents:  40000,
		DurationSeconds: 5*3600 + 59*60,
	}
	mockFlights.On("ListByRoutesOnDay", ctx, []int64{1}, searchDay, searchDay.AddDate(0, 0, 1)).Return([]domain.Flight{flight}, nil).Once()

	result, err := service.Search(ctx, directParams())

	assert.NoError(t, err)
	assert.Len(t, result.Journeys, 1)
	assert.Equal(t, int64(5), result.Journeys[0].TotalDurationHours)
}

func layoverFixture(t *testing.T, connection time.Duration, firstPrice, secondPrice int64) (*MockCatalogRepository, *MockFlightRepository, context.Context) {
	t.Helper()

	mockCatalog := &MockCatalogRepository{}
	mockFlights := &MockFlightRepository{}
	ctx := context.Background()

	expectAirports(mockCatalog, ctx)
	mockCatalog.On("DirectRoutes", ctx, []int64{1}, []int64{2}).Return([]domain.Route{}, nil).Once()
	// Leg 1 goes origin -> hub (airport 9), leg 2 goes hub -> destination.
	mockCatalog.On("DepartureRoutes", ctx, []int64{1}, []int64{2}).Return([]domain.Route{{ID: 10, DepartureAirportID: 1, ArrivalAirportID: 9}}, nil).Once()
	mockCatalog.On("ArrivalRoutes", ctx, []int64{2}, []int64{1}).Return([]domain.Route{{ID: 20, DepartureAirportID: 9, ArrivalAirportID: 2}}, nil).Once()

	firstArrival := searchDay.Add(10 * time.Hour)
	first := domain.Flight{
		ID:              1,
		RouteID:         10,
		DepartureTime:   searchDay.Add(8 * time.Hour),
		ArrivalTime:     firstArrival,
		BasePriceCents:  firstPrice,
		DurationSeconds: 2 * 3600,
	}
	second := domain.Flight{
		ID:              2,
		RouteID:         20,
		DepartureTime:   firstArrival.Add(connection),
		ArrivalTime:     firstArrival.Add(connection + 3*time.Hour),
		BasePriceCents:  secondPrice,
		DurationSeconds: 3 * 3600,
	}
	mockFlights.On("ListByRoutesOnDay", ctx, []int64{10}, searchDay, searchDay.AddDate(0, 0, 1)).Return([]domain.Flight{first}, nil).Once()
	mockFlights.On("ListByRoutesOnDay", ctx, []int64{20}, searchDay, searchDay.AddDate(0, 0, 1)).Return([]domain.Flight{second}, nil).Once()

	return mockCatalog, mockFlights, ctx
}

func TestSearchService_Search_ConnectionWindowBounds(t *testing.T) {
	testCases := []struct {
		name       string
		connection time.Duration
		expected   int
	}{
		{name: "exactly two hours is allowed", connection: 2 * time.Hour, expected: 1},
		{name: "exactly twelve hours is allowed", connection: 12 * time.Hour, expected: 1},
		{name: "just under two hours is rejected", connection: 2*time.Hour - time.Second, expected: 0},
		{name: "just over twelve hours is rejected", connection: 12*time.Hour + time.Second, expected: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mockCatalog, mockFlights, ctx := layoverFixture(t, tc.connection, 30000, 30000)
			service := newTestService(mockCatalog, mockFlights)

			params := directParams()
			params.AllowLayovers = true
			result, err := service.Search(ctx, params)

			assert.NoError(t, err)
			assert.Len(t, result.Journeys, tc.expected)
		})
	}
}

// The combined layover price cap is inclusive, unlike the direct one.
func TestSearchService_Search_LayoverPriceCapIsInclusive(t *testing.T) {
	mockCatalog, mockFlights, ctx := layoverFixture(t, 3*time.Hour, 25000, 25000)
	service := newTestService(mockCatalog, mockFlights)

	params := directParams()
	params.AllowLayovers = true
	params.MaxPriceCents = 50000
	result, err := service.Search(ctx, params)

	assert.NoError(t, err)
	assert.Len(t, result.Journeys, 1)
	assert.Equal(t, int64(50000), result.Journeys[0].TotalPriceCents)
	assert.NotNil(t, result.Journeys[0].SecondFlight)
}

func TestSearchService_Search_LayoverDurationSpansBothLegs(t *testing.T) {
	mockCatalog, mockFlights, ctx := layoverFixture(t, 3*time.Hour, 25000, 25000)
	service := newTestService(mockCatalog, mockFlights)

	params := directParams()
	params.AllowLayovers = true
	result, err := service.Search(ctx, params)

	assert.NoError(t, err)
	assert.Len(t, result.Journeys, 1)
	// 2h leg + 3h connection + 3h leg.
	assert.Equal(t, int64(8), result.Journeys[0].TotalDurationHours)
}

func TestSearchService_Search_Pagination(t *testing.T) {
	buildFixture := func(ctx context.Context) (*MockCatalogRepository, *MockFlightRepository) {
		mockCatalog := &MockCatalogRepository{}
		mockFlights := &MockFlightRepository{}
		expectAirports(mockCatalog, ctx)
		mockCatalog.On("DirectRoutes", ctx, []int64{1}, []int64{2}).Return([]domain.Route{{ID: 1}}, nil).Once()

		flights := make([]domain.Flight, 0, 25)
		for i := 0; i < 25; i++ {
			flights = append(flights, directFlight(int64(i+1), searchDay.Add(time.Duration(i)*30*time.Minute), 5, 40000))
		}
		mockFlights.On("ListByRoutesOnDay", ctx, []int64{1}, searchDay, searchDay.AddDate(0, 0, 1)).Return(flights, nil).Once()
		return mockCatalog, mockFlights
	}

	ctx := context.Background()

	mockCatalog, mockFlights := buildFixture(ctx)
	service := newTestService(mockCatalog, mockFlights)
	params := directParams()
	params.Page = 3
	result, err := service.Search(ctx, params)

	assert.NoError(t, err)
	assert.Len(t, result.Journeys, 5)
	assert.Equal(t, 3, result.TotalPages)

	// A page past the end still reports the real page count.
	mockCatalog, mockFlights = buildFixture(ctx)
	service = newTestService(mockCatalog, mockFlights)
	params.Page = 4
	result, err = service.Search(ctx, params)

	assert.NoError(t, err)
	assert.Empty(t, result.Journeys)
	assert.Equal(t, 3, result.TotalPages)
}

func TestSearchService_Search_SortByPriceDesc(t *testing.T) {
	mockCatalog := &MockCatalogRepository{}
	mockFlights := &MockFlightRepository{}
	service := newTestService(mockCatalog, mockFlights)

	ctx := context.Background()
	expectAirports(mockCatalog, ctx)
	mockCatalog.On("DirectRoutes", ctx, []int64{1}, []int64{2}).Return([]domain.Route{{ID: 1}}, nil).Once()

	flights := []domain.Flight{
		directFlight(1, searchDay.Add(8*time.Hour), 5, 30000),
		directFlight(2, searchDay.Add(9*time.Hour), 5, 50000),
		directFlight(3, searchDay.Add(10*time.Hour), 5, 40000),
	}
	mockFlights.On("ListByRoutesOnDay", ctx, []int64{1}, searchDay, searchDay.AddDate(0, 0, 1)).Return(flights, nil).Once()

	params := directParams()
	params.SortBy = SortPrice
	params.Order = OrderDesc
	result, err := service.Search(ctx, params)

	assert.NoError(t, err)
	assert.Len(t, result.Journeys, 3)
	assert.Equal(t, int64(50000), result.Journeys[0].TotalPriceCents)
	assert.Equal(t, int64(40000), result.Journeys[1].TotalPriceCents)
	assert.Equal(t, int64(30000), result.Journeys[2].TotalPriceCents)
}

// Sorting by arrival time must use the final leg of a layover journey, not
// the first.
func TestSortJourneys_ArrivalTimeUsesLastLeg(t *testing.T) {
	direct := domain.Journey{
		FirstFlight: domain.Flight{
			ID:            1,
			DepartureTime: searchDay.Add(8 * time.Hour),
			ArrivalTime:   searchDay.Add(14 * time.Hour),
		},
		TotalPriceCents: 40000,
	}
	secondLeg := domain.Flight{
		ID:            3,
		DepartureTime: searchDay.Add(11 * time.Hour),
		ArrivalTime:   searchDay.Add(16 * time.Hour),
	}
	layover := domain.Journey{
		FirstFlight: domain.Flight{
			ID:            2,
			DepartureTime: searchDay.Add(6 * time.Hour),
			ArrivalTime:   searchDay.Add(8 * time.Hour),
		},
		SecondFlight:    &secondLeg,
		TotalPriceCents: 30000,
	}

	journeys := []domain.Journey{layover, direct}
	sortJourneys(journeys, SortArrivalTime, OrderAsc)

	assert.Equal(t, int64(1), journeys[0].FirstFlight.ID)
	assert.Equal(t, int64(2), journeys[1].FirstFlight.ID)
}

func TestSortJourneys_UnknownKeyLeavesOrder(t *testing.T) {
	journeys := []domain.Journey{
		{TotalPriceCents: 50000},
		{TotalPriceCents: 10000},
	}
	sortJourneys(journeys, "altitude", OrderAsc)

	assert.Equal(t, int64(50000), journeys[0].TotalPriceCents)
	assert.Equal(t, int64(10000), journeys[1].TotalPriceCents)
}

func TestSearchService_SuggestLocations_EmptyQuery(t *testing.T) {
	mockCatalog := &MockCatalogRepository{}
	service := newTestService(mockCatalog, &MockFlightRepository{})

	airports, err := service.SuggestLocations(context.Background(), "")

	assert.NoError(t, err)
	assert.Empty(t, airports)
	mockCatalog.AssertNotCalled(t, "SuggestLocations")
}
