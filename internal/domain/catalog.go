package domain

type Airport struct {
	ID      int64
	Name    string
	Code    string
	City    string
	Country string
	Lifecycle
}

// Route is airline-agnostic: airlines flying the same airport pair share one
// row and mark it theirs through AirlineRoute.
type Route struct {
	ID                 int64
	DepartureAirportID int64
	ArrivalAirportID   int64
}

type AirlineRoute struct {
	AirlineID int64
	RouteID   int64
	Lifecycle
}

type Aircraft struct {
	ID         int64
	AirlineID  int64
	Model      string
	TotalSeats int
	Lifecycle
}

type AircraftClass struct {
	ID              int64
	AircraftID      int64
	Name            string
	SeatCount       int
	PriceMultiplier float64
	Lifecycle
}

type Extra struct {
	ID         int64
	AirlineID  int64
	Name       string
	PriceCents int64
	Lifecycle
}

// Dashboard holds the advisory per-airline aggregate counters served through
// the cache layer.
type Dashboard struct {
	PassengerCount     int64 `json:"passenger_count"`
	MonthlyIncomeCents int64 `json:"monthly_income_cents"`
	ActiveRoutes       int64 `json:"active_routes"`
	FlightsInProgress  int64 `json:"flights_in_progress"`
}
