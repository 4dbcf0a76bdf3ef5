package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mrusso91/aerobook/internal/auth"
	"github.com/mrusso91/aerobook/internal/domain"
	"github.com/mrusso91/aerobook/internal/service/booking"
	"github.com/mrusso91/aerobook/internal/service/flights"
	"github.com/mrusso91/aerobook/internal/service/search"
)

const flightTimeLayout = "2006-01-02 15:04"

type FlightHandler struct {
	search  search.SearchUseCase
	flights flights.FlightUseCase
	booking booking.BookingUseCase
}

func NewFlightHandler(searchSvc search.SearchUseCase, flightSvc flights.FlightUseCase, bookingSvc booking.BookingUseCase) *FlightHandler {
	return &FlightHandler{search: searchSvc, flights: flightSvc, booking: bookingSvc}
}

func (h *FlightHandler) Register(router *gin.RouterGroup, secret string) {
	router.GET("/search", h.searchFlights)
	router.GET("/:id", h.get)
	router.GET("/:id/seats", h.seats)
	router.POST("/", auth.RequireRoles(secret, auth.RoleAirline), h.create)
	router.DELETE("/:id", auth.RequireRoles(secret, auth.RoleAirline), h.deactivate)
	router.POST("/:id/seats/:number/hold", auth.RequireRoles(secret, auth.RolePassenger), h.holdSeat)
	router.POST("/:id/seats/:number/release", auth.RequireRoles(secret, auth.RoleAdmin), h.releaseSeat)
}

type flightResponse struct {
	ID              int64  `json:"id"`
	RouteID         int64  `json:"route_id"`
	AircraftID      int64  `json:"aircraft_id"`
	DepartureTime   string `json:"departure_time"`
	ArrivalTime     string `json:"arrival_time"`
	BasePriceCents  int64  `json:"base_price_cents"`
	DurationSeconds int64  `json:"duration_seconds"`
}

type journeyResponse struct {
	FirstFlight        flightResponse  `json:"first_flight"`
	SecondFlight       *flightResponse `json:"second_flight,omitempty"`
	TotalDurationHours int64           `json:"total_duration_hours"`
	TotalPriceCents    int64           `json:"total_price_cents"`
}

type searchResponse struct {
	Message    string            `json:"message"`
	Flights    []journeyResponse `json:"flights"`
	TotalPages int               `json:"total_pages"`
}

func (h *FlightHandler) searchFlights(c *gin.Context) {
	layovers := c.DefaultQuery("layovers", "1") != "0"

	params := search.Params{
		Origin:        c.Query("from"),
		Destination:   c.Query("to"),
		DepartureDate: c.Query("departure_date"),
		AllowLayovers: layovers,
		MaxPriceCents: queryInt64(c, "max_price", 0),
		SortBy:        c.DefaultQuery("sort_by", search.SortDepartureTime),
		Order:         c.DefaultQuery("order", search.OrderAsc),
		Page:          int(queryInt64(c, "page", 1)),
		Limit:         int(queryInt64(c, "limit", 0)),
	}

	result, err := h.search.Search(c.Request.Context(), params)
	if err != nil {
		writeError(c, err)
		return
	}

	journeys := make([]journeyResponse, 0, len(result.Journeys))
	for _, j := range result.Journeys {
		journeys = append(journeys, toJourneyResponse(j))
	}
	c.JSON(http.StatusOK, searchResponse{
		Message:    "flights retrieved successfully",
		Flights:    journeys,
		TotalPages: result.TotalPages,
	})
}

func (h *FlightHandler) get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	flight, err := h.flights.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toFlightResponse(*flight))
}

type seatResponse struct {
	ID         int64  `json:"id"`
	Number     string `json:"number"`
	ClassID    int64  `json:"class_id"`
	State      string `json:"state"`
	PriceCents int64  `json:"price_cents"`
}

func (h *FlightHandler) seats(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	seats, err := h.flights.SeatMap(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]seatResponse, 0, len(seats))
	for _, s := range seats {
		resp = append(resp, seatResponse{
			ID:         s.ID,
			Number:     s.Number,
			ClassID:    s.ClassID,
			State:      string(s.State),
			PriceCents: s.PriceCents,
		})
	}
	c.JSON(http.StatusOK, gin.H{"seats": resp})
}

type createFlightRequest struct {
	RouteID        int64  `json:"route_id"`
	AircraftID     int64  `json:"aircraft_id"`
	DepartureTime  string `json:"departure_time"`
	ArrivalTime    string `json:"arrival_time"`
	BasePriceCents int64  `json:"base_price_cents"`
}

func (h *FlightHandler) create(c *gin.Context) {
	var req createFlightRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	departure, err := time.ParseInLocation(flightTimeLayout, req.DepartureTime, time.UTC)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "departure_time must be YYYY-MM-DD HH:MM"})
		return
	}
	arrival, err := time.ParseInLocation(flightTimeLayout, req.ArrivalTime, time.UTC)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "arrival_time must be YYYY-MM-DD HH:MM"})
		return
	}

	flight, err := h.flights.Create(c.Request.Context(), auth.PrincipalID(c), flights.CreateFlightInput{
		RouteID:        req.RouteID,
		AircraftID:     req.AircraftID,
		DepartureTime:  departure,
		ArrivalTime:    arrival,
		BasePriceCents: req.BasePriceCents,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toFlightResponse(*flight))
}

func (h *FlightHandler) deactivate(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.flights.Deactivate(c.Request.Context(), auth.PrincipalID(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "flight deactivated"})
}

func (h *FlightHandler) holdSeat(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.booking.HoldSeat(c.Request.Context(), id, c.Param("number")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "seat held"})
}

func (h *FlightHandler) releaseSeat(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.booking.ReleaseSeat(c.Request.Context(), id, c.Param("number")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "seat released"})
}

func toFlightResponse(f domain.Flight) flightResponse {
	return flightResponse{
		ID:              f.ID,
		RouteID:         f.RouteID,
		AircraftID:      f.AircraftID,
		DepartureTime:   f.DepartureTime.Format(time.RFC3339),
		ArrivalTime:     f.ArrivalTime.Format(time.RFC3339),
		BasePriceCents:  f.BasePriceCents,
		DurationSeconds: f.DurationSeconds,
	}
}

func toJourneyResponse(j domain.Journey) journeyResponse {
	resp := journeyResponse{
		FirstFlight:        toFlightResponse(j.FirstFlight),
		TotalDurationHours: j.TotalDurationHours,
		TotalPriceCents:    j.TotalPriceCents,
	}
	if j.SecondFlight != nil {
		second := toFlightResponse(*j.SecondFlight)
		resp.SecondFlight = &second
	}
	return resp
}

func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}

func queryInt64(c *gin.Context, name string, fallback int64) int64 {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fallback
	}
	return v
}
