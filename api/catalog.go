package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mrusso91/aerobook/internal/auth"
	"github.com/mrusso91/aerobook/internal/service/flights"
	"github.com/mrusso91/aerobook/internal/service/search"
)

type CatalogHandler struct {
	search  search.SearchUseCase
	flights flights.FlightUseCase
}

func NewCatalogHandler(searchSvc search.SearchUseCase, flightSvc flights.FlightUseCase) *CatalogHandler {
	return &CatalogHandler{search: searchSvc, flights: flightSvc}
}

func (h *CatalogHandler) Register(router *gin.RouterGroup, secret string) {
	router.GET("/locations", h.suggestLocations)
	router.GET("/cities", h.listCities)

	airline := router.Group("/airline", auth.RequireRoles(secret, auth.RoleAirline))
	airline.GET("/dashboard", h.dashboard)
	airline.POST("/routes", h.registerRoute)
	airline.DELETE("/routes/:id", h.dropRoute)
	airline.POST("/extras", h.createExtra)
	airline.GET("/extras", h.listExtras)
	airline.DELETE("/extras/:id", h.deleteExtra)
}

type airportResponse struct {
	ID      int64  `json:"id"`
	Code    string `json:"code"`
	Name    string `json:"name"`
	City    string `json:"city"`
	Country string `json:"country"`
}

func (h *CatalogHandler) suggestLocations(c *gin.Context) {
	airports, err := h.search.SuggestLocations(c.Request.Context(), c.Query("query"))
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]airportResponse, 0, len(airports))
	for _, a := range airports {
		resp = append(resp, airportResponse{
			ID:      a.ID,
			Code:    a.Code,
			Name:    a.Name,
			City:    a.City,
			Country: a.Country,
		})
	}
	c.JSON(http.StatusOK, gin.H{"locations": resp})
}

func (h *CatalogHandler) listCities(c *gin.Context) {
	cities, err := h.search.ListCities(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	if cities == nil {
		cities = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"cities": cities})
}

func (h *CatalogHandler) dashboard(c *gin.Context) {
	stats, err := h.flights.Dashboard(c.Request.Context(), auth.PrincipalID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type registerRouteRequest struct {
	DepartureAirportID int64 `json:"departure_airport_id"`
	ArrivalAirportID   int64 `json:"arrival_airport_id"`
}

func (h *CatalogHandler) registerRoute(c *gin.Context) {
	var req registerRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	route, err := h.flights.RegisterRoute(c.Request.Context(), auth.PrincipalID(c), req.DepartureAirportID, req.ArrivalAirportID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":                   route.ID,
		"departure_airport_id": route.DepartureAirportID,
		"arrival_airport_id":   route.ArrivalAirportID,
	})
}

func (h *CatalogHandler) dropRoute(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.flights.DropRoute(c.Request.Context(), auth.PrincipalID(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "route dropped"})
}

type createExtraRequest struct {
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
}

func (h *CatalogHandler) createExtra(c *gin.Context) {
	var req createExtraRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	extra, err := h.flights.CreateExtra(c.Request.Context(), auth.PrincipalID(c), req.Name, req.PriceCents)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, extra)
}

func (h *CatalogHandler) listExtras(c *gin.Context) {
	extras, err := h.flights.ListExtras(c.Request.Context(), auth.PrincipalID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"extras": extras})
}

func (h *CatalogHandler) deleteExtra(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.flights.DeleteExtra(c.Request.Context(), auth.PrincipalID(c), id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "extra deleted"})
}
