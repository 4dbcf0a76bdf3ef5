package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mrusso91/aerobook/internal/auth"
	"github.com/mrusso91/aerobook/internal/domain"
	"github.com/mrusso91/aerobook/internal/service/booking"
)

type TicketHandler struct {
	booking booking.BookingUseCase
}

func NewTicketHandler(bookingSvc booking.BookingUseCase) *TicketHandler {
	return &TicketHandler{booking: bookingSvc}
}

func (h *TicketHandler) Register(router *gin.RouterGroup, secret string) {
	passenger := auth.RequireRoles(secret, auth.RolePassenger)
	router.POST("/", passenger, h.create)
	router.POST("/bulk", passenger, h.createBulk)
	router.GET("/", passenger, h.list)
	router.GET("/:id", auth.RequireRoles(secret, auth.RolePassenger, auth.RoleAdmin), h.get)
	router.DELETE("/:id", auth.RequireRoles(secret, auth.RolePassenger, auth.RoleAdmin), h.cancel)
	router.PATCH("/:id", auth.RequireRoles(secret, auth.RoleAdmin), h.amend)
}

type ticketRequest struct {
	FlightID       int64   `json:"flight_id"`
	SeatNumber     string  `json:"seat_number"`
	FinalCostCents int64   `json:"final_cost_cents"`
	ExtraIDs       []int64 `json:"extra_ids"`
}

type ticketResponse struct {
	ID             int64   `json:"id"`
	Reference      string  `json:"reference"`
	FlightID       int64   `json:"flight_id"`
	PassengerID    int64   `json:"passenger_id"`
	SeatNumber     string  `json:"seat_number"`
	FinalCostCents int64   `json:"final_cost_cents"`
	PurchaseDate   string  `json:"purchase_date"`
	State          string  `json:"state"`
	ExtraIDs       []int64 `json:"extra_ids"`
}

func (h *TicketHandler) create(c *gin.Context) {
	var req ticketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ticket, err := h.booking.CreateTicket(c.Request.Context(), auth.PrincipalID(c), toTicketRequest(req))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toTicketResponse(*ticket))
}

type bulkTicketRequest struct {
	Tickets []ticketRequest `json:"tickets"`
}

func (h *TicketHandler) createBulk(c *gin.Context) {
	var req bulkTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reqs := make([]domain.TicketRequest, 0, len(req.Tickets))
	for _, t := range req.Tickets {
		reqs = append(reqs, toTicketRequest(t))
	}

	tickets, err := h.booking.CreateTicketsBulk(c.Request.Context(), auth.PrincipalID(c), reqs)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]ticketResponse, 0, len(tickets))
	for _, t := range tickets {
		resp = append(resp, toTicketResponse(t))
	}
	c.JSON(http.StatusCreated, gin.H{"tickets": resp})
}

func (h *TicketHandler) list(c *gin.Context) {
	page := int(queryInt64(c, "page", 1))
	limit := int(queryInt64(c, "limit", 10))

	tickets, totalPages, err := h.booking.ListTickets(c.Request.Context(), auth.PrincipalID(c), page, limit)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := make([]ticketResponse, 0, len(tickets))
	for _, t := range tickets {
		resp = append(resp, toTicketResponse(t))
	}
	c.JSON(http.StatusOK, gin.H{"tickets": resp, "total_pages": totalPages})
}

func (h *TicketHandler) get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	ticket, err := h.booking.GetTicket(c.Request.Context(), principalOrAdmin(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTicketResponse(*ticket))
}

func (h *TicketHandler) cancel(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	ticket, err := h.booking.CancelTicket(c.Request.Context(), principalOrAdmin(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTicketResponse(*ticket))
}

type amendTicketRequest struct {
	ExtraIDs       []int64 `json:"extra_ids"`
	FinalCostCents *int64  `json:"final_cost_cents"`
}

func (h *TicketHandler) amend(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req amendTicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ticket, err := h.booking.AmendTicket(c.Request.Context(), id, req.ExtraIDs, req.FinalCostCents)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toTicketResponse(*ticket))
}

// principalOrAdmin returns 0 for admins so ownership checks are skipped.
func principalOrAdmin(c *gin.Context) int64 {
	if auth.PrincipalRole(c) == auth.RoleAdmin {
		return 0
	}
	return auth.PrincipalID(c)
}

func toTicketRequest(req ticketRequest) domain.TicketRequest {
	return domain.TicketRequest{
		FlightID:       req.FlightID,
		SeatNumber:     req.SeatNumber,
		FinalCostCents: req.FinalCostCents,
		ExtraIDs:       req.ExtraIDs,
	}
}

func toTicketResponse(t domain.Ticket) ticketResponse {
	extras := t.ExtraIDs
	if extras == nil {
		extras = []int64{}
	}
	return ticketResponse{
		ID:             t.ID,
		Reference:      t.Reference,
		FlightID:       t.FlightID,
		PassengerID:    t.PassengerID,
		SeatNumber:     t.SeatNumber,
		FinalCostCents: t.FinalCostCents,
		PurchaseDate:   t.PurchaseDate.Format(time.RFC3339),
		State:          string(t.State),
		ExtraIDs:       extras,
	}
}
