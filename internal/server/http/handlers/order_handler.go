package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/farmsupply/internal/domain/model"
	"github.com/polkiloo/farmsupply/internal/server/http/dto"
)

// OrderHandler manages order placement and fulfilment.
type OrderHandler struct {
	queries  QueryFacade
	commands CommandFacade
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(queries QueryFacade, commands CommandFacade) *OrderHandler {
	return &OrderHandler{queries: queries, commands: commands}
}

// List handles GET /api/orders. The cache already holds only the orders the
// principal may read.
func (h *OrderHandler) List(c *gin.Context) {
	orders := h.queries.Snapshot().Orders
	response := make([]dto.OrderResponse, 0, len(orders))
	for _, o := range orders {
		response = append(response, toOrderResponse(o))
	}
	c.JSON(http.StatusOK, response)
}

// Create handles POST /api/orders.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed order")
		return
	}
	in := model.OrderInput{ProductID: req.ProductID, Quantity: req.Quantity}
	execute(c, h.commands, model.Command{Entity: model.KindOrder, Action: model.ActionCreate, Order: &in}, http.StatusCreated)
}

// Status handles PUT /api/orders/:id/status.
func (h *OrderHandler) Status(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "target state is required")
		return
	}
	date, err := parseDate(req.DeliveryDate)
	if err != nil {
		badRequest(c, "delivery date must be YYYY-MM-DD")
		return
	}
	execute(c, h.commands, model.Command{
		Entity:       model.KindOrder,
		Action:       model.ActionTransition,
		ID:           id,
		Transition:   &model.Transition{From: model.State(req.From), To: model.State(req.To)},
		DeliveryDate: date,
	}, http.StatusOK)
}

// Schedule handles PUT /api/orders/:id/schedule-delivery.
func (h *OrderHandler) Schedule(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "delivery date is required")
		return
	}
	date, err := parseDate(req.DeliveryDate)
	if err != nil {
		badRequest(c, "delivery date must be YYYY-MM-DD")
		return
	}
	execute(c, h.commands, model.Command{
		Entity:       model.KindOrder,
		Action:       model.ActionTransition,
		ID:           id,
		Transition:   &model.Transition{From: model.StateApproved, To: model.StateScheduled},
		DeliveryDate: date,
	}, http.StatusOK)
}

// Invoice handles GET /api/orders/:id/invoice.
func (h *OrderHandler) Invoice(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	pdf, err := h.commands.Invoice(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="invoice-%d.pdf"`, id))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func toOrderResponse(order model.Order) dto.OrderResponse {
	return dto.OrderResponse{
		ID:           order.ID,
		ProductID:    order.ProductID,
		Quantity:     order.Quantity,
		TotalPrice:   order.TotalPrice,
		OrderedBy:    order.OrderedBy,
		Status:       string(order.Status),
		DeliveryDate: order.DeliveryDate,
		OrderedAt:    order.OrderedAt,
	}
}
