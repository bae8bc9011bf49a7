package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/farmsupply/internal/domain/model"
	"github.com/polkiloo/farmsupply/internal/server/http/dto"
)

// ProductHandler manages the product catalogue.
type ProductHandler struct {
	queries  QueryFacade
	commands CommandFacade
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(queries QueryFacade, commands CommandFacade) *ProductHandler {
	return &ProductHandler{queries: queries, commands: commands}
}

// List handles GET /api/products.
func (h *ProductHandler) List(c *gin.Context) {
	views := h.queries.ProductViews()
	resp := make([]dto.ProductResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, dto.ProductResponse{
			ID:            v.ID,
			Name:          v.Name,
			Quantity:      v.QuantityOnHand,
			UnitPrice:     v.UnitPrice,
			OwnerFarmerID: v.OwnerFarmerID,
			OwnerName:     v.OwnerName,
			OwnerApproval: string(v.OwnerApproval),
			OwnerMissing:  v.OwnerMissing,
		})
	}
	c.JSON(http.StatusOK, resp)
}

// Create handles POST /api/products.
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed product")
		return
	}
	in := toProductInput(req)
	execute(c, h.commands, model.Command{Entity: model.KindProduct, Action: model.ActionCreate, Product: &in}, http.StatusCreated)
}

// Update handles PUT /api/products/:id.
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed product")
		return
	}
	in := toProductInput(req)
	execute(c, h.commands, model.Command{Entity: model.KindProduct, Action: model.ActionUpdate, ID: id, Product: &in}, http.StatusOK)
}

// Delete handles DELETE /api/products/:id.
func (h *ProductHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	execute(c, h.commands, model.Command{Entity: model.KindProduct, Action: model.ActionDelete, ID: id}, http.StatusOK)
}

func toProductInput(req dto.ProductRequest) model.ProductInput {
	return model.ProductInput{
		Name:          req.Name,
		Quantity:      req.Quantity,
		UnitPrice:     req.UnitPrice,
		OwnerFarmerID: req.OwnerFarmerID,
	}
}
