package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/farmsupply/internal/domain/model"
	"github.com/polkiloo/farmsupply/internal/server/http/dto"
)

// FarmerHandler manages farmer onboarding and approval.
type FarmerHandler struct {
	queries  QueryFacade
	commands CommandFacade
}

// NewFarmerHandler constructs FarmerHandler.
func NewFarmerHandler(queries QueryFacade, commands CommandFacade) *FarmerHandler {
	return &FarmerHandler{queries: queries, commands: commands}
}

// List handles GET /api/farmers.
func (h *FarmerHandler) List(c *gin.Context) {
	farmers := h.queries.Snapshot().Farmers
	resp := make([]dto.FarmerResponse, 0, len(farmers))
	for _, f := range farmers {
		resp = append(resp, toFarmerResponse(f))
	}
	c.JSON(http.StatusOK, resp)
}

// Create handles POST /api/farmers.
func (h *FarmerHandler) Create(c *gin.Context) {
	var req dto.FarmerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed farmer")
		return
	}
	in := toFarmerInput(req)
	execute(c, h.commands, model.Command{Entity: model.KindFarmer, Action: model.ActionCreate, Farmer: &in}, http.StatusCreated)
}

// Update handles PUT /api/farmers/:id.
func (h *FarmerHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.FarmerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed farmer")
		return
	}
	in := toFarmerInput(req)
	execute(c, h.commands, model.Command{Entity: model.KindFarmer, Action: model.ActionUpdate, ID: id, Farmer: &in}, http.StatusOK)
}

// Delete handles DELETE /api/farmers/:id.
func (h *FarmerHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	execute(c, h.commands, model.Command{Entity: model.KindFarmer, Action: model.ActionDelete, ID: id}, http.StatusOK)
}

// Approval handles PUT /api/farmers/:id/approval.
func (h *FarmerHandler) Approval(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "target state is required")
		return
	}
	execute(c, h.commands, model.Command{
		Entity:     model.KindFarmer,
		Action:     model.ActionTransition,
		ID:         id,
		Transition: &model.Transition{From: model.State(req.From), To: model.State(req.To)},
	}, http.StatusOK)
}

func toFarmerInput(req dto.FarmerRequest) model.FarmerInput {
	return model.FarmerInput{
		Name:             req.Name,
		TelNo:            req.TelNo,
		Address:          req.Address,
		AccountNo:        req.AccountNo,
		NationalID:       req.NationalID,
		Site:             req.Site,
		FarmSize:         req.FarmSize,
		HarvestPerSeason: req.HarvestPerSeason,
	}
}

func toFarmerResponse(f model.Farmer) dto.FarmerResponse {
	return dto.FarmerResponse{
		ID:               f.ID,
		Name:             f.Name,
		TelNo:            f.TelNo,
		Address:          f.Address,
		AccountNo:        f.AccountNo,
		NationalID:       f.NationalID,
		Site:             f.Site,
		FarmSize:         f.FarmSize,
		HarvestPerSeason: f.HarvestPerSeason,
		ApprovalStatus:   string(f.ApprovalStatus),
	}
}
