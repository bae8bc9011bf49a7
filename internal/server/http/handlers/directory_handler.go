package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/farmsupply/internal/domain/model"
	"github.com/polkiloo/farmsupply/internal/server/http/dto"
)

// DirectoryHandler manages console users and trainings.
type DirectoryHandler struct {
	queries  QueryFacade
	commands CommandFacade
}

// NewDirectoryHandler constructs DirectoryHandler.
func NewDirectoryHandler(queries QueryFacade, commands CommandFacade) *DirectoryHandler {
	return &DirectoryHandler{queries: queries, commands: commands}
}

// Users handles GET /api/users.
func (h *DirectoryHandler) Users(c *gin.Context) {
	users := h.queries.Snapshot().Users
	resp := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, dto.UserResponse{ID: u.ID, Username: u.Username, Email: u.Email, Role: string(u.Role)})
	}
	c.JSON(http.StatusOK, resp)
}

// CreateUser handles POST /api/users.
func (h *DirectoryHandler) CreateUser(c *gin.Context) {
	h.writeUser(c, model.ActionCreate, 0, http.StatusCreated)
}

// UpdateUser handles PUT /api/users/:id.
func (h *DirectoryHandler) UpdateUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	h.writeUser(c, model.ActionUpdate, id, http.StatusOK)
}

// DeleteUser handles DELETE /api/users/:id.
func (h *DirectoryHandler) DeleteUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	execute(c, h.commands, model.Command{Entity: model.KindUser, Action: model.ActionDelete, ID: id}, http.StatusOK)
}

func (h *DirectoryHandler) writeUser(c *gin.Context, action model.Action, id int64, status int) {
	var req dto.UserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed user")
		return
	}
	in := model.UserInput{Username: req.Username, Email: req.Email, Password: req.Password, Role: model.Role(req.Role)}
	execute(c, h.commands, model.Command{Entity: model.KindUser, Action: action, ID: id, User: &in}, status)
}

// Trainings handles GET /api/trainings.
func (h *DirectoryHandler) Trainings(c *gin.Context) {
	trainings := h.queries.Snapshot().Trainings
	resp := make([]dto.TrainingResponse, 0, len(trainings))
	for _, t := range trainings {
		resp = append(resp, dto.TrainingResponse{ID: t.ID, Title: t.Title, Description: t.Description, ScheduledDate: t.ScheduledDate})
	}
	c.JSON(http.StatusOK, resp)
}

// CreateTraining handles POST /api/trainings.
func (h *DirectoryHandler) CreateTraining(c *gin.Context) {
	h.writeTraining(c, model.ActionCreate, 0, http.StatusCreated)
}

// UpdateTraining handles PUT /api/trainings/:id.
func (h *DirectoryHandler) UpdateTraining(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	h.writeTraining(c, model.ActionUpdate, id, http.StatusOK)
}

// DeleteTraining handles DELETE /api/trainings/:id.
func (h *DirectoryHandler) DeleteTraining(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	execute(c, h.commands, model.Command{Entity: model.KindTraining, Action: model.ActionDelete, ID: id}, http.StatusOK)
}

func (h *DirectoryHandler) writeTraining(c *gin.Context, action model.Action, id int64, status int) {
	var req dto.TrainingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "malformed training")
		return
	}
	date, err := parseDate(req.ScheduledDate)
	if err != nil {
		badRequest(c, "scheduled date must be YYYY-MM-DD")
		return
	}
	in := model.TrainingInput{Title: req.Title, Description: req.Description, ScheduledDate: date}
	execute(c, h.commands, model.Command{Entity: model.KindTraining, Action: action, ID: id, Training: &in}, status)
}
