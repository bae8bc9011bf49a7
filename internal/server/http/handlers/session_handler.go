package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/farmsupply/internal/authz"
	"github.com/polkiloo/farmsupply/internal/domain/model"
	"github.com/polkiloo/farmsupply/internal/server/http/dto"
	"github.com/polkiloo/farmsupply/internal/server/http/middleware"
)

// SessionHandler processes login, logout and session introspection.
type SessionHandler struct {
	facade SessionFacade
}

// NewSessionHandler creates SessionHandler instance.
func NewSessionHandler(facade SessionFacade) *SessionHandler {
	return &SessionHandler{facade: facade}
}

// Login handles POST /api/session/login.
func (h *SessionHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "username and password are required")
		return
	}

	p, token, err := h.facade.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	middleware.SetAuthCookie(c, token)
	c.JSON(http.StatusOK, dto.LoginResponse{Token: token, Principal: toPrincipalResponse(p)})
}

// Logout handles POST /api/session/logout. It needs no token, so a client
// whose console token expired can still end the session.
func (h *SessionHandler) Logout(c *gin.Context) {
	h.facade.Logout(c.Request.Context())
	middleware.ClearAuthCookie(c)
	c.Status(http.StatusNoContent)
}

// Current handles GET /api/session.
func (h *SessionHandler) Current(c *gin.Context) {
	c.JSON(http.StatusOK, toPrincipalResponse(CurrentPrincipal(c)))
}

// Capabilities handles GET /api/capabilities.
func (h *SessionHandler) Capabilities(c *gin.Context) {
	caps := h.facade.Capabilities(CurrentPrincipal(c))
	resp := make([]dto.CapabilityResponse, 0, len(caps))
	for _, r := range authz.SortedResources(caps) {
		resp = append(resp, dto.CapabilityResponse{Resource: string(r), Scope: caps[r].String()})
	}
	c.JSON(http.StatusOK, resp)
}

func toPrincipalResponse(p model.Principal) dto.PrincipalResponse {
	return dto.PrincipalResponse{ID: p.ID, Username: p.Username, Role: string(p.Role)}
}
