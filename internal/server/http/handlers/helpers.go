package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/farmsupply/internal/domain/errors"
	"github.com/polkiloo/farmsupply/internal/domain/model"
	"github.com/polkiloo/farmsupply/internal/server/http/dto"
	"github.com/polkiloo/farmsupply/internal/server/http/middleware"
)

const dateLayout = "2006-01-02"

// CurrentPrincipal extracts the authenticated principal from context.
func CurrentPrincipal(c *gin.Context) model.Principal {
	p, _ := middleware.Principal(c)
	return p
}

// StatusFor maps a domain error to an HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domainErrors.ErrNoSession), errors.Is(err, domainErrors.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domainErrors.ErrSessionActive):
		return http.StatusConflict
	case errors.Is(err, domainErrors.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, domainErrors.ErrIllegalTransition):
		return http.StatusConflict
	case errors.Is(err, domainErrors.ErrValidation):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domainErrors.ErrRejected):
		return http.StatusBadGateway
	case errors.Is(err, domainErrors.ErrUnreachable):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.AbortWithStatusJSON(StatusFor(err), dto.ErrorResponse{Error: err.Error()})
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{Error: msg})
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}

func parseDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// execute runs cmd and writes the outcome. A command that succeeded but
// whose refresh failed is still reported as accepted.
func execute(c *gin.Context, facade CommandFacade, cmd model.Command, status int) {
	res, err := facade.Execute(c.Request.Context(), cmd)
	if err != nil && !res.Transition.Accepted {
		writeError(c, err)
		return
	}

	resp := dto.CommandResponse{Accepted: true, NewState: string(res.Transition.NewState)}
	if err != nil {
		_ = c.Error(err)
		resp.Stale = true
		resp.Warning = err.Error()
	}
	c.JSON(status, resp)
}
