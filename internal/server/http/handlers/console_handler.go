package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/farmsupply/internal/authz"
	"github.com/polkiloo/farmsupply/internal/domain/model"
	"github.com/polkiloo/farmsupply/internal/server/http/dto"
	"github.com/polkiloo/farmsupply/internal/server/http/middleware"
)

const (
	defaultEventWait = 25 * time.Second
	maxEventWait     = time.Minute
	xlsxContentType  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ConsoleHandler serves the dashboard, sync and change notifications.
type ConsoleHandler struct {
	queries QueryFacade
	access  middleware.AccessChecker
	now     func() time.Time
}

// NewConsoleHandler constructs ConsoleHandler.
func NewConsoleHandler(queries QueryFacade, access middleware.AccessChecker) *ConsoleHandler {
	return &ConsoleHandler{queries: queries, access: access, now: time.Now}
}

// Dashboard handles GET /api/dashboard. Each role may open only its own.
func (h *ConsoleHandler) Dashboard(c *gin.Context) {
	p := CurrentPrincipal(c)
	if !h.access.CanAccess(&p, authz.Dashboard(p.Role)) {
		c.AbortWithStatus(http.StatusForbidden)
		return
	}
	c.JSON(http.StatusOK, h.queries.Dashboard())
}

// Sync handles POST /api/sync. Collections that failed keep their last data
// and are reported stale.
func (h *ConsoleHandler) Sync(c *gin.Context) {
	err := h.queries.Sync(c.Request.Context())

	snap := h.queries.Snapshot()
	resp := dto.SyncResponse{Revision: h.queries.Revision()}
	for _, coll := range model.Collections {
		prov, ok := snap.Provenance[coll]
		if !ok {
			continue
		}
		resp.Collections = append(resp.Collections, dto.CollectionStatus{
			Collection: string(coll),
			Version:    prov.Version,
			SyncedAt:   prov.SyncedAt,
			Stale:      prov.Stale,
		})
	}

	if err != nil {
		_ = c.Error(err)
		resp.Error = err.Error()
		c.JSON(StatusFor(err), resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Events handles GET /api/events?since=N&wait=25s. It answers with the new
// revision once the store changes past since, or 204 when wait elapses.
func (h *ConsoleHandler) Events(c *gin.Context) {
	since := h.queries.Revision()
	if raw := c.Query("since"); raw != "" {
		v, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			badRequest(c, "since must be a revision number")
			return
		}
		since = v
	}

	wait := defaultEventWait
	if raw := c.Query("wait"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			badRequest(c, "wait must be a positive duration")
			return
		}
		wait = min(d, maxEventWait)
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), wait)
	defer cancel()

	rev, err := h.queries.WaitChange(ctx, since)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, dto.EventResponse{Revision: rev})
	case errors.Is(err, context.DeadlineExceeded):
		c.Status(http.StatusNoContent)
	default:
		c.Status(499)
	}
}

// ExportOrders handles GET /api/reports/orders.xlsx.
func (h *ConsoleHandler) ExportOrders(c *gin.Context) {
	var buf bytes.Buffer
	if err := h.queries.ExportOrders(&buf); err != nil {
		writeError(c, err)
		return
	}
	name := fmt.Sprintf("orders-%s.xlsx", h.now().UTC().Format(dateLayout))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, name))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
