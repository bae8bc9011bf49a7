package handlers

import (
	"context"
	"io"

	"github.com/polkiloo/farmsupply/internal/authz"
	"github.com/polkiloo/farmsupply/internal/coordinator"
	"github.com/polkiloo/farmsupply/internal/domain/model"
	"github.com/polkiloo/farmsupply/internal/report"
	"github.com/polkiloo/farmsupply/internal/server/http/middleware"
)

// SessionFacade describes session capabilities required by handlers.
type SessionFacade interface {
	Login(ctx context.Context, username, password string) (model.Principal, string, error)
	Logout(ctx context.Context)
	Capabilities(p model.Principal) map[authz.Resource]authz.Scope
}

// QueryFacade exposes the cached state and its synchronisation.
type QueryFacade interface {
	Snapshot() model.Snapshot
	ProductViews() []model.ProductView
	Dashboard() report.Dashboard
	ExportOrders(w io.Writer) error
	Sync(ctx context.Context) error
	Revision() uint64
	WaitChange(ctx context.Context, since uint64) (uint64, error)
}

// CommandFacade runs mutations against the backend.
type CommandFacade interface {
	Execute(ctx context.Context, cmd model.Command) (coordinator.Result, error)
	Invoice(ctx context.Context, orderID int64) ([]byte, error)
}

// ConsoleFacade aggregates the full set of operations used across handlers.
type ConsoleFacade interface {
	SessionFacade
	QueryFacade
	CommandFacade
	middleware.TokenParser
	middleware.AccessChecker
}
