package app

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/polkiloo/farmsupply/internal/authz"
	"github.com/polkiloo/farmsupply/internal/coordinator"
	"github.com/polkiloo/farmsupply/internal/domain/model"
	pkgAuth "github.com/polkiloo/farmsupply/internal/pkg/auth"
	"github.com/polkiloo/farmsupply/internal/report"
	"github.com/polkiloo/farmsupply/internal/usecase"
)

// ConsoleFacade is the single entry point of the presentation gateway.
type ConsoleFacade struct {
	session *usecase.SessionUseCase
	coord   *coordinator.Coordinator
	guard   *authz.Guard
	tokens  pkgAuth.Strategy
	logger  *zap.Logger
	now     func() time.Time
}

// NewConsoleFacade wires the facade.
func NewConsoleFacade(
	session *usecase.SessionUseCase,
	coord *coordinator.Coordinator,
	guard *authz.Guard,
	tokens pkgAuth.Strategy,
	logger *zap.Logger,
) *ConsoleFacade {
	return &ConsoleFacade{
		session: session,
		coord:   coord,
		guard:   guard,
		tokens:  tokens,
		logger:  logger.Named("console"),
		now:     time.Now,
	}
}

// Login opens a session, issues a console token bound to it and fills the
// store. A failed initial sync leaves the affected collections stale.
func (f *ConsoleFacade) Login(ctx context.Context, username, password string) (model.Principal, string, error) {
	p, err := f.session.Login(ctx, username, password)
	if err != nil {
		return model.Principal{}, "", err
	}

	token, err := f.issue(p)
	if err != nil {
		f.session.Logout(ctx)
		return model.Principal{}, "", fmt.Errorf("issue console token: %w", err)
	}

	if err := f.coord.Resync(ctx); err != nil {
		f.logger.Warn("initial sync failed", zap.String("username", p.Username), zap.Error(err))
	}
	return p, token, nil
}

// Logout ends the session. It is safe to call without one.
func (f *ConsoleFacade) Logout(ctx context.Context) {
	f.session.Logout(ctx)
}

// Restore reopens a persisted session and resyncs it.
func (f *ConsoleFacade) Restore(ctx context.Context) (bool, error) {
	p, ok, err := f.session.Restore(ctx)
	if err != nil || !ok {
		return false, err
	}
	f.logger.Info("session restored", zap.String("username", p.Username), zap.String("role", string(p.Role)))
	if err := f.coord.Resync(ctx); err != nil {
		f.logger.Warn("resync after restore failed", zap.Error(err))
	}
	return true, nil
}

// Session returns the live principal.
func (f *ConsoleFacade) Session() (model.Principal, bool) {
	return f.session.Current()
}

// ParseToken resolves a console token to the live principal. Tokens issued
// for an earlier session are rejected.
func (f *ConsoleFacade) ParseToken(token string) (model.Principal, error) {
	claims, err := f.tokens.ParseToken(token)
	if err != nil {
		return model.Principal{}, err
	}
	p, id, ok := f.session.Live()
	if !ok || claims.SessionID != id || claims.PrincipalID != p.ID {
		return model.Principal{}, pkgAuth.ErrInvalidToken
	}
	return p, nil
}

// CanAccess reports whether p holds resource.
func (f *ConsoleFacade) CanAccess(p *model.Principal, resource authz.Resource) bool {
	return f.guard.CanAccess(p, resource)
}

// Capabilities lists the resources of p with their scope.
func (f *ConsoleFacade) Capabilities(p model.Principal) map[authz.Resource]authz.Scope {
	return f.guard.Capabilities(p.Role)
}

// Snapshot returns the current cached state.
func (f *ConsoleFacade) Snapshot() model.Snapshot {
	return f.coord.Store().Snapshot()
}

// ProductViews returns products joined with their owners.
func (f *ConsoleFacade) ProductViews() []model.ProductView {
	return f.coord.Store().ProductViews()
}

// Dashboard aggregates the cached state.
func (f *ConsoleFacade) Dashboard() report.Dashboard {
	return report.Compute(f.Snapshot())
}

// ExportOrders writes the XLSX report of the cached state to w.
func (f *ConsoleFacade) ExportOrders(w io.Writer) error {
	return report.WriteWorkbook(w, f.Snapshot(), f.now())
}

// Sync refetches every readable collection.
func (f *ConsoleFacade) Sync(ctx context.Context) error {
	return f.coord.Resync(ctx)
}

// Revision returns the store revision.
func (f *ConsoleFacade) Revision() uint64 {
	return f.coord.Store().Revision()
}

// WaitChange blocks until the store moves past since.
func (f *ConsoleFacade) WaitChange(ctx context.Context, since uint64) (uint64, error) {
	return f.coord.Store().WaitChange(ctx, since)
}

// Execute runs one command through the coordinator.
func (f *ConsoleFacade) Execute(ctx context.Context, cmd model.Command) (coordinator.Result, error) {
	return f.coord.Execute(ctx, cmd)
}

// Invoice downloads the invoice PDF of an order.
func (f *ConsoleFacade) Invoice(ctx context.Context, orderID int64) ([]byte, error) {
	return f.coord.Invoice(ctx, orderID)
}

// Stale lists readable collections waiting for a refresh.
func (f *ConsoleFacade) Stale() []model.Collection {
	return f.coord.Stale()
}

// Refresh refetches one collection unless a writer holds it.
func (f *ConsoleFacade) Refresh(ctx context.Context, coll model.Collection) (bool, error) {
	return f.coord.Refresh(ctx, coll)
}

func (f *ConsoleFacade) issue(p model.Principal) (string, error) {
	live, id, ok := f.session.Live()
	if !ok || live.ID != p.ID {
		return "", fmt.Errorf("session closed")
	}
	return f.tokens.IssueToken(pkgAuth.Claims{SessionID: id, PrincipalID: p.ID, Role: string(p.Role)})
}
