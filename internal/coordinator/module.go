package coordinator

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/polkiloo/farmsupply/internal/adapter/archive"
	"github.com/polkiloo/farmsupply/internal/adapter/backend"
	"github.com/polkiloo/farmsupply/internal/authz"
	"github.com/polkiloo/farmsupply/internal/config"
	"github.com/polkiloo/farmsupply/internal/metrics"
	"github.com/polkiloo/farmsupply/internal/store"
	"github.com/polkiloo/farmsupply/internal/usecase"
	"github.com/polkiloo/farmsupply/internal/workflow"
)

// Module provides the Coordinator.
var Module = fx.Provide(newCoordinator)

type coordinatorParams struct {
	fx.In

	Backend backend.Client
	Store   *store.Store
	Engine  *workflow.Engine
	Guard   *authz.Guard
	Session *usecase.SessionUseCase
	Archive archive.Archive
	Metrics *metrics.Metrics
	Config  *config.Config
	Logger  *zap.Logger
}

func newCoordinator(p coordinatorParams) *Coordinator {
	var arch Archiver
	if p.Archive != nil {
		arch = p.Archive
	}
	return New(p.Backend, p.Store, p.Engine, p.Guard, p.Session, arch, p.Metrics, p.Logger, Options{
		DispatchTimeout: 2 * p.Config.BackendTimeout,
	})
}
