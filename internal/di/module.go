package di

import (
	"go.uber.org/fx"

	"github.com/polkiloo/farmsupply/internal/adapter/archive"
	"github.com/polkiloo/farmsupply/internal/adapter/backend"
	"github.com/polkiloo/farmsupply/internal/app"
	"github.com/polkiloo/farmsupply/internal/authz"
	"github.com/polkiloo/farmsupply/internal/config"
	"github.com/polkiloo/farmsupply/internal/coordinator"
	"github.com/polkiloo/farmsupply/internal/logger"
	"github.com/polkiloo/farmsupply/internal/metrics"
	"github.com/polkiloo/farmsupply/internal/pkg/auth"
	"github.com/polkiloo/farmsupply/internal/server/http/handlers"
	"github.com/polkiloo/farmsupply/internal/server/http/router"
	"github.com/polkiloo/farmsupply/internal/storage"
	"github.com/polkiloo/farmsupply/internal/store"
	"github.com/polkiloo/farmsupply/internal/usecase"
	"github.com/polkiloo/farmsupply/internal/workflow"
)

// Module composes the console graph. The caller supplies a context.Context
// and a *pflag.FlagSet.
func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		metrics.Module,
		auth.Module,
		authz.Module,
		workflow.Module,
		store.Module,
		backend.Module,
		storage.Module,
		archive.Module,
		usecase.Module,
		coordinator.Module,
		fx.Provide(func(f *app.ConsoleFacade) handlers.ConsoleFacade { return f }),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
