package app

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/polkiloo/farmsupply/internal/config"
	"github.com/polkiloo/farmsupply/internal/worker"
)

// Module wires application services, runtime components, and lifecycle hooks.
var Module = fx.Options(
	fx.Provide(
		NewConsoleFacade,
		newHTTPServer,
		newRefresher,
	),
	fx.Invoke(registerLifecycle),
)

type serverParams struct {
	fx.In

	Config *config.Config
	Router *gin.Engine
}

func newHTTPServer(p serverParams) *http.Server {
	return &http.Server{
		Addr:              p.Config.RunAddress,
		Handler:           p.Router,
		ReadHeaderTimeout: p.Config.BackendTimeout,
	}
}

type workerParams struct {
	fx.In

	Facade *ConsoleFacade
	Config *config.Config
	Logger *zap.Logger
}

func newRefresher(p workerParams) *worker.Refresher {
	return worker.NewRefresher(
		p.Facade,
		p.Config.RefreshInterval,
		p.Config.RefreshWorkers,
		p.Logger,
	)
}

// sessionRestorer reopens a persisted session at startup.
type sessionRestorer interface {
	Restore(ctx context.Context) (bool, error)
}

type lifecycleParams struct {
	fx.In

	Ctx        context.Context
	Lifecycle  fx.Lifecycle
	Shutdowner fx.Shutdowner
	Logger     *zap.Logger
	Server     *http.Server
	Worker     *worker.Refresher
	Facade     *ConsoleFacade
	Config     *config.Config
}

func registerLifecycle(p lifecycleParams) {
	var restorer sessionRestorer
	if p.Facade != nil {
		restorer = p.Facade
	}
	appendLifecycle(p, restorer)
}

func appendLifecycle(p lifecycleParams, restorer sessionRestorer) {
	runCtx := p.Ctx
	if runCtx == nil {
		runCtx = context.Background()
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting farmsupply console", zap.String("addr", p.Server.Addr))
			if restorer != nil {
				if restored, err := restorer.Restore(ctx); err != nil {
					p.Logger.Warn("restore session failed", zap.Error(err))
				} else if !restored {
					p.Logger.Info("no persisted session")
				}
			}
			p.Worker.Start(runCtx)
			go func() {
				if err := p.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					p.Logger.Error("http server terminated", zap.Error(err))
					_ = p.Shutdowner.Shutdown()
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Worker.Stop()

			shutdownCtx := ctx
			cancel := func() {}
			if _, ok := ctx.Deadline(); !ok {
				shutdownCtx, cancel = context.WithTimeout(ctx, p.Config.ShutdownTimeout)
			}
			defer cancel()

			if err := p.Server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			p.Logger.Info("farmsupply console stopped")
			return nil
		},
	})
}
