package storage

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/polkiloo/farmsupply/internal/config"
	"github.com/polkiloo/farmsupply/internal/domain/repository"
	"github.com/polkiloo/farmsupply/internal/storage/memory"
	"github.com/polkiloo/farmsupply/internal/storage/postgres"
	"github.com/polkiloo/farmsupply/internal/storage/redisstore"
	"github.com/polkiloo/farmsupply/internal/storage/sqlite"
)

// Module provides the session repository selected by configuration.
var Module = fx.Provide(newSessionRepository)

type sessionParams struct {
	fx.In

	Ctx       context.Context
	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *zap.Logger
}

func newSessionRepository(p sessionParams) (repository.SessionRepository, error) {
	log := p.Logger.Named("storage")
	switch p.Config.SessionStore {
	case config.SessionStoreMemory, "":
		log.Info("session persistence disabled, using memory store")
		return memory.NewSessionStore(), nil
	case config.SessionStoreSQLite:
		s, err := sqlite.Open(p.Ctx, p.Config.SQLitePath)
		if err != nil {
			return nil, err
		}
		closeOnStop(p.Lifecycle, s.Close)
		log.Info("session store ready", zap.String("kind", "sqlite"), zap.String("path", p.Config.SQLitePath))
		return s, nil
	case config.SessionStorePostgres:
		s, err := postgres.New(p.Ctx, p.Config.DatabaseURI, log.Named("postgres"))
		if err != nil {
			return nil, err
		}
		closeOnStop(p.Lifecycle, func() error { s.Close(); return nil })
		log.Info("session store ready", zap.String("kind", "postgres"))
		return s, nil
	case config.SessionStoreRedis:
		s, err := redisstore.Open(p.Ctx, redisstore.Options{
			Addr:     p.Config.RedisAddr,
			Password: p.Config.RedisPassword,
			DB:       p.Config.RedisDB,
			TTL:      p.Config.SessionTTL,
		})
		if err != nil {
			return nil, err
		}
		closeOnStop(p.Lifecycle, s.Close)
		log.Info("session store ready", zap.String("kind", "redis"), zap.String("addr", p.Config.RedisAddr))
		return s, nil
	default:
		return nil, fmt.Errorf("unknown session store %q", p.Config.SessionStore)
	}
}

func closeOnStop(lc fx.Lifecycle, closeFn func() error) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error { return closeFn() },
	})
}
