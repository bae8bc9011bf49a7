package usecase

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/polkiloo/farmsupply/internal/adapter/backend"
	"github.com/polkiloo/farmsupply/internal/domain/repository"
	pkgAuth "github.com/polkiloo/farmsupply/internal/pkg/auth"
	"github.com/polkiloo/farmsupply/internal/store"
)

// Module provides the console use cases to the fx container.
var Module = fx.Provide(newSessionUseCase)

type sessionParams struct {
	fx.In

	Backend backend.Client
	Repo    repository.SessionRepository
	Bearer  *pkgAuth.BearerToken
	Store   *store.Store
	Logger  *zap.Logger
}

func newSessionUseCase(p sessionParams) *SessionUseCase {
	return NewSessionUseCase(p.Backend, p.Repo, p.Bearer, p.Store, p.Logger)
}
