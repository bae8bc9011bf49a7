package backend

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/polkiloo/farmsupply/internal/config"
	pkgAuth "github.com/polkiloo/farmsupply/internal/pkg/auth"
)

// Module exposes the backend client implementation to fx graph.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config *config.Config
	Tokens *pkgAuth.BearerToken
	Logger *zap.Logger
}

func newClient(p clientParams) (Client, error) {
	return NewHTTPClient(p.Config.BackendURL, p.Tokens, p.Logger.Named("backend"), Options{
		Timeout:   p.Config.BackendTimeout,
		RateLimit: p.Config.BackendRateLimit,
		Burst:     p.Config.BackendBurst,
	})
}
