package auth

import (
	"go.uber.org/fx"

	"github.com/polkiloo/farmsupply/internal/config"
)

// Module provides authentication primitives via fx.
var Module = fx.Options(
	fx.Provide(NewBearerToken),
	fx.Provide(newTokenStrategy),
)

type strategyParams struct {
	fx.In

	Config *config.Config
}

func newTokenStrategy(p strategyParams) Strategy {
	return NewJWTStrategy(p.Config.ConsoleSecret, Options{TTL: p.Config.ConsoleTokenTTL})
}
