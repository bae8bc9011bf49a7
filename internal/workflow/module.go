package workflow

import (
	"go.uber.org/fx"

	"github.com/polkiloo/farmsupply/internal/authz"
	"github.com/polkiloo/farmsupply/internal/config"
)

// Module provides the workflow engine configured from application settings.
var Module = fx.Provide(
	func(guard *authz.Guard, cfg *config.Config) *Engine {
		return NewEngine(guard, WithStrictApproval(cfg.StrictFarmerApproval))
	},
)
