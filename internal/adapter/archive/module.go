package archive

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/polkiloo/farmsupply/internal/config"
)

// Module provides the configured invoice Archive, nil when disabled.
var Module = fx.Provide(newArchive)

type archiveParams struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
	Logger *zap.Logger
}

func newArchive(p archiveParams) (Archive, error) {
	a, err := Parse(p.Ctx, p.Config.InvoiceArchive)
	if err != nil {
		return nil, err
	}
	if a != nil {
		p.Logger.Info("invoice archive enabled", zap.String("location", p.Config.InvoiceArchive))
	}
	return a, nil
}
