package store

import "go.uber.org/fx"

// Module provides the entity store.
var Module = fx.Provide(New)
