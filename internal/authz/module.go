package authz

import "go.uber.org/fx"

// Module provides the authorization guard.
var Module = fx.Provide(NewGuard)
