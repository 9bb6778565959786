package activation

import "go.uber.org/fx"

// Module exposes the activation engine via Fx.
var Module = fx.Options(
	fx.Provide(NewService),
)
