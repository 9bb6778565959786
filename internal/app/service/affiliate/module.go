package affiliate

import "go.uber.org/fx"

// Module exposes the affiliate program via Fx.
var Module = fx.Options(
	fx.Provide(NewService),
)
