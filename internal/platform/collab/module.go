package collab

import "go.uber.org/fx"

// Module provides the default external-system collaborators.
var Module = fx.Options(
	fx.Provide(NewListingRegistry),
	fx.Provide(NewPaymentProcessor),
	fx.Provide(NewNotifier),
)
