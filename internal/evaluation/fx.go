package evaluation

import "go.uber.org/fx"

var Module = fx.Module("evaluation.service",
	fx.Provide(New),
)
