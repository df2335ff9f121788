package goal

import (
	"github.com/homewatt/homewatt/internal/goal/repository"
	"github.com/homewatt/homewatt/internal/goal/service"
	"go.uber.org/fx"
)

var Module = fx.Module("goal.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
