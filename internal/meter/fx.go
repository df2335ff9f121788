package meter

import (
	"github.com/homewatt/homewatt/internal/meter/repository"
	"github.com/homewatt/homewatt/internal/meter/service"
	"go.uber.org/fx"
)

var Module = fx.Module("meter.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
