package household

import (
	"github.com/homewatt/homewatt/internal/household/repository"
	"github.com/homewatt/homewatt/internal/household/service"
	"go.uber.org/fx"
)

var Module = fx.Module("household.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
