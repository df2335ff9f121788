package alert

import (
	"github.com/homewatt/homewatt/internal/alert/repository"
	"github.com/homewatt/homewatt/internal/alert/service"
	"go.uber.org/fx"
)

var Module = fx.Module("alert.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
