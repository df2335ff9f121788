package reading

import (
	"github.com/homewatt/homewatt/internal/reading/repository"
	"github.com/homewatt/homewatt/internal/reading/service"
	"go.uber.org/fx"
)

var Module = fx.Module("reading.service",
	fx.Provide(
		repository.Provide,
		service.New,
	),
)
