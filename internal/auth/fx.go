package auth

import (
	"github.com/homewatt/homewatt/internal/auth/repository"
	"github.com/homewatt/homewatt/internal/auth/service"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.New),
	fx.Provide(service.New),
)
