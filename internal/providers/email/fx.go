package email

import (
	"github.com/homewatt/homewatt/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("providers.email",
	fx.Provide(NewFromConfig),
)

func NewFromConfig(cfg config.Config) Provider {
	if !cfg.Email.Enabled {
		return &NoOpProvider{}
	}
	return NewSMTP(Config{
		Host:     cfg.Email.SMTPHost,
		Port:     cfg.Email.SMTPPort,
		Username: cfg.Email.SMTPUsername,
		Password: cfg.Email.SMTPPassword,
		From:     cfg.Email.SMTPFrom,
	})
}
