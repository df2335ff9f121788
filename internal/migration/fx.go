package migration

import (
	alertdomain "github.com/homewatt/homewatt/internal/alert/domain"
	authdomain "github.com/homewatt/homewatt/internal/auth/domain"
	"github.com/homewatt/homewatt/internal/config"
	goaldomain "github.com/homewatt/homewatt/internal/goal/domain"
	householddomain "github.com/homewatt/homewatt/internal/household/domain"
	meterdomain "github.com/homewatt/homewatt/internal/meter/domain"
	readingdomain "github.com/homewatt/homewatt/internal/reading/domain"
	"github.com/homewatt/homewatt/internal/seed"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// The versioned migrations are written for Postgres; other
			// dialects get their schema from the model definitions.
			if err := conn.AutoMigrate(
				&authdomain.User{},
				&authdomain.Session{},
				&householddomain.Household{},
				&householddomain.Member{},
				&meterdomain.Meter{},
				&readingdomain.Reading{},
				&goaldomain.Goal{},
				&alertdomain.Alert{},
			); err != nil {
				return err
			}
		}

		if cfg.Bootstrap.EnsureDefaultAdmin {
			if err := seed.EnsureDefaultAdmin(conn); err != nil {
				return err
			}
		}
		if cfg.Bootstrap.SeedDemoHousehold {
			if err := seed.EnsureDemoHousehold(conn); err != nil {
				return err
			}
		}
		return nil
	}),
)
