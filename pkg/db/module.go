package db

import (
	"context"
	"time"

	"github.com/homewatt/homewatt/internal/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	gormprometheus "gorm.io/plugin/prometheus"
)

// Module provides the shared *gorm.DB connection.
var Module = fx.Module("db",
	fx.Provide(New),
)

// New opens the database connection described by cfg and registers
// lifecycle hooks to close it on shutdown.
func New(lc fx.Lifecycle, cfg config.Config, log *zap.Logger, gl gormlogger.Interface) (*gorm.DB, error) {
	dialector, err := Dialect(cfg)
	if err != nil {
		return nil, err
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gl,
	})
	if err != nil {
		return nil, err
	}

	if err := db.Use(otelgorm.NewPlugin()); err != nil {
		return nil, err
	}
	if cfg.DBType != "sqlite" {
		if err := db.Use(gormprometheus.New(gormprometheus.Config{
			DBName:          cfg.DBName,
			RefreshInterval: 15,
		})); err != nil {
			return nil, err
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxIdleConns(cfg.DBMaxIdleConn)
	sqlDB.SetMaxOpenConns(cfg.DBMaxOpenConn)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.DBConnMaxLifetime) * time.Second)
	sqlDB.SetConnMaxIdleTime(time.Duration(cfg.DBConnMaxIdleTime) * time.Second)

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := sqlDB.PingContext(ctx); err != nil {
				return err
			}
			log.Info("database connected",
				zap.String("type", cfg.DBType),
				zap.String("name", cfg.DBName),
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			_ = ctx
			log.Info("closing database connection")
			return sqlDB.Close()
		},
	})

	return db, nil
}
