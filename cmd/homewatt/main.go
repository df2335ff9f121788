package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/homewatt/homewatt/internal/clock"
	"github.com/homewatt/homewatt/internal/config"
	"github.com/homewatt/homewatt/internal/migration"
	"github.com/homewatt/homewatt/internal/observability"
	"github.com/homewatt/homewatt/internal/server"
	"github.com/homewatt/homewatt/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}
