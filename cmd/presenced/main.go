package main

import (
	"github.com/attendkit/presence/internal/attendance"
	"github.com/attendkit/presence/internal/bridge"
	"github.com/attendkit/presence/internal/cachestore"
	"github.com/attendkit/presence/internal/cachestore/pruner"
	"github.com/attendkit/presence/internal/capture"
	"github.com/attendkit/presence/internal/clock"
	"github.com/attendkit/presence/internal/config"
	"github.com/attendkit/presence/internal/logger"
	"github.com/attendkit/presence/internal/observability"
	"github.com/attendkit/presence/internal/remote"
	"github.com/attendkit/presence/internal/server"
	"github.com/attendkit/presence/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

var version = "dev"

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		observability.Module,
		clock.Module,
		fx.Provide(func() *snowflake.Node {
			node, err := snowflake.NewNode(1)
			if err != nil {
				panic(err)
			}
			return node
		}),
		db.Module,

		cachestore.Module,
		pruner.Module,
		remote.Module,
		attendance.Module,
		capture.Module,
		bridge.Module,

		fx.Provide(server.NewEngine),
		fx.Provide(server.NewServer),
		fx.Invoke(func(s *server.Server) {
			s.RegisterAPIRoutes()
		}),
		fx.Invoke(server.RunHTTP),
	)
	app.Run()
}
