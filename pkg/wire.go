//go:build wireinject
// +build wireinject

package main

import (
	"game-soul-technology/quickqueue/quickqueue-server/pkg/auth"
	"game-soul-technology/quickqueue/quickqueue-server/pkg/client"
	"game-soul-technology/quickqueue/quickqueue-server/pkg/config"
	"game-soul-technology/quickqueue/quickqueue-server/pkg/infra"
	"game-soul-technology/quickqueue/quickqueue-server/pkg/queue"

	"github.com/google/wire"
)

func Setup() (*Server, error) {
	wire.Build(wire.NewSet(
		ProvideServer,
		ProvideApplication,
		auth.ProvideAdminTokens,
		client.ProvideHub,
		queue.ProvideEngine,
		queue.ProvideStats,
		config.ProvideConfig,
		config.ProvideEnv,
		config.ProvideQueueSettings,
		infra.ProvideRedisClient,
		infra.ProvideLoggerFactory,
	))
	return nil, nil
}
