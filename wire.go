//go:build wireinject

package mjtimeline

import (
	"github.com/bradfitz/gomemcache/memcache"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"

	"github.com/totegamma/mjtimeline/client"
	"github.com/totegamma/mjtimeline/core"

	"github.com/totegamma/mjtimeline/x/gateway"
	"github.com/totegamma/mjtimeline/x/identity"
	"github.com/totegamma/mjtimeline/x/settings"
	"github.com/totegamma/mjtimeline/x/timeline"
	"github.com/totegamma/mjtimeline/x/tracker"
)

// Lv0
var identityServiceProvider = wire.NewSet(identity.NewService, identity.NewRepository)
var gatewayServiceProvider = wire.NewSet(gateway.NewService)
var settingsServiceProvider = wire.NewSet(settings.NewService, settings.NewRepository)

// Lv1
var timelineServiceProvider = wire.NewSet(timeline.NewService, tracker.New, SetupGatewayService, SetupIdentityService)

// -----------

func SetupGatewayService(client client.Client, wallet core.Wallet, config core.Config) core.GatewayService {
	wire.Build(gatewayServiceProvider)
	return nil
}

func SetupIdentityService(mc *memcache.Client, client client.Client) core.IdentityService {
	wire.Build(identityServiceProvider)
	return nil
}

func SetupSettingsService(rdb *redis.Client) core.SettingsService {
	wire.Build(settingsServiceProvider)
	return nil
}

func SetupTimelineService(mc *memcache.Client, client client.Client, wallet core.Wallet, config core.Config) timeline.Service {
	wire.Build(timelineServiceProvider)
	return nil
}
