//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/danishfareed/formgate/internal/api"
	"github.com/danishfareed/formgate/internal/crypto"
	"github.com/danishfareed/formgate/internal/database"
	"github.com/danishfareed/formgate/internal/delivery"
	"github.com/danishfareed/formgate/internal/guard"
	"github.com/danishfareed/formgate/internal/inbound"
	"github.com/danishfareed/formgate/internal/provider"
	"github.com/danishfareed/formgate/internal/ratelimit"
	"github.com/danishfareed/formgate/internal/retention"
	"github.com/danishfareed/formgate/internal/webhook"
)

var wireSet = wire.NewSet(
	wire.Struct(new(startCommand), "*"),

	api.WireSet,
	crypto.WireSet,
	database.WireSet,
	delivery.WireSet,
	guard.WireSet,
	inbound.WireSet,
	provider.WireSet,
	ratelimit.WireSet,
	retention.WireSet,
	webhook.WireSet,
)

func newStartCommand() (*startCommand, error) {
	panic(wire.Build(wireSet))
}
