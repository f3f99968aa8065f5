package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/smallbiznis/debtbook/internal/clock"
	"github.com/smallbiznis/debtbook/internal/config"
	"github.com/smallbiznis/debtbook/internal/ledger"
	"github.com/smallbiznis/debtbook/internal/migration"
	"github.com/smallbiznis/debtbook/internal/observability"
	"github.com/smallbiznis/debtbook/internal/order"
	"github.com/smallbiznis/debtbook/internal/partner"
	"github.com/smallbiznis/debtbook/internal/reconcile"
	"github.com/smallbiznis/debtbook/internal/server"
	"github.com/smallbiznis/debtbook/internal/voucher"
	"github.com/smallbiznis/debtbook/pkg/db"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Functional domains
		partner.Module,
		order.Module,
		voucher.Module,
		ledger.Module,
		reconcile.Module,

		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
