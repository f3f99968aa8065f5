package reconcile

import (
	"go.uber.org/fx"

	"github.com/smallbiznis/debtbook/internal/reconcile/lock"
	"github.com/smallbiznis/debtbook/internal/reconcile/service"
)

var Module = fx.Module("reconcile.service",
	fx.Provide(lock.New),
	fx.Provide(service.New),
)
