package voucher

import (
	"github.com/smallbiznis/debtbook/internal/voucher/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("voucher.repository",
	fx.Provide(repository.Provide),
)
