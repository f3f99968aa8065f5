package migration

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/debtbook/internal/config"
	"github.com/smallbiznis/debtbook/internal/seed"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, genID *snowflake.Node) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			if err := AutoMigrate(conn); err != nil {
				return err
			}
		}

		if cfg.SeedDemo {
			return seed.EnsureDemoData(conn, genID)
		}
		return nil
	}),
)
