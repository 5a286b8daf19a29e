package db_fx

import (
	"go.uber.org/fx"
	"gorm.io/gorm"

	"isoko/internal/infra"
)

var Module = fx.Provide(
	provideDB)

func provideDB() *gorm.DB {
	db := infra.InitPostgresql()
	infra.Migrate(db)
	return db
}
