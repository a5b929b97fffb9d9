package db_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tripweaver/internal/infra"
	"tripweaver/internal/repositories"
	"tripweaver/pkg/utils"
)

var Module = fx.Provide(
	provideDB,
	provideSessionRepo,
	providePlanRepo,
	provideEmbeddingRepo,
)

func provideDB(cfg *utils.Config, log *zap.Logger) *gorm.DB {
	return infra.InitPostgresql(cfg.PostgresURL, log)
}

func provideSessionRepo(db *gorm.DB) repositories.SessionRepository {
	if db == nil {
		return nil
	}
	return repositories.NewSessionRepository(db)
}

func providePlanRepo(db *gorm.DB) repositories.PlanRepository {
	if db == nil {
		return nil
	}
	return repositories.NewPlanRepository(db)
}

func provideEmbeddingRepo(db *gorm.DB) repositories.PoiEmbeddingRepository {
	if db == nil {
		return nil
	}
	return repositories.NewPoiEmbeddingRepository(db)
}
