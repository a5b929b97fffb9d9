package infra

import (
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"tripweaver/internal/models/db_models"
)

const schemaVersion = 1

// InitPostgresql opens the connection pool and applies the additive schema.
// Returns nil when no POSTGRES_URL is configured; callers fall back to the
// in-memory stores.
func InitPostgresql(dsn string, log *zap.Logger) *gorm.DB {
	if dsn == "" {
		log.Info("no POSTGRES_URL configured, persistence disabled")
		return nil
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Error("error connecting to database", zap.Error(err))
		return nil
	}

	if err := db.AutoMigrate(
		&db_models.Session{},
		&db_models.PlanRecord{},
		&db_models.PoiEmbedding{},
		&db_models.SchemaMigration{},
	); err != nil {
		log.Error("migration failed", zap.Error(err))
		return nil
	}
	db.Where(db_models.SchemaMigration{Version: schemaVersion}).
		FirstOrCreate(&db_models.SchemaMigration{Version: schemaVersion, AppliedAt: time.Now().Unix()})

	return db
}

func ClosePostgresql(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("error getting database instance", zap.Error(err))
		return
	}
	if err := sqlDB.Close(); err != nil {
		log.Warn("error closing database connection", zap.Error(err))
	}
}
