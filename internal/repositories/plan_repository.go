package repositories

import (
	"context"

	"gorm.io/gorm"

	"tripweaver/internal/models/db_models"
)

type PlanRepository interface {
	Create(ctx context.Context, record *db_models.PlanRecord) error
	GetByRequestID(ctx context.Context, requestID string) (*db_models.PlanRecord, error)
	ListBySession(ctx context.Context, sessionID string, limit int) ([]db_models.PlanRecord, error)
}

type planRepository struct {
	db *gorm.DB
}

func NewPlanRepository(db *gorm.DB) PlanRepository {
	return &planRepository{db: db}
}

func (r *planRepository) Create(ctx context.Context, record *db_models.PlanRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *planRepository) GetByRequestID(ctx context.Context, requestID string) (*db_models.PlanRecord, error) {
	var record db_models.PlanRecord
	err := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&record).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *planRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]db_models.PlanRecord, error) {
	var records []db_models.PlanRecord
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).
		Order("created_at desc").Limit(limit).Find(&records).Error
	return records, err
}
