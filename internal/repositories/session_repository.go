package repositories

import (
	"context"

	"gorm.io/gorm"

	"tripweaver/internal/models/db_models"
)

type SessionRepository interface {
	Upsert(ctx context.Context, session *db_models.Session) error
	GetByID(ctx context.Context, id string) (*db_models.Session, error)
	List(ctx context.Context, limit int) ([]db_models.Session, error)
}

type sessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Upsert(ctx context.Context, session *db_models.Session) error {
	return r.db.WithContext(ctx).Save(session).Error
}

func (r *sessionRepository) GetByID(ctx context.Context, id string) (*db_models.Session, error) {
	var session db_models.Session
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&session).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

func (r *sessionRepository) List(ctx context.Context, limit int) ([]db_models.Session, error) {
	var sessions []db_models.Session
	err := r.db.WithContext(ctx).Order("updated_at desc").Limit(limit).Find(&sessions).Error
	return sessions, err
}
