package repositories

import (
	"context"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"tripweaver/internal/models/db_models"
)

type PoiEmbeddingRepository interface {
	SearchByVector(ctx context.Context, vector pgvector.Vector, city string, limit int) ([]db_models.PoiEmbedding, error)
	Create(ctx context.Context, embedding db_models.PoiEmbedding) error
}

type poiEmbeddingRepository struct {
	db *gorm.DB
}

func NewPoiEmbeddingRepository(db *gorm.DB) PoiEmbeddingRepository {
	return &poiEmbeddingRepository{db: db}
}

// SearchByVector returns the closest POI embeddings for a city above a 0.7
// cosine-similarity floor.
func (r *poiEmbeddingRepository) SearchByVector(ctx context.Context, vector pgvector.Vector, city string, limit int) ([]db_models.PoiEmbedding, error) {
	if limit <= 0 {
		limit = 15
	}
	var results []db_models.PoiEmbedding
	query := `
        SELECT * FROM poi_embeddings
        WHERE city = $2 AND (1 - (embedding <=> $1)) > 0.7
        ORDER BY embedding <=> $1
        LIMIT $3
    `
	err := r.db.WithContext(ctx).Raw(query, vector.String(), city, limit).Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *poiEmbeddingRepository) Create(ctx context.Context, embedding db_models.PoiEmbedding) error {
	return r.db.WithContext(ctx).Create(&embedding).Error
}
