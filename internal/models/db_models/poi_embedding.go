package db_models

import (
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

// PoiEmbedding backs similarity search over POI descriptions when Postgres is
// configured.
type PoiEmbedding struct {
	PoiID       string `gorm:"primaryKey;column:poi_id"`
	Name        string
	City        string `gorm:"index"`
	Description string
	Themes      pq.StringArray  `gorm:"type:text[]"`
	Embedding   pgvector.Vector `gorm:"type:vector(1536)"`
	CreatedAt   time.Time       `gorm:"autoCreateTime"`
}
