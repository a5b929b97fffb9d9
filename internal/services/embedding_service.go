package services

import (
	"context"

	"github.com/pgvector/pgvector-go"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"tripweaver/internal/models/domain_models"
	"tripweaver/internal/repositories"
)

// EmbeddingServiceInterface surfaces vector-similarity POI lookup. Only active
// when both Postgres and an OpenAI key are configured; a nil service disables
// the boost.
type EmbeddingServiceInterface interface {
	SimilarPoiIDs(ctx context.Context, query, city string) ([]string, error)
}

type EmbeddingService struct {
	client *openai.Client
	repo   repositories.PoiEmbeddingRepository
	logger *zap.Logger
}

func NewEmbeddingService(apiKey string, repo repositories.PoiEmbeddingRepository, logger *zap.Logger) EmbeddingServiceInterface {
	if apiKey == "" || repo == nil {
		return nil
	}
	return &EmbeddingService{client: openai.NewClient(apiKey), repo: repo, logger: logger}
}

func (s *EmbeddingService) SimilarPoiIDs(ctx context.Context, query, city string) ([]string, error) {
	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{query},
		Model: openai.SmallEmbedding3,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}

	vector := pgvector.NewVector(resp.Data[0].Embedding)
	rows, err := s.repo.SearchByVector(ctx, vector, domain_models.NormalizeName(city), 15)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.PoiID)
	}
	return ids, nil
}
