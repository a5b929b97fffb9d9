package planner_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"tripweaver/internal/providers"
	"tripweaver/internal/repositories"
	"tripweaver/internal/services"
	"tripweaver/pkg/utils"
)

var Module = fx.Provide(
	provideIntake,
	provideClarify,
	provideEmbedding,
	provideRetriever,
	provideScheduler,
	services.NewValidatorService,
	provideRepair,
	provideTrust,
	services.NewMetricsService,
	services.NewOrchestratorService,
)

func provideIntake(set *providers.ProviderSet, cfg *utils.Config, log *zap.Logger) services.IntakeServiceInterface {
	return services.NewIntakeService(set.LLM, cfg, log)
}

func provideClarify(set *providers.ProviderSet, log *zap.Logger) services.ClarifyServiceInterface {
	return services.NewClarifyService(set.LLM, log)
}

func provideEmbedding(cfg *utils.Config, repo repositories.PoiEmbeddingRepository, log *zap.Logger) services.EmbeddingServiceInterface {
	return services.NewEmbeddingService(cfg.OpenAIAPIKey, repo, log)
}

func provideRetriever(set *providers.ProviderSet, cfg *utils.Config, embedding services.EmbeddingServiceInterface, log *zap.Logger) services.RetrieverServiceInterface {
	return services.NewRetrieverService(set, cfg, embedding, log)
}

func provideScheduler(set *providers.ProviderSet, cfg *utils.Config, log *zap.Logger) services.SchedulerServiceInterface {
	return services.NewSchedulerService(set.Route, cfg, log)
}

func provideRepair(scheduler services.SchedulerServiceInterface, log *zap.Logger) services.RepairServiceInterface {
	return services.NewRepairService(scheduler, log)
}

func provideTrust(set *providers.ProviderSet, cfg *utils.Config) services.TrustServiceInterface {
	return services.NewTrustService(set, cfg)
}
