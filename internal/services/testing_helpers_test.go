package services

import (
	"time"

	"go.uber.org/zap"

	"tripweaver/internal/providers"
	"tripweaver/pkg/utils"
)

func testConfig() *utils.Config {
	return &utils.Config{
		Port:                "8080",
		RoutingProvider:     "fixture",
		LLMPriority:         []string{"gemini", "openai"},
		RateLimitMax:        60,
		RateLimitWindow:     time.Minute,
		RequestDeadline:     60 * time.Second,
		MapTimeout:          5 * time.Second,
		LLMTimeout:          30 * time.Second,
		MaxRepairRounds:     3,
		FoodMinPerPersonDay: 80,
		SpringFestivalDate:  "2026-02-17",
		EnvSource:           "test",
	}
}

func testProviderSet() *providers.ProviderSet {
	return &providers.ProviderSet{
		Curated:           providers.NewCuratedProvider(),
		Route:             providers.NewFixtureRouteProvider(),
		LLM:               providers.NewTemplateClient(),
		PoiProviderName:   "curated",
		RouteProviderName: "fixture",
		LLMProviderName:   "template",
	}
}

func testLogger() *zap.Logger { return zap.NewNop() }

func testScheduler(cfg *utils.Config) *SchedulerService {
	return NewSchedulerService(providers.NewFixtureRouteProvider(), cfg, testLogger()).(*SchedulerService)
}
