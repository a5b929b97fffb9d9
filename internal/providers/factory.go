package providers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"tripweaver/pkg/memcache"
	"tripweaver/pkg/utils"
)

// ProviderSet is the concrete provider selection for this process, resolved
// once at startup from configuration.
type ProviderSet struct {
	Curated *CuratedProvider
	Map     *MapClient // nil without an API key
	Route   RouteProvider
	LLM     LLMClient

	PoiProviderName   string
	RouteProviderName string
	LLMProviderName   string
}

// NewProviderSet wires providers from config. No runtime swapping: callers see
// a fixed set for the life of the process.
func NewProviderSet(cfg *utils.Config, log *zap.Logger) *ProviderSet {
	routeCache := memcache.NewTTLCache(10000, time.Hour)
	poiCache := memcache.NewTTLCache(10000, time.Hour)

	set := &ProviderSet{
		Curated:         NewCuratedProvider(),
		PoiProviderName: "curated",
	}

	if cfg.MapAPIKey != "" && cfg.ResolveRoutingProvider() == "real" {
		set.Map = NewMapClient(cfg.MapAPIKey, routeCache, poiCache)
		set.Route = set.Map
		set.PoiProviderName = set.Map.Name()
		set.RouteProviderName = set.Map.Name()
	} else {
		set.Route = NewFixtureRouteProvider()
		set.RouteProviderName = "fixture"
	}

	switch cfg.ResolveLLMProvider() {
	case "gemini":
		client, err := NewGeminiClient(context.Background(), cfg.GeminiAPIKey, "")
		if err != nil {
			log.Warn("gemini client init failed, falling back to template", zap.Error(err))
			set.LLM = NewTemplateClient()
		} else {
			set.LLM = client
		}
	case "openai":
		set.LLM = NewOpenAIClient(cfg.OpenAIAPIKey, "")
	default:
		set.LLM = NewTemplateClient()
	}
	set.LLMProviderName = set.LLM.Name()

	log.Info("providers resolved",
		zap.String("poi", set.PoiProviderName),
		zap.String("route", set.RouteProviderName),
		zap.String("llm", set.LLMProviderName),
		zap.Bool("strict_external_data", cfg.StrictExternalData))
	return set
}

// Realtime reports whether any realtime external provider backs this set.
func (s *ProviderSet) Realtime() bool {
	return s.Map != nil
}
