package services

import (
	"tripweaver/internal/models/domain_models"
	"tripweaver/internal/providers"
	"tripweaver/pkg/utils"
)

// TrustServiceInterface annotates an itinerary with provenance-derived
// confidence and emits the run fingerprint.
type TrustServiceInterface interface {
	Score(itinerary *domain_models.Itinerary, repairRounds int)
	Fingerprint(traceID string) domain_models.RunFingerprint
}

type TrustService struct {
	set *providers.ProviderSet
	cfg *utils.Config
}

func NewTrustService(set *providers.ProviderSet, cfg *utils.Config) TrustServiceInterface {
	return &TrustService{set: set, cfg: cfg}
}

// Score tallies fact provenance over every scheduled POI and computes the
// confidence score and degrade level. Verified facts never downgrade: the
// tally reads the recorded source of each attribute as it entered the pool.
func (s *TrustService) Score(itinerary *domain_models.Itinerary, repairRounds int) {
	totalAttrs := 0
	verifiedOrCurated := 0
	fallback := 0

	seen := make(map[string]bool)
	for _, day := range itinerary.Days {
		for _, item := range day.Items {
			if item.PoiID == "" || seen[item.PoiID] {
				continue
			}
			seen[item.PoiID] = true
			poi, ok := itinerary.Pool[item.PoiID]
			if !ok {
				continue
			}
			for _, src := range poi.FactSources {
				totalAttrs++
				switch src {
				case domain_models.ProvenanceVerified, domain_models.ProvenanceCurated:
					verifiedOrCurated++
				case domain_models.ProvenanceFallback:
					fallback++
				}
			}
		}
	}

	verifiedRatio := 0.0
	fallbackRate := 0.0
	if totalAttrs > 0 {
		verifiedRatio = float64(verifiedOrCurated) / float64(totalAttrs)
		fallbackRate = float64(fallback) / float64(totalAttrs)
	}

	routing := itinerary.RoutingConfidence
	score := 0.6*verifiedRatio + 0.3*(1-fallbackRate) + 0.1*routing
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}

	itinerary.ConfidenceScore = score
	itinerary.ConfidenceBreakdown = domain_models.ConfidenceBreakdown{
		VerifiedFactRatio: verifiedRatio,
		FallbackRate:      fallbackRate,
		RoutingConfidence: routing,
	}
	itinerary.DegradeLevel = s.degradeLevel(score, repairRounds)
}

func (s *TrustService) degradeLevel(score float64, repairRounds int) domain_models.DegradeLevel {
	var byScore domain_models.DegradeLevel
	switch {
	case s.set.Realtime() && score >= 0.85:
		byScore = domain_models.DegradeL0
	case score >= 0.7:
		byScore = domain_models.DegradeL1
	case score >= 0.5:
		byScore = domain_models.DegradeL2
	default:
		byScore = domain_models.DegradeL3
	}

	// Consumed repair rounds elevate the level floor.
	byRepair := domain_models.DegradeL0
	switch {
	case repairRounds >= 3:
		byRepair = domain_models.DegradeL3
	case repairRounds == 2:
		byRepair = domain_models.DegradeL2
	case repairRounds == 1:
		byRepair = domain_models.DegradeL1
	}

	if degradeOrdinal(byRepair) > degradeOrdinal(byScore) {
		return byRepair
	}
	return byScore
}

func degradeOrdinal(l domain_models.DegradeLevel) int {
	switch l {
	case domain_models.DegradeL1:
		return 1
	case domain_models.DegradeL2:
		return 2
	case domain_models.DegradeL3:
		return 3
	default:
		return 0
	}
}

func (s *TrustService) Fingerprint(traceID string) domain_models.RunFingerprint {
	mode := domain_models.RunModeDegraded
	if s.set.Realtime() {
		mode = domain_models.RunModeRealtime
	}
	return domain_models.RunFingerprint{
		RunMode:            mode,
		PoiProvider:        s.set.PoiProviderName,
		RouteProvider:      s.set.RouteProviderName,
		LLMProvider:        s.set.LLMProviderName,
		StrictExternalData: s.cfg.StrictExternalData,
		EnvSource:          s.cfg.EnvSource,
		TraceID:            traceID,
	}
}
