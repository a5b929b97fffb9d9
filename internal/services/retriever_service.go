package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"tripweaver/internal/models/domain_models"
	"tripweaver/internal/providers"
	"tripweaver/pkg/utils"
)

// RetrieverResult carries the ranked candidate pool and the arena backing it.
type RetrieverResult struct {
	Arena  *domain_models.POIArena
	Ranked []domain_models.POI
}

type RetrieverServiceInterface interface {
	BuildPool(ctx context.Context, constraints domain_models.TripConstraints, profile domain_models.UserProfile) (*RetrieverResult, error)
}

type RetrieverService struct {
	set       *providers.ProviderSet
	cfg       *utils.Config
	embedding EmbeddingServiceInterface // nil without Postgres + OpenAI key
	logger    *zap.Logger
}

func NewRetrieverService(set *providers.ProviderSet, cfg *utils.Config, embedding EmbeddingServiceInterface, logger *zap.Logger) RetrieverServiceInterface {
	return &RetrieverService{set: set, cfg: cfg, embedding: embedding, logger: logger}
}

func (s *RetrieverService) BuildPool(ctx context.Context, constraints domain_models.TripConstraints, profile domain_models.UserProfile) (*RetrieverResult, error) {
	if s.cfg.StrictExternalData && s.set.Map == nil {
		return nil, utils.ErrProviderUnavailable
	}

	poolTarget := int(math.Ceil(float64(constraints.Days*domain_models.PaceMultiplier(constraints.Pace)) * 1.5))
	minPool := 2 * constraints.Days

	var (
		mu     sync.Mutex
		merged = make(map[string]domain_models.POI) // keyed by normalized name
	)
	absorb := func(pois []domain_models.POI) {
		mu.Lock()
		defer mu.Unlock()
		for _, poi := range pois {
			key := domain_models.NormalizeName(poi.Name)
			if existing, ok := merged[key]; ok {
				merged[key] = fusePOI(existing, poi)
			} else {
				merged[key] = poi
			}
		}
	}

	// Curated lookup and map search fan out; results joined before scheduling.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pois, err := s.set.Curated.SearchPOIs(gctx, constraints.City, profile.Themes, 0)
		if err != nil {
			return err
		}
		absorb(pois)
		return nil
	})
	if s.set.Map != nil {
		g.Go(func() error {
			var pois []domain_models.POI
			err := utils.CallWithRetry(gctx, s.cfg.MapTimeout, func(callCtx context.Context) error {
				var callErr error
				pois, callErr = s.set.Map.SearchPOIs(callCtx, constraints.City, profile.Themes, poolTarget*2)
				return callErr
			})
			if err != nil {
				if s.cfg.StrictExternalData {
					return utils.ErrProviderUnavailable
				}
				s.logger.Warn("map poi search failed, degrading to remaining sources", zap.Error(err))
				return nil
			}
			absorb(pois)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, utils.ErrDeadlineExceeded
		}
		return nil, err
	}

	// LLM generation only when the realtime and curated sources ran short.
	if len(merged) < minPool {
		need := minPool - len(merged)
		var generated []domain_models.POI
		err := utils.CallWithRetry(ctx, s.cfg.LLMTimeout, func(callCtx context.Context) error {
			var callErr error
			generated, callErr = s.set.LLM.GeneratePOIs(callCtx, constraints.City, profile.Themes, need+2)
			return callErr
		})
		if err != nil {
			s.logger.Warn("llm poi generation failed", zap.Error(err))
		} else {
			absorb(generated)
		}
	}

	pois := make([]domain_models.POI, 0, len(merged))
	for _, poi := range merged {
		pois = append(pois, poi)
	}

	pois = s.applyAvoidList(pois, constraints.Avoid)
	pois = s.pinMustVisit(pois, constraints)

	boosted := s.similarityBoost(ctx, constraints, profile, pois)

	sort.Slice(pois, func(i, j int) bool {
		si := s.score(pois[i], constraints, profile) + boosted[pois[i].ID]
		sj := s.score(pois[j], constraints, profile) + boosted[pois[j].ID]
		if si != sj {
			return si > sj
		}
		return pois[i].Name < pois[j].Name
	})

	// Pinned POIs always survive the pool cut.
	if len(pois) > poolTarget {
		kept := make([]domain_models.POI, 0, poolTarget)
		var overflowPinned []domain_models.POI
		for i, poi := range pois {
			if i < poolTarget {
				kept = append(kept, poi)
			} else if poi.Pinned {
				overflowPinned = append(overflowPinned, poi)
			}
		}
		pois = append(kept, overflowPinned...)
	}

	arena := domain_models.NewPOIArena()
	for _, poi := range pois {
		arena.Put(poi)
	}
	return &RetrieverResult{Arena: arena, Ranked: pois}, nil
}

// similarityBoost nudges vector-similar candidates up the ranking when the
// embedding store is available.
func (s *RetrieverService) similarityBoost(ctx context.Context, constraints domain_models.TripConstraints, profile domain_models.UserProfile, pois []domain_models.POI) map[string]float64 {
	boost := make(map[string]float64)
	if s.embedding == nil || len(profile.Themes) == 0 {
		return boost
	}
	ids, err := s.embedding.SimilarPoiIDs(ctx, strings.Join(profile.Themes, " "), constraints.City)
	if err != nil {
		s.logger.Warn("embedding similarity lookup failed", zap.Error(err))
		return boost
	}
	for _, id := range ids {
		boost[id] = 0.5
	}
	return boost
}

// score ranks candidates: theme match dominates, indoor options get a weather
// hedge, cost counts against a tight budget.
func (s *RetrieverService) score(poi domain_models.POI, constraints domain_models.TripConstraints, profile domain_models.UserProfile) float64 {
	themeMatch := 0.0
	if len(profile.Themes) > 0 {
		matched := 0
		for _, theme := range profile.Themes {
			if poi.HasTheme(theme) {
				matched++
			}
		}
		themeMatch = float64(matched) / float64(len(profile.Themes))
	} else {
		themeMatch = 0.5
	}

	indoorBonus := 0.0
	if poi.Indoor {
		indoorBonus = 1.0
	}

	costPenalty := 0.0
	if constraints.DailyBudget > 0 {
		costPenalty = poi.Cost / constraints.DailyBudget
	}

	return themeMatch*3 + indoorBonus*1 + poi.Popularity*1 - costPenalty*0.5
}

func (s *RetrieverService) applyAvoidList(pois []domain_models.POI, avoid []string) []domain_models.POI {
	if len(avoid) == 0 {
		return pois
	}
	out := pois[:0]
	for _, poi := range pois {
		skip := false
		for _, name := range avoid {
			if strings.Contains(domain_models.NormalizeName(poi.Name), domain_models.NormalizeName(name)) {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, poi)
		}
	}
	return out
}

// pinMustVisit marks requested POIs pinned, synthesizing a fallback entry when
// no source knows the name.
func (s *RetrieverService) pinMustVisit(pois []domain_models.POI, constraints domain_models.TripConstraints) []domain_models.POI {
	for _, name := range constraints.MustVisit {
		norm := domain_models.NormalizeName(name)
		found := false
		for i := range pois {
			if strings.Contains(domain_models.NormalizeName(pois[i].Name), norm) {
				pois[i].Pinned = true
				found = true
				break
			}
		}
		if found {
			continue
		}
		pois = append(pois, domain_models.POI{
			ID:              fmt.Sprintf("pin-%s", strings.ReplaceAll(norm, " ", "-")),
			Name:            name,
			City:            domain_models.NormalizeName(constraints.City),
			TypicalDuration: 2.0,
			OpenHours:       "09:00-18:00",
			Pinned:          true,
			Popularity:      0.5,
			FactSources: map[string]domain_models.Provenance{
				"name":             domain_models.ProvenanceFallback,
				"location":         domain_models.ProvenanceFallback,
				"open_hours":       domain_models.ProvenanceFallback,
				"typical_duration": domain_models.ProvenanceFallback,
			},
		})
	}
	return pois
}

// fusePOI merges two records for the same place. Each attribute keeps the
// value whose recorded provenance ranks higher; themes union. Total and
// deterministic: ties keep the existing value.
func fusePOI(a, b domain_models.POI) domain_models.POI {
	out := a
	if out.FactSources == nil {
		out.FactSources = map[string]domain_models.Provenance{}
	}

	takeB := func(attr string) bool {
		return domain_models.ProvenanceRank(b.SourceFor(attr)) > domain_models.ProvenanceRank(a.SourceFor(attr))
	}
	if takeB("name") {
		out.Name = b.Name
		out.FactSources["name"] = b.SourceFor("name")
	}
	if takeB("location") {
		out.Lat, out.Lon = b.Lat, b.Lon
		out.FactSources["location"] = b.SourceFor("location")
	}
	if takeB("open_hours") && b.OpenHours != "" {
		out.OpenHours = b.OpenHours
		out.FactSources["open_hours"] = b.SourceFor("open_hours")
	}
	if takeB("typical_duration") && b.TypicalDuration > 0 {
		out.TypicalDuration = b.TypicalDuration
		out.FactSources["typical_duration"] = b.SourceFor("typical_duration")
	}
	if takeB("cost") {
		out.Cost, out.TicketPrice = b.Cost, b.TicketPrice
		out.FactSources["cost"] = b.SourceFor("cost")
	}
	if takeB("closed_rules") && b.ClosedRules != "" {
		out.ClosedRules = b.ClosedRules
		out.FactSources["closed_rules"] = b.SourceFor("closed_rules")
	}
	if takeB("description") && b.Description != "" {
		out.Description = b.Description
		out.FactSources["description"] = b.SourceFor("description")
	}

	out.Themes = mergeUnique(out.Themes, b.Themes)
	if b.Popularity > out.Popularity {
		out.Popularity = b.Popularity
	}
	out.Pinned = out.Pinned || b.Pinned
	out.Indoor = out.Indoor || b.Indoor
	out.ReservationRequired = out.ReservationRequired || b.ReservationRequired
	return out
}
