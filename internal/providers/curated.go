package providers

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"tripweaver/internal/models/domain_models"
)

//go:embed data/pois.json
var curatedDataset []byte

// CuratedProvider serves the in-binary POI dataset. Read-only after startup,
// shared freely across requests.
type CuratedProvider struct {
	once   sync.Once
	byCity map[string][]domain_models.POI
	err    error
}

func NewCuratedProvider() *CuratedProvider {
	return &CuratedProvider{}
}

func (p *CuratedProvider) Name() string { return "curated" }

func (p *CuratedProvider) load() {
	var entries []domain_models.POI
	if err := json.Unmarshal(curatedDataset, &entries); err != nil {
		p.err = fmt.Errorf("curated dataset: %w", err)
		return
	}
	p.byCity = make(map[string][]domain_models.POI)
	for _, poi := range entries {
		if poi.FactSources == nil {
			poi.FactSources = map[string]domain_models.Provenance{}
		}
		// Dataset entries default to curated for untagged attributes.
		for _, attr := range []string{"name", "location", "open_hours", "typical_duration", "cost", "closed_rules", "description"} {
			if _, ok := poi.FactSources[attr]; !ok {
				poi.FactSources[attr] = domain_models.ProvenanceCurated
			}
		}
		key := domain_models.NormalizeName(poi.City)
		p.byCity[key] = append(p.byCity[key], poi)
	}
}

func (p *CuratedProvider) SearchPOIs(ctx context.Context, city string, themes []string, limit int) ([]domain_models.POI, error) {
	p.once.Do(p.load)
	if p.err != nil {
		return nil, p.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pois := p.byCity[domain_models.NormalizeName(city)]
	if len(pois) == 0 {
		return nil, nil
	}

	// Theme-matching POIs first, dataset order otherwise.
	if len(themes) > 0 {
		matched := make([]domain_models.POI, 0, len(pois))
		rest := make([]domain_models.POI, 0, len(pois))
		for _, poi := range pois {
			if matchesAnyTheme(poi, themes) {
				matched = append(matched, poi)
			} else {
				rest = append(rest, poi)
			}
		}
		pois = append(matched, rest...)
	}

	if limit > 0 && len(pois) > limit {
		pois = pois[:limit]
	}
	out := make([]domain_models.POI, len(pois))
	copy(out, pois)
	return out, nil
}

func matchesAnyTheme(poi domain_models.POI, themes []string) bool {
	for _, t := range themes {
		if poi.HasTheme(strings.TrimSpace(t)) {
			return true
		}
	}
	return false
}
