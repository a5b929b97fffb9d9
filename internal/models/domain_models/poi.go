package domain_models

import "strings"

// Provenance tags where a POI attribute came from.
type Provenance string

const (
	ProvenanceVerified  Provenance = "verified"
	ProvenanceCurated   Provenance = "curated"
	ProvenanceHeuristic Provenance = "heuristic"
	ProvenanceFallback  Provenance = "fallback"
	ProvenanceUnknown   Provenance = "unknown"
)

// ProvenanceRank orders sources for fusion: verified > curated > heuristic >
// fallback > unknown. Fusion must never downgrade a verified fact.
func ProvenanceRank(p Provenance) int {
	switch p {
	case ProvenanceVerified:
		return 4
	case ProvenanceCurated:
		return 3
	case ProvenanceHeuristic:
		return 2
	case ProvenanceFallback:
		return 1
	default:
		return 0
	}
}

type POI struct {
	ID                  string                `json:"id"`
	Name                string                `json:"name"`
	City                string                `json:"city"`
	Lat                 float64               `json:"lat"`
	Lon                 float64               `json:"lon"`
	Themes              []string              `json:"themes"`
	TypicalDuration     float64               `json:"typical_duration"` // hours
	Cost                float64               `json:"cost"`
	Indoor              bool                  `json:"indoor"`
	TicketPrice         float64               `json:"ticket_price"`
	ReservationRequired bool                  `json:"reservation_required"`
	ClosedRules         string                `json:"closed_rules,omitempty"` // e.g. "monday", "2026-02-17"
	OpenHours           string                `json:"open_hours,omitempty"`   // "09:00-18:00"
	Description         string                `json:"description,omitempty"`
	Popularity          float64               `json:"popularity"`
	Pinned              bool                  `json:"pinned,omitempty"`
	FactSources         map[string]Provenance `json:"fact_sources"`
}

// NormalizeName is the dedupe key used when merging pools across providers.
func NormalizeName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	return strings.Join(strings.Fields(s), " ")
}

func (p POI) HasTheme(theme string) bool {
	for _, t := range p.Themes {
		if strings.EqualFold(t, theme) {
			return true
		}
	}
	return false
}

// SourceFor returns the recorded provenance for one attribute, defaulting to
// unknown when untagged.
func (p POI) SourceFor(attr string) Provenance {
	if p.FactSources == nil {
		return ProvenanceUnknown
	}
	if src, ok := p.FactSources[attr]; ok {
		return src
	}
	return ProvenanceUnknown
}

// POIArena stores retrieved POIs by id. Schedule items reference ids only, so
// itinerary copies stay cheap and acyclic.
type POIArena struct {
	pois  map[string]POI
	order []string
}

func NewPOIArena() *POIArena {
	return &POIArena{pois: make(map[string]POI)}
}

func (a *POIArena) Put(poi POI) {
	if _, exists := a.pois[poi.ID]; !exists {
		a.order = append(a.order, poi.ID)
	}
	a.pois[poi.ID] = poi
}

func (a *POIArena) Get(id string) (POI, bool) {
	p, ok := a.pois[id]
	return p, ok
}

func (a *POIArena) Len() int { return len(a.pois) }

// All returns POIs in insertion order.
func (a *POIArena) All() []POI {
	out := make([]POI, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.pois[id])
	}
	return out
}
