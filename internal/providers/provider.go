package providers

import (
	"context"

	"tripweaver/internal/models/domain_models"
)

// PoiProvider searches points of interest for a city. Variants: curated
// (in-binary dataset), maphttp (real map API). LLM-generated fallback POIs
// come through LLMClient.GeneratePOIs instead.
type PoiProvider interface {
	Name() string
	SearchPOIs(ctx context.Context, city string, themes []string, limit int) ([]domain_models.POI, error)
}

// RouteLeg is one computed travel leg between two POIs.
type RouteLeg struct {
	Minutes    float64
	DistanceKm float64
	// Confidence is 1.0 for realtime routing, 0.5 for fixture results.
	Confidence float64
}

// RouteProvider computes travel legs. Variants: real (map API), fixture
// (haversine at mode speed).
type RouteProvider interface {
	Name() string
	RouteBetween(ctx context.Context, fromLat, fromLon, toLat, toLon float64, mode string) (RouteLeg, error)
}

// TripParse is the structured result of an LLM-guided intake parse.
type TripParse struct {
	City          string   `json:"city"`
	Days          int      `json:"days"`
	DateStart     string   `json:"date_start"`
	DateEnd       string   `json:"date_end"`
	DailyBudget   float64  `json:"daily_budget"`
	TransportMode string   `json:"transport_mode"`
	Pace          string   `json:"pace"`
	MustVisit     []string `json:"must_visit"`
	Avoid         []string `json:"avoid"`
	TravelersType string   `json:"travelers_type"`
	Themes        []string `json:"themes"`
	Dietary       []string `json:"dietary"`
}

// LLMClient is the generation capability used by intake, clarify and the
// retriever fallback.
type LLMClient interface {
	Name() string
	ParseTrip(ctx context.Context, message string) (*TripParse, error)
	PhraseQuestions(ctx context.Context, missingFields []string) ([]string, error)
	GeneratePOIs(ctx context.Context, city string, themes []string, count int) ([]domain_models.POI, error)
}
