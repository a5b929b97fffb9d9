package providers

import (
	"context"
	"fmt"

	"tripweaver/internal/models/domain_models"
)

// TemplateClient is the no-key fallback: fixed question phrasings, no trip
// parsing (regex intake covers that path), and synthetic fallback POIs laid
// out around the city center when the pool runs short.
type TemplateClient struct{}

func NewTemplateClient() *TemplateClient { return &TemplateClient{} }

func (c *TemplateClient) Name() string { return "template" }

func (c *TemplateClient) ParseTrip(ctx context.Context, message string) (*TripParse, error) {
	return nil, fmt.Errorf("template client does not parse")
}

var templateQuestions = map[string]string{
	"city":   "Which city would you like to visit?",
	"days":   "How many days will your trip last?",
	"dates":  "Do you have travel dates in mind?",
	"budget": "What is your daily budget?",
	"themes": "Any themes you care about, like history or food?",
}

func (c *TemplateClient) PhraseQuestions(ctx context.Context, missingFields []string) ([]string, error) {
	questions := make([]string, 0, len(missingFields))
	for _, field := range missingFields {
		if q, ok := templateQuestions[field]; ok {
			questions = append(questions, q)
		}
	}
	return questions, nil
}

// city-center anchors for synthetic POIs; unlisted cities get a zero origin.
var cityAnchors = map[string][2]float64{
	"beijing":  {39.9042, 116.4074},
	"shanghai": {31.2304, 121.4737},
	"chengdu":  {30.5728, 104.0668},
	"hangzhou": {30.2741, 120.1551},
}

func (c *TemplateClient) GeneratePOIs(ctx context.Context, city string, themes []string, count int) ([]domain_models.POI, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	norm := domain_models.NormalizeName(city)
	anchor := cityAnchors[norm]

	theme := "culture"
	if len(themes) > 0 {
		theme = themes[0]
	}

	pois := make([]domain_models.POI, 0, count)
	for i := 0; i < count; i++ {
		pois = append(pois, domain_models.POI{
			ID:              fmt.Sprintf("tpl-%s-%d", norm, i),
			Name:            fmt.Sprintf("%s spot %d in %s", theme, i+1, city),
			City:            norm,
			Lat:             anchor[0] + float64(i)*0.004,
			Lon:             anchor[1] + float64(i%3)*0.004,
			Themes:          []string{theme},
			TypicalDuration: 1.5,
			Indoor:          i%2 == 0,
			OpenHours:       "09:00-18:00",
			Description:     "Placeholder suggestion generated without a live provider.",
			Popularity:      0.2,
			FactSources: map[string]domain_models.Provenance{
				"name":             domain_models.ProvenanceFallback,
				"location":         domain_models.ProvenanceFallback,
				"open_hours":       domain_models.ProvenanceFallback,
				"typical_duration": domain_models.ProvenanceFallback,
				"cost":             domain_models.ProvenanceFallback,
			},
		})
	}
	return pois, nil
}
