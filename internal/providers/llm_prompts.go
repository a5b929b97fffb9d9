package providers

import (
	"encoding/json"
	"fmt"
	"strings"

	"tripweaver/internal/models/domain_models"
)

const tripParseSchema = `{
  "city": "string",
  "days": 3,
  "date_start": "2026-04-01",
  "date_end": "2026-04-03",
  "daily_budget": 600,
  "transport_mode": "walking|public_transit|taxi|driving",
  "pace": "relaxed|moderate|intensive",
  "must_visit": ["string"],
  "avoid": ["string"],
  "travelers_type": "solo|couple|family|friends|elderly",
  "themes": ["history", "food"],
  "dietary": ["string"]
}`

func buildParsePrompt(message string) string {
	var b strings.Builder
	b.WriteString("Extract travel constraints from the user message below.\n")
	b.WriteString("Return ONLY valid JSON matching this schema exactly; omit fields you cannot infer:\n")
	b.WriteString(tripParseSchema)
	b.WriteString("\n\nUser message: ")
	b.WriteString(message)
	b.WriteString("\n\nReturn JSON only. No comments, no markdown.")
	return b.String()
}

func buildStrictParsePrompt(message string) string {
	return "=== CRITICAL ===\nYou MUST return valid JSON only, nothing else.\n\n" + buildParsePrompt(message)
}

func buildQuestionPrompt(missingFields []string) string {
	return fmt.Sprintf(`The traveler's request is missing: %s.
Write one short clarifying question per missing field, friendly and specific.
Return ONLY a JSON array of strings, most important field first. No markdown.`,
		strings.Join(missingFields, ", "))
}

func buildPOIPrompt(city string, themes []string, count int) string {
	themeText := "general sightseeing"
	if len(themes) > 0 {
		themeText = strings.Join(themes, ", ")
	}
	return fmt.Sprintf(`List %d real points of interest in %s matching themes: %s.
Return ONLY a JSON array; each element:
{"name":"string","lat":0.0,"lon":0.0,"themes":["string"],"typical_duration":1.5,
 "cost":0,"indoor":false,"open_hours":"09:00-18:00","description":"string"}
Use realistic coordinates and prices. JSON only, no markdown.`, count, city, themeText)
}

// cleanJSON strips markdown fences and leading prose the model sometimes adds.
func cleanJSON(raw string) string {
	raw = strings.ReplaceAll(raw, "```json", "")
	raw = strings.ReplaceAll(raw, "```", "")
	return strings.TrimSpace(raw)
}

type generatedPOI struct {
	Name            string   `json:"name"`
	Lat             float64  `json:"lat"`
	Lon             float64  `json:"lon"`
	Themes          []string `json:"themes"`
	TypicalDuration float64  `json:"typical_duration"`
	Cost            float64  `json:"cost"`
	Indoor          bool     `json:"indoor"`
	OpenHours       string   `json:"open_hours"`
	Description     string   `json:"description"`
}

// parseGeneratedPOIs decodes the LLM POI array, tagging every fact heuristic.
func parseGeneratedPOIs(raw, city string) ([]domain_models.POI, error) {
	var decoded []generatedPOI
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &decoded); err != nil {
		return nil, fmt.Errorf("poi generation json: %w", err)
	}
	pois := make([]domain_models.POI, 0, len(decoded))
	for i, g := range decoded {
		if strings.TrimSpace(g.Name) == "" {
			continue
		}
		duration := g.TypicalDuration
		if duration <= 0 {
			duration = 1.5
		}
		hours := g.OpenHours
		if hours == "" {
			hours = "09:00-18:00"
		}
		pois = append(pois, domain_models.POI{
			ID:              fmt.Sprintf("llm-%s-%d", domain_models.NormalizeName(city), i),
			Name:            g.Name,
			City:            domain_models.NormalizeName(city),
			Lat:             g.Lat,
			Lon:             g.Lon,
			Themes:          g.Themes,
			TypicalDuration: duration,
			Cost:            g.Cost,
			TicketPrice:     g.Cost,
			Indoor:          g.Indoor,
			OpenHours:       hours,
			Description:     g.Description,
			Popularity:      0.4,
			FactSources: map[string]domain_models.Provenance{
				"name":             domain_models.ProvenanceHeuristic,
				"location":         domain_models.ProvenanceHeuristic,
				"open_hours":       domain_models.ProvenanceHeuristic,
				"typical_duration": domain_models.ProvenanceHeuristic,
				"cost":             domain_models.ProvenanceHeuristic,
				"description":      domain_models.ProvenanceHeuristic,
			},
		})
	}
	return pois, nil
}

func parseTripJSON(raw string) (*TripParse, error) {
	var parsed TripParse
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("trip parse json: %w", err)
	}
	return &parsed, nil
}

func parseQuestionJSON(raw string) ([]string, error) {
	var questions []string
	if err := json.Unmarshal([]byte(cleanJSON(raw)), &questions); err != nil {
		return nil, fmt.Errorf("question json: %w", err)
	}
	return questions, nil
}
