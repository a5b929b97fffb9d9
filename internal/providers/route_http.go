package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"tripweaver/internal/models/domain_models"
	"tripweaver/pkg/memcache"
	"tripweaver/pkg/utils"
)

// MapClient talks to the map provider for POI search and routing. Route legs
// are cached by (origin, destination, mode) for an hour.
type MapClient struct {
	HTTP       *http.Client
	APIKey     string
	BaseHost   string
	RouteCache *memcache.TTLCache
	PoiCache   *memcache.TTLCache
}

func NewMapClient(apiKey string, routeCache, poiCache *memcache.TTLCache) *MapClient {
	return &MapClient{
		HTTP:       &http.Client{Timeout: 15 * time.Second},
		APIKey:     apiKey,
		BaseHost:   "api.mapprovider.example.com",
		RouteCache: routeCache,
		PoiCache:   poiCache,
	}
}

func (c *MapClient) Name() string { return "maphttp" }

func (c *MapClient) routeKey(fromLat, fromLon, toLat, toLon float64, mode string) string {
	return fmt.Sprintf("%s|%.5f,%.5f|%.5f,%.5f", mode, fromLat, fromLon, toLat, toLon)
}

func (c *MapClient) RouteBetween(ctx context.Context, fromLat, fromLon, toLat, toLon float64, mode string) (RouteLeg, error) {
	key := c.routeKey(fromLat, fromLon, toLat, toLon, mode)
	if cached, ok := c.RouteCache.Get(key); ok {
		return cached.(RouteLeg), nil
	}

	u := url.URL{
		Scheme: "https",
		Host:   c.BaseHost,
		Path:   fmt.Sprintf("/directions/v1/%s", mode),
	}
	q := url.Values{}
	q.Set("origin", fmt.Sprintf("%f,%f", fromLon, fromLat))
	q.Set("destination", fmt.Sprintf("%f,%f", toLon, toLat))
	q.Set("key", c.APIKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return RouteLeg{}, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return RouteLeg{}, utils.Transient(fmt.Errorf("map route http error: %w", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 == 5 || resp.StatusCode == http.StatusTooManyRequests {
		return RouteLeg{}, utils.Transient(fmt.Errorf("map route bad status: %s", resp.Status))
	}
	if resp.StatusCode/100 != 2 {
		return RouteLeg{}, fmt.Errorf("map route bad status: %s", resp.Status)
	}

	var payload struct {
		DurationSeconds float64 `json:"duration_seconds"`
		DistanceMeters  float64 `json:"distance_meters"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return RouteLeg{}, fmt.Errorf("map route decode: %w", err)
	}

	leg := RouteLeg{
		Minutes:    payload.DurationSeconds / 60,
		DistanceKm: payload.DistanceMeters / 1000,
		Confidence: 1.0,
	}
	c.RouteCache.Set(key, leg)
	return leg, nil
}

// SearchPOIs queries the map provider by city and theme keywords, then maps
// results into domain POIs tagged verified for provider-backed attributes.
func (c *MapClient) SearchPOIs(ctx context.Context, city string, themes []string, limit int) ([]domain_models.POI, error) {
	cacheKey := fmt.Sprintf("%s|%v|%d", domain_models.NormalizeName(city), themes, limit)
	if cached, ok := c.PoiCache.Get(cacheKey); ok {
		return cached.([]domain_models.POI), nil
	}

	u := url.URL{
		Scheme: "https",
		Host:   c.BaseHost,
		Path:   "/places/v1/search",
	}
	q := url.Values{}
	q.Set("city", city)
	for _, t := range themes {
		q.Add("keyword", t)
	}
	if limit > 0 {
		q.Set("limit", fmt.Sprintf("%d", limit))
	}
	q.Set("key", c.APIKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, utils.Transient(fmt.Errorf("map poi http error: %w", err))
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 == 5 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, utils.Transient(fmt.Errorf("map poi bad status: %s", resp.Status))
	}
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("map poi bad status: %s", resp.Status)
	}

	var payload struct {
		Places []struct {
			ID          string   `json:"id"`
			Name        string   `json:"name"`
			Lat         float64  `json:"lat"`
			Lon         float64  `json:"lon"`
			Themes      []string `json:"themes"`
			Hours       string   `json:"hours"`
			TicketPrice float64  `json:"ticket_price"`
			Rating      float64  `json:"rating"`
			Indoor      bool     `json:"indoor"`
			Description string   `json:"description"`
		} `json:"places"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("map poi decode: %w", err)
	}

	pois := make([]domain_models.POI, 0, len(payload.Places))
	for _, place := range payload.Places {
		pois = append(pois, domain_models.POI{
			ID:              "map-" + place.ID,
			Name:            place.Name,
			City:            domain_models.NormalizeName(city),
			Lat:             place.Lat,
			Lon:             place.Lon,
			Themes:          place.Themes,
			TypicalDuration: 1.5,
			Cost:            place.TicketPrice,
			TicketPrice:     place.TicketPrice,
			Indoor:          place.Indoor,
			OpenHours:       place.Hours,
			Description:     place.Description,
			Popularity:      place.Rating / 5,
			FactSources: map[string]domain_models.Provenance{
				"name":             domain_models.ProvenanceVerified,
				"location":         domain_models.ProvenanceVerified,
				"open_hours":       domain_models.ProvenanceVerified,
				"cost":             domain_models.ProvenanceVerified,
				"typical_duration": domain_models.ProvenanceHeuristic,
				"description":      domain_models.ProvenanceVerified,
			},
		})
	}
	c.PoiCache.Set(cacheKey, pois)
	return pois, nil
}
