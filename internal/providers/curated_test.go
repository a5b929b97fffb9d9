package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripweaver/internal/models/domain_models"
)

func TestCuratedDatasetLoads(t *testing.T) {
	provider := NewCuratedProvider()

	pois, err := provider.SearchPOIs(context.Background(), "Beijing", nil, 0)
	require.NoError(t, err)
	require.NotEmpty(t, pois)

	for _, poi := range pois {
		assert.Equal(t, "beijing", poi.City)
		assert.NotEmpty(t, poi.ID)
		assert.NotEmpty(t, poi.Name)
		assert.Greater(t, poi.TypicalDuration, 0.0)
		assert.NotEmpty(t, poi.OpenHours)
		require.NotNil(t, poi.FactSources)
		assert.NotEqual(t, domain_models.ProvenanceUnknown, poi.SourceFor("open_hours"))
	}
}

func TestCuratedUnknownCityEmpty(t *testing.T) {
	provider := NewCuratedProvider()

	pois, err := provider.SearchPOIs(context.Background(), "atlantis", nil, 0)
	require.NoError(t, err)
	assert.Empty(t, pois)
}

func TestCuratedThemePriority(t *testing.T) {
	provider := NewCuratedProvider()

	pois, err := provider.SearchPOIs(context.Background(), "chengdu", []string{"food"}, 3)
	require.NoError(t, err)
	require.Len(t, pois, 3)
	for _, poi := range pois {
		assert.True(t, poi.HasTheme("food"), "theme matches should rank first: %s", poi.Name)
	}
}

func TestCuratedLimit(t *testing.T) {
	provider := NewCuratedProvider()

	pois, err := provider.SearchPOIs(context.Background(), "shanghai", nil, 4)
	require.NoError(t, err)
	assert.Len(t, pois, 4)
}

func TestFixtureRouteClampsAndFlags(t *testing.T) {
	route := NewFixtureRouteProvider()

	leg, err := route.RouteBetween(context.Background(), 39.9163, 116.3972, 39.9164, 116.3973, "walking")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, leg.Minutes, 1.0)
	assert.Equal(t, 0.5, leg.Confidence)
}

func TestTemplateClientQuestions(t *testing.T) {
	client := NewTemplateClient()

	questions, err := client.PhraseQuestions(context.Background(), []string{"city", "days"})
	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Contains(t, questions[0], "city")
}

func TestTemplateClientGeneratesFallbackPOIs(t *testing.T) {
	client := NewTemplateClient()

	pois, err := client.GeneratePOIs(context.Background(), "Beijing", []string{"history"}, 4)
	require.NoError(t, err)
	require.Len(t, pois, 4)
	for _, poi := range pois {
		assert.Equal(t, domain_models.ProvenanceFallback, poi.SourceFor("name"))
		assert.NotZero(t, poi.Lat)
	}
}

func TestParseGeneratedPOIs(t *testing.T) {
	raw := "```json\n" + `[
	  {"name":"Old Temple","lat":39.9,"lon":116.4,"themes":["history"],
	   "typical_duration":2,"cost":30,"indoor":false,
	   "open_hours":"09:00-17:00","description":"an old temple"},
	  {"name":"","lat":0,"lon":0}
	]` + "\n```"

	pois, err := parseGeneratedPOIs(raw, "Beijing")
	require.NoError(t, err)
	require.Len(t, pois, 1, "nameless entries are dropped")
	assert.Equal(t, "Old Temple", pois[0].Name)
	assert.Equal(t, domain_models.ProvenanceHeuristic, pois[0].SourceFor("open_hours"))
}

func TestParseGeneratedPOIDefaults(t *testing.T) {
	raw := `[{"name":"Bare Spot","lat":1,"lon":2}]`

	pois, err := parseGeneratedPOIs(raw, "Beijing")
	require.NoError(t, err)
	require.Len(t, pois, 1)
	assert.Equal(t, 1.5, pois[0].TypicalDuration)
	assert.Equal(t, "09:00-18:00", pois[0].OpenHours)
}

func TestParseTripJSON(t *testing.T) {
	parsed, err := parseTripJSON("```json\n{\"city\":\"Beijing\",\"days\":4,\"pace\":\"moderate\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "Beijing", parsed.City)
	assert.Equal(t, 4, parsed.Days)

	_, err = parseTripJSON("not json at all")
	assert.Error(t, err)
}
