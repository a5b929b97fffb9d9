package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripweaver/internal/models/domain_models"
)

func trustItinerary(sources map[string]domain_models.Provenance) domain_models.Itinerary {
	return domain_models.Itinerary{
		City:              "beijing",
		RoutingConfidence: 1.0,
		Days: []domain_models.ItineraryDay{{
			DayNumber: 1,
			Items:     []domain_models.ScheduleItem{{PoiID: "a", PoiName: "A", StartTime: "09:00", EndTime: "11:00"}},
		}},
		Pool: map[string]domain_models.POI{
			"a": {ID: "a", Name: "A", FactSources: sources},
		},
	}
}

func TestTrustScoreAllVerified(t *testing.T) {
	trust := NewTrustService(testProviderSet(), testConfig())
	itinerary := trustItinerary(map[string]domain_models.Provenance{
		"name": domain_models.ProvenanceVerified, "open_hours": domain_models.ProvenanceVerified,
	})

	trust.Score(&itinerary, 0)

	// 0.6*1 + 0.3*1 + 0.1*1 = 1.0
	assert.InDelta(t, 1.0, itinerary.ConfidenceScore, 1e-9)
	assert.Equal(t, 1.0, itinerary.ConfidenceBreakdown.VerifiedFactRatio)
	assert.Equal(t, 0.0, itinerary.ConfidenceBreakdown.FallbackRate)
	// No realtime providers in the fixture set: L0 is unreachable.
	assert.Equal(t, domain_models.DegradeL1, itinerary.DegradeLevel)
}

func TestTrustScoreAllFallback(t *testing.T) {
	trust := NewTrustService(testProviderSet(), testConfig())
	itinerary := trustItinerary(map[string]domain_models.Provenance{
		"name": domain_models.ProvenanceFallback, "open_hours": domain_models.ProvenanceFallback,
	})
	itinerary.RoutingConfidence = 0.5

	trust.Score(&itinerary, 0)

	// 0.6*0 + 0.3*0 + 0.1*0.5 = 0.05
	assert.InDelta(t, 0.05, itinerary.ConfidenceScore, 1e-9)
	assert.Equal(t, domain_models.DegradeL3, itinerary.DegradeLevel)
}

func TestTrustRepairRoundsElevateDegrade(t *testing.T) {
	trust := NewTrustService(testProviderSet(), testConfig())

	itinerary := trustItinerary(map[string]domain_models.Provenance{
		"name": domain_models.ProvenanceVerified,
	})
	trust.Score(&itinerary, 2)
	assert.Equal(t, domain_models.DegradeL2, itinerary.DegradeLevel)

	itinerary = trustItinerary(map[string]domain_models.Provenance{
		"name": domain_models.ProvenanceVerified,
	})
	trust.Score(&itinerary, 3)
	assert.Equal(t, domain_models.DegradeL3, itinerary.DegradeLevel)
}

func TestTrustBackupsExcludedFromTally(t *testing.T) {
	trust := NewTrustService(testProviderSet(), testConfig())
	itinerary := trustItinerary(map[string]domain_models.Provenance{
		"name": domain_models.ProvenanceVerified,
	})
	itinerary.Pool["z"] = domain_models.POI{ID: "z", FactSources: map[string]domain_models.Provenance{
		"name": domain_models.ProvenanceFallback,
	}}
	itinerary.Days[0].Backups = []domain_models.ScheduleItem{{PoiID: "z", IsBackup: true}}

	trust.Score(&itinerary, 0)
	assert.Equal(t, 1.0, itinerary.ConfidenceBreakdown.VerifiedFactRatio)
}

func TestFingerprint(t *testing.T) {
	trust := NewTrustService(testProviderSet(), testConfig())
	fp := trust.Fingerprint("trace-123")

	require.Equal(t, domain_models.RunModeDegraded, fp.RunMode)
	assert.Equal(t, "curated", fp.PoiProvider)
	assert.Equal(t, "fixture", fp.RouteProvider)
	assert.Equal(t, "template", fp.LLMProvider)
	assert.Equal(t, "trace-123", fp.TraceID)
	assert.False(t, fp.StrictExternalData)
	assert.Equal(t, "test", fp.EnvSource)
}
