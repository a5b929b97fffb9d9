package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripweaver/internal/models/domain_models"
	"tripweaver/pkg/utils"
)

func poolFor(t *testing.T, constraints domain_models.TripConstraints, profile domain_models.UserProfile) *RetrieverResult {
	t.Helper()
	retriever := NewRetrieverService(testProviderSet(), testConfig(), nil, testLogger())
	pool, err := retriever.BuildPool(context.Background(), constraints, profile)
	require.NoError(t, err)
	return pool
}

func TestBuildItineraryBasicShape(t *testing.T) {
	cfg := testConfig()
	scheduler := testScheduler(cfg)

	constraints := domain_models.TripConstraints{
		City: "beijing", Days: 3,
		TransportMode: domain_models.TransportPublicTransit,
		Pace:          domain_models.PaceModerate,
	}
	profile := domain_models.UserProfile{TravelersType: domain_models.TravelersCouple, Themes: []string{"history"}}
	pool := poolFor(t, constraints, profile)

	itinerary, err := scheduler.BuildItinerary(context.Background(), constraints, profile, pool)
	require.NoError(t, err)

	require.Len(t, itinerary.Days, 3)
	for i, day := range itinerary.Days {
		assert.Equal(t, i+1, day.DayNumber)
	}
	assert.NotEmpty(t, itinerary.Pool)
}

func TestTimelineFeasibility(t *testing.T) {
	cfg := testConfig()
	scheduler := testScheduler(cfg)

	constraints := domain_models.TripConstraints{
		City: "beijing", Days: 2,
		TransportMode: domain_models.TransportPublicTransit,
		Pace:          domain_models.PaceModerate,
	}
	profile := domain_models.UserProfile{Themes: []string{"history", "food"}}
	pool := poolFor(t, constraints, profile)

	itinerary, err := scheduler.BuildItinerary(context.Background(), constraints, profile, pool)
	require.NoError(t, err)

	for _, day := range itinerary.Days {
		for i := 1; i < len(day.Items); i++ {
			prevEnd, ok := domain_models.ParseClock(day.Items[i-1].EndTime)
			require.True(t, ok)
			start, ok := domain_models.ParseClock(day.Items[i].StartTime)
			require.True(t, ok)
			assert.LessOrEqual(t, float64(prevEnd)+day.Items[i].TravelMinutes, float64(start)+1e-9,
				"day %d item %d overlaps its travel leg", day.DayNumber, i)
		}
	}
}

func TestNoDuplicatePOIsAcrossDays(t *testing.T) {
	cfg := testConfig()
	scheduler := testScheduler(cfg)

	constraints := domain_models.TripConstraints{
		City: "shanghai", Days: 3,
		TransportMode: domain_models.TransportPublicTransit,
		Pace:          domain_models.PaceIntensive,
	}
	pool := poolFor(t, constraints, domain_models.UserProfile{})

	itinerary, err := scheduler.BuildItinerary(context.Background(), constraints, domain_models.UserProfile{}, pool)
	require.NoError(t, err)

	seen := make(map[string]bool)
	for _, day := range itinerary.Days {
		for _, item := range day.Items {
			if item.PoiID == "" {
				continue
			}
			assert.False(t, seen[item.PoiID], "POI %s scheduled twice", item.PoiName)
			seen[item.PoiID] = true
		}
	}
}

func TestDayEndsBeforeNine(t *testing.T) {
	cfg := testConfig()
	scheduler := testScheduler(cfg)

	constraints := domain_models.TripConstraints{
		City: "beijing", Days: 1,
		TransportMode: domain_models.TransportWalking,
		Pace:          domain_models.PaceIntensive,
	}
	pool := poolFor(t, constraints, domain_models.UserProfile{})

	itinerary, err := scheduler.BuildItinerary(context.Background(), constraints, domain_models.UserProfile{}, pool)
	require.NoError(t, err)

	for _, day := range itinerary.Days {
		for _, item := range day.Items {
			end, ok := domain_models.ParseClock(item.EndTime)
			require.True(t, ok)
			assert.LessOrEqual(t, end, dayEndMinutes)
		}
	}
}

func TestMealWindowInsertion(t *testing.T) {
	cfg := testConfig()
	scheduler := testScheduler(cfg)

	pois := []domain_models.POI{
		{ID: "p1", Name: "Morning Museum", Lat: 39.91, Lon: 116.40, TypicalDuration: 2.5, OpenHours: "09:00-18:00"},
		{ID: "p2", Name: "Afternoon Palace", Lat: 39.92, Lon: 116.41, TypicalDuration: 3.0, OpenHours: "09:00-18:00"},
		{ID: "p3", Name: "Evening Tower", Lat: 39.93, Lon: 116.42, TypicalDuration: 1.5, OpenHours: "09:00-21:00"},
	}
	itinerary := &domain_models.Itinerary{RoutingConfidence: 1.0, Pool: map[string]domain_models.POI{}}

	items, _ := scheduler.timeBoxDay(context.Background(), pois, domain_models.TransportWalking, time.Time{}, false, itinerary)

	var lunchCount, dinnerCount int
	for _, item := range items {
		if item.PoiName == "Lunch break" {
			lunchCount++
			assert.Equal(t, domain_models.SlotLunch, item.TimeSlot)
		}
		if item.PoiName == "Dinner break" {
			dinnerCount++
		}
	}
	assert.Equal(t, 1, lunchCount)
	assert.LessOrEqual(t, dinnerCount, 1)
}

func TestOverlongItemDemotedToBackup(t *testing.T) {
	cfg := testConfig()
	scheduler := testScheduler(cfg)

	pois := []domain_models.POI{
		{ID: "long1", Name: "All Day Park", Lat: 39.91, Lon: 116.40, TypicalDuration: 8, OpenHours: "08:00-22:00"},
		{ID: "long2", Name: "Second Park", Lat: 39.92, Lon: 116.41, TypicalDuration: 6, OpenHours: "08:00-22:00"},
	}
	itinerary := &domain_models.Itinerary{RoutingConfidence: 1.0, Pool: map[string]domain_models.POI{}}

	items, backups := scheduler.timeBoxDay(context.Background(), pois, domain_models.TransportWalking, time.Time{}, false, itinerary)

	require.Len(t, backups, 1)
	assert.Equal(t, "long2", backups[0].PoiID)
	assert.True(t, backups[0].IsBackup)
	require.NotEmpty(t, items)
}

func TestSecurityBuffers(t *testing.T) {
	cfg := testConfig()
	scheduler := testScheduler(cfg)

	reserved := domain_models.POI{ID: "r", ReservationRequired: true}
	plain := domain_models.POI{ID: "p"}
	peakDate := time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC)
	offDate := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, 0.0, scheduler.securityBuffer(plain, offDate, false))
	assert.Equal(t, reservationBuffer, scheduler.securityBuffer(reserved, offDate, false))
	assert.Equal(t, peakBuffer, scheduler.securityBuffer(plain, peakDate, false))
	assert.Equal(t, peakBuffer*peakInflation, scheduler.securityBuffer(plain, peakDate, true))
}

func TestClosedOnRules(t *testing.T) {
	monday := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	tuesday := monday.AddDate(0, 0, 1)

	poi := domain_models.POI{ClosedRules: "monday"}
	assert.True(t, ClosedOn(poi, monday))
	assert.False(t, ClosedOn(poi, tuesday))

	dated := domain_models.POI{ClosedRules: "2026-08-04"}
	assert.True(t, ClosedOn(dated, tuesday))
	assert.False(t, ClosedOn(dated, monday))

	assert.False(t, ClosedOn(domain_models.POI{}, monday))
}

func TestMustVisitClosedIssueRaised(t *testing.T) {
	cfg := testConfig()
	scheduler := testScheduler(cfg)

	monday := time.Date(2026, 8, 3, 0, 0, 0, 0, time.UTC)
	constraints := domain_models.TripConstraints{
		City: "chengdu", Days: 1, DateStart: &monday,
		TransportMode: domain_models.TransportTaxi,
		Pace:          domain_models.PaceModerate,
		MustVisit:     []string{"Panda Base"},
	}
	pool := poolFor(t, constraints, domain_models.UserProfile{})

	itinerary, err := scheduler.BuildItinerary(context.Background(), constraints, domain_models.UserProfile{}, pool)
	require.NoError(t, err)

	var found bool
	for _, issue := range itinerary.Issues {
		if issue.Code == domain_models.IssueMustVisitClosed {
			found = true
			assert.Equal(t, domain_models.SeverityHigh, issue.Severity)
		}
	}
	assert.True(t, found, "pinned closed POI should raise MUST_VISIT_CLOSED")
	assert.True(t, itinerary.HasPOI("cd-panda-base"), "must-visit stays on the schedule")
}

func TestPeakSeasonAssumption(t *testing.T) {
	cfg := testConfig()
	scheduler := testScheduler(cfg)

	start := time.Date(2026, 2, 17, 0, 0, 0, 0, time.UTC)
	constraints := domain_models.TripConstraints{
		City: "beijing", Days: 2, DateStart: &start,
		TransportMode: domain_models.TransportPublicTransit,
		Pace:          domain_models.PaceModerate,
	}
	pool := poolFor(t, constraints, domain_models.UserProfile{})

	itinerary, err := scheduler.BuildItinerary(context.Background(), constraints, domain_models.UserProfile{}, pool)
	require.NoError(t, err)

	foundPeak := false
	for _, assumption := range itinerary.Assumptions {
		if strings.Contains(assumption, "peak") {
			foundPeak = true
		}
	}
	assert.True(t, foundPeak)
}

func TestBudgetAccounting(t *testing.T) {
	cfg := testConfig()
	scheduler := testScheduler(cfg)

	constraints := domain_models.TripConstraints{
		City: "shanghai", Days: 2,
		TransportMode: domain_models.TransportPublicTransit,
		Pace:          domain_models.PaceModerate,
	}
	profile := domain_models.UserProfile{TravelersType: domain_models.TravelersCouple}
	pool := poolFor(t, constraints, profile)

	itinerary, err := scheduler.BuildItinerary(context.Background(), constraints, profile, pool)
	require.NoError(t, err)

	food := float64(constraints.Days) * 2 * cfg.FoodMinPerPersonDay
	assert.Equal(t, food, itinerary.BudgetBreakdown.FoodMin)
	expected := itinerary.BudgetBreakdown.Tickets + itinerary.BudgetBreakdown.LocalTransport + itinerary.BudgetBreakdown.FoodMin
	assert.InDelta(t, expected, itinerary.TotalCost, 0.02)
	assert.Greater(t, itinerary.MinimumFeasibleBudget, 0.0)
	assert.GreaterOrEqual(t, itinerary.MinimumFeasibleBudget, itinerary.BudgetBreakdown.FoodMin)
}

func TestFixtureRoutingLowersConfidence(t *testing.T) {
	cfg := testConfig()
	scheduler := testScheduler(cfg)

	constraints := domain_models.TripConstraints{
		City: "beijing", Days: 1,
		TransportMode: domain_models.TransportPublicTransit,
		Pace:          domain_models.PaceModerate,
	}
	pool := poolFor(t, constraints, domain_models.UserProfile{})

	itinerary, err := scheduler.BuildItinerary(context.Background(), constraints, domain_models.UserProfile{}, pool)
	require.NoError(t, err)

	if hasMultiPOIDay(itinerary) {
		assert.Equal(t, 0.5, itinerary.RoutingConfidence)
	}
}

func hasMultiPOIDay(itinerary domain_models.Itinerary) bool {
	for _, day := range itinerary.Days {
		if poiItemCount(day) > 1 {
			return true
		}
	}
	return false
}

func TestReboxDayRecomputesTimes(t *testing.T) {
	cfg := testConfig()
	scheduler := testScheduler(cfg)

	constraints := domain_models.TripConstraints{
		City: "shanghai", Days: 1,
		TransportMode: domain_models.TransportPublicTransit,
		Pace:          domain_models.PaceModerate,
	}
	pool := poolFor(t, constraints, domain_models.UserProfile{})
	itinerary, err := scheduler.BuildItinerary(context.Background(), constraints, domain_models.UserProfile{}, pool)
	require.NoError(t, err)
	require.NotEmpty(t, itinerary.Days[0].Items)

	itinerary.Days[0].Items[0].StartTime = "23:00"
	scheduler.ReboxDay(&itinerary, 1, constraints)

	start, ok := domain_models.ParseClock(itinerary.Days[0].Items[0].StartTime)
	require.True(t, ok)
	assert.Equal(t, dayStartMinutes, start)
}

func TestSingleLinkClustersMergeNearby(t *testing.T) {
	pois := []domain_models.POI{
		{ID: "a", Lat: 39.90, Lon: 116.40},
		{ID: "b", Lat: 39.91, Lon: 116.41}, // ~1.4 km from a
		{ID: "c", Lat: 40.40, Lon: 116.60}, // far north
	}
	clusters := singleLinkClusters(pois, 3.0)
	require.Len(t, clusters, 2)

	sizes := []int{len(clusters[0].pois), len(clusters[1].pois)}
	assert.ElementsMatch(t, []int{2, 1}, sizes)
}

func TestOrderGreedyStartsFromPinned(t *testing.T) {
	pois := []domain_models.POI{
		{ID: "a", Lat: 39.90, Lon: 116.40},
		{ID: "b", Lat: 39.95, Lon: 116.45, Pinned: true},
		{ID: "c", Lat: 39.91, Lon: 116.41},
	}
	ordered := orderGreedy(pois)
	require.Len(t, ordered, 3)
	assert.Equal(t, "b", ordered[0].ID)
}

func TestTravelMinutesMatchesModeSpeed(t *testing.T) {
	// 9 km at 18 km/h is 30 minutes.
	assert.InDelta(t, 30.0, utils.TravelMinutes(9, "public_transit"), 1e-9)
	assert.InDelta(t, 60.0, utils.TravelMinutes(4, "walking"), 1e-9)
}
