package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripweaver/internal/models/db_models"
	"tripweaver/internal/models/domain_models"
	"tripweaver/pkg/utils"
)

func TestSessionAcquireCreatesAndReuses(t *testing.T) {
	sessions := NewSessionService(nil, nil, testLogger())

	state, release := sessions.Acquire("")
	require.NotEmpty(t, state.ID)
	release()

	// Same id returns the same state.
	again, release2 := sessions.Acquire(state.ID)
	assert.Equal(t, state.ID, again.ID)
	release2()
}

func TestSessionMutualExclusion(t *testing.T) {
	sessions := NewSessionService(nil, nil, testLogger())

	state, release := sessions.Acquire("s1")
	state.Sequence = 0
	release()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st, rel := sessions.Acquire("s1")
			st.Sequence++
			rel()
		}()
	}
	wg.Wait()

	final, release := sessions.Acquire("s1")
	assert.Equal(t, int64(50), final.Sequence)
	release()
}

func TestSessionSaveBumpsSequence(t *testing.T) {
	sessions := NewSessionService(nil, nil, testLogger())

	state, release := sessions.Acquire("s2")
	defer release()

	first := sessions.Save(context.Background(), state)
	second := sessions.Save(context.Background(), state)
	assert.Equal(t, first+1, second)
}

func TestPlanRecordRoundTripInMemory(t *testing.T) {
	sessions := NewSessionService(nil, nil, testLogger())

	sessions.RecordPlan(context.Background(), &db_models.PlanRecord{
		SessionID: "s3", RequestID: "r1", Status: "done", DegradeLevel: "L1",
		ItineraryJSON: `{"city":"beijing"}`,
	})

	record, err := sessions.PlanByRequestID(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "s3", record.SessionID)

	_, err = sessions.PlanByRequestID(context.Background(), "missing")
	assert.ErrorIs(t, err, utils.ErrPlanNotFound)
}

func TestHistoryInMemory(t *testing.T) {
	sessions := NewSessionService(nil, nil, testLogger())
	for i := 0; i < 3; i++ {
		sessions.RecordPlan(context.Background(), &db_models.PlanRecord{
			SessionID: "s4", RequestID: string(rune('a' + i)), Status: "done",
		})
	}

	history, err := sessions.History(context.Background(), "s4", 2)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}

func TestExportMarkdown(t *testing.T) {
	export := NewExportService()
	itinerary := domain_models.Itinerary{
		City:      "beijing",
		TotalCost: 500,
		Days: []domain_models.ItineraryDay{{
			DayNumber: 1,
			Items: []domain_models.ScheduleItem{
				{PoiID: "a", PoiName: "Forbidden City", StartTime: "09:00", EndTime: "12:00"},
			},
			Backups: []domain_models.ScheduleItem{{PoiID: "b", PoiName: "Capital Museum", IsBackup: true}},
		}},
		Assumptions:  []string{"peak season trip"},
		DegradeLevel: domain_models.DegradeL2,
	}

	md := export.Markdown(itinerary)
	assert.Contains(t, md, "# Trip to Beijing")
	assert.Contains(t, md, "Forbidden City")
	assert.Contains(t, md, "backup: Capital Museum")
	assert.Contains(t, md, "peak season trip")
}

func TestExportFromRecordJSON(t *testing.T) {
	export := NewExportService()

	content, contentType, err := export.FromRecordJSON(`{"city":"beijing","days":[]}`, "markdown")
	require.NoError(t, err)
	assert.Equal(t, "text/markdown", contentType)
	assert.Contains(t, content, "# Trip to Beijing")

	raw, contentType, err := export.FromRecordJSON(`{"city":"beijing"}`, "")
	require.NoError(t, err)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, `{"city":"beijing"}`, raw)

	_, _, err = export.FromRecordJSON("", "markdown")
	assert.ErrorIs(t, err, utils.ErrPlanNotFound)
}

func TestMetricsCounters(t *testing.T) {
	metrics := NewMetricsService()
	metrics.CountRequest("done")
	metrics.CountRequest("done")
	metrics.CountRequest("error")
	metrics.CountRepairRounds(2)
	metrics.CountDegrade("L2")

	snapshot := metrics.Snapshot()
	assert.Equal(t, int64(2), snapshot["requests_total_done"])
	assert.Equal(t, int64(1), snapshot["requests_total_error"])
	assert.Equal(t, int64(2), snapshot["repair_rounds_total"])
	assert.Equal(t, int64(1), snapshot["degrade_level_l2"])

	exposition := metrics.Prometheus()
	assert.Contains(t, exposition, "tripweaver_requests_total_done 2")
	assert.Contains(t, exposition, "# TYPE tripweaver_requests_total_done counter")
}
