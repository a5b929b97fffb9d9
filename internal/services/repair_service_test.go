package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tripweaver/internal/models/domain_models"
	"tripweaver/internal/models/request_models"
	"tripweaver/pkg/utils"
)

func newTestRepair() RepairServiceInterface {
	return NewRepairService(testScheduler(testConfig()), testLogger())
}

func TestRepairDropsCostliestForOverBudget(t *testing.T) {
	repair := newTestRepair()
	itinerary := validItinerary()
	constraints := moderateConstraints()
	constraints.DailyBudget = 10

	issues := []domain_models.Issue{{Code: domain_models.IssueOverBudget, Severity: domain_models.SeverityHigh}}
	result := repair.Repair(itinerary, issues, constraints, domain_models.DefaultProfile())

	// POI "a" carries the only ticket; it must be gone.
	assert.False(t, result.Itinerary.HasPOI("a"))
	assert.True(t, result.Itinerary.HasPOI("b"))
	require.NotEmpty(t, result.Actions)
	assert.Contains(t, result.Actions[0], "reduce cost")
	assert.Equal(t, 1, result.StrategiesConsumed)
}

func TestRepairNeverDropsPinned(t *testing.T) {
	repair := newTestRepair()
	itinerary := validItinerary()
	pinned := itinerary.Pool["a"]
	pinned.Pinned = true
	itinerary.Pool["a"] = pinned

	constraints := moderateConstraints()
	issues := []domain_models.Issue{{Code: domain_models.IssueOverBudget, Severity: domain_models.SeverityHigh}}
	result := repair.Repair(itinerary, issues, constraints, domain_models.DefaultProfile())

	assert.True(t, result.Itinerary.HasPOI("a"))
}

func TestRepairPaceMismatchTrimsDay(t *testing.T) {
	repair := newTestRepair()
	itinerary := validItinerary()
	itinerary.Days[0].Items = append(itinerary.Days[0].Items,
		domain_models.ScheduleItem{PoiID: "d", PoiName: "D", StartTime: "15:30", EndTime: "17:30", TravelMinutes: 10})

	constraints := moderateConstraints()
	constraints.Pace = domain_models.PaceRelaxed // ceiling 3

	issues := []domain_models.Issue{{Code: domain_models.IssuePaceMismatch, Severity: domain_models.SeverityMedium, DayNumber: 1}}
	result := repair.Repair(itinerary, issues, constraints, domain_models.DefaultProfile())

	assert.LessOrEqual(t, poiItemCount(result.Itinerary.Days[0]), 3)
}

func TestRepairSynthesizesBackup(t *testing.T) {
	repair := newTestRepair()
	itinerary := validItinerary()
	itinerary.Days[0].Backups = nil
	// Remove the spare unscheduled candidate; no pool POI is indoor, so the
	// backup has to be synthesized.
	delete(itinerary.Pool, "d")

	issues := []domain_models.Issue{{Code: domain_models.IssueMissingBackup, Severity: domain_models.SeverityLow, DayNumber: 1}}
	result := repair.Repair(itinerary, issues, moderateConstraints(), domain_models.DefaultProfile())

	require.NotEmpty(t, result.Itinerary.Days[0].Backups)
	backup := result.Itinerary.Days[0].Backups[0]
	assert.True(t, backup.IsBackup)
	poi, ok := result.Itinerary.Pool[backup.PoiID]
	require.True(t, ok)
	assert.True(t, poi.Indoor)
}

func TestRepairUpgradesTransport(t *testing.T) {
	repair := newTestRepair()
	itinerary := validItinerary()
	itinerary.Days[0].Items[1].TravelMinutes = 120
	itinerary.Days[0].TotalTravelMinutes = 130

	constraints := moderateConstraints()
	constraints.TransportMode = domain_models.TransportWalking

	issues := []domain_models.Issue{{Code: domain_models.IssueTooMuchTravel, Severity: domain_models.SeverityHigh, DayNumber: 1}}
	result := repair.Repair(itinerary, issues, constraints, domain_models.DefaultProfile())

	joined := strings.Join(result.Actions, " | ")
	assert.Contains(t, joined, "public_transit")
}

func TestRepairProgressInvariant(t *testing.T) {
	repair := newTestRepair()
	itinerary := validItinerary()
	constraints := moderateConstraints()
	constraints.DailyBudget = 10

	issues := []domain_models.Issue{{Code: domain_models.IssueOverBudget, Severity: domain_models.SeverityHigh}}
	result := repair.Repair(itinerary, issues, constraints, domain_models.DefaultProfile())

	// Dropping the ticketed stop must strictly reduce total cost.
	assert.Less(t, result.Itinerary.TotalCost, itinerary.TotalCost)
}

func TestApplyEditPatchReplaceStop(t *testing.T) {
	repair := newTestRepair()
	itinerary := validItinerary()
	itinerary.Pool["e"] = domain_models.POI{
		ID: "e", Name: "E Spot", Lat: 39.94, Lon: 116.44, TypicalDuration: 2, OpenHours: "09:00-18:00",
	}

	patch := &request_models.EditPatch{
		ReplaceStop: &request_models.ReplaceStopOp{DayNumber: 1, OldPoi: "B", NewPoi: "E Spot"},
	}
	out, err := repair.ApplyEditPatch(itinerary, patch, moderateConstraints())
	require.NoError(t, err)

	assert.False(t, out.HasPOI("b"))
	assert.True(t, out.HasPOI("e"))
	// Original untouched: patches work on a clone.
	assert.True(t, itinerary.HasPOI("b"))
}

func TestApplyEditPatchRemoveStop(t *testing.T) {
	repair := newTestRepair()
	itinerary := validItinerary()

	patch := &request_models.EditPatch{
		RemoveStop: &request_models.RemoveStopOp{DayNumber: 1, Poi: "C"},
	}
	out, err := repair.ApplyEditPatch(itinerary, patch, moderateConstraints())
	require.NoError(t, err)
	assert.False(t, out.HasPOI("c"))
}

func TestApplyEditPatchRejectsUnknownTargets(t *testing.T) {
	repair := newTestRepair()
	itinerary := validItinerary()

	_, err := repair.ApplyEditPatch(itinerary, &request_models.EditPatch{
		ReplaceStop: &request_models.ReplaceStopOp{DayNumber: 9, OldPoi: "B", NewPoi: "C"},
	}, moderateConstraints())
	assert.ErrorIs(t, err, utils.ErrInputInvalid)

	_, err = repair.ApplyEditPatch(itinerary, &request_models.EditPatch{}, moderateConstraints())
	assert.ErrorIs(t, err, utils.ErrInputInvalid)

	_, err = repair.ApplyEditPatch(itinerary, nil, moderateConstraints())
	assert.ErrorIs(t, err, utils.ErrInputInvalid)
}

func TestApplyEditPatchAddStopRejectsDuplicate(t *testing.T) {
	repair := newTestRepair()
	itinerary := validItinerary()

	_, err := repair.ApplyEditPatch(itinerary, &request_models.EditPatch{
		AddStop: &request_models.AddStopOp{DayNumber: 1, Poi: "B"},
	}, moderateConstraints())
	assert.ErrorIs(t, err, utils.ErrInputInvalid)
}

func TestApplyEditPatchLunchBreak(t *testing.T) {
	repair := newTestRepair()
	itinerary := validItinerary()

	out, err := repair.ApplyEditPatch(itinerary, &request_models.EditPatch{
		LunchBreak: &request_models.LunchBreakOp{DayNumber: 1, StartTime: "12:00"},
	}, moderateConstraints())
	require.NoError(t, err)

	found := false
	for _, item := range out.Days[0].Items {
		if item.PoiName == "Lunch break" {
			found = true
			assert.Equal(t, domain_models.SlotLunch, item.TimeSlot)
		}
	}
	assert.True(t, found)
}
