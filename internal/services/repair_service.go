package services

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"tripweaver/internal/models/domain_models"
	"tripweaver/internal/models/request_models"
	"tripweaver/pkg/utils"
)

// RepairResult is one pass of the strategy ladder over a validated itinerary.
type RepairResult struct {
	Itinerary          domain_models.Itinerary
	Actions            []string
	StrategiesConsumed int
}

type RepairServiceInterface interface {
	Repair(itinerary domain_models.Itinerary, issues []domain_models.Issue, constraints domain_models.TripConstraints, profile domain_models.UserProfile) RepairResult
	ApplyEditPatch(itinerary domain_models.Itinerary, patch *request_models.EditPatch, constraints domain_models.TripConstraints) (domain_models.Itinerary, error)
}

type RepairService struct {
	scheduler SchedulerServiceInterface
	logger    *zap.Logger
}

func NewRepairService(scheduler SchedulerServiceInterface, logger *zap.Logger) RepairServiceInterface {
	return &RepairService{scheduler: scheduler, logger: logger}
}

// Repair walks the strategy ladder in order; each rung only runs when an issue
// it can treat is present. Actions remove items, substitute nearer POIs,
// upgrade a day's transport mode or add backups; the orchestrator keeps the
// result only when total cost or the severity-weighted issue sum drops.
func (s *RepairService) Repair(itinerary domain_models.Itinerary, issues []domain_models.Issue, constraints domain_models.TripConstraints, profile domain_models.UserProfile) RepairResult {
	result := RepairResult{Itinerary: itinerary.Clone()}

	if actions := s.substituteNearer(&result.Itinerary, issues, constraints); len(actions) > 0 {
		result.Actions = append(result.Actions, actions...)
		result.StrategiesConsumed++
	}
	if actions := s.dropLowPriority(&result.Itinerary, issues, constraints, profile); len(actions) > 0 {
		result.Actions = append(result.Actions, actions...)
		result.StrategiesConsumed++
	}
	if actions := s.upgradeTransport(&result.Itinerary, issues, constraints); len(actions) > 0 {
		result.Actions = append(result.Actions, actions...)
		result.StrategiesConsumed++
	}
	s.ensureBackups(&result.Itinerary, issues)

	for di := range result.Itinerary.Days {
		s.rebuildDayTimes(&result.Itinerary, result.Itinerary.Days[di].DayNumber, constraints)
	}
	s.recomputeBudget(&result.Itinerary, constraints, profile)

	if len(result.Actions) > 0 {
		result.Itinerary.Assumptions = append(result.Itinerary.Assumptions, result.Actions...)
	}
	return result
}

// ── rung 1: substitute same-theme nearer POI ─────────────────────

var substitutionCodes = map[string]bool{
	domain_models.IssueTooMuchTravel:     true,
	domain_models.IssueRouteBacktracking: true,
	domain_models.IssueMustVisitClosed:   true,
}

func (s *RepairService) substituteNearer(itinerary *domain_models.Itinerary, issues []domain_models.Issue, constraints domain_models.TripConstraints) []string {
	var actions []string
	for _, issue := range issues {
		if !substitutionCodes[issue.Code] || issue.DayNumber == 0 {
			continue
		}
		day := dayByNumber(itinerary, issue.DayNumber)
		if day == nil {
			continue
		}

		// The farthest-travel item on the day is the substitution target.
		targetIdx := -1
		for i, item := range day.Items {
			if item.PoiID == "" {
				continue
			}
			if poi, ok := itinerary.Pool[item.PoiID]; ok && poi.Pinned {
				continue
			}
			if targetIdx == -1 || item.TravelMinutes > day.Items[targetIdx].TravelMinutes {
				targetIdx = i
			}
		}
		if targetIdx == -1 {
			continue
		}

		target := day.Items[targetIdx]
		targetPoi, ok := itinerary.Pool[target.PoiID]
		if !ok {
			continue
		}
		prevPoi, havePrev := s.previousPoi(itinerary, day, targetIdx)
		if !havePrev {
			continue
		}

		currentDist := utils.HaversineKm(prevPoi.Lat, prevPoi.Lon, targetPoi.Lat, targetPoi.Lon)
		replacement, found := s.nearerSameTheme(itinerary, targetPoi, prevPoi, currentDist*0.6)
		if !found {
			continue
		}

		day.Items[targetIdx].PoiID = replacement.ID
		day.Items[targetIdx].PoiName = replacement.Name
		actions = append(actions, fmt.Sprintf("substituted %s with nearer %s on day %d", targetPoi.Name, replacement.Name, issue.DayNumber))
	}
	return actions
}

func (s *RepairService) previousPoi(itinerary *domain_models.Itinerary, day *domain_models.ItineraryDay, idx int) (domain_models.POI, bool) {
	for i := idx - 1; i >= 0; i-- {
		if day.Items[i].PoiID == "" {
			continue
		}
		if poi, ok := itinerary.Pool[day.Items[i].PoiID]; ok {
			return poi, true
		}
	}
	return domain_models.POI{}, false
}

func (s *RepairService) nearerSameTheme(itinerary *domain_models.Itinerary, current, origin domain_models.POI, maxDist float64) (domain_models.POI, bool) {
	var best domain_models.POI
	bestScore := -1.0
	for _, candidate := range itinerary.Pool {
		if candidate.ID == current.ID || itinerary.HasPOI(candidate.ID) {
			continue
		}
		if !sharesTheme(current, candidate) {
			continue
		}
		if utils.HaversineKm(origin.Lat, origin.Lon, candidate.Lat, candidate.Lon) > maxDist {
			continue
		}
		if candidate.Popularity > bestScore {
			best, bestScore = candidate, candidate.Popularity
		}
	}
	return best, bestScore >= 0
}

// ── rung 2: drop low-priority items ──────────────────────────────

var dropCodes = map[string]bool{
	domain_models.IssueOverTime:     true,
	domain_models.IssueOverBudget:   true,
	domain_models.IssuePaceMismatch: true,
}

func (s *RepairService) dropLowPriority(itinerary *domain_models.Itinerary, issues []domain_models.Issue, constraints domain_models.TripConstraints, profile domain_models.UserProfile) []string {
	var actions []string
	for _, issue := range issues {
		if !dropCodes[issue.Code] {
			continue
		}
		switch issue.Code {
		case domain_models.IssueOverBudget:
			actions = append(actions, s.dropCostliest(itinerary)...)
		default:
			if issue.DayNumber == 0 {
				continue
			}
			actions = append(actions, s.dropFromDay(itinerary, issue.DayNumber, issue.Code, constraints)...)
		}
	}
	return actions
}

// dropFromDay removes the lowest-popularity non-pinned visits until the day
// fits its pace ceiling again; over-time days shed one visit even when pace is
// nominal. A day already under its pace floor is left alone — dropping more
// would make the mismatch worse.
func (s *RepairService) dropFromDay(itinerary *domain_models.Itinerary, dayNumber int, code string, constraints domain_models.TripConstraints) []string {
	day := dayByNumber(itinerary, dayNumber)
	if day == nil {
		return nil
	}
	_, high := paceBounds(constraints.Pace)

	var actions []string
	for poiItemCount(*day) > high {
		idx := lowestRankedIndex(itinerary, day)
		if idx == -1 {
			break
		}
		removed := day.Items[idx]
		day.Items = append(day.Items[:idx], day.Items[idx+1:]...)
		actions = append(actions, fmt.Sprintf("dropped %s from day %d to relax the schedule", removed.PoiName, dayNumber))
	}
	if len(actions) == 0 && code == domain_models.IssueOverTime {
		if idx := lowestRankedIndex(itinerary, day); idx != -1 {
			removed := day.Items[idx]
			day.Items = append(day.Items[:idx], day.Items[idx+1:]...)
			actions = append(actions, fmt.Sprintf("dropped %s from day %d to shorten the day", removed.PoiName, dayNumber))
		}
	}
	return actions
}

func (s *RepairService) dropCostliest(itinerary *domain_models.Itinerary) []string {
	bestDay, bestIdx := -1, -1
	bestCost := 0.0
	for di := range itinerary.Days {
		for i, item := range itinerary.Days[di].Items {
			if item.PoiID == "" {
				continue
			}
			poi, ok := itinerary.Pool[item.PoiID]
			if !ok || poi.Pinned {
				continue
			}
			if poi.TicketPrice > bestCost {
				bestDay, bestIdx, bestCost = di, i, poi.TicketPrice
			}
		}
	}
	if bestDay == -1 || bestCost <= 0 {
		return nil
	}
	day := &itinerary.Days[bestDay]
	removed := day.Items[bestIdx]
	day.Items = append(day.Items[:bestIdx], day.Items[bestIdx+1:]...)
	return []string{fmt.Sprintf("removed %s (ticket %.0f) to reduce cost", removed.PoiName, bestCost)}
}

func lowestRankedIndex(itinerary *domain_models.Itinerary, day *domain_models.ItineraryDay) int {
	idx := -1
	lowest := 0.0
	for i, item := range day.Items {
		if item.PoiID == "" {
			continue
		}
		poi, ok := itinerary.Pool[item.PoiID]
		if !ok || poi.Pinned {
			continue
		}
		if idx == -1 || poi.Popularity < lowest {
			idx, lowest = i, poi.Popularity
		}
	}
	return idx
}

// ── rung 3: upgrade transport mode ───────────────────────────────

var fasterMode = map[domain_models.TransportMode]domain_models.TransportMode{
	domain_models.TransportWalking:       domain_models.TransportPublicTransit,
	domain_models.TransportPublicTransit: domain_models.TransportTaxi,
	domain_models.TransportTaxi:          domain_models.TransportDriving,
}

func (s *RepairService) upgradeTransport(itinerary *domain_models.Itinerary, issues []domain_models.Issue, constraints domain_models.TripConstraints) []string {
	next, ok := fasterMode[constraints.TransportMode]
	if !ok {
		return nil
	}
	var actions []string
	for _, issue := range issues {
		if issue.Code != domain_models.IssueTooMuchTravel || issue.DayNumber == 0 {
			continue
		}
		day := dayByNumber(itinerary, issue.DayNumber)
		if day == nil || day.TransportOverride != "" {
			continue
		}
		day.TransportOverride = next

		// Rough delta: legs shrink by the speed ratio, priced at the new mode.
		oldSpeed := utils.ModeSpeedKmh(string(constraints.TransportMode))
		newSpeed := utils.ModeSpeedKmh(string(next))
		costDelta := 0.0
		for _, item := range day.Items {
			if item.TravelMinutes <= 0 {
				continue
			}
			scaled := item.TravelMinutes * oldSpeed / newSpeed
			costDelta += scaled*utils.ModeCostPerMinute(string(next)) -
				item.TravelMinutes*utils.ModeCostPerMinute(string(constraints.TransportMode))
		}
		actions = append(actions, fmt.Sprintf("upgraded day %d legs to %s (est. cost delta %.0f)", issue.DayNumber, next, costDelta))
	}
	return actions
}

// ── backup synthesis ─────────────────────────────────────────────

func (s *RepairService) ensureBackups(itinerary *domain_models.Itinerary, issues []domain_models.Issue) {
	for _, issue := range issues {
		if issue.Code != domain_models.IssueMissingBackup || issue.DayNumber == 0 {
			continue
		}
		day := dayByNumber(itinerary, issue.DayNumber)
		if day == nil || len(day.Backups) > 0 {
			continue
		}
		// Prefer an unscheduled indoor candidate from the pool; synthesize a
		// generic option only when none remains.
		backup, found := s.unscheduledIndoor(itinerary)
		if !found {
			backup = domain_models.POI{
				ID:              fmt.Sprintf("backup-day%d", issue.DayNumber),
				Name:            "Indoor backup option",
				City:            itinerary.City,
				Themes:          []string{"indoor"},
				TypicalDuration: 2.0,
				Indoor:          true,
				OpenHours:       "10:00-20:00",
				FactSources: map[string]domain_models.Provenance{
					"name":             domain_models.ProvenanceFallback,
					"open_hours":       domain_models.ProvenanceFallback,
					"typical_duration": domain_models.ProvenanceFallback,
				},
			}
			itinerary.Pool[backup.ID] = backup
		}
		day.Backups = append(day.Backups, domain_models.ScheduleItem{
			PoiID:    backup.ID,
			PoiName:  backup.Name,
			TimeSlot: domain_models.SlotAfternoon,
			Notes:    "backup for rain or crowds",
			IsBackup: true,
		})
	}
}

func (s *RepairService) unscheduledIndoor(itinerary *domain_models.Itinerary) (domain_models.POI, bool) {
	var names []string
	byName := make(map[string]domain_models.POI)
	for _, poi := range itinerary.Pool {
		if poi.Indoor && !itinerary.HasPOI(poi.ID) {
			names = append(names, poi.Name)
			byName[poi.Name] = poi
		}
	}
	if len(names) == 0 {
		return domain_models.POI{}, false
	}
	sort.Strings(names)
	return byName[names[0]], true
}

// ── shared helpers ───────────────────────────────────────────────

func dayByNumber(itinerary *domain_models.Itinerary, dayNumber int) *domain_models.ItineraryDay {
	for di := range itinerary.Days {
		if itinerary.Days[di].DayNumber == dayNumber {
			return &itinerary.Days[di]
		}
	}
	return nil
}

func (s *RepairService) rebuildDayTimes(itinerary *domain_models.Itinerary, dayNumber int, constraints domain_models.TripConstraints) {
	s.scheduler.ReboxDay(itinerary, dayNumber, constraints)
}

func (s *RepairService) recomputeBudget(itinerary *domain_models.Itinerary, constraints domain_models.TripConstraints, profile domain_models.UserProfile) {
	// ReboxDay prices food with the default profile; this final pass re-prices
	// with the traveler's actual profile.
	if sched, ok := s.scheduler.(*SchedulerService); ok {
		sched.accountBudget(itinerary, constraints, profile)
	}
}

// ── edit patches ─────────────────────────────────────────────────

// ApplyEditPatch performs one chat-driven local edit on the targeted day.
// replace_stop, add_stop and remove_stop re-box that day; adjust_time and
// lunch_break edit its items in place without re-boxing.
func (s *RepairService) ApplyEditPatch(itinerary domain_models.Itinerary, patch *request_models.EditPatch, constraints domain_models.TripConstraints) (domain_models.Itinerary, error) {
	if patch == nil {
		return itinerary, utils.ErrInputInvalid
	}
	out := itinerary.Clone()

	switch {
	case patch.ReplaceStop != nil:
		op := patch.ReplaceStop
		day := dayByNumber(&out, op.DayNumber)
		if day == nil {
			return itinerary, utils.ErrInputInvalid
		}
		idx := itemIndexByName(&out, day, op.OldPoi)
		if idx == -1 {
			return itinerary, utils.ErrInputInvalid
		}
		replacement, ok := poolPoiByName(&out, op.NewPoi)
		if !ok {
			return itinerary, utils.ErrInputInvalid
		}
		day.Items[idx].PoiID = replacement.ID
		day.Items[idx].PoiName = replacement.Name
		s.rebuildDayTimes(&out, op.DayNumber, constraints)

	case patch.AddStop != nil:
		op := patch.AddStop
		day := dayByNumber(&out, op.DayNumber)
		if day == nil {
			return itinerary, utils.ErrInputInvalid
		}
		poi, ok := poolPoiByName(&out, op.Poi)
		if !ok {
			return itinerary, utils.ErrInputInvalid
		}
		if out.HasPOI(poi.ID) {
			return itinerary, utils.ErrInputInvalid
		}
		day.Items = append(day.Items, domain_models.ScheduleItem{PoiID: poi.ID, PoiName: poi.Name})
		s.rebuildDayTimes(&out, op.DayNumber, constraints)

	case patch.RemoveStop != nil:
		op := patch.RemoveStop
		day := dayByNumber(&out, op.DayNumber)
		if day == nil {
			return itinerary, utils.ErrInputInvalid
		}
		idx := itemIndexByName(&out, day, op.Poi)
		if idx == -1 {
			return itinerary, utils.ErrInputInvalid
		}
		day.Items = append(day.Items[:idx], day.Items[idx+1:]...)
		s.rebuildDayTimes(&out, op.DayNumber, constraints)

	case patch.AdjustTime != nil:
		op := patch.AdjustTime
		day := dayByNumber(&out, op.DayNumber)
		if day == nil {
			return itinerary, utils.ErrInputInvalid
		}
		idx := itemIndexByName(&out, day, op.Poi)
		if idx == -1 {
			return itinerary, utils.ErrInputInvalid
		}
		start, ok := domain_models.ParseClock(op.StartTime)
		if !ok {
			return itinerary, utils.ErrInputInvalid
		}
		poi := out.Pool[day.Items[idx].PoiID]
		day.Items[idx].StartTime = domain_models.FormatClock(start)
		day.Items[idx].EndTime = domain_models.FormatClock(start + int(poi.TypicalDuration*60))

	case patch.LunchBreak != nil:
		op := patch.LunchBreak
		day := dayByNumber(&out, op.DayNumber)
		if day == nil {
			return itinerary, utils.ErrInputInvalid
		}
		start := lunchStart
		if op.StartTime != "" {
			if parsed, ok := domain_models.ParseClock(op.StartTime); ok {
				start = parsed
			}
		}
		day.Items = append(day.Items, mealItem("Lunch break", domain_models.SlotLunch, start))
		sort.SliceStable(day.Items, func(i, j int) bool {
			a, _ := domain_models.ParseClock(day.Items[i].StartTime)
			b, _ := domain_models.ParseClock(day.Items[j].StartTime)
			return a < b
		})

	default:
		return itinerary, utils.ErrInputInvalid
	}

	return out, nil
}

func itemIndexByName(itinerary *domain_models.Itinerary, day *domain_models.ItineraryDay, name string) int {
	norm := domain_models.NormalizeName(name)
	for i, item := range day.Items {
		if item.PoiID == "" {
			continue
		}
		if strings.Contains(domain_models.NormalizeName(item.PoiName), norm) {
			return i
		}
	}
	return -1
}

func poolPoiByName(itinerary *domain_models.Itinerary, name string) (domain_models.POI, bool) {
	norm := domain_models.NormalizeName(name)
	for _, poi := range itinerary.Pool {
		if strings.Contains(domain_models.NormalizeName(poi.Name), norm) {
			return poi, true
		}
	}
	return domain_models.POI{}, false
}
