package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"tripweaver/internal/models/domain_models"
	"tripweaver/internal/providers"
	"tripweaver/pkg/utils"
)

const (
	dayStartMinutes  = 9 * 60  // 09:00
	dayEndMinutes    = 21 * 60 // 21:00
	dailyActivityCap = 8 * 60  // activity + travel budget per day

	lunchStart   = 11*60 + 30
	lunchEnd     = 13*60 + 30
	dinnerStart  = 17*60 + 30
	dinnerEnd    = 19*60 + 30
	mealDuration = 60

	peakBuffer        = 30.0
	reservationBuffer = 15.0
	peakInflation     = 1.5

	replacementRadiusKm = 2.0
)

func clusterRadiusKm(mode domain_models.TransportMode) float64 {
	switch mode {
	case domain_models.TransportWalking:
		return 3.0
	case domain_models.TransportDriving:
		return 10.0
	default:
		return 5.0
	}
}

type SchedulerServiceInterface interface {
	BuildItinerary(ctx context.Context, constraints domain_models.TripConstraints, profile domain_models.UserProfile, pool *RetrieverResult) (domain_models.Itinerary, error)
	ReboxDay(itinerary *domain_models.Itinerary, dayNumber int, constraints domain_models.TripConstraints)
}

type SchedulerService struct {
	route  providers.RouteProvider
	cfg    *utils.Config
	logger *zap.Logger
}

func NewSchedulerService(route providers.RouteProvider, cfg *utils.Config, logger *zap.Logger) SchedulerServiceInterface {
	return &SchedulerService{route: route, cfg: cfg, logger: logger}
}

// BuildItinerary runs the four scheduling phases: day partitioning by
// geographic cluster, greedy intra-day ordering, time-boxing with meal windows
// and buffers, and budget accounting. Validation happens downstream.
func (s *SchedulerService) BuildItinerary(ctx context.Context, constraints domain_models.TripConstraints, profile domain_models.UserProfile, pool *RetrieverResult) (domain_models.Itinerary, error) {
	itinerary := domain_models.Itinerary{
		City:              constraints.City,
		RoutingConfidence: 1.0,
		Pool:              make(map[string]domain_models.POI, pool.Arena.Len()),
	}
	for _, poi := range pool.Arena.All() {
		itinerary.Pool[poi.ID] = poi
	}

	dates := constraints.TripDates()
	peak := s.tripHasPeakDay(dates)
	if peak {
		itinerary.Assumptions = append(itinerary.Assumptions,
			"peak season trip: security buffers inflated 1.5x around the festival window")
	}

	// Phase 1: cluster candidates and spread clusters over days.
	clusters := singleLinkClusters(pool.Ranked, clusterRadiusKm(constraints.TransportMode))
	dayPois := assignClustersToDays(clusters, constraints.Days)

	for dayIdx := 0; dayIdx < constraints.Days; dayIdx++ {
		day := domain_models.ItineraryDay{DayNumber: dayIdx + 1}
		if !dates[dayIdx].IsZero() {
			day.Date = utils.FormatDate(dates[dayIdx])
		}

		pois := dayPois[dayIdx]

		// Phase 3 closed-day handling needs the date; swap closed POIs for a
		// same-theme neighbor before ordering.
		pois = s.replaceClosed(pois, pool, dates[dayIdx], &itinerary, usedIDs(dayPois))

		// Phase 2: greedy nearest-neighbor ordering.
		ordered := orderGreedy(pois)

		items, backups := s.timeBoxDay(ctx, ordered, constraints.TransportMode, dates[dayIdx], peak, &itinerary)
		day.Items = items
		day.Backups = backups
		for _, item := range items {
			day.TotalTravelMinutes += item.TravelMinutes
		}
		day.DaySummary = summarizeDay(day, itinerary.Pool)
		itinerary.Days = append(itinerary.Days, day)
	}

	s.flagMustVisitClosures(&itinerary)
	s.accountBudget(&itinerary, constraints, profile)
	return itinerary, nil
}

// ── Phase 1: clustering ──────────────────────────────────────────

type poiCluster struct {
	pois          []domain_models.POI
	totalDuration float64
	hasPinned     bool
}

// singleLinkClusters merges POIs transitively whenever any pair sits within
// the radius.
func singleLinkClusters(pois []domain_models.POI, radiusKm float64) []poiCluster {
	n := len(pois)
	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		if parent[i] != i {
			parent[i] = find(parent[i])
		}
		return parent[i]
	}
	union := func(a, b int) { parent[find(a)] = find(b) }

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if utils.HaversineKm(pois[i].Lat, pois[i].Lon, pois[j].Lat, pois[j].Lon) <= radiusKm {
				union(i, j)
			}
		}
	}

	grouped := make(map[int]*poiCluster)
	var roots []int
	for i, poi := range pois {
		root := find(i)
		cluster, ok := grouped[root]
		if !ok {
			cluster = &poiCluster{}
			grouped[root] = cluster
			roots = append(roots, root)
		}
		cluster.pois = append(cluster.pois, poi)
		cluster.totalDuration += poi.TypicalDuration * 60
		cluster.hasPinned = cluster.hasPinned || poi.Pinned
	}

	out := make([]poiCluster, 0, len(roots))
	for _, root := range roots {
		out = append(out, *grouped[root])
	}
	// Biggest clusters place first so day loads balance.
	sort.Slice(out, func(i, j int) bool {
		if out[i].hasPinned != out[j].hasPinned {
			return out[i].hasPinned
		}
		return out[i].totalDuration > out[j].totalDuration
	})
	return out
}

// assignClustersToDays spreads clusters round-robin weighted by accumulated
// duration, keeping each day under the activity cap where possible.
func assignClustersToDays(clusters []poiCluster, days int) [][]domain_models.POI {
	assigned := make([][]domain_models.POI, days)
	loads := make([]float64, days)

	for _, cluster := range clusters {
		// Lightest day takes the next cluster.
		best := 0
		for d := 1; d < days; d++ {
			if loads[d] < loads[best] {
				best = d
			}
		}
		// A cluster larger than the cap splits across days rather than sink
		// one day entirely.
		for _, poi := range cluster.pois {
			target := best
			if loads[target]+poi.TypicalDuration*60 > dailyActivityCap {
				for d := 0; d < days; d++ {
					if loads[d]+poi.TypicalDuration*60 <= dailyActivityCap {
						target = d
						break
					}
				}
			}
			assigned[target] = append(assigned[target], poi)
			loads[target] += poi.TypicalDuration * 60
		}
	}
	return assigned
}

func usedIDs(dayPois [][]domain_models.POI) map[string]bool {
	used := make(map[string]bool)
	for _, pois := range dayPois {
		for _, poi := range pois {
			used[poi.ID] = true
		}
	}
	return used
}

// ── Phase 2: ordering ────────────────────────────────────────────

// orderGreedy orders a day's POIs nearest-neighbor, starting from the first
// pinned POI or the outermost northwest point.
func orderGreedy(pois []domain_models.POI) []domain_models.POI {
	if len(pois) <= 1 {
		return pois
	}

	startIdx := -1
	for i, poi := range pois {
		if poi.Pinned {
			startIdx = i
			break
		}
	}
	if startIdx == -1 {
		startIdx = 0
		for i, poi := range pois {
			if poi.Lat > pois[startIdx].Lat ||
				(poi.Lat == pois[startIdx].Lat && poi.Lon < pois[startIdx].Lon) {
				startIdx = i
			}
		}
	}

	remaining := append([]domain_models.POI(nil), pois...)
	ordered := []domain_models.POI{remaining[startIdx]}
	remaining = append(remaining[:startIdx], remaining[startIdx+1:]...)

	for len(remaining) > 0 {
		last := ordered[len(ordered)-1]
		nearest := 0
		nearestDist := utils.HaversineKm(last.Lat, last.Lon, remaining[0].Lat, remaining[0].Lon)
		for i := 1; i < len(remaining); i++ {
			d := utils.HaversineKm(last.Lat, last.Lon, remaining[i].Lat, remaining[i].Lon)
			if d < nearestDist {
				nearest, nearestDist = i, d
			}
		}
		ordered = append(ordered, remaining[nearest])
		remaining = append(remaining[:nearest], remaining[nearest+1:]...)
	}
	return ordered
}

// ── Phase 3: time-boxing ─────────────────────────────────────────

func (s *SchedulerService) timeBoxDay(ctx context.Context, ordered []domain_models.POI, mode domain_models.TransportMode, date time.Time, peak bool, itinerary *domain_models.Itinerary) ([]domain_models.ScheduleItem, []domain_models.ScheduleItem) {
	var items, backups []domain_models.ScheduleItem
	now := dayStartMinutes
	lunchPlaced, dinnerPlaced := false, false
	var prev *domain_models.POI

	for i := range ordered {
		poi := ordered[i]

		travel := 0.0
		if prev != nil {
			travel = s.legMinutes(ctx, *prev, poi, mode, itinerary)
		}
		// Ceil keeps the feasibility invariant exact: end + travel never
		// overshoots the next start.
		arrival := now + int(math.Ceil(travel))

		// Meal windows squeeze in before the next visit when the visit is not
		// itself food-themed. The inbound travel leg rides on the meal item so
		// the feasibility invariant stays exact across every consecutive pair.
		if !lunchPlaced && arrival >= lunchStart && arrival < lunchEnd && !isMealPOI(poi) {
			meal := mealItem("Lunch break", domain_models.SlotLunch, arrival)
			meal.TravelMinutes = travel
			items = append(items, meal)
			arrival += mealDuration
			travel = 0
			now = arrival
			lunchPlaced = true
		}
		if !dinnerPlaced && arrival >= dinnerStart && arrival < dinnerEnd && !isMealPOI(poi) {
			meal := mealItem("Dinner break", domain_models.SlotDinner, arrival)
			meal.TravelMinutes = travel
			items = append(items, meal)
			arrival += mealDuration
			travel = 0
			now = arrival
			dinnerPlaced = true
		}

		buffer := s.securityBuffer(poi, date, peak)
		end := arrival + int(poi.TypicalDuration*60+buffer)

		if end > dayEndMinutes {
			backups = append(backups, domain_models.ScheduleItem{
				PoiID:    poi.ID,
				PoiName:  poi.Name,
				TimeSlot: domain_models.SlotEvening,
				Notes:    "demoted: would run past day end",
				IsBackup: true,
			})
			continue
		}

		slot := slotFor(arrival, isMealPOI(poi))
		if isMealPOI(poi) {
			if slot == domain_models.SlotLunch {
				lunchPlaced = true
			}
			if slot == domain_models.SlotDinner {
				dinnerPlaced = true
			}
		}

		item := domain_models.ScheduleItem{
			PoiID:         poi.ID,
			PoiName:       poi.Name,
			TimeSlot:      slot,
			StartTime:     domain_models.FormatClock(arrival),
			EndTime:       domain_models.FormatClock(end),
			TravelMinutes: travel,
		}
		if buffer > 0 {
			item.Notes = fmt.Sprintf("includes %.0f min buffer", buffer)
		}
		items = append(items, item)
		now = end
		prev = &ordered[i]
	}

	return items, backups
}

func (s *SchedulerService) legMinutes(ctx context.Context, from, to domain_models.POI, mode domain_models.TransportMode, itinerary *domain_models.Itinerary) float64 {
	leg, err := s.route.RouteBetween(ctx, from.Lat, from.Lon, to.Lat, to.Lon, string(mode))
	if err != nil {
		dist := utils.HaversineKm(from.Lat, from.Lon, to.Lat, to.Lon)
		if itinerary.RoutingConfidence > 0.5 {
			itinerary.RoutingConfidence = 0.5
		}
		minutes := utils.TravelMinutes(dist, string(mode))
		if minutes < 1 {
			minutes = 1
		}
		return minutes
	}
	if leg.Confidence < itinerary.RoutingConfidence {
		itinerary.RoutingConfidence = leg.Confidence
	}
	if leg.Minutes < 1 {
		return 1
	}
	return leg.Minutes
}

func (s *SchedulerService) securityBuffer(poi domain_models.POI, date time.Time, peakTrip bool) float64 {
	buffer := 0.0
	if !date.IsZero() && s.isPeakDate(date) {
		buffer = peakBuffer
	} else if poi.ReservationRequired {
		buffer = reservationBuffer
	}
	if peakTrip && buffer > 0 {
		buffer *= peakInflation
	}
	return buffer
}

func (s *SchedulerService) isPeakDate(date time.Time) bool {
	from, to, ok := s.cfg.PeakWindow()
	if !ok {
		return false
	}
	return !date.Before(from) && !date.After(to)
}

func (s *SchedulerService) tripHasPeakDay(dates []time.Time) bool {
	for _, d := range dates {
		if !d.IsZero() && s.isPeakDate(d) {
			return true
		}
	}
	return false
}

func mealItem(name string, slot domain_models.TimeSlot, start int) domain_models.ScheduleItem {
	return domain_models.ScheduleItem{
		PoiName:   name,
		TimeSlot:  slot,
		StartTime: domain_models.FormatClock(start),
		EndTime:   domain_models.FormatClock(start + mealDuration),
	}
}

func slotFor(startMinutes int, meal bool) domain_models.TimeSlot {
	switch {
	case meal && startMinutes >= lunchStart && startMinutes < lunchEnd:
		return domain_models.SlotLunch
	case meal && startMinutes >= dinnerStart && startMinutes < dinnerEnd:
		return domain_models.SlotDinner
	case startMinutes < lunchStart:
		return domain_models.SlotMorning
	case startMinutes < dinnerStart:
		return domain_models.SlotAfternoon
	default:
		return domain_models.SlotEvening
	}
}

func isMealPOI(poi domain_models.POI) bool {
	return poi.HasTheme("food")
}

// ── closed-day handling ──────────────────────────────────────────

// ClosedOn evaluates a POI's closed_rules for a date: weekday names and
// explicit YYYY-MM-DD dates, semicolon separated.
func ClosedOn(poi domain_models.POI, date time.Time) bool {
	if poi.ClosedRules == "" || date.IsZero() {
		return false
	}
	weekday := strings.ToLower(date.Weekday().String())
	for _, rule := range strings.Split(poi.ClosedRules, ";") {
		rule = strings.ToLower(strings.TrimSpace(rule))
		if rule == "" {
			continue
		}
		if rule == weekday || rule == utils.FormatDate(date) {
			return true
		}
	}
	return false
}

// replaceClosed swaps non-pinned POIs that are closed on the day for the
// next-best same-theme candidate within 2 km.
func (s *SchedulerService) replaceClosed(pois []domain_models.POI, pool *RetrieverResult, date time.Time, itinerary *domain_models.Itinerary, used map[string]bool) []domain_models.POI {
	if date.IsZero() {
		return pois
	}
	for i := range pois {
		if !ClosedOn(pois[i], date) || pois[i].Pinned {
			continue
		}
		replacement, ok := s.findReplacement(pois[i], pool, date, used)
		if !ok {
			itinerary.Assumptions = append(itinerary.Assumptions,
				fmt.Sprintf("%s is closed on %s and no nearby replacement was available", pois[i].Name, utils.FormatDate(date)))
			continue
		}
		itinerary.Assumptions = append(itinerary.Assumptions,
			fmt.Sprintf("replaced %s (closed %s) with %s", pois[i].Name, utils.FormatDate(date), replacement.Name))
		delete(used, pois[i].ID)
		used[replacement.ID] = true
		pois[i] = replacement
	}
	return pois
}

func (s *SchedulerService) findReplacement(closed domain_models.POI, pool *RetrieverResult, date time.Time, used map[string]bool) (domain_models.POI, bool) {
	for _, candidate := range pool.Ranked {
		if used[candidate.ID] || candidate.ID == closed.ID || ClosedOn(candidate, date) {
			continue
		}
		if utils.HaversineKm(closed.Lat, closed.Lon, candidate.Lat, candidate.Lon) > replacementRadiusKm {
			continue
		}
		if !sharesTheme(closed, candidate) {
			continue
		}
		return candidate, true
	}
	return domain_models.POI{}, false
}

func sharesTheme(a, b domain_models.POI) bool {
	for _, theme := range a.Themes {
		if b.HasTheme(theme) {
			return true
		}
	}
	return false
}

// flagMustVisitClosures marks pinned POIs scheduled on a date their closed
// rules exclude. The POI stays on the plan; the issue and an assumption note
// surface the conflict.
func (s *SchedulerService) flagMustVisitClosures(itinerary *domain_models.Itinerary) {
	for di := range itinerary.Days {
		day := &itinerary.Days[di]
		if day.Date == "" {
			continue
		}
		date := utils.ParseDate(day.Date)
		if date == nil {
			continue
		}
		for _, item := range day.Items {
			if item.PoiID == "" {
				continue
			}
			poi, ok := itinerary.Pool[item.PoiID]
			if !ok || !poi.Pinned || !ClosedOn(poi, *date) {
				continue
			}
			itinerary.Issues = append(itinerary.Issues, domain_models.Issue{
				Code:      domain_models.IssueMustVisitClosed,
				Severity:  domain_models.SeverityHigh,
				DayNumber: day.DayNumber,
				PoiID:     poi.ID,
				Evidence:  fmt.Sprintf("%s is closed on %s (%s)", poi.Name, day.Date, poi.ClosedRules),
			})
			itinerary.Assumptions = append(itinerary.Assumptions,
				fmt.Sprintf("%s stays on the plan although it is closed on %s; consider shifting dates", poi.Name, day.Date))
		}
	}
}

// ── Phase 4: budget ──────────────────────────────────────────────

func (s *SchedulerService) accountBudget(itinerary *domain_models.Itinerary, constraints domain_models.TripConstraints, profile domain_models.UserProfile) {
	travelers := domain_models.TravelersCount(profile.TravelersType)

	tickets := 0.0
	travelMinutes := 0.0
	transport := 0.0
	for di := range itinerary.Days {
		day := &itinerary.Days[di]
		mode := constraints.TransportMode
		if day.TransportOverride != "" {
			mode = day.TransportOverride
		}
		dayCost := 0.0
		dayTravel := 0.0
		for _, item := range day.Items {
			dayTravel += item.TravelMinutes
			if item.PoiID == "" {
				continue
			}
			if poi, ok := itinerary.Pool[item.PoiID]; ok {
				dayCost += poi.TicketPrice
			}
		}
		day.EstimatedCost = dayCost
		tickets += dayCost
		travelMinutes += dayTravel
		transport += dayTravel * utils.ModeCostPerMinute(string(mode))
	}
	food := float64(constraints.Days) * float64(travelers) * s.cfg.FoodMinPerPersonDay

	itinerary.BudgetBreakdown = domain_models.BudgetBreakdown{
		Tickets:        round2(tickets),
		LocalTransport: round2(transport),
		FoodMin:        round2(food),
	}
	itinerary.TotalCost = round2(tickets + transport + food)

	minimalTransport := travelMinutes * utils.ModeCostPerMinute(string(domain_models.TransportPublicTransit))
	itinerary.MinimumFeasibleBudget = round2(tickets + food + minimalTransport)
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}

func summarizeDay(day domain_models.ItineraryDay, pool map[string]domain_models.POI) string {
	var names []string
	for _, item := range day.Items {
		if item.PoiID == "" {
			continue
		}
		names = append(names, item.PoiName)
	}
	if len(names) == 0 {
		return "Free day"
	}
	return strings.Join(names, " → ")
}

// ── local re-boxing for edit patches ─────────────────────────────

// ReboxDay re-runs time-boxing for a single day after an edit patch, keeping
// the current item order and recomputing times, travel and budget.
func (s *SchedulerService) ReboxDay(itinerary *domain_models.Itinerary, dayNumber int, constraints domain_models.TripConstraints) {
	for di := range itinerary.Days {
		day := &itinerary.Days[di]
		if day.DayNumber != dayNumber {
			continue
		}

		var pois []domain_models.POI
		for _, item := range day.Items {
			if item.PoiID == "" {
				continue
			}
			if poi, ok := itinerary.Pool[item.PoiID]; ok {
				pois = append(pois, poi)
			}
		}

		date := time.Time{}
		if day.Date != "" {
			if t := utils.ParseDate(day.Date); t != nil {
				date = *t
			}
		}
		peak := !date.IsZero() && s.isPeakDate(date)
		mode := constraints.TransportMode
		if day.TransportOverride != "" {
			mode = day.TransportOverride
		}
		items, backups := s.timeBoxDay(context.Background(), pois, mode, date, peak, itinerary)
		day.Items = items
		day.Backups = append(day.Backups, backups...)
		day.TotalTravelMinutes = 0
		for _, item := range items {
			day.TotalTravelMinutes += item.TravelMinutes
		}
		day.DaySummary = summarizeDay(*day, itinerary.Pool)
		break
	}
	s.accountBudget(itinerary, constraints, domain_models.DefaultProfile())
}
