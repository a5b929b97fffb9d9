package domain_models

import "time"

type ScheduleItem struct {
	PoiID         string   `json:"poi_id"`
	PoiName       string   `json:"poi_name"`
	TimeSlot      TimeSlot `json:"time_slot"`
	StartTime     string   `json:"start_time"` // "HH:MM"
	EndTime       string   `json:"end_time"`
	TravelMinutes float64  `json:"travel_minutes"` // from previous item
	Notes         string   `json:"notes,omitempty"`
	IsBackup      bool     `json:"is_backup,omitempty"`
}

type ItineraryDay struct {
	DayNumber int            `json:"day_number"`
	Date      string         `json:"date,omitempty"` // "2006-01-02"
	Items     []ScheduleItem `json:"items"`
	Backups   []ScheduleItem `json:"backups,omitempty"`
	// TransportOverride upgrades this day to a faster mode than the trip-wide
	// one; set by repair, honored when the day is re-boxed.
	TransportOverride  TransportMode `json:"transport_override,omitempty"`
	DaySummary         string        `json:"day_summary,omitempty"`
	EstimatedCost      float64       `json:"estimated_cost"`
	TotalTravelMinutes float64       `json:"total_travel_minutes"`
}

type BudgetBreakdown struct {
	Tickets        float64 `json:"tickets"`
	LocalTransport float64 `json:"local_transport"`
	FoodMin        float64 `json:"food_min"`
}

type ConfidenceBreakdown struct {
	VerifiedFactRatio float64 `json:"verified_fact_ratio"`
	FallbackRate      float64 `json:"fallback_rate"`
	RoutingConfidence float64 `json:"routing_confidence"`
}

type Itinerary struct {
	City                  string              `json:"city"`
	Days                  []ItineraryDay      `json:"days"`
	TotalCost             float64             `json:"total_cost"`
	Assumptions           []string            `json:"assumptions,omitempty"`
	BudgetBreakdown       BudgetBreakdown     `json:"budget_breakdown"`
	MinimumFeasibleBudget float64             `json:"minimum_feasible_budget"`
	ConfidenceScore       float64             `json:"confidence_score"`
	ConfidenceBreakdown   ConfidenceBreakdown `json:"confidence_breakdown"`
	DegradeLevel          DegradeLevel        `json:"degrade_level"`
	Issues                []Issue             `json:"issues,omitempty"`
	RoutingConfidence     float64             `json:"routing_confidence"`
	// Pool is the POI arena the schedule references; serialized with the
	// itinerary so exports and edit patches stay self-contained.
	Pool map[string]POI `json:"pool"`
}

// PoiFor resolves a schedule item's POI from the arena snapshot.
func (it Itinerary) PoiFor(id string) (POI, bool) {
	p, ok := it.Pool[id]
	return p, ok
}

// Clone deep-copies the itinerary so repair strategies can mutate freely while
// the orchestrator keeps the pre-repair state.
func (it Itinerary) Clone() Itinerary {
	out := it
	out.Days = make([]ItineraryDay, len(it.Days))
	for i, d := range it.Days {
		nd := d
		nd.Items = append([]ScheduleItem(nil), d.Items...)
		nd.Backups = append([]ScheduleItem(nil), d.Backups...)
		out.Days[i] = nd
	}
	out.Assumptions = append([]string(nil), it.Assumptions...)
	out.Issues = append([]Issue(nil), it.Issues...)
	out.Pool = make(map[string]POI, len(it.Pool))
	for k, v := range it.Pool {
		out.Pool[k] = v
	}
	return out
}

// HasPOI reports whether any day (main schedule, not backups) visits the POI.
func (it Itinerary) HasPOI(poiID string) bool {
	for _, day := range it.Days {
		for _, item := range day.Items {
			if item.PoiID == poiID {
				return true
			}
		}
	}
	return false
}

// ParseClock parses an "HH:MM" schedule time into minutes since midnight.
func ParseClock(s string) (int, bool) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, false
	}
	return t.Hour()*60 + t.Minute(), true
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	if minutes < 0 {
		minutes = 0
	}
	h := (minutes / 60) % 24
	m := minutes % 60
	return time.Date(2000, 1, 1, h, m, 0, 0, time.UTC).Format("15:04")
}
