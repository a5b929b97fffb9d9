package domain_models

import "time"

// TripConstraints are the hard requirements extracted by intake. Immutable
// after intake completes; stages receive copies.
type TripConstraints struct {
	City          string        `json:"city"`
	Days          int           `json:"days"`
	DateStart     *time.Time    `json:"date_start,omitempty"`
	DateEnd       *time.Time    `json:"date_end,omitempty"`
	DailyBudget   float64       `json:"daily_budget,omitempty"`
	TransportMode TransportMode `json:"transport_mode"`
	Pace          Pace          `json:"pace"`
	MustVisit     []string      `json:"must_visit,omitempty"`
	Avoid         []string      `json:"avoid,omitempty"`
}

// UserProfile carries soft preferences; never blocks planning.
type UserProfile struct {
	TravelersType TravelersType `json:"travelers_type"`
	Themes        []string      `json:"themes,omitempty"`
	Dietary       []string      `json:"dietary,omitempty"`
	MobilityLimit string        `json:"mobility_limit,omitempty"`
}

func DefaultConstraints() TripConstraints {
	return TripConstraints{
		TransportMode: TransportPublicTransit,
		Pace:          PaceModerate,
	}
}

func DefaultProfile() UserProfile {
	return UserProfile{TravelersType: TravelersCouple}
}

// MissingFields reports required fields still absent after intake, in clarify
// priority order.
func (c TripConstraints) MissingFields() []string {
	var missing []string
	if c.City == "" {
		missing = append(missing, "city")
	}
	if c.Days < 1 {
		missing = append(missing, "days")
	}
	return missing
}

// TripDates expands the trip into concrete dates. Without a start date, days
// are numbered but dateless (zero time values).
func (c TripConstraints) TripDates() []time.Time {
	dates := make([]time.Time, c.Days)
	if c.DateStart == nil {
		return dates
	}
	for i := 0; i < c.Days; i++ {
		dates[i] = c.DateStart.AddDate(0, 0, i)
	}
	return dates
}
