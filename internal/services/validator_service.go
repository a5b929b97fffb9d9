package services

import (
	"fmt"

	"tripweaver/internal/models/domain_models"
)

const (
	maxDayWallClockMinutes = 12 * 60
	travelShareLimit       = 0.35
	budgetTolerance        = 1.05
	budgetRealismFloor     = 0.85
	minLegMinutes          = 1.0
	maxLegMinutes          = 180.0
)

type ValidatorServiceInterface interface {
	Validate(itinerary domain_models.Itinerary, constraints domain_models.TripConstraints) []domain_models.Issue
}

type ValidatorService struct{}

func NewValidatorService() ValidatorServiceInterface {
	return &ValidatorService{}
}

// Validate runs every rule check and returns all findings; checks never
// short-circuit each other.
func (s *ValidatorService) Validate(itinerary domain_models.Itinerary, constraints domain_models.TripConstraints) []domain_models.Issue {
	var issues []domain_models.Issue
	issues = append(issues, checkOverTime(itinerary)...)
	issues = append(issues, checkTooMuchTravel(itinerary)...)
	issues = append(issues, checkOverBudget(itinerary, constraints)...)
	issues = append(issues, checkBudgetRealism(itinerary, constraints)...)
	issues = append(issues, checkPace(itinerary, constraints)...)
	issues = append(issues, checkTravelTimes(itinerary)...)
	issues = append(issues, checkMissingFacts(itinerary)...)
	issues = append(issues, checkBacktracking(itinerary, constraints)...)
	issues = append(issues, checkDuplicates(itinerary)...)
	issues = append(issues, checkBackups(itinerary)...)
	// Scheduler-raised findings (must-visit closures) carry through.
	issues = append(issues, itinerary.Issues...)
	return dedupeIssues(issues)
}

func dayWallClock(day domain_models.ItineraryDay) float64 {
	if len(day.Items) == 0 {
		return 0
	}
	first, okA := domain_models.ParseClock(day.Items[0].StartTime)
	last, okB := domain_models.ParseClock(day.Items[len(day.Items)-1].EndTime)
	if !okA || !okB || last < first {
		return 0
	}
	return float64(last - first)
}

func checkOverTime(itinerary domain_models.Itinerary) []domain_models.Issue {
	var issues []domain_models.Issue
	for _, day := range itinerary.Days {
		if wall := dayWallClock(day); wall > maxDayWallClockMinutes {
			issues = append(issues, domain_models.Issue{
				Code:      domain_models.IssueOverTime,
				Severity:  domain_models.SeverityHigh,
				DayNumber: day.DayNumber,
				Evidence:  fmt.Sprintf("day spans %.0f minutes, limit %d", wall, maxDayWallClockMinutes),
			})
		}
	}
	return issues
}

func checkTooMuchTravel(itinerary domain_models.Itinerary) []domain_models.Issue {
	var issues []domain_models.Issue
	for _, day := range itinerary.Days {
		wall := dayWallClock(day)
		if wall <= 0 {
			continue
		}
		if day.TotalTravelMinutes > wall*travelShareLimit {
			issues = append(issues, domain_models.Issue{
				Code:      domain_models.IssueTooMuchTravel,
				Severity:  domain_models.SeverityHigh,
				DayNumber: day.DayNumber,
				Evidence:  fmt.Sprintf("%.0f travel minutes against %.0f on the clock", day.TotalTravelMinutes, wall),
			})
		}
	}
	return issues
}

func checkOverBudget(itinerary domain_models.Itinerary, constraints domain_models.TripConstraints) []domain_models.Issue {
	if constraints.DailyBudget <= 0 {
		return nil
	}
	limit := constraints.DailyBudget * float64(constraints.Days) * budgetTolerance
	if itinerary.TotalCost > limit {
		return []domain_models.Issue{{
			Code:     domain_models.IssueOverBudget,
			Severity: domain_models.SeverityHigh,
			Evidence: fmt.Sprintf("total cost %.2f exceeds budget ceiling %.2f", itinerary.TotalCost, limit),
		}}
	}
	return nil
}

// checkBudgetRealism flags a stated budget that cannot cover even the minimal
// feasible spend for the trip.
func checkBudgetRealism(itinerary domain_models.Itinerary, constraints domain_models.TripConstraints) []domain_models.Issue {
	if itinerary.MinimumFeasibleBudget <= 0 || constraints.DailyBudget <= 0 {
		return nil
	}
	stated := constraints.DailyBudget * float64(constraints.Days)
	if stated < itinerary.MinimumFeasibleBudget*budgetRealismFloor {
		return []domain_models.Issue{{
			Code:     domain_models.IssueBudgetUnrealistic,
			Severity: domain_models.SeverityMedium,
			Evidence: fmt.Sprintf("stated budget %.2f undercuts minimum feasible %.2f", stated, itinerary.MinimumFeasibleBudget),
		}}
	}
	return nil
}

func paceBounds(pace domain_models.Pace) (int, int) {
	switch pace {
	case domain_models.PaceRelaxed:
		return 0, 3
	case domain_models.PaceIntensive:
		return 5, 8
	default:
		return 3, 5
	}
}

func poiItemCount(day domain_models.ItineraryDay) int {
	count := 0
	for _, item := range day.Items {
		if item.PoiID != "" {
			count++
		}
	}
	return count
}

func checkPace(itinerary domain_models.Itinerary, constraints domain_models.TripConstraints) []domain_models.Issue {
	low, high := paceBounds(constraints.Pace)
	var issues []domain_models.Issue
	for _, day := range itinerary.Days {
		count := poiItemCount(day)
		if count > high || (count < low && count > 0) {
			issues = append(issues, domain_models.Issue{
				Code:      domain_models.IssuePaceMismatch,
				Severity:  domain_models.SeverityMedium,
				DayNumber: day.DayNumber,
				Evidence:  fmt.Sprintf("%d visits against %s pace range %d-%d", count, constraints.Pace, low, high),
			})
		}
	}
	return issues
}

func checkTravelTimes(itinerary domain_models.Itinerary) []domain_models.Issue {
	var issues []domain_models.Issue
	for _, day := range itinerary.Days {
		seenFirst := false
		prevWasMeal := false
		for _, item := range day.Items {
			if item.PoiID == "" {
				prevWasMeal = true
				continue
			}
			if !seenFirst {
				// Day-opening leg carries no inbound travel.
				seenFirst = true
				prevWasMeal = false
				continue
			}
			if prevWasMeal && item.TravelMinutes == 0 {
				// The inbound leg rode on the meal break.
				prevWasMeal = false
				continue
			}
			prevWasMeal = false
			if item.TravelMinutes < minLegMinutes || item.TravelMinutes > maxLegMinutes {
				issues = append(issues, domain_models.Issue{
					Code:      domain_models.IssueTravelTimeInvalid,
					Severity:  domain_models.SeverityHigh,
					DayNumber: day.DayNumber,
					PoiID:     item.PoiID,
					Evidence:  fmt.Sprintf("leg of %.1f minutes to %s", item.TravelMinutes, item.PoiName),
				})
			}
		}
	}
	return issues
}

func checkMissingFacts(itinerary domain_models.Itinerary) []domain_models.Issue {
	var issues []domain_models.Issue
	for _, day := range itinerary.Days {
		for _, item := range day.Items {
			if item.PoiID == "" {
				continue
			}
			poi, ok := itinerary.PoiFor(item.PoiID)
			if !ok {
				issues = append(issues, domain_models.Issue{
					Code:      domain_models.IssueMissingFacts,
					Severity:  domain_models.SeverityHigh,
					DayNumber: day.DayNumber,
					PoiID:     item.PoiID,
					Evidence:  "scheduled POI missing from pool",
				})
				continue
			}
			if poi.OpenHours == "" || poi.TypicalDuration <= 0 {
				issues = append(issues, domain_models.Issue{
					Code:      domain_models.IssueMissingFacts,
					Severity:  domain_models.SeverityHigh,
					DayNumber: day.DayNumber,
					PoiID:     item.PoiID,
					Evidence:  fmt.Sprintf("%s lacks open hours or duration", poi.Name),
				})
			}
		}
	}
	return issues
}

// checkBacktracking counts coarse geographic zone switches within a day; too
// many means the route ping-pongs across town.
func checkBacktracking(itinerary domain_models.Itinerary, constraints domain_models.TripConstraints) []domain_models.Issue {
	limit := 2
	if constraints.Days/2 > limit {
		limit = constraints.Days / 2
	}
	var issues []domain_models.Issue
	for _, day := range itinerary.Days {
		switches := 0
		prevZone := ""
		for _, item := range day.Items {
			if item.PoiID == "" {
				continue
			}
			poi, ok := itinerary.PoiFor(item.PoiID)
			if !ok {
				continue
			}
			zone := fmt.Sprintf("%.1f:%.1f", poi.Lat, poi.Lon)
			if prevZone != "" && zone != prevZone {
				switches++
			}
			prevZone = zone
		}
		if switches > limit {
			issues = append(issues, domain_models.Issue{
				Code:      domain_models.IssueRouteBacktracking,
				Severity:  domain_models.SeverityMedium,
				DayNumber: day.DayNumber,
				Evidence:  fmt.Sprintf("%d zone switches, limit %d", switches, limit),
			})
		}
	}
	return issues
}

func checkDuplicates(itinerary domain_models.Itinerary) []domain_models.Issue {
	var issues []domain_models.Issue
	seen := make(map[string]int) // poi id -> first day
	for _, day := range itinerary.Days {
		inDay := make(map[string]bool)
		for _, item := range day.Items {
			if item.PoiID == "" {
				continue
			}
			if inDay[item.PoiID] {
				issues = append(issues, domain_models.Issue{
					Code:      domain_models.IssueDuplicatePoiDay,
					Severity:  domain_models.SeverityHigh,
					DayNumber: day.DayNumber,
					PoiID:     item.PoiID,
					Evidence:  fmt.Sprintf("%s appears twice on day %d", item.PoiName, day.DayNumber),
				})
			}
			inDay[item.PoiID] = true
			if firstDay, dup := seen[item.PoiID]; dup && firstDay != day.DayNumber {
				issues = append(issues, domain_models.Issue{
					Code:      domain_models.IssueDuplicatePoiDay,
					Severity:  domain_models.SeverityHigh,
					DayNumber: day.DayNumber,
					PoiID:     item.PoiID,
					Evidence:  fmt.Sprintf("%s already scheduled on day %d", item.PoiName, firstDay),
				})
			} else if !dup {
				seen[item.PoiID] = day.DayNumber
			}
		}
	}
	return issues
}

func checkBackups(itinerary domain_models.Itinerary) []domain_models.Issue {
	var issues []domain_models.Issue
	for _, day := range itinerary.Days {
		if len(day.Backups) == 0 {
			issues = append(issues, domain_models.Issue{
				Code:      domain_models.IssueMissingBackup,
				Severity:  domain_models.SeverityLow,
				DayNumber: day.DayNumber,
				Evidence:  "day has no backup option",
			})
		}
	}
	return issues
}

func dedupeIssues(issues []domain_models.Issue) []domain_models.Issue {
	seen := make(map[string]bool, len(issues))
	out := issues[:0]
	for _, issue := range issues {
		key := fmt.Sprintf("%s|%d|%s", issue.Code, issue.DayNumber, issue.PoiID)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, issue)
	}
	return out
}
