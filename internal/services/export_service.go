package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"tripweaver/internal/models/domain_models"
	"tripweaver/pkg/utils"
)

type ExportServiceInterface interface {
	Markdown(itinerary domain_models.Itinerary) string
	FromRecordJSON(itineraryJSON, format string) (string, string, error)
}

type ExportService struct{}

func NewExportService() ExportServiceInterface {
	return &ExportService{}
}

// FromRecordJSON renders a stored plan payload as markdown or passes the JSON
// through. Returns content and content type.
func (s *ExportService) FromRecordJSON(itineraryJSON, format string) (string, string, error) {
	if itineraryJSON == "" {
		return "", "", utils.ErrPlanNotFound
	}
	if format != "markdown" {
		return itineraryJSON, "application/json", nil
	}
	var itinerary domain_models.Itinerary
	if err := json.Unmarshal([]byte(itineraryJSON), &itinerary); err != nil {
		return "", "", utils.ErrInternalInvariant
	}
	return s.Markdown(itinerary), "text/markdown", nil
}

func (s *ExportService) Markdown(itinerary domain_models.Itinerary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Trip to %s\n\n", strings.Title(itinerary.City))
	fmt.Fprintf(&b, "Total cost estimate: %.0f (tickets %.0f, transport %.0f, food %.0f)\n\n",
		itinerary.TotalCost, itinerary.BudgetBreakdown.Tickets,
		itinerary.BudgetBreakdown.LocalTransport, itinerary.BudgetBreakdown.FoodMin)
	fmt.Fprintf(&b, "Confidence %.2f · degrade %s\n\n", itinerary.ConfidenceScore, itinerary.DegradeLevel)

	for _, day := range itinerary.Days {
		header := fmt.Sprintf("## Day %d", day.DayNumber)
		if day.Date != "" {
			header += " — " + day.Date
		}
		b.WriteString(header + "\n\n")
		for _, item := range day.Items {
			line := fmt.Sprintf("- %s–%s **%s**", item.StartTime, item.EndTime, item.PoiName)
			if item.TravelMinutes > 0 {
				line += fmt.Sprintf(" (travel %.0f min)", item.TravelMinutes)
			}
			if item.Notes != "" {
				line += " — " + item.Notes
			}
			b.WriteString(line + "\n")
		}
		for _, backup := range day.Backups {
			fmt.Fprintf(&b, "- backup: %s\n", backup.PoiName)
		}
		b.WriteString("\n")
	}

	if len(itinerary.Assumptions) > 0 {
		b.WriteString("## Assumptions\n\n")
		for _, assumption := range itinerary.Assumptions {
			fmt.Fprintf(&b, "- %s\n", assumption)
		}
	}
	if len(itinerary.Issues) > 0 {
		b.WriteString("\n## Open issues\n\n")
		for _, issue := range itinerary.Issues {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", issue.Severity, issue.Code, issue.Evidence)
		}
	}
	return b.String()
}
