package response_models

import "tripweaver/internal/models/domain_models"

// PlanResponse is the wire shape of every /plan and /chat answer.
type PlanResponse struct {
	Status          string                        `json:"status"` // done | clarifying | error
	Message         string                        `json:"message,omitempty"`
	Itinerary       *domain_models.Itinerary      `json:"itinerary,omitempty"`
	SessionID       string                        `json:"session_id"`
	Sequence        int64                         `json:"sequence"`
	RequestID       string                        `json:"request_id"`
	TraceID         string                        `json:"trace_id"`
	DegradeLevel    domain_models.DegradeLevel    `json:"degrade_level,omitempty"`
	ConfidenceScore float64                       `json:"confidence_score"`
	Issues          []domain_models.Issue         `json:"issues,omitempty"`
	NextQuestions   []string                      `json:"next_questions,omitempty"`
	FieldEvidence   map[string]string             `json:"field_evidence,omitempty"`
	BudgetWarning   string                        `json:"budget_warning,omitempty"`
	ErrorCode       string                        `json:"error_code,omitempty"`
	RunFingerprint  domain_models.RunFingerprint  `json:"run_fingerprint"`
}
