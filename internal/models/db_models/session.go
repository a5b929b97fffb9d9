package db_models

import "github.com/lib/pq"

// Session is one planning conversation. Constraints and the latest itinerary
// are stored as JSON payloads so schema changes stay additive.
type Session struct {
	BaseModel
	Sequence        int64          `gorm:"not null;default:0"`
	City            string         `gorm:"index"`
	Themes          pq.StringArray `gorm:"type:text[]"`
	ConstraintsJSON string         `gorm:"column:constraints_json;type:jsonb"`
	ItineraryJSON   string         `gorm:"column:itinerary_json;type:jsonb"`
}

// PlanRecord is one answered request, keyed by request id for export.
type PlanRecord struct {
	BaseModel
	SessionID     string `gorm:"index"`
	RequestID     string `gorm:"uniqueIndex"`
	TraceID       string
	Status        string
	DegradeLevel  string
	ItineraryJSON string `gorm:"column:itinerary_json;type:jsonb"`
	Message       string
}

// SchemaMigration tracks the applied schema version.
type SchemaMigration struct {
	Version   int `gorm:"primaryKey"`
	AppliedAt int64
}
