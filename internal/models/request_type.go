package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// RequestTypeConfig describes a job type's agent requirements. Versions are
// immutable once published; the engine treats the config as read-only.
type RequestTypeConfig struct {
	ID                      uuid.UUID       `json:"id"`
	Name                    string          `json:"name"`
	RequiredAgentLevel      string          `json:"required_agent_level"`
	RequiredSpecializations []string        `json:"required_specializations"`
	RequiredMinRating       float64         `json:"required_min_rating"`
	RequiresCertification   bool            `json:"requires_certification"`
	RequiresGPS             bool            `json:"requires_gps"`
	RequiresVideo           bool            `json:"requires_video"`
	RequiresMeasurements    bool            `json:"requires_measurements"`
	BroadcastRadiusKm       float64         `json:"broadcast_radius_km"`
	ProofSchema             json.RawMessage `json:"proof_schema,omitempty"`
	CreatedAt               time.Time       `json:"created_at"`
	UpdatedAt               time.Time       `json:"updated_at"`
}
