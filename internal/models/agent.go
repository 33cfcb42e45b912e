package models

import (
	"time"

	"github.com/google/uuid"
)

// Agent level tiers, ordered BASIC < VERIFIED < PROFESSIONAL < EXPERT.
const (
	AgentLevelBasic        = "BASIC"
	AgentLevelVerified     = "VERIFIED"
	AgentLevelProfessional = "PROFESSIONAL"
	AgentLevelExpert       = "EXPERT"
)

// levelRank orders agent levels for requirement comparisons.
var levelRank = map[string]int{
	AgentLevelBasic:        0,
	AgentLevelVerified:     1,
	AgentLevelProfessional: 2,
	AgentLevelExpert:       3,
}

// LevelAtLeast reports whether level meets or exceeds required per the fixed
// tier ordering. Unknown levels rank below BASIC.
func LevelAtLeast(level, required string) bool {
	lr, ok := levelRank[level]
	if !ok {
		lr = -1
	}
	rr, ok := levelRank[required]
	if !ok {
		rr = -1
	}
	return lr >= rr
}

// Agent availability status enum.
const (
	AvailabilityAvailable = "AVAILABLE"
	AvailabilityBusy      = "BUSY"
	AvailabilityOffline   = "OFFLINE"
	AvailabilityOnBreak   = "ON_BREAK"
)

// Certification is a named credential with issue/expiry dates. A nil
// ExpiresAt means the certification does not expire.
type Certification struct {
	Name      string     `json:"name"`
	IssuedAt  time.Time  `json:"issued_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// AgentProfile is the engine's read model of a field agent. It is owned and
// mutated by the agent-management collaborator; the engine only reads it,
// except for the IsSuspended/SuspendedUntil write-back performed by the
// suspension manager.
type AgentProfile struct {
	ID                     uuid.UUID       `json:"id"`
	Level                  string          `json:"level"`
	Specializations        []string        `json:"specializations"`
	PrimarySpecialization  string          `json:"primary_specialization,omitempty"`
	Certifications         []Certification `json:"certifications,omitempty"`
	AverageRating          float64         `json:"average_rating"`
	TotalRatings           int             `json:"total_ratings"`
	TotalCompletedRequests int             `json:"total_completed_requests"`
	TotalFailedRequests    int             `json:"total_failed_requests"`
	SuccessRate            float64         `json:"success_rate"`            // percent, 0–100
	OnTimeCompletionRate   float64         `json:"on_time_completion_rate"` // percent, 0–100
	HasSmartphone          bool            `json:"has_smartphone"`
	HasCamera              bool            `json:"has_camera"`
	HasMeasuringTools      bool            `json:"has_measuring_tools"`
	Latitude               *float64        `json:"latitude,omitempty"`
	Longitude              *float64        `json:"longitude,omitempty"`
	MaxTravelDistanceKm    float64         `json:"max_travel_distance_km"`
	IsAvailable            bool            `json:"is_available"`
	IsOnline               bool            `json:"is_online"`
	AvailabilityStatus     string          `json:"availability_status"`
	MaxConcurrentRequests  int             `json:"max_concurrent_requests"`
	CurrentActiveRequests  int             `json:"current_active_requests"`
	IsActive               bool            `json:"is_active"`
	IsVerified             bool            `json:"is_verified"`
	IsSuspended            bool            `json:"is_suspended"`
	SuspendedUntil         *time.Time      `json:"suspended_until,omitempty"`
	KYCCompleted           bool            `json:"kyc_completed"`
	CreatedAt              time.Time       `json:"created_at"`
	UpdatedAt              time.Time       `json:"updated_at"`
}

// HasSpecialization reports whether the agent declares the given tag.
func (a *AgentProfile) HasSpecialization(tag string) bool {
	for _, s := range a.Specializations {
		if s == tag {
			return true
		}
	}
	return false
}
