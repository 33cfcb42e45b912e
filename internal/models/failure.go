package models

import (
	"time"

	"github.com/google/uuid"
)

// Failure type enum.
const (
	FailureTimeout           = "TIMEOUT"
	FailureCancellation      = "CANCELLATION"
	FailureNoShow            = "NO_SHOW"
	FailurePoorQuality       = "POOR_QUALITY"
	FailureCustomerComplaint = "CUSTOMER_COMPLAINT"
)

// ValidFailureType reports whether t is a known failure type.
func ValidFailureType(t string) bool {
	switch t {
	case FailureTimeout, FailureCancellation, FailureNoShow, FailurePoorQuality, FailureCustomerComplaint:
		return true
	}
	return false
}

// FailureRecord is one agent failure on one job. Records are append-only:
// once created, only the dispute fields and the suspension linkage change,
// and records are never deleted (audit trail). The existence of any record
// for an (agent, request) pair permanently blacklists the agent for that
// request.
type FailureRecord struct {
	ID           uuid.UUID  `json:"id"`
	AgentID      uuid.UUID  `json:"agent_id"`
	RequestID    uuid.UUID  `json:"request_id"`
	FailureType  string     `json:"failure_type"`
	Reason       string     `json:"reason"`
	FailedAt     time.Time  `json:"failed_at"`
	DisputedAt   *time.Time `json:"disputed_at,omitempty"`
	DisputeNote  *string    `json:"dispute_note,omitempty"`
	SuspensionID *uuid.UUID `json:"suspension_id,omitempty"`
}
