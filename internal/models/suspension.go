package models

import (
	"time"

	"github.com/google/uuid"
)

// Suspension status enum. ACTIVE transitions to EXPIRED (on time or sweep)
// or MANUALLY_LIFTED (admin action); both are terminal and mutually
// exclusive.
const (
	SuspensionActive         = "ACTIVE"
	SuspensionExpired        = "EXPIRED"
	SuspensionManuallyLifted = "MANUALLY_LIFTED"
)

// SuspensionRecord is one platform-wide suspension episode. An agent has at
// most one ACTIVE record at any time; the repository enforces this with a
// conditional insert.
type SuspensionRecord struct {
	ID             uuid.UUID   `json:"id"`
	AgentID        uuid.UUID   `json:"agent_id"`
	Reason         string      `json:"reason"`
	FailureCount   int         `json:"failure_count"`
	FailureIDs     []uuid.UUID `json:"failure_ids"`
	SuspendedAt    time.Time   `json:"suspended_at"`
	SuspendedUntil time.Time   `json:"suspended_until"`
	Status         string      `json:"status"`
	LiftedBy       *uuid.UUID  `json:"lifted_by,omitempty"`
	LiftedAt       *time.Time  `json:"lifted_at,omitempty"`
	LiftReason     *string     `json:"lift_reason,omitempty"`
	ReinstatedAt   *time.Time  `json:"reinstated_at,omitempty"`
}
