package trust

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ekeneamah/checkit2f-be-sub001/internal/models"
)

// ErrAlreadySuspended is returned by Suspend when the agent already has an
// ACTIVE suspension. Losing one of two concurrent suspend attempts is an
// expected outcome, not an infrastructure error.
var ErrAlreadySuspended = errors.New("agent already suspended")

// SuspensionStore is the persistence contract for suspension episodes.
// CreateActive must atomically refuse a second ACTIVE row per agent and link
// the given failure ids to the new record in the same transaction.
type SuspensionStore interface {
	CreateActive(ctx context.Context, rec *models.SuspensionRecord, failureIDs []uuid.UUID) (created bool, err error)
	LatestActive(ctx context.Context, agentID uuid.UUID) (*models.SuspensionRecord, error)
	ExpireActive(ctx context.Context, agentID uuid.UUID, at time.Time) (int64, error)
	LiftActive(ctx context.Context, agentID, liftedBy uuid.UUID, reason string, at time.Time) (bool, error)
	ExpireAllDue(ctx context.Context, now time.Time) (int64, error)
	ListByAgent(ctx context.Context, agentID uuid.UUID) ([]*models.SuspensionRecord, error)
	CountByStatus(ctx context.Context) (map[string]int64, error)
}

// SuspensionStatus is the live answer to "is this agent suspended right now".
type SuspensionStatus struct {
	IsSuspended    bool       `json:"is_suspended"`
	SuspendedUntil *time.Time `json:"suspended_until,omitempty"`
	Reason         string     `json:"reason,omitempty"`
	CanAppeal      bool       `json:"can_appeal"`
}

// LiftResult is the structured outcome of a manual lift. Success=false with
// a message distinguishes "nothing to lift" from an infrastructure problem.
type LiftResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Statistics are the engine's aggregate counters for admin tooling.
type Statistics struct {
	TotalFailures             int64 `json:"total_failures"`
	TotalSuspensions          int64 `json:"total_suspensions"`
	ActiveSuspensions         int64 `json:"active_suspensions"`
	ExpiredSuspensions        int64 `json:"expired_suspensions"`
	ManuallyLiftedSuspensions int64 `json:"manually_lifted_suspensions"`
}

// Manager owns the per-agent suspension state machine: one ACTIVE episode at
// a time, expiring lazily on read or in batch via the maintenance sweep.
type Manager struct {
	Suspensions SuspensionStore
	Failures    FailureStore
	Logger      *slog.Logger
	now         func() time.Time
}

// NewManager returns a Manager over the given stores.
func NewManager(suspensions SuspensionStore, failures FailureStore, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{Suspensions: suspensions, Failures: failures, Logger: logger, now: time.Now}
}

// Suspend opens a 30-day ACTIVE suspension for the agent, snapshotting the
// most recent failures for the audit trail. The window is fixed regardless
// of failure severity or repeat offenses; FailureCount is recorded so an
// escalation policy could be added without a schema change. If the agent is
// already suspended the attempt resolves to ErrAlreadySuspended.
func (m *Manager) Suspend(ctx context.Context, agentID uuid.UUID, reason string) (*models.SuspensionRecord, error) {
	now := m.now()

	recent, err := m.Failures.ListByAgent(ctx, agentID, SuspensionThreshold)
	if err != nil {
		m.Logger.Error("suspend: list recent failures", "agent_id", agentID, "operation", "suspend", "error", err)
		return nil, fmt.Errorf("list recent failures for agent %s: %w", agentID, err)
	}
	failureIDs := make([]uuid.UUID, 0, len(recent))
	for _, f := range recent {
		failureIDs = append(failureIDs, f.ID)
	}

	count, err := m.Failures.CountByAgentSince(ctx, agentID, now.Add(-FailureLookback))
	if err != nil {
		m.Logger.Error("suspend: count recent failures", "agent_id", agentID, "operation", "suspend", "error", err)
		return nil, fmt.Errorf("count recent failures for agent %s: %w", agentID, err)
	}

	rec := &models.SuspensionRecord{
		ID:             uuid.New(),
		AgentID:        agentID,
		Reason:         reason,
		FailureCount:   count,
		FailureIDs:     failureIDs,
		SuspendedAt:    now,
		SuspendedUntil: now.Add(SuspensionDuration),
		Status:         models.SuspensionActive,
	}

	created, err := m.Suspensions.CreateActive(ctx, rec, failureIDs)
	if err != nil {
		m.Logger.Error("suspend: create suspension", "agent_id", agentID, "operation", "suspend", "error", err)
		return nil, fmt.Errorf("create suspension for agent %s: %w", agentID, err)
	}
	if !created {
		return nil, ErrAlreadySuspended
	}

	m.Logger.Warn("agent suspended",
		"agent_id", agentID, "suspension_id", rec.ID,
		"failure_count", count, "suspended_until", rec.SuspendedUntil)
	return rec, nil
}

// IsSuspended reads the latest ACTIVE record and lazily expires it when its
// deadline has passed, so callers always see fresh state without waiting for
// the sweep.
func (m *Manager) IsSuspended(ctx context.Context, agentID uuid.UUID) (*SuspensionStatus, error) {
	rec, err := m.Suspensions.LatestActive(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("load active suspension for agent %s: %w", agentID, err)
	}
	if rec == nil {
		return &SuspensionStatus{IsSuspended: false}, nil
	}

	expired, err := m.checkAndExpireIfNeeded(ctx, rec)
	if err != nil {
		return nil, err
	}
	if expired {
		return &SuspensionStatus{IsSuspended: false}, nil
	}

	until := rec.SuspendedUntil
	return &SuspensionStatus{
		IsSuspended:    true,
		SuspendedUntil: &until,
		Reason:         rec.Reason,
		CanAppeal:      true,
	}, nil
}

// checkAndExpireIfNeeded transitions an ACTIVE record to EXPIRED as a side
// effect of a read that notices the deadline has passed. The read-then-write
// is not serialized with concurrent readers; the store update is conditional
// on status, so a concurrent expiry is a no-op.
func (m *Manager) checkAndExpireIfNeeded(ctx context.Context, rec *models.SuspensionRecord) (bool, error) {
	if !m.now().After(rec.SuspendedUntil) {
		return false, nil
	}
	if err := m.ReinstateAgent(ctx, rec.AgentID); err != nil {
		return false, err
	}
	return true, nil
}

// ReinstateAgent bulk-transitions all ACTIVE records for the agent to
// EXPIRED. Used by lazy expiry and by admin tooling.
func (m *Manager) ReinstateAgent(ctx context.Context, agentID uuid.UUID) error {
	n, err := m.Suspensions.ExpireActive(ctx, agentID, m.now())
	if err != nil {
		m.Logger.Error("reinstate: expire active suspensions", "agent_id", agentID, "operation", "reinstate", "error", err)
		return fmt.Errorf("reinstate agent %s: %w", agentID, err)
	}
	if n > 0 {
		m.Logger.Info("agent reinstated", "agent_id", agentID, "expired_records", n)
	}
	return nil
}

// ManuallyLiftSuspension transitions the single ACTIVE record to
// MANUALLY_LIFTED with audit fields. Lifting an agent with no active
// suspension is an expected empty state, reported as Success=false rather
// than an error.
func (m *Manager) ManuallyLiftSuspension(ctx context.Context, agentID, liftedBy uuid.UUID, reason string) (*LiftResult, error) {
	lifted, err := m.Suspensions.LiftActive(ctx, agentID, liftedBy, reason, m.now())
	if err != nil {
		m.Logger.Error("manual lift failed", "agent_id", agentID, "operation", "manual_lift", "error", err)
		return nil, fmt.Errorf("lift suspension for agent %s: %w", agentID, err)
	}
	if !lifted {
		return &LiftResult{Success: false, Message: "no active suspension for agent"}, nil
	}
	m.Logger.Info("suspension manually lifted", "agent_id", agentID, "lifted_by", liftedBy)
	return &LiftResult{Success: true, Message: "suspension lifted"}, nil
}

// CleanupExpiredSuspensions batch-expires every ACTIVE record whose deadline
// has passed and returns the count. Intended to run periodically from the
// maintenance worker, independent of lazy expiry.
func (m *Manager) CleanupExpiredSuspensions(ctx context.Context) (int64, error) {
	n, err := m.Suspensions.ExpireAllDue(ctx, m.now())
	if err != nil {
		m.Logger.Error("cleanup expired suspensions", "operation", "cleanup", "error", err)
		return 0, fmt.Errorf("cleanup expired suspensions: %w", err)
	}
	return n, nil
}

// GetSuspensionHistory returns every suspension episode for the agent,
// newest first.
func (m *Manager) GetSuspensionHistory(ctx context.Context, agentID uuid.UUID) ([]*models.SuspensionRecord, error) {
	return m.Suspensions.ListByAgent(ctx, agentID)
}

// GetStatistics aggregates failure and suspension counts for admin tooling.
func (m *Manager) GetStatistics(ctx context.Context) (*Statistics, error) {
	failures, err := m.Failures.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("count failures: %w", err)
	}
	byStatus, err := m.Suspensions.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count suspensions: %w", err)
	}
	stats := &Statistics{
		TotalFailures:             failures,
		ActiveSuspensions:         byStatus[models.SuspensionActive],
		ExpiredSuspensions:        byStatus[models.SuspensionExpired],
		ManuallyLiftedSuspensions: byStatus[models.SuspensionManuallyLifted],
	}
	stats.TotalSuspensions = stats.ActiveSuspensions + stats.ExpiredSuspensions + stats.ManuallyLiftedSuspensions
	return stats, nil
}
