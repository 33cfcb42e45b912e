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

// ErrNotFound is returned when a referenced record does not exist.
var ErrNotFound = errors.New("not found")

// FailureStore is the persistence contract for failure records. ListByAgent
// returns newest first.
type FailureStore interface {
	Create(ctx context.Context, rec *models.FailureRecord) error
	ExistsForAgentRequest(ctx context.Context, agentID, requestID uuid.UUID) (bool, error)
	CountByAgentSince(ctx context.Context, agentID uuid.UUID, since time.Time) (int, error)
	ListByAgent(ctx context.Context, agentID uuid.UUID, limit int) ([]*models.FailureRecord, error)
	SetDispute(ctx context.Context, id uuid.UUID, note string, at time.Time) (bool, error)
	CountAll(ctx context.Context) (int64, error)
}

// Suspender is the slice of the suspension manager the recorder needs.
type Suspender interface {
	Suspend(ctx context.Context, agentID uuid.UUID, reason string) (*models.SuspensionRecord, error)
}

// RecordFailureParams are the inputs to RecordFailure.
type RecordFailureParams struct {
	AgentID     uuid.UUID `json:"agent_id"`
	RequestID   uuid.UUID `json:"request_id"`
	FailureType string    `json:"failure_type"`
	Reason      string    `json:"reason"`
}

// RecordFailureResult reports what recording one failure did.
type RecordFailureResult struct {
	Recorded              bool                     `json:"recorded"`
	FailureID             uuid.UUID                `json:"failure_id"`
	BlacklistedForRequest bool                     `json:"blacklisted_for_request"`
	RecentFailureCount    int                      `json:"recent_failure_count"`
	SuspensionTriggered   bool                     `json:"suspension_triggered"`
	Suspension            *models.SuspensionRecord `json:"suspension,omitempty"`
}

// Recorder appends failure records and fires the suspension threshold.
type Recorder struct {
	Failures    FailureStore
	Suspensions Suspender
	Logger      *slog.Logger
	now         func() time.Time
}

// NewRecorder returns a Recorder over the given stores.
func NewRecorder(failures FailureStore, suspensions Suspender, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{Failures: failures, Suspensions: suspensions, Logger: logger, now: time.Now}
}

// RecordFailure persists a new failure record unconditionally, then
// recomputes the agent's 30-day failure count from raw records. Reaching the
// threshold invokes the suspension manager; losing a concurrent suspend race
// resolves to "already suspended" rather than an error. The new record
// permanently blacklists the agent for this request.
func (r *Recorder) RecordFailure(ctx context.Context, p RecordFailureParams) (*RecordFailureResult, error) {
	if p.AgentID == uuid.Nil || p.RequestID == uuid.Nil {
		return nil, fmt.Errorf("%w: agent_id and request_id are required", ErrValidation)
	}
	if !models.ValidFailureType(p.FailureType) {
		return nil, fmt.Errorf("%w: unknown failure type %q", ErrValidation, p.FailureType)
	}

	now := r.now()
	rec := &models.FailureRecord{
		ID:          uuid.New(),
		AgentID:     p.AgentID,
		RequestID:   p.RequestID,
		FailureType: p.FailureType,
		Reason:      p.Reason,
		FailedAt:    now,
	}
	if err := r.Failures.Create(ctx, rec); err != nil {
		r.Logger.Error("record failure: create", "agent_id", p.AgentID, "request_id", p.RequestID, "operation", "record_failure", "error", err)
		return nil, fmt.Errorf("create failure record for agent %s: %w", p.AgentID, err)
	}

	count, err := r.Failures.CountByAgentSince(ctx, p.AgentID, now.Add(-FailureLookback))
	if err != nil {
		r.Logger.Error("record failure: count window", "agent_id", p.AgentID, "operation", "record_failure", "error", err)
		return nil, fmt.Errorf("count recent failures for agent %s: %w", p.AgentID, err)
	}

	result := &RecordFailureResult{
		Recorded:              true,
		FailureID:             rec.ID,
		BlacklistedForRequest: true,
		RecentFailureCount:    count,
	}

	if count >= SuspensionThreshold {
		reason := fmt.Sprintf("%d failures within %d days", count, int(FailureLookback.Hours()/24))
		susp, err := r.Suspensions.Suspend(ctx, p.AgentID, reason)
		switch {
		case errors.Is(err, ErrAlreadySuspended):
			// Expected when the threshold was crossed earlier or by a
			// concurrent recorder.
		case err != nil:
			return nil, err
		default:
			result.SuspensionTriggered = true
			result.Suspension = susp
		}
	}

	return result, nil
}

// IsBlacklistedForRequest reports whether any failure record exists for the
// (agent, request) pair. The blacklist is implicit, permanent, and
// non-expiring.
func (r *Recorder) IsBlacklistedForRequest(ctx context.Context, agentID, requestID uuid.UUID) (bool, error) {
	return r.Failures.ExistsForAgentRequest(ctx, agentID, requestID)
}

// GetRecentFailures recomputes the agent's failure count over the sliding
// 30-day window (inclusive) from raw records; there is no denormalized
// counter to drift.
func (r *Recorder) GetRecentFailures(ctx context.Context, agentID uuid.UUID) (int, error) {
	return r.Failures.CountByAgentSince(ctx, agentID, r.now().Add(-FailureLookback))
}

// GetAgentFailures returns the agent's failure records, newest first,
// truncated to limit (limit <= 0 means no truncation).
func (r *Recorder) GetAgentFailures(ctx context.Context, agentID uuid.UUID, limit int) ([]*models.FailureRecord, error) {
	return r.Failures.ListByAgent(ctx, agentID, limit)
}

// DisputeFailure annotates an existing failure record with a dispute note.
// Records stay otherwise immutable.
func (r *Recorder) DisputeFailure(ctx context.Context, failureID uuid.UUID, note string) error {
	if note == "" {
		return fmt.Errorf("%w: dispute note is required", ErrValidation)
	}
	updated, err := r.Failures.SetDispute(ctx, failureID, note, r.now())
	if err != nil {
		r.Logger.Error("dispute failure", "failure_id", failureID, "operation", "dispute", "error", err)
		return fmt.Errorf("dispute failure %s: %w", failureID, err)
	}
	if !updated {
		return fmt.Errorf("failure %s: %w", failureID, ErrNotFound)
	}
	return nil
}
