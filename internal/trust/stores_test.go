package trust

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ekeneamah/checkit2f-be-sub001/internal/models"
)

// ---------------------------------------------------------------------------
// In-memory FailureStore
// ---------------------------------------------------------------------------

// memFailureStore reproduces the production repository contract in memory:
// append-only records, inclusive window counting, newest-first listing.
type memFailureStore struct {
	records []*models.FailureRecord
}

func (m *memFailureStore) Create(_ context.Context, rec *models.FailureRecord) error {
	cp := *rec
	m.records = append(m.records, &cp)
	return nil
}

func (m *memFailureStore) ExistsForAgentRequest(_ context.Context, agentID, requestID uuid.UUID) (bool, error) {
	for _, r := range m.records {
		if r.AgentID == agentID && r.RequestID == requestID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memFailureStore) CountByAgentSince(_ context.Context, agentID uuid.UUID, since time.Time) (int, error) {
	n := 0
	for _, r := range m.records {
		if r.AgentID == agentID && !r.FailedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *memFailureStore) ListByAgent(_ context.Context, agentID uuid.UUID, limit int) ([]*models.FailureRecord, error) {
	var out []*models.FailureRecord
	for _, r := range m.records {
		if r.AgentID == agentID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FailedAt.After(out[j].FailedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *memFailureStore) SetDispute(_ context.Context, id uuid.UUID, note string, at time.Time) (bool, error) {
	for _, r := range m.records {
		if r.ID == id {
			r.DisputedAt = &at
			r.DisputeNote = &note
			return true, nil
		}
	}
	return false, nil
}

func (m *memFailureStore) CountAll(_ context.Context) (int64, error) {
	return int64(len(m.records)), nil
}

// ---------------------------------------------------------------------------
// In-memory SuspensionStore
// ---------------------------------------------------------------------------

// memSuspensionStore reproduces the single-ACTIVE-row invariant the
// production repository enforces with a conditional insert.
type memSuspensionStore struct {
	records []*models.SuspensionRecord
}

func (m *memSuspensionStore) activeFor(agentID uuid.UUID) *models.SuspensionRecord {
	for _, r := range m.records {
		if r.AgentID == agentID && r.Status == models.SuspensionActive {
			return r
		}
	}
	return nil
}

func (m *memSuspensionStore) CreateActive(_ context.Context, rec *models.SuspensionRecord, failureIDs []uuid.UUID) (bool, error) {
	if m.activeFor(rec.AgentID) != nil {
		return false, nil
	}
	cp := *rec
	cp.FailureIDs = append([]uuid.UUID(nil), failureIDs...)
	m.records = append(m.records, &cp)
	return true, nil
}

func (m *memSuspensionStore) LatestActive(_ context.Context, agentID uuid.UUID) (*models.SuspensionRecord, error) {
	return m.activeFor(agentID), nil
}

func (m *memSuspensionStore) ExpireActive(_ context.Context, agentID uuid.UUID, at time.Time) (int64, error) {
	var n int64
	for _, r := range m.records {
		if r.AgentID == agentID && r.Status == models.SuspensionActive {
			r.Status = models.SuspensionExpired
			ts := at
			r.ReinstatedAt = &ts
			n++
		}
	}
	return n, nil
}

func (m *memSuspensionStore) LiftActive(_ context.Context, agentID, liftedBy uuid.UUID, reason string, at time.Time) (bool, error) {
	rec := m.activeFor(agentID)
	if rec == nil {
		return false, nil
	}
	rec.Status = models.SuspensionManuallyLifted
	by, ts, why := liftedBy, at, reason
	rec.LiftedBy = &by
	rec.LiftedAt = &ts
	rec.LiftReason = &why
	return true, nil
}

func (m *memSuspensionStore) ExpireAllDue(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for _, r := range m.records {
		if r.Status == models.SuspensionActive && now.After(r.SuspendedUntil) {
			r.Status = models.SuspensionExpired
			ts := now
			r.ReinstatedAt = &ts
			n++
		}
	}
	return n, nil
}

func (m *memSuspensionStore) ListByAgent(_ context.Context, agentID uuid.UUID) ([]*models.SuspensionRecord, error) {
	var out []*models.SuspensionRecord
	for _, r := range m.records {
		if r.AgentID == agentID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SuspendedAt.After(out[j].SuspendedAt) })
	return out, nil
}

func (m *memSuspensionStore) CountByStatus(_ context.Context) (map[string]int64, error) {
	counts := map[string]int64{}
	for _, r := range m.records {
		counts[r.Status]++
	}
	return counts, nil
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

func float64Ptr(f float64) *float64 { return &f }

// makeQualifiedAgent builds a profile that passes every eligibility check for
// makeRequestType's config.
func makeQualifiedAgent() *models.AgentProfile {
	return &models.AgentProfile{
		ID:                    uuid.New(),
		Level:                 models.AgentLevelVerified,
		Specializations:       []string{"property_verification"},
		PrimarySpecialization: "property_verification",
		AverageRating:         4.2,
		TotalRatings:          12,
		SuccessRate:           88,
		OnTimeCompletionRate:  80,
		HasSmartphone:         true,
		HasCamera:             true,
		HasMeasuringTools:     true,
		Latitude:              float64Ptr(6.5244),
		Longitude:             float64Ptr(3.3792),
		MaxTravelDistanceKm:   25,
		IsAvailable:           true,
		IsOnline:              true,
		AvailabilityStatus:    models.AvailabilityAvailable,
		MaxConcurrentRequests: 3,
		CurrentActiveRequests: 1,
		IsActive:              true,
		IsVerified:            true,
		KYCCompleted:          true,
	}
}

func makeRequestType() *models.RequestTypeConfig {
	return &models.RequestTypeConfig{
		ID:                      uuid.New(),
		Name:                    "property_verification",
		RequiredAgentLevel:      models.AgentLevelVerified,
		RequiredSpecializations: []string{"property_verification"},
		RequiredMinRating:       4.0,
		RequiresGPS:             true,
		BroadcastRadiusKm:       10,
	}
}

// notSuspended is a SuspensionChecker stub that always answers "not
// suspended".
type notSuspended struct{}

func (notSuspended) IsSuspended(context.Context, uuid.UUID) (*SuspensionStatus, error) {
	return &SuspensionStatus{IsSuspended: false}, nil
}

// alwaysSuspended answers with a live suspension.
type alwaysSuspended struct{}

func (alwaysSuspended) IsSuspended(context.Context, uuid.UUID) (*SuspensionStatus, error) {
	until := time.Now().Add(24 * time.Hour)
	return &SuspensionStatus{IsSuspended: true, SuspendedUntil: &until, Reason: "test", CanAppeal: true}, nil
}
