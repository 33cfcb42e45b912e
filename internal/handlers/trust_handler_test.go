package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ekeneamah/checkit2f-be-sub001/internal/middleware"
	"github.com/ekeneamah/checkit2f-be-sub001/internal/models"
	"github.com/ekeneamah/checkit2f-be-sub001/internal/repository"
	"github.com/ekeneamah/checkit2f-be-sub001/internal/trust"
)

// ---------------------------------------------------------------------------
// Mocks
// ---------------------------------------------------------------------------

type stubAgents struct {
	byID map[uuid.UUID]*models.AgentProfile
}

func (s *stubAgents) GetByID(_ context.Context, id uuid.UUID) (*models.AgentProfile, error) {
	if a, ok := s.byID[id]; ok {
		return a, nil
	}
	return nil, fmt.Errorf("agent %s: %w", id, repository.ErrNotFound)
}

func (s *stubAgents) ListByIDs(_ context.Context, ids []uuid.UUID) ([]*models.AgentProfile, error) {
	var out []*models.AgentProfile
	for _, id := range ids {
		if a, ok := s.byID[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *stubAgents) FindCandidates(_ context.Context) ([]*models.AgentProfile, error) {
	var out []*models.AgentProfile
	for _, a := range s.byID {
		out = append(out, a)
	}
	return out, nil
}

type stubRequestTypes struct {
	byID map[uuid.UUID]*models.RequestTypeConfig
}

func (s *stubRequestTypes) Get(_ context.Context, id uuid.UUID) (*models.RequestTypeConfig, error) {
	if rt, ok := s.byID[id]; ok {
		return rt, nil
	}
	return nil, fmt.Errorf("request type %s: %w", id, repository.ErrNotFound)
}

// stubFailureStore is the minimal FailureStore the recorder paths need.
type stubFailureStore struct {
	records []*models.FailureRecord
}

func (s *stubFailureStore) Create(_ context.Context, rec *models.FailureRecord) error {
	s.records = append(s.records, rec)
	return nil
}

func (s *stubFailureStore) ExistsForAgentRequest(_ context.Context, agentID, requestID uuid.UUID) (bool, error) {
	for _, r := range s.records {
		if r.AgentID == agentID && r.RequestID == requestID {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubFailureStore) CountByAgentSince(_ context.Context, agentID uuid.UUID, since time.Time) (int, error) {
	n := 0
	for _, r := range s.records {
		if r.AgentID == agentID && !r.FailedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *stubFailureStore) ListByAgent(_ context.Context, agentID uuid.UUID, limit int) ([]*models.FailureRecord, error) {
	var out []*models.FailureRecord
	for _, r := range s.records {
		if r.AgentID == agentID {
			out = append(out, r)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *stubFailureStore) SetDispute(_ context.Context, id uuid.UUID, note string, at time.Time) (bool, error) {
	for _, r := range s.records {
		if r.ID == id {
			r.DisputedAt = &at
			r.DisputeNote = &note
			return true, nil
		}
	}
	return false, nil
}

func (s *stubFailureStore) CountAll(_ context.Context) (int64, error) {
	return int64(len(s.records)), nil
}

// stubSuspensionStore keeps at most one ACTIVE record per agent.
type stubSuspensionStore struct {
	records []*models.SuspensionRecord
}

func (s *stubSuspensionStore) activeFor(agentID uuid.UUID) *models.SuspensionRecord {
	for _, r := range s.records {
		if r.AgentID == agentID && r.Status == models.SuspensionActive {
			return r
		}
	}
	return nil
}

func (s *stubSuspensionStore) CreateActive(_ context.Context, rec *models.SuspensionRecord, _ []uuid.UUID) (bool, error) {
	if s.activeFor(rec.AgentID) != nil {
		return false, nil
	}
	s.records = append(s.records, rec)
	return true, nil
}

func (s *stubSuspensionStore) LatestActive(_ context.Context, agentID uuid.UUID) (*models.SuspensionRecord, error) {
	return s.activeFor(agentID), nil
}

func (s *stubSuspensionStore) ExpireActive(_ context.Context, agentID uuid.UUID, _ time.Time) (int64, error) {
	var n int64
	for _, r := range s.records {
		if r.AgentID == agentID && r.Status == models.SuspensionActive {
			r.Status = models.SuspensionExpired
			n++
		}
	}
	return n, nil
}

func (s *stubSuspensionStore) LiftActive(_ context.Context, agentID, liftedBy uuid.UUID, reason string, at time.Time) (bool, error) {
	rec := s.activeFor(agentID)
	if rec == nil {
		return false, nil
	}
	rec.Status = models.SuspensionManuallyLifted
	rec.LiftedBy = &liftedBy
	rec.LiftedAt = &at
	rec.LiftReason = &reason
	return true, nil
}

func (s *stubSuspensionStore) ExpireAllDue(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for _, r := range s.records {
		if r.Status == models.SuspensionActive && now.After(r.SuspendedUntil) {
			r.Status = models.SuspensionExpired
			n++
		}
	}
	return n, nil
}

func (s *stubSuspensionStore) ListByAgent(_ context.Context, agentID uuid.UUID) ([]*models.SuspensionRecord, error) {
	var out []*models.SuspensionRecord
	for _, r := range s.records {
		if r.AgentID == agentID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *stubSuspensionStore) CountByStatus(_ context.Context) (map[string]int64, error) {
	counts := map[string]int64{}
	for _, r := range s.records {
		counts[r.Status]++
	}
	return counts, nil
}

// ---------------------------------------------------------------------------
// Fixture
// ---------------------------------------------------------------------------

func float64Ptr(f float64) *float64 { return &f }

func qualifiedAgent() *models.AgentProfile {
	return &models.AgentProfile{
		ID:                    uuid.New(),
		Level:                 models.AgentLevelVerified,
		Specializations:       []string{"property_verification"},
		AverageRating:         4.3,
		TotalRatings:          20,
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
		IsActive:              true,
		KYCCompleted:          true,
	}
}

type fixture struct {
	handler *TrustHandler
	agent   *models.AgentProfile
	rt      *models.RequestTypeConfig
	mux     *http.ServeMux
}

func newFixture() *fixture {
	agent := qualifiedAgent()
	rt := &models.RequestTypeConfig{
		ID:                      uuid.New(),
		Name:                    "property_verification",
		RequiredAgentLevel:      models.AgentLevelVerified,
		RequiredSpecializations: []string{"property_verification"},
		RequiredMinRating:       4.0,
	}

	failures := &stubFailureStore{}
	suspensions := &stubSuspensionStore{}
	mgr := trust.NewManager(suspensions, failures, nil)
	recorder := trust.NewRecorder(failures, mgr, nil)
	checker := trust.NewChecker(mgr, nil)

	h := &TrustHandler{
		Agents:       &stubAgents{byID: map[uuid.UUID]*models.AgentProfile{agent.ID: agent}},
		RequestTypes: &stubRequestTypes{byID: map[uuid.UUID]*models.RequestTypeConfig{rt.ID: rt}},
		Checker:      checker,
		Recorder:     recorder,
		Manager:      mgr,
		Logger:       slog.Default(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/eligibility/check", h.CheckEligibility)
	mux.HandleFunc("POST /v1/eligibility/rank", h.RankCandidates)
	mux.HandleFunc("POST /v1/failures", h.RecordFailure)
	mux.HandleFunc("GET /v1/agents/{id}/suspension", h.GetSuspension)
	mux.HandleFunc("DELETE /v1/agents/{id}/suspension", h.LiftSuspension)
	mux.HandleFunc("GET /v1/agents/{id}/blacklist/{requestID}", h.IsBlacklisted)
	mux.HandleFunc("GET /v1/agents/{id}/level-upgrade", h.GetLevelUpgrade)
	return &fixture{handler: h, agent: agent, rt: rt, mux: mux}
}

func (f *fixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.mux.ServeHTTP(rec, req)
	return rec
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestCheckEligibilityEndpoint(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodPost, "/v1/eligibility/check", map[string]string{
		"agent_id":        f.agent.ID.String(),
		"request_type_id": f.rt.ID.String(),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		IsQualified bool `json:"is_qualified"`
		Score       int  `json:"score"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.IsQualified {
		t.Errorf("expected qualified agent: %s", rec.Body.String())
	}
	if resp.Score <= 0 || resp.Score > 100 {
		t.Errorf("expected score in (0, 100], got %d", resp.Score)
	}

	// Unknown agent maps to 404.
	rec = f.do(t, http.MethodPost, "/v1/eligibility/check", map[string]string{
		"agent_id":        uuid.New().String(),
		"request_type_id": f.rt.ID.String(),
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown agent, got %d", rec.Code)
	}

	// Malformed uuid maps to 400.
	rec = f.do(t, http.MethodPost, "/v1/eligibility/check", map[string]string{
		"agent_id":        "not-a-uuid",
		"request_type_id": f.rt.ID.String(),
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad uuid, got %d", rec.Code)
	}
}

func TestRankCandidatesEndpoint(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodPost, "/v1/eligibility/rank", map[string]any{
		"request_type_id": f.rt.ID.String(),
		"agent_ids":       []string{f.agent.ID.String()},
		"limit":           5,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var ranked []struct {
		Score int `json:"score"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &ranked); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(ranked) != 1 {
		t.Fatalf("expected 1 ranked agent, got %d", len(ranked))
	}
}

func TestRecordFailureEndpoint(t *testing.T) {
	f := newFixture()
	requestID := uuid.New()

	rec := f.do(t, http.MethodPost, "/v1/failures", map[string]string{
		"agent_id":     f.agent.ID.String(),
		"request_id":   requestID.String(),
		"failure_type": models.FailureNoShow,
		"reason":       "did not arrive",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var result trust.RecordFailureResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !result.Recorded || !result.BlacklistedForRequest {
		t.Error("failure should be recorded and blacklist the request")
	}

	// The pair now reads as blacklisted.
	rec = f.do(t, http.MethodGet,
		"/v1/agents/"+f.agent.ID.String()+"/blacklist/"+requestID.String(), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var bl map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &bl); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !bl["blacklisted"] {
		t.Error("expected blacklisted=true after a failure")
	}

	// Unknown failure types are rejected before any write.
	rec = f.do(t, http.MethodPost, "/v1/failures", map[string]string{
		"agent_id":     f.agent.ID.String(),
		"request_id":   uuid.New().String(),
		"failure_type": "EXPLODED",
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for unknown failure type, got %d", rec.Code)
	}
}

func TestSuspensionEndpoints(t *testing.T) {
	f := newFixture()

	rec := f.do(t, http.MethodGet, "/v1/agents/"+f.agent.ID.String()+"/suspension", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var status trust.SuspensionStatus
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if status.IsSuspended {
		t.Error("fresh agent should not be suspended")
	}

	// Lift without an authenticated admin in context is a 401.
	rec = f.do(t, http.MethodDelete, "/v1/agents/"+f.agent.ID.String()+"/suspension",
		map[string]string{"reason": "appeal"})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without admin context, got %d", rec.Code)
	}

	// With an admin but no active suspension, the lift reports Success=false.
	var buf bytes.Buffer
	_ = json.NewEncoder(&buf).Encode(map[string]string{"reason": "appeal"})
	req := httptest.NewRequest(http.MethodDelete, "/v1/agents/"+f.agent.ID.String()+"/suspension", &buf)
	req = req.WithContext(middleware.WithAdminID(req.Context(), uuid.New()))
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var lift trust.LiftResult
	if err := json.Unmarshal(w.Body.Bytes(), &lift); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if lift.Success {
		t.Error("lift with no active suspension should report Success=false")
	}
}

func TestLevelUpgradeEndpoint(t *testing.T) {
	f := newFixture()
	f.agent.TotalCompletedRequests = 50
	f.agent.SuccessRate = 90
	f.agent.AverageRating = 4.3

	rec := f.do(t, http.MethodGet, "/v1/agents/"+f.agent.ID.String()+"/level-upgrade", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var out trust.UpgradeEligibility
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !out.Eligible || out.NextLevel != models.AgentLevelProfessional {
		t.Errorf("expected promotion to PROFESSIONAL, got %+v", out)
	}
}
