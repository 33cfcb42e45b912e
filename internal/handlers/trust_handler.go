package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/ekeneamah/checkit2f-be-sub001/internal/geo"
	"github.com/ekeneamah/checkit2f-be-sub001/internal/middleware"
	"github.com/ekeneamah/checkit2f-be-sub001/internal/models"
	"github.com/ekeneamah/checkit2f-be-sub001/internal/repository"
	"github.com/ekeneamah/checkit2f-be-sub001/internal/trust"
)

// AgentStore is the agent profile access the handler needs.
type AgentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.AgentProfile, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.AgentProfile, error)
	FindCandidates(ctx context.Context) ([]*models.AgentProfile, error)
}

// RequestTypeStore resolves request-type configs.
type RequestTypeStore interface {
	Get(ctx context.Context, id uuid.UUID) (*models.RequestTypeConfig, error)
}

// TrustHandler serves the engine's public surface: eligibility and ranking
// for the job-assignment workflow, failures and suspensions for admin
// tooling.
type TrustHandler struct {
	Agents       AgentStore
	RequestTypes RequestTypeStore
	Checker      *trust.Checker
	Recorder     *trust.Recorder
	Manager      *trust.Manager
	Logger       *slog.Logger
}

// --- POST /v1/eligibility/check ---

type checkEligibilityRequest struct {
	AgentID       string     `json:"agent_id"`
	RequestTypeID string     `json:"request_type_id"`
	Location      *geo.Point `json:"location,omitempty"`
}

type checkEligibilityResponse struct {
	*trust.EligibilityVerdict
	Score int `json:"score"`
}

func (h *TrustHandler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	var req checkEligibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	agentID, err := uuid.Parse(req.AgentID)
	if err != nil {
		http.Error(w, `{"error":"invalid agent_id"}`, http.StatusBadRequest)
		return
	}
	rtID, err := uuid.Parse(req.RequestTypeID)
	if err != nil {
		http.Error(w, `{"error":"invalid request_type_id"}`, http.StatusBadRequest)
		return
	}

	agent, err := h.Agents.GetByID(r.Context(), agentID)
	if err != nil {
		h.respondError(w, "load agent", err)
		return
	}
	rt, err := h.RequestTypes.Get(r.Context(), rtID)
	if err != nil {
		h.respondError(w, "load request type", err)
		return
	}

	verdict, err := h.Checker.CheckEligibility(r.Context(), agent, rt, req.Location)
	if err != nil {
		h.respondError(w, "check eligibility", err)
		return
	}
	writeJSON(w, http.StatusOK, checkEligibilityResponse{
		EligibilityVerdict: verdict,
		Score:              trust.Score(agent, rt, verdict.Details),
	})
}

// --- POST /v1/eligibility/rank ---

type rankRequest struct {
	RequestTypeID string     `json:"request_type_id"`
	AgentIDs      []string   `json:"agent_ids,omitempty"`
	Location      *geo.Point `json:"location,omitempty"`
	Limit         int        `json:"limit"`
}

func (h *TrustHandler) RankCandidates(w http.ResponseWriter, r *http.Request) {
	var req rankRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	rtID, err := uuid.Parse(req.RequestTypeID)
	if err != nil {
		http.Error(w, `{"error":"invalid request_type_id"}`, http.StatusBadRequest)
		return
	}
	rt, err := h.RequestTypes.Get(r.Context(), rtID)
	if err != nil {
		h.respondError(w, "load request type", err)
		return
	}

	// Candidate pool: explicit ids when given, otherwise all currently
	// available agents.
	var agents []*models.AgentProfile
	if len(req.AgentIDs) > 0 {
		ids := make([]uuid.UUID, 0, len(req.AgentIDs))
		for _, s := range req.AgentIDs {
			id, err := uuid.Parse(s)
			if err != nil {
				http.Error(w, `{"error":"invalid agent id `+s+`"}`, http.StatusBadRequest)
				return
			}
			ids = append(ids, id)
		}
		agents, err = h.Agents.ListByIDs(r.Context(), ids)
	} else {
		agents, err = h.Agents.FindCandidates(r.Context())
	}
	if err != nil {
		h.respondError(w, "load candidates", err)
		return
	}

	ranked, err := h.Checker.FindBestQualified(r.Context(), agents, rt, req.Location, req.Limit)
	if err != nil {
		h.respondError(w, "rank candidates", err)
		return
	}
	writeJSON(w, http.StatusOK, ranked)
}

// --- POST /v1/failures ---

func (h *TrustHandler) RecordFailure(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AgentID     string `json:"agent_id"`
		RequestID   string `json:"request_id"`
		FailureType string `json:"failure_type"`
		Reason      string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	agentID, err := uuid.Parse(req.AgentID)
	if err != nil {
		http.Error(w, `{"error":"invalid agent_id"}`, http.StatusBadRequest)
		return
	}
	requestID, err := uuid.Parse(req.RequestID)
	if err != nil {
		http.Error(w, `{"error":"invalid request_id"}`, http.StatusBadRequest)
		return
	}

	result, err := h.Recorder.RecordFailure(r.Context(), trust.RecordFailureParams{
		AgentID:     agentID,
		RequestID:   requestID,
		FailureType: req.FailureType,
		Reason:      req.Reason,
	})
	if err != nil {
		h.respondError(w, "record failure", err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// --- POST /v1/failures/{id}/dispute ---

func (h *TrustHandler) DisputeFailure(w http.ResponseWriter, r *http.Request) {
	failureID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Note string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if err := h.Recorder.DisputeFailure(r.Context(), failureID, req.Note); err != nil {
		h.respondError(w, "dispute failure", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "disputed"})
}

// --- GET /v1/agents/{id}/failures ---

func (h *TrustHandler) GetAgentFailures(w http.ResponseWriter, r *http.Request) {
	agentID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			http.Error(w, `{"error":"invalid limit"}`, http.StatusBadRequest)
			return
		}
		limit = n
	}
	failures, err := h.Recorder.GetAgentFailures(r.Context(), agentID, limit)
	if err != nil {
		h.respondError(w, "list failures", err)
		return
	}
	if failures == nil {
		failures = []*models.FailureRecord{}
	}
	writeJSON(w, http.StatusOK, failures)
}

// --- GET /v1/agents/{id}/failures/recent ---

func (h *TrustHandler) GetRecentFailures(w http.ResponseWriter, r *http.Request) {
	agentID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	count, err := h.Recorder.GetRecentFailures(r.Context(), agentID)
	if err != nil {
		h.respondError(w, "count recent failures", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"recent_failure_count": count})
}

// --- GET /v1/agents/{id}/blacklist/{requestID} ---

func (h *TrustHandler) IsBlacklisted(w http.ResponseWriter, r *http.Request) {
	agentID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	requestID, ok := pathUUID(w, r, "requestID")
	if !ok {
		return
	}
	blacklisted, err := h.Recorder.IsBlacklistedForRequest(r.Context(), agentID, requestID)
	if err != nil {
		h.respondError(w, "check blacklist", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"blacklisted": blacklisted})
}

// --- GET /v1/agents/{id}/suspension ---

func (h *TrustHandler) GetSuspension(w http.ResponseWriter, r *http.Request) {
	agentID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	status, err := h.Manager.IsSuspended(r.Context(), agentID)
	if err != nil {
		h.respondError(w, "check suspension", err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// --- POST /v1/agents/{id}/suspension ---

func (h *TrustHandler) SuspendAgent(w http.ResponseWriter, r *http.Request) {
	agentID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	if req.Reason == "" {
		http.Error(w, `{"error":"reason is required"}`, http.StatusBadRequest)
		return
	}
	rec, err := h.Manager.Suspend(r.Context(), agentID, req.Reason)
	if errors.Is(err, trust.ErrAlreadySuspended) {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "agent already suspended"})
		return
	}
	if err != nil {
		h.respondError(w, "suspend agent", err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// --- DELETE /v1/agents/{id}/suspension ---

func (h *TrustHandler) LiftSuspension(w http.ResponseWriter, r *http.Request) {
	agentID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	adminID := middleware.AdminIDFromCtx(r.Context())
	if adminID == uuid.Nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	result, err := h.Manager.ManuallyLiftSuspension(r.Context(), agentID, adminID, req.Reason)
	if err != nil {
		h.respondError(w, "lift suspension", err)
		return
	}
	// "no active suspension" is a structured outcome, not an HTTP error.
	writeJSON(w, http.StatusOK, result)
}

// --- POST /v1/agents/{id}/reinstate ---

func (h *TrustHandler) ReinstateAgent(w http.ResponseWriter, r *http.Request) {
	agentID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	if err := h.Manager.ReinstateAgent(r.Context(), agentID); err != nil {
		h.respondError(w, "reinstate agent", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reinstated"})
}

// --- GET /v1/agents/{id}/suspensions ---

func (h *TrustHandler) GetSuspensionHistory(w http.ResponseWriter, r *http.Request) {
	agentID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	history, err := h.Manager.GetSuspensionHistory(r.Context(), agentID)
	if err != nil {
		h.respondError(w, "load suspension history", err)
		return
	}
	if history == nil {
		history = []*models.SuspensionRecord{}
	}
	writeJSON(w, http.StatusOK, history)
}

// --- GET /v1/agents/{id}/level-upgrade ---

func (h *TrustHandler) GetLevelUpgrade(w http.ResponseWriter, r *http.Request) {
	agentID, ok := pathUUID(w, r, "id")
	if !ok {
		return
	}
	agent, err := h.Agents.GetByID(r.Context(), agentID)
	if err != nil {
		h.respondError(w, "load agent", err)
		return
	}
	writeJSON(w, http.StatusOK, trust.IsEligibleForLevelUpgrade(agent))
}

// --- GET /v1/trust/statistics ---

func (h *TrustHandler) GetStatistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Manager.GetStatistics(r.Context())
	if err != nil {
		h.respondError(w, "load statistics", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// --- POST /v1/trust/cleanup ---

func (h *TrustHandler) CleanupExpiredSuspensions(w http.ResponseWriter, r *http.Request) {
	n, err := h.Manager.CleanupExpiredSuspensions(r.Context())
	if err != nil {
		h.respondError(w, "cleanup suspensions", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"expired": n})
}

// --- helpers ---

func (h *TrustHandler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, trust.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.Is(err, trust.ErrValidation):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
	default:
		h.Logger.Error(op, "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func pathUUID(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		http.Error(w, `{"error":"invalid `+name+`"}`, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
