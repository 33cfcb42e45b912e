package requesttypes

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/ekeneamah/checkit2f-be-sub001/internal/models"
	"github.com/ekeneamah/checkit2f-be-sub001/internal/repository"
	"github.com/ekeneamah/checkit2f-be-sub001/internal/trust"
)

type Handler struct {
	svc *Service
	log *slog.Logger
}

func NewHandler(svc *Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

type createRequest struct {
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
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid JSON"}`, http.StatusBadRequest)
		return
	}
	rt, err := h.svc.Create(r.Context(), CreateParams{
		Name:                    req.Name,
		RequiredAgentLevel:      req.RequiredAgentLevel,
		RequiredSpecializations: req.RequiredSpecializations,
		RequiredMinRating:       req.RequiredMinRating,
		RequiresCertification:   req.RequiresCertification,
		RequiresGPS:             req.RequiresGPS,
		RequiresVideo:           req.RequiresVideo,
		RequiresMeasurements:    req.RequiresMeasurements,
		BroadcastRadiusKm:       req.BroadcastRadiusKm,
		ProofSchema:             req.ProofSchema,
	})
	if err != nil {
		if errors.Is(err, trust.ErrValidation) {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}
		h.log.Error("create request type", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusCreated, rt)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, `{"error":"invalid id"}`, http.StatusBadRequest)
		return
	}
	rt, err := h.svc.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
			return
		}
		h.log.Error("get request type", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, rt)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context())
	if err != nil {
		h.log.Error("list request types", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if list == nil {
		list = []*models.RequestTypeConfig{}
	}
	writeJSON(w, http.StatusOK, list)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
