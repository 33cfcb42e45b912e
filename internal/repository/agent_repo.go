package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ekeneamah/checkit2f-be-sub001/internal/models"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

const agentColumns = `
	id, level, specializations, primary_specialization, certifications,
	average_rating, total_ratings, total_completed_requests, total_failed_requests,
	success_rate, on_time_completion_rate,
	has_smartphone, has_camera, has_measuring_tools,
	latitude, longitude, max_travel_distance_km,
	is_available, is_online, availability_status,
	max_concurrent_requests, current_active_requests,
	is_active, is_verified, is_suspended, suspended_until, kyc_completed,
	created_at, updated_at`

// AgentRepo reads agent profiles. The profile is owned by the
// agent-management service; this engine only reads it (the suspension
// write-back lives in SuspensionRepo).
type AgentRepo struct {
	pool *pgxpool.Pool
}

func NewAgentRepo(pool *pgxpool.Pool) *AgentRepo {
	return &AgentRepo{pool: pool}
}

func (r *AgentRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.AgentProfile, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+agentColumns+` FROM agent_profiles WHERE id = $1`, id)
	ag, err := scanAgent(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("agent %s: %w", id, ErrNotFound)
	}
	return ag, err
}

// ListByIDs returns the profiles for the given ids, preserving the input
// order. Missing ids are skipped silently; the caller decides whether a
// partial candidate pool matters.
func (r *AgentRepo) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*models.AgentProfile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+agentColumns+` FROM agent_profiles WHERE id = ANY($1::uuid[])`, uuidStrings(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	byID := make(map[uuid.UUID]*models.AgentProfile, len(ids))
	for rows.Next() {
		ag, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		byID[ag.ID] = ag
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	out := make([]*models.AgentProfile, 0, len(byID))
	for _, id := range ids {
		if ag, ok := byID[id]; ok {
			out = append(out, ag)
		}
	}
	return out, nil
}

// FindCandidates returns active, online, AVAILABLE agents as the default
// candidate pool for ranking when the caller does not name one.
func (r *AgentRepo) FindCandidates(ctx context.Context) ([]*models.AgentProfile, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+agentColumns+`
		FROM agent_profiles
		WHERE is_active = TRUE AND is_online = TRUE AND availability_status = 'AVAILABLE'
		ORDER BY created_at ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.AgentProfile
	for rows.Next() {
		ag, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, ag)
	}
	return list, rows.Err()
}

func scanAgent(row pgx.Row) (*models.AgentProfile, error) {
	var ag models.AgentProfile
	var certs json.RawMessage
	err := row.Scan(
		&ag.ID, &ag.Level, &ag.Specializations, &ag.PrimarySpecialization, &certs,
		&ag.AverageRating, &ag.TotalRatings, &ag.TotalCompletedRequests, &ag.TotalFailedRequests,
		&ag.SuccessRate, &ag.OnTimeCompletionRate,
		&ag.HasSmartphone, &ag.HasCamera, &ag.HasMeasuringTools,
		&ag.Latitude, &ag.Longitude, &ag.MaxTravelDistanceKm,
		&ag.IsAvailable, &ag.IsOnline, &ag.AvailabilityStatus,
		&ag.MaxConcurrentRequests, &ag.CurrentActiveRequests,
		&ag.IsActive, &ag.IsVerified, &ag.IsSuspended, &ag.SuspendedUntil, &ag.KYCCompleted,
		&ag.CreatedAt, &ag.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(certs) > 0 {
		if err := json.Unmarshal(certs, &ag.Certifications); err != nil {
			return nil, fmt.Errorf("agent %s: decode certifications: %w", ag.ID, err)
		}
	}
	return &ag, nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
