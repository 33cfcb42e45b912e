package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ekeneamah/checkit2f-be-sub001/internal/models"
)

// FailureRepo persists failure records. Records are append-only: only the
// dispute fields and the suspension linkage are ever updated, and nothing is
// deleted.
type FailureRepo struct {
	pool *pgxpool.Pool
}

func NewFailureRepo(pool *pgxpool.Pool) *FailureRepo {
	return &FailureRepo{pool: pool}
}

func (r *FailureRepo) Create(ctx context.Context, rec *models.FailureRecord) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO failure_records (id, agent_id, request_id, failure_type, reason, failed_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rec.ID, rec.AgentID, rec.RequestID, rec.FailureType, rec.Reason, rec.FailedAt)
	return err
}

func (r *FailureRepo) ExistsForAgentRequest(ctx context.Context, agentID, requestID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM failure_records WHERE agent_id = $1 AND request_id = $2)
	`, agentID, requestID).Scan(&exists)
	return exists, err
}

// CountByAgentSince counts the agent's failures with failed_at >= since
// (inclusive window edge).
func (r *FailureRepo) CountByAgentSince(ctx context.Context, agentID uuid.UUID, since time.Time) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM failure_records WHERE agent_id = $1 AND failed_at >= $2
	`, agentID, since).Scan(&n)
	return n, err
}

// ListByAgent returns the agent's failures newest first. limit <= 0 returns
// all of them.
func (r *FailureRepo) ListByAgent(ctx context.Context, agentID uuid.UUID, limit int) ([]*models.FailureRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, agent_id, request_id, failure_type, reason, failed_at,
		       disputed_at, dispute_note, suspension_id
		FROM failure_records
		WHERE agent_id = $1
		ORDER BY failed_at DESC
		LIMIT NULLIF($2, 0)
	`, agentID, max(limit, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.FailureRecord
	for rows.Next() {
		var f models.FailureRecord
		if err := rows.Scan(&f.ID, &f.AgentID, &f.RequestID, &f.FailureType, &f.Reason, &f.FailedAt,
			&f.DisputedAt, &f.DisputeNote, &f.SuspensionID); err != nil {
			return nil, err
		}
		list = append(list, &f)
	}
	return list, rows.Err()
}

// SetDispute annotates a record with a dispute note. Returns false when no
// such record exists.
func (r *FailureRepo) SetDispute(ctx context.Context, id uuid.UUID, note string, at time.Time) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE failure_records SET dispute_note = $2, disputed_at = $3 WHERE id = $1
	`, id, note, at)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *FailureRepo) CountAll(ctx context.Context) (int64, error) {
	var n int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM failure_records`).Scan(&n)
	return n, err
}
