package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ekeneamah/checkit2f-be-sub001/internal/models"
)

// SuspensionRepo persists suspension episodes. The "at most one ACTIVE row
// per agent" invariant is enforced twice: a conditional INSERT ... WHERE NOT
// EXISTS, and the partial unique index uq_suspension_active as a backstop
// under concurrency. A losing writer reports created=false, never an error.
type SuspensionRepo struct {
	pool *pgxpool.Pool
}

func NewSuspensionRepo(pool *pgxpool.Pool) *SuspensionRepo {
	return &SuspensionRepo{pool: pool}
}

const suspensionColumns = `
	id, agent_id, reason, failure_count, failure_ids::text[],
	suspended_at, suspended_until, status,
	lifted_by, lifted_at, lift_reason, reinstated_at`

// CreateActive inserts an ACTIVE record, links the snapshotted failure
// records to it, and writes the suspension flags back onto the agent
// profile, all in one transaction so the audit trail can never be partial.
func (r *SuspensionRepo) CreateActive(ctx context.Context, rec *models.SuspensionRecord, failureIDs []uuid.UUID) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		INSERT INTO suspension_records (id, agent_id, reason, failure_count, failure_ids, suspended_at, suspended_until, status)
		SELECT $1, $2, $3, $4, $5::uuid[], $6, $7, 'ACTIVE'
		WHERE NOT EXISTS (
			SELECT 1 FROM suspension_records WHERE agent_id = $2 AND status = 'ACTIVE'
		)
	`, rec.ID, rec.AgentID, rec.Reason, rec.FailureCount, uuidStrings(failureIDs), rec.SuspendedAt, rec.SuspendedUntil)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return false, nil
		}
		return false, err
	}
	if result.RowsAffected() == 0 {
		return false, nil
	}

	if len(failureIDs) > 0 {
		if _, err := tx.Exec(ctx, `
			UPDATE failure_records SET suspension_id = $1 WHERE id = ANY($2::uuid[])
		`, rec.ID, uuidStrings(failureIDs)); err != nil {
			return false, err
		}
	}

	if _, err := tx.Exec(ctx, `
		UPDATE agent_profiles
		SET is_suspended = TRUE, suspended_until = $2, updated_at = now()
		WHERE id = $1
	`, rec.AgentID, rec.SuspendedUntil); err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// LatestActive returns the agent's ACTIVE record, or nil when there is none.
func (r *SuspensionRepo) LatestActive(ctx context.Context, agentID uuid.UUID) (*models.SuspensionRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+suspensionColumns+`
		FROM suspension_records
		WHERE agent_id = $1 AND status = 'ACTIVE'
		ORDER BY suspended_at DESC
		LIMIT 1
	`, agentID)
	rec, err := scanSuspension(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rec, err
}

// ExpireActive transitions all ACTIVE records for the agent to EXPIRED and
// clears the agent's suspension flags. MANUALLY_LIFTED records are terminal
// and untouched by the status guard.
func (r *SuspensionRepo) ExpireActive(ctx context.Context, agentID uuid.UUID, at time.Time) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		UPDATE suspension_records
		SET status = 'EXPIRED', reinstated_at = $2
		WHERE agent_id = $1 AND status = 'ACTIVE'
	`, agentID, at)
	if err != nil {
		return 0, err
	}
	if _, err := tx.Exec(ctx, `
		UPDATE agent_profiles
		SET is_suspended = FALSE, suspended_until = NULL, updated_at = now()
		WHERE id = $1
	`, agentID); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

// LiftActive transitions the agent's ACTIVE record to MANUALLY_LIFTED with
// audit fields. Returns false when no ACTIVE record exists.
func (r *SuspensionRepo) LiftActive(ctx context.Context, agentID, liftedBy uuid.UUID, reason string, at time.Time) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	result, err := tx.Exec(ctx, `
		UPDATE suspension_records
		SET status = 'MANUALLY_LIFTED', lifted_by = $2, lifted_at = $4, lift_reason = $3, reinstated_at = $4
		WHERE agent_id = $1 AND status = 'ACTIVE'
	`, agentID, liftedBy, reason, at)
	if err != nil {
		return false, err
	}
	if result.RowsAffected() == 0 {
		return false, nil
	}
	if _, err := tx.Exec(ctx, `
		UPDATE agent_profiles
		SET is_suspended = FALSE, suspended_until = NULL, updated_at = now()
		WHERE id = $1
	`, agentID); err != nil {
		return false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// ExpireAllDue batch-expires every ACTIVE record whose deadline has passed,
// clearing the affected agents' flags in the same transaction, and returns
// the number of expired records.
func (r *SuspensionRepo) ExpireAllDue(ctx context.Context, now time.Time) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx, `
		UPDATE suspension_records
		SET status = 'EXPIRED', reinstated_at = $1
		WHERE status = 'ACTIVE' AND suspended_until < $1
		RETURNING agent_id
	`, now)
	if err != nil {
		return 0, err
	}
	var agentIDs []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		agentIDs = append(agentIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if len(agentIDs) > 0 {
		if _, err := tx.Exec(ctx, `
			UPDATE agent_profiles
			SET is_suspended = FALSE, suspended_until = NULL, updated_at = now()
			WHERE id = ANY($1::uuid[])
		`, uuidStrings(agentIDs)); err != nil {
			return 0, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return int64(len(agentIDs)), nil
}

// ListByAgent returns the agent's full suspension history, newest first.
func (r *SuspensionRepo) ListByAgent(ctx context.Context, agentID uuid.UUID) ([]*models.SuspensionRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+suspensionColumns+`
		FROM suspension_records
		WHERE agent_id = $1
		ORDER BY suspended_at DESC
	`, agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.SuspensionRecord
	for rows.Next() {
		rec, err := scanSuspension(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, rec)
	}
	return list, rows.Err()
}

func (r *SuspensionRepo) CountByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM suspension_records GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int64)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

func scanSuspension(row pgx.Row) (*models.SuspensionRecord, error) {
	var rec models.SuspensionRecord
	var failureIDs []string
	err := row.Scan(
		&rec.ID, &rec.AgentID, &rec.Reason, &rec.FailureCount, &failureIDs,
		&rec.SuspendedAt, &rec.SuspendedUntil, &rec.Status,
		&rec.LiftedBy, &rec.LiftedAt, &rec.LiftReason, &rec.ReinstatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.FailureIDs = make([]uuid.UUID, 0, len(failureIDs))
	for _, s := range failureIDs {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, err
		}
		rec.FailureIDs = append(rec.FailureIDs, id)
	}
	return &rec, nil
}
