package requesttypes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ekeneamah/checkit2f-be-sub001/internal/models"
	"github.com/ekeneamah/checkit2f-be-sub001/internal/repository"
)

type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const columns = `
	id, name, required_agent_level, required_specializations, required_min_rating,
	requires_certification, requires_gps, requires_video, requires_measurements,
	broadcast_radius_km, proof_schema, created_at, updated_at`

type CreateParams struct {
	Name                    string
	RequiredAgentLevel      string
	RequiredSpecializations []string
	RequiredMinRating       float64
	RequiresCertification   bool
	RequiresGPS             bool
	RequiresVideo           bool
	RequiresMeasurements    bool
	BroadcastRadiusKm       float64
	ProofSchema             json.RawMessage
}

func (r *Repository) Create(ctx context.Context, p CreateParams) (*models.RequestTypeConfig, error) {
	rt := &models.RequestTypeConfig{
		ID:                      uuid.New(),
		Name:                    p.Name,
		RequiredAgentLevel:      p.RequiredAgentLevel,
		RequiredSpecializations: p.RequiredSpecializations,
		RequiredMinRating:       p.RequiredMinRating,
		RequiresCertification:   p.RequiresCertification,
		RequiresGPS:             p.RequiresGPS,
		RequiresVideo:           p.RequiresVideo,
		RequiresMeasurements:    p.RequiresMeasurements,
		BroadcastRadiusKm:       p.BroadcastRadiusKm,
		ProofSchema:             p.ProofSchema,
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO request_types (
			id, name, required_agent_level, required_specializations, required_min_rating,
			requires_certification, requires_gps, requires_video, requires_measurements,
			broadcast_radius_km, proof_schema
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`, rt.ID, rt.Name, rt.RequiredAgentLevel, rt.RequiredSpecializations, rt.RequiredMinRating,
		rt.RequiresCertification, rt.RequiresGPS, rt.RequiresVideo, rt.RequiresMeasurements,
		rt.BroadcastRadiusKm, rt.ProofSchema).Scan(&rt.CreatedAt, &rt.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return rt, nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.RequestTypeConfig, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+columns+` FROM request_types WHERE id = $1`, id)
	rt, err := scanRequestType(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("request type %s: %w", id, repository.ErrNotFound)
	}
	return rt, err
}

func (r *Repository) List(ctx context.Context) ([]*models.RequestTypeConfig, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+columns+` FROM request_types ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []*models.RequestTypeConfig
	for rows.Next() {
		rt, err := scanRequestType(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, rt)
	}
	return list, rows.Err()
}

func scanRequestType(row pgx.Row) (*models.RequestTypeConfig, error) {
	var rt models.RequestTypeConfig
	err := row.Scan(
		&rt.ID, &rt.Name, &rt.RequiredAgentLevel, &rt.RequiredSpecializations, &rt.RequiredMinRating,
		&rt.RequiresCertification, &rt.RequiresGPS, &rt.RequiresVideo, &rt.RequiresMeasurements,
		&rt.BroadcastRadiusKm, &rt.ProofSchema, &rt.CreatedAt, &rt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rt, nil
}
