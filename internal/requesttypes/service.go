package requesttypes

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/ekeneamah/checkit2f-be-sub001/internal/models"
	"github.com/ekeneamah/checkit2f-be-sub001/internal/trust"
)

// Store is the repository contract for request-type configs.
type Store interface {
	Create(ctx context.Context, p CreateParams) (*models.RequestTypeConfig, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.RequestTypeConfig, error)
	List(ctx context.Context) ([]*models.RequestTypeConfig, error)
}

// Service is the admin workflow for request-type configs. Configs are
// validated at write time so the engine can treat them as trusted input.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create validates the config before any store write: the required level
// must be a known tier and the proof schema, when present, must compile as a
// JSON Schema.
func (s *Service) Create(ctx context.Context, p CreateParams) (*models.RequestTypeConfig, error) {
	if p.Name == "" {
		return nil, fmt.Errorf("%w: name is required", trust.ErrValidation)
	}
	if !models.LevelAtLeast(p.RequiredAgentLevel, models.AgentLevelBasic) {
		return nil, fmt.Errorf("%w: unknown agent level %q", trust.ErrValidation, p.RequiredAgentLevel)
	}
	if p.RequiredMinRating < 0 || p.RequiredMinRating > 5 {
		return nil, fmt.Errorf("%w: required_min_rating must be within [0, 5]", trust.ErrValidation)
	}
	if p.BroadcastRadiusKm < 0 {
		return nil, fmt.Errorf("%w: broadcast_radius_km must be >= 0", trust.ErrValidation)
	}
	if len(p.ProofSchema) > 0 {
		if _, err := jsonschema.CompileString("request-type-proof.json", string(p.ProofSchema)); err != nil {
			return nil, fmt.Errorf("%w: proof schema does not compile: %v", trust.ErrValidation, err)
		}
	}
	return s.store.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.RequestTypeConfig, error) {
	return s.store.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*models.RequestTypeConfig, error) {
	return s.store.List(ctx)
}
