package trust

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/ekeneamah/checkit2f-be-sub001/internal/geo"
	"github.com/ekeneamah/checkit2f-be-sub001/internal/models"
)

// Contract constants. These are part of the observable API and must not
// drift from the platform's published trust policy.
const (
	SuspensionThreshold = 5
	FailureLookback     = 30 * 24 * time.Hour
	SuspensionDuration  = 30 * 24 * time.Hour
	MinRatingSampleSize = 5
)

// ErrValidation marks malformed inputs rejected before any store write.
var ErrValidation = errors.New("validation failed")

// SuspensionChecker reports live suspension state. The checker consults this
// rather than the possibly-stale IsSuspended flag on the profile.
type SuspensionChecker interface {
	IsSuspended(ctx context.Context, agentID uuid.UUID) (*SuspensionStatus, error)
}

// EligibilityDetails holds the per-criterion outcomes of an eligibility
// check. The scorer consumes these booleans directly and never re-derives
// them.
type EligibilityDetails struct {
	IsActive                  bool `json:"is_active"`
	NotSuspended              bool `json:"not_suspended"`
	MeetsLevelRequirement     bool `json:"meets_level_requirement"`
	HasRequiredSpecializations bool `json:"has_required_specializations"`
	MeetsRatingRequirement    bool `json:"meets_rating_requirement"`
	HasCertifications         bool `json:"has_certifications"`
	HasRequiredEquipment      bool `json:"has_required_equipment"`
	IsAvailable               bool `json:"is_available"`
	HasCapacity               bool `json:"has_capacity"`
	IsWithinTravelDistance    bool `json:"is_within_travel_distance"`
}

// EligibilityVerdict is the structured result of CheckEligibility.
type EligibilityVerdict struct {
	IsQualified             bool               `json:"is_qualified"`
	Details                 EligibilityDetails `json:"details"`
	DisqualificationReasons []string           `json:"disqualification_reasons"`
	Warnings                []string           `json:"warnings"`
}

// Checker decides which agents may be offered a job and ranks them.
type Checker struct {
	Suspensions SuspensionChecker
	Logger      *slog.Logger
	now         func() time.Time
}

// NewChecker returns a Checker backed by the given suspension state.
func NewChecker(suspensions SuspensionChecker, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Checker{Suspensions: suspensions, Logger: logger, now: time.Now}
}

// CheckEligibility evaluates every criterion for one agent against one
// request type. Hard disqualifiers set IsQualified=false and append a
// reason; missing KYC and missing/expired certifications are soft warnings
// only. jobLocation may be nil when the job has no fixed location.
func (c *Checker) CheckEligibility(ctx context.Context, agent *models.AgentProfile, rt *models.RequestTypeConfig, jobLocation *geo.Point) (*EligibilityVerdict, error) {
	if agent == nil || rt == nil {
		return nil, fmt.Errorf("%w: agent and request type are required", ErrValidation)
	}
	if jobLocation != nil {
		if err := jobLocation.Validate(); err != nil {
			return nil, fmt.Errorf("%w: job location: %v", ErrValidation, err)
		}
	}

	v := &EligibilityVerdict{IsQualified: true}
	d := &v.Details

	d.IsActive = agent.IsActive
	if !d.IsActive {
		c.disqualify(v, "agent is not active")
	}

	status, err := c.Suspensions.IsSuspended(ctx, agent.ID)
	if err != nil {
		return nil, fmt.Errorf("check suspension for agent %s: %w", agent.ID, err)
	}
	d.NotSuspended = !status.IsSuspended
	if status.IsSuspended {
		c.disqualify(v, "agent is currently suspended")
	}

	d.MeetsLevelRequirement = models.LevelAtLeast(agent.Level, rt.RequiredAgentLevel)
	if !d.MeetsLevelRequirement {
		c.disqualify(v, fmt.Sprintf("agent level %s is below required level %s", agent.Level, rt.RequiredAgentLevel))
	}

	d.HasRequiredSpecializations = true
	for _, tag := range rt.RequiredSpecializations {
		if !agent.HasSpecialization(tag) {
			d.HasRequiredSpecializations = false
			c.disqualify(v, fmt.Sprintf("missing required specialization %q", tag))
		}
	}

	// Rating requirement enforces a minimum sample size before the numeric
	// average is trusted at all.
	d.MeetsRatingRequirement = agent.TotalRatings >= MinRatingSampleSize && agent.AverageRating >= rt.RequiredMinRating
	if !d.MeetsRatingRequirement {
		if agent.TotalRatings < MinRatingSampleSize {
			c.disqualify(v, fmt.Sprintf("fewer than %d ratings (%d)", MinRatingSampleSize, agent.TotalRatings))
		} else {
			c.disqualify(v, fmt.Sprintf("average rating %.2f is below required %.2f", agent.AverageRating, rt.RequiredMinRating))
		}
	}

	d.HasRequiredEquipment = true
	if rt.RequiresGPS && !agent.HasSmartphone {
		d.HasRequiredEquipment = false
		c.disqualify(v, "GPS deliverable requires a smartphone")
	}
	if rt.RequiresVideo && !agent.HasCamera {
		d.HasRequiredEquipment = false
		c.disqualify(v, "video deliverable requires a camera")
	}
	if rt.RequiresMeasurements && !agent.HasMeasuringTools {
		d.HasRequiredEquipment = false
		c.disqualify(v, "measurement deliverable requires measuring tools")
	}

	d.IsAvailable = agent.IsAvailable && agent.IsOnline && agent.AvailabilityStatus == models.AvailabilityAvailable
	if !d.IsAvailable {
		c.disqualify(v, "agent is not available")
	}

	d.HasCapacity = agent.CurrentActiveRequests < agent.MaxConcurrentRequests
	if !d.HasCapacity {
		c.disqualify(v, fmt.Sprintf("agent is at concurrent request limit (%d)", agent.MaxConcurrentRequests))
	}

	d.IsWithinTravelDistance = true
	if jobLocation != nil {
		if agent.Latitude == nil || agent.Longitude == nil {
			d.IsWithinTravelDistance = false
			c.disqualify(v, "agent position is unknown")
		} else {
			dist := geo.DistanceKm(geo.Point{Latitude: *agent.Latitude, Longitude: *agent.Longitude}, *jobLocation)
			if dist > agent.MaxTravelDistanceKm {
				d.IsWithinTravelDistance = false
				c.disqualify(v, fmt.Sprintf("job is %.1f km away, beyond max travel distance %.1f km", dist, agent.MaxTravelDistanceKm))
			}
		}
	}

	if !agent.KYCCompleted {
		v.Warnings = append(v.Warnings, "KYC is not completed")
	}

	// Certification is a soft warning, not a hard failure. Level and
	// specialization stay hard disqualifiers; product has confirmed the
	// asymmetry is intentional for now.
	d.HasCertifications = c.hasValidCertification(agent, rt)
	if rt.RequiresCertification && !d.HasCertifications {
		v.Warnings = append(v.Warnings, "required certification is missing or expired")
	}

	return v, nil
}

func (c *Checker) disqualify(v *EligibilityVerdict, reason string) {
	v.IsQualified = false
	v.DisqualificationReasons = append(v.DisqualificationReasons, reason)
}

// hasValidCertification reports whether the agent holds at least one
// non-expired certification. Request types that do not require a
// certification always pass.
func (c *Checker) hasValidCertification(agent *models.AgentProfile, rt *models.RequestTypeConfig) bool {
	if !rt.RequiresCertification {
		return true
	}
	now := c.now()
	for _, cert := range agent.Certifications {
		if cert.ExpiresAt == nil || cert.ExpiresAt.After(now) {
			return true
		}
	}
	return false
}

// RankedAgent pairs an agent with its verdict and match score.
type RankedAgent struct {
	Agent   *models.AgentProfile `json:"agent"`
	Verdict *EligibilityVerdict  `json:"verdict"`
	Score   int                  `json:"score"`
}

// FindBestQualified checks every candidate, keeps the qualified ones, and
// returns them sorted by match score descending, truncated to limit
// (limit <= 0 means no truncation). Ties keep input order, so rankings are
// deterministic for a given candidate pool.
func (c *Checker) FindBestQualified(ctx context.Context, agents []*models.AgentProfile, rt *models.RequestTypeConfig, jobLocation *geo.Point, limit int) ([]RankedAgent, error) {
	var ranked []RankedAgent
	for _, agent := range agents {
		verdict, err := c.CheckEligibility(ctx, agent, rt, jobLocation)
		if err != nil {
			return nil, fmt.Errorf("check eligibility for agent %s: %w", agent.ID, err)
		}
		if !verdict.IsQualified {
			continue
		}
		ranked = append(ranked, RankedAgent{
			Agent:   agent,
			Verdict: verdict,
			Score:   Score(agent, rt, verdict.Details),
		})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}
