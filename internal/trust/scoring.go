package trust

import (
	"github.com/ekeneamah/checkit2f-be-sub001/internal/models"
)

// Match score point table. Three capped subtotals plus a primary
// specialization bonus, clamped to [0, 100].
const (
	pointsLevel          = 15
	pointsSpecialization = 15
	pointsRating         = 10
	pointsCertification  = 10
	pointsEquipment      = 10
	criteriaSubtotalCap  = 60

	pointsAvailable        = 15
	pointsWithinDistance   = 5
	availabilitySubtotalCap = 20

	pointsHighRating      = 10
	pointsHighSuccess     = 5
	pointsHighOnTime      = 5
	performanceSubtotalCap = 20

	pointsPrimaryMatch = 5

	highRatingFloor  = 4.5
	highSuccessFloor = 95.0
	highOnTimeFloor  = 90.0
)

// Score converts an eligibility breakdown into a 0–100 ranking score. It is
// computed only from the detail booleans plus a few profile fields and never
// re-derives eligibility: a disqualified agent can still score above zero,
// so callers must check the verdict before trusting rank.
func Score(agent *models.AgentProfile, rt *models.RequestTypeConfig, d EligibilityDetails) int {
	criteria := 0
	if d.MeetsLevelRequirement {
		criteria += pointsLevel
	}
	if d.HasRequiredSpecializations {
		criteria += pointsSpecialization
	}
	if d.MeetsRatingRequirement {
		criteria += pointsRating
	}
	if d.HasCertifications {
		criteria += pointsCertification
	}
	if d.HasRequiredEquipment {
		criteria += pointsEquipment
	}
	if criteria > criteriaSubtotalCap {
		criteria = criteriaSubtotalCap
	}

	availability := 0
	if d.IsAvailable {
		availability += pointsAvailable
	}
	if d.IsWithinTravelDistance {
		availability += pointsWithinDistance
	}
	if availability > availabilitySubtotalCap {
		availability = availabilitySubtotalCap
	}

	performance := 0
	if agent.AverageRating >= highRatingFloor {
		performance += pointsHighRating
	}
	if agent.SuccessRate >= highSuccessFloor {
		performance += pointsHighSuccess
	}
	if agent.OnTimeCompletionRate >= highOnTimeFloor {
		performance += pointsHighOnTime
	}
	if performance > performanceSubtotalCap {
		performance = performanceSubtotalCap
	}

	score := criteria + availability + performance

	if agent.PrimarySpecialization != "" {
		for _, tag := range rt.RequiredSpecializations {
			if tag == agent.PrimarySpecialization {
				score += pointsPrimaryMatch
				break
			}
		}
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}
