package trust

import (
	"fmt"

	"github.com/ekeneamah/checkit2f-be-sub001/internal/models"
)

// LevelRequirement describes what the next tier demands.
type LevelRequirement struct {
	NextLevel                 string  `json:"next_level"`
	RequiredCompletedRequests int     `json:"required_completed_requests"`
	RequiredSuccessRate       float64 `json:"required_success_rate"`
	RequiredRating            float64 `json:"required_rating"`
}

// Promotion thresholds per current level. EXPERT is terminal.
var levelRequirements = map[string]LevelRequirement{
	models.AgentLevelBasic: {
		NextLevel:                 models.AgentLevelVerified,
		RequiredCompletedRequests: 10,
		RequiredSuccessRate:       80,
		RequiredRating:            3.5,
	},
	models.AgentLevelVerified: {
		NextLevel:                 models.AgentLevelProfessional,
		RequiredCompletedRequests: 50,
		RequiredSuccessRate:       85,
		RequiredRating:            4.0,
	},
	models.AgentLevelProfessional: {
		NextLevel:                 models.AgentLevelExpert,
		RequiredCompletedRequests: 200,
		RequiredSuccessRate:       90,
		RequiredRating:            4.5,
	},
}

// UpgradeEligibility reports whether an agent may be promoted and what is
// still missing if not.
type UpgradeEligibility struct {
	Eligible            bool     `json:"eligible"`
	NextLevel           string   `json:"next_level,omitempty"`
	MissingRequirements []string `json:"missing_requirements,omitempty"`
}

// NextLevelRequirement returns the promotion table entry for the given
// level, or false for the terminal tier.
func NextLevelRequirement(level string) (LevelRequirement, bool) {
	req, ok := levelRequirements[level]
	return req, ok
}

// IsEligibleForLevelUpgrade compares the agent's cumulative performance
// against the next tier's thresholds, returning one message per unmet
// criterion.
func IsEligibleForLevelUpgrade(agent *models.AgentProfile) *UpgradeEligibility {
	req, ok := levelRequirements[agent.Level]
	if !ok {
		return &UpgradeEligibility{
			Eligible:            false,
			MissingRequirements: []string{fmt.Sprintf("already at the highest level (%s)", models.AgentLevelExpert)},
		}
	}

	out := &UpgradeEligibility{Eligible: true, NextLevel: req.NextLevel}
	if agent.TotalCompletedRequests < req.RequiredCompletedRequests {
		out.Eligible = false
		out.MissingRequirements = append(out.MissingRequirements,
			fmt.Sprintf("needs %d completed requests (has %d)", req.RequiredCompletedRequests, agent.TotalCompletedRequests))
	}
	if agent.SuccessRate < req.RequiredSuccessRate {
		out.Eligible = false
		out.MissingRequirements = append(out.MissingRequirements,
			fmt.Sprintf("needs %.0f%% success rate (has %.1f%%)", req.RequiredSuccessRate, agent.SuccessRate))
	}
	if agent.AverageRating < req.RequiredRating {
		out.Eligible = false
		out.MissingRequirements = append(out.MissingRequirements,
			fmt.Sprintf("needs %.1f average rating (has %.2f)", req.RequiredRating, agent.AverageRating))
	}
	return out
}
