package engine

import (
	"image-upscaler/internal/models"
)

var tierOrder = map[models.QualityTier][]models.Capability{
	models.TierHighest: {models.DeepModel, models.RemoteAPI, models.BilateralCLAHE, models.ClassicalResample},
	models.TierHigh:    {models.RemoteAPI, models.DeepModel, models.BilateralCLAHE, models.ClassicalResample},
	models.TierFast:    {models.BilateralCLAHE, models.ClassicalResample},
}

// Candidates returns the preference order for a tier, classical last.
// Unknown tiers get the classical backend only.
func Candidates(tier models.QualityTier) []models.Capability {
	order := tierOrder[tier]

	out := make([]models.Capability, 0, len(order)+1)
	for _, c := range order {
		if c != models.ClassicalResample {
			out = append(out, c)
		}
	}
	return append(out, models.ClassicalResample)
}
