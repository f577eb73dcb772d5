package pipeline

import (
	"errors"

	"github.com/genovesjohn191/dealfi/internal/models"
)

var ErrNoLeadTypes = errors.New("at least one lead type is required")

// Aggregate builds a lead's stage list from its selected types: catalogs are
// concatenated in selection order and deduplicated by id, first occurrence
// wins. Later duplicates across types are dropped, never merged. Every stage
// starts incomplete with no completion metadata.
func Aggregate(types []models.LeadType) ([]models.Stage, error) {
	if len(types) == 0 {
		return nil, ErrNoLeadTypes
	}

	seen := map[string]bool{}
	var out []models.Stage
	for _, t := range types {
		tpl, err := StagesFor(t)
		if err != nil {
			return nil, err
		}
		for _, s := range tpl {
			if seen[s.ID] {
				continue
			}
			seen[s.ID] = true
			out = append(out, models.Stage{ID: s.ID, Title: s.Title, Track: s.Track})
		}
	}
	return out, nil
}

// NeedsLenderAtCreation: a financed purchase goes straight onto the lender
// queue; cash deals do not.
func NeedsLenderAtCreation(types []models.LeadType, isCashDeal bool) bool {
	for _, t := range types {
		if t == models.LeadTypePurchase {
			return !isCashDeal
		}
	}
	return false
}
