package substitute

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/medfinder/medfinder-api/data"
	"github.com/medfinder/medfinder-api/medicineparser/entities"
)

type AdvancedPreferences struct {
	PreferGeneric         bool `json:"preferGeneric"`
	BudgetConscious       bool `json:"budgetConscious"`
	AvailabilityImportant bool `json:"availabilityImportant"`
}

type AdvancedSubstitute struct {
	Substitute
	AdvancedScore        float64 `json:"advancedScore"`
	RecommendationReason string  `json:"recommendationReason"`
}

type AdvancedResult struct {
	OriginalMedicine entities.Medicine    `json:"originalMedicine"`
	Substitutes      []AdvancedSubstitute `json:"substitutes"`
	Preferences      AdvancedPreferences  `json:"preferences"`
}

const (
	genericBoost          = 0.1
	budgetBoost           = 0.15
	budgetRatioThreshold  = 0.8
	availabilityBoostUnit = 0.1
)

// FindAdvanced re-scores the basic substitutes against user preferences
func (e *Engine) FindAdvanced(medicineID string, prefs AdvancedPreferences) (*AdvancedResult, error) {
	medicine, ok := e.catalog.GetMedicineByID(medicineID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", data.ErrMedicineNotFound, medicineID)
	}

	basic, err := e.FindSubstitutes(medicine)
	if err != nil {
		return nil, err
	}

	advanced := make([]AdvancedSubstitute, 0, len(basic))
	for _, s := range basic {
		advanced = append(advanced, AdvancedSubstitute{
			Substitute:           s,
			AdvancedScore:        advancedScore(s, prefs),
			RecommendationReason: recommendationReason(s),
		})
	}

	sort.SliceStable(advanced, func(i, j int) bool {
		return advanced[i].AdvancedScore > advanced[j].AdvancedScore
	})

	return &AdvancedResult{OriginalMedicine: medicine, Substitutes: advanced, Preferences: prefs}, nil
}

func advancedScore(s Substitute, prefs AdvancedPreferences) float64 {
	score := s.Similarity

	if prefs.PreferGeneric && s.SubstituteType == TypeGeneric {
		score += genericBoost
	}

	if prefs.BudgetConscious && s.PriceComparison.OriginalPrice > 0 {
		if s.PriceComparison.SubstitutePrice/s.PriceComparison.OriginalPrice < budgetRatioThreshold {
			score += budgetBoost
		}
	}

	if prefs.AvailabilityImportant {
		score += float64(s.Availability.AvailabilityPercentage) / 100 * availabilityBoostUnit
	}

	return round2(score)
}

func recommendationReason(s Substitute) string {
	var reasons []string

	if s.SubstituteType == TypeGeneric {
		reasons = append(reasons, "Same active ingredient")
	}
	if s.PriceComparison.Comparison == "cheaper" {
		reasons = append(reasons, strconv.FormatFloat(math.Abs(s.PriceComparison.Difference), 'f', -1, 64)+"% cheaper")
	}
	if s.Availability.AvailabilityPercentage > 80 {
		reasons = append(reasons, "Widely available")
	}
	if s.SafetyRating >= 4.5 {
		reasons = append(reasons, "High safety rating")
	}

	if len(reasons) == 0 {
		return "Alternative option"
	}
	return strings.Join(reasons, ", ")
}
