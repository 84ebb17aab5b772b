package recommendation

import (
	"errors"
	"fmt"

	"github.com/medfinder/medfinder-api/data"
	"github.com/medfinder/medfinder-api/medicineparser/entities"
)

var ErrInvalidUrgency = errors.New("invalid urgency")

type Urgency string

const (
	UrgencyEmergency Urgency = "emergency"
	UrgencyBudget    Urgency = "budget"
	UrgencyNormal    Urgency = "normal"
)

// ParseUrgency maps a request value to an Urgency. Empty means normal.
func ParseUrgency(value string) (Urgency, error) {
	switch Urgency(value) {
	case "", UrgencyNormal:
		return UrgencyNormal, nil
	case UrgencyEmergency:
		return UrgencyEmergency, nil
	case UrgencyBudget:
		return UrgencyBudget, nil
	default:
		return "", fmt.Errorf("%w: %q (expected emergency, budget or normal)", ErrInvalidUrgency, value)
	}
}

// MedicineRef identifies the medicine a result is about
type MedicineRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	GenericName string `json:"genericName,omitempty"`
}

type Result struct {
	Medicine        MedicineRef      `json:"medicine"`
	Recommendations []Recommendation `json:"recommendations"`
	Criteria        Weights          `json:"criteria"`
}

type BestPharmacy struct {
	Best         *Recommendation  `json:"bestPharmacy"`
	Alternatives []Recommendation `json:"alternativeOptions"`
	Urgency      Urgency          `json:"urgencyLevel"`
	Reasoning    string           `json:"reasoning"`
}

const maxAlternatives = 3

func (e *Engine) lookup(medicineID string) (entities.Medicine, error) {
	medicine, ok := e.catalog.GetMedicineByID(medicineID)
	if !ok {
		return entities.Medicine{}, fmt.Errorf("%w: %s", data.ErrMedicineNotFound, medicineID)
	}
	return medicine, nil
}

func refOf(m entities.Medicine) MedicineRef {
	return MedicineRef{ID: m.ID, Name: m.Name, GenericName: m.GenericName}
}

// RecommendPharmacies ranks pharmacies for a medicine ID. nil weights use
// DefaultWeights.
func (e *Engine) RecommendPharmacies(medicineID string, location entities.Location, weights *Weights) (*Result, error) {
	medicine, err := e.lookup(medicineID)
	if err != nil {
		return nil, err
	}

	w := DefaultWeights
	if weights != nil {
		w = *weights
	}

	recommendations, err := e.Recommend(medicine, location, w)
	if err != nil {
		return nil, err
	}

	return &Result{Medicine: refOf(medicine), Recommendations: recommendations, Criteria: w}, nil
}

// PersonalizedRecommendations runs the personalized variant for a medicine ID
func (e *Engine) PersonalizedRecommendations(medicineID string, location entities.Location, prefs Preferences) (*Result, error) {
	medicine, err := e.lookup(medicineID)
	if err != nil {
		return nil, err
	}

	recommendations, err := e.Personalized(medicine, location, prefs)
	if err != nil {
		return nil, err
	}

	return &Result{Medicine: refOf(medicine), Recommendations: recommendations, Criteria: prefs.Weights}, nil
}

// GetBestPharmacy returns the top pharmacy for the urgency level and up to
// three alternatives. Best is nil when nothing stocks the medicine.
func (e *Engine) GetBestPharmacy(medicineID string, location entities.Location, urgency Urgency) (*BestPharmacy, error) {
	medicine, err := e.lookup(medicineID)
	if err != nil {
		return nil, err
	}

	var recommendations []Recommendation
	switch urgency {
	case UrgencyEmergency:
		recommendations, err = e.Emergency(medicine, location)
	case UrgencyBudget:
		recommendations, err = e.Recommend(medicine, location, BudgetWeights)
	case UrgencyNormal, "":
		urgency = UrgencyNormal
		recommendations, err = e.Recommend(medicine, location, DefaultWeights)
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidUrgency, urgency)
	}
	if err != nil {
		return nil, err
	}

	result := &BestPharmacy{
		Alternatives: []Recommendation{},
		Urgency:      urgency,
		Reasoning:    "No pharmacies found with this medicine",
	}
	if len(recommendations) == 0 {
		return result, nil
	}

	best := recommendations[0]
	result.Best = &best
	result.Reasoning = best.Reasoning

	rest := recommendations[1:]
	if len(rest) > maxAlternatives {
		rest = rest[:maxAlternatives]
	}
	result.Alternatives = append(result.Alternatives, rest...)

	return result, nil
}
