package recommendation

import (
	"errors"
	"fmt"
	"math"
)

// RatingWeight is the fixed contribution of the pharmacy rating. It is not
// part of Weights, so caller weights do not need to sum to 1.
const RatingWeight = 0.1

var ErrInvalidWeights = errors.New("invalid weights")

// Weights are the caller-controlled factors of the total score
type Weights struct {
	Price        float64 `json:"priceWeight"`
	Distance     float64 `json:"distanceWeight"`
	Availability float64 `json:"availabilityWeight"`
}

var (
	DefaultWeights      = Weights{Price: 0.4, Distance: 0.4, Availability: 0.2}
	EmergencyWeights    = Weights{Price: 0.1, Distance: 0.7, Availability: 0.2}
	BudgetWeights       = Weights{Price: 0.7, Distance: 0.2, Availability: 0.1}
	PersonalizedWeights = Weights{Price: 0.5, Distance: 0.3, Availability: 0.2}
)

// Validate checks every weight is within [0, 1]
func (w Weights) Validate() error {
	check := func(name string, v float64) error {
		if math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("%w: %s must be between 0 and 1, got %v", ErrInvalidWeights, name, v)
		}
		return nil
	}

	if err := check("priceWeight", w.Price); err != nil {
		return err
	}
	if err := check("distanceWeight", w.Distance); err != nil {
		return err
	}
	return check("availabilityWeight", w.Availability)
}
