package recommendation

import (
	"fmt"
	"math"
	"strings"
)

// Distances beyond this horizon score 0 but are still ranked
const maxRelevantDistanceKm = 20.0

// priceScore inverts the price position inside [min, max]. Equal bounds score 1.
func priceScore(price, minPrice, maxPrice float64) float64 {
	if minPrice == maxPrice {
		return 1
	}
	return 1 - (price-minPrice)/(maxPrice-minPrice)
}

func distanceScore(distanceKm float64) float64 {
	return math.Max(0, 1-distanceKm/maxRelevantDistanceKm)
}

func availabilityScore(stock int) float64 {
	switch {
	case stock >= 50:
		return 1
	case stock >= 20:
		return 0.8
	case stock >= 10:
		return 0.6
	case stock >= 5:
		return 0.4
	case stock >= 1:
		return 0.2
	default:
		return 0
	}
}

func ratingScore(rating float64) float64 {
	return rating / 5
}

func totalScore(b ScoreBreakdown, w Weights) float64 {
	return b.Price*w.Price + b.Distance*w.Distance + b.Availability*w.Availability + b.Rating*RatingWeight
}

// reasoning describes the strong points of a recommendation from its
// rounded breakdown
func reasoning(b ScoreBreakdown, discount int) string {
	var reasons []string

	switch {
	case b.Price > 0.8:
		reasons = append(reasons, "Excellent price")
	case b.Price > 0.6:
		reasons = append(reasons, "Good price")
	}

	switch {
	case b.Distance > 0.8:
		reasons = append(reasons, "Very close location")
	case b.Distance > 0.6:
		reasons = append(reasons, "Nearby location")
	}

	switch {
	case b.Availability > 0.8:
		reasons = append(reasons, "High stock availability")
	case b.Availability > 0.4:
		reasons = append(reasons, "Medicine in stock")
	}

	if discount > 0 {
		reasons = append(reasons, fmt.Sprintf("%d%% discount available", discount))
	}

	if len(reasons) == 0 {
		return "Available option"
	}
	return strings.Join(reasons, ", ")
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
