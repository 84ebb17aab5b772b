package recommendation

import (
	"errors"
	"fmt"
	"math"
)

const (
	DefaultTrendDays = 30
	MaxTrendDays     = 365

	trendJitter = 0.2 // total width of the daily variation, so ±10%
)

var ErrInvalidDays = errors.New("invalid day count")

// TrendPoint is one simulated day. It is not historical data.
type TrendPoint struct {
	Date          string  `json:"date"`
	AveragePrice  float64 `json:"averagePrice"`
	LowestPrice   float64 `json:"lowestPrice"`
	HighestPrice  float64 `json:"highestPrice"`
	PharmacyCount int     `json:"pharmacyCount"`
}

type TrendAnalysis struct {
	AveragePrice float64 `json:"averagePrice"`
	LowestPrice  float64 `json:"lowestPrice"`
	HighestPrice float64 `json:"highestPrice"`
	Trend        string  `json:"trend"`
}

type PriceTrend struct {
	Medicine   MedicineRef   `json:"medicine"`
	PriceTrend []TrendPoint  `json:"priceTrend"`
	Analysis   TrendAnalysis `json:"analysis"`
}

// GetPriceTrend simulates days+1 daily points ending today, anchored on the
// current average price of the medicine.
func (e *Engine) GetPriceTrend(medicineID string, days int) (*PriceTrend, error) {
	if days < 1 || days > MaxTrendDays {
		return nil, fmt.Errorf("%w: days must be between 1 and %d, got %d", ErrInvalidDays, MaxTrendDays, days)
	}

	medicine, err := e.lookup(medicineID)
	if err != nil {
		return nil, err
	}

	prices := e.inventory.AllPricesFor(medicine.ID)
	base := 0.0
	for _, p := range prices {
		base += p
	}
	if len(prices) > 0 {
		base /= float64(len(prices))
	}

	today := e.now().UTC()
	points := make([]TrendPoint, 0, days+1)

	e.rngMu.Lock()
	for i := days; i >= 0; i-- {
		variation := (e.rng.Float64() - 0.5) * trendJitter
		average := base * (1 + variation)

		points = append(points, TrendPoint{
			Date:          today.AddDate(0, 0, -i).Format("2006-01-02"),
			AveragePrice:  round2(average),
			LowestPrice:   round2(average * 0.9),
			HighestPrice:  round2(average * 1.1),
			PharmacyCount: len(prices),
		})
	}
	e.rngMu.Unlock()

	return &PriceTrend{
		Medicine:   MedicineRef{ID: medicine.ID, Name: medicine.Name},
		PriceTrend: points,
		Analysis:   analyze(points),
	}, nil
}

func analyze(points []TrendPoint) TrendAnalysis {
	if len(points) == 0 {
		return TrendAnalysis{Trend: "stable"}
	}

	sum := 0.0
	lowest := math.Inf(1)
	highest := math.Inf(-1)
	for _, p := range points {
		sum += p.AveragePrice
		lowest = math.Min(lowest, p.LowestPrice)
		highest = math.Max(highest, p.HighestPrice)
	}

	trend := "stable"
	first, last := points[0].AveragePrice, points[len(points)-1].AveragePrice
	switch {
	case last > first:
		trend = "increasing"
	case last < first:
		trend = "decreasing"
	}

	return TrendAnalysis{
		AveragePrice: round2(sum / float64(len(points))),
		LowestPrice:  lowest,
		HighestPrice: highest,
		Trend:        trend,
	}
}
