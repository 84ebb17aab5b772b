package recommendation

import (
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/medfinder/medfinder-api/data"
	"github.com/medfinder/medfinder-api/medicineparser/entities"
)

var userLocation = entities.Location{Lat: 12.9716, Lng: 77.5946}

var paracetamol = entities.Medicine{ID: "med_00001", Name: "Paracetamol 500mg", GenericName: "Paracetamol 500mg"}

func pharmacy(id string, lat, lng, rating float64, hours string, entries ...entities.InventoryEntry) entities.Pharmacy {
	return entities.Pharmacy{
		ID: id, Name: "Pharmacy " + id, Lat: lat, Lng: lng, Rating: rating,
		OpenHours: hours, Inventory: entries,
	}
}

func entry(price float64, stock, discount int) entities.InventoryEntry {
	return entities.InventoryEntry{MedicineID: paracetamol.ID, Price: price, Stock: stock, Discount: discount}
}

func newTestEngine(t *testing.T, pharmacies []entities.Pharmacy, opts ...Option) *Engine {
	t.Helper()
	store := data.NewDataContainer()
	store.UpdateCatalog([]entities.Medicine{
		paracetamol,
		{ID: "med_00002", Name: "Ibuprofen 400mg"},
	})
	store.LoadPharmacies(pharmacies)
	return NewEngine(store, store, opts...)
}

func TestRecommend_PriceAdvantageOutranksProximity(t *testing.T) {
	// P2 sits 0.05 degrees north of the user, about 5.56km away
	engine := newTestEngine(t, []entities.Pharmacy{
		pharmacy("P1", 12.9716, 77.5946, 5, "8-22", entry(100, 50, 0)),
		pharmacy("P2", 13.0216, 77.5946, 3, "8-22", entry(50, 5, 0)),
	})

	results, err := engine.Recommend(paracetamol, userLocation, DefaultWeights)
	require.NoError(t, err)
	require.Len(t, results, 2)

	// P2: 1*0.4 + 0.722*0.4 + 0.4*0.2 + 0.6*0.1 = 0.8288
	assert.Equal(t, "P2", results[0].Pharmacy.ID)
	assert.Equal(t, 0.83, results[0].TotalScore)
	assert.Equal(t, 5.56, results[0].Distance)
	assert.Equal(t, ScoreBreakdown{Price: 1, Distance: 0.72, Availability: 0.4, Rating: 0.6}, results[0].ScoreBreakdown)
	assert.Equal(t, "Excellent price, Nearby location", results[0].Reasoning)

	// P1: 0*0.4 + 1*0.4 + 1*0.2 + 1*0.1 = 0.7
	assert.Equal(t, "P1", results[1].Pharmacy.ID)
	assert.Equal(t, 0.7, results[1].TotalScore)
	assert.Equal(t, 0.0, results[1].Distance)
	assert.Equal(t, ScoreBreakdown{Price: 0, Distance: 1, Availability: 1, Rating: 1}, results[1].ScoreBreakdown)
	assert.Equal(t, "Very close location, High stock availability", results[1].Reasoning)
}

func TestRecommend_NoStockIsEmptyNotError(t *testing.T) {
	engine := newTestEngine(t, []entities.Pharmacy{
		pharmacy("P1", 12.9716, 77.5946, 5, "8-22", entry(100, 0, 0)),
	})

	results, err := engine.Recommend(paracetamol, userLocation, DefaultWeights)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)

	results, err = engine.Recommend(entities.Medicine{ID: "med_00002"}, userLocation, DefaultWeights)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestRecommend_EqualPricesScoreOne(t *testing.T) {
	engine := newTestEngine(t, []entities.Pharmacy{
		pharmacy("P1", 12.9716, 77.5946, 4, "8-22", entry(40, 10, 0)),
		pharmacy("P2", 12.9279, 77.6271, 4, "8-22", entry(40, 30, 0)),
		pharmacy("P3", 12.9784, 77.6408, 4, "8-22", entry(40, 60, 0)),
	})

	results, err := engine.Recommend(paracetamol, userLocation, DefaultWeights)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for _, r := range results {
		assert.Equal(t, 1.0, r.ScoreBreakdown.Price, "pharmacy %s", r.Pharmacy.ID)
	}
}

func TestRecommend_SortedDescending(t *testing.T) {
	pharmacies := make([]entities.Pharmacy, 0, 8)
	for i := 0; i < 8; i++ {
		pharmacies = append(pharmacies, pharmacy(
			fmt.Sprintf("P%d", i),
			12.9+float64(i)*0.02, 77.6, float64(i%5),
			"8-22",
			entry(float64(30+i*7), 5+i*10, i%3*5),
		))
	}
	engine := newTestEngine(t, pharmacies)

	results, err := engine.Recommend(paracetamol, userLocation, Weights{Price: 0.3, Distance: 0.5, Availability: 0.2})
	require.NoError(t, err)
	require.Len(t, results, 8)

	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].TotalScore, results[i].TotalScore)
	}
}

func TestRecommend_DiscountReasoning(t *testing.T) {
	engine := newTestEngine(t, []entities.Pharmacy{
		pharmacy("P1", 14.0, 78.5, 2, "8-22", entry(40, 3, 15)),
	})

	results, err := engine.Recommend(paracetamol, userLocation, DefaultWeights)
	require.NoError(t, err)
	require.Len(t, results, 1)

	// Far away and barely stocked, only price and discount stand out
	assert.Equal(t, "Excellent price, 15% discount available", results[0].Reasoning)
	assert.Equal(t, 0.0, results[0].ScoreBreakdown.Distance)
}

func TestRecommend_InvalidWeights(t *testing.T) {
	engine := newTestEngine(t, nil)

	_, err := engine.Recommend(paracetamol, userLocation, Weights{Price: 1.5, Distance: 0.4, Availability: 0.2})
	assert.ErrorIs(t, err, ErrInvalidWeights)

	_, err = engine.Recommend(paracetamol, userLocation, Weights{Price: 0.4, Distance: -0.1, Availability: 0.2})
	assert.ErrorIs(t, err, ErrInvalidWeights)
}

func TestSortRecommendations_TieBreak(t *testing.T) {
	recs := []Recommendation{
		{Pharmacy: PharmacySummary{ID: "b"}, TotalScore: 0.5, Distance: 2},
		{Pharmacy: PharmacySummary{ID: "c"}, TotalScore: 0.5, Distance: 1},
		{Pharmacy: PharmacySummary{ID: "a"}, TotalScore: 0.5, Distance: 2},
		{Pharmacy: PharmacySummary{ID: "d"}, TotalScore: 0.9, Distance: 9},
	}

	sortRecommendations(recs)

	ids := []string{recs[0].Pharmacy.ID, recs[1].Pharmacy.ID, recs[2].Pharmacy.ID, recs[3].Pharmacy.ID}
	assert.Equal(t, []string{"d", "c", "a", "b"}, ids)
}

func TestScoreFunctions(t *testing.T) {
	assert.Equal(t, 1.0, priceScore(10, 10, 10))
	assert.Equal(t, 1.0, priceScore(10, 10, 20))
	assert.Equal(t, 0.0, priceScore(20, 10, 20))
	assert.Equal(t, 0.5, priceScore(15, 10, 20))

	assert.Equal(t, 1.0, distanceScore(0))
	assert.Equal(t, 0.5, distanceScore(10))
	assert.Equal(t, 0.0, distanceScore(20))
	assert.Equal(t, 0.0, distanceScore(35))

	stockCases := map[int]float64{0: 0, 1: 0.2, 4: 0.2, 5: 0.4, 10: 0.6, 19: 0.6, 20: 0.8, 49: 0.8, 50: 1, 500: 1}
	for stock, expected := range stockCases {
		assert.Equal(t, expected, availabilityScore(stock), "stock %d", stock)
	}

	assert.Equal(t, "Available option", reasoning(ScoreBreakdown{}, 0))
}

func TestIsOpen(t *testing.T) {
	tests := []struct {
		hours    string
		hour     int
		expected bool
	}{
		{"8-22", 8, true},
		{"8-22", 21, true},
		{"8-22", 22, false},
		{"8-22", 7, false},
		{"0-24", 0, true},
		{"0-24", 23, true},
		{"24x7", 12, false},
		{"", 12, false},
		{"a-b", 12, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, isOpen(tt.hours, tt.hour), "%q at %d", tt.hours, tt.hour)
	}
}

func TestEmergency_FiltersClosedPharmacies(t *testing.T) {
	lateNight := time.Date(2024, 3, 10, 23, 30, 0, 0, time.Local)
	round := pharmacy("ROUND", 12.99, 77.60, 4, "24x7", entry(60, 40, 0))
	round.Is24x7 = true

	engine := newTestEngine(t, []entities.Pharmacy{
		pharmacy("DAY", 12.9716, 77.5946, 5, "8-22", entry(50, 60, 0)),
		round,
		pharmacy("LATE", 12.95, 77.60, 4, "0-24", entry(55, 40, 0)),
	}, WithClock(func() time.Time { return lateNight }))

	results, err := engine.Emergency(paracetamol, userLocation)
	require.NoError(t, err)
	require.Len(t, results, 2)

	for _, r := range results {
		assert.NotEqual(t, "DAY", r.Pharmacy.ID)
	}
}

func TestEmergency_FallsBackToTopThree(t *testing.T) {
	lateNight := time.Date(2024, 3, 10, 23, 30, 0, 0, time.Local)

	engine := newTestEngine(t, []entities.Pharmacy{
		pharmacy("P1", 12.9716, 77.5946, 5, "8-22", entry(50, 60, 0)),
		pharmacy("P2", 12.98, 77.60, 4, "9-21", entry(55, 40, 0)),
		pharmacy("P3", 12.99, 77.61, 4, "7-20", entry(45, 40, 0)),
		pharmacy("P4", 13.10, 77.70, 3, "10-22", entry(70, 10, 0)),
	}, WithClock(func() time.Time { return lateNight }))

	results, err := engine.Emergency(paracetamol, userLocation)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	assert.Equal(t, "P1", results[0].Pharmacy.ID)
}

func TestPersonalized_BudgetAndPreferred(t *testing.T) {
	engine := newTestEngine(t, []entities.Pharmacy{
		pharmacy("CHEAP", 12.9716, 77.5946, 5, "8-22", entry(20, 60, 0)),
		pharmacy("MID", 12.9800, 77.6000, 4, "8-22", entry(40, 60, 0)),
		pharmacy("PRICEY", 12.9900, 77.6100, 4, "8-22", entry(500, 60, 0)),
	})

	base, err := engine.Recommend(paracetamol, userLocation, PersonalizedWeights)
	require.NoError(t, err)
	require.Equal(t, "CHEAP", base[0].Pharmacy.ID)

	results, err := engine.Personalized(paracetamol, userLocation, Preferences{
		Weights:             PersonalizedWeights,
		BudgetRange:         &BudgetRange{Min: 0, Max: 100},
		PreferredPharmacies: []string{"MID"},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	var mid Recommendation
	for _, r := range results {
		assert.NotEqual(t, "PRICEY", r.Pharmacy.ID)
		if r.Pharmacy.ID == "MID" {
			mid = r
		}
	}
	assert.Contains(t, mid.Reasoning, ", Preferred pharmacy")

	for _, r := range base {
		if r.Pharmacy.ID == "MID" {
			assert.InDelta(t, r.TotalScore+0.1, mid.TotalScore, 1e-9)
		}
	}
	assert.GreaterOrEqual(t, results[0].TotalScore, results[1].TotalScore)
}

func TestRecommendPharmacies_Contract(t *testing.T) {
	engine := newTestEngine(t, []entities.Pharmacy{
		pharmacy("P1", 12.9716, 77.5946, 5, "8-22", entry(100, 50, 0)),
	})

	result, err := engine.RecommendPharmacies(paracetamol.ID, userLocation, nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultWeights, result.Criteria)
	assert.Equal(t, paracetamol.Name, result.Medicine.Name)
	assert.Len(t, result.Recommendations, 1)

	_, err = engine.RecommendPharmacies("med_99999", userLocation, nil)
	assert.ErrorIs(t, err, data.ErrMedicineNotFound)

	_, err = engine.RecommendPharmacies(paracetamol.ID, userLocation, &Weights{Price: 2})
	assert.ErrorIs(t, err, ErrInvalidWeights)
}

func TestGetBestPharmacy(t *testing.T) {
	pharmacies := make([]entities.Pharmacy, 0, 6)
	for i := 0; i < 6; i++ {
		pharmacies = append(pharmacies, pharmacy(
			fmt.Sprintf("P%d", i), 12.9716+float64(i)*0.01, 77.5946, 4, "0-24",
			entry(float64(100-i*10), 50, 0),
		))
	}
	engine := newTestEngine(t, pharmacies, WithClock(func() time.Time {
		return time.Date(2024, 3, 10, 12, 0, 0, 0, time.Local)
	}))

	for _, urgency := range []Urgency{UrgencyNormal, UrgencyBudget, UrgencyEmergency} {
		t.Run(string(urgency), func(t *testing.T) {
			result, err := engine.GetBestPharmacy(paracetamol.ID, userLocation, urgency)
			require.NoError(t, err)
			require.NotNil(t, result.Best)
			assert.Len(t, result.Alternatives, 3)
			assert.Equal(t, urgency, result.Urgency)
			assert.Equal(t, result.Best.Reasoning, result.Reasoning)
			for _, alt := range result.Alternatives {
				assert.LessOrEqual(t, alt.TotalScore, result.Best.TotalScore)
			}
		})
	}

	// Budget picks the cheapest, emergency the closest
	budget, err := engine.GetBestPharmacy(paracetamol.ID, userLocation, UrgencyBudget)
	require.NoError(t, err)
	assert.Equal(t, "P5", budget.Best.Pharmacy.ID)

	emergency, err := engine.GetBestPharmacy(paracetamol.ID, userLocation, UrgencyEmergency)
	require.NoError(t, err)
	assert.Equal(t, "P0", emergency.Best.Pharmacy.ID)
}

func TestGetBestPharmacy_Errors(t *testing.T) {
	engine := newTestEngine(t, nil)

	result, err := engine.GetBestPharmacy("med_00002", userLocation, UrgencyNormal)
	require.NoError(t, err)
	assert.Nil(t, result.Best)
	assert.Empty(t, result.Alternatives)
	assert.Equal(t, "No pharmacies found with this medicine", result.Reasoning)

	_, err = engine.GetBestPharmacy("med_99999", userLocation, UrgencyNormal)
	assert.ErrorIs(t, err, data.ErrMedicineNotFound)

	_, err = engine.GetBestPharmacy(paracetamol.ID, userLocation, Urgency("whenever"))
	assert.ErrorIs(t, err, ErrInvalidUrgency)
}

func TestParseUrgency(t *testing.T) {
	u, err := ParseUrgency("")
	require.NoError(t, err)
	assert.Equal(t, UrgencyNormal, u)

	u, err = ParseUrgency("emergency")
	require.NoError(t, err)
	assert.Equal(t, UrgencyEmergency, u)

	_, err = ParseUrgency("EMERGENCY")
	assert.ErrorIs(t, err, ErrInvalidUrgency)
}

func TestGetPriceTrend(t *testing.T) {
	today := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	engine := newTestEngine(t, []entities.Pharmacy{
		pharmacy("P1", 12.9716, 77.5946, 5, "8-22", entry(100, 50, 0)),
		pharmacy("P2", 12.98, 77.60, 4, "8-22", entry(50, 5, 0)),
	},
		WithClock(func() time.Time { return today }),
		WithRand(rand.New(rand.NewPCG(42, 42))),
	)

	trend, err := engine.GetPriceTrend(paracetamol.ID, 7)
	require.NoError(t, err)
	require.Len(t, trend.PriceTrend, 8)

	assert.Equal(t, "2024-03-03", trend.PriceTrend[0].Date)
	assert.Equal(t, "2024-03-10", trend.PriceTrend[7].Date)

	// Anchored on the current average of 75
	for _, p := range trend.PriceTrend {
		assert.GreaterOrEqual(t, p.AveragePrice, 67.5)
		assert.LessOrEqual(t, p.AveragePrice, 82.5)
		assert.LessOrEqual(t, p.LowestPrice, p.AveragePrice)
		assert.GreaterOrEqual(t, p.HighestPrice, p.AveragePrice)
		assert.Equal(t, 2, p.PharmacyCount)
	}

	assert.Contains(t, []string{"increasing", "decreasing", "stable"}, trend.Analysis.Trend)
	assert.LessOrEqual(t, trend.Analysis.LowestPrice, trend.Analysis.AveragePrice)
	assert.GreaterOrEqual(t, trend.Analysis.HighestPrice, trend.Analysis.AveragePrice)
}

func TestGetPriceTrend_Errors(t *testing.T) {
	engine := newTestEngine(t, nil)

	for _, days := range []int{0, -5, 366} {
		_, err := engine.GetPriceTrend(paracetamol.ID, days)
		assert.ErrorIs(t, err, ErrInvalidDays, "days %d", days)
	}

	_, err := engine.GetPriceTrend("med_99999", 30)
	assert.ErrorIs(t, err, data.ErrMedicineNotFound)

	// Nothing in stock anchors on zero
	trend, err := engine.GetPriceTrend(paracetamol.ID, 3)
	require.NoError(t, err)
	for _, p := range trend.PriceTrend {
		assert.Equal(t, 0.0, p.AveragePrice)
		assert.Equal(t, 0, p.PharmacyCount)
	}
	assert.Equal(t, "stable", trend.Analysis.Trend)
}

func TestAnalyze(t *testing.T) {
	points := []TrendPoint{
		{AveragePrice: 10, LowestPrice: 9, HighestPrice: 11},
		{AveragePrice: 12, LowestPrice: 10.8, HighestPrice: 13.2},
		{AveragePrice: 14, LowestPrice: 12.6, HighestPrice: 15.4},
	}

	analysis := analyze(points)
	assert.Equal(t, 12.0, analysis.AveragePrice)
	assert.Equal(t, 9.0, analysis.LowestPrice)
	assert.Equal(t, 15.4, analysis.HighestPrice)
	assert.Equal(t, "increasing", analysis.Trend)

	points[2].AveragePrice = 8
	assert.Equal(t, "decreasing", analyze(points).Trend)

	assert.Equal(t, "stable", analyze(points[:1]).Trend)
}
