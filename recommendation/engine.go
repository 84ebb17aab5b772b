// Package recommendation ranks the pharmacies stocking a medicine by price,
// distance, availability and rating.
package recommendation

import (
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/medfinder/medfinder-api/geo"
	"github.com/medfinder/medfinder-api/interfaces"
	"github.com/medfinder/medfinder-api/medicineparser/entities"
)

// emergencyFallbackSize is how many unfiltered results an emergency search
// returns when no pharmacy is open
const emergencyFallbackSize = 3

// PharmacySummary is the part of a pharmacy shown next to a recommendation
type PharmacySummary struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Address   string  `json:"address"`
	Phone     string  `json:"phone"`
	Rating    float64 `json:"rating"`
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	OpenHours string  `json:"openHours"`
	Is24x7    bool    `json:"is24x7"`
}

type MedicineOffer struct {
	Price    float64 `json:"price"`
	Stock    int     `json:"stock"`
	Discount int     `json:"discount"`
}

// ScoreBreakdown holds each normalized score, rounded to 2 decimals
type ScoreBreakdown struct {
	Price        float64 `json:"price"`
	Distance     float64 `json:"distance"`
	Availability float64 `json:"availability"`
	Rating       float64 `json:"rating"`
}

type Recommendation struct {
	Pharmacy       PharmacySummary    `json:"pharmacy"`
	Medicine       MedicineOffer      `json:"medicine"`
	Distance       float64            `json:"distance"`
	TravelTime     geo.TravelEstimate `json:"travelTime"`
	TotalScore     float64            `json:"totalScore"`
	ScoreBreakdown ScoreBreakdown     `json:"scoreBreakdown"`
	Reasoning      string             `json:"reasoning"`
}

// Engine scores pharmacies against the current inventory snapshot. It holds
// no state of its own besides the injected clock and random source.
type Engine struct {
	catalog   interfaces.CatalogProvider
	inventory interfaces.InventoryProvider
	now       func() time.Time

	rngMu sync.Mutex
	rng   *rand.Rand
}

type Option func(*Engine)

// WithClock overrides the clock used for opening hours and price trends
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRand overrides the random source used for price trends
func WithRand(rng *rand.Rand) Option {
	return func(e *Engine) { e.rng = rng }
}

func NewEngine(catalog interfaces.CatalogProvider, inventory interfaces.InventoryProvider, opts ...Option) *Engine {
	e := &Engine{
		catalog:   catalog,
		inventory: inventory,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.rng == nil {
		e.rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return e
}

// Recommend ranks every pharmacy holding medicine with stock > 0. No
// candidate is an empty result, not an error.
func (e *Engine) Recommend(medicine entities.Medicine, location entities.Location, weights Weights) ([]Recommendation, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}

	candidates := e.inventory.PharmaciesWithMedicine(medicine.ID)
	if len(candidates) == 0 {
		return []Recommendation{}, nil
	}

	// Bounds come from the same snapshot as the candidates
	minPrice, maxPrice := candidates[0].Entry.Price, candidates[0].Entry.Price
	for _, c := range candidates[1:] {
		if c.Entry.Price < minPrice {
			minPrice = c.Entry.Price
		}
		if c.Entry.Price > maxPrice {
			maxPrice = c.Entry.Price
		}
	}

	recommendations := make([]Recommendation, 0, len(candidates))
	for _, c := range candidates {
		distance := geo.Distance(location.Lat, location.Lng, c.Pharmacy.Lat, c.Pharmacy.Lng)

		raw := ScoreBreakdown{
			Price:        priceScore(c.Entry.Price, minPrice, maxPrice),
			Distance:     distanceScore(distance),
			Availability: availabilityScore(c.Entry.Stock),
			Rating:       ratingScore(c.Pharmacy.Rating),
		}
		breakdown := ScoreBreakdown{
			Price:        round2(raw.Price),
			Distance:     round2(raw.Distance),
			Availability: round2(raw.Availability),
			Rating:       round2(raw.Rating),
		}

		recommendations = append(recommendations, Recommendation{
			Pharmacy:       summarize(c.Pharmacy),
			Medicine:       MedicineOffer{Price: c.Entry.Price, Stock: c.Entry.Stock, Discount: c.Entry.Discount},
			Distance:       distance,
			TravelTime:     geo.EstimateTravelTime(distance, geo.Driving),
			TotalScore:     round2(totalScore(raw, weights)),
			ScoreBreakdown: breakdown,
			Reasoning:      reasoning(breakdown, c.Entry.Discount),
		})
	}

	sortRecommendations(recommendations)
	return recommendations, nil
}

// Emergency favours distance and keeps only pharmacies open right now. If
// none is open, the unfiltered top 3 is returned instead.
func (e *Engine) Emergency(medicine entities.Medicine, location entities.Location) ([]Recommendation, error) {
	recommendations, err := e.Recommend(medicine, location, EmergencyWeights)
	if err != nil {
		return nil, err
	}

	hour := e.now().Hour()
	open := make([]Recommendation, 0, len(recommendations))
	for _, r := range recommendations {
		if r.Pharmacy.Is24x7 || isOpen(r.Pharmacy.OpenHours, hour) {
			open = append(open, r)
		}
	}

	if len(open) > 0 {
		return open, nil
	}
	if len(recommendations) > emergencyFallbackSize {
		recommendations = recommendations[:emergencyFallbackSize]
	}
	return recommendations, nil
}

type BudgetRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Preferences drive the personalized variant
type Preferences struct {
	Weights             Weights      `json:"weights"`
	BudgetRange         *BudgetRange `json:"budgetRange,omitempty"`
	PreferredPharmacies []string     `json:"preferredPharmacies"`
}

// preferredBoost is added to the score of a preferred pharmacy
const preferredBoost = 0.1

// Personalized ranks with caller weights, drops offers outside the budget
// range and boosts preferred pharmacies before re-sorting.
func (e *Engine) Personalized(medicine entities.Medicine, location entities.Location, prefs Preferences) ([]Recommendation, error) {
	recommendations, err := e.Recommend(medicine, location, prefs.Weights)
	if err != nil {
		return nil, err
	}

	if prefs.BudgetRange != nil {
		filtered := make([]Recommendation, 0, len(recommendations))
		for _, r := range recommendations {
			if r.Medicine.Price >= prefs.BudgetRange.Min && r.Medicine.Price <= prefs.BudgetRange.Max {
				filtered = append(filtered, r)
			}
		}
		recommendations = filtered
	}

	if len(prefs.PreferredPharmacies) > 0 {
		preferred := make(map[string]bool, len(prefs.PreferredPharmacies))
		for _, id := range prefs.PreferredPharmacies {
			preferred[id] = true
		}

		for i := range recommendations {
			if preferred[recommendations[i].Pharmacy.ID] {
				recommendations[i].TotalScore = round2(recommendations[i].TotalScore + preferredBoost)
				recommendations[i].Reasoning += ", Preferred pharmacy"
			}
		}
		sortRecommendations(recommendations)
	}

	return recommendations, nil
}

// sortRecommendations orders by score, then distance, then pharmacy ID
func sortRecommendations(recommendations []Recommendation) {
	sort.SliceStable(recommendations, func(i, j int) bool {
		a, b := recommendations[i], recommendations[j]
		if a.TotalScore != b.TotalScore {
			return a.TotalScore > b.TotalScore
		}
		if a.Distance != b.Distance {
			return a.Distance < b.Distance
		}
		return a.Pharmacy.ID < b.Pharmacy.ID
	})
}

// isOpen parses "open-close" hours such as "8-22". Anything else is closed.
func isOpen(openHours string, hour int) bool {
	openStr, closeStr, found := strings.Cut(openHours, "-")
	if !found {
		return false
	}

	open, err := strconv.Atoi(strings.TrimSpace(openStr))
	if err != nil {
		return false
	}
	closing, err := strconv.Atoi(strings.TrimSpace(closeStr))
	if err != nil {
		return false
	}

	return hour >= open && hour < closing
}

func summarize(p entities.Pharmacy) PharmacySummary {
	return PharmacySummary{
		ID:        p.ID,
		Name:      p.Name,
		Address:   p.Address,
		Phone:     p.Phone,
		Rating:    p.Rating,
		Lat:       p.Lat,
		Lng:       p.Lng,
		OpenHours: p.OpenHours,
		Is24x7:    p.Is24x7,
	}
}
