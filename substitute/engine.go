// Package substitute finds generic and therapeutic alternatives for a
// medicine in the catalog.
package substitute

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"

	"github.com/medfinder/medfinder-api/data"
	"github.com/medfinder/medfinder-api/interfaces"
	"github.com/medfinder/medfinder-api/logging"
	"github.com/medfinder/medfinder-api/medicineparser"
	"github.com/medfinder/medfinder-api/medicineparser/entities"
)

const maxSubstitutes = 10

type Type string

const (
	TypeGeneric     Type = "generic"
	TypeTherapeutic Type = "therapeutic"
	TypeDosage      Type = "dosage"
	TypeIndication  Type = "indication"
)

type tier struct {
	kind       Type
	similarity float64
	reason     string
}

var (
	genericTier     = tier{TypeGeneric, 1.0, "Same active ingredient"}
	therapeuticTier = tier{TypeTherapeutic, 0.9, "Same therapeutic class"}
	dosageTier      = tier{TypeDosage, 0.8, "Similar dosage form and strength"}
	indicationTier  = tier{TypeIndication, 0.7, "Same indication"}
)

type PriceComparison struct {
	OriginalPrice   float64 `json:"originalPrice"`
	SubstitutePrice float64 `json:"substitutePrice"`
	Difference      float64 `json:"difference"`
	Comparison      string  `json:"comparison"`
}

type Availability struct {
	AvailableAt            int    `json:"availableAt"`
	TotalPharmacies        int    `json:"totalPharmacies"`
	TotalStock             int    `json:"totalStock"`
	Status                 string `json:"availability"`
	AvailabilityPercentage int    `json:"availabilityPercentage"`
}

type Substitute struct {
	entities.Medicine
	SubstituteType    Type            `json:"substituteType"`
	Similarity        float64         `json:"similarity"`
	Reason            string          `json:"reason"`
	PriceComparison   PriceComparison `json:"priceComparison"`
	Availability      Availability    `json:"availability"`
	SafetyRating      float64         `json:"safetyRating"`
	DoctorRecommended bool            `json:"doctorRecommended"`
}

type Result struct {
	OriginalMedicine entities.Medicine `json:"originalMedicine"`
	Substitutes      []Substitute      `json:"substitutes"`
}

// index groups the catalog by lower-cased salt and therapeutic class
type index struct {
	version uint64
	bySalt  map[string][]entities.Medicine
	byClass map[string][]entities.Medicine
}

func buildIndex(medicines []entities.Medicine, version uint64) *index {
	idx := &index{
		version: version,
		bySalt:  make(map[string][]entities.Medicine),
		byClass: make(map[string][]entities.Medicine),
	}
	for _, m := range medicines {
		salt := strings.ToLower(m.SaltComposition)
		class := strings.ToLower(m.TherapeuticClass)
		idx.bySalt[salt] = append(idx.bySalt[salt], m)
		idx.byClass[class] = append(idx.byClass[class], m)
	}
	return idx
}

type Engine struct {
	catalog      interfaces.CatalogProvider
	prices       PriceOracle
	availability AvailabilityOracle

	indexMu sync.Mutex
	index   *index

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewEngine creates an Engine. A nil rng uses a randomly seeded source for
// the safety rating jitter.
func NewEngine(catalog interfaces.CatalogProvider, prices PriceOracle, availability AvailabilityOracle, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Engine{
		catalog:      catalog,
		prices:       prices,
		availability: availability,
		rng:          rng,
	}
}

// currentIndex rebuilds the index when the catalog snapshot changed
func (e *Engine) currentIndex() *index {
	version := e.catalog.CatalogVersion()

	e.indexMu.Lock()
	defer e.indexMu.Unlock()

	if e.index == nil || e.index.version != version {
		e.index = buildIndex(e.catalog.GetMedicines(), version)
		logging.Debug("Substitute index rebuilt", "catalog_version", version)
	}
	return e.index
}

type candidate struct {
	medicine entities.Medicine
	tier     tier
	price    float64
}

// FindSubstitutes returns up to 10 ranked substitutes. An empty slice with a
// nil error means nothing matched; failures wrap ErrComputation.
func (e *Engine) FindSubstitutes(medicine entities.Medicine) (substitutes []Substitute, err error) {
	defer func() {
		if r := recover(); r != nil {
			substitutes = nil
			err = newComputationError("find substitutes", medicine.ID, fmt.Errorf("panic: %v", r))
		}
	}()

	candidates := e.match(medicine)
	if len(candidates) == 0 {
		return []Substitute{}, nil
	}

	for i := range candidates {
		price, err := e.prices.AveragePrice(candidates[i].medicine.ID)
		if err != nil {
			return nil, newComputationError("price lookup", candidates[i].medicine.ID, err)
		}
		candidates[i].price = price
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.tier.similarity != b.tier.similarity {
			return a.tier.similarity > b.tier.similarity
		}
		if a.price != b.price {
			return a.price < b.price
		}
		return a.medicine.ID < b.medicine.ID
	})

	if len(candidates) > maxSubstitutes {
		candidates = candidates[:maxSubstitutes]
	}

	originalPrice, err := e.prices.AveragePrice(medicine.ID)
	if err != nil {
		return nil, newComputationError("price lookup", medicine.ID, err)
	}

	substitutes = make([]Substitute, 0, len(candidates))
	for _, c := range candidates {
		availability, err := e.availability.Availability(c.medicine.ID)
		if err != nil {
			return nil, newComputationError("availability lookup", c.medicine.ID, err)
		}

		substitutes = append(substitutes, Substitute{
			Medicine:          c.medicine,
			SubstituteType:    c.tier.kind,
			Similarity:        c.tier.similarity,
			Reason:            c.tier.reason,
			PriceComparison:   comparePrices(originalPrice, c.price),
			Availability:      availability,
			SafetyRating:      e.safetyRating(c.medicine),
			DoctorRecommended: c.tier.kind == TypeGeneric,
		})
	}

	return substitutes, nil
}

// match collects candidates tier by tier. The first tier a medicine
// qualifies for wins; the query itself is excluded by ID and name.
func (e *Engine) match(medicine entities.Medicine) []candidate {
	salt := strings.ToLower(medicine.SaltComposition)
	class := strings.ToLower(medicine.TherapeuticClass)
	if salt == "" || class == "" {
		return nil
	}

	idx := e.currentIndex()

	seenIDs := map[string]bool{medicine.ID: true}
	seenNames := map[string]bool{medicineparser.NormalizeName(medicine.Name): true}
	var candidates []candidate

	add := func(m entities.Medicine, t tier) {
		name := medicineparser.NormalizeName(m.Name)
		if seenIDs[m.ID] || seenNames[name] {
			return
		}
		seenIDs[m.ID] = true
		seenNames[name] = true
		candidates = append(candidates, candidate{medicine: m, tier: t})
	}

	for _, m := range idx.bySalt[salt] {
		if strings.ToLower(m.TherapeuticClass) == class {
			add(m, genericTier)
		}
	}

	sameClass := idx.byClass[class]

	for _, m := range sameClass {
		if strings.ToLower(m.SaltComposition) != salt {
			add(m, therapeuticTier)
		}
	}

	form := dosageFormOf(medicine)
	if s, ok := strengthOf(medicine); ok {
		for _, m := range sameClass {
			if dosageFormOf(m) != form {
				continue
			}
			if ms, ok := strengthOf(m); ok && similarStrength(s, ms) {
				add(m, dosageTier)
			}
		}
	}

	indication := medicineparser.NormalizeName(medicine.Indication)
	for _, m := range sameClass {
		if medicineparser.NormalizeName(m.Indication) == indication {
			add(m, indicationTier)
		}
	}

	return candidates
}

// comparePrices classifies the substitute price at ±10% of the original
func comparePrices(originalPrice, substitutePrice float64) PriceComparison {
	if originalPrice == 0 || substitutePrice == 0 {
		return PriceComparison{Comparison: "unknown"}
	}

	difference := (substitutePrice - originalPrice) / originalPrice * 100

	comparison := "similar"
	switch {
	case difference < -10:
		comparison = "cheaper"
	case difference > 10:
		comparison = "expensive"
	}

	return PriceComparison{
		OriginalPrice:   round2(originalPrice),
		SubstitutePrice: round2(substitutePrice),
		Difference:      round2(difference),
		Comparison:      comparison,
	}
}

// safetyRating is a simulated score in [1, 5] with one decimal
func (e *Engine) safetyRating(m entities.Medicine) float64 {
	rating := 4.0

	class := strings.ToLower(m.TherapeuticClass)
	if strings.Contains(class, "antibiotic") {
		rating -= 0.2
	}
	if strings.Contains(class, "pain") {
		rating -= 0.1
	}

	e.rngMu.Lock()
	rating += (e.rng.Float64() - 0.5) * 0.4
	e.rngMu.Unlock()

	return math.Max(1.0, math.Min(5.0, math.Round(rating*10)/10))
}

// FindSubstitutesByID looks the medicine up before finding substitutes
func (e *Engine) FindSubstitutesByID(medicineID string) (*Result, error) {
	medicine, ok := e.catalog.GetMedicineByID(medicineID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", data.ErrMedicineNotFound, medicineID)
	}

	substitutes, err := e.FindSubstitutes(medicine)
	if err != nil {
		return nil, err
	}

	return &Result{OriginalMedicine: medicine, Substitutes: substitutes}, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
