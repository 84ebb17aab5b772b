package inventory

import (
	"math"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medfinder/medfinder-api/medicineparser/entities"
)

// CustomPharmacyPrefix marks pharmacies registered at runtime
const CustomPharmacyPrefix = "pharm_custom_"

const (
	basePrice            = 50.0
	defaultCategoryPrice = 1.5
	prescriptionMarkup   = 1.5
	discountChance       = 0.3
)

var categoryMultipliers = map[string]float64{
	"Antibiotic":     2.5,
	"Analgesic":      1.2,
	"Antipyretic":    1.0,
	"Antifungal":     3.0,
	"Antiviral":      4.0,
	"Antidepressant": 3.5,
	"Antidiabetic":   2.8,
	"Antiseptic":     0.8,
}

var formMultipliers = map[string]float64{
	"Injection": 2.0,
	"Inhaler":   1.8,
	"Syrup":     1.3,
	"Ointment":  1.2,
	"Cream":     1.2,
	"Tablet":    1.0,
	"Capsule":   1.1,
	"Drops":     1.4,
}

var leadingNumber = regexp.MustCompile(`(\d+)`)

// Seeder fills pharmacies with synthetic stock. It is safe for concurrent use.
type Seeder struct {
	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time
}

// NewSeeder creates a Seeder. A nil rng uses a randomly seeded source.
func NewSeeder(rng *rand.Rand) *Seeder {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Seeder{rng: rng, now: time.Now}
}

// Seed returns copies of pharmacies where each one stocks a random 60-80%
// of medicines. Input slices are not modified.
func (s *Seeder) Seed(pharmacies []entities.Pharmacy, medicines []entities.Medicine) []entities.Pharmacy {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	seeded := make([]entities.Pharmacy, len(pharmacies))

	for i, pharmacy := range pharmacies {
		p := pharmacy.Clone()

		size := int(math.Floor(float64(len(medicines)) * (0.6 + s.rng.Float64()*0.2)))
		order := s.rng.Perm(len(medicines))

		p.Inventory = make([]entities.InventoryEntry, 0, size)
		for _, idx := range order[:size] {
			medicine := medicines[idx]

			discount := 0
			if s.rng.Float64() < discountChance {
				discount = s.rng.IntN(25) + 5
			}

			p.Inventory = append(p.Inventory, entities.InventoryEntry{
				MedicineID:  medicine.ID,
				Price:       s.price(medicine),
				Stock:       s.rng.IntN(200) + 10,
				Discount:    discount,
				LastUpdated: now,
			})
		}

		seeded[i] = p
	}

	return seeded
}

// BasePrice is the deterministic part of the synthetic price of a medicine
func BasePrice(m entities.Medicine) float64 {
	price := basePrice

	if multiplier, ok := categoryMultipliers[m.Category]; ok {
		price *= multiplier
	} else {
		price *= defaultCategoryPrice
	}

	if match := leadingNumber.FindString(m.Strength); match != "" {
		if strength, err := strconv.Atoi(match); err == nil {
			price += float64(strength) / 100 * 10
		}
	}

	if multiplier, ok := formMultipliers[m.DosageForm]; ok {
		price *= multiplier
	}

	if m.PrescriptionRequired {
		price *= prescriptionMarkup
	}

	return price
}

// price applies a ±20% jitter to BasePrice and rounds to the rupee
func (s *Seeder) price(m entities.Medicine) float64 {
	return math.Round(BasePrice(m) * (0.8 + s.rng.Float64()*0.4))
}

// CustomPharmacy builds a pharmacy registered at runtime, placed within
// roughly 500m of near.
func (s *Seeder) CustomPharmacy(name string, near entities.Location) entities.Pharmacy {
	s.mu.Lock()
	latJitter := (s.rng.Float64() - 0.5) * 0.01
	lngJitter := (s.rng.Float64() - 0.5) * 0.01
	s.mu.Unlock()

	return entities.Pharmacy{
		ID:        CustomPharmacyPrefix + uuid.NewString(),
		Name:      strings.TrimSpace(name),
		Address:   "Custom Address",
		Lat:       near.Lat + latJitter,
		Lng:       near.Lng + lngJitter,
		Rating:    4.0,
		OpenHours: "9-21",
		Type:      entities.PharmacyTypeCustom,
		Services:  []string{"prescription", "otc"},
		Inventory: []entities.InventoryEntry{},
	}
}
