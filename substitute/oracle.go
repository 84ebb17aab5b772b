package substitute

import (
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"

	"github.com/medfinder/medfinder-api/interfaces"
)

const (
	PricingSimulated = "simulated"
	PricingInventory = "inventory"
)

const (
	minSimulatedPrice   = 20.0
	simulatedPriceRange = 500.0
)

// PriceOracle returns the average price of a medicine. 0 means unknown.
type PriceOracle interface {
	AveragePrice(medicineID string) (float64, error)
}

// AvailabilityOracle returns how many pharmacies carry a medicine
type AvailabilityOracle interface {
	Availability(medicineID string) (Availability, error)
}

// Oracle answers both questions
type Oracle interface {
	PriceOracle
	AvailabilityOracle
}

// NewOracle returns the oracle for a SUBSTITUTE_PRICING mode
func NewOracle(mode string, inventory interfaces.InventoryProvider) (Oracle, error) {
	switch mode {
	case "", PricingSimulated:
		return NewHashOracle(inventory), nil
	case PricingInventory:
		return NewInventoryOracle(inventory), nil
	default:
		return nil, fmt.Errorf("unknown substitute pricing mode %q", mode)
	}
}

func newAvailability(availableAt, total, totalStock int) Availability {
	a := Availability{
		AvailableAt:     availableAt,
		TotalPharmacies: total,
		TotalStock:      totalStock,
		Status:          "out_of_stock",
	}
	if availableAt > 0 {
		a.Status = "available"
	}
	if total > 0 {
		a.AvailabilityPercentage = int(math.Round(float64(availableAt) / float64(total) * 100))
	}
	return a
}

// HashOracle derives a stable fake price in [20, 520) and a fake pharmacy
// count from a hash of the medicine ID. Only the pharmacy total is real.
type HashOracle struct {
	inventory interfaces.InventoryProvider
}

func NewHashOracle(inventory interfaces.InventoryProvider) *HashOracle {
	return &HashOracle{inventory: inventory}
}

func (o *HashOracle) AveragePrice(medicineID string) (float64, error) {
	h := xxhash.Sum64String(medicineID)
	cents := h % uint64(simulatedPriceRange*100)
	return minSimulatedPrice + float64(cents)/100, nil
}

func (o *HashOracle) Availability(medicineID string) (Availability, error) {
	total := o.inventory.PharmacyCount()
	h := xxhash.Sum64String("availability:" + medicineID)
	availableAt := int(h % uint64(total+1))
	return newAvailability(availableAt, total, 0), nil
}

// InventoryOracle answers from the live pharmacy inventory
type InventoryOracle struct {
	inventory interfaces.InventoryProvider
}

func NewInventoryOracle(inventory interfaces.InventoryProvider) *InventoryOracle {
	return &InventoryOracle{inventory: inventory}
}

func (o *InventoryOracle) AveragePrice(medicineID string) (float64, error) {
	prices := o.inventory.AllPricesFor(medicineID)
	if len(prices) == 0 {
		return 0, nil
	}
	sum := 0.0
	for _, p := range prices {
		sum += p
	}
	return sum / float64(len(prices)), nil
}

func (o *InventoryOracle) Availability(medicineID string) (Availability, error) {
	stocked := o.inventory.PharmaciesWithMedicine(medicineID)
	totalStock := 0
	for _, s := range stocked {
		totalStock += s.Entry.Stock
	}
	return newAvailability(len(stocked), o.inventory.PharmacyCount(), totalStock), nil
}
