package entities

import "time"

const (
	PharmacyTypeChain       = "chain"
	PharmacyTypeIndependent = "independent"
	PharmacyTypeHospital    = "hospital"
	PharmacyTypeCustom      = "custom"
)

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// InventoryEntry is the stock of one medicine in one pharmacy.
// Discount is a percentage in [0, 100].
type InventoryEntry struct {
	MedicineID  string    `json:"medicineId"`
	Price       float64   `json:"price"`
	Stock       int       `json:"stock"`
	Discount    int       `json:"discount"`
	LastUpdated time.Time `json:"lastUpdated"`
}

type Pharmacy struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Address   string           `json:"address"`
	Phone     string           `json:"phone"`
	Lat       float64          `json:"lat"`
	Lng       float64          `json:"lng"`
	Rating    float64          `json:"rating"`
	OpenHours string           `json:"openHours"`
	Is24x7    bool             `json:"is24x7"`
	Type      string           `json:"type"`
	Services  []string         `json:"services"`
	Inventory []InventoryEntry `json:"inventory,omitempty"`
}

// Location returns the pharmacy coordinates
func (p Pharmacy) Location() Location {
	return Location{Lat: p.Lat, Lng: p.Lng}
}

// Entry returns the inventory entry for medicineID, if any
func (p Pharmacy) Entry(medicineID string) (InventoryEntry, bool) {
	for _, e := range p.Inventory {
		if e.MedicineID == medicineID {
			return e, true
		}
	}
	return InventoryEntry{}, false
}

// Clone returns a deep copy so callers can hold it outside the store lock
func (p Pharmacy) Clone() Pharmacy {
	c := p
	if p.Services != nil {
		c.Services = append([]string(nil), p.Services...)
	}
	if p.Inventory != nil {
		c.Inventory = append([]InventoryEntry(nil), p.Inventory...)
	}
	return c
}

// Summary returns the pharmacy without its inventory
func (p Pharmacy) Summary() Pharmacy {
	c := p
	c.Inventory = nil
	if p.Services != nil {
		c.Services = append([]string(nil), p.Services...)
	}
	return c
}
