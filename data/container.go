// Package data provides thread-safe data storage and management for the medfinder API.
// It includes the DataContainer struct with an atomically swapped catalog snapshot
// for zero-downtime reloads and a lock-guarded pharmacy network.
package data

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/medfinder/medfinder-api/interfaces"
	"github.com/medfinder/medfinder-api/logging"
	"github.com/medfinder/medfinder-api/medicineparser"
	"github.com/medfinder/medfinder-api/medicineparser/entities"
)

// Compile-time check to ensure DataContainer implements DataStore
var _ interfaces.DataStore = (*DataContainer)(nil)

// SelfPharmacyAlias resolves to the first registered pharmacy
const SelfPharmacyAlias = "self"

var (
	ErrMedicineNotFound  = errors.New("medicine not found")
	ErrPharmacyNotFound  = errors.New("pharmacy not found")
	ErrDuplicatePharmacy = errors.New("pharmacy already exists")
)

// catalog is an immutable snapshot; writers build a new one and swap it in
type catalog struct {
	medicines []entities.Medicine
	byID      map[string]int
	byName    map[string]int // normalized name -> first index
	version   uint64
}

func newCatalog(medicines []entities.Medicine, version uint64) *catalog {
	c := &catalog{
		medicines: medicines,
		byID:      make(map[string]int, len(medicines)),
		byName:    make(map[string]int, len(medicines)),
		version:   version,
	}
	for i, m := range medicines {
		if _, exists := c.byID[m.ID]; !exists {
			c.byID[m.ID] = i
		}
		key := medicineparser.NormalizeName(m.Name)
		if _, exists := c.byName[key]; !exists {
			c.byName[key] = i
		}
	}
	return c
}

// DataContainer holds all the data. The catalog is swapped atomically;
// pharmacies are guarded by a RWMutex and handed out as copies.
type DataContainer struct {
	catalog         atomic.Value // *catalog
	catalogWriteMu  sync.Mutex   // serializes catalog writers
	pharmaciesMu    sync.RWMutex
	pharmacies      []entities.Pharmacy
	lastUpdated     atomic.Value // time.Time
	updating        atomic.Bool
	serverStartTime atomic.Value // time.Time
}

// NewDataContainer creates a new DataContainer with empty data
func NewDataContainer() *DataContainer {
	dc := &DataContainer{}
	dc.catalog.Store(newCatalog(make([]entities.Medicine, 0), 0))
	dc.pharmacies = make([]entities.Pharmacy, 0)
	dc.lastUpdated.Store(time.Time{})
	dc.serverStartTime.Store(time.Time{}) // Initialize with zero value
	return dc
}

// Thread-safe getters with type check

func (dc *DataContainer) loadCatalog() *catalog {
	if v := dc.catalog.Load(); v != nil {
		if c, ok := v.(*catalog); ok {
			return c
		}
	}

	logging.Warn("Catalog is empty or invalid")
	return newCatalog(make([]entities.Medicine, 0), 0)
}

// GetMedicines returns the catalog. The slice must not be modified.
func (dc *DataContainer) GetMedicines() []entities.Medicine {
	return dc.loadCatalog().medicines
}

// GetMedicineByID returns the medicine with the given ID
func (dc *DataContainer) GetMedicineByID(id string) (entities.Medicine, bool) {
	c := dc.loadCatalog()
	if i, ok := c.byID[id]; ok {
		return c.medicines[i], true
	}
	return entities.Medicine{}, false
}

// FindMedicineByName does a case-insensitive exact name lookup
func (dc *DataContainer) FindMedicineByName(name string) (entities.Medicine, bool) {
	c := dc.loadCatalog()
	if i, ok := c.byName[medicineparser.NormalizeName(name)]; ok {
		return c.medicines[i], true
	}
	return entities.Medicine{}, false
}

// SearchMedicines returns up to limit medicines whose name, generic name,
// category or indication contains text, in catalog order.
func (dc *DataContainer) SearchMedicines(text string, limit int) []entities.Medicine {
	needle := medicineparser.NormalizeName(text)
	results := make([]entities.Medicine, 0)
	if needle == "" || limit <= 0 {
		return results
	}

	for _, m := range dc.loadCatalog().medicines {
		if strings.Contains(medicineparser.NormalizeName(m.Name), needle) ||
			strings.Contains(medicineparser.NormalizeName(m.GenericName), needle) ||
			strings.Contains(medicineparser.NormalizeName(m.Category), needle) ||
			strings.Contains(medicineparser.NormalizeName(m.Indication), needle) {
			results = append(results, m)
			if len(results) == limit {
				break
			}
		}
	}

	return results
}

// GetPopularMedicines returns the limit most popular medicines. Equal
// popularity is ordered by ID.
func (dc *DataContainer) GetPopularMedicines(limit int) []entities.Medicine {
	medicines := append([]entities.Medicine(nil), dc.loadCatalog().medicines...)

	sort.SliceStable(medicines, func(i, j int) bool {
		if medicines[i].Popularity != medicines[j].Popularity {
			return medicines[i].Popularity > medicines[j].Popularity
		}
		return medicines[i].ID < medicines[j].ID
	})

	if limit >= 0 && len(medicines) > limit {
		medicines = medicines[:limit]
	}
	return medicines
}

// CatalogVersion changes every time the catalog content changes
func (dc *DataContainer) CatalogVersion() uint64 {
	return dc.loadCatalog().version
}

// AddCustomMedicine appends a runtime medicine to the catalog and returns it
func (dc *DataContainer) AddCustomMedicine(name string) entities.Medicine {
	medicine := medicineparser.NewCustomMedicine(name)

	dc.catalogWriteMu.Lock()
	defer dc.catalogWriteMu.Unlock()

	current := dc.loadCatalog()
	medicines := make([]entities.Medicine, 0, len(current.medicines)+1)
	medicines = append(medicines, current.medicines...)
	medicines = append(medicines, medicine)

	dc.catalog.Store(newCatalog(medicines, current.version+1))
	logging.Info("Custom medicine added", "id", medicine.ID, "name", medicine.Name)
	return medicine
}

// UpdateCatalog atomically replaces the catalog. Custom medicines from the
// previous snapshot are carried over unless the new catalog has the same ID.
func (dc *DataContainer) UpdateCatalog(medicines []entities.Medicine) {
	dc.catalogWriteMu.Lock()
	defer dc.catalogWriteMu.Unlock()

	current := dc.loadCatalog()

	next := make([]entities.Medicine, 0, len(medicines))
	next = append(next, medicines...)

	ids := make(map[string]bool, len(medicines))
	for _, m := range medicines {
		ids[m.ID] = true
	}
	carried := 0
	for _, m := range current.medicines {
		if m.Custom && !ids[m.ID] {
			next = append(next, m)
			carried++
		}
	}

	// Atomic swap (zero downtime replacement)
	dc.catalog.Store(newCatalog(next, current.version+1))
	dc.lastUpdated.Store(time.Now())

	if carried > 0 {
		logging.Info("Custom medicines carried over to new catalog", "count", carried)
	}
}

// LoadPharmacies replaces the pharmacy network
func (dc *DataContainer) LoadPharmacies(pharmacies []entities.Pharmacy) {
	copied := make([]entities.Pharmacy, len(pharmacies))
	for i, p := range pharmacies {
		copied[i] = p.Clone()
	}

	dc.pharmaciesMu.Lock()
	dc.pharmacies = copied
	dc.pharmaciesMu.Unlock()
}

// GetPharmacies returns a copy of every pharmacy with its inventory
func (dc *DataContainer) GetPharmacies() []entities.Pharmacy {
	dc.pharmaciesMu.RLock()
	defer dc.pharmaciesMu.RUnlock()

	result := make([]entities.Pharmacy, len(dc.pharmacies))
	for i, p := range dc.pharmacies {
		result[i] = p.Clone()
	}
	return result
}

// indexOf resolves a pharmacy ID, including the self alias. Caller holds the lock.
func (dc *DataContainer) indexOf(id string) int {
	if id == SelfPharmacyAlias {
		if len(dc.pharmacies) == 0 {
			return -1
		}
		return 0
	}
	for i := range dc.pharmacies {
		if dc.pharmacies[i].ID == id {
			return i
		}
	}
	return -1
}

// GetPharmacyByID returns a copy of the pharmacy. "self" maps to the first pharmacy.
func (dc *DataContainer) GetPharmacyByID(id string) (entities.Pharmacy, bool) {
	dc.pharmaciesMu.RLock()
	defer dc.pharmaciesMu.RUnlock()

	i := dc.indexOf(id)
	if i < 0 {
		return entities.Pharmacy{}, false
	}
	return dc.pharmacies[i].Clone(), true
}

// PharmaciesWithMedicine returns every pharmacy holding the medicine with
// stock > 0, in registration order
func (dc *DataContainer) PharmaciesWithMedicine(medicineID string) []entities.StockedPharmacy {
	dc.pharmaciesMu.RLock()
	defer dc.pharmaciesMu.RUnlock()

	result := make([]entities.StockedPharmacy, 0)
	for _, p := range dc.pharmacies {
		if entry, ok := p.Entry(medicineID); ok && entry.Stock > 0 {
			result = append(result, entities.StockedPharmacy{Pharmacy: p.Summary(), Entry: entry})
		}
	}
	return result
}

// AllPricesFor returns the prices of every in-stock entry for the medicine
func (dc *DataContainer) AllPricesFor(medicineID string) []float64 {
	dc.pharmaciesMu.RLock()
	defer dc.pharmaciesMu.RUnlock()

	prices := make([]float64, 0)
	for _, p := range dc.pharmacies {
		if entry, ok := p.Entry(medicineID); ok && entry.Stock > 0 {
			prices = append(prices, entry.Price)
		}
	}
	return prices
}

// PharmacyCount returns the number of registered pharmacies
func (dc *DataContainer) PharmacyCount() int {
	dc.pharmaciesMu.RLock()
	defer dc.pharmaciesMu.RUnlock()
	return len(dc.pharmacies)
}

// InventorySize returns the total number of inventory entries
func (dc *DataContainer) InventorySize() int {
	dc.pharmaciesMu.RLock()
	defer dc.pharmaciesMu.RUnlock()

	total := 0
	for _, p := range dc.pharmacies {
		total += len(p.Inventory)
	}
	return total
}

// UpsertInventory creates or overwrites the entry for (pharmacy, medicine).
// An existing entry keeps its discount; price, stock and LastUpdated are replaced.
func (dc *DataContainer) UpsertInventory(pharmacyID, medicineID string, price float64, stock int) (entities.InventoryEntry, error) {
	dc.pharmaciesMu.Lock()
	defer dc.pharmaciesMu.Unlock()

	i := dc.indexOf(pharmacyID)
	if i < 0 {
		return entities.InventoryEntry{}, fmt.Errorf("%w: %s", ErrPharmacyNotFound, pharmacyID)
	}

	now := time.Now()
	pharmacy := &dc.pharmacies[i]

	for j := range pharmacy.Inventory {
		entry := &pharmacy.Inventory[j]
		if entry.MedicineID == medicineID {
			entry.Price = price
			entry.Stock = stock
			entry.LastUpdated = now
			return *entry, nil
		}
	}

	entry := entities.InventoryEntry{
		MedicineID:  medicineID,
		Price:       price,
		Stock:       stock,
		LastUpdated: now,
	}
	pharmacy.Inventory = append(pharmacy.Inventory, entry)
	return entry, nil
}

// AddPharmacy registers a new pharmacy
func (dc *DataContainer) AddPharmacy(p entities.Pharmacy) error {
	dc.pharmaciesMu.Lock()
	defer dc.pharmaciesMu.Unlock()

	for _, existing := range dc.pharmacies {
		if existing.ID == p.ID {
			return fmt.Errorf("%w: %s", ErrDuplicatePharmacy, p.ID)
		}
	}

	dc.pharmacies = append(dc.pharmacies, p.Clone())
	logging.Info("Pharmacy added", "id", p.ID, "name", p.Name)
	return nil
}

// GetLastUpdated returns the timestamp of the last catalog update
func (dc *DataContainer) GetLastUpdated() time.Time {
	if v := dc.lastUpdated.Load(); v != nil {
		if lastUpdated, ok := v.(time.Time); ok {
			return lastUpdated
		}
	}

	logging.Warn("Could not get the last updated value")
	return time.Time{}
}

// IsUpdating returns true if a catalog update is currently in progress
func (dc *DataContainer) IsUpdating() bool {
	return dc.updating.Load()
}

// SetServerStartTime sets the server start time
func (dc *DataContainer) SetServerStartTime(startTime time.Time) {
	dc.serverStartTime.Store(startTime)
}

// GetServerStartTime returns the server start time
func (dc *DataContainer) GetServerStartTime() time.Time {
	if v := dc.serverStartTime.Load(); v != nil {
		if startTime, ok := v.(time.Time); ok {
			return startTime
		}
	}

	logging.Warn("Could not get the server start time value")
	return time.Time{}
}

// BeginUpdate marks the start of a catalog update operation
// Returns true if update can proceed, false if another update is in progress
func (dc *DataContainer) BeginUpdate() bool {
	return dc.updating.CompareAndSwap(false, true)
}

// EndUpdate marks the end of a catalog update operation
func (dc *DataContainer) EndUpdate() {
	dc.updating.Store(false)
}
