// Package interfaces defines core abstractions for the medfinder API
// to improve testability, maintainability, and separation of concerns.
package interfaces

import (
	"net/http"
	"time"

	"github.com/medfinder/medfinder-api/medicineparser/entities"
)

// DataQualityReport provides a summary of data quality issues
type DataQualityReport struct {
	DuplicateMedicineIDs                []string
	DuplicatePharmacyIDs                []string
	MedicinesWithoutSalt                int
	MedicinesWithoutTherapeuticClass    int
	PharmaciesWithoutInventory          int
	InventoryEntriesForUnknownMedicines int // Entries pointing at IDs missing from the catalog
}

// CatalogProvider gives read access to the medicine catalog
type CatalogProvider interface {
	GetMedicines() []entities.Medicine
	GetMedicineByID(id string) (entities.Medicine, bool)
	SearchMedicines(text string, limit int) []entities.Medicine
	GetPopularMedicines(limit int) []entities.Medicine
	FindMedicineByName(name string) (entities.Medicine, bool)

	// CatalogVersion changes every time the catalog content changes
	CatalogVersion() uint64
}

// InventoryProvider gives read access to pharmacies and their stock
type InventoryProvider interface {
	// PharmaciesWithMedicine returns every pharmacy holding the medicine with stock > 0
	PharmaciesWithMedicine(medicineID string) []entities.StockedPharmacy
	// AllPricesFor returns the prices of every in-stock entry for the medicine
	AllPricesFor(medicineID string) []float64
	GetPharmacies() []entities.Pharmacy
	GetPharmacyByID(id string) (entities.Pharmacy, bool)
	PharmacyCount() int
}

// DataStore defines the contract for data storage operations.
// It provides thread-safe access to the catalog and the pharmacy network
// with atomic catalog swaps for zero-downtime reloads.
type DataStore interface {
	CatalogProvider
	InventoryProvider

	// Runtime mutations
	AddCustomMedicine(name string) entities.Medicine
	UpsertInventory(pharmacyID, medicineID string, price float64, stock int) (entities.InventoryEntry, error)
	AddPharmacy(p entities.Pharmacy) error

	// Bulk loading
	UpdateCatalog(medicines []entities.Medicine)
	LoadPharmacies(pharmacies []entities.Pharmacy)

	GetLastUpdated() time.Time
	IsUpdating() bool
	GetServerStartTime() time.Time
	BeginUpdate() bool
	EndUpdate()
}

// Parser defines the contract for loading the medicine catalog from its
// source file.
type Parser interface {
	ParseCatalog() ([]entities.Medicine, error)
}

// Scheduler defines the contract for job scheduling and health monitoring.
// It manages the initial load and the periodic catalog reloads.
type Scheduler interface {
	// Lifecycle management
	Start() error
	Stop()
}

// HTTPHandler defines the contract for HTTP request handlers.
// It provides a consistent interface for all API endpoints.
type HTTPHandler interface {
	// Medicines
	SearchMedicines(w http.ResponseWriter, r *http.Request)
	PopularMedicines(w http.ResponseWriter, r *http.Request)
	GetMedicine(w http.ResponseWriter, r *http.Request)
	FindSubstitutes(w http.ResponseWriter, r *http.Request)
	FindAdvancedSubstitutes(w http.ResponseWriter, r *http.Request)

	// Pharmacies
	NearbyPharmacies(w http.ResponseWriter, r *http.Request)
	ComparePrices(w http.ResponseWriter, r *http.Request)
	GetPharmacy(w http.ResponseWriter, r *http.Request)
	GetPharmacyMedicine(w http.ResponseWriter, r *http.Request)
	UpsertPharmacyMedicine(w http.ResponseWriter, r *http.Request)

	// Recommendations
	RecommendPharmacies(w http.ResponseWriter, r *http.Request)
	BestPharmacy(w http.ResponseWriter, r *http.Request)
	PersonalizedRecommendations(w http.ResponseWriter, r *http.Request)
	PriceTrend(w http.ResponseWriter, r *http.Request)

	HealthCheck(w http.ResponseWriter, r *http.Request)
}

// HealthChecker defines the contract for health check functionality.
// It provides system health monitoring and reporting.
type HealthChecker interface {
	// HealthCheck returns current system health status
	HealthCheck() (status string, details map[string]any, httpStatus int)

	// CalculateNextUpdate returns the next scheduled catalog reload
	CalculateNextUpdate() time.Time
}

// DataValidator defines the contract for data validation operations.
// It ensures data integrity and consistency.
type DataValidator interface {
	// ValidateMedicine checks if a medicine entity is valid
	ValidateMedicine(m *entities.Medicine) error

	// ReportDataQuality generates a data quality report with all issues found
	ReportDataQuality(medicines []entities.Medicine, pharmacies []entities.Pharmacy) *DataQualityReport

	// ValidateInput validates free-text search input
	ValidateInput(input string) error

	ValidateMedicineID(input string) error
	ValidatePharmacyID(input string) error
	ValidateLocation(lat, lng float64) error
	ValidatePrice(price float64) error
	ValidateStock(stock int) error
	ValidateWeights(price, distance, availability float64) error
}
