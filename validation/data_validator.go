// Package validation checks catalog data and user input for the medicine API.
package validation

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/medfinder/medfinder-api/interfaces"
	"github.com/medfinder/medfinder-api/logging"
	"github.com/medfinder/medfinder-api/medicineparser/entities"
)

const (
	minInputLength = 2
	maxInputLength = 50
	maxInputWords  = 6
	maxNameLength  = 200
	maxPrice       = 100000
	maxStock       = 100000
)

var (
	// Letters in any script, digits, spaces and the punctuation found in
	// medicine names
	inputRegex = regexp.MustCompile(`^[\p{L}\p{N}\s\-\.\+',/%]+$`)

	medicineIDRegex = regexp.MustCompile(`^med_(\d{5,}|custom_[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})$`)
	pharmacyIDRegex = regexp.MustCompile(`^(self|pharm\d{3,}|pharm_custom_[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12})$`)

	// Substring checks are cheaper than a regex for these
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "eval(", "expression(", "url(", "@import",
		// SQL injection
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"update set", "--", "/*", "*/", "xp_", "exec(",
		// Command injection
		"; ", "| ", "& ", "`", "$(", "${",
		// Path traversal
		"../", "..\\", "%2e%2e", "file://",
		// NoSQL injection
		"{$ne:", "{$gt:", "{$where:", "{$regex:",
	}
)

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

var _ interfaces.DataValidator = (*DataValidatorImpl)(nil)

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{}
}

// ValidateMedicine checks if a medicine entity is valid
func (v *DataValidatorImpl) ValidateMedicine(m *entities.Medicine) error {
	if m == nil {
		return fmt.Errorf("medicine is nil")
	}

	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("empty medicine ID for %q", m.Name)
	}

	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("empty name for medicine %s", m.ID)
	}

	if len(m.Name) > maxNameLength {
		return fmt.Errorf("name too long for medicine %s: %d characters", m.ID, len(m.Name))
	}

	if m.Popularity < 0 || m.Popularity > 100 {
		return fmt.Errorf("popularity out of range for medicine %s: %d", m.ID, m.Popularity)
	}

	return nil
}

// ReportDataQuality collects data issues without failing the load
func (v *DataValidatorImpl) ReportDataQuality(medicines []entities.Medicine, pharmacies []entities.Pharmacy) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{
		DuplicateMedicineIDs: []string{},
		DuplicatePharmacyIDs: []string{},
	}

	medicineIDs := make(map[string]bool, len(medicines))
	for _, m := range medicines {
		if medicineIDs[m.ID] {
			report.DuplicateMedicineIDs = append(report.DuplicateMedicineIDs, m.ID)
		}
		medicineIDs[m.ID] = true

		if strings.TrimSpace(m.SaltComposition) == "" {
			report.MedicinesWithoutSalt++
		}
		if strings.TrimSpace(m.TherapeuticClass) == "" {
			report.MedicinesWithoutTherapeuticClass++
		}
	}

	pharmacyIDs := make(map[string]bool, len(pharmacies))
	for _, p := range pharmacies {
		if pharmacyIDs[p.ID] {
			report.DuplicatePharmacyIDs = append(report.DuplicatePharmacyIDs, p.ID)
		}
		pharmacyIDs[p.ID] = true

		if len(p.Inventory) == 0 {
			report.PharmaciesWithoutInventory++
		}
		for _, entry := range p.Inventory {
			if !medicineIDs[entry.MedicineID] {
				report.InventoryEntriesForUnknownMedicines++
			}
		}
	}

	if len(report.DuplicateMedicineIDs) > 0 || len(report.DuplicatePharmacyIDs) > 0 {
		logging.Error("Duplicate IDs detected",
			"medicines", report.DuplicateMedicineIDs,
			"pharmacies", report.DuplicatePharmacyIDs,
		)
	}

	return report
}

// ValidateInput validates free-text search input
func (v *DataValidatorImpl) ValidateInput(input string) error {
	input = strings.TrimSpace(input)
	if input == "" {
		return fmt.Errorf("input cannot be empty")
	}

	length := len([]rune(input))
	if length < minInputLength {
		return fmt.Errorf("input too short: minimum %d characters", minInputLength)
	}

	if length > maxInputLength {
		return fmt.Errorf("input too long: maximum %d characters", maxInputLength)
	}

	if len(strings.Fields(input)) > maxInputWords {
		return fmt.Errorf("search query too complex: maximum %d words allowed", maxInputWords)
	}

	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return fmt.Errorf("input contains potentially dangerous content")
		}
	}

	if !inputRegex.MatchString(input) {
		return fmt.Errorf("input contains invalid characters. Only letters, numbers, spaces and - . + ' , / %% are allowed")
	}

	if hasExcessiveRepetition(input) {
		return fmt.Errorf("input contains excessive character repetition")
	}

	return nil
}

// ValidateMedicineID accepts catalog IDs (med_00001) and custom IDs
func (v *DataValidatorImpl) ValidateMedicineID(input string) error {
	if input == "" {
		return fmt.Errorf("medicine ID cannot be empty")
	}
	if !medicineIDRegex.MatchString(input) {
		return fmt.Errorf("invalid medicine ID: %q", input)
	}
	return nil
}

// ValidatePharmacyID accepts seeded IDs (pharm001), custom IDs and "self"
func (v *DataValidatorImpl) ValidatePharmacyID(input string) error {
	if input == "" {
		return fmt.Errorf("pharmacy ID cannot be empty")
	}
	if !pharmacyIDRegex.MatchString(input) {
		return fmt.Errorf("invalid pharmacy ID: %q", input)
	}
	return nil
}

func (v *DataValidatorImpl) ValidateLocation(lat, lng float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %v", lat)
	}
	if math.IsNaN(lng) || lng < -180 || lng > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %v", lng)
	}
	return nil
}

func (v *DataValidatorImpl) ValidatePrice(price float64) error {
	if math.IsNaN(price) || price <= 0 || price > maxPrice {
		return fmt.Errorf("price must be greater than 0 and at most %d, got %v", maxPrice, price)
	}
	return nil
}

func (v *DataValidatorImpl) ValidateStock(stock int) error {
	if stock < 0 || stock > maxStock {
		return fmt.Errorf("stock must be between 0 and %d, got %d", maxStock, stock)
	}
	return nil
}

// ValidateWeights checks each scoring weight is within [0, 1]
func (v *DataValidatorImpl) ValidateWeights(price, distance, availability float64) error {
	for _, w := range []struct {
		name  string
		value float64
	}{
		{"priceWeight", price},
		{"distanceWeight", distance},
		{"availabilityWeight", availability},
	} {
		if math.IsNaN(w.value) || w.value < 0 || w.value > 1 {
			return fmt.Errorf("%s must be between 0 and 1, got %v", w.name, w.value)
		}
	}
	return nil
}

// hasExcessiveRepetition reports the same character more than 10 times in a row
func hasExcessiveRepetition(input string) bool {
	run := 1
	var prev rune
	for i, r := range input {
		if i > 0 && r == prev {
			run++
			if run > 10 {
				return true
			}
		} else {
			run = 1
		}
		prev = r
	}
	return false
}
