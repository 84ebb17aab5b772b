package interfaces

import (
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/medfinder/medfinder-api/medicineparser/entities"
)

// MockCatalog implements CatalogProvider and InventoryProvider for testing
type MockCatalog struct {
	medicines  []entities.Medicine
	pharmacies []entities.Pharmacy
	version    uint64
}

func (m *MockCatalog) GetMedicines() []entities.Medicine {
	return m.medicines
}

func (m *MockCatalog) GetMedicineByID(id string) (entities.Medicine, bool) {
	for _, med := range m.medicines {
		if med.ID == id {
			return med, true
		}
	}
	return entities.Medicine{}, false
}

func (m *MockCatalog) SearchMedicines(text string, limit int) []entities.Medicine {
	var out []entities.Medicine
	for _, med := range m.medicines {
		if strings.Contains(strings.ToLower(med.Name), strings.ToLower(text)) && len(out) < limit {
			out = append(out, med)
		}
	}
	return out
}

func (m *MockCatalog) GetPopularMedicines(limit int) []entities.Medicine {
	return m.medicines[:min(limit, len(m.medicines))]
}

func (m *MockCatalog) FindMedicineByName(name string) (entities.Medicine, bool) {
	for _, med := range m.medicines {
		if strings.EqualFold(med.Name, name) {
			return med, true
		}
	}
	return entities.Medicine{}, false
}

func (m *MockCatalog) CatalogVersion() uint64 {
	return m.version
}

func (m *MockCatalog) PharmaciesWithMedicine(medicineID string) []entities.StockedPharmacy {
	var out []entities.StockedPharmacy
	for _, p := range m.pharmacies {
		if e, ok := p.Entry(medicineID); ok && e.Stock > 0 {
			out = append(out, entities.StockedPharmacy{Pharmacy: p, Entry: e})
		}
	}
	return out
}

func (m *MockCatalog) AllPricesFor(medicineID string) []float64 {
	var prices []float64
	for _, sp := range m.PharmaciesWithMedicine(medicineID) {
		prices = append(prices, sp.Entry.Price)
	}
	return prices
}

func (m *MockCatalog) GetPharmacies() []entities.Pharmacy {
	return m.pharmacies
}

func (m *MockCatalog) GetPharmacyByID(id string) (entities.Pharmacy, bool) {
	for _, p := range m.pharmacies {
		if p.ID == id {
			return p, true
		}
	}
	return entities.Pharmacy{}, false
}

func (m *MockCatalog) PharmacyCount() int {
	return len(m.pharmacies)
}

// MockParser implements Parser interface for testing
type MockParser struct {
	shouldFail bool
}

func (m *MockParser) ParseCatalog() ([]entities.Medicine, error) {
	if m.shouldFail {
		return nil, errors.New("parse failed")
	}
	return []entities.Medicine{
		{ID: "med_00001", Name: "Paracetamol 500mg"},
		{ID: "med_00002", Name: "Crocin 500mg"},
	}, nil
}

// MockScheduler implements Scheduler interface for testing
type MockScheduler struct {
	started bool
	stopped bool
}

func (m *MockScheduler) Start() error {
	if m.started {
		return errors.New("already started")
	}
	m.started = true
	return nil
}

func (m *MockScheduler) Stop() {
	m.stopped = true
}

// MockHealthChecker implements HealthChecker interface for testing
type MockHealthChecker struct {
	status  string
	details map[string]any
	code    int
}

func (m *MockHealthChecker) HealthCheck() (string, map[string]any, int) {
	return m.status, m.details, m.code
}

func (m *MockHealthChecker) CalculateNextUpdate() time.Time {
	return time.Now().Add(1 * time.Hour)
}

// Test functions

func TestCatalogProviderInterface(t *testing.T) {
	var catalog CatalogProvider = &MockCatalog{
		medicines: []entities.Medicine{
			{ID: "med_00001", Name: "Paracetamol 500mg"},
			{ID: "med_00002", Name: "Crocin 500mg"},
		},
		version: 3,
	}

	if got := catalog.SearchMedicines("CROCIN", 10); len(got) != 1 || got[0].ID != "med_00002" {
		t.Errorf("Expected Crocin from search, got %v", got)
	}
	if _, ok := catalog.GetMedicineByID("med_99999"); ok {
		t.Error("Expected unknown ID to be missing")
	}
	if catalog.CatalogVersion() != 3 {
		t.Errorf("Expected version 3, got %d", catalog.CatalogVersion())
	}
}

func TestInventoryProviderInterface(t *testing.T) {
	var inventory InventoryProvider = &MockCatalog{
		pharmacies: []entities.Pharmacy{
			{ID: "pharm001", Inventory: []entities.InventoryEntry{{MedicineID: "med_00001", Price: 30, Stock: 5}}},
			{ID: "pharm002", Inventory: []entities.InventoryEntry{{MedicineID: "med_00001", Price: 25, Stock: 0}}},
		},
	}

	stocked := inventory.PharmaciesWithMedicine("med_00001")
	if len(stocked) != 1 || stocked[0].Pharmacy.ID != "pharm001" {
		t.Errorf("Expected only pharm001 in stock, got %v", stocked)
	}
	if prices := inventory.AllPricesFor("med_00001"); len(prices) != 1 || prices[0] != 30 {
		t.Errorf("Expected prices [30], got %v", prices)
	}
}

func TestParserInterface(t *testing.T) {
	parser := &MockParser{shouldFail: false}
	medicines, err := parser.ParseCatalog()
	if err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if len(medicines) != 2 {
		t.Errorf("Expected 2 medicines, got %d", len(medicines))
	}

	parser = &MockParser{shouldFail: true}
	if _, err = parser.ParseCatalog(); err == nil {
		t.Error("Expected error but got none")
	}
}

func TestSchedulerInterface(t *testing.T) {
	scheduler := &MockScheduler{}

	if err := scheduler.Start(); err != nil {
		t.Errorf("Unexpected error: %v", err)
	}
	if err := scheduler.Start(); err == nil {
		t.Error("Expected second start to fail")
	}

	scheduler.Stop()
	if !scheduler.stopped {
		t.Error("Scheduler should be stopped")
	}
}

func TestHealthCheckerInterface(t *testing.T) {
	checker := &MockHealthChecker{
		status:  "degraded",
		details: map[string]any{"medicines": 10},
		code:    http.StatusServiceUnavailable,
	}

	status, details, code := checker.HealthCheck()
	if status != "degraded" || code != http.StatusServiceUnavailable {
		t.Errorf("Expected degraded/503, got %s/%d", status, code)
	}
	if details["medicines"] != 10 {
		t.Errorf("Expected 10 medicines, got %v", details["medicines"])
	}
}

// Example of how interfaces enable dependency injection
type Service struct {
	catalog   CatalogProvider
	parser    Parser
	scheduler Scheduler
}

func NewService(catalog CatalogProvider, parser Parser, scheduler Scheduler) *Service {
	return &Service{
		catalog:   catalog,
		parser:    parser,
		scheduler: scheduler,
	}
}

func (s *Service) MedicineCount() int {
	return len(s.catalog.GetMedicines())
}

func TestServiceWithDependencyInjection(t *testing.T) {
	mockCatalog := &MockCatalog{
		medicines: []entities.Medicine{{ID: "med_00001"}, {ID: "med_00002"}},
	}

	service := NewService(mockCatalog, &MockParser{}, &MockScheduler{})

	if count := service.MedicineCount(); count != 2 {
		t.Errorf("Expected 2 medicines, got %d", count)
	}
}

// Compile-time checks to ensure our implementations implement the interfaces
func TestCompileTimeChecks(t *testing.T) {
	var _ CatalogProvider = (*MockCatalog)(nil)
	var _ InventoryProvider = (*MockCatalog)(nil)
	var _ Parser = (*MockParser)(nil)
	var _ Scheduler = (*MockScheduler)(nil)
	var _ HealthChecker = (*MockHealthChecker)(nil)
}
