package scheduler

import (
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/medfinder/medfinder-api/data"
	"github.com/medfinder/medfinder-api/inventory"
	"github.com/medfinder/medfinder-api/logging"
	"github.com/medfinder/medfinder-api/medicineparser/entities"
)

func init() {
	logging.InitLogger("")
}

// mockParser returns a fixed catalog or an error
type mockParser struct {
	mu         sync.Mutex
	medicines  []entities.Medicine
	err        error
	parseCount int
}

func (m *mockParser) ParseCatalog() ([]entities.Medicine, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parseCount++
	if m.err != nil {
		return nil, m.err
	}
	return m.medicines, nil
}

func testCatalog(n int) []entities.Medicine {
	medicines := make([]entities.Medicine, n)
	for i := range medicines {
		medicines[i] = entities.Medicine{
			ID:         "med_" + string(rune('A'+i)),
			Name:       "Medicine " + string(rune('A'+i)),
			Category:   "Analgesic",
			DosageForm: "Tablet",
		}
	}
	return medicines
}

func newTestScheduler(store *data.DataContainer, parser *mockParser) *Scheduler {
	seeder := inventory.NewSeeder(rand.New(rand.NewPCG(7, 7)))
	return NewScheduler(store, parser, seeder, "06:00")
}

func TestStartLoadsCatalogAndSeedsInventory(t *testing.T) {
	store := data.NewDataContainer()
	parser := &mockParser{medicines: testCatalog(20)}
	s := newTestScheduler(store, parser)

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer s.Stop()

	if got := len(store.GetMedicines()); got != 20 {
		t.Errorf("Expected 20 medicines, got %d", got)
	}
	if got := store.PharmacyCount(); got != len(inventory.SeedPharmacies()) {
		t.Errorf("Expected %d pharmacies, got %d", len(inventory.SeedPharmacies()), got)
	}
	for _, p := range store.GetPharmacies() {
		if len(p.Inventory) < 12 || len(p.Inventory) > 16 {
			t.Errorf("Pharmacy %s has %d entries, expected 60-80%% of 20", p.ID, len(p.Inventory))
		}
	}
	if store.IsUpdating() {
		t.Error("Update flag should be cleared after the initial load")
	}
	if parser.parseCount != 1 {
		t.Errorf("Expected 1 parse, got %d", parser.parseCount)
	}
}

func TestStartFailsWhenCatalogCannotBeParsed(t *testing.T) {
	store := data.NewDataContainer()
	s := newTestScheduler(store, &mockParser{err: errors.New("missing file")})

	if err := s.Start(); err == nil {
		t.Fatal("Expected Start() to fail")
	}
	if store.PharmacyCount() != 0 {
		t.Error("Inventory should not be seeded without a catalog")
	}
}

func TestReloadCatalogKeepsCustomMedicinesAndInventory(t *testing.T) {
	store := data.NewDataContainer()
	parser := &mockParser{medicines: testCatalog(5)}
	s := newTestScheduler(store, parser)

	if err := s.initialLoad(); err != nil {
		t.Fatalf("initialLoad() error: %v", err)
	}

	custom := store.AddCustomMedicine("Homemade Syrup")
	if _, err := store.UpsertInventory("pharm001", custom.ID, 42, 3); err != nil {
		t.Fatalf("UpsertInventory() error: %v", err)
	}
	versionBefore := store.CatalogVersion()

	parser.medicines = testCatalog(8)
	if err := s.reloadCatalog(); err != nil {
		t.Fatalf("reloadCatalog() error: %v", err)
	}

	if got := len(store.GetMedicines()); got != 9 {
		t.Errorf("Expected 8 parsed + 1 custom medicine, got %d", got)
	}
	if _, ok := store.GetMedicineByID(custom.ID); !ok {
		t.Error("Custom medicine should survive a reload")
	}
	if store.CatalogVersion() <= versionBefore {
		t.Error("Catalog version should advance on reload")
	}

	p, ok := store.GetPharmacyByID("pharm001")
	if !ok {
		t.Fatal("pharm001 missing after reload")
	}
	if entry, ok := p.Entry(custom.ID); !ok || entry.Price != 42 {
		t.Errorf("Inventory should be left intact, got %+v (found %v)", entry, ok)
	}
}

func TestReloadCatalogFailureKeepsPreviousCatalog(t *testing.T) {
	store := data.NewDataContainer()
	parser := &mockParser{medicines: testCatalog(4)}
	s := newTestScheduler(store, parser)

	if err := s.reloadCatalog(); err != nil {
		t.Fatalf("reloadCatalog() error: %v", err)
	}

	parser.err = errors.New("corrupt file")
	if err := s.reloadCatalog(); err == nil {
		t.Fatal("Expected reload error")
	}

	if got := len(store.GetMedicines()); got != 4 {
		t.Errorf("Expected previous catalog of 4, got %d", got)
	}
	if store.IsUpdating() {
		t.Error("Update flag should be cleared after a failed reload")
	}
}

func TestReloadCatalogSkipsWhileUpdating(t *testing.T) {
	store := data.NewDataContainer()
	parser := &mockParser{medicines: testCatalog(3)}
	s := newTestScheduler(store, parser)

	if !store.BeginUpdate() {
		t.Fatal("BeginUpdate failed")
	}

	if err := s.reloadCatalog(); err != nil {
		t.Errorf("Expected skip without error, got %v", err)
	}
	if parser.parseCount != 0 {
		t.Errorf("Expected no parse while another update runs, got %d", parser.parseCount)
	}

	store.EndUpdate()
}

func TestCheckStaleness(t *testing.T) {
	store := data.NewDataContainer()
	s := newTestScheduler(store, &mockParser{medicines: testCatalog(1)})
	if err := s.reloadCatalog(); err != nil {
		t.Fatalf("reloadCatalog() error: %v", err)
	}

	lastUpdate := store.GetLastUpdated()

	s.now = func() time.Time { return lastUpdate.Add(24 * time.Hour) }
	if s.checkStaleness() {
		t.Error("24h old catalog should not be stale")
	}

	s.now = func() time.Time { return lastUpdate.Add(26 * time.Hour) }
	if !s.checkStaleness() {
		t.Error("26h old catalog should be stale")
	}
}

func TestStartRejectsInvalidReloadTime(t *testing.T) {
	store := data.NewDataContainer()
	s := NewScheduler(store, &mockParser{medicines: testCatalog(2)}, nil, "noon")

	if err := s.Start(); err == nil {
		s.Stop()
		t.Fatal("Expected an error for an invalid reload time")
	}
}
