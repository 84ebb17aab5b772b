// Package scheduler performs the initial data load and keeps the catalog
// fresh: a daily reload at the configured time and an hourly staleness check.
package scheduler

import (
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/medfinder/medfinder-api/interfaces"
	"github.com/medfinder/medfinder-api/inventory"
	"github.com/medfinder/medfinder-api/logging"
	"github.com/medfinder/medfinder-api/metrics"
	"github.com/medfinder/medfinder-api/validation"
)

// staleAfter is one daily reload plus an hour of slack
const staleAfter = 25 * time.Hour

var _ interfaces.Scheduler = (*Scheduler)(nil)

// Scheduler loads data and schedules catalog reloads
type Scheduler struct {
	dataStore interfaces.DataStore
	parser    interfaces.Parser
	seeder    *inventory.Seeder
	validator interfaces.DataValidator
	reloadAt  string
	scheduler *gocron.Scheduler
	now       func() time.Time
}

// NewScheduler creates a scheduler. reloadAt is HH:MM in local time; a nil
// seeder uses a randomly seeded one.
func NewScheduler(dataStore interfaces.DataStore, parser interfaces.Parser, seeder *inventory.Seeder, reloadAt string) *Scheduler {
	if seeder == nil {
		seeder = inventory.NewSeeder(nil)
	}
	return &Scheduler{
		dataStore: dataStore,
		parser:    parser,
		seeder:    seeder,
		validator: validation.NewDataValidator(),
		reloadAt:  reloadAt,
		scheduler: gocron.NewScheduler(time.Local),
		now:       time.Now,
	}
}

// Start performs the initial load, then starts the scheduled jobs. Nothing
// is scheduled if the initial load fails.
func (s *Scheduler) Start() error {
	if err := s.initialLoad(); err != nil {
		logging.Error("Failed to perform initial data load", "error", err)
		return fmt.Errorf("initial data load failed: %w", err)
	}

	s.scheduler.SingletonModeAll()

	if _, err := s.scheduler.Every(1).Day().At(s.reloadAt).Do(func() {
		if err := s.reloadCatalog(); err != nil {
			logging.Error("Failed to reload catalog", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule catalog reload: %w", err)
	}

	if _, err := s.scheduler.Every(1).Hour().WaitForSchedule().Do(func() { s.checkStaleness() }); err != nil {
		return fmt.Errorf("failed to schedule staleness check: %w", err)
	}

	s.scheduler.StartAsync()
	logging.Info("Scheduler started", "catalog_reload_at", s.reloadAt)

	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// initialLoad parses the catalog and seeds every pharmacy's inventory from it
func (s *Scheduler) initialLoad() error {
	if err := s.reloadCatalog(); err != nil {
		return err
	}

	pharmacies := s.seeder.Seed(inventory.SeedPharmacies(), s.dataStore.GetMedicines())
	s.dataStore.LoadPharmacies(pharmacies)

	report := s.validator.ReportDataQuality(s.dataStore.GetMedicines(), pharmacies)
	if report.PharmaciesWithoutInventory > 0 {
		logging.Warn("Pharmacies seeded without inventory", "count", report.PharmaciesWithoutInventory)
	}

	metrics.SetDataSizes(len(s.dataStore.GetMedicines()), s.dataStore.PharmacyCount())
	logging.Info("Inventory seeded", "pharmacies", len(pharmacies))

	return nil
}

// reloadCatalog parses the catalog and swaps it in. Runtime custom
// medicines are carried over by the store; inventory is untouched.
func (s *Scheduler) reloadCatalog() error {
	if !s.dataStore.BeginUpdate() {
		logging.Info("Catalog update already in progress, skipping")
		return nil
	}
	defer s.dataStore.EndUpdate()

	start := s.now()

	medicines, err := s.parser.ParseCatalog()
	if err != nil {
		metrics.CatalogReloads.WithLabelValues("failure").Inc()
		return fmt.Errorf("failed to parse catalog: %w", err)
	}

	report := s.validator.ReportDataQuality(medicines, nil)
	if len(report.DuplicateMedicineIDs) > 0 {
		logging.Warn("Duplicate medicine IDs in catalog",
			"total", len(report.DuplicateMedicineIDs),
			"ids", report.DuplicateMedicineIDs,
		)
	}
	if report.MedicinesWithoutSalt > 0 || report.MedicinesWithoutTherapeuticClass > 0 {
		logging.Warn("Medicines that cannot have substitutes",
			"without_salt", report.MedicinesWithoutSalt,
			"without_therapeutic_class", report.MedicinesWithoutTherapeuticClass,
		)
	}

	s.dataStore.UpdateCatalog(medicines)

	metrics.CatalogReloads.WithLabelValues("success").Inc()
	metrics.SetDataSizes(len(s.dataStore.GetMedicines()), s.dataStore.PharmacyCount())

	logging.Info("Catalog update completed",
		"duration", s.now().Sub(start).String(),
		"medicine_count", len(medicines),
		"catalog_version", s.dataStore.CatalogVersion(),
	)

	return nil
}

// checkStaleness warns when the catalog missed its daily reload
func (s *Scheduler) checkStaleness() bool {
	lastUpdate := s.dataStore.GetLastUpdated()
	if age := s.now().Sub(lastUpdate); age > staleAfter {
		logging.Warn("Catalog hasn't been updated in over 25 hours", "last_update", lastUpdate.Format(time.RFC3339), "age", age.Round(time.Minute).String())
		return true
	}
	return false
}
