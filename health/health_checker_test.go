package health

import (
	"net/http"
	"testing"
	"time"

	"github.com/medfinder/medfinder-api/data"
	"github.com/medfinder/medfinder-api/logging"
	"github.com/medfinder/medfinder-api/medicineparser/entities"
)

func init() {
	logging.InitLogger("")
}

func newLoadedStore(medicines, pharmacies int) *data.DataContainer {
	store := data.NewDataContainer()

	catalog := make([]entities.Medicine, medicines)
	for i := range catalog {
		catalog[i] = entities.Medicine{ID: "med_" + string(rune('a'+i)), Name: "Medicine"}
	}
	store.UpdateCatalog(catalog)
	store.LoadPharmacies(make([]entities.Pharmacy, pharmacies))

	return store
}

func newChecker(store *data.DataContainer, now time.Time) *HealthCheckerImpl {
	checker := NewHealthChecker(store, "06:00").(*HealthCheckerImpl)
	checker.now = func() time.Time { return now }
	return checker
}

func TestHealthCheckStatus(t *testing.T) {
	tests := []struct {
		name       string
		medicines  int
		pharmacies int
		age        time.Duration
		updating   bool
		status     string
		httpStatus int
	}{
		{"fresh data", 3, 2, time.Hour, false, "healthy", http.StatusOK},
		{"empty catalog", 0, 2, time.Hour, false, "unhealthy", http.StatusServiceUnavailable},
		{"no pharmacies", 3, 0, time.Hour, false, "unhealthy", http.StatusServiceUnavailable},
		{"one missed reload", 3, 2, 30 * time.Hour, false, "degraded", http.StatusServiceUnavailable},
		{"two missed reloads", 3, 2, 50 * time.Hour, false, "unhealthy", http.StatusServiceUnavailable},
		{"stuck update", 3, 2, 7 * time.Hour, true, "degraded", http.StatusServiceUnavailable},
		{"recent update in progress", 3, 2, time.Hour, true, "healthy", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newLoadedStore(tt.medicines, tt.pharmacies)
			if tt.updating && !store.BeginUpdate() {
				t.Fatal("BeginUpdate failed")
			}

			checker := newChecker(store, store.GetLastUpdated().Add(tt.age))
			status, details, httpStatus := checker.HealthCheck()

			if status != tt.status {
				t.Errorf("Expected status %s, got %s", tt.status, status)
			}
			if httpStatus != tt.httpStatus {
				t.Errorf("Expected HTTP %d, got %d", tt.httpStatus, httpStatus)
			}
			if details["medicines"] != tt.medicines {
				t.Errorf("Expected %d medicines, got %v", tt.medicines, details["medicines"])
			}
			if details["pharmacies"] != tt.pharmacies {
				t.Errorf("Expected %d pharmacies, got %v", tt.pharmacies, details["pharmacies"])
			}
			if details["is_updating"] != tt.updating {
				t.Errorf("Expected is_updating %v, got %v", tt.updating, details["is_updating"])
			}
		})
	}
}

func TestHealthCheckDetails(t *testing.T) {
	store := newLoadedStore(2, 1)
	start := store.GetLastUpdated().Add(-time.Hour)
	store.SetServerStartTime(start)

	checker := newChecker(store, store.GetLastUpdated().Add(90*time.Minute))
	_, details, _ := checker.HealthCheck()

	if details["data_age_hours"] != 1.5 {
		t.Errorf("Expected data_age_hours 1.5, got %v", details["data_age_hours"])
	}
	if details["uptime_seconds"] != int64(9000) {
		t.Errorf("Expected uptime 9000s, got %v", details["uptime_seconds"])
	}
	if details["catalog_version"] != uint64(1) {
		t.Errorf("Expected catalog version 1, got %v", details["catalog_version"])
	}
	for _, key := range []string{"last_update", "next_update"} {
		if _, err := time.Parse(time.RFC3339, details[key].(string)); err != nil {
			t.Errorf("%s is not RFC3339: %v", key, err)
		}
	}
}

func TestCalculateNextUpdate(t *testing.T) {
	loc := time.UTC
	tests := []struct {
		name     string
		reloadAt string
		now      time.Time
		expected time.Time
	}{
		{"before reload", "06:00", time.Date(2026, 3, 1, 5, 59, 0, 0, loc), time.Date(2026, 3, 1, 6, 0, 0, 0, loc)},
		{"at reload", "06:00", time.Date(2026, 3, 1, 6, 0, 0, 0, loc), time.Date(2026, 3, 2, 6, 0, 0, 0, loc)},
		{"after reload", "06:00", time.Date(2026, 3, 1, 18, 0, 0, 0, loc), time.Date(2026, 3, 2, 6, 0, 0, 0, loc)},
		{"custom time", "23:30", time.Date(2026, 3, 1, 12, 0, 0, 0, loc), time.Date(2026, 3, 1, 23, 30, 0, 0, loc)},
		{"month rollover", "01:15", time.Date(2026, 1, 31, 2, 0, 0, 0, loc), time.Date(2026, 2, 1, 1, 15, 0, 0, loc)},
		{"invalid setting", "late", time.Date(2026, 3, 1, 5, 0, 0, 0, loc), time.Date(2026, 3, 1, 6, 0, 0, 0, loc)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := &HealthCheckerImpl{reloadAt: tt.reloadAt, now: func() time.Time { return tt.now }}
			if got := checker.CalculateNextUpdate(); !got.Equal(tt.expected) {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}
