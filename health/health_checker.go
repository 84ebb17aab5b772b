// Package health reports whether the catalog and pharmacy data are fit to serve.
package health

import (
	"math"
	"net/http"
	"time"

	"github.com/medfinder/medfinder-api/interfaces"
)

const (
	// The catalog reloads daily, so one missed reload degrades and two fail
	degradedAge  = 24 * time.Hour
	unhealthyAge = 48 * time.Hour
	stuckUpdate  = 6 * time.Hour
)

// HealthCheckerImpl implements the interfaces.HealthChecker interface
type HealthCheckerImpl struct {
	dataStore interfaces.DataStore
	reloadAt  string
	now       func() time.Time
}

var _ interfaces.HealthChecker = (*HealthCheckerImpl)(nil)

// NewHealthChecker creates a health checker. reloadAt is the daily catalog
// reload time in HH:MM.
func NewHealthChecker(dataStore interfaces.DataStore, reloadAt string) interfaces.HealthChecker {
	return &HealthCheckerImpl{
		dataStore: dataStore,
		reloadAt:  reloadAt,
		now:       time.Now,
	}
}

// HealthCheck returns the status, its details and the HTTP status for /health
func (h *HealthCheckerImpl) HealthCheck() (status string, data map[string]any, httpStatus int) {
	medicines := len(h.dataStore.GetMedicines())
	pharmacies := h.dataStore.PharmacyCount()
	lastUpdate := h.dataStore.GetLastUpdated()
	isUpdating := h.dataStore.IsUpdating()

	now := h.now()
	dataAge := now.Sub(lastUpdate)

	switch {
	case medicines == 0 || pharmacies == 0:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > unhealthyAge:
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable

	case dataAge > degradedAge:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	case isUpdating && dataAge > stuckUpdate:
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable

	default:
		status = "healthy"
		httpStatus = http.StatusOK
	}

	data = map[string]any{
		"last_update":     lastUpdate.Format(time.RFC3339),
		"data_age_hours":  math.Round(dataAge.Hours()*10) / 10,
		"medicines":       medicines,
		"pharmacies":      pharmacies,
		"catalog_version": h.dataStore.CatalogVersion(),
		"is_updating":     isUpdating,
		"next_update":     h.CalculateNextUpdate().Format(time.RFC3339),
	}

	if start := h.dataStore.GetServerStartTime(); !start.IsZero() {
		data["uptime_seconds"] = int64(now.Sub(start).Seconds())
	}

	return status, data, httpStatus
}

// CalculateNextUpdate returns the next daily reload at reloadAt, falling
// back to 06:00 when the setting does not parse
func (h *HealthCheckerImpl) CalculateNextUpdate() time.Time {
	now := h.now()

	hour, minute := 6, 0
	if t, err := time.Parse("15:04", h.reloadAt); err == nil {
		hour, minute = t.Hour(), t.Minute()
	}

	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
