// Package handlers provides HTTP request handlers for the medfinder API endpoints.
// This file implements the HTTPHandler interface with dependency injection.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/medfinder/medfinder-api/data"
	"github.com/medfinder/medfinder-api/interfaces"
	"github.com/medfinder/medfinder-api/inventory"
	"github.com/medfinder/medfinder-api/logging"
	"github.com/medfinder/medfinder-api/recommendation"
	"github.com/medfinder/medfinder-api/substitute"
)

// HTTPHandlerImpl implements the interfaces.HTTPHandler interface
type HTTPHandlerImpl struct {
	dataStore     interfaces.DataStore
	validator     interfaces.DataValidator
	healthChecker interfaces.HealthChecker
	recommender   *recommendation.Engine
	substitutes   *substitute.Engine
	seeder        *inventory.Seeder
}

var _ interfaces.HTTPHandler = (*HTTPHandlerImpl)(nil)

// NewHTTPHandler creates a new HTTP handler with injected dependencies
func NewHTTPHandler(
	dataStore interfaces.DataStore,
	validator interfaces.DataValidator,
	healthChecker interfaces.HealthChecker,
	recommender *recommendation.Engine,
	substitutes *substitute.Engine,
	seeder *inventory.Seeder,
) interfaces.HTTPHandler {
	return &HTTPHandlerImpl{
		dataStore:     dataStore,
		validator:     validator,
		healthChecker: healthChecker,
		recommender:   recommender,
		substitutes:   substitutes,
		seeder:        seeder,
	}
}

// HealthResponseImpl defines the structure for consistent JSON ordering
type HealthResponseImpl struct {
	Status string         `json:"status"`
	Uptime string         `json:"uptime,omitempty"`
	Data   map[string]any `json:"data"`
	System map[string]any `json:"system"`
}

// RespondWithJSON writes a JSON response
func (h *HTTPHandlerImpl) RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Last-Modified", time.Now().UTC().Format(http.TimeFormat))
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error response
func (h *HTTPHandlerImpl) RespondWithError(w http.ResponseWriter, code int, message string) {
	errorResponse := map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	h.RespondWithJSON(w, code, errorResponse)
}

// respondWithEngineError maps engine and store errors to HTTP statuses
func (h *HTTPHandlerImpl) respondWithEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, data.ErrMedicineNotFound):
		h.RespondWithError(w, http.StatusNotFound, "Medicine not found")
	case errors.Is(err, data.ErrPharmacyNotFound):
		h.RespondWithError(w, http.StatusNotFound, "Pharmacy not found")
	case errors.Is(err, recommendation.ErrInvalidWeights),
		errors.Is(err, recommendation.ErrInvalidUrgency),
		errors.Is(err, recommendation.ErrInvalidDays):
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, substitute.ErrComputation):
		logging.Error("Substitute computation failed", "path", r.URL.Path, "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Substitutes could not be computed, please retry later")
	default:
		logging.Error("Request failed", "path", r.URL.Path, "error", err)
		h.RespondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads the request body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return fmt.Errorf("request body too large")
	}
	if err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// queryFloat parses an optional float query parameter
func queryFloat(r *http.Request, key string, fallback float64) (float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", key)
	}
	return value, nil
}

// queryInt parses an optional integer query parameter
func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return value, nil
}

// formatUptimeHuman formats duration into a human-readable string
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string

	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}

// HealthCheck returns server health information
func (h *HTTPHandlerImpl) HealthCheck(w http.ResponseWriter, r *http.Request) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	status, details, httpStatus := h.healthChecker.HealthCheck()

	response := HealthResponseImpl{
		Status: status,
		Data:   details,
		System: map[string]any{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       int(m.Alloc / 1024 / 1024),
				"total_alloc_mb": int(m.TotalAlloc / 1024 / 1024),
				"sys_mb":         int(m.Sys / 1024 / 1024),
				"num_gc":         m.NumGC,
			},
		},
	}

	if start := h.dataStore.GetServerStartTime(); !start.IsZero() {
		response.Uptime = formatUptimeHuman(time.Since(start))
	}

	h.RespondWithJSON(w, httpStatus, response)
}
