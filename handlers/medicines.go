package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/medfinder/medfinder-api/data"
	"github.com/medfinder/medfinder-api/logging"
	"github.com/medfinder/medfinder-api/medicineparser/entities"
	"github.com/medfinder/medfinder-api/metrics"
	"github.com/medfinder/medfinder-api/substitute"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
	popularLimit       = 20
)

type searchResponse struct {
	Results []entities.Medicine `json:"results"`
	Total   int                 `json:"total"`
}

type substitutesResponse struct {
	*substitute.Result
	Total   int    `json:"total"`
	Message string `json:"message,omitempty"`
}

// SearchMedicines searches the catalog by name, generic name, category or indication
func (h *HTTPHandlerImpl) SearchMedicines(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		h.RespondWithError(w, http.StatusBadRequest, "Search query is required")
		return
	}

	if err := h.validator.ValidateInput(query); err != nil {
		logging.Warn("Unusual user input", "query", query, "error", err)
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	limit, err := queryInt(r, "limit", defaultSearchLimit)
	if err != nil || limit < 1 || limit > maxSearchLimit {
		h.RespondWithError(w, http.StatusBadRequest, "limit must be an integer between 1 and 50")
		return
	}

	results := h.dataStore.SearchMedicines(query, limit)

	// Always return 200 with results array (empty if no matches)
	h.RespondWithJSON(w, http.StatusOK, searchResponse{Results: results, Total: len(results)})
}

// PopularMedicines returns the 20 most popular medicines
func (h *HTTPHandlerImpl) PopularMedicines(w http.ResponseWriter, r *http.Request) {
	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"medicines": h.dataStore.GetPopularMedicines(popularLimit),
	})
}

// GetMedicine returns one medicine by ID
func (h *HTTPHandlerImpl) GetMedicine(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.validator.ValidateMedicineID(id); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	medicine, ok := h.dataStore.GetMedicineByID(id)
	if !ok {
		h.RespondWithError(w, http.StatusNotFound, "Medicine not found")
		return
	}

	h.RespondWithJSON(w, http.StatusOK, map[string]any{"medicine": medicine})
}

// FindSubstitutes returns the ranked substitutes of a medicine
func (h *HTTPHandlerImpl) FindSubstitutes(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.validator.ValidateMedicineID(id); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.substitutes.FindSubstitutesByID(id)
	if err != nil {
		recordLookupError(err)
		h.respondWithEngineError(w, r, err)
		return
	}

	response := substitutesResponse{Result: result, Total: len(result.Substitutes)}
	if len(result.Substitutes) == 0 {
		metrics.RecordSubstituteLookup(metrics.OutcomeEmpty)
		response.Message = "No substitutes found for this medicine"
	} else {
		metrics.RecordSubstituteLookup(metrics.OutcomeFound)
	}

	h.RespondWithJSON(w, http.StatusOK, response)
}

// FindAdvancedSubstitutes re-ranks substitutes against the preferences in the body
func (h *HTTPHandlerImpl) FindAdvancedSubstitutes(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.validator.ValidateMedicineID(id); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var prefs substitute.AdvancedPreferences
	if err := decodeJSON(r, &prefs); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.substitutes.FindAdvanced(id, prefs)
	if err != nil {
		recordLookupError(err)
		h.respondWithEngineError(w, r, err)
		return
	}

	if len(result.Substitutes) == 0 {
		metrics.RecordSubstituteLookup(metrics.OutcomeEmpty)
	} else {
		metrics.RecordSubstituteLookup(metrics.OutcomeFound)
	}

	h.RespondWithJSON(w, http.StatusOK, result)
}

func recordLookupError(err error) {
	if errors.Is(err, data.ErrMedicineNotFound) {
		metrics.RecordSubstituteLookup(metrics.OutcomeNotFound)
		return
	}
	metrics.RecordSubstituteLookup(metrics.OutcomeError)
}
