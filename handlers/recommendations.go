package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/medfinder/medfinder-api/medicineparser/entities"
	"github.com/medfinder/medfinder-api/metrics"
	"github.com/medfinder/medfinder-api/recommendation"
)

const (
	modeStandard     = "standard"
	modePersonalized = "personalized"
)

// defaultBudget applies when personalized preferences carry no budget
var defaultBudget = recommendation.BudgetRange{Min: 0, Max: 1000}

// weightsRequest lets callers override any subset of the weights
type weightsRequest struct {
	Price        *float64 `json:"priceWeight"`
	Distance     *float64 `json:"distanceWeight"`
	Availability *float64 `json:"availabilityWeight"`
}

func (wr *weightsRequest) resolve(defaults recommendation.Weights) recommendation.Weights {
	w := defaults
	if wr == nil {
		return w
	}
	if wr.Price != nil {
		w.Price = *wr.Price
	}
	if wr.Distance != nil {
		w.Distance = *wr.Distance
	}
	if wr.Availability != nil {
		w.Availability = *wr.Availability
	}
	return w
}

type recommendationRequest struct {
	MedicineID   string             `json:"medicineId"`
	UserLocation *entities.Location `json:"userLocation"`
	Preferences  *weightsRequest    `json:"preferences"`
	Urgency      string             `json:"urgency"`
}

type personalizedPreferences struct {
	weightsRequest
	BudgetRange         *recommendation.BudgetRange `json:"budgetRange"`
	PreferredPharmacies []string                    `json:"preferredPharmacies"`
}

type personalizedRequest struct {
	UserID       string                   `json:"userId"`
	MedicineID   string                   `json:"medicineId"`
	UserLocation *entities.Location       `json:"userLocation"`
	Preferences  *personalizedPreferences `json:"preferences"`
}

type personalizedResponse struct {
	*recommendation.Result
	UserID          string                     `json:"userId,omitempty"`
	UserPreferences recommendation.Preferences `json:"userPreferences"`
}

var errMissingTarget = errors.New("medicine ID and user location are required")

// checkTarget validates the medicine ID and user location shared by every
// recommendation request
func (h *HTTPHandlerImpl) checkTarget(medicineID string, location *entities.Location) error {
	if medicineID == "" || location == nil {
		return errMissingTarget
	}
	if err := h.validator.ValidateMedicineID(medicineID); err != nil {
		return err
	}
	return h.validator.ValidateLocation(location.Lat, location.Lng)
}

// RecommendPharmacies ranks the pharmacies stocking a medicine
func (h *HTTPHandlerImpl) RecommendPharmacies(w http.ResponseWriter, r *http.Request) {
	var req recommendationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.checkTarget(req.MedicineID, req.UserLocation); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	weights := req.Preferences.resolve(recommendation.DefaultWeights)
	if err := h.validator.ValidateWeights(weights.Price, weights.Distance, weights.Availability); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.recommender.RecommendPharmacies(req.MedicineID, *req.UserLocation, &weights)
	if err != nil {
		h.respondWithEngineError(w, r, err)
		return
	}

	metrics.RecordRecommendation(modeStandard, len(result.Recommendations))
	h.RespondWithJSON(w, http.StatusOK, result)
}

// BestPharmacy picks the top pharmacy for the urgency level in the body
func (h *HTTPHandlerImpl) BestPharmacy(w http.ResponseWriter, r *http.Request) {
	var req recommendationRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.checkTarget(req.MedicineID, req.UserLocation); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	urgency, err := recommendation.ParseUrgency(req.Urgency)
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	best, err := h.recommender.GetBestPharmacy(req.MedicineID, *req.UserLocation, urgency)
	if err != nil {
		h.respondWithEngineError(w, r, err)
		return
	}

	served := len(best.Alternatives)
	if best.Best != nil {
		served++
	}
	metrics.RecordRecommendation(string(urgency), served)

	h.RespondWithJSON(w, http.StatusOK, best)
}

// PersonalizedRecommendations ranks with the caller's weights, budget and
// preferred pharmacies
func (h *HTTPHandlerImpl) PersonalizedRecommendations(w http.ResponseWriter, r *http.Request) {
	var req personalizedRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.checkTarget(req.MedicineID, req.UserLocation); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	budget := defaultBudget
	prefs := recommendation.Preferences{
		Weights:             recommendation.PersonalizedWeights,
		BudgetRange:         &budget,
		PreferredPharmacies: []string{},
	}
	if req.Preferences != nil {
		prefs.Weights = req.Preferences.weightsRequest.resolve(recommendation.PersonalizedWeights)
		if req.Preferences.BudgetRange != nil {
			prefs.BudgetRange = req.Preferences.BudgetRange
		}
		if req.Preferences.PreferredPharmacies != nil {
			prefs.PreferredPharmacies = req.Preferences.PreferredPharmacies
		}
	}

	if err := h.validator.ValidateWeights(prefs.Weights.Price, prefs.Weights.Distance, prefs.Weights.Availability); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if prefs.BudgetRange.Min < 0 || prefs.BudgetRange.Min > prefs.BudgetRange.Max {
		h.RespondWithError(w, http.StatusBadRequest, "budgetRange must satisfy 0 <= min <= max")
		return
	}
	for _, id := range prefs.PreferredPharmacies {
		if err := h.validator.ValidatePharmacyID(id); err != nil {
			h.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	result, err := h.recommender.PersonalizedRecommendations(req.MedicineID, *req.UserLocation, prefs)
	if err != nil {
		h.respondWithEngineError(w, r, err)
		return
	}

	metrics.RecordRecommendation(modePersonalized, len(result.Recommendations))
	h.RespondWithJSON(w, http.StatusOK, personalizedResponse{
		Result:          result,
		UserID:          req.UserID,
		UserPreferences: prefs,
	})
}

// PriceTrend returns a simulated daily price series for a medicine
func (h *HTTPHandlerImpl) PriceTrend(w http.ResponseWriter, r *http.Request) {
	medicineID := chi.URLParam(r, "medicineId")
	if err := h.validator.ValidateMedicineID(medicineID); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	days, err := queryInt(r, "days", recommendation.DefaultTrendDays)
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	trend, err := h.recommender.GetPriceTrend(medicineID, days)
	if err != nil {
		h.respondWithEngineError(w, r, err)
		return
	}

	h.RespondWithJSON(w, http.StatusOK, trend)
}
