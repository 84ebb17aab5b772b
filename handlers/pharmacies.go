package handlers

import (
	"errors"
	"net/http"
	"sort"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/medfinder/medfinder-api/data"
	"github.com/medfinder/medfinder-api/geo"
	"github.com/medfinder/medfinder-api/logging"
	"github.com/medfinder/medfinder-api/medicineparser/entities"
	"github.com/medfinder/medfinder-api/metrics"
)

const (
	defaultRadiusKm = 10.0
	maxRadiusKm     = 100.0
	defaultStock    = 10
)

// fallbackLocation anchors custom pharmacies when none is registered yet
var fallbackLocation = entities.Location{Lat: 12.97, Lng: 77.59}

type nearbyPharmacy struct {
	entities.Pharmacy
	Distance          float64                  `json:"distance"`
	FormattedDistance string                   `json:"formattedDistance"`
	Direction         string                   `json:"direction"`
	TravelTime        geo.TravelEstimate       `json:"travelTime"`
	Medicine          *entities.InventoryEntry `json:"medicine,omitempty"`
}

type priceComparison struct {
	Pharmacy entities.Pharmacy       `json:"pharmacy"`
	Medicine entities.InventoryEntry `json:"medicine"`
	Distance *float64                `json:"distance"`
}

type compareResponse struct {
	Comparisons      []priceComparison `json:"comparisons"`
	Total            int               `json:"total"`
	LowestPrice      float64           `json:"lowestPrice"`
	HighestPrice     float64           `json:"highestPrice"`
	PotentialSavings float64           `json:"potentialSavings"`
}

type upsertRequest struct {
	Name         string   `json:"name"`
	Price        *float64 `json:"price"`
	Stock        *int     `json:"stock"`
	PharmacyName string   `json:"pharmacyName"`
}

type upsertResponse struct {
	PharmacyID  string  `json:"pharmacyId"`
	MedicineID  string  `json:"medicineId"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	NewMedicine bool    `json:"newMedicine"`
	NewPharmacy bool    `json:"newPharmacy"`
}

// parseSearchArea reads lat, lng and radius from the query string
func (h *HTTPHandlerImpl) parseSearchArea(r *http.Request) (entities.Location, float64, error) {
	lat, err := queryFloat(r, "lat", 0)
	if err != nil {
		return entities.Location{}, 0, err
	}
	lng, err := queryFloat(r, "lng", 0)
	if err != nil {
		return entities.Location{}, 0, err
	}
	if err := h.validator.ValidateLocation(lat, lng); err != nil {
		return entities.Location{}, 0, err
	}

	radius, err := queryFloat(r, "radius", defaultRadiusKm)
	if err != nil {
		return entities.Location{}, 0, err
	}
	if radius <= 0 || radius > maxRadiusKm {
		return entities.Location{}, 0, errors.New("radius must be greater than 0 and at most 100 km")
	}

	return entities.Location{Lat: lat, Lng: lng}, radius, nil
}

func hasLocation(r *http.Request) (bool, error) {
	q := r.URL.Query()
	lat, lng := q.Get("lat") != "", q.Get("lng") != ""
	if lat != lng {
		return false, errors.New("latitude and longitude must be provided together")
	}
	return lat, nil
}

// NearbyPharmacies lists pharmacies within the radius, nearest first
func (h *HTTPHandlerImpl) NearbyPharmacies(w http.ResponseWriter, r *http.Request) {
	present, err := hasLocation(r)
	if err != nil || !present {
		h.RespondWithError(w, http.StatusBadRequest, "Latitude and longitude are required")
		return
	}

	center, radius, err := h.parseSearchArea(r)
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	medicineID := r.URL.Query().Get("medicineId")
	if medicineID != "" {
		if err := h.validator.ValidateMedicineID(medicineID); err != nil {
			h.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	origin := geo.Point{Lat: center.Lat, Lng: center.Lng}
	results := make([]nearbyPharmacy, 0)

	for _, p := range h.dataStore.GetPharmacies() {
		point := geo.Point{Lat: p.Lat, Lng: p.Lng}
		if !geo.WithinRadius(point, origin, radius) {
			continue
		}

		item := nearbyPharmacy{Pharmacy: p.Summary()}
		if medicineID != "" {
			entry, ok := p.Entry(medicineID)
			if !ok || entry.Stock <= 0 {
				continue
			}
			item.Medicine = &entry
		}

		item.Distance = geo.DistanceBetween(origin, point)
		item.FormattedDistance = geo.FormatDistance(item.Distance)
		item.Direction = geo.Direction(geo.Bearing(center.Lat, center.Lng, p.Lat, p.Lng))
		item.TravelTime = geo.EstimateTravelTime(item.Distance, geo.Driving)
		results = append(results, item)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].ID < results[j].ID
	})

	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"pharmacies": results,
		"total":      len(results),
	})
}

// ComparePrices lists the in-stock offers of a medicine, cheapest first.
// Without a location every pharmacy is considered and distance is null.
func (h *HTTPHandlerImpl) ComparePrices(w http.ResponseWriter, r *http.Request) {
	medicineID := chi.URLParam(r, "medicineId")
	if err := h.validator.ValidateMedicineID(medicineID); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	located, err := hasLocation(r)
	if err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	var (
		origin geo.Point
		radius float64
	)
	if located {
		center, rad, err := h.parseSearchArea(r)
		if err != nil {
			h.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		origin = geo.Point{Lat: center.Lat, Lng: center.Lng}
		radius = rad
	}

	if _, ok := h.dataStore.GetMedicineByID(medicineID); !ok {
		h.RespondWithError(w, http.StatusNotFound, "Medicine not found")
		return
	}

	comparisons := make([]priceComparison, 0)
	for _, stocked := range h.dataStore.PharmaciesWithMedicine(medicineID) {
		item := priceComparison{Pharmacy: stocked.Pharmacy, Medicine: stocked.Entry}
		if located {
			point := geo.Point{Lat: stocked.Pharmacy.Lat, Lng: stocked.Pharmacy.Lng}
			if !geo.WithinRadius(point, origin, radius) {
				continue
			}
			distance := geo.DistanceBetween(origin, point)
			item.Distance = &distance
		}
		comparisons = append(comparisons, item)
	}

	sort.SliceStable(comparisons, func(i, j int) bool {
		if comparisons[i].Medicine.Price != comparisons[j].Medicine.Price {
			return comparisons[i].Medicine.Price < comparisons[j].Medicine.Price
		}
		return comparisons[i].Pharmacy.ID < comparisons[j].Pharmacy.ID
	})

	response := compareResponse{Comparisons: comparisons, Total: len(comparisons)}
	if len(comparisons) > 0 {
		response.LowestPrice = comparisons[0].Medicine.Price
		response.HighestPrice = comparisons[len(comparisons)-1].Medicine.Price
		response.PotentialSavings = response.HighestPrice - response.LowestPrice
	}

	h.RespondWithJSON(w, http.StatusOK, response)
}

// GetPharmacy returns a pharmacy with its inventory. "self" maps to the first pharmacy.
func (h *HTTPHandlerImpl) GetPharmacy(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.validator.ValidatePharmacyID(id); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	pharmacy, ok := h.dataStore.GetPharmacyByID(id)
	if !ok {
		h.RespondWithError(w, http.StatusNotFound, "Pharmacy not found")
		return
	}

	h.RespondWithJSON(w, http.StatusOK, map[string]any{"pharmacy": pharmacy})
}

// GetPharmacyMedicine returns the stock and price of one medicine at one pharmacy
func (h *HTTPHandlerImpl) GetPharmacyMedicine(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	medicineID := chi.URLParam(r, "medicineId")

	if err := h.validator.ValidatePharmacyID(id); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validator.ValidateMedicineID(medicineID); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	pharmacy, ok := h.dataStore.GetPharmacyByID(id)
	if !ok {
		h.RespondWithError(w, http.StatusNotFound, "Pharmacy not found")
		return
	}

	entry, ok := pharmacy.Entry(medicineID)
	if !ok {
		h.RespondWithError(w, http.StatusNotFound, "Medicine not available at this pharmacy")
		return
	}

	h.RespondWithJSON(w, http.StatusOK, map[string]any{
		"pharmacy": map[string]string{
			"id":      pharmacy.ID,
			"name":    pharmacy.Name,
			"address": pharmacy.Address,
		},
		"medicine": entry,
	})
}

// UpsertPharmacyMedicine adds or updates a medicine at a pharmacy. A
// pharmacyName in the body registers a new custom pharmacy first, and a name
// the catalog does not know becomes a custom medicine.
func (h *HTTPHandlerImpl) UpsertPharmacyMedicine(w http.ResponseWriter, r *http.Request) {
	var req upsertRequest
	if err := decodeJSON(r, &req); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" || req.Price == nil {
		h.RespondWithError(w, http.StatusBadRequest, "Name and price are required")
		return
	}
	if err := h.validator.ValidateInput(req.Name); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.validator.ValidatePrice(*req.Price); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	stock := defaultStock
	if req.Stock != nil {
		stock = *req.Stock
	}
	if err := h.validator.ValidateStock(stock); err != nil {
		h.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	response := upsertResponse{Price: *req.Price, Stock: stock}

	pharmacyName := strings.TrimSpace(req.PharmacyName)
	if pharmacyName != "" {
		if err := h.validator.ValidateInput(pharmacyName); err != nil {
			h.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}

		near := fallbackLocation
		if first, ok := h.dataStore.GetPharmacyByID(data.SelfPharmacyAlias); ok {
			near = first.Location()
		}

		pharmacy := h.seeder.CustomPharmacy(pharmacyName, near)
		if err := h.dataStore.AddPharmacy(pharmacy); err != nil {
			h.respondWithEngineError(w, r, err)
			return
		}
		response.PharmacyID = pharmacy.ID
		response.NewPharmacy = true
	} else {
		id := chi.URLParam(r, "id")
		if err := h.validator.ValidatePharmacyID(id); err != nil {
			h.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		pharmacy, ok := h.dataStore.GetPharmacyByID(id)
		if !ok {
			h.RespondWithError(w, http.StatusNotFound, "Pharmacy not found")
			return
		}
		response.PharmacyID = pharmacy.ID
	}

	medicine, found := h.resolveMedicine(req.Name)
	if !found {
		medicine = h.dataStore.AddCustomMedicine(req.Name)
		response.NewMedicine = true
	}
	response.MedicineID = medicine.ID

	if _, err := h.dataStore.UpsertInventory(response.PharmacyID, medicine.ID, *req.Price, stock); err != nil {
		h.respondWithEngineError(w, r, err)
		return
	}

	if response.NewMedicine || response.NewPharmacy {
		metrics.SetDataSizes(len(h.dataStore.GetMedicines()), h.dataStore.PharmacyCount())
	}

	logging.Info("Inventory updated",
		"pharmacy_id", response.PharmacyID,
		"medicine_id", response.MedicineID,
		"price", response.Price,
		"stock", response.Stock,
	)

	h.RespondWithJSON(w, http.StatusOK, response)
}

// resolveMedicine tries an exact name match, then the first search hit
func (h *HTTPHandlerImpl) resolveMedicine(name string) (entities.Medicine, bool) {
	if medicine, ok := h.dataStore.FindMedicineByName(name); ok {
		return medicine, true
	}
	if results := h.dataStore.SearchMedicines(name, 1); len(results) > 0 {
		return results[0], true
	}
	return entities.Medicine{}, false
}
