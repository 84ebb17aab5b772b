package handlers

import (
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/medfinder/medfinder-api/data"
	"github.com/medfinder/medfinder-api/health"
	"github.com/medfinder/medfinder-api/interfaces"
	"github.com/medfinder/medfinder-api/inventory"
	"github.com/medfinder/medfinder-api/logging"
	"github.com/medfinder/medfinder-api/medicineparser/entities"
	"github.com/medfinder/medfinder-api/recommendation"
	"github.com/medfinder/medfinder-api/substitute"
	"github.com/medfinder/medfinder-api/validation"
)

func init() {
	logging.InitLogger("")
}

// ============================================================================
// TEST DATA
// ============================================================================

var userLocation = entities.Location{Lat: 12.9716, Lng: 77.5946}

func testMedicines() []entities.Medicine {
	medicine := func(id, name, salt, class string, popularity int) entities.Medicine {
		return entities.Medicine{
			ID:               id,
			Name:             name,
			SaltComposition:  salt,
			TherapeuticClass: class,
			DosageForm:       "Tablet",
			Indication:       "Pain",
			Popularity:       popularity,
		}
	}
	return []entities.Medicine{
		medicine("med_00001", "Paracetamol 500mg", "Paracetamol", "Analgesic", 90),
		medicine("med_00002", "Crocin 500mg", "Paracetamol", "Analgesic", 80),
		medicine("med_00003", "Ibuprofen 400mg", "Ibuprofen", "Analgesic", 70),
		medicine("med_00004", "Amoxicillin 250mg", "Amoxicillin", "Antibiotic", 60),
	}
}

func stock(medicineID string, price float64, units int) entities.InventoryEntry {
	return entities.InventoryEntry{MedicineID: medicineID, Price: price, Stock: units, LastUpdated: time.Now()}
}

// pharm001 sits on the user, pharm002 about 5.56km north, pharm003 about 58.8km north
func testPharmacies() []entities.Pharmacy {
	return []entities.Pharmacy{
		{
			ID: "pharm001", Name: "Apollo Pharmacy", Address: "MG Road",
			Lat: 12.9716, Lng: 77.5946, Rating: 4.5, OpenHours: "8-22",
			Inventory: []entities.InventoryEntry{stock("med_00001", 30, 50), stock("med_00003", 20, 0)},
		},
		{
			ID: "pharm002", Name: "MedPlus", Address: "Hebbal",
			Lat: 13.0216, Lng: 77.5946, Rating: 4.0, OpenHours: "9-21",
			Inventory: []entities.InventoryEntry{stock("med_00001", 25, 20)},
		},
		{
			ID: "pharm003", Name: "Wellness Forever", Address: "Doddaballapur",
			Lat: 13.5, Lng: 77.5946, Rating: 3.5, OpenHours: "0-24", Is24x7: true,
			Inventory: []entities.InventoryEntry{stock("med_00001", 40, 5)},
		},
	}
}

// failingOracle makes every substitute price lookup fail
type failingOracle struct{}

func (failingOracle) AveragePrice(string) (float64, error) {
	return 0, errors.New("price feed unavailable")
}

func (failingOracle) Availability(string) (substitute.Availability, error) {
	return substitute.Availability{}, nil
}

// ============================================================================
// HANDLER FACTORY
// ============================================================================

func newTestStore() *data.DataContainer {
	store := data.NewDataContainer()
	store.UpdateCatalog(testMedicines())
	store.LoadPharmacies(testPharmacies())
	return store
}

func newTestHandler(t *testing.T, store *data.DataContainer, oracle substitute.Oracle) *HTTPHandlerImpl {
	t.Helper()
	if oracle == nil {
		oracle = substitute.NewHashOracle(store)
	}
	rng := rand.New(rand.NewPCG(7, 7))
	return NewHTTPHandler(
		store,
		validation.NewDataValidator(),
		health.NewHealthChecker(store, "06:00"),
		recommendation.NewEngine(store, store, recommendation.WithRand(rng)),
		substitute.NewEngine(store, oracle, oracle, rand.New(rand.NewPCG(1, 1))),
		inventory.NewSeeder(rand.New(rand.NewPCG(3, 3))),
	).(*HTTPHandlerImpl)
}

// newTestRouter mounts the handler on the same paths the server uses
func newTestRouter(h interfaces.HTTPHandler) http.Handler {
	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/medicines/search", h.SearchMedicines)
		r.Get("/medicines/popular", h.PopularMedicines)
		r.Get("/medicines/{id}", h.GetMedicine)
		r.Get("/medicines/{id}/substitutes", h.FindSubstitutes)
		r.Post("/medicines/{id}/substitutes/advanced", h.FindAdvancedSubstitutes)

		r.Get("/pharmacies/nearby", h.NearbyPharmacies)
		r.Get("/pharmacies/compare/{medicineId}", h.ComparePrices)
		r.Get("/pharmacies/{id}", h.GetPharmacy)
		r.Get("/pharmacies/{id}/medicines/{medicineId}", h.GetPharmacyMedicine)
		r.Post("/pharmacies/{id}/medicines", h.UpsertPharmacyMedicine)

		r.Post("/recommendations/pharmacy", h.RecommendPharmacies)
		r.Post("/recommendations/best-pharmacy", h.BestPharmacy)
		r.Post("/recommendations/personalized", h.PersonalizedRecommendations)
		r.Get("/recommendations/price-trend/{medicineId}", h.PriceTrend)
	})
	r.Get("/health", h.HealthCheck)
	return r
}

// ============================================================================
// REQUEST HELPERS
// ============================================================================

func doRequest(t *testing.T, router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func assertError(t *testing.T, rec *httptest.ResponseRecorder, code int, messagePart string) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("Expected status %d, got %d: %s", code, rec.Code, rec.Body.String())
	}
	body := decodeBody[errorBody](t, rec)
	if body.Code != code || body.Error != http.StatusText(code) {
		t.Errorf("Unexpected error body: %+v", body)
	}
	if !strings.Contains(body.Message, messagePart) {
		t.Errorf("Expected message containing %q, got %q", messagePart, body.Message)
	}
}
