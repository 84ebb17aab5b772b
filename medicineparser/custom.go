package medicineparser

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/medfinder/medfinder-api/medicineparser/entities"
)

// CustomMedicinePrefix marks medicines created at runtime rather than loaded
// from the catalog file
const CustomMedicinePrefix = "med_custom_"

// NewCustomMedicine builds a catalog entry for a medicine a pharmacy stocks
// but the catalog does not know about.
func NewCustomMedicine(name string) entities.Medicine {
	return entities.Medicine{
		ID:                   CustomMedicinePrefix + uuid.NewString(),
		Name:                 name,
		Category:             "Custom",
		DosageForm:           "Tablet",
		Strength:             "N/A",
		Manufacturer:         "Local Pharmacy",
		Indication:           "General",
		Classification:       "Over-the-Counter",
		GenericName:          name,
		SaltComposition:      "N/A",
		TherapeuticClass:     "General",
		PrescriptionRequired: false,
		Popularity:           1,
		Description:          fmt.Sprintf("Custom entry for %s", name),
		SideEffects:          []string{},
		Dosage:               "As directed",
		MaxDailyDose:         "N/A",
		Custom:               true,
	}
}
