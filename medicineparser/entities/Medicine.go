package entities

// Medicine is a catalog entry. The first group of fields comes straight from
// the catalog CSV, the rest is derived at load time.
type Medicine struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	DosageForm     string `json:"dosageForm"`
	Strength       string `json:"strength"`
	Manufacturer   string `json:"manufacturer"`
	Indication     string `json:"indication"`
	Classification string `json:"classification"`

	GenericName          string   `json:"genericName"`
	SaltComposition      string   `json:"saltComposition"`
	TherapeuticClass     string   `json:"therapeuticClass"`
	PrescriptionRequired bool     `json:"prescriptionRequired"`
	Popularity           int      `json:"popularity"`
	Description          string   `json:"description"`
	SideEffects          []string `json:"sideEffects"`
	Dosage               string   `json:"dosage"`
	MaxDailyDose         string   `json:"maxDailyDose"`
	Custom               bool     `json:"custom,omitempty"`
}
