package entities

// StockedPharmacy pairs a pharmacy summary with its entry for one medicine
type StockedPharmacy struct {
	Pharmacy Pharmacy       `json:"pharmacy"`
	Entry    InventoryEntry `json:"inventory"`
}
