// Package inventory provides the demo pharmacy network and the synthetic
// stock that is loaded into it at startup.
package inventory

import "github.com/medfinder/medfinder-api/medicineparser/entities"

// DefaultLocation is used when a custom pharmacy is created before any
// pharmacy exists
var DefaultLocation = entities.Location{Lat: 12.97, Lng: 77.59}

// SeedPharmacies returns a fresh copy of the demo pharmacy network in
// Bangalore. Inventories are empty until seeded.
func SeedPharmacies() []entities.Pharmacy {
	return []entities.Pharmacy{
		{
			ID: "pharm001", Name: "Apollo Pharmacy",
			Address: "MG Road, Bangalore, Karnataka 560001", Phone: "+91-80-2558-0101",
			Lat: 12.9716, Lng: 77.5946, Rating: 4.5, OpenHours: "8-22",
			Type:     entities.PharmacyTypeChain,
			Services: []string{"prescription", "otc", "consultation", "home_delivery"},
		},
		{
			ID: "pharm002", Name: "MedPlus Pharmacy",
			Address: "Koramangala, Bangalore, Karnataka 560034", Phone: "+91-80-4112-0102",
			Lat: 12.9279, Lng: 77.6271, Rating: 4.2, OpenHours: "7-23",
			Type:     entities.PharmacyTypeChain,
			Services: []string{"prescription", "otc", "vaccination", "health_checkup"},
		},
		{
			ID: "pharm003", Name: "Netmeds Pharmacy",
			Address: "Indiranagar, Bangalore, Karnataka 560038", Phone: "+91-80-2521-0103",
			Lat: 12.9784, Lng: 77.6408, Rating: 4.3, OpenHours: "6-24",
			Type:     entities.PharmacyTypeChain,
			Services: []string{"prescription", "otc", "consultation", "vaccination"},
		},
		{
			ID: "pharm004", Name: "Wellness Forever",
			Address: "Jayanagar, Bangalore, Karnataka 560011", Phone: "+91-80-2663-0104",
			Lat: 12.9279, Lng: 77.5937, Rating: 4.1, OpenHours: "9-21",
			Type:     entities.PharmacyTypeIndependent,
			Services: []string{"prescription", "otc", "home_delivery"},
		},
		{
			ID: "pharm005", Name: "24x7 Medical Store",
			Address: "Brigade Road, Bangalore, Karnataka 560025", Phone: "+91-80-2559-0105",
			Lat: 12.9698, Lng: 77.6205, Rating: 4.0, OpenHours: "0-24", Is24x7: true,
			Type:     entities.PharmacyTypeIndependent,
			Services: []string{"prescription", "otc", "emergency", "consultation"},
		},
		{
			ID: "pharm006", Name: "HealthBuddy Pharmacy",
			Address: "Whitefield, Bangalore, Karnataka 560066", Phone: "+91-80-2845-0106",
			Lat: 12.9698, Lng: 77.7499, Rating: 4.4, OpenHours: "8-20",
			Type:     entities.PharmacyTypeIndependent,
			Services: []string{"prescription", "otc", "consultation", "compounding"},
		},
		{
			ID: "pharm007", Name: "QuickMeds Express",
			Address: "Electronic City, Bangalore, Karnataka 560100", Phone: "+91-80-2783-0107",
			Lat: 12.8456, Lng: 77.6603, Rating: 3.9, OpenHours: "10-22",
			Type:     entities.PharmacyTypeChain,
			Services: []string{"prescription", "otc", "express_pickup"},
		},
		{
			ID: "pharm008", Name: "Care & Cure Pharmacy",
			Address: "HSR Layout, Bangalore, Karnataka 560102", Phone: "+91-80-4067-0108",
			Lat: 12.9082, Lng: 77.6476, Rating: 4.6, OpenHours: "7-21",
			Type:     entities.PharmacyTypeIndependent,
			Services: []string{"prescription", "otc", "consultation", "home_delivery", "medication_sync"},
		},
		{
			ID: "pharm009", Name: "Fortis Pharmacy",
			Address: "Bannerghatta Road, Bangalore, Karnataka 560076", Phone: "+91-80-6621-0109",
			Lat: 12.8988, Lng: 77.6022, Rating: 4.3, OpenHours: "8-22",
			Type:     entities.PharmacyTypeHospital,
			Services: []string{"prescription", "otc", "consultation", "vaccination"},
		},
		{
			ID: "pharm010", Name: "Manipal Pharmacy",
			Address: "Old Airport Road, Bangalore, Karnataka 560017", Phone: "+91-80-2520-0110",
			Lat: 12.9591, Lng: 77.6469, Rating: 4.2, OpenHours: "24x7", Is24x7: true,
			Type:     entities.PharmacyTypeHospital,
			Services: []string{"prescription", "otc", "emergency", "consultation", "vaccination"},
		},
	}
}
