package substitute

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/medfinder/medfinder-api/medicineparser/entities"
)

var dosageForms = []string{"tablet", "capsule", "syrup", "injection", "cream", "ointment", "drops"}

const defaultDosageForm = "tablet"

var strengthPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(mg|g|ml|mcg)`)

type strength struct {
	value float64
	unit  string
}

func findDosageForm(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, form := range dosageForms {
		if strings.Contains(lower, form) {
			return form, true
		}
	}
	return "", false
}

// dosageFormOf looks at the dosage form field first, then the name
func dosageFormOf(m entities.Medicine) string {
	if form, ok := findDosageForm(m.DosageForm); ok {
		return form
	}
	if form, ok := findDosageForm(m.Name); ok {
		return form
	}
	return defaultDosageForm
}

func parseStrength(text string) (strength, bool) {
	match := strengthPattern.FindStringSubmatch(text)
	if match == nil {
		return strength{}, false
	}
	value, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return strength{}, false
	}
	return strength{value: value, unit: strings.ToLower(match[2])}, true
}

// strengthOf looks at the strength field first, then the name
func strengthOf(m entities.Medicine) (strength, bool) {
	if s, ok := parseStrength(m.Strength); ok {
		return s, true
	}
	return parseStrength(m.Name)
}

// similarStrength requires the same unit and a ratio within [0.5, 2]
func similarStrength(a, b strength) bool {
	if a.unit != b.unit || b.value == 0 {
		return false
	}
	ratio := a.value / b.value
	return ratio >= 0.5 && ratio <= 2.0
}
