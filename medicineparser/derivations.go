package medicineparser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/text/cases"
)

var nameSuffixes = []string{"cillin", "mycin", "profen", "statin", "nazole", "phen", "met", "vir"}

var suffixPatterns = func() map[string]*regexp.Regexp {
	m := make(map[string]*regexp.Regexp, len(nameSuffixes))
	for _, s := range nameSuffixes {
		m[s] = regexp.MustCompile("(?i)" + s)
	}
	return m
}()

// Ordered so that the first match wins deterministically
var saltMap = []struct {
	fragment string
	salt     string
}{
	{"paracetamol", "acetaminophen"},
	{"acetaminophen", "acetaminophen"},
	{"aspirin", "acetylsalicylic acid"},
	{"ibuprofen", "ibuprofen"},
	{"amoxicillin", "amoxicillin"},
	{"omeprazole", "omeprazole"},
	{"metformin", "metformin"},
	{"lisinopril", "lisinopril"},
	{"atorvastatin", "atorvastatin"},
	{"simvastatin", "simvastatin"},
	{"amlodipine", "amlodipine"},
	{"losartan", "losartan"},
	{"hydrochlorothiazide", "hydrochlorothiazide"},
	{"ciprofloxacin", "ciprofloxacin"},
	{"azithromycin", "azithromycin"},
	{"cephalexin", "cephalexin"},
	{"doxycycline", "doxycycline"},
	{"prednisone", "prednisone"},
	{"warfarin", "warfarin"},
	{"insulin", "insulin"},
}

var sideEffectsByCategory = map[string][]string{
	"Antibiotic":     {"Nausea", "Diarrhea", "Stomach upset", "Allergic reactions"},
	"Analgesic":      {"Drowsiness", "Stomach irritation", "Dizziness"},
	"Antipyretic":    {"Nausea", "Liver damage (overdose)", "Skin rash"},
	"Antifungal":     {"Headache", "Nausea", "Liver problems"},
	"Antiviral":      {"Fatigue", "Headache", "Nausea"},
	"Antidepressant": {"Drowsiness", "Dry mouth", "Weight changes"},
	"Antidiabetic":   {"Hypoglycemia", "Nausea", "Weight gain"},
	"Antiseptic":     {"Skin irritation", "Allergic reactions"},
}

var dosageByForm = map[string]string{
	"Tablet":    "1-2 tablets as directed",
	"Capsule":   "1 capsule as directed",
	"Syrup":     "5-10ml as directed",
	"Injection": "As per medical supervision",
	"Ointment":  "Apply thin layer as needed",
	"Cream":     "Apply to affected area",
	"Drops":     "2-3 drops as directed",
	"Inhaler":   "1-2 puffs as needed",
}

var mgPattern = regexp.MustCompile(`(\d+)\s*mg`)

// GenericName strips the first known drug-family suffix found in name.
// If stripping leaves nothing, the name is returned unchanged.
func GenericName(name string) string {
	lower := strings.ToLower(name)
	for _, suffix := range nameSuffixes {
		if strings.Contains(lower, suffix) {
			stripped := strings.TrimSpace(suffixPatterns[suffix].ReplaceAllString(name, ""))
			if stripped == "" {
				return name
			}
			return stripped
		}
	}
	return name
}

// SaltComposition maps a medicine name to its active ingredient. Unknown names
// fall back to a "<suffix>_group" bucket, then to the lower-cased name itself.
func SaltComposition(name string) string {
	lower := strings.ToLower(name)

	for _, s := range saltMap {
		if strings.Contains(lower, s.fragment) {
			return s.salt
		}
	}

	for _, suffix := range nameSuffixes {
		if strings.Contains(lower, suffix) {
			return suffix + "_group"
		}
	}

	if lower == "" {
		return "unknown"
	}
	return lower
}

func sideEffects(category string) []string {
	if effects, ok := sideEffectsByCategory[category]; ok {
		return append([]string(nil), effects...)
	}
	return []string{"Consult doctor for side effects"}
}

func dosage(form string) string {
	if d, ok := dosageByForm[form]; ok {
		return d
	}
	return "As directed by physician"
}

// MaxDailyDose assumes at most four doses a day
func MaxDailyDose(strength string) string {
	match := mgPattern.FindStringSubmatch(strength)
	if match == nil {
		return "2000mg"
	}
	dose, err := strconv.Atoi(match[1])
	if err != nil {
		return "2000mg"
	}
	return fmt.Sprintf("%dmg", dose*4)
}

// Popularity returns a stable score in [1, 100] for a medicine name
func Popularity(name string) int {
	return int(xxhash.Sum64String(strings.ToLower(name))%100) + 1
}

// NormalizeName case-folds a medicine name for comparisons. A new Caser is
// built per call since Casers are not safe for concurrent use.
func NormalizeName(name string) string {
	return cases.Fold().String(strings.TrimSpace(name))
}
