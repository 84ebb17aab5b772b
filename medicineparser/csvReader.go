// Package medicineparser loads the medicine catalog from its CSV source file.
package medicineparser

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/medfinder/medfinder-api/logging"
	"github.com/medfinder/medfinder-api/medicineparser/entities"
)

const catalogColumns = 7

const (
	EncodingUTF8   = "utf8"
	EncodingLatin1 = "latin1"
)

// decodeReader wraps r with a Latin-1 decoder when the catalog is not UTF-8
func decodeReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(encoding) {
	case "", EncodingUTF8, "utf-8":
		return r, nil
	case EncodingLatin1, "iso-8859-1":
		return charmap.ISO8859_1.NewDecoder().Reader(r), nil
	default:
		return nil, fmt.Errorf("unsupported catalog encoding %q", encoding)
	}
}

// splitCSVLine splits on commas outside double quotes. Quotes only toggle
// the quoted state and are dropped; escaped quotes are not supported.
func splitCSVLine(line string) []string {
	var values []string
	var current strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			values = append(values, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}

	return append(values, strings.TrimSpace(current.String()))
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// medicineFromFields builds a catalog entry from one data row. lineNumber is
// the 1-based position of the row after the header.
func medicineFromFields(fields []string, lineNumber int) entities.Medicine {
	name := orDefault(fields[0], "Unknown Medicine")
	category := orDefault(fields[1], "General")
	form := orDefault(fields[2], "Tablet")
	strength := orDefault(fields[3], "0 mg")
	indication := orDefault(fields[5], "General Use")
	classification := orDefault(fields[6], "Over-the-Counter")

	return entities.Medicine{
		ID:             fmt.Sprintf("med_%05d", lineNumber),
		Name:           name,
		Category:       category,
		DosageForm:     form,
		Strength:       strength,
		Manufacturer:   orDefault(fields[4], "Unknown Manufacturer"),
		Indication:     indication,
		Classification: classification,

		GenericName:          GenericName(name),
		SaltComposition:      SaltComposition(fields[0]),
		TherapeuticClass:     category,
		PrescriptionRequired: strings.Contains(strings.ToLower(fields[6]), "prescription"),
		Popularity:           Popularity(name),
		Description:          fmt.Sprintf("%s medication for %s", category, indication),
		SideEffects:          sideEffects(category),
		Dosage:               dosage(form),
		MaxDailyDose:         MaxDailyDose(strength),
	}
}

// readCatalog parses the catalog from r. The first line is a header and is
// ignored; rows with fewer than seven columns are skipped and counted.
func readCatalog(r io.Reader) ([]entities.Medicine, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var medicines []entities.Medicine
	lineCount := 0
	skippedEmptyLines := 0
	skippedMissingColumns := 0

	for scanner.Scan() {
		lineCount++
		if lineCount == 1 {
			continue
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			skippedEmptyLines++
			continue
		}

		fields := splitCSVLine(line)
		if len(fields) < catalogColumns {
			skippedMissingColumns++
			continue
		}

		medicines = append(medicines, medicineFromFields(fields, lineCount-1))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}

	if skippedEmptyLines > 0 || skippedMissingColumns > 0 {
		logging.Info("Catalog skip statistics",
			"empty_lines", skippedEmptyLines,
			"missing_columns", skippedMissingColumns,
			"total_lines", lineCount,
			"records_parsed", len(medicines))
	}

	return medicines, nil
}
