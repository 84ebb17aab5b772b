package medicineparser

import (
	"fmt"
	"os"

	"github.com/medfinder/medfinder-api/interfaces"
	"github.com/medfinder/medfinder-api/logging"
	"github.com/medfinder/medfinder-api/medicineparser/entities"
)

// Compile-time check to ensure CatalogParser implements Parser interface
var _ interfaces.Parser = (*CatalogParser)(nil)

// CatalogParser reads the medicine catalog from a CSV file on disk
type CatalogParser struct {
	path     string
	encoding string
}

// NewCatalogParser creates a parser for the file at path. encoding is
// "utf8" or "latin1".
func NewCatalogParser(path, encoding string) *CatalogParser {
	return &CatalogParser{path: path, encoding: encoding}
}

// ParseCatalog implements the Parser interface
func (p *CatalogParser) ParseCatalog() ([]entities.Medicine, error) {
	file, err := os.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog %s: %w", p.path, err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("Failed to close catalog file", "error", err)
		}
	}()

	reader, err := decodeReader(file, p.encoding)
	if err != nil {
		return nil, err
	}

	medicines, err := readCatalog(reader)
	if err != nil {
		return nil, err
	}
	if len(medicines) == 0 {
		return nil, fmt.Errorf("catalog %s contains no medicines", p.path)
	}

	logging.Info("Catalog parsed", "path", p.path, "medicines", len(medicines))
	return medicines, nil
}
