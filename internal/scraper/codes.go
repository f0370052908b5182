package scraper

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	citySelectID        = "base_city"
	heightRangeSelectID = "base_height_range"

	// DefaultPage is the saved search page the codes are read from
	DefaultPage = "default.html"

	allOption = "All"
)

// Codes maps the labels of the search form to the values the site expects in its URL
type Codes struct {
	Cities       []Option
	HeightRanges []Option
}

// LoadCodes reads the city and height-range options from a saved search page
func LoadCodes(inputDir string) (*Codes, error) {
	path := filepath.Join(inputDir, DefaultPage)
	page, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	cities, err := ParseOptions(bytes.NewReader(page), citySelectID)
	if err != nil {
		return nil, err
	}
	ranges, err := ParseOptions(bytes.NewReader(page), heightRangeSelectID)
	if err != nil {
		return nil, err
	}
	return &Codes{Cities: cities, HeightRanges: ranges}, nil
}

// CityNames lists the selectable cities in page order, without the "All" entry
func (c *Codes) CityNames() []string {
	names := make([]string, 0, len(c.Cities))
	for _, o := range c.Cities {
		if o.Label == allOption {
			continue
		}
		names = append(names, o.Label)
	}
	return names
}

func (c *Codes) CityCode(city string) (string, bool) {
	return lookup(c.Cities, city)
}

func (c *Codes) HeightRangeCode(label string) (string, bool) {
	return lookup(c.HeightRanges, label)
}

func lookup(options []Option, label string) (string, bool) {
	for _, o := range options {
		if strings.EqualFold(o.Label, label) {
			return o.Value, true
		}
	}
	return "", false
}
