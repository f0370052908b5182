package models

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// TimestampLayout is the capture-time format stored in city documents
const TimestampLayout = "2006-Jan-02 15:04:05"

// CityDocument is the persisted form of one city: capture time plus raw tower records
type CityDocument struct {
	Timestamp string     `json:"timestamp"`
	Towers    []RawTower `json:"towers"`
}

// NewCityDocument stamps a set of raw towers with the capture time
func NewCityDocument(towers []RawTower, capturedAt time.Time) *CityDocument {
	return &CityDocument{
		Timestamp: capturedAt.Format(TimestampLayout),
		Towers:    towers,
	}
}

// CityName returns the city named by the first tower record, or "" when unknown
func (d *CityDocument) CityName() string {
	if len(d.Towers) == 0 {
		return ""
	}
	if name := d.Towers[0].stringValue("city"); name != nil {
		return *name
	}
	return ""
}

// CountrySlug returns the country slug of the first tower record, or "" when unknown
func (d *CityDocument) CountrySlug() string {
	if len(d.Towers) == 0 {
		return ""
	}
	if slug := d.Towers[0].stringValue("country_slug"); slug != nil {
		return *slug
	}
	return ""
}

// NormalizeTowers converts every raw record, failing on the first malformed one
func (d *CityDocument) NormalizeTowers() ([]*Tower, error) {
	towers := make([]*Tower, 0, len(d.Towers))
	for i, raw := range d.Towers {
		tower, err := raw.ToTower()
		if err != nil {
			return nil, fmt.Errorf("tower %d: %w", i, err)
		}
		towers = append(towers, tower)
	}
	return towers, nil
}

// FileName returns the document file name for a city
func FileName(city string) string {
	return strings.ReplaceAll(city, " ", "_") + ".json"
}

// CityNameFromFile reverses FileName
func CityNameFromFile(path string) string {
	base := filepath.Base(path)
	return strings.ReplaceAll(strings.TrimSuffix(base, filepath.Ext(base)), "_", " ")
}
