package scraper

import (
	"fmt"

	"skyscraper-platform/internal/models"
)

// TrimOptions controls which scraped towers are kept
type TrimOptions struct {
	// HeightFloor drops towers lower than this; 0 keeps every height
	HeightFloor float64
}

// Trim filters scraped towers. Towers without an architectural height are
// always dropped since they cannot be rated.
func Trim(towers []models.RawTower, opts TrimOptions) ([]models.RawTower, error) {
	kept := make([]models.RawTower, 0, len(towers))
	for i, tower := range towers {
		height, err := tower.HeightValue()
		if err != nil {
			return nil, fmt.Errorf("tower %d: %w", i, err)
		}
		if height == nil {
			continue
		}
		if opts.HeightFloor > 0 && *height < opts.HeightFloor {
			continue
		}
		kept = append(kept, tower)
	}
	return kept, nil
}

// AtLeast raises the height floor to floor when it is lower, reporting whether it did
func (o TrimOptions) AtLeast(floor float64) (TrimOptions, bool) {
	if o.HeightFloor >= floor {
		return o, false
	}
	o.HeightFloor = floor
	return o, true
}
