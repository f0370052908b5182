package ranking

import (
	"skyscraper-platform/internal/config"
	"skyscraper-platform/internal/models"
)

// TierCounts holds the number of towers per tier, indexed by Tier-1
type TierCounts [config.TierCount]int

// Count returns the number of towers in tier t
func (c TierCounts) Count(t Tier) int {
	return c[t.index()]
}

// Total returns the number of counted towers
func (c TierCounts) Total() int {
	total := 0
	for _, n := range c {
		total += n
	}
	return total
}

// Rating weighs the counts with the table weights
func (c TierCounts) Rating(table TierTable) int {
	rating := 0
	for i, n := range c {
		rating += n * table.weights[i]
	}
	return rating
}

// CountTiers classifies every tower. A tower without a height, or below the
// lowest bound, aborts the count with a DataRangeError.
func CountTiers(towers []*models.Tower, table TierTable) (TierCounts, error) {
	var counts TierCounts
	for _, tower := range towers {
		if tower.Height == nil {
			return TierCounts{}, &DataRangeError{Tower: tower.DisplayName(), Floor: table.Floor()}
		}
		tier, err := Classify(*tower.Height, table)
		if err != nil {
			if rangeErr, ok := err.(*DataRangeError); ok {
				rangeErr.Tower = tower.DisplayName()
			}
			return TierCounts{}, err
		}
		counts[tier.index()]++
	}
	return counts, nil
}

// Rate is the single rating formula used at every level:
// the sum over tiers of towers-in-tier times tier weight.
func Rate(towers []*models.Tower, table TierTable) (int, error) {
	counts, err := CountTiers(towers, table)
	if err != nil {
		return 0, err
	}
	return counts.Rating(table), nil
}

// percentOf returns part*100/whole, or 0 when whole is 0
func percentOf(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return float64(part) * 100 / float64(whole)
}
