package ranking

import (
	"fmt"
	"math"

	"skyscraper-platform/internal/config"
)

// Tier is one of six ordered height bands, TierI lowest
type Tier int

const (
	TierI Tier = iota + 1
	TierII
	TierIII
	TierIV
	TierV
	TierVI
)

var tierNames = [config.TierCount]string{"I", "II", "III", "IV", "V", "VI"}

// String returns the roman numeral of the tier
func (t Tier) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Tier(%d)", int(t))
	}
	return tierNames[t.index()]
}

// Valid reports whether t is one of the six tiers
func (t Tier) Valid() bool {
	return t >= TierI && t <= TierVI
}

func (t Tier) index() int {
	return int(t) - 1
}

// Tiers lists every tier in ascending order
func Tiers() []Tier {
	return []Tier{TierI, TierII, TierIII, TierIV, TierV, TierVI}
}

// TierTable holds the lower bound and weight of every tier.
// Build it with NewTierTable; the zero value classifies everything as TierVI.
type TierTable struct {
	bounds  [config.TierCount]float64
	weights [config.TierCount]int
}

// NewTierTable builds a table from six specs with strictly ascending lower bounds
func NewTierTable(specs []config.TierSpec) (TierTable, error) {
	var table TierTable
	if len(specs) != config.TierCount {
		return table, fmt.Errorf("tier table needs %d entries, got %d", config.TierCount, len(specs))
	}
	for i, spec := range specs {
		if math.IsNaN(spec.LowerBound) || math.IsInf(spec.LowerBound, 0) {
			return table, fmt.Errorf("tier %s has a non-finite lower bound", tierNames[i])
		}
		if i > 0 && spec.LowerBound <= specs[i-1].LowerBound {
			return table, fmt.Errorf("tier %s lower bound %g is not above tier %s (%g)",
				tierNames[i], spec.LowerBound, tierNames[i-1], specs[i-1].LowerBound)
		}
		table.bounds[i] = spec.LowerBound
		table.weights[i] = spec.Weight
	}
	return table, nil
}

// LowerBound is the inclusive lower height bound of the tier
func (tt TierTable) LowerBound(t Tier) float64 {
	return tt.bounds[t.index()]
}

// UpperBound is the exclusive upper bound; the top tier has none
func (tt TierTable) UpperBound(t Tier) (float64, bool) {
	if t == TierVI {
		return 0, false
	}
	return tt.bounds[t.index()+1], true
}

// Weight is the number of points a tower of this tier scores
func (tt TierTable) Weight(t Tier) int {
	return tt.weights[t.index()]
}

// Floor is the lowest height any tier accepts
func (tt TierTable) Floor() float64 {
	return tt.bounds[0]
}

// Classify returns the greatest tier whose lower bound is <= height.
// Heights under the TierI bound are an ingestion fault and yield a DataRangeError.
func Classify(height float64, table TierTable) (Tier, error) {
	if math.IsNaN(height) || height < table.bounds[0] {
		return 0, &DataRangeError{Height: &height, Floor: table.bounds[0]}
	}
	for i := config.TierCount - 1; i > 0; i-- {
		if height >= table.bounds[i] {
			return Tier(i + 1), nil
		}
	}
	return TierI, nil
}
