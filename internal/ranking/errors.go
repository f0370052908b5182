package ranking

import "fmt"

// DataRangeError reports a tower that fits no tier: its height is missing or
// below the lowest bound. Such a tower should have been dropped at ingestion.
type DataRangeError struct {
	Tower  string
	Height *float64
	Floor  float64
}

func (e *DataRangeError) Error() string {
	name := e.Tower
	if name == "" {
		name = "unknown tower"
	}
	if e.Height == nil {
		return fmt.Sprintf("%s has no height and cannot be tiered", name)
	}
	return fmt.Sprintf("unexpected height %g for %s (lower than %g)", *e.Height, name, e.Floor)
}

// IsTransient returns false, the input data has to be fixed
func (e *DataRangeError) IsTransient() bool {
	return false
}

// InvalidRegionError reports a region name missing from the region table
type InvalidRegionError struct {
	Name string
}

func (e *InvalidRegionError) Error() string {
	return fmt.Sprintf("invalid region: %q", e.Name)
}

func (e *InvalidRegionError) IsTransient() bool {
	return false
}
