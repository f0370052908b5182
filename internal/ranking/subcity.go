package ranking

import (
	"strings"

	"skyscraper-platform/internal/config"
)

// MergeSubCities folds every configured sub-city into its parent and returns
// the remaining cities. When the parent was not loaded it is created from the
// first sub-city's country and region. Input order is kept; created parents
// are appended at the end.
func MergeSubCities(cities []*City, settings *config.RankingSettings, table TierTable) ([]*City, error) {
	if settings == nil || len(settings.SubCities) == 0 {
		return cities, nil
	}

	byName := make(map[string]*City, len(cities))
	for _, c := range cities {
		byName[strings.ToLower(c.Name)] = c
	}

	var parents []string
	groups := make(map[string][]*City)
	merged := make([]*City, 0, len(cities))
	for _, c := range cities {
		parent, ok := settings.ParentCity(c.Name)
		if !ok {
			merged = append(merged, c)
			continue
		}
		key := strings.ToLower(parent)
		if _, seen := groups[key]; !seen {
			parents = append(parents, parent)
		}
		groups[key] = append(groups[key], c)
	}

	for _, parentName := range parents {
		subs := groups[strings.ToLower(parentName)]
		parent, ok := byName[strings.ToLower(parentName)]
		if !ok {
			first := subs[0]
			created, err := NewCity(parentName, first.Country, first.Region, first.Timestamp, nil, table)
			if err != nil {
				return nil, err
			}
			parent = created
			merged = append(merged, parent)
		}
		if err := parent.Merge(subs...); err != nil {
			return nil, err
		}
	}

	return merged, nil
}
