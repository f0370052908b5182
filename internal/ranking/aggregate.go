package ranking

import (
	"cmp"
	"slices"

	"skyscraper-platform/internal/config"
	"skyscraper-platform/internal/models"
)

// Summary is the roll-up shared by countries, regions and the world:
// the union of member towers and subsets, plus the derived ratings.
// Towers are shared with the member cities, not copied.
type Summary struct {
	towers            []*models.Tower
	completed         []*models.Tower
	archToppedOut     []*models.Tower
	structToppedOut   []*models.Tower
	underConstruction []*models.Tower
	cityCount         int
	rating            int
	uncompletedRating int
}

func summarize(cities []*City, table TierTable) (Summary, error) {
	var s Summary
	for _, c := range cities {
		s.towers = append(s.towers, c.towers...)
		s.completed = append(s.completed, c.completed...)
		s.archToppedOut = append(s.archToppedOut, c.archToppedOut...)
		s.structToppedOut = append(s.structToppedOut, c.structToppedOut...)
		s.underConstruction = append(s.underConstruction, c.underConstruction...)
		s.rating += c.Rating()
	}
	s.cityCount = len(cities)

	uncompleted, err := Rate(s.Uncompleted(), table)
	if err != nil {
		return Summary{}, err
	}
	s.uncompletedRating = uncompleted
	return s, nil
}

// Rating is the sum of the member city ratings
func (s *Summary) Rating() int { return s.rating }

func (s *Summary) UncompletedRating() int { return s.uncompletedRating }

// UncompletedPercent is 0 when the rating is 0
func (s *Summary) UncompletedPercent() float64 {
	return percentOf(s.uncompletedRating, s.rating)
}

func (s *Summary) HasUncompleted() bool {
	return len(s.archToppedOut)+len(s.structToppedOut)+len(s.underConstruction) > 0
}

func (s *Summary) CityCount() int { return s.cityCount }

func (s *Summary) Towers() []*models.Tower { return s.towers }

func (s *Summary) Completed() []*models.Tower { return s.completed }

func (s *Summary) ArchToppedOut() []*models.Tower { return s.archToppedOut }

func (s *Summary) StructToppedOut() []*models.Tower { return s.structToppedOut }

func (s *Summary) UnderConstruction() []*models.Tower { return s.underConstruction }

func (s *Summary) Uncompleted() []*models.Tower {
	return joinTowers(s.archToppedOut, s.structToppedOut, s.underConstruction)
}

// Country groups the cities of one country
type Country struct {
	Name   string
	Region *string
	Cities []*City
	Summary
}

// BuildCountry aggregates cities that share a country. The region is taken
// from the first city; cities are sorted by rating, then name.
func BuildCountry(name string, cities []*City, table TierTable) (*Country, error) {
	summary, err := summarize(cities, table)
	if err != nil {
		return nil, err
	}
	country := &Country{
		Name:    name,
		Cities:  SortCities(cities),
		Summary: summary,
	}
	if len(cities) > 0 {
		country.Region = cities[0].Region
	}
	return country, nil
}

// Region groups the countries of one entry of the region table
type Region struct {
	Name      string
	Code      string
	Countries []*Country
	Summary
}

// BuildRegion aggregates the given cities under a configured region. The name
// may be the display name or the code; unknown names are an InvalidRegionError.
func BuildRegion(name string, cities []*City, settings *config.RankingSettings, table TierTable) (*Region, error) {
	spec, ok := settings.RegionByName(name)
	if !ok {
		return nil, &InvalidRegionError{Name: name}
	}

	countries, err := buildCountries(cities, table)
	if err != nil {
		return nil, err
	}
	summary, err := summarize(cities, table)
	if err != nil {
		return nil, err
	}
	return &Region{
		Name:      spec.Name,
		Code:      spec.Code,
		Countries: countries,
		Summary:   summary,
	}, nil
}

// World is the top of the hierarchy. Cities whose country matches no region
// count towards the totals and are listed under Unregioned.
type World struct {
	Regions    []*Region
	Unregioned []*City
	Summary
}

// BuildWorld partitions cities by region and aggregates everything
func BuildWorld(cities []*City, settings *config.RankingSettings, table TierTable) (*World, error) {
	var order []string
	byRegion := make(map[string][]*City)
	var unregioned []*City
	for _, c := range cities {
		if c.Region == nil {
			unregioned = append(unregioned, c)
			continue
		}
		if _, seen := byRegion[*c.Region]; !seen {
			order = append(order, *c.Region)
		}
		byRegion[*c.Region] = append(byRegion[*c.Region], c)
	}

	regions := make([]*Region, 0, len(order))
	for _, name := range order {
		region, err := BuildRegion(name, byRegion[name], settings, table)
		if err != nil {
			return nil, err
		}
		regions = append(regions, region)
	}
	sortByRating(regions, func(r *Region) (int, string) { return r.Rating(), r.Name })

	summary, err := summarize(cities, table)
	if err != nil {
		return nil, err
	}
	return &World{
		Regions:    regions,
		Unregioned: SortCities(unregioned),
		Summary:    summary,
	}, nil
}

// Cities returns every city of the region, best rated first
func (r *Region) Cities() []*City {
	var cities []*City
	for _, country := range r.Countries {
		cities = append(cities, country.Cities...)
	}
	return SortCities(cities)
}

// Countries returns every country of the world, best rated first
func (w *World) Countries() []*Country {
	var countries []*Country
	for _, region := range w.Regions {
		countries = append(countries, region.Countries...)
	}
	sortByRating(countries, func(c *Country) (int, string) { return c.Rating(), c.Name })
	return countries
}

func buildCountries(cities []*City, table TierTable) ([]*Country, error) {
	var order []string
	byCountry := make(map[string][]*City)
	for _, c := range cities {
		if _, seen := byCountry[c.Country]; !seen {
			order = append(order, c.Country)
		}
		byCountry[c.Country] = append(byCountry[c.Country], c)
	}

	countries := make([]*Country, 0, len(order))
	for _, name := range order {
		country, err := BuildCountry(name, byCountry[name], table)
		if err != nil {
			return nil, err
		}
		countries = append(countries, country)
	}
	sortByRating(countries, func(c *Country) (int, string) { return c.Rating(), c.Name })
	return countries, nil
}

// SortCities returns a copy of cities ordered by rating descending, then name ascending
func SortCities(cities []*City) []*City {
	sorted := slices.Clone(cities)
	sortByRating(sorted, func(c *City) (int, string) { return c.Rating(), c.Name })
	return sorted
}

func sortByRating[T any](items []T, key func(T) (int, string)) {
	slices.SortStableFunc(items, func(a, b T) int {
		ra, na := key(a)
		rb, nb := key(b)
		if ra != rb {
			return cmp.Compare(rb, ra)
		}
		return cmp.Compare(na, nb)
	})
}
