package handlers

import (
	"skyscraper-platform/internal/models"
	"skyscraper-platform/internal/ranking"
)

// SummaryView is the rating block shared by every ranking level
type SummaryView struct {
	Rating             int     `json:"rating"`
	UncompletedRating  int     `json:"uncompleted_rating"`
	UncompletedPercent float64 `json:"uncompleted_percent"`
	HasUncompleted     bool    `json:"has_uncompleted"`
	TowerCount         int     `json:"tower_count"`
	Completed          int     `json:"completed"`
	ArchToppedOut      int     `json:"arch_topped_out"`
	StructToppedOut    int     `json:"struct_topped_out"`
	UnderConstruction  int     `json:"under_construction"`
}

// TowerView is a normalized tower as returned by the API
type TowerView struct {
	Name   string   `json:"name"`
	Height *float64 `json:"height"`
	Floors *int     `json:"floors"`
	Status *string  `json:"status"`
	Start  *int     `json:"start"`
	Year   *int     `json:"completed_year"`
	Rank   *int     `json:"rank"`
}

type CityView struct {
	Name      string         `json:"name"`
	Country   string         `json:"country"`
	Region    *string        `json:"region"`
	Timestamp string         `json:"timestamp"`
	SubCities []string       `json:"subcities,omitempty"`
	Tiers     map[string]int `json:"tiers"`
	SummaryView
	Towers []TowerView `json:"towers,omitempty"`
}

type CountryView struct {
	Name      string     `json:"name"`
	Region    *string    `json:"region"`
	CityCount int        `json:"city_count"`
	Cities    []CityView `json:"cities"`
	SummaryView
}

type RegionView struct {
	Name      string        `json:"name"`
	Code      string        `json:"code"`
	CityCount int           `json:"city_count"`
	Countries []CountryView `json:"countries"`
	SummaryView
}

type WorldView struct {
	CityCount  int          `json:"city_count"`
	Regions    []RegionView `json:"regions"`
	Unregioned []CityView   `json:"unregioned"`
	SummaryView
}

// rollup is satisfied by cities and by the aggregates embedding ranking.Summary
type rollup interface {
	Rating() int
	UncompletedRating() int
	UncompletedPercent() float64
	HasUncompleted() bool
	Towers() []*models.Tower
	Completed() []*models.Tower
	ArchToppedOut() []*models.Tower
	StructToppedOut() []*models.Tower
	UnderConstruction() []*models.Tower
}

func newSummaryView(r rollup) SummaryView {
	return SummaryView{
		Rating:             r.Rating(),
		UncompletedRating:  r.UncompletedRating(),
		UncompletedPercent: r.UncompletedPercent(),
		HasUncompleted:     r.HasUncompleted(),
		TowerCount:         len(r.Towers()),
		Completed:          len(r.Completed()),
		ArchToppedOut:      len(r.ArchToppedOut()),
		StructToppedOut:    len(r.StructToppedOut()),
		UnderConstruction:  len(r.UnderConstruction()),
	}
}

func newTowerView(t *models.Tower) TowerView {
	view := TowerView{
		Name:   t.DisplayName(),
		Height: t.Height,
		Floors: t.Floors,
		Start:  t.Start,
		Year:   t.Completed,
		Rank:   t.Rank,
	}
	if t.Status != nil {
		status := string(*t.Status)
		view.Status = &status
	}
	return view
}

// newCityView renders a city; withTowers adds the tower list
func newCityView(c *ranking.City, withTowers bool) CityView {
	counts := c.TierCounts()
	tiers := make(map[string]int, len(ranking.Tiers()))
	for _, t := range ranking.Tiers() {
		tiers[t.String()] = counts.Count(t)
	}

	view := CityView{
		Name:        c.Name,
		Country:     c.Country,
		Region:      c.Region,
		Timestamp:   c.Timestamp,
		SubCities:   c.SubCities(),
		Tiers:       tiers,
		SummaryView: newSummaryView(c),
	}
	if withTowers {
		view.Towers = make([]TowerView, 0, len(c.Towers()))
		for _, t := range c.Towers() {
			view.Towers = append(view.Towers, newTowerView(t))
		}
	}
	return view
}

func newCityViews(cities []*ranking.City) []CityView {
	views := make([]CityView, 0, len(cities))
	for _, c := range cities {
		views = append(views, newCityView(c, false))
	}
	return views
}

func newCountryView(c *ranking.Country) CountryView {
	return CountryView{
		Name:        c.Name,
		Region:      c.Region,
		CityCount:   c.CityCount(),
		Cities:      newCityViews(c.Cities),
		SummaryView: newSummaryView(c),
	}
}

func newRegionView(r *ranking.Region) RegionView {
	countries := make([]CountryView, 0, len(r.Countries))
	for _, c := range r.Countries {
		countries = append(countries, newCountryView(c))
	}
	return RegionView{
		Name:        r.Name,
		Code:        r.Code,
		CityCount:   r.CityCount(),
		Countries:   countries,
		SummaryView: newSummaryView(r),
	}
}

func newWorldView(w *ranking.World) WorldView {
	regions := make([]RegionView, 0, len(w.Regions))
	for _, r := range w.Regions {
		regions = append(regions, newRegionView(r))
	}
	return WorldView{
		CityCount:   w.CityCount(),
		Regions:     regions,
		Unregioned:  newCityViews(w.Unregioned),
		SummaryView: newSummaryView(w),
	}
}
