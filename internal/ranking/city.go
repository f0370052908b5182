package ranking

import (
	"fmt"

	"skyscraper-platform/internal/config"
	"skyscraper-platform/internal/models"
)

// City is the ranking unit built from one city document.
// Rating and uncompleted rating are derived from the tower set and are
// recomputed every time the set changes.
type City struct {
	Name      string
	Country   string
	Region    *string
	Timestamp string

	table             TierTable
	towers            []*models.Tower
	completed         []*models.Tower
	archToppedOut     []*models.Tower
	structToppedOut   []*models.Tower
	underConstruction []*models.Tower
	counts            TierCounts
	rating            int
	uncompletedRating int
	subcities         []string
}

// BuildCity normalizes a stored document into a City. The city name comes from
// the first tower record, falling back to name when the record carries none.
func BuildCity(name string, doc *models.CityDocument, settings *config.RankingSettings, table TierTable) (*City, error) {
	if doc == nil || len(doc.Towers) == 0 {
		return nil, &models.ValidationError{
			Field:   "towers",
			Value:   name,
			Message: "city document has no towers",
		}
	}

	towers, err := doc.NormalizeTowers()
	if err != nil {
		return nil, fmt.Errorf("city %q: %w", name, err)
	}

	if docName := doc.CityName(); docName != "" {
		name = docName
	}
	country := CountryName(doc.CountrySlug(), settings)

	return NewCity(name, country, RegionOf(country, settings), doc.Timestamp, towers, table)
}

// NewCity builds a City from already normalized towers
func NewCity(name, country string, region *string, timestamp string, towers []*models.Tower, table TierTable) (*City, error) {
	c := &City{
		Name:      name,
		Country:   country,
		Region:    region,
		Timestamp: timestamp,
		table:     table,
	}
	if err := c.refresh(append([]*models.Tower(nil), towers...)); err != nil {
		return nil, fmt.Errorf("city %q: %w", name, err)
	}
	return c, nil
}

// refresh replaces the tower set and recomputes every derived field.
// On error the city is left untouched.
func (c *City) refresh(towers []*models.Tower) error {
	var completed, arch, structural, uc []*models.Tower
	for _, t := range towers {
		if t.Status == nil {
			continue
		}
		switch *t.Status {
		case models.StatusCompleted:
			completed = append(completed, t)
		case models.StatusArchToppedOut:
			arch = append(arch, t)
		case models.StatusStructToppedOut:
			structural = append(structural, t)
		case models.StatusUnderConstruction:
			uc = append(uc, t)
		}
	}

	counts, err := CountTiers(towers, c.table)
	if err != nil {
		return err
	}
	uncompletedRating, err := Rate(joinTowers(arch, structural, uc), c.table)
	if err != nil {
		return err
	}

	c.towers = towers
	c.completed = completed
	c.archToppedOut = arch
	c.structToppedOut = structural
	c.underConstruction = uc
	c.counts = counts
	c.rating = counts.Rating(c.table)
	c.uncompletedRating = uncompletedRating
	return nil
}

// Merge appends the towers of every sub-city and recomputes the derived fields.
// Merging the same sub-city twice counts its towers twice.
func (c *City) Merge(subcities ...*City) error {
	towers := append([]*models.Tower(nil), c.towers...)
	names := append([]string(nil), c.subcities...)
	for _, sub := range subcities {
		towers = append(towers, sub.towers...)
		names = append(names, sub.Name)
	}
	if err := c.refresh(towers); err != nil {
		return fmt.Errorf("merge into %q: %w", c.Name, err)
	}
	c.subcities = names
	return nil
}

// Rating is the weighted tier score of every tower in the city
func (c *City) Rating() int { return c.rating }

// UncompletedRating is the score of topped-out and under-construction towers
func (c *City) UncompletedRating() int { return c.uncompletedRating }

// UncompletedPercent is UncompletedRating as a share of Rating; 0 when Rating is 0
func (c *City) UncompletedPercent() float64 {
	return percentOf(c.uncompletedRating, c.rating)
}

// HasUncompleted reports whether the city has any tower still being built
func (c *City) HasUncompleted() bool {
	return len(c.archToppedOut)+len(c.structToppedOut)+len(c.underConstruction) > 0
}

func (c *City) TierCounts() TierCounts { return c.counts }

func (c *City) Towers() []*models.Tower { return c.towers }

func (c *City) Completed() []*models.Tower { return c.completed }

func (c *City) ArchToppedOut() []*models.Tower { return c.archToppedOut }

func (c *City) StructToppedOut() []*models.Tower { return c.structToppedOut }

func (c *City) UnderConstruction() []*models.Tower { return c.underConstruction }

// Uncompleted lists architecturally topped out, structurally topped out and
// under construction towers, in that order
func (c *City) Uncompleted() []*models.Tower {
	return joinTowers(c.archToppedOut, c.structToppedOut, c.underConstruction)
}

// SubCities names the cities merged into this one
func (c *City) SubCities() []string { return c.subcities }

// RegionName returns the region or "" for an unregioned city
func (c *City) RegionName() string {
	if c.Region == nil {
		return ""
	}
	return *c.Region
}

func joinTowers(lists ...[]*models.Tower) []*models.Tower {
	n := 0
	for _, l := range lists {
		n += len(l)
	}
	joined := make([]*models.Tower, 0, n)
	for _, l := range lists {
		joined = append(joined, l...)
	}
	return joined
}
