package ranking

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyscraper-platform/internal/config"
	"skyscraper-platform/internal/models"
)

func defaultTable(t *testing.T) TierTable {
	t.Helper()
	table, err := NewTierTable(config.DefaultRankingSettings().RatingsMatrix)
	require.NoError(t, err)
	return table
}

func tower(name string, height float64, status models.Status) *models.Tower {
	return &models.Tower{Name: &name, Height: &height, Status: &status}
}

func towersOf(status models.Status, heights ...float64) []*models.Tower {
	towers := make([]*models.Tower, 0, len(heights))
	for _, h := range heights {
		towers = append(towers, tower("t", h, status))
	}
	return towers
}

func strPtr(s string) *string { return &s }

func mustCity(t *testing.T, name, country string, region *string, towers []*models.Tower) *City {
	t.Helper()
	c, err := NewCity(name, country, region, "2024-Jan-01 00:00:00", towers, defaultTable(t))
	require.NoError(t, err)
	return c
}

func TestNewTierTable(t *testing.T) {
	tests := []struct {
		name    string
		specs   []config.TierSpec
		wantErr string
	}{
		{name: "defaults", specs: config.DefaultRankingSettings().RatingsMatrix},
		{name: "too short", specs: config.DefaultRankingSettings().RatingsMatrix[:5], wantErr: "needs 6 entries"},
		{name: "not ascending", specs: []config.TierSpec{
			{LowerBound: 75, Weight: 1}, {LowerBound: 106, Weight: 2}, {LowerBound: 106, Weight: 4},
			{LowerBound: 211, Weight: 7}, {LowerBound: 298, Weight: 12}, {LowerBound: 421, Weight: 20},
		}, wantErr: "not above"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTierTable(tt.specs)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestClassify(t *testing.T) {
	table := defaultTable(t)

	tests := []struct {
		height float64
		want   Tier
	}{
		{75, TierI},
		{105.9, TierI},
		{106, TierII},
		{149.99, TierII},
		{150, TierIII},
		{211, TierIV},
		{297, TierIV},
		{298, TierV},
		{420.9, TierV},
		{421, TierVI},
		{828, TierVI},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			got, err := Classify(tt.height, table)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got, "height %v", tt.height)
		})
	}

	t.Run("below the lowest bound", func(t *testing.T) {
		_, err := Classify(74.9, table)
		var rangeErr *DataRangeError
		require.ErrorAs(t, err, &rangeErr)
		assert.Equal(t, 74.9, *rangeErr.Height)
		assert.Equal(t, 75.0, rangeErr.Floor)
		assert.False(t, rangeErr.IsTransient())
	})
}

func TestClassify_TiersAreContiguous(t *testing.T) {
	table := defaultTable(t)
	previous := TierI
	for h := 75.0; h < 1000; h += 0.5 {
		tier, err := Classify(h, table)
		require.NoError(t, err)
		require.True(t, tier.Valid())
		assert.GreaterOrEqual(t, tier, previous, "tiers must not decrease with height")
		assert.LessOrEqual(t, int(tier-previous), 1, "no tier may be skipped")
		assert.GreaterOrEqual(t, h, table.LowerBound(tier))
		if upper, ok := table.UpperBound(tier); ok {
			assert.Less(t, h, upper)
		}
		previous = tier
	}
	assert.Equal(t, TierVI, previous)
}

func TestTierString(t *testing.T) {
	var names []string
	for _, tier := range Tiers() {
		names = append(names, tier.String())
	}
	assert.Equal(t, []string{"I", "II", "III", "IV", "V", "VI"}, names)
	assert.Equal(t, "Tier(0)", Tier(0).String())
}

func TestRate(t *testing.T) {
	table := defaultTable(t)

	t.Run("empty", func(t *testing.T) {
		rating, err := Rate(nil, table)
		require.NoError(t, err)
		assert.Zero(t, rating)
	})

	t.Run("one tower per tier", func(t *testing.T) {
		towers := towersOf(models.StatusCompleted, 80, 110, 160, 220, 500)
		counts, err := CountTiers(towers, table)
		require.NoError(t, err)
		assert.Equal(t, TierCounts{1, 1, 1, 1, 0, 1}, counts)
		assert.Equal(t, 5, counts.Total())

		rating, err := Rate(towers, table)
		require.NoError(t, err)
		assert.Equal(t, 1+2+4+7+20, rating)
	})

	t.Run("order independent", func(t *testing.T) {
		towers := towersOf(models.StatusCompleted, 500, 80, 300, 110, 80)
		reversed := make([]*models.Tower, len(towers))
		for i, tw := range towers {
			reversed[len(towers)-1-i] = tw
		}
		a, err := Rate(towers, table)
		require.NoError(t, err)
		b, err := Rate(reversed, table)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})

	t.Run("tower without height", func(t *testing.T) {
		name := "Mystery"
		towers := append(towersOf(models.StatusCompleted, 100), &models.Tower{Name: &name})
		_, err := Rate(towers, table)
		var rangeErr *DataRangeError
		require.ErrorAs(t, err, &rangeErr)
		assert.Equal(t, "Mystery", rangeErr.Tower)
		assert.Nil(t, rangeErr.Height)
	})

	t.Run("tower under the floor aborts", func(t *testing.T) {
		_, err := Rate(towersOf(models.StatusCompleted, 300, 50), table)
		var rangeErr *DataRangeError
		require.ErrorAs(t, err, &rangeErr)
		assert.Contains(t, err.Error(), "lower than 75")
	})
}

func TestCountryName(t *testing.T) {
	settings := config.DefaultRankingSettings()

	tests := []struct {
		slug string
		want string
	}{
		{"united-arab-emirates", "United Arab Emirates"},
		{"china", "China"},
		{"lao-people's-democratic-republic", "Laos"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			assert.Equal(t, tt.want, CountryName(tt.slug, settings))
		})
	}

	region := RegionOf("United Arab Emirates", settings)
	require.NotNil(t, region)
	assert.Equal(t, "Middle East", *region)
	assert.Nil(t, RegionOf("Atlantis", settings))
	assert.Nil(t, RegionOf("", settings))
}

func TestBuildCity(t *testing.T) {
	settings := config.DefaultRankingSettings()
	table := defaultTable(t)

	raw := func(name string, height interface{}, status string) models.RawTower {
		return models.RawTower{
			"name":                name,
			"city":                "Dubai",
			"country_slug":        "united-arab-emirates",
			"height_architecture": height,
			"status":              status,
		}
	}

	tests := []struct {
		name        string
		doc         *models.CityDocument
		wantErr     bool
		checkValues func(*testing.T, *City)
	}{
		{
			name: "end to end",
			doc: &models.CityDocument{Timestamp: "2024-Mar-05 10:11:12", Towers: []models.RawTower{
				raw("A", "80", "COM"),
				raw("B", "110", "UC"),
				raw("C", 160.0, "COM"),
				raw("D", "220", "STO"),
				raw("E", "500", "UCT"),
			}},
			checkValues: func(t *testing.T, c *City) {
				assert.Equal(t, "Dubai", c.Name)
				assert.Equal(t, "United Arab Emirates", c.Country)
				require.NotNil(t, c.Region)
				assert.Equal(t, "Middle East", *c.Region)
				assert.Equal(t, "2024-Mar-05 10:11:12", c.Timestamp)
				assert.Equal(t, 34, c.Rating())
				assert.Equal(t, TierCounts{1, 1, 1, 1, 0, 1}, c.TierCounts())
				assert.Len(t, c.Completed(), 2)
				assert.Len(t, c.ArchToppedOut(), 1)
				assert.Len(t, c.StructToppedOut(), 1)
				assert.Len(t, c.UnderConstruction(), 1)
				assert.Equal(t, 2+7+20, c.UncompletedRating())
				assert.InDelta(t, 29.0*100/34.0, c.UncompletedPercent(), 1e-9)
				assert.True(t, c.HasUncompleted())
			},
		},
		{
			name: "sentinel status belongs to no subset",
			doc: &models.CityDocument{Towers: []models.RawTower{
				raw("A", "100", "-"),
				raw("B", "100", "PRO"),
			}},
			checkValues: func(t *testing.T, c *City) {
				assert.Len(t, c.Towers(), 2)
				assert.Empty(t, c.Completed())
				assert.Empty(t, c.Uncompleted())
				assert.Equal(t, 2, c.Rating())
			},
		},
		{
			name: "unknown country has no region",
			doc: &models.CityDocument{Towers: []models.RawTower{
				{"city": "Nowhere", "country_slug": "atlantis", "height_architecture": "90", "status": "COM"},
			}},
			checkValues: func(t *testing.T, c *City) {
				assert.Equal(t, "Atlantis", c.Country)
				assert.Nil(t, c.Region)
				assert.Equal(t, "", c.RegionName())
			},
		},
		{
			name: "name falls back to the document name",
			doc: &models.CityDocument{Towers: []models.RawTower{
				{"height_architecture": "90", "status": "COM"},
			}},
			checkValues: func(t *testing.T, c *City) {
				assert.Equal(t, "Fallback", c.Name)
				assert.Equal(t, "", c.Country)
			},
		},
		{
			name:    "empty document",
			doc:     &models.CityDocument{Timestamp: "x"},
			wantErr: true,
		},
		{
			name: "heightless tower",
			doc: &models.CityDocument{Towers: []models.RawTower{
				raw("A", "-", "COM"),
			}},
			wantErr: true,
		},
		{
			name: "malformed height",
			doc: &models.CityDocument{Towers: []models.RawTower{
				raw("A", "tall", "COM"),
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			city, err := BuildCity("Fallback", tt.doc, settings, table)
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, city)
				return
			}
			require.NoError(t, err)
			tt.checkValues(t, city)
		})
	}
}

func TestBuildCity_ErrorKinds(t *testing.T) {
	settings := config.DefaultRankingSettings()
	table := defaultTable(t)

	_, err := BuildCity("Empty", &models.CityDocument{}, settings, table)
	var validationErr *models.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Equal(t, "towers", validationErr.Field)

	_, err = BuildCity("Low", &models.CityDocument{Towers: []models.RawTower{
		{"city": "Low", "height_architecture": 40.0},
	}}, settings, table)
	var rangeErr *DataRangeError
	require.ErrorAs(t, err, &rangeErr)
}

func TestCity_ZeroRatingPolicy(t *testing.T) {
	t.Run("no towers at all", func(t *testing.T) {
		c := mustCity(t, "Empty", "", nil, nil)
		assert.Zero(t, c.Rating())
		assert.Zero(t, c.UncompletedPercent())
		assert.False(t, c.HasUncompleted())
	})

	t.Run("zero weights", func(t *testing.T) {
		specs := config.DefaultRankingSettings().RatingsMatrix
		for i := range specs {
			specs[i].Weight = 0
		}
		table, err := NewTierTable(specs)
		require.NoError(t, err)

		c, err := NewCity("Flat", "", nil, "", towersOf(models.StatusUnderConstruction, 100, 200), table)
		require.NoError(t, err)
		assert.Zero(t, c.Rating())
		assert.Zero(t, c.UncompletedPercent())
		assert.True(t, c.HasUncompleted(), "towers exist even though they score nothing")
	})

	t.Run("everything completed", func(t *testing.T) {
		c := mustCity(t, "Done", "", nil, towersOf(models.StatusCompleted, 100, 200))
		assert.Equal(t, 5, c.Rating())
		assert.Zero(t, c.UncompletedPercent())
		assert.False(t, c.HasUncompleted())
	})
}

func TestCity_Merge(t *testing.T) {
	table := defaultTable(t)

	parent := mustCity(t, "Miami", "United States", strPtr("North America"),
		append(towersOf(models.StatusCompleted, 430, 300, 250), towersOf(models.StatusUnderConstruction, 160)...))
	sub := mustCity(t, "Sunny Isles Beach", "United States", strPtr("North America"),
		towersOf(models.StatusUnderConstruction, 200, 110))

	union := append(append([]*models.Tower(nil), parent.Towers()...), sub.Towers()...)
	want, err := Rate(union, table)
	require.NoError(t, err)

	require.NoError(t, parent.Merge(sub))
	assert.Equal(t, want, parent.Rating(), "merged rating is recomputed from the combined towers")
	assert.Len(t, parent.Towers(), 6)
	assert.Len(t, parent.UnderConstruction(), 3)
	assert.Equal(t, []string{"Sunny Isles Beach"}, parent.SubCities())

	wantUncompleted, err := Rate(parent.Uncompleted(), table)
	require.NoError(t, err)
	assert.Equal(t, wantUncompleted, parent.UncompletedRating())
	assert.InDelta(t, float64(wantUncompleted)*100/float64(want), parent.UncompletedPercent(), 1e-9)

	t.Run("merging twice double counts", func(t *testing.T) {
		before := parent.Rating()
		require.NoError(t, parent.Merge(sub))
		assert.Equal(t, before+sub.Rating(), parent.Rating())
		assert.Len(t, parent.Towers(), 8)
	})

	t.Run("failed merge leaves the city untouched", func(t *testing.T) {
		before := parent.Rating()
		count := len(parent.Towers())
		broken := &City{Name: "Broken", table: table, towers: []*models.Tower{{}}}
		require.Error(t, parent.Merge(broken))
		assert.Equal(t, before, parent.Rating())
		assert.Len(t, parent.Towers(), count)
	})
}

func TestMergeSubCities(t *testing.T) {
	settings := config.DefaultRankingSettings()
	table := defaultTable(t)
	na := strPtr("North America")

	nyc := mustCity(t, "New York City", "United States", na, towersOf(models.StatusCompleted, 400))
	jersey := mustCity(t, "Jersey City", "United States", na, towersOf(models.StatusCompleted, 200))
	chicago := mustCity(t, "Chicago", "United States", na, towersOf(models.StatusCompleted, 440))
	beach := mustCity(t, "Miami Beach", "United States", na, towersOf(models.StatusUnderConstruction, 110))
	sunny := mustCity(t, "Sunny Isles Beach", "United States", na, towersOf(models.StatusCompleted, 190))

	merged, err := MergeSubCities([]*City{jersey, nyc, chicago, beach, sunny}, settings, table)
	require.NoError(t, err)

	var names []string
	for _, c := range merged {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"New York City", "Chicago", "Miami"}, names)

	assert.Equal(t, 12+4, nyc.Rating())
	assert.Len(t, nyc.Towers(), 2)

	miami := merged[2]
	assert.Equal(t, "United States", miami.Country)
	assert.Equal(t, na, miami.Region)
	assert.Equal(t, 2+4, miami.Rating())
	assert.Equal(t, []string{"Miami Beach", "Sunny Isles Beach"}, miami.SubCities())

	t.Run("no sub-cities configured", func(t *testing.T) {
		empty := &config.RankingSettings{}
		cities := []*City{chicago}
		got, err := MergeSubCities(cities, empty, table)
		require.NoError(t, err)
		assert.Equal(t, cities, got)
	})
}

func TestBuildCountry(t *testing.T) {
	table := defaultTable(t)
	na := strPtr("North America")

	// ratings 50, 30, 20 built from tier weights
	a := mustCity(t, "Alpha", "Testland", na, append(towersOf(models.StatusCompleted, 500, 500), towersOf(models.StatusUnderConstruction, 106, 106, 106, 106, 106)...))
	b := mustCity(t, "Beta", "Testland", na, towersOf(models.StatusCompleted, 298, 298, 150, 106))
	c := mustCity(t, "Gamma", "Testland", na, towersOf(models.StatusCompleted, 421))
	require.Equal(t, 50, a.Rating())
	require.Equal(t, 30, b.Rating())
	require.Equal(t, 20, c.Rating())

	country, err := BuildCountry("Testland", []*City{c, a, b}, table)
	require.NoError(t, err)

	assert.Equal(t, 100, country.Rating())
	assert.Equal(t, na, country.Region)
	assert.Equal(t, 3, country.CityCount())
	assert.Len(t, country.Towers(), len(a.Towers())+len(b.Towers())+len(c.Towers()))
	assert.Equal(t, []*City{a, b, c}, country.Cities)

	wantUncompleted, err := Rate(a.Uncompleted(), table)
	require.NoError(t, err)
	assert.Equal(t, wantUncompleted, country.UncompletedRating())
	assert.InDelta(t, float64(wantUncompleted), country.UncompletedPercent(), 1e-9)

	t.Run("towers are shared with the cities", func(t *testing.T) {
		assert.Same(t, a.Towers()[0], country.Towers()[len(c.Towers())])
	})

	t.Run("no cities", func(t *testing.T) {
		empty, err := BuildCountry("Nowhere", nil, table)
		require.NoError(t, err)
		assert.Zero(t, empty.Rating())
		assert.Zero(t, empty.UncompletedPercent())
		assert.Nil(t, empty.Region)
	})
}

func TestBuildRegion(t *testing.T) {
	settings := config.DefaultRankingSettings()
	table := defaultTable(t)
	eu := strPtr("Europe")

	// France 60, Germany 100
	paris := mustCity(t, "Paris", "France", eu, towersOf(models.StatusCompleted, 211, 211, 211, 211, 211, 211, 106, 106, 106, 75, 75, 75, 75, 75, 75, 75, 75, 75, 75, 75, 75))
	frankfurt := mustCity(t, "Frankfurt", "Germany", eu, towersOf(models.StatusCompleted, 500, 500, 500, 500, 500))
	require.Equal(t, 60, paris.Rating())
	require.Equal(t, 100, frankfurt.Rating())

	region, err := BuildRegion("europe", []*City{paris, frankfurt}, settings, table)
	require.NoError(t, err)

	assert.Equal(t, "Europe", region.Name)
	assert.Equal(t, "EU", region.Code)
	assert.Equal(t, 160, region.Rating())
	require.Len(t, region.Countries, 2)
	assert.Equal(t, "Germany", region.Countries[0].Name)
	assert.Equal(t, []int{100, 60}, []int{region.Countries[0].Rating(), region.Countries[1].Rating()})
	assert.Equal(t, []*City{frankfurt, paris}, region.Cities())

	t.Run("ties sort by name", func(t *testing.T) {
		x := mustCity(t, "X", "Spain", eu, towersOf(models.StatusCompleted, 106))
		y := mustCity(t, "Y", "Austria", eu, towersOf(models.StatusCompleted, 106))
		r, err := BuildRegion("EU", []*City{x, y}, settings, table)
		require.NoError(t, err)
		assert.Equal(t, "Austria", r.Countries[0].Name)
		assert.Equal(t, "Spain", r.Countries[1].Name)
	})

	t.Run("unknown region", func(t *testing.T) {
		_, err := BuildRegion("Nonexistent", []*City{paris}, settings, table)
		var regionErr *InvalidRegionError
		require.True(t, errors.As(err, &regionErr))
		assert.Equal(t, "Nonexistent", regionErr.Name)
	})
}

func TestBuildWorld(t *testing.T) {
	settings := config.DefaultRankingSettings()
	table := defaultTable(t)

	dubai := mustCity(t, "Dubai", "United Arab Emirates", strPtr("Middle East"), towersOf(models.StatusCompleted, 828, 400))
	london := mustCity(t, "London", "United Kingdom", strPtr("Europe"), towersOf(models.StatusUnderConstruction, 310))
	nowhere := mustCity(t, "Nowhere", "Atlantis", nil, towersOf(models.StatusCompleted, 100))

	world, err := BuildWorld([]*City{london, nowhere, dubai}, settings, table)
	require.NoError(t, err)

	assert.Equal(t, 20+12+12+1, world.Rating())
	assert.Equal(t, 3, world.CityCount())
	require.Len(t, world.Regions, 2)
	assert.Equal(t, "Middle East", world.Regions[0].Name)
	assert.Equal(t, "Europe", world.Regions[1].Name)
	assert.Equal(t, []*City{nowhere}, world.Unregioned)
	assert.Len(t, world.Countries(), 2)
	assert.Equal(t, 12, world.UncompletedRating())
	assert.InDelta(t, 1200.0/45.0, world.UncompletedPercent(), 1e-9)
}
