package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"skyscraper-platform/internal/ranking"
)

// Export directory layout under the output root
const (
	WorldFile    = "world.txt"
	RegionsDir   = "regions"
	CountriesDir = "countries"
	CitiesDir    = "cities"
)

// ExportResult counts the files written by Export
type ExportResult struct {
	Regions   int
	Countries int
	Cities    int
}

// Export writes the world, every region, every country with cities and every
// city as text files under dir. Each file holds the brief report followed by
// the detailed one.
func (p *Printer) Export(dir string, world *ranking.World, regions []*ranking.Region) (*ExportResult, error) {
	for _, sub := range []string{RegionsDir, CountriesDir, CitiesDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", sub, err)
		}
	}

	result := &ExportResult{}

	if err := p.exportFile(filepath.Join(dir, WorldFile), func(b *strings.Builder, verbose bool) {
		p.writeWorld(b, world, verbose)
	}); err != nil {
		return nil, err
	}

	for _, region := range regions {
		path := filepath.Join(dir, RegionsDir, fileName(region.Name))
		if err := p.exportFile(path, func(b *strings.Builder, verbose bool) {
			p.writeRegion(b, region, verbose)
		}); err != nil {
			return nil, err
		}
		result.Regions++
	}

	countries, err := p.allCountries(world)
	if err != nil {
		return nil, err
	}
	for _, country := range countries {
		path := filepath.Join(dir, CountriesDir, fileName(country.Name))
		if err := p.exportFile(path, func(b *strings.Builder, verbose bool) {
			p.writeCountry(b, country, verbose)
		}); err != nil {
			return nil, err
		}
		result.Countries++
	}

	for _, country := range countries {
		for _, city := range country.Cities {
			path := filepath.Join(dir, CitiesDir, fileName(city.Name))
			if err := p.exportFile(path, func(b *strings.Builder, verbose bool) {
				p.writeCity(b, city, verbose)
			}); err != nil {
				return nil, err
			}
			result.Cities++
		}
	}

	return result, nil
}

// allCountries lists the countries of every region plus the countries of
// cities outside any region
func (p *Printer) allCountries(world *ranking.World) ([]*ranking.Country, error) {
	countries := world.Countries()

	var order []string
	byCountry := make(map[string][]*ranking.City)
	for _, c := range world.Unregioned {
		if _, seen := byCountry[c.Country]; !seen {
			order = append(order, c.Country)
		}
		byCountry[c.Country] = append(byCountry[c.Country], c)
	}
	for _, name := range order {
		country, err := ranking.BuildCountry(name, byCountry[name], p.table)
		if err != nil {
			return nil, err
		}
		countries = append(countries, country)
	}
	return countries, nil
}

func (p *Printer) exportFile(path string, render func(*strings.Builder, bool)) error {
	var b strings.Builder
	p.withDetails(&b, render)
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
