package ranking

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"skyscraper-platform/internal/config"
)

// CountryName turns a country slug such as "united-arab-emirates" into a display
// name and applies the configured aliases.
func CountryName(slug string, settings *config.RankingSettings) string {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return ""
	}
	name := cases.Title(language.English).String(strings.ReplaceAll(slug, "-", " "))
	if settings == nil {
		return name
	}
	return settings.CountryAlias(name)
}

// RegionOf resolves the region of a country through the ordered region table.
// Countries listed nowhere have no region.
func RegionOf(country string, settings *config.RankingSettings) *string {
	if country == "" || settings == nil {
		return nil
	}
	region, ok := settings.RegionForCountry(country)
	if !ok {
		return nil
	}
	name := region.Name
	return &name
}
