package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// TierCount is the number of height tiers in the ratings matrix
const TierCount = 6

// TierSpec is one row of the ratings matrix: inclusive lower height bound and points per tower
type TierSpec struct {
	LowerBound float64 `mapstructure:"lower_bound" json:"lower_bound"`
	Weight     int     `mapstructure:"weight" json:"weight"`
}

// StatusSpec maps a status code to its display name
type StatusSpec struct {
	Code string `mapstructure:"code" json:"code"`
	Name string `mapstructure:"name" json:"name"`
}

// RegionSpec is one region with its display name and member country names
type RegionSpec struct {
	Code      string   `mapstructure:"code" json:"code"`
	Name      string   `mapstructure:"name" json:"name"`
	Countries []string `mapstructure:"countries" json:"countries"`
}

// SubCitySpec folds a satellite city into its parent for reporting
type SubCitySpec struct {
	Name   string `mapstructure:"name" json:"name"`
	Parent string `mapstructure:"parent" json:"parent"`
}

// CountryAlias renames a normalized country to the name used in the region table
type CountryAlias struct {
	From string `mapstructure:"from" json:"from"`
	To   string `mapstructure:"to" json:"to"`
}

// RankingSettings is the static configuration consumed by the rating engine.
// It is built once at process start and passed to whoever needs it.
// Lists are used instead of maps because viper lower-cases map keys.
type RankingSettings struct {
	RatingsMatrix  []TierSpec     `mapstructure:"ratings_matrix" json:"ratings_matrix"`
	Status         []StatusSpec   `mapstructure:"status" json:"status"`
	Regions        []RegionSpec   `mapstructure:"regions" json:"regions"`
	SubCities      []SubCitySpec  `mapstructure:"subcities" json:"subcities"`
	CountryAliases []CountryAlias `mapstructure:"country_aliases" json:"country_aliases"`
}

// LoadRankingSettings reads ranking settings from a json/yaml file.
// A missing file yields the built-in defaults; sections absent from the file keep their defaults.
func LoadRankingSettings(path string) (*RankingSettings, error) {
	defaults := DefaultRankingSettings()

	if path == "" {
		return defaults, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return defaults, nil
	}

	v := viper.New()
	v.SetEnvPrefix("SKYSCRAPER")
	v.AutomaticEnv()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading ranking settings %s: %w", path, err)
	}

	var settings RankingSettings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling ranking settings: %w", err)
	}

	if len(settings.RatingsMatrix) == 0 {
		settings.RatingsMatrix = defaults.RatingsMatrix
	}
	if len(settings.Status) == 0 {
		settings.Status = defaults.Status
	}
	if len(settings.Regions) == 0 {
		settings.Regions = defaults.Regions
	}
	if !v.IsSet("subcities") {
		settings.SubCities = defaults.SubCities
	}
	if !v.IsSet("country_aliases") {
		settings.CountryAliases = defaults.CountryAliases
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ranking settings: %w", err)
	}

	return &settings, nil
}

// Validate checks the ratings matrix shape and the lookup tables for conflicts
func (s *RankingSettings) Validate() error {
	if len(s.RatingsMatrix) != TierCount {
		return fmt.Errorf("ratings matrix must have %d tiers, got %d", TierCount, len(s.RatingsMatrix))
	}
	for i, tier := range s.RatingsMatrix {
		if tier.Weight < 0 {
			return fmt.Errorf("tier %d has negative weight %d", i+1, tier.Weight)
		}
		if i > 0 && tier.LowerBound <= s.RatingsMatrix[i-1].LowerBound {
			return fmt.Errorf("tier lower bounds must be strictly ascending (tier %d: %g <= %g)",
				i+1, tier.LowerBound, s.RatingsMatrix[i-1].LowerBound)
		}
	}

	codes := make(map[string]bool)
	names := make(map[string]bool)
	for _, region := range s.Regions {
		if region.Code == "" || region.Name == "" {
			return fmt.Errorf("region entries need both code and name")
		}
		if codes[region.Code] {
			return fmt.Errorf("duplicate region code: %s", region.Code)
		}
		if names[strings.ToLower(region.Name)] {
			return fmt.Errorf("duplicate region name: %s", region.Name)
		}
		codes[region.Code] = true
		names[strings.ToLower(region.Name)] = true
	}

	parents := make(map[string]string)
	for _, sub := range s.SubCities {
		if sub.Name == "" || sub.Parent == "" {
			return fmt.Errorf("sub-city entries need both name and parent")
		}
		if strings.EqualFold(sub.Name, sub.Parent) {
			return fmt.Errorf("sub-city %q cannot be its own parent", sub.Name)
		}
		if _, dup := parents[strings.ToLower(sub.Name)]; dup {
			return fmt.Errorf("sub-city %q listed twice", sub.Name)
		}
		parents[strings.ToLower(sub.Name)] = sub.Parent
	}
	for _, parent := range parents {
		if _, nested := parents[strings.ToLower(parent)]; nested {
			return fmt.Errorf("parent city %q is itself a sub-city", parent)
		}
	}

	return nil
}

// StatusName returns the display name of a status code, or the code itself when unmapped
func (s *RankingSettings) StatusName(code string) string {
	for _, status := range s.Status {
		if strings.EqualFold(status.Code, code) {
			return status.Name
		}
	}
	return code
}

// RegionForCountry returns the first region listing the country (case-insensitive)
func (s *RankingSettings) RegionForCountry(country string) (*RegionSpec, bool) {
	for i := range s.Regions {
		for _, name := range s.Regions[i].Countries {
			if strings.EqualFold(name, country) {
				return &s.Regions[i], true
			}
		}
	}
	return nil, false
}

// RegionByName finds a region by display name or code (case-insensitive)
func (s *RankingSettings) RegionByName(name string) (*RegionSpec, bool) {
	for i := range s.Regions {
		if strings.EqualFold(s.Regions[i].Name, name) || strings.EqualFold(s.Regions[i].Code, name) {
			return &s.Regions[i], true
		}
	}
	return nil, false
}

// ParentCity returns the parent a sub-city is merged into
func (s *RankingSettings) ParentCity(city string) (string, bool) {
	for _, sub := range s.SubCities {
		if strings.EqualFold(sub.Name, city) {
			return sub.Parent, true
		}
	}
	return "", false
}

// SubCitiesOf lists the configured sub-cities of a parent city
func (s *RankingSettings) SubCitiesOf(parent string) []string {
	var subs []string
	for _, sub := range s.SubCities {
		if strings.EqualFold(sub.Parent, parent) {
			subs = append(subs, sub.Name)
		}
	}
	return subs
}

// CountryAlias returns the aliased name for a country, or the name unchanged
func (s *RankingSettings) CountryAlias(country string) string {
	for _, alias := range s.CountryAliases {
		if strings.EqualFold(alias.From, country) {
			return alias.To
		}
	}
	return country
}

// CountryNames lists every country of every region, in table order
func (s *RankingSettings) CountryNames() []string {
	var names []string
	for _, region := range s.Regions {
		names = append(names, region.Countries...)
	}
	return names
}

// DefaultRankingSettings returns the built-in tables.
// Tier bounds follow 75 m * 1.412^n; weights grow like a points table.
func DefaultRankingSettings() *RankingSettings {
	return &RankingSettings{
		RatingsMatrix: []TierSpec{
			{LowerBound: 75, Weight: 1},
			{LowerBound: 106, Weight: 2},
			{LowerBound: 150, Weight: 4},
			{LowerBound: 211, Weight: 7},
			{LowerBound: 298, Weight: 12},
			{LowerBound: 421, Weight: 20},
		},
		Status: []StatusSpec{
			{Code: "COM", Name: "Completed"},
			{Code: "UCT", Name: "Architecturally Topped Out"},
			{Code: "STO", Name: "Structurally Topped Out"},
			{Code: "UC", Name: "Under Construction"},
		},
		Regions: []RegionSpec{
			{Code: "EU", Name: "Europe", Countries: []string{
				"Albania", "Andorra", "Austria", "Belarus", "Belgium", "Bosnia and Herzegovina", "Bulgaria",
				"Croatia", "Cyprus", "Czech Republic", "Denmark", "Estonia", "Finland", "France", "Germany",
				"Greece", "Hungary", "Iceland", "Ireland", "Italy", "Kosovo", "Latvia", "Liechtenstein",
				"Lithuania", "Luxembourg", "Malta", "Moldova", "Monaco", "Montenegro", "Netherlands",
				"North Macedonia", "Norway", "Poland", "Portugal", "Romania", "Russia", "San Marino", "Serbia",
				"Slovakia", "Slovenia", "Spain", "Sweden", "Switzerland", "Ukraine", "United Kingdom",
				"Vatican City",
			}},
			{Code: "NA", Name: "North America", Countries: []string{
				"Canada", "Mexico", "United States",
			}},
			{Code: "CA", Name: "Central America", Countries: []string{
				"Antigua and Barbuda", "Bahamas", "Barbados", "Belize", "Costa Rica", "Cuba", "Dominica",
				"Dominican Republic", "El Salvador", "Grenada", "Guatemala", "Haiti", "Honduras", "Jamaica",
				"Nicaragua", "Panama", "Saint Kitts and Nevis", "Saint Lucia",
				"Saint Vincent and the Grenadines", "Trinidad and Tobago", "Puerto Rico",
			}},
			{Code: "SA", Name: "South America", Countries: []string{
				"Argentina", "Bolivia", "Brazil", "Chile", "Colombia", "Ecuador", "Guyana", "Paraguay", "Peru",
				"Suriname", "Uruguay", "Venezuela",
			}},
			{Code: "AF", Name: "Africa", Countries: []string{
				"Algeria", "Angola", "Benin", "Botswana", "Burkina Faso", "Burundi", "Cameroon", "Cape Verde",
				"Central African Republic", "Chad", "Comoros", "Democratic Republic of the Congo", "Djibouti",
				"Egypt", "Equatorial Guinea", "Eritrea", "Ethiopia", "Gabon", "Gambia", "Ghana", "Guinea",
				"Guinea-Bissau", "Ivory Coast", "Kenya", "Lesotho", "Liberia", "Libya", "Madagascar", "Malawi",
				"Mali", "Mauritania", "Mauritius", "Morocco", "Mozambique", "Namibia", "Niger", "Nigeria",
				"Rwanda", "Senegal", "Seychelles", "Sierra Leone", "Somalia", "South Africa", "South Sudan",
				"Sudan", "Swaziland", "Tanzania", "Togo", "Tunisia", "Uganda", "Zambia", "Zimbabwe", "Congo",
			}},
			{Code: "ME", Name: "Middle East", Countries: []string{
				"Bahrain", "Iran", "Iraq", "Israel", "Jordan", "Kuwait", "Lebanon", "Oman", "Qatar",
				"Saudi Arabia", "Syria", "Turkey", "United Arab Emirates", "Yemen",
			}},
			{Code: "AS", Name: "Asia", Countries: []string{
				"Afghanistan", "Armenia", "Azerbaijan", "Bangladesh", "Bhutan", "Brunei", "Cambodia", "China",
				"Georgia", "India", "Indonesia", "Japan", "Kazakhstan", "Kyrgyzstan", "Laos", "Malaysia",
				"Maldives", "Mongolia", "Myanmar", "Nepal", "North Korea", "Pakistan", "Philippines",
				"Singapore", "South Korea", "Sri Lanka", "Taiwan", "Tajikistan", "Thailand", "Timor-Leste",
				"Turkmenistan", "Uzbekistan", "Vietnam",
			}},
			{Code: "OC", Name: "Oceania", Countries: []string{
				"Australia", "Fiji", "Kiribati", "Marshall Islands", "Micronesia", "Nauru", "New Zealand",
				"Palau", "Papua New Guinea", "Samoa", "Solomon Islands", "Tonga", "Tuvalu", "Vanuatu",
			}},
		},
		SubCities: []SubCitySpec{
			{Name: "Jersey City", Parent: "New York City"},
			{Name: "Miami Beach", Parent: "Miami"},
			{Name: "Sunny Isles Beach", Parent: "Miami"},
			{Name: "Makati", Parent: "Manila"},
			{Name: "Mandaluyong", Parent: "Manila"},
			{Name: "Pasig", Parent: "Manila"},
			{Name: "Quezon City", Parent: "Manila"},
			{Name: "Taguig", Parent: "Manila"},
			{Name: "Ramat Gan", Parent: "Tel Aviv"},
			{Name: "Bat Yam", Parent: "Tel Aviv"},
			{Name: "Courbevoie", Parent: "Paris"},
			{Name: "Puteaux", Parent: "Paris"},
		},
		CountryAliases: []CountryAlias{
			{From: "Lao People's Democratic Republic", To: "Laos"},
		},
	}
}
