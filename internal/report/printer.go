package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"skyscraper-platform/internal/config"
	"skyscraper-platform/internal/models"
	"skyscraper-platform/internal/ranking"
)

const detailsDecor = 20

// Printer renders rankings as plain-text reports. Brief reports are a
// heading and a numbered list; verbose reports describe every member.
type Printer struct {
	w        io.Writer
	settings *config.RankingSettings
	table    ranking.TierTable
	heading  lipgloss.Style
	label    lipgloss.Style
}

// NewPrinter creates a printer writing to w. colorize styles headings for a terminal.
func NewPrinter(w io.Writer, settings *config.RankingSettings, table ranking.TierTable, colorize bool) *Printer {
	p := &Printer{
		w:        w,
		settings: settings,
		table:    table,
		heading:  lipgloss.NewStyle(),
		label:    lipgloss.NewStyle(),
	}
	if colorize {
		p.heading = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")) // blue
		p.label = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))                // gray
	}
	return p
}

// City prints a city and its towers
func (p *Printer) City(c *ranking.City, verbose bool) error {
	var b strings.Builder
	p.writeCity(&b, c, verbose)
	return p.flush(&b)
}

// Country prints a country and its cities
func (p *Printer) Country(c *ranking.Country, verbose bool) error {
	var b strings.Builder
	p.writeCountry(&b, c, verbose)
	return p.flush(&b)
}

// Region prints a region and its countries
func (p *Printer) Region(r *ranking.Region, verbose bool) error {
	var b strings.Builder
	p.writeRegion(&b, r, verbose)
	return p.flush(&b)
}

// World prints the world and its regions. Cities outside any region are
// listed after the regions.
func (p *Printer) World(w *ranking.World, verbose bool) error {
	var b strings.Builder
	p.writeWorld(&b, w, verbose)
	return p.flush(&b)
}

// Properties prints a numbered list of raw tower keys
func (p *Printer) Properties(properties []string) error {
	var b strings.Builder
	p.line(&b, p.heading.Render(Asteriskify(fmt.Sprintf("%d tower properties", len(properties)), 3)))
	width := countWidth(len(properties))
	for i, prop := range properties {
		p.line(&b, RightJustify(prop, i+1, width))
	}
	return p.flush(&b)
}

// withDetails renders the brief report, a DETAILS separator, then the verbose one
func (p *Printer) withDetails(b *strings.Builder, render func(*strings.Builder, bool)) {
	render(b, false)
	b.WriteString("\n")
	p.line(b, Asteriskify("DETAILS", detailsDecor))
	b.WriteString("\n")
	render(b, true)
}

func (p *Printer) writeCity(b *strings.Builder, c *ranking.City, verbose bool) {
	if verbose {
		p.describeCity(b, c)
	} else {
		p.line(b, p.heading.Render(Asteriskify(fmt.Sprintf("%s, %s, %s",
			c.Name, c.Country, ratingLine(c.Rating(), c.UncompletedPercent(), c.HasUncompleted())), 3)))
	}

	width := countWidth(len(c.Towers()))
	for i, t := range c.Towers() {
		if verbose {
			b.WriteString("\n")
			p.describeTower(b, t)
			continue
		}
		p.line(b, RightJustify(p.briefTower(t), i+1, width))
	}
}

func (p *Printer) writeCountry(b *strings.Builder, c *ranking.Country, verbose bool) {
	if verbose {
		p.describe(b, c.Name, [][2]string{
			{"Region", regionLabel(c.Region)},
			{"Cities", fmt.Sprint(c.CityCount())},
			{"Towers", fmt.Sprint(len(c.Towers()))},
			{"Rating", ratingLine(c.Rating(), c.UncompletedPercent(), c.HasUncompleted())},
		})
	} else {
		p.line(b, p.heading.Render(Asteriskify(fmt.Sprintf("%s, %s",
			c.Name, ratingLine(c.Rating(), c.UncompletedPercent(), c.HasUncompleted())), 3)))
	}

	width := countWidth(len(c.Cities))
	for i, city := range c.Cities {
		if verbose {
			b.WriteString("\n")
			p.describeCity(b, city)
			continue
		}
		p.line(b, RightJustify(fmt.Sprintf("%s, %d", city.Name, city.Rating()), i+1, width))
	}
}

func (p *Printer) writeRegion(b *strings.Builder, r *ranking.Region, verbose bool) {
	if verbose {
		p.describe(b, r.Name, [][2]string{
			{"Code", r.Code},
			{"Countries", fmt.Sprint(len(r.Countries))},
			{"Cities", fmt.Sprint(r.CityCount())},
			{"Towers", fmt.Sprint(len(r.Towers()))},
			{"Rating", ratingLine(r.Rating(), r.UncompletedPercent(), r.HasUncompleted())},
		})
	} else {
		p.line(b, p.heading.Render(Asteriskify(fmt.Sprintf("%s, %s",
			r.Name, ratingLine(r.Rating(), r.UncompletedPercent(), r.HasUncompleted())), 3)))
	}

	width := countWidth(len(r.Countries))
	for i, country := range r.Countries {
		if verbose {
			b.WriteString("\n")
			p.writeCountryDescription(b, country)
			continue
		}
		p.line(b, RightJustify(fmt.Sprintf("%s, %d", country.Name, country.Rating()), i+1, width))
	}
}

func (p *Printer) writeWorld(b *strings.Builder, w *ranking.World, verbose bool) {
	if verbose {
		p.describe(b, "World", [][2]string{
			{"Regions", fmt.Sprint(len(w.Regions))},
			{"Cities", fmt.Sprint(w.CityCount())},
			{"Towers", fmt.Sprint(len(w.Towers()))},
			{"Rating", ratingLine(w.Rating(), w.UncompletedPercent(), w.HasUncompleted())},
		})
	} else {
		p.line(b, p.heading.Render(Asteriskify("World, "+ratingLine(w.Rating(), w.UncompletedPercent(), w.HasUncompleted()), 3)))
	}

	width := countWidth(len(w.Regions))
	for i, region := range w.Regions {
		if verbose {
			b.WriteString("\n")
			p.describe(b, region.Name, [][2]string{
				{"Countries", fmt.Sprint(len(region.Countries))},
				{"Rating", ratingLine(region.Rating(), region.UncompletedPercent(), region.HasUncompleted())},
			})
			continue
		}
		p.line(b, RightJustify(fmt.Sprintf("%s, %d", region.Name, region.Rating()), i+1, width))
	}

	if len(w.Unregioned) == 0 {
		return
	}
	b.WriteString("\n")
	p.line(b, p.heading.Render(Asteriskify("Outside any region", 3)))
	width = countWidth(len(w.Unregioned))
	for i, city := range w.Unregioned {
		p.line(b, RightJustify(fmt.Sprintf("%s, %s, %d", city.Name, city.Country, city.Rating()), i+1, width))
	}
}

func (p *Printer) writeCountryDescription(b *strings.Builder, c *ranking.Country) {
	p.describe(b, c.Name, [][2]string{
		{"Cities", fmt.Sprint(c.CityCount())},
		{"Towers", fmt.Sprint(len(c.Towers()))},
		{"Rating", ratingLine(c.Rating(), c.UncompletedPercent(), c.HasUncompleted())},
	})
}

func (p *Printer) describeCity(b *strings.Builder, c *ranking.City) {
	counts := c.TierCounts()
	tiers := make([]string, 0, len(ranking.Tiers()))
	for _, t := range ranking.Tiers() {
		tiers = append(tiers, fmt.Sprintf("%s: %d", t, counts.Count(t)))
	}

	rows := [][2]string{
		{"Country", c.Country},
		{"Region", regionLabel(c.Region)},
		{fmt.Sprintf("%d towers", len(c.Towers())), towerNames(c.Towers())},
		{"Tiers", strings.Join(tiers, ", ")},
		{"Rating", ratingLine(c.Rating(), c.UncompletedPercent(), c.HasUncompleted())},
	}
	if subs := c.SubCities(); len(subs) > 0 {
		rows = append(rows, [2]string{"Includes", strings.Join(subs, ", ")})
	}
	rows = append(rows, [2]string{"Scraped on", c.Timestamp})
	p.describe(b, c.Name, rows)
}

func (p *Printer) describeTower(b *strings.Builder, t *models.Tower) {
	var rows [][2]string
	if t.Height != nil {
		rows = append(rows, [2]string{"Height", formatHeight(t.Height)})
	}
	if t.Floors != nil {
		rows = append(rows, [2]string{"Floors", fmt.Sprint(*t.Floors)})
	}
	if t.Status != nil {
		rows = append(rows, [2]string{"Status", p.settings.StatusName(string(*t.Status))})
	}
	if t.Start != nil {
		rows = append(rows, [2]string{"Started", fmt.Sprint(*t.Start)})
	}
	if t.Completed != nil {
		rows = append(rows, [2]string{"Completed", fmt.Sprint(*t.Completed)})
	}
	if t.Functions != nil {
		rows = append(rows, [2]string{"Functions", *t.Functions})
	}
	if t.Rank != nil {
		rows = append(rows, [2]string{"Rank", fmt.Sprint(*t.Rank)})
	}
	p.describe(b, t.DisplayName(), rows)
}

func (p *Printer) briefTower(t *models.Tower) string {
	line := t.DisplayName() + ", " + formatHeight(t.Height)
	if t.Status != nil {
		line += ", " + p.settings.StatusName(string(*t.Status))
	}
	return line
}

// describe writes a heading followed by "Label: value" rows
func (p *Printer) describe(b *strings.Builder, title string, rows [][2]string) {
	p.line(b, p.heading.Render(Asteriskify(title, 3)))
	for _, row := range rows {
		p.line(b, p.label.Render(row[0]+":")+" "+row[1])
	}
}

func (p *Printer) line(b *strings.Builder, s string) {
	b.WriteString(s)
	b.WriteString("\n")
}

func (p *Printer) flush(b *strings.Builder) error {
	_, err := io.WriteString(p.w, b.String())
	return err
}
