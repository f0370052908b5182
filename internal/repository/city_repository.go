package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sourcegraph/conc/pool"

	"skyscraper-platform/internal/config"
	"skyscraper-platform/internal/models"
	"skyscraper-platform/internal/ranking"
	"skyscraper-platform/pkg/logging"
	"skyscraper-platform/pkg/metrics"
)

// CityRepository provides ranked cities built from the stored documents.
// Every load folds configured sub-cities into their parents.
type CityRepository interface {
	LoadAll(ctx context.Context, filter CityFilter) ([]*ranking.City, error)
	LoadOne(ctx context.Context, name string) (*ranking.City, error)
	SaveDocument(ctx context.Context, name string, doc *models.CityDocument) error
	ListCityNames(ctx context.Context) ([]string, error)
	HealthCheck(ctx context.Context) error
}

// CityFilter narrows LoadAll by region (name or code) and country, case-insensitively
type CityFilter struct {
	Region  string
	Country string
}

func (f CityFilter) empty() bool {
	return f.Region == "" && f.Country == ""
}

// cityRepository implements CityRepository
type cityRepository struct {
	store       DocumentStore
	settings    *config.RankingSettings
	table       ranking.TierTable
	concurrency int
	logger      *logging.StructuredLogger
	metrics     *metrics.Collector
}

// NewCityRepository creates a repository reading documents from store.
// At most concurrency documents are loaded at once.
func NewCityRepository(
	store DocumentStore,
	settings *config.RankingSettings,
	table ranking.TierTable,
	concurrency int,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) CityRepository {
	if concurrency < 1 {
		concurrency = 1
	}
	return &cityRepository{
		store:       store,
		settings:    settings,
		table:       table,
		concurrency: concurrency,
		logger:      logger,
		metrics:     metricsCollector,
	}
}

// LoadAll loads every stored city, merges sub-cities and applies the filter.
// A filter that matches nothing is an InvalidFilterError. Cities come back
// sorted by rating, then name.
func (r *cityRepository) LoadAll(ctx context.Context, filter CityFilter) ([]*ranking.City, error) {
	start := time.Now()
	snap, err := takeSnapshot(ctx, r.store)
	if err != nil {
		return nil, fmt.Errorf("failed to list cities: %w", err)
	}
	names := snap.Names()

	cities, err := r.loadCities(ctx, snap, names)
	if err != nil {
		return nil, err
	}

	cities, err = ranking.MergeSubCities(cities, r.settings, r.table)
	if err != nil {
		return nil, fmt.Errorf("failed to merge sub-cities: %w", err)
	}

	cities, err = r.applyFilter(cities, filter)
	if err != nil {
		return nil, err
	}

	r.logger.Debug(ctx, "[REPO_LOAD_ALL] Cities loaded", logging.Fields{
		"documents":   len(names),
		"cities":      len(cities),
		"region":      filter.Region,
		"country":     filter.Country,
		"duration_ms": since(start),
	})

	return ranking.SortCities(cities), nil
}

// LoadOne loads a city with its sub-cities merged in. Sub-city names are not
// addressable on their own.
func (r *cityRepository) LoadOne(ctx context.Context, name string) (*ranking.City, error) {
	if _, isSub := r.settings.ParentCity(name); isSub {
		return nil, &NotFoundError{Resource: "city", ID: name}
	}

	snap, err := takeSnapshot(ctx, r.store)
	if err != nil {
		return nil, fmt.Errorf("failed to list cities: %w", err)
	}

	city, err := r.loadCity(ctx, snap, name)
	var notFound *NotFoundError
	if err != nil && !errors.As(err, &notFound) {
		return nil, err
	}

	subs, err := r.loadCities(ctx, snap, r.settings.SubCitiesOf(name))
	if err != nil {
		return nil, err
	}

	if city == nil {
		if len(subs) == 0 {
			return nil, &NotFoundError{Resource: "city", ID: name}
		}
		city, err = ranking.NewCity(name, subs[0].Country, subs[0].Region, subs[0].Timestamp, nil, r.table)
		if err != nil {
			return nil, err
		}
	}

	if len(subs) > 0 {
		if err := city.Merge(subs...); err != nil {
			return nil, err
		}
	}
	return city, nil
}

// SaveDocument stores the document of one city
func (r *cityRepository) SaveDocument(ctx context.Context, name string, doc *models.CityDocument) error {
	if strings.TrimSpace(name) == "" {
		return &models.ValidationError{Field: "name", Message: "city name is required"}
	}
	if doc == nil {
		return &models.ValidationError{Field: "document", Value: name, Message: "city document is required"}
	}
	return r.store.Save(ctx, name, doc)
}

// ListCityNames returns the names of every stored document, sub-cities included
func (r *cityRepository) ListCityNames(ctx context.Context) ([]string, error) {
	return r.store.List(ctx)
}

func (r *cityRepository) HealthCheck(ctx context.Context) error {
	return r.store.HealthCheck(ctx)
}

// loadCity loads and builds one city, returning (nil, nil) for a document without towers
func (r *cityRepository) loadCity(ctx context.Context, snap Snapshot, name string) (*ranking.City, error) {
	doc, err := snap.Load(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(doc.Towers) == 0 {
		r.logger.Warn(ctx, "[REPO_EMPTY_CITY] Skipping city document without towers", logging.Fields{
			"city": name,
		})
		return nil, nil
	}
	city, err := ranking.BuildCity(name, doc, r.settings, r.table)
	if err != nil {
		return nil, fmt.Errorf("failed to build city %s: %w", name, err)
	}
	for _, tower := range city.Towers() {
		if len(tower.Unparsed) > 0 {
			r.logger.Warn(ctx, "[REPO_UNPARSED_ATTRIBUTES] Dropped malformed tower attributes", logging.Fields{
				"city":       name,
				"tower":      tower.DisplayName(),
				"attributes": tower.Unparsed,
			})
		}
	}
	return city, nil
}

// loadCities loads documents in parallel, bounded by the configured
// concurrency. Missing documents and documents without towers are skipped;
// the first other error cancels the remaining loads. Input order is kept.
func (r *cityRepository) loadCities(ctx context.Context, snap Snapshot, names []string) ([]*ranking.City, error) {
	if len(names) == 0 {
		return nil, nil
	}

	timer := r.metrics.NewTimer(r.metrics.DocumentLoadDuration.WithLabelValues(r.store.Backend()))
	defer timer.ObserveDuration()

	results := make([]*ranking.City, len(names))
	p := pool.New().
		WithMaxGoroutines(r.concurrency).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()

	for i, name := range names {
		p.Go(func(ctx context.Context) error {
			city, err := r.loadCity(ctx, snap, name)
			var notFound *NotFoundError
			if errors.As(err, &notFound) {
				return nil
			}
			if err != nil {
				return err
			}
			results[i] = city
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	cities := make([]*ranking.City, 0, len(results))
	for _, c := range results {
		if c != nil {
			cities = append(cities, c)
		}
	}
	r.metrics.RecordDocumentsLoaded(r.store.Backend(), len(cities))
	return cities, nil
}

func (r *cityRepository) applyFilter(cities []*ranking.City, filter CityFilter) ([]*ranking.City, error) {
	if filter.empty() {
		return cities, nil
	}

	region := filter.Region
	if region != "" {
		spec, ok := r.settings.RegionByName(region)
		if !ok {
			return nil, &InvalidFilterError{Field: "region", Value: filter.Region}
		}
		region = spec.Name
	}

	var matched []*ranking.City
	for _, c := range cities {
		if region != "" && !strings.EqualFold(c.RegionName(), region) {
			continue
		}
		if filter.Country != "" && !strings.EqualFold(c.Country, filter.Country) {
			continue
		}
		matched = append(matched, c)
	}

	if len(matched) == 0 {
		if filter.Country != "" {
			return nil, &InvalidFilterError{Field: "country", Value: filter.Country}
		}
		return nil, &InvalidFilterError{Field: "region", Value: filter.Region}
	}
	return matched, nil
}

// since returns elapsed milliseconds for log fields
func since(start time.Time) int64 {
	return time.Since(start).Milliseconds()
}
