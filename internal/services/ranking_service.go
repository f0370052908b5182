package services

import (
	"context"
	"errors"

	"skyscraper-platform/internal/config"
	"skyscraper-platform/internal/ranking"
	"skyscraper-platform/internal/repository"
	"skyscraper-platform/pkg/logging"
	"skyscraper-platform/pkg/metrics"
)

// RankingService builds the city, country, region and world rankings
type RankingService struct {
	repo     repository.CityRepository
	settings *config.RankingSettings
	table    ranking.TierTable
	logger   *logging.StructuredLogger
	metrics  *metrics.Collector
}

// NewRankingService creates a new ranking service
func NewRankingService(
	repo repository.CityRepository,
	settings *config.RankingSettings,
	table ranking.TierTable,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *RankingService {
	return &RankingService{
		repo:     repo,
		settings: settings,
		table:    table,
		logger:   logger,
		metrics:  metricsCollector,
	}
}

// Cities returns the merged cities matching the filter, best rated first
func (s *RankingService) Cities(ctx context.Context, filter repository.CityFilter) ([]*ranking.City, error) {
	timer := s.metrics.NewTimer(s.metrics.RankingBuildDuration.WithLabelValues("cities"))
	defer timer.ObserveDuration()

	return s.repo.LoadAll(ctx, filter)
}

// City returns one merged city
func (s *RankingService) City(ctx context.Context, name string) (*ranking.City, error) {
	timer := s.metrics.NewTimer(s.metrics.RankingBuildDuration.WithLabelValues("city"))
	defer timer.ObserveDuration()

	return s.repo.LoadOne(ctx, name)
}

// Country aggregates the cities of one country. A country without stored
// cities is a NotFoundError.
func (s *RankingService) Country(ctx context.Context, name string) (*ranking.Country, error) {
	timer := s.metrics.NewTimer(s.metrics.RankingBuildDuration.WithLabelValues("country"))
	defer timer.ObserveDuration()

	cities, err := s.repo.LoadAll(ctx, repository.CityFilter{Country: name})
	var invalid *repository.InvalidFilterError
	if errors.As(err, &invalid) {
		return nil, &repository.NotFoundError{Resource: "country", ID: name}
	}
	if err != nil {
		return nil, err
	}
	return ranking.BuildCountry(cities[0].Country, cities, s.table)
}

// Region aggregates the cities of one region, given by name or code. A known
// region without stored cities comes back empty with a zero rating.
func (s *RankingService) Region(ctx context.Context, name string) (*ranking.Region, error) {
	timer := s.metrics.NewTimer(s.metrics.RankingBuildDuration.WithLabelValues("region"))
	defer timer.ObserveDuration()

	if _, ok := s.settings.RegionByName(name); !ok {
		return nil, &ranking.InvalidRegionError{Name: name}
	}

	cities, err := s.repo.LoadAll(ctx, repository.CityFilter{Region: name})
	var invalid *repository.InvalidFilterError
	if errors.As(err, &invalid) {
		s.logger.Debug(ctx, "[RANKING_EMPTY_REGION] Region has no stored cities", logging.Fields{
			"region": name,
		})
		cities = nil
	} else if err != nil {
		return nil, err
	}
	return ranking.BuildRegion(name, cities, s.settings, s.table)
}

// Regions builds every configured region in table order, empty ones included
func (s *RankingService) Regions(ctx context.Context) ([]*ranking.Region, error) {
	timer := s.metrics.NewTimer(s.metrics.RankingBuildDuration.WithLabelValues("regions"))
	defer timer.ObserveDuration()

	cities, err := s.repo.LoadAll(ctx, repository.CityFilter{})
	if err != nil {
		return nil, err
	}

	byRegion := make(map[string][]*ranking.City)
	for _, c := range cities {
		if c.Region != nil {
			byRegion[*c.Region] = append(byRegion[*c.Region], c)
		}
	}

	regions := make([]*ranking.Region, 0, len(s.settings.Regions))
	for _, spec := range s.settings.Regions {
		region, err := ranking.BuildRegion(spec.Name, byRegion[spec.Name], s.settings, s.table)
		if err != nil {
			return nil, err
		}
		regions = append(regions, region)
	}
	return regions, nil
}

// World aggregates every stored city
func (s *RankingService) World(ctx context.Context) (*ranking.World, error) {
	timer := s.metrics.NewTimer(s.metrics.RankingBuildDuration.WithLabelValues("world"))
	defer timer.ObserveDuration()

	cities, err := s.repo.LoadAll(ctx, repository.CityFilter{})
	if err != nil {
		return nil, err
	}

	world, err := ranking.BuildWorld(cities, s.settings, s.table)
	if err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "[RANKING_WORLD] World ranking built", logging.Fields{
		"cities":  world.CityCount(),
		"regions": len(world.Regions),
		"rating":  world.Rating(),
	})
	return world, nil
}

// HealthCheck checks the document store
func (s *RankingService) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}
