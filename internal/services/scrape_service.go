package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/multierr"

	"skyscraper-platform/internal/models"
	"skyscraper-platform/internal/repository"
	"skyscraper-platform/internal/scraper"
	"skyscraper-platform/pkg/logging"
	"skyscraper-platform/pkg/metrics"
)

// Scrape outcomes recorded per city
const (
	OutcomeSaved  = "saved"
	OutcomeEmpty  = "empty"
	OutcomeFailed = "failed"
)

// CityFetcher downloads the raw tower records of one city
type CityFetcher interface {
	FetchCity(ctx context.Context, city, cityCode, heightRangeCode string) ([]models.RawTower, error)
}

// ScrapeService fetches city pages and stores one document per city
type ScrapeService struct {
	fetcher CityFetcher
	store   repository.DocumentStore
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
	now     func() time.Time
}

// ScrapeOptions selects the cities to scrape and how their towers are trimmed
type ScrapeOptions struct {
	// Start and End slice the city list; End 0 means up to the last city
	Start       int
	End         int
	HeightRange string
	Trim        scraper.TrimOptions
	// Delay is the pause between two city requests
	Delay time.Duration
}

// ScrapeResult contains scrape statistics
type ScrapeResult struct {
	TotalCities  int
	SavedCities  int
	EmptyCities  int
	FailedCities int
	TotalTowers  int
	Duration     time.Duration
	Errors       []error
}

// NewScrapeService creates a new scrape service
func NewScrapeService(fetcher CityFetcher, store repository.DocumentStore, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *ScrapeService {
	return &ScrapeService{
		fetcher: fetcher,
		store:   store,
		logger:  logger,
		metrics: metricsCollector,
		now:     time.Now,
	}
}

// ScrapeCities scrapes the selected cities in list order. A failing city is
// logged and skipped; the returned error combines every city failure and is
// nil when all cities succeeded. Cities without towers are not stored.
func (s *ScrapeService) ScrapeCities(ctx context.Context, codes *scraper.Codes, opts ScrapeOptions) (*ScrapeResult, error) {
	startTime := time.Now()

	rangeCode, ok := codes.HeightRangeCode(opts.HeightRange)
	if !ok {
		return nil, fmt.Errorf("unknown height range %q", opts.HeightRange)
	}

	cities, err := selectCities(codes.CityNames(), opts.Start, opts.End)
	if err != nil {
		return nil, err
	}

	logger := s.logger.WithFields(logging.Fields{"height_range": opts.HeightRange})
	logger.Info(ctx, "[SCRAPE_START] Starting city scrape", logging.Fields{
		"city_count": len(cities),
		"start":      opts.Start,
		"end":        opts.End,
		"stage":      "INITIALIZATION",
	})

	result := &ScrapeResult{TotalCities: len(cities)}
	var errs error

	for i, city := range cities {
		if i > 0 && opts.Delay > 0 {
			if err := sleep(ctx, opts.Delay); err != nil {
				errs = multierr.Append(errs, err)
				break
			}
		}
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, err)
			break
		}

		cityCode, _ := codes.CityCode(city)
		towers, err := s.scrapeCity(ctx, city, cityCode, rangeCode, opts.Trim)
		if err != nil {
			result.FailedCities++
			errs = multierr.Append(errs, fmt.Errorf("city %s: %w", city, err))
			s.metrics.RecordScrapedCity(OutcomeFailed, 0)
			logger.Error(ctx, "[SCRAPE_CITY_ERROR] City scrape failed", logging.Fields{
				"city":  city,
				"stage": "CITY_PROCESSING",
			}, err)
			continue
		}

		if towers == 0 {
			result.EmptyCities++
			s.metrics.RecordScrapedCity(OutcomeEmpty, 0)
			logger.Warn(ctx, "[SCRAPE_CITY_EMPTY] No towers left, city not stored", logging.Fields{
				"city": city,
			})
			continue
		}

		result.SavedCities++
		result.TotalTowers += towers
		s.metrics.RecordScrapedCity(OutcomeSaved, towers)
		logger.Info(ctx, "[SCRAPE_CITY_SUCCESS] City stored", logging.Fields{
			"city":     city,
			"towers":   towers,
			"progress": fmt.Sprintf("%d/%d", i+1, len(cities)),
		})
	}

	result.Duration = time.Since(startTime)
	result.Errors = multierr.Errors(errs)

	logger.Info(ctx, "[SCRAPE_COMPLETE] City scrape completed", logging.Fields{
		"total_cities":     result.TotalCities,
		"saved_cities":     result.SavedCities,
		"empty_cities":     result.EmptyCities,
		"failed_cities":    result.FailedCities,
		"total_towers":     result.TotalTowers,
		"duration_seconds": result.Duration.Seconds(),
		"error_count":      len(result.Errors),
		"stage":            "COMPLETE",
	})

	return result, errs
}

// scrapeCity fetches, trims and stores one city, returning the number of towers stored.
// A page without tower data counts as a city without towers.
func (s *ScrapeService) scrapeCity(ctx context.Context, city, cityCode, rangeCode string, trim scraper.TrimOptions) (int, error) {
	timer := s.metrics.NewTimer(s.metrics.ScrapeDuration)
	defer timer.ObserveDuration()

	raw, err := s.fetcher.FetchCity(ctx, city, cityCode, rangeCode)
	var wrongFormat *scraper.PageWrongFormatError
	if errors.As(err, &wrongFormat) {
		s.metrics.RecordScrapeError("wrong_format")
		s.logger.Warn(ctx, "[SCRAPE_WRONG_FORMAT] Page carries no tower data", logging.Fields{
			"city": city,
			"url":  wrongFormat.URL,
		})
		return 0, nil
	}
	if err != nil {
		s.metrics.RecordScrapeError("fetch_error")
		return 0, err
	}

	towers, err := scraper.Trim(raw, trim)
	if err != nil {
		s.metrics.RecordScrapeError("trim_error")
		return 0, err
	}
	if len(towers) == 0 {
		return 0, nil
	}

	if err := s.store.Save(ctx, city, models.NewCityDocument(towers, s.now())); err != nil {
		s.metrics.RecordScrapeError("save_error")
		return 0, err
	}
	return len(towers), nil
}

// SplitFile stores every city of a combined document as its own document
func (s *ScrapeService) SplitFile(ctx context.Context, path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	written, err := repository.SplitDocument(ctx, file, s.store, s.now())
	if err != nil {
		return written, err
	}

	s.logger.Info(ctx, "[SCRAPE_SPLIT] Combined document split", logging.Fields{
		"file_path": path,
		"documents": written,
	})
	return written, nil
}

// selectCities applies the start/end slice to the city list
func selectCities(cities []string, start, end int) ([]string, error) {
	if end == 0 || end > len(cities) {
		end = len(cities)
	}
	if start < 0 || start > end {
		return nil, fmt.Errorf("invalid city range [%d:%d] for %d cities", start, end, len(cities))
	}
	return cities[start:end], nil
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
