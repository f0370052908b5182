package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"skyscraper-platform/internal/app"
	"skyscraper-platform/internal/scraper"
	"skyscraper-platform/internal/services"
	"skyscraper-platform/pkg/logging"
)

func main() {
	// Parse command-line flags
	start := flag.Int("start", 0, "Index of the first city to scrape")
	end := flag.Int("end", 0, "Index after the last city to scrape (0 scrapes to the end)")
	heightRange := flag.String("height-range", "", "Height range label of the search form (default from SCRAPER_HEIGHT_RANGE)")
	heightFloor := flag.Float64("height-floor", -1, "Drop towers lower than this many meters, never below the lowest tier (default from SCRAPER_HEIGHT_FLOOR)")
	split := flag.String("split", "", "Split a combined {city: [towers]} JSON file into per-city documents instead of scraping")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := app.Bootstrap(ctx, "skyscraper-scraper", "skyscraper_scraper")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Startup failed: %v\n", err)
		os.Exit(1)
	}
	defer rt.Close()

	cfg := rt.Config.Scraper
	logger := rt.Logger

	client := scraper.NewClient(cfg.URLTemplate, cfg.HTTPTimeout)
	scrapeService := services.NewScrapeService(client, rt.Store, logger, rt.Metrics)

	if *split != "" {
		written, err := scrapeService.SplitFile(ctx, *split)
		if err != nil {
			logger.Fatal(ctx, "[SPLIT_ERROR] Split failed", logging.Fields{"file_path": *split}, err)
		}
		fmt.Printf("Wrote %d city documents\n", written)
		return
	}

	codes, err := scraper.LoadCodes(cfg.InputPath)
	if err != nil {
		logger.Fatal(ctx, "[SCRAPER_ERROR] Failed to load city codes", logging.Fields{
			"input_path": cfg.InputPath,
		}, err)
	}

	opts := services.ScrapeOptions{
		Start:       *start,
		End:         *end,
		HeightRange: cfg.HeightRange,
		Trim: scraper.TrimOptions{
			HeightFloor: cfg.HeightFloor,
		},
		Delay: cfg.RequestDelay,
	}
	if *heightRange != "" {
		opts.HeightRange = *heightRange
	}
	if *heightFloor >= 0 {
		opts.Trim.HeightFloor = *heightFloor
	}
	// Towers under the lowest tier cannot be rated once stored
	requested := opts.Trim.HeightFloor
	if trim, raised := opts.Trim.AtLeast(rt.Table.Floor()); raised {
		logger.Warn(ctx, "[SCRAPER_FLOOR] Height floor raised to the lowest tier bound", logging.Fields{
			"requested": requested,
			"floor":     trim.HeightFloor,
		})
		opts.Trim = trim
	}

	result, err := scrapeService.ScrapeCities(ctx, codes, opts)
	if result == nil {
		logger.Fatal(ctx, "[SCRAPER_ERROR] Scrape could not start", logging.Fields{}, err)
	}

	// Print results
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("SCRAPE COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Cities:          %d\n", result.TotalCities)
	fmt.Printf("Saved:           %d\n", result.SavedCities)
	fmt.Printf("Without towers:  %d\n", result.EmptyCities)
	fmt.Printf("Failed:          %d\n", result.FailedCities)
	fmt.Printf("Towers:          %d\n", result.TotalTowers)
	fmt.Printf("Duration:        %v\n", result.Duration)

	if len(result.Errors) > 0 {
		fmt.Printf("\nErrors (%d):\n", len(result.Errors))
		for i, e := range result.Errors {
			if i < 10 {
				fmt.Printf("  - %v\n", e)
			}
		}
		if len(result.Errors) > 10 {
			fmt.Printf("  ... and %d more errors\n", len(result.Errors)-10)
		}
		os.Exit(1)
	}
}
