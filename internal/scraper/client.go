package scraper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"skyscraper-platform/internal/models"
)

// Client downloads city pages and extracts their tower records
type Client struct {
	httpClient  *http.Client
	urlTemplate string
}

// NewClient creates a client. urlTemplate takes the city code and the
// height-range code, in that order, as two %s verbs.
func NewClient(urlTemplate string, timeout time.Duration) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: timeout},
		urlTemplate: urlTemplate,
	}
}

// CityURL builds the page URL of a city
func (c *Client) CityURL(cityCode, heightRangeCode string) string {
	return fmt.Sprintf(c.urlTemplate, url.QueryEscape(cityCode), url.QueryEscape(heightRangeCode))
}

// FetchCity downloads the page of one city. A page without the buildings
// script yields a *PageWrongFormatError.
func (c *Client) FetchCity(ctx context.Context, city, cityCode, heightRangeCode string) ([]models.RawTower, error) {
	pageURL := c.CityURL(cityCode, heightRangeCode)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "skyscraper-platform/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", city, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("failed to fetch %s: unexpected status %d", city, resp.StatusCode)
	}

	towers, err := ExtractTowers(resp.Body)
	if errors.Is(err, ErrHookMissing) {
		return nil, &PageWrongFormatError{City: city, URL: pageURL}
	}
	if err != nil {
		return nil, fmt.Errorf("city %s: %w", city, err)
	}
	return towers, nil
}
