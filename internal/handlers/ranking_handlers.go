package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"skyscraper-platform/internal/cache"
	"skyscraper-platform/internal/models"
	"skyscraper-platform/internal/ranking"
	"skyscraper-platform/internal/repository"
	"skyscraper-platform/internal/services"
	"skyscraper-platform/pkg/logging"
	"skyscraper-platform/pkg/metrics"
)

// RankingHandler serves the ranking API
type RankingHandler struct {
	rankingService *services.RankingService
	cache          cache.Cache
	logger         *logging.StructuredLogger
	metrics        *metrics.Collector
}

// NewRankingHandler creates a new ranking handler. A nil cache disables response caching.
func NewRankingHandler(
	rankingService *services.RankingService,
	responseCache cache.Cache,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *RankingHandler {
	if responseCache == nil {
		responseCache = cache.Noop{}
	}
	return &RankingHandler{
		rankingService: rankingService,
		cache:          responseCache,
		logger:         logger,
		metrics:        metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// ListResponse wraps a list of cities
type ListResponse struct {
	Data  interface{} `json:"data"`
	Total int         `json:"total"`
}

// GetCities handles GET /api/cities
func (h *RankingHandler) GetCities(w http.ResponseWriter, r *http.Request) {
	filter := repository.CityFilter{
		Region:  strings.TrimSpace(r.URL.Query().Get("region")),
		Country: strings.TrimSpace(r.URL.Query().Get("country")),
	}
	key := "cities:" + strings.ToLower(filter.Region) + ":" + strings.ToLower(filter.Country)

	h.serve(w, r, "/api/cities", key, func(ctx context.Context) (interface{}, error) {
		cities, err := h.rankingService.Cities(ctx, filter)
		if err != nil {
			return nil, err
		}
		return ListResponse{Data: newCityViews(cities), Total: len(cities)}, nil
	})
}

// GetCity handles GET /api/cities/{name}
func (h *RankingHandler) GetCity(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	h.serve(w, r, "/api/cities/{name}", "city:"+strings.ToLower(name), func(ctx context.Context) (interface{}, error) {
		city, err := h.rankingService.City(ctx, name)
		if err != nil {
			return nil, err
		}
		return newCityView(city, true), nil
	})
}

// GetCountry handles GET /api/countries/{name}
func (h *RankingHandler) GetCountry(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	h.serve(w, r, "/api/countries/{name}", "country:"+strings.ToLower(name), func(ctx context.Context) (interface{}, error) {
		country, err := h.rankingService.Country(ctx, name)
		if err != nil {
			return nil, err
		}
		return newCountryView(country), nil
	})
}

// GetRegion handles GET /api/regions/{name}
func (h *RankingHandler) GetRegion(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	h.serve(w, r, "/api/regions/{name}", "region:"+strings.ToLower(name), func(ctx context.Context) (interface{}, error) {
		region, err := h.rankingService.Region(ctx, name)
		if err != nil {
			return nil, err
		}
		return newRegionView(region), nil
	})
}

// GetWorld handles GET /api/world
func (h *RankingHandler) GetWorld(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "/api/world", "world", func(ctx context.Context) (interface{}, error) {
		world, err := h.rankingService.World(ctx)
		if err != nil {
			return nil, err
		}
		return newWorldView(world), nil
	})
}

// HealthCheck handles GET /health
func (h *RankingHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := h.rankingService.HealthCheck(ctx); err != nil {
		h.logger.Error(ctx, "[HEALTH_CHECK_ERROR] Document store unavailable", logging.Fields{}, err)
		status["status"] = "unhealthy"
		h.sendJSON(w, status, http.StatusServiceUnavailable)
		return
	}
	if err := h.cache.Ping(ctx); err != nil {
		h.logger.Warn(ctx, "[HEALTH_CHECK_CACHE] Cache unavailable", logging.Fields{"error": err.Error()})
		status["cache"] = "unavailable"
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// serve answers from the cache when possible, otherwise builds the response
// and caches it. Cache failures are logged and never fail the request.
func (h *RankingHandler) serve(w http.ResponseWriter, r *http.Request, endpoint, key string, build func(ctx context.Context) (interface{}, error)) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
	}()

	var cached json.RawMessage
	found, err := h.cache.Get(ctx, key, &cached)
	if err != nil {
		h.logger.Warn(ctx, "[API_CACHE_ERROR] Cache lookup failed", logging.Fields{
			"key":   key,
			"error": err.Error(),
		})
	}
	if found {
		h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
		h.sendJSON(w, cached, http.StatusOK)
		return
	}

	response, err := build(ctx)
	if err != nil {
		h.handleError(w, r, endpoint, err)
		return
	}

	if err := h.cache.Set(ctx, key, response); err != nil {
		h.logger.Warn(ctx, "[API_CACHE_ERROR] Cache store failed", logging.Fields{
			"key":   key,
			"error": err.Error(),
		})
	}

	h.metrics.RecordAPIRequest(endpoint, r.Method, "200")
	h.sendJSON(w, response, http.StatusOK)
}

// handleError maps domain errors onto HTTP statuses
func (h *RankingHandler) handleError(w http.ResponseWriter, r *http.Request, endpoint string, err error) {
	var (
		notFound      *repository.NotFoundError
		invalidFilter *repository.InvalidFilterError
		invalidRegion *ranking.InvalidRegionError
		dataRange     *ranking.DataRangeError
		validation    *models.ValidationError
	)

	switch {
	case errors.As(err, &notFound), errors.As(err, &invalidFilter), errors.As(err, &invalidRegion):
		h.metrics.RecordAPIError("not_found", endpoint)
		h.sendError(w, r, endpoint, err.Error(), http.StatusNotFound)
	case errors.As(err, &dataRange), errors.As(err, &validation):
		h.logger.Error(r.Context(), "[API_DATA_ERROR] Stored data cannot be ranked", logging.Fields{
			"endpoint": endpoint,
		}, err)
		h.metrics.RecordAPIError("data_error", endpoint)
		h.sendError(w, r, endpoint, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.logger.Error(r.Context(), "[API_ERROR] Request failed", logging.Fields{
			"endpoint": endpoint,
		}, err)
		h.metrics.RecordAPIError("internal_error", endpoint)
		h.sendError(w, r, endpoint, "failed to build ranking", http.StatusInternalServerError)
	}
}

// sendJSON sends a JSON response
func (h *RankingHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *RankingHandler) sendError(w http.ResponseWriter, r *http.Request, endpoint, message string, statusCode int) {
	h.metrics.RecordAPIRequest(endpoint, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers all ranking API routes
func (h *RankingHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/cities", h.GetCities).Methods("GET")
	router.HandleFunc("/api/cities/{name}", h.GetCity).Methods("GET")
	router.HandleFunc("/api/countries/{name}", h.GetCountry).Methods("GET")
	router.HandleFunc("/api/regions/{name}", h.GetRegion).Methods("GET")
	router.HandleFunc("/api/world", h.GetWorld).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.HandleFunc("/api/docs", h.SwaggerUI).Methods("GET")
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods("GET")
}
