package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"skyscraper-platform/internal/models"
	"skyscraper-platform/pkg/logging"
)

// sqlExecutor is the subset of *database.PostgresDB the store needs
type sqlExecutor interface {
	ExecContext(ctx context.Context, queryType, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, queryType string, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, queryType string, dest interface{}, query string, args ...interface{}) error
	HealthCheck(ctx context.Context) error
}

// documentRow mirrors the city_documents table
type documentRow struct {
	Name        string    `db:"name"`
	CountrySlug string    `db:"country_slug"`
	CapturedAt  string    `db:"captured_at"`
	Towers      []byte    `db:"towers"`
	UpdatedAt   time.Time `db:"updated_at"`
}

// PostgresStore keeps city documents in a jsonb column, one row per city
type PostgresStore struct {
	db     sqlExecutor
	logger *logging.StructuredLogger
}

// NewPostgresStore creates a store on top of a *database.PostgresDB
func NewPostgresStore(db sqlExecutor, logger *logging.StructuredLogger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

func (s *PostgresStore) Backend() string { return "postgres" }

// List returns every stored city name
func (s *PostgresStore) List(ctx context.Context) ([]string, error) {
	query := `SELECT name FROM city_documents ORDER BY name`

	var names []string
	if err := s.db.SelectContext(ctx, "list_cities", &names, query); err != nil {
		return nil, fmt.Errorf("failed to list cities: %w", err)
	}
	return names, nil
}

// Load returns the document of a city, matched case-insensitively
func (s *PostgresStore) Load(ctx context.Context, name string) (*models.CityDocument, error) {
	query := `
		SELECT name, country_slug, captured_at, towers, updated_at
		FROM city_documents
		WHERE lower(name) = lower($1)
	`

	var row documentRow
	err := s.db.GetContext(ctx, "get_city", &row, query, name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Resource: "city", ID: name}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get city: %w", err)
	}

	doc := &models.CityDocument{Timestamp: row.CapturedAt}
	if err := json.Unmarshal(row.Towers, &doc.Towers); err != nil {
		return nil, fmt.Errorf("failed to decode towers of %s: %w", row.Name, err)
	}
	return doc, nil
}

// Save upserts the document of a city
func (s *PostgresStore) Save(ctx context.Context, name string, doc *models.CityDocument) error {
	towers, err := json.Marshal(doc.Towers)
	if err != nil {
		return fmt.Errorf("failed to encode towers of %s: %w", name, err)
	}

	query := `
		INSERT INTO city_documents (name, country_slug, captured_at, towers, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (name) DO UPDATE SET
			country_slug = EXCLUDED.country_slug,
			captured_at = EXCLUDED.captured_at,
			towers = EXCLUDED.towers,
			updated_at = EXCLUDED.updated_at
	`

	if _, err := s.db.ExecContext(ctx, "upsert_city", query,
		name,
		doc.CountrySlug(),
		doc.Timestamp,
		towers,
		time.Now().UTC(),
	); err != nil {
		return fmt.Errorf("failed to save city: %w", err)
	}

	s.logger.Debug(ctx, "[REPO_SAVE_CITY] City document stored", logging.Fields{
		"city":   name,
		"towers": len(doc.Towers),
	})
	return nil
}

func (s *PostgresStore) HealthCheck(ctx context.Context) error {
	return s.db.HealthCheck(ctx)
}
