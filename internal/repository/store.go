package repository

import (
	"context"

	"skyscraper-platform/internal/models"
)

// DocumentStore persists one document per city
type DocumentStore interface {
	// List returns the names of every stored city, sorted
	List(ctx context.Context) ([]string, error)
	// Load returns the document of a city or a *NotFoundError
	Load(ctx context.Context, name string) (*models.CityDocument, error)
	// Save creates or replaces the document of a city
	Save(ctx context.Context, name string, doc *models.CityDocument) error
	HealthCheck(ctx context.Context) error
	// Backend names the storage kind for logs and metrics
	Backend() string
}

// Snapshot is a fixed view of the stored documents. Loads through a snapshot
// resolve names without listing the store again.
type Snapshot interface {
	// Names returns the city names captured by the snapshot, sorted
	Names() []string
	// Load returns the document of a city or a *NotFoundError
	Load(ctx context.Context, name string) (*models.CityDocument, error)
}

// snapshotter is implemented by stores that resolve every document location in one pass
type snapshotter interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// takeSnapshot returns the store's own snapshot when it has one, otherwise
// the listed names with loads going straight to the store
func takeSnapshot(ctx context.Context, store DocumentStore) (Snapshot, error) {
	if s, ok := store.(snapshotter); ok {
		return s.Snapshot(ctx)
	}
	names, err := store.List(ctx)
	if err != nil {
		return nil, err
	}
	return &listedSnapshot{store: store, names: names}, nil
}

type listedSnapshot struct {
	store DocumentStore
	names []string
}

func (s *listedSnapshot) Names() []string { return s.names }

func (s *listedSnapshot) Load(ctx context.Context, name string) (*models.CityDocument, error) {
	return s.store.Load(ctx, name)
}
