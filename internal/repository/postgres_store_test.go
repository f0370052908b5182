package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyscraper-platform/internal/models"
)

// fakeExecutor keeps rows in memory and answers the queries PostgresStore issues
type fakeExecutor struct {
	rows    map[string]documentRow
	execErr error
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{rows: make(map[string]documentRow)}
}

func (f *fakeExecutor) ExecContext(_ context.Context, queryType, _ string, args ...interface{}) (sql.Result, error) {
	if f.execErr != nil {
		return nil, f.execErr
	}
	if queryType != "upsert_city" {
		return nil, errors.New("unexpected exec " + queryType)
	}
	f.rows[strings.ToLower(args[0].(string))] = documentRow{
		Name:        args[0].(string),
		CountrySlug: args[1].(string),
		CapturedAt:  args[2].(string),
		Towers:      args[3].([]byte),
		UpdatedAt:   args[4].(time.Time),
	}
	return nil, nil
}

func (f *fakeExecutor) GetContext(_ context.Context, _ string, dest interface{}, _ string, args ...interface{}) error {
	row, ok := f.rows[strings.ToLower(args[0].(string))]
	if !ok {
		return sql.ErrNoRows
	}
	*dest.(*documentRow) = row
	return nil
}

func (f *fakeExecutor) SelectContext(_ context.Context, _ string, dest interface{}, _ string, _ ...interface{}) error {
	names := dest.(*[]string)
	for _, row := range f.rows {
		*names = append(*names, row.Name)
	}
	return nil
}

func (f *fakeExecutor) HealthCheck(context.Context) error { return nil }

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()
	db := newFakeExecutor()
	store := NewPostgresStore(db, testLogger())
	assert.Equal(t, "postgres", store.Backend())

	doc := models.NewCityDocument([]models.RawTower{
		rawTower("Shenzhen", "china", "Ping An Finance Center", "599.1", "COM"),
	}, time.Date(2024, time.January, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, store.Save(ctx, "Shenzhen", doc))

	row := db.rows["shenzhen"]
	assert.Equal(t, "china", row.CountrySlug)
	assert.Equal(t, "2024-Jan-02 03:04:05", row.CapturedAt)
	assert.True(t, json.Valid(row.Towers))

	loaded, err := store.Load(ctx, "SHENZHEN")
	require.NoError(t, err)
	assert.Equal(t, doc.Timestamp, loaded.Timestamp)
	require.Len(t, loaded.Towers, 1)
	assert.Equal(t, "599.1", loaded.Towers[0]["height_architecture"])

	names, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Shenzhen"}, names)

	_, err = store.Load(ctx, "Atlantis")
	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)

	db.execErr = errors.New("connection reset")
	err = store.Save(ctx, "Shenzhen", doc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save city")
	assert.NoError(t, store.HealthCheck(ctx))
}
