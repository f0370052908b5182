package scraper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyscraper-platform/internal/models"
)

const cityPage = `<!DOCTYPE html>
<html>
<head>
<script type="text/javascript">var tracking = {};</script>
</head>
<body>
<table id="buildings"></table>
<script type="text/javascript">
var buildings = [{"id": "1", "name": "Willis Tower", "city": "Chicago", "country_slug": "united-states", "height_architecture": "442.1", "status": "COM"},
{"id": "2", "name": "Unbuilt", "city": "Chicago", "country_slug": "united-states", "height_architecture": "-", "status": "UC"}];
var columns = [];
</script>
</body>
</html>`

const searchPage = `<html><body>
<form>
<select id="base_city" name="base_city">
  <option value="0">All</option>
  <option value="7">Chicago</option>
  <option value="12">New York City</option>
  <option value="1502">Ho Chi Minh City</option>
</select>
<select id="base_height_range">
  <option value="0">All</option>
  <option value="3">150m+</option>
  <option value="4">200m+</option>
</select>
</form>
</body></html>`

func TestExtractTowers(t *testing.T) {
	towers, err := ExtractTowers(strings.NewReader(cityPage))
	require.NoError(t, err)
	require.Len(t, towers, 2)

	assert.Equal(t, "Willis Tower", towers[0]["name"])
	assert.Equal(t, "442.1", towers[0]["height_architecture"])
	assert.Equal(t, "-", towers[1]["height_architecture"])

	_, err = ExtractTowers(strings.NewReader(`<html><script>var other = [];</script></html>`))
	assert.ErrorIs(t, err, ErrHookMissing)

	_, err = ExtractTowers(strings.NewReader(`<script>var buildings = [{"name": </script>`))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrHookMissing)
}

func TestParseOptions(t *testing.T) {
	options, err := ParseOptions(strings.NewReader(searchPage), "base_height_range")
	require.NoError(t, err)
	assert.Equal(t, []Option{
		{Label: "All", Value: "0"},
		{Label: "150m+", Value: "3"},
		{Label: "200m+", Value: "4"},
	}, options)

	_, err = ParseOptions(strings.NewReader(searchPage), "missing")
	assert.Error(t, err)
}

func TestLoadCodes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultPage), []byte(searchPage), 0o644))

	codes, err := LoadCodes(dir)
	require.NoError(t, err)

	assert.Equal(t, []string{"Chicago", "New York City", "Ho Chi Minh City"}, codes.CityNames())

	code, ok := codes.CityCode("new york city")
	assert.True(t, ok)
	assert.Equal(t, "12", code)

	code, ok = codes.HeightRangeCode("200m+")
	assert.True(t, ok)
	assert.Equal(t, "4", code)

	_, ok = codes.CityCode("Atlantis")
	assert.False(t, ok)

	_, err = LoadCodes(t.TempDir())
	assert.Error(t, err)
}

func TestClient_FetchCity(t *testing.T) {
	var gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		switch r.URL.Query().Get("base_city") {
		case "7":
			w.Write([]byte(cityPage))
		case "99":
			w.Write([]byte(`<html><body>maintenance</body></html>`))
		default:
			http.Error(w, "nope", http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	client := NewClient(server.URL+"/cities?base_city=%s&base_height_range=%s", 5*time.Second)
	ctx := context.Background()

	t.Run("page with buildings", func(t *testing.T) {
		towers, err := client.FetchCity(ctx, "Chicago", "7", "0")
		require.NoError(t, err)
		assert.Len(t, towers, 2)
		assert.Equal(t, "base_city=7&base_height_range=0", gotQuery)
	})

	t.Run("codes are escaped", func(t *testing.T) {
		assert.Equal(t,
			server.URL+"/cities?base_city=a+b&base_height_range=150m%2B",
			client.CityURL("a b", "150m+"))
	})

	t.Run("page without hook", func(t *testing.T) {
		_, err := client.FetchCity(ctx, "Atlantis", "99", "0")
		var wrongFormat *PageWrongFormatError
		require.True(t, errors.As(err, &wrongFormat))
		assert.Equal(t, "Atlantis", wrongFormat.City)
		assert.Contains(t, wrongFormat.URL, "base_city=99")
		assert.Contains(t, err.Error(), `"var buildings ="`)
		assert.False(t, wrongFormat.IsTransient())
	})

	t.Run("server error", func(t *testing.T) {
		_, err := client.FetchCity(ctx, "Nowhere", "1", "0")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected status 500")
	})

	t.Run("cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := client.FetchCity(cancelled, "Chicago", "7", "0")
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestTrim(t *testing.T) {
	towers := []models.RawTower{
		{"name": "a", "height_architecture": "442.1"},
		{"name": "b", "height_architecture": "-"},
		{"name": "c", "height_architecture": 60.0},
		{"name": "d"},
		{"name": "e", "height_architecture": "75"},
	}

	tests := []struct {
		name string
		opts TrimOptions
		want []string
	}{
		{"no floor still drops heightless", TrimOptions{}, []string{"a", "c", "e"}},
		{"floor is inclusive", TrimOptions{HeightFloor: 75}, []string{"a", "e"}},
		{"high floor", TrimOptions{HeightFloor: 400}, []string{"a"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kept, err := Trim(towers, tt.opts)
			require.NoError(t, err)

			var names []string
			for _, tower := range kept {
				names = append(names, tower["name"].(string))
			}
			assert.Equal(t, tt.want, names)
		})
	}

	_, err := Trim([]models.RawTower{{"height_architecture": "tall"}}, TrimOptions{})
	var validation *models.ValidationError
	assert.True(t, errors.As(err, &validation))
}

func TestTrimOptions_AtLeast(t *testing.T) {
	raised, ok := TrimOptions{HeightFloor: 0}.AtLeast(75)
	assert.True(t, ok)
	assert.Equal(t, 75.0, raised.HeightFloor)

	kept, ok := TrimOptions{HeightFloor: 150}.AtLeast(75)
	assert.False(t, ok)
	assert.Equal(t, 150.0, kept.HeightFloor)
}
