package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/bike-sharing-dashboard/internal/metrics"
	"github.com/i474232898/bike-sharing-dashboard/internal/rides"
	"github.com/i474232898/bike-sharing-dashboard/internal/source"
	"github.com/i474232898/bike-sharing-dashboard/internal/store"
	"github.com/i474232898/bike-sharing-dashboard/internal/table"
)

const (
	dayCSV = `instant,dteday,season,yr,mnth,holiday,weekday,workingday,weathersit,temp,atemp,hum,windspeed,casual,registered,cnt
1,2011-01-01,1,0,1,0,6,0,2,0.344167,0.363625,0.805833,0.160446,331,654,985
2,2011-01-02,1,0,1,0,0,0,2,0.363478,0.353739,0.696087,0.248539,131,670,801
3,2012-07-01,3,1,7,0,0,0,1,0.8,0.75,0.5,0.1,500,1500,2000
`
	hourCSV = `instant,dteday,season,yr,mnth,hr,holiday,weekday,workingday,weathersit,temp,atemp,hum,windspeed,casual,registered,cnt
1,2011-01-01,1,0,1,0,0,6,0,1,0.24,0.2879,0.81,0.0,3,13,16
2,2011-01-02,1,0,1,0,0,0,0,2,0.46,0.4545,0.88,0.2985,4,13,17
3,2012-07-01,3,1,7,17,0,0,0,1,0.8,0.7576,0.5,0.1,50,150,200
`
)

// newTestApp serves the fixtures from a temp dir. Files maps names to
// contents; nil uses both fixtures.
func newTestApp(t *testing.T, files map[string]string) *fiber.App {
	t.Helper()
	if files == nil {
		files = map[string]string{"day.csv": dayCSV, "hour.csv": hourCSV}
	}
	dir := t.TempDir()
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}

	src := source.Dir{Root: dir}
	rec := metrics.New()
	cache := store.NewTableCache(func(ctx context.Context, path string) (*table.Table, error) {
		return rides.LoadTable(ctx, src, path)
	}, rec)

	app := fiber.New()
	RegisterRoutes(app, rides.NewService(cache, "day.csv", "hour.csv"), rec)
	return app
}

func get(t *testing.T, app *fiber.App, target string) (int, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, body
}

func TestBounds(t *testing.T) {
	app := newTestApp(t, nil)

	code, body := get(t, app, "/api/v1/bounds")
	require.Equal(t, http.StatusOK, code)

	var b rides.Bounds
	require.NoError(t, json.Unmarshal(body, &b))
	assert.Equal(t, rides.Bounds{Start: "2011-01-01", End: "2012-07-01", Years: []int{2011, 2012}}, b)
}

func TestDashboard(t *testing.T) {
	app := newTestApp(t, nil)

	code, body := get(t, app, "/api/v1/dashboard?start=2011-01-01&end=2011-01-02")
	require.Equal(t, http.StatusOK, code)

	var v rides.View
	require.NoError(t, json.Unmarshal(body, &v))
	assert.False(t, v.Empty)
	assert.Equal(t, 2, v.Summary.Days)
	assert.Equal(t, 1786.0, v.Summary.Total)
	assert.Len(t, v.MonthlyTrend, 1)
}

func TestDashboardEmptySelection(t *testing.T) {
	app := newTestApp(t, nil)

	code, body := get(t, app, "/api/v1/dashboard?start=2011-03-01&end=2011-03-31")
	require.Equal(t, http.StatusOK, code)

	var v rides.View
	require.NoError(t, json.Unmarshal(body, &v))
	assert.True(t, v.Empty)
	assert.Zero(t, v.Summary.Days)
}

func TestDashboardOpenBoundPastTheData(t *testing.T) {
	app := newTestApp(t, nil)

	for _, target := range []string{
		"/api/v1/dashboard?start=2013-01-01",
		"/api/v1/dashboard?end=2010-12-31",
	} {
		code, body := get(t, app, target)
		require.Equal(t, http.StatusOK, code, target)

		var v rides.View
		require.NoError(t, json.Unmarshal(body, &v))
		assert.True(t, v.Empty, target)
	}
}

func TestDashboardBadQueries(t *testing.T) {
	app := newTestApp(t, nil)

	for _, target := range []string{
		"/api/v1/dashboard?start=2011-02-01&end=2011-01-01",
		"/api/v1/dashboard?start=01/02/2011",
		"/api/v1/dashboard?year=twenty",
		"/api/v1/summary?end=2011-13-01",
	} {
		code, body := get(t, app, target)
		assert.Equal(t, http.StatusBadRequest, code, target)
		assert.NotEmpty(t, body, target)
	}
}

func TestSummaryYear(t *testing.T) {
	app := newTestApp(t, nil)

	code, body := get(t, app, "/api/v1/summary?year=2012")
	require.Equal(t, http.StatusOK, code)

	var s rides.Summary
	require.NoError(t, json.Unmarshal(body, &s))
	assert.Equal(t, rides.Summary{Days: 1, Casual: 500, Registered: 1500, Total: 2000, MeanDaily: 2000, MaxDaily: 2000}, s)
}

func TestAggregate(t *testing.T) {
	app := newTestApp(t, nil)

	code, body := get(t, app, "/api/v1/aggregate?by=weekday")
	require.Equal(t, http.StatusOK, code)

	var out struct {
		Dataset string        `json:"dataset"`
		Reduce  string        `json:"reduce"`
		Groups  []table.Group `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	assert.Equal(t, "day", out.Dataset)
	assert.Equal(t, "sum", out.Reduce)
	require.Len(t, out.Groups, 2)
	assert.Equal(t, 2801.0, out.Groups[0].Value)
	assert.Equal(t, 985.0, out.Groups[1].Value)

	code, body = get(t, app, "/api/v1/aggregate?dataset=hour&by=season&reduce=max&sort=value")
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out.Groups, 2)
	assert.Equal(t, 200.0, out.Groups[0].Value)
	assert.Equal(t, 17.0, out.Groups[1].Value)
}

func TestAggregateByDate(t *testing.T) {
	app := newTestApp(t, nil)

	code, body := get(t, app, "/api/v1/aggregate?by=dteday")
	require.Equal(t, http.StatusOK, code)

	var out struct {
		Groups []table.Group `json:"groups"`
	}
	require.NoError(t, json.Unmarshal(body, &out))
	require.Len(t, out.Groups, 3)
	assert.Equal(t, "2011-01-01", out.Groups[0].Key)
	assert.Equal(t, "2012-07-01", out.Groups[2].Key)
	assert.Equal(t, 2000.0, out.Groups[2].Value)
}

func TestAggregateBadQueries(t *testing.T) {
	app := newTestApp(t, nil)

	for _, target := range []string{
		"/api/v1/aggregate",
		"/api/v1/aggregate?by=weekday&dataset=week",
		"/api/v1/aggregate?by=weekday&reduce=median",
		"/api/v1/aggregate?by=nope",
		"/api/v1/aggregate?by=weekday&column=nope",
		"/api/v1/aggregate?by=weekday&column=dteday",
	} {
		code, _ := get(t, app, target)
		assert.Equal(t, http.StatusBadRequest, code, target)
	}
}

func TestMissingSource(t *testing.T) {
	app := newTestApp(t, map[string]string{"day.csv": dayCSV})

	code, _ := get(t, app, "/api/v1/dashboard")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestMalformedSource(t *testing.T) {
	app := newTestApp(t, map[string]string{"day.csv": "dteday,cnt\nnot-a-date,1\n", "hour.csv": hourCSV})

	code, _ := get(t, app, "/api/v1/bounds")
	assert.Equal(t, http.StatusInternalServerError, code)
}

func TestReload(t *testing.T) {
	app := newTestApp(t, nil)

	code, _ := get(t, app, "/api/v1/bounds")
	require.Equal(t, http.StatusOK, code)

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/api/v1/reload", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
