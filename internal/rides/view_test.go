package rides

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/bike-sharing-dashboard/internal/source"
	"github.com/i474232898/bike-sharing-dashboard/internal/table"
)

func loadFixtures(t *testing.T) (daily, hourly *table.Table) {
	t.Helper()
	src := source.Dir{Root: "testdata"}
	ctx := context.Background()

	daily, err := LoadTable(ctx, src, "day.csv")
	require.NoError(t, err)
	hourly, err = LoadTable(ctx, src, "hour.csv")
	require.NoError(t, err)
	return daily, hourly
}

func day(s string) *time.Time {
	d, err := time.Parse(table.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return &d
}

func TestBuildViewFullRange(t *testing.T) {
	daily, hourly := loadFixtures(t)

	v, err := BuildView(daily, hourly, FilterState{})
	require.NoError(t, err)

	assert.False(t, v.Empty)
	assert.Equal(t, DateSpan{Start: "2011-01-01", End: "2012-07-01"}, v.Range)
	assert.Equal(t, Summary{
		Days:       5,
		Casual:     1182,
		Registered: 4953,
		Total:      6135,
		MeanDaily:  1227,
		MaxDaily:   2000,
	}, v.Summary)

	assert.Equal(t, []MonthlyPoint{
		{Month: "2011-01", Count: 3135},
		{Month: "2011-04", Count: 1000},
		{Month: "2012-07", Count: 2000},
	}, v.MonthlyTrend)

	assert.Equal(t, []WeekdayUsage{
		{Weekday: 0, Label: "Sunday", Count: 2801},
		{Weekday: 1, Label: "Monday", Count: 1349},
		{Weekday: 5, Label: "Friday", Count: 1000},
		{Weekday: 6, Label: "Saturday", Count: 985},
	}, v.WeekdayUsage)

	assert.Equal(t, []SeasonUsage{
		{Season: 1, Label: "spring", Casual: 17, Registered: 208, Total: 225},
		{Season: 3, Label: "fall", Casual: 50, Registered: 150, Total: 200},
		{Season: 2, Label: "summer", Casual: 10, Registered: 90, Total: 100},
	}, v.SeasonalUsage)

	assert.Equal(t, []WindPoint{
		{WindSpeed: 0, Count: 56},
		{WindSpeed: 0.1, Count: 300},
		{WindSpeed: 0.2985, Count: 169},
	}, v.WindspeedEffect)

	require.Len(t, v.WeatherUsage, 2)
	assert.Equal(t, WeatherUsage{Weather: 1, Label: "clear", MeanDaily: 1674.5, Days: 2}, v.WeatherUsage[0])
	assert.Equal(t, 2, v.WeatherUsage[1].Weather)
	assert.Equal(t, 3, v.WeatherUsage[1].Days)
	assert.InDelta(t, 2786.0/3, v.WeatherUsage[1].MeanDaily, 1e-9)

	assert.Equal(t, Heatmap{
		Weekdays: []string{"Sunday", "Monday", "Friday", "Saturday"},
		Hours:    []int{0, 1, 8, 17},
		Values: [][]float64{
			{17, 0, 0, 200},
			{0, 0, 152, 0},
			{0, 0, 100, 0},
			{16, 40, 0, 0},
		},
	}, v.HourlyHeatmap)
}

func TestBuildViewDateRange(t *testing.T) {
	daily, hourly := loadFixtures(t)

	v, err := BuildView(daily, hourly, FilterState{Start: day("2011-01-01"), End: day("2011-01-02")})
	require.NoError(t, err)

	assert.Equal(t, DateSpan{Start: "2011-01-01", End: "2011-01-02"}, v.Range)
	assert.Equal(t, 2, v.Summary.Days)
	assert.Equal(t, 1786.0, v.Summary.Total)
	require.Len(t, v.SeasonalUsage, 1)
	assert.Equal(t, 73.0, v.SeasonalUsage[0].Total)
}

func TestBuildViewOpenBoundDefaultsToTable(t *testing.T) {
	daily, hourly := loadFixtures(t)

	v, err := BuildView(daily, hourly, FilterState{Start: day("2011-04-01")})
	require.NoError(t, err)

	assert.Equal(t, DateSpan{Start: "2011-04-01", End: "2012-07-01"}, v.Range)
	assert.Equal(t, 2, v.Summary.Days)
	assert.Equal(t, 3000.0, v.Summary.Total)
}

func TestBuildViewYear(t *testing.T) {
	daily, hourly := loadFixtures(t)
	year := 2012

	v, err := BuildView(daily, hourly, FilterState{Year: &year})
	require.NoError(t, err)

	assert.Equal(t, &year, v.Year)
	assert.Equal(t, 1, v.Summary.Days)
	assert.Equal(t, 2000.0, v.Summary.Total)
	assert.Equal(t, []MonthlyPoint{{Month: "2012-07", Count: 2000}}, v.MonthlyTrend)
}

func TestBuildViewEmptySelection(t *testing.T) {
	daily, hourly := loadFixtures(t)

	v, err := BuildView(daily, hourly, FilterState{Start: day("2011-05-01"), End: day("2011-06-30")})
	require.NoError(t, err)

	assert.True(t, v.Empty)
	assert.Equal(t, Summary{}, v.Summary)
	assert.Empty(t, v.MonthlyTrend)
	assert.NotNil(t, v.MonthlyTrend)
	assert.Empty(t, v.WeekdayUsage)
	assert.Empty(t, v.SeasonalUsage)
	assert.Empty(t, v.WindspeedEffect)
	assert.Empty(t, v.WeatherUsage)
	assert.Empty(t, v.HourlyHeatmap.Values)
}

func TestBuildViewInvalidRange(t *testing.T) {
	daily, hourly := loadFixtures(t)

	_, err := BuildView(daily, hourly, FilterState{Start: day("2011-02-01"), End: day("2011-01-01")})
	require.Error(t, err)
	assert.ErrorIs(t, err, table.ErrInvalidRange)
}

func TestBuildViewIsRepeatable(t *testing.T) {
	daily, hourly := loadFixtures(t)
	state := FilterState{Start: day("2011-01-01"), End: day("2011-04-01")}

	first, err := BuildView(daily, hourly, state)
	require.NoError(t, err)
	second, err := BuildView(daily, hourly, state)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 5, daily.Len())
}

func TestFilterStateOnEmptyTable(t *testing.T) {
	daily, hourly := loadFixtures(t)
	empty := daily.Filter(func([]any) bool { return false })

	_, ok, err := FilterState{}.Resolve(empty)
	require.NoError(t, err)
	assert.False(t, ok)

	v, err := BuildView(empty, hourly.Filter(func([]any) bool { return false }), FilterState{})
	require.NoError(t, err)
	assert.True(t, v.Empty)
	assert.Equal(t, DateSpan{}, v.Range)
}

func TestBuildViewOpenBoundPastTheData(t *testing.T) {
	daily, hourly := loadFixtures(t)

	tests := []struct {
		name  string
		state FilterState
		want  DateSpan
	}{
		{"start after last day", FilterState{Start: day("2013-01-01")}, DateSpan{Start: "2013-01-01", End: "2013-01-01"}},
		{"end before first day", FilterState{End: day("2010-06-30")}, DateSpan{Start: "2010-06-30", End: "2010-06-30"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := BuildView(daily, hourly, tt.state)
			require.NoError(t, err)
			assert.True(t, v.Empty)
			assert.Equal(t, tt.want, v.Range)
			assert.Equal(t, Summary{}, v.Summary)
		})
	}
}

func TestBuildViewHeaderOnlyTables(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"day.csv", "hour.csv"} {
		body, err := os.ReadFile(filepath.Join("testdata", name))
		require.NoError(t, err)
		header, _, _ := strings.Cut(string(body), "\n")
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(header+"\n"), 0o644))
	}
	src := source.Dir{Root: dir}
	ctx := context.Background()

	daily, err := LoadTable(ctx, src, "day.csv")
	require.NoError(t, err)
	hourly, err := LoadTable(ctx, src, "hour.csv")
	require.NoError(t, err)

	c, err := daily.Column(ColSeason)
	require.NoError(t, err)
	assert.Equal(t, table.KindInt, c.Kind)
	c, err = hourly.Column(ColTemp)
	require.NoError(t, err)
	assert.Equal(t, table.KindFloat, c.Kind)

	v, err := BuildView(daily, hourly, FilterState{})
	require.NoError(t, err)
	assert.True(t, v.Empty)
	assert.Equal(t, Summary{}, v.Summary)

	v, err = BuildView(daily, hourly, FilterState{Start: day("2011-01-01")})
	require.NoError(t, err)
	assert.True(t, v.Empty)
}
