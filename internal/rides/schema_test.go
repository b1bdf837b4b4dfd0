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

const dailyHeader = "dteday,season,weekday,weathersit,temp,hum,windspeed,casual,registered,cnt\n"

func readDaily(t *testing.T, body string) *table.Table {
	t.Helper()
	tbl, err := table.Read(strings.NewReader(dailyHeader+body), "day.csv", table.WithDateColumn(ColDate))
	require.NoError(t, err)
	return tbl
}

func TestLoadTableMissingSource(t *testing.T) {
	_, err := LoadTable(context.Background(), source.Dir{Root: t.TempDir()}, "day.csv")
	assert.ErrorIs(t, err, table.ErrNotFound)
}

func TestValidateDaily(t *testing.T) {
	tests := []struct {
		name string
		body string
		line int
	}{
		{"valid", "2011-01-01,1,6,2,0.3,0.8,0.2,1,2,3\n", 0},
		{"total mismatch", "2011-01-01,1,6,2,0.3,0.8,0.2,1,2,4\n", 2},
		{"duplicate day", "2011-01-01,1,6,2,0.3,0.8,0.2,1,2,3\n2011-01-01,1,6,2,0.3,0.8,0.2,1,2,3\n", 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDaily(readDaily(t, tt.body))
			if tt.line == 0 {
				assert.NoError(t, err)
				return
			}
			var perr *table.ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.line, perr.Line)
			assert.ErrorIs(t, err, table.ErrParse)
		})
	}
}

func TestValidateDailyDuplicateIsDuplicateKey(t *testing.T) {
	row := "2011-01-01,1,6,2,0.3,0.8,0.2,1,2,3\n"
	err := ValidateDaily(readDaily(t, row+row))
	assert.ErrorIs(t, err, table.ErrDuplicateKey)
}

func TestValidateMissingColumn(t *testing.T) {
	tbl, err := table.Read(strings.NewReader("dteday,cnt\n2011-01-01,3\n"), "day.csv", table.WithDateColumn(ColDate))
	require.NoError(t, err)

	err = ValidateDaily(tbl)
	assert.ErrorIs(t, err, table.ErrColumnNotFound)
	assert.ErrorIs(t, err, table.ErrParse)
}

func TestValidateHourly(t *testing.T) {
	header := "dteday,hr," + dailyHeader[len("dteday,"):]
	read := func(body string) *table.Table {
		tbl, err := table.Read(strings.NewReader(header+body), "hour.csv", table.WithDateColumn(ColDate))
		require.NoError(t, err)
		return tbl
	}

	ok := read("2011-01-01,0,1,6,2,0.3,0.8,0.2,1,2,3\n2011-01-01,1,1,6,2,0.3,0.8,0.2,1,2,3\n")
	assert.NoError(t, ValidateHourly(ok))

	dup := read("2011-01-01,5,1,6,2,0.3,0.8,0.2,1,2,3\n2011-01-01,5,1,6,2,0.3,0.8,0.2,1,2,3\n")
	assert.ErrorIs(t, ValidateHourly(dup), table.ErrDuplicateKey)

	var perr *table.ParseError
	late := read("2011-01-01,24,1,6,2,0.3,0.8,0.2,1,2,3\n")
	require.ErrorAs(t, ValidateHourly(late), &perr)
	assert.Equal(t, ColHour, perr.Column)
}

func TestLoadTableRejectsInvalidDaily(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, readDaily(t, "2011-01-01,1,6,2,0.3,0.8,0.2,1,2,9\n").WriteCSV(dir+"/day.csv"))

	_, err := LoadTable(context.Background(), source.Dir{Root: dir}, "day.csv")
	assert.ErrorIs(t, err, table.ErrParse)
}

func TestDailyAndHourlyRecords(t *testing.T) {
	daily, hourly := loadFixtures(t)

	days, err := DailyRecords(daily)
	require.NoError(t, err)
	require.Len(t, days, 5)
	assert.Equal(t, time.Saturday, days[0].Weekday)
	assert.Equal(t, SeasonSpring, days[0].Season)
	assert.Equal(t, WeatherMist, days[0].Weather)
	assert.Equal(t, 985, days[0].Count)
	assert.Equal(t, days[0].Casual+days[0].Registered, days[0].Count)
	assert.True(t, days[2].WorkingDay)

	hours, err := HourlyRecords(hourly)
	require.NoError(t, err)
	require.Len(t, hours, 6)
	assert.Equal(t, 17, hours[5].Hour)
	assert.Equal(t, 2012, hours[5].Date.Year())
}

func TestValidateDailyCodeRanges(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		column string
	}{
		{"season zero", "2011-01-01,0,6,2,0.3,0.8,0.2,1,2,3\n", ColSeason},
		{"season five", "2011-01-01,5,6,2,0.3,0.8,0.2,1,2,3\n", ColSeason},
		{"weekday seven", "2011-01-01,1,7,2,0.3,0.8,0.2,1,2,3\n", ColWeekday},
		{"weekday negative", "2011-01-01,1,-1,2,0.3,0.8,0.2,1,2,3\n", ColWeekday},
		{"weather zero", "2011-01-01,1,6,0,0.3,0.8,0.2,1,2,3\n", ColWeather},
		{"weather five", "2011-01-02,1,6,5,0.3,0.8,0.2,1,2,3\n", ColWeather},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDaily(readDaily(t, tt.body))
			var perr *table.ParseError
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.column, perr.Column)
			assert.Equal(t, 2, perr.Line)
			assert.NotEmpty(t, perr.Value)
		})
	}

	assert.NoError(t, ValidateDaily(readDaily(t, "2011-01-01,4,0,4,0.3,0.8,0.2,1,2,3\n")))
}

func TestLoadTableErrorsNameTheSource(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "day.csv"),
		[]byte(dailyHeader+"2011-01-01,1,9,2,0.3,0.8,0.2,1,2,3\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "short.csv"),
		[]byte("dteday,season,cnt\n2011-01-01,1,3\n"), 0o644))

	for _, name := range []string{"day.csv", "short.csv"} {
		_, err := LoadTable(context.Background(), source.Dir{Root: dir}, name)
		var perr *table.ParseError
		require.ErrorAs(t, err, &perr, name)
		assert.Equal(t, name, perr.Path)
		assert.NotContains(t, err.Error(), "  ")
	}
}

func TestLoadTableHeaderOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "day.csv"), []byte(dailyHeader), 0o644))

	tbl, err := LoadTable(context.Background(), source.Dir{Root: dir}, "day.csv")
	require.NoError(t, err)
	assert.Equal(t, 0, tbl.Len())
	c, err := tbl.Column(ColCount)
	require.NoError(t, err)
	assert.Equal(t, table.KindInt, c.Kind)
}
