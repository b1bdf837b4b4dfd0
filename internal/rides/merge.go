package rides

import (
	"fmt"
	"log/slog"

	"github.com/i474232898/bike-sharing-dashboard/internal/table"
)

// Merge joins the hourly table with the daily one on dteday. Hourly rows
// whose date is missing from the daily table are dropped; callers that rely
// on row-count preservation must check stats.Dropped.
func Merge(hourly, daily *table.Table) (*table.Table, table.JoinStats, error) {
	merged, stats, err := table.InnerJoin(hourly, daily, ColDate, table.Suffixes{Left: SuffixHour, Right: SuffixDay})
	if err != nil {
		return nil, table.JoinStats{}, fmt.Errorf("merge hourly with daily: %w", err)
	}
	if stats.Dropped > 0 {
		slog.Warn("hourly rows without a matching day were dropped",
			slog.Int("dropped", stats.Dropped),
			slog.Int("kept", stats.Matched))
	}
	return merged, stats, nil
}

// MergedRecords converts a merged table into records for columnar export.
func MergedRecords(t *table.Table) ([]MergedRecord, error) {
	out := make([]MergedRecord, t.Len())
	for i := range out {
		r := &row{t: t, i: i}
		h := func(name string) string { return name + SuffixHour }
		d := func(name string) string { return name + SuffixDay }
		out[i] = MergedRecord{
			Date: r.date().Format(table.DateLayout),
			Hour: int32(r.num(ColHour)),

			InstantHour:    int64(r.opt(h(ColInstant))),
			SeasonHour:     int32(r.num(h(ColSeason))),
			YearHour:       int32(r.opt(h(ColYear))),
			MonthHour:      int32(r.opt(h(ColMonth))),
			HolidayHour:    int32(r.opt(h(ColHoliday))),
			WeekdayHour:    int32(r.num(h(ColWeekday))),
			WorkingDayHour: int32(r.opt(h(ColWorkingDay))),
			WeatherHour:    int32(r.num(h(ColWeather))),
			TempHour:       r.num(h(ColTemp)),
			FeelsLikeHour:  r.opt(h(ColFeelsLike)),
			HumidityHour:   r.num(h(ColHumidity)),
			WindSpeedHour:  r.num(h(ColWindSpeed)),
			CasualHour:     int64(r.num(h(ColCasual))),
			RegisteredHour: int64(r.num(h(ColRegistered))),
			CountHour:      int64(r.num(h(ColCount))),

			InstantDay:    int64(r.opt(d(ColInstant))),
			SeasonDay:     int32(r.num(d(ColSeason))),
			YearDay:       int32(r.opt(d(ColYear))),
			MonthDay:      int32(r.opt(d(ColMonth))),
			HolidayDay:    int32(r.opt(d(ColHoliday))),
			WeekdayDay:    int32(r.num(d(ColWeekday))),
			WorkingDayDay: int32(r.opt(d(ColWorkingDay))),
			WeatherDay:    int32(r.num(d(ColWeather))),
			TempDay:       r.num(d(ColTemp)),
			FeelsLikeDay:  r.opt(d(ColFeelsLike)),
			HumidityDay:   r.num(d(ColHumidity)),
			WindSpeedDay:  r.num(d(ColWindSpeed)),
			CasualDay:     int64(r.num(d(ColCasual))),
			RegisteredDay: int64(r.num(d(ColRegistered))),
			CountDay:      int64(r.num(d(ColCount))),
		}
		if r.err != nil {
			return nil, fmt.Errorf("row %d: %w", i, r.err)
		}
	}
	return out, nil
}
