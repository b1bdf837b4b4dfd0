package rides

import (
	"time"
)

// Season is the calendar season code of the dataset.
type Season int

const (
	SeasonSpring Season = iota + 1
	SeasonSummer
	SeasonFall
	SeasonWinter
)

func (s Season) String() string {
	switch s {
	case SeasonSpring:
		return "spring"
	case SeasonSummer:
		return "summer"
	case SeasonFall:
		return "fall"
	case SeasonWinter:
		return "winter"
	}
	return "unknown"
}

// WeatherSituation is an ordinal severity code, 1 being the mildest.
type WeatherSituation int

const (
	WeatherClear WeatherSituation = iota + 1
	WeatherMist
	WeatherLightPrecipitation
	WeatherHeavyPrecipitation
)

func (w WeatherSituation) String() string {
	switch w {
	case WeatherClear:
		return "clear"
	case WeatherMist:
		return "mist"
	case WeatherLightPrecipitation:
		return "light precipitation"
	case WeatherHeavyPrecipitation:
		return "heavy precipitation"
	}
	return "unknown"
}

// DailyRecord is one row of the daily table. Count is always Casual plus
// Registered. Temperature, FeelsLike, Humidity and WindSpeed are normalized
// to [0, 1].
type DailyRecord struct {
	Instant    int              `json:"instant"`
	Date       time.Time        `json:"date"`
	Season     Season           `json:"season"`
	Year       int              `json:"yr"`
	Month      int              `json:"mnth"`
	Holiday    bool             `json:"holiday"`
	Weekday    time.Weekday     `json:"weekday"`
	WorkingDay bool             `json:"workingday"`
	Weather    WeatherSituation `json:"weathersit"`
	Temp       float64          `json:"temp"`
	FeelsLike  float64          `json:"atemp"`
	Humidity   float64          `json:"hum"`
	WindSpeed  float64          `json:"windspeed"`
	Casual     int              `json:"casual"`
	Registered int              `json:"registered"`
	Count      int              `json:"cnt"`
}

// HourlyRecord is one row of the hourly table.
type HourlyRecord struct {
	DailyRecord
	Hour int `json:"hr"`
}

// MergedRecord is one row of the hourly table joined with its day. Fields
// present on both sides carry the _hour or _day suffix.
type MergedRecord struct {
	Date string `parquet:"name=dteday, type=BYTE_ARRAY, convertedtype=UTF8"`
	Hour int32  `parquet:"name=hr, type=INT32"`

	InstantHour    int64   `parquet:"name=instant_hour, type=INT64"`
	SeasonHour     int32   `parquet:"name=season_hour, type=INT32"`
	YearHour       int32   `parquet:"name=yr_hour, type=INT32"`
	MonthHour      int32   `parquet:"name=mnth_hour, type=INT32"`
	HolidayHour    int32   `parquet:"name=holiday_hour, type=INT32"`
	WeekdayHour    int32   `parquet:"name=weekday_hour, type=INT32"`
	WorkingDayHour int32   `parquet:"name=workingday_hour, type=INT32"`
	WeatherHour    int32   `parquet:"name=weathersit_hour, type=INT32"`
	TempHour       float64 `parquet:"name=temp_hour, type=DOUBLE"`
	FeelsLikeHour  float64 `parquet:"name=atemp_hour, type=DOUBLE"`
	HumidityHour   float64 `parquet:"name=hum_hour, type=DOUBLE"`
	WindSpeedHour  float64 `parquet:"name=windspeed_hour, type=DOUBLE"`
	CasualHour     int64   `parquet:"name=casual_hour, type=INT64"`
	RegisteredHour int64   `parquet:"name=registered_hour, type=INT64"`
	CountHour      int64   `parquet:"name=cnt_hour, type=INT64"`

	InstantDay    int64   `parquet:"name=instant_day, type=INT64"`
	SeasonDay     int32   `parquet:"name=season_day, type=INT32"`
	YearDay       int32   `parquet:"name=yr_day, type=INT32"`
	MonthDay      int32   `parquet:"name=mnth_day, type=INT32"`
	HolidayDay    int32   `parquet:"name=holiday_day, type=INT32"`
	WeekdayDay    int32   `parquet:"name=weekday_day, type=INT32"`
	WorkingDayDay int32   `parquet:"name=workingday_day, type=INT32"`
	WeatherDay    int32   `parquet:"name=weathersit_day, type=INT32"`
	TempDay       float64 `parquet:"name=temp_day, type=DOUBLE"`
	FeelsLikeDay  float64 `parquet:"name=atemp_day, type=DOUBLE"`
	HumidityDay   float64 `parquet:"name=hum_day, type=DOUBLE"`
	WindSpeedDay  float64 `parquet:"name=windspeed_day, type=DOUBLE"`
	CasualDay     int64   `parquet:"name=casual_day, type=INT64"`
	RegisteredDay int64   `parquet:"name=registered_day, type=INT64"`
	CountDay      int64   `parquet:"name=cnt_day, type=INT64"`
}
