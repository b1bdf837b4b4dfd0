package rides

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/i474232898/bike-sharing-dashboard/internal/table"
)

// Store is the load-by-path table cache the service reads through.
type Store interface {
	Get(ctx context.Context, path string) (*table.Table, error)
	ReloadAll(ctx context.Context) error
}

// Dataset selects which source table an aggregation runs over.
type Dataset string

const (
	DatasetDaily  Dataset = "day"
	DatasetHourly Dataset = "hour"
)

// AggregateQuery is an ad-hoc grouped reduction over a filtered dataset.
type AggregateQuery struct {
	Filter    FilterState
	Dataset   Dataset
	GroupBy   string
	Column    string
	Reducer   table.Reducer
	SortValue bool
}

// Bounds describes the date coverage of the daily table.
type Bounds struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Years []int  `json:"years"`
}

// Service renders dashboard views over the cached daily and hourly tables.
type Service struct {
	store      Store
	dailyPath  string
	hourlyPath string
}

// NewService creates a new Service.
func NewService(store Store, dailyPath, hourlyPath string) *Service {
	return &Service{
		store:      store,
		dailyPath:  dailyPath,
		hourlyPath: hourlyPath,
	}
}

func (s *Service) tables(ctx context.Context) (daily, hourly *table.Table, err error) {
	if daily, err = s.store.Get(ctx, s.dailyPath); err != nil {
		return nil, nil, fmt.Errorf("load daily table: %w", err)
	}
	if hourly, err = s.store.Get(ctx, s.hourlyPath); err != nil {
		return nil, nil, fmt.Errorf("load hourly table: %w", err)
	}
	return daily, hourly, nil
}

// Render builds the view for state.
func (s *Service) Render(ctx context.Context, state FilterState) (View, error) {
	daily, hourly, err := s.tables(ctx)
	if err != nil {
		return View{}, err
	}
	v, err := BuildView(daily, hourly, state)
	if err != nil {
		return View{}, err
	}
	slog.DebugContext(ctx, "rendered view",
		slog.String("start", v.Range.Start),
		slog.String("end", v.Range.End),
		slog.Int("days", v.Summary.Days),
		slog.Bool("empty", v.Empty))
	return v, nil
}

// Summary returns only the headline metrics for state.
func (s *Service) Summary(ctx context.Context, state FilterState) (Summary, error) {
	daily, hourly, err := s.tables(ctx)
	if err != nil {
		return Summary{}, err
	}
	d, _, _, err := state.Filter(daily, hourly)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(d)
}

// Aggregate runs q. GroupBy is "month" or a column name.
func (s *Service) Aggregate(ctx context.Context, q AggregateQuery) ([]table.Group, error) {
	daily, hourly, err := s.tables(ctx)
	if err != nil {
		return nil, err
	}
	d, h, _, err := q.Filter.Filter(daily, hourly)
	if err != nil {
		return nil, err
	}

	t := d
	if q.Dataset == DatasetHourly {
		t = h
	}

	g := table.ByColumn(groupColumn(q.GroupBy))
	if q.GroupBy == "month" {
		g = table.ByMonth()
	}
	var opts []table.AggregateOption
	if q.SortValue {
		opts = append(opts, table.SortByValueDesc())
	}
	return t.Aggregate(g, q.Column, q.Reducer, opts...)
}

// groupColumn maps the dashboard's grouping names onto columns.
func groupColumn(name string) string {
	switch name {
	case "weather":
		return ColWeather
	case "hour":
		return ColHour
	}
	return name
}

// Bounds reports the daily table's first and last date and its years.
func (s *Service) Bounds(ctx context.Context) (Bounds, error) {
	daily, err := s.store.Get(ctx, s.dailyPath)
	if err != nil {
		return Bounds{}, fmt.Errorf("load daily table: %w", err)
	}
	first, last, ok, err := daily.DateBounds()
	if err != nil {
		return Bounds{}, err
	}
	years, err := daily.Years()
	if err != nil {
		return Bounds{}, err
	}
	b := Bounds{Years: years}
	if ok {
		b.Start = first.Format(table.DateLayout)
		b.End = last.Format(table.DateLayout)
	}
	return b, nil
}

// Reload re-reads every cached table.
func (s *Service) Reload(ctx context.Context) error {
	return s.store.ReloadAll(ctx)
}
