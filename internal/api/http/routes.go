package httpapi

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/bike-sharing-dashboard/internal/metrics"
	"github.com/i474232898/bike-sharing-dashboard/internal/rides"
	"github.com/i474232898/bike-sharing-dashboard/internal/table"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app. rec may be nil.
func RegisterRoutes(app *fiber.App, service *rides.Service, rec *metrics.Recorder) {
	v1 := app.Group("/api/v1")

	v1.Get("/bounds", instrument(rec, "bounds", func(c *fiber.Ctx) error {
		b, err := service.Bounds(c.UserContext())
		if err != nil {
			return toFiberError(err, "failed to read date bounds")
		}
		return c.JSON(b)
	}))

	v1.Get("/dashboard", instrument(rec, "dashboard", func(c *fiber.Ctx) error {
		var q rangeQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		view, err := service.Render(c.UserContext(), q.state())
		if err != nil {
			return toFiberError(err, "failed to render dashboard")
		}
		if view.Empty {
			c.Locals(outcomeKey, "empty")
		}
		return c.JSON(view)
	}))

	v1.Get("/summary", instrument(rec, "summary", func(c *fiber.Ctx) error {
		var q rangeQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		s, err := service.Summary(c.UserContext(), q.state())
		if err != nil {
			return toFiberError(err, "failed to summarize")
		}
		if s.Days == 0 {
			c.Locals(outcomeKey, "empty")
		}
		return c.JSON(s)
	}))

	v1.Get("/aggregate", instrument(rec, "aggregate", func(c *fiber.Ctx) error {
		var q aggregateQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		aq, err := q.toQuery()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		groups, err := service.Aggregate(c.UserContext(), aq)
		if err != nil {
			return toFiberError(err, "failed to aggregate")
		}
		if len(groups) == 0 {
			c.Locals(outcomeKey, "empty")
		}

		return c.JSON(fiber.Map{
			"dataset": q.Dataset,
			"by":      q.By,
			"reduce":  aq.Reducer.String(),
			"column":  q.Column,
			"groups":  groups,
		})
	}))

	v1.Post("/reload", instrument(rec, "reload", func(c *fiber.Ctx) error {
		if err := service.Reload(c.UserContext()); err != nil {
			return toFiberError(err, "failed to reload tables")
		}
		return c.JSON(fiber.Map{"status": "reloaded"})
	}))
}

const outcomeKey = "outcome"

func instrument(rec *metrics.Recorder, endpoint string, h fiber.Handler) fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := h(c)
		outcome := "ok"
		if err != nil {
			outcome = "error"
		} else if o, ok := c.Locals(outcomeKey).(string); ok {
			outcome = o
		}
		rec.Request(endpoint, outcome)
		return err
	}
}

// toFiberError maps service errors onto HTTP statuses. Unexpected failures
// are logged and reported with msg only.
func toFiberError(err error, msg string) error {
	switch {
	case errors.Is(err, table.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, table.ErrParse):
		slog.Error(msg, slog.String("error", err.Error()))
		return fiber.NewError(fiber.StatusInternalServerError, msg)
	case errors.Is(err, table.ErrInvalidRange),
		errors.Is(err, table.ErrColumnNotFound),
		errors.Is(err, table.ErrKindMismatch):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	slog.Error(msg, slog.String("error", err.Error()))
	return fiber.NewError(fiber.StatusInternalServerError, msg)
}

// rangeQuery holds the date filter shared by the dashboard endpoints.
type rangeQuery struct {
	Start time.Time
	End   time.Time `validate:"omitempty,gtefield=Start"`
	Year  int       `validate:"omitempty,min=1,max=9999"`
}

func (q *rangeQuery) bind(c *fiber.Ctx) error {
	var err error
	if q.Start, err = parseDate(c.Query("start")); err != nil {
		return err
	}
	if q.End, err = parseDate(c.Query("end")); err != nil {
		return err
	}
	if y := c.Query("year"); y != "" {
		if q.Year, err = strconv.Atoi(y); err != nil {
			return errors.New("invalid year")
		}
	}
	if err := validate.Struct(q); err != nil {
		return err
	}
	return nil
}

func (q rangeQuery) state() rides.FilterState {
	var s rides.FilterState
	if !q.Start.IsZero() {
		s.Start = &q.Start
	}
	if !q.End.IsZero() {
		s.End = &q.End
	}
	if q.Year != 0 {
		s.Year = &q.Year
	}
	return s
}

// aggregateQuery holds query parameters for the aggregate endpoint.
type aggregateQuery struct {
	Range   rangeQuery
	Dataset string `validate:"oneof=day hour"`
	By      string `validate:"required"`
	Reduce  string `validate:"oneof=sum mean avg max"`
	Column  string `validate:"required"`
	Sort    string `validate:"omitempty,oneof=key value"`
}

func (q *aggregateQuery) bind(c *fiber.Ctx) error {
	if err := q.Range.bind(c); err != nil {
		return err
	}
	q.Dataset = c.Query("dataset", string(rides.DatasetDaily))
	q.By = c.Query("by")
	q.Reduce = c.Query("reduce", "sum")
	q.Column = c.Query("column", rides.ColCount)
	q.Sort = c.Query("sort")

	if err := validate.Struct(q); err != nil {
		return err
	}
	return nil
}

func (q aggregateQuery) toQuery() (rides.AggregateQuery, error) {
	r, err := table.ParseReducer(q.Reduce)
	if err != nil {
		return rides.AggregateQuery{}, err
	}
	return rides.AggregateQuery{
		Filter:    q.Range.state(),
		Dataset:   rides.Dataset(q.Dataset),
		GroupBy:   q.By,
		Column:    q.Column,
		Reducer:   r,
		SortValue: q.Sort == "value",
	}, nil
}

// parseDate accepts YYYY-MM-DD. An empty string yields the zero time.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, err := time.Parse(table.DateLayout, s)
	if err != nil {
		return time.Time{}, errors.New("invalid date format; use YYYY-MM-DD")
	}
	return d, nil
}
