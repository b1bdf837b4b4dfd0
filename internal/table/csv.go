package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
)

// CSVConfig controls reading and writing delimited text.
type CSVConfig struct {
	Delimiter   rune
	DateColumn  string
	DateLayout  string
	ColumnKinds map[string]Kind
}

// CSVOption mutates a CSVConfig.
type CSVOption func(*CSVConfig)

// WithDelimiter sets the field delimiter (default ',').
func WithDelimiter(delimiter rune) CSVOption {
	return func(c *CSVConfig) {
		c.Delimiter = delimiter
	}
}

// WithDateColumn names the column parsed as the table's date key. Reading
// fails with a *ParseError when the header lacks it.
func WithDateColumn(name string) CSVOption {
	return func(c *CSVConfig) {
		c.DateColumn = name
	}
}

// WithDateLayout overrides DateLayout for the date column.
func WithDateLayout(layout string) CSVOption {
	return func(c *CSVConfig) {
		c.DateLayout = layout
	}
}

// WithColumnKinds pins the kind of the named columns instead of inferring it
// from the cells. Pinned kinds survive zero-row input; a cell that does not
// parse as its pinned kind is a *ParseError.
func WithColumnKinds(kinds map[string]Kind) CSVOption {
	return func(c *CSVConfig) {
		c.ColumnKinds = kinds
	}
}

func newCSVConfig(options []CSVOption) *CSVConfig {
	config := &CSVConfig{
		Delimiter:  ',',
		DateLayout: DateLayout,
	}
	for _, option := range options {
		option(config)
	}
	return config
}

// ReadCSV loads a table from a file. A missing file yields ErrNotFound. The
// file is closed before ReadCSV returns.
func ReadCSV(path string, options ...CSVOption) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return Read(file, path, options...)
}

// Read parses delimited text with a header row. name is used in errors only.
func Read(r io.Reader, name string, options ...CSVOption) (*Table, error) {
	config := newCSVConfig(options)

	reader := csv.NewReader(r)
	reader.Comma = config.Delimiter

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &ParseError{Path: name, Err: errors.New("missing header row")}
		}
		return nil, wrapCSVError(name, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	dateIdx := -1
	if config.DateColumn != "" {
		for i, h := range header {
			if h == config.DateColumn {
				dateIdx = i
				break
			}
		}
		if dateIdx == -1 {
			return nil, &ParseError{Path: name, Line: 1, Column: config.DateColumn, Err: errors.New("date column absent from header")}
		}
	}

	var records [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, wrapCSVError(name, err)
		}
		records = append(records, record)
	}

	columns := make([]Column, len(header))
	for i, h := range header {
		kind, pinned := config.ColumnKinds[h]
		switch {
		case i == dateIdx:
			kind = KindDate
		case !pinned:
			kind = inferKind(records, i)
		}
		columns[i] = Column{Name: h, Kind: kind}
	}

	rows := make([][]any, len(records))
	for n, record := range records {
		row := make([]any, len(record))
		for i, raw := range record {
			v, err := parseCell(columns[i].Kind, strings.TrimSpace(raw), config.DateLayout)
			if err != nil {
				return nil, &ParseError{Path: name, Line: n + 2, Column: columns[i].Name, Value: raw, Err: err}
			}
			row[i] = v
		}
		rows[n] = row
	}

	return New(columns, rows, config.DateColumn)
}

func wrapCSVError(name string, err error) error {
	var csvErr *csv.ParseError
	if errors.As(err, &csvErr) {
		return &ParseError{Path: name, Line: csvErr.Line, Err: csvErr.Err}
	}
	return fmt.Errorf("failed to read CSV %s: %w", name, err)
}

// inferKind picks the narrowest kind every value of column i parses as.
func inferKind(records [][]string, i int) Kind {
	if len(records) == 0 {
		return KindString
	}
	kind := KindInt
	for _, record := range records {
		v := strings.TrimSpace(record[i])
		if kind == KindInt {
			if _, err := strconv.ParseInt(v, 10, 64); err == nil {
				continue
			}
			kind = KindFloat
		}
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return KindString
		}
	}
	return kind
}

func parseCell(kind Kind, v, layout string) (any, error) {
	switch kind {
	case KindInt:
		return strconv.ParseInt(v, 10, 64)
	case KindFloat:
		return strconv.ParseFloat(v, 64)
	case KindDate:
		return time.Parse(layout, v)
	default:
		return v, nil
	}
}

// WriteCSV writes the table with a header row to path, replacing any existing
// file.
func (t *Table) WriteCSV(path string, options ...CSVOption) (err error) {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
	}()

	return t.Write(file, options...)
}

// Write encodes the table as delimited text with a header row. Reals always
// carry a decimal point so that reading the output back infers the same kinds.
func (t *Table) Write(w io.Writer, options ...CSVOption) error {
	config := newCSVConfig(options)

	writer := csv.NewWriter(w)
	writer.Comma = config.Delimiter

	if err := writer.Write(t.Names()); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	record := make([]string, len(t.columns))
	for _, row := range t.rows {
		for i, v := range row {
			record[i] = formatCell(v, config.DateLayout)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

func formatCell(v any, layout string) string {
	switch x := v.(type) {
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		s := strconv.FormatFloat(x, 'f', -1, 64)
		if isIntegral(s) {
			s += ".0"
		}
		return s
	case time.Time:
		return x.Format(layout)
	case string:
		return x
	}
	return fmt.Sprintf("%v", v)
}

func isIntegral(s string) bool {
	return strings.IndexFunc(s, func(r rune) bool {
		return (r < '0' || r > '9') && r != '-'
	}) == -1
}
