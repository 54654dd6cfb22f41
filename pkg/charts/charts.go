// Package charts builds the run chart data consumed by the entries dashboard widget.
package charts

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout matches the widget's YYYY-M-D dates, month and day not padded.
const DateLayout = "2006-1-2"

const (
	ScaleDay   = "day"
	ScaleMonth = "month"
)

// MaxWindowYears bounds the requested window, and with it the number of rows.
const MaxWindowYears = 10

const (
	RangeLast7Days  = "d7"
	RangeLast30Days = "d30"
	RangeLastWeek   = "lastweek"
	RangeLastMonth  = "lastmonth"
)

type Request struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	FormID    *int64 `json:"formId,omitempty"`
	DateRange string `json:"dateRange,omitempty" validate:"omitempty,oneof=d7 d30 lastweek lastmonth"`
}

type Column struct {
	Type  string `json:"type"`
	Label string `json:"label"`
}

type DataTable struct {
	Columns []Column `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

type ShortDateFormats struct {
	Day   string `json:"day"`
	Month string `json:"month"`
	Year  string `json:"year"`
}

type Formats struct {
	ShortDateFormats ShortDateFormats `json:"shortDateFormats"`
	DecimalSymbol    string           `json:"decimalSymbol"`
	ThousandsSymbol  string           `json:"thousandsSymbol"`
	NumberFormat     string           `json:"numberFormat"`
}

// Response is either the chart data or an error message.
type Response struct {
	DataTable   *DataTable `json:"dataTable,omitempty"`
	Orientation string     `json:"orientation,omitempty"`
	Scale       string     `json:"scale,omitempty"`
	Formats     *Formats   `json:"formats,omitempty"`
	Error       string     `json:"error,omitempty"`
}

func ErrorResponse(err error) Response {
	return Response{Error: err.Error()}
}

func DefaultFormats() *Formats {
	return &Formats{
		ShortDateFormats: ShortDateFormats{
			Day:   "%-m/%-d",
			Month: "%-m/%y",
			Year:  "%Y",
		},
		DecimalSymbol:   ".",
		ThousandsSymbol: ",",
		NumberFormat:    ",.0f",
	}
}

// ResolveRange returns the start and end dates of a preset relative to now.
func ResolveRange(preset string, now time.Time) (time.Time, time.Time, bool) {
	day := 24 * time.Hour
	switch preset {
	case RangeLast7Days:
		return now.Add(-7 * day), now, true
	case RangeLast30Days:
		return now.Add(-30 * day), now, true
	case RangeLastWeek:
		return now.Add(-14 * day), now.Add(-7 * day), true
	case RangeLastMonth:
		return now.Add(-60 * day), now.Add(-30 * day), true
	default:
		return time.Time{}, time.Time{}, false
	}
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Window parses the request dates into [start, end) where end is the day
// after the requested end date. A preset fills dates that were not given.
func Window(req Request, now time.Time, loc *time.Location) (time.Time, time.Time, error) {
	startRaw, endRaw := strings.TrimSpace(req.StartDate), strings.TrimSpace(req.EndDate)
	if start, end, ok := ResolveRange(req.DateRange, now); ok {
		if startRaw == "" {
			startRaw = FormatDate(start)
		}
		if endRaw == "" {
			endRaw = FormatDate(end)
		}
	}
	if startRaw == "" || endRaw == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("startDate and endDate are required")
	}

	start, err := time.ParseInLocation(DateLayout, startRaw, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid startDate %q", startRaw)
	}
	end, err := time.ParseInLocation(DateLayout, endRaw, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid endDate %q", endRaw)
	}
	end = end.AddDate(0, 0, 1)

	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("startDate must not be after endDate")
	}
	if end.After(start.AddDate(MaxWindowYears, 0, 0)) {
		return time.Time{}, time.Time{}, fmt.Errorf("date range must not exceed %d years", MaxWindowYears)
	}
	return start, end, nil
}

// Scale picks months for a window of a year or more, else days. Windows
// always cover whole days.
func Scale(start, end time.Time) string {
	if !start.AddDate(1, 0, 0).After(end) {
		return ScaleMonth
	}
	return ScaleDay
}

func truncate(t time.Time, scale string) time.Time {
	if scale == ScaleMonth {
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func next(t time.Time, scale string) time.Time {
	if scale == ScaleMonth {
		return t.AddDate(0, 1, 0)
	}
	return t.AddDate(0, 0, 1)
}

func label(t time.Time, scale string) string {
	if scale == ScaleMonth {
		return t.Format("2006-01") + "-01"
	}
	return t.Format("2006-01-02")
}

// BuildDataTable counts timestamps per bucket, emitting a row for every
// bucket in [start, end) including empty ones.
func BuildDataTable(start, end time.Time, scale string, timestamps []time.Time) *DataTable {
	counts := map[time.Time]int{}
	for _, ts := range timestamps {
		ts = ts.In(start.Location())
		if ts.Before(start) || !ts.Before(end) {
			continue
		}
		counts[truncate(ts, scale)]++
	}

	table := &DataTable{
		Columns: []Column{
			{Type: "date", Label: "Date"},
			{Type: "number", Label: "Entries"},
		},
		Rows: [][]any{},
	}
	for bucket := truncate(start, scale); bucket.Before(end); bucket = next(bucket, scale) {
		table.Rows = append(table.Rows, []any{label(bucket, scale), counts[bucket]})
	}
	return table
}
