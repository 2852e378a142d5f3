package marketdata

import (
	"errors"
	"math"
	"sort"
	"strconv"
	"time"
)

// ErrNotAvailable is returned when a ticker's series cannot be
// acquired or is empty after cleaning.
var ErrNotAvailable = errors.New("series not available")

// RawBar is one persisted row before cleaning. Numeric columns are kept
// in their raw string form because upstream sources intermittently emit
// malformed rows (duplicated header rows, blanks); coercion happens on
// every load, not on write.
type RawBar struct {
	Date   string
	Open   string
	High   string
	Low    string
	Close  string
	Volume string
}

// Bar is one cleaned calendar-day OHLCV record
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series is a ticker's cleaned, date-ascending bar history with no
// duplicate dates.
type Series struct {
	Ticker string
	Bars   []Bar
}

// Len returns the number of bars
func (s *Series) Len() int { return len(s.Bars) }

// Closes returns the close column in date order
func (s *Series) Closes() []float64 {
	closes := make([]float64, len(s.Bars))
	for i, bar := range s.Bars {
		closes[i] = bar.Close
	}
	return closes
}

// Last returns the most recent bar. Only valid when Len() > 0.
func (s *Series) Last() Bar {
	return s.Bars[len(s.Bars)-1]
}

// Tail returns a series view of at most n trailing bars
func (s *Series) Tail(n int) *Series {
	if n >= len(s.Bars) {
		return s
	}
	return &Series{Ticker: s.Ticker, Bars: s.Bars[len(s.Bars)-n:]}
}

// Clean coerces raw rows into a valid series. Rows where any of the
// five numeric columns fails to parse, or where Close is not a finite
// positive number, are dropped. Surviving bars are sorted ascending by
// date with duplicate dates collapsed (last row wins). Returns the
// number of rows dropped alongside the series.
func Clean(ticker string, rows []RawBar) (*Series, int) {
	byDate := make(map[time.Time]Bar, len(rows))
	dropped := 0

	for _, row := range rows {
		date, err := time.Parse("2006-01-02", row.Date)
		if err != nil {
			dropped++
			continue
		}

		bar, ok := coerceBar(date, row)
		if !ok {
			dropped++
			continue
		}

		if _, exists := byDate[date]; exists {
			dropped++
		}
		byDate[date] = bar
	}

	bars := make([]Bar, 0, len(byDate))
	for _, bar := range byDate {
		bars = append(bars, bar)
	}
	sort.Slice(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	return &Series{Ticker: ticker, Bars: bars}, dropped
}

// coerceBar parses the five numeric columns of a raw row
func coerceBar(date time.Time, row RawBar) (Bar, bool) {
	open, ok := parseNumeric(row.Open)
	if !ok {
		return Bar{}, false
	}
	high, ok := parseNumeric(row.High)
	if !ok {
		return Bar{}, false
	}
	low, ok := parseNumeric(row.Low)
	if !ok {
		return Bar{}, false
	}
	closePrice, ok := parseNumeric(row.Close)
	if !ok || closePrice <= 0 {
		return Bar{}, false
	}
	volume, ok := parseNumeric(row.Volume)
	if !ok {
		return Bar{}, false
	}

	return Bar{
		Date:   date,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  closePrice,
		Volume: volume,
	}, true
}

// parseNumeric coerces one raw cell; blanks, non-numeric text, NaN and
// infinities all fail.
func parseNumeric(raw string) (float64, bool) {
	if raw == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, false
	}
	return value, true
}
