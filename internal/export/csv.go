// Package export serialises decoded track points.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/velocitek/vtk-protocol/internal/config"
	"github.com/velocitek/vtk-protocol/internal/units"
	"github.com/velocitek/vtk-protocol/internal/vtk"
)

// Header is the fixed CSV column order.
var Header = []string{
	"time", "latitude", "longitude", "sog", "cog",
	"q1", "q2", "q3", "q4", "mag_heading", "heel", "pitch",
}

// pythonTimeLayout matches str() of a timezone-aware datetime.
const (
	pythonTimeLayout       = "2006-01-02 15:04:05-07:00"
	pythonTimeLayoutMicros = "2006-01-02 15:04:05.000000-07:00"
)

// CSVOptions controls value formatting. The zero value gives the default
// output: Python-style times and floats, speeds in knots.
type CSVOptions struct {
	TimeFormat    string         // config.TimeFormatPython or config.TimeFormatRFC3339
	Location      *time.Location // UTC when nil
	SpeedUnits    string         // units.KNOTS when empty
	FloatDecimals int            // fixed decimals; -1 for shortest round-trip
}

// DefaultCSVOptions returns the options used when no configuration is given.
func DefaultCSVOptions() CSVOptions {
	return CSVOptions{
		TimeFormat:    config.TimeFormatPython,
		Location:      time.UTC,
		SpeedUnits:    units.KNOTS,
		FloatDecimals: -1,
	}
}

// CSVOptionsFromConfig reads the CSV settings out of a tool configuration.
func CSVOptionsFromConfig(cfg *config.ToolConfig) (CSVOptions, error) {
	loc, err := units.LoadTimezone(cfg.GetTimezone())
	if err != nil {
		return CSVOptions{}, err
	}
	return CSVOptions{
		TimeFormat:    cfg.GetTimeFormat(),
		Location:      loc,
		SpeedUnits:    cfg.GetSpeedUnits(),
		FloatDecimals: cfg.GetFloatDecimals(),
	}, nil
}

// CSVWriter writes points as CSV rows under Header.
type CSVWriter struct {
	w    *csv.Writer
	opts CSVOptions
}

// NewCSVWriter returns a writer using CRLF line endings.
func NewCSVWriter(w io.Writer, opts CSVOptions) *CSVWriter {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	return &CSVWriter{w: cw, opts: opts}
}

// WriteHeader writes the column header row.
func (c *CSVWriter) WriteHeader() error {
	if err := c.w.Write(Header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	return nil
}

// WritePoint writes one row.
func (c *CSVWriter) WritePoint(p vtk.Point) error {
	if err := c.w.Write(c.Row(p)); err != nil {
		return fmt.Errorf("failed to write csv row: %w", err)
	}
	return nil
}

// Flush flushes buffered rows and reports any write error.
func (c *CSVWriter) Flush() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return fmt.Errorf("failed to flush csv: %w", err)
	}
	return nil
}

// Row formats p with the writer's options.
func (c *CSVWriter) Row(p vtk.Point) []string {
	return FormatRow(p, c.opts)
}

// FormatRow formats p as the string fields of one CSV record, in Header
// order.
func FormatRow(p vtk.Point, opts CSVOptions) []string {
	sog := p.SOG
	if opts.SpeedUnits != "" && opts.SpeedUnits != units.KNOTS {
		sog = units.ConvertKnots(sog, opts.SpeedUnits)
	}
	f := func(v float64) string { return FormatFloat(v, opts.FloatDecimals) }
	return []string{
		FormatTime(p.Time, opts.TimeFormat, opts.Location),
		f(p.Latitude),
		f(p.Longitude),
		f(sog),
		f(p.COG),
		f(p.Q1),
		f(p.Q2),
		f(p.Q3),
		f(p.Q4),
		f(p.MagHeading),
		f(p.Heel),
		f(p.Pitch),
	}
}

// WriteCSV writes the header followed by one row per point, in order.
func WriteCSV(w io.Writer, points []vtk.Point, opts CSVOptions) error {
	cw := NewCSVWriter(w, opts)
	if err := cw.WriteHeader(); err != nil {
		return err
	}
	for _, p := range points {
		if err := cw.WritePoint(p); err != nil {
			return err
		}
	}
	return cw.Flush()
}

// FormatTime renders t in loc, or UTC when loc is nil. The python layout
// prints microseconds only when the sub-second part is non-zero.
func FormatTime(t time.Time, format string, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	if format == config.TimeFormatRFC3339 {
		return t.Format(time.RFC3339Nano)
	}
	if t.Nanosecond()/1000 == 0 {
		return t.Format(pythonTimeLayout)
	}
	return t.Format(pythonTimeLayoutMicros)
}

// FormatFloat renders v with a fixed number of decimals, or for decimals < 0
// as the shortest string that round-trips, the way Python's repr does:
// integral values keep a trailing ".0" and very small or large magnitudes
// switch to exponent notation.
func FormatFloat(v float64, decimals int) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	if decimals >= 0 {
		return strconv.FormatFloat(v, 'f', decimals, 64)
	}

	if v != 0 {
		exp := decimalExponent(v)
		if exp < -4 || exp >= 16 {
			return strconv.FormatFloat(v, 'e', -1, 64)
		}
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}

// decimalExponent returns the exponent of v's shortest scientific form.
func decimalExponent(v float64) int {
	s := strconv.FormatFloat(v, 'e', -1, 64)
	i := strings.IndexByte(s, 'e')
	exp, _ := strconv.Atoi(s[i+1:])
	return exp
}
