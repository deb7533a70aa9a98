package db

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// TimestampLayout is the text format of the datetime column. It is fixed width,
// so text comparison orders rows chronologically.
const TimestampLayout = "2006-01-02 15:04:05"

// CapacitySample is one row of pure_capacity. Capacity and Total are in TB (2^40 bytes).
type CapacitySample struct {
	Frame               string    `json:"frame"`
	Capacity            float64   `json:"capacity"`
	Total               float64   `json:"total"`
	DataReductionRatio  float64   `json:"data_redux_ratio"`
	TotalReductionRatio float64   `json:"total_redux_ratio"`
	Timestamp           time.Time `json:"datetime"`
}

// CapacityQuery filters QueryCapacitySamples. Start is inclusive, End exclusive.
type CapacityQuery struct {
	Frame  string
	Start  time.Time
	End    time.Time
	Limit  int
	Offset int
}

// FormatStoredFloat renders a value the way capacity rows have always been
// stored: shortest round-trip digits, with ".0" kept on integral values.
func FormatStoredFloat(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return s
	}
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func parseStoredFloat(column, value string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", column, value, err)
	}
	return v, nil
}

func (s CapacitySample) row() []interface{} {
	record := s.Record()
	row := make([]interface{}, len(record))
	for i, v := range record {
		row[i] = v
	}
	return row
}

func sampleFromRow(frame, capacity, total, dataRedux, totalRedux, datetime string) (CapacitySample, error) {
	var err error
	s := CapacitySample{Frame: frame}
	if s.Capacity, err = parseStoredFloat("capacity", capacity); err != nil {
		return s, err
	}
	if s.Total, err = parseStoredFloat("total", total); err != nil {
		return s, err
	}
	if s.DataReductionRatio, err = parseStoredFloat("data_redux_ratio", dataRedux); err != nil {
		return s, err
	}
	if s.TotalReductionRatio, err = parseStoredFloat("total_redux_ratio", totalRedux); err != nil {
		return s, err
	}
	if s.Timestamp, err = time.ParseInLocation(TimestampLayout, datetime, time.Local); err != nil {
		return s, fmt.Errorf("invalid datetime value %q: %w", datetime, err)
	}
	return s, nil
}

// CSVHeader is the column order of capacity CSV exports and backfill imports.
var CSVHeader = []string{"frame", "capacity", "total", "data_redux_ratio", "total_redux_ratio", "datetime"}

// Record renders the sample in CSVHeader order using the stored text forms.
func (s CapacitySample) Record() []string {
	return []string{
		s.Frame,
		FormatStoredFloat(s.Capacity),
		FormatStoredFloat(s.Total),
		FormatStoredFloat(s.DataReductionRatio),
		FormatStoredFloat(s.TotalReductionRatio),
		s.Timestamp.Format(TimestampLayout),
	}
}

// SampleFromRecord parses a CSVHeader ordered record.
func SampleFromRecord(record []string) (CapacitySample, error) {
	if len(record) != len(CSVHeader) {
		return CapacitySample{}, fmt.Errorf("expected %d fields, got %d", len(CSVHeader), len(record))
	}
	frame := strings.ToLower(strings.TrimSpace(record[0]))
	if frame == "" {
		return CapacitySample{}, fmt.Errorf("empty frame")
	}
	return sampleFromRow(frame, record[1], record[2], record[3], record[4], strings.TrimSpace(record[5]))
}
