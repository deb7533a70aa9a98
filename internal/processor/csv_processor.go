package processor

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chambridge/pure-monitor/internal/db"
	"go.uber.org/zap"
)

// ErrInsertFailed marks an import stopped by a store error.
var ErrInsertFailed = errors.New("failed to store capacity sample")

// Store is the write side of the capacity history.
type Store interface {
	InsertCapacitySample(ctx context.Context, sample db.CapacitySample) error
}

// Result counts rows of one import.
type Result struct {
	Inserted int `json:"inserted"`
	Skipped  int `json:"skipped"`
}

func (r *Result) add(other Result) {
	r.Inserted += other.Inserted
	r.Skipped += other.Skipped
}

// ProcessCSV inserts every valid capacity row from reader. The header row must
// name the db.CSVHeader columns, in any order. Malformed rows are logged and
// skipped; a failed insert stops the import.
func ProcessCSV(ctx context.Context, store Store, reader *csv.Reader, log *zap.Logger) (Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	reader.Comma = ','
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var result Result

	headers, err := reader.Read()
	if err != nil {
		return result, fmt.Errorf("empty CSV file: %w", err)
	}
	headerIndices := make(map[string]int, len(headers))
	for i, h := range headers {
		headerIndices[strings.TrimSpace(strings.ToLower(h))] = i
	}
	for _, required := range db.CSVHeader {
		if _, exists := headerIndices[required]; !exists {
			return result, fmt.Errorf("missing required header: %s", required)
		}
	}

	line := 1
	for {
		record, err := reader.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return result, fmt.Errorf("failed to read CSV record: %w", err)
		}
		line++

		if len(record) != len(headers) {
			log.Warn("skipping record with wrong field count",
				zap.Int("line", line), zap.Int("expected", len(headers)), zap.Int("got", len(record)))
			result.Skipped++
			continue
		}

		ordered := make([]string, len(db.CSVHeader))
		for i, name := range db.CSVHeader {
			ordered[i] = record[headerIndices[name]]
		}
		sample, err := db.SampleFromRecord(ordered)
		if err != nil {
			log.Warn("skipping invalid record", zap.Int("line", line), zap.Error(err))
			result.Skipped++
			continue
		}

		if err := store.InsertCapacitySample(ctx, sample); err != nil {
			return result, fmt.Errorf("%w: %w", ErrInsertFailed, err)
		}
		result.Inserted++
	}

	log.Info("processed capacity CSV", zap.Int("inserted", result.Inserted), zap.Int("skipped", result.Skipped))
	return result, nil
}
