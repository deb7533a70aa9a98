package main

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/chambridge/pure-monitor/internal/db"
	"github.com/chambridge/pure-monitor/internal/processor"
	"github.com/google/uuid"
)

// generateCSV renders one day of hourly samples per frame
func generateCSV(frames []string, day time.Time, rng *rand.Rand) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(db.CSVHeader); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for hour := 0; hour < 24; hour++ {
		ts := day.Add(time.Duration(hour) * time.Hour)
		for _, frame := range frames {
			capacity := 25.308148519523
			sample := db.CapacitySample{
				Frame:               frame,
				Capacity:            capacity,
				Total:               capacity * (0.15 + 0.05*rng.Float64()),
				DataReductionRatio:  3 + rng.Float64(),
				TotalReductionRatio: 4 + rng.Float64(),
				Timestamp:           ts,
			}
			if err := writer.Write(sample.Record()); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	return buf.Bytes(), writer.Error()
}

func addFile(tw *tar.Writer, name string, data []byte) error {
	header := &tar.Header{
		Name:     name,
		Mode:     0644,
		Size:     int64(len(data)),
		ModTime:  time.Now(),
		Typeflag: tar.TypeReg,
	}
	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write tar header for %s: %w", name, err)
	}
	if _, err := tw.Write(data); err != nil {
		return fmt.Errorf("failed to write %s to tar: %w", name, err)
	}
	return nil
}

func run(outputFile string, days int) error {
	frames := []string{"pureframe1", "pureframe2"}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	manifest := processor.Manifest{Source: "synthetic-" + uuid.NewString()}
	files := make(map[string][]byte)

	today := time.Now().Truncate(24 * time.Hour)
	for i := days; i > 0; i-- {
		day := today.AddDate(0, 0, -i)
		name := fmt.Sprintf("capacity_%s.csv", day.Format("2006-01-02"))
		data, err := generateCSV(frames, day, rng)
		if err != nil {
			return fmt.Errorf("failed to generate %s: %w", name, err)
		}
		manifest.Files = append(manifest.Files, name)
		files[name] = data
	}

	manifestData, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal manifest: %w", err)
	}

	tarFile, err := os.Create(outputFile)
	if err != nil {
		return fmt.Errorf("failed to create tar.gz file: %w", err)
	}
	defer tarFile.Close()

	gzw := gzip.NewWriter(tarFile)
	tw := tar.NewWriter(gzw)

	if err := addFile(tw, "manifest.json", manifestData); err != nil {
		return err
	}
	for _, name := range manifest.Files {
		if err := addFile(tw, name, files[name]); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to close tar writer: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("failed to close gzip writer: %w", err)
	}

	fmt.Printf("Successfully created %s with manifest.json and %v\n", outputFile, manifest.Files)
	return nil
}

func main() {
	outputFile := flag.String("out", "backfill.tar.gz", "Output bundle path")
	days := flag.Int("days", 7, "Number of past days to generate")
	flag.Parse()

	if err := run(*outputFile, *days); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
