// Package processor backfills the capacity history from CSV exports, either a
// single file or a tar.gz bundle described by a manifest.json.
package processor

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"go.uber.org/zap"
)

// Manifest lists the CSV files of a bundle in import order.
type Manifest struct {
	Source string   `json:"source"`
	Files  []string `json:"files"`
}

// ProcessTar imports the CSVs a bundle's manifest.json lists, in manifest order.
// Files that fail to parse are logged and skipped.
func ProcessTar(ctx context.Context, tarPath string, store Store, log *zap.Logger) (Result, error) {
	file, err := os.Open(tarPath)
	if err != nil {
		return Result{}, fmt.Errorf("failed to open tar file: %w", err)
	}
	defer file.Close()
	return ProcessTarReader(ctx, file, store, log)
}

func ProcessTarReader(ctx context.Context, r io.Reader, store Store, log *zap.Logger) (Result, error) {
	if log == nil {
		log = zap.NewNop()
	}
	var result Result

	gzr, err := gzip.NewReader(r)
	if err != nil {
		return result, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzr.Close()

	tr := tar.NewReader(gzr)
	var manifest Manifest
	manifestFound := false
	csvFiles := make(map[string][]byte)

	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return result, fmt.Errorf("failed to read tar header: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}

		filename := path.Clean(header.Name)
		switch {
		case path.Base(filename) == "manifest.json":
			data, err := io.ReadAll(tr)
			if err != nil {
				return result, fmt.Errorf("failed to read manifest.json: %w", err)
			}
			if err := json.Unmarshal(data, &manifest); err != nil {
				return result, fmt.Errorf("failed to parse manifest.json: %w", err)
			}
			manifestFound = true
			log.Info("processed manifest.json", zap.String("source", manifest.Source), zap.Int("files", len(manifest.Files)))
		case strings.HasSuffix(filename, ".csv"):
			data, err := io.ReadAll(tr)
			if err != nil {
				log.Warn("failed to read file", zap.String("file", filename), zap.Error(err))
				continue
			}
			csvFiles[filename] = data
		}
	}

	if !manifestFound {
		return result, fmt.Errorf("no manifest.json found in tar archive")
	}

	for _, name := range manifest.Files {
		data, ok := csvFiles[path.Clean(name)]
		if !ok {
			log.Warn("file listed in manifest not found in archive", zap.String("file", name))
			continue
		}

		log.Info("processing CSV file", zap.String("file", name))
		fileResult, err := ProcessCSV(ctx, store, csv.NewReader(bytes.NewReader(data)), log)
		result.add(fileResult)
		if err != nil {
			if errors.Is(err, ErrInsertFailed) {
				return result, err
			}
			log.Warn("failed to process file", zap.String("file", name), zap.Error(err))
			continue
		}
	}

	return result, nil
}
