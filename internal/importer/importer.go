// Package importer loads competitor records from external CSV exports.
// Incoming columns are mapped to the storage schema through a ColumnMap
// so exports from other systems can be ingested without reshaping the
// file first.
package importer

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/collegeradar/collegeradar-go/internal/logger"
	"github.com/collegeradar/collegeradar-go/internal/storage"
	"github.com/collegeradar/collegeradar-go/internal/stringutil"
)

// ColumnMap maps standard field names to the CSV header names used in the
// source file. Standard field names: college_id, name, location, latitude,
// longitude, programs, tuition, enrollment, acceptance_rate, avg_gpa,
// avg_sat, avg_act, source_url.
type ColumnMap map[string]string

// DefaultColumnMap assumes the CSV headers already use the standard field
// names.
func DefaultColumnMap() ColumnMap {
	fields := []string{
		"college_id", "name", "location", "latitude", "longitude",
		"programs", "tuition", "enrollment", "acceptance_rate",
		"avg_gpa", "avg_sat", "avg_act", "source_url",
	}
	m := make(ColumnMap, len(fields))
	for _, f := range fields {
		m[f] = f
	}
	return m
}

// Repository is the subset of the storage layer the importer needs.
type Repository interface {
	SaveCollege(ctx context.Context, college *storage.College, isHome bool) error
}

// MetricsRecorder defines the interface for recording import metrics
type MetricsRecorder interface {
	RecordImportRow(status string)
}

// Result summarizes one import run.
type Result struct {
	Imported int
	Skipped  int
}

// Importer reads competitor rows from CSV files and persists them.
type Importer struct {
	repo    Repository
	log     *logger.Logger
	metrics MetricsRecorder
}

// New creates an Importer.
func New(repo Repository, log *logger.Logger) *Importer {
	return &Importer{
		repo: repo,
		log:  log.WithModule("importer"),
	}
}

// SetMetrics sets the metrics recorder
func (im *Importer) SetMetrics(m MetricsRecorder) {
	im.metrics = m
}

// ImportCSV reads the file and saves each row as a competitor. Rows
// without a usable name are skipped, not fatal; the first error from the
// storage layer aborts the run.
func (im *Importer) ImportCSV(ctx context.Context, path string, columns ColumnMap) (*Result, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return im.Import(ctx, file, columns, path)
}

// Import reads CSV data from a reader. The first record is the header
// row; fields are resolved by header name, not position.
func (im *Importer) Import(ctx context.Context, r io.Reader, columns ColumnMap, source string) (*Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Tolerate ragged rows

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	result := &Result{}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return result, fmt.Errorf("failed to read CSV row %d: %w", line, err)
		}

		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = record[i]
			}
		}

		college, err := mapRow(row, columns)
		if err != nil {
			result.Skipped++
			im.record("skipped")
			im.log.WithFields(map[string]any{
				"row":   line,
				"error": err.Error(),
			}).Warn("skipping CSV row")
			continue
		}

		if err := im.repo.SaveCollege(ctx, college, false); err != nil {
			im.record("error")
			return result, fmt.Errorf("failed to save row %d: %w", line, err)
		}
		result.Imported++
		im.record("imported")
	}

	im.log.WithFields(map[string]any{
		"source":   source,
		"imported": result.Imported,
		"skipped":  result.Skipped,
	}).Info("CSV import finished")
	return result, nil
}

func (im *Importer) record(status string) {
	if im.metrics == nil {
		return
	}
	im.metrics.RecordImportRow(status)
}

// mapRow converts one CSV row to a storage record using the column map.
func mapRow(row map[string]string, columns ColumnMap) (*storage.College, error) {
	get := func(field string) string {
		header, ok := columns[field]
		if !ok {
			return ""
		}
		return strings.TrimSpace(row[header])
	}

	name := get("name")
	id := get("college_id")
	if id == "" {
		id = stringutil.Slugify(name)
	}
	if id == "" {
		return nil, fmt.Errorf("row has no name or college_id")
	}

	return &storage.College{
		ID:             id,
		Name:           name,
		Location:       get("location"),
		Programs:       ParsePrograms(get("programs")),
		SourceURL:      get("source_url"),
		Tuition:        parseOptionalFloat(get("tuition")),
		Enrollment:     parseOptionalFloat(get("enrollment")),
		AcceptanceRate: parseRate(get("acceptance_rate")),
		AvgGPA:         parseOptionalFloat(get("avg_gpa")),
		AvgSAT:         parseOptionalFloat(get("avg_sat")),
		AvgACT:         parseOptionalFloat(get("avg_act")),
		Latitude:       parseOptionalFloat(get("latitude")),
		Longitude:      parseOptionalFloat(get("longitude")),
	}, nil
}

// ParsePrograms accepts either a JSON array or a comma-separated list.
func ParsePrograms(value string) []string {
	value = strings.TrimSpace(value)
	if value == "" {
		return []string{}
	}

	if strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]") {
		var programs []string
		if err := json.Unmarshal([]byte(value), &programs); err == nil {
			return programs
		}
	}

	parts := strings.Split(value, ",")
	programs := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			programs = append(programs, p)
		}
	}
	return programs
}

// parseOptionalFloat converts a cell to a float pointer. Blank and NULL
// cells and unparseable values mean unknown.
func parseOptionalFloat(value string) *float64 {
	if value == "" || strings.EqualFold(value, "NULL") {
		return nil
	}
	// Strip currency symbols and thousands separators
	cleaned := strings.NewReplacer("$", "", ",", "", "%", "").Replace(value)
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &f
}

// parseRate reads an acceptance rate, scaling percentages above 1 to the
// 0-1 range.
func parseRate(value string) *float64 {
	f := parseOptionalFloat(value)
	if f == nil {
		return nil
	}
	if *f > 1 {
		scaled := *f / 100
		return &scaled
	}
	return f
}
