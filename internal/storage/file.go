package storage

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/kpiotrowski/spizarka/internal/types"
)

// utf8BOM keeps spreadsheet applications from mangling Polish diacritics.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// BaseColumns is the fixed column order of a freshly harvested table.
var BaseColumns = []string{"producer", "title", "size", "price", "unit_price", "url"}

// EnrichedColumns extends BaseColumns with the fields scraped from
// product pages.
var EnrichedColumns = append(append([]string{}, BaseColumns...),
	"categories", "description", "nutrition",
	"price_value", "price_currency", "price_unit",
	"unit_price_value", "unit_price_unit",
)

// CSVStorage streams product records to a delimited text file. The header
// and a UTF-8 BOM are written up front; unknown input columns ride along
// after the fixed ones in their original order.
type CSVStorage struct {
	path    string
	file    *os.File
	writer  *csv.Writer
	columns []string
	mu      sync.Mutex
	count   int
	logger  *slog.Logger
}

// NewCSVStorage creates a CSV storage writing the given columns plus any
// extra pass-through columns. delimiter must be a single rune, typically
// ";" or ",".
func NewCSVStorage(outputPath, delimiter string, columns, extraColumns []string, logger *slog.Logger) (*CSVStorage, error) {
	if len([]rune(delimiter)) != 1 {
		return nil, &types.StorageError{Backend: "csv", Err: fmt.Errorf("delimiter must be one character, got %q", delimiter)}
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, &types.StorageError{Backend: "csv", Err: fmt.Errorf("create output dir: %w", err)}
		}
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return nil, &types.StorageError{Backend: "csv", Err: fmt.Errorf("create output file: %w", err)}
	}
	if _, err := f.Write(utf8BOM); err != nil {
		f.Close()
		return nil, &types.StorageError{Backend: "csv", Err: err}
	}

	all := append(append([]string{}, columns...), extraColumns...)

	w := csv.NewWriter(f)
	w.Comma = []rune(delimiter)[0]
	if err := w.Write(all); err != nil {
		f.Close()
		return nil, &types.StorageError{Backend: "csv", Err: fmt.Errorf("write header: %w", err)}
	}

	return &CSVStorage{
		path:    outputPath,
		file:    f,
		writer:  w,
		columns: all,
		logger:  logger.With("component", "csv_storage"),
	}, nil
}

func (s *CSVStorage) Name() string { return "csv" }

func (s *CSVStorage) Store(records []types.ProductRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range records {
		row := make([]string, len(s.columns))
		for i, col := range s.columns {
			row[i] = columnValue(rec, col)
		}
		if err := s.writer.Write(row); err != nil {
			return &types.StorageError{Backend: "csv", Err: fmt.Errorf("write row: %w", err)}
		}
		s.count++
	}

	s.writer.Flush()
	if err := s.writer.Error(); err != nil {
		return &types.StorageError{Backend: "csv", Err: err}
	}
	return nil
}

func (s *CSVStorage) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writer.Flush()
	s.logger.Info("table written", "path", s.path, "rows", s.count)
	if err := s.writer.Error(); err != nil {
		s.file.Close()
		return &types.StorageError{Backend: "csv", Err: err}
	}
	return s.file.Close()
}

// ReadTable loads a delimited product table. Both ";" and "," delimited
// files are accepted, a leading BOM is tolerated, and columns the schema
// does not know are preserved in record.Extra. The second return value is
// the extra column order as it appeared in the file.
func ReadTable(path string) ([]types.ProductRecord, []string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, &types.StorageError{Backend: "csv", Err: err}
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	rows, err := parseCSV(raw, ';')
	if err != nil || looksUnsplit(rows) {
		rows, err = parseCSV(raw, ',')
		if err != nil {
			return nil, nil, &types.StorageError{Backend: "csv", Err: fmt.Errorf("parse table: %w", err)}
		}
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}

	header := rows[0]
	known := make(map[string]struct{}, len(EnrichedColumns))
	for _, c := range EnrichedColumns {
		known[c] = struct{}{}
	}

	var extra []string
	for _, col := range header {
		if _, ok := known[strings.ToLower(strings.TrimSpace(col))]; !ok {
			extra = append(extra, col)
		}
	}

	records := make([]types.ProductRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		var rec types.ProductRecord
		for i, col := range header {
			if i >= len(row) {
				break
			}
			setColumn(&rec, strings.ToLower(strings.TrimSpace(col)), col, row[i])
		}
		records = append(records, rec)
	}
	return records, extra, nil
}

func parseCSV(raw []byte, comma rune) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.Comma = comma
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

// looksUnsplit detects a file parsed with the wrong delimiter: every row
// collapsed into one field that still contains commas.
func looksUnsplit(rows [][]string) bool {
	if len(rows) == 0 {
		return false
	}
	return len(rows[0]) == 1 && strings.Contains(rows[0][0], ",")
}

func columnValue(rec types.ProductRecord, col string) string {
	switch col {
	case "producer":
		return rec.Producer
	case "title":
		return rec.Title
	case "size":
		return rec.Size
	case "price":
		return rec.Price
	case "unit_price":
		return rec.UnitPrice
	case "url":
		return rec.URL
	case "categories":
		return rec.Categories
	case "description":
		return rec.Description
	case "nutrition":
		return rec.Nutrition
	case "price_value":
		return formatOptional(rec.PriceValue)
	case "price_currency":
		return rec.PriceCurrency
	case "price_unit":
		return rec.PriceUnit
	case "unit_price_value":
		return formatOptional(rec.UnitPriceValue)
	case "unit_price_unit":
		return rec.UnitPriceUnit
	default:
		return rec.Extra[col]
	}
}

// setColumn fills one record field from a cell. key is the normalized
// column name, orig the header spelling used for Extra pass-through.
func setColumn(rec *types.ProductRecord, key, orig, value string) {
	switch key {
	case "producer":
		rec.Producer = value
	case "title":
		rec.Title = value
	case "size":
		rec.Size = value
	case "price":
		rec.Price = value
	case "unit_price":
		rec.UnitPrice = value
	case "url":
		rec.URL = value
	case "categories":
		rec.Categories = value
	case "description":
		rec.Description = value
	case "nutrition":
		rec.Nutrition = value
	case "price_value":
		rec.PriceValue = parseOptional(value)
	case "price_currency":
		rec.PriceCurrency = value
	case "price_unit":
		rec.PriceUnit = value
	case "unit_price_value":
		rec.UnitPriceValue = parseOptional(value)
	case "unit_price_unit":
		rec.UnitPriceUnit = value
	default:
		if rec.Extra == nil {
			rec.Extra = make(map[string]string)
		}
		rec.Extra[orig] = value
	}
}

func formatOptional(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func parseOptional(s string) *float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return nil
	}
	return &v
}
