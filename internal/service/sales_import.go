package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/andresuchdata/stockcast/backend-go/internal/cache"
	"github.com/andresuchdata/stockcast/backend-go/internal/domain"
	"github.com/andresuchdata/stockcast/backend-go/internal/metrics"
	"github.com/andresuchdata/stockcast/backend-go/internal/repository"
	"github.com/andresuchdata/stockcast/backend-go/internal/storage"
)

const (
	uploadPrefix    = "sales-uploads"
	contentTypeCSV  = "text/csv"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ErrUnsupportedFormat is returned for uploads that are neither CSV nor XLSX.
var ErrUnsupportedFormat = fmt.Errorf("%w: only .csv and .xlsx files are supported", domain.ErrInvalidArgument)

type SalesImportService struct {
	products repository.ProductRepository
	sales    repository.SalesRepository
	archive  storage.ObjectStorage
	cache    cache.DashboardCache
	metrics  metrics.Recorder
	now      func() time.Time
}

// NewSalesImportService wires the importer. A nil archive disables upload archiving.
func NewSalesImportService(
	products repository.ProductRepository,
	sales repository.SalesRepository,
	archive storage.ObjectStorage,
	dashboardCache cache.DashboardCache,
	recorder metrics.Recorder,
) *SalesImportService {
	if dashboardCache == nil {
		dashboardCache = cache.NewNoopDashboardCache()
	}
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &SalesImportService{
		products: products,
		sales:    sales,
		archive:  archive,
		cache:    dashboardCache,
		metrics:  recorder,
		now:      time.Now,
	}
}

type salesRow struct {
	line     int
	code     string
	date     string
	quantity string
	// malformed holds the parse error of a record the reader could not split into fields.
	malformed string
}

// Import parses an uploaded sales file and stores every valid row. Bad rows are
// reported individually and never abort the rest of the file.
func (s *SalesImportService) Import(ctx context.Context, filename string, r io.Reader) (*domain.ImportResult, error) {
	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}

	var rows []salesRow
	contentType := contentTypeCSV
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		rows, err = readCSVRows(payload)
	case ".xlsx":
		contentType = contentTypeXLSX
		rows, err = readXLSXRows(payload)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: file contains no sales rows", domain.ErrInvalidArgument)
	}

	codes := make([]string, 0, len(rows))
	for _, row := range rows {
		if row.code != "" {
			codes = append(codes, row.code)
		}
	}
	known, err := s.products.GetByCodes(ctx, codes)
	if err != nil {
		return nil, err
	}

	result := &domain.ImportResult{Errors: make([]domain.ImportRowError, 0)}
	records := make([]domain.SalesRecord, 0, len(rows))
	for _, row := range rows {
		rec, err := parseSalesRow(row, known)
		if err != nil {
			result.Errors = append(result.Errors, domain.ImportRowError{
				Row:         row.line,
				ProductCode: row.code,
				Error:       err.Error(),
			})
			continue
		}
		records = append(records, rec)
	}

	if len(records) > 0 {
		if err := s.sales.InsertSales(ctx, records); err != nil {
			return nil, err
		}
	}

	result.Imported = len(records)
	result.Rejected = len(result.Errors)
	result.Message = fmt.Sprintf("imported %d rows, rejected %d", result.Imported, result.Rejected)
	result.Archived = s.archiveUpload(ctx, filename, payload, contentType)

	s.metrics.RecordImportRows(result.Imported, result.Rejected)
	if err := s.cache.InvalidateAll(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate dashboard cache")
	}

	log.Info().
		Str("file", filename).
		Int("imported", result.Imported).
		Int("rejected", result.Rejected).
		Msg("sales upload processed")

	return result, nil
}

func (s *SalesImportService) archiveUpload(ctx context.Context, filename string, payload []byte, contentType string) string {
	if s.archive == nil {
		return ""
	}

	key := fmt.Sprintf("%s/%s/%s-%s", uploadPrefix, s.now().UTC().Format("2006/01/02"), uuid.NewString(), filepath.Base(filename))
	if err := s.archive.UploadObject(ctx, key, bytes.NewReader(payload), int64(len(payload)), contentType); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to archive sales upload")
		return ""
	}
	return key
}

func parseSalesRow(row salesRow, known map[string]domain.Product) (domain.SalesRecord, error) {
	if row.malformed != "" {
		return domain.SalesRecord{}, errors.New(row.malformed)
	}
	if row.code == "" {
		return domain.SalesRecord{}, errors.New("product_code is required")
	}
	product, ok := known[row.code]
	if !ok {
		return domain.SalesRecord{}, fmt.Errorf("unknown product code %q", row.code)
	}

	date, err := time.Parse(domain.DateLayout, row.date)
	if err != nil {
		return domain.SalesRecord{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", row.date)
	}

	qty, err := strconv.Atoi(row.quantity)
	if err != nil || qty <= 0 {
		return domain.SalesRecord{}, fmt.Errorf("invalid quantity %q, expected a positive integer", row.quantity)
	}

	return domain.SalesRecord{ProductID: product.ID, SaleDate: date, Quantity: qty}, nil
}

func readCSVRows(payload []byte) ([]salesRow, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(payload, []byte("\xef\xbb\xbf"))))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records []sheetRow
	for {
		offset := reader.InputOffset()
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) || reader.InputOffset() == offset {
				return nil, fmt.Errorf("%w: malformed csv: %v", domain.ErrInvalidArgument, err)
			}
			// the reader has consumed the bad record; report it and carry on
			records = append(records, sheetRow{line: perr.StartLine, malformed: perr.Err.Error()})
			continue
		}
		line, _ := reader.FieldPos(0)
		records = append(records, sheetRow{line: line, cells: record})
	}

	return toSalesRows(records), nil
}

// readXLSXRows reads the first sheet of a workbook.
func readXLSXRows(payload []byte) ([]salesRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open xlsx: %v", domain.ErrInvalidArgument, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: xlsx file has no sheets", domain.ErrInvalidArgument)
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheets[0], err)
	}
	defer rows.Close()

	var records []sheetRow
	for line := 1; rows.Next(); line++ {
		record, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read xlsx row: %w", err)
		}
		records = append(records, sheetRow{line: line, cells: record})
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("error iterating xlsx rows: %w", err)
	}

	return toSalesRows(records), nil
}

// sheetRow is a raw record with its 1-based line in the source file.
type sheetRow struct {
	line      int
	cells     []string
	malformed string
}

// toSalesRows drops an optional header and blank lines.
func toSalesRows(records []sheetRow) []salesRow {
	rows := make([]salesRow, 0, len(records))
	for i, record := range records {
		if record.malformed != "" {
			rows = append(rows, salesRow{line: record.line, malformed: "malformed row: " + record.malformed})
			continue
		}
		cells := make([]string, 3)
		blank := true
		for j := 0; j < len(record.cells) && j < 3; j++ {
			cells[j] = strings.TrimSpace(record.cells[j])
			if cells[j] != "" {
				blank = false
			}
		}
		if blank {
			continue
		}
		if i == 0 && strings.EqualFold(cells[0], "product_code") {
			continue
		}
		rows = append(rows, salesRow{line: record.line, code: cells[0], date: cells[1], quantity: cells[2]})
	}
	return rows
}
