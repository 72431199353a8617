package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"gobasket/domain/basket"
	"gobasket/internal"
)

// DataReader handles reading Excel and CSV transaction files
type DataReader struct {
	config   ExcelConfig
	fileType string // "xlsx" or "csv"
	logger   *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(config ExcelConfig) *DataReader {
	ext := strings.ToLower(filepath.Ext(config.FilePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	if config.Sheet == "" {
		config.Sheet = DefaultExcelConfig().Sheet
	}
	return &DataReader{config: config, fileType: fileType, logger: internal.DefaultLogger.Named("DataReader")}
}

// Source returns the file path
func (r *DataReader) Source() string { return r.config.FilePath }

// Read loads the file and maps its columns onto basket dimensions
func (r *DataReader) Read(ctx context.Context) (*basket.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := r.ReadData()
	if err != nil {
		return nil, err
	}
	return r.ToDataset(data)
}

// ReadData reads data from Excel or CSV files into structured format
func (r *DataReader) ReadData() (*ExcelData, error) {
	r.logger.Info("Starting to read %s file: %s", r.fileType, r.config.FilePath)

	// Check if file exists
	if _, err := os.Stat(r.config.FilePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.config.FilePath)
	}

	switch r.fileType {
	case "csv":
		return r.readCSVData()
	case "xlsx":
		return r.readExcelData()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
}

// readExcelData reads the configured sheet into structured format
func (r *DataReader) readExcelData() (*ExcelData, error) {
	startTime := time.Now()
	f, err := excelize.OpenFile(r.config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(r.config.Sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", r.config.Sheet, err)
	}
	r.logger.Debug("%s read in %.2fms (%d rows)", r.config.Sheet, float64(time.Since(startTime).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, fmt.Errorf("Excel file must have at least a header row and one data row")
	}

	return r.processRows(rows)
}

// readCSVData reads CSV data into structured format
func (r *DataReader) readCSVData() (*ExcelData, error) {
	file, err := os.Open(r.config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	r.logger.Debug("CSV file read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, fmt.Errorf("CSV file must have at least a header row and one data row")
	}

	return r.processRows(rows)
}

// processRows converts raw string rows into ExcelData format
func (r *DataReader) processRows(rows [][]string) (*ExcelData, error) {
	// Extract headers from first row
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(strings.TrimPrefix(header, "\ufeff"))
	}

	// Extract data rows
	dataRows := make([]RawRowData, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		rowData := make(RawRowData)

		for j, cell := range row {
			if j < len(headers) {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}

		dataRows = append(dataRows, rowData)
	}

	r.logger.Info("%s file processed (%d columns, %d rows)",
		strings.ToUpper(r.fileType), len(headers), len(dataRows))

	return &ExcelData{
		Headers: headers,
		Rows:    dataRows,
	}, nil
}

// ToDataset maps raw rows onto records. Without configured columns every
// non-transaction column becomes a dimension named after its lowercased header.
func (r *DataReader) ToDataset(data *ExcelData) (*basket.Dataset, error) {
	txColumn := r.config.TransactionColumn
	if txColumn == "" {
		detected, err := DetectTransactionColumn(data)
		if err != nil {
			return nil, err
		}
		txColumn = detected
		r.logger.Info("Detected transaction column %q", txColumn)
	}
	if !hasHeader(data.Headers, txColumn) {
		return nil, fmt.Errorf("transaction column %q not found in headers %v", txColumn, data.Headers)
	}

	bindings := r.config.Columns
	if len(bindings) == 0 {
		for _, h := range data.Headers {
			if h != txColumn && h != "" {
				bindings = append(bindings, ColumnBinding{Dimension: strings.ToLower(h), Column: h})
			}
		}
	}
	dimensions := make([]string, 0, len(bindings))
	boundTo := make(map[string]string, len(bindings))
	for _, b := range bindings {
		if !hasHeader(data.Headers, b.Column) {
			return nil, fmt.Errorf("column %q for dimension %q not found in headers %v", b.Column, b.Dimension, data.Headers)
		}
		if prev, ok := boundTo[b.Dimension]; ok {
			return nil, fmt.Errorf("dimension %q bound to both column %q and column %q", b.Dimension, prev, b.Column)
		}
		boundTo[b.Dimension] = b.Column
		dimensions = append(dimensions, b.Dimension)
	}

	records := make([]basket.Record, 0, len(data.Rows))
	for _, row := range data.Rows {
		values := make(map[string]string, len(bindings))
		for _, b := range bindings {
			values[b.Dimension] = row[b.Column]
		}
		records = append(records, basket.Record{TransactionID: row[txColumn], Values: values})
	}

	name := strings.TrimSuffix(filepath.Base(r.config.FilePath), filepath.Ext(r.config.FilePath))
	return basket.NewDataset(name, dimensions, records), nil
}

func hasHeader(headers []string, column string) bool {
	for _, h := range headers {
		if h == column {
			return true
		}
	}
	return false
}

// DetectTransactionColumn automatically detects the receipt/basket column
func DetectTransactionColumn(data *ExcelData) (string, error) {
	if len(data.Rows) == 0 {
		return "", fmt.Errorf("no data rows found")
	}

	// Common transaction column names to check
	commonTransactionColumns := []string{
		"receipt",
		"receipt_id",
		"transaction_id",
		"transaction",
		"basket_id",
		"order_id",
		"invoice",
		"invoice_no",
	}

	for _, colName := range commonTransactionColumns {
		for _, header := range data.Headers {
			if strings.ToLower(header) == colName && isValidTransactionColumn(data, header) {
				return header, nil
			}
		}
	}

	// Fall back to first column if no common names found
	if len(data.Headers) > 0 && isValidTransactionColumn(data, data.Headers[0]) {
		return data.Headers[0], nil
	}

	return "", fmt.Errorf("could not detect a transaction column in headers %v", data.Headers)
}

// isValidTransactionColumn requires mostly non-empty values. Repeats are expected
// since a receipt spans several lines.
func isValidTransactionColumn(data *ExcelData, columnName string) bool {
	emptyCount := 0
	for _, row := range data.Rows {
		if row[columnName] == "" {
			emptyCount++
		}
	}
	return float64(emptyCount)/float64(len(data.Rows)) < 0.5
}
