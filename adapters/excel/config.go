package excel

// ExcelConfig holds configuration for a CSV or XLSX transaction file
type ExcelConfig struct {
	FilePath          string          `json:"file_path"`
	Sheet             string          `json:"sheet"`
	TransactionColumn string          `json:"transaction_column"`
	Columns           []ColumnBinding `json:"columns"`
}

// DefaultExcelConfig returns sensible defaults for Excel processing.
// Empty TransactionColumn and Columns are detected from the headers.
func DefaultExcelConfig() ExcelConfig {
	return ExcelConfig{
		Sheet: "Sheet1",
	}
}
