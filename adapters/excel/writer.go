package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"gobasket/domain/basket"
)

// TransactionHeader is the transaction column written by WriteDataset
const TransactionHeader = "transaction_id"

// WriteDataset writes one line per record, as CSV or XLSX depending on the extension.
func WriteDataset(path string, ds *basket.Dataset) error {
	rows := make([][]string, 0, ds.Len()+1)
	rows = append(rows, append([]string{TransactionHeader}, ds.Dimensions...))
	for _, rec := range ds.Records {
		row := make([]string, 0, len(ds.Dimensions)+1)
		row = append(row, rec.TransactionID)
		for _, dim := range ds.Dimensions {
			row = append(row, rec.Values[dim])
		}
		rows = append(rows, row)
	}

	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		return writeCSV(path, rows)
	}
	return writeXLSX(path, rows)
}

func writeCSV(path string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer file.Close()

	w := csv.NewWriter(file)
	if err := w.WriteAll(rows); err != nil {
		return fmt.Errorf("failed to write CSV file: %w", err)
	}
	return nil
}

func writeXLSX(path string, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := DefaultExcelConfig().Sheet
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}
