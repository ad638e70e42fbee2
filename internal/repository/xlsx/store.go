package xlsx

import (
	"errors"
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// ErrNotFound indicates the spreadsheet file does not exist.
var ErrNotFound = errors.New("spreadsheet file not found")

// Record is one spreadsheet row keyed by column name. Values read back from a
// file are the formatted cell strings.
type Record map[string]any

// Store reads and writes a single named sheet of an xlsx file as an ordered
// sequence of records. It carries no business logic.
type Store struct {
	logger *zap.Logger
}

// NewStore builds an xlsx codec instance.
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{logger: logger}
}

// Read loads every record of the named sheet. The first row is taken as the
// header; shorter data rows are padded with empty strings.
func (s *Store) Read(path, sheet string) ([]Record, []string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, nil, fmt.Errorf("stat %s: %w", path, err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %s of %s: %w", sheet, path, err)
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}

	headers := rows[0]
	records := make([]Record, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(Record, len(headers))
		for i, header := range headers {
			if i < len(row) {
				record[header] = row[i]
			} else {
				record[header] = ""
			}
		}
		records = append(records, record)
	}

	s.logger.Debug("sheet loaded", zap.String("path", path), zap.String("sheet", sheet), zap.Int("rows", len(records)))
	return records, headers, nil
}

// Write rewrites the whole file at path with exactly one named sheet holding
// the records in the given column order. The content is saved to a sibling
// temp file first and renamed over the target, so readers never observe a
// half-written file.
func (s *Store) Write(path, sheet string, columns []string, records []Record) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("name sheet %s: %w", sheet, err)
	}

	for i, column := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell %d: %w", i+1, err)
		}
		if err := f.SetCellValue(sheet, cell, column); err != nil {
			return fmt.Errorf("write header %s: %w", column, err)
		}
	}

	for r, record := range records {
		for c, column := range columns {
			value, ok := record[column]
			if !ok || value == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return fmt.Errorf("cell (%d,%d): %w", c+1, r+2, err)
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("write cell %s: %w", cell, err)
			}
		}
	}

	tmp := path + ".tmp.xlsx"
	if err := f.SaveAs(tmp); err != nil {
		return fmt.Errorf("save %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", path, err)
	}

	s.logger.Debug("sheet written", zap.String("path", path), zap.String("sheet", sheet), zap.Int("rows", len(records)))
	return nil
}
