// Package importer loads role titles and descriptions from a spreadsheet.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	apperrors "art-of-prompting/internal/common/errors"
	"art-of-prompting/internal/models"
)

// Header names matched case-insensitively after trimming.
const (
	TitleColumn       = "Title"
	DescriptionColumn = "Description"
)

// Sheet is the parsed content of one spreadsheet.
type Sheet struct {
	Source     string
	SheetName  string
	Records    []models.RoleContext
	Rows       int
	Skipped    int
	Duplicates int
}

// ReadFile parses an .xlsx or .csv file. For workbooks the first sheet is read
// unless sheet is set.
func ReadFile(path, sheet string) (*Sheet, error) {
	var (
		rows      [][]string
		sheetName string
		err       error
	)

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm", ".xltx":
		rows, sheetName, err = readWorkbook(path, sheet)
	case ".csv":
		rows, err = readCSVFile(path)
	default:
		err = fmt.Errorf("unsupported file type %q (expected .xlsx or .csv)", filepath.Ext(path))
	}
	if err != nil {
		return nil, apperrors.NewImportFailedError(path, err)
	}

	s, err := parseRows(rows)
	if err != nil {
		return nil, apperrors.NewImportFailedError(path, err)
	}
	s.Source = path
	s.SheetName = sheetName
	return s, nil
}

func readWorkbook(path, sheet string) ([][]string, string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, "", errors.New("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, sheet, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, sheet, nil
}

func readCSVFile(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return readCSV(file)
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	return rows, nil
}

// parseRows treats the first row as the header. Rows with a blank title are
// skipped; a repeated title replaces the earlier description.
func parseRows(rows [][]string) (*Sheet, error) {
	if len(rows) == 0 {
		return nil, errors.New("spreadsheet is empty")
	}

	titleIdx, descIdx := -1, -1
	for i, cell := range rows[0] {
		name := strings.TrimSpace(strings.TrimPrefix(cell, "\ufeff"))
		switch {
		case strings.EqualFold(name, TitleColumn) && titleIdx < 0:
			titleIdx = i
		case strings.EqualFold(name, DescriptionColumn) && descIdx < 0:
			descIdx = i
		}
	}

	var missing []string
	if titleIdx < 0 {
		missing = append(missing, TitleColumn)
	}
	if descIdx < 0 {
		missing = append(missing, DescriptionColumn)
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required column(s): %s", strings.Join(missing, ", "))
	}

	s := &Sheet{}
	index := make(map[string]int)
	for _, row := range rows[1:] {
		s.Rows++
		title := strings.TrimSpace(cellAt(row, titleIdx))
		if title == "" {
			s.Skipped++
			continue
		}
		desc := strings.TrimSpace(cellAt(row, descIdx))

		if pos, ok := index[title]; ok {
			s.Records[pos].Description = desc
			s.Duplicates++
			continue
		}
		index[title] = len(s.Records)
		s.Records = append(s.Records, models.RoleContext{Title: title, Description: desc})
	}
	return s, nil
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
