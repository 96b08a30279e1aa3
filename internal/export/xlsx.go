package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/roody/paperscout/internal/domain"
)

// sheetName is the single worksheet both the writer and reader use.
const sheetName = "Papers"

// WriteXLSX writes the papers as an Excel workbook with a single sheet.
func WriteXLSX(w io.Writer, papers []domain.Paper) error {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("export: create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("export: drop default sheet: %w", err)
	}

	header := make([]interface{}, len(Headers))
	for i, h := range Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("export: write xlsx header: %w", err)
	}

	for i := range papers {
		cells := row(&papers[i])
		values := make([]interface{}, len(cells))
		for j, c := range cells {
			values[j] = c
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("export: cell name: %w", err)
		}
		if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
			return fmt.Errorf("export: write xlsx row: %w", err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("export: write xlsx: %w", err)
	}
	return nil
}

// ReadXLSX parses an XLSX export back into papers.
func ReadXLSX(r io.Reader) ([]domain.Paper, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("export: open xlsx: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("export: read xlsx rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("export: xlsx sheet is empty")
	}

	papers := make([]domain.Paper, 0, len(rows)-1)
	for _, rec := range rows[1:] {
		papers = append(papers, fromRow(rec))
	}
	return papers, nil
}
