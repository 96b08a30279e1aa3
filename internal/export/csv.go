package export

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/roody/paperscout/internal/domain"
)

// WriteCSV writes the papers as RFC 4180 CSV with a header row.
func WriteCSV(w io.Writer, papers []domain.Paper) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Headers); err != nil {
		return fmt.Errorf("export: write csv header: %w", err)
	}
	for i := range papers {
		if err := cw.Write(row(&papers[i])); err != nil {
			return fmt.Errorf("export: write csv row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: flush csv: %w", err)
	}
	return nil
}

// ReadCSV parses a CSV export back into papers. The header row is required.
func ReadCSV(r io.Reader) ([]domain.Paper, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(Headers)

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("export: read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("export: csv is empty")
	}

	papers := make([]domain.Paper, 0, len(records)-1)
	for _, rec := range records[1:] {
		papers = append(papers, fromRow(rec))
	}
	return papers, nil
}
