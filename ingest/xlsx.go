package ingest

import (
	"io"

	"github.com/xuri/excelize/v2"

	"labrat/domain/table"
	"labrat/internal/errors"
)

// ParseXLSX reads the first sheet of an Excel workbook. Cell values
// arrive as display strings and go through the same inference as CSV.
func ParseXLSX(r io.Reader) (table.Table, []string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, errors.InvalidInput("Could not parse Excel file: " + err.Error())
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil, errors.InvalidInput("Workbook contains no sheets.")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, nil, errors.Wrap(err, "read worksheet rows")
	}
	return fromRows(rows)
}
