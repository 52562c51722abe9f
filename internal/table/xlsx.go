package table

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX parses every sheet of an xlsx workbook into one Table per
// sheet. The first non-empty row of a sheet is its header; sheets
// without a header row are skipped.
func ReadXLSX(blob []byte) ([]*Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	var out []*Table
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}

		var t *Table
		for _, row := range rows {
			if t == nil {
				if header := trimHeader(row); len(header) > 0 {
					t = New(sheet, header)
				}
				continue
			}
			t.AppendRow(row)
		}
		if t == nil {
			continue
		}
		t.DropEmptyRows()
		out = append(out, t)
	}
	return out, nil
}

func trimHeader(row []string) []string {
	last := -1
	for i, v := range row {
		if strings.TrimSpace(v) != "" {
			last = i
		}
	}
	if last < 0 {
		return nil
	}
	header := make([]string, last+1)
	for i := 0; i <= last; i++ {
		header[i] = strings.TrimSpace(row[i])
	}
	return header
}
