package table

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ReadHTMLTable parses the first <table> with a header row and at
// least one data row. Lets the operator feed a table saved from a
// web system without re-exporting it as a spreadsheet.
func ReadHTMLTable(name string, blob []byte) (*Table, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(blob))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	var t *Table
	doc.Find("table").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		rows := sel.Find("tr")
		if rows.Length() < 2 {
			return true
		}

		var header []string
		rows.First().Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			header = append(header, strings.TrimSpace(cell.Text()))
		})
		if len(header) == 0 {
			return true
		}

		t = New(name, header)
		rows.Slice(1, rows.Length()).Each(func(_ int, row *goquery.Selection) {
			var cells []string
			row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, strings.TrimSpace(cell.Text()))
			})
			t.AppendRow(cells)
		})
		return false
	})

	if t == nil {
		return nil, fmt.Errorf("no table found in %s", name)
	}
	t.DropEmptyRows()
	return t, nil
}
