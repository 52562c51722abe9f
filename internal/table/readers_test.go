package table

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"
)

func mkXLSX(t *testing.T, sheets map[string][][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	first := true
	for name, rows := range sheets {
		if first {
			if err := f.SetSheetName(f.GetSheetName(0), name); err != nil {
				t.Fatal(err)
			}
			first = false
		} else if _, err := f.NewSheet(name); err != nil {
			t.Fatal(err)
		}
		for i, row := range rows {
			cell, _ := excelize.CoordinatesToCellName(1, i+1)
			if err := f.SetSheetRow(name, cell, &row); err != nil {
				t.Fatal(err)
			}
		}
	}
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestReadXLSX(t *testing.T) {
	blob := mkXLSX(t, map[string][][]string{
		"Plan1": {
			{"PART_NUMBER", "NCM", "ATT_100"},
			{"P1", "12345678", "ok"},
			{"", "", ""},
			{"P2", "87654321", "nok"},
		},
	})

	tables, err := ReadXLSX(blob)
	if err != nil {
		t.Fatal(err)
	}
	if len(tables) != 1 {
		t.Fatalf("got %d tables", len(tables))
	}
	tbl := tables[0]
	if tbl.Name != "Plan1" {
		t.Errorf("name = %q", tbl.Name)
	}
	if len(tbl.Columns) != 3 || tbl.Columns[0] != "PART_NUMBER" {
		t.Fatalf("columns: %v", tbl.Columns)
	}
	if tbl.RowCount() != 2 {
		t.Fatalf("blank row should be dropped, got %d rows", tbl.RowCount())
	}
	if tbl.Cell(1, 0).Value != "P2" {
		t.Fatalf("rows: %+v", tbl.Rows)
	}
}

func TestReadXLSXHeaderAfterBlankRows(t *testing.T) {
	blob := mkXLSX(t, map[string][][]string{
		"Plan1": {
			{"", ""},
			{"PART_NUMBER", "NCM"},
			{"P1", "12345678"},
		},
	})
	tables, err := ReadXLSX(blob)
	if err != nil {
		t.Fatal(err)
	}
	if len(tables) != 1 || tables[0].Columns[0] != "PART_NUMBER" || tables[0].RowCount() != 1 {
		t.Fatalf("tables: %+v", tables)
	}
}

func TestReadCSV(t *testing.T) {
	blob := []byte("PART_NUMBER,Descricao,NCM\nP1,Widget,12345678\nP2,Gadget,87654321\n")
	tbl, err := ReadCSV("base", blob, "utf-8")
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Name != "base" || tbl.RowCount() != 2 {
		t.Fatalf("table: %+v", tbl)
	}
	if tbl.Value(1, "Descricao") != "Gadget" {
		t.Fatalf("rows: %+v", tbl.Rows)
	}
}

func TestReadCSVLatin1(t *testing.T) {
	// "Descrição" encoded as Latin-1: ç=0xE7, ã=0xE3
	blob := []byte("PART_NUMBER,Descri\xe7\xe3o\nP1,Conex\xe3o\n")
	tbl, err := ReadCSV("base", blob, "latin-1")
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Columns[1] != "Descrição" {
		t.Fatalf("header not decoded: %q", tbl.Columns[1])
	}
	if tbl.Cell(0, 1).Value != "Conexão" {
		t.Fatalf("value not decoded: %q", tbl.Cell(0, 1).Value)
	}
}

func TestReadHTMLTable(t *testing.T) {
	blob := []byte(`<html><body>
		<table><tr><td>only one row</td></tr></table>
		<table>
			<tr><th>PART_NUMBER</th><th>NCM</th></tr>
			<tr><td> P1 </td><td>12345678</td></tr>
			<tr><td>P2</td><td>87654321</td></tr>
		</table>
	</body></html>`)

	tbl, err := ReadHTMLTable("export", blob)
	if err != nil {
		t.Fatal(err)
	}
	if tbl.Name != "export" || len(tbl.Columns) != 2 || tbl.RowCount() != 2 {
		t.Fatalf("table: %+v", tbl)
	}
	if tbl.Cell(0, 0).Value != "P1" {
		t.Fatalf("rows: %+v", tbl.Rows)
	}
}

func TestReadHTMLTableNone(t *testing.T) {
	if _, err := ReadHTMLTable("x", []byte("<p>no tables here</p>")); err == nil {
		t.Fatal("want error when no usable table exists")
	}
}
