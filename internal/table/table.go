package table

import "strings"

// Cell is one tabular value. Present is false for empty spreadsheet
// cells so downstream code can tell "missing" from "empty string".
type Cell struct {
	Value   string
	Present bool
}

// Table is an ordered tabular dataset with named columns. Rows are
// aligned with Columns; a short row is padded with absent cells.
type Table struct {
	Name    string
	Columns []string
	Rows    [][]Cell
}

func New(name string, columns []string) *Table {
	return &Table{Name: name, Columns: columns}
}

func (t *Table) AppendRow(values []string) {
	row := make([]Cell, len(t.Columns))
	for i := range t.Columns {
		if i < len(values) {
			v := strings.TrimSpace(values[i])
			row[i] = Cell{Value: v, Present: v != ""}
		}
	}
	t.Rows = append(t.Rows, row)
}

func (t *Table) RowCount() int { return len(t.Rows) }

func (t *Table) Cell(row, col int) Cell {
	if row < 0 || row >= len(t.Rows) || col < 0 || col >= len(t.Rows[row]) {
		return Cell{}
	}
	return t.Rows[row][col]
}

// Resolve finds the column matching target: a case-insensitive exact
// match wins, otherwise the first column containing target as a
// substring. Returns -1 when nothing matches.
func (t *Table) Resolve(target string) int {
	lower := strings.ToLower(target)
	for i, col := range t.Columns {
		if strings.ToLower(col) == lower {
			return i
		}
	}
	for i, col := range t.Columns {
		if strings.Contains(strings.ToLower(col), lower) {
			return i
		}
	}
	return -1
}

// Value is Resolve plus cell lookup; absent column or cell yields "".
func (t *Table) Value(row int, target string) string {
	col := t.Resolve(target)
	if col < 0 {
		return ""
	}
	return t.Cell(row, col).Value
}

func (t *Table) isEmptyRow(row []Cell) bool {
	for _, c := range row {
		if c.Present {
			return false
		}
	}
	return true
}

// DropEmptyRows removes rows with no present cell, in place.
func (t *Table) DropEmptyRows() {
	kept := t.Rows[:0]
	for _, row := range t.Rows {
		if !t.isEmptyRow(row) {
			kept = append(kept, row)
		}
	}
	t.Rows = kept
}

// DedupeBy keeps the first row per distinct trimmed value of column
// col and reports how many rows were dropped.
func (t *Table) DedupeBy(col int) int {
	seen := map[string]struct{}{}
	kept := t.Rows[:0]
	dropped := 0
	for _, row := range t.Rows {
		key := ""
		if col >= 0 && col < len(row) {
			key = strings.TrimSpace(row[col].Value)
		}
		if _, ok := seen[key]; ok {
			dropped++
			continue
		}
		seen[key] = struct{}{}
		kept = append(kept, row)
	}
	t.Rows = kept
	return dropped
}
