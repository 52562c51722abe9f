package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"bytebook/internal"
	"bytebook/internal/table"
)

// associationTable gets the wide-format expansion on load instead of
// a column-for-column copy.
const associationTable = "ncm_x_atrib"

// LoadOutcome reports one bulk load into a database table.
type LoadOutcome struct {
	Table          string
	Sheet          string
	Rows           int
	Inserted       int
	IgnoredColumns []string
}

// ExpandNCMAtrib converts a wide sheet into (ncm, atrib) pairs: the
// NCM column plus every column with ATRIB in its name, one pair per
// non-empty cell, the cell value being the attribute code. Rows
// without an NCM are skipped, the result is deduplicated in
// first-seen order.
func ExpandNCMAtrib(t *table.Table) ([]internal.Association, error) {
	ncmCol := t.Resolve(ColNCM)
	if ncmCol < 0 {
		return nil, &MissingColumnError{Column: ColNCM, Sheet: t.Name}
	}

	var atribCols []int
	for i, col := range t.Columns {
		if i == ncmCol {
			continue
		}
		if strings.Contains(strings.ToUpper(col), "ATRIB") {
			atribCols = append(atribCols, i)
		}
	}

	seen := map[internal.Association]struct{}{}
	var out []internal.Association
	for i := 0; i < t.RowCount(); i++ {
		ncm := strings.TrimSpace(t.Cell(i, ncmCol).Value)
		if ncm == "" {
			continue
		}
		for _, col := range atribCols {
			cell := t.Cell(i, col)
			if !cell.Present {
				continue
			}
			pair := internal.Association{NCM: ncm, Atrib: cell.Value}
			if _, ok := seen[pair]; ok {
				continue
			}
			seen[pair] = struct{}{}
			out = append(out, pair)
		}
	}
	return out, nil
}

// LoadTable bulk-loads one sheet into target. The association table
// goes through ExpandNCMAtrib; everything else is matched column by
// column against the table schema, names compared case-insensitively,
// spreadsheet extras ignored, schema columns missing from the sheet
// fail the load.
func (p *Processor) LoadTable(target string, t *table.Table) (*LoadOutcome, error) {
	outcome := &LoadOutcome{Table: target, Sheet: t.Name, Rows: t.RowCount()}

	if strings.EqualFold(target, associationTable) {
		pairs, err := ExpandNCMAtrib(t)
		if err != nil {
			return nil, err
		}
		n, err := p.db.InsertAssociations(pairs)
		if err != nil {
			return nil, err
		}
		outcome.Inserted = n
		return outcome, nil
	}

	schema, err := p.db.TableColumns(target)
	if err != nil {
		return nil, err
	}

	indexes := make([]int, len(schema))
	var missing []string
	for i, col := range schema {
		idx := -1
		for j, sheetCol := range t.Columns {
			if strings.EqualFold(strings.TrimSpace(sheetCol), col) {
				idx = j
				break
			}
		}
		if idx < 0 {
			missing = append(missing, col)
		}
		indexes[i] = idx
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("sheet %q is missing required columns of %s: %s",
			t.Name, target, strings.Join(missing, ", "))
	}

	used := map[int]struct{}{}
	for _, idx := range indexes {
		used[idx] = struct{}{}
	}
	for i, col := range t.Columns {
		if _, ok := used[i]; !ok {
			outcome.IgnoredColumns = append(outcome.IgnoredColumns, col)
		}
	}

	rows := make([][]any, 0, t.RowCount())
	for i := 0; i < t.RowCount(); i++ {
		row := make([]any, len(indexes))
		for j, idx := range indexes {
			if cell := t.Cell(i, idx); cell.Present {
				row[j] = cell.Value
			}
		}
		rows = append(rows, row)
	}

	n, err := p.db.InsertRows(target, schema, rows)
	if err != nil {
		return nil, err
	}
	outcome.Inserted = n
	return outcome, nil
}

// LoadFile parses an uploaded file and loads its first sheet into
// target.
func (p *Processor) LoadFile(target, filename string, blob []byte) (*LoadOutcome, error) {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	tables, err := p.parseFile(filename, base, blob)
	if err != nil {
		return nil, err
	}
	if len(tables) == 0 {
		return nil, fmt.Errorf("no usable sheet in %s", filename)
	}
	return p.LoadTable(target, tables[0])
}
