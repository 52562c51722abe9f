package pipeline

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"bytebook/internal"
	"bytebook/internal/table"
)

// FormatError reports attribute-like columns with a bad prefix. The
// sheet is skipped outright: converting it would silently lose those
// attributes.
type FormatError struct {
	Sheet   string
	Columns []string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("sheet %q: columns look like attributes but are not ATT_ codes: %s",
		e.Sheet, strings.Join(e.Columns, ", "))
}

// CheckAttributeFormat is the pre-flight naming-convention guard.
func CheckAttributeFormat(t *table.Table) error {
	if bad := MisshapedAttributeColumns(t.Columns); len(bad) > 0 {
		return &FormatError{Sheet: t.Name, Columns: bad}
	}
	return nil
}

// MismatchError pinpoints the first divergence between generated
// records and the table they were derived from. Line counts from 2 so
// the operator can find the row in the spreadsheet (1 is the header).
type MismatchError struct {
	Line       int
	PartNumber string
	Field      string
	Expected   string
	Actual     string
}

func (e *MismatchError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("%s mismatch: expected %s, got %s", e.Field, e.Expected, e.Actual)
	}
	return fmt.Sprintf("line %d (part number %q): %s mismatch: expected %s, got %s",
		e.Line, e.PartNumber, e.Field, e.Expected, e.Actual)
}

// CrossValidate re-derives every checked field from the table and
// compares it with the generated records, stopping at the first
// divergence. The mapping engine runs on naming conventions over
// operator spreadsheets; this is the net that catches a silent
// misclassification before it reaches the database or a submission.
func CrossValidate(records []internal.Record, t *table.Table) error {
	if len(records) != t.RowCount() {
		return &MismatchError{
			Field:    "row count",
			Expected: fmt.Sprintf("%d", t.RowCount()),
			Actual:   fmt.Sprintf("%d", len(records)),
		}
	}

	attrCols := attributeColumns(t)
	for i, rec := range records {
		line := i + 2
		part := strings.TrimSpace(t.Value(i, ColPartNumber))

		if got := strings.TrimSpace(rec.PartNumber()); got != part {
			return &MismatchError{Line: line, PartNumber: part, Field: "part number", Expected: part, Actual: got}
		}
		if ncm := t.Value(i, ColNCM); rec.NCM != ncm {
			return &MismatchError{Line: line, PartNumber: part, Field: "ncm", Expected: ncm, Actual: rec.NCM}
		}
		if desc := t.Value(i, ColDescricao); rec.Descricao != desc {
			return &MismatchError{Line: line, PartNumber: part, Field: "descricao", Expected: desc, Actual: rec.Descricao}
		}
		if den := t.Value(i, ColDenominacao); rec.Denominacao != den {
			return &MismatchError{Line: line, PartNumber: part, Field: "denominacao", Expected: den, Actual: rec.Denominacao}
		}

		expected := make([]internal.Attribute, 0, len(attrCols))
		for _, ac := range attrCols {
			cell := t.Cell(i, ac.index)
			if !cell.Present {
				continue
			}
			expected = append(expected, Extract(ac.code, cell.Value))
		}

		if len(expected) != len(rec.Atributos) {
			return &MismatchError{
				Line: line, PartNumber: part, Field: "attribute count",
				Expected: fmt.Sprintf("%d", len(expected)),
				Actual:   fmt.Sprintf("%d", len(rec.Atributos)),
			}
		}

		want := sortedByCode(expected)
		got := sortedByCode(rec.Atributos)
		for j := range want {
			if want[j] != got[j] {
				return &MismatchError{
					Line: line, PartNumber: part, Field: "atributos",
					Expected: attributesJSON(want),
					Actual:   attributesJSON(got),
				}
			}
		}
	}
	return nil
}

// sortedByCode orders attributes by code only; the stable sort keeps
// encounter order for repeated codes so both sides compare alike.
func sortedByCode(attrs []internal.Attribute) []internal.Attribute {
	out := make([]internal.Attribute, len(attrs))
	copy(out, attrs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Atributo < out[j].Atributo })
	return out
}

func attributesJSON(attrs []internal.Attribute) string {
	blob, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Sprintf("%v", attrs)
	}
	return string(blob)
}
