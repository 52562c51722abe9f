package table

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldASCII decomposes input, drops accent marks and every remaining
// non-ASCII rune, and trims surrounding whitespace. "Descrição" folds
// to "Descricao".
func FoldASCII(input string) string {
	folded, _, err := transform.String(stripMarks, input)
	if err != nil {
		folded = input
	}
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

// Normalized returns a copy of t whose column names are ASCII-folded.
// The row slice is copied so in-place edits like DedupeBy stay local
// to the copy; the cells themselves are shared and never touched.
func (t *Table) Normalized() *Table {
	columns := make([]string, len(t.Columns))
	for i, col := range t.Columns {
		columns[i] = FoldASCII(col)
	}
	rows := make([][]Cell, len(t.Rows))
	copy(rows, t.Rows)
	return &Table{Name: t.Name, Columns: columns, Rows: rows}
}
