package pipeline

import (
	"bytebook/internal"
	"bytebook/internal/table"
)

const modalidadeCatalog = "Importação"

// ExtractCatalog builds attribute catalog entries from the table's
// attribute columns. A column whose values ever contain a literal
// ok/nok is a boolean attribute and yields its (OK) and (NOK)
// variants with suffixed codes; anything else yields one plain entry.
// Deduplicated by code, first occurrence wins.
func ExtractCatalog(t *table.Table) []internal.CatalogEntry {
	seen := map[string]struct{}{}
	var out []internal.CatalogEntry

	add := func(nome, codigo string) {
		if _, ok := seen[codigo]; ok {
			return
		}
		seen[codigo] = struct{}{}
		out = append(out, internal.CatalogEntry{Nome: nome, Codigo: codigo, Modalidade: modalidadeCatalog})
	}

	for i, col := range t.Columns {
		label, code, ok := SplitLabel(col)
		if !ok {
			continue
		}
		if columnHasBool(t, i) {
			add(label+" (OK)", code+"_true")
			add(label+" (NOK)", code+"_false")
		} else {
			add(label, code)
		}
	}
	return out
}

func columnHasBool(t *table.Table, col int) bool {
	for i := 0; i < t.RowCount(); i++ {
		cell := t.Cell(i, col)
		if !cell.Present {
			continue
		}
		if _, ok := isBool(cell.Value); ok {
			return true
		}
	}
	return false
}
