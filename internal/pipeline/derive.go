package pipeline

import (
	"strings"

	"bytebook/internal"
	"bytebook/internal/table"
)

// BuildPartRows projects generated records into the stored-parts
// shape, one row per record, attribute codes joined in record order.
func BuildPartRows(records []internal.Record) []internal.PartRow {
	out := make([]internal.PartRow, 0, len(records))
	for _, r := range records {
		codes := make([]string, 0, len(r.Atributos))
		for _, a := range r.Atributos {
			codes = append(codes, a.Atributo)
		}
		out = append(out, internal.PartRow{
			PartNumber:      r.PartNumber(),
			Descricao:       r.Descricao,
			NCM:             r.NCM,
			AtributosUsados: strings.Join(codes, ", "),
		})
	}
	return out
}

// BuildAssociations recomputes the (ncm, attribute) pairs straight
// from the table, deliberately not from the transformer's output, so
// the two derivations stay independently checkable. OK/NOK cells
// contribute the suffixed boolean code. The result is a deduplicated
// set in first-seen order; rows without an NCM are skipped.
func BuildAssociations(t *table.Table) []internal.Association {
	ncmCol := t.Resolve(ColNCM)
	attrCols := attributeColumns(t)

	seen := map[internal.Association]struct{}{}
	var out []internal.Association
	for i := 0; i < t.RowCount(); i++ {
		ncm := ""
		if ncmCol >= 0 {
			ncm = strings.TrimSpace(t.Cell(i, ncmCol).Value)
		}
		if ncm == "" {
			continue
		}
		for _, ac := range attrCols {
			cell := t.Cell(i, ac.index)
			if !cell.Present {
				continue
			}
			pair := internal.Association{NCM: ncm, Atrib: EffectiveCode(ac.code, cell.Value)}
			if _, ok := seen[pair]; ok {
				continue
			}
			seen[pair] = struct{}{}
			out = append(out, pair)
		}
	}
	return out
}
