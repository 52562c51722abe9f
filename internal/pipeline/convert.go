package pipeline

import (
	"fmt"

	"bytebook/internal"
	"bytebook/internal/table"
)

// Logical column names resolved against the normalized header.
const (
	ColPartNumber  = "PART_NUMBER"
	ColDescricao   = "Descricao"
	ColDenominacao = "Denominacao"
	ColNCM         = "NCM"
)

// ProgressFunc receives the fraction of rows processed so far, in [0,1].
type ProgressFunc func(fraction float64)

// MissingColumnError aborts a whole sheet: without the part number
// column there is nothing to key records on.
type MissingColumnError struct {
	Column string
	Sheet  string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("required column %q not found in sheet %q", e.Column, e.Sheet)
}

type attributeColumn struct {
	index int
	code  string
}

func attributeColumns(t *table.Table) []attributeColumn {
	var out []attributeColumn
	for i, col := range t.Columns {
		if code, ok := AttributeCode(col); ok {
			out = append(out, attributeColumn{index: i, code: code})
		}
	}
	return out
}

// Convert maps each row of the normalized table to one Record. The
// part number column is resolved once up front and its absence fails
// the batch; individual rows never fail, missing descriptive columns
// degrade to empty fields.
func Convert(t *table.Table, rootID string, progress ProgressFunc) ([]internal.Record, error) {
	partCol := t.Resolve(ColPartNumber)
	if partCol < 0 {
		return nil, &MissingColumnError{Column: ColPartNumber, Sheet: t.Name}
	}
	if rootID == "" {
		rootID = internal.DefaultCpfCnpjRaiz
	}

	attrCols := attributeColumns(t)
	total := t.RowCount()
	records := make([]internal.Record, 0, total)

	for i := 0; i < total; i++ {
		atributos := make([]internal.Attribute, 0, len(attrCols))
		for _, ac := range attrCols {
			cell := t.Cell(i, ac.index)
			if !cell.Present {
				continue
			}
			atributos = append(atributos, Extract(ac.code, cell.Value))
		}

		records = append(records, internal.Record{
			Seq:                              i + 1,
			Descricao:                        t.Value(i, ColDescricao),
			Denominacao:                      t.Value(i, ColDenominacao),
			CpfCnpjRaiz:                      rootID,
			Situacao:                         internal.SituacaoAtivado,
			Modalidade:                       internal.ModalidadeImportacao,
			NCM:                              t.Value(i, ColNCM),
			Atributos:                        atributos,
			CodigosInterno:                   []string{t.Cell(i, partCol).Value},
			AtributosMultivalorados:          []internal.Attribute{},
			AtributosCompostos:               []internal.Attribute{},
			AtributosCompostosMultivalorados: []internal.Attribute{},
		})

		if progress != nil {
			progress(float64(i+1) / float64(total))
		}
	}
	return records, nil
}
