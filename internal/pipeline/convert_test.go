package pipeline

import (
	"testing"

	"bytebook/internal"
	"bytebook/internal/table"
)

func attr(code, valor string) internal.Attribute {
	return internal.Attribute{Atributo: code, Valor: valor}
}

func mkTable(name string, columns []string, rows ...[]string) *table.Table {
	t := table.New(name, columns)
	for _, row := range rows {
		t.AppendRow(row)
	}
	return t
}

func TestConvertEndToEnd(t *testing.T) {
	tbl := mkTable("Plan1",
		[]string{"PART_NUMBER", "Descricao", "NCM", "ATT_100", "ATT_200"},
		[]string{"P1", "Widget", "12345678", "ok", "X-1"},
		[]string{"P2", "Gadget", "87654321", "nok", "Y-2"},
	)

	records, err := Convert(tbl, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 2 {
		t.Fatalf("want 2 records, got %d", len(records))
	}

	r := records[0]
	if r.Seq != 1 || r.Descricao != "Widget" || r.NCM != "12345678" {
		t.Fatalf("unexpected first record: %+v", r)
	}
	if r.CpfCnpjRaiz != "39318225" || r.Situacao != "Ativado" || r.Modalidade != "IMPORTACAO" {
		t.Fatalf("constant fields wrong: %+v", r)
	}
	if len(r.CodigosInterno) != 1 || r.CodigosInterno[0] != "P1" {
		t.Fatalf("codigosInterno: %v", r.CodigosInterno)
	}
	if len(r.Atributos) != 2 ||
		r.Atributos[0] != (attr("ATT_100", "true")) ||
		r.Atributos[1] != (attr("ATT_200", "X")) {
		t.Fatalf("atributos: %v", r.Atributos)
	}

	r = records[1]
	if r.Seq != 2 || r.Descricao != "Gadget" {
		t.Fatalf("unexpected second record: %+v", r)
	}
	if r.Atributos[0] != (attr("ATT_100", "false")) || r.Atributos[1] != (attr("ATT_200", "Y")) {
		t.Fatalf("atributos: %v", r.Atributos)
	}
	if r.AtributosMultivalorados == nil || r.AtributosCompostos == nil || r.AtributosCompostosMultivalorados == nil {
		t.Fatal("placeholder collections must be empty, not nil")
	}
}

func TestConvertSequenceContiguity(t *testing.T) {
	tbl := mkTable("s", []string{"PART_NUMBER"},
		[]string{"A"}, []string{"B"}, []string{"C"}, []string{"D"})
	records, err := Convert(tbl, "11222333", nil)
	if err != nil {
		t.Fatal(err)
	}
	for i, r := range records {
		if r.Seq != i+1 {
			t.Fatalf("seq at %d = %d", i, r.Seq)
		}
		if r.CpfCnpjRaiz != "11222333" {
			t.Fatalf("root id not applied: %+v", r)
		}
	}
}

func TestConvertMissingPartNumberFailsBatch(t *testing.T) {
	tbl := mkTable("s", []string{"Descricao", "NCM"}, []string{"Widget", "12345678"})
	_, err := Convert(tbl, "", nil)
	if err == nil {
		t.Fatal("want error for missing part number column")
	}
	if _, ok := err.(*MissingColumnError); !ok {
		t.Fatalf("want *MissingColumnError, got %T", err)
	}
}

func TestConvertMissingDescriptiveColumnsDegrade(t *testing.T) {
	tbl := mkTable("s", []string{"PART_NUMBER", "ATT_1"}, []string{"P1", "ok"})
	records, err := Convert(tbl, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	r := records[0]
	if r.Descricao != "" || r.Denominacao != "" || r.NCM != "" {
		t.Fatalf("descriptive fields should be empty: %+v", r)
	}
}

func TestConvertSparseAttributes(t *testing.T) {
	tbl := mkTable("s",
		[]string{"PART_NUMBER", "ATT_1", "ATT_2"},
		[]string{"P1", "", "B-2"},
	)
	records, err := Convert(tbl, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(records[0].Atributos) != 1 || records[0].Atributos[0] != (attr("ATT_2", "B")) {
		t.Fatalf("missing cell must produce no attribute: %v", records[0].Atributos)
	}
}

func TestConvertProgress(t *testing.T) {
	tbl := mkTable("s", []string{"PART_NUMBER"}, []string{"A"}, []string{"B"})
	var fractions []float64
	_, err := Convert(tbl, "", func(f float64) { fractions = append(fractions, f) })
	if err != nil {
		t.Fatal(err)
	}
	if len(fractions) != 2 || fractions[0] != 0.5 || fractions[1] != 1.0 {
		t.Fatalf("progress fractions: %v", fractions)
	}
}

func TestConvertLegacyColumnNaming(t *testing.T) {
	tbl := mkTable("s",
		[]string{"PART_NUMBER", "Balistica - ATT_10627"},
		[]string{"P1", "ok"},
	)
	records, err := Convert(tbl, "", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(records[0].Atributos) != 1 || records[0].Atributos[0] != (attr("ATT_10627", "true")) {
		t.Fatalf("legacy column: %v", records[0].Atributos)
	}
}
