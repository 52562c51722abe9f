package pipeline

import (
	"strings"
	"testing"

	"bytebook/internal"
)

func TestExpandNCMAtrib(t *testing.T) {
	tbl := mkTable("s",
		[]string{"NCM", "ATRIB 1", "ATRIB 2"},
		[]string{"12345678", "ATT_100_true", "ATT_200"},
		[]string{"87654321", "ATT_100_false", ""},
		[]string{"12345678", "ATT_100_true", ""}, // repeated pair
		[]string{"", "ATT_300", "ATT_400"},       // no NCM, skipped
	)

	pairs, err := ExpandNCMAtrib(tbl)
	if err != nil {
		t.Fatal(err)
	}
	want := []internal.Association{
		{NCM: "12345678", Atrib: "ATT_100_true"},
		{NCM: "12345678", Atrib: "ATT_200"},
		{NCM: "87654321", Atrib: "ATT_100_false"},
	}
	if len(pairs) != len(want) {
		t.Fatalf("got %d pairs: %v", len(pairs), pairs)
	}
	for i := range want {
		if pairs[i] != want[i] {
			t.Errorf("pair %d = %+v, want %+v", i, pairs[i], want[i])
		}
	}
}

func TestExpandNCMAtribMissingNCM(t *testing.T) {
	tbl := mkTable("s", []string{"ATRIB 1"}, []string{"ATT_100"})
	if _, err := ExpandNCMAtrib(tbl); err == nil {
		t.Fatal("want error without an NCM column")
	}
}

func TestLoadTableAssociations(t *testing.T) {
	p := testProcessor(t)
	tbl := mkTable("s",
		[]string{"NCM", "ATRIB obrigatorio"},
		[]string{"12345678", "ATT_100"},
		[]string{"12345678", "ATT_100"},
	)

	outcome, err := p.LoadTable("ncm_x_atrib", tbl)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Inserted != 1 {
		t.Fatalf("outcome: %+v", outcome)
	}

	again, err := p.LoadTable("NCM_X_ATRIB", tbl)
	if err != nil {
		t.Fatal(err)
	}
	if again.Inserted != 0 {
		t.Fatalf("reload should insert nothing: %+v", again)
	}
}

func TestLoadTableGeneric(t *testing.T) {
	p := testProcessor(t)
	tbl := mkTable("s",
		[]string{"Part_Number", "DESCRICAO", "ncm", "atributos_usados", "obs"},
		[]string{"P1", "Widget", "12345678", "ATT_100", "ignore me"},
		[]string{"P2", "Gadget", "87654321", "", ""},
	)

	outcome, err := p.LoadTable("ncm_x_atrib_x_pn", tbl)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Inserted != 2 || outcome.Rows != 2 {
		t.Fatalf("outcome: %+v", outcome)
	}
	if len(outcome.IgnoredColumns) != 1 || outcome.IgnoredColumns[0] != "obs" {
		t.Fatalf("ignored: %v", outcome.IgnoredColumns)
	}

	parts, err := p.db.ListParts()
	if err != nil {
		t.Fatal(err)
	}
	if len(parts) != 2 || parts[0].PartNumber != "P1" || parts[0].Descricao != "Widget" {
		t.Fatalf("parts: %+v", parts)
	}
	if parts[1].AtributosUsados != "" {
		t.Fatalf("absent cell should load as empty: %+v", parts[1])
	}
}

func TestLoadTableMissingColumns(t *testing.T) {
	p := testProcessor(t)
	tbl := mkTable("s", []string{"part_number"}, []string{"P1"})

	_, err := p.LoadTable("ncm_x_atrib_x_pn", tbl)
	if err == nil {
		t.Fatal("want error for missing schema columns")
	}
	if !strings.Contains(err.Error(), "descricao") {
		t.Fatalf("error should list the missing columns: %v", err)
	}
}

func TestLoadTableUnknownTable(t *testing.T) {
	p := testProcessor(t)
	tbl := mkTable("s", []string{"a"}, []string{"1"})
	if _, err := p.LoadTable("no_such_table", tbl); err == nil {
		t.Fatal("want error for unknown table")
	}
}

func TestLoadFileCSV(t *testing.T) {
	p := testProcessor(t)
	csv := []byte("id,name,cpf_cnpj_raiz\n1,Matriz,39318225\n")

	outcome, err := p.LoadFile("cnpj_options", "options.csv", csv)
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Inserted != 1 {
		t.Fatalf("outcome: %+v", outcome)
	}
	options, err := p.db.ListCNPJOptions()
	if err != nil {
		t.Fatal(err)
	}
	if len(options) != 1 || options[0].Name != "Matriz" {
		t.Fatalf("options: %+v", options)
	}
}
