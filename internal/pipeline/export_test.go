package pipeline

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"bytebook/internal"
)

func mkRecords(n int) []internal.Record {
	out := make([]internal.Record, n)
	for i := range out {
		out[i] = internal.Record{Seq: i + 1, CodigosInterno: []string{string(rune('A' + i%26))}}
	}
	return out
}

func TestLoteFilesSplit(t *testing.T) {
	files, err := LoteFiles("base_Plan1", mkRecords(250), true, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Fatalf("got %d files", len(files))
	}
	wantNames := []string{"base_Plan1_lote_1.json", "base_Plan1_lote_2.json", "base_Plan1_lote_3.json"}
	wantSizes := []int{100, 100, 50}
	for i, f := range files {
		if f.Name != wantNames[i] {
			t.Errorf("file %d named %q, want %q", i, f.Name, wantNames[i])
		}
		var records []internal.Record
		if err := json.Unmarshal(f.Data, &records); err != nil {
			t.Fatalf("file %d: %v", i, err)
		}
		if len(records) != wantSizes[i] {
			t.Errorf("file %d holds %d records, want %d", i, len(records), wantSizes[i])
		}
	}
	// chunks carry the original seq values, not renumbered ones
	var second []internal.Record
	if err := json.Unmarshal(files[1].Data, &second); err != nil {
		t.Fatal(err)
	}
	if second[0].Seq != 101 {
		t.Errorf("second lote starts at seq %d", second[0].Seq)
	}
}

func TestLoteFilesSingle(t *testing.T) {
	files, err := LoteFiles("base_Plan1", mkRecords(250), false, 100)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 1 || files[0].Name != "base_Plan1.json" {
		t.Fatalf("unexpected: %v", files)
	}
}

func TestMarshalRecordsShape(t *testing.T) {
	records := []internal.Record{{
		Seq:         1,
		Descricao:   "Conector <A> & Não",
		CpfCnpjRaiz: "39318225",
		Situacao:    "Ativado",
		Modalidade:  "IMPORTACAO",
	}}
	data, err := marshalRecords(records)
	if err != nil {
		t.Fatal(err)
	}
	s := string(data)
	if !strings.Contains(s, "Conector <A> & Não") {
		t.Errorf("HTML escaping should be off: %s", s)
	}
	if !strings.HasPrefix(s, "[\n  {") {
		t.Errorf("expected two-space indent, got %q", s[:16])
	}
	if strings.HasSuffix(s, "\n") {
		t.Error("trailing newline should be trimmed")
	}
}

func TestBundleZip(t *testing.T) {
	files := []ExportFile{
		{Name: "a_lote_1.json", Data: []byte("[]")},
		{Name: "b_lote_1.json", Data: []byte("[{}]")},
	}
	blob, err := BundleZip(files)
	if err != nil {
		t.Fatal(err)
	}
	zr, err := zip.NewReader(bytes.NewReader(blob), int64(len(blob)))
	if err != nil {
		t.Fatal(err)
	}
	if len(zr.File) != 2 {
		t.Fatalf("archive holds %d entries", len(zr.File))
	}
	for i, f := range files {
		if zr.File[i].Name != f.Name {
			t.Errorf("entry %d = %q", i, zr.File[i].Name)
		}
	}
}
