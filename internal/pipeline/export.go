package pipeline

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/xuri/excelize/v2"

	"bytebook/internal"
)

// DefaultLoteSize is the fixed record count per exported file when
// batching is on.
const DefaultLoteSize = 100

// ExportFile is one generated artifact, ready to download or zip.
type ExportFile struct {
	Name string
	Data []byte
}

// marshalRecords renders records the way the import system receives
// them: two-space indent, accented characters literal.
func marshalRecords(records []internal.Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// LoteFiles splits records for one sheet into files. With split on,
// chunks of loteSize become <key>_lote_<n>.json, n from 1; otherwise
// a single <key>.json holds the whole sheet.
func LoteFiles(key string, records []internal.Record, split bool, loteSize int) ([]ExportFile, error) {
	if loteSize <= 0 {
		loteSize = DefaultLoteSize
	}
	if !split {
		data, err := marshalRecords(records)
		if err != nil {
			return nil, err
		}
		return []ExportFile{{Name: key + ".json", Data: data}}, nil
	}

	var out []ExportFile
	for start, n := 0, 1; start < len(records); start, n = start+loteSize, n+1 {
		end := start + loteSize
		if end > len(records) {
			end = len(records)
		}
		data, err := marshalRecords(records[start:end])
		if err != nil {
			return nil, err
		}
		out = append(out, ExportFile{Name: fmt.Sprintf("%s_lote_%d.json", key, n), Data: data})
	}
	return out, nil
}

// BundleZip packages every generated file of a run into one archive.
func BundleZip(files []ExportFile) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.Create(f.Name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(f.Data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// PartsXLSX renders the stored parts base as a workbook.
func PartsXLSX(parts []internal.PartRow) ([]byte, error) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	_ = f.SetSheetName(sheet, "Base_de_Pecas")
	sheet = "Base_de_Pecas"

	headers := []string{"part_number", "descricao", "ncm", "atributos_usados"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, p := range parts {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}
		set(1, p.PartNumber)
		set(2, p.Descricao)
		set(3, p.NCM)
		set(4, p.AtributosUsados)
	}

	buf := bytes.NewBuffer(nil)
	if _, err := f.WriteTo(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
