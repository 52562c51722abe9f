package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// ReadCSV parses a csv file into a single Table named after name.
// Operator exports are sometimes Latin-1; pass charset "latin-1" (or
// "iso8859-1") to decode them, anything else is treated as UTF-8.
func ReadCSV(name string, blob []byte, charset string) (*Table, error) {
	var r io.Reader = bytes.NewReader(blob)
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "latin-1", "latin1", "iso8859-1", "iso-8859-1":
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	t := New(name, trimHeader(header))

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		t.AppendRow(record)
	}
	t.DropEmptyRows()
	return t, nil
}
