package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"bytebook/internal"
	"bytebook/internal/config"
	"bytebook/internal/storage"
	"bytebook/internal/table"
)

// Options parameterize one upload batch.
type Options struct {
	// CpfCnpjRaiz is stamped into every record; empty falls back to
	// the configured default.
	CpfCnpjRaiz string
	// Persist pushes parts, catalog entries and associations to the
	// store after a sheet validates.
	Persist bool
	// Progress, when set, is invoked once per converted row.
	Progress ProgressFunc
}

// SheetOutcome is the result for one sheet of one file. Err is set
// when the sheet was skipped (format guard, missing part number
// column, validation mismatch); Records is nil in that case. A
// storage failure after validation lands in PersistErr instead, the
// records are good and stay exportable.
type SheetOutcome struct {
	File  string
	Sheet string
	Key   string

	Rows              int
	DuplicatesDropped int
	Records           []internal.Record

	Persisted       bool
	NewParts        int
	NewAttributes   int
	NewAssociations int

	Err        error
	PersistErr error
}

// Processor runs uploads end to end: parse, guard, normalize, dedupe,
// convert, cross-validate, derive, persist. It holds no state between
// calls; callers keep the returned outcomes for export.
type Processor struct {
	db  *storage.DB
	cfg config.Config
}

func NewProcessor(db *storage.DB, cfg config.Config) *Processor {
	return &Processor{db: db, cfg: cfg}
}

// ProcessFile parses one uploaded file (.xlsx, .csv or .html) and
// processes every sheet in it. A sheet-fatal condition lands in that
// sheet's outcome; only an unreadable file is an error.
func (p *Processor) ProcessFile(filename string, blob []byte, opts Options) ([]SheetOutcome, error) {
	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	tables, err := p.parseFile(filename, base, blob)
	if err != nil {
		return nil, err
	}

	out := make([]SheetOutcome, 0, len(tables))
	for _, t := range tables {
		out = append(out, p.ProcessSheet(filename, base, t, opts))
	}
	return out, nil
}

func (p *Processor) parseFile(filename, base string, blob []byte) ([]*table.Table, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return table.ReadXLSX(blob)
	case ".csv":
		t, err := table.ReadCSV(base, blob, p.cfg.CSVCharset)
		if err != nil {
			return nil, err
		}
		return []*table.Table{t}, nil
	case ".html", ".htm":
		t, err := table.ReadHTMLTable(base, blob)
		if err != nil {
			return nil, err
		}
		return []*table.Table{t}, nil
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filename)
	}
}

// ProcessSheet runs the full pipeline for one already-parsed sheet.
func (p *Processor) ProcessSheet(file, base string, t *table.Table, opts Options) SheetOutcome {
	outcome := SheetOutcome{
		File:  file,
		Sheet: t.Name,
		Key:   base + "_" + t.Name,
	}

	if err := CheckAttributeFormat(t); err != nil {
		outcome.Err = err
		return outcome
	}

	nt := t.Normalized()
	partCol := nt.Resolve(ColPartNumber)
	if partCol < 0 {
		outcome.Err = &MissingColumnError{Column: ColPartNumber, Sheet: t.Name}
		return outcome
	}
	outcome.DuplicatesDropped = nt.DedupeBy(partCol)
	outcome.Rows = nt.RowCount()

	rootID := opts.CpfCnpjRaiz
	if rootID == "" {
		rootID = p.cfg.DefaultCpfCnpjRaiz
	}
	records, err := Convert(nt, rootID, opts.Progress)
	if err != nil {
		outcome.Err = err
		return outcome
	}

	if err := CrossValidate(records, nt); err != nil {
		outcome.Err = err
		return outcome
	}
	outcome.Records = records

	if opts.Persist && p.db != nil {
		if err := p.persist(&outcome, records, nt); err != nil {
			outcome.PersistErr = fmt.Errorf("persist sheet %q: %w", t.Name, err)
		}
	}
	return outcome
}

func (p *Processor) persist(outcome *SheetOutcome, records []internal.Record, nt *table.Table) error {
	newParts, err := p.db.InsertParts(BuildPartRows(records))
	if err != nil {
		return err
	}
	newAttrs, err := p.db.InsertCatalogEntries(ExtractCatalog(nt))
	if err != nil {
		return err
	}
	newPairs, err := p.db.InsertAssociations(BuildAssociations(nt))
	if err != nil {
		return err
	}
	outcome.Persisted = true
	outcome.NewParts = newParts
	outcome.NewAttributes = newAttrs
	outcome.NewAssociations = newPairs
	return nil
}
