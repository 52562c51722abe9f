package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"bytebook/internal"
)

// ErrNameTaken is returned when a cnpj option name collides with an
// existing one.
var ErrNameTaken = errors.New("option name already exists")

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS ncm_x_atrib_x_pn (
  part_number TEXT PRIMARY KEY,
  descricao TEXT,
  ncm TEXT,
  atributos_usados TEXT
);

CREATE TABLE IF NOT EXISTS cod_atributos (
  nome_atributo TEXT,
  codigo_atrib TEXT PRIMARY KEY,
  modalidade TEXT,
  orgao TEXT
);

CREATE TABLE IF NOT EXISTS ncm_x_atrib (
  ncm TEXT,
  atrib TEXT,
  PRIMARY KEY (ncm, atrib)
);

CREATE TABLE IF NOT EXISTS cnpj_options (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  name TEXT UNIQUE NOT NULL,
  cpf_cnpj_raiz TEXT NOT NULL
);
`
	_, err := d.conn.Exec(schema)
	return err
}

// insertOrIgnore runs stmt once per row and tallies how many actually
// landed. A uniqueness conflict is not an error, just a skipped row,
// which is what makes re-importing the same spreadsheet idempotent.
func insertOrIgnore(conn *sql.DB, stmt string, rows [][]any) (int, error) {
	prepared, err := conn.Prepare(stmt)
	if err != nil {
		return 0, err
	}
	defer prepared.Close()

	inserted := 0
	for _, args := range rows {
		res, err := prepared.Exec(args...)
		if err != nil {
			return inserted, err
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			inserted++
		}
	}
	return inserted, nil
}

func (d *DB) InsertParts(parts []internal.PartRow) (int, error) {
	rows := make([][]any, 0, len(parts))
	for _, p := range parts {
		rows = append(rows, []any{p.PartNumber, p.Descricao, p.NCM, p.AtributosUsados})
	}
	return insertOrIgnore(d.conn,
		`INSERT OR IGNORE INTO ncm_x_atrib_x_pn (part_number, descricao, ncm, atributos_usados) VALUES (?, ?, ?, ?)`,
		rows)
}

func (d *DB) InsertCatalogEntries(entries []internal.CatalogEntry) (int, error) {
	rows := make([][]any, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []any{e.Nome, e.Codigo, e.Modalidade, e.Orgao})
	}
	return insertOrIgnore(d.conn,
		`INSERT OR IGNORE INTO cod_atributos (nome_atributo, codigo_atrib, modalidade, orgao) VALUES (?, ?, ?, ?)`,
		rows)
}

func (d *DB) InsertAssociations(pairs []internal.Association) (int, error) {
	rows := make([][]any, 0, len(pairs))
	for _, a := range pairs {
		rows = append(rows, []any{a.NCM, a.Atrib})
	}
	return insertOrIgnore(d.conn,
		`INSERT OR IGNORE INTO ncm_x_atrib (ncm, atrib) VALUES (?, ?)`,
		rows)
}

func (d *DB) ListParts() ([]internal.PartRow, error) {
	rows, err := d.conn.Query(`SELECT part_number, descricao, ncm, atributos_usados FROM ncm_x_atrib_x_pn ORDER BY part_number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.PartRow
	for rows.Next() {
		var p internal.PartRow
		var descricao, ncm, attrs sql.NullString
		if err := rows.Scan(&p.PartNumber, &descricao, &ncm, &attrs); err != nil {
			return nil, err
		}
		p.Descricao = descricao.String
		p.NCM = ncm.String
		p.AtributosUsados = attrs.String
		out = append(out, p)
	}
	return out, rows.Err()
}

func (d *DB) CountParts() (int, error) {
	var n int
	err := d.conn.QueryRow(`SELECT COUNT(*) FROM ncm_x_atrib_x_pn`).Scan(&n)
	return n, err
}

// --- cnpj options ---

func (d *DB) ListCNPJOptions() ([]internal.CNPJOption, error) {
	rows, err := d.conn.Query(`SELECT id, name, cpf_cnpj_raiz FROM cnpj_options ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.CNPJOption
	for rows.Next() {
		var o internal.CNPJOption
		if err := rows.Scan(&o.ID, &o.Name, &o.CpfCnpjRaiz); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (d *DB) GetCNPJOption(id int) (*internal.CNPJOption, error) {
	var o internal.CNPJOption
	err := d.conn.QueryRow(`SELECT id, name, cpf_cnpj_raiz FROM cnpj_options WHERE id = ?`, id).
		Scan(&o.ID, &o.Name, &o.CpfCnpjRaiz)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (d *DB) InsertCNPJOption(name, raiz string) (int, error) {
	res, err := d.conn.Exec(`INSERT INTO cnpj_options (name, cpf_cnpj_raiz) VALUES (?, ?)`, name, raiz)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrNameTaken
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	return int(id), err
}

func (d *DB) UpdateCNPJOption(id int, name, raiz string) error {
	_, err := d.conn.Exec(`UPDATE cnpj_options SET name = ?, cpf_cnpj_raiz = ? WHERE id = ?`, name, raiz, id)
	if err != nil && isUniqueViolation(err) {
		return ErrNameTaken
	}
	return err
}

func (d *DB) DeleteCNPJOption(id int) error {
	_, err := d.conn.Exec(`DELETE FROM cnpj_options WHERE id = ?`, id)
	return err
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// --- analytics ---

type NCMCount struct {
	NCM   string `json:"ncm"`
	Count int    `json:"count"`
}

type AttributeUsage struct {
	Codigo string `json:"codigo"`
	Nome   string `json:"nome"`
	Count  int    `json:"count"`
}

type NCMAttributes struct {
	NCM    string   `json:"ncm"`
	Atribs []string `json:"atributos"`
}

type AttributeInfo struct {
	Codigo string `json:"codigo"`
	Nome   string `json:"nome"`
}

func (d *DB) NCMCounts() ([]NCMCount, error) {
	rows, err := d.conn.Query(`SELECT ncm, COUNT(*) AS freq FROM ncm_x_atrib_x_pn GROUP BY ncm ORDER BY freq DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NCMCount
	for rows.Next() {
		var c NCMCount
		var ncm sql.NullString
		if err := rows.Scan(&ncm, &c.Count); err != nil {
			return nil, err
		}
		c.NCM = ncm.String
		out = append(out, c)
	}
	return out, rows.Err()
}

// AttributeUsage tallies the comma-joined atributos_usados column
// across all stored parts and joins display names from the catalog.
func (d *DB) AttributeUsage() ([]AttributeUsage, error) {
	names := map[string]string{}
	nameRows, err := d.conn.Query(`SELECT codigo_atrib, nome_atributo FROM cod_atributos`)
	if err != nil {
		return nil, err
	}
	for nameRows.Next() {
		var codigo string
		var nome sql.NullString
		if err := nameRows.Scan(&codigo, &nome); err != nil {
			_ = nameRows.Close()
			return nil, err
		}
		names[codigo] = nome.String
	}
	_ = nameRows.Close()
	if err := nameRows.Err(); err != nil {
		return nil, err
	}

	counts := map[string]int{}
	rows, err := d.conn.Query(`SELECT atributos_usados FROM ncm_x_atrib_x_pn`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var used sql.NullString
		if err := rows.Scan(&used); err != nil {
			return nil, err
		}
		for _, code := range strings.Split(used.String, ",") {
			code = strings.TrimSpace(code)
			if code != "" {
				counts[code]++
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	out := make([]AttributeUsage, 0, len(counts))
	for code, n := range counts {
		nome := names[code]
		if nome == "" {
			nome = "Descrição não encontrada"
		}
		out = append(out, AttributeUsage{Codigo: code, Nome: nome, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Codigo < out[j].Codigo
	})
	return out, nil
}

func (d *DB) AssociationsByNCM() ([]NCMAttributes, error) {
	rows, err := d.conn.Query(`SELECT ncm, atrib FROM ncm_x_atrib ORDER BY ncm, atrib`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NCMAttributes
	for rows.Next() {
		var ncm, atrib string
		if err := rows.Scan(&ncm, &atrib); err != nil {
			return nil, err
		}
		if len(out) == 0 || out[len(out)-1].NCM != ncm {
			out = append(out, NCMAttributes{NCM: ncm})
		}
		out[len(out)-1].Atribs = append(out[len(out)-1].Atribs, atrib)
	}
	return out, rows.Err()
}

func (d *DB) AttributesForNCM(ncm string) ([]AttributeInfo, error) {
	rows, err := d.conn.Query(`
SELECT na.atrib, COALESCE(ca.nome_atributo, '')
FROM ncm_x_atrib na
LEFT JOIN cod_atributos ca ON ca.codigo_atrib = na.atrib
WHERE na.ncm = ?
ORDER BY na.atrib`, ncm)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AttributeInfo
	for rows.Next() {
		var info AttributeInfo
		if err := rows.Scan(&info.Codigo, &info.Nome); err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// --- admin ---

func (d *DB) ListTables() ([]string, error) {
	rows, err := d.conn.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}

// TableColumns returns the declared columns of a known table, in
// schema order. Unknown names are rejected before any PRAGMA runs,
// the table name cannot be bound as a parameter.
func (d *DB) TableColumns(name string) ([]string, error) {
	tables, err := d.ListTables()
	if err != nil {
		return nil, err
	}
	found := false
	for _, t := range tables {
		if t == name {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("unknown table %q", name)
	}

	rows, err := d.conn.Query(`SELECT name FROM pragma_table_info(?)`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var col string
		if err := rows.Scan(&col); err != nil {
			return nil, err
		}
		out = append(out, col)
	}
	return out, rows.Err()
}

// InsertRows bulk-loads rows into table via insert-or-ignore and
// reports how many landed. columns must come from TableColumns.
func (d *DB) InsertRows(table string, columns []string, rows [][]any) (int, error) {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(columns)), ", ")
	stmt := fmt.Sprintf("INSERT OR IGNORE INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), placeholders)
	return insertOrIgnore(d.conn, stmt, rows)
}

// Query runs an arbitrary read query and returns its columns and
// stringified rows. Callers decide what statements to allow.
func (d *DB) Query(query string) ([]string, [][]string, error) {
	rows, err := d.conn.Query(query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out [][]string
	for rows.Next() {
		values := make([]sql.NullString, len(cols))
		scan := make([]any, len(cols))
		for i := range values {
			scan[i] = &values[i]
		}
		if err := rows.Scan(scan...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range values {
			row[i] = v.String
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}

// Exec runs a mutating statement (CLI only) and reports affected rows.
func (d *DB) Exec(statement string) (int64, error) {
	res, err := d.conn.Exec(statement)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
