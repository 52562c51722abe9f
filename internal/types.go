package internal

// Fixed field values stamped on every generated record.
const (
	SituacaoAtivado      = "Ativado"
	ModalidadeImportacao = "IMPORTACAO"

	// Root identifier used when no option is selected.
	DefaultCpfCnpjRaiz = "39318225"
)

type Attribute struct {
	Atributo string `json:"atributo"`
	Valor    string `json:"valor"`
}

// Record is one part submission in the shape the import system expects.
// Field names are part of the wire contract, do not rename the tags.
type Record struct {
	Seq                              int         `json:"seq"`
	Descricao                        string      `json:"descricao"`
	Denominacao                      string      `json:"denominacao"`
	CpfCnpjRaiz                      string      `json:"cpfCnpjRaiz"`
	Situacao                         string      `json:"situacao"`
	Modalidade                       string      `json:"modalidade"`
	NCM                              string      `json:"ncm"`
	Atributos                        []Attribute `json:"atributos"`
	CodigosInterno                   []string    `json:"codigosInterno"`
	AtributosMultivalorados          []Attribute `json:"atributosMultivalorados"`
	AtributosCompostos               []Attribute `json:"atributosCompostos"`
	AtributosCompostosMultivalorados []Attribute `json:"atributosCompostosMultivalorados"`
}

// PartNumber returns the part identifier carried in codigosInterno.
func (r Record) PartNumber() string {
	if len(r.CodigosInterno) == 0 {
		return ""
	}
	return r.CodigosInterno[0]
}

// PartRow is one line of the stored parts table.
type PartRow struct {
	PartNumber      string
	Descricao       string
	NCM             string
	AtributosUsados string
}

// CatalogEntry is one line of the attribute catalog.
type CatalogEntry struct {
	Nome       string
	Codigo     string
	Modalidade string
	Orgao      *string
}

// Association links an NCM to one attribute code required under it.
type Association struct {
	NCM   string
	Atrib string
}

// CNPJOption is an operator-managed root identifier preset.
type CNPJOption struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	CpfCnpjRaiz string `json:"cpfCnpjRaiz"`
}
