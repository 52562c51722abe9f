package pipeline

import (
	"regexp"
	"strings"

	"bytebook/internal"
)

// FreeTextCode is the one attribute whose values pass through
// verbatim instead of being truncated at the first hyphen.
const FreeTextCode = "ATT_10824"

var (
	reAttCode   = regexp.MustCompile(`(?i)^ATT_\d+$`)
	reCodeShape = regexp.MustCompile(`(?i)^[A-Z]{3}_\d+$`)
)

// RuleKind selects the value-extraction policy for an attribute code.
// The OK/NOK boolean mapping is value-driven and applies before any
// of these; see Extract.
type RuleKind int

const (
	// RuleHyphenPrefix keeps the text before the first '-'.
	RuleHyphenPrefix RuleKind = iota
	// RuleVerbatim keeps the trimmed cell text as is.
	RuleVerbatim
)

func RuleFor(code string) RuleKind {
	if strings.EqualFold(code, FreeTextCode) {
		return RuleVerbatim
	}
	return RuleHyphenPrefix
}

// AttributeCode classifies a column name. A bare "ATT_<digits>" token
// is its own code; the legacy "Some Label - ATT_<digits>" form yields
// the code after the last " - ". Codes come back upper-cased.
func AttributeCode(name string) (string, bool) {
	trimmed := strings.TrimSpace(name)
	if reAttCode.MatchString(trimmed) {
		return strings.ToUpper(trimmed), true
	}
	if i := strings.LastIndex(trimmed, " - "); i >= 0 {
		tail := strings.TrimSpace(trimmed[i+3:])
		if reAttCode.MatchString(tail) {
			return strings.ToUpper(tail), true
		}
	}
	return "", false
}

// SplitLabel separates the legacy "Label - ATT_<digits>" form into its
// human label and code. For a bare code column the code doubles as the
// label.
func SplitLabel(name string) (label, code string, ok bool) {
	trimmed := strings.TrimSpace(name)
	if reAttCode.MatchString(trimmed) {
		upper := strings.ToUpper(trimmed)
		return upper, upper, true
	}
	if i := strings.LastIndex(trimmed, " - "); i >= 0 {
		tail := strings.TrimSpace(trimmed[i+3:])
		if reAttCode.MatchString(tail) {
			return strings.TrimSpace(trimmed[:i]), strings.ToUpper(tail), true
		}
	}
	return "", "", false
}

// MisshapedAttributeColumns reports columns that look like attribute
// codes but carry the wrong prefix (AXT_1234 and friends). Processing
// a sheet with such a column would silently drop an attribute.
func MisshapedAttributeColumns(columns []string) []string {
	var out []string
	for _, col := range columns {
		trimmed := strings.TrimSpace(col)
		if reCodeShape.MatchString(trimmed) && !strings.HasPrefix(strings.ToUpper(trimmed), "ATT_") {
			out = append(out, col)
		}
	}
	return out
}

func isBool(raw string) (value string, ok bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "ok":
		return "true", true
	case "nok":
		return "false", true
	}
	return "", false
}

// Extract turns one raw cell value into the attribute emitted for
// code. An OK/NOK cell maps to "true"/"false" no matter the code,
// even for the free-text code, matching the system this replaces.
func Extract(code, raw string) internal.Attribute {
	if v, ok := isBool(raw); ok {
		return internal.Attribute{Atributo: code, Valor: v}
	}
	if RuleFor(code) == RuleVerbatim {
		return internal.Attribute{Atributo: code, Valor: strings.TrimSpace(raw)}
	}
	head, _, _ := strings.Cut(raw, "-")
	return internal.Attribute{Atributo: code, Valor: strings.TrimSpace(head)}
}

// EffectiveCode is the code under which a cell is counted in the
// NCM×attribute association table: OK/NOK cells split the code into
// its boolean variants.
func EffectiveCode(code, raw string) string {
	if v, ok := isBool(raw); ok {
		if v == "true" {
			return code + "_true"
		}
		return code + "_false"
	}
	return code
}
