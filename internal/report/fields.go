package report

import (
	"net/url"
	"strings"
)

// Form field names shared by the report form and the payment record data.
const (
	FieldName          = "nome"
	FieldNeighborhood  = "bairro"
	FieldPropertyType  = "tipo_imovel"
	FieldStandard      = "padrao"
	FieldBudget        = "orcamento"
	FieldPropertyValue = "valor_imovel"
	FieldArea          = "area"
	FieldFinancing     = "financiar"
	FieldFinancingType = "tipo_financiamento"
	FieldTerm          = "prazo"
	FieldIncome        = "renda"
)

var fieldNames = []string{
	FieldName, FieldNeighborhood, FieldPropertyType, FieldStandard, FieldBudget,
	FieldPropertyValue, FieldArea, FieldFinancing, FieldFinancingType, FieldTerm, FieldIncome,
}

// Fields holds the raw report form values.
type Fields map[string]string

// MergeFields takes each field from form when present there, else from saved.
func MergeFields(form url.Values, saved map[string]string) Fields {
	out := make(Fields, len(fieldNames))
	for _, name := range fieldNames {
		if vs, ok := form[name]; ok {
			if len(vs) > 0 {
				out[name] = vs[0]
			} else {
				out[name] = ""
			}
			continue
		}
		out[name] = saved[name]
	}
	return out
}

func (f Fields) Get(name string) string { return f[name] }

// Data is the copy stored with the payment record.
func (f Fields) Data() map[string]string {
	out := make(map[string]string, len(fieldNames))
	for _, name := range fieldNames {
		out[name] = f[name]
	}
	return out
}

// ParseFinancing accepts 1, true, on and sim.
func ParseFinancing(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "on", "sim":
		return true
	default:
		return false
	}
}

// IsApartment reports whether a property type label names an apartment.
func IsApartment(propertyType string) bool {
	return strings.Contains(strings.ToLower(strings.TrimSpace(propertyType)), "apartamento")
}
