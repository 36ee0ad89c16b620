package form

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/autodoc/autodoc/internal/model"
)

// Validation messages shown next to each field.
const (
	MsgRequired        = "Este campo é obrigatório."
	MsgInvalidCPF      = "CPF inválido."
	MsgInvalidCPFCNPJ  = "CPF/CNPJ inválido."
	MsgInvalidCurrency = "Valor inválido."
	MsgInvalidDate     = "Data inválida."
	MsgInvalidNumber   = "Número inválido."
	MsgTooLong         = "Texto muito longo."
)

// MaxValueLength bounds any single field value.
const MaxValueLength = 5000

// DateLayout is the wire format of date fields.
const DateLayout = "2006-01-02"

var displayDateLayouts = []string{"02/01/2006", "2/1/2006"}

// Errors maps field names to validation messages.
type Errors map[string]string

// Error implements the error interface.
func (e Errors) Error() string {
	names := e.Fields()
	return "invalid fields: " + strings.Join(names, ", ")
}

// Fields returns the names of invalid fields in sorted order.
func (e Errors) Fields() []string {
	names := make([]string, 0, len(e))
	for name := range e {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks values against a field list.
// A required field whose value is empty or whitespace-only yields MsgRequired.
// Non-empty values are checked against their kind and format.
// Returns nil when every field is valid.
func Validate(fields []model.FieldConfig, values map[string]string) Errors {
	errs := Errors{}

	for _, field := range fields {
		value := strings.TrimSpace(values[field.Name])
		if value == "" {
			if field.Required {
				errs[field.Name] = MsgRequired
			}
			continue
		}

		if msg := checkValue(field, value); msg != "" {
			errs[field.Name] = msg
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}

func checkValue(field model.FieldConfig, value string) string {
	if len(value) > MaxValueLength {
		return MsgTooLong
	}

	switch field.Format {
	case model.FormatCPF:
		if len(Digits(value)) != cpfDigits {
			return MsgInvalidCPF
		}
		return ""
	case model.FormatCPFCNPJ:
		if n := len(Digits(value)); n != cpfDigits && n != cnpjDigits {
			return MsgInvalidCPFCNPJ
		}
		return ""
	case model.FormatCurrency:
		if _, ok := ParseCurrency(value); !ok {
			return MsgInvalidCurrency
		}
		return ""
	}

	switch field.Kind {
	case model.FieldDate:
		if _, err := time.Parse(DateLayout, value); err != nil {
			return MsgInvalidDate
		}
	case model.FieldNumber:
		if _, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64); err != nil {
			return MsgInvalidNumber
		}
	}
	return ""
}

// Normalize keeps only the configured fields of a form, trims values,
// applies the field masks and converts dd/mm/yyyy dates to the wire format.
func Normalize(cfg *model.DocumentTypeConfig, values map[string]string) map[string]string {
	out := make(map[string]string, len(cfg.Fields))
	for _, field := range cfg.Fields {
		raw, ok := values[field.Name]
		if !ok {
			continue
		}
		value := strings.TrimSpace(raw)

		switch {
		case value == "":
		case field.Format == model.FormatCurrency:
			value = normalizeCurrency(value)
		case field.Format == model.FormatCPF && len(Digits(value)) > cpfDigits:
			// Left unformatted so validation reports it instead of truncating.
		case field.Format == model.FormatCPFCNPJ && len(Digits(value)) > cnpjDigits:
		case field.Format != model.FormatNone:
			value = Format(field.Format, value)
		case field.Kind == model.FieldDate:
			value = normalizeDate(value)
		}

		out[field.Name] = value
	}
	return out
}

func normalizeDate(value string) string {
	for _, layout := range displayDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format(DateLayout)
		}
	}
	return value
}
