// Package render turns validated form data into a printable HTML document.
package render

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/autodoc/autodoc/internal/form"
	"github.com/autodoc/autodoc/internal/model"
)

var (
	ErrEmptyContent = errors.New("renderer returned empty content")
	ErrNoConfig     = errors.New("render request has no document type")
)

// Request carries everything a renderer needs.
type Request struct {
	Config   *model.DocumentTypeConfig
	FormData map[string]string
	// Date is printed as the document's issue date.
	Date time.Time
}

// Renderer produces a complete HTML page for a document.
type Renderer interface {
	Render(ctx context.Context, req Request) (string, error)
}

// DisplayDate formats t as dd/mm/yyyy.
func DisplayDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// DisplayValue formats a stored field value for print.
func DisplayValue(field model.FieldConfig, value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	switch {
	case field.Format == model.FormatCurrency:
		return "R$ " + value
	case field.Kind == model.FieldDate:
		if t, err := time.Parse(form.DateLayout, value); err == nil {
			return DisplayDate(t)
		}
	}
	return value
}

// needsWitnesses reports whether the document type carries a witnesses block.
func needsWitnesses(key string) bool {
	switch key {
	case model.TypeContratoPrestacao, model.TypeProcuracaoSimples, model.TypeUniaoEstavel:
		return true
	}
	return false
}

// signatories returns the names that sign a document, in order.
func signatories(cfg *model.DocumentTypeConfig, data map[string]string) []string {
	var fields []string
	switch cfg.Key {
	case model.TypeDeclaracaoResidencia:
		fields = []string{"nome_completo"}
	case model.TypeContratoPrestacao:
		fields = []string{"prestador_nome", "contratante_nome"}
	case model.TypeReciboPagamento:
		fields = []string{"recebedor_nome"}
	case model.TypeUniaoEstavel:
		fields = []string{"companheiro1_nome", "companheiro2_nome"}
	case model.TypePedidoDemissao:
		fields = []string{"funcionario_nome"}
	case model.TypeProcuracaoSimples:
		fields = []string{"outorgante_nome"}
	}

	names := make([]string, 0, len(fields))
	for _, f := range fields {
		if v := strings.TrimSpace(data[f]); v != "" {
			names = append(names, v)
		}
	}
	return names
}
