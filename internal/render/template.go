package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"time"
)

const pageTemplate = `<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
@page { size: A4; margin: 2.5cm; }
body { font-family: Arial, sans-serif; font-size: 12pt; line-height: 1.6; color: #111; }
h1 { text-align: center; font-size: 16pt; text-transform: uppercase; margin-bottom: 2em; }
p { text-align: justify; }
.field { margin: 0.4em 0; }
.field strong { display: inline-block; min-width: 12em; }
.date { margin-top: 2em; text-align: right; }
.signatures { margin-top: 4em; display: flex; flex-wrap: wrap; gap: 3em; justify-content: space-around; }
.signature { text-align: center; min-width: 16em; }
.signature .line { border-top: 1px solid #000; margin-bottom: 0.3em; }
.witnesses { margin-top: 3em; }
</style>
</head>
<body>
{{.Body}}
</body>
</html>
`

const bodyTemplate = `<h1>{{.Title}}</h1>
{{range .Fields}}<p class="field"><strong>{{.Label}}:</strong> {{.Value}}</p>
{{end}}<p>{{.Statement}}</p>
<p class="date">{{.Date}}</p>
<div class="signatures">
{{range .Signatories}}<div class="signature"><div class="line"></div>{{.}}</div>
{{end}}</div>
{{if .Witnesses}}<div class="witnesses">
<p><strong>Testemunhas:</strong></p>
<div class="signatures">
<div class="signature"><div class="line"></div>Nome: ____________________<br>CPF: ____________________</div>
<div class="signature"><div class="line"></div>Nome: ____________________<br>CPF: ____________________</div>
</div>
</div>
{{end}}`

var statements = map[string]string{
	"declaracao_residencia": "Declaro, para os devidos fins e sob as penas da lei, que as informações acima são verdadeiras e que resido no endereço informado.",
	"contrato_prestacao":    "As partes acima qualificadas celebram o presente contrato de prestação de serviço, obrigando-se a cumpri-lo nos termos descritos, elegendo o foro da comarca do contratante para dirimir quaisquer dúvidas.",
	"recibo_pagamento":      "Declaro ter recebido a importância acima descrita, dando plena e geral quitação referente ao pagamento informado.",
	"uniao_estavel":         "Os declarantes acima qualificados declaram, para os devidos fins, que convivem em união estável, pública, contínua e duradoura, com o objetivo de constituir família, desde a data indicada.",
	"pedido_demissao":       "Venho por meio desta solicitar o meu desligamento do quadro de funcionários da empresa, a partir da data indicada.",
	"procuracao_simples":    "Pelo presente instrumento particular, o outorgante nomeia e constitui seu bastante procurador o outorgado acima qualificado, conferindo-lhe os poderes descritos.",
}

type pageData struct {
	Title string
	Body  template.HTML
}

type bodyField struct {
	Label string
	Value string
}

type bodyData struct {
	Title       string
	Fields      []bodyField
	Statement   string
	Date        string
	Signatories []string
	Witnesses   bool
}

var (
	pageTmpl = template.Must(template.New("page").Parse(pageTemplate))
	bodyTmpl = template.Must(template.New("body").Parse(bodyTemplate))
)

// TemplateRenderer renders documents from built-in html/template layouts.
type TemplateRenderer struct {
	now func() time.Time
}

// NewTemplateRenderer creates a TemplateRenderer.
func NewTemplateRenderer() *TemplateRenderer {
	return &TemplateRenderer{now: time.Now}
}

// Render implements Renderer.
func (r *TemplateRenderer) Render(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if req.Config == nil {
		return "", ErrNoConfig
	}

	date := req.Date
	if date.IsZero() {
		date = r.now()
	}

	data := bodyData{
		Title:       req.Config.Title,
		Statement:   statements[req.Config.Key],
		Date:        DisplayDate(date),
		Signatories: signatories(req.Config, req.FormData),
		Witnesses:   needsWitnesses(req.Config.Key),
	}
	for _, field := range req.Config.Fields {
		value := DisplayValue(field, req.FormData[field.Name])
		if value == "" {
			continue
		}
		data.Fields = append(data.Fields, bodyField{Label: field.Label, Value: value})
	}

	var body bytes.Buffer
	if err := bodyTmpl.Execute(&body, data); err != nil {
		return "", fmt.Errorf("execute body template: %w", err)
	}

	// body was produced by html/template and is already escaped.
	return wrapPage(req.Config.Title, template.HTML(body.String()))
}

func wrapPage(title string, body template.HTML) (string, error) {
	var page bytes.Buffer
	if err := pageTmpl.Execute(&page, pageData{Title: title, Body: body}); err != nil {
		return "", fmt.Errorf("execute page template: %w", err)
	}
	return page.String(), nil
}
