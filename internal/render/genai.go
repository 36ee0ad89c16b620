package render

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"google.golang.org/genai"
)

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.5-flash"

const promptTemplate = `Crie um documento profissional em HTML do tipo "%s" com os seguintes dados:
%s

O documento deve:
- Ser formatado profissionalmente em HTML com CSS inline
- Incluir um cabeçalho com título centralizado
- Ter formatação adequada para impressão (A4)
- Incluir campos para assinatura no final
- Seguir padrões brasileiros para este tipo de documento
- Incluir data atual formatada (%s)
- Usar linguagem formal e jurídica apropriada
- Ter margens adequadas e fonte legível (Arial, 12pt)
- Incluir espaço para testemunhas quando necessário
- Usar formatação de moeda brasileira para valores

Retorne apenas o HTML completo pronto para visualização e impressão.`

var responseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"html_content":   {Type: genai.TypeString},
		"document_title": {Type: genai.TypeString},
	},
	Required: []string{"html_content"},
}

// ContentGenerator is the subset of the genai client used for rendering.
// *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type generatedDocument struct {
	HTMLContent   string `json:"html_content"`
	DocumentTitle string `json:"document_title"`
}

// GenAIRenderer asks a Gemini model to write the document.
// The returned HTML is sanitized before it is wrapped in the page shell.
type GenAIRenderer struct {
	models  ContentGenerator
	model   string
	timeout time.Duration
	policy  *bluemonday.Policy
	logger  *slog.Logger
	now     func() time.Time
}

// GenAIConfig configures a GenAIRenderer.
type GenAIConfig struct {
	Model   string
	Timeout time.Duration
}

// NewGenAIClient creates a Gemini API client.
func NewGenAIClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return client, nil
}

// NewGenAIRenderer creates a renderer backed by models.
func NewGenAIRenderer(models ContentGenerator, cfg GenAIConfig, logger *slog.Logger) *GenAIRenderer {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GenAIRenderer{
		models:  models,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		policy:  newPolicy(),
		logger:  logger.With("component", "genai_renderer"),
		now:     time.Now,
	}
}

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("style", "class").Globally()
	p.AllowElements("div", "span", "section", "header", "footer")
	return p
}

// Render implements Renderer.
func (r *GenAIRenderer) Render(ctx context.Context, req Request) (string, error) {
	if req.Config == nil {
		return "", ErrNoConfig
	}
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	date := req.Date
	if date.IsZero() {
		date = r.now()
	}

	prompt, err := buildPrompt(req.Config.Title, req.FormData, date)
	if err != nil {
		return "", err
	}

	start := time.Now()
	resp, err := r.models.GenerateContent(ctx, r.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema,
	})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	r.logger.Debug("document generated",
		slog.String("type", req.Config.Key),
		slog.String("model", r.model),
		slog.Duration("duration", time.Since(start)),
	)

	doc, err := decodeGenerated(resp.Text())
	if err != nil {
		return "", err
	}

	clean := strings.TrimSpace(r.policy.Sanitize(doc.HTMLContent))
	if clean == "" {
		return "", ErrEmptyContent
	}

	title := req.Config.Title
	// clean was produced by the sanitizer policy.
	return wrapPage(title, template.HTML(clean))
}

func buildPrompt(title string, data map[string]string, date time.Time) (string, error) {
	payload, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal form data: %w", err)
	}
	return fmt.Sprintf(promptTemplate, title, payload, DisplayDate(date)), nil
}

func decodeGenerated(text string) (*generatedDocument, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyContent
	}

	var doc generatedDocument
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		return nil, fmt.Errorf("decode generated document: %w", err)
	}
	if strings.TrimSpace(doc.HTMLContent) == "" {
		return nil, ErrEmptyContent
	}
	return &doc, nil
}
