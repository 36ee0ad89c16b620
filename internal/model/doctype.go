package model

// FieldKind is the input kind of a form field.
type FieldKind string

const (
	FieldText     FieldKind = "text"
	FieldTextarea FieldKind = "textarea"
	FieldNumber   FieldKind = "number"
	FieldDate     FieldKind = "date"
)

// FieldFormat selects the input mask applied to a field.
type FieldFormat string

const (
	FormatNone     FieldFormat = ""
	FormatCPF      FieldFormat = "cpf"
	FormatCPFCNPJ  FieldFormat = "cpf_cnpj"
	FormatCurrency FieldFormat = "currency"
)

// FieldConfig describes one input of a document form.
type FieldConfig struct {
	Name        string      `json:"name"`
	Label       string      `json:"label"`
	Kind        FieldKind   `json:"type"`
	Required    bool        `json:"required"`
	Placeholder string      `json:"placeholder,omitempty"`
	Format      FieldFormat `json:"format,omitempty"`
}

// DocumentTypeConfig is the static definition of a document template.
type DocumentTypeConfig struct {
	Key    string        `json:"key"`
	Title  string        `json:"title"`
	Icon   string        `json:"icon"`
	Color  string        `json:"color"`
	Fields []FieldConfig `json:"fields"`
}

// Field returns the field with the given name.
func (c *DocumentTypeConfig) Field(name string) (FieldConfig, bool) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldConfig{}, false
}

// Document type keys.
const (
	TypeDeclaracaoResidencia = "declaracao_residencia"
	TypeContratoPrestacao    = "contrato_prestacao"
	TypeReciboPagamento      = "recibo_pagamento"
	TypeUniaoEstavel         = "uniao_estavel"
	TypePedidoDemissao       = "pedido_demissao"
	TypeProcuracaoSimples    = "procuracao_simples"
)

var documentTypes = []DocumentTypeConfig{
	{
		Key:   TypeDeclaracaoResidencia,
		Title: "Declaração de Residência",
		Icon:  "🏠",
		Color: "from-blue-500 to-blue-600",
		Fields: []FieldConfig{
			{Name: "nome_completo", Label: "Nome Completo", Kind: FieldText, Required: true},
			{Name: "cpf", Label: "CPF", Kind: FieldText, Required: true, Placeholder: "000.000.000-00", Format: FormatCPF},
			{Name: "endereco_completo", Label: "Endereço Completo", Kind: FieldTextarea, Required: true},
			{Name: "tempo_residencia", Label: "Há quanto tempo reside no endereço?", Kind: FieldText, Required: true, Placeholder: "Ex: 2 anos"},
		},
	},
	{
		Key:   TypeContratoPrestacao,
		Title: "Contrato de Prestação de Serviço",
		Icon:  "📄",
		Color: "from-purple-500 to-purple-600",
		Fields: []FieldConfig{
			{Name: "prestador_nome", Label: "Nome do Prestador", Kind: FieldText, Required: true},
			{Name: "prestador_cpf", Label: "CPF do Prestador", Kind: FieldText, Required: true, Placeholder: "000.000.000-00", Format: FormatCPF},
			{Name: "contratante_nome", Label: "Nome do Contratante", Kind: FieldText, Required: true},
			{Name: "contratante_cpf", Label: "CPF/CNPJ do Contratante", Kind: FieldText, Required: true, Format: FormatCPFCNPJ},
			{Name: "servico_descricao", Label: "Descrição do Serviço", Kind: FieldTextarea, Required: true},
			{Name: "valor", Label: "Valor do Serviço (R$)", Kind: FieldNumber, Required: true, Placeholder: "0,00", Format: FormatCurrency},
		},
	},
	{
		Key:   TypeReciboPagamento,
		Title: "Recibo de Pagamento",
		Icon:  "💰",
		Color: "from-green-500 to-green-600",
		Fields: []FieldConfig{
			{Name: "pagador_nome", Label: "Nome do Pagador", Kind: FieldText, Required: true},
			{Name: "recebedor_nome", Label: "Nome do Recebedor", Kind: FieldText, Required: true},
			{Name: "valor", Label: "Valor (R$)", Kind: FieldNumber, Required: true, Placeholder: "0,00", Format: FormatCurrency},
			{Name: "descricao", Label: "Descrição do Pagamento", Kind: FieldTextarea, Required: true},
			{Name: "data_pagamento", Label: "Data do Pagamento", Kind: FieldDate, Required: true},
		},
	},
	{
		Key:   TypeUniaoEstavel,
		Title: "Declaração de União Estável",
		Icon:  "💑",
		Color: "from-pink-500 to-pink-600",
		Fields: []FieldConfig{
			{Name: "companheiro1_nome", Label: "Nome do(a) Primeiro(a) Companheiro(a)", Kind: FieldText, Required: true},
			{Name: "companheiro1_cpf", Label: "CPF do(a) Primeiro(a) Companheiro(a)", Kind: FieldText, Required: true, Placeholder: "000.000.000-00", Format: FormatCPF},
			{Name: "companheiro2_nome", Label: "Nome do(a) Segundo(a) Companheiro(a)", Kind: FieldText, Required: true},
			{Name: "companheiro2_cpf", Label: "CPF do(a) Segundo(a) Companheiro(a)", Kind: FieldText, Required: true, Placeholder: "000.000.000-00", Format: FormatCPF},
			{Name: "data_inicio", Label: "Data de Início da União", Kind: FieldDate, Required: true},
		},
	},
	{
		Key:   TypePedidoDemissao,
		Title: "Pedido de Demissão",
		Icon:  "📋",
		Color: "from-orange-500 to-orange-600",
		Fields: []FieldConfig{
			{Name: "funcionario_nome", Label: "Nome do Funcionário", Kind: FieldText, Required: true},
			{Name: "empresa_nome", Label: "Nome da Empresa", Kind: FieldText, Required: true},
			{Name: "cargo", Label: "Cargo Ocupado", Kind: FieldText, Required: true},
			{Name: "data_saida", Label: "Data de Saída Desejada", Kind: FieldDate, Required: true},
		},
	},
	{
		Key:   TypeProcuracaoSimples,
		Title: "Procuração Simples",
		Icon:  "⚖️",
		Color: "from-indigo-500 to-indigo-600",
		Fields: []FieldConfig{
			{Name: "outorgante_nome", Label: "Nome do Outorgante", Kind: FieldText, Required: true},
			{Name: "outorgante_cpf", Label: "CPF do Outorgante", Kind: FieldText, Required: true, Placeholder: "000.000.000-00", Format: FormatCPF},
			{Name: "outorgado_nome", Label: "Nome do Outorgado", Kind: FieldText, Required: true},
			{Name: "outorgado_cpf", Label: "CPF do Outorgado", Kind: FieldText, Required: true, Placeholder: "000.000.000-00", Format: FormatCPF},
			{Name: "poderes", Label: "Poderes Concedidos", Kind: FieldTextarea, Required: true, Placeholder: "Ex: Assinar contratos, representar em reuniões..."},
		},
	},
}

var documentTypeIndex = func() map[string]*DocumentTypeConfig {
	idx := make(map[string]*DocumentTypeConfig, len(documentTypes))
	for i := range documentTypes {
		idx[documentTypes[i].Key] = &documentTypes[i]
	}
	return idx
}()

// DocumentTypes returns the catalog in display order.
// The returned slice is a copy; callers may not modify the catalog.
func DocumentTypes() []DocumentTypeConfig {
	out := make([]DocumentTypeConfig, len(documentTypes))
	copy(out, documentTypes)
	return out
}

// LookupDocumentType returns the config for a type key.
func LookupDocumentType(key string) (*DocumentTypeConfig, bool) {
	cfg, ok := documentTypeIndex[key]
	return cfg, ok
}

// creatorNameFields are consulted in order to name the person a document is about.
var creatorNameFields = []string{
	"nome_completo",
	"prestador_nome",
	"funcionario_nome",
	"outorgante_nome",
	"recebedor_nome",
}

// SubjectName returns the first non-empty person name found in form data.
func SubjectName(formData map[string]string) string {
	for _, name := range creatorNameFields {
		if v := formData[name]; v != "" {
			return v
		}
	}
	return ""
}
