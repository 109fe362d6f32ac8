package domain

// ============================================================
// Assistente — contrato do POST /api/assistants/chat
// ============================================================

// ChatContext identifica qual handler do roteador processa a mensagem.
type ChatContext string

const (
	ContextAuto       ChatContext = "auto"
	ContextGeral      ChatContext = "geral"
	ContextFinanceiro ChatContext = "financeiro"
	ContextCases      ChatContext = "cases"
	ContextClientes   ChatContext = "clientes"
)

// ChatTurn é um turno do histórico rolante enviado pelo frontend.
// Role é "user" ou "assistant".
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatMetadata carrega o contexto livre da página atual.
// DataInicio/DataFim ("2006-01-02") delimitam o período do handler financeiro.
type ChatMetadata struct {
	PageContext string `json:"pageContext"`
	DataInicio  string `json:"dataInicio,omitempty"`
	DataFim     string `json:"dataFim,omitempty"`
}

// ChatRequest é o body do POST /api/assistants/chat.
type ChatRequest struct {
	Message   string       `json:"message"`
	Context   ChatContext  `json:"context"`
	Historico []ChatTurn   `json:"historico"`
	Metadata  ChatMetadata `json:"metadata"`
}

// ReferencedData aponta as categorias/meses/valores citados na resposta,
// para o frontend destacar os cards correspondentes.
type ReferencedData struct {
	Categorias []string  `json:"categorias,omitempty"`
	Meses      []string  `json:"meses,omitempty"`
	Valores    []float64 `json:"valores,omitempty"`
}

// ChatResponse é a resposta final do assistente.
// Context ecoa o contexto efetivamente usado (relevante quando era "auto").
type ChatResponse struct {
	Resposta           string          `json:"resposta"`
	Context            ChatContext     `json:"context"`
	DadosReferenciados *ReferencedData `json:"dadosReferenciados,omitempty"`
}

// ============================================================
// Completion — contrato com o serviço de LLM
// ============================================================

// CompletionMessage é uma mensagem role-tagged do payload de completion.
type CompletionMessage struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

// CompletionRequest é o payload enviado ao serviço de text-completion.
type CompletionRequest struct {
	Messages  []CompletionMessage `json:"messages"`
	MaxTokens int                 `json:"max_tokens"`
}

// CompletionResponse é a resposta já achatada do serviço de LLM.
type CompletionResponse struct {
	Content          string `json:"content"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}
