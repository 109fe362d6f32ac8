package domain

// ============================================================
// DFC — Demonstrativo de Fluxo de Caixa (hierarquia de categorias)
// ============================================================

// Root category IDs of the DFC tree. Everything else hangs below one of them.
const (
	RootReceitas = "RECEITAS"
	RootDespesas = "DESPESAS"
)

// DfcNode é um nó da hierarquia de categorias do fluxo de caixa.
// O CategoriaID codifica a posição na árvore por segmentos com ponto:
// "1.2" é filho de "1". Apenas folhas entram na análise por categoria.
type DfcNode struct {
	CategoriaID   string             `json:"categoriaId"`
	CategoriaNome string             `json:"categoriaNome"`
	Nivel         int                `json:"nivel"`
	IsLeaf        bool               `json:"isLeaf"`
	ValuesByMonth map[string]float64 `json:"valuesByMonth"`
}

// DfcTree é a árvore materializada pela camada de dados para um período.
// Meses define a ordem canônica das chaves de mês ("2024-01", ...).
type DfcTree struct {
	Nodes []DfcNode `json:"nodes"`
	Meses []string  `json:"meses"`
}

// MonthlyData é a série mensal derivada dos nós raiz RECEITAS/DESPESAS.
// Nunca é persistida — é recomputada a cada request.
type MonthlyData struct {
	Mes       string  `json:"mes"`
	Receitas  float64 `json:"receitas"`
	Despesas  float64 `json:"despesas"`
	Resultado float64 `json:"resultado"`
	Margem    float64 `json:"margem"`
}

// Tendencia classifica a direção de uma categoria ao longo do período.
type Tendencia string

const (
	TendenciaCrescente   Tendencia = "crescente"
	TendenciaDecrescente Tendencia = "decrescente"
	TendenciaEstavel     Tendencia = "estavel"
)

// Anomalia marca um mês cujo valor desvia além do limiar de z-score.
type Anomalia struct {
	Mes    string  `json:"mes"`
	Valor  float64 `json:"valor"`
	Desvio float64 `json:"desvio"` // z-score
}

// CategoryMetrics agrega as estatísticas de uma categoria folha.
// Média e variância consideram apenas meses com valor não-zero.
type CategoryMetrics struct {
	CategoriaID   string     `json:"categoriaId"`
	CategoriaNome string     `json:"categoriaNome"`
	Total         float64    `json:"total"`
	MediaByMonth  float64    `json:"mediaByMonth"`
	Variancia     float64    `json:"variancia"`
	Tendencia     Tendencia  `json:"tendencia"`
	Anomalias     []Anomalia `json:"anomalias"`
}

// DfcAnalysis é o resultado estruturado do sintetizador de insights.
// Alimenta tanto o endpoint de análise quanto o prompt do handler financeiro.
type DfcAnalysis struct {
	Meses          []string          `json:"meses"`
	Series         []MonthlyData     `json:"series"`
	MargemMedia    float64           `json:"margemMedia"`
	ReceitasTrend  Tendencia         `json:"receitasTrend"`
	DespesasTrend  Tendencia         `json:"despesasTrend"`
	MelhorMes      *MonthlyData      `json:"melhorMes,omitempty"`
	PiorMes        *MonthlyData      `json:"piorMes,omitempty"`
	TopCategorias  []CategoryMetrics `json:"topCategorias"`
	TotalAnomalias int               `json:"totalAnomalias"`
}
