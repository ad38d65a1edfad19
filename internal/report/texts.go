package report

// Narrative holds the score-banded report paragraphs.
type Narrative struct {
	Compatibility string `json:"texto_compatibilidade"`
	Financial     string `json:"texto_financeiro"`
	Urban         string `json:"texto_urbano"`
}

func narrativeFor(score int) Narrative {
	switch {
	case score >= 80:
		return Narrative{
			Compatibility: "A análise indica alta compatibilidade entre o perfil do bairro e sua capacidade " +
				"financeira atual. Isso significa que o padrão urbano, o valor de mercado e o tipo " +
				"de imóvel desejado estão bem alinhados, reduzindo riscos de frustração futura.",
			Financial: "O orçamento informado demonstra boa capacidade de absorção dos custos médios praticados " +
				"no bairro analisado. Isso permite maior liberdade de escolha quanto a padrão de acabamento, " +
				"soluções construtivas e eventuais melhorias.",
			Urban: "O contexto urbano do bairro é coerente com o perfil esperado para o imóvel analisado. " +
				"Aspectos como ocupação do solo, vizinhança e padrão construtivo contribuem para uma " +
				"experiência urbana estável e previsível.",
		}
	case score >= 60:
		return Narrative{
			Compatibility: "A compatibilidade observada é moderada. O bairro apresenta potencial de atendimento " +
				"às suas expectativas, porém ajustes estratégicos podem ser necessários, seja no padrão " +
				"construtivo, na área do imóvel ou na forma de aquisição.",
			Financial: "O orçamento informado se encontra dentro de uma faixa viável, porém exige atenção especial " +
				"à composição dos custos totais. Decisões técnicas bem orientadas serão fundamentais para " +
				"evitar extrapolação financeira.",
			Urban: "O bairro apresenta características urbanas compatíveis em parte com o perfil desejado. " +
				"Alguns fatores, como dinâmica local ou padrão predominante, devem ser observados com mais " +
				"atenção durante a tomada de decisão.",
		}
	default:
		return Narrative{
			Compatibility: "A análise aponta baixa compatibilidade entre o perfil do bairro e sua capacidade " +
				"financeira atual. Isso não invalida a escolha, mas indica risco elevado de frustração " +
				"ou necessidade de concessões significativas.",
			Financial: "O orçamento informado apresenta limitações relevantes frente ao padrão do bairro. " +
				"Recomenda-se reavaliar expectativas, buscar alternativas urbanas ou revisar o modelo " +
				"de aquisição para evitar comprometimento financeiro excessivo.",
			Urban: "A leitura urbana indica desalinhamento entre o perfil do bairro e o padrão esperado. " +
				"Esse cenário pode impactar conforto, valorização e percepção de adequação ao longo do tempo.",
		}
	}
}

type Insights struct {
	Score     string `json:"insight_score"`
	Financial string `json:"insight_financeiro"`
}

func scoreInsight(score int) string {
	switch {
	case score >= 70:
		return "Leitura executiva: o score esta em faixa saudavel. " +
			"A decisao tende a ser sustentavel se a vistoria tecnica " +
			"confirmar os pontos de conforto e documentacao."
	case score >= 45:
		return "Leitura executiva: o score indica zona de atencao. " +
			"Ha viabilidade, mas com necessidade de ajustes em padrao, " +
			"area ou estrategia financeira."
	default:
		return "Leitura executiva: o score esta em faixa critica para o cenario " +
			"atual. A compra pode ocorrer, porem com maior chance de concessoes " +
			"relevantes em conforto, liquidez ou custo total."
	}
}

func financialInsight(budget, propertyValue float64) string {
	if budget <= 0 || propertyValue <= 0 {
		return "Leitura executiva: faltam valores completos para avaliar " +
			"pressao financeira com precisao."
	}
	switch rel := propertyValue / budget; {
	case rel <= 0.7:
		return "Leitura executiva: relacao de preco confortavel frente ao " +
			"orcamento, com margem para custos acessorios e ajustes pos-compra."
	case rel <= 0.9:
		return "Leitura executiva: relacao de preco administravel, porem " +
			"exige disciplina no planejamento para nao reduzir a reserva de seguranca."
	default:
		return "Leitura executiva: relacao de preco pressionada para o orcamento " +
			"informado; recomenda-se reduzir exposicao financeira antes de fechar."
	}
}

// Decision is the executive recommendation derived from the score.
type Decision struct {
	Class   string `json:"classe"`
	Message string `json:"mensagem"`
	Action  string `json:"acao"`
}

const (
	DecisionProceed       = "Seguir"
	DecisionAdjust        = "Seguir com ajustes"
	DecisionReconsider    = "Reavaliar"
	decisionProceedScore  = 70
	decisionAdjustedScore = 45
)

func decisionFor(score int) Decision {
	switch {
	case score >= decisionProceedScore:
		return Decision{
			Class: DecisionProceed,
			Message: "Cenario favoravel para avancar na negociacao, mantendo " +
				"validacao documental e vistoria tecnica final.",
			Action: "Acione corretor e engenheiro para fechamento com checklist " +
				"de risco e validacao cartorial.",
		}
	case score >= decisionAdjustedScore:
		return Decision{
			Class: DecisionAdjust,
			Message: "Ha viabilidade, mas com necessidade de calibrar padrao, area, " +
				"ticket ou estrutura de financiamento.",
			Action: "Negocie alternativas de bairro/tipo de imovel e rode nova " +
				"simulacao financeira antes da proposta final.",
		}
	default:
		return Decision{
			Class: DecisionReconsider,
			Message: "Risco elevado de desalinhamento entre objetivo, bairro e custo " +
				"total do ciclo imobiliario.",
			Action: "Priorize bairros sugeridos, ajuste estrategia e somente retome " +
				"fechamento apos nova rodada de analise.",
		}
	}
}
