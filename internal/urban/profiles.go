// Package urban holds the static urban-profile knowledge used by reports.
package urban

import (
	"github.com/denisok6893-rgb/lokao-advisor/internal/textnorm"
)

// DefaultProfile is assigned to neighborhoods missing from the profile map.
const DefaultProfile = "Residencial Tradicional Consolidado"

type Profile struct {
	Description    string `json:"descricao"`
	Noise          string `json:"ruido"`
	Neighbors      string `json:"vizinhos"`
	Risk           string `json:"risco"`
	Recommendation string `json:"recomendacao"`
}

var neighborhoodProfiles = map[string]string{
	"Centro":  "Urbano Consolidado Central",
	"Araés":   "Urbano Consolidado Central",
	"Lixeira": "Urbano Consolidado Central",

	"Goiabeiras":      "Residencial de Alto Padrão",
	"Duque de Caxias": "Residencial de Alto Padrão",
	"Bosque da Saúde": "Residencial de Alto Padrão",

	"Popular":             "Misto Residencial–Comercial",
	"Jardim das Américas": "Misto Residencial–Comercial",
	"Coxipó":              "Misto Residencial–Comercial",

	"Jardim Itália":     "Expansão Urbana Planejada",
	"Florais Cuiabá":    "Residencial de Alto Padrão",
	"Florais dos Lagos": "Residencial de Alto Padrão",
	"Ribeirão do Lipa":  "Expansão Urbana Planejada",

	"CPA I":   "Residencial Tradicional Consolidado",
	"CPA II":  "Residencial Tradicional Consolidado",
	"CPA III": "Residencial Tradicional Consolidado",

	"Distrito Industrial": "Zona Especial / Industrial / Logística",
}

var profileByKey = func() map[string]string {
	m := make(map[string]string, len(neighborhoodProfiles))
	for name, p := range neighborhoodProfiles {
		m[textnorm.Key(name)] = p
	}
	return m
}()

var profiles = map[string]Profile{
	"Urbano Consolidado Central": {
		Description:    "Região com alta densidade urbana, infraestrutura completa e uso intensivo do solo, com presença significativa de comércio e serviços.",
		Noise:          "moderado a elevado",
		Neighbors:      "comércio, serviços e vias estruturais",
		Risk:           "moderado",
		Recommendation: "avaliar conforto acústico e questões legais antes da decisão",
	},
	"Residencial Tradicional Consolidado": {
		Description:    "Bairro predominantemente residencial, com ocupação antiga, infraestrutura consolidada e perfil de vizinhança estável.",
		Noise:          "baixo a moderado",
		Neighbors:      "residências e comércio de bairro",
		Risk:           "baixo",
		Recommendation: "avaliar estado de conservação e potencial de modernização",
	},
	"Residencial de Alto Padrão": {
		Description:    "Região valorizada, com padrão construtivo elevado, baixo nível de interferência urbana e maior controle de uso.",
		Noise:          "baixo",
		Neighbors:      "residências de alto padrão",
		Risk:           "baixo",
		Recommendation: "avaliar custo de aquisição e regras urbanísticas locais",
	},
	"Misto Residencial–Comercial": {
		Description:    "Área com coexistência de usos residenciais e comerciais, gerando dinâmica urbana intensa.",
		Noise:          "moderado",
		Neighbors:      "comércio, serviços e residências",
		Risk:           "moderado",
		Recommendation: "avaliar impactos de ruído e tráfego conforme o tipo de imóvel",
	},
	"Expansão Urbana Planejada": {
		Description:    "Região em crescimento planejado, com novos loteamentos, infraestrutura em implantação e potencial de valorização.",
		Noise:          "baixo a moderado",
		Neighbors:      "obras, novos empreendimentos e áreas livres",
		Risk:           "moderado",
		Recommendation: "avaliar prazos de consolidação urbana e serviços disponíveis",
	},
	"Expansão Urbana em Consolidação": {
		Description:    "Área em processo de adensamento, com infraestrutura parcial e ocupação heterogênea.",
		Noise:          "variável",
		Neighbors:      "residências, comércio informal e obras",
		Risk:           "moderado a elevado",
		Recommendation: "avaliar documentação e infraestrutura local com atenção",
	},
	"Zona Especial / Industrial / Logística": {
		Description:    "Região destinada predominantemente a atividades industriais ou logísticas, com restrições ao uso residencial.",
		Noise:          "elevado",
		Neighbors:      "galpões, indústrias e tráfego pesado",
		Risk:           "elevado",
		Recommendation: "verificar compatibilidade legal e ambiental do uso pretendido",
	},
}

// ProfileName maps a neighborhood name to its urban-profile category.
// Comparison ignores case and accents.
func ProfileName(neighborhood string) string {
	if p, ok := profileByKey[textnorm.Key(neighborhood)]; ok {
		return p
	}
	return DefaultProfile
}

// ProfileInfo returns the description of a profile category.
func ProfileInfo(name string) (Profile, bool) {
	p, ok := profiles[name]
	return p, ok
}
