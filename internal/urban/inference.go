package urban

import (
	"strings"

	"github.com/denisok6893-rgb/lokao-advisor/internal/domain"
)

// Context is the urban description of a neighborhood with every field filled.
type Context struct {
	Neighborhood   string `json:"bairro"`
	Region         string `json:"regiao"`
	UrbanProfile   string `json:"perfil_urbano"`
	LandUse        string `json:"uso_solo"`
	Infrastructure string `json:"infraestrutura"`
	Mobility       string `json:"mobilidade"`
	NoiseLevel     string `json:"nivel_ruido"`
	Notes          string `json:"observacoes_entorno"`
}

type regionInference struct {
	urbanProfile, landUse, infrastructure, mobility, noise string
}

var regionInferences = map[string]regionInference{
	"Central": {
		urbanProfile:   "Área urbana consolidada, com uso misto e grande circulação.",
		landUse:        "Predominância de uso misto (residencial e comercial).",
		infrastructure: "Infraestrutura urbana considerada alta.",
		mobility:       "Alta oferta de vias estruturantes e transporte.",
		noise:          "Nível de ruído médio a alto, típico de áreas centrais.",
	},
	"Norte": {
		urbanProfile:   "Área predominantemente residencial, com expansão urbana.",
		landUse:        "Predominância residencial.",
		infrastructure: "Infraestrutura urbana de nível médio.",
		mobility:       "Mobilidade urbana considerada média.",
		noise:          "Nível de ruído urbano médio.",
	},
	"Sul": {
		urbanProfile:   "Área residencial consolidada com ocupação popular.",
		landUse:        "Predominância residencial com pontos comerciais.",
		infrastructure: "Infraestrutura urbana de nível médio.",
		mobility:       "Mobilidade urbana média.",
		noise:          "Nível de ruído urbano médio.",
	},
	"Leste": {
		urbanProfile:   "Área residencial planejada, com presença de empreendimentos de médio e alto padrão.",
		landUse:        "Predominância residencial planejada.",
		infrastructure: "Infraestrutura urbana considerada alta.",
		mobility:       "Boa mobilidade e acesso a vias principais.",
		noise:          "Nível de ruído baixo a médio.",
	},
	"Oeste": {
		urbanProfile:   "Área residencial consolidada, com bairros tradicionais e áreas nobres.",
		landUse:        "Predominância residencial consolidada.",
		infrastructure: "Infraestrutura urbana considerada alta.",
		mobility:       "Boa mobilidade urbana.",
		noise:          "Nível de ruído baixo a médio.",
	},
}

// Describe fills blank urban fields of n from its region, then from generic defaults.
func Describe(n domain.Neighborhood) Context {
	region := strings.TrimSpace(n.Region)
	inf := regionInferences[region]

	resolve := func(v, inferred, def string) string {
		if strings.TrimSpace(v) != "" {
			return v
		}
		if inferred != "" {
			return inferred
		}
		return def
	}

	ctx := Context{
		Neighborhood:   n.Name,
		Region:         region,
		UrbanProfile:   resolve(n.UrbanProfile, inf.urbanProfile, "Perfil urbano estimado para a região."),
		LandUse:        resolve(n.LandUse, inf.landUse, "Uso do solo estimado conforme padrão regional."),
		Infrastructure: resolve(n.Infrastructure, inf.infrastructure, "Infraestrutura urbana considerada adequada para a região."),
		Mobility:       resolve("", inf.mobility, "Mobilidade urbana compatível com a região."),
		NoiseLevel:     resolve(n.NoiseLevel, inf.noise, "Nível de ruído urbano compatível com a região."),
		Notes:          "Análise baseada em dados urbanos públicos e inferências técnicas regionais.",
	}
	if ctx.Region == "" {
		ctx.Region = "Não informada"
	}
	return ctx
}
