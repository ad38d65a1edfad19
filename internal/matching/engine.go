package matching

import (
	"github.com/denisok6893-rgb/lokao-advisor/internal/domain"
	"github.com/denisok6893-rgb/lokao-advisor/internal/textnorm"
)

type Engine struct {
	policy Policy
	rules  []rule
}

func NewEngine(p Policy) *Engine {
	return &Engine{policy: p, rules: scoreRules(p)}
}

func (e *Engine) Policy() Policy { return e.policy }

// Tier ranks a standard label: economico/baixo 1, medio 2, alto 3, anything else 0.
func Tier(standard string) int {
	switch textnorm.Key(standard) {
	case "economico", "baixo":
		return 1
	case "medio":
		return 2
	case "alto":
		return 3
	default:
		return 0
	}
}

// scoreInput is the resolved view of a ScoreRequest the rules work on.
type scoreInput struct {
	budget          float64
	propertyValue   float64
	desiredStandard string
	neighborhoodStd string
	neighborhood    int
	desired         int
	socio           int
	financing       bool
}

// rule yields a score delta and its explanation, or fires=false.
type rule struct {
	name  string
	apply func(in scoreInput) (delta int, note string, fires bool)
}

func scoreRules(p Policy) []rule {
	return []rule{
		{"neighborhood_tier", func(in scoreInput) (int, string, bool) {
			switch in.neighborhoodStd {
			case "alto":
				return p.TierBonusHigh, "Bairro de padrão urbano elevado.", true
			case "medio":
				return p.TierBonusMedium, "Bairro de padrão urbano intermediário.", true
			default:
				return p.TierBonusOther, "Bairro de padrão urbano mais econômico/popular.", true
			}
		}},
		{"standard_match", func(in scoreInput) (int, string, bool) {
			if in.desiredStandard == "" {
				return 0, "", false
			}
			if in.desired == 0 || in.neighborhood == 0 {
				return 0, "Padrão do bairro não totalmente identificado para comparação fina.", true
			}
			switch diff := abs(in.desired - in.neighborhood); {
			case diff == 0:
				return p.StandardExact, "Padrão desejado totalmente compatível com o bairro.", true
			case diff == 1:
				return p.StandardNear, "Padrão desejado parcialmente desalinhado com a predominância do bairro.", true
			default:
				return p.StandardFar, "Padrão desejado distante da predominância urbana local.", true
			}
		}},
		{"affordability", func(in scoreInput) (int, string, bool) {
			if in.propertyValue <= 0 || in.budget <= 0 {
				return 0, "", false
			}
			ratio := in.budget / in.propertyValue
			for _, t := range p.Affordability {
				if ratio >= t.MinRatio {
					return t.Delta, t.Note, true
				}
			}
			return p.AffordabilityShortage, "Orçamento insuficiente para o valor do imóvel.", true
		}},
		{"socioeconomic_mismatch", func(in scoreInput) (int, string, bool) {
			below := (in.neighborhood > 0 && in.neighborhood < in.desired) ||
				(in.socio > 0 && in.socio < in.desired)
			if in.propertyValue > 0 &&
				in.budget >= in.propertyValue*p.MismatchBudgetRatio &&
				in.desired >= 3 && below {
				return p.MismatchPenalty, "Há desalinhamento de posicionamento: capacidade financeira " +
					"alta em bairro de predominancia socioeconomica inferior ao padrão desejado.", true
			}
			return 0, "", false
		}},
		{"financing", func(in scoreInput) (int, string, bool) {
			if !in.financing {
				return 0, "", false
			}
			return p.FinancingPenalty, "Financiamento reduz a margem de segurança financeira de longo prazo.", true
		}},
	}
}

// Score computes the 0..100 compatibility score. Explanations follow rule order.
func (e *Engine) Score(req domain.ScoreRequest) domain.ScoreResult {
	in := scoreInput{
		budget:          req.Budget,
		propertyValue:   req.PropertyValue,
		desiredStandard: textnorm.Key(req.DesiredStandard),
		neighborhoodStd: textnorm.Key(req.Neighborhood.PredominantStandard),
		neighborhood:    Tier(req.Neighborhood.PredominantStandard),
		desired:         Tier(req.DesiredStandard),
		socio:           Tier(req.Neighborhood.SocioeconomicProfile),
		financing:       req.Financing,
	}

	score := e.policy.BaseScore
	explanations := make([]string, 0, len(e.rules))
	for _, r := range e.rules {
		delta, note, fires := r.apply(in)
		if !fires {
			continue
		}
		score += delta
		explanations = append(explanations, note)
	}

	score = clampInt(score, 0, 100)
	return domain.ScoreResult{
		Value:          score,
		Classification: Classify(score),
		Explanations:   explanations,
	}
}

// Classify maps a score to its band.
func Classify(score int) domain.Classification {
	switch {
	case score >= 80:
		return domain.ClassExcellent
	case score >= 65:
		return domain.ClassGood
	case score >= 45:
		return domain.ClassLimited
	default:
		return domain.ClassLow
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
