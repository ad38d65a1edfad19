package matching

import (
	"fmt"
	"math"
	"sort"

	"github.com/denisok6893-rgb/lokao-advisor/internal/domain"
	"github.com/denisok6893-rgb/lokao-advisor/internal/money"
	"github.com/denisok6893-rgb/lokao-advisor/internal/textnorm"
)

// SuggestRequest describes the current analysis for which alternatives are ranked.
type SuggestRequest struct {
	Current         domain.Neighborhood
	Score           domain.ScoreResult
	Budget          float64
	Area            float64
	DesiredStandard string
	Limit           int
}

// Candidate is one ranked alternative neighborhood.
type Candidate struct {
	Neighborhood  domain.Neighborhood `json:"bairro"`
	EstimatedCost float64             `json:"custo"`
	Commitment    float64             `json:"comprometimento"`
	Margin        float64             `json:"folga"`
	Distance      float64             `json:"distancia_alvo"`
}

// Sentence renders the candidate for the report.
func (c Candidate) Sentence() string {
	return fmt.Sprintf(
		"%s - Custo estimado de %s para a area informada, comprometendo %.1f%% do orçamento e mantendo folga de %.1f%%.",
		c.Neighborhood.Name, money.FormatBRLWhole(c.EstimatedCost), c.Commitment*100, c.Margin*100,
	)
}

// RankAlternatives returns catalog entries whose estimated cost uses closest to the
// target share of the budget. Empty when the score is already strong or there is no budget.
func (e *Engine) RankAlternatives(catalog []domain.Neighborhood, req SuggestRequest) []Candidate {
	p := e.policy
	if req.Score.Value >= p.StrongMatchScore || req.Budget <= 0 {
		return nil
	}

	currentKey := textnorm.Key(req.Current.Name)
	desired := Tier(req.DesiredStandard)
	area := req.Area
	if area <= 0 {
		area = p.ReferenceArea
	}

	var out []Candidate
	for _, n := range catalog {
		if textnorm.Key(n.Name) == currentKey {
			continue
		}
		// Keep alternatives within one tier of the desired standard.
		tier := Tier(n.PredominantStandard)
		if desired > 0 && tier > 0 && abs(tier-desired) > 1 {
			continue
		}
		if n.AveragePricePerSqm <= 0 {
			continue
		}

		cost := n.AveragePricePerSqm * area
		commitment := cost / req.Budget
		if commitment > p.MaxCommitment || commitment < p.MinCommitment {
			continue
		}
		out = append(out, Candidate{
			Neighborhood:  n,
			EstimatedCost: cost,
			Commitment:    commitment,
			Margin:        1 - commitment,
			Distance:      math.Abs(p.TargetCommitment - commitment),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Commitment > out[j].Commitment
	})

	limit := req.Limit
	if limit <= 0 {
		limit = p.SuggestionLimit
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Suggest is RankAlternatives rendered as report sentences.
func (e *Engine) Suggest(catalog []domain.Neighborhood, req SuggestRequest) []string {
	ranked := e.RankAlternatives(catalog, req)
	out := make([]string, 0, len(ranked))
	for _, c := range ranked {
		out = append(out, c.Sentence())
	}
	return out
}
