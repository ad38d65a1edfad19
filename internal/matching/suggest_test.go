package matching

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denisok6893-rgb/lokao-advisor/internal/domain"
)

func suggestCatalog() []domain.Neighborhood {
	return []domain.Neighborhood{
		{Name: "ATUAL", PredominantStandard: "alto", AveragePricePerSqm: 3900},
		{Name: "B", PredominantStandard: "medio", AveragePricePerSqm: 3900},
		{Name: "C", PredominantStandard: "medio", AveragePricePerSqm: 3000},
		{Name: "D", PredominantStandard: "medio", AveragePricePerSqm: 5400},
		{Name: "E", PredominantStandard: "medio", AveragePricePerSqm: 1500},
		{Name: "F", PredominantStandard: "alto", AveragePricePerSqm: 4500},
		{Name: "H", PredominantStandard: "economico", AveragePricePerSqm: 3500},
		{Name: "I", PredominantStandard: "", AveragePricePerSqm: 3800},
		{Name: "J", PredominantStandard: "alto", AveragePricePerSqm: 0},
	}
}

func TestRankAlternatives(t *testing.T) {
	e := newEngine()
	got := e.RankAlternatives(suggestCatalog(), SuggestRequest{
		Current:         domain.Neighborhood{Name: "Atual"},
		Score:           domain.ScoreResult{Value: 50},
		Budget:          1000000,
		DesiredStandard: "alto",
	})

	names := make([]string, 0, len(got))
	for _, c := range got {
		names = append(names, c.Neighborhood.Name)
		assert.LessOrEqual(t, c.Commitment, 0.95)
		assert.GreaterOrEqual(t, c.Commitment, 0.30)
	}
	assert.Equal(t, []string{"B", "I", "F", "C"}, names)
	assert.InDelta(t, 702000, got[0].EstimatedCost, 1e-6)
}

func TestRankAlternatives_Limit(t *testing.T) {
	got := newEngine().RankAlternatives(suggestCatalog(), SuggestRequest{
		Current: domain.Neighborhood{Name: "Atual"},
		Score:   domain.ScoreResult{Value: 50},
		Budget:  1000000,
		Limit:   2,
	})
	require.Len(t, got, 2)
}

func TestRankAlternatives_TieBreaksTowardHigherCommitment(t *testing.T) {
	p := DefaultPolicy()
	p.TargetCommitment = 0.5
	e := NewEngine(p)

	got := e.RankAlternatives([]domain.Neighborhood{
		{Name: "Low", AveragePricePerSqm: 3000},
		{Name: "High", AveragePricePerSqm: 5000},
	}, SuggestRequest{
		Score:  domain.ScoreResult{Value: 10},
		Budget: 800000,
		Area:   100,
	})
	require.Len(t, got, 2)
	assert.Equal(t, "High", got[0].Neighborhood.Name)
	assert.Equal(t, 0.625, got[0].Commitment)
	assert.Equal(t, "Low", got[1].Neighborhood.Name)
}

func TestSuggest_ShortCircuits(t *testing.T) {
	e := newEngine()
	strong := e.Suggest(suggestCatalog(), SuggestRequest{Score: domain.ScoreResult{Value: 75}, Budget: 1000000})
	assert.Empty(t, strong)

	noBudget := e.Suggest(suggestCatalog(), SuggestRequest{Score: domain.ScoreResult{Value: 10}})
	assert.Empty(t, noBudget)
}

func TestSuggest_Sentence(t *testing.T) {
	got := newEngine().Suggest(suggestCatalog(), SuggestRequest{
		Current:         domain.Neighborhood{Name: "Atual"},
		Score:           domain.ScoreResult{Value: 50},
		Budget:          1000000,
		DesiredStandard: "alto",
		Limit:           1,
	})
	require.Len(t, got, 1)
	assert.Equal(t,
		"B - Custo estimado de R$ 702.000 para a area informada, comprometendo 70.2% do orçamento e mantendo folga de 29.8%.",
		got[0])
}
