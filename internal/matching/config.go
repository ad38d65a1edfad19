package matching

import (
	"encoding/json"
	"fmt"
	"os"
)

// AffordabilityTier awards Delta when budget/property_value >= MinRatio.
// Tiers are checked in order; the first match wins.
type AffordabilityTier struct {
	MinRatio float64 `json:"min_ratio"`
	Delta    int     `json:"delta"`
	Note     string  `json:"note"`
}

// Policy holds the hand-tuned constants of the score and suggestion rules.
// They are product policy and may be tuned without touching the rules.
type Policy struct {
	BaseScore int `json:"base_score"`

	TierBonusHigh   int `json:"tier_bonus_high"`
	TierBonusMedium int `json:"tier_bonus_medium"`
	TierBonusOther  int `json:"tier_bonus_other"`

	StandardExact int `json:"standard_exact"`
	StandardNear  int `json:"standard_near"`
	StandardFar   int `json:"standard_far"`

	Affordability         []AffordabilityTier `json:"affordability"`
	AffordabilityShortage int                 `json:"affordability_shortage"`

	MismatchBudgetRatio float64 `json:"mismatch_budget_ratio"`
	MismatchPenalty     int     `json:"mismatch_penalty"`

	FinancingPenalty int `json:"financing_penalty"`

	StrongMatchScore int     `json:"strong_match_score"`
	TargetCommitment float64 `json:"target_commitment"`
	MinCommitment    float64 `json:"min_commitment"`
	MaxCommitment    float64 `json:"max_commitment"`
	ReferenceArea    float64 `json:"reference_area"`
	SuggestionLimit  int     `json:"suggestion_limit"`
}

// DefaultPolicy returns the production constants.
func DefaultPolicy() Policy {
	return Policy{
		BaseScore: 20,

		TierBonusHigh:   25,
		TierBonusMedium: 18,
		TierBonusOther:  10,

		StandardExact: 20,
		StandardNear:  -8,
		StandardFar:   -16,

		Affordability: []AffordabilityTier{
			{MinRatio: 1.8, Delta: 25, Note: "Orçamento com folga alta para aquisição e custos acessórios."},
			{MinRatio: 1.4, Delta: 22, Note: "Orçamento com folga confortável para o ticket analisado."},
			{MinRatio: 1.1, Delta: 18, Note: "Orçamento compatível com margem moderada de segurança."},
			{MinRatio: 1.0, Delta: 14, Note: "Orçamento compatível, com folga reduzida."},
			{MinRatio: 0.85, Delta: 6, Note: "Orçamento próximo do valor do imóvel."},
		},
		AffordabilityShortage: -20,

		MismatchBudgetRatio: 1.5,
		MismatchPenalty:     -6,

		FinancingPenalty: -4,

		StrongMatchScore: 75,
		TargetCommitment: 0.70,
		MinCommitment:    0.30,
		MaxCommitment:    0.95,
		ReferenceArea:    180,
		SuggestionLimit:  5,
	}
}

// LoadPolicyFromFile overlays a JSON file on DefaultPolicy.
// On error the defaults are returned alongside it.
func LoadPolicyFromFile(path string) (Policy, error) {
	p := DefaultPolicy()
	b, err := os.ReadFile(path)
	if err != nil {
		return p, fmt.Errorf("read policy file: %w", err)
	}
	if err := json.Unmarshal(b, &p); err != nil {
		return DefaultPolicy(), fmt.Errorf("unmarshal policy: %w", err)
	}
	return p, nil
}
