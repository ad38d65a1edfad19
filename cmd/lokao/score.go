package main

import (
	"github.com/spf13/cobra"

	"github.com/denisok6893-rgb/lokao-advisor/internal/domain"
	"github.com/denisok6893-rgb/lokao-advisor/internal/matching"
	"github.com/denisok6893-rgb/lokao-advisor/internal/money"
)

var scoreFlags struct {
	budget    string
	value     string
	area      string
	standard  string
	financing bool
}

var scoreCmd = &cobra.Command{
	Use:     "score [bairro]",
	Short:   "Score a neighborhood and list alternatives",
	Example: `  lokao score "Jardim Italia" --orcamento "R$ 900.000" --valor 650000 --padrao alto`,
	Args:    cobra.ExactArgs(1),
	RunE:    runScore,
}

func init() {
	f := scoreCmd.Flags()
	f.StringVar(&scoreFlags.budget, "orcamento", "", "Budget (R$)")
	f.StringVar(&scoreFlags.value, "valor", "", "Property value (R$)")
	f.StringVar(&scoreFlags.area, "area", "", "Area in square meters")
	f.StringVar(&scoreFlags.standard, "padrao", "", "Desired standard (economico, medio, alto)")
	f.BoolVar(&scoreFlags.financing, "financiar", false, "Buyer will finance")
}

func runScore(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}
	defer log.Sync()
	cat, err := loadCatalog(cfg, log)
	if err != nil {
		return err
	}
	engine := newEngine(cfg, log)

	n, ok := cat.Lookup(args[0])
	if !ok {
		n = domain.Neighborhood{Name: args[0], PredominantStandard: scoreFlags.standard}
	}
	budget := money.ParseBRL(scoreFlags.budget)
	area := money.ParseBRL(scoreFlags.area)
	score := engine.Score(domain.ScoreRequest{
		Neighborhood:    n,
		Budget:          budget,
		PropertyValue:   money.ParseBRL(scoreFlags.value),
		Area:            area,
		DesiredStandard: scoreFlags.standard,
		Financing:       scoreFlags.financing,
	})
	suggestions := engine.Suggest(cat.All(), matching.SuggestRequest{
		Current:         n,
		Score:           score,
		Budget:          budget,
		Area:            area,
		DesiredStandard: scoreFlags.standard,
	})
	if suggestions == nil {
		suggestions = []string{}
	}
	return printJSON(cmd, map[string]any{"score": score, "sugestoes": suggestions})
}
