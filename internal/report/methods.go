package report

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/denisok6893-rgb/lokao-advisor/internal/money"
)

// MethodCost compares construction methods for the reference area.
type MethodCost struct {
	Method        string  `json:"metodologia"`
	CostPerSqm    string  `json:"custo_m2"`
	TotalCost     string  `json:"custo_total"`
	BudgetPercent float64 `json:"percentual_orcamento"`
	MaxArea       float64 `json:"area_max_orcamento"`
	Duration      string  `json:"faixa_prazo"`
	PriceSource   string  `json:"fonte_preco"`
}

// ScheduleRow is the suggested construction calendar of one method.
type ScheduleRow struct {
	Method         string `json:"metodologia"`
	SuggestedStart string `json:"inicio_sugerido"`
	Delivery       string `json:"entrega_estimativa"`
	AverageMonths  int    `json:"prazo_medio_meses"`
}

type method struct {
	name      string
	perSqm    decimal.Decimal
	minMonths int
	maxMonths int
	source    string
}

const (
	fallbackCUB       = 3000.0
	defaultSteelRef   = 4368.0
	scheduleStartMon  = time.May
	lastStartMonth    = time.August
	defaultReportArea = 180.0
)

var steelReference = map[string]float64{
	"economico": 2951.0,
	"medio":     4368.0,
	"alto":      5904.0,
}

var (
	structuralFactor = decimal.RequireFromString("0.92")
	steelFactor      = decimal.RequireFromString("1.18")
	epsFactor        = decimal.RequireFromString("1.06")
)

// methods derives the per-sqm cost of each construction method from the CUB value.
func methods(cubValue float64, standard string) []method {
	steelRef, ok := steelReference[standard]
	if !ok {
		steelRef = defaultSteelRef
	}
	conventional := money.FromFloat(cubValue)
	if !conventional.IsPositive() {
		conventional = decimal.NewFromFloat(fallbackCUB)
	}
	steel := decimal.Max(conventional.Mul(steelFactor), decimal.NewFromFloat(steelRef))
	return []method{
		{"Alvenaria convencional", conventional, 8, 14, "Base Lokáo (referencia CUB/SINAPI)"},
		{"Alvenaria estrutural", conventional.Mul(structuralFactor), 7, 12, "Base Lokáo (ganho de racionalizacao)"},
		{"Steel Frame", steel, 5, 9, "Benchmark setorial (Centro-Oeste)"},
		{"Painel EPS (isopor) + concreto", conventional.Mul(epsFactor), 6, 10, "Base Lokáo (mercado regional)"},
	}
}

func methodTable(ms []method, area float64, budget decimal.Decimal) []MethodCost {
	areaDec := money.FromFloat(area)
	out := make([]MethodCost, 0, len(ms))
	for _, m := range ms {
		perSqm := m.perSqm.Round(2)
		total := perSqm.Mul(areaDec).Round(2)
		row := MethodCost{
			Method:      m.name,
			CostPerSqm:  money.FormatDecimal(perSqm),
			TotalCost:   money.FormatDecimal(total),
			Duration:    fmt.Sprintf("%d a %d meses", m.minMonths, m.maxMonths),
			PriceSource: m.source,
		}
		if budget.IsPositive() {
			row.BudgetPercent = total.Div(budget).Mul(decimal.NewFromInt(100)).InexactFloat64()
		}
		if perSqm.IsPositive() {
			row.MaxArea = budget.Div(perSqm).Round(1).InexactFloat64()
		}
		out = append(out, row)
	}
	return out
}

var monthNames = [...]string{
	"Janeiro", "Fevereiro", "Marco", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// schedule starts every method in May, this year until August and next year after.
func schedule(ms []method, now time.Time) []ScheduleRow {
	year := now.Year()
	if now.Month() > lastStartMonth {
		year++
	}
	start := time.Date(year, scheduleStartMon, 1, 0, 0, 0, 0, time.UTC)

	out := make([]ScheduleRow, 0, len(ms))
	for _, m := range ms {
		avg := (m.minMonths + m.maxMonths) / 2
		end := start.AddDate(0, avg, 0)
		out = append(out, ScheduleRow{
			Method:         m.name,
			SuggestedStart: fmt.Sprintf("%s/%d", monthNames[start.Month()-1], start.Year()),
			Delivery:       fmt.Sprintf("%s/%d", monthNames[end.Month()-1], end.Year()),
			AverageMonths:  avg,
		})
	}
	return out
}
