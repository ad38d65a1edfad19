// Package finance builds advisory cost scenarios for purchase and construction.
// All figures are heuristic and derived only from the inputs.
package finance

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// DefaultTermMonths is used when the financing term cannot be parsed.
const DefaultTermMonths = 360

const (
	comfortableBand = 70.0
	manageableBand  = 90.0
)

var (
	downPaymentShare = decimal.RequireFromString("0.20")
	hundred          = decimal.NewFromInt(100)
)

// Input amounts are exact decimals; Area is square meters.
type Input struct {
	Budget        decimal.Decimal
	PropertyValue decimal.Decimal
	Area          decimal.Decimal
	PricePerSqm   decimal.Decimal // construction cost per sqm, usually the CUB value
	Income        decimal.Decimal
	Financing     bool
	TermMonths    int
}

// Money fields below are rounded to cents before leaving the package.

type PurchaseScenario struct {
	Scenario      string  `json:"cenario"`
	TransferTax   float64 `json:"itbi"`
	NotaryFees    float64 `json:"cartorio"`
	BankFees      float64 `json:"bancario"`
	Adjustments   float64 `json:"adequacoes"`
	Reserve       float64 `json:"reserva"`
	Total         float64 `json:"total"`
	BudgetBalance float64 `json:"saldo_vs_orcamento"`
	BudgetPercent float64 `json:"percentual_orcamento"`
}

type ConstructionScenario struct {
	Scenario       string  `json:"cenario"`
	Projects       float64 `json:"projetos"`
	Approvals      float64 `json:"aprovacoes"`
	Infrastructure float64 `json:"infraestrutura"`
	Contingency    float64 `json:"contingencia"`
	Total          float64 `json:"total"`
	BudgetBalance  float64 `json:"saldo_vs_orcamento"`
	BudgetPercent  float64 `json:"percentual_orcamento"`
}

type FinancingEstimate struct {
	DownPayment      float64 `json:"entrada_minima_estimada"`
	Installment      float64 `json:"parcela_estimada"`
	IncomeCommitment float64 `json:"comprometimento_renda_estimado"`
	TermMonths       int     `json:"prazo_meses"`
}

type Projection struct {
	Budget        float64                `json:"orcamento"`
	PropertyValue float64                `json:"valor_imovel"`
	Area          float64                `json:"area"`
	PricePerSqm   float64                `json:"valor_m2"`
	EstimatedCost float64                `json:"custo_estimado"`
	TicketPercent float64                `json:"percentual_ticket_orcamento"`
	HasTicket     bool                   `json:"-"`
	Financing     *FinancingEstimate     `json:"financiamento,omitempty"`
	Purchase      []PurchaseScenario     `json:"projecoes_compra"`
	Construction  []ConstructionScenario `json:"projecoes_construcao"`
	Messages      []string               `json:"mensagens"`
}

type purchaseRates struct {
	name                   string
	transferTax, notary    decimal.Decimal
	bankFinanced, bankCash decimal.Decimal
	adjustments, reserve   decimal.Decimal
}

func rate(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var purchaseTable = []purchaseRates{
	{"Conservador", rate("0.020"), rate("0.008"), rate("2500"), rate("800"), rate("0.020"), rate("0.040")},
	{"Base", rate("0.025"), rate("0.011"), rate("4500"), rate("1200"), rate("0.050"), rate("0.060")},
	{"Estressado", rate("0.030"), rate("0.015"), rate("7000"), rate("1800"), rate("0.080"), rate("0.100")},
}

type constructionRates struct {
	name                                             string
	projects, approvals, infrastructure, contingency decimal.Decimal
}

var constructionTable = []constructionRates{
	{"Conservador", rate("0.040"), rate("0.010"), rate("0.070"), rate("0.080")},
	{"Base", rate("0.060"), rate("0.015"), rate("0.100"), rate("0.120")},
	{"Estressado", rate("0.080"), rate("0.020"), rate("0.130"), rate("0.180")},
}

// Project computes the purchase and construction scenarios for in.
func Project(in Input) Projection {
	out := Projection{
		Budget:        in.Budget.InexactFloat64(),
		PropertyValue: in.PropertyValue.InexactFloat64(),
		Area:          in.Area.InexactFloat64(),
		PricePerSqm:   in.PricePerSqm.InexactFloat64(),
		Messages:      []string{},
	}
	cost := decimal.Zero
	if in.PricePerSqm.IsPositive() && in.Area.IsPositive() {
		cost = cents(in.PricePerSqm.Mul(in.Area))
		out.EstimatedCost = cost.InexactFloat64()
	}

	if in.PropertyValue.IsPositive() {
		out.HasTicket = true
		out.TicketPercent = percent(in.PropertyValue, in.Budget)
		out.Messages = append(out.Messages, ticketMessage(out.TicketPercent))
	}

	if in.Financing && in.PropertyValue.IsPositive() {
		term := in.TermMonths
		if term <= 0 {
			term = DefaultTermMonths
		}
		down := cents(in.PropertyValue.Mul(downPaymentShare))
		installment := cents(in.PropertyValue.Sub(down).Div(decimal.NewFromInt(int64(term))))
		out.Financing = &FinancingEstimate{
			DownPayment:      down.InexactFloat64(),
			Installment:      installment.InexactFloat64(),
			IncomeCommitment: percent(installment, in.Income),
			TermMonths:       term,
		}
		out.Messages = append(out.Messages,
			"Simulacao simplificada: use como referencia inicial, nao como proposta bancaria.")
	}

	out.Purchase = purchaseScenarios(in.PropertyValue, in.Financing, in.Budget)
	out.Construction = constructionScenarios(cost, in.Budget)
	return out
}

func ticketMessage(pct float64) string {
	switch {
	case pct <= comfortableBand:
		return "Ticket de compra em faixa confortavel frente ao orcamento."
	case pct <= manageableBand:
		return "Ticket em faixa administravel, com necessidade de controle de custos."
	default:
		return "Ticket pressionado para o orcamento informado."
	}
}

func purchaseScenarios(value decimal.Decimal, financing bool, budget decimal.Decimal) []PurchaseScenario {
	if !value.IsPositive() {
		return []PurchaseScenario{}
	}
	out := make([]PurchaseScenario, 0, len(purchaseTable))
	for _, r := range purchaseTable {
		bank := r.bankCash
		if financing {
			bank = r.bankFinanced
		}
		itbi := cents(value.Mul(r.transferTax))
		notary := cents(value.Mul(r.notary))
		adjustments := cents(value.Mul(r.adjustments))
		reserve := cents(value.Mul(r.reserve))
		total := decimal.Sum(value, itbi, notary, bank, adjustments, reserve)
		out = append(out, PurchaseScenario{
			Scenario:      r.name,
			TransferTax:   itbi.InexactFloat64(),
			NotaryFees:    notary.InexactFloat64(),
			BankFees:      bank.InexactFloat64(),
			Adjustments:   adjustments.InexactFloat64(),
			Reserve:       reserve.InexactFloat64(),
			Total:         total.InexactFloat64(),
			BudgetBalance: budget.Sub(total).InexactFloat64(),
			BudgetPercent: percent(total, budget),
		})
	}
	return out
}

func constructionScenarios(cost, budget decimal.Decimal) []ConstructionScenario {
	if !cost.IsPositive() {
		return []ConstructionScenario{}
	}
	out := make([]ConstructionScenario, 0, len(constructionTable))
	for _, r := range constructionTable {
		projects := cents(cost.Mul(r.projects))
		approvals := cents(cost.Mul(r.approvals))
		infra := cents(cost.Mul(r.infrastructure))
		contingency := cents(cost.Mul(r.contingency))
		total := decimal.Sum(cost, projects, approvals, infra, contingency)
		out = append(out, ConstructionScenario{
			Scenario:       r.name,
			Projects:       projects.InexactFloat64(),
			Approvals:      approvals.InexactFloat64(),
			Infrastructure: infra.InexactFloat64(),
			Contingency:    contingency.InexactFloat64(),
			Total:          total.InexactFloat64(),
			BudgetBalance:  budget.Sub(total).InexactFloat64(),
			BudgetPercent:  percent(total, budget),
		})
	}
	return out
}

// ParseTermMonths extracts the digits of a free-text term such as "240 meses".
func ParseTermMonths(s string) int {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) {
			return r
		}
		return -1
	}, s)
	if digits == "" {
		return DefaultTermMonths
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n <= 0 {
		return DefaultTermMonths
	}
	return n
}

func cents(v decimal.Decimal) decimal.Decimal { return v.Round(2) }

// percent returns num/den*100, or 0 when den is not positive.
func percent(num, den decimal.Decimal) float64 {
	if !den.IsPositive() {
		return 0
	}
	return num.Div(den).Mul(hundred).InexactFloat64()
}
