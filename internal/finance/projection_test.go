package finance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func reais(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestProject_ConservativeCashPurchase(t *testing.T) {
	p := Project(Input{PropertyValue: reais(300000), Budget: reais(400000)})

	require.Len(t, p.Purchase, 3)
	c := p.Purchase[0]
	assert.Equal(t, "Conservador", c.Scenario)
	assert.InDelta(t, 6000, c.TransferTax, 1e-6)
	assert.InDelta(t, 2400, c.NotaryFees, 1e-6)
	assert.Equal(t, 800.0, c.BankFees)
	assert.InDelta(t, 6000, c.Adjustments, 1e-6)
	assert.InDelta(t, 12000, c.Reserve, 1e-6)
	assert.InDelta(t, 300000*(1+0.020+0.008+0.020+0.040)+800, c.Total, 1e-6)
	assert.InDelta(t, 327200, c.Total, 1e-6)
	assert.InDelta(t, 400000-327200, c.BudgetBalance, 1e-6)
	assert.InDelta(t, 81.8, c.BudgetPercent, 1e-9)

	assert.Equal(t, "Base", p.Purchase[1].Scenario)
	assert.InDelta(t, 300000*(1+0.025+0.011+0.050+0.060)+1200, p.Purchase[1].Total, 1e-6)
	assert.Equal(t, "Estressado", p.Purchase[2].Scenario)
	assert.InDelta(t, 300000*(1+0.030+0.015+0.080+0.100)+1800, p.Purchase[2].Total, 1e-6)

	assert.Nil(t, p.Financing)
	assert.Empty(t, p.Construction)
	assert.Equal(t, []string{"Ticket em faixa administravel, com necessidade de controle de custos."}, p.Messages)
}

func TestProject_FinancedBankFees(t *testing.T) {
	p := Project(Input{PropertyValue: reais(300000), Budget: reais(300000), Financing: true, Income: reais(10000), TermMonths: 240})

	assert.Equal(t, 2500.0, p.Purchase[0].BankFees)
	assert.Equal(t, 4500.0, p.Purchase[1].BankFees)
	assert.Equal(t, 7000.0, p.Purchase[2].BankFees)

	require.NotNil(t, p.Financing)
	assert.InDelta(t, 60000, p.Financing.DownPayment, 1e-9)
	assert.InDelta(t, 1000, p.Financing.Installment, 1e-9)
	assert.InDelta(t, 10, p.Financing.IncomeCommitment, 1e-9)
	assert.Equal(t, 240, p.Financing.TermMonths)

	assert.Equal(t, []string{
		"Ticket pressionado para o orcamento informado.",
		"Simulacao simplificada: use como referencia inicial, nao como proposta bancaria.",
	}, p.Messages)
}

func TestProject_DefaultTermAndNoIncome(t *testing.T) {
	p := Project(Input{PropertyValue: reais(360000), Financing: true})
	require.NotNil(t, p.Financing)
	assert.Equal(t, DefaultTermMonths, p.Financing.TermMonths)
	assert.InDelta(t, 800, p.Financing.Installment, 1e-9)
	assert.Zero(t, p.Financing.IncomeCommitment)
	// no budget: ratios fall back to zero
	assert.Zero(t, p.TicketPercent)
	assert.Zero(t, p.Purchase[0].BudgetPercent)
}

func TestProject_ConstructionScenarios(t *testing.T) {
	p := Project(Input{Budget: reais(500000), Area: reais(100), PricePerSqm: reais(3000)})

	assert.InDelta(t, 300000, p.EstimatedCost, 1e-9)
	require.Len(t, p.Construction, 3)
	assert.InDelta(t, 300000*(1+0.04+0.01+0.07+0.08), p.Construction[0].Total, 1e-6)
	assert.InDelta(t, 300000*(1+0.06+0.015+0.10+0.12), p.Construction[1].Total, 1e-6)
	assert.InDelta(t, 300000*(1+0.08+0.02+0.13+0.18), p.Construction[2].Total, 1e-6)
	assert.InDelta(t, 500000-360000, p.Construction[0].BudgetBalance, 1e-6)

	assert.Empty(t, p.Purchase)
	assert.False(t, p.HasTicket)
	assert.Empty(t, p.Messages)
}

func TestProject_AmountsStayInCents(t *testing.T) {
	p := Project(Input{
		PropertyValue: decimal.RequireFromString("333333.33"),
		Budget:        reais(400000),
		Financing:     true,
		Income:        reais(7000),
		TermMonths:    360,
	})

	base := p.Purchase[1]
	assert.Equal(t, "Base", base.Scenario)
	assert.Equal(t, 8333.33, base.TransferTax)
	assert.Equal(t, 3666.67, base.NotaryFees)
	assert.Equal(t, 4500.0, base.BankFees)
	assert.Equal(t, 16666.67, base.Adjustments)
	assert.Equal(t, 20000.0, base.Reserve)
	assert.Equal(t, 386500.0, base.Total)
	assert.Equal(t, 13500.0, base.BudgetBalance)

	require.NotNil(t, p.Financing)
	assert.Equal(t, 66666.67, p.Financing.DownPayment)
	assert.Equal(t, 740.74, p.Financing.Installment)

	c := Project(Input{Budget: reais(100000), Area: decimal.RequireFromString("33.33"), PricePerSqm: decimal.RequireFromString("3000.10")})
	assert.Equal(t, 99993.33, c.EstimatedCost)
	assert.Equal(t, 3999.73, c.Construction[0].Projects)
	assert.Equal(t, 99993.33+3999.73+999.93+6999.53+7999.47, c.Construction[0].Total)
}

func TestTicketBands(t *testing.T) {
	assert.Equal(t, "Ticket de compra em faixa confortavel frente ao orcamento.", ticketMessage(70))
	assert.Equal(t, "Ticket em faixa administravel, com necessidade de controle de custos.", ticketMessage(90))
	assert.Equal(t, "Ticket pressionado para o orcamento informado.", ticketMessage(90.01))
}

func TestParseTermMonths(t *testing.T) {
	assert.Equal(t, 240, ParseTermMonths("240 meses"))
	assert.Equal(t, 360, ParseTermMonths("trinta anos"))
	assert.Equal(t, 360, ParseTermMonths(""))
	assert.Equal(t, 360, ParseTermMonths("0"))
	assert.Equal(t, 180, ParseTermMonths("prazo: 180"))
}
