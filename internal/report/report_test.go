package report

import (
	"context"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/denisok6893-rgb/lokao-advisor/internal/catalog"
	"github.com/denisok6893-rgb/lokao-advisor/internal/cub"
	"github.com/denisok6893-rgb/lokao-advisor/internal/domain"
	"github.com/denisok6893-rgb/lokao-advisor/internal/payment"
	"github.com/denisok6893-rgb/lokao-advisor/internal/pilot"
	"github.com/denisok6893-rgb/lokao-advisor/internal/storage"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	builder  *Builder
	payments *payment.Service
	pilot    *pilot.Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()
	payments := payment.NewService(storage.NewPaymentFileStore(filepath.Join(dir, "pagamentos.json"), nil), "https://pay.example/x", nil)
	pilotSvc := pilot.NewService(storage.NewPilotFileStore(filepath.Join(dir, "piloto.json"), nil), pilot.Options{
		Now: func() time.Time { return testNow },
	})
	cat := catalog.New([]domain.Neighborhood{
		{Name: "Jardim Itália", Region: "Leste", PredominantStandard: "alto", SocioeconomicProfile: "alto", AveragePricePerSqm: 7000},
		{Name: "Centro", Region: "Central", PredominantStandard: "medio", SocioeconomicProfile: "medio", AveragePricePerSqm: 3900},
		{Name: "CPA I", Region: "Norte", PredominantStandard: "economico", SocioeconomicProfile: "medio", AveragePricePerSqm: 3000},
	})
	b := NewBuilder(Options{
		Catalog: cat,
		CUB: cub.Series{City: "Cuiaba-MT", Source: "teste", Entries: []cub.Entry{
			{Period: "2026-01", Economico: 2000, Medio: 2800, Alto: 3400},
			{Period: "2026-02", Economico: 2100, Medio: 2900, Alto: 3500},
		}},
		Payments:   payments,
		Pilot:      pilotSvc,
		PriceCents: 3990,
		Now:        func() time.Time { return testNow },
	})
	return fixture{builder: b, payments: payments, pilot: pilotSvc}
}

func strongForm() url.Values {
	return url.Values{
		"nome":         {"Ana"},
		"bairro":       {"jardim italia"},
		"tipo_imovel":  {"Casa nova"},
		"padrao":       {"alto"},
		"orcamento":    {"R$ 1.000.000,00"},
		"valor_imovel": {"500.000"},
		"area":         {"200"},
	}
}

func TestAnalyzeStrongMatch(t *testing.T) {
	f := newFixture(t)
	c := f.builder.Analyze(context.Background(), MergeFields(strongForm(), nil))

	assert.Equal(t, "Jardim Itália", c.Record.Name)
	assert.Equal(t, 90, c.Score.Value)
	assert.Equal(t, domain.ClassExcellent, c.Score.Classification)
	assert.Equal(t, DecisionProceed, c.Decision.Class)
	assert.Contains(t, c.Narrative.Compatibility, "alta compatibilidade")
	assert.Contains(t, c.Insights.Financial, "confortavel")
	assert.Empty(t, c.Suggestions)
	assert.NotNil(t, c.Suggestions)

	assert.Equal(t, 3500.0, c.CUB.Value)
	assert.Equal(t, "02/2026", c.CUB.PeriodBR)
	assert.Equal(t, "fev/26", c.CUBShort)
	assert.Equal(t, "R$ 700.000,00", c.BuildCost)
	assert.Equal(t, "R$ 7.000,00", c.MarketValue)
	assert.Equal(t, "Expansão Urbana Planejada", c.UrbanProfile)
	assert.Equal(t, "Leste", c.Urban.Region)

	require.Len(t, c.Methods, 4)
	assert.Equal(t, "R$ 3.500,00", c.Methods[0].CostPerSqm)
	assert.InDelta(t, 70.0, c.Methods[0].BudgetPercent, 1e-9)
	assert.Equal(t, 285.7, c.Methods[0].MaxArea)
	assert.Equal(t, "R$ 5.904,00", c.Methods[2].CostPerSqm)
	assert.Equal(t, 200.0, c.MethodsArea)

	require.Len(t, c.Schedule, 4)
	assert.Equal(t, "Maio/2026", c.Schedule[0].SuggestedStart)
	assert.Equal(t, 11, c.Schedule[0].AverageMonths)
	assert.Equal(t, "Abril/2027", c.Schedule[0].Delivery)
}

func TestAnalyzeApartmentAndUnknownNeighborhood(t *testing.T) {
	f := newFixture(t)
	c := f.builder.Analyze(context.Background(), Fields{
		FieldNeighborhood:  "Bairro Novo",
		FieldPropertyType:  "Apartamento",
		FieldStandard:      "medio",
		FieldBudget:        "abc",
		FieldFinancing:     "sim",
		FieldPropertyValue: "400000",
	})

	assert.True(t, c.IsApartment)
	assert.Equal(t, "nao aplicavel", c.CUB.Standard)
	assert.Equal(t, notInformed, c.CUBFormatted)
	assert.Equal(t, notInformed, c.MarketValue)
	assert.Equal(t, "Bairro Novo", c.Record.Name)
	assert.Equal(t, "medio", c.Record.PredominantStandard)
	assert.Equal(t, "R$ 80.000,00", c.DownPayment)
	assert.Equal(t, 180.0, c.MethodsArea)
	assert.Equal(t, "R$ 3.000,00", c.Methods[0].CostPerSqm)
	assert.Contains(t, c.Insights.Financial, "faltam valores")
}

func TestReportPaymentFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	out, err := f.builder.Report(ctx, Request{Form: strongForm()})
	require.NoError(t, err)
	require.NotNil(t, out.Context)
	c := out.Context
	assert.False(t, c.Released)
	assert.Len(t, c.Token, 32)
	assert.Equal(t, "/pagar?token="+c.Token, c.PaymentLink)

	_, err = f.payments.Confirm(ctx, c.Token)
	require.NoError(t, err)

	out, err = f.builder.Report(ctx, Request{Token: c.Token})
	require.NoError(t, err)
	assert.True(t, out.Context.Released)
	assert.Equal(t, "Ana", out.Context.Name, "saved form data is reused")
	assert.Equal(t, 90, out.Context.Score.Value)
	assert.False(t, out.Context.PilotMode)
}

func TestReportPilotFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	out, err := f.builder.Report(ctx, Request{Pilot: true, CPF: "111.444.777-35", Form: strongForm()})
	require.NoError(t, err)
	require.Nil(t, out.Blocked)
	c := out.Context
	assert.True(t, c.Released)
	assert.True(t, c.PilotMode)
	assert.Equal(t, "/piloto/feedback?token="+url.QueryEscape(c.Token), c.FeedbackURL)

	st, err := f.payments.Status(ctx, c.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentPaid, st)

	again, err := f.builder.Report(ctx, Request{Pilot: true, CPF: "11144477735", Form: strongForm()})
	require.NoError(t, err)
	assert.Equal(t, &Blocked{Reason: pilot.ReasonAlreadyUsed, ExistingToken: c.Token}, again.Blocked)

	viaToken, err := f.builder.Report(ctx, Request{Token: c.Token})
	require.NoError(t, err)
	assert.True(t, viaToken.Context.Released)
	assert.Equal(t, "Ana", viaToken.Context.Name)

	bad, err := f.builder.Report(ctx, Request{Pilot: true, CPF: "123"})
	require.NoError(t, err)
	assert.Equal(t, pilot.ReasonInvalidCPF, bad.Blocked.Reason)
}

func TestMergeFieldsPrefersPresentFormValues(t *testing.T) {
	got := MergeFields(url.Values{"bairro": {""}, "area": {"90"}}, map[string]string{"bairro": "Centro", "nome": "Bia"})
	assert.Equal(t, "", got.Get(FieldNeighborhood))
	assert.Equal(t, "90", got.Get(FieldArea))
	assert.Equal(t, "Bia", got.Get(FieldName))
}

func TestMethodTableRoundsToCents(t *testing.T) {
	rows := methodTable(methods(3333.33, "medio"), 33.33, decimal.NewFromInt(100000))

	require.Len(t, rows, 4)
	assert.Equal(t, "R$ 3.066,66", rows[1].CostPerSqm)
	assert.Equal(t, "R$ 102.211,78", rows[1].TotalCost)
	assert.Equal(t, 32.6, rows[1].MaxArea)
	assert.Equal(t, "R$ 3.533,33", rows[3].CostPerSqm)
	assert.Equal(t, "R$ 117.765,89", rows[3].TotalCost)
}

func TestAnalyzeFinancingInCents(t *testing.T) {
	f := newFixture(t)
	c := f.builder.Analyze(context.Background(), Fields{
		FieldNeighborhood:  "Centro",
		FieldStandard:      "medio",
		FieldBudget:        "400.000",
		FieldPropertyValue: "R$ 333.333,33",
		FieldFinancing:     "sim",
		FieldTerm:          "360 meses",
	})

	assert.Equal(t, "R$ 66.666,67", c.DownPayment)
	assert.Equal(t, "R$ 740,74", c.Installment)
	assert.Equal(t, 8333.33, c.Finance.Purchase[1].TransferTax)
	assert.Equal(t, 13500.0, c.Finance.Purchase[1].BudgetBalance)
}
