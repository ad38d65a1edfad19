// Package report assembles the analysis shown to the buyer and decides whether it is released.
package report

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/denisok6893-rgb/lokao-advisor/internal/catalog"
	"github.com/denisok6893-rgb/lokao-advisor/internal/cub"
	"github.com/denisok6893-rgb/lokao-advisor/internal/domain"
	"github.com/denisok6893-rgb/lokao-advisor/internal/finance"
	"github.com/denisok6893-rgb/lokao-advisor/internal/logging"
	"github.com/denisok6893-rgb/lokao-advisor/internal/market"
	"github.com/denisok6893-rgb/lokao-advisor/internal/matching"
	"github.com/denisok6893-rgb/lokao-advisor/internal/money"
	"github.com/denisok6893-rgb/lokao-advisor/internal/pilot"
	"github.com/denisok6893-rgb/lokao-advisor/internal/textnorm"
	"github.com/denisok6893-rgb/lokao-advisor/internal/urban"
)

const (
	Version       = "Lokáo 1.0.1"
	notInformed   = "Nao informado"
	suggestionCap = 5
	brDateLayout  = "02/01/2006 15:04"
)

type Payments interface {
	Data(ctx context.Context, token string) (map[string]string, error)
	RegisterPending(ctx context.Context, token string, data map[string]string) error
	Create(ctx context.Context, amountCents int, token string, data map[string]string) (string, string, error)
	Confirm(ctx context.Context, token string) (bool, error)
	Status(ctx context.Context, token string) (domain.PaymentStatus, error)
}

type Pilot interface {
	TokenValid(ctx context.Context, token string) (bool, error)
	RegisterUniqueGeneration(ctx context.Context, cpf string, c pilot.Client) (pilot.Result, error)
}

type PriceResolver interface {
	Resolve(ctx context.Context, n domain.Neighborhood, neighborhood, propertyType string) market.Context
}

// Context is everything the report presents.
type Context struct {
	Name          string `json:"nome"`
	Neighborhood  string `json:"bairro"`
	PropertyType  string `json:"tipo_imovel"`
	Standard      string `json:"padrao"`
	Budget        string `json:"orcamento"`
	PropertyValue string `json:"valor_imovel"`
	IsApartment   bool   `json:"is_apartamento"`
	Financing     bool   `json:"financiar"`
	FinancingType string `json:"tipo_financiamento"`
	Term          string `json:"prazo"`
	Income        string `json:"renda_formatada"`
	DownPayment   string `json:"entrada_estimada,omitempty"`
	Installment   string `json:"parcela_estimada,omitempty"`

	Record domain.Neighborhood `json:"dados_bairro"`
	Score  domain.ScoreResult  `json:"score"`

	Urban          urban.Context       `json:"urbano"`
	UrbanProfile   string              `json:"perfil_urbano"`
	ProfileInfo    *urban.Profile      `json:"perfil_info,omitempty"`
	CrossReference string              `json:"cruzamento"`
	TypeGuidance   *urban.PropertyType `json:"orientacao_tipo,omitempty"`

	CUB          cub.Reference  `json:"contexto_cub"`
	CUBFormatted string         `json:"cub"`
	CUBShort     string         `json:"cub_competencia_curta"`
	Market       market.Context `json:"contexto_m2"`
	MarketValue  string         `json:"valor_m2_compra"`
	MarketDate   string         `json:"data_valor_m2_compra"`
	BuildCost    string         `json:"custo_estimado"`

	Finance     finance.Projection `json:"financeiro"`
	Narrative   Narrative          `json:"textos"`
	Insights    Insights           `json:"insights"`
	Decision    Decision           `json:"resumo_decisao"`
	Methods     []MethodCost       `json:"tabela_metodologias"`
	MethodsArea float64            `json:"area_ref_metodologias"`
	Schedule    []ScheduleRow      `json:"calendario_exec"`
	Suggestions []string           `json:"sugestoes"`

	Token       string `json:"token"`
	Paid        bool   `json:"pago"`
	Released    bool   `json:"liberado"`
	PaymentLink string `json:"link_pagamento"`
	PilotMode   bool   `json:"modo_teste"`
	FeedbackURL string `json:"piloto_feedback_url"`
	Version     string `json:"report_version"`
	GeneratedAt string `json:"generated_at"`
}

// Blocked explains why a pilot report was refused.
type Blocked struct {
	Reason        string `json:"motivo"`
	ExistingToken string `json:"token_existente,omitempty"`
}

// Outcome carries either a report context or a pilot refusal.
type Outcome struct {
	Context *Context
	Blocked *Blocked
}

// Request is one report attempt.
type Request struct {
	Token  string
	Pilot  bool
	CPF    string
	Form   url.Values
	Client pilot.Client
}

type Options struct {
	Catalog    *catalog.Catalog
	Engine     *matching.Engine
	CUB        cub.Series
	Market     PriceResolver
	Payments   Payments
	Pilot      Pilot
	PriceCents int
	Logger     *logging.Logger
	Now        func() time.Time
}

type Builder struct {
	catalog    *catalog.Catalog
	engine     *matching.Engine
	cub        cub.Series
	market     PriceResolver
	payments   Payments
	pilot      Pilot
	priceCents int
	log        *logging.Logger
	now        func() time.Time
}

func NewBuilder(opts Options) *Builder {
	b := &Builder{
		catalog:    opts.Catalog,
		engine:     opts.Engine,
		cub:        opts.CUB,
		market:     opts.Market,
		payments:   opts.Payments,
		pilot:      opts.Pilot,
		priceCents: opts.PriceCents,
		log:        logging.OrNop(opts.Logger).With("component", "report"),
		now:        opts.Now,
	}
	if b.engine == nil {
		b.engine = matching.NewEngine(matching.DefaultPolicy())
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b
}

// Report runs the access decision: a valid pilot token releases the report,
// a pilot request claims a CPF, anything else goes through payment.
func (b *Builder) Report(ctx context.Context, req Request) (Outcome, error) {
	token := strings.TrimSpace(req.Token)

	if token != "" && b.pilot != nil {
		valid, err := b.pilot.TokenValid(ctx, token)
		if err != nil {
			return Outcome{}, err
		}
		if valid {
			c, err := b.assemble(ctx, token, req.Form, true)
			return Outcome{Context: c}, err
		}
	}

	if req.Pilot && b.pilot != nil {
		res, err := b.pilot.RegisterUniqueGeneration(ctx, req.CPF, req.Client)
		if err != nil {
			return Outcome{}, err
		}
		if !res.OK {
			return Outcome{Blocked: &Blocked{Reason: res.Reason, ExistingToken: res.Token}}, nil
		}
		c, err := b.assemble(ctx, res.Token, req.Form, true)
		return Outcome{Context: c}, err
	}

	c, err := b.assemble(ctx, token, req.Form, false)
	return Outcome{Context: c}, err
}

func (b *Builder) assemble(ctx context.Context, token string, form url.Values, release bool) (*Context, error) {
	var saved map[string]string
	if token != "" && b.payments != nil {
		var err error
		if saved, err = b.payments.Data(ctx, token); err != nil {
			return nil, fmt.Errorf("load saved report data: %w", err)
		}
	}
	fields := MergeFields(form, saved)
	c := b.Analyze(ctx, fields)

	token, paid, err := b.gate(ctx, token, fields.Data(), release)
	if err != nil {
		return nil, err
	}
	c.Token = token
	c.Paid = paid
	c.Released = paid
	c.PaymentLink = "/pagar?token=" + url.QueryEscape(token)
	c.PilotMode = release
	if release {
		c.FeedbackURL = "/piloto/feedback?token=" + url.QueryEscape(token)
	}
	return c, nil
}

// gate records the report data under token and reports whether it is paid.
func (b *Builder) gate(ctx context.Context, token string, data map[string]string, release bool) (string, bool, error) {
	if b.payments == nil {
		return token, release, nil
	}
	var err error
	switch {
	case token != "":
		err = b.payments.RegisterPending(ctx, token, data)
	case release:
		_, token, err = b.payments.Create(ctx, 0, "", data)
	default:
		_, token, err = b.payments.Create(ctx, b.priceCents, "", data)
	}
	if err != nil {
		return "", false, err
	}
	if release {
		if _, err := b.payments.Confirm(ctx, token); err != nil {
			return "", false, err
		}
		return token, true, nil
	}
	status, err := b.payments.Status(ctx, token)
	if err != nil {
		return "", false, err
	}
	return token, status == domain.PaymentPaid, nil
}

// Analyze computes the report content from raw form fields. It never fails:
// unparsable numbers read as zero and unknown neighborhoods use the form values.
func (b *Builder) Analyze(ctx context.Context, f Fields) *Context {
	now := b.now()
	name := f.Get(FieldNeighborhood)
	propertyType := f.Get(FieldPropertyType)
	standard := f.Get(FieldStandard)
	budgetDec := money.ParseDecimal(f.Get(FieldBudget))
	propertyValueDec := money.ParseDecimal(f.Get(FieldPropertyValue))
	areaDec := money.ParseDecimal(f.Get(FieldArea))
	incomeDec := money.ParseDecimal(f.Get(FieldIncome))
	budget := budgetDec.InexactFloat64()
	propertyValue := propertyValueDec.InexactFloat64()
	area := areaDec.InexactFloat64()
	financing := ParseFinancing(f.Get(FieldFinancing))
	apartment := IsApartment(propertyType)

	record, ok := b.catalog.Lookup(name)
	if !ok {
		record = domain.Neighborhood{Name: name, PredominantStandard: standard}
	}

	score := b.engine.Score(domain.ScoreRequest{
		Neighborhood:    record,
		Budget:          budget,
		PropertyValue:   propertyValue,
		Area:            area,
		DesiredStandard: standard,
		Financing:       financing,
	})
	suggestions := b.engine.Suggest(b.catalog.All(), matching.SuggestRequest{
		Current:         record,
		Score:           score,
		Budget:          budget,
		Area:            area,
		DesiredStandard: standard,
		Limit:           suggestionCap,
	})
	if suggestions == nil {
		suggestions = []string{}
	}

	var price market.Context
	if b.market != nil {
		price = b.market.Resolve(ctx, record, name, propertyType)
	} else if record.AveragePricePerSqm > 0 {
		price = market.Context{Value: record.AveragePricePerSqm, Source: market.SourceLokao, Origin: market.OriginLokao}
	} else {
		price = market.Context{Source: market.SourceUnknown, Origin: market.OriginDefault}
	}

	var ref cub.Reference
	if apartment {
		ref = cub.Reference{
			Standard: "nao aplicavel",
			City:     "Cuiaba-MT",
			Source:   "Nao aplicavel para apartamento",
		}
	} else {
		ref = b.cub.Lookup(standard, "", now)
	}

	proj := finance.Project(finance.Input{
		Budget:        budgetDec,
		PropertyValue: propertyValueDec,
		Area:          areaDec,
		PricePerSqm:   money.FromFloat(ref.Value),
		Income:        incomeDec,
		Financing:     financing,
		TermMonths:    finance.ParseTermMonths(f.Get(FieldTerm)),
	})

	profile := urban.ProfileName(name)
	c := &Context{
		Name:          f.Get(FieldName),
		Neighborhood:  name,
		PropertyType:  propertyType,
		Standard:      standard,
		Budget:        f.Get(FieldBudget),
		PropertyValue: f.Get(FieldPropertyValue),
		IsApartment:   apartment,
		Financing:     financing,
		FinancingType: f.Get(FieldFinancingType),
		Term:          f.Get(FieldTerm),
		Income:        orNotInformedDecimal(incomeDec),

		Record: record,
		Score:  score,

		Urban:          urban.Describe(record),
		UrbanProfile:   profile,
		CrossReference: urban.CrossReference(profile, propertyType),

		CUB:          ref,
		CUBFormatted: orNotInformed(ref.Value),
		CUBShort:     cub.PeriodShort(ref.Period),
		Market:       price,
		MarketValue:  orNotInformed(price.Value),
		MarketDate:   brDate(price.ReferenceDate),
		BuildCost:    orNotInformed(proj.EstimatedCost),

		Finance:     proj,
		Narrative:   narrativeFor(score.Value),
		Insights:    Insights{Score: scoreInsight(score.Value), Financial: financialInsight(budget, propertyValue)},
		Decision:    decisionFor(score.Value),
		Suggestions: suggestions,

		Version:     Version,
		GeneratedAt: now.Format(brDateLayout),
	}
	if p, ok := urban.ProfileInfo(profile); ok {
		c.ProfileInfo = &p
	}
	if t, ok := urban.PropertyTypeInfo(propertyType); ok {
		c.TypeGuidance = &t
	}
	if proj.Financing != nil {
		c.DownPayment = money.FormatBRL(proj.Financing.DownPayment)
		c.Installment = money.FormatBRL(proj.Financing.Installment)
	}

	refArea := area
	if refArea <= 0 {
		refArea = defaultReportArea
	}
	ms := methods(ref.Value, textnorm.Key(standard))
	c.Methods = methodTable(ms, refArea, budgetDec)
	c.MethodsArea = math.Round(refArea*10) / 10
	c.Schedule = schedule(ms, now)
	return c
}

func orNotInformed(v float64) string {
	return orNotInformedDecimal(money.FromFloat(v))
}

func orNotInformedDecimal(v decimal.Decimal) string {
	if v.IsZero() {
		return notInformed
	}
	return money.FormatDecimal(v)
}

// brDate renders a stored timestamp as dd/mm/yyyy hh:mm, passing unknown formats through.
func brDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if t, ok := domain.ParseTime(s); ok {
		return t.Format(brDateLayout)
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(brDateLayout)
		}
	}
	return s
}
