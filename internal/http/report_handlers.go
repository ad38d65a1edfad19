package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/denisok6893-rgb/lokao-advisor/internal/domain"
	"github.com/denisok6893-rgb/lokao-advisor/internal/matching"
	"github.com/denisok6893-rgb/lokao-advisor/internal/money"
	"github.com/denisok6893-rgb/lokao-advisor/internal/pilot"
	"github.com/denisok6893-rgb/lokao-advisor/internal/report"
)

type ScoreRequest struct {
	Neighborhood    string       `json:"bairro"`
	Budget          money.Amount `json:"orcamento"`
	PropertyValue   money.Amount `json:"valor_imovel"`
	Area            money.Amount `json:"area"`
	DesiredStandard string       `json:"padrao"`
	Financing       bool         `json:"financiar"`
	Limit           int          `json:"limite"`
}

type ScoreResponse struct {
	Neighborhood domain.Neighborhood  `json:"dados_bairro"`
	Score        domain.ScoreResult   `json:"score"`
	Alternatives []matching.Candidate `json:"alternativas"`
	Suggestions  []string             `json:"sugestoes"`
}

func (s *Server) handleScore(c *gin.Context) {
	var req ScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_json", err)
		return
	}
	name := cleanText(req.Neighborhood, 120)
	n, ok := s.catalog.Lookup(name)
	if !ok {
		n = domain.Neighborhood{Name: name, PredominantStandard: req.DesiredStandard}
	}

	score := s.engine.Score(domain.ScoreRequest{
		Neighborhood:    n,
		Budget:          req.Budget.Float(),
		PropertyValue:   req.PropertyValue.Float(),
		Area:            req.Area.Float(),
		DesiredStandard: req.DesiredStandard,
		Financing:       req.Financing,
	})
	candidates := s.engine.RankAlternatives(s.catalog.All(), matching.SuggestRequest{
		Current:         n,
		Score:           score,
		Budget:          req.Budget.Float(),
		Area:            req.Area.Float(),
		DesiredStandard: req.DesiredStandard,
		Limit:           req.Limit,
	})
	resp := ScoreResponse{
		Neighborhood: n,
		Score:        score,
		Alternatives: make([]matching.Candidate, 0, len(candidates)),
		Suggestions:  make([]string, 0, len(candidates)),
	}
	for _, cand := range candidates {
		resp.Alternatives = append(resp.Alternatives, cand)
		resp.Suggestions = append(resp.Suggestions, cand.Sentence())
	}
	RespondOK(c, resp)
}

type PaywallResponse struct {
	Released    bool               `json:"liberado"`
	Token       string             `json:"token"`
	PaymentLink string             `json:"link_pagamento"`
	Score       domain.ScoreResult `json:"score"`
	Decision    report.Decision    `json:"resumo_decisao"`
}

type BlockedResponse struct {
	Blocked       bool   `json:"bloqueado"`
	Reason        string `json:"motivo"`
	ExistingToken string `json:"token_existente,omitempty"`
}

func (s *Server) handleReport(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_form", err)
		return
	}
	form := c.Request.Form
	req := report.Request{
		Token:  cleanText(form.Get("token"), 120),
		Pilot:  strings.TrimSpace(form.Get("piloto")) == "1",
		CPF:    cleanText(form.Get("cpf"), 20),
		Form:   form,
		Client: clientOf(c),
	}

	out, err := s.reports.Report(c.Request.Context(), req)
	if err != nil {
		s.log.Error("build report failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "report_failed", errors.New("falha ao montar relatorio"))
		return
	}
	if out.Blocked != nil {
		c.JSON(http.StatusForbidden, BlockedResponse{
			Blocked:       true,
			Reason:        out.Blocked.Reason,
			ExistingToken: out.Blocked.ExistingToken,
		})
		return
	}
	rc := out.Context
	if !rc.Released {
		c.JSON(http.StatusPaymentRequired, PaywallResponse{
			Token:       rc.Token,
			PaymentLink: rc.PaymentLink,
			Score:       rc.Score,
			Decision:    rc.Decision,
		})
		return
	}
	RespondOK(c, rc)
}

func clientOf(c *gin.Context) pilot.Client {
	return pilot.Client{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}
