package httpapi

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/denisok6893-rgb/lokao-advisor/internal/payment"
)

func (s *Server) handlePay(c *gin.Context) {
	token := cleanText(c.Query("token"), 120)
	checkout, token, err := s.payments.Create(c.Request.Context(), s.priceCents, token, nil)
	if err != nil {
		s.log.Error("create payment failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "payment_failed", errors.New("falha ao criar pagamento"))
		return
	}
	RespondOK(c, gin.H{
		"token":          token,
		"url_pagamento":  checkout,
		"url_retorno":    "/pago?token=" + url.QueryEscape(token),
		"valor_centavos": s.priceCents,
	})
}

// handlePaid is the checkout return URL: it confirms the token and sends the buyer to the report.
func (s *Server) handlePaid(c *gin.Context) {
	ctx := c.Request.Context()
	token := cleanText(c.Query("token"), 120)
	exists, err := s.payments.Exists(ctx, token)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "payment_failed", err)
		return
	}
	if !exists {
		RespondError(c, http.StatusNotFound, "not_found", errors.New("Pagamento nao encontrado"))
		return
	}
	if _, err := s.payments.Confirm(ctx, token); err != nil {
		RespondError(c, http.StatusInternalServerError, "payment_failed", err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/relatorio?token="+url.QueryEscape(token))
}

func (s *Server) handlePaymentStatus(c *gin.Context) {
	token := cleanText(c.Query("token"), 120)
	status, err := s.payments.Status(c.Request.Context(), token)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "payment_failed", err)
		return
	}
	RespondOK(c, gin.H{"token": token, "status": status})
}

func (s *Server) handleWebhook(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "no_payload", payment.ErrNoPayload)
		return
	}
	n, err := payment.ParseNotification(body)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "no_payload", err)
		return
	}
	if _, err := s.payments.HandleWebhook(c.Request.Context(), n); err != nil {
		s.log.Error("payment webhook failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "webhook_failed", err)
		return
	}
	c.String(http.StatusOK, "ok")
}
