package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// feedbackLimits caps the length of each feedback answer.
var feedbackLimits = []struct {
	field string
	limit int
}{
	{"clareza", 30},
	{"utilidade", 30},
	{"confianca", 30},
	{"nps", 4},
	{"tempo_form", 30},
	{"uso_relatorio", 30},
	{"etapa_mais_util", 50},
	{"info_faltante", 220},
	{"valor_percebido", 400},
	{"faltou_algo", 600},
	{"recomendaria", 20},
}

func (s *Server) handlePilot(c *gin.Context) {
	w, err := s.pilot.Window(c.Request.Context())
	if err != nil {
		s.log.Error("pilot window failed", "error", err)
		RespondError(c, http.StatusInternalServerError, "pilot_failed", err)
		return
	}
	names := s.catalog.Names()
	if names == nil {
		names = []string{}
	}
	RespondOK(c, gin.H{"bairros": names, "modo_teste": true, "janela": w})
}

func (s *Server) handlePilotFeedback(c *gin.Context) {
	ctx := c.Request.Context()
	token := cleanText(c.Query("token"), 120)
	if token == "" {
		token = cleanText(c.PostForm("token"), 120)
	}
	if token == "" {
		RespondError(c, http.StatusNotFound, "not_found", errNotFound)
		return
	}
	valid, err := s.pilot.TokenValid(ctx, token)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "pilot_failed", err)
		return
	}
	if !valid {
		RespondError(c, http.StatusNotFound, "not_found", errNotFound)
		return
	}

	sent, err := s.pilot.FeedbackAlreadySent(ctx, token)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "pilot_failed", err)
		return
	}
	saved := false
	if c.Request.Method == http.MethodPost && !sent {
		answers := make(map[string]string, len(feedbackLimits))
		for _, f := range feedbackLimits {
			answers[f.field] = cleanText(c.PostForm(f.field), f.limit)
		}
		res, err := s.pilot.RegisterFeedback(ctx, token, answers, clientOf(c))
		if err != nil {
			RespondError(c, http.StatusInternalServerError, "pilot_failed", err)
			return
		}
		saved = res.OK
		sent = saved
	}
	RespondOK(c, gin.H{"token": token, "enviado": sent, "salvo": saved})
}

type pilotEventRequest struct {
	Type  string `json:"tipo" form:"tipo"`
	Token string `json:"token" form:"token"`
}

func (s *Server) handlePilotEvent(c *gin.Context) {
	var req pilotEventRequest
	if err := c.ShouldBind(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	kind := cleanText(req.Type, 40)
	if kind == "" {
		RespondError(c, http.StatusBadRequest, "invalid_request", errors.New("tipo obrigatorio"))
		return
	}
	if err := s.pilot.RecordEvent(c.Request.Context(), kind, cleanText(req.Token, 120), clientOf(c)); err != nil {
		RespondError(c, http.StatusInternalServerError, "pilot_failed", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handlePilotMetrics(c *gin.Context) {
	m, err := s.pilot.Metrics(c.Request.Context())
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "pilot_failed", err)
		return
	}
	RespondOK(c, m)
}

func (s *Server) handlePilotAdmin(c *gin.Context) {
	v, err := s.pilot.Admin(c.Request.Context(), 30, 60)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "pilot_failed", err)
		return
	}
	RespondOK(c, v)
}

func (s *Server) handlePilotRelease(c *gin.Context) {
	res, err := s.pilot.ReleaseCPF(c.Request.Context(), cleanText(c.PostForm("cpf"), 20))
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "pilot_failed", err)
		return
	}
	status := http.StatusOK
	if !res.OK {
		status = http.StatusUnprocessableEntity
	}
	c.JSON(status, res)
}
